package ttdm

import "context"

// CompletionType distinguishes commit from rollback for EndTran/Transact.
type CompletionType int

const (
	Commit CompletionType = iota
	Rollback
)

// EndTran applied to an environment fans out to both tables if both are
// present; the combined result is the most severe of the two. If
// r.EndTranWorkaround is set and a table's own result is an empty-stack
// error, that result is promoted to success, compensating for a known
// driver bug where the call erroneously reports an error with nothing on
// its diagnostic stack.
//
// Grounded on benthor-clustersql's fan-out-to-every-node Driver.Open, which
// launches one goroutine per node and waits for all results before picking
// a winner (cluster.go:108-143), adapted here from "first success wins" to
// "most severe wins", since unlike a connection pool a transaction boundary
// must account for every backend, not stop at the first one that answers.
func EndTran(env *Environment, ct CompletionType) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLEndTran", env.id)
	defer func() { end(&ret) }()

	env.diag.Clear()
	if !env.valid(KindEnvironment) {
		ret = ReturnInvalidHandle
		return
	}
	env.Lock()
	defer env.Unlock()

	tables := env.tables()
	if len(tables) == 0 {
		PushSequenceError(&env.diag, env.ODBCVersion(), "no driver tables loaded for end-transaction", EncodingANSI, "", "")
		ret = ReturnError
		return
	}

	type outcome struct {
		ret   ReturnCode
		stack DiagStack
	}
	results := make([]outcome, 0, len(tables))
	for _, t := range tables {
		ret, _, err := t.call(ODBCEntryEndTran, nil, ct)
		var stack DiagStack
		if err != nil {
			pushDM(&stack, ReturnError, "HY000", 0, err.Error(), EncodingANSI, "", "")
			ret = ReturnError
		}
		native := env.directEnv
		if t == env.registry.client {
			native = env.clientEnv
		}
		driverDiag := driverDiagSource{table: t, native: native}
		if env.registry.EndTranWorkaround && ret == ReturnError && stack.Len() == 0 && driverDiag.DiagRecordCount() == 0 {
			ret = ReturnSuccess
		}
		results = append(results, outcome{ret: ret, stack: stack})
	}

	combined := results[0].ret
	for _, r := range results[1:] {
		combined = mostSevere(combined, r.ret)
	}
	for _, r := range results {
		for i := 1; i <= r.stack.Len(); i++ {
			if rec, ok := r.stack.At(i); ok {
				env.diag.Push(rec)
			}
		}
	}
	ret = combined
	return
}

// Transact is the ODBC-2 predecessor of EndTran; it carries the same
// semantics at the environment level.
func Transact(env *Environment, ct CompletionType) ReturnCode {
	return EndTran(env, ct)
}

// EndTranConnection applies EndTran to a single connection, which always
// uses its in-use table only: no fan-out, since a CONNECTED connection has
// committed to one driver.
func EndTranConnection(c *Connection, ct CompletionType) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLEndTran(SQL_HANDLE_DBC)", c.id)
	defer func() { end(&ret) }()

	c.diag.Clear()
	if !c.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	c.Lock()
	defer c.Unlock()
	if c.state != connStateConnected {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "cannot end transaction: not connected", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}
	r, _, err := c.inUse.call(ODBCEntryEndTran, c.nativeConn(), ct)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}
