package ttdm

import (
	"context"
	"errors"
	"sync"
)

// connState is a small sum type in place of a sentinel-null-pointer
// encoding: a connection is in exactly one of these two states.
type connState int

const (
	connStateAlloc connState = iota
	connStateConnected
)

// Connection carries both driver-level connection handles until a
// successful connect commits to one.
type Connection struct {
	handle

	id  string
	env *Environment

	state connState

	directConn interface{} // driver-native connection handle, direct table
	clientConn interface{} // driver-native connection handle, client table

	inUse *FunctionTable // nil until CONNECTED

	connName   string
	connNameW  string
	serverName string
	serverNameW string

	stmtsMu sync.Mutex
	stmts   map[string]*Statement
	descsMu sync.Mutex
	descs   map[string]*Descriptor

	capture *ChangeCaptureHandle
}

// AllocConnect allocates a connection on env. Both driver-level connection
// handles are created where the corresponding table is loaded; the
// connection starts in connStateAlloc.
func AllocConnect(env *Environment) (conn *Connection, ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLAllocHandle(SQL_HANDLE_DBC)", env.id)
	defer func() { end(&ret) }()

	env.diag.Clear()
	if !env.valid(KindEnvironment) {
		ret = ReturnInvalidHandle
		return
	}
	env.Lock()
	defer env.Unlock()

	c := &Connection{
		handle: newHandle(KindConnection),
		id:     env.registry.newHandleID(),
		env:    env,
		state:  connStateAlloc,
		stmts:  map[string]*Statement{},
		descs:  map[string]*Descriptor{},
	}
	if env.registry.direct != nil {
		_, res, _ := env.registry.direct.call(ODBCEntryAllocHandle, env.directEnv, KindConnection)
		c.directConn = res
	}
	if env.registry.client != nil {
		_, res, _ := env.registry.client.call(ODBCEntryAllocHandle, env.clientEnv, KindConnection)
		c.clientConn = res
	}

	env.connsMu.Lock()
	env.conns[c.id] = c
	env.connsMu.Unlock()
	conn, ret = c, ReturnSuccess
	return
}

// FreeConnect frees c. Rejected (sequence error) while CONNECTED, or while
// any statement or descriptor still exists.
func FreeConnect(c *Connection) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLFreeHandle(SQL_HANDLE_DBC)", c.id)
	defer func() { end(&ret) }()

	c.diag.Clear()
	if !c.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	c.Lock()
	defer c.Unlock()

	if c.state == connStateConnected {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "cannot free connection: still connected", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}
	c.stmtsMu.Lock()
	nStmts := len(c.stmts)
	c.stmtsMu.Unlock()
	c.descsMu.Lock()
	nDescs := len(c.descs)
	c.descsMu.Unlock()
	if nStmts > 0 || nDescs > 0 {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "cannot free connection: statements or descriptors still exist", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}

	if c.capture != nil {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "cannot free connection: change-capture handle still exists", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}

	if r := c.env.registry.direct; r != nil && c.directConn != nil {
		r.call(ODBCEntryFreeHandle, c.directConn, KindConnection)
	}
	if r := c.env.registry.client; r != nil && c.clientConn != nil {
		r.call(ODBCEntryFreeHandle, c.clientConn, KindConnection)
	}

	c.env.connsMu.Lock()
	delete(c.env.conns, c.id)
	c.env.connsMu.Unlock()
	c.invalidate()
	ret = ReturnSuccess
	return
}

// retryableConnectStates are the SQLSTATEs (paired with native error zero)
// that signal "this DSN is not ours" from the client driver, which the
// connect decision rule treats as "retry on the direct table" rather than
// as a terminal failure.
var retryableConnectStates = map[string]bool{
	"08001": true,
	"IM002": true,
	"S1000": true,
	"HY000": true,
}

// Connect implements the connect decision rule. On a connStateAlloc
// connection:
//  1. If both tables are present, the client table is attempted first.
//  2. Success (with or without info) commits to the client table.
//  3. The specific "cannot connect to this DSN" signal (state in
//     retryableConnectStates, native error 0) discards client diagnostics
//     and retries on the direct table.
//  4. Whichever table succeeds on retry is committed; if both fail, the
//     retry path's errors are surfaced.
//  5. If only one table is present, it is used unconditionally.
func Connect(c *Connection, dsn, user, password string) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLConnect", c.id)
	defer func() { end(&ret) }()

	c.diag.Clear()
	if !c.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	c.Lock()
	defer c.Unlock()

	if c.state != connStateAlloc {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "connection already connected", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}

	client := c.env.registry.client
	direct := c.env.registry.direct

	switch {
	case client != nil && direct != nil:
		r, preserved := c.tryConnect(client, c.clientConn, dsn, user, password)
		if r == ReturnSuccess || r == ReturnSuccessWithInfo {
			c.commit(client, c.clientConn)
			c.diag = preserved
			ret = c.finishConnect(r)
			return
		}
		if connectIsRetryable(preserved) {
			// Discard the client diagnostics; free its driver-level
			// connection before retrying on direct.
			if client != nil && c.clientConn != nil {
				client.call(ODBCEntryFreeHandle, c.clientConn, KindConnection)
				c.clientConn = nil
			}
			c.diag.Clear()
			r2, preserved2 := c.tryConnect(direct, c.directConn, dsn, user, password)
			if r2 == ReturnSuccess || r2 == ReturnSuccessWithInfo {
				c.commit(direct, c.directConn)
			}
			c.diag = preserved2
			ret = c.finishConnect(r2)
			return
		}
		c.diag = preserved
		ret = r
		return
	case client != nil:
		r, preserved := c.tryConnect(client, c.clientConn, dsn, user, password)
		if r == ReturnSuccess || r == ReturnSuccessWithInfo {
			c.commit(client, c.clientConn)
		}
		c.diag = preserved
		ret = c.finishConnect(r)
		return
	case direct != nil:
		r, preserved := c.tryConnect(direct, c.directConn, dsn, user, password)
		if r == ReturnSuccess || r == ReturnSuccessWithInfo {
			c.commit(direct, c.directConn)
		}
		c.diag = preserved
		ret = c.finishConnect(r)
		return
	default:
		PushLibraryError(&c.diag, c.env.ODBCVersion(), "no driver library available to connect", EncodingANSI)
		ret = ReturnError
		return
	}
}

// tryConnect calls table's Connect entry and returns the result plus a
// DiagStack capturing whatever that call pushed, without mutating c.diag
// directly (the caller decides whether to keep, discard, or drain it). A
// *DriverError carries the driver's own SQLSTATE/native-error pair through
// unchanged; any other error is reported as a generic connection failure.
func (c *Connection) tryConnect(table *FunctionTable, nativeConn interface{}, dsn, user, password string) (ReturnCode, DiagStack) {
	ret, _, err := table.call(ODBCEntryConnect, nativeConn, dsn, user, password)
	var stack DiagStack
	if err != nil {
		var derr *DriverError
		if errors.As(err, &derr) {
			pushDM(&stack, ReturnError, derr.SQLState, derr.NativeError, derr.Message, EncodingANSI, "", "")
		} else {
			pushDM(&stack, ReturnError, "08001", 0, err.Error(), EncodingANSI, "", "")
		}
		return ReturnError, stack
	}
	return ret, stack
}

// connectIsRetryable inspects a just-attempted client connect's diagnostics
// for the specific "wrong DSN" signal.
func connectIsRetryable(stack DiagStack) bool {
	rec, ok := stack.At(1)
	if !ok {
		return false
	}
	return retryableConnectStates[rec.SQLState] && rec.NativeError == 0
}

// commit records which table this connection has committed to, and frees
// the never-chosen driver's connection handle from bookkeeping.
func (c *Connection) commit(table *FunctionTable, nativeConn interface{}) {
	c.inUse = table
	if table == c.env.registry.client {
		c.clientConn = nativeConn
		if c.directConn != nil && c.env.registry.direct != nil {
			c.env.registry.direct.call(ODBCEntryFreeHandle, c.directConn, KindConnection)
			c.directConn = nil
		}
	} else {
		c.directConn = nativeConn
		if c.clientConn != nil && c.env.registry.client != nil {
			c.env.registry.client.call(ODBCEntryFreeHandle, c.clientConn, KindConnection)
			c.clientConn = nil
		}
	}
}

// finishConnect transitions the connection to CONNECTED on success, then
// caches the connection/server name by issuing two driver-side queries (one
// ANSI, one UTF-16) and restoring the diagnostic stack that existed before
// those queries, so the side effect is invisible to the application.
func (c *Connection) finishConnect(ret ReturnCode) ReturnCode {
	if ret != ReturnSuccess && ret != ReturnSuccessWithInfo {
		return ret
	}
	c.state = connStateConnected
	saved := c.diag
	_, nameResult, _ := c.inUse.call(ODBCEntryGetInfo, c.nativeConn(), "SQL_CONNECTION_NAME", false)
	if name, ok := nameResult.(string); ok {
		c.connName = name
	}
	_, nameResultW, _ := c.inUse.call(ODBCEntryGetInfo, c.nativeConn(), "SQL_CONNECTION_NAME", true)
	if name, ok := nameResultW.(string); ok {
		c.connNameW = name
	}
	_, srvResult, _ := c.inUse.call(ODBCEntryGetInfo, c.nativeConn(), "SQL_SERVER_NAME", false)
	if srv, ok := srvResult.(string); ok {
		c.serverName = srv
	}
	_, srvResultW, _ := c.inUse.call(ODBCEntryGetInfo, c.nativeConn(), "SQL_SERVER_NAME", true)
	if srv, ok := srvResultW.(string); ok {
		c.serverNameW = srv
	}
	c.diag = saved
	return ret
}

// nativeConn returns the surviving driver-level connection handle: the one
// belonging to the in-use table once CONNECTED, or nil beforehand.
func (c *Connection) nativeConn() interface{} {
	if c.inUse == nil {
		return nil
	}
	if c.inUse == c.env.registry.client {
		return c.clientConn
	}
	return c.directConn
}

// Disconnect ends the driver-side session through the in-use table and, on
// success, returns the connection to connStateAlloc. The in-use table and
// the surviving driver-level connection handle are kept (the handle of the
// table not chosen, freed at connect time, is not reallocated); FreeConnect
// releases what remains.
func Disconnect(c *Connection) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLDisconnect", c.id)
	defer func() { end(&ret) }()

	c.diag.Clear()
	if !c.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	c.Lock()
	defer c.Unlock()
	if c.state != connStateConnected {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "connection is not connected", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}
	r, _, _ := c.inUse.call(ODBCEntryDisconnect, c.nativeConn())
	if r == ReturnSuccess {
		c.state = connStateAlloc
	}
	ret = r
	return
}

// ConnectionType returns the self-served TTDM_CONNECTION_TYPE value.
func (c *Connection) ConnectionType() ConnectionType {
	switch {
	case c.state != connStateConnected:
		return ConnectionTypeNone
	case c.inUse == c.env.registry.client:
		return ConnectionTypeClient
	default:
		return ConnectionTypeDirect
	}
}

// InUseTable exposes which table a CONNECTED connection uses, for
// statement/descriptor allocation.
func (c *Connection) InUseTable() *FunctionTable { return c.inUse }

// State exposes the two-variant connection state for tests and the
// self-served layer.
func (c *Connection) State() connState { return c.state }
