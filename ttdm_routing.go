package ttdm

import "context"

// routingOp names the logical operation the grid-routing vendor extension
// passes through the GetInfo slot of the ODBC entry-point list for its
// single passthrough call; it is dispatched over GetInfo's slot
// since routing, like GetInfo, takes a connection and an opaque request and
// returns an opaque result, and no new ordinal is needed.
const routingOp = "ttRoute"

// Route dispatches a grid-routing call. It requires a CONNECTED connection
// and goes straight through the in-use table with no diagnostic-merging
// bookkeeping beyond the standard clear/validate/lock shim, since routing
// calls are not SQL statements.
//
// Grounded on Core.DoQuery minus the Sql-object tracing wrapper
// (gdb_core.go:109): same call-through-a-Link shape, without the
// statement-timing record that only makes sense for SQL text.
func Route(c *Connection, request interface{}) (result interface{}, ret ReturnCode) {
	_, end := traceStart(context.Background(), "ttRoute", c.id)
	defer func() { end(&ret) }()

	c.diag.Clear()
	if !c.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	c.Lock()
	defer c.Unlock()
	if c.state != connStateConnected {
		PushSequenceError(&c.diag, c.env.ODBCVersion(), "routing requires a connected connection", EncodingANSI, c.connName, c.serverName)
		ret = ReturnError
		return
	}
	r, res, err := c.inUse.call(ODBCEntryGetInfo, c.nativeConn(), routingOp, request)
	if err != nil {
		ret = ReturnError
		return
	}
	result, ret = res, r
	return
}
