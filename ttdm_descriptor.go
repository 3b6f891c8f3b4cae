package ttdm

import "context"

// Descriptor belongs to exactly one connection. It is either implicit
// (owned by a statement's row/parameter descriptor slot, not explicitly
// freeable) or explicit (allocated by the application, explicitly
// freeable).
type Descriptor struct {
	handle

	id   string
	conn *Connection
	stmt *Statement // nil for an explicit descriptor

	native   interface{}
	implicit bool
	role     string // "row", "param", or "" for explicit
}

// AllocDesc allocates an explicit descriptor on conn.
func AllocDesc(conn *Connection) (desc *Descriptor, ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLAllocHandle(SQL_HANDLE_DESC)", conn.id)
	defer func() { end(&ret) }()

	conn.diag.Clear()
	if !conn.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	conn.Lock()
	defer conn.Unlock()
	if conn.state != connStateConnected {
		PushSequenceError(&conn.diag, conn.env.ODBCVersion(), "cannot allocate descriptor: not connected", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}
	_, native, err := conn.inUse.call(ODBCEntryAllocHandle, conn.nativeConn(), KindDescriptor)
	if err != nil {
		PushResourceError(&conn.diag, conn.env.ODBCVersion(), "driver refused to allocate descriptor", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}
	d := &Descriptor{
		handle: newHandle(KindDescriptor),
		id:     conn.env.registry.newHandleID(),
		conn:   conn,
		native: native,
	}
	conn.descsMu.Lock()
	conn.descs[d.id] = d
	conn.descsMu.Unlock()
	desc, ret = d, ReturnSuccess
	return
}

// newImplicitDescriptor creates the DM descriptor handle for a statement's
// row or parameter descriptor, which the application can query (but not
// explicitly free) through GetStmtAttr. It does not call the driver; the
// handle's native descriptor is left nil.
func newImplicitDescriptor(conn *Connection, stmt *Statement, role string) *Descriptor {
	d := &Descriptor{
		handle:   newHandle(KindDescriptor),
		id:       conn.env.registry.newHandleID(),
		conn:     conn,
		stmt:     stmt,
		implicit: true,
		role:     role,
	}
	conn.descsMu.Lock()
	conn.descs[d.id] = d
	conn.descsMu.Unlock()
	return d
}

// FreeDesc frees an explicit descriptor. Rejected for an implicit one;
// those are torn down only when their owning statement is freed.
func FreeDesc(d *Descriptor) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLFreeHandle(SQL_HANDLE_DESC)", d.id)
	defer func() { end(&ret) }()

	d.diag.Clear()
	if !d.valid(KindDescriptor) {
		ret = ReturnInvalidHandle
		return
	}
	d.Lock()
	defer d.Unlock()
	if d.implicit {
		PushSequenceError(&d.diag, d.conn.env.ODBCVersion(), "cannot free an implicit descriptor", EncodingANSI, d.conn.connName, d.conn.serverName)
		ret = ReturnError
		return
	}
	if d.native != nil {
		d.conn.inUse.call(ODBCEntryFreeHandle, d.native, KindDescriptor)
	}
	d.conn.descsMu.Lock()
	delete(d.conn.descs, d.id)
	d.conn.descsMu.Unlock()
	d.invalidate()
	ret = ReturnSuccess
	return
}

// belongsTo reports whether d is owned (directly, or via its statement) by
// conn; used by the driver-native-handle self-served queries to reject a
// handle from the wrong connection as an invalid-attribute error.
func (d *Descriptor) belongsTo(conn *Connection) bool {
	return d.conn == conn
}
