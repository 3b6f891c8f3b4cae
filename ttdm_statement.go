package ttdm

import "context"

// Statement belongs to exactly one connection. It carries the driver-level
// statement handle and the two implicit descriptors (row, parameter) cached
// at allocation time.
type Statement struct {
	handle

	id   string
	conn *Connection

	native interface{}

	rowDesc   *Descriptor
	paramDesc *Descriptor
}

// AllocStmt allocates a statement on conn, which must be CONNECTED. Under
// ODBC-3, the DM immediately creates fresh DM descriptor handles for the
// statement's row and parameter descriptors. The driver is not asked for its
// own implicit descriptors, so these handles carry no driver-native
// descriptor.
func AllocStmt(conn *Connection) (stmt *Statement, ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLAllocHandle(SQL_HANDLE_STMT)", conn.id)
	defer func() { end(&ret) }()

	conn.diag.Clear()
	if !conn.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	conn.Lock()
	defer conn.Unlock()

	if conn.state != connStateConnected {
		PushSequenceError(&conn.diag, conn.env.ODBCVersion(), "cannot allocate statement: not connected", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}

	_, native, err := conn.inUse.call(ODBCEntryAllocHandle, conn.nativeConn(), KindStatement)
	if err != nil {
		PushResourceError(&conn.diag, conn.env.ODBCVersion(), "driver refused to allocate statement", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}

	s := &Statement{
		handle: newHandle(KindStatement),
		id:     conn.env.registry.newHandleID(),
		conn:   conn,
		native: native,
	}

	if conn.env.ODBCVersion() == ODBCVersion3 {
		s.rowDesc = newImplicitDescriptor(conn, s, "row")
		s.paramDesc = newImplicitDescriptor(conn, s, "param")
	}

	conn.stmtsMu.Lock()
	conn.stmts[s.id] = s
	conn.stmtsMu.Unlock()
	stmt, ret = s, ReturnSuccess
	return
}

// FreeStmt frees s, its native driver handle, and its two implicit
// descriptors. Explicit descriptors attached to the statement's connection
// are untouched: they are owned by the connection, not the statement.
func FreeStmt(s *Statement) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLFreeHandle(SQL_HANDLE_STMT)", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	conn := s.conn
	native := s.native
	s.Unlock()

	conn.inUse.call(ODBCEntryFreeHandle, native, KindStatement)

	conn.stmtsMu.Lock()
	delete(conn.stmts, s.id)
	conn.stmtsMu.Unlock()

	conn.descsMu.Lock()
	if s.rowDesc != nil {
		delete(conn.descs, s.rowDesc.id)
	}
	if s.paramDesc != nil {
		delete(conn.descs, s.paramDesc.id)
	}
	conn.descsMu.Unlock()

	if s.rowDesc != nil {
		s.rowDesc.invalidate()
	}
	if s.paramDesc != nil {
		s.paramDesc.invalidate()
	}
	s.invalidate()
	ret = ReturnSuccess
	return
}

// ExecDirect executes sql directly, through the statement's owning
// connection's in-use table. Statement shims always use that table, never
// choosing between two.
func ExecDirect(s *Statement, sql string) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLExecDirect", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	defer s.Unlock()
	r, _, err := s.conn.inUse.call(ODBCEntryExecDirect, s.native, sql)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}

// Prepare prepares sql for later Execute calls.
func Prepare(s *Statement, sql string) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLPrepare", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	defer s.Unlock()
	r, _, err := s.conn.inUse.call(ODBCEntryPrepare, s.native, sql)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}

// Execute runs a previously prepared statement.
func Execute(s *Statement) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLExecute", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	defer s.Unlock()
	r, _, err := s.conn.inUse.call(ODBCEntryExecute, s.native)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}

// Fetch advances the statement's cursor by one row.
func Fetch(s *Statement) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLFetch", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	defer s.Unlock()
	r, _, err := s.conn.inUse.call(ODBCEntryFetch, s.native)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}

// Cancel passes the application's cancel request through to the driver's
// native cancel entry point. The DM itself adds no timeout semantics.
func Cancel(s *Statement) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLCancel", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	defer s.Unlock()
	r, _, err := s.conn.inUse.call(ODBCEntryCancel, s.native)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}

// RowDescriptor and ParamDescriptor implement GetStmtAttr(APP_ROW_DESC) and
// siblings: they hand back the fresh explicit-looking DM descriptor handles
// created at allocation time (nil unless the environment is ODBC-3). Those
// handles do not wrap a driver-native descriptor.
func (s *Statement) RowDescriptor() *Descriptor   { return s.rowDesc }
func (s *Statement) ParamDescriptor() *Descriptor { return s.paramDesc }
