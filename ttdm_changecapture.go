package ttdm

import "context"

// ChangeCaptureHandle wraps a driver-native change-capture ("XLA") handle,
// allocated only from a connection that used the direct driver. At most one
// exists per connection.
//
// Grounded on sarathkumarsivan-go-hdb's stmt (connection.go:621-650): a
// child object that carries a back-pointer to its owner and borrows the
// owner's lock rather than maintaining its own, because every operation on
// it must already be serialized with operations on the parent connection.
type ChangeCaptureHandle struct {
	handle

	conn   *Connection
	native interface{}
}

// AllocChangeCapture allocates the single change-capture handle for conn.
// Rejected if conn is not connected via the direct table, or if one already
// exists.
func AllocChangeCapture(conn *Connection) (cc *ChangeCaptureHandle, ret ReturnCode) {
	_, end := traceStart(context.Background(), "ttXlaAllocHandle", conn.id)
	defer func() { end(&ret) }()

	conn.diag.Clear()
	if !conn.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	conn.Lock()
	defer conn.Unlock()

	if conn.state != connStateConnected || conn.inUse != conn.env.registry.direct {
		PushSequenceError(&conn.diag, conn.env.ODBCVersion(), "change capture requires a direct-mode connection", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}
	if conn.capture != nil {
		PushSequenceError(&conn.diag, conn.env.ODBCVersion(), "change capture handle already exists for this connection", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}

	_, native, err := conn.inUse.call(CaptureOffset+CaptureEntryAlloc, conn.nativeConn())
	if err != nil {
		PushResourceError(&conn.diag, conn.env.ODBCVersion(), "driver refused to allocate change-capture handle", EncodingANSI, conn.connName, conn.serverName)
		ret = ReturnError
		return
	}

	c := &ChangeCaptureHandle{
		handle: newHandle(KindChangeCapture),
		conn:   conn,
		native: native,
	}
	conn.capture = c
	cc, ret = c, ReturnSuccess
	return
}

// FreeChangeCapture releases cc. The connection's capture slot is cleared
// as part of closing the handle.
func FreeChangeCapture(cc *ChangeCaptureHandle) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "ttXlaFreeHandle", cc.conn.id)
	defer func() { end(&ret) }()

	cc.diag.Clear()
	if !cc.valid(KindChangeCapture) {
		ret = ReturnInvalidHandle
		return
	}
	conn := cc.conn
	conn.Lock()
	defer conn.Unlock()

	conn.inUse.call(CaptureOffset+CaptureEntryFree, cc.native)
	conn.capture = nil
	cc.invalidate()
	ret = ReturnSuccess
	return
}

// Next advances the change-capture stream by one record.
func Next(cc *ChangeCaptureHandle) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "ttXlaNext", cc.conn.id)
	defer func() { end(&ret) }()

	cc.diag.Clear()
	if !cc.valid(KindChangeCapture) {
		ret = ReturnInvalidHandle
		return
	}
	conn := cc.conn
	conn.Lock()
	defer conn.Unlock()
	r, _, err := conn.inUse.call(CaptureOffset+CaptureEntryNext, cc.native)
	if err != nil {
		ret = ReturnError
		return
	}
	ret = r
	return
}
