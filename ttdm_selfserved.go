package ttdm

import "context"

// This file implements the small set of requests answered directly,
// without calling the driver: connection-type, DM version,
// driver-native-handle queries, and environment capability flags.
// Grounded on gdb_core_utility.go's plain getters (GetGroup, GetSchema,
// GetConfig): a state reader with no driver round-trip.

// GetEnvAttrCapabilities implements GetEnvAttr(SQL_ATTR_TTDM_CAPABILITIES).
func GetEnvAttrCapabilities(env *Environment) (int32, ReturnCode) {
	var ret ReturnCode = ReturnInvalidHandle
	caps := int32(0)
	genericDispatch(env, "SQLGetEnvAttr(TTDM_CAPABILITIES)", env.id, func() ReturnCode {
		caps = env.Capabilities()
		ret = ReturnSuccess
		return ret
	})
	return caps, ret
}

// GetEnvAttrVersion implements GetEnvAttr(SQL_ATTR_TTDM_VERSION).
func GetEnvAttrVersion(env *Environment) (int32, ReturnCode) {
	ret := genericDispatch(env, "SQLGetEnvAttr(TTDM_VERSION)", env.id, func() ReturnCode { return ReturnSuccess })
	if ret != ReturnSuccess {
		return 0, ret
	}
	return VersionEncoded(), ReturnSuccess
}

// GetConnectAttrConnectionType implements
// GetConnectAttr/GetConnectOption(TTDM_CONNECTION_TYPE).
func GetConnectAttrConnectionType(c *Connection) (ConnectionType, ReturnCode) {
	var ct ConnectionType
	ret := genericDispatch(c, "SQLGetConnectAttr(TTDM_CONNECTION_TYPE)", c.id, func() ReturnCode {
		ct = c.ConnectionType()
		return ReturnSuccess
	})
	return ct, ret
}

// GetInfoDMVersion implements GetInfo(SQL_DM_VER): the ASCII DM version
// string.
func GetInfoDMVersion(env *Environment) (string, ReturnCode) {
	ret := genericDispatch(env, "SQLGetInfo(SQL_DM_VER)", env.id, func() ReturnCode { return ReturnSuccess })
	if ret != ReturnSuccess {
		return "", ret
	}
	return VersionString(), ReturnSuccess
}

// GetStmtAttrBuffered validates bufferLength the way GetStmtAttr's native
// ABI does before reading any string-valued attribute: a negative length is
// rejected as a DM argument error without ever calling the driver.
func GetStmtAttrBuffered(s *Statement, bufferLength int) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLGetStmtAttr", s.id)
	defer func() { end(&ret) }()

	s.diag.Clear()
	if !s.valid(KindStatement) {
		ret = ReturnInvalidHandle
		return
	}
	s.Lock()
	defer s.Unlock()
	if bufferLength < 0 {
		PushBufferLengthError(&s.diag, s.conn.env.ODBCVersion(), "negative buffer length", EncodingANSI, s.conn.connName, s.conn.serverName)
		ret = ReturnError
		return
	}
	ret = ReturnSuccess
	return
}

// NativeHandleKind identifies which native driver-side handle a native
// handle query is asking for.
type NativeHandleKind int

const (
	NativeHSTMT NativeHandleKind = iota
	NativeHDBC
	NativeHENV
	NativeHDESC
	NativeHLIB
)

// GetInfoNativeHandle implements the driver-native-handle self-served
// requests: GetInfo(SQL_DRIVER_HSTMT) and siblings. target must belong to
// the same connection as queriedOn; a handle from the wrong connection is
// rejected as an invalid-attribute error rather than silently answered.
func GetInfoNativeHandle(queriedOn *Connection, kind NativeHandleKind, target Handle) (result interface{}, ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLGetInfo(SQL_DRIVER_H*)", queriedOn.id)
	defer func() { end(&ret) }()

	queriedOn.diag.Clear()
	if !queriedOn.valid(KindConnection) {
		ret = ReturnInvalidHandle
		return
	}
	queriedOn.Lock()
	defer queriedOn.Unlock()

	switch kind {
	case NativeHDBC:
		result, ret = queriedOn.nativeConn(), ReturnSuccess
	case NativeHENV:
		if queriedOn.inUse == queriedOn.env.registry.client {
			result, ret = queriedOn.env.clientEnv, ReturnSuccess
		} else {
			result, ret = queriedOn.env.directEnv, ReturnSuccess
		}
	case NativeHLIB:
		result, ret = queriedOn.inUse, ReturnSuccess
	case NativeHSTMT:
		s, ok := target.(*Statement)
		if !ok || !s.valid(KindStatement) || s.conn != queriedOn {
			PushArgumentError(&queriedOn.diag, queriedOn.env.ODBCVersion(), "statement handle does not belong to this connection", EncodingANSI, queriedOn.connName, queriedOn.serverName)
			ret = ReturnError
			return
		}
		result, ret = s.native, ReturnSuccess
	case NativeHDESC:
		d, ok := target.(*Descriptor)
		if !ok || !d.valid(KindDescriptor) || !d.belongsTo(queriedOn) {
			PushArgumentError(&queriedOn.diag, queriedOn.env.ODBCVersion(), "descriptor handle does not belong to this connection", EncodingANSI, queriedOn.connName, queriedOn.serverName)
			ret = ReturnError
			return
		}
		result, ret = d.native, ReturnSuccess
	default:
		PushArgumentError(&queriedOn.diag, queriedOn.env.ODBCVersion(), "unknown native handle kind", EncodingANSI, queriedOn.connName, queriedOn.serverName)
		ret = ReturnError
	}
	return
}
