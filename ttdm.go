// Package ttdm is a reimplementation of the TimesTen ODBC Driver Manager: an
// in-process dispatcher that lets a single application use a "direct" and a
// "client/server" ODBC driver interchangeably, choosing between them per
// connection and reconciling their two diagnostic streams into one.
//
// The package does not itself speak any wire protocol, implement SQL, or run
// a cursor engine or transaction manager; those live in the two driver
// libraries it proxies. It supports only the entry-point set those drivers
// export, plus the vendor extensions for change capture, utility operations,
// and grid routing.
package ttdm

import "time"

// Version is the DM's own version string, returned by the DM-version
// self-served request GetInfo(SQL_DM_VER); GetEnvAttr(SQL_ATTR_TTDM_VERSION)
// returns its integer encoding, versionEncoded.
const Version = "1.0.0"

// versionEncoded mirrors the native DM's integer encoding of its version
// number: major*10000 + minor*100 + patch.
const versionEncoded = 1*10000 + 0*100 + 0

// ODBCVersion is the process-wide ODBC version the application has declared
// via SetEnvAttr(SQL_ATTR_ODBC_VERSION). It governs which family of SQLSTATE
// codes (ODBC-2 "S1xxx" vs ODBC-3 "HYxxx") DM-authored diagnostics use.
type ODBCVersion int32

const (
	// ODBCVersionUnset is the value before any environment has declared a
	// version; DM-authored errors fall back to the ODBC-3 state codes.
	ODBCVersionUnset ODBCVersion = 0
	ODBCVersion2     ODBCVersion = 2
	ODBCVersion3     ODBCVersion = 3
)

// Capability bits for GetEnvAttr(SQL_ATTR_TTDM_CAPABILITIES), taken verbatim
// from the original DM's ttdrvmgr.h.
const (
	CapabilityClient        = 0x01
	CapabilityDirect        = 0x02
	CapabilityChangeCapture = 0x04 // historically "XLA"
	CapabilityRouting       = 0x08
	CapabilityUtility       = 0x10
)

// ConnectionType is the value returned by the TTDM_CONNECTION_TYPE
// self-served GetConnectAttr/GetConnectOption request.
type ConnectionType int32

const (
	ConnectionTypeNone   ConnectionType = 0
	ConnectionTypeDirect ConnectionType = 1
	ConnectionTypeClient ConnectionType = 2
)

func (t ConnectionType) String() string {
	switch t {
	case ConnectionTypeDirect:
		return "direct"
	case ConnectionTypeClient:
		return "client"
	default:
		return "none"
	}
}

// defaultCallTimeout is a 30-second duration. No code in the package reads
// it: the dispatch shims and the tracing layer neither enforce nor report a
// time limit.
const defaultCallTimeout = 30 * time.Second
