package ttdm

// LibraryKind identifies which of the three ordered entry-point lists a
// loaded library is expected to satisfy.
type LibraryKind int

const (
	// KindDirectLib and KindClientLib both resolve the ODBC entry-point
	// list; the direct library additionally resolves the change-capture
	// list.
	KindDirectLib LibraryKind = iota
	KindClientLib
	KindUtilityLib
)

func (k LibraryKind) String() string {
	switch k {
	case KindDirectLib:
		return "direct"
	case KindClientLib:
		return "client"
	case KindUtilityLib:
		return "utility"
	default:
		return "unknown"
	}
}

// Entry-point lists. Position, not name, is the contract between the loader
// and the dispatch layer: ordinals below (ODBCEntry*, CaptureEntry*,
// UtilityEntry*) index directly into FunctionTable.fns. The full ODBC 2.x +
// 3.x + vendor-extension surface is ~115 names; the subset enumerated here
// is the one the dispatch layer in this package actually calls through.
// Names not listed are, by construction, never looked up: adding a shim
// that needs one is a matter of appending to this list and to the matching
// symbol-name list in ttdm_loader.go, never renumbering existing entries.
const (
	ODBCEntryAllocHandle = iota
	ODBCEntryFreeHandle
	ODBCEntryConnect
	ODBCEntryDisconnect
	ODBCEntryEndTran
	ODBCEntryExecDirect
	ODBCEntryPrepare
	ODBCEntryExecute
	ODBCEntryFetch
	ODBCEntryCancel
	ODBCEntryGetDiagRec
	ODBCEntryGetDiagField
	ODBCEntryGetEnvAttr
	ODBCEntrySetEnvAttr
	ODBCEntryGetConnectAttr
	ODBCEntrySetConnectAttr
	ODBCEntryGetStmtAttr
	ODBCEntrySetStmtAttr
	ODBCEntryGetInfo
	ODBCEntryCount // sentinel: total number of ODBC entries the DM resolves
)

const (
	CaptureEntryAlloc = iota
	CaptureEntryFree
	CaptureEntryNext
	CaptureEntryCount
)

const (
	UtilityEntryCall = iota
	UtilityEntryInfo
	UtilityEntryCount
)

// DriverFunc is the uniform shape every resolved entry point is adapted to:
// a driver-native handle, the call's arguments boxed as interface{} (each
// dispatch shim boxes them in the order its entry expects, and the driver
// function unboxes them), and a return code plus whatever result value the
// entry produces.
type DriverFunc func(nativeHandle interface{}, args ...interface{}) (ReturnCode, interface{}, error)

// FunctionTable is an immutable, positionally-ordered array of resolved
// function pointers, shared process-wide once Load returns it.
type FunctionTable struct {
	Kind LibraryKind
	Name string
	fns  []DriverFunc
}

// optionalEntryPoints lists ordinal positions (within the relevant list)
// that the driver's symbol table is allowed to leave unresolved: some
// utility and change-capture entries exist upstream only behind disabled
// conditional compilation. Treated as reserved but unused rather than
// causing Load to fail.
var optionalEntryPoints = map[LibraryKind]map[int]bool{
	KindUtilityLib: {UtilityEntryInfo: true},
}

func entryCountFor(kind LibraryKind) int {
	switch kind {
	case KindUtilityLib:
		return UtilityEntryCount
	default:
		return ODBCEntryCount
	}
}

// call invokes the resolved function at ordinal. If the ordinal is out of
// range or the slot was never resolved (an optional entry point of a
// shared-object library, or a slot a registered driver left nil), it
// returns ReturnError and an internal error instead.
func (t *FunctionTable) call(ordinal int, nativeHandle interface{}, args ...interface{}) (ReturnCode, interface{}, error) {
	if ordinal < 0 || ordinal >= len(t.fns) || t.fns[ordinal] == nil {
		return ReturnError, nil, internalf("entry point %d not resolved in %s table %q", ordinal, t.Kind, t.Name)
	}
	return t.fns[ordinal](nativeHandle, args...)
}
