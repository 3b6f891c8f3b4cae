package ttdm

import (
	"fmt"
	"plugin"
	"sync"

	"github.com/gogf/gf/os/gcache"
)

// wellKnownLibraryNames are the three shared-library names probed at first
// use. The DM does not honor any environment variable or configuration
// override for these; the host OS's shared-library search path determines
// resolution for the plugin.Open path.
var wellKnownLibraryNames = map[LibraryKind]string{
	KindDirectLib:  "libtten.so",
	KindClientLib:  "libttclient.so",
	KindUtilityLib: "libttutility.so",
}

// odbcEntrySymbols/captureEntrySymbols/utilityEntrySymbols give the exported
// Go symbol name (a function variable of type ttdm.DriverFunc) the plugin
// loader looks up for each ordinal, for libraries loaded as real Go plugins
// built with `go build -buildmode=plugin`. Order here is exactly the
// ordinal order in ttdm_functable.go; the loader and dispatch layer agree on
// position, never on name, by construction.
var odbcEntrySymbols = []string{
	"SQLAllocHandle", "SQLFreeHandle", "SQLConnectW", "SQLDisconnect",
	"SQLEndTran", "SQLExecDirectW", "SQLPrepareW", "SQLExecute", "SQLFetch",
	"SQLCancel", "SQLGetDiagRecW", "SQLGetDiagFieldW", "SQLGetEnvAttr",
	"SQLSetEnvAttr", "SQLGetConnectAttrW", "SQLSetConnectAttrW",
	"SQLGetStmtAttrW", "SQLSetStmtAttrW", "SQLGetInfoW",
}

var captureEntrySymbols = []string{"XLAAlloc", "XLAFree", "XLANext"}

var utilityEntrySymbols = []string{"ttUtilCall", "ttUtilInfo"}

func symbolsFor(kind LibraryKind) []string {
	switch kind {
	case KindUtilityLib:
		return utilityEntrySymbols
	case KindDirectLib:
		return append(append([]string{}, odbcEntrySymbols...), captureEntrySymbols...)
	default:
		return odbcEntrySymbols
	}
}

// registeredDriver is an in-process substitute for a real shared library:
// drivers that are Go values rather than .so files register themselves
// under a library name, the same way gdb.Register lets a caller add a
// custom database.Driver without touching the built-in driverMap.
type registeredDriver struct {
	kind LibraryKind
	fns  []DriverFunc
}

var (
	registryMu    sync.RWMutex
	registeredSet = map[string]registeredDriver{}
)

// RegisterDriver installs fns as the in-process driver library named name,
// for kind. Tests and embedding applications that want to exercise the DM
// without a real shared library use this instead of relying on Load's
// plugin.Open path.
func RegisterDriver(name string, kind LibraryKind, fns []DriverFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredSet[name] = registeredDriver{kind: kind, fns: fns}
}

// UnregisterDriver removes a driver installed by RegisterDriver. Intended
// for test teardown.
func UnregisterDriver(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registeredSet, name)
}

// loadCache memoizes an opened library by name so that two environments
// allocated concurrently in the same process only ever open (or register
// against) a given library once.
var loadCache = gcache.New()

// resetLoadCacheForTest drops every memoized library so a test process that
// calls RegisterDriver with a new fake library under a previously used
// well-known name does not keep serving the stale FunctionTable.
func resetLoadCacheForTest() {
	loadCache.Clear()
}

type loadedLibrary struct {
	handle *plugin.Plugin // nil when backed by RegisterDriver
	table  *FunctionTable
}

// Load resolves library name for kind into a FunctionTable. On any missing
// required symbol the library is rejected as unusable and Load returns a
// "driver load failed" error; optional entry points (optionalEntryPoints)
// are allowed to stay unresolved.
func Load(name string, kind LibraryKind) (*FunctionTable, error) {
	key := fmt.Sprintf("%s|%d", name, kind)
	v, err := loadCache.GetOrSetFuncLock(key, func() (interface{}, error) {
		return doLoad(name, kind)
	}, 0)
	if err != nil {
		return nil, err
	}
	lib := v.(*loadedLibrary)
	return lib.table, nil
}

func doLoad(name string, kind LibraryKind) (*loadedLibrary, error) {
	registryMu.RLock()
	reg, ok := registeredSet[name]
	registryMu.RUnlock()
	if ok {
		if reg.kind != kind {
			return nil, internalf("driver %q registered as %s, requested as %s", name, reg.kind, kind)
		}
		table, err := buildTable(name, kind, reg.fns)
		if err != nil {
			return nil, err
		}
		return &loadedLibrary{table: table}, nil
	}
	return loadFromSharedObject(name, kind)
}

func loadFromSharedObject(name string, kind LibraryKind) (*loadedLibrary, error) {
	p, err := plugin.Open(name)
	if err != nil {
		return nil, internalf("driver load failed for %q (%s): %w", name, kind, err)
	}
	symbols := symbolsFor(kind)
	fns := make([]DriverFunc, len(symbols))
	optional := optionalEntryPoints[kind]
	for i, sym := range symbols {
		s, lookupErr := p.Lookup(sym)
		if lookupErr != nil {
			if optional[i] {
				continue
			}
			return nil, internalf("driver load failed for %q: missing symbol %s: %w", name, sym, lookupErr)
		}
		fn, ok := s.(func(interface{}, ...interface{}) (ReturnCode, interface{}, error))
		if !ok {
			if fnPtr, ok := s.(*DriverFunc); ok {
				fns[i] = *fnPtr
				continue
			}
			return nil, internalf("driver load failed for %q: symbol %s has unexpected type", name, sym)
		}
		fns[i] = fn
	}
	table, err := buildTable(name, kind, fns)
	if err != nil {
		return nil, err
	}
	return &loadedLibrary{handle: p, table: table}, nil
}

func buildTable(name string, kind LibraryKind, fns []DriverFunc) (*FunctionTable, error) {
	want := entryCountFor(kind)
	if kind == KindDirectLib {
		// the direct library additionally backs the change-capture list,
		// at CaptureOffset onwards.
		want += CaptureEntryCount
	}
	// A shorter slice (e.g. a registered driver that supplies only the ODBC
	// list) is padded with unresolved (nil) entries.
	if len(fns) < want {
		padded := make([]DriverFunc, want)
		copy(padded, fns)
		fns = padded
	}
	return &FunctionTable{Kind: kind, Name: name, fns: fns}, nil
}

// Unload releases a table previously returned by Load. Tables are immutable
// after Load, so Unload is only ever called once the last referencing
// environment has been freed (for the utility table, also only once no
// utility handle remains).
func Unload(table *FunctionTable) error {
	if table == nil {
		return nil
	}
	loadCache.Remove(fmt.Sprintf("%s|%d", table.Name, table.Kind))
	return nil
}

// CaptureOffset is where the change-capture entry points begin within a
// direct-library FunctionTable's fns slice.
const CaptureOffset = ODBCEntryCount

// UtilityOffset is always 0: the utility table has no ODBC entries ahead of
// it.
const UtilityOffset = 0
