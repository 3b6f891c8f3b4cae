package ttdm_test

import (
	"sync"

	"github.com/timesten/ttdm"
)

// fakeNative stands in for a driver-native handle: an allocated environment,
// connection, statement, or descriptor. It carries its own diagnostic stack
// so GetDiagRec/GetDiagField ordinal calls can answer from the same state a
// real driver would keep per handle.
type fakeNative struct {
	mu   sync.Mutex
	kind ttdm.Kind
	diag []ttdm.DiagRecord
}

func (n *fakeNative) push(rec ttdm.DiagRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.diag = append(n.diag, rec)
}

func (n *fakeNative) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.diag)
}

func (n *fakeNative) at(index int) (ttdm.DiagRecord, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if index < 1 || index > len(n.diag) {
		return ttdm.DiagRecord{}, false
	}
	return n.diag[index-1], true
}

// fakeDriverConfig customizes the behavior of one fake driver instance. Every
// field is optional; a nil hook answers with plain success and no error.
type fakeDriverConfig struct {
	connect func(dsn, user, password string) (ttdm.ReturnCode, error)
	endTran func(ct ttdm.CompletionType) (ttdm.ReturnCode, error)
	prepare func(native *fakeNative, sql string) (ttdm.ReturnCode, error)
	getInfo func(native *fakeNative, attr string, wide bool) (interface{}, ttdm.ReturnCode)
}

// newFakeDriver builds the positionally ordered []ttdm.DriverFunc a real
// driver's symbol table would resolve to, backed entirely by fakeNative
// values instead of cgo calls into a shared library.
func newFakeDriver(cfg fakeDriverConfig) []ttdm.DriverFunc {
	fns := make([]ttdm.DriverFunc, ttdm.ODBCEntryCount)

	fns[ttdm.ODBCEntryAllocHandle] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		kind, _ := args[0].(ttdm.Kind)
		return ttdm.ReturnSuccess, &fakeNative{kind: kind}, nil
	}
	fns[ttdm.ODBCEntryFreeHandle] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryConnect] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		if cfg.connect == nil {
			return ttdm.ReturnSuccess, nil, nil
		}
		dsn, _ := args[0].(string)
		user, _ := args[1].(string)
		password, _ := args[2].(string)
		ret, err := cfg.connect(dsn, user, password)
		return ret, nil, err
	}
	fns[ttdm.ODBCEntryDisconnect] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryEndTran] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		if cfg.endTran == nil {
			return ttdm.ReturnSuccess, nil, nil
		}
		ct, _ := args[0].(ttdm.CompletionType)
		ret, err := cfg.endTran(ct)
		return ret, nil, err
	}
	fns[ttdm.ODBCEntryExecDirect] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryPrepare] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		native, _ := nativeHandle.(*fakeNative)
		if cfg.prepare == nil {
			return ttdm.ReturnSuccess, nil, nil
		}
		sql, _ := args[0].(string)
		ret, err := cfg.prepare(native, sql)
		return ret, nil, err
	}
	fns[ttdm.ODBCEntryExecute] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryFetch] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryCancel] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryGetDiagRec] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		native, _ := nativeHandle.(*fakeNative)
		if native == nil {
			return ttdm.ReturnNoDataFound, nil, nil
		}
		index, _ := args[0].(int)
		rec, ok := native.at(index)
		if !ok {
			return ttdm.ReturnNoDataFound, nil, nil
		}
		return ttdm.ReturnSuccess, rec, nil
	}
	fns[ttdm.ODBCEntryGetDiagField] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		native, _ := nativeHandle.(*fakeNative)
		if native == nil {
			return ttdm.ReturnSuccess, 0, nil
		}
		return ttdm.ReturnSuccess, native.count(), nil
	}
	fns[ttdm.ODBCEntryGetEnvAttr] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntrySetEnvAttr] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryGetConnectAttr] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntrySetConnectAttr] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryGetStmtAttr] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntrySetStmtAttr] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, nil, nil
	}
	fns[ttdm.ODBCEntryGetInfo] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		native, _ := nativeHandle.(*fakeNative)
		if cfg.getInfo == nil {
			return ttdm.ReturnSuccess, "", nil
		}
		attr, _ := args[0].(string)
		wide, _ := args[1].(bool)
		result, ret := cfg.getInfo(native, attr, wide)
		return ret, result, nil
	}
	return fns
}

// registerFake installs a fake driver under name/kind and returns a func
// that unregisters it, so callers can `defer registerFake(...)()`.
func registerFake(name string, kind ttdm.LibraryKind, cfg fakeDriverConfig) func() {
	ttdm.RegisterDriver(name, kind, newFakeDriver(cfg))
	return func() { ttdm.UnregisterDriver(name) }
}

// directLibName and clientLibName are the two well-known shared-library
// names AllocEnv always requests; a fake driver must be registered under
// these exact names to be picked up.
const (
	directLibName = "libtten.so"
	clientLibName = "libttclient.so"
)

// resetRegistry clears the process-wide registry and its memoized library
// cache between test cases.
func resetRegistry() {
	ttdm.Default().ResetForTest()
}
