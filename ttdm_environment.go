package ttdm

import (
	"context"
	"sync"
)

// Environment owns up to two driver-level environments (direct and client),
// the process-wide ODBC version flag, a DM diagnostic stack, and the list
// of its connections.
type Environment struct {
	handle

	id       string
	registry *Registry

	version *odbcVersionFlag

	directEnv interface{} // driver-native environment handle, direct table
	clientEnv interface{} // driver-native environment handle, client table

	connsMu sync.Mutex
	conns   map[string]*Connection

	// isUtilitySentinel marks an Environment created only to keep the
	// direct driver library resident while utility handles are in flight;
	// it is never returned to an application.
	isUtilitySentinel bool
}

// AllocEnv allocates a new environment. On the first environment in the
// process, it attempts to load both driver libraries (success of at least
// one is required) and, opportunistically, the utility library.
func AllocEnv(r *Registry) (out *Environment, ret ReturnCode, err error) {
	_, end := traceStart(context.Background(), "SQLAllocHandle(SQL_HANDLE_ENV)", "")
	defer func() { end(&ret) }()

	if r == nil {
		r = global
	}
	env := &Environment{
		handle:   newHandle(KindEnvironment),
		id:       r.newHandleID(),
		registry: r,
		version:  newODBCVersionFlag(),
		conns:    map[string]*Connection{},
	}

	r.envMu.Lock()
	firstEnv := r.environmentCount() == 0
	if firstEnv {
		direct, directErr := Load(wellKnownLibraryNames[KindDirectLib], KindDirectLib)
		client, clientErr := Load(wellKnownLibraryNames[KindClientLib], KindClientLib)
		if directErr != nil && clientErr != nil {
			r.envMu.Unlock()
			PushLibraryError(&env.diag, ODBCVersionUnset, "no ODBC driver library could be loaded", EncodingANSI)
			ret, err = ReturnError, internalf("direct: %v, client: %v", directErr, clientErr)
			return
		}
		r.direct, r.client = direct, client
		// Utility library load failure is reported only when a utility
		// call is attempted, so errors here are ignored.
		if util, loadErr := Load(wellKnownLibraryNames[KindUtilityLib], KindUtilityLib); loadErr == nil {
			r.utility = util
		}
	}
	r.addEnvironment(env)
	r.envMu.Unlock()

	if r.direct != nil {
		env.directEnv = newNativeEnvHandle(r.direct)
	}
	if r.client != nil {
		env.clientEnv = newNativeEnvHandle(r.client)
	}
	out, ret = env, ReturnSuccess
	return
}

// FreeEnv frees env. It is rejected (sequence error) while any connection
// still exists. Freeing the last live environment in the process triggers
// unload of the function tables (the utility table only if no utility
// handle remains).
func FreeEnv(env *Environment) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "SQLFreeHandle(SQL_HANDLE_ENV)", env.id)
	defer func() { end(&ret) }()

	env.diag.Clear()
	if !env.valid(KindEnvironment) {
		ret = ReturnInvalidHandle
		return
	}
	env.Lock()
	defer env.Unlock()

	env.connsMu.Lock()
	nConns := len(env.conns)
	env.connsMu.Unlock()
	if nConns > 0 {
		PushSequenceError(&env.diag, env.version.get(), "cannot free environment: connections still exist", EncodingANSI, "", "")
		ret = ReturnError
		return
	}

	r := env.registry
	r.envMu.Lock()
	r.removeEnvironment(env)
	last := r.environmentCount() == 0
	var direct, client *FunctionTable
	if last {
		direct, client = r.direct, r.client
		r.direct, r.client = nil, nil
	}
	r.envMu.Unlock()

	if last {
		_ = Unload(direct)
		_ = Unload(client)
		var util *FunctionTable
		r.utilityMu.Lock()
		if r.utilityCount() == 0 {
			util, r.utility = r.utility, nil
		}
		r.utilityMu.Unlock()
		_ = Unload(util)
	}
	env.invalidate()
	ret = ReturnSuccess
	return
}

// tables returns the function tables presently loaded for env, as a slice
// ordered client-then-direct, the order used when addressing two driver
// diagnostic stacks.
func (env *Environment) tables() []*FunctionTable {
	var out []*FunctionTable
	if env.registry.client != nil {
		out = append(out, env.registry.client)
	}
	if env.registry.direct != nil {
		out = append(out, env.registry.direct)
	}
	return out
}

// Capabilities returns the GetEnvAttr(SQL_ATTR_TTDM_CAPABILITIES) bitmask.
func (env *Environment) Capabilities() int32 {
	var caps int32
	r := env.registry
	if r.client != nil {
		caps |= CapabilityClient
	}
	if r.direct != nil {
		caps |= CapabilityDirect
		caps |= CapabilityChangeCapture
	}
	if r.utility != nil {
		caps |= CapabilityUtility
	}
	if r.direct != nil || r.client != nil {
		caps |= CapabilityRouting
	}
	return caps
}

// SetODBCVersion records the process-wide ODBC version flag. It is set once
// by attribute update and read by every DM-authored diagnostic to choose
// its SQLSTATE family.
func (env *Environment) SetODBCVersion(v ODBCVersion) { env.version.set(v) }

func (env *Environment) ODBCVersion() ODBCVersion { return env.version.get() }

// newNativeEnvHandle asks the driver behind table to allocate its own
// native environment handle, via the ODBC AllocHandle entry point.
func newNativeEnvHandle(table *FunctionTable) interface{} {
	_, result, err := table.call(ODBCEntryAllocHandle, nil, KindEnvironment)
	if err != nil {
		return nil
	}
	return result
}
