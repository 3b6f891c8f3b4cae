package ttdm

import "context"

// UtilityHandle is process-scoped, not tied to any environment the
// application sees. The first allocation in the process creates a hidden
// sentinel direct-mode environment (so the direct driver library cannot be
// unloaded while utility calls are in flight); the last free destroys it.
type UtilityHandle struct {
	handle

	id       string
	registry *Registry
	native   interface{}
}

// AllocUtility allocates a utility handle against r (nil selects the
// process-wide default registry).
func AllocUtility(r *Registry) (uh *UtilityHandle, ret ReturnCode, err error) {
	_, end := traceStart(context.Background(), "ttUtilityAlloc", "")
	defer func() { end(&ret) }()

	if r == nil {
		r = global
	}
	u := &UtilityHandle{
		handle:   newHandle(KindUtility),
		id:       r.newHandleID(),
		registry: r,
	}

	r.utilityMu.Lock()
	first := r.utilityCount() == 0
	if first {
		util, loadErr := Load(wellKnownLibraryNames[KindUtilityLib], KindUtilityLib)
		if loadErr != nil {
			r.utilityMu.Unlock()
			PushLibraryError(&u.diag, ODBCVersionUnset, "utility library could not be loaded", EncodingANSI)
			ret, err = ReturnError, internalf("utility load: %w", loadErr)
			return
		}
		r.utility = util
		// The sentinel environment keeps the direct library resident;
		// allocated through the normal Environment path so it
		// participates in the same reference counting as application
		// environments.
		env, envRet, envErr := AllocEnv(r)
		if envRet != ReturnSuccess {
			r.utilityMu.Unlock()
			ret, err = envRet, envErr
			return
		}
		env.isUtilitySentinel = true
		r.utilityEnv = env
	}
	r.addUtility(u)
	r.utilityMu.Unlock()

	if r.utility != nil {
		_, native, _ := r.utility.call(UtilityEntryCall, nil, "alloc")
		u.native = native
	}
	uh, ret = u, ReturnSuccess
	return
}

// FreeUtility frees u. The last free destroys the sentinel environment and,
// if no application environments remain, unloads the utility library.
func FreeUtility(u *UtilityHandle) (ret ReturnCode) {
	_, end := traceStart(context.Background(), "ttUtilityFree", u.id)
	defer func() { end(&ret) }()

	u.diag.Clear()
	if !u.valid(KindUtility) {
		ret = ReturnInvalidHandle
		return
	}

	r := u.registry
	r.utilityMu.Lock()
	r.removeUtility(u)
	last := r.utilityCount() == 0
	var sentinel *Environment
	if last {
		sentinel = r.utilityEnv
		r.utilityEnv = nil
	}
	r.utilityMu.Unlock()

	if last && sentinel != nil {
		// FreeEnv unloads the utility table when the sentinel was the
		// last live environment; otherwise the table stays loaded.
		FreeEnv(sentinel)
	}
	u.invalidate()
	ret = ReturnSuccess
	return
}

// Call dispatches a vendor utility operation straight through the utility
// table.
func Call(u *UtilityHandle, op string, args ...interface{}) (result interface{}, ret ReturnCode) {
	_, end := traceStart(context.Background(), "ttUtilityCall:"+op, u.id)
	defer func() { end(&ret) }()

	u.diag.Clear()
	if !u.valid(KindUtility) {
		ret = ReturnInvalidHandle
		return
	}
	u.Lock()
	defer u.Unlock()
	if u.registry.utility == nil {
		PushLibraryError(&u.diag, ODBCVersionUnset, "utility library not loaded", EncodingANSI)
		ret = ReturnError
		return
	}
	r, res, err := u.registry.utility.call(UtilityEntryCall, u.native, append([]interface{}{op}, args...)...)
	if err != nil {
		ret = ReturnError
		return
	}
	result, ret = res, r
	return
}
