package ttdm

import "context"

// This file holds the generic shape every dispatch shim in ttdm_statement.go,
// ttdm_connection.go, ttdm_changecapture.go, ttdm_utility.go, and
// ttdm_routing.go follows: clear the handle's diagnostic stack, validate it,
// lock it, call the driver, and on return reconcile diagnostics. The
// concrete shims inline this sequence directly (so each can fold in its own
// handle-kind-specific state checks); genericDispatch is used by the
// self-served call sites, which have no extra state to check beyond "is
// this handle valid".
//
// Grounded on Core.DoQuery/Core.DoExec (gdb_core.go): format the call, run
// it, build a record of what happened: here a ReturnCode plus whatever
// diagnostics were produced, there an *Sql trace record.

// genericDispatch runs fn with h's diagnostic stack cleared and h locked,
// after validating h, inside one traceStart span named entryPoint. fn
// reports the ReturnCode to return to the caller.
func genericDispatch(h Handle, entryPoint string, handleID string, fn func() ReturnCode) (ret ReturnCode) {
	_, end := traceStart(context.Background(), entryPoint, handleID)
	defer func() { end(&ret) }()

	h.Diagnostics().Clear()
	if !h.Valid() {
		ret = ReturnInvalidHandle
		return
	}
	h.Lock()
	defer h.Unlock()
	ret = fn()
	return
}

// severityOrder ranks ReturnCode from least to most severe, used by
// EndTran's two-table fan-out to combine two driver results.
var severityOrder = map[ReturnCode]int{
	ReturnSuccess:         0,
	ReturnNoDataFound:     1,
	ReturnSuccessWithInfo: 2,
	ReturnError:           3,
	ReturnInvalidHandle:   4,
}

// mostSevere returns whichever of a, b ranks higher in severityOrder.
func mostSevere(a, b ReturnCode) ReturnCode {
	if severityOrder[b] > severityOrder[a] {
		return b
	}
	return a
}
