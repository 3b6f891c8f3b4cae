package ttdm

import (
	"fmt"
	"sync"

	"github.com/gogf/gf/container/gmap"
	"github.com/gogf/gf/container/gtype"
)

// Registry is the process-wide singleton: the list of live environments,
// the three function tables, the lazily created utility-environment
// sentinel, and the two global mutexes. It is concentrated into a single
// lazily initialized structure rather than spread across module globals.
type Registry struct {
	envMu sync.Mutex // protects direct/client tables and the environment set
	envs  *gmap.StrAnyMap

	utilityMu  sync.Mutex // protects the utility table and utility-handle set
	utilities  *gmap.StrAnyMap
	utilityEnv *Environment // hidden sentinel; nil until first utility alloc

	direct  *FunctionTable
	client  *FunctionTable
	utility *FunctionTable

	// EndTranWorkaround, when set, promotes an empty-diagnostic-stack
	// error result from EndTran to success, compensating for a known
	// driver bug. Off by default.
	EndTranWorkaround bool

	nextHandleID *gtype.Int64
}

var global = newRegistry()

func newRegistry() *Registry {
	return &Registry{
		envs:         gmap.NewStrAnyMap(true),
		utilities:    gmap.NewStrAnyMap(true),
		nextHandleID: gtype.NewInt64(),
	}
}

// Default returns the process-wide registry. Exposed for tests that want to
// reset global state between cases (see ResetForTest).
func Default() *Registry { return global }

func (r *Registry) newHandleID() string {
	return fmt.Sprintf("h%d", r.nextHandleID.Add(1))
}

// environmentCount reports how many environments are currently registered,
// used to decide whether the function tables should be loaded (first
// allocation) or unloaded (last free).
func (r *Registry) environmentCount() int { return r.envs.Size() }

func (r *Registry) addEnvironment(e *Environment) { r.envs.Set(e.id, e) }

func (r *Registry) removeEnvironment(e *Environment) { r.envs.Remove(e.id) }

func (r *Registry) utilityCount() int { return r.utilities.Size() }

func (r *Registry) addUtility(u *UtilityHandle) { r.utilities.Set(u.id, u) }

func (r *Registry) removeUtility(u *UtilityHandle) { r.utilities.Remove(u.id) }

// ResetForTest clears r's function tables, environment set, utility-handle
// set and utility sentinel, together with the shared library-load
// memoization cache (resetLoadCacheForTest); EndTranWorkaround and the
// handle-ID counter are left as they are. This way a test case that
// registers a new fake driver under a well-known name does not observe the
// previous case's FunctionTable. Only safe to call between isolated test
// cases, never concurrently with live handles.
func (r *Registry) ResetForTest() {
	r.envMu.Lock()
	r.direct, r.client = nil, nil
	r.envs = gmap.NewStrAnyMap(true)
	r.envMu.Unlock()

	r.utilityMu.Lock()
	r.utility = nil
	r.utilityEnv = nil
	r.utilities = gmap.NewStrAnyMap(true)
	r.utilityMu.Unlock()

	resetLoadCacheForTest()
}
