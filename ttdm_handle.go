package ttdm

import "sync"

// structTag is the sentinel every live DM handle carries. A pointer whose tag
// does not match this value (including the zero value left after Free) is
// rejected before any other field is read.
const structTag = 0x5454444d // "TTDM"

// Kind identifies the role of a DM handle.
type Kind int

const (
	KindEnvironment Kind = iota + 1
	KindConnection
	KindStatement
	KindDescriptor
	KindChangeCapture
	KindUtility
)

func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindConnection:
		return "connection"
	case KindStatement:
		return "statement"
	case KindDescriptor:
		return "descriptor"
	case KindChangeCapture:
		return "change-capture"
	case KindUtility:
		return "utility"
	default:
		return "unknown"
	}
}

// handle is the common prefix every DM handle object embeds: the structure
// tag, the handle-kind identifier, a per-handle mutex, and a diagnostic
// stack. Embedding it (rather than duplicating these fields) is what lets
// genericDispatch and the diagnostic layer operate on any concrete handle
// kind through the Handle interface below.
type handle struct {
	mu   sync.Mutex
	tag  uint32
	kind Kind
	diag DiagStack
}

func newHandle(kind Kind) handle {
	return handle{tag: structTag, kind: kind}
}

// valid reports whether h's tag/kind pair matches the expected kind. It must
// be checked, without dereferencing anything else on the handle, before any
// other field is read: a stray or freed pointer fails this check instead of
// crashing the process.
func (h *handle) valid(want Kind) bool {
	return h != nil && h.tag == structTag && h.kind == want
}

// invalidate zeros the tag so that any pointer still held by the application
// after Free is rejected by future valid() checks rather than dereferenced.
func (h *handle) invalidate() {
	h.tag = 0
}

// Handle is the interface dispatch shims and the diagnostic layer use to
// operate on any DM handle generically: lock it, read/clear its diagnostic
// stack, and learn its kind.
type Handle interface {
	Kind() Kind
	Lock()
	Unlock()
	Diagnostics() *DiagStack
	Valid() bool
}

func (h *handle) Kind() Kind             { return h.kind }
func (h *handle) Lock()                  { h.mu.Lock() }
func (h *handle) Unlock()                { h.mu.Unlock() }
func (h *handle) Diagnostics() *DiagStack { return &h.diag }

// Valid reports whether h's tag is intact. Each concrete handle type sets
// its own kind at construction (newHandle), so a type-correct Go pointer
// combined with an intact tag is exactly the "tag/kind pair matches its
// declared role" invariant a handle must satisfy to be dispatched on.
func (h *handle) Valid() bool { return h != nil && h.tag == structTag }
