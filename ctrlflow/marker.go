// Package ctrlflow implements the non-local control-flow marker registry
// used to thread last/next/redo/return/goto &sub through the interpreter
// without Go panics on the hot path (spec §5). A single slot holds at most
// one pending marker at a time; every loop exit edge and every bare
// labelled-block exit edge must probe it with TakeIfMatches before falling
// through (spec §5.3's historical bug fix: omitting the bare-block probe
// lets `last LABEL` escape a labelled block that isn't a loop).
package ctrlflow

import "fmt"

// Kind identifies which non-local control-flow operation is pending.
type Kind uint8

const (
	None Kind = iota
	Last
	Next
	Redo
	Return
	GotoSub
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Last:
		return "Last"
	case Next:
		return "Next"
	case Redo:
		return "Redo"
	case Return:
		return "Return"
	case GotoSub:
		return "GotoSub"
	default:
		return "Unknown"
	}
}

// Marker is the pending non-local control-flow request: a Kind, the target
// label (empty for unlabelled last/next/redo, and unused for Return/
// GotoSub), and a payload (the return value for Return, the callee Code
// for GotoSub).
type Marker struct {
	Kind    Kind
	Label   string
	Payload interface{}
}

// Registry is the single thread-local-equivalent slot. One Registry is
// created per interpreter goroutine (one per top-level Eval call); it must
// never be shared across concurrently executing interpreters.
type Registry struct {
	pending Marker
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Set installs marker as the pending non-local control-flow request. Per
// spec §5.2, the slot must be empty when Set is called — a second Set
// before the first is consumed indicates a compiler or interpreter bug,
// not a recoverable runtime condition, so it panics rather than silently
// clobbering.
func (r *Registry) Set(m Marker) {
	if r.pending.Kind != None {
		panic(fmt.Sprintf("ctrlflow: Set(%v) called while %v already pending", m.Kind, r.pending.Kind))
	}
	r.pending = m
}

// Peek returns the currently pending marker without consuming it.
func (r *Registry) Peek() Marker { return r.pending }

// IsPending reports whether any marker other than None is pending.
func (r *Registry) IsPending() bool { return r.pending.Kind != None }

// Clear unconditionally empties the slot.
func (r *Registry) Clear() { r.pending = Marker{} }

// TakeIfMatches consumes and returns (marker, true) if the pending marker
// has the given kind and an empty label (unlabelled) or a label equal to
// the label of the innermost enclosing construct. Loop/bare-block
// compilation emits a TakeIfMatches probe at every exit edge (spec §5.3);
// a label of "" matches only an unlabelled marker, while a non-empty
// label matches a marker carrying that exact label OR an unlabelled
// marker (an unlabelled `last` always matches the innermost loop).
func (r *Registry) TakeIfMatches(kind Kind, label string) (Marker, bool) {
	m := r.pending
	if m.Kind != kind {
		return Marker{}, false
	}
	if m.Label != "" && m.Label != label {
		return Marker{}, false
	}
	r.Clear()
	return m, true
}
