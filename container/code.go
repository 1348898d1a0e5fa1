package container

import (
	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/value"
)

// Code is a compiled callable: the bytecode body plus everything needed to
// run it as a closure (spec §3 "Code"). Captured is populated at
// MAKE_CLOSURE time (bytecode.OpMakeClosure) with the actual Scalar cells
// aliased from the enclosing frame, in the order bytecode.InterpretedCode's
// own Captured descriptor names them.
type Code struct {
	Body     *bytecode.InterpretedCode
	Name     string // "" for anonymous subs (spec()s made from `sub { ... }`)
	Captured []*value.Scalar
}

func (*Code) RefKind() value.RefKind { return value.RefCode }

// NewCode wraps a compiled body with no captured lexicals (a top-level or
// named, non-closing-over sub).
func NewCode(body *bytecode.InterpretedCode) *Code {
	return &Code{Body: body, Name: body.Name}
}

// Close returns a new Code sharing the same compiled body but bound to a
// fresh set of captured lexical cells, as produced at each MAKE_CLOSURE
// evaluation (spec §4.6: "closures... capture by reference, not value").
func (c *Code) Close(captured []*value.Scalar) *Code {
	return &Code{Body: c.Body, Name: c.Name, Captured: captured}
}

// Arity returns the number of lexicals this code's closure environment
// expects, derived from its compiled Captured descriptor rather than the
// runtime slice (useful for sanity-checking MAKE_CLOSURE operand counts).
func (c *Code) Arity() int {
	if c.Body == nil {
		return 0
	}
	return len(c.Body.Captured)
}
