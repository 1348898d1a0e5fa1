package interp

import (
	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/value"
)

// frame is one call's register file and program counter — the unit the
// dispatch loop in run.go steps through. Registers 0/1/2 are reserved
// (compiler.RegArgs/RegUnderscore/RegContext); the interpreter doesn't need
// those names, only the convention that register 0 holds @_.
type frame struct {
	code *bytecode.InterpretedCode
	regs []*value.Scalar
	pc   int
}

// newFrame allocates a register file sized to code.Body.MaxRegister,
// pre-filling every register with a fresh mutable Undef so reading an
// as-yet-unwritten register (a `my` declared but not yet assigned) behaves
// like Perl's own undef default rather than a nil-pointer fault. Any
// lexicals code closed over are then spliced into their descriptor-assigned
// registers (bytecode.CapturedVar.Slot), aliasing the enclosing frame's
// cells rather than copying them, so writes through the closure are
// observed by the defining scope and vice versa (spec §4.6).
func newFrame(code *container.Code, args []*value.Scalar) *frame {
	body := code.Body
	n := body.MaxRegister
	if n < 3 {
		n = 3
	}
	regs := make([]*value.Scalar, n)
	for i := range regs {
		regs[i] = value.NewUndef()
	}
	regs[0] = value.NewRef(container.NewArrayFrom(args))
	for i, cv := range body.Captured {
		if i < len(code.Captured) {
			regs[cv.Slot] = code.Captured[i]
		}
	}
	return &frame{code: body, regs: regs}
}

func (f *frame) reg(i byte) *value.Scalar { return f.regs[i] }
