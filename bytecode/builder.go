package bytecode

import (
	"encoding/binary"

	"github.com/jperl-run/jperl/value"
)

// Builder assembles a flat instruction stream with backpatchable jump
// targets, mirroring the teacher's nfa.Builder: Add* methods emit and
// return an address; Patch updates a previously emitted instruction's
// dangling target once the real destination is known (spec §4.5: "control
// flow... compile to branches and back-patched jumps").
type Builder struct {
	code      []byte
	constants []*value.Scalar
	constIdx  map[string]int // dedups identical constants by AsString()+Kind, like nfa/alphabet.go's interning table
	lines     []LineEntry
	maxReg    int
	name      string
	proto     string
	source    string
	children  []*InterpretedCode
}

// NewBuilder returns an empty Builder.
func NewBuilder(name, source string) *Builder {
	return &Builder{constIdx: make(map[string]int), name: name, source: source}
}

// Pos returns the current write position (the PC the next Emit will
// occupy).
func (b *Builder) Pos() int { return len(b.code) }

// UseRegister records that register r was allocated, growing MaxRegister
// as needed. The register allocator (package compiler) calls this as it
// hands out registers so the Builder always knows the frame size.
func (b *Builder) UseRegister(r int) {
	if r+1 > b.maxReg {
		b.maxReg = r + 1
	}
}

// Const interns scalar s into the constant pool, returning its index.
// Identical scalars (by kind+string form) are deduplicated, matching
// nfa/alphabet.go's "intern once, reference by small index" shape.
func (b *Builder) Const(s *value.Scalar) int {
	key := s.Kind().String() + ":" + s.AsString()
	if idx, ok := b.constIdx[key]; ok {
		return idx
	}
	idx := len(b.constants)
	b.constants = append(b.constants, s)
	b.constIdx[key] = idx
	return idx
}

// MarkLine records that the next-emitted instruction corresponds to
// source line.
func (b *Builder) MarkLine(line int) {
	pc := len(b.code)
	if n := len(b.lines); n > 0 && b.lines[n-1].PC == pc {
		b.lines[n-1].Line = line
		return
	}
	b.lines = append(b.lines, LineEntry{PC: pc, Line: line})
}

func (b *Builder) emitByte(v byte)   { b.code = append(b.code, v) }
func (b *Builder) emitU16(v uint16) { b.code = append(b.code, byte(v>>8), byte(v)) }

// Emit0 emits a zero-operand instruction.
func (b *Builder) Emit0(op Opcode) int {
	pc := b.Pos()
	b.emitByte(byte(op))
	return pc
}

// Emit1 emits a one-byte-operand instruction (a single register index).
func (b *Builder) Emit1(op Opcode, a byte) int {
	pc := b.Pos()
	b.emitByte(byte(op))
	b.emitByte(a)
	return pc
}

// Emit2 emits a two-byte-operand instruction (two register indices).
func (b *Builder) Emit2(op Opcode, a, c byte) int {
	pc := b.Pos()
	b.emitByte(byte(op))
	b.emitByte(a)
	b.emitByte(c)
	return pc
}

// Emit3 emits a register + 16-bit operand instruction (e.g. LOAD_CONST
// Rd, K16).
func (b *Builder) Emit3(op Opcode, a byte, k uint16) int {
	pc := b.Pos()
	b.emitByte(byte(op))
	b.emitByte(a)
	b.emitU16(k)
	return pc
}

// Emit3Reg emits a three-register instruction (e.g. ADD Rd, Ra, Rb).
func (b *Builder) Emit3Reg(op Opcode, a, c, d byte) int {
	pc := b.Pos()
	b.emitByte(byte(op))
	b.emitByte(a)
	b.emitByte(c)
	b.emitByte(d)
	return pc
}

// EmitJump emits a jump-class instruction with a placeholder 16-bit
// target, returning the PC of the instruction so the caller can Patch it
// once the real destination is known.
func (b *Builder) EmitJump(op Opcode, cond byte, hasCond bool) int {
	pc := b.Pos()
	b.emitByte(byte(op))
	if hasCond {
		b.emitByte(cond)
	}
	b.emitU16(0xFFFF) // placeholder, patched later
	return pc
}

// PatchJumpTarget overwrites the 16-bit target operand of the jump
// instruction at pc with target. pc must be the address returned by
// EmitJump for a matching opcode.
func (b *Builder) PatchJumpTarget(pc int, target uint16) {
	op := Opcode(b.code[pc])
	off := pc + 1
	if op == OpJumpIfFalse || op == OpJumpIfTrue {
		off++ // skip the condition register byte
	}
	binary.BigEndian.PutUint16(b.code[off:off+2], target)
}

// EmitForeachNextOrExit emits the fused superinstruction of spec §4.5/4.6,
// with a placeholder exit offset patched once the loop's exit address is
// known.
func (b *Builder) EmitForeachNextOrExit(varReg, iterReg byte) int {
	pc := b.Pos()
	b.emitByte(byte(OpForeachNextOrExit))
	b.emitByte(varReg)
	b.emitByte(iterReg)
	b.emitU16(0xFFFF)
	return pc
}

// PatchForeachExit patches the exit-offset operand of a
// FOREACH_NEXT_OR_EXIT instruction emitted at pc.
func (b *Builder) PatchForeachExit(pc int, exitPC uint16) {
	binary.BigEndian.PutUint16(b.code[pc+3:pc+5], exitPC)
}

// EmitTakeIfMatches emits a TAKE_IF_MATCHES probe (kind8, label
// constant16, target16) with a placeholder target, returning the PC so
// PatchTakeIfMatchesTarget can fill in the real jump destination once
// known (spec §4.7: probes are emitted at a loop's exit edges before the
// loop's overall size is known).
func (b *Builder) EmitTakeIfMatches(kind byte, label uint16) int {
	pc := b.Pos()
	b.emitByte(byte(OpTakeIfMatches))
	b.emitByte(kind)
	b.emitU16(label)
	b.emitU16(0xFFFF)
	return pc
}

// PatchTakeIfMatchesTarget patches the target operand of a
// TAKE_IF_MATCHES instruction emitted at pc.
func (b *Builder) PatchTakeIfMatchesTarget(pc int, target uint16) {
	binary.BigEndian.PutUint16(b.code[pc+4:pc+6], target)
}

// EmitAddScalarInt emits ADD_SCALAR_INT Rd, Ra, imm16.
func (b *Builder) EmitAddScalarInt(rd, ra byte, imm uint16) int {
	pc := b.Pos()
	b.emitByte(byte(OpAddScalarInt))
	b.emitByte(rd)
	b.emitByte(ra)
	b.emitU16(imm)
	return pc
}

// EmitCall emits a CALL Rd, Rfunc, argBase, argCount instruction.
func (b *Builder) EmitCall(rd, rfunc, argBase, argCount byte) int {
	pc := b.Pos()
	b.emitByte(byte(OpCall))
	b.emitByte(rd)
	b.emitByte(rfunc)
	b.emitByte(argBase)
	b.emitByte(argCount)
	return pc
}

// EmitCallEval emits a CALL_EVAL Rd, Rfunc, argBase, argCount instruction
// (see OpCallEval).
func (b *Builder) EmitCallEval(rd, rfunc, argBase, argCount byte) int {
	pc := b.Pos()
	b.emitByte(byte(OpCallEval))
	b.emitByte(rd)
	b.emitByte(rfunc)
	b.emitByte(argBase)
	b.emitByte(argCount)
	return pc
}

// EmitMakeClosure emits MAKE_CLOSURE Rd, codeConstant16, capturedBase,
// capturedCount. codeIdx indexes the enclosing InterpretedCode's Children
// slice (see Builder.AddChild), not the scalar Constants pool.
func (b *Builder) EmitMakeClosure(rd byte, codeIdx uint16, capturedBase, capturedCount byte) int {
	pc := b.Pos()
	b.emitByte(byte(OpMakeClosure))
	b.emitByte(rd)
	b.emitU16(codeIdx)
	b.emitByte(capturedBase)
	b.emitByte(capturedCount)
	return pc
}

// EmitMatch emits MATCH Rd, Rsubject, patternConstant16.
func (b *Builder) EmitMatch(rd, rsubject byte, patternIdx uint16) int {
	pc := b.Pos()
	b.emitByte(byte(OpMatch))
	b.emitByte(rd)
	b.emitByte(rsubject)
	b.emitU16(patternIdx)
	return pc
}

// EmitSubst emits SUBST Rd, Rsubject, patternConstant16, replConstant16.
func (b *Builder) EmitSubst(rd, rsubject byte, patternIdx, replIdx uint16) int {
	pc := b.Pos()
	b.emitByte(byte(OpSubst))
	b.emitByte(rd)
	b.emitByte(rsubject)
	b.emitU16(patternIdx)
	b.emitU16(replIdx)
	return pc
}

// AddChild interns a nested compiled body (a named sub, an eval BLOCK, or
// an anonymous sub) and returns the index MAKE_CLOSURE's codeConstant16
// operand should reference.
func (b *Builder) AddChild(body *InterpretedCode) uint16 {
	b.children = append(b.children, body)
	return uint16(len(b.children) - 1)
}

// Finish produces the immutable InterpretedCode.
func (b *Builder) Finish(captured []CapturedVar) *InterpretedCode {
	return &InterpretedCode{
		Instructions: b.code,
		Constants:    b.constants,
		MaxRegister:  b.maxReg,
		Captured:     captured,
		Lines:        b.lines,
		Name:         b.name,
		Prototype:    b.proto,
		SourceFile:   b.source,
		Children:     b.children,
	}
}

// SetPrototype records the sub's prototype string.
func (b *Builder) SetPrototype(p string) { b.proto = p }
