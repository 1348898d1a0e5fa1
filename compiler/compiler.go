package compiler

import (
	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/ctrlflow"
	"github.com/jperl-run/jperl/value"
)

// loopFrame tracks the bytecode addresses a last/next/redo inside the
// current loop needs: where to jump to restart the body (redo), where to
// jump to re-test the condition or run the C-for post-expression (next),
// and the set of pending jumps/probes whose target is "fall out of the
// loop" (last), patched once the loop's exit address is known — the same
// emit-now/patch-later discipline the teacher's nfa.Builder uses for its
// own jump targets.
//
// isLoop is false for the pseudo-frame compileLabeled pushes for a bare
// labelled block: that construct only ever claims `last`, never `next`/
// `redo` (spec §5.3's historical bug fix covers the former; the latter
// two simply keep propagating outward when aimed at a non-loop block).
//
// redoTarget is always known before the body that might jump to it
// compiles (every loop construct fixes it at frame-creation time), so a
// `redo` always lowers to an immediately-patched direct jump. nextTarget
// is known up front for while/foreach but not for a C-style for (its
// post-expression compiles after the body) — nextKnown records which
// case applies; until it flips true, `next` jumps/probes queue in
// nextJumps/nextProbes for deferred patching.
type loopFrame struct {
	label       string
	isLoop      bool
	redoTarget  int
	nextTarget  int
	nextKnown   bool
	lastJumps   []int
	nextJumps   []int
	lastProbes  []int
	nextProbes  []int
}

// Compiler lowers one Block (a sub body, or the top-level program) to an
// InterpretedCode.
type Compiler struct {
	b     *bytecode.Builder
	alloc *Allocator
	loops []*loopFrame
	name  string
}

// New returns a Compiler ready to compile one top-level program or sub
// body named name.
func New(name, source string) *Compiler {
	return &Compiler{
		b:     bytecode.NewBuilder(name, source),
		alloc: NewAllocator(),
		name:  name,
	}
}

// Compile lowers prog's statements and returns the finished
// InterpretedCode.
//
// Bodies compiled via this Compiler (named subs, anonymous subs, eval
// BLOCK) currently close over no lexicals of their enclosing frame
// (Captured is always empty) — free variables are looked up through
// package globals instead. Lexical closures over `my` variables are
// future work; see DESIGN.md.
func (c *Compiler) Compile(prog *Program) *bytecode.InterpretedCode {
	for _, stmt := range prog.Body {
		c.compileStmt(stmt)
	}
	c.b.UseRegister(c.alloc.MaxRegister() - 1)
	return c.b.Finish(nil)
}

func (c *Compiler) constStr(s string) uint16 {
	return uint16(c.b.Const(value.NewString(s, true)))
}

// ---- statements -----------------------------------------------------------

func (c *Compiler) compileStmt(n Node) {
	c.b.MarkLine(lineOf(n))
	switch s := n.(type) {
	case *ExprStmt:
		r := c.compileExpr(s.X)
		c.alloc.FreeTemp(r)
	case *Block:
		c.compileBlockScoped(s)
	case *If:
		c.compileIf(s)
	case *While:
		c.compileWhile(s)
	case *CFor:
		c.compileCFor(s)
	case *Foreach:
		c.compileForeach(s)
	case *Labeled:
		c.compileLabeled(s)
	case *Last:
		c.emitBreak(bytecode.OpSetMarkerLast, ctrlflow.Last, s.Label)
	case *Next:
		c.emitBreak(bytecode.OpSetMarkerNext, ctrlflow.Next, s.Label)
	case *Redo:
		c.emitBreak(bytecode.OpSetMarkerRedo, ctrlflow.Redo, s.Label)
	case *Return:
		c.compileReturn(s)
	case *GotoSub:
		c.compileGotoSub(s)
	case *SubDef:
		c.compileSubDef(s)
	case *Local:
		c.compileLocal(s)
	case *My:
		c.compileMy(s)
	case *EvalBlock:
		r := c.compileEvalBlock(s)
		c.alloc.FreeTemp(r)
	default:
		r := c.compileExpr(n)
		c.alloc.FreeTemp(r)
	}
}

func (c *Compiler) compileBlockScoped(blk *Block) {
	c.alloc.EnterScope()
	c.b.Emit0(bytecode.OpEnterScope)
	for _, stmt := range blk.Body {
		c.compileStmt(stmt)
	}
	c.b.Emit0(bytecode.OpExitScope)
	c.alloc.ExitScope()
}

// findLoop resolves a last/next/redo/redo's target against the loops
// lexically enclosing this statement within the CURRENT compiled unit (a
// sub or eval block's body is compiled by its own fresh Compiler, so
// c.loops here never reaches past that boundary — see compileSubDef/
// compileEvalBlock). An empty label matches the innermost frame that
// supports kind; a non-empty label must match a frame's label exactly,
// and a label match against a frame that doesn't support kind (a bare
// labelled block targeted by next/redo) stops the search rather than
// skipping past it to an outer loop, matching compileLabeled's existing
// "keeps propagating outward" behaviour for that case.
func (c *Compiler) findLoop(kind ctrlflow.Kind, label string) *loopFrame {
	for i := len(c.loops) - 1; i >= 0; i-- {
		f := c.loops[i]
		if label != "" && f.label != label {
			continue
		}
		if kind != ctrlflow.Last && !f.isLoop {
			if label == "" {
				continue
			}
			return nil
		}
		return f
	}
	return nil
}

// emitBreak lowers last/next/redo. When findLoop resolves the target
// within this compiled unit (the common case), it's a plain jump to the
// loop's corresponding address — redo's is always already known, next's
// is deferred to nextJumps when the loop hasn't fixed it yet (a C-style
// for's post-expression), and last's always defers to lastJumps since a
// loop's exit address isn't known until it finishes compiling (see
// patchLast/patchNext). When it doesn't resolve locally — the statement
// has to unwind out of an eval BLOCK to reach its target, spec §8
// scenario 7 — it falls back to OpSetMarker*+OpReturn so the interpreter
// can bubble the marker up through OP_CALL_EVAL until a frame with a
// matching loop (or none left) claims it.
func (c *Compiler) emitBreak(op bytecode.Opcode, kind ctrlflow.Kind, label string) {
	frame := c.findLoop(kind, label)
	if frame == nil {
		c.b.Emit3(op, 0, c.constStr(label))
		undef := c.alloc.Temp()
		c.b.Emit1(bytecode.OpLoadUndef, byte(undef))
		c.b.Emit1(bytecode.OpReturn, byte(undef))
		c.alloc.FreeTemp(undef)
		return
	}
	switch kind {
	case ctrlflow.Redo:
		c.b.PatchJumpTarget(c.b.EmitJump(bytecode.OpJump, 0, false), uint16(frame.redoTarget))
	case ctrlflow.Next:
		pc := c.b.EmitJump(bytecode.OpJump, 0, false)
		if frame.nextKnown {
			c.b.PatchJumpTarget(pc, uint16(frame.nextTarget))
		} else {
			frame.nextJumps = append(frame.nextJumps, pc)
		}
	case ctrlflow.Last:
		frame.lastJumps = append(frame.lastJumps, c.b.EmitJump(bytecode.OpJump, 0, false))
	}
}

func (c *Compiler) compileIf(s *If) {
	cond := c.compileExpr(s.Cond)
	jf := c.b.EmitJump(bytecode.OpJumpIfFalse, byte(cond), true)
	c.alloc.FreeTemp(cond)
	c.compileBlockScoped(s.Then)
	var jend int
	hasElse := s.Else != nil
	if hasElse {
		jend = c.b.EmitJump(bytecode.OpJump, 0, false)
	}
	c.b.PatchJumpTarget(jf, uint16(c.b.Pos()))
	if hasElse {
		switch e := s.Else.(type) {
		case *Block:
			c.compileBlockScoped(e)
		case *If:
			c.compileIf(e)
		default:
			panic("compiler: If.Else must be *Block or *If")
		}
		c.b.PatchJumpTarget(jend, uint16(c.b.Pos()))
	}
}

func (c *Compiler) emitProbe(kind ctrlflow.Kind, label string, target int) {
	pc := c.b.EmitTakeIfMatches(byte(kind), c.constStr(label))
	c.b.PatchTakeIfMatchesTarget(pc, uint16(target))
}

func (c *Compiler) emitProbeUnpatched(kind ctrlflow.Kind, label string) int {
	return c.b.EmitTakeIfMatches(byte(kind), c.constStr(label))
}

// patchLast resolves every in-unit `last` jump and every cross-unit `last`
// probe targeting frame to frame's now-known exit address. Must run after
// frame is popped off c.loops and nothing more can be added to either list.
func (c *Compiler) patchLast(frame *loopFrame) {
	exit := uint16(c.b.Pos())
	for _, pc := range frame.lastJumps {
		c.b.PatchJumpTarget(pc, exit)
	}
	for _, pc := range frame.lastProbes {
		c.b.PatchTakeIfMatchesTarget(pc, exit)
	}
}

// patchNext fixes frame's next target once known (immediately at frame
// creation for while/foreach; after the body for a C-style for's
// post-expression) and patches every jump/probe queued against it while it
// was still unresolved.
func (c *Compiler) patchNext(frame *loopFrame, target int) {
	frame.nextTarget = target
	frame.nextKnown = true
	for _, pc := range frame.nextJumps {
		c.b.PatchJumpTarget(pc, uint16(target))
	}
	for _, pc := range frame.nextProbes {
		c.b.PatchTakeIfMatchesTarget(pc, uint16(target))
	}
}

// runLoopBody compiles a while/until's body as a loop, with nextTarget
// (the condition re-check) already known up front.
func (c *Compiler) runLoopBody(label string, body *Block, nextTarget int) *loopFrame {
	frame := &loopFrame{label: label, isLoop: true, redoTarget: c.b.Pos()}
	c.patchNext(frame, nextTarget)
	c.loops = append(c.loops, frame)
	c.compileBlockScoped(body)
	c.loops = c.loops[:len(c.loops)-1]
	return frame
}

func (c *Compiler) compileWhile(s *While) {
	condStart := c.b.Pos()
	cond := c.compileExpr(s.Cond)
	var jf int
	if s.Until {
		jf = c.b.EmitJump(bytecode.OpJumpIfTrue, byte(cond), true)
	} else {
		jf = c.b.EmitJump(bytecode.OpJumpIfFalse, byte(cond), true)
	}
	c.alloc.FreeTemp(cond)

	frame := c.runLoopBody(s.Label, s.Body, condStart)
	jback := c.b.EmitJump(bytecode.OpJump, 0, false)
	c.b.PatchJumpTarget(jback, uint16(condStart))
	c.patchLast(frame)
	c.b.PatchJumpTarget(jf, uint16(c.b.Pos()))
}

func (c *Compiler) compileCFor(s *CFor) {
	c.alloc.EnterScope()
	if s.Init != nil {
		r := c.compileExpr(s.Init)
		c.alloc.FreeTemp(r)
	}
	condStart := c.b.Pos()
	var jf int
	hasCond := s.Cond != nil
	if hasCond {
		cond := c.compileExpr(s.Cond)
		jf = c.b.EmitJump(bytecode.OpJumpIfFalse, byte(cond), true)
		c.alloc.FreeTemp(cond)
	}

	frame := &loopFrame{label: s.Label, isLoop: true, redoTarget: c.b.Pos()}
	c.loops = append(c.loops, frame)
	c.compileBlockScoped(s.Body)

	postStart := c.b.Pos()
	if s.Post != nil {
		r := c.compileExpr(s.Post)
		c.alloc.FreeTemp(r)
	}
	c.patchNext(frame, postStart)
	c.loops = c.loops[:len(c.loops)-1]

	jback := c.b.EmitJump(bytecode.OpJump, 0, false)
	c.b.PatchJumpTarget(jback, uint16(condStart))

	if hasCond {
		c.b.PatchJumpTarget(jf, uint16(c.b.Pos()))
	}
	c.patchLast(frame)
	c.alloc.ExitScope()
}

// compileForeach lowers to ITERATOR_CREATE + the fused
// FOREACH_NEXT_OR_EXIT superinstruction; List (including a bare Range) is
// compiled once into a single iterator register, never materialised into
// an array, so `foreach (1..1_000_000_000)` runs in O(1) memory (spec §8
// scenario 6).
func (c *Compiler) compileForeach(s *Foreach) {
	listReg := c.compileExpr(s.List)
	iterReg := c.alloc.Temp()
	c.b.Emit2(bytecode.OpIteratorCreate, byte(iterReg), byte(listReg))
	c.alloc.FreeTemp(listReg)

	c.alloc.EnterScope()
	var varReg int
	if s.Var != nil {
		varReg = c.alloc.Named(s.Var.Name)
	} else {
		varReg = RegUnderscore
	}

	loopStart := c.b.Pos()
	fused := c.b.EmitForeachNextOrExit(byte(varReg), byte(iterReg))

	frame := &loopFrame{label: s.Label, isLoop: true, redoTarget: c.b.Pos()}
	c.patchNext(frame, loopStart)
	c.loops = append(c.loops, frame)
	c.compileBlockScoped(s.Body)
	c.loops = c.loops[:len(c.loops)-1]

	jback := c.b.EmitJump(bytecode.OpJump, 0, false)
	c.b.PatchJumpTarget(jback, uint16(loopStart))

	c.b.PatchForeachExit(fused, uint16(c.b.Pos()))
	c.patchLast(frame)
	c.alloc.ExitScope()
	c.alloc.FreeTemp(iterReg)
}

// compileLabeled lowers a labelled bare block: per spec §5.3's historical
// bug fix, `last LABEL` must be able to target it even though it is not a
// loop, so it gets the same TAKE_IF_MATCHES-at-exit-edge treatment with
// no redo/next targets. A stray `next LABEL`/`redo LABEL` aimed at a bare
// block finds no matching probe here and simply keeps propagating
// upward — exactly the runtime error real Perl reports.
func (c *Compiler) compileLabeled(s *Labeled) {
	blk, ok := s.Stmt.(*Block)
	if !ok {
		c.compileStmt(s.Stmt)
		return
	}
	frame := &loopFrame{label: s.Label}
	c.loops = append(c.loops, frame)
	c.compileBlockScoped(blk)
	c.loops = c.loops[:len(c.loops)-1]
	c.patchLast(frame)
}

func (c *Compiler) compileReturn(s *Return) {
	var r int
	if s.Value != nil {
		r = c.compileExpr(s.Value)
	} else {
		r = c.alloc.Temp()
		c.b.Emit1(bytecode.OpLoadUndef, byte(r))
	}
	c.b.Emit1(bytecode.OpReturn, byte(r))
	c.alloc.FreeTemp(r)
}

func (c *Compiler) compileGotoSub(s *GotoSub) {
	target := c.compileExpr(s.Target)
	c.b.Emit1(bytecode.OpGotoSub, byte(target))
	c.alloc.FreeTemp(target)
}

// compileSubDef compiles a named sub's body as a child of the enclosing
// code and installs the resulting closure into its package glob via
// OpGlobalSetCode, so calls resolve it by name through the symbol table
// (package symtable) rather than through a register (spec §3 "Code").
func (c *Compiler) compileSubDef(s *SubDef) {
	sub := New(s.Name, "")
	body := sub.Compile(&Program{Body: s.Body.Body})
	body.Prototype = s.Proto
	childIdx := c.b.AddChild(body)

	closureReg := c.alloc.Temp()
	c.b.EmitMakeClosure(byte(closureReg), childIdx, 0, 0)
	c.b.Emit3(bytecode.OpGlobalSetCode, byte(closureReg), c.constStr(s.Name))
	c.alloc.FreeTemp(closureReg)
}

func (c *Compiler) compileLocal(s *Local) {
	for _, target := range s.Targets {
		vr, ok := target.(*VarRef)
		if !ok {
			continue
		}
		nameIdx := c.constStr(vr.Name)
		switch vr.Sigil {
		case "$":
			c.b.Emit3(bytecode.OpLocalScalar, 0, nameIdx)
		case "@":
			c.b.Emit3(bytecode.OpLocalArray, 0, nameIdx)
		case "%":
			c.b.Emit3(bytecode.OpLocalHash, 0, nameIdx)
		case "*":
			c.b.Emit3(bytecode.OpLocalGlob, 0, nameIdx)
		}
	}
	if s.Value != nil {
		for _, target := range s.Targets {
			r := c.compileExpr(&Assign{Target: target, Value: s.Value})
			c.alloc.FreeTemp(r)
		}
	}
}

func (c *Compiler) compileMy(s *My) {
	regs := make([]int, len(s.Names))
	for i, name := range s.Names {
		regs[i] = c.alloc.Named(name)
		c.b.Emit1(bytecode.OpLoadUndef, byte(regs[i]))
	}
	if s.Value != nil && len(regs) == 1 {
		v := c.compileExpr(s.Value)
		c.b.Emit2(bytecode.OpMove, byte(regs[0]), byte(v))
		c.alloc.FreeTemp(v)
	}
}

// compileEvalBlock lowers `eval { ... }`: regex state is saved/restored
// unconditionally around the body (spec §3 "regex state... preserved
// across eval boundaries"); dynamic-scope `local`s are already restored
// on both normal and exceptional exit by the Dynamic Scope Manager's own
// EnterScope/ExitScope discipline, which the interpreter invokes as part
// of running the body as an ordinary call. The die/catch wiring that
// clears or populates $@ is the interpreter's job (it needs a real Go
// recover() around a call to intercept OpDie) — the compiled body here is
// just another closure, dispatched via OP_CALL_EVAL rather than OP_CALL
// so a last/next/redo the body couldn't resolve against its own (empty)
// c.loops gets a chance to match one of THIS unit's enclosing loops
// instead of immediately becoming "Exiting subroutine via ..." (spec §8
// scenario 7; see emitCrossFrameProbes).
func (c *Compiler) compileEvalBlock(s *EvalBlock) int {
	sub := New(c.name+".eval", "")
	body := sub.Compile(&Program{Body: s.Body.Body})
	childIdx := c.b.AddChild(body)

	c.b.Emit0(bytecode.OpSaveRegexState)
	closureReg := c.alloc.Temp()
	c.b.EmitMakeClosure(byte(closureReg), childIdx, 0, 0)
	resultReg := c.alloc.Temp()
	c.b.EmitCallEval(byte(resultReg), byte(closureReg), 0, 0)
	c.b.Emit0(bytecode.OpRestoreRegexState)
	c.emitCrossFrameProbes()
	c.alloc.FreeTemp(closureReg)
	return resultReg
}

// emitCrossFrameProbes runs right after an OP_CALL_EVAL and its
// RESTORE_REGEX_STATE: if the eval body
// left a last/next/redo pending because it couldn't resolve it against its
// own loops, this frame's own enclosing loops (c.loops, innermost first —
// the same priority order a direct jump compiled here would have used)
// each get a TAKE_IF_MATCHES probe in turn. A redo/next probe is only
// worth emitting for an isLoop frame — the same restriction findLoop
// applies to direct jumps. If none match, OpReturnIfPending bounces
// control out of this frame too, continuing the bubble-up (an outer
// OP_CALL_EVAL's own probes, and so on, until some frame's loop claims it
// or there isn't one left).
func (c *Compiler) emitCrossFrameProbes() {
	for i := len(c.loops) - 1; i >= 0; i-- {
		frame := c.loops[i]
		if frame.isLoop {
			c.emitProbe(ctrlflow.Redo, frame.label, frame.redoTarget)
			if frame.nextKnown {
				c.emitProbe(ctrlflow.Next, frame.label, frame.nextTarget)
			} else {
				frame.nextProbes = append(frame.nextProbes, c.emitProbeUnpatched(ctrlflow.Next, frame.label))
			}
		}
		frame.lastProbes = append(frame.lastProbes, c.emitProbeUnpatched(ctrlflow.Last, frame.label))
	}
	c.b.Emit0(bytecode.OpReturnIfPending)
}

func lineOf(n Node) int {
	switch v := n.(type) {
	case *ExprStmt:
		return v.Line
	case *If:
		return v.Line
	case *While:
		return v.Line
	case *CFor:
		return v.Line
	case *Foreach:
		return v.Line
	case *Return:
		return v.Line
	case *Local:
		return v.Line
	case *My:
		return v.Line
	default:
		return 0
	}
}
