package interp

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/compiler"
	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/ctrlflow"
	"github.com/jperl-run/jperl/dynscope"
	"github.com/jperl-run/jperl/value"
)

// Invoke runs code as a fresh call with args as its @_, the entry point
// both EvalCode and OP_CALL use. It owns exactly one dynscope checkpoint
// and one frame: every
// `local` performed by code (or anything it calls) unwinds when Invoke
// returns, by BOTH normal and panic/die exit, mirroring the
// acquire/defer-release discipline dynscope.Manager itself documents.
func Invoke(ctx *Context, code *container.Code, args []*value.Scalar) (result *value.Scalar, err error) {
	ctx.Dyn.EnterScope()
	defer ctx.Dyn.ExitScope()

	f := newFrame(code, args)
	if err := run(ctx, f); err != nil {
		return nil, err
	}

	m := ctx.Ctrl.Peek()
	switch m.Kind {
	case ctrlflow.Return:
		ctx.Ctrl.Clear()
		if v, ok := m.Payload.(*value.Scalar); ok {
			return v, nil
		}
		return value.NewUndef(), nil
	case ctrlflow.GotoSub:
		ctx.Ctrl.Clear()
		target, ok := m.Payload.(*container.Code)
		if !ok {
			return nil, errors.New("goto &sub: target is not a CODE reference")
		}
		argsArr, _ := f.regs[0].DereferenceAs(value.RefArray)
		return Invoke(ctx, target, argsArr.(*container.Array).Slice())
	case ctrlflow.None:
		return value.NewUndef(), nil
	default:
		// A last/next/redo this frame's own loops (if any) didn't claim:
		// leave it pending rather than erroring here. OP_CALL (a real
		// subroutine boundary) turns this into "Exiting subroutine via ...";
		// OP_CALL_EVAL (an eval BLOCK, transparent to enclosing loop control)
		// instead gives its own frame's loops a chance via trailing
		// TAKE_IF_MATCHES probes before bubbling further. Whichever one
		// called Invoke decides — this is deliberately not Invoke's call to
		// make. A marker that reaches the outermost Invoke still pending is
		// Perl's own "Can't "last" outside a loop block" (spec §5.2), raised
		// by the top-level entry point once it sees nothing left to unwind.
		return value.NewUndef(), nil
	}
}

// run executes f's bytecode until it falls off the end, an OP_RETURN/
// OP_GOTO_SUB instruction fires, or OP_DIE raises an error. A last/next/redo
// whose target loop lives in this same compiled unit never reaches run() at
// all — the compiler resolves it to a direct jump (compiler.emitBreak). One
// that doesn't (it must unwind out of an eval BLOCK to reach its target, spec
// §8 scenario 7) lowers to OP_SET_MARKER_*+OP_RETURN (compiler.emitBreak),
// so run() exits the same way an explicit `return` would; it does not itself
// interpret the marker it may leave pending — Invoke, OP_CALL_EVAL's trailing
// probes, and OP_RETURN_IF_PENDING do that between them.
func run(ctx *Context, f *frame) error {
	code := f.code.Instructions
	for f.pc < len(code) {
		op := bytecode.Opcode(code[f.pc])
		base := f.pc + 1

		switch op {
		case bytecode.OpNop:
			// no-op

		case bytecode.OpLoadConst:
			rd := code[base]
			k := u16(code, base+1)
			_ = f.reg(rd).SetFrom(f.code.Constants[k])

		case bytecode.OpLoadUndef:
			_ = f.reg(code[base]).SetFrom(value.NewUndef())

		case bytecode.OpMove:
			_ = f.reg(code[base]).SetFrom(f.reg(code[base+1]))

		case bytecode.OpAdd:
			arith3(f, base, ctx, "+", value.Add)
		case bytecode.OpSub:
			arith3(f, base, ctx, "-", value.Sub)
		case bytecode.OpMul:
			arith3(f, base, ctx, "*", value.Mul)
		case bytecode.OpPow:
			arith3(f, base, ctx, "**", value.Pow)
		case bytecode.OpBitAnd:
			arith3(f, base, ctx, "&", value.And)
		case bytecode.OpBitOr:
			arith3(f, base, ctx, "|", value.Or)
		case bytecode.OpBitXor:
			arith3(f, base, ctx, "^", value.Xor)
		case bytecode.OpShl:
			arith3(f, base, ctx, "<<", value.ShiftLeft)
		case bytecode.OpShr:
			arith3(f, base, ctx, ">>", value.ShiftRight)
		case bytecode.OpConcat:
			arith3(f, base, ctx, ".", func(a, b *value.Scalar) *value.Scalar {
				return value.NewString(a.AsString()+b.AsString(), a.IsUnicode() || b.IsUnicode())
			})
		case bytecode.OpRepeat:
			arith3(f, base, ctx, "x", func(a, b *value.Scalar) *value.Scalar {
				n := b.AsInt()
				if n <= 0 {
					return value.NewString("", false)
				}
				s := a.AsString()
				out := make([]byte, 0, len(s)*int(n))
				for i := int64(0); i < n; i++ {
					out = append(out, s...)
				}
				return value.NewString(string(out), a.IsUnicode())
			})

		case bytecode.OpDiv:
			rd, ra, rb := code[base], code[base+1], code[base+2]
			if res, handled := value.DispatchBinary(ctx, "/", f.reg(ra), f.reg(rb)); handled {
				_ = f.reg(rd).SetFrom(res)
				break
			}
			res, err := value.Div(f.reg(ra), f.reg(rb))
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(res)

		case bytecode.OpMod:
			rd, ra, rb := code[base], code[base+1], code[base+2]
			if res, handled := value.DispatchBinary(ctx, "%", f.reg(ra), f.reg(rb)); handled {
				_ = f.reg(rd).SetFrom(res)
				break
			}
			res, err := value.IntDivMod(f.reg(ra), f.reg(rb))
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(res)

		case bytecode.OpNeg:
			_ = f.reg(code[base]).SetFrom(value.Neg(f.reg(code[base+1])))

		case bytecode.OpNumEq:
			cmp3(f, base, func(a, b *value.Scalar) bool { return value.Compare(a, b) == 0 })
		case bytecode.OpNumNe:
			cmp3(f, base, func(a, b *value.Scalar) bool { return value.Compare(a, b) != 0 })
		case bytecode.OpNumLt:
			cmp3(f, base, func(a, b *value.Scalar) bool { return value.Compare(a, b) < 0 })
		case bytecode.OpNumLe:
			cmp3(f, base, func(a, b *value.Scalar) bool { return value.Compare(a, b) <= 0 })
		case bytecode.OpNumGt:
			cmp3(f, base, func(a, b *value.Scalar) bool { return value.Compare(a, b) > 0 })
		case bytecode.OpNumGe:
			cmp3(f, base, func(a, b *value.Scalar) bool { return value.Compare(a, b) >= 0 })
		case bytecode.OpStrEq:
			cmp3(f, base, func(a, b *value.Scalar) bool { return a.AsString() == b.AsString() })
		case bytecode.OpStrNe:
			cmp3(f, base, func(a, b *value.Scalar) bool { return a.AsString() != b.AsString() })
		case bytecode.OpStrLt:
			cmp3(f, base, func(a, b *value.Scalar) bool { return a.AsString() < b.AsString() })
		case bytecode.OpStrLe:
			cmp3(f, base, func(a, b *value.Scalar) bool { return a.AsString() <= b.AsString() })
		case bytecode.OpStrGt:
			cmp3(f, base, func(a, b *value.Scalar) bool { return a.AsString() > b.AsString() })
		case bytecode.OpStrGe:
			cmp3(f, base, func(a, b *value.Scalar) bool { return a.AsString() >= b.AsString() })

		case bytecode.OpNot:
			_ = f.reg(code[base]).SetFrom(perlBool(!f.reg(code[base+1]).AsBool()))
		case bytecode.OpDefined:
			_ = f.reg(code[base]).SetFrom(perlBool(f.reg(code[base+1]).IsDefined()))
		case bytecode.OpRefScalar:
			_ = f.reg(code[base]).SetFrom(value.NewRef(f.reg(code[base+1])))

		case bytecode.OpAddScalarInt:
			rd, ra := code[base], code[base+1]
			imm := u16(code, base+2)
			_ = f.reg(rd).SetFrom(value.Add(f.reg(ra), value.NewInt(int64(imm))))

		case bytecode.OpAddAssign:
			compound(ctx, f, base, "+", value.Add)
		case bytecode.OpSubAssign:
			compound(ctx, f, base, "-", value.Sub)
		case bytecode.OpMulAssign:
			compound(ctx, f, base, "*", value.Mul)
		case bytecode.OpPowAssign:
			compound(ctx, f, base, "**", value.Pow)
		case bytecode.OpBitAndAssign:
			compound(ctx, f, base, "&", value.And)
		case bytecode.OpBitOrAssign:
			compound(ctx, f, base, "|", value.Or)
		case bytecode.OpBitXorAssign:
			compound(ctx, f, base, "^", value.Xor)
		case bytecode.OpShlAssign:
			compound(ctx, f, base, "<<", value.ShiftLeft)
		case bytecode.OpShrAssign:
			compound(ctx, f, base, ">>", value.ShiftRight)
		case bytecode.OpConcatAssign:
			compound(ctx, f, base, ".", func(a, b *value.Scalar) *value.Scalar {
				return value.NewString(a.AsString()+b.AsString(), a.IsUnicode() || b.IsUnicode())
			})
		case bytecode.OpRepeatAssign:
			compound(ctx, f, base, "x", func(a, b *value.Scalar) *value.Scalar {
				return value.NewString(repeatStr(a.AsString(), b.AsInt()), a.IsUnicode())
			})
		case bytecode.OpDivAssign:
			rd, rb := code[base], code[base+1]
			lv, rhs := f.reg(rd), f.reg(rb)
			if res, compoundHandled, baseHandled := value.DispatchCompound(ctx, "/", lv, rhs); compoundHandled || baseHandled {
				_ = lv.SetFrom(res)
				break
			}
			res, err := value.Div(lv, rhs)
			if err != nil {
				return err
			}
			_ = lv.SetFrom(res)
		case bytecode.OpModAssign:
			rd, rb := code[base], code[base+1]
			lv, rhs := f.reg(rd), f.reg(rb)
			if res, compoundHandled, baseHandled := value.DispatchCompound(ctx, "%", lv, rhs); compoundHandled || baseHandled {
				_ = lv.SetFrom(res)
				break
			}
			res, err := value.IntDivMod(lv, rhs)
			if err != nil {
				return err
			}
			_ = lv.SetFrom(res)
		case bytecode.OpAndAssign:
			rd, rb := code[base], code[base+1]
			if f.reg(rd).AsBool() {
				_ = f.reg(rd).SetFrom(f.reg(rb))
			}
		case bytecode.OpOrAssign:
			rd, rb := code[base], code[base+1]
			if !f.reg(rd).AsBool() {
				_ = f.reg(rd).SetFrom(f.reg(rb))
			}
		case bytecode.OpDefOrAssign:
			rd, rb := code[base], code[base+1]
			if !f.reg(rd).IsDefined() {
				_ = f.reg(rd).SetFrom(f.reg(rb))
			}

		case bytecode.OpJump:
			f.pc = int(u16(code, base))
			continue
		case bytecode.OpJumpIfFalse:
			if !f.reg(code[base]).AsBool() {
				f.pc = int(u16(code, base+1))
				continue
			}
		case bytecode.OpJumpIfTrue:
			if f.reg(code[base]).AsBool() {
				f.pc = int(u16(code, base+1))
				continue
			}

		case bytecode.OpMakeRange:
			rd, rlo, rhi := code[base], code[base+1], code[base+2]
			_ = f.reg(rd).SetFrom(value.NewRef(container.NewRange(f.reg(rlo), f.reg(rhi))))

		case bytecode.OpIteratorCreate:
			rd, rs := code[base], code[base+1]
			it, err := iteratorOver(f.reg(rs))
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(value.NewRef(it))

		case bytecode.OpForeachNextOrExit:
			varReg, iterReg := code[base], code[base+1]
			exit := u16(code, base+2)
			target, err := f.reg(iterReg).DereferenceAs(value.RefScalar)
			if err != nil {
				return err
			}
			it, ok := target.(*container.Iterator)
			if !ok {
				return &value.TypeError{
					Wanted: value.RefScalar,
					Detail: fmt.Sprintf("Can't use value as %s (got %T)", container.IteratorTag, target),
				}
			}
			if !it.HasNext() {
				f.pc = int(exit)
				continue
			}
			_ = f.reg(varReg).SetFrom(it.Next())

		case bytecode.OpCall:
			rd, rfunc, argBase, argCount := code[base], code[base+1], code[base+2], code[base+3]
			args := make([]*value.Scalar, argCount)
			for i := byte(0); i < argCount; i++ {
				args[i] = f.reg(argBase + i)
			}
			callee, err := resolveCallee(ctx, f.reg(rfunc), args)
			if err != nil {
				return err
			}
			result, err := Invoke(ctx, callee, args)
			if err != nil {
				return err
			}
			// A real subroutine call is not transparent to last/next/redo
			// (spec §8 scenario 7 only grants that to eval BLOCK, handled by
			// OP_CALL_EVAL below): Invoke leaves such a marker pending rather
			// than erroring itself, so an ordinary call must turn it into
			// Perl's own "Exiting subroutine via ..." fatal here.
			if m := ctx.Ctrl.Peek(); m.Kind == ctrlflow.Last || m.Kind == ctrlflow.Next || m.Kind == ctrlflow.Redo {
				ctx.Ctrl.Clear()
				return errors.Errorf("Exiting subroutine via %s", loopVerb(m.Kind))
			}
			_ = f.reg(rd).SetFrom(result)

		case bytecode.OpCallEval:
			rd, rfunc, argBase, argCount := code[base], code[base+1], code[base+2], code[base+3]
			args := make([]*value.Scalar, argCount)
			for i := byte(0); i < argCount; i++ {
				args[i] = f.reg(argBase + i)
			}
			callee, err := resolveCallee(ctx, f.reg(rfunc), args)
			if err != nil {
				return err
			}
			result, err := Invoke(ctx, callee, args)
			if err != nil {
				// The eval frame is left by die: reinstate the regex state
				// OP_SAVE_REGEX_STATE saved before this call.
				if n := len(ctx.regexSnapshots); n > 0 {
					ctx.Regex.Restore(ctx.regexSnapshots[n-1])
					ctx.regexSnapshots = ctx.regexSnapshots[:n-1]
				}
				return err
			}
			// Unlike OP_CALL, a last/next/redo the eval body couldn't resolve
			// locally is left pending on purpose: compiler.emitCrossFrameProbes
			// emits TAKE_IF_MATCHES probes for this frame's own enclosing loops
			// right after the RESTORE_REGEX_STATE that follows this
			// instruction, followed by an OP_RETURN_IF_PENDING
			// that bounces control further up if none of them claim it.
			_ = f.reg(rd).SetFrom(result)

		case bytecode.OpReturnIfPending:
			if ctx.Ctrl.IsPending() {
				return nil
			}

		case bytecode.OpReturn:
			ra := code[base]
			if !ctx.Ctrl.IsPending() {
				ctx.Ctrl.Set(ctrlflow.Marker{Kind: ctrlflow.Return, Payload: f.reg(ra).Clone()})
			}
			return nil

		case bytecode.OpDie:
			return errors.Errorf("%s", f.reg(code[base]).AsString())

		case bytecode.OpGotoSub:
			target, err := f.reg(code[base]).DereferenceAs(value.RefCode)
			if err != nil {
				return err
			}
			ctx.Ctrl.Set(ctrlflow.Marker{Kind: ctrlflow.GotoSub, Payload: target})
			return nil

		case bytecode.OpSetMarkerLast:
			ctx.Ctrl.Set(ctrlflow.Marker{Kind: ctrlflow.Last, Label: f.code.Constants[u16(code, base+1)].AsString()})
		case bytecode.OpSetMarkerNext:
			ctx.Ctrl.Set(ctrlflow.Marker{Kind: ctrlflow.Next, Label: f.code.Constants[u16(code, base+1)].AsString()})
		case bytecode.OpSetMarkerRedo:
			ctx.Ctrl.Set(ctrlflow.Marker{Kind: ctrlflow.Redo, Label: f.code.Constants[u16(code, base+1)].AsString()})

		case bytecode.OpTakeIfMatches:
			kind := ctrlflow.Kind(code[base])
			label := f.code.Constants[u16(code, base+1)].AsString()
			target := u16(code, base+3)
			if _, ok := ctx.Ctrl.TakeIfMatches(kind, label); ok {
				f.pc = int(target)
				continue
			}

		case bytecode.OpGlobalGetScalar:
			rd := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			_ = f.reg(rd).SetFrom(ctx.Symtable.Glob("", name).ScalarSlot())
		case bytecode.OpGlobalSetScalar:
			rs := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			_ = ctx.Symtable.Glob("", name).ScalarSlot().SetFrom(f.reg(rs))
		case bytecode.OpGlobalGetArray:
			rd := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			_ = f.reg(rd).SetFrom(value.NewRef(ctx.Symtable.Glob("", name).ArraySlot()))
		case bytecode.OpGlobalGetHash:
			rd := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			_ = f.reg(rd).SetFrom(value.NewRef(ctx.Symtable.Glob("", name).HashSlot()))
		case bytecode.OpGlobalSetCode:
			rs := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			target, err := f.reg(rs).DereferenceAs(value.RefCode)
			if err != nil {
				return err
			}
			ctx.Symtable.Glob("", name).Code = target.(*container.Code)

		case bytecode.OpGlobalGetGlob:
			rd := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			_ = f.reg(rd).SetFrom(value.NewRef(ctx.Symtable.Glob("", name)))
		case bytecode.OpGlobalSetGlob:
			rs := code[base]
			name := f.code.Constants[u16(code, base+1)].AsString()
			src, err := f.reg(rs).DereferenceAs(value.RefGlob)
			if err != nil {
				return err
			}
			ctx.Symtable.Glob("", name).Restore(src.(*container.Glob).Snapshot())

		case bytecode.OpEnterScope:
			ctx.Dyn.EnterScope()
		case bytecode.OpExitScope:
			ctx.Dyn.ExitScope()
		case bytecode.OpLocalScalar:
			name := f.code.Constants[u16(code, base+1)].AsString()
			ctx.Dyn.Push(dynscope.SaveScalar(ctx.Symtable.Glob("", name).ScalarSlot()))
		case bytecode.OpLocalArray:
			name := f.code.Constants[u16(code, base+1)].AsString()
			ctx.Dyn.Push(dynscope.SaveArray(ctx.Symtable.Glob("", name)))
		case bytecode.OpLocalHash:
			name := f.code.Constants[u16(code, base+1)].AsString()
			ctx.Dyn.Push(dynscope.SaveHash(ctx.Symtable.Glob("", name)))
		case bytecode.OpLocalGlob:
			name := f.code.Constants[u16(code, base+1)].AsString()
			ctx.Dyn.Push(dynscope.SaveGlobSlots(ctx.Symtable.Glob("", name)))

		case bytecode.OpArrayGet:
			rd, rarr, ridx := code[base], code[base+1], code[base+2]
			arr, err := f.reg(rarr).DereferenceAs(value.RefArray)
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(arr.(*container.Array).Get(int(f.reg(ridx).AsInt())))
		case bytecode.OpArrayLvalue:
			rd, rarr, ridx := code[base], code[base+1], code[base+2]
			arr, err := f.reg(rarr).DereferenceAs(value.RefArray)
			if err != nil {
				return err
			}
			f.regs[rd] = arr.(*container.Array).Lvalue(int(f.reg(ridx).AsInt()))
		case bytecode.OpArrayPush:
			rarr, rval := code[base], code[base+1]
			arr, err := f.reg(rarr).DereferenceAs(value.RefArray)
			if err != nil {
				return err
			}
			arr.(*container.Array).Push(f.reg(rval).Clone())
		case bytecode.OpHashGet:
			rd, rhash, rkey := code[base], code[base+1], code[base+2]
			h, err := f.reg(rhash).DereferenceAs(value.RefHash)
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(h.(*container.Hash).Get(f.reg(rkey).AsString()))
		case bytecode.OpHashLvalue:
			rd, rhash, rkey := code[base], code[base+1], code[base+2]
			h, err := f.reg(rhash).DereferenceAs(value.RefHash)
			if err != nil {
				return err
			}
			f.regs[rd] = h.(*container.Hash).Lvalue(f.reg(rkey).AsString())

		case bytecode.OpDeref, bytecode.OpDerefAutoviv:
			rd, rs, kind := code[base], code[base+1], code[base+2]
			target, err := f.reg(rs).DereferenceAs(value.RefKind(kind))
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(value.NewRef(target))

		case bytecode.OpMakeClosure:
			rd := code[base]
			codeIdx := u16(code, base+1)
			capturedBase, capturedCount := code[base+3], code[base+4]
			child := f.code.Children[codeIdx]
			captured := make([]*value.Scalar, capturedCount)
			for i := byte(0); i < capturedCount; i++ {
				captured[i] = f.reg(capturedBase + i)
			}
			_ = f.reg(rd).SetFrom(value.NewRef(container.NewCode(child).Close(captured)))

		case bytecode.OpSaveRegexState:
			ctx.regexSnapshots = append(ctx.regexSnapshots, ctx.Regex.Save())
		case bytecode.OpRestoreRegexState:
			n := len(ctx.regexSnapshots)
			ctx.Regex.Restore(ctx.regexSnapshots[n-1])
			ctx.regexSnapshots = ctx.regexSnapshots[:n-1]

		case bytecode.OpEvalString:
			return errors.New("eval STRING requires the external lexer/parser component")

		case bytecode.OpMatch:
			rd, rsubject := code[base], code[base+1]
			patIdx := u16(code, base+2)
			listContext := f.reg(compiler.RegContext).AsInt() != 0
			result, err := doMatch(ctx, f.reg(rsubject), f.code.Constants[patIdx].AsString(), listContext)
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(result)

		case bytecode.OpSubst:
			rd, rsubject := code[base], code[base+1]
			patIdx, replIdx := u16(code, base+2), u16(code, base+4)
			result, err := doSubst(ctx, f.reg(rsubject), f.code.Constants[patIdx].AsString(), f.code.Constants[replIdx].AsString())
			if err != nil {
				return err
			}
			_ = f.reg(rd).SetFrom(result)

		default:
			return fmt.Errorf("interp: unimplemented opcode %s", op)
		}

		f.pc = base + op.OperandBytes()
	}
	return nil
}

func u16(code []byte, off int) uint16 {
	return binary.BigEndian.Uint16(code[off : off+2])
}

func perlBool(b bool) *value.Scalar {
	if b {
		return value.NewInt(1)
	}
	return value.NewString("", false)
}

func repeatStr(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

// arith3 is shared by every Rd,Ra,Rb arithmetic/string opcode: consult
// overload dispatch first, fall back to the built-in operation.
func arith3(f *frame, base int, ctx *Context, op string, fallback func(a, b *value.Scalar) *value.Scalar) {
	code := f.code.Instructions
	rd, ra, rb := code[base], code[base+1], code[base+2]
	if res, handled := value.DispatchBinary(ctx, op, f.reg(ra), f.reg(rb)); handled {
		_ = f.reg(rd).SetFrom(res)
		return
	}
	_ = f.reg(rd).SetFrom(fallback(f.reg(ra), f.reg(rb)))
}

func cmp3(f *frame, base int, pred func(a, b *value.Scalar) bool) {
	code := f.code.Instructions
	rd, ra, rb := code[base], code[base+1], code[base+2]
	_ = f.reg(rd).SetFrom(perlBool(pred(f.reg(ra), f.reg(rb))))
}

// compound lowers one of the 15 Rd(lvalue), Rb compound-assignment
// opcodes: probe the compound overload form first, then the base
// operator, then built-in arithmetic (spec §4.1/§4.5).
func compound(ctx *Context, f *frame, base int, op string, fallback func(a, b *value.Scalar) *value.Scalar) {
	code := f.code.Instructions
	rd, rb := code[base], code[base+1]
	lv, rhs := f.reg(rd), f.reg(rb)
	if res, compoundHandled, baseHandled := value.DispatchCompound(ctx, op, lv, rhs); compoundHandled || baseHandled {
		_ = lv.SetFrom(res)
		return
	}
	_ = lv.SetFrom(fallback(lv, rhs))
}

// iteratorOver resolves an ITERATOR_CREATE source register to a lazy
// container.Iterator: a Range stays lazy, an Array is snapshotted once
// (Perl's own foreach-over-@array semantics), anything else is a type
// error.
func iteratorOver(s *value.Scalar) (*container.Iterator, error) {
	target := s.RefTarget()
	switch t := target.(type) {
	case *container.Range:
		return t.Iterator(), nil
	case *container.Array:
		return container.ArrayIterator(t), nil
	default:
		return nil, errors.New("foreach: not an ARRAY or range")
	}
}

// resolveCallee decides what OP_CALL's Rfunc register means: a CODE
// reference calls directly; a plain string is a method name, resolved via
// MRO against the invocant's (args[0]) bless package when blessed, or
// treated as a bareword sub name in package "main" otherwise — the
// interpreter-side half of compileMethodCall/compileCall's split (spec
// §3 "Method Resolution Order").
func resolveCallee(ctx *Context, callee *value.Scalar, args []*value.Scalar) (*container.Code, error) {
	if callee.Kind() == value.KindRef {
		target, err := callee.DereferenceAs(value.RefCode)
		if err != nil {
			return nil, err
		}
		return target.(*container.Code), nil
	}

	name := callee.AsString()
	pkg := "main"
	if len(args) > 0 {
		if bless := args[0].BlessPackage(); bless != "" {
			pkg = bless
		}
	}
	resolvedPkg := pkg
	if found, ok := ctx.MRO.ResolveMethod(pkg, name); ok {
		resolvedPkg = found
	}
	code := ctx.Symtable.Glob(resolvedPkg, name).Code
	if code == nil {
		return nil, errors.Errorf("Undefined subroutine &%s::%s called", resolvedPkg, name)
	}
	return code, nil
}

