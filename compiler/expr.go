package compiler

import (
	"fmt"

	"github.com/jperl-run/jperl/bytecode"
	"github.com/jperl-run/jperl/value"
)

// binaryOpcode maps a source-level binary operator to its dedicated
// bytecode opcode (spec §4.5: "operator handlers... dispatch through an
// operator-to-opcode table"). Operators needing short-circuit evaluation
// (&&, ||, //) or a derived result (<=>, cmp) are handled separately in
// compileBinary, not through this table.
var binaryOpcode = map[string]bytecode.Opcode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod, "**": bytecode.OpPow,
	".": bytecode.OpConcat, "x": bytecode.OpRepeat,
	"==": bytecode.OpNumEq, "!=": bytecode.OpNumNe,
	"<": bytecode.OpNumLt, "<=": bytecode.OpNumLe,
	">": bytecode.OpNumGt, ">=": bytecode.OpNumGe,
	"eq": bytecode.OpStrEq, "ne": bytecode.OpStrNe,
	"lt": bytecode.OpStrLt, "le": bytecode.OpStrLe,
	"gt": bytecode.OpStrGt, "ge": bytecode.OpStrGe,
	"&": bytecode.OpBitAnd, "|": bytecode.OpBitOr, "^": bytecode.OpBitXor,
	"<<": bytecode.OpShl, ">>": bytecode.OpShr,
}

// compoundOpcode maps a compound-assignment operator (without its
// trailing '=') to its dedicated opcode (spec §4.5: 15 dedicated
// compound-assignment opcodes so overload dispatch consults the compound
// form before falling back to binary-op-then-assign).
var compoundOpcode = map[string]bytecode.Opcode{
	"+": bytecode.OpAddAssign, "-": bytecode.OpSubAssign, "*": bytecode.OpMulAssign,
	"/": bytecode.OpDivAssign, "%": bytecode.OpModAssign, ".": bytecode.OpConcatAssign,
	"x": bytecode.OpRepeatAssign, "**": bytecode.OpPowAssign,
	"<<": bytecode.OpShlAssign, ">>": bytecode.OpShrAssign,
	"&": bytecode.OpBitAndAssign, "|": bytecode.OpBitOrAssign, "^": bytecode.OpBitXorAssign,
	"&&": bytecode.OpAndAssign, "||": bytecode.OpOrAssign, "//": bytecode.OpDefOrAssign,
}

func (c *Compiler) compileExpr(n Node) int {
	switch e := n.(type) {
	case *Literal:
		return c.compileLiteral(e)
	case *VarRef:
		return c.compileVarRef(e)
	case *ListExpr:
		return c.compileListExpr(e)
	case *BinaryExpr:
		return c.compileBinary(e)
	case *UnaryExpr:
		return c.compileUnary(e)
	case *Assign:
		return c.compileAssign(e)
	case *CompoundAssign:
		return c.compileCompoundAssign(e)
	case *Index:
		return c.compileIndexRead(e)
	case *Deref:
		return c.compileDeref(e)
	case *Call:
		return c.compileCall(e)
	case *MethodCall:
		return c.compileMethodCall(e)
	case *AnonSub:
		return c.compileAnonSub(e)
	case *Range:
		return c.compileRange(e)
	case *EvalString:
		return c.compileEvalString(e)
	case *Match:
		return c.compileMatch(e)
	case *Subst:
		return c.compileSubst(e)
	default:
		panic(fmt.Sprintf("compiler: unhandled expression type %T", n))
	}
}

func (c *Compiler) compileLiteral(lit *Literal) int {
	r := c.alloc.Temp()
	switch lit.Kind {
	case LitUndef:
		c.b.Emit1(bytecode.OpLoadUndef, byte(r))
	case LitInt:
		c.b.Emit3(bytecode.OpLoadConst, byte(r), uint16(c.b.Const(value.NewInt(lit.Int))))
	case LitDouble:
		c.b.Emit3(bytecode.OpLoadConst, byte(r), uint16(c.b.Const(value.NewDouble(lit.Double))))
	case LitStr:
		c.b.Emit3(bytecode.OpLoadConst, byte(r), uint16(c.b.Const(value.NewString(lit.Str, false))))
	}
	return r
}

// compileVarRef resolves a lexical (`my`) variable to its existing
// register directly — no copy, since reading it must observe in-place
// mutations made through that same register elsewhere — and a package
// global through GLOBAL_GET_*.
func (c *Compiler) compileVarRef(v *VarRef) int {
	if v.Sigil == "$" {
		if r, ok := c.alloc.Lookup(v.Name); ok {
			return r
		}
	}
	r := c.alloc.Temp()
	nameIdx := c.constStr(v.Name)
	switch v.Sigil {
	case "$":
		c.b.Emit3(bytecode.OpGlobalGetScalar, byte(r), nameIdx)
	case "@":
		c.b.Emit3(bytecode.OpGlobalGetArray, byte(r), nameIdx)
	case "%":
		c.b.Emit3(bytecode.OpGlobalGetHash, byte(r), nameIdx)
	case "*":
		c.b.Emit3(bytecode.OpGlobalGetGlob, byte(r), nameIdx)
	default:
		panic(fmt.Sprintf("compiler: unhandled sigil %q", v.Sigil))
	}
	return r
}

// compileListExpr evaluates each element in turn; in scalar context a
// Perl list literal's value is its last element, which is what callers
// compiling `(a, b, c)` in scalar position expect from the returned
// register.
func (c *Compiler) compileListExpr(l *ListExpr) int {
	if len(l.Elems) == 0 {
		r := c.alloc.Temp()
		c.b.Emit1(bytecode.OpLoadUndef, byte(r))
		return r
	}
	var last int
	for i, el := range l.Elems {
		r := c.compileExpr(el)
		if i > 0 {
			c.alloc.FreeTemp(last)
		}
		last = r
	}
	return last
}

func (c *Compiler) compileBinary(b *BinaryExpr) int {
	switch b.Op {
	case "&&", "and":
		return c.compileShortCircuit(b, true)
	case "||", "or":
		return c.compileShortCircuit(b, false)
	case "//":
		return c.compileDefinedOr(b)
	case "<=>":
		return c.compileThreeWay(b, bytecode.OpNumGt, bytecode.OpNumLt)
	case "cmp":
		return c.compileThreeWay(b, bytecode.OpStrGt, bytecode.OpStrLt)
	}
	op, ok := binaryOpcode[b.Op]
	if !ok {
		panic(fmt.Sprintf("compiler: unhandled binary operator %q", b.Op))
	}
	if op == bytecode.OpAdd {
		if lit, ok := b.R.(*Literal); ok && lit.Kind == LitInt && lit.Int >= 0 && lit.Int < 1<<16 {
			l := c.compileExpr(b.L)
			d := c.alloc.Temp()
			c.b.EmitAddScalarInt(byte(d), byte(l), uint16(lit.Int))
			c.alloc.FreeTemp(l)
			return d
		}
	}
	l := c.compileExpr(b.L)
	r := c.compileExpr(b.R)
	d := c.alloc.Temp()
	c.b.Emit3Reg(op, byte(d), byte(l), byte(r))
	c.alloc.FreeTemp(l)
	c.alloc.FreeTemp(r)
	return d
}

// compileShortCircuit lowers && / || (and / or): the right-hand side is
// only evaluated when the left doesn't already decide the result,
// matching Perl's short-circuit evaluation (stdlib side effects in the
// unevaluated branch must not run).
func (c *Compiler) compileShortCircuit(b *BinaryExpr, isAnd bool) int {
	d := c.compileExpr(b.L)
	var skip int
	if isAnd {
		skip = c.b.EmitJump(bytecode.OpJumpIfFalse, byte(d), true)
	} else {
		skip = c.b.EmitJump(bytecode.OpJumpIfTrue, byte(d), true)
	}
	r := c.compileExpr(b.R)
	c.b.Emit2(bytecode.OpMove, byte(d), byte(r))
	c.alloc.FreeTemp(r)
	c.b.PatchJumpTarget(skip, uint16(c.b.Pos()))
	return d
}

// compileDefinedOr lowers `//`: the right side evaluates only when the
// left is undef, not merely falsy (Perl's defined-or differs from ||).
func (c *Compiler) compileDefinedOr(b *BinaryExpr) int {
	d := c.compileExpr(b.L)
	definedReg := c.alloc.Temp()
	c.b.Emit2(bytecode.OpDefined, byte(definedReg), byte(d))
	skip := c.b.EmitJump(bytecode.OpJumpIfTrue, byte(definedReg), true)
	c.alloc.FreeTemp(definedReg)
	r := c.compileExpr(b.R)
	c.b.Emit2(bytecode.OpMove, byte(d), byte(r))
	c.alloc.FreeTemp(r)
	c.b.PatchJumpTarget(skip, uint16(c.b.Pos()))
	return d
}

// compileThreeWay lowers <=> and cmp as (a>b)-(a<b) using the existing
// comparison opcodes, since the instruction set has no dedicated 3-way
// compare opcode.
func (c *Compiler) compileThreeWay(b *BinaryExpr, gt, lt bytecode.Opcode) int {
	l := c.compileExpr(b.L)
	r := c.compileExpr(b.R)
	gtReg := c.alloc.Temp()
	ltReg := c.alloc.Temp()
	c.b.Emit3Reg(gt, byte(gtReg), byte(l), byte(r))
	c.b.Emit3Reg(lt, byte(ltReg), byte(l), byte(r))
	d := c.alloc.Temp()
	c.b.Emit3Reg(bytecode.OpSub, byte(d), byte(gtReg), byte(ltReg))
	c.alloc.FreeTemp(l)
	c.alloc.FreeTemp(r)
	c.alloc.FreeTemp(gtReg)
	c.alloc.FreeTemp(ltReg)
	return d
}

func (c *Compiler) compileUnary(u *UnaryExpr) int {
	switch u.Op {
	case "!", "not":
		x := c.compileExpr(u.X)
		d := c.alloc.Temp()
		c.b.Emit2(bytecode.OpNot, byte(d), byte(x))
		c.alloc.FreeTemp(x)
		return d
	case "-":
		x := c.compileExpr(u.X)
		d := c.alloc.Temp()
		c.b.Emit2(bytecode.OpNeg, byte(d), byte(x))
		c.alloc.FreeTemp(x)
		return d
	case "\\":
		x := c.compileExpr(u.X)
		d := c.alloc.Temp()
		c.b.Emit2(bytecode.OpRefScalar, byte(d), byte(x))
		c.alloc.FreeTemp(x)
		return d
	default:
		panic(fmt.Sprintf("compiler: unhandled unary operator %q", u.Op))
	}
}

// compileAssign lowers plain `=`. A lexical scalar target is a direct
// MOVE into its existing register; an Index target becomes an
// autovivifying lvalue fetch followed by a MOVE into that cell; a
// package-global target is a GLOBAL_SET_SCALAR.
func (c *Compiler) compileAssign(a *Assign) int {
	v := c.compileExpr(a.Value)
	switch t := a.Target.(type) {
	case *VarRef:
		if t.Sigil == "$" {
			if r, ok := c.alloc.Lookup(t.Name); ok {
				c.b.Emit2(bytecode.OpMove, byte(r), byte(v))
				return v
			}
			c.b.Emit3(bytecode.OpGlobalSetScalar, byte(v), c.constStr(t.Name))
			return v
		}
		if t.Sigil == "*" {
			c.b.Emit3(bytecode.OpGlobalSetGlob, byte(v), c.constStr(t.Name))
			return v
		}
		panic(fmt.Sprintf("compiler: assignment to sigil %q not supported in scalar position", t.Sigil))
	case *Index:
		lv := c.compileIndexLvalue(t)
		c.b.Emit2(bytecode.OpMove, byte(lv), byte(v))
		c.alloc.FreeTemp(lv)
		return v
	default:
		panic(fmt.Sprintf("compiler: unhandled assignment target %T", a.Target))
	}
}

func (c *Compiler) compileCompoundAssign(a *CompoundAssign) int {
	op, ok := compoundOpcode[a.Op]
	if !ok {
		panic(fmt.Sprintf("compiler: unhandled compound-assignment operator %q=", a.Op))
	}
	var lv int
	switch t := a.Target.(type) {
	case *VarRef:
		if r, ok := c.alloc.Lookup(t.Name); ok {
			lv = r
		} else {
			lv = c.alloc.Temp()
			c.b.Emit3(bytecode.OpGlobalGetScalar, byte(lv), c.constStr(t.Name))
		}
	case *Index:
		lv = c.compileIndexLvalue(t)
	default:
		panic(fmt.Sprintf("compiler: unhandled compound-assignment target %T", a.Target))
	}
	rhs := c.compileExpr(a.Value)
	c.b.Emit2(op, byte(lv), byte(rhs))
	c.alloc.FreeTemp(rhs)
	if vr, ok := a.Target.(*VarRef); ok {
		if _, isLexical := c.alloc.Lookup(vr.Name); !isLexical {
			c.b.Emit3(bytecode.OpGlobalSetScalar, byte(lv), c.constStr(vr.Name))
			c.alloc.FreeTemp(lv)
		}
	}
	return lv
}

func (c *Compiler) compileIndexRead(ix *Index) int {
	container := c.compileExpr(ix.Container)
	key := c.compileExpr(ix.Key)
	d := c.alloc.Temp()
	if ix.IsHash {
		c.b.Emit3Reg(bytecode.OpHashGet, byte(d), byte(container), byte(key))
	} else {
		c.b.Emit3Reg(bytecode.OpArrayGet, byte(d), byte(container), byte(key))
	}
	c.alloc.FreeTemp(container)
	c.alloc.FreeTemp(key)
	return d
}

// compileIndexLvalue fetches an autovivifying reference to a container
// slot, suitable as the destination of a subsequent MOVE/compound-assign
// opcode.
func (c *Compiler) compileIndexLvalue(ix *Index) int {
	container := c.compileExpr(ix.Container)
	key := c.compileExpr(ix.Key)
	d := c.alloc.Temp()
	if ix.IsHash {
		c.b.Emit3Reg(bytecode.OpHashLvalue, byte(d), byte(container), byte(key))
	} else {
		c.b.Emit3Reg(bytecode.OpArrayLvalue, byte(d), byte(container), byte(key))
	}
	c.alloc.FreeTemp(container)
	c.alloc.FreeTemp(key)
	return d
}

func (c *Compiler) compileDeref(d *Deref) int {
	x := c.compileExpr(d.X)
	r := c.alloc.Temp()
	var kindByte byte
	switch d.Kind {
	case "SCALAR":
		kindByte = 0
	case "ARRAY":
		kindByte = 1
	case "HASH":
		kindByte = 2
	case "CODE":
		kindByte = 3
	}
	c.b.Emit3Reg(bytecode.OpDeref, byte(r), byte(x), kindByte)
	c.alloc.FreeTemp(x)
	return r
}

// compileCall lowers a sub call. Arguments are evaluated into a
// contiguous run of fresh temporaries (Perl's flattened @_ convention) so
// CALL's argBase/argCount operand pair can describe them directly.
func (c *Compiler) compileCall(call *Call) int {
	callee := c.compileExpr(call.Callee)
	argBase := -1
	for _, a := range call.Args {
		r := c.compileExpr(a)
		if argBase == -1 {
			argBase = r
		}
	}
	if argBase == -1 {
		argBase = 0
	}
	d := c.alloc.Temp()
	c.b.EmitCall(byte(d), byte(callee), byte(argBase), byte(len(call.Args)))
	c.alloc.FreeTemp(callee)
	return d
}

// compileMethodCall lowers `$obj->method(args)`: resolved via MRO at call
// time (package symtable), so the compiler only needs to pass the
// invocant as an implicit first argument, matching how Perl itself
// desugars method calls.
func (c *Compiler) compileMethodCall(m *MethodCall) int {
	invocant := c.compileExpr(m.Invocant)
	methodNameReg := c.alloc.Temp()
	c.b.Emit3(bytecode.OpLoadConst, byte(methodNameReg), uint16(c.b.Const(value.NewString(m.Method, false))))
	args := make([]int, 0, len(m.Args)+1)
	args = append(args, invocant)
	for _, a := range m.Args {
		args = append(args, c.compileExpr(a))
	}
	d := c.alloc.Temp()
	c.b.EmitCall(byte(d), byte(methodNameReg), byte(invocant), byte(len(args)))
	c.alloc.FreeTemp(methodNameReg)
	return d
}

func (c *Compiler) compileAnonSub(a *AnonSub) int {
	sub := New(c.name+".anon", "")
	body := sub.Compile(&Program{Body: a.Body.Body})
	childIdx := c.b.AddChild(body)
	d := c.alloc.Temp()
	c.b.EmitMakeClosure(byte(d), childIdx, 0, 0)
	return d
}

// compileRange lowers `Lo..Hi` directly to a value pair the interpreter's
// ITERATOR_CREATE recognises as a lazy range rather than a materialised
// list (spec §8 scenario 6). In scalar (flip-flop) context this would
// mean something else entirely, but that operator is out of CORE's scope
// (spec Non-goals).
func (c *Compiler) compileRange(r *Range) int {
	lo := c.compileExpr(r.Lo)
	hi := c.compileExpr(r.Hi)
	d := c.alloc.Temp()
	c.b.Emit3Reg(bytecode.OpMakeRange, byte(d), byte(lo), byte(hi))
	c.alloc.FreeTemp(lo)
	c.alloc.FreeTemp(hi)
	return d
}

func (c *Compiler) compileEvalString(e *EvalString) int {
	src := c.compileExpr(e.Source)
	c.b.Emit0(bytecode.OpSaveRegexState)
	d := c.alloc.Temp()
	c.b.Emit2(bytecode.OpEvalString, byte(d), byte(src))
	c.b.Emit0(bytecode.OpRestoreRegexState)
	c.alloc.FreeTemp(src)
	return d
}

func (c *Compiler) compileMatch(m *Match) int {
	subj := c.compileExpr(m.Subject)
	patIdx := c.constStr(m.Pattern + "\x00" + m.Flags)
	// MATCH reads its context out of the reserved context register
	// instead of an immediate operand (bytecode.OpMatch's own "per
	// context register (reg 2)" contract), so set it immediately before
	// emitting MATCH; nothing else ever targets that register.
	ctxFlag := int64(0)
	if m.ListContext {
		ctxFlag = 1
	}
	c.b.Emit3(bytecode.OpLoadConst, byte(RegContext), uint16(c.b.Const(value.NewInt(ctxFlag))))
	d := c.alloc.Temp()
	c.b.EmitMatch(byte(d), byte(subj), patIdx)
	c.alloc.FreeTemp(subj)
	return d
}

func (c *Compiler) compileSubst(s *Subst) int {
	subj := c.compileExpr(s.Subject)
	patIdx := c.constStr(s.Pattern + "\x00" + s.Flags)
	replIdx := c.constStr(s.Replacement)
	d := c.alloc.Temp()
	c.b.EmitSubst(byte(d), byte(subj), patIdx, replIdx)
	c.alloc.FreeTemp(subj)
	return d
}
