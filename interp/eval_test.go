package interp

import (
	"testing"

	"github.com/jperl-run/jperl/compiler"
)

func intLit(n int64) *compiler.Literal { return &compiler.Literal{Kind: compiler.LitInt, Int: n} }

// TestEvalReturnsExplicitReturnValue exercises the plain top-level-program
// path: Eval compiles the Program with a fresh Compiler and returns
// whatever the program's own `return` hands back, with nothing left
// pending in ctx.Ctrl.
func TestEvalReturnsExplicitReturnValue(t *testing.T) {
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.My{Names: []string{"x"}, Value: intLit(41)},
		&compiler.Return{Value: &compiler.BinaryExpr{
			Op: "+",
			L:  &compiler.VarRef{Sigil: "$", Name: "x"},
			R:  intLit(1),
		}},
	}}

	ctx := NewContext()
	result, err := Eval(ctx, prog, "main", "t.pl")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := result.AsInt(); got != 42 {
		t.Fatalf("result = %d, want 42", got)
	}
	if ctx.Ctrl.IsPending() {
		t.Fatal("Ctrl must be empty after a clean top-level return")
	}
}

// TestEvalBareLastErrorsOutsideLoop covers spec §5.2: a `last` with no
// enclosing loop anywhere in the compiled unit leaves its marker pending
// all the way out of Invoke, and Eval (the outermost entry point) is the
// one call site that turns that into an error instead of leaving it
// pending forever.
func TestEvalBareLastErrorsOutsideLoop(t *testing.T) {
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.Last{},
	}}

	ctx := NewContext()
	_, err := Eval(ctx, prog, "main", "t.pl")
	if err == nil {
		t.Fatal("expected an error for last outside a loop block")
	}
	if got := err.Error(); got != `Can't "last" outside a loop block` {
		t.Fatalf("err = %q", got)
	}
	if ctx.Ctrl.IsPending() {
		t.Fatal("Eval must clear the marker it turned into an error")
	}
}

// TestEvalStringWithNoFrontEndWired covers the explicit no-front-end-wired
// boundary (compiler.ParseProgram left nil): EvalString must report
// compiler.ErrNoFrontEnd rather than panic on a nil function call.
func TestEvalStringWithNoFrontEndWired(t *testing.T) {
	saved := compiler.ParseProgram
	compiler.ParseProgram = nil
	defer func() { compiler.ParseProgram = saved }()

	_, err := EvalString("1+1")
	if err == nil {
		t.Fatal("expected an error with no front end wired")
	}
	var ce *compiler.CompileError
	if !asCompileError(err, &ce) {
		t.Fatalf("err = %v, want *compiler.CompileError", err)
	}
	if ce.Err != compiler.ErrNoFrontEnd {
		t.Fatalf("ce.Err = %v, want compiler.ErrNoFrontEnd", ce.Err)
	}
}

func asCompileError(err error, target **compiler.CompileError) bool {
	ce, ok := err.(*compiler.CompileError)
	if !ok {
		return false
	}
	*target = ce
	return true
}
