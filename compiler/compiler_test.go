package compiler_test

import (
	"testing"

	"github.com/jperl-run/jperl/compiler"
	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/interp"
	"github.com/jperl-run/jperl/value"
)

// run compiles prog as a fresh top-level unit and invokes it, the same
// path cmd/jperl will eventually drive (compiler.New -> Compile -> Invoke).
func run(t *testing.T, prog *compiler.Program) int64 {
	t.Helper()
	body := compiler.New("main", "t.pl").Compile(prog)
	ctx := interp.NewContext()
	result, err := interp.Invoke(ctx, container.NewCode(body), nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	return result.AsInt()
}

func intLit(n int64) *compiler.Literal { return &compiler.Literal{Kind: compiler.LitInt, Int: n} }

// TestWhileLastBailsEarly checks that an unlabelled `last` inside a `while`
// loop resolves to a same-unit direct jump (compiler.findLoop/emitBreak)
// rather than requiring the runtime marker registry at all.
func TestWhileLastBailsEarly(t *testing.T) {
	// my $i = 0; my $acc = 0;
	// while ($i < 10) { $i = $i + 1; if ($i > 3) { last; } $acc = $acc + $i; }
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.My{Names: []string{"i"}, Value: intLit(0)},
		&compiler.My{Names: []string{"acc"}, Value: intLit(0)},
		&compiler.While{
			Cond: &compiler.BinaryExpr{Op: "<", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(10)},
			Body: &compiler.Block{Body: []compiler.Node{
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "i"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(1)},
				}},
				&compiler.If{
					Cond: &compiler.BinaryExpr{Op: ">", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(3)},
					Then: &compiler.Block{Body: []compiler.Node{&compiler.Last{}}},
				},
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "acc"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "acc"}, R: &compiler.VarRef{Sigil: "$", Name: "i"}},
				}},
			}},
		},
		&compiler.Return{Value: &compiler.VarRef{Sigil: "$", Name: "acc"}},
	}}
	if got := run(t, prog); got != 6 {
		t.Fatalf("acc = %d, want 6 (1+2+3, then last on seeing 4)", got)
	}
}

// TestCForNextSkipsEvens checks `next` against a C-style for, whose
// nextTarget (the post-expression) is only known after the body compiles
// (loopFrame.nextKnown / patchNext's deferred-jump path).
func TestCForNextSkipsEvens(t *testing.T) {
	// my $acc = 0; my $i;
	// for ($i = 1; $i <= 5; $i = $i + 1) {
	//   if ($i == 2 || $i == 4) { next; }
	//   $acc = $acc + $i;
	// }
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.My{Names: []string{"acc"}, Value: intLit(0)},
		&compiler.My{Names: []string{"i"}},
		&compiler.CFor{
			Init: &compiler.Assign{Target: &compiler.VarRef{Sigil: "$", Name: "i"}, Value: intLit(1)},
			Cond: &compiler.BinaryExpr{Op: "<=", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(5)},
			Post: &compiler.Assign{
				Target: &compiler.VarRef{Sigil: "$", Name: "i"},
				Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(1)},
			},
			Body: &compiler.Block{Body: []compiler.Node{
				&compiler.If{
					Cond: &compiler.BinaryExpr{
						Op: "||",
						L:  &compiler.BinaryExpr{Op: "==", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(2)},
						R:  &compiler.BinaryExpr{Op: "==", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(4)},
					},
					Then: &compiler.Block{Body: []compiler.Node{&compiler.Next{}}},
				},
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "acc"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "acc"}, R: &compiler.VarRef{Sigil: "$", Name: "i"}},
				}},
			}},
		},
		&compiler.Return{Value: &compiler.VarRef{Sigil: "$", Name: "acc"}},
	}}
	if got := run(t, prog); got != 9 {
		t.Fatalf("acc = %d, want 9 (1+3+5, skipping 2 and 4 via next)", got)
	}
}

// TestLabeledLastTargetsOuterLoop checks that a labelled `last OUTER` inside
// a nested loop resolves (via findLoop's label search) to the outer frame
// rather than the lexically nearer inner one.
func TestLabeledLastTargetsOuterLoop(t *testing.T) {
	// my $acc = 0; my $i; my $j;
	// OUTER: for ($i = 1; $i <= 3; $i = $i + 1) {
	//   for ($j = 1; $j <= 3; $j = $j + 1) {
	//     if ($j == 2) { last OUTER; }
	//     $acc = $acc + 1;
	//   }
	// }
	inner := &compiler.CFor{
		Init: &compiler.Assign{Target: &compiler.VarRef{Sigil: "$", Name: "j"}, Value: intLit(1)},
		Cond: &compiler.BinaryExpr{Op: "<=", L: &compiler.VarRef{Sigil: "$", Name: "j"}, R: intLit(3)},
		Post: &compiler.Assign{
			Target: &compiler.VarRef{Sigil: "$", Name: "j"},
			Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "j"}, R: intLit(1)},
		},
		Body: &compiler.Block{Body: []compiler.Node{
			&compiler.If{
				Cond: &compiler.BinaryExpr{Op: "==", L: &compiler.VarRef{Sigil: "$", Name: "j"}, R: intLit(2)},
				Then: &compiler.Block{Body: []compiler.Node{&compiler.Last{Label: "OUTER"}}},
			},
			&compiler.ExprStmt{X: &compiler.Assign{
				Target: &compiler.VarRef{Sigil: "$", Name: "acc"},
				Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "acc"}, R: intLit(1)},
			}},
		}},
	}
	outer := &compiler.Labeled{Label: "OUTER", Stmt: &compiler.CFor{
		Init: &compiler.Assign{Target: &compiler.VarRef{Sigil: "$", Name: "i"}, Value: intLit(1)},
		Cond: &compiler.BinaryExpr{Op: "<=", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(3)},
		Post: &compiler.Assign{
			Target: &compiler.VarRef{Sigil: "$", Name: "i"},
			Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(1)},
		},
		Label: "OUTER",
		Body:  &compiler.Block{Body: []compiler.Node{inner}},
	}}
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.My{Names: []string{"acc"}, Value: intLit(0)},
		&compiler.My{Names: []string{"i"}},
		&compiler.My{Names: []string{"j"}},
		outer,
		&compiler.Return{Value: &compiler.VarRef{Sigil: "$", Name: "acc"}},
	}}
	if got := run(t, prog); got != 1 {
		t.Fatalf("acc = %d, want 1 (first outer iteration: inner runs once with j=1, then last OUTER on j=2)", got)
	}
}

// TestLastEscapesEvalBlock exercises the cross-unit path (spec §8 scenario
// 7): `last` compiled inside an `eval { }` body has no loop of its own
// (compileEvalBlock compiles it with a fresh, empty Compiler.loops), so it
// must fall back to OpSetMarkerLast+OpReturn and bubble out through
// OP_CALL_EVAL's trailing emitCrossFrameProbes to reach the enclosing
// while loop compiled in THIS unit.
func TestLastEscapesEvalBlock(t *testing.T) {
	// my $acc = 0; my $i = 0;
	// while ($i < 10) {
	//   $i = $i + 1;
	//   eval { if ($i > 3) { last; } };
	//   $acc = $acc + $i;
	// }
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.My{Names: []string{"acc"}, Value: intLit(0)},
		&compiler.My{Names: []string{"i"}, Value: intLit(0)},
		&compiler.While{
			Cond: &compiler.BinaryExpr{Op: "<", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(10)},
			Body: &compiler.Block{Body: []compiler.Node{
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "i"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(1)},
				}},
				&compiler.ExprStmt{X: &compiler.EvalBlock{Body: &compiler.Block{Body: []compiler.Node{
					&compiler.If{
						Cond: &compiler.BinaryExpr{Op: ">", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(3)},
						Then: &compiler.Block{Body: []compiler.Node{&compiler.Last{}}},
					},
				}}}},
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "acc"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "acc"}, R: &compiler.VarRef{Sigil: "$", Name: "i"}},
				}},
			}},
		},
		&compiler.Return{Value: &compiler.VarRef{Sigil: "$", Name: "acc"}},
	}}
	if got := run(t, prog); got != 6 {
		t.Fatalf("acc = %d, want 6 (1+2+3, then last from inside eval{} on seeing 4)", got)
	}
}

// TestRedoReexecutesBodyWithoutRetestingCond exercises `redo`: the body
// reruns from redoTarget without re-evaluating the while condition, so the
// rerun's own `$i = $i + 1` carries $i to the loop bound before the
// condition is next tested: a single redo (guarded to fire only once via a
// flag) still yields three body executions in all, as traced below.
func TestRedoReexecutesBodyWithoutRetestingCond(t *testing.T) {
	// my $i = 0; my $acc = 0; my $redone = 0;
	// while ($i < 3) {
	//   $i = $i + 1;
	//   $acc = $acc + 1;
	//   if ($i == 2 && $redone == 0) { $redone = 1; redo; }
	// }
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.My{Names: []string{"i"}, Value: intLit(0)},
		&compiler.My{Names: []string{"acc"}, Value: intLit(0)},
		&compiler.My{Names: []string{"redone"}, Value: intLit(0)},
		&compiler.While{
			Cond: &compiler.BinaryExpr{Op: "<", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(3)},
			Body: &compiler.Block{Body: []compiler.Node{
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "i"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(1)},
				}},
				&compiler.ExprStmt{X: &compiler.Assign{
					Target: &compiler.VarRef{Sigil: "$", Name: "acc"},
					Value:  &compiler.BinaryExpr{Op: "+", L: &compiler.VarRef{Sigil: "$", Name: "acc"}, R: intLit(1)},
				}},
				&compiler.If{
					Cond: &compiler.BinaryExpr{
						Op: "&&",
						L:  &compiler.BinaryExpr{Op: "==", L: &compiler.VarRef{Sigil: "$", Name: "i"}, R: intLit(2)},
						R:  &compiler.BinaryExpr{Op: "==", L: &compiler.VarRef{Sigil: "$", Name: "redone"}, R: intLit(0)},
					},
					Then: &compiler.Block{Body: []compiler.Node{
						&compiler.ExprStmt{X: &compiler.Assign{Target: &compiler.VarRef{Sigil: "$", Name: "redone"}, Value: intLit(1)}},
						&compiler.Redo{},
					}},
				},
			}},
		},
		&compiler.Return{Value: &compiler.VarRef{Sigil: "$", Name: "acc"}},
	}}
	// Body runs: i=1 (acc=1); i=2, redone=0 so redo fires and jumps straight
	// to the body's start WITHOUT retesting the while condition, so the very
	// next statement executed is "i = i+1" again, landing on i=3 (acc=2,
	// becomes acc=3); i==2 is now false so no second redo. The condition is
	// only retested after that, sees 3<3 false, and exits. Three body
	// executions total, not four — redo skips the condition check entirely,
	// it does not simply repeat an iteration.
	if got := run(t, prog); got != 3 {
		t.Fatalf("acc = %d, want 3 (redo jumped straight to the body's start, skipping the condition retest)", got)
	}
}

// TestMatchListContextReturnsCaptureList checks that compileMatch's
// context-register set actually reaches interp.doMatch: a *Match with
// ListContext true returns a capture list (an ARRAY ref), not the plain
// scalar boolean a ListContext-false match returns.
func TestMatchListContextReturnsCaptureList(t *testing.T) {
	// "abc" =~ /a(b)c/ in list context: return (1 capture) = ("b").
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.Return{Value: &compiler.Match{
			Subject:     &compiler.Literal{Kind: compiler.LitStr, Str: "abc"},
			Pattern:     "a(b)c",
			ListContext: true,
		}},
	}}
	body := compiler.New("main", "t.pl").Compile(prog)
	ctx := interp.NewContext()
	result, err := interp.Invoke(ctx, container.NewCode(body), nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	ref, err := result.DereferenceAs(value.RefArray)
	if err != nil {
		t.Fatalf("DereferenceAs(RefArray): %v", err)
	}
	arr, ok := ref.(*container.Array)
	if !ok {
		t.Fatalf("referent is %T, want *container.Array", ref)
	}
	if arr.Len() != 1 || arr.Get(0).AsString() != "b" {
		t.Fatalf("capture list = %v, want [\"b\"]", arr)
	}
}

// TestMatchScalarContextReturnsBoolean checks the ListContext-false
// default still produces the plain boolean, not a capture list.
func TestMatchScalarContextReturnsBoolean(t *testing.T) {
	prog := &compiler.Program{Body: []compiler.Node{
		&compiler.Return{Value: &compiler.Match{
			Subject: &compiler.Literal{Kind: compiler.LitStr, Str: "abc"},
			Pattern: "a(b)c",
		}},
	}}
	if got := run(t, prog); got != 1 {
		t.Fatalf("result = %d, want 1 (truthy scalar match)", got)
	}
}
