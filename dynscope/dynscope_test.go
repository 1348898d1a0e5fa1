package dynscope

import (
	"testing"

	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/value"
)

func TestScalarLocalRestoresOnNormalExit(t *testing.T) {
	cell := value.NewInt(10)
	m := New()
	m.EnterScope()
	m.Push(SaveScalar(cell))
	_ = cell.SetInt(99)
	if got := cell.AsInt(); got != 99 {
		t.Fatalf("inside scope, cell = %d", got)
	}
	m.ExitScope()
	if got := cell.AsInt(); got != 10 {
		t.Fatalf("after ExitScope, cell = %d, want 10", got)
	}
}

func TestScalarLocalRestoresOnPanicUnwind(t *testing.T) {
	cell := value.NewInt(10)
	m := New()

	func() {
		defer func() { _ = recover() }()
		m.EnterScope()
		defer m.ExitScope()
		m.Push(SaveScalar(cell))
		_ = cell.SetInt(99)
		panic("simulated die")
	}()
	if got := cell.AsInt(); got != 10 {
		t.Fatalf("after panic unwind, cell = %d, want 10", got)
	}
}

func TestNestedScopesRestoreLIFO(t *testing.T) {
	cell := value.NewInt(1)
	m := New()
	m.EnterScope()
	m.Push(SaveScalar(cell))
	_ = cell.SetInt(2)

	m.EnterScope()
	m.Push(SaveScalar(cell))
	_ = cell.SetInt(3)

	m.ExitScope()
	if got := cell.AsInt(); got != 2 {
		t.Fatalf("after inner ExitScope, cell = %d, want 2", got)
	}
	m.ExitScope()
	if got := cell.AsInt(); got != 1 {
		t.Fatalf("after outer ExitScope, cell = %d, want 1", got)
	}
}

func TestArrayLocalReplacesWholeArray(t *testing.T) {
	g := container.NewGlob("main::arr")
	g.ArraySlot().Push(value.NewInt(1), value.NewInt(2))

	m := New()
	m.EnterScope()
	m.Push(SaveArray(g))
	if g.Array.Len() != 0 {
		t.Fatal("local @arr must start empty inside the dynamic scope")
	}
	g.Array.Push(value.NewInt(99))
	m.ExitScope()
	if g.Array.Len() != 2 {
		t.Fatalf("after ExitScope, len = %d, want 2", g.Array.Len())
	}
}

func TestGlobSlotSaveRestoresAllSlots(t *testing.T) {
	g := container.NewGlob("main::fh")
	other := container.NewGlob("main::other")
	other.ScalarSlot().SetInt(5)

	m := New()
	m.EnterScope()
	m.Push(SaveGlobSlots(g))
	g.Restore(other.Snapshot())
	if g.Scalar.AsInt() != 5 {
		t.Fatal("glob aliasing did not take effect")
	}
	m.ExitScope()
	if g.Scalar != nil && g.Scalar.AsInt() != 0 {
		t.Fatalf("after ExitScope, expected original (nil/empty) scalar slot, got %v", g.Scalar)
	}
}

func TestExitScopeWithoutEnterIsNoop(t *testing.T) {
	m := New()
	m.ExitScope() // must not panic
	if m.Depth() != 0 {
		t.Fatal("Depth should remain 0")
	}
}
