package symtable

import (
	"testing"

	"github.com/jperl-run/jperl/value"
)

func TestGlobLazyCreateAndPermanence(t *testing.T) {
	tbl := New()
	if tbl.Exists("main", "x") {
		t.Fatal("glob should not exist before first reference")
	}
	g1 := tbl.Glob("main", "x")
	if !tbl.Exists("main", "x") {
		t.Fatal("glob should exist after first reference")
	}
	g2 := tbl.Glob("main", "x")
	if g1 != g2 {
		t.Fatal("repeated Glob() calls must return the identical pointer")
	}
}

func TestQualifyDefaultsToMain(t *testing.T) {
	tbl := New()
	a := tbl.Glob("", "x")
	b := tbl.Glob("main", "x")
	if a != b {
		t.Fatal("unqualified name must resolve into main::")
	}
}

func TestAliasSharesGlob(t *testing.T) {
	tbl := New()
	src := tbl.Glob("Foo", "fh")
	src.ScalarSlot().SetInt(7)
	tbl.Alias("Bar", "fh", "Foo", "fh")
	dst := tbl.Glob("Bar", "fh")
	if dst != src {
		t.Fatal("Alias must make dst the identical glob pointer as src")
	}
}

func TestMRODepthFirstLeftToRight(t *testing.T) {
	tbl := New()
	setISA(tbl, "Dog", "Animal")
	setISA(tbl, "Animal", "Base")
	mro := NewMRO(tbl)
	got := mro.Linearize("Dog")
	want := []string{"Dog", "Animal", "Base"}
	if len(got) != len(want) {
		t.Fatalf("Linearize(Dog) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Linearize(Dog) = %v, want %v", got, want)
		}
	}
}

func TestMRODiamondFirstOccurrenceWins(t *testing.T) {
	tbl := New()
	setISA(tbl, "D", "B", "C")
	setISA(tbl, "B", "A")
	setISA(tbl, "C", "A")
	mro := NewMRO(tbl)
	got := mro.Linearize("D")
	want := []string{"D", "B", "A", "C"}
	if len(got) != len(want) {
		t.Fatalf("Linearize(D) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Linearize(D) = %v, want %v", got, want)
		}
	}
}

func TestResolveMethodWalksMRO(t *testing.T) {
	tbl := New()
	setISA(tbl, "Dog", "Animal")
	speak := tbl.Glob("Animal", "speak")
	speak.Code = nil // no Code package yet in this test; simulate with a non-nil marker below
	_ = speak
	// Because we can't easily construct a *container.Code without the
	// bytecode package here, this test only exercises linearization plus
	// the absent-method path.
	mro := NewMRO(tbl)
	if _, ok := mro.ResolveMethod("Dog", "speak"); ok {
		t.Fatal("expected no method found: Code slot was never populated")
	}
}

func setISA(tbl *Table, pkg string, parents ...string) {
	g := tbl.Glob(pkg, "ISA")
	arr := g.ArraySlot()
	for _, p := range parents {
		arr.Push(value.NewString(p, false))
	}
}
