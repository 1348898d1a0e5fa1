package bytecode

import (
	"testing"

	"github.com/jperl-run/jperl/value"
)

func TestEmitAndPatchJump(t *testing.T) {
	b := NewBuilder("main", "t.pl")
	jpc := b.EmitJump(OpJump, 0, false)
	b.Emit0(OpNop)
	target := b.Pos()
	b.PatchJumpTarget(jpc, uint16(target))

	code := b.Finish(nil)
	if Opcode(code.Instructions[jpc]) != OpJump {
		t.Fatalf("expected OpJump at %d", jpc)
	}
	got := int(code.Instructions[jpc+1])<<8 | int(code.Instructions[jpc+2])
	if got != target {
		t.Fatalf("patched target = %d, want %d", got, target)
	}
}

func TestConstDeduplicates(t *testing.T) {
	b := NewBuilder("main", "t.pl")
	idx1 := b.Const(value.NewInt(5))
	idx2 := b.Const(value.NewInt(5))
	if idx1 != idx2 {
		t.Fatalf("expected identical constants to dedup: %d != %d", idx1, idx2)
	}
	idx3 := b.Const(value.NewInt(6))
	if idx3 == idx1 {
		t.Fatal("expected distinct constants to get distinct indices")
	}
}

func TestEveryOpcodeHasMnemonic(t *testing.T) {
	for op := Opcode(0); op < opcodeCount; op++ {
		if op.String() == "" {
			t.Fatalf("opcode %d has empty mnemonic", op)
		}
	}
}

func TestLineForBinarySearch(t *testing.T) {
	c := &InterpretedCode{Lines: []LineEntry{{PC: 0, Line: 1}, {PC: 10, Line: 2}, {PC: 25, Line: 5}}}
	cases := map[int]int{0: 1, 5: 1, 10: 2, 24: 2, 25: 5, 100: 5}
	for pc, want := range cases {
		if got := c.LineFor(pc); got != want {
			t.Fatalf("LineFor(%d) = %d, want %d", pc, got, want)
		}
	}
}
