package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jperl-run/jperl/value"
)

func TestDisassembleCoversEveryInstruction(t *testing.T) {
	b := NewBuilder("main", "t.pl")
	k := b.Const(value.NewInt(7))
	b.Emit3(OpLoadConst, 3, uint16(k))
	b.Emit1(OpReturn, 3)
	code := b.Finish(nil)

	var buf bytes.Buffer
	Disassemble(&buf, code)
	out := buf.String()

	if !strings.Contains(out, "LOAD_CONST") {
		t.Fatalf("expected LOAD_CONST in output, got:\n%s", out)
	}
	if !strings.Contains(out, "RETURN") {
		t.Fatalf("expected RETURN in output, got:\n%s", out)
	}
	if !strings.Contains(out, "main") {
		t.Fatalf("expected code name in output, got:\n%s", out)
	}
}

func TestDisassembleRecursesIntoChildren(t *testing.T) {
	childBuilder := NewBuilder("inner_sub", "t.pl")
	childBuilder.Emit0(OpNop)
	child := childBuilder.Finish(nil)

	b := NewBuilder("main", "t.pl")
	b.AddChild(child)
	b.Emit0(OpNop)
	code := b.Finish(nil)

	var buf bytes.Buffer
	Disassemble(&buf, code)
	out := buf.String()

	if !strings.Contains(out, "inner_sub") {
		t.Fatalf("expected child code name in output, got:\n%s", out)
	}
}
