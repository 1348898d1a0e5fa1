package interp

import (
	"testing"

	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/value"
)

// TestDoMatchScalarContextReturnsBoolean covers the unmodified default: a
// plain boolean, regardless of capture groups.
func TestDoMatchScalarContextReturnsBoolean(t *testing.T) {
	ctx := NewContext()
	subject := value.NewString("abc", false)
	result, err := doMatch(ctx, subject, "abc\x00", false)
	if err != nil {
		t.Fatalf("doMatch: %v", err)
	}
	if result.AsInt() != 1 {
		t.Fatalf("result = %v, want truthy", result)
	}
}

// TestDoMatchListContextZeroCaptures covers spec §8 scenario 2: a
// zero-capture-group pattern's successful list-context match is the list
// (1), not the capture list (there are no captures to report).
func TestDoMatchListContextZeroCaptures(t *testing.T) {
	ctx := NewContext()
	subject := value.NewString("abc", false)
	result, err := doMatch(ctx, subject, "abc\x00", true)
	if err != nil {
		t.Fatalf("doMatch: %v", err)
	}
	elems := arrayElems(t, mustArray(t, result))
	if len(elems) != 1 || elems[0].AsInt() != 1 {
		t.Fatalf("elems = %v, want [1]", elems)
	}
}

// TestDoMatchListContextOptionalGroupUndef covers spec §8 scenario 1: an
// empty subject against `(a)?` matches (the group is optional), but group
// 1 never participates, so the capture list holds Undef, not an empty
// string.
func TestDoMatchListContextOptionalGroupUndef(t *testing.T) {
	ctx := NewContext()
	subject := value.NewString("", false)
	result, err := doMatch(ctx, subject, "(a)?\x00", true)
	if err != nil {
		t.Fatalf("doMatch: %v", err)
	}
	elems := arrayElems(t, mustArray(t, result))
	if len(elems) != 1 {
		t.Fatalf("elems = %v, want 1 capture", elems)
	}
	if elems[0].IsDefined() {
		t.Fatalf("capture 1 = %v, want Undef (group did not participate)", elems[0])
	}
}

// TestDoMatchListContextSimpleConditional covers spec §8 scenario 4 end
// to end: the preprocessor's exact conditional lowering plus list-context
// capture return, against both the "yes" and "no" branch.
func TestDoMatchListContextSimpleConditional(t *testing.T) {
	ctx := NewContext()

	yes, err := doMatch(ctx, value.NewString("ab", false), "^(a)?(?(1)b|c)$\x00", true)
	if err != nil {
		t.Fatalf("doMatch(ab): %v", err)
	}
	yesElems := arrayElems(t, mustArray(t, yes))
	if len(yesElems) != 1 || yesElems[0].AsString() != "a" {
		t.Fatalf("yes branch capture = %v, want [\"a\"]", yesElems)
	}

	no, err := doMatch(ctx, value.NewString("c", false), "^(a)?(?(1)b|c)$\x00", true)
	if err != nil {
		t.Fatalf("doMatch(c): %v", err)
	}
	noElems := arrayElems(t, mustArray(t, no))
	if len(noElems) != 1 || noElems[0].IsDefined() {
		t.Fatalf("no branch capture = %v, want [Undef]", noElems)
	}
}

func mustArray(t *testing.T, s *value.Scalar) *container.Array {
	t.Helper()
	ref, err := s.DereferenceAs(value.RefArray)
	if err != nil {
		t.Fatalf("DereferenceAs(RefArray): %v", err)
	}
	arr, ok := ref.(*container.Array)
	if !ok {
		t.Fatalf("referent is %T, want *container.Array", ref)
	}
	return arr
}

func arrayElems(t *testing.T, arr *container.Array) []*value.Scalar {
	t.Helper()
	return arr.Slice()
}
