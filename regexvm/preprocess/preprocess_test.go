package preprocess

import "testing"

func TestBranchResetFlattened(t *testing.T) {
	out, meta, err := Preprocess(`(?|(a)|(b))`, Flags{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !meta.HadBranchReset {
		t.Fatal("expected HadBranchReset = true")
	}
	if out != `(?:(a)|(b))` {
		t.Fatalf("got %q", out)
	}
}

// TestSimpleConditionalLoweredByDefault covers spec §8 scenario 4: the
// simple-optional-group conditional has an exact, lossless lowering, so it
// must be rewritten in DEFAULT mode too, not just under
// JPERL_UNIMPLEMENTED=warn.
func TestSimpleConditionalLoweredByDefault(t *testing.T) {
	out, meta, err := Preprocess(`^(a)?(?(1)b|c)$`, Flags{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `^(?:(a)b|c)$` {
		t.Fatalf("got %q", out)
	}
	if len(meta.Warnings) != 0 {
		t.Fatalf("exact lowering should not warn, got %v", meta.Warnings)
	}
}

// TestSimpleConditionalLoweredRegardlessOfWarnOnly checks that warnOnly
// doesn't change the simple lowering's output — the approximation path is
// only for conditionals that don't qualify for the exact rewrite.
func TestSimpleConditionalLoweredRegardlessOfWarnOnly(t *testing.T) {
	out, _, err := Preprocess(`^(a)?(?(1)b|c)$`, Flags{}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `^(?:(a)b|c)$` {
		t.Fatalf("got %q", out)
	}
}

// TestNonOptionalConditionalUnimplementedByDefault covers a conditional
// whose referenced group is NOT a directly-optional preceding capture
// (`(a)` here has no trailing `?`) — it fails §4.3.5 condition (a), so it
// has no exact lowering and must raise UnimplementedError by default.
func TestNonOptionalConditionalUnimplementedByDefault(t *testing.T) {
	_, _, err := Preprocess(`(a)(?(1)b|c)`, Flags{}, false)
	if err == nil {
		t.Fatal("expected UnimplementedError")
	}
	if _, ok := err.(*UnimplementedError); !ok {
		t.Fatalf("expected *UnimplementedError, got %T: %v", err, err)
	}
}

func TestNonOptionalConditionalApproximatedInWarnMode(t *testing.T) {
	out, meta, err := Preprocess(`(a)(?(1)b|c)`, Flags{}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `(a)(?:b|c)` {
		t.Fatalf("got %q", out)
	}
	if len(meta.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", meta.Warnings)
	}
}

func TestCaptureCounting(t *testing.T) {
	_, meta, err := Preprocess(`(\d{4})-(\d{2})-(\d{2})`, Flags{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.NumCaptures != 3 {
		t.Fatalf("NumCaptures = %d, want 3", meta.NumCaptures)
	}
}

func TestNamedCaptures(t *testing.T) {
	_, meta, err := Preprocess(`(?P<year>\d{4})-(?P<month>\d{2})`, Flags{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.CaptureNames["year"] != 1 || meta.CaptureNames["month"] != 2 {
		t.Fatalf("CaptureNames = %v", meta.CaptureNames)
	}
}

func TestExtendedModeStripsWhitespaceAndComments(t *testing.T) {
	_, meta, err := Preprocess("(\\d{4})  # year\n-(\\d{2}) # month", Flags{Extended: true}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.NumCaptures != 2 {
		t.Fatalf("NumCaptures = %d, want 2", meta.NumCaptures)
	}
}

func TestCaseInsensitiveFlagAccepted(t *testing.T) {
	if _, _, err := Preprocess(`ABC`, Flags{CaseInsensitive: true}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestNamedCodepointEscapeRewritten covers spec §4.3.1's `\N{U+...}`:
// regexp/syntax rejects it outright, so it must become `\x{...}` before
// the pattern ever reaches syntax.Parse.
func TestNamedCodepointEscapeRewritten(t *testing.T) {
	out, _, err := Preprocess(`caf\N{U+00E9}`, Flags{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `caf\x{00E9}` {
		t.Fatalf("got %q", out)
	}
}
