package value

import (
	"math"
	"math/big"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	tests := []*Scalar{
		NewInt(42),
		NewDouble(3.25),
		NewString("hello", true),
		NewString("bytes", false),
		NewBigInt(big.NewInt(math.MaxInt64)),
	}
	for _, s := range tests {
		dst := NewUndef()
		if err := dst.SetFrom(s); err != nil {
			t.Fatalf("SetFrom: %v", err)
		}
		if dst.AsString() != s.AsString() {
			t.Errorf("round trip mismatch: got %q want %q", dst.AsString(), s.AsString())
		}
	}
}

func TestBooleanTruth(t *testing.T) {
	falsy := []*Scalar{
		Undef(),
		NewInt(0),
		NewDouble(0),
		NewDouble(math.Copysign(0, -1)),
		NewString("", true),
		NewString("0", false),
	}
	for _, s := range falsy {
		if s.AsBool() {
			t.Errorf("expected false for %v (%s)", s.Kind(), s.AsString())
		}
	}
	truthy := []*Scalar{
		NewString("00", false),
		NewString("0.0", false),
		NewInt(1),
		NewInt(-1),
	}
	for _, s := range truthy {
		if !s.AsBool() {
			t.Errorf("expected true for %v (%q)", s.Kind(), s.AsString())
		}
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	n := int64(math.MaxInt64)
	s := NewInt(n)
	if got := s.AsBigInt().Int64(); got != n {
		t.Fatalf("AsBigInt: got %d want %d", got, n)
	}

	overflowed := Add(NewInt(math.MaxInt64), NewInt(1))
	if overflowed.Kind() != KindIntBig {
		t.Fatalf("expected overflow to promote to IntBig, got %v", overflowed.Kind())
	}
	want := new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(1))
	if overflowed.AsBigInt().Cmp(want) != 0 {
		t.Fatalf("overflow value mismatch: got %s want %s", overflowed.AsBigInt(), want)
	}
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	u := Undef()
	if err := u.SetInt(1); err == nil {
		t.Fatal("expected ReadOnly error writing to shared Undef")
	}
	small := CachedInt(5)
	if err := small.SetInt(9); err == nil {
		t.Fatal("expected ReadOnly error writing to cached small int")
	}
	// Values outside the cache range are fresh and mutable.
	big := CachedInt(10_000)
	if err := big.SetInt(1); err != nil {
		t.Fatalf("expected fresh int to be mutable: %v", err)
	}
}

func TestNumericStringCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"  42abc", 42},
		{"-7", -7},
		{"abc", 0},
		{"", 0},
	}
	for _, c := range cases {
		s := NewString(c.in, false)
		if got := s.AsInt(); got != c.want {
			t.Errorf("AsInt(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPromotionLatticeDouble(t *testing.T) {
	r := Add(NewDouble(1.5), NewInt(1))
	if r.Kind() != KindDouble {
		t.Fatalf("expected Double, got %v", r.Kind())
	}
}

func TestDivModFloorSemantics(t *testing.T) {
	r, err := IntDivMod(NewInt(-7), NewInt(3))
	if err != nil {
		t.Fatal(err)
	}
	if r.AsInt() != 2 {
		t.Fatalf("-7 %% 3 = %d, want 2 (floored, sign of RHS)", r.AsInt())
	}
}

func TestPackUnpackQRoundTrip(t *testing.T) {
	x := NewInt(math.MaxInt64)
	packed, err := Pack("Q", []*Scalar{x})
	if err != nil {
		t.Fatal(err)
	}
	unpacked, err := Unpack("Q", packed)
	if err != nil {
		t.Fatal(err)
	}
	if len(unpacked) != 1 || unpacked[0].AsBigInt().Cmp(x.AsBigInt()) != 0 {
		t.Fatalf("pack/unpack Q round trip failed: got %v", unpacked)
	}
}
