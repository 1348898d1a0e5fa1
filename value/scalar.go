package value

import (
	"math/big"
)

// SpecialKind identifies which computed read-only scalar a
// KindSpecialReadOnly cell represents. The Scalar records only which
// special it is (this kind plus a capture index), never its value, and
// nothing in this package resolves it against regex match state: the
// accessors fall to their default cases (AsString returns "", AsInt 0).
type SpecialKind uint8

const (
	SpecialCapture  SpecialKind = iota // $1, $2, ... ($n via SpecialIndex)
	SpecialMatch                       // $&
	SpecialPreMatch                    // $`
	SpecialPostMatch
)

// Scalar is the polymorphic runtime value. Exactly one Kind is populated at
// a time; accessors on the "wrong" kind apply the documented coercion
// rather than panicking — mirrors nfa.State's single-kind-with-typed-
// accessors shape, where ByteRange()/Split()/Epsilon() each return a zero
// value when called on a State of a different Kind.
type Scalar struct {
	kind Kind

	i    int64    // KindIntSmall
	big  *big.Int // KindIntBig
	f    float64  // KindDouble
	s    string   // KindStr
	uni  bool     // KindStr: Unicode flag
	ref  Referent // KindRef target
	bless string  // KindRef: bless package, "" if unblessed

	special      SpecialKind // KindSpecialReadOnly
	specialIndex int         // KindSpecialReadOnly: capture group number for SpecialCapture

	readOnly bool
}

// Undef returns the shared, read-only Undef singleton. It must never be
// used at an lvalue site — use NewUndef for a fresh, mutable cell (see
// readonly.go).
func Undef() *Scalar { return &scalarUndef }

// NewUndef allocates a fresh, mutable Undef cell. Required at any lvalue
// site — notably any expression positioned as an lvalue, and the result of
// () in such a position (spec §4.1, §9 open question #3).
func NewUndef() *Scalar { return &Scalar{kind: KindUndef} }

// NewInt returns a Scalar holding an integer, promoting to IntBig only if
// the caller explicitly constructs one via NewBigInt — NewInt never
// promotes on its own since int64 cannot overflow int64.
func NewInt(i int64) *Scalar { return &Scalar{kind: KindIntSmall, i: i} }

// NewBigInt returns a Scalar holding an arbitrary-precision integer.
func NewBigInt(b *big.Int) *Scalar { return &Scalar{kind: KindIntBig, big: new(big.Int).Set(b)} }

// NewDouble returns a Scalar holding an IEEE-754 double.
func NewDouble(f float64) *Scalar { return &Scalar{kind: KindDouble, f: f} }

// NewString returns a Scalar holding a string with the given Unicode flag.
func NewString(s string, unicode bool) *Scalar {
	return &Scalar{kind: KindStr, s: s, uni: unicode}
}

// NewRef returns an owning reference to target, unblessed.
func NewRef(target Referent) *Scalar {
	return &Scalar{kind: KindRef, ref: target}
}

// NewBlessedRef returns an owning reference to target, bless-tagged with
// pkg.
func NewBlessedRef(target Referent, pkg string) *Scalar {
	return &Scalar{kind: KindRef, ref: target, bless: pkg}
}

// NewSpecial returns one of the computed read-only special scalars
// ($1..$n via (SpecialCapture, n), $& via SpecialMatch, ...).
func NewSpecial(kind SpecialKind, index int) *Scalar {
	return &Scalar{kind: KindSpecialReadOnly, special: kind, specialIndex: index, readOnly: true}
}

// Kind reports the Scalar's current variant.
func (s *Scalar) Kind() Kind { return s.kind }

// IsReadOnly reports whether mutating operations on s must fail with
// ErrReadOnly.
func (s *Scalar) IsReadOnly() bool { return s.readOnly }

// IsDefined reports whether s holds a value other than Undef.
func (s *Scalar) IsDefined() bool { return s.kind != KindUndef }

// IsRef reports whether s is a KindRef.
func (s *Scalar) IsRef() bool { return s.kind == KindRef }

// IsUnicode reports the Unicode flag of a KindStr scalar (false for any
// other kind).
func (s *Scalar) IsUnicode() bool { return s.kind == KindStr && s.uni }

// Bless tags a KindRef scalar with a package name. No-op on non-refs.
func (s *Scalar) Bless(pkg string) {
	if s.kind == KindRef {
		s.bless = pkg
	}
}

// BlessPackage returns the bless tag of a KindRef scalar, "" if unblessed
// or not a ref.
func (s *Scalar) BlessPackage() string {
	if s.kind == KindRef {
		return s.bless
	}
	return ""
}

// RefTarget returns the referent of a KindRef scalar, or nil.
func (s *Scalar) RefTarget() Referent {
	if s.kind == KindRef {
		return s.ref
	}
	return nil
}

// DereferenceAs returns s's ref target if it matches kind, and a TypeError
// otherwise (including when s is not a ref at all).
func (s *Scalar) DereferenceAs(kind RefKind) (Referent, error) {
	if s.kind != KindRef || s.ref == nil {
		return nil, CantUseAsRef(kind, s.kind)
	}
	if s.ref.RefKind() != kind {
		if kind == RefCode {
			return nil, NotACodeRef(s.kind)
		}
		return nil, CantUseAsRef(kind, s.kind)
	}
	return s.ref, nil
}

// SetFrom copies other's value into s in place, preserving s's identity
// (pointer). The result is always writable: other's read-only flag is not
// copied.
// Round-trips per spec §8: SetFrom(copy_of(s)) == s for all non-read-only
// s.
func (s *Scalar) SetFrom(other *Scalar) error {
	if s.readOnly {
		return NewReadOnlyError("")
	}
	*s = Scalar{
		kind:         other.kind,
		i:            other.i,
		f:            other.f,
		s:            other.s,
		uni:          other.uni,
		ref:          other.ref,
		bless:        other.bless,
		special:      other.special,
		specialIndex: other.specialIndex,
	}
	if other.big != nil {
		s.big = new(big.Int).Set(other.big)
	} else {
		s.big = nil
	}
	return nil
}

// SetInt sets s to an IntSmall value.
func (s *Scalar) SetInt(i int64) error {
	if s.readOnly {
		return NewReadOnlyError("")
	}
	*s = Scalar{kind: KindIntSmall, i: i}
	return nil
}

// SetString sets s to a string value with the given Unicode flag.
func (s *Scalar) SetString(str string, unicode bool) error {
	if s.readOnly {
		return NewReadOnlyError("")
	}
	*s = Scalar{kind: KindStr, s: str, uni: unicode}
	return nil
}

// SetRef sets s to an (unblessed) reference to target.
func (s *Scalar) SetRef(target Referent) error {
	if s.readOnly {
		return NewReadOnlyError("")
	}
	*s = Scalar{kind: KindRef, ref: target}
	return nil
}

// Clone returns a fresh, mutable, deep-enough copy of s (references are
// shared, not deep-copied, matching Perl reference-counting semantics).
func (s *Scalar) Clone() *Scalar {
	c := &Scalar{}
	_ = c.SetFrom(s)
	return c
}
