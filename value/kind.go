// Package value implements the polymorphic runtime scalar (the SV-equivalent
// of a Perl value) at the core of the interpreter: integer, big-integer,
// double, string, reference, code, glob, and read-only sentinel variants,
// plus the numeric/string coercion and overload-dispatch rules that make
// them interchangeable the way Perl scalars are.
package value

import "fmt"

// Kind identifies which variant of the Scalar tagged union is currently
// populated. A Scalar presents exactly one Kind at a time, but may be read
// through any accessor — each applies the coercion documented on that
// accessor rather than panicking on a mismatched Kind.
type Kind uint8

const (
	// KindUndef is the absence of a value.
	KindUndef Kind = iota

	// KindIntSmall fits in a platform int64.
	KindIntSmall

	// KindIntBig holds an arbitrary-precision integer, used once a
	// computation or literal overflows IntSmall or would lose precision
	// stored as Double. Promotion to IntBig is automatic; demotion is
	// never required.
	KindIntBig

	// KindDouble is an IEEE-754 double.
	KindDouble

	// KindStr is a textual string, carrying a separate Unicode flag
	// (see Scalar.IsUnicode) that affects length, indexing, and
	// comparison.
	KindStr

	// KindRef is an owning reference to a container, possibly
	// bless-tagged with a package name.
	KindRef

	// KindGlob is a typeglob holding named SCALAR/ARRAY/HASH/CODE/IO
	// slots.
	KindGlob

	// KindCode is a compiled callable.
	KindCode

	// KindSpecialReadOnly is one of the singleton scalars ($1..$n, $&,
	// ...) that stand for regex match state (see SpecialKind) and whose
	// writes are always rejected.
	KindSpecialReadOnly
)

// String returns a human-readable name for the Kind, used in error
// messages ("Can't use value as a HASH reference" and friends).
func (k Kind) String() string {
	switch k {
	case KindUndef:
		return "UNDEF"
	case KindIntSmall:
		return "INT"
	case KindIntBig:
		return "BIGINT"
	case KindDouble:
		return "DOUBLE"
	case KindStr:
		return "STRING"
	case KindRef:
		return "REF"
	case KindGlob:
		return "GLOB"
	case KindCode:
		return "CODE"
	case KindSpecialReadOnly:
		return "SPECIAL"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// RefKind identifies what a Ref points at, mirroring the dereference
// kinds accepted by Scalar.DereferenceAs.
type RefKind uint8

const (
	RefScalar RefKind = iota
	RefArray
	RefHash
	RefCode
	RefGlob
)

func (k RefKind) String() string {
	switch k {
	case RefScalar:
		return "SCALAR"
	case RefArray:
		return "ARRAY"
	case RefHash:
		return "HASH"
	case RefCode:
		return "CODE"
	case RefGlob:
		return "GLOB"
	default:
		return fmt.Sprintf("RefKind(%d)", uint8(k))
	}
}

// Referent is anything a Ref may point at. container.Array, container.Hash,
// container.Glob, and container.Code all implement it; the interface lives
// here (at the point of use) so that value never needs to import the
// container package, avoiding an import cycle since container needs to
// import value for Scalar.
type Referent interface {
	// RefKind reports which dereference kind this referent satisfies.
	RefKind() RefKind
}
