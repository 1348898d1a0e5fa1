package value

import (
	"math"
	"math/big"
)

// promote classifies which arithmetic domain a binary operation on a, b
// must execute in, per the promotion lattice of spec §4.1: Double beats
// IntBig beats overflow-promoted-IntSmall beats IntSmall.
type promote uint8

const (
	promoteInt promote = iota
	promoteBig
	promoteDouble
)

func numericKindOf(s *Scalar) promote {
	switch s.kind {
	case KindDouble:
		return promoteDouble
	case KindIntBig:
		return promoteBig
	default:
		return promoteInt
	}
}

func classify(a, b *Scalar) promote {
	pa, pb := numericKindOf(a), numericKindOf(b)
	if pa == promoteDouble || pb == promoteDouble {
		return promoteDouble
	}
	if pa == promoteBig || pb == promoteBig {
		return promoteBig
	}
	return promoteInt
}

// Add implements binary `+` with overflow promotion to IntBig (never
// silently to Double, per spec §4.1, to preserve exactness for bit-ops and
// pack/unpack Q/q).
func Add(a, b *Scalar) *Scalar {
	switch classify(a, b) {
	case promoteDouble:
		return NewDouble(a.AsDouble() + b.AsDouble())
	case promoteBig:
		return NewBigInt(new(big.Int).Add(a.AsBigInt(), b.AsBigInt()))
	default:
		x, y := a.AsInt(), b.AsInt()
		sum := x + y
		if (y > 0 && sum < x) || (y < 0 && sum > x) {
			return NewBigInt(new(big.Int).Add(big.NewInt(x), big.NewInt(y)))
		}
		return NewInt(sum)
	}
}

// Sub implements binary `-`.
func Sub(a, b *Scalar) *Scalar {
	switch classify(a, b) {
	case promoteDouble:
		return NewDouble(a.AsDouble() - b.AsDouble())
	case promoteBig:
		return NewBigInt(new(big.Int).Sub(a.AsBigInt(), b.AsBigInt()))
	default:
		x, y := a.AsInt(), b.AsInt()
		diff := x - y
		if (y < 0 && diff < x) || (y > 0 && diff > x) {
			return NewBigInt(new(big.Int).Sub(big.NewInt(x), big.NewInt(y)))
		}
		return NewInt(diff)
	}
}

// Mul implements binary `*`.
func Mul(a, b *Scalar) *Scalar {
	switch classify(a, b) {
	case promoteDouble:
		return NewDouble(a.AsDouble() * b.AsDouble())
	case promoteBig:
		return NewBigInt(new(big.Int).Mul(a.AsBigInt(), b.AsBigInt()))
	default:
		x, y := a.AsInt(), b.AsInt()
		if x == 0 || y == 0 {
			return NewInt(0)
		}
		prod := x * y
		if prod/y != x {
			return NewBigInt(new(big.Int).Mul(big.NewInt(x), big.NewInt(y)))
		}
		return NewInt(prod)
	}
}

// Pow implements binary `**`. A negative or non-integral exponent always
// yields a Double, matching Perl; a non-negative integral exponent on
// integer operands stays exact via big.Int.Exp (spec §4.1's "promote to
// IntBig rather than lose precision to Double" rule).
func Pow(a, b *Scalar) *Scalar {
	if classify(a, b) == promoteDouble {
		return NewDouble(math.Pow(a.AsDouble(), b.AsDouble()))
	}
	exp := b.AsBigInt()
	if exp.Sign() < 0 {
		return NewDouble(math.Pow(a.AsDouble(), b.AsDouble()))
	}
	return normalizeBig(new(big.Int).Exp(a.AsBigInt(), exp, nil))
}

// Div implements binary `/`, which in Perl always yields a floating-point
// result unless both operands are exact integers that divide evenly.
func Div(a, b *Scalar) (*Scalar, error) {
	if b.AsDouble() == 0 {
		return nil, ErrDivideByZero
	}
	if classify(a, b) != promoteDouble {
		x, y := a.AsBigInt(), b.AsBigInt()
		if y.Sign() != 0 {
			q, r := new(big.Int).QuoRem(x, y, new(big.Int))
			if r.Sign() == 0 {
				return normalizeBig(q), nil
			}
		}
	}
	return NewDouble(a.AsDouble() / b.AsDouble()), nil
}

// IntDivMod implements Perl `%`: the result takes the sign of the right
// operand (floored modulo), not the C-style truncated remainder.
func IntDivMod(a, b *Scalar) (*Scalar, error) {
	y := b.AsBigInt()
	if y.Sign() == 0 {
		return nil, ErrModuloByZero
	}
	x := a.AsBigInt()
	m := new(big.Int).Mod(x, y) // big.Int.Mod is already Euclidean (non-negative)
	if m.Sign() != 0 && y.Sign() < 0 {
		m.Add(m, y)
	}
	return normalizeBig(m), nil
}

// normalizeBig demotes a big.Int result to IntSmall when it fits, matching
// spec §3's "promotion is automatic; demotion is never required" — we
// still demote at construction time purely as a representational nicety
// since IntSmall(5) and IntBig(5) must compare and print identically; no
// caller depends on IntBig being retained once it fits.
func normalizeBig(b *big.Int) *Scalar {
	if b.IsInt64() {
		return NewInt(b.Int64())
	}
	return NewBigInt(b)
}

// bitOperand returns the two's-complement big.Int used for bitwise
// operators, per spec §4.1: bit-ops operate on two's-complement
// representations after IntBig promotion.
func bitOperand(s *Scalar) *big.Int {
	return s.AsBigInt()
}

func And(a, b *Scalar) *Scalar {
	return normalizeBig(new(big.Int).And(bitOperand(a), bitOperand(b)))
}

func Or(a, b *Scalar) *Scalar {
	return normalizeBig(new(big.Int).Or(bitOperand(a), bitOperand(b)))
}

func Xor(a, b *Scalar) *Scalar {
	return normalizeBig(new(big.Int).Xor(bitOperand(a), bitOperand(b)))
}

// ShiftLeft implements `<<`. A negative shift count shifts right by the
// absolute count instead (Perl semantics, spec §4.1).
func ShiftLeft(a, count *Scalar) *Scalar {
	n := count.AsInt()
	if n < 0 {
		return ShiftRight(a, NewInt(-n))
	}
	return normalizeBig(new(big.Int).Lsh(bitOperand(a), uint(n)))
}

// ShiftRight implements `>>`. A negative shift count shifts left by the
// absolute count instead.
func ShiftRight(a, count *Scalar) *Scalar {
	n := count.AsInt()
	if n < 0 {
		return ShiftLeft(a, NewInt(-n))
	}
	return normalizeBig(new(big.Int).Rsh(bitOperand(a), uint(n)))
}

// Neg implements unary `-`.
func Neg(a *Scalar) *Scalar {
	switch numericKindOf(a) {
	case promoteDouble:
		return NewDouble(-a.AsDouble())
	case promoteBig:
		return normalizeBig(new(big.Int).Neg(a.AsBigInt()))
	default:
		x := a.AsInt()
		if x == -x && x != 0 { // math.MinInt64
			return normalizeBig(new(big.Int).Neg(big.NewInt(x)))
		}
		return NewInt(-x)
	}
}

// Compare implements Perl's numeric `<=>`, returning -1/0/1. Double
// comparisons use ordinary float ordering; NaN compares as described by
// Perl's `<=>` (returns undef in real Perl — callers here treat it as 0 and
// should special-case NaN with IsNaN before relying on ordering).
func Compare(a, b *Scalar) int {
	switch classify(a, b) {
	case promoteDouble:
		x, y := a.AsDouble(), b.AsDouble()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case promoteBig:
		return a.AsBigInt().Cmp(b.AsBigInt())
	default:
		x, y := a.AsInt(), b.AsInt()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
}
