package value

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// AsBool implements Perl boolean truth (spec §4.1): Undef, IntSmall(0),
// IntBig(0), Double(±0.0), Str(""), and the byte-string Str("0") are
// false; everything else (including the string "00") is true.
func (s *Scalar) AsBool() bool {
	switch s.kind {
	case KindUndef:
		return false
	case KindIntSmall:
		return s.i != 0
	case KindIntBig:
		return s.big.Sign() != 0
	case KindDouble:
		return s.f != 0
	case KindStr:
		return s.s != "" && s.s != "0"
	default:
		return true
	}
}

// AsInt coerces s to an int64, following the numeric-string coercion rules
// of spec §4.1 for KindStr. Values that don't fit int64 saturate (callers
// that need exactness for a big value should use AsBigInt).
func (s *Scalar) AsInt() int64 {
	switch s.kind {
	case KindUndef:
		return 0
	case KindIntSmall:
		return s.i
	case KindIntBig:
		if s.big.IsInt64() {
			return s.big.Int64()
		}
		if s.big.Sign() < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	case KindDouble:
		switch {
		case s.f >= math.MaxInt64:
			return math.MaxInt64
		case s.f <= math.MinInt64:
			return math.MinInt64
		}
		return int64(s.f)
	case KindStr:
		k, i, b, f := parseNumericPrefix(s.s)
		switch k {
		case numInt:
			return i
		case numBig:
			if b.Sign() < 0 {
				return math.MinInt64
			}
			return math.MaxInt64
		default:
			return NewDouble(f).AsInt()
		}
	default:
		return 0
	}
}

// AsDouble coerces s to a float64.
func (s *Scalar) AsDouble() float64 {
	switch s.kind {
	case KindUndef:
		return 0
	case KindIntSmall:
		return float64(s.i)
	case KindIntBig:
		f := new(big.Float).SetInt(s.big)
		out, _ := f.Float64()
		return out
	case KindDouble:
		return s.f
	case KindStr:
		_, i, big, f := parseNumericPrefix(s.s)
		if big != nil {
			out, _ := new(big.Float).SetInt(big).Float64()
			return out
		}
		if f != 0 || i != 0 {
			return f + float64(i)
		}
		return f
	default:
		return 0
	}
}

// AsBigInt coerces s to an arbitrary-precision integer, exact for
// IntSmall/IntBig and for any numeric string whose integer part fits no
// int64 (spec §8's big-integer round-trip invariant).
func (s *Scalar) AsBigInt() *big.Int {
	switch s.kind {
	case KindIntSmall:
		return big.NewInt(s.i)
	case KindIntBig:
		return new(big.Int).Set(s.big)
	case KindDouble:
		bi, _ := big.NewFloat(s.f).Int(nil)
		return bi
	case KindStr:
		k, i, b, f := parseNumericPrefix(s.s)
		switch k {
		case numInt:
			return big.NewInt(i)
		case numBig:
			return b
		default:
			bi, _ := big.NewFloat(f).Int(nil)
			return bi
		}
	default:
		return big.NewInt(0)
	}
}

// AsString coerces s to a Go string using Perl's default numeric
// stringification (no trailing zeros beyond what %g produces).
func (s *Scalar) AsString() string {
	switch s.kind {
	case KindUndef:
		return ""
	case KindIntSmall:
		return strconv.FormatInt(s.i, 10)
	case KindIntBig:
		return s.big.String()
	case KindDouble:
		return formatPerlDouble(s.f)
	case KindStr:
		return s.s
	case KindRef:
		return refString(s)
	default:
		return ""
	}
}

func refString(s *Scalar) string {
	kind := RefScalar
	if s.ref != nil {
		kind = s.ref.RefKind()
	}
	prefix := s.bless
	if prefix != "" {
		prefix += "="
	}
	return prefix + kind.String() + "(0x0)"
}

func formatPerlDouble(f float64) string {
	if math.IsInf(f, 1) {
		return "Inf"
	}
	if math.IsInf(f, -1) {
		return "-Inf"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	str := strconv.FormatFloat(f, 'g', 15, 64)
	return str
}

type numKind uint8

const (
	numNone numKind = iota
	numInt
	numBig
	numFloat
)

// parseNumericPrefix implements the "longest recognisable numeric prefix"
// coercion rule of spec §4.1: strip leading whitespace, accept an optional
// sign, and parse the longest prefix recognisable as integer, float,
// 0x/0b/0-octal, Inf, or NaN. An unparseable string coerces to 0.
func parseNumericPrefix(str string) (numKind, int64, *big.Int, float64) {
	str = strings.TrimLeft(str, " \t\n\r\f\v")
	if str == "" {
		return numNone, 0, nil, 0
	}

	neg := false
	rest := str
	if rest[0] == '+' || rest[0] == '-' {
		neg = rest[0] == '-'
		rest = rest[1:]
	}

	if hasFoldPrefix(rest, "inf") {
		if neg {
			return numFloat, 0, nil, math.Inf(-1)
		}
		return numFloat, 0, nil, math.Inf(1)
	}
	if hasFoldPrefix(rest, "nan") {
		return numFloat, 0, nil, math.NaN()
	}

	if strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X") {
		end := 2
		for end < len(rest) && isHexDigit(rest[end]) {
			end++
		}
		if end > 2 {
			bi := new(big.Int)
			bi.SetString(rest[2:end], 16)
			return finishBig(bi, neg)
		}
	}
	if strings.HasPrefix(rest, "0b") || strings.HasPrefix(rest, "0B") {
		end := 2
		for end < len(rest) && (rest[end] == '0' || rest[end] == '1') {
			end++
		}
		if end > 2 {
			bi := new(big.Int)
			bi.SetString(rest[2:end], 2)
			return finishBig(bi, neg)
		}
	}

	end := 0
	sawDigit := false
	sawDot := false
	sawExp := false
	for end < len(rest) {
		c := rest[end]
		switch {
		case c >= '0' && c <= '9':
			sawDigit = true
			end++
		case c == '.' && !sawDot && !sawExp:
			sawDot = true
			end++
		case (c == 'e' || c == 'E') && sawDigit && !sawExp:
			save := end
			end++
			if end < len(rest) && (rest[end] == '+' || rest[end] == '-') {
				end++
			}
			expDigits := false
			for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
				end++
				expDigits = true
			}
			if !expDigits {
				end = save
				goto scanned
			}
			sawExp = true
		default:
			goto scanned
		}
	}
scanned:
	if !sawDigit {
		return numNone, 0, nil, 0
	}
	text := rest[:end]
	if sawDot || sawExp {
		f, _ := strconv.ParseFloat(text, 64)
		if neg {
			f = -f
		}
		return numFloat, 0, nil, f
	}
	if len(text) > 1 && text[0] == '0' {
		oend := 1
		for oend < len(text) && text[oend] <= '7' {
			oend++
		}
		bi, _ := new(big.Int).SetString(text[:oend], 8)
		return finishBig(bi, neg)
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		if neg {
			i = -i
		}
		return numInt, i, nil, 0
	}
	bi := new(big.Int)
	bi.SetString(text, 10)
	return finishBig(bi, neg)
}

func finishBig(bi *big.Int, neg bool) (numKind, int64, *big.Int, float64) {
	if neg {
		bi.Neg(bi)
	}
	if bi.IsInt64() {
		return numInt, bi.Int64(), nil, 0
	}
	return numBig, 0, bi, 0
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
