package container

import "github.com/jperl-run/jperl/value"

// Range is a lazy 1..N style range value produced by bytecode.OpMakeRange
// and consumed directly by OpIteratorCreate, so `foreach (1..huge)` never
// materialises a list (spec §8 scenario 6). It holds int64 bounds rather
// than Scalars since Perl's numeric range operator coerces both ends to
// integers up front.
type Range struct {
	Lo, Hi int64
}

func (*Range) RefKind() value.RefKind { return value.RefArray }

// NewRange returns a Range bounded by lo and hi (inclusive), coerced from
// whatever Scalars the MAKE_RANGE operands held.
func NewRange(lo, hi *value.Scalar) *Range {
	return &Range{Lo: lo.AsInt(), Hi: hi.AsInt()}
}

// Iterator returns the lazy iterator over r, matching RangeIterator's
// contract for a pre-resolved (lo, hi) pair.
func (r *Range) Iterator() *Iterator {
	return RangeIterator(r.Lo, r.Hi)
}
