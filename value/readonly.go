package value

// scalarUndef is the shared, read-only Undef singleton returned by Undef().
// Returning it directly is correct for r-values but forbidden at lvalue
// sites — callers that need a mutable Undef must use NewUndef instead.
var scalarUndef = Scalar{kind: KindUndef, readOnly: true}

// smallIntCacheLo/Hi bound the cached, read-only small-integer singletons,
// mirroring the CPython/Perl small-int cache convention: values in this
// range are shared and must never be mutated in place.
const (
	smallIntCacheLo = -1
	smallIntCacheHi = 256
)

var smallIntCache = func() []Scalar {
	cache := make([]Scalar, smallIntCacheHi-smallIntCacheLo+1)
	for i := range cache {
		cache[i] = Scalar{kind: KindIntSmall, i: int64(i + smallIntCacheLo), readOnly: true}
	}
	return cache
}()

// CachedInt returns the shared read-only Scalar for i if i falls in the
// small-integer cache range, else a freshly allocated mutable Scalar.
// Callers that need a fresh, mutable cell regardless of range should call
// NewInt directly.
func CachedInt(i int64) *Scalar {
	if i >= smallIntCacheLo && i <= smallIntCacheHi {
		return &smallIntCache[i-smallIntCacheLo]
	}
	return NewInt(i)
}
