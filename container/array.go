// Package container implements Perl's two built-in aggregate types —
// Array and Hash — plus Glob (the named-slot bundle backing the global
// symbol table) and Code (the compiled-callable container). All three
// depend on package value for the Scalar cells they hold, per spec §2.
package container

import (
	"github.com/jperl-run/jperl/value"
)

// Array is a growable, owning sequence of Scalars. Reading an Undef
// element and then dereferencing it as a container promotes the element
// to a new Ref (autovivification, spec §3 "Array").
type Array struct {
	elems []*value.Scalar
}

// RefKind marks Array as a value.Referent, so a value.Scalar can hold a
// reference to one.
func (*Array) RefKind() value.RefKind { return value.RefArray }

// NewArray returns an empty Array.
func NewArray() *Array { return &Array{} }

// NewArrayFrom returns an Array taking ownership of elems (no copy).
func NewArrayFrom(elems []*value.Scalar) *Array { return &Array{elems: elems} }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// Get returns the element at i without autovivifying, or a shared Undef if
// i is out of range — used for pure r-value reads where autoviv must NOT
// happen (spec §4.2: "purely r-value dereference chains must not
// autovivify").
func (a *Array) Get(i int) *value.Scalar {
	idx := a.normalize(i)
	if idx < 0 || idx >= len(a.elems) {
		return value.Undef()
	}
	if a.elems[idx] == nil {
		return value.Undef()
	}
	return a.elems[idx]
}

// Exists reports whether index i has ever been assigned (distinct from
// Get returning Undef for an unassigned-but-in-range slot).
func (a *Array) Exists(i int) bool {
	idx := a.normalize(i)
	return idx >= 0 && idx < len(a.elems) && a.elems[idx] != nil
}

// Lvalue returns the element cell at i, growing the array and allocating
// fresh mutable Undef cells as needed so that writes through the returned
// pointer are observed by subsequent reads. It does not autovivify
// nested containers: an Undef element comes back as that Undef cell and
// is never promoted to a new Array or Hash ref.
func (a *Array) Lvalue(i int) *value.Scalar {
	idx := a.normalize(i)
	if idx < 0 {
		idx = 0
	}
	for idx >= len(a.elems) {
		a.elems = append(a.elems, nil)
	}
	if a.elems[idx] == nil {
		a.elems[idx] = value.NewUndef()
	}
	return a.elems[idx]
}

func (a *Array) normalize(i int) int {
	if i < 0 {
		return len(a.elems) + i
	}
	return i
}

// Push appends elements to the end.
func (a *Array) Push(vals ...*value.Scalar) {
	a.elems = append(a.elems, vals...)
}

// Pop removes and returns the last element, or Undef if empty.
func (a *Array) Pop() *value.Scalar {
	if len(a.elems) == 0 {
		return value.Undef()
	}
	last := a.elems[len(a.elems)-1]
	a.elems = a.elems[:len(a.elems)-1]
	if last == nil {
		return value.Undef()
	}
	return last
}

// Shift removes and returns the first element, or Undef if empty.
func (a *Array) Shift() *value.Scalar {
	if len(a.elems) == 0 {
		return value.Undef()
	}
	first := a.elems[0]
	a.elems = a.elems[1:]
	if first == nil {
		return value.Undef()
	}
	return first
}

// Unshift prepends elements to the front.
func (a *Array) Unshift(vals ...*value.Scalar) {
	merged := make([]*value.Scalar, 0, len(vals)+len(a.elems))
	merged = append(merged, vals...)
	merged = append(merged, a.elems...)
	a.elems = merged
}

// Splice implements Perl's splice(ARRAY, OFFSET, LENGTH, LIST...),
// returning the removed elements.
func (a *Array) Splice(offset, length int, repl ...*value.Scalar) []*value.Scalar {
	offset = a.normalize(offset)
	if offset < 0 {
		offset = 0
	}
	if offset > len(a.elems) {
		offset = len(a.elems)
	}
	end := offset + length
	if length < 0 || end > len(a.elems) {
		end = len(a.elems)
	}
	removed := append([]*value.Scalar{}, a.elems[offset:end]...)
	tail := append([]*value.Scalar{}, a.elems[end:]...)
	a.elems = append(a.elems[:offset], append(repl, tail...)...)
	return removed
}

// Slice returns a snapshot slice of the live elements (Undef-filled for
// unassigned-but-allocated slots), for `@a` list-context reads.
func (a *Array) Slice() []*value.Scalar {
	out := make([]*value.Scalar, len(a.elems))
	for i, e := range a.elems {
		if e == nil {
			out[i] = value.Undef()
		} else {
			out[i] = e
		}
	}
	return out
}

// RangeIterator returns a lazy iterator over [lo, hi] without materialising
// the range (spec §4.5/§4.6: foreach over a huge range must be O(1)
// working set — spec §8 scenario 6).
func RangeIterator(lo, hi int64) *Iterator {
	cur := lo
	return &Iterator{
		hasNext: func() bool { return cur <= hi },
		next: func() *value.Scalar {
			v := value.NewInt(cur)
			cur++
			return v
		},
	}
}

// ArrayIterator returns a lazy iterator over a's elements, snapshotting
// the element pointers at call time (mutation of a during iteration is
// undefined beyond what Perl itself leaves undefined).
func ArrayIterator(a *Array) *Iterator {
	elems := a.Slice()
	i := 0
	return &Iterator{
		hasNext: func() bool { return i < len(elems) },
		next: func() *value.Scalar {
			v := elems[i]
			i++
			return v
		},
	}
}

// Iterator is the lazy iterator token carried inside a Scalar payload by
// the compiled FOREACH_NEXT_OR_EXIT superinstruction (spec §4.5/§4.6). It
// is NOT a suspended execution context (spec §9) — just a pull-based
// cursor, which the interpreter recognises with a comma-ok type assertion.
type Iterator struct {
	hasNext func() bool
	next    func() *value.Scalar
}

// IteratorTag is the name the interpreter puts in the TypeError it raises
// when a register used as an Iterator holds something else (no value
// carries this tag; the check itself is a type assertion), so a mis-typed
// register yields an error rather than a raw cast failure (spec §4.6).
const IteratorTag = "jperl.iterator"

func (*Iterator) RefKind() value.RefKind { return value.RefScalar }

// HasNext reports whether Next will produce another element.
func (it *Iterator) HasNext() bool { return it.hasNext() }

// Next returns the next element. Must not be called when HasNext is false.
func (it *Iterator) Next() *value.Scalar { return it.next() }
