package container

import "github.com/jperl-run/jperl/value"

// Glob is a typeglob: a single identifier holding distinct SCALAR, ARRAY,
// HASH, CODE, and IO slots, all addressable independently (spec §3/§4.2).
type Glob struct {
	Name   string
	Scalar *value.Scalar
	Array  *Array
	Hash   *Hash
	Code   *Code
	IO     *IOHandle
}

func (*Glob) RefKind() value.RefKind { return value.RefGlob }

// NewGlob returns a Glob with all slots lazily nil; accessors below
// allocate on first use.
func NewGlob(name string) *Glob { return &Glob{Name: name} }

// ScalarSlot returns the SCALAR slot, allocating a fresh Undef cell on
// first access.
func (g *Glob) ScalarSlot() *value.Scalar {
	if g.Scalar == nil {
		g.Scalar = value.NewUndef()
	}
	return g.Scalar
}

// ArraySlot returns the ARRAY slot, allocating an empty Array on first
// access.
func (g *Glob) ArraySlot() *Array {
	if g.Array == nil {
		g.Array = NewArray()
	}
	return g.Array
}

// HashSlot returns the HASH slot, allocating an empty Hash on first
// access.
func (g *Glob) HashSlot() *Hash {
	if g.Hash == nil {
		g.Hash = NewHash()
	}
	return g.Hash
}

// Snapshot captures all five slots by value (pointer copies — the
// underlying containers are shared, not deep-copied) for use by
// dynscope's glob-slot save-record.
func (g *Glob) Snapshot() Glob { return *g }

// Restore overwrites g's slots with a previously captured Snapshot.
func (g *Glob) Restore(snap Glob) {
	g.Scalar, g.Array, g.Hash, g.Code, g.IO = snap.Scalar, snap.Array, snap.Hash, snap.Code, snap.IO
}

// IOHandle is a minimal stand-in for Perl's IO slot. File/network I/O
// wrappers are an external collaborator per spec §1; this repository only
// needs enough of a type to let a Glob's IO slot round-trip through
// local/save-restore.
type IOHandle struct {
	Name string
}
