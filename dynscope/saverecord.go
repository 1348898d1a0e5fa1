package dynscope

import (
	"github.com/jperl-run/jperl/container"
	"github.com/jperl-run/jperl/value"
)

// ScalarSave restores a scalar cell to its value at the time of `local`.
// Because a Scalar's identity (its *value.Scalar pointer) must stay fixed
// across the local — other code may have already taken a reference to
// the package variable's cell — restoring is done via SetFrom rather
// than swapping the pointer in the glob's slot.
type ScalarSave struct {
	Cell  *value.Scalar
	Prior *value.Scalar
}

// SaveScalar snapshots cell's current contents, replacing the glob's
// slot's live value with cell (the slot itself still points at the same
// cell object, per the shared-identity constraint above) and returns a
// record that restores it.
func SaveScalar(cell *value.Scalar) *ScalarSave {
	return &ScalarSave{Cell: cell, Prior: cell.Clone()}
}

// Restore writes Prior back into Cell, overwriting whatever `local`'s
// body assigned.
func (s *ScalarSave) Restore() {
	_ = s.Cell.SetFrom(s.Prior)
}

// ArraySave restores a glob's ARRAY slot to a prior *container.Array
// pointer (spec §4.3: `local @arr` replaces the whole array, not its
// elements, for the duration of the scope).
type ArraySave struct {
	Glob  *container.Glob
	Prior *container.Array
}

// SaveArray snapshots g's current ARRAY slot and replaces it with a fresh
// empty Array (the semantics of `local @arr` — the name starts empty
// inside the dynamic scope unless the `local @arr = (...)` form
// immediately assigns).
func SaveArray(g *container.Glob) *ArraySave {
	prior := g.ArraySlot()
	g.Array = container.NewArray()
	return &ArraySave{Glob: g, Prior: prior}
}

// Restore puts the prior Array back into the glob's ARRAY slot.
func (a *ArraySave) Restore() { a.Glob.Array = a.Prior }

// HashSave restores a glob's HASH slot, mirroring ArraySave for `local
// %hash`.
type HashSave struct {
	Glob  *container.Glob
	Prior *container.Hash
}

// SaveHash snapshots g's current HASH slot and replaces it with a fresh
// empty Hash.
func SaveHash(g *container.Glob) *HashSave {
	prior := g.HashSlot()
	g.Hash = container.NewHash()
	return &HashSave{Glob: g, Prior: prior}
}

// Restore puts the prior Hash back into the glob's HASH slot.
func (h *HashSave) Restore() { h.Glob.Hash = h.Prior }

// GlobSlotSave restores an entire glob's five slots to a prior snapshot
// — the save-record behind `local *fh = *other_fh`, one of the
// SUPPLEMENTED FEATURES (aliasing a whole typeglob, not just one slot).
type GlobSlotSave struct {
	Glob  *container.Glob
	Prior container.Glob
}

// SaveGlobSlots snapshots all of g's slots before an aliasing assignment
// overwrites them.
func SaveGlobSlots(g *container.Glob) *GlobSlotSave {
	return &GlobSlotSave{Glob: g, Prior: g.Snapshot()}
}

// Restore puts every slot of the snapshot back into the glob.
func (g *GlobSlotSave) Restore() { g.Glob.Restore(g.Prior) }
