package symtable

import "strings"

// MRO resolves method dispatch order for blessed-reference method calls
// (`$obj->method`), one of the SUPPLEMENTED FEATURES the distilled CORE
// spec is silent on but a complete implementation needs: anything that
// exercises `bless`/overload dispatch eventually needs to look a method
// up through a package's @ISA chain.
//
// Perl's default MRO is depth-first left-to-right over @ISA, without
// duplicate suppression beyond "first found wins" (the C3 MRO pragma
// changes this, but C3 is out of scope here — DFS is what every package
// gets without `use mro 'c3'`).
type MRO struct {
	table *Table
	cache map[string][]string // pkg -> linearized ancestor list, memoized
}

// NewMRO returns an MRO resolver backed by table. The resolver reads @ISA
// arrays out of table's Global Symbol Table on demand, so it always sees
// the current @ISA contents — but caches the linearization per package
// name, matching Perl's own ISA-cache invalidation granularity (a cache
// that must be explicitly busted on @ISA mutation via Invalidate).
func NewMRO(table *Table) *MRO {
	return &MRO{table: table, cache: make(map[string][]string)}
}

// Linearize returns pkg's ancestor list in method-resolution order,
// starting with pkg itself, computed via depth-first left-to-right
// traversal of @ISA with first-occurrence-wins duplicate suppression.
func (m *MRO) Linearize(pkg string) []string {
	if cached, ok := m.cache[pkg]; ok {
		return cached
	}
	seen := make(map[string]bool)
	var order []string
	var walk func(string)
	walk = func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		order = append(order, p)
		for _, parent := range m.isaOf(p) {
			walk(parent)
		}
	}
	walk(pkg)
	m.cache[pkg] = order
	return order
}

// isaOf reads pkg's @ISA array out of the symbol table, returning nil if
// the package has never referenced @ISA.
func (m *MRO) isaOf(pkg string) []string {
	if !m.table.Exists(pkg, "ISA") {
		return nil
	}
	g := m.table.Glob(pkg, "ISA")
	if g.Array == nil {
		return nil
	}
	out := make([]string, 0, g.Array.Len())
	for _, s := range g.Array.Slice() {
		if name := s.AsString(); name != "" {
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}

// Invalidate drops the memoized linearization of every package. Perl
// itself invalidates its ISA cache on any @ISA write anywhere in the program rather than tracking
// precise dependents; this mirrors that conservative, whole-cache-clear
// behavior since under-invalidating silently serves a stale MRO.
func (m *MRO) Invalidate() {
	m.cache = make(map[string][]string)
}

// ResolveMethod walks pkg's linearization looking up name in each
// ancestor's symbol table, returning the first glob with a non-nil Code
// slot (the standard "first match in MRO order wins" method dispatch
// rule).
func (m *MRO) ResolveMethod(pkg, name string) (string, bool) {
	for _, anc := range m.Linearize(pkg) {
		if m.table.Exists(anc, name) {
			g := m.table.Glob(anc, name)
			if g.Code != nil {
				return anc, true
			}
		}
	}
	return "", false
}
