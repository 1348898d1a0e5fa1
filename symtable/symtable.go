// Package symtable implements the Global Symbol Table: the pkg::name ->
// *container.Glob mapping that backs every fully-qualified Perl variable,
// sub, and filehandle (spec §3 "Global Symbol Table"). Entries are created
// lazily on first reference and never destroyed for the lifetime of the
// Context that owns the table — matching Perl's own stash semantics, where
// `our $x` or a sub definition leaves a permanent glob behind even if the
// lexical scope that introduced it exits.
package symtable

import (
	"strings"
	"sync"

	"github.com/jperl-run/jperl/container"
)

// Table is the Global Symbol Table for one interpreter Context. It is not
// safe for concurrent use by multiple goroutines without external locking;
// the mutex here only protects against accidental concurrent autoviv from
// signal-handler-style reentrancy within a single logical interpreter.
type Table struct {
	mu    sync.Mutex
	globs map[string]*container.Glob
}

// New returns an empty Table.
func New() *Table {
	return &Table{globs: make(map[string]*container.Glob)}
}

// qualify normalizes a bareword variable reference to its fully-qualified
// form, defaulting to the main:: package the way Perl's own symbol table
// does for any name without an explicit package qualifier.
func qualify(pkg, name string) string {
	if strings.Contains(name, "::") {
		return name
	}
	if pkg == "" {
		pkg = "main"
	}
	return pkg + "::" + name
}

// Glob returns the glob for pkg::name, creating it (with all slots nil) on
// first reference. The returned Glob is permanent: subsequent calls with
// the same fully-qualified name return the identical pointer.
func (t *Table) Glob(pkg, name string) *container.Glob {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := qualify(pkg, name)
	g, ok := t.globs[key]
	if !ok {
		g = container.NewGlob(key)
		t.globs[key] = g
	}
	return g
}

// Exists reports whether pkg::name has ever been referenced, without
// creating it.
func (t *Table) Exists(pkg, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.globs[qualify(pkg, name)]
	return ok
}

// Alias makes the glob at (dstPkg, dstName) identical to the glob at
// (srcPkg, srcName) — the effect of `*dst = *src` or a `local *dst =
// *src` save (see dynscope.GlobSlotSave, which snapshots and restores the
// slots rather than the table entry itself).
func (t *Table) Alias(dstPkg, dstName, srcPkg, srcName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	src := t.mustGlobLocked(srcPkg, srcName)
	t.globs[qualify(dstPkg, dstName)] = src
}

func (t *Table) mustGlobLocked(pkg, name string) *container.Glob {
	key := qualify(pkg, name)
	g, ok := t.globs[key]
	if !ok {
		g = container.NewGlob(key)
		t.globs[key] = g
	}
	return g
}

// Packages returns the distinct package prefixes that have at least one
// glob entry.
func (t *Table) Packages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for key := range t.globs {
		if idx := strings.LastIndex(key, "::"); idx >= 0 {
			pkg := key[:idx]
			if !seen[pkg] {
				seen[pkg] = true
				out = append(out, pkg)
			}
		}
	}
	return out
}
