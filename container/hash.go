package container

import (
	"github.com/jperl-run/jperl/value"
)

// Hash is an insertion-order mapping from string keys to owned Scalars.
// Iteration (each/keys/values) shares a single opaque cursor snapshot per
// spec §3/§4.2.
type Hash struct {
	keys   []string
	values map[string]*value.Scalar
	cursor int
}

func (*Hash) RefKind() value.RefKind { return value.RefHash }

// NewHash returns an empty Hash.
func NewHash() *Hash {
	return &Hash{values: make(map[string]*value.Scalar)}
}

// Get returns the value for key without autovivifying, or a shared Undef
// if the key is absent.
func (h *Hash) Get(key string) *value.Scalar {
	if v, ok := h.values[key]; ok {
		return v
	}
	return value.Undef()
}

// Exists reports whether key has ever been assigned.
func (h *Hash) Exists(key string) bool {
	_, ok := h.values[key]
	return ok
}

// Lvalue returns the cell for key, autovivifying a fresh mutable Undef
// and recording insertion order if the key was previously absent.
func (h *Hash) Lvalue(key string) *value.Scalar {
	if v, ok := h.values[key]; ok {
		return v
	}
	v := value.NewUndef()
	h.values[key] = v
	h.keys = append(h.keys, key)
	return v
}

// Set assigns key to v directly (used for non-lvalue bulk assignment,
// e.g. building a hash literal), recording insertion order for new keys.
func (h *Hash) Set(key string, v *value.Scalar) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = v
}

// Delete removes key, returning its prior value (or Undef). Deletion of
// the key currently under iteration is the one mutation-during-iteration
// case spec §4.2 defines as safe.
func (h *Hash) Delete(key string) *value.Scalar {
	v, ok := h.values[key]
	if !ok {
		return value.Undef()
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			if h.cursor > i {
				h.cursor--
			}
			break
		}
	}
	return v
}

// Len returns the number of key/value pairs.
func (h *Hash) Len() int { return len(h.keys) }

// Keys returns a snapshot of keys in insertion order. Resets the each()
// cursor, per spec §4.2.
func (h *Hash) Keys() []string {
	h.cursor = 0
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Values returns a snapshot of values in insertion order. Resets the
// each() cursor.
func (h *Hash) Values() []*value.Scalar {
	h.cursor = 0
	out := make([]*value.Scalar, len(h.keys))
	for i, k := range h.keys {
		out[i] = h.values[k]
	}
	return out
}

// Each advances the shared cursor and returns the next (key, value, ok)
// triple; ok is false once exhausted, at which point the cursor resets
// for the next Each() pass (Perl's each() wraps around on exhaustion).
func (h *Hash) Each() (string, *value.Scalar, bool) {
	if h.cursor >= len(h.keys) {
		h.cursor = 0
		return "", nil, false
	}
	k := h.keys[h.cursor]
	h.cursor++
	return k, h.values[k], true
}

// ResetCursor explicitly resets the each() cursor (called by keys()/values()
// in the interpreter, exposed here so callers needn't call Keys()/Values()
// just for the reset side effect).
func (h *Hash) ResetCursor() { h.cursor = 0 }
