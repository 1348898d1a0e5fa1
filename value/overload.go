package value

// Overloadable is implemented by the symbol-table layer to answer "does
// package p define an overload for operator op, and if so invoke it".
// Returning (nil, false) falls through to built-in behaviour (spec §9
// "Dynamic dispatch / overloading").
//
// args[0] is always the blessed operand itself; args[1] (when present) is
// the other operand; swapped reports whether the operands were swapped to
// put the blessed one first (needed so overload methods can tell
// `$obj + 1` apart from `1 + $obj`).
type Overloadable interface {
	Invoke(op string, args []*Scalar, swapped bool) (*Scalar, bool)
}

// OverloadResolver looks up the Overloadable for a blessed package name.
// The interpreter's symbol table implements this; value never imports
// symtable to avoid a cycle, so the resolver is injected per call.
type OverloadResolver interface {
	Resolve(pkg string) (Overloadable, bool)
}

// DispatchBinary resolves operator op on a binary operation a OP b,
// checking a blessed a then a blessed b, and returns (result, true) if an
// overload fired. Compound forms must call DispatchCompound first, per
// spec §4.1.
func DispatchBinary(r OverloadResolver, op string, a, b *Scalar) (*Scalar, bool) {
	if a.kind == KindRef && a.bless != "" {
		if impl, ok := r.Resolve(a.bless); ok {
			if res, handled := impl.Invoke(op, []*Scalar{a, b}, false); handled {
				return res, true
			}
		}
	}
	if b.kind == KindRef && b.bless != "" {
		if impl, ok := r.Resolve(b.bless); ok {
			if res, handled := impl.Invoke(op, []*Scalar{b, a}, true); handled {
				return res, true
			}
		}
	}
	return nil, false
}

// DispatchCompound implements spec §4.1's compound-assignment rule: for
// `+=` and friends, FIRST probe the compound form ("+=") on the lvalue's
// package; on miss, fall back to the base operator ("+") via
// DispatchBinary and let the caller write the result back to the lvalue.
//
// Returns (result, true, false) if the compound form itself handled the op
// (no separate writeback needed — the overload method is responsible for
// any side effect it wants, consistent with Perl's `use overload '+=' =>
// ...` contract), (result, false, true) if only the base operator's
// overload fired, and (nil, false, false) if neither compound nor base
// fired.
func DispatchCompound(r OverloadResolver, baseOp string, lvalue, rhs *Scalar) (result *Scalar, compoundHandled bool, baseHandled bool) {
	compoundOp := baseOp + "="
	if lvalue.kind == KindRef && lvalue.bless != "" {
		if impl, ok := r.Resolve(lvalue.bless); ok {
			if res, handled := impl.Invoke(compoundOp, []*Scalar{lvalue, rhs}, false); handled {
				return res, true, false
			}
		}
	}
	if res, handled := DispatchBinary(r, baseOp, lvalue, rhs); handled {
		return res, false, true
	}
	return nil, false, false
}

// IsOverloaded reports whether s is a blessed reference whose package has
// ANY overload table registered (used by Scalar.is_overloaded(op) callers
// that only need a coarse check before paying for a Resolve).
func (s *Scalar) IsOverloaded(r OverloadResolver) bool {
	if s.kind != KindRef || s.bless == "" {
		return false
	}
	_, ok := r.Resolve(s.bless)
	return ok
}
