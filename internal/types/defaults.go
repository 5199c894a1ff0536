package types

import "github.com/latticec/zkmid/internal/hir"

// DefaultUnboundVars walks every still-unbound type variable reachable from
// roots and binds it to its kind's default type (spec.md §4.2: an unbound
// IntegerOrField defaults to Field, an unbound Integer defaults to i32).
// Returns the number of variables defaulted, for diagnostics ("N type(s)
// defaulted" warnings the driver may choose to surface).
func DefaultUnboundVars(roots []hir.Type) int {
	seen := make(map[*hir.Cell]bool)
	count := 0
	for _, t := range roots {
		count += defaultVars(t, seen)
	}
	return count
}

func defaultVars(t hir.Type, seen map[*hir.Cell]bool) int {
	switch t := t.(type) {
	case hir.TypeVariable:
		return defaultCell(t.Var, seen)
	case hir.NamedGeneric:
		if t.Implicit {
			return defaultCell(t.Var, seen)
		}
		return 0
	case hir.Array:
		return defaultVars(t.Len, seen) + defaultVars(t.Elem, seen)
	case hir.Slice:
		return defaultVars(t.Elem, seen)
	case hir.String:
		return defaultVars(t.Len, seen)
	case hir.FmtString:
		return defaultVars(t.Len, seen) + defaultVars(t.Env, seen)
	case hir.Tuple:
		n := 0
		for _, e := range t.Elems {
			n += defaultVars(e, seen)
		}
		return n
	case hir.DataTypeRef:
		n := 0
		for _, g := range t.Generics {
			n += defaultVars(g, seen)
		}
		return n
	case hir.Function:
		n := 0
		for _, a := range t.Args {
			n += defaultVars(a, seen)
		}
		return n + defaultVars(t.Ret, seen)
	case hir.Reference:
		return defaultVars(t.Elem, seen)
	case hir.Forall:
		return defaultVars(t.Body, seen)
	case hir.InfixExpr:
		return defaultVars(t.Lhs, seen) + defaultVars(t.Rhs, seen)
	case hir.CheckedCast:
		return defaultVars(t.From, seen) + defaultVars(t.To, seen)
	default:
		return 0
	}
}

func defaultCell(cell *hir.Cell, seen map[*hir.Cell]bool) int {
	if seen[cell] {
		return 0
	}
	seen[cell] = true
	if !cell.IsUnbound() {
		bound, _ := cell.Binding()
		return defaultVars(bound, seen)
	}
	def := cell.K.DefaultType()
	if def == nil {
		// Any/Normal-kinded variables have no sensible default; leaving them
		// unbound here means an earlier pass failed to pin them down, which
		// the caller surfaces as an unresolved-type diagnostic instead.
		return 0
	}
	cell.Bind(def)
	return 1
}
