// Package types implements the L1 layer: Hindley-Milner-style unification
// over the hir.Type lattice, kind checking and arithmetic-generic
// canonicalization, trait implementation search, and method resolution.
//
// Grounded on typesystem/unify.go's unifyInternal — same co-inductive
// cycle guard (a visited-pairs stack that treats a repeated pair as success
// rather than looping forever on recursive types), same case-per-constructor
// switch shape, same occurs check before binding a variable. Reshaped from
// a Subst-returning pure function into one that mutates hir.Cell bindings
// directly (scratch bindings first, installed only by the caller via
// hir.PerformInstantiationBindings), since this module's type variables are
// interior-mutable cells rather than name keys in an immutable map.
package types

import "github.com/latticec/zkmid/internal/hir"

type pair struct{ a, b hir.Type }

// TryUnify attempts to unify a and b, returning the bindings that would need
// to be installed to make them equal without installing them. Call
// hir.PerformInstantiationBindings on success if the caller wants the result
// to take effect.
func TryUnify(a, b hir.Type) (hir.TypeBindings, error) {
	bindings := hir.NewTypeBindings()
	if err := unify(a, b, bindings, nil); err != nil {
		return nil, err
	}
	return bindings, nil
}

// Unify unifies a and b and installs the resulting bindings immediately.
func Unify(a, b hir.Type) error {
	bindings, err := TryUnify(a, b)
	if err != nil {
		return err
	}
	hir.PerformInstantiationBindings(bindings)
	return nil
}

type UnifyError struct {
	A, B hir.Type
	Msg  string
}

func (e *UnifyError) Error() string {
	if e.Msg != "" {
		return e.Msg + ": " + e.A.String() + " vs " + e.B.String()
	}
	return "cannot unify " + e.A.String() + " with " + e.B.String()
}

func mismatch(a, b hir.Type, msg string) error { return &UnifyError{A: a, B: b, Msg: msg} }

func unify(a, b hir.Type, bindings hir.TypeBindings, visited []pair) error {
	a = hir.Resolve(a, bindings)
	b = hir.Resolve(b, bindings)

	for _, p := range visited {
		if hir.TypesEqual(p.a, a) && hir.TypesEqual(p.b, b) {
			return nil
		}
	}
	visited = append(visited, pair{a, b})

	if hir.TypesEqual(a, b) {
		return nil
	}

	if av, ok := a.(hir.TypeVariable); ok {
		return bindVar(av.Var, b, bindings)
	}
	if bv, ok := b.(hir.TypeVariable); ok {
		return bindVar(bv.Var, a, bindings)
	}
	if ag, ok := a.(hir.NamedGeneric); ok {
		return bindVar(ag.Var, b, bindings)
	}
	if bg, ok := b.(hir.NamedGeneric); ok {
		return bindVar(bg.Var, a, bindings)
	}

	switch a := a.(type) {
	case hir.FieldElement:
		if _, ok := b.(hir.FieldElement); ok {
			return nil
		}
		return mismatch(a, b, "")
	case hir.Integer:
		if b, ok := b.(hir.Integer); ok && b.Signedness == a.Signedness && b.Bits == a.Bits {
			return nil
		}
		return mismatch(a, b, "")
	case hir.Bool:
		if _, ok := b.(hir.Bool); ok {
			return nil
		}
		return mismatch(a, b, "")
	case hir.Unit:
		if _, ok := b.(hir.Unit); ok {
			return nil
		}
		return mismatch(a, b, "")
	case hir.String:
		if b, ok := b.(hir.String); ok {
			return unify(a.Len, b.Len, bindings, visited)
		}
		return mismatch(a, b, "")
	case hir.FmtString:
		if b, ok := b.(hir.FmtString); ok {
			if err := unify(a.Len, b.Len, bindings, visited); err != nil {
				return err
			}
			return unify(a.Env, b.Env, bindings, visited)
		}
		return mismatch(a, b, "")
	case hir.Array:
		if b, ok := b.(hir.Array); ok {
			if err := unify(a.Len, b.Len, bindings, visited); err != nil {
				return err
			}
			return unify(a.Elem, b.Elem, bindings, visited)
		}
		return mismatch(a, b, "")
	case hir.Slice:
		if b, ok := b.(hir.Slice); ok {
			return unify(a.Elem, b.Elem, bindings, visited)
		}
		return mismatch(a, b, "")
	case hir.Tuple:
		b, ok := b.(hir.Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return mismatch(a, b, "tuple arity mismatch")
		}
		for i := range a.Elems {
			if err := unify(a.Elems[i], b.Elems[i], bindings, visited); err != nil {
				return err
			}
		}
		return nil
	case hir.DataTypeRef:
		b, ok := b.(hir.DataTypeRef)
		if !ok || a.Id != b.Id || len(a.Generics) != len(b.Generics) {
			return mismatch(a, b, "")
		}
		for i := range a.Generics {
			if err := unify(a.Generics[i], b.Generics[i], bindings, visited); err != nil {
				return err
			}
		}
		return nil
	case hir.AliasRef:
		b, ok := b.(hir.AliasRef)
		if !ok || a.Id != b.Id {
			return mismatch(a, b, "")
		}
		return nil
	case hir.Function:
		b, ok := b.(hir.Function)
		if !ok || len(a.Args) != len(b.Args) || a.Unconstrained != b.Unconstrained {
			return mismatch(a, b, "")
		}
		for i := range a.Args {
			if err := unify(a.Args[i], b.Args[i], bindings, visited); err != nil {
				return err
			}
		}
		return unify(a.Ret, b.Ret, bindings, visited)
	case hir.Reference:
		b, ok := b.(hir.Reference)
		if !ok || a.Mutable != b.Mutable {
			return mismatch(a, b, "")
		}
		return unify(a.Elem, b.Elem, bindings, visited)
	case hir.TraitAsType:
		b, ok := b.(hir.TraitAsType)
		if !ok || a.Id != b.Id {
			return mismatch(a, b, "")
		}
		return nil
	case hir.Constant:
		b, ok := b.(hir.Constant)
		if !ok || a.Value != b.Value {
			return mismatch(a, b, "")
		}
		return nil
	case hir.InfixExpr, hir.CheckedCast:
		return unifyArithmetic(a, b, bindings, visited)
	case hir.ErrorType:
		return nil // error type unifies with anything to avoid cascading diagnostics
	default:
		return mismatch(a, b, "unsupported type in unification")
	}
}

func bindVar(cell *hir.Cell, t hir.Type, bindings hir.TypeBindings) error {
	if tv, ok := t.(hir.TypeVariable); ok && tv.Var == cell {
		return nil
	}
	if occurs(cell, t, bindings) {
		return mismatch(hir.TypeVariable{Var: cell}, t, "infinite type")
	}
	if !cell.K.Unifies(hir.KindOf(t)) {
		return mismatch(hir.TypeVariable{Var: cell}, t, "kind mismatch")
	}
	bindings[cell.Id] = hir.Binding{Cell: cell, Kind: cell.K, Type: t}
	return nil
}

func occurs(cell *hir.Cell, t hir.Type, bindings hir.TypeBindings) bool {
	t = hir.Resolve(t, bindings)
	switch t := t.(type) {
	case hir.TypeVariable:
		return t.Var == cell
	case hir.NamedGeneric:
		return t.Var == cell
	case hir.Array:
		return occurs(cell, t.Len, bindings) || occurs(cell, t.Elem, bindings)
	case hir.Slice:
		return occurs(cell, t.Elem, bindings)
	case hir.Tuple:
		for _, e := range t.Elems {
			if occurs(cell, e, bindings) {
				return true
			}
		}
		return false
	case hir.DataTypeRef:
		for _, g := range t.Generics {
			if occurs(cell, g, bindings) {
				return true
			}
		}
		return false
	case hir.Function:
		for _, a := range t.Args {
			if occurs(cell, a, bindings) {
				return true
			}
		}
		return occurs(cell, t.Ret, bindings)
	case hir.Reference:
		return occurs(cell, t.Elem, bindings)
	default:
		return false
	}
}
