package types

import (
	"fmt"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/interner"
)

// MethodResolutionError is returned when no method of the given name is
// found on a receiver through any of the resolution steps below.
type MethodResolutionError struct {
	Receiver hir.Type
	Name     string
}

func (e *MethodResolutionError) Error() string {
	return fmt.Sprintf("no method %q found for type %s", e.Name, e.Receiver)
}

// LookupMethod implements spec.md §4.2's method resolution order:
//  1. Dereference the receiver through any number of `&`/`&mut` layers.
//  2. Look for an inherent (non-trait) method of this name.
//  3. Look for a concrete trait impl method of this name registered under
//     the receiver's shape (interner.KeyOf). Candidates are matched by shape
//     only: the impl's ObjectType is not unified against the receiver and
//     no bindings are collected.
//  4. If more than one trait impl matches, prefer the one whose trait is
//     already in scope via an explicit where-clause bound on the caller
//     (callerBounds); otherwise it is an ambiguous-method error.
//  5. If nothing concrete matched but the receiver is itself a generic
//     bound by a where-clause naming a trait with this method, resolve to
//     an Assumed impl kind — the monomorphizer fills in the concrete impl
//     once the caller is specialized.
//  6. Otherwise fail.
func LookupMethod(n *interner.NodeInterner, receiver hir.Type, name string, callerBounds []hir.WhereClauseItem) (*hir.ResolvedMethod, error) {
	receiver = dereference(receiver)

	if fn, ok := n.Methods().LookupDirectMethod(receiver, name); ok {
		return &hir.ResolvedMethod{Func: fn}, nil
	}

	candidates := n.Methods().LookupTraitMethods(receiver, name)
	if len(candidates) == 1 {
		return &hir.ResolvedMethod{Func: candidates[0]}, nil
	}
	if len(candidates) > 1 {
		if chosen, ok := disambiguateByCallerBounds(n, candidates, callerBounds); ok {
			return &hir.ResolvedMethod{Func: chosen}, nil
		}
		return nil, fmt.Errorf("ambiguous method %q on type %s: %d candidate trait impls", name, receiver, len(candidates))
	}

	for _, traitId := range n.Methods().LookupGenericMethods(receiver) {
		if trait, ok := n.Trait(traitId); ok {
			if _, hasMethod := trait.MethodName(firstMethodOf(trait, name)); hasMethod {
				kind := hir.AssumedImplKind(receiver, traitId, nil)
				return &hir.ResolvedMethod{Impl: &kind}, nil
			}
		}
	}

	return nil, &MethodResolutionError{Receiver: receiver, Name: name}
}

func dereference(t hir.Type) hir.Type {
	for {
		ref, ok := t.(hir.Reference)
		if !ok {
			return t
		}
		t = ref.Elem
	}
}

// disambiguateByCallerBounds picks the single candidate whose originating
// impl's trait also appears in the caller's own where-clause, matching
// spec.md §4.2's rule that an in-scope bound breaks ties over an ambient
// inherent impl elsewhere in the program.
func disambiguateByCallerBounds(n *interner.NodeInterner, candidates []hir.FuncId, callerBounds []hir.WhereClauseItem) (hir.FuncId, bool) {
	if len(callerBounds) == 0 {
		return 0, false
	}
	boundTraits := make(map[hir.TraitId]bool, len(callerBounds))
	for _, b := range callerBounds {
		boundTraits[b.TraitId] = true
	}
	var match hir.FuncId
	count := 0
	for _, fn := range candidates {
		if funcBelongsToAnyTrait(n, fn, boundTraits) {
			match = fn
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return 0, false
}

func funcBelongsToAnyTrait(n *interner.NodeInterner, fn hir.FuncId, traits map[hir.TraitId]bool) bool {
	for t := range traits {
		if trait, ok := n.Trait(t); ok {
			if _, ok := trait.MethodName(fn); ok {
				return true
			}
		}
	}
	return false
}

func firstMethodOf(trait *hir.Trait, name string) hir.FuncId {
	for i, n := range trait.MethodNames {
		if n == name {
			return trait.Methods[i]
		}
	}
	return 0
}
