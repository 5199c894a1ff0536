package types

import (
	"fmt"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/interner"
)

// MaxImplSearchDepth bounds recursive impl search (a where-clause requiring
// `T: Foo` whose only impl requires `U: Foo` where U also needs resolving,
// and so on). Grounded on symbol_table_implementations.go's
// RegisterImplementation overlap check, which renames and re-unifies
// candidate instances one level at a time; we generalize that single-level
// check into a budgeted recursive search because spec.md §4.1 requires
// resolving an impl's own where-clause, not just its object type.
// Exposed as a var, not a const, so driver.PipelineConfig's
// impl_search_budget can override it for one compilation run.
var MaxImplSearchDepth = 10

type ImplSearchError struct {
	Trait  hir.TraitId
	Object hir.Type
}

func (e *ImplSearchError) Error() string {
	return fmt.Sprintf("no implementation of trait %d found for type %s", e.Trait, e.Object)
}

// MultipleMatchingError is spec.md §4.2 step 5's ambiguity outcome: more
// than one candidate impl's where-clause was satisfied simultaneously, so
// no single choice can be made without the caller disambiguating (spec.md
// §4.2's caller-bound disambiguation only applies to method calls, not raw
// impl search).
type MultipleMatchingError struct {
	Trait      hir.TraitId
	Object     hir.Type
	Candidates []hir.TraitImplId
}

func (e *MultipleMatchingError) Error() string {
	return fmt.Sprintf("multiple matching implementations of trait %d for type %s: %v", e.Trait, e.Object, e.Candidates)
}

// TypeAnnotationsNeededError is spec.md §4.2 step 2's indicator error: the
// object type is still a bindable type variable, so impl search has
// nothing concrete to unify against. Callers may upgrade it to a hard error
// once a defaulting pass has run (spec.md §7).
type TypeAnnotationsNeededError struct {
	Trait  hir.TraitId
	Object hir.Type
}

func (e *TypeAnnotationsNeededError) Error() string {
	return fmt.Sprintf("type annotations needed: cannot resolve implementation of trait %d for %s", e.Trait, e.Object)
}

// LookupTraitImplementation searches the interner for a concrete impl of
// traitId for objectType, recursively checking the chosen impl's own
// where-clause. Returns the impl id and the bindings that made the object
// type match (callers install these via hir.PerformInstantiationBindings
// once they decide to commit to the match).
func LookupTraitImplementation(n *interner.NodeInterner, objectType hir.Type, traitId hir.TraitId, traitGenerics []Type) (hir.TraitImplId, hir.TypeBindings, error) {
	return lookupTraitImplementationHelper(n, objectType, traitId, traitGenerics, 0)
}

// Type is re-exported locally to keep the signature above readable; it is
// simply hir.Type.
type Type = hir.Type

// candidateMatch pairs a surviving impl with the bindings its unification
// produced, spec.md §4.2 step 5's aggregation unit.
type candidateMatch struct {
	implId   hir.TraitImplId
	bindings hir.TypeBindings
}

func lookupTraitImplementationHelper(n *interner.NodeInterner, objectType hir.Type, traitId hir.TraitId, traitGenerics []Type, depth int) (hir.TraitImplId, hir.TypeBindings, error) {
	if depth > MaxImplSearchDepth {
		return 0, nil, &ImplSearchError{Trait: traitId, Object: objectType}
	}
	if depth == 0 {
		if _, isVar := objectType.(hir.TypeVariable); isVar {
			return 0, nil, &TypeAnnotationsNeededError{Trait: traitId, Object: objectType}
		}
	}

	var matches []candidateMatch
	for _, implId := range n.ImplsForTrait(traitId) {
		impl, ok := n.TraitImpl(implId)
		if !ok {
			continue
		}
		fresh := instantiateImplGenerics(impl)
		candidateObject := hir.Substitute(impl.ObjectType, fresh)

		bindings, err := TryUnify(objectType, candidateObject)
		if err != nil {
			continue
		}
		if len(traitGenerics) == len(impl.OrderedTraitGenerics) {
			ok := true
			for i, g := range impl.OrderedTraitGenerics {
				sub, err := TryUnify(traitGenerics[i], hir.Substitute(g, fresh))
				if err != nil || bindings.Merge(sub) != nil {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}

		if satisfiesWhereClause(n, impl.WhereClause, bindings, depth) {
			matches = append(matches, candidateMatch{implId: impl.Id, bindings: bindings})
		}
	}

	switch len(matches) {
	case 0:
		return 0, nil, &ImplSearchError{Trait: traitId, Object: objectType}
	case 1:
		return matches[0].implId, matches[0].bindings, nil
	default:
		ids := make([]hir.TraitImplId, len(matches))
		for i, m := range matches {
			ids[i] = m.implId
		}
		return 0, nil, &MultipleMatchingError{Trait: traitId, Object: objectType, Candidates: ids}
	}
}

func instantiateImplGenerics(impl *hir.TraitImpl) hir.TypeBindings {
	b := hir.NewTypeBindings()
	for _, g := range impl.Generics {
		fresh := hir.NewCell(g.Var.Id, g.K)
		b[g.Var.Id] = hir.Binding{Cell: g.Var, Kind: g.K, Type: hir.TypeVariable{Var: fresh}}
	}
	return b
}

func satisfiesWhereClause(n *interner.NodeInterner, clause []hir.WhereClauseItem, bindings hir.TypeBindings, depth int) bool {
	for _, item := range clause {
		objType := hir.Substitute(item.ObjectType, bindings)
		generics := make([]hir.Type, len(item.TraitGenerics))
		for i, g := range item.TraitGenerics {
			generics[i] = hir.Substitute(g, bindings)
		}
		if _, ok := objType.(hir.TypeVariable); ok {
			// Still generic at this point: treated as assumed-satisfied,
			// matching the Assumed trait-impl-kind semantics (spec.md §4.1) —
			// the monomorphizer re-checks this once the variable is bound.
			continue
		}
		if _, _, err := lookupTraitImplementationHelper(n, objType, item.TraitId, generics, depth+1); err != nil {
			return false
		}
	}
	return true
}
