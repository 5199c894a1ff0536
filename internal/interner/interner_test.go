package interner

import (
	"testing"

	"github.com/latticec/zkmid/internal/hir"
)

func TestImplsForTraitIsDeterministic(t *testing.T) {
	n := New()
	const traitId hir.TraitId = 1

	for i := 1; i <= 20; i++ {
		impl := &hir.TraitImpl{
			Id:         hir.TraitImplId(i),
			TraitId:    traitId,
			ObjectType: hir.Integer{Signedness: hir.Unsigned, Bits: uint8(8 + i)},
		}
		n.traitImpls[impl.Id] = impl
	}

	first := n.ImplsForTrait(traitId)
	for attempt := 0; attempt < 5; attempt++ {
		got := n.ImplsForTrait(traitId)
		if len(got) != len(first) {
			t.Fatalf("ImplsForTrait returned %d impls, want %d", len(got), len(first))
		}
		for i := range got {
			if got[i] != first[i] {
				t.Errorf("ImplsForTrait order changed between calls: %v vs %v", first, got)
				break
			}
		}
	}

	for i, id := range first {
		if i > 0 && id <= first[i-1] {
			t.Errorf("ImplsForTrait not ascending by id: %v", first)
			break
		}
	}
}

func TestImplsForTraitFiltersByTrait(t *testing.T) {
	n := New()
	n.traitImpls[1] = &hir.TraitImpl{Id: 1, TraitId: 10, ObjectType: hir.Bool{}}
	n.traitImpls[2] = &hir.TraitImpl{Id: 2, TraitId: 20, ObjectType: hir.Bool{}}
	n.traitImpls[3] = &hir.TraitImpl{Id: 3, TraitId: 10, ObjectType: hir.Integer{Signedness: hir.Unsigned, Bits: 32}}

	got := n.ImplsForTrait(10)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("ImplsForTrait(10) = %v, want [1 3]", got)
	}
}

func TestAddTraitImplementationRejectsOverlap(t *testing.T) {
	n := New()
	const traitId hir.TraitId = 1

	first := &hir.TraitImpl{Id: 1, TraitId: traitId, ObjectType: hir.Bool{}, MethodNames: map[string]hir.FuncId{}}
	if err := n.AddTraitImplementation(first); err != nil {
		t.Fatalf("first AddTraitImplementation failed: %v", err)
	}

	second := &hir.TraitImpl{Id: 2, TraitId: traitId, ObjectType: hir.Bool{}, MethodNames: map[string]hir.FuncId{}}
	if err := n.AddTraitImplementation(second); err == nil {
		t.Errorf("AddTraitImplementation with overlapping object type = nil error, want OverlappingImplError")
	}
}

func TestAddTraitImplementationAllowsDisjointObjectTypes(t *testing.T) {
	n := New()
	const traitId hir.TraitId = 1

	boolImpl := &hir.TraitImpl{Id: 1, TraitId: traitId, ObjectType: hir.Bool{}, MethodNames: map[string]hir.FuncId{}}
	intImpl := &hir.TraitImpl{Id: 2, TraitId: traitId, ObjectType: hir.Integer{Signedness: hir.Unsigned, Bits: 32}, MethodNames: map[string]hir.FuncId{}}

	if err := n.AddTraitImplementation(boolImpl); err != nil {
		t.Fatalf("AddTraitImplementation(bool) failed: %v", err)
	}
	if err := n.AddTraitImplementation(intImpl); err != nil {
		t.Errorf("AddTraitImplementation(u32) after bool impl = %v, want nil", err)
	}
}

func TestAllGlobalsAndAllFuncsAreSortedById(t *testing.T) {
	n := New()
	n.PushGlobal(&hir.Global{Id: 3})
	n.PushGlobal(&hir.Global{Id: 1})
	n.PushGlobal(&hir.Global{Id: 2})

	globals := n.AllGlobals()
	for i, g := range globals {
		if int(g.Id) != i+1 {
			t.Errorf("AllGlobals()[%d].Id = %d, want %d", i, g.Id, i+1)
		}
	}

	n.PushFunc(&hir.FuncMeta{Id: 5, Name: "e"})
	n.PushFunc(&hir.FuncMeta{Id: 4, Name: "d"})
	funcs := n.AllFuncs()
	if len(funcs) != 2 || funcs[0].Id != 4 || funcs[1].Id != 5 {
		t.Errorf("AllFuncs() = %v, want ascending by id", funcs)
	}
}
