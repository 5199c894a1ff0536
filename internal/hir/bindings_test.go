package hir

import "testing"

func TestSubstituteReplacesBoundVariable(t *testing.T) {
	cell := NewCell(1, KindNormal{})
	tv := TypeVariable{Var: cell}
	b := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Bool{}}}

	got := Substitute(tv, b)
	if _, ok := got.(Bool); !ok {
		t.Errorf("Substitute(tv, b) = %v, want Bool{}", got)
	}
}

func TestSubstituteLeavesUnboundVariableAlone(t *testing.T) {
	cell := NewCell(1, KindNormal{})
	tv := TypeVariable{Var: cell}

	got := Substitute(tv, NewTypeBindings())
	if got != Type(tv) {
		t.Errorf("Substitute(tv, {}) = %v, want unchanged %v", got, tv)
	}
}

func TestSubstituteRecursesIntoContainerTypes(t *testing.T) {
	cell := NewCell(1, KindNormal{})
	b := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Integer{Signedness: Unsigned, Bits: 32}}}

	tup := Tuple{Elems: []Type{TypeVariable{Var: cell}, Bool{}}}
	got := Substitute(tup, b).(Tuple)
	if _, ok := got.Elems[0].(Integer); !ok {
		t.Errorf("Substitute did not recurse into tuple element: got %v", got.Elems[0])
	}
	if _, ok := got.Elems[1].(Bool); !ok {
		t.Errorf("Substitute corrupted unrelated tuple element: got %v", got.Elems[1])
	}
}

func TestMergeRejectsConflictingBindings(t *testing.T) {
	cell := NewCell(1, KindNormal{})
	a := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Bool{}}}
	other := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Integer{Signedness: Unsigned, Bits: 32}}}

	if err := a.Merge(other); err == nil {
		t.Errorf("Merge() with conflicting types = nil error, want ConflictingBindingError")
	}
}

func TestMergeAllowsIdenticalRebinding(t *testing.T) {
	cell := NewCell(1, KindNormal{})
	a := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Bool{}}}
	other := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Bool{}}}

	if err := a.Merge(other); err != nil {
		t.Errorf("Merge() with identical rebinding = %v, want nil", err)
	}
}

func TestPerformAndUndoInstantiationBindingsRoundTrips(t *testing.T) {
	cell := NewCell(1, KindNormal{})
	b := TypeBindings{cell.Id: {Cell: cell, Kind: KindNormal{}, Type: Bool{}}}

	PerformInstantiationBindings(b)
	if !cell.IsUnbound() {
		if _, ok := cell.binding.(Bool); !ok {
			t.Errorf("cell bound to %v after Perform, want Bool{}", cell.binding)
		}
	} else {
		t.Errorf("cell still unbound after PerformInstantiationBindings")
	}

	UndoInstantiationBindings(b)
	if !cell.IsUnbound() {
		t.Errorf("cell still bound after UndoInstantiationBindings")
	}
}
