package types

import "github.com/latticec/zkmid/internal/hir"

import "testing"

func TestUnifyConcreteTypesMatch(t *testing.T) {
	tests := []struct {
		name    string
		a, b    hir.Type
		wantErr bool
	}{
		{"bool/bool", hir.Bool{}, hir.Bool{}, false},
		{"u32/u32", hir.Integer{Signedness: hir.Unsigned, Bits: 32}, hir.Integer{Signedness: hir.Unsigned, Bits: 32}, false},
		{"u32/i32", hir.Integer{Signedness: hir.Unsigned, Bits: 32}, hir.Integer{Signedness: hir.Signed, Bits: 32}, true},
		{"bool/u32", hir.Bool{}, hir.Integer{Signedness: hir.Unsigned, Bits: 32}, true},
		{"field/field", hir.FieldElement{}, hir.FieldElement{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TryUnify(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Errorf("TryUnify(%v, %v) error = %v, wantErr %v", tt.a, tt.b, err, tt.wantErr)
			}
		})
	}
}

func TestUnifyBindsTypeVariable(t *testing.T) {
	cell := hir.NewCell(1, hir.KindNormal{})
	tv := hir.TypeVariable{Var: cell}

	bindings, err := TryUnify(tv, hir.Bool{})
	if err != nil {
		t.Fatalf("TryUnify(tv, Bool) = %v, want nil error", err)
	}
	bind, ok := bindings[cell.Id]
	if !ok {
		t.Fatalf("no binding recorded for type variable")
	}
	if _, ok := bind.Type.(hir.Bool); !ok {
		t.Errorf("bound type = %v, want Bool{}", bind.Type)
	}
}

func TestUnifyOccursCheckRejectsInfiniteType(t *testing.T) {
	cell := hir.NewCell(1, hir.KindNormal{})
	tv := hir.TypeVariable{Var: cell}
	selfReferential := hir.Array{Len: hir.Constant{Value: 1, K: hir.KindInteger{}}, Elem: tv}

	if _, err := TryUnify(tv, selfReferential); err == nil {
		t.Errorf("TryUnify(tv, [tv; 1]) = nil error, want occurs-check failure")
	}
}

func TestUnifyTupleArityMismatch(t *testing.T) {
	a := hir.Tuple{Elems: []hir.Type{hir.Bool{}, hir.Bool{}}}
	b := hir.Tuple{Elems: []hir.Type{hir.Bool{}}}
	if _, err := TryUnify(a, b); err == nil {
		t.Errorf("TryUnify with mismatched tuple arity = nil error, want error")
	}
}

func TestTryUnifyDoesNotInstallBindings(t *testing.T) {
	cell := hir.NewCell(1, hir.KindNormal{})
	tv := hir.TypeVariable{Var: cell}

	if _, err := TryUnify(tv, hir.Bool{}); err != nil {
		t.Fatalf("TryUnify failed: %v", err)
	}
	if !cell.IsUnbound() {
		t.Errorf("cell bound after TryUnify; TryUnify must not install bindings")
	}
}

func TestUnifyInstallsBindings(t *testing.T) {
	cell := hir.NewCell(1, hir.KindNormal{})
	tv := hir.TypeVariable{Var: cell}

	if err := Unify(tv, hir.Bool{}); err != nil {
		t.Fatalf("Unify failed: %v", err)
	}
	if cell.IsUnbound() {
		t.Errorf("cell still unbound after Unify; Unify must install bindings")
	}
}
