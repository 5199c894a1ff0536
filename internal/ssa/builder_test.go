package ssa

import (
	"testing"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/monoast"
)

func addFunc() *monoast.Func {
	u8 := hir.Integer{Signedness: hir.Unsigned, Bits: 8}
	return &monoast.Func{
		Name:       "checked_add",
		ReturnType: u8,
		Params: []monoast.Param{
			{Local: 0, Type: u8},
			{Local: 1, Type: u8},
		},
		Body: monoast.Expr{
			Type: u8,
			Kind: monoast.Binary{
				Lhs: monoast.Expr{Type: u8, Kind: monoast.Ident{Local: 0}},
				Op:  hir.OpArithAdd,
				Rhs: monoast.Expr{Type: u8, Kind: monoast.Ident{Local: 1}},
			},
		},
	}
}

// mutArrayFunc builds `fn f(mut a: [u8; 2]) -> [u8; 2] { a[0] = 1u8; a }`,
// exercising the ArraySet/Mutable path of spec.md §4.5: `a` is declared
// `mut` and never aliased, so the write must be in place (Mutable = true)
// and must re-point `a`'s own binding at the ArraySet's result.
func mutArrayFunc() *monoast.Func {
	u8 := hir.Integer{Signedness: hir.Unsigned, Bits: 8}
	arrType := hir.Array{Len: hir.Constant{Value: 2, K: hir.KindInteger{}}, Elem: u8}
	aIdent := monoast.Expr{Type: arrType, Kind: monoast.Ident{Local: 0}}
	return &monoast.Func{
		Name:       "set_first",
		ReturnType: arrType,
		Params: []monoast.Param{
			{Local: 0, Mutable: true, Type: arrType},
		},
		Body: monoast.Expr{
			Type: arrType,
			Kind: monoast.Block{Statements: []monoast.Stmt{
				{Expr: &monoast.Expr{
					Type: arrType,
					Kind: monoast.Assign{
						Target: monoast.Expr{Type: u8, Kind: monoast.Index{
							Collection: aIdent,
							Index:      monoast.Expr{Type: u8, Kind: monoast.Literal{Value: hir.IntLit(0)}},
						}},
						Value: monoast.Expr{Type: u8, Kind: monoast.Literal{Value: hir.IntLit(1)}},
					},
				}},
				{Expr: &aIdent},
			}},
		},
	}
}

func TestBuildEmitsInPlaceArraySetForUniquelyOwnedMutableLocal(t *testing.T) {
	fn, err := Build(mutArrayFunc())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := fn.Blocks[0]

	var set ArraySet
	found := false
	for _, inst := range entry.Instructions {
		if s, ok := inst.Op.(ArraySet); ok {
			set = s
			found = true
		}
	}
	if !found {
		t.Fatalf("no ArraySet instruction emitted: %+v", entry.Instructions)
	}
	if !set.Mutable {
		t.Errorf("ArraySet.Mutable = false, want true for a uniquely-owned `mut` local")
	}

	ret, ok := entry.Terminator.(Return)
	if !ok {
		t.Fatalf("terminator = %T, want Return", entry.Terminator)
	}
	if len(ret.Values) != 1 {
		t.Fatalf("Return.Values = %v, want exactly one value", ret.Values)
	}
	// the tail `a` must resolve to the ArraySet's own result, not the stale
	// pre-write binding, since lowerArraySet re-points the local.
	var setResult ValueId
	for _, inst := range entry.Instructions {
		if _, ok := inst.Op.(ArraySet); ok {
			setResult = inst.Result
		}
	}
	if ret.Values[0] != setResult {
		t.Errorf("tail value = %d, want the ArraySet result %d (local should be re-pointed)", ret.Values[0], setResult)
	}
}

// aliasArrayFunc builds `fn f(a: [u8; 2]) -> [u8; 2] { let b = a; b }`,
// exercising spec.md §4.5's ref-count discipline: binding an array-typed
// value to a second local via a bare alias must IncrementRc it.
func aliasArrayFunc() *monoast.Func {
	u8 := hir.Integer{Signedness: hir.Unsigned, Bits: 8}
	arrType := hir.Array{Len: hir.Constant{Value: 2, K: hir.KindInteger{}}, Elem: u8}
	return &monoast.Func{
		Name:       "alias_array",
		ReturnType: arrType,
		Params: []monoast.Param{
			{Local: 0, Type: arrType},
		},
		Body: monoast.Expr{
			Type: arrType,
			Kind: monoast.Block{Statements: []monoast.Stmt{
				{IsLet: true, Let: &monoast.Let{
					Local: 1, Type: arrType,
					Value: monoast.Expr{Type: arrType, Kind: monoast.Ident{Local: 0}},
				}},
				{Expr: &monoast.Expr{Type: arrType, Kind: monoast.Ident{Local: 1}}},
			}},
		},
	}
}

func TestBuildIncrementsRcWhenAnArrayIsAliasedByASecondLocal(t *testing.T) {
	fn, err := Build(aliasArrayFunc())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := fn.Blocks[0]
	found := false
	for _, inst := range entry.Instructions {
		if _, ok := inst.Op.(IncrementRc); ok {
			found = true
		}
	}
	if !found {
		t.Errorf("no IncrementRc emitted for `let b = a` aliasing an array param: %+v", entry.Instructions)
	}
}

func TestBuildLowersParamsThenBinaryThenImplicitReturn(t *testing.T) {
	fn, err := Build(addFunc())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1 (no control flow in this function)", len(fn.Blocks))
	}
	entry := fn.Blocks[0]
	if len(entry.Instructions) != 3 {
		t.Fatalf("got %d instructions, want 3 (2 params + 1 binary op): %+v", len(entry.Instructions), entry.Instructions)
	}
	if _, ok := entry.Instructions[0].Op.(Param); !ok {
		t.Errorf("instruction 0 = %T, want Param", entry.Instructions[0].Op)
	}
	if _, ok := entry.Instructions[1].Op.(Param); !ok {
		t.Errorf("instruction 1 = %T, want Param", entry.Instructions[1].Op)
	}
	binOp, ok := entry.Instructions[2].Op.(BinaryOp)
	if !ok {
		t.Fatalf("instruction 2 = %T, want BinaryOp", entry.Instructions[2].Op)
	}
	if !binOp.Checked {
		t.Errorf("integer add lowered with Checked = false, want true")
	}

	ret, ok := entry.Terminator.(Return)
	if !ok {
		t.Fatalf("terminator = %T, want Return", entry.Terminator)
	}
	if len(ret.Values) != 1 || ret.Values[0] != entry.Instructions[2].Result {
		t.Errorf("Return.Values = %v, want [%d] (the binary op's result)", ret.Values, entry.Instructions[2].Result)
	}
}

// sliceFunc builds `fn grow(s: [[u32;2]], x: [u32;2]) -> [[u32;2]] {
// s.push_back(x) }` directly at the monoast level via the tagged call name
// internal/mono's lowering produces, exercising spec.md §8 scenario 6.
func sliceFunc() *monoast.Func {
	u32 := hir.Integer{Signedness: hir.Unsigned, Bits: 32}
	elem := hir.Array{Len: hir.Constant{Value: 2, K: hir.KindInteger{}}, Elem: u32}
	sliceType := hir.Slice{Elem: elem}
	return &monoast.Func{
		Name:       "grow",
		ReturnType: sliceType,
		Params: []monoast.Param{
			{Local: 0, Type: sliceType},
			{Local: 1, Type: elem},
		},
		Body: monoast.Expr{
			Type: sliceType,
			Kind: monoast.Call{
				Func: "__slice_push_back",
				Args: []monoast.Expr{
					{Type: sliceType, Kind: monoast.Ident{Local: 0}},
					{Type: elem, Kind: monoast.Ident{Local: 1}},
				},
			},
		},
	}
}

func TestBuildLowersSlicePushBackWithElementSizeFromPushedValue(t *testing.T) {
	fn, err := Build(sliceFunc())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := fn.Blocks[0]

	var intrinsic SliceIntrinsic
	found := false
	for _, inst := range entry.Instructions {
		if s, ok := inst.Op.(SliceIntrinsic); ok {
			intrinsic = s
			found = true
		}
	}
	if !found {
		t.Fatalf("no SliceIntrinsic emitted: %+v", entry.Instructions)
	}
	if intrinsic.Op != SlicePushBack {
		t.Errorf("Op = %v, want SlicePushBack", intrinsic.Op)
	}
	// the pushed value is a [u32; 2] array: 2 flattened words.
	if intrinsic.ElementSize != 2 {
		t.Errorf("ElementSize = %d, want 2 (element-size-2 slice, spec.md §8 scenario 6)", intrinsic.ElementSize)
	}
}

// fieldLtFunc builds `fn f(a: Field, b: Field) -> bool { a < b }`.
func fieldLtFunc() *monoast.Func {
	field := hir.FieldElement{}
	return &monoast.Func{
		Name:       "field_lt",
		ReturnType: hir.Bool{},
		Params: []monoast.Param{
			{Local: 0, Type: field},
			{Local: 1, Type: field},
		},
		Body: monoast.Expr{
			Type: hir.Bool{},
			Kind: monoast.Binary{
				Lhs: monoast.Expr{Type: field, Kind: monoast.Ident{Local: 0}},
				Op:  hir.OpLt,
				Rhs: monoast.Expr{Type: field, Kind: monoast.Ident{Local: 1}},
			},
		},
	}
}

// TestBuildLowersFieldLessThanInsteadOfNativeCompareOpcode exercises
// spec.md §4.4's is_field dispatch: comparing two Field values must never
// reach the native BinaryOp path, since Field has no native ordering.
func TestBuildLowersFieldLessThanInsteadOfNativeCompareOpcode(t *testing.T) {
	fn, err := Build(fieldLtFunc())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	entry := fn.Blocks[0]
	found := false
	for _, inst := range entry.Instructions {
		if _, ok := inst.Op.(BinaryOp); ok {
			t.Errorf("got a native BinaryOp for a Field comparison: %+v", inst)
		}
		if _, ok := inst.Op.(FieldLessThan); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("no FieldLessThan emitted: %+v", entry.Instructions)
	}
}
