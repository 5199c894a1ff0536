package bytecode

import (
	"strings"
	"testing"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/ssa"
)

func addFunction() *ssa.Function {
	u8 := hir.Integer{Signedness: hir.Unsigned, Bits: 8}
	fn := &ssa.Function{Name: "checked_add", ParamTypes: []hir.Type{u8, u8}, ReturnType: u8}
	x := ssa.Instruction{Result: 0, Type: u8, Op: ssa.Param{Index: 0}}
	y := ssa.Instruction{Result: 1, Type: u8, Op: ssa.Param{Index: 1}}
	sum := ssa.Instruction{Result: 2, Type: u8, Op: ssa.BinaryOp{Lhs: 0, Rhs: 1, Op: hir.OpArithAdd, Checked: true}}
	block := &ssa.Block{
		Id:           0,
		Instructions: []ssa.Instruction{x, y, sum},
		Terminator:   ssa.Return{Values: []ssa.ValueId{2}},
	}
	fn.Blocks = []*ssa.Block{block}
	fn.Entry = 0
	return fn
}

func signedBinaryFunction(name string, op hir.BinaryOp) *ssa.Function {
	i8 := hir.Integer{Signedness: hir.Signed, Bits: 8}
	fn := &ssa.Function{Name: name, ParamTypes: []hir.Type{i8, i8}, ReturnType: i8}
	x := ssa.Instruction{Result: 0, Type: i8, Op: ssa.Param{Index: 0}}
	y := ssa.Instruction{Result: 1, Type: i8, Op: ssa.Param{Index: 1}}
	result := ssa.Instruction{Result: 2, Type: i8, Op: ssa.BinaryOp{Lhs: 0, Rhs: 1, Op: op}}
	fn.Blocks = []*ssa.Block{{
		Id:           0,
		Instructions: []ssa.Instruction{x, y, result},
		Terminator:   ssa.Return{Values: []ssa.ValueId{2}},
	}}
	fn.Entry = 0
	return fn
}

// TestGenerateExpandsSignedLessThan checks spec.md §4.4's bias trick: both
// operands are biased by 2^(n-1) before the VM's (unsigned) LT opcode runs.
func TestGenerateExpandsSignedLessThan(t *testing.T) {
	chunk, err := Generate(signedBinaryFunction("signed_lt", hir.OpLt))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "signed_lt")
	if !strings.Contains(listing, "ADD") {
		t.Errorf("disassembly missing the bias ADD:\n%s", listing)
	}
	if !strings.Contains(listing, "LT") {
		t.Errorf("disassembly missing the biased LT:\n%s", listing)
	}
}

// TestGenerateExpandsSignedDivAndMod checks spec.md §4.4's sign/magnitude
// expansion for signed divide and the a - (a/b)*b modulo formula built on it.
func TestGenerateExpandsSignedDivAndMod(t *testing.T) {
	div, err := Generate(signedBinaryFunction("signed_div", hir.OpArithDiv))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	divListing := Disassemble(div, "signed_div")
	for _, want := range []string{"SHR", "BXOR", "SUB", "DIV"} {
		if !strings.Contains(divListing, want) {
			t.Errorf("signed div disassembly missing %s:\n%s", want, divListing)
		}
	}

	mod, err := Generate(signedBinaryFunction("signed_mod", hir.OpArithMod))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	modListing := Disassemble(mod, "signed_mod")
	if !strings.Contains(modListing, "MUL") {
		t.Errorf("signed mod disassembly missing the MUL in a - (a/b)*b:\n%s", modListing)
	}
}

// TestGenerateEmitsCheckedAddOpcode checks spec.md §4.4/scenario 4's exact
// expansion: checked add is the plain ADD plus a LessThanEquals(x, result,
// cond) and a Constrain on cond carrying the overflow message, not a single
// opaque opcode.
func TestGenerateEmitsCheckedAddOpcode(t *testing.T) {
	chunk, err := Generate(addFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	listing := Disassemble(chunk, "checked_add")
	if !strings.Contains(listing, "ADD") {
		t.Errorf("disassembly missing the underlying ADD:\n%s", listing)
	}
	if !strings.Contains(listing, "LE") {
		t.Errorf("disassembly missing the overflow comparison:\n%s", listing)
	}
	if !strings.Contains(listing, "CONSTRAIN") {
		t.Errorf("disassembly missing the overflow CONSTRAIN:\n%s", listing)
	}
	if !strings.Contains(listing, "attempt to add with overflow") {
		t.Errorf("disassembly missing the overflow message:\n%s", listing)
	}
}

func TestGenerateAllocatesThreeRegisters(t *testing.T) {
	chunk, err := Generate(addFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if chunk.NumRegisters < 3 {
		t.Errorf("NumRegisters = %d, want at least 3 (two params plus the sum)", chunk.NumRegisters)
	}
}

func TestGenerateEndsWithReturnOfSumRegister(t *testing.T) {
	chunk, err := Generate(addFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "checked_add")
	if !strings.Contains(listing, "RETURN           r2\n") {
		t.Errorf("disassembly missing RETURN of the sum register r2:\n%s", listing)
	}
}

func TestDisassembleHeaderNamesFunction(t *testing.T) {
	chunk, err := Generate(addFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "checked_add")
	if !strings.HasPrefix(listing, "== checked_add ==\n") {
		t.Errorf("listing header = %q, want prefix %q", listing, "== checked_add ==\n")
	}
}

func TestBranchingFunctionPatchesJumpTargets(t *testing.T) {
	u8 := hir.Integer{Signedness: hir.Unsigned, Bits: 8}
	boolT := hir.Bool{}
	fn := &ssa.Function{Name: "pick", ParamTypes: []hir.Type{boolT, u8, u8}, ReturnType: u8}

	entry := &ssa.Block{
		Id: 0,
		Instructions: []ssa.Instruction{
			{Result: 0, Type: boolT, Op: ssa.Param{Index: 0}},
			{Result: 1, Type: u8, Op: ssa.Param{Index: 1}},
			{Result: 2, Type: u8, Op: ssa.Param{Index: 2}},
		},
		Terminator: ssa.Branch{Cond: 0, Then: 1, Else: 2},
	}
	thenBlock := &ssa.Block{
		Id:           1,
		Instructions: []ssa.Instruction{{Result: 3, Type: u8, Op: ssa.UnaryOp{Op: hir.OpNeg, Rhs: 1}}},
		Terminator:   ssa.Jump{Target: 3},
	}
	elseBlock := &ssa.Block{
		Id:           2,
		Instructions: []ssa.Instruction{{Result: 4, Type: u8, Op: ssa.UnaryOp{Op: hir.OpNeg, Rhs: 2}}},
		Terminator:   ssa.Jump{Target: 3},
	}
	join := &ssa.Block{
		Id:           3,
		Instructions: []ssa.Instruction{{Result: 5, Type: u8, Op: ssa.Phi{Then: 3, Else: 4}}},
		Terminator:   ssa.Return{Values: []ssa.ValueId{5}},
	}
	fn.Blocks = []*ssa.Block{entry, thenBlock, elseBlock, join}
	fn.Entry = 0

	chunk, err := Generate(fn)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "pick")
	if strings.Contains(listing, "-> 0\n") {
		t.Errorf("found an unpatched jump target (still 0):\n%s", listing)
	}
	if !strings.Contains(listing, "MOVE") {
		t.Errorf("expected a phi-feeding MOVE in the branch arms:\n%s", listing)
	}
}

// sliceGrowFunction builds a single SliceIntrinsic push_back instruction on
// a slice value already split into its (length, data) tuple.
func sliceGrowFunction() *ssa.Function {
	u32 := hir.Integer{Signedness: hir.Unsigned, Bits: 32}
	elem := hir.Array{Len: hir.Constant{Value: 2, K: hir.KindInteger{}}, Elem: u32}
	sliceType := hir.Slice{Elem: elem}
	fn := &ssa.Function{Name: "grow", ParamTypes: []hir.Type{sliceType, elem}, ReturnType: sliceType}
	s := ssa.Instruction{Result: 0, Type: sliceType, Op: ssa.Param{Index: 0}}
	x := ssa.Instruction{Result: 1, Type: elem, Op: ssa.Param{Index: 1}}
	grown := ssa.Instruction{Result: 2, Type: sliceType, Op: ssa.SliceIntrinsic{
		Op: ssa.SlicePushBack, Slice: 0, Value: 1, ElementSize: 2,
	}}
	fn.Blocks = []*ssa.Block{{
		Id:           0,
		Instructions: []ssa.Instruction{s, x, grown},
		Terminator:   ssa.Return{Values: []ssa.ValueId{2}},
	}}
	fn.Entry = 0
	return fn
}

// TestGenerateMovesSliceLengthByOneWhileDataResizesByElementSize checks
// spec.md §8 scenario 6: push_back must move the length register by a
// plain +1 ADD while recording the data resize's element_size separately.
func TestGenerateMovesSliceLengthByOneWhileDataResizesByElementSize(t *testing.T) {
	chunk, err := Generate(sliceGrowFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "grow")
	if !strings.Contains(listing, "ADD") {
		t.Errorf("disassembly missing the length +1 ADD:\n%s", listing)
	}
	if !strings.Contains(listing, "SLICE_RESIZE") || !strings.Contains(listing, "elem_size=2") {
		t.Errorf("disassembly missing the SLICE_RESIZE with elem_size=2:\n%s", listing)
	}
	if !strings.Contains(listing, "push_back") {
		t.Errorf("disassembly missing the push_back op tag:\n%s", listing)
	}
}

func fieldLessThanFunction() *ssa.Function {
	field := hir.FieldElement{}
	fn := &ssa.Function{Name: "field_lt", ParamTypes: []hir.Type{field, field}, ReturnType: hir.Bool{}}
	a := ssa.Instruction{Result: 0, Type: field, Op: ssa.Param{Index: 0}}
	b := ssa.Instruction{Result: 1, Type: field, Op: ssa.Param{Index: 1}}
	lt := ssa.Instruction{Result: 2, Type: hir.Bool{}, Op: ssa.FieldLessThan{Lhs: 0, Rhs: 1}}
	fn.Blocks = []*ssa.Block{{
		Id:           0,
		Instructions: []ssa.Instruction{a, b, lt},
		Terminator:   ssa.Return{Values: []ssa.ValueId{2}},
	}}
	fn.Entry = 0
	return fn
}

// TestGenerateEmitsFieldLessThanOpcode checks that a Field comparison lowers
// to the dedicated FIELD_LT opcode rather than the native LT used for
// integers (spec.md §4.4's is_field dispatch).
func TestGenerateEmitsFieldLessThanOpcode(t *testing.T) {
	chunk, err := Generate(fieldLessThanFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "field_lt")
	if !strings.Contains(listing, "FIELD_LT") {
		t.Errorf("disassembly missing FIELD_LT:\n%s", listing)
	}
}

func blackBoxFunction() *ssa.Function {
	u32 := hir.Integer{Signedness: hir.Unsigned, Bits: 32}
	arr := hir.Array{Len: hir.Constant{Value: 32, K: hir.KindInteger{}}, Elem: u32}
	fn := &ssa.Function{Name: "hash", ParamTypes: []hir.Type{arr}, ReturnType: arr}
	in := ssa.Instruction{Result: 0, Type: arr, Op: ssa.Param{Index: 0}}
	out := ssa.Instruction{Result: 1, Type: arr, Op: ssa.BlackBoxCall{Name: "sha256", Args: []ssa.ValueId{0}}}
	fn.Blocks = []*ssa.Block{{
		Id:           0,
		Instructions: []ssa.Instruction{in, out},
		Terminator:   ssa.Return{Values: []ssa.ValueId{1}},
	}}
	fn.Entry = 0
	return fn
}

// TestGenerateEmitsBlackBoxCallWithGadgetName checks spec.md §4.4's
// black-box call marshaling: the gadget name travels as a constant, exactly
// like an ordinary Call's callee name.
func TestGenerateEmitsBlackBoxCallWithGadgetName(t *testing.T) {
	chunk, err := Generate(blackBoxFunction())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	listing := Disassemble(chunk, "hash")
	if !strings.Contains(listing, "BLACK_BOX") {
		t.Errorf("disassembly missing BLACK_BOX:\n%s", listing)
	}
	if !strings.Contains(listing, "sha256") {
		t.Errorf("disassembly missing the gadget name sha256:\n%s", listing)
	}
}
