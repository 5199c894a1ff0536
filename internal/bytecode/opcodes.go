// Package bytecode implements the L3 layer: lowering SSA into a
// register-based instruction stream, allocating registers with
// liveness-driven deallocation, and disassembling the result for
// debugging.
//
// Grounded directly on vm/opcodes.go's Opcode/OpcodeNames shape (a byte
// enum plus a name lookup table used by Disassemble), reworked from a
// stack machine's push/pop opcode set into a three-address, register-based
// one: every arithmetic/call/load instruction names its destination
// register explicitly instead of operating on an implicit stack top,
// matching spec.md §4.4's register-based bytecode target (ACIR/Brillig),
// which has no stack at all.
package bytecode

// Opcode is a single instruction tag.
type Opcode byte

const (
	OpConst Opcode = iota // dst, const_idx(2)

	OpMove // dst, src

	// Arithmetic: dst, lhs, rhs. Checked add/sub/mul (spec.md §4.4) are not
	// separate opcodes: the generator emits the plain op here and follows it
	// with a comparison plus a Constrain, so overflow is caught in bytecode
	// instead of by a trapping opcode.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr
	OpBNot

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpNot
	OpAnd
	OpOr

	OpJump         // target(2)
	OpJumpIfFalse  // cond, target(2)

	OpCall    // dst, func_const_idx(2), argc, args...
	OpReturn  // retc, regs...

	OpAlloc     // dst, type hint via const_idx(2)
	OpLoad      // dst, addr
	OpStore     // addr, value

	OpMakeArray // dst, count, elems...
	OpArrayLen  // dst, array
	OpArrayGet  // dst, array, index
	OpArraySet  // array, index, value, mutable(1)

	OpMakeTuple // dst, count, elems...
	OpTupleGet  // dst, tuple, index

	OpCast       // dst, src, type const_idx(2)
	OpRangeCheck // index, len
	OpConstrain  // lhs, rhs, has_msg(1), [msg const_idx(2)]

	OpIncRc // reg
	OpDecRc // reg

	// OpSliceResize implements the data-array half of a slice push/pop/
	// insert/remove (spec.md §4.4/§8 scenario 6): dst, src array, slice op
	// kind(1), element_size(1), has_idx(1) [idx], has_val(1) [value]. The
	// length-register half is ordinary ADD/SUB emitted directly by
	// genSliceIntrinsic; this opcode is the black-box array-grow/shrink
	// procedure, the same abstraction level as OpMakeArray/OpArraySet.
	OpSliceResize // dst, src, kind(1), elem_size(1), has_idx(1), [idx], has_val(1), [value]

	OpToBits  // dst, value, bit_size(1), little(1)
	OpToRadix // dst, value, radix, digits(1), little(1)

	// OpFieldLessThan is the one ordering primitive Field has (spec.md
	// §4.4): dst, lhs, rhs, laid out identically to OpLt so it can share
	// regInstruction's disassembly.
	OpFieldLessThan // dst, lhs, rhs

	OpBlackBox    // dst, name_const_idx(2), argc, args...
	OpForeignCall // dst, name_const_idx(2), argc, args...

	OpPrint // argc, args...

	OpHalt
)

// OpcodeNames maps opcodes to their disassembly mnemonic, exactly the role
// vm/opcodes.go's OpcodeNames map serves for the stack machine's opcodes.
var OpcodeNames = map[Opcode]string{
	OpConst: "CONST",
	OpMove:  "MOVE",

	OpAdd: "ADD",
	OpSub: "SUB",
	OpMul: "MUL",
	OpDiv: "DIV",
	OpMod: "MOD",
	OpNeg: "NEG",

	OpBAnd: "BAND",
	OpBOr:  "BOR",
	OpBXor: "BXOR",
	OpShl:  "SHL",
	OpShr:  "SHR",
	OpBNot: "BNOT",

	OpEq: "EQ",
	OpNe: "NE",
	OpLt: "LT",
	OpLe: "LE",
	OpGt: "GT",
	OpGe: "GE",

	OpNot: "NOT",
	OpAnd: "AND",
	OpOr:  "OR",

	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",

	OpCall:   "CALL",
	OpReturn: "RETURN",

	OpAlloc: "ALLOC",
	OpLoad:  "LOAD",
	OpStore: "STORE",

	OpMakeArray: "MAKE_ARRAY",
	OpArrayLen:  "ARRAY_LEN",
	OpArrayGet:  "ARRAY_GET",
	OpArraySet:  "ARRAY_SET",

	OpMakeTuple: "MAKE_TUPLE",
	OpTupleGet:  "TUPLE_GET",

	OpCast:       "CAST",
	OpRangeCheck: "RANGE_CHECK",
	OpConstrain:  "CONSTRAIN",

	OpIncRc: "INC_RC",
	OpDecRc: "DEC_RC",

	OpSliceResize: "SLICE_RESIZE",

	OpToBits:  "TO_BITS",
	OpToRadix: "TO_RADIX",

	OpFieldLessThan: "FIELD_LT",

	OpBlackBox:    "BLACK_BOX",
	OpForeignCall: "FOREIGN_CALL",

	OpPrint: "PRINT",

	OpHalt: "HALT",
}
