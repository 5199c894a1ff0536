package bytecode

import (
	"fmt"
	"strings"

	"github.com/latticec/zkmid/internal/hir"
)

// Disassemble returns a human-readable listing of chunk, grounded directly
// on vm/disasm.go's Disassemble/disassembleInstruction/simpleInstruction
// family, reworked for register operands: each line prints the destination
// and source register indices the teacher's disassembler prints as stack
// slot indices for GET_LOCAL/SET_LOCAL.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Lines[offset]))
	}

	op := Opcode(chunk.Code[offset])
	name := OpcodeNames[op]

	switch op {
	case OpConst, OpAlloc, OpCast:
		return constantInstruction(sb, name, chunk, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(sb, name, chunk, offset)
	case OpCall, OpBlackBox, OpForeignCall:
		return callInstruction(sb, name, chunk, offset)
	case OpReturn:
		return variadicInstruction(sb, name, chunk, offset)
	case OpMakeArray, OpMakeTuple:
		return variadicInstruction(sb, name, chunk, offset)
	case OpPrint:
		return variadicInstruction(sb, name, chunk, offset)
	case OpIncRc, OpDecRc:
		return regInstruction(sb, name, chunk, offset, 1)
	case OpMove, OpNeg, OpBNot, OpNot, OpLoad, OpStore, OpRangeCheck, OpArrayLen:
		return regInstruction(sb, name, chunk, offset, 2)
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpBAnd, OpBOr, OpBXor, OpShl, OpShr, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr,
		OpArrayGet, OpTupleGet, OpFieldLessThan:
		return regInstruction(sb, name, chunk, offset, 3)
	case OpArraySet:
		return arraySetInstruction(sb, chunk, offset)
	case OpConstrain:
		return constrainInstruction(sb, chunk, offset)
	case OpToBits:
		return toBitsInstruction(sb, chunk, offset)
	case OpToRadix:
		return toRadixInstruction(sb, chunk, offset)
	case OpSliceResize:
		return sliceResizeInstruction(sb, chunk, offset)
	case OpHalt:
		return simpleInstruction(sb, name, offset)
	default:
		sb.WriteString(fmt.Sprintf("%-16s (unknown opcode %d)\n", name, op))
		return offset + 1
	}
}

func simpleInstruction(sb *strings.Builder, name string, offset int) int {
	sb.WriteString(name + "\n")
	return offset + 1
}

func regInstruction(sb *strings.Builder, name string, chunk *Chunk, offset, numRegs int) int {
	regs := make([]string, numRegs)
	for i := 0; i < numRegs; i++ {
		regs[i] = fmt.Sprintf("r%d", chunk.Code[offset+1+i])
	}
	sb.WriteString(fmt.Sprintf("%-16s %s\n", name, strings.Join(regs, ", ")))
	return offset + 1 + numRegs
}

func constantInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	dst := chunk.Code[offset+1]
	idx := chunk.ReadU16(offset + 2)
	if idx < len(chunk.Constants) {
		sb.WriteString(fmt.Sprintf("%-16s r%d, %d '%s'\n", name, dst, idx, describeConstant(chunk.Constants[idx])))
	} else {
		sb.WriteString(fmt.Sprintf("%-16s r%d, %d (invalid)\n", name, dst, idx))
	}
	return offset + 4
}

func jumpInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	if name == "JUMP_IF_FALSE" {
		cond := chunk.Code[offset+1]
		target := chunk.ReadU16(offset + 2)
		sb.WriteString(fmt.Sprintf("%-16s r%d, -> %d\n", name, cond, target))
		return offset + 4
	}
	target := chunk.ReadU16(offset + 1)
	sb.WriteString(fmt.Sprintf("%-16s -> %d\n", name, target))
	return offset + 3
}

func callInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	dst := chunk.Code[offset+1]
	idx := chunk.ReadU16(offset + 2)
	argc := int(chunk.Code[offset+4])
	args := make([]string, argc)
	for i := 0; i < argc; i++ {
		args[i] = fmt.Sprintf("r%d", chunk.Code[offset+5+i])
	}
	callee := "?"
	if idx < len(chunk.Constants) {
		callee = describeConstant(chunk.Constants[idx])
	}
	sb.WriteString(fmt.Sprintf("%-16s r%d, %s(%s)\n", name, dst, callee, strings.Join(args, ", ")))
	return offset + 5 + argc
}

func constrainInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	lhs := chunk.Code[offset+1]
	rhs := chunk.Code[offset+2]
	hasMsg := chunk.Code[offset+3]
	if hasMsg == 0 {
		sb.WriteString(fmt.Sprintf("%-16s r%d, r%d\n", "CONSTRAIN", lhs, rhs))
		return offset + 4
	}
	idx := chunk.ReadU16(offset + 4)
	msg := "?"
	if idx < len(chunk.Constants) {
		msg = describeConstant(chunk.Constants[idx])
	}
	sb.WriteString(fmt.Sprintf("%-16s r%d, r%d, %q\n", "CONSTRAIN", lhs, rhs, msg))
	return offset + 6
}

// arraySetInstruction disassembles ArraySet's 3 register operands plus the
// trailing mutable flag byte (spec.md §4.5: copy-on-write unless mutable).
func arraySetInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	arr := chunk.Code[offset+1]
	idx := chunk.Code[offset+2]
	val := chunk.Code[offset+3]
	mutable := chunk.Code[offset+4] != 0
	sb.WriteString(fmt.Sprintf("%-16s r%d, r%d, r%d, mutable=%t\n", "ARRAY_SET", arr, idx, val, mutable))
	return offset + 5
}

// toBitsInstruction disassembles dst, value, bit_size(1), little(1).
func toBitsInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	dst := chunk.Code[offset+1]
	value := chunk.Code[offset+2]
	bitSize := chunk.Code[offset+3]
	little := chunk.Code[offset+4] != 0
	sb.WriteString(fmt.Sprintf("%-16s r%d, r%d, bits=%d, little=%t\n", "TO_BITS", dst, value, bitSize, little))
	return offset + 5
}

// toRadixInstruction disassembles dst, value, radix, digits(1), little(1).
func toRadixInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	dst := chunk.Code[offset+1]
	value := chunk.Code[offset+2]
	radix := chunk.Code[offset+3]
	digits := chunk.Code[offset+4]
	little := chunk.Code[offset+5] != 0
	sb.WriteString(fmt.Sprintf("%-16s r%d, r%d, r%d, digits=%d, little=%t\n", "TO_RADIX", dst, value, radix, digits, little))
	return offset + 6
}

// sliceResizeInstruction disassembles OpSliceResize's variable shape
// (spec.md §8 scenario 6): dst, src, kind(1), elem_size(1), then an
// optional index register and an optional value register, each gated by
// its own presence flag byte.
func sliceResizeInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	dst := chunk.Code[offset+1]
	src := chunk.Code[offset+2]
	kind := sliceOpName(chunk.Code[offset+3])
	elemSize := chunk.Code[offset+4]
	pos := offset + 5

	parts := []string{fmt.Sprintf("r%d", dst), fmt.Sprintf("r%d", src), kind, fmt.Sprintf("elem_size=%d", elemSize)}

	hasIdx := chunk.Code[pos] != 0
	pos++
	if hasIdx {
		parts = append(parts, fmt.Sprintf("idx=r%d", chunk.Code[pos]))
		pos++
	}
	hasVal := chunk.Code[pos] != 0
	pos++
	if hasVal {
		parts = append(parts, fmt.Sprintf("val=r%d", chunk.Code[pos]))
		pos++
	}

	sb.WriteString(fmt.Sprintf("%-16s %s\n", "SLICE_RESIZE", strings.Join(parts, ", ")))
	return pos
}

func sliceOpName(b byte) string {
	switch b {
	case 0:
		return "push_back"
	case 1:
		return "push_front"
	case 2:
		return "pop_back"
	case 3:
		return "pop_front"
	case 4:
		return "insert"
	case 5:
		return "remove"
	default:
		return "?"
	}
}

func variadicInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	count := int(chunk.Code[offset+1])
	regs := make([]string, count)
	for i := 0; i < count; i++ {
		regs[i] = fmt.Sprintf("r%d", chunk.Code[offset+2+i])
	}
	sb.WriteString(fmt.Sprintf("%-16s %s\n", name, strings.Join(regs, ", ")))
	return offset + 2 + count
}

func describeConstant(c Constant) string {
	switch {
	case c.Func != nil:
		return *c.Func
	case c.Literal != nil:
		return describeLiteral(*c.Literal)
	case c.Type != nil:
		return c.Type.String()
	default:
		return "?"
	}
}

func describeLiteral(lit hir.Literal) string {
	switch {
	case lit.Int != nil:
		if lit.Int.Negative {
			return fmt.Sprintf("-%d", lit.Int.Value)
		}
		return fmt.Sprintf("%d", lit.Int.Value)
	case lit.Bool != nil:
		return fmt.Sprintf("%t", *lit.Bool)
	case lit.Str != nil:
		return *lit.Str
	case lit.Unit:
		return "()"
	default:
		return "literal"
	}
}
