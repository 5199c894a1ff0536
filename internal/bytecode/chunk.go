package bytecode

import "github.com/latticec/zkmid/internal/hir"

// Constant is the bytecode constant pool's value type: either a literal, a
// callee name, or a type (used by OpAlloc/OpCast to record what they are
// allocating/casting to, for disassembly and the driver's debug output).
type Constant struct {
	Literal *hir.Literal
	Func    *string
	Type    hir.Type
}

// Chunk is the register-based instruction stream for one function, adapted
// from vm/chunk.go: same Code/Constants/Lines append-only structure, same
// Write/WriteOp/AddConstant API shape, but Constants holds
// bytecode.Constant rather than evaluator.Object (this module has no
// runtime value representation; Object served a tree-walking/VM evaluator
// that is out of scope here) and every instruction after the opcode byte
// encodes register indices rather than stack-relative offsets.
type Chunk struct {
	Code      []byte
	Constants []Constant
	Lines     []int
	Columns   []int
	File      string
	NumRegisters int
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Constants: make([]Constant, 0, 64),
		Lines:     make([]int, 0, 256),
		Columns:   make([]int, 0, 256),
	}
}

func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, 0)
}

func (c *Chunk) WriteOp(op Opcode, line int) { c.Write(byte(op), line) }

// WriteReg writes a single register-index operand byte.
func (c *Chunk) WriteReg(reg int, line int) { c.Write(byte(reg), line) }

// WriteU16 writes a two-byte big-endian operand (constant pool index or
// jump target).
func (c *Chunk) WriteU16(v int, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

func (c *Chunk) AddConstant(value Constant) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

func (c *Chunk) ReadU16(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// PatchU16 overwrites a previously-written two-byte operand at offset —
// used to back-patch a forward jump target once the target block's address
// is known.
func (c *Chunk) PatchU16(offset, v int) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

func (c *Chunk) Len() int { return len(c.Code) }
