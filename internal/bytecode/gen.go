package bytecode

import (
	"fmt"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/ssa"
)

// regAlloc is a free-list register allocator: a free list plus a high-water
// mark, the "explicitly scoped" discipline spec.md §5 requires — every
// allocate is matched by a deallocate on every path, and the high-water mark
// becomes the function's frame size (Chunk.NumRegisters).
type regAlloc struct {
	free []int
	next int
	max  int
}

func (r *regAlloc) allocate() int {
	if n := len(r.free); n > 0 {
		reg := r.free[n-1]
		r.free = r.free[:n-1]
		return reg
	}
	reg := r.next
	r.next++
	if r.next > r.max {
		r.max = r.next
	}
	return reg
}

func (r *regAlloc) deallocate(reg int) {
	r.free = append(r.free, reg)
}

// jumpPatch records a forward jump operand position to back-patch once the
// target block's offset is known, the same forward-reference problem
// vm/chunk.go's compiler solves with PatchU16 for if/loop bytecode.
type jumpPatch struct {
	operandOffset int
	target        ssa.BlockId
}

// Generator lowers one ssa.Function into a Chunk, implementing the
// per-block protocol of spec.md §4.4: read live-in, materialize block
// variables/parameters, emit each instruction, then free any register whose
// value dies at this instruction per the liveness analysis.
type Generator struct {
	chunk        *Chunk
	fn           *ssa.Function
	regs         regAlloc
	live         *ssa.Liveness
	valueReg     map[ssa.ValueId]int
	definedIn    map[ssa.ValueId]ssa.BlockId
	currentBlock ssa.BlockId
	blockOffset  map[ssa.BlockId]int
	patches      []jumpPatch
	line         int

	// phiReg pre-assigns a join point's destination register the first time
	// either predecessor is seen (in genTerminator, ahead of the Phi
	// instruction itself being generated), so both predecessors can move
	// their value into the same physical register before jumping to the
	// join block — a plain register has no notion of "whichever branch
	// ran", so the move has to happen on each incoming edge.
	phiReg map[ssa.ValueId]int

	// buildingGlobals gates liveness-driven deallocation off: globals are
	// computed once into a region that lives for the whole program, so their
	// registers are never freed (spec.md §4.4 "Globals compilation").
	buildingGlobals bool
}

// Generate lowers f into a register-based Chunk.
func Generate(f *ssa.Function) (*Chunk, error) {
	g := &Generator{
		chunk:       NewChunk(),
		fn:          f,
		live:        ssa.Analyze(f),
		valueReg:    make(map[ssa.ValueId]int),
		definedIn:   make(map[ssa.ValueId]ssa.BlockId),
		blockOffset: make(map[ssa.BlockId]int),
		phiReg:      make(map[ssa.ValueId]int),
	}
	g.chunk.File = f.Name

	for _, b := range f.Blocks {
		g.blockOffset[b.Id] = g.chunk.Len()
		if err := g.genBlock(b); err != nil {
			return nil, fmt.Errorf("function %s, block %d: %w", f.Name, b.Id, err)
		}
	}
	for _, p := range g.patches {
		target, ok := g.blockOffset[p.target]
		if !ok {
			return nil, fmt.Errorf("function %s: jump to unknown block %d", f.Name, p.target)
		}
		g.chunk.PatchU16(p.operandOffset, target)
	}
	g.chunk.NumRegisters = g.regs.max
	return g.chunk, nil
}

// GenerateGlobals lowers the program's global-initializer block into a
// single Chunk shared by every function (spec.md §4.4 "Globals compilation":
// hoisted constants and global-computing instructions share the regular
// instruction codegen path, gated by buildingGlobals so their registers are
// never reclaimed).
func GenerateGlobals(b *ssa.Block) (*Chunk, error) {
	g := &Generator{
		chunk:           NewChunk(),
		fn:              &ssa.Function{Blocks: []*ssa.Block{b}, Entry: b.Id},
		live:            &ssa.Liveness{LiveIn: map[ssa.BlockId]map[ssa.ValueId]bool{}, LastUse: map[ssa.BlockId]map[ssa.ValueId]int{}},
		valueReg:        make(map[ssa.ValueId]int),
		definedIn:       make(map[ssa.ValueId]ssa.BlockId),
		blockOffset:     map[ssa.BlockId]int{b.Id: 0},
		phiReg:          make(map[ssa.ValueId]int),
		buildingGlobals: true,
	}
	if err := g.genBlock(b); err != nil {
		return nil, fmt.Errorf("globals: %w", err)
	}
	g.chunk.NumRegisters = g.regs.max
	return g.chunk, nil
}

func (g *Generator) regOf(v ssa.ValueId) (int, bool) {
	r, ok := g.valueReg[v]
	return r, ok
}

func (g *Generator) assign(v ssa.ValueId) int {
	r := g.regs.allocate()
	g.valueReg[v] = r
	g.definedIn[v] = g.currentBlock
	return r
}

// free deallocates the register for every value whose last use in this
// block is instruction index idx, unless buildingGlobals is set (globals
// live forever, per spec.md §4.4).
func (g *Generator) free(blockId ssa.BlockId, idx int) {
	if g.buildingGlobals {
		return
	}
	lastUse := g.live.LastUse[blockId]
	for v, last := range lastUse {
		if last == idx {
			if r, ok := g.valueReg[v]; ok {
				g.regs.deallocate(r)
				delete(g.valueReg, v)
			}
		}
	}
}

func (g *Generator) genBlock(b *ssa.Block) error {
	g.currentBlock = b.Id
	for idx, inst := range b.Instructions {
		if err := g.genInstruction(inst); err != nil {
			return err
		}
		g.free(b.Id, idx)
	}
	return g.genTerminator(b.Terminator)
}

func (g *Generator) addConst(c Constant) int { return g.chunk.AddConstant(c) }

// genInstruction dispatches on SSA op kind (spec.md §4.4 step 5c). Ops with
// no result value (Store, ArraySet, RangeCheck, Constrain, the rc ops) do
// not consume a register for inst.Result — nothing ever reads it.
func (g *Generator) genInstruction(inst ssa.Instruction) error {
	switch op := inst.Op.(type) {
	case ssa.Param:
		// Parameters are assigned registers in declaration order: a fresh
		// allocator handed registers 0..n-1 in order as long as Param ops
		// are the first instructions visited in the entry block, which the
		// ssa builder guarantees.
		g.assign(inst.Result)
		return nil

	case ssa.Const:
		dst := g.assign(inst.Result)
		lit := op.Value
		idx := g.addConst(Constant{Literal: &lit})
		g.chunk.WriteOp(OpConst, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteU16(idx, g.line)
		return nil

	case ssa.BinaryOp:
		lhs, _ := g.regOf(op.Lhs)
		rhs, _ := g.regOf(op.Rhs)
		dst := g.assign(inst.Result)
		return g.genBinary(dst, lhs, rhs, op, inst.Type)

	case ssa.UnaryOp:
		rhs, _ := g.regOf(op.Rhs)
		dst := g.assign(inst.Result)
		opcode, err := unaryOpcode(op.Op)
		if err != nil {
			return err
		}
		g.chunk.WriteOp(opcode, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(rhs, g.line)
		return nil

	case ssa.Call:
		dst := g.assign(inst.Result)
		name := op.Func
		idx := g.addConst(Constant{Func: &name})
		g.chunk.WriteOp(OpCall, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteU16(idx, g.line)
		g.chunk.WriteReg(len(op.Args), g.line)
		for _, a := range op.Args {
			r, _ := g.regOf(a)
			g.chunk.WriteReg(r, g.line)
		}
		return nil

	case ssa.Alloc:
		dst := g.assign(inst.Result)
		idx := g.addConst(Constant{Type: op.Type})
		g.chunk.WriteOp(OpAlloc, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteU16(idx, g.line)
		return nil

	case ssa.Load:
		addr, _ := g.regOf(op.Addr)
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpLoad, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(addr, g.line)
		return nil

	case ssa.Store:
		addr, _ := g.regOf(op.Addr)
		val, _ := g.regOf(op.Value)
		g.chunk.WriteOp(OpStore, g.line)
		g.chunk.WriteReg(addr, g.line)
		g.chunk.WriteReg(val, g.line)
		return nil

	case ssa.MakeArray:
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpMakeArray, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(len(op.Elements), g.line)
		for _, e := range op.Elements {
			r, _ := g.regOf(e)
			g.chunk.WriteReg(r, g.line)
		}
		return nil

	case ssa.ArrayGet:
		arr, _ := g.regOf(op.Array)
		index, _ := g.regOf(op.Index)
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpArrayGet, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(arr, g.line)
		g.chunk.WriteReg(index, g.line)
		return nil

	case ssa.ArraySet:
		// The mutable flag (spec.md §4.5) rides along as an extra byte: 1
		// means the VM writes in place and re-points its result register at
		// Array, 0 means it runs the copy-on-write array-copy procedure first.
		arr, _ := g.regOf(op.Array)
		index, _ := g.regOf(op.Index)
		val, _ := g.regOf(op.Value)
		g.chunk.WriteOp(OpArraySet, g.line)
		g.chunk.WriteReg(arr, g.line)
		g.chunk.WriteReg(index, g.line)
		g.chunk.WriteReg(val, g.line)
		if op.Mutable {
			g.chunk.Write(1, g.line)
		} else {
			g.chunk.Write(0, g.line)
		}
		return nil

	case ssa.MakeTuple:
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpMakeTuple, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(len(op.Elements), g.line)
		for _, e := range op.Elements {
			r, _ := g.regOf(e)
			g.chunk.WriteReg(r, g.line)
		}
		return nil

	case ssa.TupleGet:
		tup, _ := g.regOf(op.Tuple)
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpTupleGet, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(tup, g.line)
		g.chunk.WriteReg(op.Index, g.line)
		return nil

	case ssa.Cast:
		src, _ := g.regOf(op.Value)
		dst := g.assign(inst.Result)
		idx := g.addConst(Constant{Type: op.To})
		g.chunk.WriteOp(OpCast, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(src, g.line)
		g.chunk.WriteU16(idx, g.line)
		return nil

	case ssa.RangeCheck:
		// Elided when the index's bit width already fits Len's range, per
		// spec.md §4.4; the SSA layer here carries no bit-width metadata on
		// a ValueId, so the check is always emitted; no pass elides it.
		index, _ := g.regOf(op.Index)
		length, _ := g.regOf(op.Len)
		g.chunk.WriteOp(OpRangeCheck, g.line)
		g.chunk.WriteReg(index, g.line)
		g.chunk.WriteReg(length, g.line)
		return nil

	case ssa.Constrain:
		lhs, _ := g.regOf(op.Lhs)
		rhs, _ := g.regOf(op.Rhs)
		g.chunk.WriteOp(OpConstrain, g.line)
		g.chunk.WriteReg(lhs, g.line)
		g.chunk.WriteReg(rhs, g.line)
		if op.Msg == "" {
			g.chunk.Write(0, g.line)
			return nil
		}
		lit := hir.StrLit(op.Msg)
		idx := g.addConst(Constant{Literal: &lit})
		g.chunk.Write(1, g.line)
		g.chunk.WriteU16(idx, g.line)
		return nil

	case ssa.Phi:
		// Both predecessor jumps already moved their value into phiReg (see
		// genTerminator's Jump case), so the join point just adopts that
		// pre-assigned register — no instruction is emitted here.
		reg, ok := g.phiReg[inst.Result]
		if !ok {
			reg = g.regs.allocate()
			g.phiReg[inst.Result] = reg
		}
		g.valueReg[inst.Result] = reg
		g.definedIn[inst.Result] = g.currentBlock
		return nil

	case ssa.ArrayLen:
		arr, _ := g.regOf(op.Array)
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpArrayLen, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(arr, g.line)
		return nil

	case ssa.IncrementRc:
		r, _ := g.regOf(op.Value)
		g.chunk.WriteOp(OpIncRc, g.line)
		g.chunk.WriteReg(r, g.line)
		return nil

	case ssa.DecrementRc:
		r, _ := g.regOf(op.Value)
		g.chunk.WriteOp(OpDecRc, g.line)
		g.chunk.WriteReg(r, g.line)
		return nil

	case ssa.SliceIntrinsic:
		return g.genSliceIntrinsic(inst.Result, op)

	case ssa.ToBits:
		value, _ := g.regOf(op.Value)
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpToBits, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(value, g.line)
		g.chunk.Write(byte(op.BitSize), g.line)
		g.chunk.Write(boolByte(op.Little), g.line)
		return nil

	case ssa.ToRadix:
		value, _ := g.regOf(op.Value)
		radix, _ := g.regOf(op.Radix)
		dst := g.assign(inst.Result)
		g.chunk.WriteOp(OpToRadix, g.line)
		g.chunk.WriteReg(dst, g.line)
		g.chunk.WriteReg(value, g.line)
		g.chunk.WriteReg(radix, g.line)
		g.chunk.Write(byte(op.Digits), g.line)
		g.chunk.Write(boolByte(op.Little), g.line)
		return nil

	case ssa.FieldLessThan:
		lhs, _ := g.regOf(op.Lhs)
		rhs, _ := g.regOf(op.Rhs)
		dst := g.assign(inst.Result)
		g.emitReg3(OpFieldLessThan, dst, lhs, rhs)
		return nil

	case ssa.BlackBoxCall:
		return g.genNamedCall(OpBlackBox, inst.Result, op.Name, op.Args)

	case ssa.ForeignCall:
		return g.genNamedCall(OpForeignCall, inst.Result, op.Name, op.Args)

	default:
		return fmt.Errorf("unhandled SSA op %T", op)
	}
}

// genNamedCall implements BlackBoxCall/ForeignCall: identical wire shape to
// OpCall (name constant, argc, arg registers), just a different opcode tag
// so the VM routes to a gadget table or a host oracle instead of a
// specialized-function table (spec.md §4.4).
func (g *Generator) genNamedCall(opcode Opcode, result ssa.ValueId, name string, args []ssa.ValueId) error {
	dst := g.assign(result)
	n := name
	idx := g.addConst(Constant{Func: &n})
	g.chunk.WriteOp(opcode, g.line)
	g.chunk.WriteReg(dst, g.line)
	g.chunk.WriteU16(idx, g.line)
	g.chunk.WriteReg(len(args), g.line)
	for _, a := range args {
		r, _ := g.regOf(a)
		g.chunk.WriteReg(r, g.line)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// genSliceIntrinsic implements spec.md §4.4/§8 scenario 6: the user-visible
// length register moves by exactly one via a real ADD/SUB, while the
// backing array's resize (by ElementSize flattened words) is a black-box
// primitive the same way MakeArray/ArraySet already are — the copy/grow
// procedure itself belongs to the VM, not to this generator.
func (g *Generator) genSliceIntrinsic(result ssa.ValueId, op ssa.SliceIntrinsic) error {
	slice, _ := g.regOf(op.Slice)

	oldLen := g.regs.allocate()
	g.chunk.WriteOp(OpTupleGet, g.line)
	g.chunk.WriteReg(oldLen, g.line)
	g.chunk.WriteReg(slice, g.line)
	g.chunk.WriteReg(0, g.line)

	oldData := g.regs.allocate()
	g.chunk.WriteOp(OpTupleGet, g.line)
	g.chunk.WriteReg(oldData, g.line)
	g.chunk.WriteReg(slice, g.line)
	g.chunk.WriteReg(1, g.line)

	one := g.emitConst(1)
	newLen := g.regs.allocate()
	if sliceOpGrows(op.Op) {
		g.emitReg3(OpAdd, newLen, oldLen, one)
	} else {
		g.emitReg3(OpSub, newLen, oldLen, one)
	}
	g.regs.deallocate(one)
	g.regs.deallocate(oldLen)

	hasIdx := op.Op == ssa.SliceInsert || op.Op == ssa.SliceRemove
	hasVal := op.Op == ssa.SlicePushBack || op.Op == ssa.SlicePushFront || op.Op == ssa.SliceInsert

	newData := g.regs.allocate()
	g.chunk.WriteOp(OpSliceResize, g.line)
	g.chunk.WriteReg(newData, g.line)
	g.chunk.WriteReg(oldData, g.line)
	g.chunk.Write(byte(op.Op), g.line)
	g.chunk.Write(byte(op.ElementSize), g.line)
	if hasIdx {
		idx, _ := g.regOf(op.Index)
		g.chunk.Write(1, g.line)
		g.chunk.WriteReg(idx, g.line)
	} else {
		g.chunk.Write(0, g.line)
	}
	if hasVal {
		val, _ := g.regOf(op.Value)
		g.chunk.Write(1, g.line)
		g.chunk.WriteReg(val, g.line)
	} else {
		g.chunk.Write(0, g.line)
	}
	g.regs.deallocate(oldData)

	dst := g.assign(result)
	g.chunk.WriteOp(OpMakeTuple, g.line)
	g.chunk.WriteReg(dst, g.line)
	g.chunk.WriteReg(2, g.line)
	g.chunk.WriteReg(newLen, g.line)
	g.chunk.WriteReg(newData, g.line)
	g.regs.deallocate(newLen)
	g.regs.deallocate(newData)
	return nil
}

// sliceOpGrows reports whether op moves the length register up (push/
// insert) or down (pop/remove).
func sliceOpGrows(op ssa.SliceOp) bool {
	switch op {
	case ssa.SlicePushBack, ssa.SlicePushFront, ssa.SliceInsert:
		return true
	default:
		return false
	}
}

// movePhiOperand emits the OpMove that carries this predecessor's value of
// a join into the phi's pre-assigned register, if the jump target's first
// instruction is a Phi this block feeds.
func (g *Generator) movePhiOperand(target ssa.BlockId) {
	tb := g.fn.Block(target)
	if tb == nil || len(tb.Instructions) == 0 {
		return
	}
	phi, ok := tb.Instructions[0].Op.(ssa.Phi)
	if !ok {
		return
	}
	// Pick whichever operand was actually defined in the block we're
	// jumping from; the other belongs to the sibling branch.
	var src ssa.ValueId
	if g.definedIn[phi.Then] == g.currentBlock {
		src = phi.Then
	} else {
		src = phi.Else
	}
	srcReg, ok := g.regOf(src)
	if !ok {
		return
	}
	dst, ok := g.phiReg[tb.Instructions[0].Result]
	if !ok {
		dst = g.regs.allocate()
		g.phiReg[tb.Instructions[0].Result] = dst
	}
	g.chunk.WriteOp(OpMove, g.line)
	g.chunk.WriteReg(dst, g.line)
	g.chunk.WriteReg(srcReg, g.line)
}

func (g *Generator) genTerminator(t ssa.Terminator) error {
	switch t := t.(type) {
	case ssa.Jump:
		g.movePhiOperand(t.Target)
		g.chunk.WriteOp(OpJump, g.line)
		offset := g.chunk.Len()
		g.chunk.WriteU16(0, g.line)
		g.patches = append(g.patches, jumpPatch{operandOffset: offset, target: t.Target})
		return nil

	case ssa.Branch:
		cond, _ := g.regOf(t.Cond)
		g.chunk.WriteOp(OpJumpIfFalse, g.line)
		g.chunk.WriteReg(cond, g.line)
		elseOperand := g.chunk.Len()
		g.chunk.WriteU16(0, g.line)
		g.patches = append(g.patches, jumpPatch{operandOffset: elseOperand, target: t.Else})

		g.chunk.WriteOp(OpJump, g.line)
		thenOperand := g.chunk.Len()
		g.chunk.WriteU16(0, g.line)
		g.patches = append(g.patches, jumpPatch{operandOffset: thenOperand, target: t.Then})
		return nil

	case ssa.Return:
		g.chunk.WriteOp(OpReturn, g.line)
		g.chunk.WriteReg(len(t.Values), g.line)
		for _, v := range t.Values {
			r, _ := g.regOf(v)
			g.chunk.WriteReg(r, g.line)
		}
		return nil

	case ssa.Unreachable:
		return nil

	default:
		return fmt.Errorf("unhandled terminator %T", t)
	}
}

// genBinary emits dst = lhs OP rhs, expanding the two cases spec.md §4.4
// singles out instead of mapping straight to one opcode: signed
// divide/modulo/less-than/shift-right (the VM opcodes are all unsigned) and
// checked add/sub/mul (overflow is caught by a comparison plus a Constrain
// in bytecode, not by a trapping opcode).
func (g *Generator) genBinary(dst, lhs, rhs int, op ssa.BinaryOp, t hir.Type) error {
	if integer, ok := t.(hir.Integer); ok && integer.Signedness == hir.Signed {
		switch op.Op {
		case hir.OpArithDiv:
			return g.genSignedDiv(dst, lhs, rhs, integer)
		case hir.OpArithMod:
			return g.genSignedMod(dst, lhs, rhs, integer)
		case hir.OpLt:
			return g.genSignedLt(dst, lhs, rhs, integer)
		case hir.OpShr:
			return g.genSignedShr(dst, lhs, rhs, integer)
		}
	}

	opcode, err := binaryOpcode(op.Op)
	if err != nil {
		return err
	}
	g.emitReg3(opcode, dst, lhs, rhs)

	if !op.Checked {
		return nil
	}
	if _, isField := t.(hir.FieldElement); isField {
		return nil
	}
	switch op.Op {
	case hir.OpArithAdd:
		return g.genOverflowCheck(OpLe, lhs, dst, "attempt to add with overflow")
	case hir.OpArithSub:
		return g.genOverflowCheck(OpLe, rhs, lhs, "attempt to subtract with overflow")
	case hir.OpArithMul:
		return g.genMulOverflowCheck(dst, lhs, rhs)
	}
	return nil
}

// genOverflowCheck is the add/sub shape of spec.md §4.4's checked-arithmetic
// expansion: a `LessThanEquals(a, b, cond)` followed by a Constrain on cond.
// For add this is scenario 4's literal `LessThanEquals(x, result, cond)`.
func (g *Generator) genOverflowCheck(condOp Opcode, a, b int, msg string) error {
	cond := g.regs.allocate()
	g.emitReg3(condOp, cond, a, b)
	g.genConstrainTrue(cond, msg)
	g.regs.deallocate(cond)
	return nil
}

// genMulOverflowCheck implements spec.md §4.4's "(result/rhs == lhs) when
// rhs != 0" post-condition. rhs is nudged to 1 when it is zero (rather than
// dividing by zero and relying on short-circuiting the VM doesn't have) so
// result/safeRhs is always defined; the zero case is folded back in as an
// unconditional pass via the OR.
func (g *Generator) genMulOverflowCheck(dst, lhs, rhs int) error {
	zero := g.emitConst(0)
	rhsIsZero := g.regs.allocate()
	g.emitReg3(OpEq, rhsIsZero, rhs, zero)
	g.regs.deallocate(zero)

	safeRhs := g.regs.allocate()
	g.emitReg3(OpAdd, safeRhs, rhs, rhsIsZero)
	divRes := g.regs.allocate()
	g.emitReg3(OpDiv, divRes, dst, safeRhs)
	g.regs.deallocate(safeRhs)

	divEq := g.regs.allocate()
	g.emitReg3(OpEq, divEq, divRes, lhs)
	g.regs.deallocate(divRes)

	cond := g.regs.allocate()
	g.emitReg3(OpOr, cond, rhsIsZero, divEq)
	g.regs.deallocate(rhsIsZero)
	g.regs.deallocate(divEq)

	g.genConstrainTrue(cond, "attempt to multiply with overflow")
	g.regs.deallocate(cond)
	return nil
}

// genConstrainTrue emits Constrain(cond, true, msg), materializing the bool
// constant every checked-arithmetic post-condition is asserted against.
func (g *Generator) genConstrainTrue(cond int, msg string) {
	trueReg := g.emitBoolConst(true)
	g.chunk.WriteOp(OpConstrain, g.line)
	g.chunk.WriteReg(cond, g.line)
	g.chunk.WriteReg(trueReg, g.line)
	lit := hir.StrLit(msg)
	idx := g.addConst(Constant{Literal: &lit})
	g.chunk.Write(1, g.line)
	g.chunk.WriteU16(idx, g.line)
	g.regs.deallocate(trueReg)
}

// genSignedLt implements spec.md §4.4's bias trick: biasing both operands by
// 2^(n-1) maps two's-complement order onto unsigned order, so an unsigned
// OpLt on the biased values is a correct signed comparison.
func (g *Generator) genSignedLt(dst, lhs, rhs int, t hir.Integer) error {
	bias := g.emitConst(uint64(1) << (t.Bits - 1))
	biasedLhs := g.regs.allocate()
	g.emitReg3(OpAdd, biasedLhs, lhs, bias)
	biasedRhs := g.regs.allocate()
	g.emitReg3(OpAdd, biasedRhs, rhs, bias)
	g.regs.deallocate(bias)

	g.emitReg3(OpLt, dst, biasedLhs, biasedRhs)
	g.regs.deallocate(biasedLhs)
	g.regs.deallocate(biasedRhs)
	return nil
}

// genSignedDiv computes a truncating signed divide from the VM's unsigned
// OpDiv via the usual sign/magnitude trick: split each operand into its sign
// bit and absolute value, divide unsigned, then restore the quotient's sign.
func (g *Generator) genSignedDiv(dst, lhs, rhs int, t hir.Integer) error {
	signShift := g.emitConst(uint64(t.Bits - 1))
	signA := g.regs.allocate()
	g.emitReg3(OpShr, signA, lhs, signShift)
	signB := g.regs.allocate()
	g.emitReg3(OpShr, signB, rhs, signShift)
	g.regs.deallocate(signShift)

	zero := g.emitConst(0)
	maskA := g.regs.allocate()
	g.emitReg3(OpSub, maskA, zero, signA)
	maskB := g.regs.allocate()
	g.emitReg3(OpSub, maskB, zero, signB)

	absA := g.regs.allocate()
	g.genNegateIfMasked(absA, lhs, maskA)
	absB := g.regs.allocate()
	g.genNegateIfMasked(absB, rhs, maskB)
	g.regs.deallocate(maskA)
	g.regs.deallocate(maskB)

	uq := g.regs.allocate()
	g.emitReg3(OpDiv, uq, absA, absB)
	g.regs.deallocate(absA)
	g.regs.deallocate(absB)

	signQ := g.regs.allocate()
	g.emitReg3(OpBXor, signQ, signA, signB)
	g.regs.deallocate(signA)
	g.regs.deallocate(signB)
	maskQ := g.regs.allocate()
	g.emitReg3(OpSub, maskQ, zero, signQ)
	g.regs.deallocate(zero)
	g.regs.deallocate(signQ)

	g.genNegateIfMasked(dst, uq, maskQ)
	g.regs.deallocate(uq)
	g.regs.deallocate(maskQ)
	return nil
}

// genSignedMod implements spec.md §4.4's signed modulo formula directly:
// a - (a/b)*b, using the truncating signed divide above for a/b.
func (g *Generator) genSignedMod(dst, lhs, rhs int, t hir.Integer) error {
	q := g.regs.allocate()
	if err := g.genSignedDiv(q, lhs, rhs, t); err != nil {
		return err
	}
	prod := g.regs.allocate()
	g.emitReg3(OpMul, prod, q, rhs)
	g.regs.deallocate(q)

	g.emitReg3(OpSub, dst, lhs, prod)
	g.regs.deallocate(prod)
	return nil
}

// genSignedShr implements an arithmetic shift right: an unsigned shift of
// lhs, with the vacated high bits refilled from the sign bit when lhs is
// negative.
func (g *Generator) genSignedShr(dst, lhs, rhs int, t hir.Integer) error {
	signShift := g.emitConst(uint64(t.Bits - 1))
	sign := g.regs.allocate()
	g.emitReg3(OpShr, sign, lhs, signShift)
	g.regs.deallocate(signShift)

	zero := g.emitConst(0)
	mask := g.regs.allocate()
	g.emitReg3(OpSub, mask, zero, sign) // all-ones when lhs is negative, else 0
	g.regs.deallocate(sign)

	logical := g.regs.allocate()
	g.emitReg3(OpShr, logical, lhs, rhs)

	bits := g.emitConst(uint64(t.Bits))
	shiftAmt := g.regs.allocate()
	g.emitReg3(OpSub, shiftAmt, bits, rhs)
	g.regs.deallocate(bits)
	g.regs.deallocate(zero)

	highBits := g.regs.allocate()
	g.emitReg3(OpShl, highBits, mask, shiftAmt)
	g.regs.deallocate(mask)
	g.regs.deallocate(shiftAmt)

	g.emitReg3(OpBOr, dst, logical, highBits)
	g.regs.deallocate(logical)
	g.regs.deallocate(highBits)
	return nil
}

// genNegateIfMasked computes (v XOR mask) - mask into dst: the standard
// branch-free two's-complement negation, conditioned on mask being all-ones
// (negate) or all-zero (identity).
func (g *Generator) genNegateIfMasked(dst, v, mask int) {
	xored := g.regs.allocate()
	g.emitReg3(OpBXor, xored, v, mask)
	g.emitReg3(OpSub, dst, xored, mask)
	g.regs.deallocate(xored)
}

func (g *Generator) emitReg3(op Opcode, dst, a, b int) {
	g.chunk.WriteOp(op, g.line)
	g.chunk.WriteReg(dst, g.line)
	g.chunk.WriteReg(a, g.line)
	g.chunk.WriteReg(b, g.line)
}

// emitConst materializes an untyped integer literal into a fresh scratch
// register; callers deallocate it once done, since it carries no ssa.ValueId
// for g.free to reclaim automatically.
func (g *Generator) emitConst(v uint64) int {
	r := g.regs.allocate()
	lit := hir.IntLit(v)
	idx := g.addConst(Constant{Literal: &lit})
	g.chunk.WriteOp(OpConst, g.line)
	g.chunk.WriteReg(r, g.line)
	g.chunk.WriteU16(idx, g.line)
	return r
}

func (g *Generator) emitBoolConst(b bool) int {
	r := g.regs.allocate()
	lit := hir.BoolLit(b)
	idx := g.addConst(Constant{Literal: &lit})
	g.chunk.WriteOp(OpConst, g.line)
	g.chunk.WriteReg(r, g.line)
	g.chunk.WriteU16(idx, g.line)
	return r
}

func binaryOpcode(op hir.BinaryOp) (Opcode, error) {
	switch op {
	case hir.OpArithAdd:
		return OpAdd, nil
	case hir.OpArithSub:
		return OpSub, nil
	case hir.OpArithMul:
		return OpMul, nil
	case hir.OpArithDiv:
		return OpDiv, nil
	case hir.OpArithMod:
		return OpMod, nil
	case hir.OpAnd:
		return OpBAnd, nil
	case hir.OpOr:
		return OpBOr, nil
	case hir.OpXor:
		return OpBXor, nil
	case hir.OpShl:
		return OpShl, nil
	case hir.OpShr:
		return OpShr, nil
	case hir.OpEq:
		return OpEq, nil
	case hir.OpNe:
		return OpNe, nil
	case hir.OpLt:
		return OpLt, nil
	case hir.OpLe:
		return OpLe, nil
	case hir.OpGt:
		return OpGt, nil
	case hir.OpGe:
		return OpGe, nil
	case hir.OpBoolAnd:
		return OpAnd, nil
	case hir.OpBoolOr:
		return OpOr, nil
	default:
		return 0, fmt.Errorf("no bytecode opcode for binary operator %v", op)
	}
}

func unaryOpcode(op hir.UnaryOp) (Opcode, error) {
	switch op {
	case hir.OpNeg:
		return OpNeg, nil
	case hir.OpNot:
		return OpNot, nil
	default:
		return 0, fmt.Errorf("no bytecode opcode for unary operator %v", op)
	}
}
