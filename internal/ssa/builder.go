package ssa

import (
	"fmt"
	"strings"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/monoast"
	"github.com/latticec/zkmid/internal/types"
)

// Builder lowers one monoast.Func into an ssa.Function, threading a single
// current-block cursor through the recursive descent the way a standard
// structured-to-SSA pass does: every control-flow construct ends the
// current block with a terminator and starts a fresh one for whatever
// follows it.
type Builder struct {
	fn        *Function
	cur       *Block
	nextVal   ValueId
	nextBlock BlockId
	locals    map[monoast.LocalId]ValueId
	loopExits []loopContext

	// localTypes/mutableLocals back the array ref-count discipline (spec.md
	// §4.5): an array-typed local's type is needed to decide whether
	// re-binding it should adjust a refcount, and its mutability decides
	// whether an ArraySet on it writes in place or copies.
	localTypes    map[monoast.LocalId]hir.Type
	mutableLocals map[monoast.LocalId]bool
}

type loopContext struct {
	continueTarget BlockId
	breakTarget    BlockId
}

// Build lowers one specialized function to SSA.
func Build(f *monoast.Func) (*Function, error) {
	paramTypes := make([]hir.Type, len(f.Params))
	for i, p := range f.Params {
		paramTypes[i] = p.Type
	}
	fn := &Function{Name: f.Name, ParamTypes: paramTypes, ReturnType: f.ReturnType, Target: f.Target}
	b := &Builder{
		fn:            fn,
		locals:        make(map[monoast.LocalId]ValueId),
		localTypes:    make(map[monoast.LocalId]hir.Type),
		mutableLocals: make(map[monoast.LocalId]bool),
	}
	entry := b.newBlock()
	fn.Entry = entry.Id
	b.cur = entry

	for i, p := range f.Params {
		v := b.emit(p.Type, Param{Index: i})
		b.locals[p.Local] = v
		b.localTypes[p.Local] = p.Type
		b.mutableLocals[p.Local] = p.Mutable
	}

	result, err := b.lowerExpr(f.Body)
	if err != nil {
		return nil, err
	}
	if b.cur.Terminator == nil {
		b.cur.Terminator = Return{Values: []ValueId{result}}
	}
	return fn, nil
}

func (b *Builder) newBlock() *Block {
	blk := &Block{Id: b.nextBlock}
	b.nextBlock++
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

func (b *Builder) emit(t hir.Type, op Op) ValueId {
	id := b.nextVal
	b.nextVal++
	b.cur.Instructions = append(b.cur.Instructions, Instruction{Result: id, Type: t, Op: op})
	return id
}

func (b *Builder) lowerExpr(e monoast.Expr) (ValueId, error) {
	switch k := e.Kind.(type) {
	case monoast.Ident:
		if v, ok := b.locals[k.Local]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("use of local %d before definition", k.Local)

	case monoast.Literal:
		return b.emit(e.Type, Const{Value: k.Value}), nil

	case monoast.Call:
		if intrinsic, ok := intrinsicCalls[k.Func]; ok {
			return intrinsic(b, k, e.Type)
		}
		args, err := b.lowerExprs(k.Args)
		if err != nil {
			return 0, err
		}
		if name, ok := strings.CutPrefix(k.Func, "__blackbox_"); ok {
			return b.emit(e.Type, BlackBoxCall{Name: name, Args: args}), nil
		}
		if name, ok := strings.CutPrefix(k.Func, "__foreign_"); ok {
			return b.emit(e.Type, ForeignCall{Name: name, Args: args}), nil
		}
		return b.emit(e.Type, Call{Func: k.Func, Args: args}), nil

	case monoast.Binary:
		if isComparison(k.Op) {
			if _, isField := k.Lhs.Type.(hir.FieldElement); isField {
				return b.lowerFieldComparison(k, e.Type)
			}
		}
		lhs, err := b.lowerExpr(k.Lhs)
		if err != nil {
			return 0, err
		}
		rhs, err := b.lowerExpr(k.Rhs)
		if err != nil {
			return 0, err
		}
		if k.Overload != "" {
			return b.emit(e.Type, Call{Func: k.Overload, Args: []ValueId{lhs, rhs}}), nil
		}
		checked := isIntegerArith(k.Op)
		return b.emit(e.Type, BinaryOp{Lhs: lhs, Rhs: rhs, Op: k.Op, Checked: checked}), nil

	case monoast.Unary:
		rhs, err := b.lowerExpr(k.Rhs)
		if err != nil {
			return 0, err
		}
		return b.emit(e.Type, UnaryOp{Op: k.Op, Rhs: rhs}), nil

	case monoast.If:
		return b.lowerIf(k, e.Type)

	case monoast.Block:
		return b.lowerBlock(k, e.Type)

	case monoast.Let:
		v, err := b.lowerExpr(k.Value)
		if err != nil {
			return 0, err
		}
		aliased := false
		if isArrayType(k.Type) {
			if src, aliasesLocal := k.Value.Kind.(monoast.Ident); aliasesLocal {
				b.emit(hir.Unit{}, IncrementRc{Value: v})
				b.mutableLocals[src.Local] = false
				aliased = true
			}
		}
		b.locals[k.Local] = v
		b.localTypes[k.Local] = k.Type
		b.mutableLocals[k.Local] = k.Mutable && !aliased
		return v, nil

	case monoast.For:
		return b.lowerFor(k, e.Type)

	case monoast.While:
		return b.lowerWhile(k, e.Type)

	case monoast.Loop:
		return b.lowerLoop(k, e.Type)

	case monoast.Break:
		if len(b.loopExits) == 0 {
			return 0, fmt.Errorf("break outside loop")
		}
		target := b.loopExits[len(b.loopExits)-1].breakTarget
		b.cur.Terminator = Jump{Target: target}
		b.cur = b.newBlock()
		return 0, nil

	case monoast.Continue:
		if len(b.loopExits) == 0 {
			return 0, fmt.Errorf("continue outside loop")
		}
		target := b.loopExits[len(b.loopExits)-1].continueTarget
		b.cur.Terminator = Jump{Target: target}
		b.cur = b.newBlock()
		return 0, nil

	case monoast.Tuple:
		elems, err := b.lowerExprs(k.Elements)
		if err != nil {
			return 0, err
		}
		return b.emit(e.Type, MakeTuple{Elements: elems}), nil

	case monoast.ArrayLit:
		elems, err := b.lowerExprs(k.Elements)
		if err != nil {
			return 0, err
		}
		return b.emit(e.Type, MakeArray{Elements: elems}), nil

	case monoast.Index:
		coll, err := b.lowerExpr(k.Collection)
		if err != nil {
			return 0, err
		}
		idx, err := b.lowerExpr(k.Index)
		if err != nil {
			return 0, err
		}
		if b.fn.Target == hir.ACIR {
			lenVal := b.emit(hir.Integer{Signedness: hir.Unsigned, Bits: 32}, arrayLen(coll))
			b.emit(hir.Unit{}, RangeCheck{Index: idx, Len: lenVal})
		}
		return b.emit(e.Type, ArrayGet{Array: coll, Index: idx}), nil

	case monoast.TupleAccess:
		obj, err := b.lowerExpr(k.Object)
		if err != nil {
			return 0, err
		}
		return b.emit(e.Type, TupleGet{Tuple: obj, Index: k.Index}), nil

	case monoast.Cast:
		v, err := b.lowerExpr(k.Value)
		if err != nil {
			return 0, err
		}
		return b.emit(e.Type, Cast{Value: v, To: k.To}), nil

	case monoast.Assign:
		if idx, ok := k.Target.Kind.(monoast.Index); ok {
			return b.lowerArraySet(idx, k.Value)
		}

		value, err := b.lowerExpr(k.Value)
		if err != nil {
			return 0, err
		}
		if ident, ok := k.Target.Kind.(monoast.Ident); ok {
			if old, hadOld := b.locals[ident.Local]; hadOld && isArrayType(b.localTypes[ident.Local]) {
				b.emit(hir.Unit{}, DecrementRc{Value: old})
			}
			if isArrayType(k.Target.Type) {
				if src, aliasesLocal := k.Value.Kind.(monoast.Ident); aliasesLocal {
					b.emit(hir.Unit{}, IncrementRc{Value: value})
					b.mutableLocals[src.Local] = false
					b.mutableLocals[ident.Local] = false
				}
			}
			b.locals[ident.Local] = value
			return value, nil
		}
		target, err := b.lowerExpr(k.Target)
		if err != nil {
			return 0, err
		}
		b.emit(hir.Unit{}, Store{Addr: target, Value: value})
		return value, nil

	case monoast.Return:
		var values []ValueId
		if k.Value != nil {
			v, err := b.lowerExpr(*k.Value)
			if err != nil {
				return 0, err
			}
			values = []ValueId{v}
		}
		b.cur.Terminator = Return{Values: values}
		b.cur = b.newBlock()
		return 0, nil

	case monoast.Print:
		args, err := b.lowerExprs(k.Args)
		if err != nil {
			return 0, err
		}
		return b.emit(hir.Unit{}, Call{Func: "__print", Args: args}), nil

	case monoast.Ref:
		return b.lowerExpr(k.Value) // references are erased; addressability is handled by Alloc/Store sites
	case monoast.Deref:
		v, err := b.lowerExpr(k.Value)
		if err != nil {
			return 0, err
		}
		return b.emit(e.Type, Load{Addr: v}), nil

	case monoast.FuncRef:
		// A FuncRef reaches SSA lowering unconsumed only when a closure value
		// escapes the two call shapes internal/mono resolves statically (an
		// IIFE or a call through its direct let-binding) — e.g. stored in an
		// array or returned. monoast.Call has no indirect-call mechanism to
		// represent that value, so it's an explicit unsupported error
		// (spec.md §4.3; see DESIGN.md).
		return 0, fmt.Errorf("closure %q used as a value rather than called directly: indirect closure dispatch is not supported", k.Name)

	default:
		return 0, fmt.Errorf("unhandled monoast expression kind %T", k)
	}
}

func (b *Builder) lowerExprs(es []monoast.Expr) ([]ValueId, error) {
	out := make([]ValueId, len(es))
	for i, e := range es {
		v, err := b.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *Builder) lowerBlock(k monoast.Block, t hir.Type) (ValueId, error) {
	var last ValueId
	for _, stmt := range k.Statements {
		switch {
		case stmt.IsLet:
			v, err := b.lowerExpr(monoast.Expr{Type: stmt.Let.Type, Kind: *stmt.Let})
			if err != nil {
				return 0, err
			}
			last = v
		case stmt.Expr != nil:
			v, err := b.lowerExpr(*stmt.Expr)
			if err != nil {
				return 0, err
			}
			last = v
		}
	}
	return last, nil
}

func (b *Builder) lowerIf(k monoast.If, t hir.Type) (ValueId, error) {
	cond, err := b.lowerExpr(k.Cond)
	if err != nil {
		return 0, err
	}
	thenBlock := b.newBlock()
	elseBlock := b.newBlock()
	joinBlock := b.newBlock()

	condSite := b.cur
	condSite.Terminator = Branch{Cond: cond, Then: thenBlock.Id, Else: elseBlock.Id}

	b.cur = thenBlock
	thenVal, err := b.lowerExpr(k.Then)
	if err != nil {
		return 0, err
	}
	if b.cur.Terminator == nil {
		b.cur.Terminator = Jump{Target: joinBlock.Id}
	}

	b.cur = elseBlock
	var elseVal ValueId
	if k.Else != nil {
		elseVal, err = b.lowerExpr(*k.Else)
		if err != nil {
			return 0, err
		}
	} else {
		elseVal = b.emit(hir.Unit{}, Const{Value: hir.UnitLit()})
	}
	if b.cur.Terminator == nil {
		b.cur.Terminator = Jump{Target: joinBlock.Id}
	}

	b.cur = joinBlock
	// A register-based target resolves the if-value via the register
	// allocator unifying thenVal/elseVal's assigned register (package
	// bytecode); at this layer we simply emit a Phi pairing the two arm
	// values so the join block has a defined result value to reference.
	return b.emit(t, Phi{Then: thenVal, Else: elseVal}), nil
}

// Phi selects thenVal or elseVal depending on which predecessor branch was
// taken. It is intentionally minimal: full phi-node predecessor tracking
// belongs to a general control-flow graph, but every join point this
// language produces (if/else, match) has exactly two predecessors, so a
// binary selector suffices.
type Phi struct{ Then, Else ValueId }

func (Phi) isOp() {}

func (b *Builder) lowerFor(k monoast.For, t hir.Type) (ValueId, error) {
	start, err := b.lowerExpr(k.Start)
	if err != nil {
		return 0, err
	}
	end, err := b.lowerExpr(k.End)
	if err != nil {
		return 0, err
	}
	headerBlock := b.newBlock()
	bodyBlock := b.newBlock()
	exitBlock := b.newBlock()

	b.locals[k.LoopVar] = start
	b.cur.Terminator = Jump{Target: headerBlock.Id}

	b.cur = headerBlock
	iv := b.locals[k.LoopVar]
	cond := b.emit(hir.Bool{}, BinaryOp{Lhs: iv, Rhs: end, Op: hir.OpLt})
	b.cur.Terminator = Branch{Cond: cond, Then: bodyBlock.Id, Else: exitBlock.Id}

	b.cur = bodyBlock
	b.loopExits = append(b.loopExits, loopContext{continueTarget: headerBlock.Id, breakTarget: exitBlock.Id})
	if _, err := b.lowerExpr(k.Body); err != nil {
		return 0, err
	}
	b.loopExits = b.loopExits[:len(b.loopExits)-1]
	one := b.emit(hir.Integer{Signedness: hir.Unsigned, Bits: 32}, Const{Value: hir.IntLit(1)})
	next := b.emit(hir.Integer{Signedness: hir.Unsigned, Bits: 32}, BinaryOp{Lhs: iv, Rhs: one, Op: hir.OpArithAdd})
	b.locals[k.LoopVar] = next
	if b.cur.Terminator == nil {
		b.cur.Terminator = Jump{Target: headerBlock.Id}
	}

	b.cur = exitBlock
	return b.emit(hir.Unit{}, Const{Value: hir.UnitLit()}), nil
}

func (b *Builder) lowerWhile(k monoast.While, t hir.Type) (ValueId, error) {
	headerBlock := b.newBlock()
	bodyBlock := b.newBlock()
	exitBlock := b.newBlock()

	b.cur.Terminator = Jump{Target: headerBlock.Id}
	b.cur = headerBlock
	cond, err := b.lowerExpr(k.Cond)
	if err != nil {
		return 0, err
	}
	b.cur.Terminator = Branch{Cond: cond, Then: bodyBlock.Id, Else: exitBlock.Id}

	b.cur = bodyBlock
	b.loopExits = append(b.loopExits, loopContext{continueTarget: headerBlock.Id, breakTarget: exitBlock.Id})
	if _, err := b.lowerExpr(k.Body); err != nil {
		return 0, err
	}
	b.loopExits = b.loopExits[:len(b.loopExits)-1]
	if b.cur.Terminator == nil {
		b.cur.Terminator = Jump{Target: headerBlock.Id}
	}

	b.cur = exitBlock
	return b.emit(hir.Unit{}, Const{Value: hir.UnitLit()}), nil
}

func (b *Builder) lowerLoop(k monoast.Loop, t hir.Type) (ValueId, error) {
	headerBlock := b.newBlock()
	exitBlock := b.newBlock()

	b.cur.Terminator = Jump{Target: headerBlock.Id}
	b.cur = headerBlock
	b.loopExits = append(b.loopExits, loopContext{continueTarget: headerBlock.Id, breakTarget: exitBlock.Id})
	if _, err := b.lowerExpr(k.Body); err != nil {
		return 0, err
	}
	b.loopExits = b.loopExits[:len(b.loopExits)-1]
	if b.cur.Terminator == nil {
		b.cur.Terminator = Jump{Target: headerBlock.Id}
	}

	b.cur = exitBlock
	return b.emit(hir.Unit{}, Const{Value: hir.UnitLit()}), nil
}

// lowerArraySet implements spec.md §4.5's copy-on-write array write: it
// writes in place, re-pointing the target local at the result, only when
// the collection is a local provably uniquely owned (bound `mut` and never
// recorded as aliased — see the Let/Assign aliasing checks above); it
// copies otherwise, same as the teacher's array-copy procedure before a
// non-mutable ArraySet.
func (b *Builder) lowerArraySet(idx monoast.Index, valueExpr monoast.Expr) (ValueId, error) {
	coll, err := b.lowerExpr(idx.Collection)
	if err != nil {
		return 0, err
	}
	index, err := b.lowerExpr(idx.Index)
	if err != nil {
		return 0, err
	}
	value, err := b.lowerExpr(valueExpr)
	if err != nil {
		return 0, err
	}

	collIdent, isIdent := idx.Collection.Kind.(monoast.Ident)
	mutable := isIdent && b.mutableLocals[collIdent.Local]

	result := b.emit(idx.Collection.Type, ArraySet{Array: coll, Index: index, Value: value, Mutable: mutable})
	if isIdent {
		b.locals[collIdent.Local] = result
	}
	return result, nil
}

// isArrayType reports whether t is an array, the only monoast type the
// ref-count discipline above applies to (spec.md §4.5; slices are a
// separate runtime representation handled by the slice intrinsics).
func isArrayType(t hir.Type) bool {
	_, ok := t.(hir.Array)
	return ok
}

func isIntegerArith(op hir.BinaryOp) bool {
	switch op {
	case hir.OpArithAdd, hir.OpArithSub, hir.OpArithMul, hir.OpArithDiv, hir.OpArithMod:
		return true
	default:
		return false
	}
}

// arrayLen is a placeholder Op standing in for a constant-folded array
// length lookup; the register allocator/bytecode layer resolves it against
// the array's static Type (an Array carries its length as a hir.Type, so no
// runtime instruction is actually needed for a fixed-size array — this Op
// exists so RangeCheck always has a Len operand to reference uniformly for
// both fixed arrays and runtime slices).
type ArrayLen struct{ Array ValueId }

func (ArrayLen) isOp() {}

func arrayLen(v ValueId) Op { return ArrayLen{Array: v} }

// isComparison reports whether op is one of the four ordering operators —
// the only ones whose lowering depends on whether the operand is Field,
// which has no native ordering opcode (spec.md §4.4).
func isComparison(op hir.BinaryOp) bool {
	switch op {
	case hir.OpLt, hir.OpLe, hir.OpGt, hir.OpGe:
		return true
	default:
		return false
	}
}

// lowerFieldComparison expands a<b, a<=b, a>b, a>=b on Field operands in
// terms of the one ordering primitive Field has: FieldLessThan (spec.md
// §4.4's "Binary selects a VM opcode based on (is_field, is_signed)", the
// is_field branch). a<=b is !(b<a); a>b is b<a; a>=b is !(a<b).
func (b *Builder) lowerFieldComparison(k monoast.Binary, t hir.Type) (ValueId, error) {
	lhs, err := b.lowerExpr(k.Lhs)
	if err != nil {
		return 0, err
	}
	rhs, err := b.lowerExpr(k.Rhs)
	if err != nil {
		return 0, err
	}
	switch k.Op {
	case hir.OpLt:
		return b.emit(t, FieldLessThan{Lhs: lhs, Rhs: rhs}), nil
	case hir.OpGt:
		return b.emit(t, FieldLessThan{Lhs: rhs, Rhs: lhs}), nil
	case hir.OpLe:
		gt := b.emit(hir.Bool{}, FieldLessThan{Lhs: rhs, Rhs: lhs})
		return b.emit(t, UnaryOp{Op: hir.OpNot, Rhs: gt}), nil
	case hir.OpGe:
		lt := b.emit(hir.Bool{}, FieldLessThan{Lhs: lhs, Rhs: rhs})
		return b.emit(t, UnaryOp{Op: hir.OpNot, Rhs: lt}), nil
	default:
		return 0, fmt.Errorf("lowerFieldComparison called with non-comparison op %v", k.Op)
	}
}

// intrinsicCalls dispatches the tagged call names internal/mono's lowering
// gives the builtin slice/bit intrinsics (spec.md §4.4's "Intrinsics"
// bullet) to their dedicated SSA ops, instead of an ordinary ssa.Call. It is
// filled in init because its entries reach back into lowerExpr.
var intrinsicCalls map[string]func(*Builder, monoast.Call, hir.Type) (ValueId, error)

func init() {
	intrinsicCalls = map[string]func(*Builder, monoast.Call, hir.Type) (ValueId, error){
	"__array_len":        lowerArrayLenCall,
	"__as_slice":         lowerAsSliceCall,
	"__slice_push_back":  lowerSliceIntrinsicCall(SlicePushBack),
	"__slice_push_front": lowerSliceIntrinsicCall(SlicePushFront),
	"__slice_pop_back":   lowerSliceIntrinsicCall(SlicePopBack),
	"__slice_pop_front":  lowerSliceIntrinsicCall(SlicePopFront),
	"__slice_insert":     lowerSliceIntrinsicCall(SliceInsert),
	"__slice_remove":     lowerSliceIntrinsicCall(SliceRemove),
	"__to_be_bits":       lowerToBitsCall(false),
	"__to_le_bits":       lowerToBitsCall(true),
	"__to_be_radix":      lowerToRadixCall(false),
	"__to_le_radix":      lowerToRadixCall(true),
	}
}

// lowerArrayLenCall implements the `len()` intrinsic: a slice's length is
// tuple element 0 of its (length, data) representation (see
// lowerAsSliceCall); a plain array's length is a fresh ArrayLen query.
func lowerArrayLenCall(b *Builder, k monoast.Call, t hir.Type) (ValueId, error) {
	obj := k.Args[0]
	v, err := b.lowerExpr(obj)
	if err != nil {
		return 0, err
	}
	if _, isSlice := obj.Type.(hir.Slice); isSlice {
		return b.emit(t, TupleGet{Tuple: v, Index: 0}), nil
	}
	return b.emit(t, ArrayLen{Array: v}), nil
}

// lowerAsSliceCall converts a fixed array into a slice value, represented
// uniformly (spec.md §4.4) as a two-element tuple of (user-visible length,
// backing array) — the same shape internal/mono's hir.SliceExpr lowering
// and lowerSliceIntrinsicCall below both produce and consume.
func lowerAsSliceCall(b *Builder, k monoast.Call, t hir.Type) (ValueId, error) {
	arr, err := b.lowerExpr(k.Args[0])
	if err != nil {
		return 0, err
	}
	length := b.emit(hir.Integer{Signedness: hir.Unsigned, Bits: 32}, ArrayLen{Array: arr})
	return b.emit(t, MakeTuple{Elements: []ValueId{length, arr}}), nil
}

// lowerSliceIntrinsicCall builds the Call lowering for one of the six
// slice length-bookkeeping intrinsics (spec.md §4.4/§8 scenario 6): the
// argument shape (index and/or value) is fixed by which operation it is,
// and ElementSize is derived from the pushed/inserted value's type, or
// (for pop/remove) the slice's own element type — the flattened word count
// the backing array must grow or shrink by while the length moves by one.
func lowerSliceIntrinsicCall(op SliceOp) func(*Builder, monoast.Call, hir.Type) (ValueId, error) {
	return func(b *Builder, k monoast.Call, t hir.Type) (ValueId, error) {
		sliceExpr := k.Args[0]
		slice, err := b.lowerExpr(sliceExpr)
		if err != nil {
			return 0, err
		}
		intrinsic := SliceIntrinsic{Op: op, Slice: slice}

		hasIndex := op == SliceInsert || op == SliceRemove
		hasValue := op == SlicePushBack || op == SlicePushFront || op == SliceInsert
		argIdx := 1
		if hasIndex {
			idx, err := b.lowerExpr(k.Args[argIdx])
			if err != nil {
				return 0, err
			}
			intrinsic.Index = idx
			argIdx++
		}
		elemType := hir.Type(hir.Unit{})
		if sl, ok := sliceExpr.Type.(hir.Slice); ok {
			elemType = sl.Elem
		}
		if hasValue {
			valueExpr := k.Args[argIdx]
			v, err := b.lowerExpr(valueExpr)
			if err != nil {
				return 0, err
			}
			intrinsic.Value = v
			elemType = valueExpr.Type
		}
		intrinsic.ElementSize = flattenedSize(elemType)
		return b.emit(t, intrinsic), nil
	}
}

// lowerToBitsCall implements `x.to_be_bits()`/`x.to_le_bits()`: BitSize
// comes from the call's result array type (`[u1; N]` or `[bool; N]`), which
// the type engine already sized from the call site's turbofish/inference.
func lowerToBitsCall(little bool) func(*Builder, monoast.Call, hir.Type) (ValueId, error) {
	return func(b *Builder, k monoast.Call, t hir.Type) (ValueId, error) {
		v, err := b.lowerExpr(k.Args[0])
		if err != nil {
			return 0, err
		}
		return b.emit(t, ToBits{Value: v, BitSize: arrayLenOf(t), Little: little}), nil
	}
}

// lowerToRadixCall implements `x.to_be_radix(radix)`/`x.to_le_radix(radix)`:
// Digits comes from the result array type the same way ToBits's BitSize
// does; Radix is the runtime value passed at the call site.
func lowerToRadixCall(little bool) func(*Builder, monoast.Call, hir.Type) (ValueId, error) {
	return func(b *Builder, k monoast.Call, t hir.Type) (ValueId, error) {
		v, err := b.lowerExpr(k.Args[0])
		if err != nil {
			return 0, err
		}
		radix, err := b.lowerExpr(k.Args[1])
		if err != nil {
			return 0, err
		}
		return b.emit(t, ToRadix{Value: v, Radix: radix, Digits: arrayLenOf(t), Little: little}), nil
	}
}

// arrayLenOf reads a fixed array type's compile-time-constant length,
// falling back to 0 (the type engine is the source of truth here; a
// malformed result type is a type-checker defect, not something this layer
// should guess at).
func arrayLenOf(t hir.Type) int {
	arr, ok := t.(hir.Array)
	if !ok {
		return 0
	}
	n, ok := types.EvaluateToU32(arr.Len)
	if !ok {
		return 0
	}
	return int(n)
}

// flattenedSize reports how many scalar (Field/integer/bool) words a value
// of t occupies once flattened, the "element_size" spec.md §4.4's slice
// intrinsics bullet divides storage growth by.
func flattenedSize(t hir.Type) int {
	switch t := t.(type) {
	case hir.Tuple:
		n := 0
		for _, e := range t.Elems {
			n += flattenedSize(e)
		}
		if n == 0 {
			return 1
		}
		return n
	case hir.Array:
		if ln, ok := types.EvaluateToU32(t.Len); ok {
			return int(ln) * flattenedSize(t.Elem)
		}
		return 1
	default:
		return 1
	}
}
