package ssa

// Liveness holds, per block, the live-in value set and the instruction
// index (within that block) at which each value is used for the last time
// — exactly what the register allocator in package bytecode needs to decide
// when a register can be freed (spec.md §4.4/§5: "liveness-driven
// deallocation"). No teacher analogue exists (funxy's stack VM has no
// registers to free); built fresh following the standard backward
// fixed-point liveness algorithm.
type Liveness struct {
	LiveIn   map[BlockId]map[ValueId]bool
	LastUse  map[BlockId]map[ValueId]int // instruction index of the last use in this block
}

func Analyze(f *Function) *Liveness {
	l := &Liveness{LiveIn: make(map[BlockId]map[ValueId]bool), LastUse: make(map[BlockId]map[ValueId]int)}
	for _, b := range f.Blocks {
		l.LiveIn[b.Id] = make(map[ValueId]bool)
		l.LastUse[b.Id] = make(map[ValueId]int)
	}

	changed := true
	for changed {
		changed = false
		for i := len(f.Blocks) - 1; i >= 0; i-- {
			b := f.Blocks[i]
			live := make(map[ValueId]bool)
			for _, succ := range successors(b.Terminator) {
				for v := range l.LiveIn[succ] {
					live[v] = true
				}
			}
			for v := range liveOutOfTerminator(b.Terminator) {
				live[v] = true
			}

			lastUse := l.LastUse[b.Id]
			for idx := len(b.Instructions) - 1; idx >= 0; idx-- {
				inst := b.Instructions[idx]
				delete(live, inst.Result)
				for _, use := range usesOf(inst.Op) {
					if !live[use] {
						live[use] = true
					}
					if _, recorded := lastUse[use]; !recorded {
						lastUse[use] = idx
					}
				}
			}

			if !setsEqual(live, l.LiveIn[b.Id]) {
				l.LiveIn[b.Id] = live
				changed = true
			}
		}
	}
	return l
}

func successors(t Terminator) []BlockId {
	switch t := t.(type) {
	case Jump:
		return []BlockId{t.Target}
	case Branch:
		return []BlockId{t.Then, t.Else}
	default:
		return nil
	}
}

func liveOutOfTerminator(t Terminator) map[ValueId]bool {
	out := make(map[ValueId]bool)
	switch t := t.(type) {
	case Branch:
		out[t.Cond] = true
	case Return:
		for _, v := range t.Values {
			out[v] = true
		}
	}
	return out
}

func usesOf(op Op) []ValueId {
	switch op := op.(type) {
	case BinaryOp:
		return []ValueId{op.Lhs, op.Rhs}
	case UnaryOp:
		return []ValueId{op.Rhs}
	case Call:
		return op.Args
	case Load:
		return []ValueId{op.Addr}
	case Store:
		return []ValueId{op.Addr, op.Value}
	case MakeArray:
		return op.Elements
	case ArrayGet:
		return []ValueId{op.Array, op.Index}
	case ArraySet:
		return []ValueId{op.Array, op.Index, op.Value}
	case MakeTuple:
		return op.Elements
	case TupleGet:
		return []ValueId{op.Tuple}
	case Cast:
		return []ValueId{op.Value}
	case RangeCheck:
		return []ValueId{op.Index, op.Len}
	case Constrain:
		return []ValueId{op.Lhs, op.Rhs}
	case IncrementRc:
		return []ValueId{op.Value}
	case DecrementRc:
		return []ValueId{op.Value}
	case Phi:
		return []ValueId{op.Then, op.Else}
	case ArrayLen:
		return []ValueId{op.Array}
	default:
		return nil
	}
}

func setsEqual(a, b map[ValueId]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
