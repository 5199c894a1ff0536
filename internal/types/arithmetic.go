package types

import "github.com/latticec/zkmid/internal/hir"

// unifyArithmetic handles the InfixExpr/CheckedCast const-generic cases:
// two arithmetic-generic expressions unify if they evaluate to the same
// constant, or canonicalize to syntactically equal normal forms when one or
// both sides still contain unbound variables. No teacher analogue exists
// for numeric generics; this is built directly from spec.md §4.2's
// description of auto-collapsing identities and the CheckedCast
// requirement that both sides fold to a Constant.
func unifyArithmetic(a, b hir.Type, bindings hir.TypeBindings, visited []pair) error {
	if av, ok := EvaluateToU32(a); ok {
		if bv, ok := EvaluateToU32(b); ok {
			if av == bv {
				return nil
			}
			return mismatch(a, b, "arithmetic generics evaluate to different constants")
		}
	}
	ca, cb := Canonicalize(a), Canonicalize(b)
	if hir.TypesEqual(ca, cb) {
		return nil
	}
	// Fall back to structural unification of the canonical forms' operands
	// when the shapes still match syntactically (e.g. `N + 1` vs `N + 1`
	// with N on each side still an unbound variable).
	aInfix, aOk := ca.(hir.InfixExpr)
	bInfix, bOk := cb.(hir.InfixExpr)
	if aOk && bOk && aInfix.Op == bInfix.Op {
		if err := unify(aInfix.Lhs, bInfix.Lhs, bindings, visited); err != nil {
			return err
		}
		return unify(aInfix.Rhs, bInfix.Rhs, bindings, visited)
	}
	aCast, aOk := ca.(hir.CheckedCast)
	bCast, bOk := cb.(hir.CheckedCast)
	if aOk && bOk {
		if err := unify(aCast.From, bCast.From, bindings, visited); err != nil {
			return err
		}
		return unify(aCast.To, bCast.To, bindings, visited)
	}
	return mismatch(a, b, "cannot unify arithmetic generics")
}

// Canonicalize applies the identity-collapsing simplifications AutoCollapse
// enables: x+0=x, x*1=x, x*0=0, x-0=x. A CheckedCast whose From and To
// already fold to equal constants collapses to that Constant.
func Canonicalize(t hir.Type) hir.Type {
	switch t := t.(type) {
	case hir.InfixExpr:
		lhs, rhs := Canonicalize(t.Lhs), Canonicalize(t.Rhs)
		if !t.AutoCollapse {
			return hir.InfixExpr{Lhs: lhs, Op: t.Op, Rhs: rhs, AutoCollapse: t.AutoCollapse}
		}
		if rc, ok := rhs.(hir.Constant); ok {
			switch t.Op {
			case hir.OpAdd, hir.OpSub:
				if rc.Value == 0 {
					return lhs
				}
			case hir.OpMul:
				if rc.Value == 1 {
					return lhs
				}
				if rc.Value == 0 {
					return hir.Constant{Value: 0, K: rc.K}
				}
			case hir.OpDiv:
				if rc.Value == 1 {
					return lhs
				}
			}
		}
		if lc, ok := lhs.(hir.Constant); ok {
			if rc, ok := rhs.(hir.Constant); ok {
				if v, ok := foldConstants(lc.Value, t.Op, rc.Value); ok {
					return hir.Constant{Value: v, K: lc.K}
				}
			}
			if t.Op == hir.OpMul && lc.Value == 1 {
				return rhs
			}
			if t.Op == hir.OpAdd && lc.Value == 0 {
				return rhs
			}
		}
		return hir.InfixExpr{Lhs: lhs, Op: t.Op, Rhs: rhs, AutoCollapse: t.AutoCollapse}
	case hir.CheckedCast:
		from, to := Canonicalize(t.From), Canonicalize(t.To)
		if fc, ok := from.(hir.Constant); ok {
			if tc, ok := to.(hir.Constant); ok && fc.Value == tc.Value {
				return tc
			}
		}
		return hir.CheckedCast{From: from, To: to}
	default:
		return t
	}
}

func foldConstants(a uint64, op hir.InfixOp, b uint64) (uint64, bool) {
	switch op {
	case hir.OpAdd:
		return a + b, true
	case hir.OpSub:
		if a < b {
			return 0, false
		}
		return a - b, true
	case hir.OpMul:
		return a * b, true
	case hir.OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}

// EvaluateToU32 folds a fully-ground arithmetic-generic expression to a
// constant value, failing if any operand is still an unbound variable.
func EvaluateToU32(t hir.Type) (uint64, bool) {
	switch t := t.(type) {
	case hir.Constant:
		return t.Value, true
	case hir.TypeVariable:
		if b, ok := t.Var.Binding(); ok {
			return EvaluateToU32(b)
		}
		return 0, false
	case hir.NamedGeneric:
		if b, ok := t.Var.Binding(); ok {
			return EvaluateToU32(b)
		}
		return 0, false
	case hir.InfixExpr:
		l, lok := EvaluateToU32(t.Lhs)
		r, rok := EvaluateToU32(t.Rhs)
		if !lok || !rok {
			return 0, false
		}
		return foldConstants(l, t.Op, r)
	case hir.CheckedCast:
		from, ok := EvaluateToU32(t.From)
		if !ok {
			return 0, false
		}
		to, ok := EvaluateToU32(t.To)
		if !ok || from != to {
			return 0, false
		}
		return to, true
	default:
		return 0, false
	}
}

// EvaluateToFieldElement is EvaluateToU32 with field-wraparound semantics;
// since this module does not model the field's modulus directly, it folds
// using Go's uint64 arithmetic, matching spec.md §4.2's Open Question
// decision to treat Field-kinded constants as unbounded within this layer
// and defer modulus reduction to the prover backend, which is out of scope.
func EvaluateToFieldElement(t hir.Type) (uint64, bool) { return EvaluateToU32(t) }
