package types

import "github.com/latticec/zkmid/internal/hir"

// OperatorTraits maps each overloadable binary operator to the trait whose
// impl provides it, and the method name that trait exposes. Grounded
// directly on symbol_table_traits.go's RegisterOperatorTrait/
// GetTraitForOperator map, generalized from a string->string map (operator
// symbol -> trait name) to a BinaryOp->(TraitId,method) map since this
// module's operators and traits are both interned ids, not source text.
type OperatorTraitEntry struct {
	TraitId hir.TraitId
	Method  string
}

// OperatorTraits is populated once the prelude's builtin traits (Eq, Ord,
// Add, Sub, Mul, Div, BitAnd, BitOr, BitXor, Shl, Shr) are interned; callers
// build one instance per compilation and pass it to ResolveOperator.
type OperatorTraits map[hir.BinaryOp]OperatorTraitEntry

// NeedsOverload reports whether op, applied to operands of the given kind,
// must dispatch through a user trait impl rather than a builtin numeric/
// boolean instruction. Builtin arithmetic and comparison apply directly to
// Field/Integer/Bool operands; everything else (struct/enum/reference
// operands) requires an overload.
func NeedsOverload(op hir.BinaryOp, operandType hir.Type) bool {
	switch operandType.(type) {
	case hir.FieldElement, hir.Integer, hir.Bool:
		return false
	default:
		return true
	}
}

// ResolveOperator looks up which trait/method a binary operator dispatches
// to for a non-builtin operand type.
func (ot OperatorTraits) ResolveOperator(op hir.BinaryOp) (OperatorTraitEntry, bool) {
	e, ok := ot[op]
	return e, ok
}
