package hir

// Literal is the sum of literal forms a HIR expression can hold directly
// (spec.md §3's expression tree leaf nodes).
type Literal struct {
	Int    *IntLiteral
	Bool   *bool
	Str    *string
	FmtStr *FmtStrLiteral
	Unit   bool
	Array  *ArrayLiteral
}

// IntLiteral carries the raw magnitude plus sign; its final Type is whatever
// kind inference/defaulting later assigns (Field, iN, or uN).
type IntLiteral struct {
	Value    uint64
	Negative bool
}

// FmtStrLiteral is a format string split into its literal fragments plus the
// interpolated captures, each an already-lowered expression.
type FmtStrLiteral struct {
	Fragments []string
	Captures  []ExprId
}

type ArrayLiteral struct {
	Elements []ExprId
	Repeated bool // true for `[expr; N]` form; Elements has length 1 in that case
}

func IntLit(v uint64) Literal      { return Literal{Int: &IntLiteral{Value: v}} }
func NegIntLit(v uint64) Literal   { return Literal{Int: &IntLiteral{Value: v, Negative: true}} }
func BoolLit(b bool) Literal       { return Literal{Bool: &b} }
func StrLit(s string) Literal      { return Literal{Str: &s} }
func UnitLit() Literal             { return Literal{Unit: true} }
