package hir

import (
	"fmt"
	"strings"
)

// Type is the sum type of spec.md §3. Grounded on the variant-interface
// shape of internal/typesystem/types.go (TCon/TVar/TApp/...), extended with
// the numeric-generic, reference, trait-object, and quoted variants this
// language's lattice needs.
type Type interface {
	isType()
	String() string
}

func (FieldElement) isType()  {}
func (Integer) isType()       {}
func (Bool) isType()          {}
func (String) isType()        {}
func (FmtString) isType()     {}
func (Unit) isType()          {}
func (Array) isType()         {}
func (Slice) isType()         {}
func (Tuple) isType()         {}
func (DataTypeRef) isType()   {}
func (AliasRef) isType()      {}
func (Function) isType()      {}
func (Reference) isType()     {}
func (TraitAsType) isType()   {}
func (TypeVariable) isType()  {}
func (NamedGeneric) isType()  {}
func (Forall) isType()        {}
func (Constant) isType()      {}
func (InfixExpr) isType()     {}
func (CheckedCast) isType()   {}
func (Quoted) isType()        {}
func (ErrorType) isType()     {}

type Signedness int

const (
	Unsigned Signedness = iota
	Signed
)

func (s Signedness) String() string {
	if s == Signed {
		return "i"
	}
	return "u"
}

// FieldElement is the native field of the proving system.
type FieldElement struct{}

func (FieldElement) String() string { return "Field" }

// Integer is a fixed-width signed or unsigned integer; Bits is one of
// {1, 8, 16, 32, 64, 128}.
type Integer struct {
	Signedness Signedness
	Bits       uint8
}

func (t Integer) String() string { return fmt.Sprintf("%s%d", t.Signedness, t.Bits) }

type Bool struct{}

func (Bool) String() string { return "bool" }

// String is a fixed-length string type; Len is itself a Type of kind
// Numeric(u32) so it can be a generic (e.g. str<N>).
type String struct{ Len Type }

func (t String) String() string { return fmt.Sprintf("str<%s>", t.Len) }

// FmtString is a format string with an associated capture-types tuple.
type FmtString struct {
	Len Type
	Env Type
}

func (t FmtString) String() string { return fmt.Sprintf("fmtstr<%s, %s>", t.Len, t.Env) }

type Unit struct{}

func (Unit) String() string { return "()" }

type Array struct {
	Len  Type
	Elem Type
}

func (t Array) String() string { return fmt.Sprintf("[%s; %s]", t.Elem, t.Len) }

type Slice struct{ Elem Type }

func (t Slice) String() string { return fmt.Sprintf("[%s]", t.Elem) }

type Tuple struct{ Elems []Type }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// DataTypeRef references a struct or enum by TypeId; which of
// get_fields/get_variants succeeds on the referenced DataType distinguishes
// structs from enums (spec.md §3).
type DataTypeRef struct {
	Id       TypeId
	Name     string // carried for diagnostics/debug printing only
	Generics []Type
}

func (t DataTypeRef) String() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Generics))
	for i, g := range t.Generics {
		parts[i] = g.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
}

type AliasRef struct {
	Id       TypeAliasId
	Name     string
	Generics []Type
}

func (t AliasRef) String() string { return t.Name }

type Function struct {
	Args          []Type
	Ret           Type
	Env           Type
	Unconstrained bool
}

func (t Function) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	prefix := ""
	if t.Unconstrained {
		prefix = "unconstrained "
	}
	return fmt.Sprintf("%sfn(%s) -> %s", prefix, strings.Join(parts, ", "), t.Ret)
}

type Reference struct {
	Elem    Type
	Mutable bool
}

func (t Reference) String() string {
	if t.Mutable {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

type TraitAsType struct {
	Id       TraitId
	Name     string
	Generics []Type
}

func (t TraitAsType) String() string { return "impl " + t.Name }

// TypeVariable wraps an interior-mutable cell. Two Type values referencing
// the same *Cell are the same logical type variable (reference semantics,
// per spec.md §9's "arena-indexed cells" design note).
type TypeVariable struct{ Var *Cell }

func (t TypeVariable) String() string {
	if b, ok := t.Var.Binding(); ok {
		return b.String()
	}
	return fmt.Sprintf("?%d", t.Var.Id)
}

// NamedGeneric is a TypeVariable that additionally carries the surface name
// the programmer wrote (e.g. "T"), and whether it was introduced implicitly.
type NamedGeneric struct {
	Var      *Cell
	Name     string
	Implicit bool
}

func (t NamedGeneric) String() string {
	if b, ok := t.Var.Binding(); ok {
		return b.String()
	}
	return t.Name
}

// Forall is a universally quantified type scheme.
type Forall struct {
	Vars []*Cell
	Body Type
}

func (t Forall) String() string {
	names := make([]string, len(t.Vars))
	for i, v := range t.Vars {
		names[i] = fmt.Sprintf("?%d", v.Id)
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, " "), t.Body)
}

// Constant is a fully-evaluated const-generic value of the given kind.
type Constant struct {
	Value uint64
	K     Kind
}

func (t Constant) String() string { return fmt.Sprintf("%d", t.Value) }

type InfixOp int

const (
	OpAdd InfixOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op InfixOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return "?"
}

// InfixExpr represents an unevaluated arithmetic-generic expression such as
// `N + 1`. AutoCollapse enables the identity-collapsing simplifications
// (x*1=x, x+0=x) described in spec.md §4.2.
type InfixExpr struct {
	Lhs          Type
	Op           InfixOp
	Rhs          Type
	AutoCollapse bool
}

func (t InfixExpr) String() string { return fmt.Sprintf("(%s %s %s)", t.Lhs, t.Op, t.Rhs) }

// CheckedCast represents a const-generic cast whose soundness depends on
// From and To evaluating to the same field element (spec.md §4.2).
type CheckedCast struct {
	From Type
	To   Type
}

func (t CheckedCast) String() string { return fmt.Sprintf("(%s as %s)", t.From, t.To) }

// QuotedType is an opaque token-quotation payload; its contents are outside
// this module's scope (comptime metaprogramming internals), but the type
// system needs a stable id to reference it.
type Quoted struct{ Id QuotedTypeId }

func (t Quoted) String() string { return fmt.Sprintf("quoted<%d>", t.Id) }

// ErrorType is produced for unrecoverable type errors so downstream passes
// can continue without panicking.
type ErrorType struct{}

func (ErrorType) String() string { return "<error>" }

// Cell is the interior-mutable type-variable cell described in spec.md §3
// and §9: either Unbound(id, kind) or Bound(type). Binding is append-only
// at the cell level but may be explicitly undone (see bindings.go).
type Cell struct {
	Id      TypeVariableId
	K       Kind
	binding Type // nil when unbound
}

func NewCell(id TypeVariableId, k Kind) *Cell { return &Cell{Id: id, K: k} }

func (c *Cell) Binding() (Type, bool) {
	if c.binding == nil {
		return nil, false
	}
	return c.binding, true
}

func (c *Cell) IsUnbound() bool { return c.binding == nil }

// Bind installs a binding directly, bypassing the undo-log bookkeeping in
// TypeBindings. Callers that need rollback must go through
// PerformInstantiationBindings/UndoInstantiationBindings instead.
func (c *Cell) Bind(t Type) { c.binding = t }

func (c *Cell) Unbind() { c.binding = nil }

// KindOf returns the kind of a fully-resolved type (following TypeVariable
// bindings, kind defaulting notwithstanding).
func KindOf(t Type) Kind {
	switch t := t.(type) {
	case FieldElement:
		return KindNormal{}
	case Integer, Bool, String, FmtString, Unit, Array, Slice, Tuple,
		DataTypeRef, AliasRef, Function, Reference, TraitAsType, Quoted, ErrorType:
		return KindNormal{}
	case TypeVariable:
		if b, ok := t.Var.Binding(); ok {
			return KindOf(b)
		}
		return t.Var.K
	case NamedGeneric:
		if b, ok := t.Var.Binding(); ok {
			return KindOf(b)
		}
		return t.Var.K
	case Forall:
		return KindOf(t.Body)
	case Constant:
		return t.K
	case InfixExpr:
		return KindOf(t.Lhs)
	case CheckedCast:
		return KindOf(t.To)
	default:
		return KindAny{}
	}
}

// TypesEqual is a syntactic (post-substitution) equality check used by
// kind unification and co-inductive cycle guards.
func TypesEqual(a, b Type) bool {
	return a.String() == b.String()
}
