package hir

// RuntimeTarget distinguishes the constrained (ACIR) target, where array
// bounds and memory semantics are enforced by the proving system, from the
// unconstrained (Brillig) target, which permits arbitrary control flow.
type RuntimeTarget int

const (
	ACIR RuntimeTarget = iota
	Brillig
)

// InlineType mirrors the original system's per-function inlining policy
// attribute (spec.md §6: "runtime type (Acir/Brillig + inline policy)").
type InlineType int

const (
	InlineDefault InlineType = iota
	InlineAlways
	NoPredicates
	Fold
)

// Param is a function parameter: id, mutability, display name, type, and
// field visibility (spec.md §6's Program.Function.parameters contract).
type Param struct {
	Id         DefinitionId
	Mutable    bool
	Name       string
	Type       Type
	Visibility Visibility
}

// FuncMeta is the input-side function metadata spec.md §6 describes: every
// function carries a signature, a body root ExprId, a runtime target, and
// modifiers.
type FuncMeta struct {
	Id             FuncId
	Name           string
	Generics       []GenericParam
	Params         []Param
	ReturnType     Type
	ReturnVisibility Visibility
	Body           ExprId
	Target         RuntimeTarget
	Inline         InlineType
	Unconstrained  bool
	Comptime       bool
	Where          []WhereClauseItem
	Location       Location

	// Builtin names the black-box/foreign attribute a function was declared
	// with (e.g. "sha256"), empty for an ordinary function with a real body
	// to monomorphize. spec.md §4.4's black-box and foreign calls both start
	// from this attribute; which of the two a name denotes is decided by
	// internal/mono's blackBoxFunctions table.
	Builtin string
}

func (f *FuncMeta) Signature() Type {
	args := make([]Type, len(f.Params))
	for i, p := range f.Params {
		args[i] = p.Type
	}
	return Function{Args: args, Ret: f.ReturnType, Env: Unit{}, Unconstrained: f.Unconstrained}
}

// DefinitionKind mirrors spec.md §3's DefinitionKind sum.
type DefinitionKind struct {
	Function          *FuncId
	Global            *GlobalId
	Local             *ExprId // nil ExprId pointer means "no initializer seen yet"
	NumericGeneric    *NumericGenericDef
	AssociatedConstant *AssociatedConstantDef
}

type NumericGenericDef struct {
	Var *Cell
	T   Type
}

type AssociatedConstantDef struct {
	Impl TraitImplId
	Name string
}

type DefinitionInfo struct {
	Id       DefinitionId
	Name     string
	Mutable  bool
	Comptime bool
	Kind     DefinitionKind
	Location Location
}

// Global is a top-level compile-time constant.
type Global struct {
	Id       GlobalId
	Name     string
	Type     Type
	Value    ExprId
	Location Location
}
