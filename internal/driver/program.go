package driver

import "github.com/latticec/zkmid/internal/hir"

// ParamInfo is spec.md §6's per-parameter Program.Function contract:
// (LocalId, mutable, name, Type, Visibility).
type ParamInfo struct {
	Local      int
	Mutable    bool
	Name       string
	Type       hir.Type
	Visibility hir.Visibility
}

// Function is one monomorphized, specialized function in the finished
// Program artifact (spec.md §6).
type Function struct {
	Id               hir.FuncId
	Name             string
	Parameters       []ParamInfo
	ReturnType       hir.Type
	ReturnVisibility hir.Visibility
	Unconstrained    bool
	InlineType       hir.InlineType
	Sig              hir.Type
}

// DebugInfo carries the non-functional metadata spec.md §6 names
// (debug_variables, debug_functions, debug_types) — human-readable names
// for locals and functions, plus the printable-type descriptors spec.md
// §4.3 says get attached to print/static_assert calls so a consumer VM can
// render a value without re-deriving its shape.
type DebugInfo struct {
	Variables map[int]string
	Functions map[hir.FuncId]string
	Types     map[hir.FuncId]TypeDescriptor
}

// TypeDescriptor is the JSON-renderable shape a "print" call's argument
// type carries, following spec.md §4.3's "printable-type metadata"
// requirement.
type TypeDescriptor struct {
	Kind     string           `json:"kind"`
	Arity    int              `json:"arity,omitempty"`
	Elements []TypeDescriptor `json:"elements,omitempty"`
}

// Program is the first of the two independent output artifacts spec.md §6
// names: (functions, func_sigs, main_sig, return_location, globals,
// debug_{variables,functions,types}).
type Program struct {
	Functions         []Function
	FuncSigs          map[hir.FuncId]hir.Type
	MainSig           hir.Type
	ReturnLocation    hir.Location
	Globals           []hir.Global
	Debug             DebugInfo
	CompilationUnitID string
}
