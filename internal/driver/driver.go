// Package driver orchestrates the L0..L3 pipeline described in spec.md §6:
// it drives the interner, type/trait engine, monomorphizer, SSA lowering,
// and bytecode generator in sequence and assembles their outputs into the
// two artifacts spec.md §6 names (a Program record and a per-function
// bytecode Chunk), plus the pipeline configuration and stats reporting
// that supplement it (SPEC_FULL.md §1).
//
// There is no scheduler here (spec.md §5: "single-threaded and
// non-suspending") — Run is a single straight-line function that walks the
// pipeline phase by phase, exactly as spec.md §5 describes "a single
// logical owner (the driver) walks the pipeline phase-by-phase."
package driver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/latticec/zkmid/internal/bytecode"
	"github.com/latticec/zkmid/internal/diagnostics"
	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/interner"
	"github.com/latticec/zkmid/internal/mono"
	"github.com/latticec/zkmid/internal/monoast"
	"github.com/latticec/zkmid/internal/ssa"
	"github.com/latticec/zkmid/internal/types"
)

// Result bundles both of spec.md §6's output artifacts plus the
// observability SPEC_FULL.md §4 adds: Program is the monomorphized-program
// record, Bytecode maps each monomorphized function's mangled name to its
// emitted Chunk (spec.md §6: "labels keyed by (FunctionId, BasicBlockId)"
// — block ids are resolved to byte offsets inside each Chunk during
// generation; at this level a Chunk is addressed by its owning function),
// and Stats/Errors report how
// the run went.
type Result struct {
	Program  *Program
	Bytecode map[string]*bytecode.Chunk
	Stats    Stats
	Errors   []*diagnostics.CompilationError
}

// Run drives the full pipeline for one compilation unit: it installs
// cfg.ImplSearchBudget as the type engine's recursion bound, monomorphizes
// main (and everything main transitively calls) per spec.md §4.3, lowers
// each specialization to SSA and then to bytecode per spec.md §4.5/§4.4,
// and assembles the Program artifact per spec.md §6.
//
// A monomorphization error aborts the run immediately (spec.md §7: "The
// monomorphizer returns on the first error, since the monomorphized AST
// must be complete and sound"); a bytecode-generation error is treated as
// an ICE since by that point the input is assumed well-typed (spec.md §7).
func Run(n *interner.NodeInterner, mainId hir.FuncId, cfg *PipelineConfig) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	types.MaxImplSearchDepth = cfg.ImplSearchBudget

	mainMeta, ok := n.Func(mainId)
	if !ok {
		return nil, fmt.Errorf("driver: main function %d not found", mainId)
	}

	if n.Dependencies().HasCycle(interner.DependencyType) {
		return nil, &diagnostics.CompilationError{
			Kind:    diagnostics.TypeCheck,
			Message: "recursive struct or enum: a type transitively contains itself and has no finite layout",
			Primary: mainMeta.Location,
		}
	}

	spec := mono.New(n)
	if _, err := spec.Specialize(mainId, nil); err != nil {
		return nil, fmt.Errorf("driver: scheduling main for monomorphization: %w", err)
	}
	monoFuncs, err := spec.Run()
	if err != nil {
		return nil, &diagnostics.CompilationError{
			Kind:    diagnostics.Monomorphization,
			Message: err.Error(),
			Primary: mainMeta.Location,
		}
	}

	bc := make(map[string]*bytecode.Chunk, len(monoFuncs))
	functions := make([]Function, 0, len(monoFuncs))
	debugFuncs := make(map[hir.FuncId]string, len(monoFuncs))
	debugTypes := make(map[hir.FuncId]TypeDescriptor, len(monoFuncs))
	totalBytes := 0

	for _, f := range monoFuncs {
		ssaFn, err := ssa.Build(f)
		if err != nil {
			return nil, fmt.Errorf("ICE: lowering %s to SSA: %w", f.Name, err)
		}
		chunk, err := bytecode.Generate(ssaFn)
		if err != nil {
			return nil, fmt.Errorf("ICE: generating bytecode for %s: %w", f.Name, err)
		}
		bc[f.Name] = chunk
		totalBytes += chunk.Len()

		origMeta, _ := n.Func(f.OriginalId)
		functions = append(functions, Function{
			Id:               f.OriginalId,
			Name:             f.Name,
			Parameters:       paramInfos(f, origMeta),
			ReturnType:       f.ReturnType,
			ReturnVisibility: visibilityOf(origMeta),
			Unconstrained:    f.Unconstrained,
			InlineType:       inlineOf(origMeta),
			Sig:              hir.Function{Args: paramTypes(f), Ret: f.ReturnType, Env: hir.Unit{}, Unconstrained: f.Unconstrained},
		})
		debugFuncs[f.OriginalId] = f.Name
		debugTypes[f.OriginalId] = describeType(f.ReturnType)
	}

	funcSigs := make(map[hir.FuncId]hir.Type)
	for _, meta := range n.AllFuncs() {
		funcSigs[meta.Id] = meta.Signature()
	}

	globals := make([]hir.Global, 0)
	for _, g := range n.AllGlobals() {
		globals = append(globals, *g)
	}

	program := &Program{
		Functions:      functions,
		FuncSigs:       funcSigs,
		MainSig:        mainMeta.Signature(),
		ReturnLocation: mainMeta.Location,
		Globals:        globals,
		Debug: DebugInfo{
			Variables: map[int]string{},
			Functions: debugFuncs,
			Types:     debugTypes,
		},
		CompilationUnitID: uuid.New().String(),
	}

	stats := Stats{
		FunctionsMonomorphized: len(monoFuncs),
		SpecializationsCreated: len(monoFuncs),
		BytecodeBytes:          totalBytes,
		GlobalsHoisted:         len(globals),
	}

	return &Result{Program: program, Bytecode: bc, Stats: stats}, nil
}

func paramTypes(f *monoast.Func) []hir.Type {
	out := make([]hir.Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type
	}
	return out
}

func paramInfos(f *monoast.Func, orig *hir.FuncMeta) []ParamInfo {
	out := make([]ParamInfo, len(f.Params))
	for i, p := range f.Params {
		info := ParamInfo{Local: int(p.Local), Mutable: p.Mutable, Type: p.Type}
		if orig != nil && i < len(orig.Params) {
			info.Name = orig.Params[i].Name
			info.Visibility = orig.Params[i].Visibility
		}
		out[i] = info
	}
	return out
}

func visibilityOf(meta *hir.FuncMeta) hir.Visibility {
	if meta == nil {
		return hir.Private
	}
	return meta.ReturnVisibility
}

func inlineOf(meta *hir.FuncMeta) hir.InlineType {
	if meta == nil {
		return hir.InlineDefault
	}
	return meta.Inline
}

// describeType builds the JSON-renderable TypeDescriptor spec.md §4.3's
// printable-type metadata requires for a print/static_assert argument.
func describeType(t hir.Type) TypeDescriptor {
	switch t := t.(type) {
	case hir.String, hir.FmtString:
		return TypeDescriptor{Kind: "string"}
	case hir.Bool:
		return TypeDescriptor{Kind: "bool"}
	case hir.Integer:
		return TypeDescriptor{Kind: "int"}
	case hir.FieldElement:
		return TypeDescriptor{Kind: "field"}
	case hir.Tuple:
		elems := make([]TypeDescriptor, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = describeType(e)
		}
		return TypeDescriptor{Kind: "tuple", Arity: len(t.Elems), Elements: elems}
	case hir.Array:
		n, _ := types.EvaluateToU32(t.Len)
		return TypeDescriptor{Kind: "array", Arity: int(n), Elements: []TypeDescriptor{describeType(t.Elem)}}
	default:
		return TypeDescriptor{Kind: "unit"}
	}
}
