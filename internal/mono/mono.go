// Package mono implements the L2 layer: monomorphization. Every generic
// function is specialized once per distinct (is_unconstrained, concrete
// type argument list) combination actually used in the program, producing
// the monoast tree internal/ssa lowers next.
//
// Grounded loosely on vm.Compiler's per-function compile state
// (compiler.go), generalized from "one Compiler per surface function,
// recompiled inline at each call site up to specializeDepth" into an
// explicit worklist that specializes each distinct instantiation exactly
// once and memoizes the result — funxy's own comment on specializeDepth
// ("guards against infinite monomorphization recursion") names the same
// hazard spec.md §4.3 asks this layer to guard against structurally instead
// of with a depth counter.
package mono

import (
	"fmt"
	"strings"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/interner"
	"github.com/latticec/zkmid/internal/monoast"
	"github.com/latticec/zkmid/internal/types"
)

// specKey is the worklist/memo key: a function plus whether it runs
// unconstrained plus its concrete type arguments (stringified, since
// hir.Type has no comparable representation once it may contain cell
// pointers).
type specKey struct {
	fn            hir.FuncId
	unconstrained bool
	typeArgs      string
}

type workItem struct {
	fn       hir.FuncId
	typeArgs []hir.Type
}

// Specializer owns the worklist and the table mapping specKey to the
// mangled name assigned to that specialization.
type Specializer struct {
	interner *interner.NodeInterner
	done     map[specKey]string
	queue    []workItem
	out      []*monoast.Func
	locals   map[hir.DefinitionId]monoast.LocalId
	nextLoc  monoast.LocalId

	// currentFn is the function currently being lowered by specializeOne,
	// used to (a) record a caller->callee dependency edge on every
	// Specialize call and (b) attribute a lifted closure to the right
	// runtime target.
	currentFn hir.FuncId

	// closures tracks every active closure-lowering frame, innermost last,
	// so captures that reach a parent closure's own environment (rather
	// than a true outer local) can be rewritten to read through it
	// (spec.md §4.3).
	closures      []closureFrame
	nextSynthetic hir.DefinitionId
	closureSeq    int

	// closureBindings remembers, for a let-bound local whose initializer was
	// a closure literal, which hoisted function its calls resolve to. This
	// is how a later `f(x)` through that local is lowered to a direct
	// monoast.Call instead of true indirect dispatch, which monoast.Call has
	// no way to express (spec.md §4.3; see DESIGN.md for the scope this
	// covers).
	closureBindings map[hir.DefinitionId]closureBinding

	// lastClosureName/lastClosureHasEnv are a one-shot handoff from
	// lowerClosure to its immediate caller (the hir.Let or hir.Call case
	// that just lowered a closure literal), naming the hoisted function it
	// produced. Safe because lowerClosure always sets these last, after any
	// nested closure lowering it triggered has already overwritten and been
	// read back out of them.
	lastClosureName   string
	lastClosureHasEnv bool

	// localTypes records the concrete type each monoast local was declared
	// with, so a closure's captured-variable env tuple can be built with
	// accurate element types without re-deriving them from HIR.
	localTypes map[monoast.LocalId]hir.Type
}

// closureBinding is the value type of Specializer.closureBindings.
type closureBinding struct {
	name   string
	hasEnv bool
}

func New(n *interner.NodeInterner) *Specializer {
	return &Specializer{
		interner:        n,
		done:            make(map[specKey]string),
		locals:          make(map[hir.DefinitionId]monoast.LocalId),
		nextSynthetic:   -1, // real DefinitionIds are always >= 1; negative ids never collide
		closureBindings: make(map[hir.DefinitionId]closureBinding),
		localTypes:      make(map[monoast.LocalId]hir.Type),
	}
}

// freshSyntheticDef mints a DefinitionId for compiler-introduced bindings
// (a hoisted closure's env parameter) that never appeared in the original
// HIR, so s.localOf can give it a LocalId the same way it does for any
// other definition.
func (s *Specializer) freshSyntheticDef() hir.DefinitionId {
	d := s.nextSynthetic
	s.nextSynthetic--
	return d
}

// MangleName derives the specialized function's display name from the
// surface name and its concrete type arguments, e.g. `identity<Field>`.
func MangleName(name string, typeArgs []hir.Type) string {
	if len(typeArgs) == 0 {
		return name
	}
	parts := make([]string, len(typeArgs))
	for i, t := range typeArgs {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s<%s>", name, strings.Join(parts, ", "))
}

func keyOf(fn hir.FuncId, unconstrained bool, typeArgs []hir.Type) specKey {
	parts := make([]string, len(typeArgs))
	for i, t := range typeArgs {
		parts[i] = t.String()
	}
	return specKey{fn: fn, unconstrained: unconstrained, typeArgs: strings.Join(parts, ",")}
}

// Specialize schedules fn for specialization under typeArgs if not already
// done or queued, returning the mangled name call sites should use.
func (s *Specializer) Specialize(fn hir.FuncId, typeArgs []hir.Type) (string, error) {
	meta, ok := s.interner.Func(fn)
	if !ok {
		return "", fmt.Errorf("unknown function id %d", fn)
	}
	s.interner.RecordCall(s.currentFn, fn)
	k := keyOf(fn, meta.Unconstrained, typeArgs)
	if name, ok := s.done[k]; ok {
		return name, nil
	}
	name := MangleName(meta.Name, typeArgs)
	s.done[k] = name // reserve the name before recursing, so mutual/self recursion terminates
	s.queue = append(s.queue, workItem{fn: fn, typeArgs: typeArgs})
	return name, nil
}

// Run drains the worklist, lowering each scheduled instantiation in turn.
// New work discovered while lowering one function (a call to another
// generic function) is appended and processed before Run returns.
func (s *Specializer) Run() ([]*monoast.Func, error) {
	for len(s.queue) > 0 {
		item := s.queue[0]
		s.queue = s.queue[1:]
		fn, err := s.specializeOne(item.fn, item.typeArgs)
		if err != nil {
			return nil, err
		}
		s.out = append(s.out, fn)
	}
	return s.out, nil
}

func (s *Specializer) specializeOne(fnId hir.FuncId, typeArgs []hir.Type) (*monoast.Func, error) {
	meta, ok := s.interner.Func(fnId)
	if !ok {
		return nil, fmt.Errorf("unknown function id %d", fnId)
	}
	prevFn := s.currentFn
	s.currentFn = fnId
	defer func() { s.currentFn = prevFn }()

	bindings := hir.NewTypeBindings()
	for i, g := range meta.Generics {
		if i < len(typeArgs) {
			bindings[g.Var.Id] = hir.Binding{Cell: g.Var, Kind: g.K, Type: typeArgs[i]}
		}
	}

	params := make([]monoast.Param, len(meta.Params))
	for i, p := range meta.Params {
		local := s.freshLocal(p.Id)
		t := hir.Substitute(p.Type, bindings)
		s.localTypes[local] = t
		params[i] = monoast.Param{Local: local, Mutable: p.Mutable, Type: t}
	}

	bodyExpr, ok := s.interner.Expr(meta.Body)
	if !ok {
		return nil, fmt.Errorf("function %s has no lowered body", meta.Name)
	}
	body, err := s.lowerExpr(bodyExpr, bindings)
	if err != nil {
		return nil, err
	}

	return &monoast.Func{
		Name:          MangleName(meta.Name, typeArgs),
		OriginalId:    fnId,
		TypeArgs:      typeArgs,
		Params:        params,
		ReturnType:    hir.Substitute(meta.ReturnType, bindings),
		Body:          body,
		Target:        meta.Target,
		Unconstrained: meta.Unconstrained,
	}, nil
}

func (s *Specializer) freshLocal(def hir.DefinitionId) monoast.LocalId {
	if l, ok := s.locals[def]; ok {
		return l
	}
	l := s.nextLoc
	s.nextLoc++
	s.locals[def] = l
	return l
}

func (s *Specializer) localOf(def hir.DefinitionId) monoast.LocalId {
	return s.freshLocal(def)
}

// typeOfLocal reports the concrete type a monomorphized local was declared
// with, falling back to Unit for the rare local (e.g. a captured loop
// variable) this module never recorded a type for.
func (s *Specializer) typeOfLocal(l monoast.LocalId) hir.Type {
	if t, ok := s.localTypes[l]; ok {
		return t
	}
	return hir.Unit{}
}

// freshClosureName mints a unique name for a hoisted closure function,
// distinct from any surface function's mangled name.
func (s *Specializer) freshClosureName() string {
	s.closureSeq++
	return fmt.Sprintf("closure$%d", s.closureSeq)
}

// currentClosureFrame returns the innermost closure currently being lowered,
// if any.
func (s *Specializer) currentClosureFrame() (closureFrame, bool) {
	if len(s.closures) == 0 {
		return closureFrame{}, false
	}
	return s.closures[len(s.closures)-1], true
}

// ZeroedValueOf returns the monoast literal a fully-zeroed value of t would
// lower to, used to materialize the implicit default for an uninitialized
// array/struct slot (spec.md §4.3).
func ZeroedValueOf(t hir.Type) monoast.Expr {
	switch t := t.(type) {
	case hir.FieldElement, hir.Integer:
		return monoast.Expr{Type: t, Kind: monoast.Literal{Value: hir.IntLit(0)}}
	case hir.Bool:
		return monoast.Expr{Type: t, Kind: monoast.Literal{Value: hir.BoolLit(false)}}
	case hir.Unit:
		return monoast.Expr{Type: t, Kind: monoast.Literal{Value: hir.UnitLit()}}
	case hir.Array:
		n, _ := types.EvaluateToU32(t.Len)
		elems := make([]monoast.Expr, n)
		for i := range elems {
			elems[i] = ZeroedValueOf(t.Elem)
		}
		return monoast.Expr{Type: t, Kind: monoast.ArrayLit{Elements: elems}}
	case hir.Tuple:
		elems := make([]monoast.Expr, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = ZeroedValueOf(e)
		}
		return monoast.Expr{Type: t, Kind: monoast.Tuple{Elements: elems}}
	default:
		return monoast.Expr{Type: t, Kind: monoast.Literal{Value: hir.UnitLit()}}
	}
}

// PrintableTypeOf reports the metadata the print intrinsic needs to render
// a value of t at runtime (field count and whether it's a string-like
// type), mirroring spec.md §4.3's "printable-type metadata" requirement.
type PrintableType struct {
	IsString bool
	Arity    int
}

func PrintableTypeOf(t hir.Type) PrintableType {
	switch t := t.(type) {
	case hir.String, hir.FmtString:
		return PrintableType{IsString: true}
	case hir.Tuple:
		return PrintableType{Arity: len(t.Elems)}
	case hir.Array:
		n, _ := types.EvaluateToU32(t.Len)
		return PrintableType{Arity: int(n)}
	default:
		return PrintableType{Arity: 1}
	}
}
