// Package interner implements the L0 layer: a single arena that owns every
// expression, statement, function, data type, trait, trait impl, and global
// by stable id, plus the cross-cutting lookup tables (method resolution,
// dependency graph) that the type/trait engine and monomorphizer query
// against rather than walking trees directly.
//
// Grounded on the map-keyed, outer-chained registration style of
// symbols.SymbolTable (symbol_table_core.go, symbol_table_resolution.go):
// that table is a scope-chained set of maps keyed by name; ours collapses
// the scope chain into one flat arena keyed by numeric id, since the HIR is
// already name-resolved by the time it reaches this module.
package interner

import (
	"fmt"
	"sort"

	"github.com/latticec/zkmid/internal/hir"
)

// NodeInterner is the arena described above.
type NodeInterner struct {
	exprs       map[hir.ExprId]*hir.Expr
	stmts       map[hir.StmtId]*hir.Stmt
	funcs       map[hir.FuncId]*hir.FuncMeta
	definitions map[hir.DefinitionId]*hir.DefinitionInfo
	dataTypes   map[hir.TypeId]*hir.DataType
	traits      map[hir.TraitId]*hir.Trait
	traitImpls  map[hir.TraitImplId]*hir.TraitImpl
	aliases     map[hir.TypeAliasId]*AliasDef
	globals     map[hir.GlobalId]*hir.Global

	methods  *MethodTable
	deps     *DependencyGraph
	nextCell hir.TypeVariableId

	quoted map[hir.QuotedTypeId]string
}

func New() *NodeInterner {
	return &NodeInterner{
		exprs:       make(map[hir.ExprId]*hir.Expr),
		stmts:       make(map[hir.StmtId]*hir.Stmt),
		funcs:       make(map[hir.FuncId]*hir.FuncMeta),
		definitions: make(map[hir.DefinitionId]*hir.DefinitionInfo),
		dataTypes:   make(map[hir.TypeId]*hir.DataType),
		traits:      make(map[hir.TraitId]*hir.Trait),
		traitImpls:  make(map[hir.TraitImplId]*hir.TraitImpl),
		aliases:     make(map[hir.TypeAliasId]*AliasDef),
		globals:     make(map[hir.GlobalId]*hir.Global),
		methods:     NewMethodTable(),
		deps:        NewDependencyGraph(),
		quoted:      make(map[hir.QuotedTypeId]string),
	}
}

// PushExpr stores e under its own Id and returns that Id for convenience.
func (n *NodeInterner) PushExpr(e *hir.Expr) hir.ExprId {
	n.exprs[e.Id] = e
	return e.Id
}

func (n *NodeInterner) Expr(id hir.ExprId) (*hir.Expr, bool) {
	e, ok := n.exprs[id]
	return e, ok
}

// ExprType is the accessor the type engine uses to both read and
// (via SetExprType) install the result of inference for a node — mirrors
// symbol_table's Symbol.Type slot, but keyed by node id instead of name.
func (n *NodeInterner) ExprType(id hir.ExprId) hir.Type {
	if e, ok := n.exprs[id]; ok {
		return e.Type
	}
	return hir.ErrorType{}
}

func (n *NodeInterner) SetExprType(id hir.ExprId, t hir.Type) {
	if e, ok := n.exprs[id]; ok {
		e.Type = t
	}
}

func (n *NodeInterner) PushStmt(s *hir.Stmt) hir.StmtId {
	n.stmts[s.Id] = s
	return s.Id
}

func (n *NodeInterner) Stmt(id hir.StmtId) (*hir.Stmt, bool) {
	s, ok := n.stmts[id]
	return s, ok
}

func (n *NodeInterner) PushFunc(f *hir.FuncMeta) hir.FuncId {
	n.funcs[f.Id] = f
	return f.Id
}

func (n *NodeInterner) Func(id hir.FuncId) (*hir.FuncMeta, bool) {
	f, ok := n.funcs[id]
	return f, ok
}

func (n *NodeInterner) PushDefinition(d *hir.DefinitionInfo) hir.DefinitionId {
	n.definitions[d.Id] = d
	return d.Id
}

func (n *NodeInterner) Definition(id hir.DefinitionId) (*hir.DefinitionInfo, bool) {
	d, ok := n.definitions[id]
	return d, ok
}

// PushDataType registers d and records a dependency edge to every other
// struct/enum type its fields/variants name directly, so Dependencies()
// can later detect a recursive struct (spec.md §8 scenario 5: a struct
// that transitively contains itself has no finite layout and must be
// rejected, unlike ordinary function recursion).
func (n *NodeInterner) PushDataType(d *hir.DataType) hir.TypeId {
	n.dataTypes[d.Id] = d
	from := TypeDependency(d.Id)
	for _, f := range d.Body.Fields {
		if ref, ok := f.Type.(hir.DataTypeRef); ok {
			n.deps.AddEdge(from, TypeDependency(ref.Id))
		}
	}
	for _, v := range d.Body.Variants {
		for _, t := range v.Types {
			if ref, ok := t.(hir.DataTypeRef); ok {
				n.deps.AddEdge(from, TypeDependency(ref.Id))
			}
		}
	}
	return d.Id
}

// RecordCall registers a "from calls to" function-level dependency edge.
// Wired from the monomorphizer (internal/mono.Specializer.Specialize), one
// call site per distinct callee it schedules; mutual/self recursion among
// functions is legal (spec.md §4.1), so nothing ever calls
// Dependencies().HasCycle(DependencyFunction) to reject it — only the
// struct/enum kind is checked.
func (n *NodeInterner) RecordCall(from, to hir.FuncId) {
	n.deps.AddEdge(FuncDependency(from), FuncDependency(to))
}

func (n *NodeInterner) DataType(id hir.TypeId) (*hir.DataType, bool) {
	d, ok := n.dataTypes[id]
	return d, ok
}

func (n *NodeInterner) PushGlobal(g *hir.Global) hir.GlobalId {
	n.globals[g.Id] = g
	return g.Id
}

func (n *NodeInterner) Global(id hir.GlobalId) (*hir.Global, bool) {
	g, ok := n.globals[id]
	return g, ok
}

// AllGlobals returns every registered global in ascending GlobalId order,
// for driver.Run's Program assembly (spec.md §6's Program.globals).
func (n *NodeInterner) AllGlobals() []*hir.Global {
	ids := make([]hir.GlobalId, 0, len(n.globals))
	for id := range n.globals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*hir.Global, len(ids))
	for i, id := range ids {
		out[i] = n.globals[id]
	}
	return out
}

// AllFuncs returns every registered function's metadata in ascending
// FuncId order, used by driver.Run to populate Program.FuncSigs for every
// declared function (not just those actually monomorphized).
func (n *NodeInterner) AllFuncs() []*hir.FuncMeta {
	ids := make([]hir.FuncId, 0, len(n.funcs))
	for id := range n.funcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*hir.FuncMeta, len(ids))
	for i, id := range ids {
		out[i] = n.funcs[id]
	}
	return out
}

// AliasDef is a `type Foo<T> = ...` declaration; kept here rather than in
// package hir since nothing outside the interner/engine needs to construct
// one directly.
type AliasDef struct {
	Id       hir.TypeAliasId
	Name     string
	Generics []hir.GenericParam
	Target   hir.Type
}

func (n *NodeInterner) PushAlias(a *AliasDef) hir.TypeAliasId {
	n.aliases[a.Id] = a
	return a.Id
}

func (n *NodeInterner) Alias(id hir.TypeAliasId) (*AliasDef, bool) {
	a, ok := n.aliases[id]
	return a, ok
}

// NextTypeVariable allocates a fresh Cell with a monotonically increasing
// id, the same role symbol_table's generic-name-suffix renaming serves
// (symbol_table_core.go's RenameTypeVars) but via an id counter instead of
// string concatenation, since our cells carry identity by pointer, not name.
func (n *NodeInterner) NextTypeVariable(k hir.Kind) *hir.Cell {
	id := n.nextCell
	n.nextCell++
	return hir.NewCell(id, k)
}

func (n *NodeInterner) PushQuoted(contents string) hir.QuotedTypeId {
	id := hir.QuotedTypeId(len(n.quoted))
	n.quoted[id] = contents
	return id
}

func (n *NodeInterner) Methods() *MethodTable       { return n.methods }
func (n *NodeInterner) Dependencies() *DependencyGraph { return n.deps }

// Trait/TraitImpl accessors.

func (n *NodeInterner) PushTrait(t *hir.Trait) hir.TraitId {
	n.traits[t.Id] = t
	return t.Id
}

func (n *NodeInterner) Trait(id hir.TraitId) (*hir.Trait, bool) {
	t, ok := n.traits[id]
	return t, ok
}

// AddTraitImplementation registers a concrete impl, checking for overlap
// against every impl already registered for the same trait (spec.md §4.1's
// coherence rule: two concrete impls of the same trait for unifiable object
// types are an error). Mirrors symbol_table_implementations.go's instance
// registration, generalized from name-keyed instance lists to a method table
// keyed by (TraitId, ObjectType shape).
func (n *NodeInterner) AddTraitImplementation(impl *hir.TraitImpl) error {
	for _, existing := range n.traitImpls {
		if existing.TraitId != impl.TraitId {
			continue
		}
		if overlaps(existing.ObjectType, impl.ObjectType) {
			return &OverlappingImplError{TraitId: impl.TraitId, A: existing.Id, B: impl.Id}
		}
	}
	n.traitImpls[impl.Id] = impl
	n.methods.AddTraitMethods(impl)
	return nil
}

// AddAssumedTraitImplementation registers a where-clause-derived assumption
// that ObjectType implements TraitId, without requiring a concrete Methods
// list — the monomorphizer resolves it to a concrete impl per call site.
// Rejects if an overlapping impl (assumed or concrete) already exists for
// this trait, the same coherence check AddTraitImplementation performs
// (spec.md §4.1).
func (n *NodeInterner) AddAssumedTraitImplementation(objectType hir.Type, traitId hir.TraitId, generics []hir.Type) error {
	for _, existing := range n.traitImpls {
		if existing.TraitId == traitId && overlaps(existing.ObjectType, objectType) {
			return &OverlappingImplError{TraitId: traitId, A: existing.Id}
		}
	}
	for _, existing := range n.methods.AssumedImpls(traitId) {
		if overlaps(existing, objectType) {
			return &OverlappingImplError{TraitId: traitId}
		}
	}
	n.methods.AddAssumedImpl(objectType, traitId, generics)
	return nil
}

func (n *NodeInterner) TraitImpl(id hir.TraitImplId) (*hir.TraitImpl, bool) {
	t, ok := n.traitImpls[id]
	return t, ok
}

// ImplsForTrait returns every concrete impl registered for traitId, in
// registration order (ascending TraitImplId). Ranging over the backing map
// directly would make impl search order-dependent on Go's randomized map
// iteration, violating spec.md §8's determinism invariant ("two invocations
// on equal inputs yield equal outputs") — ids are assigned in registration
// order, so sorting by id reconstructs it cheaply without a parallel slice.
func (n *NodeInterner) ImplsForTrait(traitId hir.TraitId) []hir.TraitImplId {
	var out []hir.TraitImplId
	for id, impl := range n.traitImpls {
		if impl.TraitId == traitId {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// overlaps is a conservative syntactic check: two object types overlap if
// their outermost constructors match (or either side is a bare type
// variable, which can unify with anything). This matches SPEC_FULL's Open
// Question decision to err toward rejecting potentially-overlapping impls
// rather than risk silently picking the wrong one.
func overlaps(a, b hir.Type) bool {
	_, aVar := a.(hir.TypeVariable)
	_, bVar := b.(hir.TypeVariable)
	if aVar || bVar {
		return true
	}
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

type OverlappingImplError struct {
	TraitId hir.TraitId
	A, B    hir.TraitImplId
}

func (e *OverlappingImplError) Error() string {
	return fmt.Sprintf("overlapping trait implementations %d and %d for trait %d", e.A, e.B, e.TraitId)
}
