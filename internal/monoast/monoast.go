// Package monoast defines the output of monomorphization: a tree shaped
// like internal/hir's expression tree but with every generic resolved to a
// concrete hir.Type, every trait-method call resolved to one concrete
// FuncId, and structs/enums lowered to tuples. This is what internal/ssa
// consumes.
//
// Grounded loosely on the shape of vm.Compiler's per-function state
// (compiler.go's Compiler struct: a function body plus resolved locals,
// globals and upvalues) — that struct is mutable compile-time bookkeeping
// for a stack VM; this package's Func is its immutable specialized-output
// analogue, one per (FuncId, concrete type args) tuple instead of one per
// surface function.
package monoast

import "github.com/latticec/zkmid/internal/hir"

// LocalId identifies a monomorphized local variable slot, distinct from
// hir.DefinitionId because one hir definition can specialize into many
// distinct monomorphized locals (once per generic instantiation it's used
// under).
type LocalId int

type Func struct {
	Name          string
	OriginalId    hir.FuncId
	TypeArgs      []hir.Type
	Params        []Param
	ReturnType    hir.Type
	Body          Expr
	Target        hir.RuntimeTarget
	Unconstrained bool
}

type Param struct {
	Local   LocalId
	Mutable bool
	Type    hir.Type
}

// Expr mirrors hir.Expr's shape-tagged-union pattern, but every field that
// was generic or method-call-unresolved in the HIR is now concrete.
type Expr struct {
	Type hir.Type
	Kind ExprKind
}

type ExprKind interface{ isMonoExprKind() }

func (Ident) isMonoExprKind()        {}
func (Literal) isMonoExprKind()      {}
func (Call) isMonoExprKind()         {}
func (Binary) isMonoExprKind()       {}
func (Unary) isMonoExprKind()        {}
func (If) isMonoExprKind()           {}
func (Block) isMonoExprKind()        {}
func (Let) isMonoExprKind()          {}
func (For) isMonoExprKind()          {}
func (While) isMonoExprKind()        {}
func (Loop) isMonoExprKind()         {}
func (Break) isMonoExprKind()        {}
func (Continue) isMonoExprKind()     {}
func (Tuple) isMonoExprKind()        {}
func (ArrayLit) isMonoExprKind()     {}
func (Index) isMonoExprKind()        {}
func (TupleAccess) isMonoExprKind()  {}
func (Cast) isMonoExprKind()         {}
func (FuncRef) isMonoExprKind()      {}
func (Assign) isMonoExprKind()       {}
func (Return) isMonoExprKind()       {}
func (Print) isMonoExprKind()        {}
func (Ref) isMonoExprKind()          {}
func (Deref) isMonoExprKind()        {}

type Ident struct{ Local LocalId }

type Literal struct{ Value hir.Literal }

// Call.Func is now always a concrete specialized function, identified by
// name (the specializer gives every (FuncId, TypeArgs) pair a unique
// mangled name — see mono.MangleName).
type Call struct {
	Func string
	Args []Expr
}

type Binary struct {
	Lhs Expr
	Op  hir.BinaryOp
	Rhs Expr
	// Overload, if set, names the concrete overload function this operator
	// lowered to (a struct/enum's user-defined Eq/Add/etc. impl).
	Overload string
}

type Unary struct {
	Op  hir.UnaryOp
	Rhs Expr
}

type If struct {
	Cond Expr
	Then Expr
	Else *Expr
}

type Block struct{ Statements []Stmt }

type Stmt struct {
	IsLet bool // distinguishes a Let binding from a bare expression statement
	Let   *Let
	Expr  *Expr
}

type Let struct {
	Local   LocalId
	Mutable bool
	Type    hir.Type
	Value   Expr
}

type For struct {
	LoopVar LocalId
	Start   Expr
	End     Expr
	Body    Expr
}

type While struct {
	Cond Expr
	Body Expr
}

type Loop struct{ Body Expr }

type Break struct{}
type Continue struct{}

// Tuple is the universal lowering target for struct literals, enum payload
// construction, and surface tuples alike (spec.md §4.3: "structs/enums
// lower to tuples").
type Tuple struct{ Elements []Expr }

type ArrayLit struct {
	Elements []Expr
	Repeated bool
}

type Index struct {
	Collection Expr
	Index      Expr
}

type TupleAccess struct {
	Object Expr
	Index  int
}

type Cast struct {
	Value Expr
	To    hir.Type
}

// FuncRef names a hoisted top-level function produced by lifting a closure
// literal (spec.md §4.3). A captureless closure lowers directly to a
// FuncRef; a capturing closure lowers to a Tuple of (env, FuncRef), with the
// env destructured back out at the call site since monoast.Call has no
// indirect-call mechanism to carry it implicitly.
type FuncRef struct{ Name string }

type Assign struct {
	Target Expr
	Value  Expr
}

type Return struct{ Value *Expr }

type Print struct {
	Args    []Expr
	Newline bool
}

type Ref struct {
	Value   Expr
	Mutable bool
}

type Deref struct{ Value Expr }
