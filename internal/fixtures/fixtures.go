// Package fixtures builds small, fully elaborated HIR programs directly
// against package hir/interner, standing in for the serialized HIR a real
// front end would hand the driver (spec.md §6: "a fully elaborated HIR
// program"). Serializing/deserializing HIR is outside spec.md's scope (the
// parser, name resolver, and wire format are all named external
// collaborators in §1), so cmd/zkmidc selects one of these in-process
// builders by name instead of reading a file from disk — see DESIGN.md for
// the rationale.
//
// Each builder corresponds to one of spec.md §8's end-to-end testable
// scenarios, so running the CLI against a fixture is a direct,
// human-drivable demonstration of the property that scenario describes.
package fixtures

import (
	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/interner"
)

// Program is a built fixture: the interner it was constructed in, plus the
// id of its entry-point function.
type Program struct {
	Interner *interner.NodeInterner
	Main     hir.FuncId
}

var nextID int

func id() int {
	nextID++
	return nextID
}

// Identity builds spec.md §8 scenario 1: `fn id<T>(x: T) -> T { x }`,
// called as `id::<u32>(5)` and `id::<bool>(true)` from main. A correct
// monomorphizer produces exactly two specializations; each one's bytecode
// is a single move from the argument register to the return register.
func Identity() *Program {
	n := interner.New()

	genericVar := n.NextTypeVariable(hir.KindNormal{})
	tType := hir.NamedGeneric{Var: genericVar, Name: "T"}

	xParamDef := hir.DefinitionId(id())
	bodyExprID := hir.ExprId(id())
	n.PushExpr(&hir.Expr{
		Id:       bodyExprID,
		Type:     tType,
		Location: hir.Location{File: "fixtures/identity.nr", Line: 1, Col: 24},
		Kind:     hir.Ident{Def: xParamDef},
	})

	idFuncID := hir.FuncId(id())
	idFunc := &hir.FuncMeta{
		Id:       idFuncID,
		Name:     "id",
		Generics: []hir.GenericParam{{Var: genericVar, Name: "T", K: hir.KindNormal{}}},
		Params:   []hir.Param{{Id: xParamDef, Name: "x", Type: tType}},
		ReturnType: tType,
		Body:       bodyExprID,
		Target:     hir.ACIR,
		Location:   hir.Location{File: "fixtures/identity.nr", Line: 1, Col: 1},
	}
	n.PushFunc(idFunc)

	idDefID := hir.DefinitionId(id())
	n.PushDefinition(&hir.DefinitionInfo{
		Id:   idDefID,
		Name: "id",
		Kind: hir.DefinitionKind{Function: &idFuncID},
	})

	u32 := hir.Integer{Signedness: hir.Unsigned, Bits: 32}
	callU32 := makeCall(n, idDefID, []hir.Type{u32}, []hir.Expr{
		{Type: u32, Kind: hir.LiteralExpr{Value: hir.IntLit(5)}},
	}, u32)

	callBool := makeCall(n, idDefID, []hir.Type{hir.Bool{}}, []hir.Expr{
		{Type: hir.Bool{}, Kind: hir.LiteralExpr{Value: hir.BoolLit(true)}},
	}, hir.Bool{})

	bodyID := block(n, []hir.ExprId{callU32, callBool}, hir.Unit{})

	mainID := hir.FuncId(id())
	n.PushFunc(&hir.FuncMeta{
		Id:         mainID,
		Name:       "main",
		ReturnType: hir.Unit{},
		Body:       bodyID,
		Target:     hir.ACIR,
		Location:   hir.Location{File: "fixtures/identity.nr", Line: 5, Col: 1},
	})

	return &Program{Interner: n, Main: mainID}
}

// CheckedAdd builds spec.md §8 scenario 4: `(x + y): u8` with overflow
// checking enabled. The emitted bytecode for the addition must contain a
// LessThanEquals post-condition and a constrain with the message "attempt
// to add with overflow" (internal/bytecode's checked-arithmetic lowering).
func CheckedAdd() *Program {
	n := interner.New()
	u8 := hir.Integer{Signedness: hir.Unsigned, Bits: 8}

	xParam := hir.DefinitionId(id())
	yParam := hir.DefinitionId(id())

	xExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: xExpr, Type: u8, Kind: hir.Ident{Def: xParam}})
	yExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: yExpr, Type: u8, Kind: hir.Ident{Def: yParam}})

	addExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{
		Id:   addExpr,
		Type: u8,
		Kind: hir.Binary{Lhs: xExpr, Op: hir.OpArithAdd, Rhs: yExpr},
	})

	addFuncID := hir.FuncId(id())
	n.PushFunc(&hir.FuncMeta{
		Id:         addFuncID,
		Name:       "checked_add",
		Params:     []hir.Param{{Id: xParam, Name: "x", Type: u8}, {Id: yParam, Name: "y", Type: u8}},
		ReturnType: u8,
		Body:       addExpr,
		Target:     hir.ACIR,
		Location:   hir.Location{File: "fixtures/checked_add.nr", Line: 1, Col: 1},
	})

	return &Program{Interner: n, Main: addFuncID}
}

// ClosureCapture builds a small program exercising spec.md §4.3's closure
// lifting: `let x = 5; let add_x = |y: u32| -> u32 { x + y }; add_x(3)`.
// `add_x` captures `x`, is bound by a direct `let`, and is called through
// that local — the one indirection internal/mono's closure lowering
// resolves to a static call (see DESIGN.md's monoast/mono section).
func ClosureCapture() *Program {
	n := interner.New()
	u32 := hir.Integer{Signedness: hir.Unsigned, Bits: 32}

	xDef := hir.DefinitionId(id())
	xLitExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: xLitExpr, Type: u32, Kind: hir.LiteralExpr{Value: hir.IntLit(5)}})
	letXExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: letXExpr, Type: u32, Kind: hir.Let{Def: xDef, Type: u32, Value: xLitExpr}})
	letXStmt := hir.StmtId(id())
	n.PushStmt(&hir.Stmt{Id: letXStmt, Kind: hir.LetStmt{Expr: letXExpr}})

	yParamDef := hir.DefinitionId(id())
	xInClosure := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: xInClosure, Type: u32, Kind: hir.Ident{Def: xDef}})
	yInClosure := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: yInClosure, Type: u32, Kind: hir.Ident{Def: yParamDef}})
	addExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: addExpr, Type: u32, Kind: hir.Binary{Lhs: xInClosure, Op: hir.OpArithAdd, Rhs: yInClosure}})

	fnType := hir.Function{Args: []hir.Type{u32}, Ret: u32}
	closureDef := hir.DefinitionId(id())
	closureExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: closureExpr, Type: fnType, Kind: hir.Closure{
		Params:   []hir.Param{{Id: yParamDef, Name: "y", Type: u32}},
		Body:     addExpr,
		Captures: []hir.DefinitionId{xDef},
	}})
	letClosureExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: letClosureExpr, Type: fnType, Kind: hir.Let{Def: closureDef, Type: fnType, Value: closureExpr}})
	letClosureStmt := hir.StmtId(id())
	n.PushStmt(&hir.Stmt{Id: letClosureStmt, Kind: hir.LetStmt{Expr: letClosureExpr}})

	closureIdent := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: closureIdent, Kind: hir.Ident{Def: closureDef}})
	argExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: argExpr, Type: u32, Kind: hir.LiteralExpr{Value: hir.IntLit(3)}})
	callExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: callExpr, Type: u32, Kind: hir.Call{Func: closureIdent, Args: []hir.ExprId{argExpr}}})
	callStmt := hir.StmtId(id())
	n.PushStmt(&hir.Stmt{Id: callStmt, Kind: hir.ExprStmt{Expr: callExpr}})

	bodyID := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: bodyID, Type: u32, Kind: hir.Block{Statements: []hir.StmtId{letXStmt, letClosureStmt, callStmt}}})

	mainID := hir.FuncId(id())
	n.PushFunc(&hir.FuncMeta{
		Id:         mainID,
		Name:       "main",
		ReturnType: u32,
		Body:       bodyID,
		Target:     hir.ACIR,
		Location:   hir.Location{File: "fixtures/closure_capture.nr", Line: 1, Col: 1},
	})

	return &Program{Interner: n, Main: mainID}
}

// SlicePushBack builds spec.md §8 scenario 6: `fn grow(s: [[u32; 2]], x:
// [u32; 2]) -> [[u32; 2]] { s.push_back(x) }`, a slice of element-size-2
// arrays. A correct lowering moves the slice's user-visible length register
// by exactly one (a plain ADD of the constant 1) while the backing
// array's resize is recorded with ElementSize == 2 — the length-arithmetic
// property this scenario tests.
func SlicePushBack() *Program {
	n := interner.New()
	u32 := hir.Integer{Signedness: hir.Unsigned, Bits: 32}
	elem := hir.Array{Len: hir.Constant{Value: 2, K: hir.KindInteger{}}, Elem: u32}
	sliceType := hir.Slice{Elem: elem}

	sParam := hir.DefinitionId(id())
	xParam := hir.DefinitionId(id())

	sExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: sExpr, Type: sliceType, Kind: hir.Ident{Def: sParam}})
	xExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: xExpr, Type: elem, Kind: hir.Ident{Def: xParam}})

	pushExpr := hir.ExprId(id())
	n.PushExpr(&hir.Expr{
		Id:   pushExpr,
		Type: sliceType,
		Kind: hir.MethodCall{Object: sExpr, MethodName: "push_back", Args: []hir.ExprId{xExpr}},
	})

	growFuncID := hir.FuncId(id())
	n.PushFunc(&hir.FuncMeta{
		Id:         growFuncID,
		Name:       "grow",
		Params:     []hir.Param{{Id: sParam, Name: "s", Type: sliceType}, {Id: xParam, Name: "x", Type: elem}},
		ReturnType: sliceType,
		Body:       pushExpr,
		Target:     hir.ACIR,
		Location:   hir.Location{File: "fixtures/slice_push_back.nr", Line: 1, Col: 1},
	})

	return &Program{Interner: n, Main: growFuncID}
}

// makeCall interns a `name::<generics>(args...)`-shaped call expression and
// returns its ExprId, given the callee's DefinitionId.
func makeCall(n *interner.NodeInterner, calleeDef hir.DefinitionId, generics []hir.Type, args []hir.Expr, retType hir.Type) hir.ExprId {
	argIDs := make([]hir.ExprId, len(args))
	for i, a := range args {
		eid := hir.ExprId(id())
		a.Id = eid
		n.PushExpr(&a)
		argIDs[i] = eid
	}

	identID := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: identID, Kind: hir.Ident{Def: calleeDef, Generics: generics}})

	callID := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: callID, Type: retType, Kind: hir.Call{Func: identID, Args: argIDs}})
	return callID
}

// block interns a Block expression wrapping each exprID as a discarded
// statement, with a final Unit-typed tail value.
func block(n *interner.NodeInterner, exprIDs []hir.ExprId, tailType hir.Type) hir.ExprId {
	stmtIDs := make([]hir.StmtId, len(exprIDs))
	for i, eid := range exprIDs {
		sid := hir.StmtId(id())
		n.PushStmt(&hir.Stmt{Id: sid, Kind: hir.SemiStmt{Expr: eid}})
		stmtIDs[i] = sid
	}
	bodyID := hir.ExprId(id())
	n.PushExpr(&hir.Expr{Id: bodyID, Type: tailType, Kind: hir.Block{Statements: stmtIDs}})
	return bodyID
}
