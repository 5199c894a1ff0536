package mono

import (
	"fmt"

	"github.com/latticec/zkmid/internal/hir"
	"github.com/latticec/zkmid/internal/monoast"
	"github.com/latticec/zkmid/internal/types"
)

// lowerExpr walks one HIR expression tree under bindings (the current
// specialization's generic instantiation), producing the matching monoast
// tree: structs/enums collapse into Tuple, trait-method calls resolve to
// one concrete specialized function, and closures capture their free
// variables explicitly.
func (s *Specializer) lowerExpr(e *hir.Expr, bindings hir.TypeBindings) (monoast.Expr, error) {
	resolvedType := hir.Substitute(e.Type, bindings)

	switch k := e.Kind.(type) {
	case hir.Ident:
		if frame, ok := s.currentClosureFrame(); ok {
			if idx, isCapture := frame.indexOf[k.Def]; isCapture {
				return monoast.Expr{Type: resolvedType, Kind: monoast.TupleAccess{
					Object: monoast.Expr{Type: frame.envType, Kind: monoast.Ident{Local: frame.envLocal}},
					Index:  idx,
				}}, nil
			}
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Ident{Local: s.localOf(k.Def)}}, nil

	case hir.LiteralExpr:
		return monoast.Expr{Type: resolvedType, Kind: monoast.Literal{Value: k.Value}}, nil

	case hir.Call:
		fnExpr, ok := s.interner.Expr(k.Func)
		if !ok {
			return monoast.Expr{}, fmt.Errorf("call target %d not found", k.Func)
		}

		switch target := fnExpr.Kind.(type) {
		case hir.Ident:
			if meta, ok := s.interner.Definition(target.Def); ok && meta.Kind.Function != nil {
				fnMeta, okFn := s.interner.Func(*meta.Kind.Function)
				if okFn && fnMeta.Builtin != "" {
					args, err := s.lowerExprList(k.Args, bindings)
					if err != nil {
						return monoast.Expr{}, err
					}
					return monoast.Expr{Type: resolvedType, Kind: monoast.Call{Func: builtinCallName(fnMeta.Builtin), Args: args}}, nil
				}
				typeArgs := substituteAll(target.Generics, bindings)
				name, err := s.Specialize(*meta.Kind.Function, typeArgs)
				if err != nil {
					return monoast.Expr{}, err
				}
				args, err := s.lowerExprList(k.Args, bindings)
				if err != nil {
					return monoast.Expr{}, err
				}
				return monoast.Expr{Type: resolvedType, Kind: monoast.Call{Func: name, Args: args}}, nil
			}
			if binding, ok := s.closureBindings[target.Def]; ok {
				args, err := s.lowerExprList(k.Args, bindings)
				if err != nil {
					return monoast.Expr{}, err
				}
				callArgs := args
				if binding.hasEnv {
					calleeLocal := s.localOf(target.Def)
					envExpr := monoast.Expr{Kind: monoast.TupleAccess{
						Object: monoast.Expr{Kind: monoast.Ident{Local: calleeLocal}},
						Index:  0,
					}}
					callArgs = append([]monoast.Expr{envExpr}, args...)
				}
				return monoast.Expr{Type: resolvedType, Kind: monoast.Call{Func: binding.name, Args: callArgs}}, nil
			}
			return monoast.Expr{}, fmt.Errorf("call target %d is neither a function nor a closure bound by a direct let", target.Def)

		case hir.Closure:
			// An immediately-invoked closure literal: lower it in place and
			// call the hoisted function directly, same as a let-bound one
			// but without ever materializing a named local for it.
			closureVal, err := s.lowerClosure(target, hir.Substitute(fnExpr.Type, bindings), bindings)
			if err != nil {
				return monoast.Expr{}, err
			}
			args, err := s.lowerExprList(k.Args, bindings)
			if err != nil {
				return monoast.Expr{}, err
			}
			callArgs := args
			if s.lastClosureHasEnv {
				envExpr := closureVal.Kind.(monoast.Tuple).Elements[0]
				callArgs = append([]monoast.Expr{envExpr}, args...)
			}
			return monoast.Expr{Type: resolvedType, Kind: monoast.Call{Func: s.lastClosureName, Args: callArgs}}, nil

		default:
			return monoast.Expr{}, fmt.Errorf("indirect calls through a %T are not supported: only calling a closure literal directly or through a local it was bound to by a direct let is lowered (spec.md §4.3)", target)
		}

	case hir.MethodCall:
		return s.lowerMethodCall(k, resolvedType, bindings)

	case hir.Binary:
		lhs, err := s.lowerSub(k.Lhs, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		rhs, err := s.lowerSub(k.Rhs, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		overload := ""
		if k.Overload != nil {
			name, err := s.Specialize(k.Overload.Func, substituteAll(k.Overload.Generics, bindings))
			if err != nil {
				return monoast.Expr{}, err
			}
			overload = name
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Binary{Lhs: lhs, Op: k.Op, Rhs: rhs, Overload: overload}}, nil

	case hir.Unary:
		rhs, err := s.lowerSub(k.Rhs, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Unary{Op: k.Op, Rhs: rhs}}, nil

	case hir.If:
		cond, err := s.lowerSub(k.Cond, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		then, err := s.lowerSub(k.Then, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		var elseExpr *monoast.Expr
		if k.Else != nil {
			e, err := s.lowerSub(*k.Else, bindings)
			if err != nil {
				return monoast.Expr{}, err
			}
			elseExpr = &e
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.If{Cond: cond, Then: then, Else: elseExpr}}, nil

	case hir.Match:
		return s.lowerMatch(k, resolvedType, bindings)

	case hir.Block:
		stmts := make([]monoast.Stmt, 0, len(k.Statements))
		for _, sid := range k.Statements {
			stmt, ok := s.interner.Stmt(sid)
			if !ok {
				continue
			}
			lowered, err := s.lowerStmt(stmt, bindings)
			if err != nil {
				return monoast.Expr{}, err
			}
			stmts = append(stmts, lowered)
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Block{Statements: stmts}}, nil

	case hir.Let:
		valueExpr, ok := s.interner.Expr(k.Value)
		if !ok {
			return monoast.Expr{}, fmt.Errorf("let value %d not found", k.Value)
		}
		value, err := s.lowerExpr(valueExpr, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		local := s.localOf(k.Def)
		letType := hir.Substitute(k.Type, bindings)
		s.localTypes[local] = letType
		if _, isClosure := valueExpr.Kind.(hir.Closure); isClosure {
			s.closureBindings[k.Def] = closureBinding{name: s.lastClosureName, hasEnv: s.lastClosureHasEnv}
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Let{
			Local: local, Mutable: k.Mutable, Type: letType, Value: value,
		}}, nil

	case hir.For:
		start, err := s.lowerSub(k.Start, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		end, err := s.lowerSub(k.End, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		body, err := s.lowerSub(k.Body, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.For{
			LoopVar: s.localOf(k.LoopVar), Start: start, End: end, Body: body,
		}}, nil

	case hir.While:
		cond, err := s.lowerSub(k.Cond, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		body, err := s.lowerSub(k.Body, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.While{Cond: cond, Body: body}}, nil

	case hir.Loop:
		body, err := s.lowerSub(k.Body, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Loop{Body: body}}, nil

	case hir.Break:
		return monoast.Expr{Type: resolvedType, Kind: monoast.Break{}}, nil
	case hir.Continue:
		return monoast.Expr{Type: resolvedType, Kind: monoast.Continue{}}, nil

	case hir.ConstructStruct:
		dt, ok := s.interner.DataType(k.TypeId)
		if !ok {
			return monoast.Expr{}, fmt.Errorf("unknown struct type %d", k.TypeId)
		}
		fields, _ := dt.GetFields(nil)
		elems := make([]monoast.Expr, len(fields))
		for i, f := range fields {
			found := false
			for _, init := range k.Fields {
				if init.Name == f.Name {
					ex, ok := s.interner.Expr(init.Value)
					if !ok {
						return monoast.Expr{}, fmt.Errorf("field initializer %d missing", init.Value)
					}
					lowered, err := s.lowerExpr(ex, bindings)
					if err != nil {
						return monoast.Expr{}, err
					}
					elems[i] = lowered
					found = true
					break
				}
			}
			if !found {
				elems[i] = ZeroedValueOf(hir.Substitute(f.Type, bindings))
			}
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Tuple{Elements: elems}}, nil

	case hir.ConstructEnum:
		// Enum values lower to (tag, payload...) tuples: the first element
		// is the variant's integer discriminant, spec.md §4.3's chosen enum
		// representation for a register-based target with no tagged unions.
		args, err := s.lowerExprList(k.Args, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		tag := monoast.Expr{Type: hir.Integer{Signedness: hir.Unsigned, Bits: 32}, Kind: monoast.Literal{Value: hir.IntLit(uint64(k.VariantIndex))}}
		elems := append([]monoast.Expr{tag}, args...)
		return monoast.Expr{Type: resolvedType, Kind: monoast.Tuple{Elements: elems}}, nil

	case hir.TupleExpr:
		elems, err := s.lowerExprList(k.Elements, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Tuple{Elements: elems}}, nil

	case hir.ArrayExpr:
		elems, err := s.lowerExprList(k.Elements, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.ArrayLit{Elements: elems, Repeated: k.Repeated}}, nil

	case hir.SliceExpr:
		// A slice value is represented as a two-element tuple (user-visible
		// length, backing array), matching how internal/ssa's slice
		// intrinsics (spec.md §4.4) consume and produce slice values.
		elems, err := s.lowerExprList(k.Elements, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		elemType := hir.Type(hir.Unit{})
		if sl, ok := resolvedType.(hir.Slice); ok {
			elemType = sl.Elem
		}
		arrType := hir.Array{Len: hir.Constant{Value: uint64(len(elems)), K: hir.KindInteger{}}, Elem: elemType}
		arr := monoast.Expr{Type: arrType, Kind: monoast.ArrayLit{Elements: elems}}
		length := monoast.Expr{Type: u32Type, Kind: monoast.Literal{Value: hir.IntLit(uint64(len(elems)))}}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Tuple{Elements: []monoast.Expr{length, arr}}}, nil

	case hir.Index:
		coll, err := s.lowerSub(k.Collection, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		idx, err := s.lowerSub(k.Index, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Index{Collection: coll, Index: idx}}, nil

	case hir.MemberAccess:
		objExpr, ok := s.interner.Expr(k.Object)
		if !ok {
			return monoast.Expr{}, fmt.Errorf("member access object %d missing", k.Object)
		}
		obj, err := s.lowerExpr(objExpr, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		idx, err := fieldIndex(s, objExpr.Type, k.Field)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.TupleAccess{Object: obj, Index: idx}}, nil

	case hir.TupleAccess:
		obj, err := s.lowerSub(k.Object, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.TupleAccess{Object: obj, Index: k.Index}}, nil

	case hir.Cast:
		value, err := s.lowerSub(k.Value, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Cast{Value: value, To: hir.Substitute(k.To, bindings)}}, nil

	case hir.Closure:
		return s.lowerClosure(k, resolvedType, bindings)

	case hir.Assign:
		target, err := s.lowerSub(k.Target, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		value, err := s.lowerSub(k.Value, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Assign{Target: target, Value: value}}, nil

	case hir.Return:
		var value *monoast.Expr
		if k.Value != nil {
			v, err := s.lowerSub(*k.Value, bindings)
			if err != nil {
				return monoast.Expr{}, err
			}
			value = &v
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Return{Value: value}}, nil

	case hir.PrintCall:
		args, err := s.lowerExprList(k.Args, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Print{Args: args, Newline: k.Newline}}, nil

	case hir.StaticAssert:
		// static_assert is fully resolved at this layer (its condition must
		// already fold to a Constant by spec.md §4.3) and does not appear in
		// the lowered tree at all; it either already failed compilation or
		// contributes nothing at runtime.
		return monoast.Expr{Type: hir.Unit{}, Kind: monoast.Literal{Value: hir.UnitLit()}}, nil

	case hir.Ref:
		value, err := s.lowerSub(k.Value, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Ref{Value: value, Mutable: k.Mutable}}, nil

	case hir.Deref:
		value, err := s.lowerSub(k.Value, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Deref{Value: value}}, nil

	default:
		return monoast.Expr{}, fmt.Errorf("unhandled expression kind %T", k)
	}
}

func (s *Specializer) lowerSub(id hir.ExprId, bindings hir.TypeBindings) (monoast.Expr, error) {
	e, ok := s.interner.Expr(id)
	if !ok {
		return monoast.Expr{}, fmt.Errorf("expression %d not found", id)
	}
	return s.lowerExpr(e, bindings)
}

func (s *Specializer) lowerExprList(ids []hir.ExprId, bindings hir.TypeBindings) ([]monoast.Expr, error) {
	out := make([]monoast.Expr, len(ids))
	for i, id := range ids {
		e, err := s.lowerSub(id, bindings)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (s *Specializer) lowerStmt(st *hir.Stmt, bindings hir.TypeBindings) (monoast.Stmt, error) {
	switch k := st.Kind.(type) {
	case hir.LetStmt:
		e, err := s.lowerSub(k.Expr, bindings)
		if err != nil {
			return monoast.Stmt{}, err
		}
		letKind := e.Kind.(monoast.Let)
		return monoast.Stmt{IsLet: true, Let: &letKind}, nil
	case hir.ExprStmt:
		e, err := s.lowerSub(k.Expr, bindings)
		if err != nil {
			return monoast.Stmt{}, err
		}
		return monoast.Stmt{Expr: &e}, nil
	case hir.SemiStmt:
		e, err := s.lowerSub(k.Expr, bindings)
		if err != nil {
			return monoast.Stmt{}, err
		}
		return monoast.Stmt{Expr: &e}, nil
	default:
		return monoast.Stmt{}, fmt.Errorf("unhandled statement kind %T", k)
	}
}

func (s *Specializer) lowerMethodCall(k hir.MethodCall, resolvedType hir.Type, bindings hir.TypeBindings) (monoast.Expr, error) {
	obj, err := s.lowerSub(k.Object, bindings)
	if err != nil {
		return monoast.Expr{}, err
	}

	if k.Resolved == nil {
		// No trait/inherent impl was resolved: this is one of the builtin
		// slice/bit intrinsics spec.md §4.4 lists, which are never
		// user-defined methods and so never go through impl search.
		intrinsic, ok := intrinsicMethods[k.MethodName]
		if !ok {
			return monoast.Expr{}, fmt.Errorf("method call %q was never resolved", k.MethodName)
		}
		args, err := s.lowerExprList(k.Args, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.Call{Func: intrinsic, Args: append([]monoast.Expr{obj}, args...)}}, nil
	}

	fn := k.Resolved.Func
	if k.Resolved.Impl != nil {
		fn, err = s.resolveTraitMethod(*k.Resolved.Impl, k.MethodName, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
	}

	name, err := s.Specialize(fn, substituteAll(k.Resolved.Generics, bindings))
	if err != nil {
		return monoast.Expr{}, err
	}
	args, err := s.lowerExprList(k.Args, bindings)
	if err != nil {
		return monoast.Expr{}, err
	}
	return monoast.Expr{Type: resolvedType, Kind: monoast.Call{Func: name, Args: append([]monoast.Expr{obj}, args...)}}, nil
}

// resolveTraitMethod implements spec.md §4.3's "resolve_trait_item_impl"
// step: a concrete TraitImplKind already names its impl directly, but an
// Assumed one (recorded against a still-generic receiver at type-check
// time) must be re-run through impl search now that bindings has made the
// receiver concrete, then the method looked up by name on whichever impl
// search returns.
func (s *Specializer) resolveTraitMethod(kind hir.TraitImplKind, methodName string, bindings hir.TypeBindings) (hir.FuncId, error) {
	var implId hir.TraitImplId
	if kind.Concrete != nil {
		implId = *kind.Concrete
	} else {
		assumed := kind.Assumed
		objectType := hir.Substitute(assumed.ObjectType, bindings)
		traitGenerics := substituteAll(assumed.TraitGenerics, bindings)
		id, _, err := types.LookupTraitImplementation(s.interner, objectType, assumed.TraitId, traitGenerics)
		if err != nil {
			return 0, fmt.Errorf("resolving %q on %s: %w", methodName, objectType, err)
		}
		implId = id
	}

	impl, ok := s.interner.TraitImpl(implId)
	if !ok {
		return 0, fmt.Errorf("resolved trait impl %d not found", implId)
	}
	fn, ok := impl.MethodNames[methodName]
	if !ok {
		return 0, fmt.Errorf("impl %d has no method %q", implId, methodName)
	}
	return fn, nil
}

func (s *Specializer) lowerMatch(k hir.Match, resolvedType hir.Type, bindings hir.TypeBindings) (monoast.Expr, error) {
	// Match lowers to a cascade of `if tag == i { case_i } else ...` over the
	// enum's tuple representation's discriminant slot, since the register
	// target has no native tagged-union dispatch (spec.md §4.3/§4.5).
	scrutinee, err := s.lowerSub(k.Scrutinee, bindings)
	if err != nil {
		return monoast.Expr{}, err
	}
	tag := monoast.Expr{Type: hir.Integer{Signedness: hir.Unsigned, Bits: 32}, Kind: monoast.TupleAccess{Object: scrutinee, Index: 0}}

	var build func(i int) (monoast.Expr, error)
	build = func(i int) (monoast.Expr, error) {
		if i >= len(k.Cases) {
			return monoast.Expr{Type: resolvedType, Kind: monoast.Literal{Value: hir.UnitLit()}}, nil
		}
		c := k.Cases[i]
		body, err := s.lowerSub(c.Body, bindings)
		if err != nil {
			return monoast.Expr{}, err
		}
		if c.VariantIndex < 0 {
			return body, nil // wildcard/binding case always matches; no more cases after it matter
		}
		cond := monoast.Expr{
			Type: hir.Bool{},
			Kind: monoast.Binary{Lhs: tag, Op: hir.OpEq, Rhs: monoast.Expr{
				Type: hir.Integer{Signedness: hir.Unsigned, Bits: 32},
				Kind: monoast.Literal{Value: hir.IntLit(uint64(c.VariantIndex))},
			}},
		}
		rest, err := build(i + 1)
		if err != nil {
			return monoast.Expr{}, err
		}
		return monoast.Expr{Type: resolvedType, Kind: monoast.If{Cond: cond, Then: body, Else: &rest}}, nil
	}
	return build(0)
}

// closureFrame tracks one closure lowering in progress: the hoisted
// function's env-tuple parameter local and type, plus which hir captures map
// to which env tuple index. A hir.Ident read inside the closure's body whose
// Def appears in indexOf rewrites to a TupleAccess against envLocal instead
// of a plain local read (spec.md §4.3).
type closureFrame struct {
	envLocal monoast.LocalId
	envType  hir.Type
	indexOf  map[hir.DefinitionId]int
}

// lowerClosure implements spec.md §4.3's closure lifting: a captureless
// closure becomes a named top-level function, referenced by a FuncRef; a
// capturing closure becomes a two-element (env_tuple, fn_pointer) tuple,
// with the env built from the immediately-enclosing scope (another
// closure's own env, via TupleAccess, when a capture is itself that
// closure's capture; a plain local Ident otherwise) and the hoisted
// function's own zeroth parameter set to receive that same tuple.
//
// Only two call shapes resolve this indirection back to a concrete
// monoast.Call: calling a closure literal immediately (an IIFE) or calling a
// local that a direct `let` bound to a closure literal (internal/mono's
// hir.Call/hir.Let cases). A closure value threaded through a parameter, a
// struct field, or an array is not resolved to a static callee by this
// lowering; see DESIGN.md.
func (s *Specializer) lowerClosure(k hir.Closure, resolvedType hir.Type, bindings hir.TypeBindings) (monoast.Expr, error) {
	fnType, ok := resolvedType.(hir.Function)
	if !ok {
		return monoast.Expr{}, fmt.Errorf("closure expression has non-function type %s", resolvedType)
	}

	name := s.freshClosureName()
	params := make([]monoast.Param, len(k.Params))
	for i, p := range k.Params {
		local := s.localOf(p.Id)
		t := hir.Substitute(p.Type, bindings)
		s.localTypes[local] = t
		params[i] = monoast.Param{Local: local, Mutable: p.Mutable, Type: t}
	}

	hasEnv := len(k.Captures) > 0
	var frame closureFrame
	if hasEnv {
		elemTypes := make([]hir.Type, len(k.Captures))
		indexOf := make(map[hir.DefinitionId]int, len(k.Captures))
		for i, c := range k.Captures {
			elemTypes[i] = s.typeOfLocal(s.localOf(c))
			indexOf[c] = i
		}
		envParam := s.freshSyntheticDef()
		frame = closureFrame{
			envLocal: s.localOf(envParam),
			envType:  hir.Tuple{Elems: elemTypes},
			indexOf:  indexOf,
		}
		s.localTypes[frame.envLocal] = frame.envType
		s.closures = append(s.closures, frame)
	}

	body, err := s.lowerSub(k.Body, bindings)

	var outerFrame closureFrame
	var hasOuter bool
	if hasEnv {
		s.closures = s.closures[:len(s.closures)-1]
		outerFrame, hasOuter = s.currentClosureFrame()
	}
	if err != nil {
		return monoast.Expr{}, err
	}

	hoistedParams := params
	if hasEnv {
		hoistedParams = append([]monoast.Param{{Local: frame.envLocal, Type: frame.envType}}, params...)
	}
	hoisted := &monoast.Func{
		Name:          name,
		OriginalId:    s.currentFn,
		Params:        hoistedParams,
		ReturnType:    fnType.Ret,
		Body:          body,
		Target:        s.hoistedTarget(),
		Unconstrained: fnType.Unconstrained,
	}
	s.out = append(s.out, hoisted)

	s.lastClosureName = name
	s.lastClosureHasEnv = hasEnv
	funcRef := monoast.Expr{Type: resolvedType, Kind: monoast.FuncRef{Name: name}}
	if !hasEnv {
		return funcRef, nil
	}

	envElems := make([]monoast.Expr, len(k.Captures))
	for i, c := range k.Captures {
		elemType := frame.envType.(hir.Tuple).Elems[i]
		if hasOuter {
			if idx, ok := outerFrame.indexOf[c]; ok {
				envElems[i] = monoast.Expr{Type: elemType, Kind: monoast.TupleAccess{
					Object: monoast.Expr{Type: outerFrame.envType, Kind: monoast.Ident{Local: outerFrame.envLocal}},
					Index:  idx,
				}}
				continue
			}
		}
		envElems[i] = monoast.Expr{Type: elemType, Kind: monoast.Ident{Local: s.localOf(c)}}
	}
	envExpr := monoast.Expr{Type: frame.envType, Kind: monoast.Tuple{Elements: envElems}}
	return monoast.Expr{Type: resolvedType, Kind: monoast.Tuple{Elements: []monoast.Expr{envExpr, funcRef}}}, nil
}

// hoistedTarget attributes a lifted closure function to the runtime target
// of the surface function currently being specialized, since a closure has
// no target of its own in the HIR (spec.md §4.3's closures inherit their
// enclosing function's constrained/unconstrained context).
func (s *Specializer) hoistedTarget() hir.RuntimeTarget {
	if meta, ok := s.interner.Func(s.currentFn); ok {
		return meta.Target
	}
	return hir.ACIR
}

// fieldIndex resolves a named struct field to its position in the lowered
// tuple representation.
func fieldIndex(s *Specializer, objType hir.Type, name string) (int, error) {
	ref, ok := objType.(hir.DataTypeRef)
	if !ok {
		return 0, fmt.Errorf("member access on non-struct type %s", objType)
	}
	dt, ok := s.interner.DataType(ref.Id)
	if !ok {
		return 0, fmt.Errorf("unknown struct type %d", ref.Id)
	}
	fields, ok := dt.GetFields(ref.Generics)
	if !ok {
		return 0, fmt.Errorf("type %d is not a struct", ref.Id)
	}
	for i, f := range fields {
		if f.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("struct %s has no field %q", dt.Name, name)
}

func substituteAll(ts []hir.Type, bindings hir.TypeBindings) []hir.Type {
	out := make([]hir.Type, len(ts))
	for i, t := range ts {
		out[i] = hir.Substitute(t, bindings)
	}
	return out
}

// u32Type is the type every slice's length field is carried as.
var u32Type = hir.Integer{Signedness: hir.Unsigned, Bits: 32}

// intrinsicMethods maps the builtin slice/bit method names spec.md §4.4
// enumerates to the tagged call names internal/ssa's builder recognizes
// (anything else falling through hir.MethodCall's Resolved-nil path is
// rejected as an unresolved method, same as before this mapping existed).
var intrinsicMethods = map[string]string{
	"len":         "__array_len",
	"as_slice":    "__as_slice",
	"push_back":   "__slice_push_back",
	"push_front":  "__slice_push_front",
	"pop_back":    "__slice_pop_back",
	"pop_front":   "__slice_pop_front",
	"insert":      "__slice_insert",
	"remove":      "__slice_remove",
	"to_be_bits":  "__to_be_bits",
	"to_le_bits":  "__to_le_bits",
	"to_be_radix": "__to_be_radix",
	"to_le_radix": "__to_le_radix",
}

// blackBoxFunctions names the proving system's gadget functions (spec.md
// §4.4's "black-box calls"): a builtin attribute naming one of these lowers
// to a BlackBoxCall; anything else is assumed to be a foreign (oracle) call
// instead, grounded on noirc_evaluator's BlackBoxFunc enum.
var blackBoxFunctions = map[string]bool{
	"sha256":                true,
	"sha256_compression":    true,
	"blake2s":               true,
	"blake3":                true,
	"keccak256":             true,
	"keccakf1600":           true,
	"pedersen_hash":         true,
	"pedersen_commitment":   true,
	"poseidon2_permutation": true,
	"schnorr_verify":        true,
	"ecdsa_secp256k1":       true,
	"ecdsa_secp256r1":       true,
	"multi_scalar_mul":      true,
	"embedded_curve_add":    true,
	"aes128_encrypt":        true,
	"range":                 true,
	"recursive_aggregation": true,
}

// builtinCallName tags a function carrying a Builtin attribute with the
// internal/ssa call-name prefix that routes it to a BlackBoxCall or
// ForeignCall SSA op instead of an ordinary specialized-function Call
// (spec.md §4.4).
func builtinCallName(name string) string {
	if blackBoxFunctions[name] {
		return "__blackbox_" + name
	}
	return "__foreign_" + name
}
