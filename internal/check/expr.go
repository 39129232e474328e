package check

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/dispatch"
	"github.com/sunholo/bloodc/internal/errors"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

func (tc *TypeContext) errorExpr(span ast.Span) hir.Expr {
	return hir.ErrorExpr{ExprBase: tc.mkBase(span, types.TError, types.Pure())}
}

// checkExpr bidirectionally checks e against expected (a hint, not a
// hard requirement: checking proceeds on mismatch and surfaces a
// TYP001 report). It returns the synthesized HIR node and its resolved
// type.
func (tc *TypeContext) checkExpr(e ast.Expr, expected types.Type) (hir.Expr, types.Type) {
	span := spanAt(e.Position())

	switch v := e.(type) {
	case *ast.Literal:
		ty := tc.litType(v)
		return hir.Lit{ExprBase: tc.mkBase(span, ty, types.Pure()), Kind: v.Kind, Value: v.Value}, ty

	case *ast.Identifier:
		return tc.checkIdentifier(v)

	case *ast.BinaryOp:
		return tc.checkBinaryOp(v)

	case *ast.UnaryOp:
		operand, opTy := tc.checkExpr(v.Expr, expected)
		resTy := opTy
		if v.Op == "!" {
			resTy = types.TBool
		}
		return hir.UnaryOp{ExprBase: tc.mkBase(span, resTy, types.Pure()), Op: v.Op, Expr: operand}, resTy

	case *ast.Pipe:
		return tc.checkCallLike(v.Right, []ast.Expr{v.Left}, v.Pos)

	case *ast.Lambda:
		return tc.checkLambda(v, expected)

	case *ast.FuncCall:
		return tc.checkCallLike(v.Func, v.Args, v.Pos)

	case *ast.MethodCall:
		return tc.checkMethodCall(v)

	case *ast.Let:
		return tc.checkLet(v, expected, false)

	case *ast.LetRec:
		return tc.checkLet(&ast.Let{Name: v.Name, Type: v.Type, Value: v.Value, Body: v.Body, Pos: v.Pos}, expected, true)

	case *ast.Block:
		return tc.checkBlock(v, expected)

	case *ast.If:
		cond, _ := tc.checkExpr(v.Condition, types.TBool)
		then, thenTy := tc.checkExpr(v.Then, expected)
		els, elsTy := tc.checkExpr(v.Else, thenTy)
		tc.unify(thenTy, elsTy, v.Pos)
		return hir.If{ExprBase: tc.mkBase(span, thenTy, types.Pure()), Cond: cond, Then: then, Else: els}, thenTy

	case *ast.Match:
		return tc.checkMatch(v, expected)

	case *ast.List:
		elemTy := tc.unifier.FreshVar()
		elems := make([]hir.Expr, len(v.Elements))
		for i, el := range v.Elements {
			var ety types.Type
			elems[i], ety = tc.checkExpr(el, elemTy)
			tc.unify(elemTy, ety, el.Position())
		}
		ty := types.SliceT{Elem: elemTy}
		return hir.ArrayExpr{ExprBase: tc.mkBase(span, ty, types.Pure()), Elems: elems}, ty

	case *ast.Tuple:
		elems := make([]hir.Expr, len(v.Elements))
		elemTypes := make([]types.Type, len(v.Elements))
		for i, el := range v.Elements {
			elems[i], elemTypes[i] = tc.checkExpr(el, tc.unifier.FreshVar())
		}
		ty := types.TupleT{Elems: elemTypes}
		return hir.TupleExpr{ExprBase: tc.mkBase(span, ty, types.Pure()), Elems: elems}, ty

	case *ast.Record:
		return tc.checkRecord(v, expected)

	case *ast.RecordAccess:
		return tc.checkRecordAccess(v)

	case *ast.RecordUpdate:
		return tc.checkRecordUpdate(v)

	case *ast.Cast:
		inner, _ := tc.checkExpr(v.Expr, tc.unifier.FreshVar())
		target := tc.lowerType(v.Target, nil)
		return hir.Cast{ExprBase: tc.mkBase(span, target, types.Pure()), Expr: inner, Target: target}, target

	case *ast.Perform:
		return tc.checkPerform(v)

	case *ast.Resume:
		return tc.checkResume(v)

	case *ast.WithHandle:
		return tc.checkWithHandle(v, expected)

	case *ast.Error:
		return tc.errorExpr(span), types.TError

	default:
		tc.reportUnsupported(fmt.Sprintf("expression %T", e), e.Position())
		return tc.errorExpr(span), types.TError
	}
}

func (tc *TypeContext) checkIdentifier(v *ast.Identifier) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	if b, ok := tc.scope.lookup(v.Name); ok {
		if b.isLocal {
			ty := tc.localType(b.local)
			return hir.Var{ExprBase: tc.mkBase(span, ty, types.Pure()), Local: b.local, Def: ids.NoDefId}, ty
		}
	}
	defID, ok := tc.byName[v.Name]
	if !ok {
		tc.reportNotFound(v.Name, v.Pos)
		return tc.errorExpr(span), types.TError
	}
	info := tc.defInfo[defID]
	if info != nil && info.Kind == hir.KindVariant {
		return tc.checkVariantConstruct(defID, info, nil, v.Pos)
	}
	ty := types.Type(types.TError)
	if sig, ok := tc.fnSigs[defID]; ok {
		ty = sig
	} else if info != nil && info.Type != nil {
		ty = info.Type
	}
	return hir.Var{ExprBase: tc.mkBase(span, ty, types.Pure()), Local: 0, Def: defID}, ty
}

func (tc *TypeContext) checkBinaryOp(v *ast.BinaryOp) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	left, leftTy := tc.checkExpr(v.Left, tc.unifier.FreshVar())
	right, rightTy := tc.checkExpr(v.Right, leftTy)
	tc.unify(leftTy, rightTy, v.Pos)

	resTy := leftTy
	switch v.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		resTy = types.TBool
	}
	return hir.BinOp{ExprBase: tc.mkBase(span, resTy, types.Pure()), Op: v.Op, Left: left, Right: right}, resTy
}

func (tc *TypeContext) checkLet(v *ast.Let, expected types.Type, recursive bool) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	declared := types.Type(nil)
	if v.Type != nil {
		declared = tc.lowerType(v.Type, nil)
	}

	if recursive {
		valTy := declared
		if valTy == nil {
			valTy = tc.unifier.FreshVar()
		}
		local := tc.freshLocal(v.Name, valTy, false, span)
		tc.pushScope()
		tc.scope.define(v.Name, binding{isLocal: true, local: local})
		value, actualTy := tc.checkExpr(v.Value, valTy)
		tc.unify(valTy, actualTy, v.Pos)
		body, bodyTy := tc.checkExpr(v.Body, expected)
		tc.popScope()
		return hir.Let{ExprBase: tc.mkBase(span, bodyTy, types.Pure()), Local: local, Value: value, Body: body, Recursive: true}, bodyTy
	}

	hint := declared
	if hint == nil {
		hint = tc.unifier.FreshVar()
	}
	value, valTy := tc.checkExpr(v.Value, hint)
	if declared != nil {
		tc.unify(declared, valTy, v.Pos)
		valTy = declared
	}
	local := tc.freshLocal(v.Name, valTy, false, span)
	tc.pushScope()
	tc.scope.define(v.Name, binding{isLocal: true, local: local})
	body, bodyTy := tc.checkExpr(v.Body, expected)
	tc.popScope()
	return hir.Let{ExprBase: tc.mkBase(span, bodyTy, types.Pure()), Local: local, Value: value, Body: body}, bodyTy
}

func (tc *TypeContext) checkBlock(v *ast.Block, expected types.Type) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	tc.pushScope()
	defer tc.popScope()

	if len(v.Exprs) == 0 {
		return hir.Block{ExprBase: tc.mkBase(span, types.TUnit, types.Pure())}, types.TUnit
	}
	exprs := make([]hir.Expr, len(v.Exprs))
	var lastTy types.Type
	for i, sub := range v.Exprs {
		hint := tc.unifier.FreshVar()
		if i == len(v.Exprs)-1 {
			hint = expected
		}
		exprs[i], lastTy = tc.checkExpr(sub, hint)
	}
	return hir.Block{ExprBase: tc.mkBase(span, lastTy, types.Pure()), Exprs: exprs}, lastTy
}

func (tc *TypeContext) checkMatch(v *ast.Match, expected types.Type) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	scrutinee, scrutTy := tc.checkExpr(v.Expr, tc.unifier.FreshVar())

	resTy := expected
	if resTy == nil {
		resTy = tc.unifier.FreshVar()
	}
	arms := make([]hir.MatchArm, len(v.Cases))
	for i, c := range v.Cases {
		tc.pushScope()
		pat := tc.checkPattern(c.Pattern, scrutTy)
		var guard hir.Expr
		if c.Guard != nil {
			guard, _ = tc.checkExpr(c.Guard, types.TBool)
		}
		body, bodyTy := tc.checkExpr(c.Body, resTy)
		tc.unify(resTy, bodyTy, c.Pos)
		tc.popScope()
		arms[i] = hir.MatchArm{Pattern: pat, Guard: guard, Body: body}
	}
	return hir.Match{ExprBase: tc.mkBase(span, resTy, types.Pure()), Scrutinee: scrutinee, Arms: arms}, resTy
}

func (tc *TypeContext) checkRecord(v *ast.Record, expected types.Type) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	resolved := tc.unifier.Resolve(expected)
	adt, isAdt := resolved.(types.AdtT)
	var sd *structDef
	if isAdt {
		sd = tc.structDefs[adt.DefID]
	}

	fields := make([]hir.RecordField, len(v.Fields))
	rowFields := make([]types.RecordField, len(v.Fields))
	for i, f := range v.Fields {
		sym := tc.interner.Intern(f.Name)
		hint := tc.unifier.FreshVar()
		if sd != nil {
			for _, fd := range sd.fields {
				if fd.Name == sym {
					hint = fd.Type
					break
				}
			}
		}
		val, valTy := tc.checkExpr(f.Value, hint)
		tc.unify(hint, valTy, f.Pos)
		fields[i] = hir.RecordField{Name: sym, Value: val}
		rowFields[i] = types.RecordField{Name: sym, Type: valTy}
	}

	var ty types.Type = types.RecordT{Fields: rowFields}
	if isAdt && sd != nil {
		ty = adt
	}
	return hir.RecordExpr{ExprBase: tc.mkBase(span, ty, types.Pure()), Fields: fields}, ty
}

func (tc *TypeContext) checkRecordAccess(v *ast.RecordAccess) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	base, baseTy := tc.checkExpr(v.Record, tc.unifier.FreshVar())
	sym := tc.interner.Intern(v.Field)

	fieldTy := tc.fieldType(baseTy, sym, v.Pos)
	return hir.RecordAccess{ExprBase: tc.mkBase(span, fieldTy, types.Pure()), Record: base, Field: sym}, fieldTy
}

// fieldType resolves sym's type against baseTy, a named struct or an
// open record row, constraining an unconstrained baseTy to "has at
// least this field".
func (tc *TypeContext) fieldType(baseTy types.Type, sym ids.Symbol, pos ast.Pos) types.Type {
	resolved := tc.unifier.Resolve(baseTy)
	switch t := resolved.(type) {
	case types.AdtT:
		if sd, ok := tc.structDefs[t.DefID]; ok {
			for _, fd := range sd.fields {
				if fd.Name == sym {
					return fd.Type
				}
			}
		}
		tc.reportNoField(resolved, tc.interner.MustLookup(sym), pos)
		return types.TError
	case types.RecordT:
		for _, f := range t.Fields {
			if f.Name == sym {
				return f.Type
			}
		}
		if t.RowVar != nil {
			fieldTy := tc.unifier.FreshVar()
			rest := tc.unifier.FreshRowVar()
			tc.unify(resolved, types.RecordT{Fields: []types.RecordField{{Name: sym, Type: fieldTy}}, RowVar: &rest}, pos)
			return fieldTy
		}
		tc.reportNoField(resolved, tc.interner.MustLookup(sym), pos)
		return types.TError
	default:
		fieldTy := tc.unifier.FreshVar()
		rest := tc.unifier.FreshRowVar()
		tc.unify(baseTy, types.RecordT{Fields: []types.RecordField{{Name: sym, Type: fieldTy}}, RowVar: &rest}, pos)
		return fieldTy
	}
}

func (tc *TypeContext) checkRecordUpdate(v *ast.RecordUpdate) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	base, baseTy := tc.checkExpr(v.Base, tc.unifier.FreshVar())
	fields := make([]hir.RecordField, len(v.Fields))
	for i, f := range v.Fields {
		sym := tc.interner.Intern(f.Name)
		hint := tc.fieldType(baseTy, sym, f.Pos)
		val, valTy := tc.checkExpr(f.Value, hint)
		tc.unify(hint, valTy, f.Pos)
		fields[i] = hir.RecordField{Name: sym, Value: val}
	}
	return hir.RecordUpdate{ExprBase: tc.mkBase(span, baseTy, types.Pure()), Base: base, Fields: fields}, baseTy
}

func (tc *TypeContext) checkPerform(v *ast.Perform) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	effectID, ok := tc.byName[v.Effect]
	if !ok {
		tc.reportNotFound(v.Effect, v.Pos)
		return tc.errorExpr(span), types.TError
	}
	info := tc.effectDefs[effectID]
	var opSig struct {
		Params []types.Type
		Return types.Type
	}
	if info != nil {
		if sig, ok := info.OpByName(v.Op); ok {
			opSig.Params, opSig.Return = sig.Params, sig.Return
		} else {
			tc.reportNotFound(v.Effect+"."+v.Op, v.Pos)
		}
	}
	if opSig.Return == nil {
		opSig.Return = types.TError
	}

	if !tc.effectHandledOrDeclared(effectID) {
		tc.reportEffectNotHandled(v.Effect, v.Pos)
	}

	args := make([]hir.Expr, len(v.Args))
	for i, a := range v.Args {
		hint := types.Type(types.TError)
		if i < len(opSig.Params) {
			hint = opSig.Params[i]
		}
		var aty types.Type
		args[i], aty = tc.checkExpr(a, hint)
		tc.unify(hint, aty, a.Position())
	}

	eff := types.EffectRow{Kind: types.RowSet, Effects: []types.Type{types.AdtT{DefID: effectID, Name: v.Effect}}}
	return hir.Perform{ExprBase: tc.mkBase(span, opSig.Return, eff), EffectDef: effectID, Op: v.Op, Args: args}, opSig.Return
}

func (tc *TypeContext) effectHandledOrDeclared(effectID ids.DefId) bool {
	for _, h := range tc.handledEffects {
		if h == effectID {
			return true
		}
	}
	for _, e := range tc.declaredEffect.Effects {
		if adt, ok := e.(types.AdtT); ok && adt.DefID == effectID {
			return true
		}
	}
	return tc.declaredEffect.IsOpen()
}

func (tc *TypeContext) checkResume(v *ast.Resume) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	if tc.currentResumeType == nil {
		tc.reportResumeOutsideHandler(v.Pos)
		val, _ := tc.checkExpr(v.Value, tc.unifier.FreshVar())
		return hir.Resume{ExprBase: tc.mkBase(span, types.TError, types.Pure()), Value: val}, types.TError
	}
	val, valTy := tc.checkExpr(v.Value, tc.currentResumeType)
	if !tc.unify(tc.currentResumeType, valTy, v.Pos) {
		tc.reportResumeTypeMismatch(tc.currentResumeType, valTy, v.Pos)
	}
	retTy := tc.currentReturnType
	if retTy == nil {
		retTy = tc.unifier.FreshVar()
	}
	return hir.Resume{ExprBase: tc.mkBase(span, retTy, types.Pure()), Value: val}, retTy
}

func (tc *TypeContext) checkWithHandle(v *ast.WithHandle, expected types.Type) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	ident, ok := v.Handler.(*ast.Identifier)
	if !ok {
		tc.reportUnsupported("with-handle target must name a handler", v.Pos)
		body, bodyTy := tc.checkExpr(v.Body, expected)
		return body, bodyTy
	}
	defID, ok := tc.byName[ident.Name]
	if !ok || tc.defInfo[defID] == nil || tc.defInfo[defID].Kind != hir.KindHandler {
		tc.reportNotFound(ident.Name, v.Pos)
		body, bodyTy := tc.checkExpr(v.Body, expected)
		return body, bodyTy
	}
	handlerInfo := tc.handlerDefs[defID]

	tc.handledEffects = append(tc.handledEffects, handlerInfo.EffectID)
	body, bodyTy := tc.checkExpr(v.Body, expected)
	tc.handledEffects = tc.handledEffects[:len(tc.handledEffects)-1]

	return hir.WithHandle{ExprBase: tc.mkBase(span, bodyTy, types.Pure()), Handler: defID, Body: body}, bodyTy
}

func (tc *TypeContext) checkLambda(v *ast.Lambda, expected types.Type) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	var expectedFn types.FnT
	if fn, ok := tc.unifier.Resolve(expected).(types.FnT); ok && len(fn.Params) == len(v.Params) {
		expectedFn = fn
	}

	paramTypes := make([]types.Type, len(v.Params))
	for i := range paramTypes {
		if expectedFn.Params != nil {
			paramTypes[i] = expectedFn.Params[i]
		} else {
			paramTypes[i] = tc.unifier.FreshVar()
		}
	}

	saved := tc.saveBodyState()
	tc.scope = newScope(saved.scope)
	tc.locals = nil
	tc.nextLocalID = 0
	tc.currentResumeType = nil

	paramIDs := make([]ids.LocalId, len(v.Params))
	for i, p := range v.Params {
		id := tc.freshLocal(p.Name, paramTypes[i], false, span)
		tc.scope.define(p.Name, binding{isLocal: true, local: id})
		paramIDs[i] = id
	}

	retType := tc.unifier.FreshVar()
	if expectedFn.Ret != nil {
		retType = expectedFn.Ret
	}
	tc.currentReturnType = retType

	root, rootTy := tc.checkExpr(v.Body, retType)
	tc.unify(retType, rootTy, v.Pos)

	bodyID := tc.freshBodyID()
	tc.bodies[bodyID] = &hir.Body{ID: bodyID, Locals: tc.locals, ParamCount: len(paramIDs), Root: root, Span: span}

	tc.restoreBodyState(saved)

	eff := tc.lowerEffectNames(v.Effects)
	fnTy := types.FnT{Params: paramTypes, Ret: retType, Effect: eff}
	return hir.Lambda{ExprBase: tc.mkBase(span, fnTy, types.Pure()), Params: paramIDs, Body: bodyID}, fnTy
}

func (tc *TypeContext) checkVariantConstruct(defID ids.DefId, info *hir.DefInfo, argExprs []ast.Expr, pos ast.Pos) (hir.Expr, types.Type) {
	span := spanAt(pos)
	ed := tc.enumDefs[info.Parent]
	if ed == nil {
		tc.reportNotFound(info.Name, pos)
		return tc.errorExpr(span), types.TError
	}
	idx, ok := ed.variantIdx[info.Name]
	if !ok {
		tc.reportNotFound(info.Name, pos)
		return tc.errorExpr(span), types.TError
	}
	variant := ed.variants[idx]
	if len(argExprs) != len(variant.Fields) {
		tc.reportWrongArity(info.Name, len(variant.Fields), len(argExprs), pos)
	}
	args := make([]hir.Expr, len(argExprs))
	for i, a := range argExprs {
		hint := types.Type(types.TError)
		if i < len(variant.Fields) {
			hint = variant.Fields[i]
		}
		var aty types.Type
		args[i], aty = tc.checkExpr(a, hint)
		tc.unify(hint, aty, a.Position())
	}
	enumName := ""
	if enumInfo, ok := tc.defInfo[ed.defID]; ok {
		enumName = enumInfo.Name
	}
	ty := types.AdtT{DefID: ed.defID, Name: enumName}
	callee := hir.Var{ExprBase: tc.mkBase(span, types.TError, types.Pure()), Def: defID}
	return hir.Call{ExprBase: tc.mkBase(span, ty, types.Pure()), Callee: callee, Args: args}, ty
}

// checkCallLike handles `f(args)` and the desugared `a |> f` call form.
func (tc *TypeContext) checkCallLike(funcExpr ast.Expr, argExprs []ast.Expr, pos ast.Pos) (hir.Expr, types.Type) {
	if ident, ok := funcExpr.(*ast.Identifier); ok {
		if defID, ok := tc.byName[ident.Name]; ok {
			if info := tc.defInfo[defID]; info != nil && info.Kind == hir.KindVariant {
				return tc.checkVariantConstruct(defID, info, argExprs, pos)
			}
		}
		if candidates, ok := tc.methodCandidates[ident.Name]; ok && len(candidates) > 0 {
			return tc.resolveCall(ident.Name, candidates, argExprs, pos)
		}
		if _, ok := tc.scope.lookup(ident.Name); ok {
			callee, calleeTy := tc.checkIdentifier(ident)
			return tc.checkHigherOrderCall(callee, calleeTy, argExprs, pos)
		}
		tc.reportNotFound(ident.Name, pos)
		return tc.errorExpr(spanAt(pos)), types.TError
	}
	callee, calleeTy := tc.checkExpr(funcExpr, tc.unifier.FreshVar())
	return tc.checkHigherOrderCall(callee, calleeTy, argExprs, pos)
}

func (tc *TypeContext) resolveCall(name string, candidates []dispatch.MethodCandidate, argExprs []ast.Expr, pos ast.Pos) (hir.Expr, types.Type) {
	span := spanAt(pos)
	args := make([]hir.Expr, len(argExprs))
	argTypes := make([]types.Type, len(argExprs))
	for i, a := range argExprs {
		args[i], argTypes[i] = tc.checkExpr(a, tc.unifier.FreshVar())
	}
	res := tc.dispatch.Resolve(name, argTypes, candidates, &tc.declaredEffect)
	switch res.Kind {
	case dispatch.Resolved:
		c := res.Candidate
		for i, pt := range c.ParamTypes {
			if i < len(argTypes) {
				tc.unify(pt, argTypes[i], pos)
			}
		}
		callee := hir.Var{ExprBase: tc.mkBase(span, types.FnT{Params: c.ParamTypes, Ret: c.ReturnType, Effect: c.Effect}, types.Pure()), Def: c.DefID}
		return hir.Call{ExprBase: tc.mkBase(span, c.ReturnType, c.Effect), Callee: callee, Args: args}, c.ReturnType
	case dispatch.NoMatch:
		tc.errs.Add(errors.New(errors.DSP001, "dispatch", fmt.Sprintf("no applicable method %q for the given argument types", name), span))
		return tc.errorExpr(span), types.TError
	default:
		tc.errs.Add(errors.New(errors.DSP002, "dispatch", res.Ambiguous.DiamondSuggestion(tc.traitNames()), span))
		return tc.errorExpr(span), types.TError
	}
}

func (tc *TypeContext) checkMethodCall(v *ast.MethodCall) (hir.Expr, types.Type) {
	span := spanAt(v.Pos)
	recv, recvTy := tc.checkExpr(v.Receiver, tc.unifier.FreshVar())
	candidates, ok := tc.methodCandidates[v.Name]
	if !ok || len(candidates) == 0 {
		tc.reportNoField(recvTy, v.Name, v.Pos)
		return tc.errorExpr(span), types.TError
	}
	args := make([]hir.Expr, len(v.Args))
	argTypes := make([]types.Type, len(v.Args)+1)
	argTypes[0] = recvTy
	for i, a := range v.Args {
		args[i], argTypes[i+1] = tc.checkExpr(a, tc.unifier.FreshVar())
	}
	res := tc.dispatch.Resolve(v.Name, argTypes, candidates, &tc.declaredEffect)
	switch res.Kind {
	case dispatch.Resolved:
		c := res.Candidate
		if len(c.ParamTypes) > 0 {
			tc.unify(c.ParamTypes[0], recvTy, v.Pos)
		}
		for i := 1; i < len(c.ParamTypes) && i-1 < len(args); i++ {
			tc.unify(c.ParamTypes[i], argTypes[i], v.Pos)
		}
		return hir.MethodCall{ExprBase: tc.mkBase(span, c.ReturnType, c.Effect), Receiver: recv, Method: c.DefID, Args: args}, c.ReturnType
	case dispatch.NoMatch:
		tc.errs.Add(errors.New(errors.DSP001, "dispatch", fmt.Sprintf("no applicable method %q for the given argument types", v.Name), span))
		return tc.errorExpr(span), types.TError
	default:
		tc.errs.Add(errors.New(errors.DSP002, "dispatch", res.Ambiguous.DiamondSuggestion(tc.traitNames()), span))
		return tc.errorExpr(span), types.TError
	}
}

func (tc *TypeContext) checkHigherOrderCall(calleeExpr hir.Expr, calleeType types.Type, argExprs []ast.Expr, pos ast.Pos) (hir.Expr, types.Type) {
	span := spanAt(pos)
	paramVars := make([]types.Type, len(argExprs))
	for i := range paramVars {
		paramVars[i] = tc.unifier.FreshVar()
	}
	retVar := tc.unifier.FreshVar()
	openEff := types.EffectRow{Kind: types.RowVar, Var: tc.unifier.FreshRowVar()}
	tc.unify(calleeType, types.FnT{Params: paramVars, Ret: retVar, Effect: openEff}, pos)

	args := make([]hir.Expr, len(argExprs))
	for i, a := range argExprs {
		var aty types.Type
		args[i], aty = tc.checkExpr(a, paramVars[i])
		tc.unify(paramVars[i], aty, a.Position())
	}
	retTy := tc.unifier.Resolve(retVar)
	return hir.Call{ExprBase: tc.mkBase(span, retTy, types.Pure()), Callee: calleeExpr, Args: args}, retTy
}

func (tc *TypeContext) traitNames() map[ids.DefId]string {
	out := make(map[ids.DefId]string)
	for defID, info := range tc.defInfo {
		if info.Kind == hir.KindTrait {
			out[defID] = info.Name
		}
	}
	return out
}
