package check

import (
	"github.com/sunholo/bloodc/internal/effects"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

func opBodyOf(name string, bodyID ids.BodyId) effects.OpBody {
	return effects.OpBody{OpName: name, Body: bodyID}
}

// bodyRecord records which Body a checked def's root expression lives in
// and its parameter locals, filled in by CheckBodies (tc.fnBodies) and
// consumed by IntoHIR.
type bodyRecord struct {
	bodyID     ids.BodyId
	paramLocal []ids.LocalId
}

// bodyState is the part of TypeContext that checking one body under
// construction mutates; saved/restored around nested bodies (lambdas).
type bodyState struct {
	scope             *Scope
	locals            []hir.Local
	nextLocalID       uint32
	handledEffects    []ids.DefId
	declaredEffect    types.EffectRow
	currentReturnType types.Type
	currentFuncDef    ids.DefId
	currentResumeType types.Type
}

func (tc *TypeContext) saveBodyState() bodyState {
	return bodyState{
		scope: tc.scope, locals: tc.locals, nextLocalID: tc.nextLocalID,
		handledEffects: tc.handledEffects, declaredEffect: tc.declaredEffect,
		currentReturnType: tc.currentReturnType, currentFuncDef: tc.currentFuncDef,
		currentResumeType: tc.currentResumeType,
	}
}

func (tc *TypeContext) restoreBodyState(s bodyState) {
	tc.scope, tc.locals, tc.nextLocalID = s.scope, s.locals, s.nextLocalID
	tc.handledEffects, tc.declaredEffect = s.handledEffects, s.declaredEffect
	tc.currentReturnType, tc.currentFuncDef = s.currentReturnType, s.currentFuncDef
	tc.currentResumeType = s.currentResumeType
}

func (tc *TypeContext) localType(id ids.LocalId) types.Type {
	for _, l := range tc.locals {
		if l.ID == id {
			return l.Type
		}
	}
	return types.TError
}

// CheckBodies checks every pending function and handler-op body,
// storing each finished Body in tc.bodies for IntoHIR to read.
func (tc *TypeContext) CheckBodies() {
	bodyOf := make(map[ids.DefId]bodyRecord, len(tc.pendingFns))
	for _, pb := range tc.pendingFns {
		bodyOf[pb.defID] = tc.checkFuncBody(pb)
	}
	tc.fnBodies = bodyOf

	for _, op := range tc.pendingOps {
		tc.checkHandlerOpBody(op)
	}
}

func (tc *TypeContext) checkFuncBody(pb pendingBody) bodyRecord {
	saved := tc.saveBodyState()

	tc.scope = newScope(nil)
	tc.locals = nil
	tc.nextLocalID = 0
	tc.handledEffects = nil
	tc.declaredEffect = pb.sig.Effect
	tc.currentReturnType = pb.sig.Ret
	tc.currentFuncDef = pb.defID
	tc.currentResumeType = nil

	paramIDs := make([]ids.LocalId, len(pb.decl.Params))
	for i, p := range pb.decl.Params {
		pty := types.Type(types.TError)
		if i < len(pb.sig.Params) {
			pty = pb.sig.Params[i]
		}
		id := tc.freshLocal(p.Name, pty, false, spanAt(p.Pos))
		tc.scope.define(p.Name, binding{isLocal: true, local: id})
		paramIDs[i] = id
	}

	root, rootTy := tc.checkExpr(pb.decl.Body, pb.sig.Ret)
	tc.unify(pb.sig.Ret, rootTy, pb.decl.Pos)

	bodyID := tc.freshBodyID()
	tc.bodies[bodyID] = &hir.Body{
		ID: bodyID, Locals: tc.locals, ParamCount: len(paramIDs), Root: root, Span: spanAt(pb.decl.Pos),
	}

	tc.restoreBodyState(saved)
	return bodyRecord{bodyID: bodyID, paramLocal: paramIDs}
}

func (tc *TypeContext) checkHandlerOpBody(op pendingHandlerOp) {
	saved := tc.saveBodyState()

	tc.scope = newScope(nil)
	tc.locals = nil
	tc.nextLocalID = 0
	tc.handledEffects = nil
	tc.declaredEffect = types.Pure()
	tc.currentResumeType = op.resumeType
	tc.currentFuncDef = op.handlerDef

	info := tc.effectDefs[op.effectID]
	var retType types.Type = types.TUnit
	if op.opName != "" && info != nil {
		if sig, ok := info.OpByName(op.opName); ok {
			for i, p := range op.params {
				pty := types.Type(types.TError)
				if i < len(sig.Params) {
					pty = sig.Params[i]
				}
				id := tc.freshLocal(p.Name, pty, false, spanAt(p.Pos))
				tc.scope.define(p.Name, binding{isLocal: true, local: id})
			}
		}
	} else {
		// Return clause: its single bound param is the computation's result.
		for _, p := range op.params {
			id := tc.freshLocal(p.Name, tc.unifier.FreshVar(), false, spanAt(p.Pos))
			tc.scope.define(p.Name, binding{isLocal: true, local: id})
		}
	}
	tc.currentReturnType = retType

	root, rootTy := tc.checkExpr(op.body, retType)
	tc.unify(retType, rootTy, op.body.Position())

	bodyID := tc.freshBodyID()
	tc.bodies[bodyID] = &hir.Body{ID: bodyID, Locals: tc.locals, ParamCount: len(tc.locals), Root: root, Span: spanAt(op.body.Position())}

	handlerInfo := tc.handlerDefs[op.handlerDef]
	if handlerInfo != nil {
		if op.opName == "" {
			handlerInfo.ReturnBody = &bodyID
		} else {
			handlerInfo.Ops = append(handlerInfo.Ops, opBodyOf(op.opName, bodyID))
		}
	}

	tc.restoreBodyState(saved)
}
