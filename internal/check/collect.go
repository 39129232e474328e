package check

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/dispatch"
	"github.com/sunholo/bloodc/internal/effects"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

func visibilityOf(exported bool) hir.Visibility {
	if exported {
		return hir.Public
	}
	return hir.Private
}

// registerTypeParams allocates a rigid ParamT id for every generic
// parameter name a declaration introduces.
func (tc *TypeContext) registerTypeParams(names []string) map[string]ids.TyVarId {
	out := make(map[string]ids.TyVarId, len(names))
	for _, n := range names {
		v := tc.unifier.FreshVar().(types.InferT)
		out[n] = v.ID
	}
	return out
}

func typeParamIDs(m map[string]ids.TyVarId, order []string) []ids.TyVarId {
	out := make([]ids.TyVarId, len(order))
	for i, n := range order {
		out[i] = m[n]
	}
	return out
}

// Collect walks every file's top-level declarations, registering a
// DefId for each named item (pass 1, so forward references within and
// across files resolve), then lowering each item's signature (pass 2).
// Bodies are not checked here; they are enqueued onto pendingFns /
// pendingOps for CheckBodies.
func (tc *TypeContext) Collect(files []*ast.File) {
	var decls []ast.Decl
	for _, f := range files {
		decls = append(decls, f.Decls...)
	}

	defIDs := make(map[ast.Decl]ids.DefId, len(decls))
	for _, d := range decls {
		switch v := d.(type) {
		case *ast.FuncDecl:
			defIDs[d] = tc.freshDefID(v.Name, hir.KindFn, ids.NoDefId, v.Span)
		case *ast.TypeDecl:
			kind := hir.KindStruct
			if _, ok := v.Definition.(*ast.AlgebraicType); ok {
				kind = hir.KindEnum
			}
			defIDs[d] = tc.freshDefID(v.Name, kind, ids.NoDefId, spanAt(v.Pos))
		case *ast.TraitDecl:
			defIDs[d] = tc.freshDefID(v.Name, hir.KindTrait, ids.NoDefId, spanAt(v.Pos))
		case *ast.EffectDecl:
			defIDs[d] = tc.freshDefID(v.Name, hir.KindEffect, ids.NoDefId, spanAt(v.Pos))
		case *ast.HandlerDecl:
			defIDs[d] = tc.freshDefID(v.Name, hir.KindHandler, ids.NoDefId, spanAt(v.Pos))
		case *ast.ConstDecl:
			defIDs[d] = tc.freshDefID(v.Name, hir.KindConst, ids.NoDefId, spanAt(v.Pos))
		case *ast.StaticDecl:
			defIDs[d] = tc.freshDefID(v.Name, hir.KindStatic, ids.NoDefId, spanAt(v.Pos))
		}
	}

	// Pass 2: enums/structs/aliases first, so function signatures and
	// other types that reference them resolve in the same pass.
	for _, d := range decls {
		if v, ok := d.(*ast.TypeDecl); ok {
			tc.collectTypeDecl(v, defIDs[d])
		}
	}
	for _, d := range decls {
		switch v := d.(type) {
		case *ast.FuncDecl:
			tc.collectFunc(v, defIDs[d])
		case *ast.TraitDecl:
			tc.collectTrait(v, defIDs[d])
		case *ast.EffectDecl:
			tc.collectEffect(v, defIDs[d])
		case *ast.ConstDecl:
			tc.collectConst(v, defIDs[d])
		case *ast.StaticDecl:
			tc.collectStatic(v, defIDs[d])
		}
	}
	// Impls and handlers reference traits/effects/structs collected
	// above, so they run last.
	for _, d := range decls {
		switch v := d.(type) {
		case *ast.ImplDecl:
			tc.collectImpl(v)
		case *ast.HandlerDecl:
			tc.collectHandler(v, defIDs[d])
		}
	}
}

func (tc *TypeContext) collectTypeDecl(v *ast.TypeDecl, defID ids.DefId) {
	typeParams := tc.registerTypeParams(v.TypeParams)
	tpIDs := typeParamIDs(typeParams, v.TypeParams)

	switch def := v.Definition.(type) {
	case *ast.RecordType:
		fields := make([]hir.FieldDef, len(def.Fields))
		for i, f := range def.Fields {
			fields[i] = hir.FieldDef{Name: tc.interner.Intern(f.Name), Type: tc.lowerType(f.Type, typeParams)}
		}
		tc.structDefs[defID] = &structDef{defID: defID, typeParams: tpIDs, fields: fields}

	case *ast.AlgebraicType:
		variants := make([]hir.VariantDef, len(def.Constructors))
		idx := make(map[string]uint32, len(def.Constructors))
		for i, c := range def.Constructors {
			fieldTypes := make([]types.Type, len(c.Fields))
			for j, ft := range c.Fields {
				fieldTypes[j] = tc.lowerType(ft, typeParams)
			}
			vDefID := tc.freshDefID(c.Name, hir.KindVariant, defID, spanAt(c.Pos))
			variants[i] = hir.VariantDef{DefID: vDefID, Name: c.Name, Fields: fieldTypes}
			idx[c.Name] = uint32(i)
		}
		tc.enumDefs[defID] = &enumDef{defID: defID, typeParams: tpIDs, variants: variants, variantIdx: idx}

	case *ast.TypeAlias:
		tc.typeAliases[defID] = tc.lowerType(def.Target, typeParams)
	}
}

func (tc *TypeContext) collectFunc(v *ast.FuncDecl, defID ids.DefId) {
	typeParams := tc.registerTypeParams(v.TypeParams)
	params := make([]types.Type, len(v.Params))
	for i, p := range v.Params {
		params[i] = tc.lowerType(p.Type, typeParams)
	}
	ret := tc.lowerType(v.ReturnType, typeParams)
	eff := tc.lowerEffectNames(v.Effects)
	sig := types.FnT{Params: params, Ret: ret, Effect: eff}
	tc.fnSigs[defID] = sig
	tc.fnTypeParams[defID] = typeParamIDs(typeParams, v.TypeParams)
	tc.defInfo[defID].Type = sig
	tc.defInfo[defID].Visibility = visibilityOf(v.IsExport)

	tc.methodCandidates[v.Name] = append(tc.methodCandidates[v.Name], dispatch.MethodCandidate{
		DefID: defID, Name: v.Name, TraitID: ids.NoDefId,
		TypeParams: typeParamIDs(typeParams, v.TypeParams),
		ParamTypes: params, ReturnType: ret, Effect: eff,
	})

	tc.pendingFns = append(tc.pendingFns, pendingBody{defID: defID, decl: v, typeParams: typeParams, sig: sig})
}

func (tc *TypeContext) collectTrait(v *ast.TraitDecl, defID ids.DefId) {
	selfParam := tc.registerTypeParams([]string{v.TypeParam})
	methods := make(map[string]types.FnT, len(v.Methods))
	for _, m := range v.Methods {
		params := make([]types.Type, len(m.Params))
		for i, p := range m.Params {
			params[i] = tc.lowerType(p.Type, selfParam)
		}
		methods[m.Name] = types.FnT{Params: params, Ret: tc.lowerType(m.Ret, selfParam), Effect: tc.lowerEffectNames(m.Effects)}
	}
	tc.traitDefs[defID] = &traitDef{defID: defID, typeParam: v.TypeParam, methods: methods}
}

func (tc *TypeContext) collectEffect(v *ast.EffectDecl, defID ids.DefId) {
	typeParams := tc.registerTypeParams(v.TypeParams)
	ops := make([]effects.OpSig, len(v.Ops))
	for i, op := range v.Ops {
		params := make([]types.Type, len(op.Params))
		for j, p := range op.Params {
			params[j] = tc.lowerType(p.Type, typeParams)
		}
		opDefID := tc.freshDefID(op.Name, hir.KindFn, defID, spanAt(op.Pos))
		ops[i] = effects.OpSig{Name: op.Name, Params: params, Return: tc.lowerType(op.Ret, typeParams), DefID: opDefID}
	}
	tc.effectDefs[defID] = &effects.Info{DefID: defID, Name: v.Name, TypeParams: typeParamIDs(typeParams, v.TypeParams), Ops: ops}
}

func (tc *TypeContext) collectConst(v *ast.ConstDecl, defID ids.DefId) {
	ty := tc.lowerType(v.Type, nil)
	tc.defInfo[defID].Type = ty
	tc.pendingFns = append(tc.pendingFns, pendingBody{
		defID: defID,
		decl:  &ast.FuncDecl{Name: v.Name, ReturnType: v.Type, Body: v.Value, Pos: v.Pos},
		sig:   types.FnT{Ret: ty, Effect: types.Pure()},
	})
}

func (tc *TypeContext) collectStatic(v *ast.StaticDecl, defID ids.DefId) {
	ty := tc.lowerType(v.Type, nil)
	tc.defInfo[defID].Type = ty
	tc.pendingFns = append(tc.pendingFns, pendingBody{
		defID: defID,
		decl:  &ast.FuncDecl{Name: v.Name, ReturnType: v.Type, Body: v.Value, Pos: v.Pos},
		sig:   types.FnT{Ret: ty, Effect: types.Pure()},
	})
}

func (tc *TypeContext) collectImpl(v *ast.ImplDecl) {
	selfParams := tc.registerTypeParams(v.TypeParams)
	forType := tc.lowerType(v.ForType, selfParams)

	traitID := ids.NoDefId
	if v.TraitName != "" {
		if id, ok := tc.byName[v.TraitName]; ok {
			traitID = id
		} else {
			tc.reportNotFound(v.TraitName, v.Pos)
		}
	}

	impl := &implBlock{traitID: traitID, forType: forType, methods: make(map[string]ids.DefId)}
	for _, m := range v.Methods {
		methodParams := tc.registerTypeParams(m.TypeParams)
		for k, id := range selfParams {
			methodParams[k] = id
		}
		params := make([]types.Type, len(m.Params))
		for i, p := range m.Params {
			params[i] = tc.lowerType(p.Type, methodParams)
		}
		ret := tc.lowerType(m.ReturnType, methodParams)
		eff := tc.lowerEffectNames(m.Effects)
		sig := types.FnT{Params: params, Ret: ret, Effect: eff}

		methodDefID := tc.freshDefID(v.ForType.String()+"::"+m.Name, hir.KindImplMethod, traitID, spanAt(m.Pos))
		tc.fnSigs[methodDefID] = sig
		tc.fnTypeParams[methodDefID] = typeParamIDs(methodParams, m.TypeParams)
		tc.defInfo[methodDefID].Type = sig
		impl.methods[m.Name] = methodDefID

		tc.methodCandidates[m.Name] = append(tc.methodCandidates[m.Name], dispatch.MethodCandidate{
			DefID: methodDefID, Name: m.Name, TraitID: traitID,
			TypeParams: typeParamIDs(methodParams, m.TypeParams),
			ParamTypes: params, ReturnType: ret, Effect: eff,
		})
		tc.pendingFns = append(tc.pendingFns, pendingBody{defID: methodDefID, decl: m, typeParams: methodParams, sig: sig})
	}
	tc.implBlocks = append(tc.implBlocks, impl)
}

func (tc *TypeContext) collectHandler(v *ast.HandlerDecl, defID ids.DefId) {
	effectID, ok := tc.byName[v.EffectName]
	if !ok {
		tc.reportNotFound(v.EffectName, v.Pos)
		return
	}
	effectArgs := make([]types.Type, len(v.EffectArgs))
	for i, a := range v.EffectArgs {
		effectArgs[i] = tc.lowerType(a, nil)
	}
	state := make([]effects.StateField, len(v.State))
	for i, f := range v.State {
		state[i] = effects.StateField{Name: f.Name, Type: tc.lowerType(f.Type, nil)}
	}

	kind := effects.Deep
	if v.Kind == ast.Shallow {
		kind = effects.Shallow
	}

	info := &effects.HandlerInfo{DefID: defID, Name: v.Name, EffectID: effectID, EffectArgs: effectArgs, Kind: kind, State: state}
	tc.handlerDefs[defID] = info

	effInfo := tc.effectDefs[effectID]
	for _, op := range v.Ops {
		var resumeType types.Type = types.TUnit
		if effInfo != nil {
			if sig, ok := effInfo.OpByName(op.Name); ok {
				resumeType = sig.Return
			}
		}
		tc.pendingOps = append(tc.pendingOps, pendingHandlerOp{
			handlerDef: defID, opName: op.Name, params: op.Params, body: op.Body,
			resumeType: resumeType, effectID: effectID,
		})
	}
	if v.Return != nil {
		tc.pendingOps = append(tc.pendingOps, pendingHandlerOp{
			handlerDef: defID, opName: "", params: v.Return.Params, body: v.Return.Body,
			resumeType: types.TUnit, effectID: effectID,
		})
	}
}
