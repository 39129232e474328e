package check

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/errors"
	"github.com/sunholo/bloodc/internal/hir"
)

// Check runs the full two-pass pipeline over a set of parsed files
// belonging to one crate: collection, body checking, then HIR
// synthesis. The returned Collector holds every diagnostic raised along
// the way; callers should check HasErrors before trusting the Crate.
func Check(files []*ast.File) (*hir.Crate, *errors.Collector) {
	tc := NewTypeContext()
	tc.Collect(files)
	tc.CheckBodies()
	return tc.IntoHIR(), tc.errs
}

// IntoHIR assembles the final Crate from the tables Collect and
// CheckBodies populated. Call only after CheckBodies has run.
func (tc *TypeContext) IntoHIR() *hir.Crate {
	crate := hir.NewCrate()
	crate.Entry = tc.entry

	for defID, info := range tc.defInfo {
		crate.DefInfo[defID] = info
	}
	for bodyID, body := range tc.bodies {
		crate.Bodies[bodyID] = body
	}

	for defID, sig := range tc.fnSigs {
		info := tc.defInfo[defID]
		if info == nil || (info.Kind != hir.KindFn && info.Kind != hir.KindImplMethod) {
			continue
		}
		rec, ok := tc.fnBodies[defID]
		if !ok {
			continue
		}
		crate.Items[defID] = &hir.Item{Fn: &hir.FnItem{
			DefID: defID, TypeParams: tc.fnTypeParams[defID], ParamLocal: rec.paramLocal, Sig: sig, Body: rec.bodyID,
		}}
	}

	for defID, sd := range tc.structDefs {
		crate.Items[defID] = &hir.Item{Struct: &hir.StructItem{DefID: defID, Fields: sd.fields}}
	}

	for defID, ed := range tc.enumDefs {
		crate.Items[defID] = &hir.Item{Enum: &hir.EnumItem{DefID: defID, Variants: ed.variants}}
	}

	for defID, info := range tc.effectDefs {
		crate.Items[defID] = &hir.Item{Effect: &hir.EffectItem{DefID: defID, Info: *info}}
	}

	for defID, info := range tc.handlerDefs {
		crate.Items[defID] = &hir.Item{Handler: &hir.HandlerItem{DefID: defID, Info: *info}}
	}

	for defID, info := range tc.defInfo {
		if info.Kind != hir.KindConst && info.Kind != hir.KindStatic {
			continue
		}
		rec, ok := tc.fnBodies[defID]
		if !ok {
			continue
		}
		if info.Kind == hir.KindConst {
			crate.Items[defID] = &hir.Item{Const: &hir.ConstItem{DefID: defID, Type: info.Type, Body: rec.bodyID}}
		} else {
			crate.Items[defID] = &hir.Item{Static: &hir.StaticItem{DefID: defID, Type: info.Type, Body: rec.bodyID}}
		}
	}

	return crate
}
