package check

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

var primByName = map[string]types.Prim{
	"bool": types.Bool, "char": types.Char,
	"i8": types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64, "i128": types.I128, "isize": types.Isize,
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64, "u128": types.U128, "usize": types.Usize,
	"f32": types.F32, "f64": types.F64, "str": types.Str, "unit": types.Unit,
}

// lowerType translates a surface type expression into the structural
// Type grammar. typeParams maps in-scope generic parameter names to
// their rigid TyVarId (populated by the enclosing fn/struct/trait/impl
// declaration); an unresolved nominal name becomes types.TError so that
// checking can proceed and surface a single NotFound-shaped report
// rather than cascading.
func (tc *TypeContext) lowerType(t ast.Type, typeParams map[string]ids.TyVarId) types.Type {
	if t == nil {
		return tc.unifier.FreshVar()
	}
	switch v := t.(type) {
	case *ast.SimpleType:
		if prim, ok := primByName[v.Name]; ok {
			return types.Primitive{Kind: prim}
		}
		if tv, ok := typeParams[v.Name]; ok {
			return types.ParamT{ID: tv, Name: v.Name}
		}
		if defID, ok := tc.byName[v.Name]; ok {
			if alias, ok := tc.typeAliases[defID]; ok {
				return alias
			}
			return types.AdtT{DefID: defID, Name: v.Name}
		}
		tc.reportNotFound(v.Name, v.Pos)
		return types.TError

	case *ast.NamedType:
		if tv, ok := typeParams[v.Name]; ok {
			return types.ParamT{ID: tv, Name: v.Name}
		}
		defID, ok := tc.byName[v.Name]
		if !ok {
			tc.reportNotFound(v.Name, v.Pos)
			return types.TError
		}
		if alias, ok := tc.typeAliases[defID]; ok {
			return alias
		}
		args := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = tc.lowerType(a, typeParams)
		}
		return types.AdtT{DefID: defID, Name: v.Name, Args: args}

	case *ast.TypeVar:
		if tv, ok := typeParams[v.Name]; ok {
			return types.ParamT{ID: tv, Name: v.Name}
		}
		return tc.unifier.FreshVar()

	case *ast.FuncType:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = tc.lowerType(p, typeParams)
		}
		return types.FnT{Params: params, Ret: tc.lowerType(v.Return, typeParams), Effect: tc.lowerEffectNames(v.Effects)}

	case *ast.RefType:
		return types.RefT{Inner: tc.lowerType(v.Inner, typeParams), Mutable: v.Mutable}

	case *ast.PtrType:
		return types.PtrT{Inner: tc.lowerType(v.Inner, typeParams), Mutable: v.Mutable}

	case *ast.ArrayType:
		return types.ArrayT{Elem: tc.lowerType(v.Element, typeParams), Size: v.Size}

	case *ast.SliceType:
		return types.SliceT{Elem: tc.lowerType(v.Element, typeParams)}

	case *ast.TupleType:
		elems := make([]types.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = tc.lowerType(e, typeParams)
		}
		return types.TupleT{Elems: elems}

	case *ast.RangeType:
		return types.RangeT{Elem: tc.lowerType(v.Element, typeParams), Inclusive: v.Inclusive}

	case *ast.RecordRowType:
		fields := make([]types.RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = types.RecordField{Name: tc.interner.Intern(f.Name), Type: tc.lowerType(f.Type, typeParams)}
		}
		if v.RowVar == "" {
			return types.RecordT{Fields: fields}
		}
		rv := tc.unifier.FreshRowVar()
		return types.RecordT{Fields: fields, RowVar: &rv}

	case *ast.DynTraitType:
		traitID, ok := tc.byName[v.Trait]
		if !ok {
			tc.reportNotFound(v.Trait, v.Pos)
			return types.TError
		}
		autos := make([]ids.DefId, 0, len(v.AutoTraits))
		for _, name := range v.AutoTraits {
			if id, ok := tc.byName[name]; ok {
				autos = append(autos, id)
			}
		}
		return types.DynTraitT{TraitID: traitID, TraitName: v.Trait, AutoTraits: autos}

	default:
		return types.TError
	}
}

// lowerEffectNames turns a surface `! {A, B}` effect annotation into a
// closed EffectRow; an empty list is Pure.
func (tc *TypeContext) lowerEffectNames(names []string) types.EffectRow {
	if len(names) == 0 {
		return types.Pure()
	}
	effs := make([]types.Type, 0, len(names))
	for _, n := range names {
		if defID, ok := tc.byName[n]; ok {
			effs = append(effs, types.AdtT{DefID: defID, Name: n})
		}
	}
	return types.EffectRow{Kind: types.RowSet, Effects: effs}
}
