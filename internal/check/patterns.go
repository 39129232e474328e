package check

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// checkPattern lowers a surface pattern against an expected scrutinee
// type, binding every introduced name as a fresh Local in the current
// scope. Mismatches are recoverable: an unmatchable shape still returns
// a WildcardPattern so checking can continue.
func (tc *TypeContext) checkPattern(p ast.Pattern, scrutinee types.Type) hir.Pattern {
	span := spanAt(p.Position())
	base := hir.PatternBase{SpanV: span}

	switch v := p.(type) {
	case *ast.WildcardPattern:
		return hir.WildcardPattern{PatternBase: base}

	case *ast.Identifier:
		local := tc.freshLocal(v.Name, scrutinee, false, span)
		tc.scope.define(v.Name, binding{isLocal: true, local: local})
		return hir.IdentPattern{PatternBase: base, Local: local}

	case *ast.Literal:
		tc.unify(scrutinee, tc.litType(v), v.Pos)
		return hir.LitPattern{PatternBase: base, Value: v.Value}

	case *ast.TuplePattern:
		elemTypes := make([]types.Type, len(v.Elements))
		for i := range elemTypes {
			elemTypes[i] = tc.unifier.FreshVar()
		}
		tc.unify(scrutinee, types.TupleT{Elems: elemTypes}, v.Pos)
		elems := make([]hir.Pattern, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = tc.checkPattern(e, elemTypes[i])
		}
		return hir.TuplePattern{PatternBase: base, Elems: elems, Rest: -1}

	case *ast.RecordPattern:
		resolved := tc.unifier.Resolve(scrutinee)
		adt, _ := resolved.(types.AdtT)
		var sd *structDef
		if adt.DefID.IsValid() {
			sd = tc.structDefs[adt.DefID]
		}
		fields := make([]hir.FieldPattern, 0, len(v.Fields))
		for _, f := range v.Fields {
			sym := tc.interner.Intern(f.Name)
			ft := tc.unifier.FreshVar()
			if sd != nil {
				for _, fd := range sd.fields {
					if fd.Name == sym {
						ft = fd.Type
						break
					}
				}
			}
			fields = append(fields, hir.FieldPattern{Name: sym, Pattern: tc.checkPattern(f.Pattern, ft)})
		}
		return hir.StructPattern{PatternBase: base, DefID: adt.DefID, Fields: fields, Rest: v.Rest}

	case *ast.ConstructorPattern:
		return tc.checkConstructorPattern(v, scrutinee, base)

	case *ast.OrPattern:
		alts := make([]hir.Pattern, len(v.Alternatives))
		for i, a := range v.Alternatives {
			alts[i] = tc.checkPattern(a, scrutinee)
		}
		return hir.OrPattern{PatternBase: base, Alternatives: alts}

	case *ast.RangePattern:
		lo, loTy := tc.checkExpr(v.Lo, scrutinee)
		hi, _ := tc.checkExpr(v.Hi, loTy)
		tc.unify(scrutinee, loTy, v.Pos)
		return hir.RangePattern{PatternBase: base, Lo: constFoldLit(lo), Hi: constFoldLit(hi), Inclusive: v.Inclusive}

	case *ast.RefPattern:
		inner := tc.unifier.FreshVar()
		tc.unify(scrutinee, types.RefT{Inner: inner, Mutable: v.Mutable}, v.Pos)
		return hir.RefPattern{PatternBase: base, Inner: tc.checkPattern(v.Inner, inner), Mutable: v.Mutable}

	case *ast.ListPattern:
		elemTy := tc.unifier.FreshVar()
		tc.unify(scrutinee, types.SliceT{Elem: elemTy}, v.Pos)
		elems := make([]hir.Pattern, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = tc.checkPattern(e, elemTy)
		}
		rest := -1
		if v.Rest != nil {
			rest = len(elems)
			if id, ok := v.Rest.(*ast.Identifier); ok {
				local := tc.freshLocal(id.Name, types.SliceT{Elem: elemTy}, false, span)
				tc.scope.define(id.Name, binding{isLocal: true, local: local})
			}
		}
		return hir.SlicePattern{PatternBase: base, Elems: elems, Rest: rest}

	case *ast.ConsPattern:
		elemTy := tc.unifier.FreshVar()
		tc.unify(scrutinee, types.SliceT{Elem: elemTy}, v.Pos)
		head := tc.checkPattern(v.Head, elemTy)
		if id, ok := v.Tail.(*ast.Identifier); ok {
			local := tc.freshLocal(id.Name, types.SliceT{Elem: elemTy}, false, span)
			tc.scope.define(id.Name, binding{isLocal: true, local: local})
		}
		return hir.SlicePattern{PatternBase: base, Elems: []hir.Pattern{head}, Rest: 1}

	default:
		tc.reportUnsupported("pattern", p.Position())
		return hir.WildcardPattern{PatternBase: base}
	}
}

// checkConstructorPattern resolves Name against the enum variant table
// (tagged-union form) first, falling back to a tuple-struct's positional
// fields.
func (tc *TypeContext) checkConstructorPattern(v *ast.ConstructorPattern, scrutinee types.Type, base hir.PatternBase) hir.Pattern {
	defID, ok := tc.byName[v.Name]
	if !ok {
		tc.reportNotFound(v.Name, v.Pos)
		return hir.WildcardPattern{PatternBase: base}
	}
	info := tc.defInfo[defID]
	if info != nil && info.Kind == hir.KindVariant {
		ed := tc.enumDefs[info.Parent]
		idx := ed.variantIdx[v.Name]
		variant := ed.variants[idx]
		tc.unify(scrutinee, types.AdtT{DefID: ed.defID, Name: tc.defInfo[ed.defID].Name}, v.Pos)
		elems := make([]hir.Pattern, len(v.Patterns))
		for i, p := range v.Patterns {
			ft := types.Type(types.TError)
			if i < len(variant.Fields) {
				ft = variant.Fields[i]
			}
			elems[i] = tc.checkPattern(p, ft)
		}
		return hir.VariantPattern{PatternBase: base, EnumDef: ed.defID, VariantIdx: idx, Elems: elems}
	}
	if info != nil && info.Kind == hir.KindStruct {
		sd := tc.structDefs[defID]
		tc.unify(scrutinee, types.AdtT{DefID: defID, Name: v.Name}, v.Pos)
		fields := make([]hir.FieldPattern, len(v.Patterns))
		for i, p := range v.Patterns {
			ft := types.Type(types.TError)
			name := ids.Symbol(-1)
			if i < len(sd.fields) {
				ft = sd.fields[i].Type
				name = sd.fields[i].Name
			}
			fields[i] = hir.FieldPattern{Name: name, Pattern: tc.checkPattern(p, ft)}
		}
		return hir.StructPattern{PatternBase: base, DefID: defID, Fields: fields}
	}
	tc.reportNotFound(v.Name, v.Pos)
	return hir.WildcardPattern{PatternBase: base}
}

func (tc *TypeContext) litType(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.IntLit:
		return types.TI64
	case ast.FloatLit:
		return types.TF64
	case ast.StringLit:
		return types.TStr
	case ast.BoolLit:
		return types.TBool
	case ast.CharLit:
		return types.Primitive{Kind: types.Char}
	default:
		return types.TUnit
	}
}

// constFoldLit extracts the literal value out of a checked range bound,
// which the grammar restricts to literal or identifier expressions.
func constFoldLit(e hir.Expr) interface{} {
	switch v := e.(type) {
	case hir.Lit:
		return v.Value
	default:
		return nil
	}
}
