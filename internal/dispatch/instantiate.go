package dispatch

import (
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// instantiateGeneric applies a generic candidate's type params P1..Pn to
// argument types A by structural walk: whenever a ParamT(Pi) is
// encountered, the corresponding subtree of ai is recorded as its
// binding. Multiple occurrences of the same param must agree; on
// contradiction instantiation fails (the candidate becomes inapplicable
// at this call site, it is not a hard dispatch error; TryMatchParam
// reports the structured conflict for callers that want it).
func (r *Resolver) instantiateGeneric(m MethodCandidate, argTypes []types.Type) (MethodCandidate, bool) {
	bindings := map[ids.TyVarId]types.Type{}
	for i, param := range m.ParamTypes {
		if i >= len(argTypes) {
			return MethodCandidate{}, false
		}
		if !r.tryMatchParam(param, argTypes[i], bindings) {
			return MethodCandidate{}, false
		}
	}

	inst := m
	inst.TypeParams = nil
	inst.ParamTypes = make([]types.Type, len(m.ParamTypes))
	for i, p := range m.ParamTypes {
		inst.ParamTypes[i] = applySubst(p, bindings)
	}
	inst.ReturnType = applySubst(m.ReturnType, bindings)
	return inst, true
}

// InstantiationOutcome distinguishes a plain mismatch from the specific
// "same param, two different concrete bindings" case the checker is
// asked to surface verbatim (§8).
type InstantiationOutcome struct {
	OK       bool
	Conflict bool
	Param    ids.TyVarId
	Expected types.Type
	Found    types.Type
}

// TryMatchParam is the exported, outcome-reporting counterpart of
// tryMatchParam, for callers that need the structured mismatch (e.g.
// `identity<T>(x:T, y:T)` applied to `(i32, i64)`).
func (r *Resolver) TryMatchParam(param, arg types.Type, bindings map[ids.TyVarId]types.Type) InstantiationOutcome {
	if p, ok := param.(types.ParamT); ok {
		if existing, bound := bindings[p.ID]; bound {
			if !r.typesEqual(existing, arg) {
				return InstantiationOutcome{Conflict: true, Param: p.ID, Expected: existing, Found: arg}
			}
			return InstantiationOutcome{OK: true}
		}
		bindings[p.ID] = arg
		return InstantiationOutcome{OK: true}
	}
	if r.tryMatchParam(param, arg, bindings) {
		return InstantiationOutcome{OK: true}
	}
	return InstantiationOutcome{Conflict: false}
}

func (r *Resolver) tryMatchParam(param, arg types.Type, bindings map[ids.TyVarId]types.Type) bool {
	switch p := param.(type) {
	case types.ParamT:
		if existing, ok := bindings[p.ID]; ok {
			return r.typesEqual(existing, arg)
		}
		bindings[p.ID] = arg
		return true
	case types.RefT:
		a, ok := arg.(types.RefT)
		return ok && a.Mutable == p.Mutable && r.tryMatchParam(p.Inner, a.Inner, bindings)
	case types.PtrT:
		a, ok := arg.(types.PtrT)
		return ok && a.Mutable == p.Mutable && r.tryMatchParam(p.Inner, a.Inner, bindings)
	case types.TupleT:
		a, ok := arg.(types.TupleT)
		if !ok || len(a.Elems) != len(p.Elems) {
			return false
		}
		for i := range p.Elems {
			if !r.tryMatchParam(p.Elems[i], a.Elems[i], bindings) {
				return false
			}
		}
		return true
	case types.ArrayT:
		a, ok := arg.(types.ArrayT)
		return ok && a.Size == p.Size && r.tryMatchParam(p.Elem, a.Elem, bindings)
	case types.SliceT:
		a, ok := arg.(types.SliceT)
		return ok && r.tryMatchParam(p.Elem, a.Elem, bindings)
	case types.AdtT:
		a, ok := arg.(types.AdtT)
		if !ok || a.DefID != p.DefID || len(a.Args) != len(p.Args) {
			return false
		}
		for i := range p.Args {
			if !r.tryMatchParam(p.Args[i], a.Args[i], bindings) {
				return false
			}
		}
		return true
	default:
		return r.typesEqual(param, arg)
	}
}

// applySubst rewrites every ParamT found in t with its bound concrete
// type, producing a fully-instantiated (non-generic) type.
func applySubst(t types.Type, bindings map[ids.TyVarId]types.Type) types.Type {
	switch v := t.(type) {
	case types.ParamT:
		if bound, ok := bindings[v.ID]; ok {
			return bound
		}
		return v
	case types.RefT:
		return types.RefT{Inner: applySubst(v.Inner, bindings), Mutable: v.Mutable}
	case types.PtrT:
		return types.PtrT{Inner: applySubst(v.Inner, bindings), Mutable: v.Mutable}
	case types.TupleT:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = applySubst(e, bindings)
		}
		return types.TupleT{Elems: elems}
	case types.ArrayT:
		return types.ArrayT{Elem: applySubst(v.Elem, bindings), Size: v.Size}
	case types.SliceT:
		return types.SliceT{Elem: applySubst(v.Elem, bindings)}
	case types.AdtT:
		args := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = applySubst(a, bindings)
		}
		return types.AdtT{DefID: v.DefID, Name: v.Name, Args: args}
	case types.FnT:
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = applySubst(p, bindings)
		}
		return types.FnT{Params: params, Ret: applySubst(v.Ret, bindings), Effect: v.Effect}
	default:
		return t
	}
}
