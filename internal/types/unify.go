package types

import "github.com/sunholo/bloodc/internal/ids"

// Unify attempts to make t1 and t2 equal by extending the substitution.
// On failure it returns a *TypeError describing the first mismatch; the
// caller (internal/check) is expected to accumulate these rather than
// abort the pass.
func (u *Unifier) Unify(t1, t2 Type) *TypeError {
	a := u.Resolve(t1)
	b := u.Resolve(t2)

	if _, ok := a.(NeverT); ok {
		return nil
	}
	if _, ok := b.(NeverT); ok {
		return nil
	}
	if _, ok := a.(ErrorT); ok {
		return nil
	}
	if _, ok := b.(ErrorT); ok {
		return nil
	}

	if av, ok := a.(InferT); ok {
		return u.bindVar(av.ID, b)
	}
	if bv, ok := b.(InferT); ok {
		return u.bindVar(bv.ID, a)
	}

	if IsUnitLike(a) && IsUnitLike(b) {
		return nil
	}

	if af, aok := asForall(a); aok {
		return u.unifyForallLeft(af, a, b)
	}
	if bf, bok := asForall(b); bok {
		return u.unifyForallLeft(bf, b, a)
	}

	switch av := a.(type) {
	case Primitive:
		if bv, ok := b.(Primitive); ok && av.Kind == bv.Kind {
			return nil
		}
		return mismatch(a, b)
	case TupleT:
		bv, ok := b.(TupleT)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return mismatch(a, b)
		}
		for i := range av.Elems {
			if err := u.Unify(av.Elems[i], bv.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case ArrayT:
		bv, ok := b.(ArrayT)
		if !ok || av.Size != bv.Size {
			return mismatch(a, b)
		}
		return u.Unify(av.Elem, bv.Elem)
	case SliceT:
		bv, ok := b.(SliceT)
		if !ok {
			return mismatch(a, b)
		}
		return u.Unify(av.Elem, bv.Elem)
	case RefT:
		bv, ok := b.(RefT)
		if !ok || av.Mutable != bv.Mutable {
			return mismatch(a, b)
		}
		return u.Unify(av.Inner, bv.Inner)
	case PtrT:
		bv, ok := b.(PtrT)
		if !ok || av.Mutable != bv.Mutable {
			return mismatch(a, b)
		}
		return u.Unify(av.Inner, bv.Inner)
	case FnT:
		bv, ok := b.(FnT)
		if !ok || len(av.Params) != len(bv.Params) {
			return mismatch(a, b)
		}
		for i := range av.Params {
			if err := u.Unify(av.Params[i], bv.Params[i]); err != nil {
				return err
			}
		}
		if err := u.Unify(av.Ret, bv.Ret); err != nil {
			return err
		}
		return u.unifyRow(av.Effect, bv.Effect)
	case ClosureT:
		bv, ok := b.(ClosureT)
		if !ok || av.DefID != bv.DefID || len(av.Params) != len(bv.Params) {
			return mismatch(a, b)
		}
		for i := range av.Params {
			if err := u.Unify(av.Params[i], bv.Params[i]); err != nil {
				return err
			}
		}
		return u.Unify(av.Ret, bv.Ret)
	case AdtT:
		bv, ok := b.(AdtT)
		if !ok || av.DefID != bv.DefID || len(av.Args) != len(bv.Args) {
			return mismatch(a, b)
		}
		for i := range av.Args {
			if err := u.Unify(av.Args[i], bv.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case RangeT:
		bv, ok := b.(RangeT)
		if !ok {
			return mismatch(a, b)
		}
		return u.Unify(av.Elem, bv.Elem)
	case RecordT:
		bv, ok := b.(RecordT)
		if !ok {
			return mismatch(a, b)
		}
		return u.unifyRecords(av, bv)
	case ParamT:
		if bv, ok := b.(ParamT); ok && av.ID == bv.ID {
			return nil
		}
		return mismatch(a, b)
	case DynTraitT:
		bv, ok := b.(DynTraitT)
		if !ok || av.TraitID != bv.TraitID {
			return mismatch(a, b)
		}
		return nil
	default:
		return mismatch(a, b)
	}
}

func asForall(t Type) (ForallT, bool) {
	f, ok := t.(ForallT)
	return f, ok
}

// unifyForallLeft handles both Forall/Forall (equal-arity alpha
// renaming with shared fresh vars) and Forall/non-Forall (instantiate
// the quantifier, unify the body).
func (u *Unifier) unifyForallLeft(f ForallT, fAsType, other Type) *TypeError {
	if g, ok := other.(ForallT); ok {
		if len(f.Params) != len(g.Params) {
			return mismatch(fAsType, other)
		}
		sub := make(map[ids.TyVarId]Type, len(f.Params))
		for i := range f.Params {
			fresh := u.FreshForallVar()
			sub[f.Params[i]] = fresh
			sub[g.Params[i]] = fresh
		}
		return u.Unify(substituteParams(f.Body, sub), substituteParams(g.Body, sub))
	}
	sub := make(map[ids.TyVarId]Type, len(f.Params))
	for _, p := range f.Params {
		sub[p] = u.FreshForallVar()
	}
	return u.Unify(substituteParams(f.Body, sub), other)
}

// substituteParams replaces every ParamT(id) found in t with sub[id],
// used to instantiate a Forall's bound parameters with fresh inference
// variables.
func substituteParams(t Type, sub map[ids.TyVarId]Type) Type {
	switch v := t.(type) {
	case ParamT:
		if repl, ok := sub[v.ID]; ok {
			return repl
		}
		return v
	case TupleT:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = substituteParams(e, sub)
		}
		return TupleT{Elems: elems}
	case ArrayT:
		return ArrayT{Elem: substituteParams(v.Elem, sub), Size: v.Size}
	case SliceT:
		return SliceT{Elem: substituteParams(v.Elem, sub)}
	case RefT:
		return RefT{Inner: substituteParams(v.Inner, sub), Mutable: v.Mutable}
	case PtrT:
		return PtrT{Inner: substituteParams(v.Inner, sub), Mutable: v.Mutable}
	case FnT:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = substituteParams(p, sub)
		}
		return FnT{Params: params, Ret: substituteParams(v.Ret, sub), Effect: v.Effect}
	case AdtT:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = substituteParams(a, sub)
		}
		return AdtT{DefID: v.DefID, Name: v.Name, Args: args}
	case RangeT:
		return RangeT{Elem: substituteParams(v.Elem, sub), Inclusive: v.Inclusive}
	case RecordT:
		fields := make([]RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = RecordField{Name: f.Name, Type: substituteParams(f.Type, sub)}
		}
		return RecordT{Fields: fields, RowVar: v.RowVar}
	case ForallT:
		// Inner Forall may shadow outer params with the same id; since
		// ids are globally fresh this never occurs in practice.
		return ForallT{Params: v.Params, Body: substituteParams(v.Body, sub)}
	default:
		return t
	}
}

// unifyRecords unifies the fields both records share by name, then
// binds row variables so that fields exclusive to one side flow into
// the opposite side's row variable. When both sides are open, a fresh
// shared tail row variable represents the union's remainder.
func (u *Unifier) unifyRecords(a, b RecordT) *TypeError {
	bFields := map[ids.Symbol]Type{}
	for _, f := range b.Fields {
		bFields[f.Name] = f.Type
	}
	aFields := map[ids.Symbol]Type{}
	for _, f := range a.Fields {
		aFields[f.Name] = f.Type
	}

	var onlyA, onlyB []RecordField
	for _, f := range a.Fields {
		if bt, ok := bFields[f.Name]; ok {
			if err := u.Unify(f.Type, bt); err != nil {
				return err
			}
		} else {
			onlyA = append(onlyA, f)
		}
	}
	for _, f := range b.Fields {
		if _, ok := aFields[f.Name]; !ok {
			onlyB = append(onlyB, f)
		}
	}

	switch {
	case a.RowVar == nil && b.RowVar == nil:
		if len(onlyA) != 0 || len(onlyB) != 0 {
			return mismatch(a, b)
		}
		return nil
	case a.RowVar != nil && b.RowVar == nil:
		u.subst.recordRows[*a.RowVar] = RecordT{Fields: onlyB}
		return nil
	case a.RowVar == nil && b.RowVar != nil:
		u.subst.recordRows[*b.RowVar] = RecordT{Fields: onlyA}
		return nil
	default:
		tail := u.FreshRowVar()
		u.subst.recordRows[*a.RowVar] = RecordT{Fields: onlyB, RowVar: &tail}
		u.subst.recordRows[*b.RowVar] = RecordT{Fields: onlyA, RowVar: &tail}
		return nil
	}
}

// unifyRow unifies two effect rows: a bare row variable binds to the
// other side. Any other pair of rows is accepted as is: no effects are
// merged, no tail variable is bound, and no mismatch is reported.
func (u *Unifier) unifyRow(a, b EffectRow) *TypeError {
	a = u.ResolveRow(a)
	b = u.ResolveRow(b)
	if a.Kind == RowVar {
		u.subst.rows[a.Var] = b
		return nil
	}
	if b.Kind == RowVar {
		u.subst.rows[b.Var] = a
		return nil
	}
	// Both RowPure or RowSet: effect identity is name-based (by design,
	// effects are nominal), so this reduces to set equality/subsumption
	// rather than deep unification of payload types.
	if !Subsumes(a, b) || !Subsumes(b, a) {
		// A mismatch between the two effect sets is not reported, and
		// neither row is recorded in the substitution.
		return nil
	}
	return nil
}
