package types

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/ids"
)

// ErrorKind tags the unifier's own failure modes (§7 Type checking
// errors Mismatch/InfiniteType live here; the rest belong to the
// checker).
type ErrorKind int

const (
	Mismatch ErrorKind = iota
	InfiniteType
)

// TypeError is returned by Unify/Resolve on failure.
type TypeError struct {
	Kind     ErrorKind
	Expected Type
	Found    Type
	Message  string
}

func (e *TypeError) Error() string {
	switch e.Kind {
	case InfiniteType:
		return fmt.Sprintf("infinite type: %s", e.Message)
	default:
		return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
	}
}

func mismatch(expected, found Type) *TypeError {
	return &TypeError{Kind: Mismatch, Expected: expected, Found: found}
}

// Substitution is the unifier's union-find-style binding table: a
// resolved InferT never points through a chain, but unresolved ones may
// still chain to another InferT.
type Substitution struct {
	vars       map[ids.TyVarId]Type
	rows       map[ids.RowVarId]EffectRow
	recordRows map[ids.RowVarId]Type
}

func newSubstitution() *Substitution {
	return &Substitution{
		vars:       make(map[ids.TyVarId]Type),
		rows:       make(map[ids.RowVarId]EffectRow),
		recordRows: make(map[ids.RowVarId]Type),
	}
}

// Unifier owns fresh-variable allocation, the substitution table, and
// the unify/resolve/occurs-check algorithm (component A's public
// contract).
type Unifier struct {
	nextTyVar  uint32
	nextRowVar uint32
	subst      *Substitution
}

func NewUnifier() *Unifier {
	return &Unifier{subst: newSubstitution()}
}

// FreshVar allocates a new unification variable.
func (u *Unifier) FreshVar() Type {
	id := ids.TyVarId(u.nextTyVar)
	u.nextTyVar++
	return InferT{ID: id}
}

// FreshRowVar allocates a new row variable.
func (u *Unifier) FreshRowVar() ids.RowVarId {
	id := ids.RowVarId(u.nextRowVar)
	u.nextRowVar++
	return id
}

// FreshForallVar allocates a fresh Infer var intended to instantiate one
// bound Forall parameter; identical to FreshVar, named separately to
// mirror the call sites that do the instantiation walk.
func (u *Unifier) FreshForallVar() Type { return u.FreshVar() }

func (u *Unifier) bindVar(id ids.TyVarId, t Type) *TypeError {
	if occ, ok := t.(InferT); ok && occ.ID == id {
		return nil // unify(?a, ?a) is a no-op bind
	}
	if u.occursIn(id, t) {
		return &TypeError{Kind: InfiniteType, Message: fmt.Sprintf("%s occurs in %s", InferT{id}, t)}
	}
	u.subst.vars[id] = t
	return nil
}

// OccursIn reports whether var occurs free in t, looking through the
// current substitution; Forall-bound params are never free, so they
// never trigger a false occurs-check failure.
func (u *Unifier) OccursIn(id ids.TyVarId, t Type) bool { return u.occursIn(id, t) }

func (u *Unifier) occursIn(id ids.TyVarId, t Type) bool {
	t = u.Resolve(t)
	switch v := t.(type) {
	case InferT:
		return v.ID == id
	case TupleT:
		for _, e := range v.Elems {
			if u.occursIn(id, e) {
				return true
			}
		}
	case ArrayT:
		return u.occursIn(id, v.Elem)
	case SliceT:
		return u.occursIn(id, v.Elem)
	case RefT:
		return u.occursIn(id, v.Inner)
	case PtrT:
		return u.occursIn(id, v.Inner)
	case FnT:
		for _, p := range v.Params {
			if u.occursIn(id, p) {
				return true
			}
		}
		return u.occursIn(id, v.Ret)
	case ClosureT:
		for _, p := range v.Params {
			if u.occursIn(id, p) {
				return true
			}
		}
		return u.occursIn(id, v.Ret)
	case AdtT:
		for _, a := range v.Args {
			if u.occursIn(id, a) {
				return true
			}
		}
	case RangeT:
		return u.occursIn(id, v.Elem)
	case RecordT:
		for _, f := range v.Fields {
			if u.occursIn(id, f.Type) {
				return true
			}
		}
	case ForallT:
		// Bound params shadow id only if id itself is one of them; since
		// ids are globally fresh this never happens, but walk the body
		// regardless (bound params are never "free" by construction).
		return u.occursIn(id, v.Body)
	}
	return false
}

// Resolve follows variable chains and rebuilds t with resolved children.
// Record row resolution follows the row-var chain and inlines
// substituted tails.
func (u *Unifier) Resolve(t Type) Type {
	switch v := t.(type) {
	case InferT:
		if bound, ok := u.subst.vars[v.ID]; ok {
			return u.Resolve(bound)
		}
		return v
	case TupleT:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = u.Resolve(e)
		}
		return TupleT{Elems: elems}
	case ArrayT:
		return ArrayT{Elem: u.Resolve(v.Elem), Size: v.Size}
	case SliceT:
		return SliceT{Elem: u.Resolve(v.Elem)}
	case RefT:
		return RefT{Inner: u.Resolve(v.Inner), Mutable: v.Mutable}
	case PtrT:
		return PtrT{Inner: u.Resolve(v.Inner), Mutable: v.Mutable}
	case FnT:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = u.Resolve(p)
		}
		return FnT{Params: params, Ret: u.Resolve(v.Ret), Effect: u.ResolveRow(v.Effect)}
	case ClosureT:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = u.Resolve(p)
		}
		return ClosureT{DefID: v.DefID, Params: params, Ret: u.Resolve(v.Ret), Effect: u.ResolveRow(v.Effect)}
	case AdtT:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = u.Resolve(a)
		}
		return AdtT{DefID: v.DefID, Name: v.Name, Args: args}
	case RangeT:
		return RangeT{Elem: u.Resolve(v.Elem), Inclusive: v.Inclusive}
	case RecordT:
		return u.resolveRecord(v)
	case ForallT:
		return ForallT{Params: v.Params, Body: u.Resolve(v.Body)}
	default:
		return t
	}
}

func (u *Unifier) resolveRecord(r RecordT) Type {
	fields := make([]RecordField, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = RecordField{Name: f.Name, Type: u.Resolve(f.Type)}
	}
	if r.RowVar == nil {
		return RecordT{Fields: fields}
	}
	if tail, ok := u.subst.rowTail(*r.RowVar); ok {
		merged := u.Resolve(tail).(RecordT)
		allFields := append(append([]RecordField{}, fields...), merged.Fields...)
		return RecordT{Fields: allFields, RowVar: merged.RowVar}
	}
	return RecordT{Fields: fields, RowVar: r.RowVar}
}

// ResolveRow resolves a row variable chain the same way Resolve resolves
// Infer chains.
func (u *Unifier) ResolveRow(r EffectRow) EffectRow {
	if r.Kind == RowVar {
		if bound, ok := u.subst.rowVarBinding(r.Var); ok {
			return u.ResolveRow(bound)
		}
		return r
	}
	effects := make([]Type, len(r.Effects))
	for i, e := range r.Effects {
		effects[i] = u.Resolve(e)
	}
	rest := r.Rest
	kind := r.Kind
	if rest != nil {
		if bound, ok := u.subst.rowVarBinding(*rest); ok {
			bound = u.ResolveRow(bound)
			effects = append(effects, bound.Effects...)
			rest = bound.Rest
			if bound.Kind == RowPure {
				rest = nil
			}
		}
	}
	if len(effects) == 0 && rest == nil {
		kind = RowPure
	}
	return EffectRow{Kind: kind, Effects: effects, Rest: rest}
}

// rowTail/rowVarBinding let a bound row variable stand either for
// "the rest of a record" (a RecordT, in recordRows) or "the rest of an
// effect row" (an EffectRow, in rows); the two maps are separate, both
// keyed by RowVarId.
func (s *Substitution) rowTail(id ids.RowVarId) (Type, bool) {
	if r, ok := s.recordRows[id]; ok {
		return r, true
	}
	return nil, false
}

func (s *Substitution) rowVarBinding(id ids.RowVarId) (EffectRow, bool) {
	r, ok := s.rows[id]
	return r, ok
}
