package dispatch

import "github.com/sunholo/bloodc/internal/types"

// isSubtype implements the structural-subtyping rules from the
// dispatch spec: reflexivity, the Never/Error recovery lattice,
// Ref/Ptr variance, Tuple/Array/Slice covariance, Fn
// contravariance-in-params/covariance-in-return, and DynTrait
// containment. Primitive widening is deliberately not implicit.
func (r *Resolver) isSubtype(a, b types.Type) bool {
	if _, ok := a.(types.NeverT); ok {
		return true
	}
	if _, ok := b.(types.ErrorT); ok {
		return true
	}
	if _, ok := a.(types.ErrorT); ok {
		return true
	}
	if r.typesEqual(a, b) {
		return true
	}

	switch av := a.(type) {
	case types.RefT:
		bv, ok := b.(types.RefT)
		if !ok {
			return false
		}
		if av.Mutable && bv.Mutable {
			return r.typesEqual(av.Inner, bv.Inner) // &mut T <: &mut U only when T ≡ U
		}
		if av.Mutable && !bv.Mutable {
			return r.isSubtype(av.Inner, bv.Inner) // &mut T <: &U when T <: U
		}
		if !av.Mutable && !bv.Mutable {
			return r.isSubtype(av.Inner, bv.Inner) // &T <: &U when T <: U
		}
		return false // &T is never <: &mut U
	case types.PtrT:
		bv, ok := b.(types.PtrT)
		if !ok || (!av.Mutable && bv.Mutable) {
			return false // *const T is never <: *mut U
		}
		if av.Mutable && bv.Mutable {
			return r.typesEqual(av.Inner, bv.Inner)
		}
		return r.isSubtype(av.Inner, bv.Inner)
	case types.TupleT:
		bv, ok := b.(types.TupleT)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !r.isSubtype(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case types.ArrayT:
		bv, ok := b.(types.ArrayT)
		if !ok || av.Size != bv.Size {
			return false
		}
		return r.isSubtype(av.Elem, bv.Elem)
	case types.SliceT:
		bv, ok := b.(types.SliceT)
		if !ok {
			return false
		}
		return r.isSubtype(av.Elem, bv.Elem)
	case types.FnT:
		bv, ok := b.(types.FnT)
		if !ok || len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !r.isSubtype(bv.Params[i], av.Params[i]) { // contravariant
				return false
			}
		}
		return r.isSubtype(av.Ret, bv.Ret) // covariant
	case types.DynTraitT:
		bv, ok := b.(types.DynTraitT)
		if !ok {
			return false
		}
		if av.TraitID != bv.TraitID {
			return false
		}
		have := map[uint32]bool{}
		for _, id := range av.AutoTraits {
			have[uint32(id)] = true
		}
		for _, id := range bv.AutoTraits {
			if !have[uint32(id)] {
				return false
			}
		}
		return true
	default:
		if dyn, ok := b.(types.DynTraitT); ok {
			if r.checker == nil {
				return false
			}
			if !r.checker(a, dyn.TraitID) {
				return false
			}
			for _, auto := range dyn.AutoTraits {
				if !r.checker(a, auto) {
					return false
				}
			}
			return true
		}
		return false
	}
}

// typesEqual is structural equality up to resolving inference variables
// (used for ADT identity, primitive identity, and the reflexive base
// case of subtyping).
func (r *Resolver) typesEqual(a, b types.Type) bool {
	a = r.unifier.Resolve(a)
	b = r.unifier.Resolve(b)
	switch av := a.(type) {
	case types.Primitive:
		bv, ok := b.(types.Primitive)
		return ok && av.Kind == bv.Kind
	case types.AdtT:
		bv, ok := b.(types.AdtT)
		if !ok || av.DefID != bv.DefID || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !r.typesEqual(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case types.TupleT:
		bv, ok := b.(types.TupleT)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !r.typesEqual(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case types.RefT:
		bv, ok := b.(types.RefT)
		return ok && av.Mutable == bv.Mutable && r.typesEqual(av.Inner, bv.Inner)
	case types.PtrT:
		bv, ok := b.(types.PtrT)
		return ok && av.Mutable == bv.Mutable && r.typesEqual(av.Inner, bv.Inner)
	case types.ArrayT:
		bv, ok := b.(types.ArrayT)
		return ok && av.Size == bv.Size && r.typesEqual(av.Elem, bv.Elem)
	case types.SliceT:
		bv, ok := b.(types.SliceT)
		return ok && r.typesEqual(av.Elem, bv.Elem)
	case types.ParamT:
		bv, ok := b.(types.ParamT)
		return ok && av.ID == bv.ID
	case types.InferT:
		bv, ok := b.(types.InferT)
		return ok && av.ID == bv.ID
	case types.NeverT:
		_, ok := b.(types.NeverT)
		return ok
	default:
		return false
	}
}
