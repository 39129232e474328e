package dispatch

import (
	"testing"

	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

func fn(params []types.Type, ret types.Type, eff types.EffectRow) MethodCandidate {
	return MethodCandidate{ParamTypes: params, ReturnType: ret, Effect: eff}
}

func TestResolveSingleApplicable(t *testing.T) {
	r := NewResolver(types.NewUnifier())
	c := fn([]types.Type{types.TI32}, types.TBool, types.Pure())
	c.Name = "f"
	res := r.Resolve("f", []types.Type{types.TI32}, []MethodCandidate{c}, nil)
	if res.Kind != Resolved {
		t.Fatalf("expected Resolved, got %v", res.Kind)
	}
}

func TestResolveNoMatchListsAll(t *testing.T) {
	r := NewResolver(types.NewUnifier())
	c1 := fn([]types.Type{types.TBool}, types.TBool, types.Pure())
	c1.Name = "f"
	c2 := fn([]types.Type{types.TStr}, types.TBool, types.Pure())
	c2.Name = "f"
	res := r.Resolve("f", []types.Type{types.TI32}, []MethodCandidate{c1, c2}, nil)
	if res.Kind != NoMatch {
		t.Fatalf("expected NoMatch, got %v", res.Kind)
	}
	if len(res.NoMatch.Candidates) != 2 {
		t.Fatalf("expected all 2 candidates listed, got %d", len(res.NoMatch.Candidates))
	}
}

func TestResolveAmbiguousIdenticalSignature(t *testing.T) {
	r := NewResolver(types.NewUnifier())
	c1 := fn([]types.Type{types.TI32}, types.TBool, types.Pure())
	c1.Name = "f"
	c1.TraitID = ids.DefId(1)
	c2 := fn([]types.Type{types.TI32}, types.TBool, types.Pure())
	c2.Name = "f"
	c2.TraitID = ids.DefId(2)
	res := r.Resolve("f", []types.Type{types.TI32}, []MethodCandidate{c1, c2}, nil)
	if res.Kind != Ambiguous {
		t.Fatalf("expected Ambiguous, got %v", res.Kind)
	}
	if !res.Ambiguous.IsDiamondConflict() {
		t.Fatalf("expected diamond conflict for distinct trait ids")
	}
}

func TestResolveAmbiguousSameTraitIsNotDiamond(t *testing.T) {
	r := NewResolver(types.NewUnifier())
	c1 := fn([]types.Type{types.TI32}, types.TBool, types.Pure())
	c1.Name = "f"
	c1.TraitID = ids.DefId(1)
	c2 := fn([]types.Type{types.TI32}, types.TBool, types.Pure())
	c2.Name = "f"
	c2.TraitID = ids.DefId(1)
	res := r.Resolve("f", []types.Type{types.TI32}, []MethodCandidate{c1, c2}, nil)
	if res.Kind != Ambiguous {
		t.Fatalf("expected Ambiguous, got %v", res.Kind)
	}
	if res.Ambiguous.IsDiamondConflict() {
		t.Fatalf("same trait id must not report a diamond conflict")
	}
}

func TestEffectSpecificityTiebreak(t *testing.T) {
	r := NewResolver(types.NewUnifier())
	pureCand := fn([]types.Type{types.TI32}, types.TBool, types.Pure())
	pureCand.Name = "f"
	ioCand := fn([]types.Type{types.TI32}, types.TBool, types.EffectRow{
		Kind: types.RowSet, Effects: []types.Type{types.AdtT{DefID: ids.DefId(9), Name: "IO"}},
	})
	ioCand.Name = "f"
	res := r.Resolve("f", []types.Type{types.TI32}, []MethodCandidate{pureCand, ioCand}, nil)
	if res.Kind != Resolved {
		t.Fatalf("expected Resolved (Pure wins tiebreak), got %v", res.Kind)
	}
	if !res.Candidate.Effect.IsPure() {
		t.Fatalf("expected the Pure candidate to win, got effect %s", res.Candidate.Effect)
	}
}

func TestDiamondSuggestionNamesBothTraits(t *testing.T) {
	info := AmbiguityInfo{
		Method: "render",
		Candidates: []MethodCandidate{
			{Name: "render", TraitID: ids.DefId(1)},
			{Name: "render", TraitID: ids.DefId(2)},
		},
	}
	msg := info.DiamondSuggestion(map[ids.DefId]string{ids.DefId(1): "A", ids.DefId(2): "B"})
	if msg != "ambiguous method render: implemented by both A and B" {
		t.Fatalf("unexpected suggestion: %q", msg)
	}
}

func TestGenericInstantiationConflict(t *testing.T) {
	r := NewResolver(types.NewUnifier())
	tParam := ids.TyVarId(1)
	bindings := map[ids.TyVarId]types.Type{}
	if ok := r.tryMatchParam(types.ParamT{ID: tParam}, types.TI32, bindings); !ok {
		t.Fatalf("first binding should succeed")
	}
	outcome := r.TryMatchParam(types.ParamT{ID: tParam}, types.TI64, bindings)
	if !outcome.Conflict {
		t.Fatalf("expected a conflict binding T=i32 then T=i64")
	}
}
