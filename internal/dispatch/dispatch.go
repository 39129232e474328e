// Package dispatch implements the multiple-dispatch resolver
// (component B): applicability, maximality/specificity ordering
// (including the effect-row tiebreaker), generic instantiation, and
// diamond-conflict detection.
package dispatch

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// MethodCandidate is one callable considered for a dispatch site: either
// a free function or a trait/inherent-impl method. TraitID is
// ids.NoDefId for free functions and inherent-impl methods.
type MethodCandidate struct {
	DefID      ids.DefId
	Name       string
	TraitID    ids.DefId
	TypeParams []ids.TyVarId
	ParamTypes []types.Type
	ReturnType types.Type
	Effect     types.EffectRow
}

func (m MethodCandidate) isGeneric() bool { return len(m.TypeParams) > 0 }

// TraitChecker reports whether t implements the trait/auto-trait named
// by id. Supplied externally (by the checker, once trait-impl tables
// are populated); dispatch conservatively fails `T <: dyn Trait` checks
// without one.
type TraitChecker func(t types.Type, traitID ids.DefId) bool

// Resolver resolves call sites against a candidate set.
type Resolver struct {
	unifier *types.Unifier
	checker TraitChecker
}

func NewResolver(u *types.Unifier) *Resolver { return &Resolver{unifier: u} }

// WithTraitChecker attaches a trait-membership oracle used for `T <: dyn
// Trait` subtyping; without one, that check conservatively fails.
func (r *Resolver) WithTraitChecker(c TraitChecker) *Resolver {
	r.checker = c
	return r
}

// ResultKind tags which arm of DispatchResult is populated.
type ResultKind int

const (
	Resolved ResultKind = iota
	NoMatch
	Ambiguous
)

// NoMatchInfo lists every original candidate when none were applicable.
type NoMatchInfo struct {
	Method     string
	ArgTypes   []types.Type
	Candidates []MethodCandidate
}

// AmbiguityInfo lists the maximal, mutually-incomparable candidates.
type AmbiguityInfo struct {
	Method     string
	ArgTypes   []types.Type
	Candidates []MethodCandidate
}

// IsDiamondConflict reports whether at least two candidates come from
// distinct, non-nil traits sharing the method name.
func (a AmbiguityInfo) IsDiamondConflict() bool {
	seen := map[ids.DefId]bool{}
	for _, c := range a.Candidates {
		if !c.TraitID.IsValid() {
			continue
		}
		if seen[c.TraitID] {
			continue
		}
		seen[c.TraitID] = true
	}
	return len(seen) >= 2
}

// ConflictingTraitIDs returns the distinct trait ids involved in a
// diamond conflict.
func (a AmbiguityInfo) ConflictingTraitIDs() []ids.DefId {
	seen := map[ids.DefId]bool{}
	var out []ids.DefId
	for _, c := range a.Candidates {
		if c.TraitID.IsValid() && !seen[c.TraitID] {
			seen[c.TraitID] = true
			out = append(out, c.TraitID)
		}
	}
	return out
}

// DiamondSuggestion formats the diamond-conflict hint: "ambiguous method
// <name>: implemented by both <A> and <B>" for two traits, or
// "implemented by <A>, <B>, and <C>" for more. traitNames maps trait DefId to a
// display name; an id absent from the map renders as its DefId string.
func (a AmbiguityInfo) DiamondSuggestion(traitNames map[ids.DefId]string) string {
	ids2 := a.ConflictingTraitIDs()
	names := make([]string, len(ids2))
	for i, id := range ids2 {
		if n, ok := traitNames[id]; ok {
			names[i] = n
		} else {
			names[i] = id.String()
		}
	}
	switch len(names) {
	case 0, 1:
		return fmt.Sprintf("ambiguous method %s", a.Method)
	case 2:
		return fmt.Sprintf("ambiguous method %s: implemented by both %s and %s", a.Method, names[0], names[1])
	default:
		last := names[len(names)-1]
		return fmt.Sprintf("ambiguous method %s: implemented by %s, and %s", a.Method, joinComma(names[:len(names)-1]), last)
	}
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// Result is the outcome of Resolve.
type Result struct {
	Kind      ResultKind
	Candidate MethodCandidate
	NoMatch   NoMatchInfo
	Ambiguous AmbiguityInfo
}

// Resolve implements the four-step algorithm: collect (done by the
// caller, which passes `candidates`), applicability, maximality, and
// resolution.
func (r *Resolver) Resolve(name string, argTypes []types.Type, candidates []MethodCandidate, ctxEffect *types.EffectRow) Result {
	var applicable []MethodCandidate
	for _, c := range candidates {
		if c.Name != name || len(c.ParamTypes) != len(argTypes) {
			continue
		}
		inst := c
		if c.isGeneric() {
			instd, ok := r.instantiateGeneric(c, argTypes)
			if !ok {
				continue
			}
			inst = instd
		}
		if !r.isApplicable(inst, argTypes) {
			continue
		}
		if ctxEffect != nil && !r.effectsCompatible(inst.Effect, *ctxEffect) {
			continue
		}
		applicable = append(applicable, inst)
	}

	if len(applicable) == 0 {
		return Result{Kind: NoMatch, NoMatch: NoMatchInfo{Method: name, ArgTypes: argTypes, Candidates: candidates}}
	}

	maximal := r.findMaximal(applicable)
	switch len(maximal) {
	case 1:
		return Result{Kind: Resolved, Candidate: maximal[0]}
	default:
		return Result{Kind: Ambiguous, Ambiguous: AmbiguityInfo{Method: name, ArgTypes: argTypes, Candidates: maximal}}
	}
}

// isApplicable reports whether every argument is a subtype of its
// corresponding (already-instantiated, non-generic) parameter.
func (r *Resolver) isApplicable(m MethodCandidate, argTypes []types.Type) bool {
	for i, a := range argTypes {
		if !r.isSubtype(a, m.ParamTypes[i]) {
			return false
		}
	}
	return true
}

// effectsCompatible reports whether a method's effect row is admissible
// given a context row: method-effects ⊆ context-effects, and an open
// method row may only be admitted by an open context row.
func (r *Resolver) effectsCompatible(method, ctx types.EffectRow) bool {
	if method.IsOpen() && !ctx.IsOpen() {
		return false
	}
	return types.Subsumes(ctx, method)
}

// findMaximal returns every candidate with no strictly-more-specific
// competitor in the applicable set.
func (r *Resolver) findMaximal(applicable []MethodCandidate) []MethodCandidate {
	var maximal []MethodCandidate
	for i, m := range applicable {
		dominated := false
		for j, other := range applicable {
			if i == j {
				continue
			}
			if r.isMoreSpecific(other, m) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, m)
		}
	}
	return maximal
}

// isMoreSpecific implements the total preorder: m1 <= m2 iff every
// param of m1 is a subtype of the corresponding param of m2 and at
// least one strictly so; ties are broken by effect-row specificity.
func (r *Resolver) isMoreSpecific(m1, m2 MethodCandidate) bool {
	if len(m1.ParamTypes) != len(m2.ParamTypes) {
		return false
	}
	strictlyOne := false
	for i := range m1.ParamTypes {
		a, b := m1.ParamTypes[i], m2.ParamTypes[i]
		if !r.isSubtype(a, b) {
			return false
		}
		if !r.isSubtype(b, a) {
			strictlyOne = true
		}
	}
	if strictlyOne {
		return true
	}
	return m1.Effect.MoreSpecificThan(m2.Effect)
}
