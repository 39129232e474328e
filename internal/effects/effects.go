// Package effects models the algebraic-effects definition surface:
// effect definitions, handler definitions, and use-site effect
// references. The row algebra itself (EffectRow, Union, Subsumes,
// Difference) lives in internal/types because the unifier needs it
// directly; this package is the definition-level layer the checker
// populates during collection.
package effects

import (
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// OpSig is one operation's signature within an effect definition.
type OpSig struct {
	Name   string
	Params []types.Type
	Return types.Type
	DefID  ids.DefId
}

// Info is an effect definition: a name plus its operation signatures.
type Info struct {
	DefID      ids.DefId
	Name       string
	TypeParams []ids.TyVarId
	Ops        []OpSig
}

func (e *Info) OpByName(name string) (OpSig, bool) {
	for _, op := range e.Ops {
		if op.Name == name {
			return op, true
		}
	}
	return OpSig{}, false
}

// HandlerKind distinguishes Deep (reinstates itself on resume, modeling
// multi-shot semantics) from Shallow (resumes exactly once, does not
// reinstate).
type HandlerKind int

const (
	Deep HandlerKind = iota
	Shallow
)

func (k HandlerKind) String() string {
	if k == Deep {
		return "deep"
	}
	return "shallow"
}

// StateField is one field of a handler's carried state.
type StateField struct {
	Name string
	Type types.Type
}

// OpBody is a handler's implementation of one effect operation,
// referencing the hir.Body that holds its checked expression.
type OpBody struct {
	OpName string
	Body   ids.BodyId
}

// HandlerInfo is a handler definition: which effect (with concrete type
// arguments) it handles, its kind, its state fields, its per-op bodies,
// and an optional return-clause body.
type HandlerInfo struct {
	DefID      ids.DefId
	Name       string
	EffectID   ids.DefId
	EffectArgs []types.Type
	Kind       HandlerKind
	State      []StateField
	Ops        []OpBody
	ReturnBody *ids.BodyId
}

func (h *HandlerInfo) OpBodyFor(opName string) (ids.BodyId, bool) {
	for _, op := range h.Ops {
		if op.OpName == opName {
			return op.Body, true
		}
	}
	return 0, false
}

// Ref is an effect reference at a use site: which effect, instantiated
// with which concrete type arguments.
type Ref struct {
	DefID    ids.DefId
	TypeArgs []types.Type
}

// AsRowEffect converts a Ref into the Type the row algebra stores inside
// an types.EffectRow.Effects slice (an AdtT keyed by the effect's DefId).
func (r Ref) AsRowEffect(name string) types.Type {
	return types.AdtT{DefID: r.DefID, Name: name, Args: r.TypeArgs}
}
