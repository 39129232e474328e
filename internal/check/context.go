// Package check implements the type context (component C): name
// resolution, two-pass collection + body checking, pattern lowering,
// bidirectional expression checking, and HIR synthesis.
package check

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/dispatch"
	"github.com/sunholo/bloodc/internal/effects"
	"github.com/sunholo/bloodc/internal/errors"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// binding is what a name in scope resolves to: either a body-local or a
// crate-level definition.
type binding struct {
	isLocal bool
	local   ids.LocalId
	def     ids.DefId
}

// Scope is one lexical scope frame, chained to its parent.
type Scope struct {
	parent *Scope
	names  map[string]binding
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, names: make(map[string]binding)}
}

func (s *Scope) define(name string, b binding) { s.names[name] = b }

func (s *Scope) lookup(name string) (binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.names[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// structDef is the collected shape of a record-form type declaration.
type structDef struct {
	defID      ids.DefId
	typeParams []ids.TyVarId
	fields     []hir.FieldDef
}

// enumDef is the collected shape of an algebraic-form type declaration.
type enumDef struct {
	defID      ids.DefId
	typeParams []ids.TyVarId
	variants   []hir.VariantDef
	variantIdx map[string]uint32
}

// traitDef records a trait's method signatures for impl-linking.
type traitDef struct {
	defID      ids.DefId
	typeParam  string
	methods    map[string]types.FnT
}

// implBlock is one `impl [Trait for] Type { ... }` block, recorded so
// its methods become dispatch candidates keyed by method name.
type implBlock struct {
	traitID ids.DefId // NoDefId for an inherent impl
	forType types.Type
	methods map[string]ids.DefId
}

// pendingBody is a collected function/const/static awaiting body
// checking in discovery/enqueue order.
type pendingBody struct {
	defID      ids.DefId
	decl       *ast.FuncDecl
	typeParams map[string]ids.TyVarId
	sig        types.FnT
}

type pendingHandlerOp struct {
	handlerDef  ids.DefId
	opName      string
	params      []*ast.Param
	body        ast.Expr
	resumeType  types.Type
	effectID    ids.DefId
}

// TypeContext is the single long-lived object for one crate compile: it
// owns every table collection populates and every piece of state body
// checking mutates, per spec.md §4.C.
type TypeContext struct {
	interner *ids.Interner
	unifier  *types.Unifier
	dispatch *dispatch.Resolver
	errs     *errors.Collector

	nextDefID uint32
	defInfo   map[ids.DefId]*hir.DefInfo
	byName    map[string]ids.DefId

	fnSigs       map[ids.DefId]types.FnT
	fnTypeParams map[ids.DefId][]ids.TyVarId
	structDefs  map[ids.DefId]*structDef
	enumDefs    map[ids.DefId]*enumDef
	typeAliases map[ids.DefId]types.Type
	effectDefs  map[ids.DefId]*effects.Info
	handlerDefs map[ids.DefId]*effects.HandlerInfo
	traitDefs   map[ids.DefId]*traitDef
	implBlocks  []*implBlock

	// methodCandidates indexes every callable (free function, inherent
	// method, trait method) by name for dispatch collection at call
	// sites (§4.C "method calls collect all in-scope methods").
	methodCandidates map[string][]dispatch.MethodCandidate

	nextBodyID  uint32
	bodies      map[ids.BodyId]*hir.Body
	pendingFns  []pendingBody
	pendingOps  []pendingHandlerOp

	// Per-body-under-construction state, saved and restored around
	// nested bodies by saveBodyState/restoreBodyState.
	scope        *Scope
	locals       []hir.Local
	nextLocalID  uint32

	// handledEffects is the dynamic stack `with h handle { ... }` pushes
	// onto; perform is legal when its effect appears here or in the
	// enclosing function's declared row.
	handledEffects []ids.DefId
	declaredEffect types.EffectRow

	currentReturnType types.Type
	currentFuncDef    ids.DefId
	currentResumeType types.Type // nil outside a handler-op body

	entry ids.DefId

	nextNodeID uint32

	// fnBodies maps every checked fn/const/static/impl-method to its
	// Body, filled in by CheckBodies.
	fnBodies map[ids.DefId]bodyRecord
}

func NewTypeContext() *TypeContext {
	u := types.NewUnifier()
	tc := &TypeContext{
		interner:         ids.NewInterner(),
		unifier:          u,
		errs:             &errors.Collector{},
		defInfo:          make(map[ids.DefId]*hir.DefInfo),
		byName:           make(map[string]ids.DefId),
		fnSigs:           make(map[ids.DefId]types.FnT),
		fnTypeParams:     make(map[ids.DefId][]ids.TyVarId),
		structDefs:       make(map[ids.DefId]*structDef),
		enumDefs:         make(map[ids.DefId]*enumDef),
		typeAliases:      make(map[ids.DefId]types.Type),
		effectDefs:       make(map[ids.DefId]*effects.Info),
		handlerDefs:      make(map[ids.DefId]*effects.HandlerInfo),
		traitDefs:        make(map[ids.DefId]*traitDef),
		methodCandidates: make(map[string][]dispatch.MethodCandidate),
		bodies:           make(map[ids.BodyId]*hir.Body),
		entry:            ids.NoDefId,
	}
	tc.dispatch = dispatch.NewResolver(u).WithTraitChecker(tc.implementsTrait)
	return tc
}

func (tc *TypeContext) Errors() *errors.Collector { return tc.errs }

func (tc *TypeContext) freshDefID(name string, kind hir.DefKind, parent ids.DefId, span ast.Span) ids.DefId {
	id := ids.DefId(tc.nextDefID)
	tc.nextDefID++
	tc.defInfo[id] = &hir.DefInfo{Name: name, Kind: kind, Parent: parent, Span: span}
	if name != "" {
		tc.byName[name] = id
	}
	if name == "main" || (len(name) > 5 && name[len(name)-5:] == "_main") {
		tc.entry = id
	}
	return id
}

func (tc *TypeContext) freshLocal(name string, ty types.Type, mutable bool, span ast.Span) ids.LocalId {
	id := ids.LocalId(tc.nextLocalID)
	tc.nextLocalID++
	tc.locals = append(tc.locals, hir.Local{ID: id, Type: ty, Mutable: mutable, Name: name, Span: span})
	return id
}

func (tc *TypeContext) freshBodyID() ids.BodyId {
	id := ids.BodyId(tc.nextBodyID)
	tc.nextBodyID++
	return id
}

func (tc *TypeContext) startBody(params []hir.Local) {
	tc.scope = newScope(nil)
	tc.locals = append([]hir.Local{}, params...)
	tc.nextLocalID = uint32(len(params))
	for _, p := range params {
		tc.scope.define(p.Name, binding{isLocal: true, local: p.ID})
	}
}

func (tc *TypeContext) pushScope() { tc.scope = newScope(tc.scope) }
func (tc *TypeContext) popScope()  { tc.scope = tc.scope.parent }

// mkBase stamps a fresh NodeID onto a new expression header.
func (tc *TypeContext) mkBase(span ast.Span, ty types.Type, eff types.EffectRow) hir.ExprBase {
	tc.nextNodeID++
	return hir.ExprBase{NodeID: uint64(tc.nextNodeID), SpanV: span, Ty: ty, Eff: eff}
}

// implementsTrait is the dispatch.TraitChecker: t implements traitID
// iff some impl block for t (or its underlying ADT) names that trait.
func (tc *TypeContext) implementsTrait(t types.Type, traitID ids.DefId) bool {
	t = tc.unifier.Resolve(t)
	for _, impl := range tc.implBlocks {
		if impl.traitID == traitID && tc.sameHead(impl.forType, t) {
			return true
		}
	}
	return false
}

func (tc *TypeContext) sameHead(a, b types.Type) bool {
	av, aok := a.(types.AdtT)
	bv, bok := b.(types.AdtT)
	if aok && bok {
		return av.DefID == bv.DefID
	}
	return false
}
