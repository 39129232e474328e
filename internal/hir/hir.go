// Package hir defines the typed high-level IR produced by the checker
// (component C's output) and consumed by MIR lowering (component D):
// Body/Local, typed expression and pattern node families, and the
// per-DefId item table that makes up a checked Crate.
package hir

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/effects"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// DefKind tags what a DefId names.
type DefKind int

const (
	KindFn DefKind = iota
	KindStruct
	KindEnum
	KindVariant
	KindTrait
	KindEffect
	KindHandler
	KindImplMethod
	KindConst
	KindStatic
	KindModule
	KindTypeParam
	KindLocal
)

// Visibility is either module-private or exported (`pub`).
type Visibility int

const (
	Private Visibility = iota
	Public
)

// DefInfo records everything the resolver needs to know about one
// crate-unique definition. Variants always have Parent set to their
// owning enum's DefId.
type DefInfo struct {
	Name       string
	Kind       DefKind
	Parent     ids.DefId
	Span       ast.Span
	Visibility Visibility
	Type       types.Type // nil until the type is known (e.g. forward refs)
}

// Local is one (id, ty, mutable, name, span) binding inside a Body.
type Local struct {
	ID      ids.LocalId
	Type    types.Type
	Mutable bool
	Name    string
	Span    ast.Span
}

// Body is a function/const/static/handler-op body: its locals, how many
// of them are parameters, and the checked root expression.
type Body struct {
	ID         ids.BodyId
	Locals     []Local
	ParamCount int
	Root       Expr
	Span       ast.Span
}

// ExprBase is embedded by every concrete Expr node, carrying the
// span/type/effect-row header the typed AST attaches uniformly.
type ExprBase struct {
	NodeID uint64
	SpanV  ast.Span
	Ty     types.Type
	Eff    types.EffectRow
}

func (b ExprBase) Span() ast.Span          { return b.SpanV }
func (b ExprBase) Type() types.Type        { return b.Ty }
func (b ExprBase) EffectRow() types.EffectRow { return b.Eff }

// Expr is any typed HIR expression node.
type Expr interface {
	Span() ast.Span
	Type() types.Type
	EffectRow() types.EffectRow
	isExpr()
}

type Var struct {
	ExprBase
	Local ids.LocalId
	Def   ids.DefId // NoDefId when this refers to a Local, not an item
}

func (Var) isExpr() {}

type Lit struct {
	ExprBase
	Kind  ast.LiteralKind
	Value interface{}
}

func (Lit) isExpr() {}

type Lambda struct {
	ExprBase
	Params []ids.LocalId
	Body   ids.BodyId
}

func (Lambda) isExpr() {}

type Let struct {
	ExprBase
	Local   ids.LocalId
	Value   Expr
	Body    Expr
	Recursive bool
}

func (Let) isExpr() {}

type If struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (If) isExpr() {}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
}

type Match struct {
	ExprBase
	Scrutinee Expr
	Arms      []MatchArm
}

func (Match) isExpr() {}

type Block struct {
	ExprBase
	Exprs []Expr
}

func (Block) isExpr() {}

type TupleExpr struct {
	ExprBase
	Elems []Expr
}

func (TupleExpr) isExpr() {}

type ArrayExpr struct {
	ExprBase
	Elems []Expr
}

func (ArrayExpr) isExpr() {}

type RecordField struct {
	Name  ids.Symbol
	Value Expr
}

type RecordExpr struct {
	ExprBase
	Fields []RecordField
}

func (RecordExpr) isExpr() {}

type RecordAccess struct {
	ExprBase
	Record Expr
	Field  ids.Symbol
}

func (RecordAccess) isExpr() {}

type RecordUpdate struct {
	ExprBase
	Base   Expr
	Fields []RecordField
}

func (RecordUpdate) isExpr() {}

// Call is a direct function application (post-dispatch: Callee already
// names a resolved DefId or a first-class function value).
type Call struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

func (Call) isExpr() {}

// MethodCall is a call that was resolved through internal/dispatch;
// Method records the candidate DefId dispatch chose.
type MethodCall struct {
	ExprBase
	Receiver Expr
	Method   ids.DefId
	Args     []Expr
}

func (MethodCall) isExpr() {}

type BinOp struct {
	ExprBase
	Op          string
	Left, Right Expr
}

func (BinOp) isExpr() {}

type UnaryOp struct {
	ExprBase
	Op   string
	Expr Expr
}

func (UnaryOp) isExpr() {}

type Cast struct {
	ExprBase
	Expr   Expr
	Target types.Type
}

func (Cast) isExpr() {}

// Perform is `perform Eff.op(args)`; EffectDef names the effect, Op the
// operation's name, which MIR lowering resolves to its index.
type Perform struct {
	ExprBase
	EffectDef ids.DefId
	Op        string
	Args      []Expr
}

func (Perform) isExpr() {}

// Resume is valid only inside a handler-op body; Value must unify with
// the enclosing operation's current_resume_type.
type Resume struct {
	ExprBase
	Value Expr
}

func (Resume) isExpr() {}

// WithHandle pushes Handler's effect onto handled_effects for the
// dynamic extent of Body, then pops it.
type WithHandle struct {
	ExprBase
	Handler ids.DefId
	Body    Expr
}

func (WithHandle) isExpr() {}

type ErrorExpr struct {
	ExprBase
	Msg string
}

func (ErrorExpr) isExpr() {}

// ---- Patterns ----

type Pattern interface {
	Span() ast.Span
	isPattern()
}

type PatternBase struct{ SpanV ast.Span }

func (p PatternBase) Span() ast.Span { return p.SpanV }

type WildcardPattern struct{ PatternBase }

func (WildcardPattern) isPattern() {}

type IdentPattern struct {
	PatternBase
	Local   ids.LocalId
	Mutable bool
}

func (IdentPattern) isPattern() {}

type LitPattern struct {
	PatternBase
	Value interface{}
}

func (LitPattern) isPattern() {}

type TuplePattern struct {
	PatternBase
	Elems []Pattern
	Rest  int // -1 if no rest position, else index where `..` occurs
}

func (TuplePattern) isPattern() {}

type FieldPattern struct {
	Name    ids.Symbol
	Pattern Pattern
}

// StructPattern matches an ADT's named fields; Rest=true means "ignore
// unbound fields" (a trailing `..`).
type StructPattern struct {
	PatternBase
	DefID  ids.DefId
	Fields []FieldPattern
	Rest   bool
}

func (StructPattern) isPattern() {}

// VariantPattern matches an enum variant by index, either as a unit
// variant (Elems == nil) or applied to sub-patterns (tuple variant).
type VariantPattern struct {
	PatternBase
	EnumDef     ids.DefId
	VariantIdx  uint32
	Elems       []Pattern
}

func (VariantPattern) isPattern() {}

type SlicePattern struct {
	PatternBase
	Elems []Pattern
	Rest  int // -1 if no rest
}

func (SlicePattern) isPattern() {}

// OrPattern requires every alternative to bind identical names with
// identical types (checked by internal/check, not representable here).
type OrPattern struct {
	PatternBase
	Alternatives []Pattern
}

func (OrPattern) isPattern() {}

type RangePattern struct {
	PatternBase
	Lo, Hi    interface{}
	Inclusive bool
}

func (RangePattern) isPattern() {}

type RefPattern struct {
	PatternBase
	Inner   Pattern
	Mutable bool
}

func (RefPattern) isPattern() {}

// ---- Items & Crate ----

type FnItem struct {
	DefID      ids.DefId
	TypeParams []ids.TyVarId
	ParamLocal []ids.LocalId
	Sig        types.FnT
	Body       ids.BodyId
}

type FieldDef struct {
	Name ids.Symbol
	Type types.Type
}

type StructItem struct {
	DefID  ids.DefId
	Fields []FieldDef
}

type VariantDef struct {
	DefID  ids.DefId
	Name   string
	Fields []types.Type
}

type EnumItem struct {
	DefID    ids.DefId
	Variants []VariantDef
}

type EffectItem struct {
	DefID ids.DefId
	Info  effects.Info
}

type HandlerItem struct {
	DefID ids.DefId
	Info  effects.HandlerInfo
}

type ConstItem struct {
	DefID ids.DefId
	Type  types.Type
	Body  ids.BodyId
}

type StaticItem struct {
	DefID   ids.DefId
	Type    types.Type
	Mutable bool
	Body    ids.BodyId
}

// Item is the sum of every top-level kind into_hir() synthesizes.
type Item struct {
	Fn      *FnItem
	Struct  *StructItem
	Enum    *EnumItem
	Effect  *EffectItem
	Handler *HandlerItem
	Const   *ConstItem
	Static  *StaticItem
}

// Crate is the complete checked output of one driver run: every item
// indexed by DefId, every body indexed by BodyId, and the entry point
// (if any `main`/`*_main` item was found).
type Crate struct {
	DefInfo map[ids.DefId]*DefInfo
	Items   map[ids.DefId]*Item
	Bodies  map[ids.BodyId]*Body
	Entry   ids.DefId
}

func NewCrate() *Crate {
	return &Crate{
		DefInfo: make(map[ids.DefId]*DefInfo),
		Items:   make(map[ids.DefId]*Item),
		Bodies:  make(map[ids.BodyId]*Body),
		Entry:   ids.NoDefId,
	}
}
