// Package mir implements the mid-level intermediate representation
// (component D's data model): basic-block bodies over places and
// operands, lowered from internal/hir ahead of LLVM codegen.
package mir

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// PlaceBase is the root an lvalue projects from.
type PlaceBase interface{ isPlaceBase() }

// LocalBase roots a place at a local variable (including the pseudo
// local `_0`, the return slot, by convention).
type LocalBase struct{ Local ids.LocalId }

func (LocalBase) isPlaceBase() {}

// StaticBase roots a place at a module-level static item.
type StaticBase struct{ DefID ids.DefId }

func (StaticBase) isPlaceBase() {}

// PlaceElem is one projection step applied to a base (field access,
// deref, indexing, enum downcast).
type PlaceElem interface{ isPlaceElem() }

type Deref struct{}

func (Deref) isPlaceElem() {}

type Field struct {
	Index uint32
	Name  ids.Symbol
}

func (Field) isPlaceElem() {}

type Index struct{ Local ids.LocalId }

func (Index) isPlaceElem() {}

type ConstantIndex struct {
	Offset    uint64
	MinLength uint64
	FromEnd   bool
}

func (ConstantIndex) isPlaceElem() {}

type Subslice struct {
	From, To uint64
	FromEnd  bool
}

func (Subslice) isPlaceElem() {}

// Downcast narrows an enum place to one variant's payload layout ahead
// of a Field projection into it (the generated-discriminant switch's
// per-arm access pattern).
type Downcast struct{ VariantIdx uint32 }

func (Downcast) isPlaceElem() {}

// Place is an lvalue: a base plus zero or more projections applied
// left to right.
type Place struct {
	Base       PlaceBase
	Projection []PlaceElem
}

func (p Place) String() string {
	s := fmt.Sprintf("%v", p.Base)
	for _, e := range p.Projection {
		switch v := e.(type) {
		case Deref:
			s = "(*" + s + ")"
		case Field:
			s = fmt.Sprintf("%s.%d", s, v.Index)
		case Index:
			s = fmt.Sprintf("%s[%v]", s, v.Local)
		case Downcast:
			s = fmt.Sprintf("%s as variant %d", s, v.VariantIdx)
		default:
			s = fmt.Sprintf("%s.<proj>", s)
		}
	}
	return s
}

// Constant is a compile-time-known operand value.
type ConstantKind interface{ isConstant() }

type IntConst struct{ Value int64 }

func (IntConst) isConstant() {}

type FloatConst struct{ Value float64 }

func (FloatConst) isConstant() {}

type BoolConst struct{ Value bool }

func (BoolConst) isConstant() {}

type StrConst struct{ Value string }

func (StrConst) isConstant() {}

type UnitConst struct{}

func (UnitConst) isConstant() {}

// FnDefConst names a statically-known function (the common callee form
// for a direct, non-closure Call terminator).
type FnDefConst struct{ DefID ids.DefId }

func (FnDefConst) isConstant() {}

type Constant struct {
	Kind ConstantKind
	Type types.Type
}

// Operand is an rvalue operand: a place read by value (Move consumes
// its generation slot, Copy does not) or an immediate Constant.
type Operand interface{ isOperand() }

type Move struct{ Place Place }

func (Move) isOperand() {}

type Copy struct{ Place Place }

func (Copy) isOperand() {}

type OpConstant struct{ Constant Constant }

func (OpConstant) isOperand() {}

// Rvalue is the right-hand side of an Assign statement.
type Rvalue interface{ isRvalue() }

type Use struct{ Operand Operand }

func (Use) isRvalue() {}

type BinaryOp struct {
	Op          string
	Left, Right Operand
}

func (BinaryOp) isRvalue() {}

type UnaryOp struct {
	Op      string
	Operand Operand
}

func (UnaryOp) isRvalue() {}

// Aggregate builds a composite value (tuple, struct, enum variant,
// array, closure environment) from its field operands.
type AggregateKind int

const (
	AggTuple AggregateKind = iota
	AggStruct
	AggVariant
	AggArray
	AggClosure
)

type Aggregate struct {
	Kind       AggregateKind
	DefID      ids.DefId // NoDefId for AggTuple/AggArray
	VariantIdx uint32    // only meaningful for AggVariant
	Fields     []Operand
}

func (Aggregate) isRvalue() {}

// Ref takes the address of a place (`&place` / `&mut place`).
type Ref struct {
	Place   Place
	Mutable bool
}

func (Ref) isRvalue() {}

// Discriminant reads an enum place's variant tag as an integer, the
// value a Match's SwitchInt terminator branches on.
type Discriminant struct{ Place Place }

func (Discriminant) isRvalue() {}

// Statement is a non-control-flow MIR instruction.
type Statement interface{ isStatement() }

type Assign struct {
	Place Place
	Value Rvalue
	Span  ast.Span
}

func (Assign) isStatement() {}

// StorageLive/StorageDead bracket a local's live range. Builder does
// not emit them, and codegen lowers both to no-ops: no runtime call or
// stale-reference check is attached to either.
type StorageLive struct{ Local ids.LocalId }

func (StorageLive) isStatement() {}

type StorageDead struct{ Local ids.LocalId }

func (StorageDead) isStatement() {}

// SwitchTargets pairs each matched discriminant value with its target
// block, plus a fallback for every unmatched value.
type SwitchTargets struct {
	Branches  map[int64]ids.BasicBlockId
	Otherwise ids.BasicBlockId
}

// Terminator is the final control-transfer instruction of a basic
// block; every block has exactly one.
type Terminator interface{ isTerminator() }

type Goto struct{ Target ids.BasicBlockId }

func (Goto) isTerminator() {}

type SwitchInt struct {
	Discriminant Operand
	Targets      SwitchTargets
}

func (SwitchInt) isTerminator() {}

type Return struct{}

func (Return) isTerminator() {}

type Unreachable struct{}

func (Unreachable) isTerminator() {}

// Call lowers a direct or higher-order function application; Target
// is nil when the callee is statically known never to return.
type Call struct {
	Func        Operand
	Args        []Operand
	Destination Place
	Target      *ids.BasicBlockId
}

func (Call) isTerminator() {}

// Assert lowers a runtime-checked invariant (array bounds, match
// exhaustiveness fallthrough, division by zero) to a conditional
// panic call followed by a branch to Target on success.
type Assert struct {
	Cond     Operand
	Expected bool
	Message  string
	Target   ids.BasicBlockId
}

func (Assert) isTerminator() {}

// DropAndReplace overwrites Place with Value's evaluated result, then
// continues at Target — the lowering of a reassignment to a
// possibly-boxed local. Codegen only stores the new value; Place's old
// value is not run through drop glue.
type DropAndReplace struct {
	Place  Place
	Value  Operand
	Target ids.BasicBlockId
}

func (DropAndReplace) isTerminator() {}

// Perform lowers `perform Effect.op(args)`: it suspends the current
// computation, transferring control to the innermost handler for
// EffectID's op at OpIndex and recording Destination as where the
// eventual `resume` value lands when execution returns here.
// IsTailResumptive marks ops compiled under the "resume called exactly
// once, in tail position" fast path (spec.md §6 tail-resumptive call).
type Perform struct {
	EffectID         ids.DefId
	OpIndex          uint32
	Args             []Operand
	Destination      Place
	Target           *ids.BasicBlockId
	IsTailResumptive bool
}

func (Perform) isTerminator() {}

// Resume transfers the handler operation's computed value back to the
// suspended `perform` call site it is resuming.
type Resume struct{ Value *Operand }

func (Resume) isTerminator() {}

// StaleReference marks a generational reference whose recorded
// generation no longer matches the slot's current generation (spec.md
// §6 stale-reference panic). Builder never emits it; codegen lowers it
// when a body contains one.
type StaleReference struct {
	Ptr      Place
	Expected uint32
	Actual   uint32
}

func (StaleReference) isTerminator() {}

// BasicBlock is a maximal straight-line statement run ending in
// exactly one Terminator.
type BasicBlock struct {
	ID         ids.BasicBlockId
	Statements []Statement
	Term       Terminator
}

// MirLocal carries the information codegen needs per local beyond
// what internal/hir.Local tracks: whether it needs a generational
// reference slot, and its declared type.
type MirLocal struct {
	ID      ids.LocalId
	Type    types.Type
	Boxed   bool
	Mutable bool
	Name    string
}

// MirBody is one function/closure/handler-op's compiled control-flow
// graph. Local 0 is the return slot by convention (mirroring the
// teacher's calling-convention idiom of a dedicated result local),
// locals 1..ParamCount are the parameters.
type MirBody struct {
	Source     ids.BodyId
	Locals     []MirLocal
	ParamCount int
	Blocks     []BasicBlock
	Entry      ids.BasicBlockId
}

// ReturnType is the declared type of the _0 return-slot local.
func (m *MirBody) ReturnType() types.Type {
	for _, l := range m.Locals {
		if l.ID == 0 {
			return l.Type
		}
	}
	return types.TUnit
}

func (m *MirBody) Block(id ids.BasicBlockId) *BasicBlock {
	for i := range m.Blocks {
		if m.Blocks[i].ID == id {
			return &m.Blocks[i]
		}
	}
	return nil
}

// LocalOf looks up a local by HIR body local id, under the convention
// that MIR locals are numbered identically to their originating
// hir.Body.Locals entries (shifted by one for the return slot).
func (m *MirBody) LocalOf(id ids.LocalId) (MirLocal, bool) {
	for _, l := range m.Locals {
		if l.ID == id+1 {
			return l, true
		}
	}
	return MirLocal{}, false
}
