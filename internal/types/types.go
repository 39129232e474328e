// Package types implements the structural type representation and
// row-polymorphic unifier (component A): fresh variables, unification,
// resolution, and forall instantiation.
package types

import (
	"fmt"
	"strings"

	"github.com/sunholo/bloodc/internal/ids"
)

// Type is a shared, immutable handle to a TypeKind. Types are cheap to
// clone because only the top node is ever allocated fresh; children are
// shared.
type Type interface {
	fmt.Stringer
	isType()
}

// Prim enumerates the primitive kinds.
type Prim int

const (
	Bool Prim = iota
	Char
	I8
	I16
	I32
	I64
	I128
	Isize
	U8
	U16
	U32
	U64
	U128
	Usize
	F32
	F64
	Str
	Unit
)

var primNames = map[Prim]string{
	Bool: "bool", Char: "char",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128", Isize: "isize",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128", Usize: "usize",
	F32: "f32", F64: "f64", Str: "str", Unit: "unit",
}

// Primitive is one of the fixed scalar kinds. Primitive(Unit) unifies
// with Tuple([]) (they are the same type, by invariant).
type Primitive struct{ Kind Prim }

func (Primitive) isType()        {}
func (p Primitive) String() string { return primNames[p.Kind] }

// TupleT is a fixed-arity product type.
type TupleT struct{ Elems []Type }

func (TupleT) isType() {}
func (t TupleT) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

// ArrayT is a fixed-size array; Size is a compile-time constant.
type ArrayT struct {
	Elem Type
	Size uint64
}

func (ArrayT) isType() {}
func (a ArrayT) String() string { return fmt.Sprintf("[%s; %d]", a.Elem, a.Size) }

// SliceT is a fat-pointer-at-ABI-level view over a contiguous run.
type SliceT struct{ Elem Type }

func (SliceT) isType() {}
func (s SliceT) String() string { return fmt.Sprintf("[%s]", s.Elem) }

// RefT is `&T` (Mutable=false, covariant) or `&mut T` (Mutable=true,
// invariant).
type RefT struct {
	Inner   Type
	Mutable bool
}

func (RefT) isType() {}
func (r RefT) String() string {
	if r.Mutable {
		return fmt.Sprintf("&mut %s", r.Inner)
	}
	return fmt.Sprintf("&%s", r.Inner)
}

// PtrT is a raw pointer, distinguished from RefT (no borrow-checking
// implications, but the same mutability/variance split applies at the
// subtyping layer).
type PtrT struct {
	Inner   Type
	Mutable bool
}

func (PtrT) isType() {}
func (p PtrT) String() string {
	if p.Mutable {
		return fmt.Sprintf("*mut %s", p.Inner)
	}
	return fmt.Sprintf("*const %s", p.Inner)
}

// FnT is a plain function type: contravariant in Params, covariant in
// Ret. EffectRow is the function's declared latent effect.
type FnT struct {
	Params []Type
	Ret    Type
	Effect EffectRow
}

func (FnT) isType() {}
func (f FnT) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	eff := ""
	if s := f.Effect.String(); s != "" {
		eff = " ! " + s
	}
	return fmt.Sprintf("(%s) -> %s%s", strings.Join(params, ", "), f.Ret, eff)
}

// ClosureT is a function value that carries an environment struct,
// identified by DefId (the lowered environment-struct definition).
type ClosureT struct {
	DefID  ids.DefId
	Params []Type
	Ret    Type
	Effect EffectRow
}

func (ClosureT) isType() {}
func (c ClosureT) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("closure(%s) -> %s", strings.Join(params, ", "), c.Ret)
}

// AdtT is a nominal type: struct, enum, or trait-bound generic
// instantiation, keyed by DefId with generic Args.
type AdtT struct {
	DefID ids.DefId
	Name  string // for diagnostics only; identity is DefID
	Args  []Type
}

func (AdtT) isType() {}
func (a AdtT) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return fmt.Sprintf("%s<%s>", a.Name, strings.Join(parts, ", "))
}

// RangeT is `lo..hi` / `lo..=hi`; Inclusive is a value-level property
// tracked alongside the type for diagnostics, not part of unification
// identity beyond the element type.
type RangeT struct {
	Elem      Type
	Inclusive bool
}

func (RangeT) isType() {}
func (r RangeT) String() string { return fmt.Sprintf("Range<%s>", r.Elem) }

// RecordField is one (name, type) entry of a Record.
type RecordField struct {
	Name ids.Symbol
	Type Type
}

// RecordT is a row-polymorphic record. RowVar == nil means a closed
// record (exactly these fields); otherwise the row variable stands for
// "the remaining fields".
type RecordT struct {
	Fields []RecordField
	RowVar *ids.RowVarId
}

func (RecordT) isType() {}
func (r RecordT) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	body := strings.Join(parts, ", ")
	if r.RowVar != nil {
		return fmt.Sprintf("{%s | %s}", body, *r.RowVar)
	}
	return fmt.Sprintf("{%s}", body)
}

// ForallT is a higher-rank quantified type; Params are bound within
// Body.
type ForallT struct {
	Params []ids.TyVarId
	Body   Type
}

func (ForallT) isType() {}
func (f ForallT) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(parts, " "), f.Body)
}

// DynTraitT is a trait object, `dyn Trait + AutoTraits...`.
type DynTraitT struct {
	TraitID    ids.DefId
	TraitName  string
	AutoTraits []ids.DefId
}

func (DynTraitT) isType() {}
func (d DynTraitT) String() string {
	if len(d.AutoTraits) == 0 {
		return fmt.Sprintf("dyn %s", d.TraitName)
	}
	return fmt.Sprintf("dyn %s+%d auto", d.TraitName, len(d.AutoTraits))
}

// InferT is a unification variable.
type InferT struct{ ID ids.TyVarId }

func (InferT) isType() {}
func (i InferT) String() string { return i.ID.String() }

// ParamT is a rigid, in-scope type parameter (a bound quantifier, not a
// solvable variable).
type ParamT struct {
	ID   ids.TyVarId
	Name string
}

func (ParamT) isType() {}
func (p ParamT) String() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID.String()
}

// NeverT is the bottom type: unifies with anything, is a subtype of
// everything.
type NeverT struct{}

func (NeverT) isType()        {}
func (NeverT) String() string { return "!" }

// ErrorT is the recovery type: unifies with anything so that checking
// can continue after a prior error without cascading.
type ErrorT struct{}

func (ErrorT) isType()        {}
func (ErrorT) String() string { return "<error>" }

// Common singletons, to avoid reallocating on every reference.
var (
	TBool  = Primitive{Bool}
	TUnit  = Primitive{Unit}
	TStr   = Primitive{Str}
	TI32   = Primitive{I32}
	TI64   = Primitive{I64}
	TF64   = Primitive{F64}
	TNever = NeverT{}
	TError = ErrorT{}
)

// IsUnitLike reports whether t is Primitive(Unit) or Tuple([]), the two
// forms the unifier treats as identical.
func IsUnitLike(t Type) bool {
	if p, ok := t.(Primitive); ok && p.Kind == Unit {
		return true
	}
	if tup, ok := t.(TupleT); ok && len(tup.Elems) == 0 {
		return true
	}
	return false
}
