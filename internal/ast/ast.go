// Package ast defines the external AST boundary this compiler consumes.
// Values of these types are produced by an external lexer/parser (out of
// scope here, per the driver's module-discovery contract) and are the
// sole input to collection (internal/check).
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface for all AST nodes.
type Node interface {
	String() string
	Position() Pos
}

// Pos is a human-facing source location used for diagnostic rendering.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is the byte range anchor every node carries for diagnostics and
// incremental recompilation. Span{} (zero value) marks a synthesized node.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) IsDummy() bool { return s.Start == Pos{} && s.End == Pos{} }

// File is a single parsed source file.
type File struct {
	Module  *ModuleDecl
	Imports []*ImportDecl
	Decls   []Decl
	Path    string
	Pos     Pos
}

func (f *File) String() string {
	parts := []string{}
	if f.Module != nil {
		parts = append(parts, f.Module.String())
	}
	for _, imp := range f.Imports {
		parts = append(parts, imp.String())
	}
	for _, d := range f.Decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n")
}
func (f *File) Position() Pos { return f.Pos }

// ModuleDecl is an inline or file-header module declaration (`mod name;`
// or `mod name { ... }` with Decls populated for the inline form).
type ModuleDecl struct {
	Path    string
	Inline  bool
	Decls   []Decl // only for the inline form
	Pos     Pos
	Span    Span
}

func (m *ModuleDecl) String() string { return fmt.Sprintf("mod %s", m.Path) }
func (m *ModuleDecl) Position() Pos  { return m.Pos }

// ImportDecl is a `pub use path::{a, b};`-style declaration. Glob = true
// marks `path::*`.
type ImportDecl struct {
	Path    string
	Symbols []string
	Glob    bool
	Public  bool
	Pos     Pos
	Span    Span
}

func (i *ImportDecl) String() string {
	if i.Glob {
		return fmt.Sprintf("use %s::*", i.Path)
	}
	if len(i.Symbols) > 0 {
		return fmt.Sprintf("use %s::{%s}", i.Path, strings.Join(i.Symbols, ", "))
	}
	return fmt.Sprintf("use %s", i.Path)
}
func (i *ImportDecl) Position() Pos { return i.Pos }

// ModRef is a child-module declaration appearing among a file's
// top-level items: `mod name;` (file-backed, resolved by the driver to
// name.blood or name/mod.blood next to the declaring file) or
// `mod name { ... }` (inline, Decls populated directly, no file lookup).
// Distinct from ModuleDecl, which is a file's own declared identity.
type ModRef struct {
	Name    string
	Inline  bool
	Decls   []Decl        // only for the inline form
	Imports []*ImportDecl // only for the inline form
	Pos     Pos
	Span    Span
}

func (m *ModRef) String() string { return fmt.Sprintf("mod %s", m.Name) }
func (m *ModRef) Position() Pos  { return m.Pos }
func (m *ModRef) declNode()      {}

// Expr, Stmt, Type, Pattern, Decl are the node-family marker interfaces.
type Expr interface {
	Node
	exprNode()
}

type Type interface {
	Node
	typeNode()
}

type Pattern interface {
	Node
	patternNode()
}

// Decl is any top-level or inline-module item.
type Decl interface {
	Node
	declNode()
}

// ---- Expressions ----

type Identifier struct {
	Name string
	Pos  Pos
}

func (i *Identifier) String() string { return i.Name }
func (i *Identifier) Position() Pos  { return i.Pos }
func (i *Identifier) exprNode()      {}
func (i *Identifier) patternNode()   {}

type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	CharLit
	UnitLit
)

type Literal struct {
	Kind  LiteralKind
	Value interface{}
	Pos   Pos
}

func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }
func (l *Literal) Position() Pos  { return l.Pos }
func (l *Literal) exprNode()      {}
func (l *Literal) patternNode()   {}

type BinaryOp struct {
	Left  Expr
	Op    string
	Right Expr
	Pos   Pos
}

func (b *BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
func (b *BinaryOp) Position() Pos  { return b.Pos }
func (b *BinaryOp) exprNode()      {}

type UnaryOp struct {
	Op   string
	Expr Expr
	Pos  Pos
}

func (u *UnaryOp) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Expr) }
func (u *UnaryOp) Position() Pos  { return u.Pos }
func (u *UnaryOp) exprNode()      {}

// Pipe is `a |> f`, sugar for `f(a)` (resolved during checking).
type Pipe struct {
	Left  Expr
	Right Expr
	Pos   Pos
}

func (p *Pipe) String() string { return fmt.Sprintf("(%s |> %s)", p.Left, p.Right) }
func (p *Pipe) Position() Pos  { return p.Pos }
func (p *Pipe) exprNode()      {}

type Param struct {
	Name string
	Type Type
	Pos  Pos
}

type Lambda struct {
	Params  []*Param
	Body    Expr
	Effects []string
	Pos     Pos
}

func (l *Lambda) String() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.Name
	}
	return fmt.Sprintf("\\%s. %s", strings.Join(params, " "), l.Body)
}
func (l *Lambda) Position() Pos { return l.Pos }
func (l *Lambda) exprNode()     {}

type FuncCall struct {
	Func Expr
	Args []Expr
	Pos  Pos
}

func (f *FuncCall) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", f.Func, strings.Join(args, " "))
}
func (f *FuncCall) Position() Pos { return f.Pos }
func (f *FuncCall) exprNode()     {}

// MethodCall is `recv.name(args)`; dispatch resolves it against all
// in-scope candidates named `Name` (internal/dispatch).
type MethodCall struct {
	Receiver Expr
	Name     string
	Args     []Expr
	Pos      Pos
}

func (m *MethodCall) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s.%s(%s)", m.Receiver, m.Name, strings.Join(args, ", "))
}
func (m *MethodCall) Position() Pos { return m.Pos }
func (m *MethodCall) exprNode()     {}

type Let struct {
	Name  string
	Type  Type
	Value Expr
	Body  Expr
	Pos   Pos
}

func (l *Let) String() string { return fmt.Sprintf("(let %s = %s in %s)", l.Name, l.Value, l.Body) }
func (l *Let) Position() Pos  { return l.Pos }
func (l *Let) exprNode()      {}

type LetRec struct {
	Name  string
	Type  Type
	Value Expr
	Body  Expr
	Pos   Pos
}

func (l *LetRec) String() string {
	return fmt.Sprintf("(letrec %s = %s in %s)", l.Name, l.Value, l.Body)
}
func (l *LetRec) Position() Pos { return l.Pos }
func (l *LetRec) exprNode()     {}

type Block struct {
	Exprs []Expr
	Pos   Pos
}

func (b *Block) String() string {
	parts := make([]string, len(b.Exprs))
	for i, e := range b.Exprs {
		parts[i] = e.String()
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, "; "))
}
func (b *Block) Position() Pos { return b.Pos }
func (b *Block) exprNode()     {}

type If struct {
	Condition Expr
	Then      Expr
	Else      Expr
	Pos       Pos
}

func (i *If) String() string { return fmt.Sprintf("(if %s then %s else %s)", i.Condition, i.Then, i.Else) }
func (i *If) Position() Pos  { return i.Pos }
func (i *If) exprNode()      {}

type Case struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
	Pos     Pos
}

type Match struct {
	Expr  Expr
	Cases []*Case
	Pos   Pos
}

func (m *Match) String() string {
	cases := make([]string, len(m.Cases))
	for i, c := range m.Cases {
		cases[i] = fmt.Sprintf("%s => %s", c.Pattern, c.Body)
	}
	return fmt.Sprintf("(match %s { %s })", m.Expr, strings.Join(cases, " | "))
}
func (m *Match) Position() Pos { return m.Pos }
func (m *Match) exprNode()     {}

type List struct {
	Elements []Expr
	Pos      Pos
}

func (l *List) String() string {
	elems := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		elems[i] = e.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
}
func (l *List) Position() Pos { return l.Pos }
func (l *List) exprNode()     {}

type Tuple struct {
	Elements []Expr
	Pos      Pos
}

func (t *Tuple) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}
func (t *Tuple) Position() Pos { return t.Pos }
func (t *Tuple) exprNode()     {}

type Field struct {
	Name  string
	Value Expr
	Pos   Pos
}

type Record struct {
	Fields []*Field
	Pos    Pos
}

func (r *Record) String() string {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return fmt.Sprintf("{ %s }", strings.Join(fields, ", "))
}
func (r *Record) Position() Pos { return r.Pos }
func (r *Record) exprNode()     {}

type RecordAccess struct {
	Record Expr
	Field  string
	Pos    Pos
}

func (r *RecordAccess) String() string { return fmt.Sprintf("%s.%s", r.Record, r.Field) }
func (r *RecordAccess) Position() Pos  { return r.Pos }
func (r *RecordAccess) exprNode()      {}

type RecordUpdate struct {
	Base   Expr
	Fields []*Field
	Pos    Pos
}

func (r *RecordUpdate) String() string {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return fmt.Sprintf("{ %s | %s }", r.Base, strings.Join(fields, ", "))
}
func (r *RecordUpdate) Position() Pos { return r.Pos }
func (r *RecordUpdate) exprNode()     {}

// Cast is `expr as Type` (int<->int, int<->float, ptr<->int, ptr<->ptr).
type Cast struct {
	Expr   Expr
	Target Type
	Pos    Pos
}

func (c *Cast) String() string { return fmt.Sprintf("(%s as %s)", c.Expr, c.Target) }
func (c *Cast) Position() Pos  { return c.Pos }
func (c *Cast) exprNode()      {}

// Perform is `perform Eff.op(args)`.
type Perform struct {
	Effect string
	Op     string
	Args   []Expr
	Pos    Pos
}

func (p *Perform) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("perform %s.%s(%s)", p.Effect, p.Op, strings.Join(args, ", "))
}
func (p *Perform) Position() Pos { return p.Pos }
func (p *Perform) exprNode()     {}

// Resume is `resume(v)`, valid only inside a handler operation body.
type Resume struct {
	Value Expr
	Pos   Pos
}

func (r *Resume) String() string { return fmt.Sprintf("resume(%s)", r.Value) }
func (r *Resume) Position() Pos  { return r.Pos }
func (r *Resume) exprNode()      {}

// WithHandle is `with h handle { body }`.
type WithHandle struct {
	Handler Expr
	Body    Expr
	Pos     Pos
}

func (w *WithHandle) String() string { return fmt.Sprintf("with %s handle %s", w.Handler, w.Body) }
func (w *WithHandle) Position() Pos  { return w.Pos }
func (w *WithHandle) exprNode()      {}

type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) exprNode()     {}
func (e *Error) Position() Pos { return e.Pos }
func (e *Error) String() string {
	if e.Msg != "" {
		return fmt.Sprintf("<error: %s>", e.Msg)
	}
	return "<error>"
}

// ---- Declarations ----

type TestCase struct {
	Inputs   []Expr
	Expected Expr
	Pos      Pos
}

type FuncDecl struct {
	Name       string
	TypeParams []string
	Params     []*Param
	ReturnType Type
	Effects    []string
	Tests      []*TestCase
	Body       Expr
	IsPure     bool
	IsExport   bool
	Pos        Pos
	Span       Span
}

func (f *FuncDecl) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name
	}
	pure := ""
	if f.IsPure {
		pure = "pure "
	}
	return fmt.Sprintf("%sfn %s(%s) = %s", pure, f.Name, strings.Join(params, ", "), f.Body)
}
func (f *FuncDecl) Position() Pos { return f.Pos }
func (f *FuncDecl) declNode()     {}

// TypeDecl binds Name (+ TypeParams) to a TypeDef (struct/record or
// algebraic/enum form) or an alias.
type TypeDecl struct {
	Name       string
	TypeParams []string
	Definition TypeDef
	Exported   bool
	Pos        Pos
}

type TypeDef interface{ typeDefNode() }

type Constructor struct {
	Name   string
	Fields []Type
	Pos    Pos
}

// AlgebraicType is the enum form: a tagged union of constructors.
type AlgebraicType struct {
	Constructors []*Constructor
	Pos          Pos
}

func (a *AlgebraicType) typeDefNode() {}

type RecordField struct {
	Name string
	Type Type
	Pos  Pos
}

// RecordType is the struct form: a fixed set of named fields.
type RecordType struct {
	Fields []*RecordField
	Pos    Pos
}

func (r *RecordType) typeDefNode() {}
func (r *RecordType) typeNode()    {}
func (r *RecordType) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, ", "))
}
func (r *RecordType) Position() Pos { return r.Pos }

type TypeAlias struct {
	Target Type
	Pos    Pos
}

func (t *TypeAlias) typeDefNode() {}

func (t *TypeDecl) String() string { return fmt.Sprintf("type %s", t.Name) }
func (t *TypeDecl) Position() Pos  { return t.Pos }
func (t *TypeDecl) declNode()      {}

// TraitMethod is a method signature inside a TraitDecl, with an optional
// default body.
type TraitMethod struct {
	Name    string
	Params  []*Param
	Ret     Type
	Effects []string
	Default Expr
	Pos     Pos
}

type TraitDecl struct {
	Name       string
	TypeParam  string
	Superclass string
	Methods    []*TraitMethod
	Pos        Pos
}

func (t *TraitDecl) String() string { return fmt.Sprintf("trait %s[%s]", t.Name, t.TypeParam) }
func (t *TraitDecl) Position() Pos  { return t.Pos }
func (t *TraitDecl) declNode()      {}

// ImplDecl is `impl Trait for Type { ... }` (TraitName == "" for an
// inherent impl block).
type ImplDecl struct {
	TraitName  string
	TypeParams []string
	ForType    Type
	Methods    []*FuncDecl
	Pos        Pos
}

func (i *ImplDecl) String() string {
	if i.TraitName != "" {
		return fmt.Sprintf("impl %s for %s", i.TraitName, i.ForType)
	}
	return fmt.Sprintf("impl %s", i.ForType)
}
func (i *ImplDecl) Position() Pos { return i.Pos }
func (i *ImplDecl) declNode()     {}

// EffectOp is one operation signature inside an EffectDecl.
type EffectOp struct {
	Name   string
	Params []*Param
	Ret    Type
	Pos    Pos
}

type EffectDecl struct {
	Name       string
	TypeParams []string
	Ops        []*EffectOp
	Pos        Pos
}

func (e *EffectDecl) String() string { return fmt.Sprintf("effect %s", e.Name) }
func (e *EffectDecl) Position() Pos  { return e.Pos }
func (e *EffectDecl) declNode()      {}

// HandlerKind distinguishes Deep (reinstates on resume) from Shallow.
type HandlerKind int

const (
	Deep HandlerKind = iota
	Shallow
)

// HandlerOp is one `op name(args) { body }` arm inside a HandlerDecl.
type HandlerOp struct {
	Name   string
	Params []*Param
	Body   Expr
	Pos    Pos
}

type HandlerDecl struct {
	Name       string
	EffectName string
	EffectArgs []Type
	Kind       HandlerKind
	State      []*RecordField
	Ops        []*HandlerOp
	Return     *HandlerOp // optional return-clause body; Params holds the bound result name
	Pos        Pos
}

func (h *HandlerDecl) String() string { return fmt.Sprintf("handler %s for %s", h.Name, h.EffectName) }
func (h *HandlerDecl) Position() Pos  { return h.Pos }
func (h *HandlerDecl) declNode()      {}

type ConstDecl struct {
	Name  string
	Type  Type
	Value Expr
	Pos   Pos
}

func (c *ConstDecl) String() string { return fmt.Sprintf("const %s", c.Name) }
func (c *ConstDecl) Position() Pos  { return c.Pos }
func (c *ConstDecl) declNode()      {}

type StaticDecl struct {
	Name    string
	Type    Type
	Mutable bool
	Value   Expr
	Pos     Pos
}

func (s *StaticDecl) String() string { return fmt.Sprintf("static %s", s.Name) }
func (s *StaticDecl) Position() Pos  { return s.Pos }
func (s *StaticDecl) declNode()      {}

// ---- Type expressions ----

type SimpleType struct {
	Name string
	Pos  Pos
}

func (s *SimpleType) String() string { return s.Name }
func (s *SimpleType) Position() Pos  { return s.Pos }
func (s *SimpleType) typeNode()      {}

// NamedType is a (possibly generic) nominal reference, e.g. `Option<T>`.
type NamedType struct {
	Name string
	Args []Type
	Pos  Pos
}

func (n *NamedType) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", n.Name, strings.Join(args, ", "))
}
func (n *NamedType) Position() Pos { return n.Pos }
func (n *NamedType) typeNode()     {}

type TypeVar struct {
	Name string
	Pos  Pos
}

func (t *TypeVar) String() string { return t.Name }
func (t *TypeVar) Position() Pos  { return t.Pos }
func (t *TypeVar) typeNode()      {}

type FuncType struct {
	Params  []Type
	Return  Type
	Effects []string
	Pos     Pos
}

func (f *FuncType) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	eff := ""
	if len(f.Effects) > 0 {
		eff = fmt.Sprintf(" ! {%s}", strings.Join(f.Effects, ", "))
	}
	return fmt.Sprintf("(%s -> %s%s)", strings.Join(params, ", "), f.Return, eff)
}
func (f *FuncType) Position() Pos { return f.Pos }
func (f *FuncType) typeNode()     {}

// RefType is `&T` (covariant) or `&mut T` (invariant).
type RefType struct {
	Inner   Type
	Mutable bool
	Pos     Pos
}

func (r *RefType) String() string {
	if r.Mutable {
		return fmt.Sprintf("&mut %s", r.Inner)
	}
	return fmt.Sprintf("&%s", r.Inner)
}
func (r *RefType) Position() Pos { return r.Pos }
func (r *RefType) typeNode()     {}

// PtrType is `*const T` / `*mut T`, distinguished from RefType per the
// data model's Ref/Ptr split.
type PtrType struct {
	Inner   Type
	Mutable bool
	Pos     Pos
}

func (p *PtrType) String() string {
	if p.Mutable {
		return fmt.Sprintf("*mut %s", p.Inner)
	}
	return fmt.Sprintf("*const %s", p.Inner)
}
func (p *PtrType) Position() Pos { return p.Pos }
func (p *PtrType) typeNode()     {}

type ArrayType struct {
	Element Type
	Size    uint64
	Pos     Pos
}

func (a *ArrayType) String() string { return fmt.Sprintf("[%s; %d]", a.Element, a.Size) }
func (a *ArrayType) Position() Pos  { return a.Pos }
func (a *ArrayType) typeNode()      {}

type SliceType struct {
	Element Type
	Pos     Pos
}

func (s *SliceType) String() string { return fmt.Sprintf("[%s]", s.Element) }
func (s *SliceType) Position() Pos  { return s.Pos }
func (s *SliceType) typeNode()      {}

type TupleType struct {
	Elements []Type
	Pos      Pos
}

func (t *TupleType) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}
func (t *TupleType) Position() Pos { return t.Pos }
func (t *TupleType) typeNode()     {}

// RangeType is `Range<T>` (`inclusive` tracked on the value, not the type).
type RangeType struct {
	Element   Type
	Inclusive bool
	Pos       Pos
}

func (r *RangeType) String() string { return fmt.Sprintf("Range<%s>", r.Element) }
func (r *RangeType) Position() Pos  { return r.Pos }
func (r *RangeType) typeNode()      {}

// RowTypeField/RecordRowType surface `{x: i32 | rho}`-style row-polymorphic
// record type annotations.
type RowTypeField struct {
	Name string
	Type Type
	Pos  Pos
}

type RecordRowType struct {
	Fields []*RowTypeField
	RowVar string // empty means closed
	Pos    Pos
}

func (r *RecordRowType) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	body := strings.Join(parts, ", ")
	if r.RowVar != "" {
		return fmt.Sprintf("{%s | %s}", body, r.RowVar)
	}
	return fmt.Sprintf("{%s}", body)
}
func (r *RecordRowType) Position() Pos { return r.Pos }
func (r *RecordRowType) typeNode()     {}

// DynTraitType is `dyn Trait + Auto1 + Auto2`.
type DynTraitType struct {
	Trait      string
	AutoTraits []string
	Pos        Pos
}

func (d *DynTraitType) String() string {
	if len(d.AutoTraits) == 0 {
		return fmt.Sprintf("dyn %s", d.Trait)
	}
	return fmt.Sprintf("dyn %s + %s", d.Trait, strings.Join(d.AutoTraits, " + "))
}
func (d *DynTraitType) Position() Pos { return d.Pos }
func (d *DynTraitType) typeNode()     {}

// ---- Patterns ----

type WildcardPattern struct{ Pos Pos }

func (w *WildcardPattern) String() string { return "_" }
func (w *WildcardPattern) Position() Pos  { return w.Pos }
func (w *WildcardPattern) patternNode()   {}

type ConsPattern struct {
	Head Pattern
	Tail Pattern
	Pos  Pos
}

func (c *ConsPattern) String() string { return fmt.Sprintf("[%s, ...%s]", c.Head, c.Tail) }
func (c *ConsPattern) Position() Pos  { return c.Pos }
func (c *ConsPattern) patternNode()   {}

type ListPattern struct {
	Elements []Pattern
	Rest     Pattern
	Pos      Pos
}

func (l *ListPattern) String() string {
	elems := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		elems[i] = e.String()
	}
	if l.Rest != nil {
		elems = append(elems, fmt.Sprintf("...%s", l.Rest))
	}
	return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
}
func (l *ListPattern) Position() Pos { return l.Pos }
func (l *ListPattern) patternNode()  {}

type TuplePattern struct {
	Elements []Pattern
	Pos      Pos
}

func (t *TuplePattern) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}
func (t *TuplePattern) Position() Pos { return t.Pos }
func (t *TuplePattern) patternNode()  {}

type FieldPattern struct {
	Name    string
	Pattern Pattern
	Pos     Pos
}

type RecordPattern struct {
	Fields []*FieldPattern
	Rest   bool
	Pos    Pos
}

func (r *RecordPattern) String() string {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Pattern)
	}
	if r.Rest {
		fields = append(fields, "...")
	}
	return fmt.Sprintf("{ %s }", strings.Join(fields, ", "))
}
func (r *RecordPattern) Position() Pos { return r.Pos }
func (r *RecordPattern) patternNode()  {}

// ConstructorPattern matches an enum variant, by bare name (unit variant)
// or applied to sub-patterns (tuple variant).
type ConstructorPattern struct {
	Name     string
	Patterns []Pattern
	Pos      Pos
}

func (c *ConstructorPattern) String() string {
	if len(c.Patterns) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}
func (c *ConstructorPattern) Position() Pos { return c.Pos }
func (c *ConstructorPattern) patternNode()  {}

// OrPattern requires all alternatives to bind identical names.
type OrPattern struct {
	Alternatives []Pattern
	Pos          Pos
}

func (o *OrPattern) String() string {
	parts := make([]string, len(o.Alternatives))
	for i, a := range o.Alternatives {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}
func (o *OrPattern) Position() Pos { return o.Pos }
func (o *OrPattern) patternNode()  {}

// RangePattern matches `lo..hi` / `lo..=hi`.
type RangePattern struct {
	Lo, Hi    Expr
	Inclusive bool
	Pos       Pos
}

func (r *RangePattern) String() string {
	if r.Inclusive {
		return fmt.Sprintf("%s..=%s", r.Lo, r.Hi)
	}
	return fmt.Sprintf("%s..%s", r.Lo, r.Hi)
}
func (r *RangePattern) Position() Pos { return r.Pos }
func (r *RangePattern) patternNode()  {}

// RefPattern matches `&pat` / `&mut pat`.
type RefPattern struct {
	Inner   Pattern
	Mutable bool
	Pos     Pos
}

func (r *RefPattern) String() string { return fmt.Sprintf("&%s", r.Inner) }
func (r *RefPattern) Position() Pos  { return r.Pos }
func (r *RefPattern) patternNode()   {}

// Program is the parsed-and-assembled whole: the root file plus every
// transitively discovered module file, keyed by resolved path. The
// driver (internal/driver) populates this before handing it to checking.
type Program struct {
	Root  *File
	Files map[string]*File // path -> file, includes Root
}

func (p *Program) String() string {
	if p.Root != nil {
		return p.Root.String()
	}
	return "empty program"
}
