// Package ids defines the dense integer identity types shared across the
// compiler's middle layers (types, dispatch, hir, mir, driver). Keeping
// them as distinct named types instead of bare uint32/int32 prevents
// accidentally mixing, say, a TyVarId with a RowVarId at a call site.
package ids

import "fmt"

// Symbol is an interned-name handle, resolved back to a string only at
// module boundaries or for diagnostics.
type Symbol int32

// DefId is a crate-unique identity for every named item: function,
// struct, enum, variant, trait, effect, handler, impl method, const,
// static, module, type-param, local.
type DefId uint32

// NoDefId is the sentinel for "no definition", used before resolution
// completes or for synthesized nodes with no corresponding source item.
const NoDefId DefId = ^DefId(0)

func (d DefId) IsValid() bool { return d != NoDefId }

// TyVarId identifies a unification (Infer) variable or a rigid type
// parameter (Param), depending on where it is used.
type TyVarId uint32

// RowVarId identifies the "rest" placeholder of an open record or effect
// row.
type RowVarId uint32

// LocalId identifies a local variable within one hir.Body / mir.MirBody.
type LocalId uint32

// BodyId identifies a hir.Body blob (function/const/static/handler-op
// body).
type BodyId uint32

// BasicBlockId identifies one basic block within a mir.MirBody.
type BasicBlockId uint32

// ModuleId identifies one discovered module (file-backed or inline).
type ModuleId uint32

func (s Symbol) String() string       { return fmt.Sprintf("sym#%d", int32(s)) }
func (d DefId) String() string        { return fmt.Sprintf("def#%d", uint32(d)) }
func (t TyVarId) String() string      { return fmt.Sprintf("?%d", uint32(t)) }
func (r RowVarId) String() string     { return fmt.Sprintf("ρ%d", uint32(r)) }
func (l LocalId) String() string      { return fmt.Sprintf("_local%d", uint32(l)) }
func (b BodyId) String() string       { return fmt.Sprintf("body#%d", uint32(b)) }
func (b BasicBlockId) String() string { return fmt.Sprintf("bb%d", uint32(b)) }
func (m ModuleId) String() string     { return fmt.Sprintf("mod#%d", uint32(m)) }

// Interner maps identifier strings to stable Symbol handles. Each module
// (and, during stdlib batch parsing, each worker) may own its own
// Interner; cross-module references are resolved back to strings before
// crossing that boundary, per the data model's "interned names" rule.
type Interner struct {
	strs []string
	idx  map[string]Symbol
}

func NewInterner() *Interner {
	return &Interner{idx: make(map[string]Symbol)}
}

func (in *Interner) Intern(s string) Symbol {
	if sym, ok := in.idx[s]; ok {
		return sym
	}
	sym := Symbol(len(in.strs))
	in.strs = append(in.strs, s)
	in.idx[s] = sym
	return sym
}

func (in *Interner) Lookup(sym Symbol) (string, bool) {
	i := int(sym)
	if i < 0 || i >= len(in.strs) {
		return "", false
	}
	return in.strs[i], true
}

func (in *Interner) MustLookup(sym Symbol) string {
	s, ok := in.Lookup(sym)
	if !ok {
		panic(fmt.Sprintf("ids: unknown symbol %d", sym))
	}
	return s
}
