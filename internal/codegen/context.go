// Package codegen implements component D's engine: lowering a checked
// crate's MIR bodies to LLVM IR, including the generational-reference
// snapshot protocol around effect `perform`/`resume`.
package codegen

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/rtcontract"
	"github.com/sunholo/bloodc/internal/types"
	"tinygo.org/x/go-llvm"
)

// Context is the long-lived state one crate compilation shares across
// every function it emits: the LLVM context/module pair (the builder is
// created per function; mirrored on the teacher's `ctx`/`m`/`b` parameters threaded through
// every gen* call), the runtime contract registry, and the per-DefId
// caches that let one function's codegen reference another's already
// (or not yet) declared LLVM value.
type Context struct {
	Crate *hir.Crate

	ctx     llvm.Context
	mod     llvm.Module
	Runtime *rtcontract.Registry

	// Use128BitGenRefs selects the generational-reference
	// representation: true packs (pointer, generation) into one i128
	// value; false keeps a plain pointer with the generation tracked in
	// a side table the runtime looks up via blood_get_generation.
	Use128BitGenRefs bool

	// BoxDefID names the stdlib Box<T> ADT, when present, so Deref
	// lowering can special-case "unwrap one heap indirection" the way
	// spec.md's place-computation rules require.
	BoxDefID *ids.DefId

	i32, i64, i8ptr llvm.Type

	fnValues     map[ids.DefId]llvm.Value
	adtTypes     map[ids.DefId]llvm.Type
	staticValues map[ids.DefId]llvm.Value
}

// NewContext creates a fresh LLVM context and module named modName,
// ready to compile a crate's MIR bodies into it.
func NewContext(crate *hir.Crate, modName string) *Context {
	ctx := llvm.NewContext()
	mod := ctx.NewModule(modName)

	c := &Context{
		Crate:    crate,
		ctx:      ctx,
		mod:      mod,
		i32:      ctx.Int32Type(),
		i64:      ctx.Int64Type(),
		i8ptr:    llvm.PointerType(ctx.Int8Type(), 0),
		fnValues:     make(map[ids.DefId]llvm.Value),
		adtTypes:     make(map[ids.DefId]llvm.Type),
		staticValues: make(map[ids.DefId]llvm.Value),
	}
	c.Runtime = rtcontract.NewRegistry(mod)
	return c
}

// Module exposes the underlying module for the driver to emit to an
// object file or dump as text once every function has been compiled.
func (c *Context) Module() llvm.Module { return c.mod }

// Dispose frees the underlying LLVM context. Call once compilation of
// the whole crate is finished.
func (c *Context) Dispose() { c.ctx.Dispose() }

// DeclareFn declares (or returns the cached declaration of) the LLVM
// function for a checked fn item, without emitting a body.
func (c *Context) DeclareFn(item *hir.FnItem) llvm.Value {
	if v, ok := c.fnValues[item.DefID]; ok {
		return v
	}
	params := make([]llvm.Type, len(item.Sig.Params))
	for i, p := range item.Sig.Params {
		params[i] = c.LowerType(p)
	}
	ftyp := llvm.FunctionType(c.LowerType(item.Sig.Ret), params, false)

	name := item.DefID.String()
	if info, ok := c.Crate.DefInfo[item.DefID]; ok && info.Name != "" {
		name = info.Name
	}
	fn := llvm.AddFunction(c.mod, name, ftyp)
	c.fnValues[item.DefID] = fn
	return fn
}

// FnValue looks up an already-declared function by DefId, declaring it
// first if the crate has a known FnItem for it (the case of a forward
// reference to a sibling function not yet compiled).
func (c *Context) FnValue(defID ids.DefId) (llvm.Value, error) {
	if v, ok := c.fnValues[defID]; ok {
		return v, nil
	}
	item := c.Crate.Items[defID]
	if item == nil || item.Fn == nil {
		return llvm.Value{}, fmt.Errorf("codegen: no function item for def %s", defID)
	}
	return c.DeclareFn(item.Fn), nil
}

// GlobalFor declares (or returns the cached declaration of) the LLVM
// global backing a module-level static item, alongside its checked
// type for the caller's load/store lowering.
func (c *Context) GlobalFor(defID ids.DefId) (llvm.Value, types.Type, error) {
	item := c.Crate.Items[defID]
	if item == nil || item.Static == nil {
		return llvm.Value{}, nil, fmt.Errorf("codegen: no static item for def %s", defID)
	}
	if v, ok := c.staticValues[defID]; ok {
		return v, item.Static.Type, nil
	}

	name := defID.String()
	if info, ok := c.Crate.DefInfo[defID]; ok && info.Name != "" {
		name = info.Name
	}
	llty := c.LowerType(item.Static.Type)
	g := llvm.AddGlobal(c.mod, llty, name)
	g.SetInitializer(llvm.ConstNull(llty))
	c.staticValues[defID] = g
	return g, item.Static.Type, nil
}
