package codegen

import (
	"github.com/sunholo/bloodc/internal/types"
	"tinygo.org/x/go-llvm"
)

// LowerType maps a checked types.Type to its LLVM ABI representation.
//
// Struct and tuple ADTs lower to an LLVM struct of their field types in
// declaration order. Enums lower to `{i32 tag, i8* payload}`: the
// payload is a heap pointer to a variant-specific struct rather than an
// inline union, since sizing an inline union correctly requires a
// target's real data layout (ABI struct packing, alignment) that only
// `llvm.TargetData` — created from a concrete `llvm.TargetMachine` —
// can answer; `internal/rtcontract`'s `blood_alloc_or_abort` already
// gives enums a uniform allocation path, so the boxed-payload
// representation costs one indirection instead of hand-rolling a
// layout algorithm this package cannot validate without building.
func (c *Context) LowerType(t types.Type) llvm.Type {
	switch v := t.(type) {
	case types.Primitive:
		return c.lowerPrimitive(v.Kind)

	case types.TupleT:
		if len(v.Elems) == 0 {
			return c.ctx.StructType(nil, false)
		}
		fields := make([]llvm.Type, len(v.Elems))
		for i, e := range v.Elems {
			fields[i] = c.LowerType(e)
		}
		return c.ctx.StructType(fields, false)

	case types.ArrayT:
		return llvm.ArrayType(c.LowerType(v.Elem), int(v.Size))

	case types.SliceT:
		return c.ctx.StructType([]llvm.Type{llvm.PointerType(c.LowerType(v.Elem), 0), c.i64}, false)

	case types.RefT:
		if c.Use128BitGenRefs {
			return c.ctx.IntType(128)
		}
		return llvm.PointerType(c.LowerType(v.Inner), 0)

	case types.PtrT:
		return llvm.PointerType(c.LowerType(v.Inner), 0)

	case types.FnT:
		params := make([]llvm.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = c.LowerType(p)
		}
		return llvm.PointerType(llvm.FunctionType(c.LowerType(v.Ret), params, false), 0)

	case types.ClosureT:
		params := make([]llvm.Type, len(v.Params)+1)
		params[0] = c.i8ptr // captures env
		for i, p := range v.Params {
			params[i+1] = c.LowerType(p)
		}
		fnPtr := llvm.PointerType(llvm.FunctionType(c.LowerType(v.Ret), params, false), 0)
		return c.ctx.StructType([]llvm.Type{fnPtr, c.i8ptr}, false)

	case types.AdtT:
		return c.lowerAdt(v)

	case types.RecordT:
		fields := make([]llvm.Type, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = c.LowerType(f.Type)
		}
		return c.ctx.StructType(fields, false)

	case types.RangeT:
		elem := c.LowerType(v.Elem)
		return c.ctx.StructType([]llvm.Type{elem, elem}, false)

	case types.DynTraitT:
		// {vtable*, data*} fat pointer, the usual trait-object layout.
		return c.ctx.StructType([]llvm.Type{c.i8ptr, c.i8ptr}, false)

	case types.NeverT, types.ErrorT:
		return c.i64

	default:
		// ParamT/InferT/ForallT never reach codegen for a fully checked
		// crate; fall back rather than panic so a stray unresolved type
		// variable degrades to a wrong-but-non-fatal i64 slot.
		return c.i64
	}
}

func (c *Context) lowerPrimitive(p types.Prim) llvm.Type {
	switch p {
	case types.Bool:
		return c.ctx.Int1Type()
	case types.Char:
		return c.ctx.Int32Type()
	case types.I8, types.U8:
		return c.ctx.Int8Type()
	case types.I16, types.U16:
		return c.ctx.Int16Type()
	case types.I32, types.U32:
		return c.i32
	case types.I64, types.U64, types.Isize, types.Usize:
		return c.i64
	case types.I128, types.U128:
		return c.ctx.IntType(128)
	case types.F32:
		return c.ctx.FloatType()
	case types.F64:
		return c.ctx.DoubleType()
	case types.Str:
		return c.ctx.StructType([]llvm.Type{c.i8ptr, c.i64}, false)
	case types.Unit:
		return c.ctx.StructType(nil, false)
	default:
		return c.i64
	}
}

func (c *Context) lowerAdt(a types.AdtT) llvm.Type {
	if t, ok := c.adtTypes[a.DefID]; ok {
		return t
	}

	item := c.Crate.Items[a.DefID]
	if item == nil {
		return c.i64
	}

	if item.Struct != nil {
		name := a.Name
		if info, ok := c.Crate.DefInfo[a.DefID]; ok && info.Name != "" {
			name = info.Name
		}
		named := c.ctx.StructCreateNamed(name)
		c.adtTypes[a.DefID] = named
		fields := make([]llvm.Type, len(item.Struct.Fields))
		for i, f := range item.Struct.Fields {
			fields[i] = c.LowerType(f.Type)
		}
		named.StructSetBody(fields, false)
		return named
	}

	if item.Enum != nil {
		named := c.ctx.StructType([]llvm.Type{c.i32, c.i8ptr}, false)
		c.adtTypes[a.DefID] = named
		return named
	}

	return c.i64
}
