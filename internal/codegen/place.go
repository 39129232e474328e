package codegen

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/mir"
	"github.com/sunholo/bloodc/internal/types"
	"tinygo.org/x/go-llvm"
)

// compilePlace walks a Place's base and projections to an addressable
// llvm.Value (always a pointer) plus the checked type stored there,
// the lvalue half of place computation: every Assign target and every
// Ref/Move/Copy operand routes through here first.
func (fs *funcState) compilePlace(p mir.Place) (llvm.Value, types.Type, error) {
	ptr, ty, err := fs.compilePlaceBase(p.Base)
	if err != nil {
		return llvm.Value{}, nil, err
	}
	for _, elem := range p.Projection {
		ptr, ty, err = fs.applyProjection(ptr, ty, elem)
		if err != nil {
			return llvm.Value{}, nil, err
		}
	}
	return ptr, ty, nil
}

func (fs *funcState) compilePlaceBase(base mir.PlaceBase) (llvm.Value, types.Type, error) {
	switch b := base.(type) {
	case mir.LocalBase:
		ptr, ok := fs.allocas[b.Local]
		if !ok {
			return llvm.Value{}, nil, fmt.Errorf("no alloca for local %s", b.Local)
		}
		l := fs.locals[b.Local]
		return ptr, l.Type, nil

	case mir.StaticBase:
		return fs.c.GlobalFor(b.DefID)

	default:
		return llvm.Value{}, nil, fmt.Errorf("unhandled place base %T", base)
	}
}

// applyProjection advances one (ptr, ty) pair through a single
// PlaceElem: Deref loads the pointer held by a reference, a raw
// pointer, or the Box ADT named by Context.BoxDefID and keeps indexing
// (fat pointers get no special case); Field GEPs by the declared field
// index unchanged, for structs, tuples and records only (a Field on an
// enum ADT is rejected; no discriminant slot is skipped); Index/ConstantIndex pick a
// GEP shape by container kind so LLVM's typed-pointer arithmetic can't
// silently multiply by the wrong element stride; Downcast is assertion-
// only bookkeeping, since the boxed-enum representation's payload is
// already a single opaque pointer by the time a Field follows it.
func (fs *funcState) applyProjection(ptr llvm.Value, ty types.Type, elem mir.PlaceElem) (llvm.Value, types.Type, error) {
	switch e := elem.(type) {
	case mir.Deref:
		if adt, ok := ty.(types.AdtT); ok && (fs.c.BoxDefID == nil || *fs.c.BoxDefID != adt.DefID) {
			return llvm.Value{}, nil, fmt.Errorf("deref of non-Box adt %s", adt.DefID)
		}
		inner, err := derefElem(ty)
		if err != nil {
			return llvm.Value{}, nil, err
		}
		loaded := fs.builder.CreateLoad(ptr, "deref.load")
		return loaded, inner, nil

	case mir.Field:
		switch base := ty.(type) {
		case types.TupleT:
			return fs.gepField(ptr, ty, int(e.Index)), base.Elems[e.Index], nil
		case types.RecordT:
			return fs.gepField(ptr, ty, int(e.Index)), base.Fields[e.Index].Type, nil
		case types.AdtT:
			item := fs.c.Crate.Items[base.DefID]
			if item != nil && item.Struct != nil {
				return fs.gepField(ptr, ty, int(e.Index)), item.Struct.Fields[e.Index].Type, nil
			}
			return llvm.Value{}, nil, fmt.Errorf("field projection on non-struct adt %s", base.DefID)
		default:
			return llvm.Value{}, nil, fmt.Errorf("field projection on unsupported type %T", ty)
		}

	case mir.Index:
		elemTy, err := elemType(ty)
		if err != nil {
			return llvm.Value{}, nil, err
		}
		idxPtr, ok := fs.allocas[e.Local]
		if !ok {
			return llvm.Value{}, nil, fmt.Errorf("no alloca for index local %s", e.Local)
		}
		idx := fs.builder.CreateLoad(fs.c.i64, idxPtr, "idx")
		return fs.gepIndex(ptr, ty, elemTy, idx), elemTy, nil

	case mir.ConstantIndex:
		elemTy, err := elemType(ty)
		if err != nil {
			return llvm.Value{}, nil, err
		}
		idx := llvm.ConstInt(fs.c.i64, e.Offset, false)
		return fs.gepIndex(ptr, ty, elemTy, idx), elemTy, nil

	case mir.Subslice:
		elemTy, err := elemType(ty)
		if err != nil {
			return llvm.Value{}, nil, err
		}
		from := llvm.ConstInt(fs.c.i64, e.From, false)
		return fs.gepIndex(ptr, ty, elemTy, from), types.SliceT{Elem: elemTy}, nil

	case mir.Downcast:
		// Assertion-only: the caller already read the tag via a
		// Discriminant rvalue and branched on it, so the place itself
		// does not change shape here.
		return ptr, ty, nil

	default:
		return llvm.Value{}, nil, fmt.Errorf("unhandled place elem %T", elem)
	}
}

func derefElem(ty types.Type) (types.Type, error) {
	switch v := ty.(type) {
	case types.RefT:
		return v.Inner, nil
	case types.PtrT:
		return v.Inner, nil
	case types.AdtT:
		// Box<T>-shaped ADT: its single field's element type is the
		// referent, by the stdlib's Box layout convention.
		if len(v.Args) == 1 {
			return v.Args[0], nil
		}
		return nil, fmt.Errorf("deref of non-Box adt %s", v.DefID)
	default:
		return nil, fmt.Errorf("deref of non-reference type %T", ty)
	}
}

func elemType(ty types.Type) (types.Type, error) {
	switch v := ty.(type) {
	case types.ArrayT:
		return v.Elem, nil
	case types.SliceT:
		return v.Elem, nil
	case types.RefT:
		return elemType(v.Inner)
	default:
		return nil, fmt.Errorf("indexing of non-container type %T", ty)
	}
}

// gepField computes a struct-field address via a typed 2-index GEP
// (base 0, field N), with N used exactly as given.
func (fs *funcState) gepField(ptr llvm.Value, ty types.Type, field int) llvm.Value {
	indices := []llvm.Value{
		llvm.ConstInt(fs.c.i32, 0, false),
		llvm.ConstInt(fs.c.i32, uint64(field), false),
	}
	return fs.builder.CreateGEP(ptr, indices, "field")
}

// gepIndex computes an element address. Fixed-size arrays use LLVM's
// typed array GEP (a 2-index form: base 0, element N) since the array
// type itself carries the correct per-element stride. A reference to a
// container is loaded first and indexed as its referent. A slice's
// out-of-line buffer is addressed through a typed single-index GEP on
// its data pointer, so the stride is the pointer's element type; no i8
// byte-offset arithmetic is done.
func (fs *funcState) gepIndex(ptr llvm.Value, containerTy types.Type, elemTy types.Type, idx llvm.Value) llvm.Value {
	if _, isArray := containerTy.(types.ArrayT); isArray {
		indices := []llvm.Value{llvm.ConstInt(fs.c.i32, 0, false), idx}
		return fs.builder.CreateGEP(ptr, indices, "index")
	}
	if ref, isRef := containerTy.(types.RefT); isRef {
		return fs.gepIndex(fs.builder.CreateLoad(ptr, "ref.load"), ref.Inner, elemTy, idx)
	}

	// Slice: ptr addresses the {data, len} fat-pointer struct, so load
	// the raw data pointer from field 0 first.
	dataPtr := ptr
	if _, isSlice := containerTy.(types.SliceT); isSlice {
		dataField := fs.gepField(ptr, containerTy, 0)
		dataPtr = fs.builder.CreateLoad(dataField, "data")
	}
	return fs.builder.CreateGEP(dataPtr, []llvm.Value{idx}, "index")
}
