package codegen

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/mir"
	"github.com/sunholo/bloodc/internal/types"
	"tinygo.org/x/go-llvm"
)

// funcState is the per-function working set threaded through place and
// terminator lowering: one alloca per local (the teacher's
// alloca-per-param/per-declaration convention from genFuncHeader/
// genDeclaration, generalized to every MIR local rather than just
// source-level declarations) and one llvm.BasicBlock per MIR block.
type funcState struct {
	c       *Context
	fn      llvm.Value
	body    *mir.MirBody
	builder llvm.Builder

	allocas map[ids.LocalId]llvm.Value
	locals  map[ids.LocalId]mir.MirLocal
	blocks  map[ids.BasicBlockId]llvm.BasicBlock
}

// CompileFn emits the LLVM IR body for one checked function's already
// lowered MIR, onto the function value DeclareFn previously created.
func (c *Context) CompileFn(item *hir.FnItem, body *mir.MirBody) error {
	fn := c.DeclareFn(item)

	builder := c.ctx.NewBuilder()
	defer builder.Dispose()

	fs := &funcState{
		c:       c,
		fn:      fn,
		body:    body,
		builder: builder,
		allocas: make(map[ids.LocalId]llvm.Value, len(body.Locals)),
		locals:  make(map[ids.LocalId]mir.MirLocal, len(body.Locals)),
		blocks:  make(map[ids.BasicBlockId]llvm.BasicBlock, len(body.Blocks)),
	}
	for _, l := range body.Locals {
		fs.locals[l.ID] = l
	}

	entry := llvm.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)

	for _, l := range body.Locals {
		fs.allocas[l.ID] = builder.CreateAlloca(c.LowerType(l.Type), localName(l))
	}
	for i, p := range item.ParamLocal {
		builder.CreateStore(fn.Param(i), fs.allocas[p])
	}

	for _, bb := range body.Blocks {
		fs.blocks[bb.ID] = llvm.AddBasicBlock(fn, fmt.Sprintf("bb%d", uint32(bb.ID)))
	}
	builder.CreateBr(fs.blocks[body.Entry])

	for _, bb := range body.Blocks {
		builder.SetInsertPointAtEnd(fs.blocks[bb.ID])
		for _, stmt := range bb.Statements {
			if err := fs.lowerStatement(stmt); err != nil {
				return fmt.Errorf("codegen: %s bb%d: %w", item.DefID, bb.ID, err)
			}
		}
		if err := fs.lowerTerminator(bb.Term); err != nil {
			return fmt.Errorf("codegen: %s bb%d terminator: %w", item.DefID, bb.ID, err)
		}
	}

	return nil
}

func localName(l mir.MirLocal) string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("_local%d", uint32(l.ID))
}

func (fs *funcState) lowerStatement(s mir.Statement) error {
	switch v := s.(type) {
	case mir.Assign:
		ptr, ty, err := fs.compilePlace(v.Place)
		if err != nil {
			return err
		}
		val, err := fs.lowerRvalue(v.Value, ty)
		if err != nil {
			return err
		}
		fs.builder.CreateStore(val, ptr)
		return nil

	case mir.StorageLive, mir.StorageDead:
		// The allocas funcState pre-creates cover a local's whole
		// function-scoped lifetime, so both are no-ops; no generation
		// bookkeeping is emitted for them here or in DropAndReplace.
		return nil

	default:
		return fmt.Errorf("unhandled statement %T", s)
	}
}

func (fs *funcState) lowerRvalue(rv mir.Rvalue, ty types.Type) (llvm.Value, error) {
	switch v := rv.(type) {
	case mir.Use:
		return fs.lowerOperand(v.Operand)

	case mir.BinaryOp:
		return fs.lowerBinaryOp(v)

	case mir.UnaryOp:
		return fs.lowerUnaryOp(v)

	case mir.Ref:
		ptr, _, err := fs.compilePlace(v.Place)
		return ptr, err

	case mir.Discriminant:
		return fs.lowerDiscriminant(v.Place)

	case mir.Aggregate:
		return fs.lowerAggregate(v, ty)

	default:
		return llvm.Value{}, fmt.Errorf("unhandled rvalue %T", rv)
	}
}

func (fs *funcState) lowerAggregate(v mir.Aggregate, ty types.Type) (llvm.Value, error) {
	llty := fs.c.LowerType(ty)
	agg := llvm.ConstNull(llty)

	switch v.Kind {
	case mir.AggVariant:
		// {i32 tag, i8* payload}: the payload fields are boxed onto the
		// heap (LowerType's enum representation) and stored through the
		// second struct slot.
		tag := llvm.ConstInt(fs.c.i32, uint64(v.VariantIdx), false)
		agg = fs.builder.CreateInsertValue(agg, tag, 0, "tag")

		if len(v.Fields) == 0 {
			return agg, nil
		}
		payloadFields := make([]llvm.Type, len(v.Fields))
		vals := make([]llvm.Value, len(v.Fields))
		for i, f := range v.Fields {
			fv, err := fs.lowerOperand(f)
			if err != nil {
				return llvm.Value{}, err
			}
			vals[i] = fv
			payloadFields[i] = fv.Type()
		}
		payloadTy := fs.c.ctx.StructType(payloadFields, false)
		sizeOf := llvm.SizeOf(payloadTy)
		raw, err := fs.c.Runtime.Declare("blood_alloc_or_abort")
		if err != nil {
			return llvm.Value{}, err
		}
		align := llvm.ConstInt(fs.c.i64, 8, false)
		count := llvm.ConstInt(fs.c.i64, 1, false)
		heapPtr := fs.builder.CreateCall(raw, []llvm.Value{sizeOf, align, count}, "variant.payload")
		typed := fs.builder.CreateBitCast(heapPtr, llvm.PointerType(payloadTy, 0), "variant.payload.typed")
		payload := llvm.ConstNull(payloadTy)
		for i, fv := range vals {
			payload = fs.builder.CreateInsertValue(payload, fv, i, "")
		}
		fs.builder.CreateStore(payload, typed)
		agg = fs.builder.CreateInsertValue(agg, fs.builder.CreateBitCast(typed, fs.c.i8ptr, ""), 1, "")
		return agg, nil

	default:
		for i, f := range v.Fields {
			fv, err := fs.lowerOperand(f)
			if err != nil {
				return llvm.Value{}, err
			}
			agg = fs.builder.CreateInsertValue(agg, fv, i, "")
		}
		return agg, nil
	}
}

func (fs *funcState) lowerDiscriminant(p mir.Place) (llvm.Value, error) {
	ptr, _, err := fs.compilePlace(p)
	if err != nil {
		return llvm.Value{}, err
	}
	enumVal := fs.builder.CreateLoad(ptr, "enum.load")
	return fs.builder.CreateExtractValue(enumVal, 0, "tag"), nil
}

func (fs *funcState) lowerBinaryOp(v mir.BinaryOp) (llvm.Value, error) {
	l, err := fs.lowerOperand(v.Left)
	if err != nil {
		return llvm.Value{}, err
	}
	r, err := fs.lowerOperand(v.Right)
	if err != nil {
		return llvm.Value{}, err
	}
	isFloat := l.Type().TypeKind() == llvm.FloatTypeKind || l.Type().TypeKind() == llvm.DoubleTypeKind

	switch v.Op {
	case "+":
		if isFloat {
			return fs.builder.CreateFAdd(l, r, "add"), nil
		}
		return fs.builder.CreateAdd(l, r, "add"), nil
	case "-":
		if isFloat {
			return fs.builder.CreateFSub(l, r, "sub"), nil
		}
		return fs.builder.CreateSub(l, r, "sub"), nil
	case "*":
		if isFloat {
			return fs.builder.CreateFMul(l, r, "mul"), nil
		}
		return fs.builder.CreateMul(l, r, "mul"), nil
	case "/":
		if isFloat {
			return fs.builder.CreateFDiv(l, r, "div"), nil
		}
		return fs.builder.CreateSDiv(l, r, "div"), nil
	case "%":
		if isFloat {
			return fs.builder.CreateFRem(l, r, "rem"), nil
		}
		return fs.builder.CreateSRem(l, r, "rem"), nil
	case "==":
		if isFloat {
			return fs.builder.CreateFCmp(llvm.FloatOEQ, l, r, "eq"), nil
		}
		return fs.builder.CreateICmp(llvm.IntEQ, l, r, "eq"), nil
	case "!=":
		if isFloat {
			return fs.builder.CreateFCmp(llvm.FloatONE, l, r, "ne"), nil
		}
		return fs.builder.CreateICmp(llvm.IntNE, l, r, "ne"), nil
	case "<":
		if isFloat {
			return fs.builder.CreateFCmp(llvm.FloatOLT, l, r, "lt"), nil
		}
		return fs.builder.CreateICmp(llvm.IntSLT, l, r, "lt"), nil
	case "<=":
		if isFloat {
			return fs.builder.CreateFCmp(llvm.FloatOLE, l, r, "le"), nil
		}
		return fs.builder.CreateICmp(llvm.IntSLE, l, r, "le"), nil
	case ">":
		if isFloat {
			return fs.builder.CreateFCmp(llvm.FloatOGT, l, r, "gt"), nil
		}
		return fs.builder.CreateICmp(llvm.IntSGT, l, r, "gt"), nil
	case ">=":
		if isFloat {
			return fs.builder.CreateFCmp(llvm.FloatOGE, l, r, "ge"), nil
		}
		return fs.builder.CreateICmp(llvm.IntSGE, l, r, "ge"), nil
	case "&&", "&":
		return fs.builder.CreateAnd(l, r, "and"), nil
	case "||", "|":
		return fs.builder.CreateOr(l, r, "or"), nil
	case "^":
		return fs.builder.CreateXor(l, r, "xor"), nil
	default:
		return llvm.Value{}, fmt.Errorf("unhandled binary op %q", v.Op)
	}
}

func (fs *funcState) lowerUnaryOp(v mir.UnaryOp) (llvm.Value, error) {
	o, err := fs.lowerOperand(v.Operand)
	if err != nil {
		return llvm.Value{}, err
	}
	switch v.Op {
	case "-":
		if o.Type().TypeKind() == llvm.FloatTypeKind || o.Type().TypeKind() == llvm.DoubleTypeKind {
			return fs.builder.CreateFNeg(o, "neg"), nil
		}
		return fs.builder.CreateNeg(o, "neg"), nil
	case "!":
		return fs.builder.CreateNot(o, "not"), nil
	default:
		return llvm.Value{}, fmt.Errorf("unhandled unary op %q", v.Op)
	}
}

func (fs *funcState) lowerOperand(o mir.Operand) (llvm.Value, error) {
	switch v := o.(type) {
	case mir.Move:
		ptr, _, err := fs.compilePlace(v.Place)
		if err != nil {
			return llvm.Value{}, err
		}
		return fs.builder.CreateLoad(ptr, "mv"), nil

	case mir.Copy:
		ptr, _, err := fs.compilePlace(v.Place)
		if err != nil {
			return llvm.Value{}, err
		}
		return fs.builder.CreateLoad(ptr, "cp"), nil

	case mir.OpConstant:
		return fs.lowerConstant(v.Constant)

	default:
		return llvm.Value{}, fmt.Errorf("unhandled operand %T", o)
	}
}

func (fs *funcState) lowerConstant(c mir.Constant) (llvm.Value, error) {
	switch k := c.Kind.(type) {
	case mir.IntConst:
		return llvm.ConstInt(fs.c.LowerType(c.Type), uint64(k.Value), true), nil
	case mir.FloatConst:
		return llvm.ConstFloat(fs.c.LowerType(c.Type), k.Value), nil
	case mir.BoolConst:
		v := uint64(0)
		if k.Value {
			v = 1
		}
		return llvm.ConstInt(fs.c.ctx.Int1Type(), v, false), nil
	case mir.StrConst:
		data := fs.builder.CreateGlobalStringPtr(k.Value, "str.lit")
		n := llvm.ConstInt(fs.c.i64, uint64(len(k.Value)), false)
		strTy := fs.c.ctx.StructType([]llvm.Type{fs.c.i8ptr, fs.c.i64}, false)
		agg := llvm.ConstNull(strTy)
		agg = fs.builder.CreateInsertValue(agg, data, 0, "")
		agg = fs.builder.CreateInsertValue(agg, n, 1, "")
		return agg, nil
	case mir.UnitConst:
		return llvm.ConstNull(fs.c.ctx.StructType(nil, false)), nil
	case mir.FnDefConst:
		fn, err := fs.c.FnValue(k.DefID)
		if err != nil {
			return llvm.Value{}, err
		}
		return fn, nil
	default:
		return llvm.Value{}, fmt.Errorf("unhandled constant kind %T", c.Kind)
	}
}
