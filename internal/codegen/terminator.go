package codegen

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/mir"
	"github.com/sunholo/bloodc/internal/types"
	"tinygo.org/x/go-llvm"
)

// lowerTerminator emits the one control-transfer instruction that ends
// a basic block, per the per-kind rules: Goto/Return/Unreachable are
// direct; SwitchInt drives both `if` and `match` lowering; Call covers
// direct and closure application; Assert guards a runtime invariant
// with a conditional panic; DropAndReplace stores the new value without
// running drop glue; Perform/Resume/StaleReference implement the
// generational-reference snapshot protocol around effect handling.
func (fs *funcState) lowerTerminator(t mir.Terminator) error {
	switch v := t.(type) {
	case mir.Goto:
		fs.builder.CreateBr(fs.blocks[v.Target])
		return nil

	case mir.SwitchInt:
		return fs.lowerSwitchInt(v)

	case mir.Return:
		return fs.lowerReturn()

	case mir.Unreachable:
		fs.builder.CreateUnreachable()
		return nil

	case mir.Call:
		return fs.lowerCall(v)

	case mir.Assert:
		return fs.lowerAssert(v)

	case mir.DropAndReplace:
		return fs.lowerDropAndReplace(v)

	case mir.Perform:
		return fs.lowerPerform(v)

	case mir.Resume:
		return fs.lowerResume(v)

	case mir.StaleReference:
		return fs.lowerStaleReference(v)

	default:
		return fmt.Errorf("unhandled terminator %T", t)
	}
}

func (fs *funcState) lowerSwitchInt(v mir.SwitchInt) error {
	disc, err := fs.lowerOperand(v.Discriminant)
	if err != nil {
		return err
	}
	sw := fs.builder.CreateSwitch(disc, fs.blocks[v.Targets.Otherwise], len(v.Targets.Branches))
	for val, target := range v.Targets.Branches {
		sw.AddCase(llvm.ConstInt(disc.Type(), uint64(val), true), fs.blocks[target])
	}
	return nil
}

func (fs *funcState) lowerReturn() error {
	retLocal, ok := fs.locals[0]
	if !ok {
		return fmt.Errorf("missing return slot local _0")
	}
	if types.IsUnitLike(retLocal.Type) {
		fs.builder.CreateRetVoid()
		return nil
	}
	val := fs.builder.CreateLoad(fs.allocas[0], "ret")
	fs.builder.CreateRet(val)
	return nil
}

// operandType resolves the checked type of an operand without
// re-emitting any instructions, needed ahead of a Call/Perform to pick
// the direct/closure calling convention and the right result type.
func (fs *funcState) operandType(o mir.Operand) (types.Type, error) {
	switch v := o.(type) {
	case mir.Move:
		_, ty, err := fs.compilePlace(v.Place)
		return ty, err
	case mir.Copy:
		_, ty, err := fs.compilePlace(v.Place)
		return ty, err
	case mir.OpConstant:
		return v.Constant.Type, nil
	default:
		return nil, fmt.Errorf("unhandled operand %T", o)
	}
}

// lowerCall dispatches a Call terminator to one of two shapes: a closure
// call, which unpacks the {fnPtr, env} pair and prepends the captures
// pointer to args, or a direct call of whatever value the callee
// operand lowers to. There is no builtin-table lookup: a FnDefConst
// whose def has no hir.FnItem fails when its function value is resolved.
func (fs *funcState) lowerCall(v mir.Call) error {
	calleeTy, err := fs.operandType(v.Func)
	if err != nil {
		return err
	}

	args := make([]llvm.Value, 0, len(v.Args)+1)

	var callee llvm.Value
	if _, isClosure := calleeTy.(types.ClosureT); isClosure {
		closureVal, err := fs.lowerOperand(v.Func)
		if err != nil {
			return err
		}
		callee = fs.builder.CreateExtractValue(closureVal, 0, "closure.fn")
		env := fs.builder.CreateExtractValue(closureVal, 1, "closure.env")
		args = append(args, env)
	} else {
		callee, err = fs.lowerOperand(v.Func)
		if err != nil {
			return err
		}
	}

	for _, a := range v.Args {
		av, err := fs.lowerOperand(a)
		if err != nil {
			return err
		}
		args = append(args, av)
	}

	result := fs.builder.CreateCall(callee, args, "call")

	destPtr, destTy, err := fs.compilePlace(v.Destination)
	if err != nil {
		return err
	}
	if !types.IsUnitLike(destTy) {
		fs.builder.CreateStore(result, destPtr)
	}

	if v.Target == nil {
		fs.builder.CreateUnreachable()
		return nil
	}
	fs.builder.CreateBr(fs.blocks[*v.Target])
	return nil
}

// lowerAssert lowers a runtime-checked invariant: branch to Target when
// Cond matches Expected, otherwise call the panic runtime entry with
// Message and fall through to Unreachable, matching blood_panic's
// NoReturn contract.
func (fs *funcState) lowerAssert(v mir.Assert) error {
	cond, err := fs.lowerOperand(v.Cond)
	if err != nil {
		return err
	}
	expected := llvm.ConstInt(cond.Type(), boolToU64(v.Expected), false)
	ok := fs.builder.CreateICmp(llvm.IntEQ, cond, expected, "assert.ok")

	okBB := llvm.AddBasicBlock(fs.fn, "assert.ok")
	failBB := llvm.AddBasicBlock(fs.fn, "assert.fail")
	fs.builder.CreateCondBr(ok, okBB, failBB)

	fs.builder.SetInsertPointAtEnd(failBB)
	panicFn, err := fs.c.Runtime.Declare("blood_panic")
	if err != nil {
		return err
	}
	msg := fs.builder.CreateGlobalStringPtr(v.Message, "assert.msg")
	fs.builder.CreateCall(panicFn, []llvm.Value{msg}, "")
	fs.builder.CreateUnreachable()

	fs.builder.SetInsertPointAtEnd(okBB)
	fs.builder.CreateBr(fs.blocks[v.Target])
	return nil
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (fs *funcState) lowerDropAndReplace(v mir.DropAndReplace) error {
	ptr, _, err := fs.compilePlace(v.Place)
	if err != nil {
		return err
	}
	// The old value is overwritten in place: it is not loaded, no drop
	// glue runs, and no generation slot is invalidated.
	newVal, err := fs.lowerOperand(v.Value)
	if err != nil {
		return err
	}
	fs.builder.CreateStore(newVal, ptr)
	fs.builder.CreateBr(fs.blocks[v.Target])
	return nil
}

// lowerPerform implements the six-step `perform` protocol: snapshot the
// currently-live generational references captured by the op, call into
// the runtime's perform entry (the snapshot id is passed in its
// continuation slot; no separate continuation handle is created), then
// validate the snapshot on return. The valid path destroys the snapshot;
// the stale path ends in the non-returning stale panic without
// destroying it. A
// tail-resumptive op (the handler's only resume call is in tail
// position) degenerates to a direct synchronous call: no continuation
// capture is needed since control never actually suspends.
func (fs *funcState) lowerPerform(v mir.Perform) error {
	if v.IsTailResumptive {
		return fs.lowerTailResumptivePerform(v)
	}

	createSnap, err := fs.c.Runtime.Declare("blood_snapshot_create")
	if err != nil {
		return err
	}
	snap := fs.builder.CreateCall(createSnap, nil, "perform.snapshot")

	addEntry, err := fs.c.Runtime.Declare("blood_snapshot_add_entry")
	if err != nil {
		return err
	}
	argVals := make([]llvm.Value, 0, len(v.Args))
	for _, a := range v.Args {
		av, err := fs.lowerOperand(a)
		if err != nil {
			return err
		}
		argVals = append(argVals, av)
		// Every reference-typed argument the op captures is recorded in
		// the snapshot so a later stale-reference check can catch a
		// handler that outlives the generation it captured.
		if _, isRef := mustOperandType(fs, a); isRef {
			var addr, gen llvm.Value
			if fs.c.Use128BitGenRefs {
				addr = fs.builder.CreateTrunc(fs.builder.CreateLShr(av, llvm.ConstInt(av.Type(), 64, false), ""), fs.c.i64, "ref.addr")
				gen = fs.builder.CreateTrunc(fs.builder.CreateLShr(av, llvm.ConstInt(av.Type(), 32, false), ""), fs.c.i32, "ref.gen")
			} else {
				addr = fs.builder.CreatePtrToInt(av, fs.c.i64, "ref.addr")
				getGen, err := fs.c.Runtime.Declare("blood_get_generation")
				if err != nil {
					return err
				}
				gen = fs.builder.CreateCall(getGen, []llvm.Value{addr}, "ref.gen")
			}
			fs.builder.CreateCall(addEntry, []llvm.Value{snap, addr, gen}, "")
		}
	}

	argBuf := fs.packArgs(argVals)
	perform, err := fs.c.Runtime.Declare("blood_perform")
	if err != nil {
		return err
	}
	effectID := llvm.ConstInt(fs.c.i64, uint64(v.EffectID), false)
	opIdx := llvm.ConstInt(fs.c.i32, uint64(v.OpIndex), false)
	argc := llvm.ConstInt(fs.c.i64, uint64(len(argVals)), false)
	raw := fs.builder.CreateCall(perform, []llvm.Value{effectID, opIdx, argBuf, argc, snap}, "perform.result")

	destPtr, destTy, err := fs.compilePlace(v.Destination)
	if err != nil {
		return err
	}
	if !types.IsUnitLike(destTy) {
		converted := fs.convertI64To(raw, destTy)
		fs.builder.CreateStore(converted, destPtr)
	}

	validate, err := fs.c.Runtime.Declare("blood_snapshot_validate")
	if err != nil {
		return err
	}
	validity := fs.builder.CreateCall(validate, []llvm.Value{snap}, "perform.valid")
	staleBB := llvm.AddBasicBlock(fs.fn, "perform.stale")
	contBB := llvm.AddBasicBlock(fs.fn, "perform.cont")
	isStale := fs.builder.CreateICmp(llvm.IntNE, validity, llvm.ConstInt(validity.Type(), 0, false), "perform.isstale")
	fs.builder.CreateCondBr(isStale, staleBB, contBB)

	fs.builder.SetInsertPointAtEnd(staleBB)
	stalePanic, err := fs.c.Runtime.Declare("blood_snapshot_stale_panic")
	if err != nil {
		return err
	}
	fs.builder.CreateCall(stalePanic, []llvm.Value{snap, effectID}, "")
	fs.builder.CreateUnreachable()

	fs.builder.SetInsertPointAtEnd(contBB)
	destroy, err := fs.c.Runtime.Declare("blood_snapshot_destroy")
	if err != nil {
		return err
	}
	fs.builder.CreateCall(destroy, []llvm.Value{snap}, "")

	if v.Target == nil {
		fs.builder.CreateUnreachable()
		return nil
	}
	fs.builder.CreateBr(fs.blocks[*v.Target])
	return nil
}

// lowerTailResumptivePerform elides the continuation/snapshot machinery
// entirely: the handler resumes synchronously, exactly once, so the
// perform site can call straight into blood_perform with a null
// continuation and use the result immediately.
func (fs *funcState) lowerTailResumptivePerform(v mir.Perform) error {
	argVals := make([]llvm.Value, 0, len(v.Args))
	for _, a := range v.Args {
		av, err := fs.lowerOperand(a)
		if err != nil {
			return err
		}
		argVals = append(argVals, av)
	}
	argBuf := fs.packArgs(argVals)

	perform, err := fs.c.Runtime.Declare("blood_perform")
	if err != nil {
		return err
	}
	effectID := llvm.ConstInt(fs.c.i64, uint64(v.EffectID), false)
	opIdx := llvm.ConstInt(fs.c.i32, uint64(v.OpIndex), false)
	argc := llvm.ConstInt(fs.c.i64, uint64(len(argVals)), false)
	nullCont := llvm.ConstInt(fs.c.i64, 0, false)
	raw := fs.builder.CreateCall(perform, []llvm.Value{effectID, opIdx, argBuf, argc, nullCont}, "perform.result")

	destPtr, destTy, err := fs.compilePlace(v.Destination)
	if err != nil {
		return err
	}
	if !types.IsUnitLike(destTy) {
		fs.builder.CreateStore(fs.convertI64To(raw, destTy), destPtr)
	}

	if v.Target == nil {
		fs.builder.CreateUnreachable()
		return nil
	}
	fs.builder.CreateBr(fs.blocks[*v.Target])
	return nil
}

// lowerResume stores the handler's computed value into the return
// slot, looks up the effect context's active snapshot (if any) and
// validates it before returning control to the suspended perform site.
func (fs *funcState) lowerResume(v mir.Resume) error {
	if v.Value != nil {
		val, err := fs.lowerOperand(*v.Value)
		if err != nil {
			return err
		}
		fs.builder.CreateStore(val, fs.allocas[0])
	}

	getSnap, err := fs.c.Runtime.Declare("blood_effect_context_get_snapshot")
	if err != nil {
		return err
	}
	snap := fs.builder.CreateCall(getSnap, nil, "resume.snapshot")

	hasSnapBB := llvm.AddBasicBlock(fs.fn, "resume.hassnap")
	doneBB := llvm.AddBasicBlock(fs.fn, "resume.done")
	isNull := fs.builder.CreateICmp(llvm.IntEQ, snap, llvm.ConstInt(snap.Type(), 0, false), "resume.isnull")
	fs.builder.CreateCondBr(isNull, doneBB, hasSnapBB)

	fs.builder.SetInsertPointAtEnd(hasSnapBB)
	validate, err := fs.c.Runtime.Declare("blood_snapshot_validate")
	if err != nil {
		return err
	}
	validity := fs.builder.CreateCall(validate, []llvm.Value{snap}, "resume.valid")
	staleBB := llvm.AddBasicBlock(fs.fn, "resume.stale")
	isStale := fs.builder.CreateICmp(llvm.IntNE, validity, llvm.ConstInt(validity.Type(), 0, false), "resume.isstale")
	fs.builder.CreateCondBr(isStale, staleBB, doneBB)

	fs.builder.SetInsertPointAtEnd(staleBB)
	stalePanic, err := fs.c.Runtime.Declare("blood_snapshot_stale_panic")
	if err != nil {
		return err
	}
	fs.builder.CreateCall(stalePanic, []llvm.Value{snap, llvm.ConstInt(fs.c.i64, 0, false)}, "")
	fs.builder.CreateUnreachable()

	fs.builder.SetInsertPointAtEnd(doneBB)
	fs.builder.CreateRetVoid()
	return nil
}

func (fs *funcState) lowerStaleReference(v mir.StaleReference) error {
	// v.Ptr identifies the stale place for diagnostics only; the actual
	// panic call carries just the two generation numbers.
	if _, _, err := fs.compilePlace(v.Ptr); err != nil {
		return err
	}
	stalePanic, err := fs.c.Runtime.Declare("blood_stale_reference_panic")
	if err != nil {
		return err
	}
	expected := llvm.ConstInt(fs.c.i32, uint64(v.Expected), false)
	actual := llvm.ConstInt(fs.c.i32, uint64(v.Actual), false)
	fs.builder.CreateCall(stalePanic, []llvm.Value{expected, actual}, "")
	fs.builder.CreateUnreachable()
	return nil
}

// packArgs boxes a Perform's argument values into a single contiguous
// buffer the runtime's blood_perform reads by (buffer, argc): each
// argument is widened/truncated to one i64 slot, the lowest common
// representation every primitive and pointer in this ABI fits into.
func (fs *funcState) packArgs(args []llvm.Value) llvm.Value {
	if len(args) == 0 {
		return llvm.ConstNull(llvm.PointerType(fs.c.i64, 0))
	}
	slot := fs.builder.CreateAlloca(llvm.ArrayType(fs.c.i64, len(args)), "perform.args")
	for i, a := range args {
		idx := []llvm.Value{llvm.ConstInt(fs.c.i32, 0, false), llvm.ConstInt(fs.c.i32, uint64(i), false)}
		elemPtr := fs.builder.CreateGEP(slot, idx, "perform.arg")
		fs.builder.CreateStore(fs.widenToI64(a), elemPtr)
	}
	first := []llvm.Value{llvm.ConstInt(fs.c.i32, 0, false), llvm.ConstInt(fs.c.i32, 0, false)}
	return fs.builder.CreateGEP(slot, first, "perform.argbuf")
}

func (fs *funcState) widenToI64(v llvm.Value) llvm.Value {
	switch v.Type().TypeKind() {
	case llvm.IntegerTypeKind:
		if v.Type().IntTypeWidth() < 64 {
			return fs.builder.CreateZExt(v, fs.c.i64, "")
		}
		if v.Type().IntTypeWidth() > 64 {
			return fs.builder.CreateTrunc(v, fs.c.i64, "")
		}
		return v
	case llvm.PointerTypeKind:
		return fs.builder.CreatePtrToInt(v, fs.c.i64, "")
	case llvm.FloatTypeKind, llvm.DoubleTypeKind:
		return fs.builder.CreateBitCast(v, fs.c.i64, "")
	default:
		return v
	}
}

// convertI64To narrows blood_perform's uniform i64 result back to the
// perform expression's actual checked type.
func (fs *funcState) convertI64To(raw llvm.Value, ty types.Type) llvm.Value {
	llty := fs.c.LowerType(ty)
	switch llty.TypeKind() {
	case llvm.IntegerTypeKind:
		if llty.IntTypeWidth() < 64 {
			return fs.builder.CreateTrunc(raw, llty, "")
		}
		return raw
	case llvm.PointerTypeKind:
		return fs.builder.CreateIntToPtr(raw, llty, "")
	default:
		return raw
	}
}

// mustOperandType reports whether an operand's static type is a
// generational reference, used to decide which Perform arguments need
// a snapshot entry. Lowering has already type-checked every operand
// successfully by this point, so a resolution failure here can only
// mean a compiler-internal inconsistency; it is treated as "not a
// reference" rather than aborting codegen outright.
func mustOperandType(fs *funcState, o mir.Operand) (types.Type, bool) {
	ty, err := fs.operandType(o)
	if err != nil {
		return nil, false
	}
	_, isRef := ty.(types.RefT)
	return ty, isRef
}
