package mir

import (
	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/dtree"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

// Builder lowers one hir.Body into a MirBody, one expression at a
// time, allocating a fresh basic block whenever control branches.
type Builder struct {
	crate *hir.Crate

	locals     []MirLocal
	nextLocal  ids.LocalId
	localOf    map[ids.LocalId]ids.LocalId // hir local -> mir local (shifted by the return slot)
	blocks     []BasicBlock
	curBlockID ids.BasicBlockId
}

// NewBuilder prepares a Builder over crate, the fully checked program
// a single MIR lowering pass runs against (lambdas reference sibling
// bodies by id, so the whole crate must be in scope).
func NewBuilder(crate *hir.Crate) *Builder {
	return &Builder{crate: crate}
}

// Lower compiles one checked Body (a function, const/static initializer,
// or handler-op body) into a MirBody.
func (b *Builder) Lower(body *hir.Body) *MirBody {
	b.locals = nil
	b.localOf = make(map[ids.LocalId]ids.LocalId, len(body.Locals)+1)
	b.nextLocal = 0
	b.blocks = nil

	retTy := body.Root.Type()
	retSlot := b.newTemp(retTy)

	for _, l := range body.Locals {
		mirID := b.newTemp(l.Type)
		b.localOf[l.ID] = mirID
		b.locals[mirID].Name = l.Name
		b.locals[mirID].Mutable = l.Mutable
	}

	entry := b.newBlock()
	b.curBlockID = entry

	result := b.lowerExpr(body.Root)
	b.emit(Assign{Place: localPlace(retSlot), Value: Use{Operand: result}})
	b.terminate(Return{})

	return &MirBody{
		Source:     body.ID,
		Locals:     b.locals,
		ParamCount: body.ParamCount,
		Blocks:     b.blocks,
		Entry:      entry,
	}
}

func localPlace(id ids.LocalId) Place { return Place{Base: LocalBase{Local: id}} }

func (b *Builder) newTemp(ty types.Type) ids.LocalId {
	id := b.nextLocal
	b.nextLocal++
	b.locals = append(b.locals, MirLocal{ID: id, Type: ty})
	return id
}

func (b *Builder) newBlock() ids.BasicBlockId {
	id := ids.BasicBlockId(len(b.blocks))
	b.blocks = append(b.blocks, BasicBlock{ID: id})
	return id
}

func (b *Builder) curBlock() *BasicBlock {
	for i := range b.blocks {
		if b.blocks[i].ID == b.curBlockID {
			return &b.blocks[i]
		}
	}
	return nil
}

func (b *Builder) emit(s Statement) { bb := b.curBlock(); bb.Statements = append(bb.Statements, s) }

func (b *Builder) terminate(t Terminator) { b.curBlock().Term = t }

func (b *Builder) emitAssignTemp(ty types.Type, rv Rvalue) ids.LocalId {
	t := b.newTemp(ty)
	b.emit(Assign{Place: localPlace(t), Value: rv})
	return t
}

// lowerExpr lowers e and returns an operand reading its value; control
// flow forms (If, Match, Perform) assign into a fresh temp across their
// branches and return a Move of it, while Resume terminates the current
// block and returns a unit constant.
func (b *Builder) lowerExpr(e hir.Expr) Operand {
	switch v := e.(type) {
	case hir.Lit:
		return OpConstant{Constant: litConstant(v)}

	case hir.Var:
		if v.Def.IsValid() {
			return OpConstant{Constant: Constant{Kind: FnDefConst{DefID: v.Def}, Type: v.Ty}}
		}
		return Move{Place: localPlace(b.mirLocal(v.Local))}

	case hir.BinOp:
		l := b.lowerExpr(v.Left)
		r := b.lowerExpr(v.Right)
		t := b.emitAssignTemp(v.Ty, BinaryOp{Op: v.Op, Left: l, Right: r})
		return Move{Place: localPlace(t)}

	case hir.UnaryOp:
		o := b.lowerExpr(v.Expr)
		t := b.emitAssignTemp(v.Ty, UnaryOp{Op: v.Op, Operand: o})
		return Move{Place: localPlace(t)}

	case hir.Let:
		val := b.lowerExpr(v.Value)
		dst := b.mirLocal(v.Local)
		b.emit(Assign{Place: localPlace(dst), Value: Use{Operand: val}})
		return b.lowerExpr(v.Body)

	case hir.Block:
		var last Operand = OpConstant{Constant: Constant{Kind: UnitConst{}, Type: types.TUnit}}
		for _, sub := range v.Exprs {
			last = b.lowerExpr(sub)
		}
		return last

	case hir.If:
		return b.lowerIf(v)

	case hir.Match:
		return b.lowerMatch(v)

	case hir.TupleExpr:
		fields := make([]Operand, len(v.Elems))
		for i, el := range v.Elems {
			fields[i] = b.lowerExpr(el)
		}
		t := b.emitAssignTemp(v.Ty, Aggregate{Kind: AggTuple, DefID: ids.NoDefId, Fields: fields})
		return Move{Place: localPlace(t)}

	case hir.ArrayExpr:
		fields := make([]Operand, len(v.Elems))
		for i, el := range v.Elems {
			fields[i] = b.lowerExpr(el)
		}
		t := b.emitAssignTemp(v.Ty, Aggregate{Kind: AggArray, DefID: ids.NoDefId, Fields: fields})
		return Move{Place: localPlace(t)}

	case hir.RecordExpr:
		fields := make([]Operand, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = b.lowerExpr(f.Value)
		}
		defID := ids.NoDefId
		if adt, ok := v.Ty.(types.AdtT); ok {
			defID = adt.DefID
		}
		t := b.emitAssignTemp(v.Ty, Aggregate{Kind: AggStruct, DefID: defID, Fields: fields})
		return Move{Place: localPlace(t)}

	case hir.RecordAccess:
		base := b.lowerExpr(v.Record)
		place := b.placeOf(base)
		place.Projection = append(place.Projection, Field{Index: uint32(v.Field), Name: v.Field})
		return Move{Place: place}

	case hir.RecordUpdate:
		base := b.lowerExpr(v.Base)
		t := b.emitAssignTemp(v.Ty, Use{Operand: base})
		for _, f := range v.Fields {
			val := b.lowerExpr(f.Value)
			place := localPlace(t)
			place.Projection = append(place.Projection, Field{Index: uint32(f.Name), Name: f.Name})
			b.emit(Assign{Place: place, Value: Use{Operand: val}})
		}
		return Move{Place: localPlace(t)}

	case hir.Call:
		callee := b.lowerExpr(v.Callee)
		args := make([]Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = b.lowerExpr(a)
		}
		return b.lowerCallLike(callee, args, v.Ty)

	case hir.MethodCall:
		recv := b.lowerExpr(v.Receiver)
		args := make([]Operand, len(v.Args)+1)
		args[0] = recv
		for i, a := range v.Args {
			args[i+1] = b.lowerExpr(a)
		}
		callee := OpConstant{Constant: Constant{Kind: FnDefConst{DefID: v.Method}, Type: v.Ty}}
		return b.lowerCallLike(callee, args, v.Ty)

	case hir.Cast:
		o := b.lowerExpr(v.Expr)
		t := b.emitAssignTemp(v.Target, Use{Operand: o})
		return Move{Place: localPlace(t)}

	case hir.Perform:
		return b.lowerPerform(v)

	case hir.Resume:
		o := b.lowerExpr(v.Value)
		b.terminate(Resume{Value: &o})
		b.curBlockID = b.newBlock()
		return OpConstant{Constant: Constant{Kind: UnitConst{}, Type: types.TUnit}}

	case hir.WithHandle:
		// WithHandle's Body lowers inline. No handler push/pop is
		// emitted, here or in internal/codegen.
		return b.lowerExpr(v.Body)

	case hir.Lambda:
		t := b.emitAssignTemp(v.Ty, Aggregate{Kind: AggClosure, DefID: ids.NoDefId, Fields: nil})
		return Move{Place: localPlace(t)}

	case hir.ErrorExpr:
		return OpConstant{Constant: Constant{Kind: UnitConst{}, Type: types.TError}}

	default:
		return OpConstant{Constant: Constant{Kind: UnitConst{}, Type: types.TError}}
	}
}

func (b *Builder) mirLocal(hirLocal ids.LocalId) ids.LocalId {
	if id, ok := b.localOf[hirLocal]; ok {
		return id
	}
	return hirLocal
}

// placeOf recovers the Place an operand reads from, materializing a
// fresh temp for operands that are themselves constants (so a field
// projection always has somewhere to project from).
func (b *Builder) placeOf(o Operand) Place {
	switch v := o.(type) {
	case Move:
		return v.Place
	case Copy:
		return v.Place
	case OpConstant:
		t := b.emitAssignTemp(v.Constant.Type, Use{Operand: o})
		return localPlace(t)
	default:
		return Place{}
	}
}

func litConstant(l hir.Lit) Constant {
	switch l.Kind {
	case ast.IntLit:
		n, _ := l.Value.(int64)
		return Constant{Kind: IntConst{Value: n}, Type: l.Ty}
	case ast.FloatLit:
		f, _ := l.Value.(float64)
		return Constant{Kind: FloatConst{Value: f}, Type: l.Ty}
	case ast.StringLit:
		s, _ := l.Value.(string)
		return Constant{Kind: StrConst{Value: s}, Type: l.Ty}
	case ast.BoolLit:
		bv, _ := l.Value.(bool)
		return Constant{Kind: BoolConst{Value: bv}, Type: l.Ty}
	default:
		return Constant{Kind: UnitConst{}, Type: l.Ty}
	}
}

func (b *Builder) lowerIf(v hir.If) Operand {
	cond := b.lowerExpr(v.Cond)
	thenBB, elseBB, mergeBB := b.newBlock(), b.newBlock(), b.newBlock()
	b.terminate(SwitchInt{Discriminant: cond, Targets: SwitchTargets{
		Branches:  map[int64]ids.BasicBlockId{1: thenBB},
		Otherwise: elseBB,
	}})

	result := b.newTemp(v.Ty)

	b.curBlockID = thenBB
	thenVal := b.lowerExpr(v.Then)
	b.emit(Assign{Place: localPlace(result), Value: Use{Operand: thenVal}})
	b.terminate(Goto{Target: mergeBB})

	b.curBlockID = elseBB
	elseVal := b.lowerExpr(v.Else)
	b.emit(Assign{Place: localPlace(result), Value: Use{Operand: elseVal}})
	b.terminate(Goto{Target: mergeBB})

	b.curBlockID = mergeBB
	return Move{Place: localPlace(result)}
}

// lowerMatch compiles the arms via internal/dtree's decision tree, then
// walks that tree emitting one SwitchInt per discriminated position.
func (b *Builder) lowerMatch(v hir.Match) Operand {
	scrutinee := b.lowerExpr(v.Scrutinee)
	scrutPlace := b.placeOf(scrutinee)

	result := b.newTemp(v.Ty)
	mergeBB := b.newBlock()

	tree := dtree.NewDecisionTreeCompiler(v.Arms).Compile()
	b.lowerDecisionTree(tree, v.Arms, scrutPlace, result, mergeBB)

	b.curBlockID = mergeBB
	return Move{Place: localPlace(result)}
}

func (b *Builder) lowerDecisionTree(node dtree.DecisionTree, arms []hir.MatchArm, scrutinee Place, result ids.LocalId, mergeBB ids.BasicBlockId) {
	switch t := node.(type) {
	case *dtree.LeafNode:
		if t.Guard != nil {
			cond := b.lowerExpr(t.Guard)
			okBB, failBB := b.newBlock(), b.newBlock()
			b.terminate(SwitchInt{Discriminant: cond, Targets: SwitchTargets{
				Branches:  map[int64]ids.BasicBlockId{1: okBB},
				Otherwise: failBB,
			}})
			b.curBlockID = okBB
			val := b.lowerExpr(t.Body)
			b.emit(Assign{Place: localPlace(result), Value: Use{Operand: val}})
			b.terminate(Goto{Target: mergeBB})
			b.curBlockID = failBB
			return
		}
		val := b.lowerExpr(t.Body)
		b.emit(Assign{Place: localPlace(result), Value: Use{Operand: val}})
		b.terminate(Goto{Target: mergeBB})

	case *dtree.FailNode:
		b.terminate(Unreachable{})

	case *dtree.SwitchNode:
		discr := b.emitAssignTemp(types.TI64, Discriminant{Place: scrutinee})

		branches := make(map[int64]ids.BasicBlockId, len(t.Cases))
		defaultBB := b.newBlock()
		for key, sub := range t.Cases {
			caseBB := b.newBlock()
			branches[dtree.CaseDiscriminant(key)] = caseBB
			saved := b.curBlockID
			b.curBlockID = caseBB
			b.lowerDecisionTree(sub, arms, scrutinee, result, mergeBB)
			b.curBlockID = saved
		}
		b.terminate(SwitchInt{Discriminant: Move{Place: localPlace(discr)}, Targets: SwitchTargets{Branches: branches, Otherwise: defaultBB}})

		b.curBlockID = defaultBB
		if t.Default != nil {
			b.lowerDecisionTree(t.Default, arms, scrutinee, result, mergeBB)
		} else {
			b.terminate(Unreachable{})
		}
	}
}

func (b *Builder) lowerPerform(v hir.Perform) Operand {
	args := make([]Operand, len(v.Args))
	for i, a := range v.Args {
		args[i] = b.lowerExpr(a)
	}
	dst := b.newTemp(v.Ty)
	cont := b.newBlock()
	opIdx := opIndexOf(b.crate, v.EffectDef, v.Op)
	b.terminate(Perform{
		EffectID: v.EffectDef, OpIndex: opIdx, Args: args,
		Destination: localPlace(dst), Target: &cont,
	})
	b.curBlockID = cont
	return Move{Place: localPlace(dst)}
}

// lowerCallLike lowers a direct or dispatched call into a Call
// terminator, returning the destination temp as the expression's value.
func (b *Builder) lowerCallLike(callee Operand, args []Operand, ty types.Type) Operand {
	dst := b.newTemp(ty)
	cont := b.newBlock()
	b.terminate(Call{Func: callee, Args: args, Destination: localPlace(dst), Target: &cont})
	b.curBlockID = cont
	return Move{Place: localPlace(dst)}
}

func opIndexOf(crate *hir.Crate, effectID ids.DefId, op string) uint32 {
	item := crate.Items[effectID]
	if item == nil || item.Effect == nil {
		return 0
	}
	for i, o := range item.Effect.Info.Ops {
		if o.Name == op {
			return uint32(i)
		}
	}
	return 0
}
