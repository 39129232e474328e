package mir

import (
	"testing"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/effects"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/types"
)

func base(ty types.Type) hir.ExprBase { return hir.ExprBase{Ty: ty, Eff: types.Pure()} }

func intLit(n int64) hir.Lit {
	return hir.Lit{ExprBase: base(types.TI64), Kind: ast.IntLit, Value: n}
}

func TestLowerArithmeticBody(t *testing.T) {
	body := &hir.Body{
		ID:         1,
		ParamCount: 0,
		Root: hir.BinOp{
			ExprBase: base(types.TI64),
			Op:       "+",
			Left:     intLit(1),
			Right:    intLit(2),
		},
	}

	mb := NewBuilder(hir.NewCrate()).Lower(body)

	if mb.Entry != 0 {
		t.Fatalf("expected entry block 0, got %d", mb.Entry)
	}
	entry := mb.Block(mb.Entry)
	if entry == nil {
		t.Fatal("entry block missing")
	}
	if _, ok := entry.Term.(Return); !ok {
		t.Fatalf("expected Return terminator, got %T", entry.Term)
	}
	foundBinOp := false
	for _, s := range entry.Statements {
		if a, ok := s.(Assign); ok {
			if _, ok := a.Value.(BinaryOp); ok {
				foundBinOp = true
			}
		}
	}
	if !foundBinOp {
		t.Error("expected a BinaryOp assignment among the entry block's statements")
	}
}

func TestLowerIfBranchesToThreeBlocks(t *testing.T) {
	body := &hir.Body{
		ID: 2,
		Root: hir.If{
			ExprBase: base(types.TI64),
			Cond:     hir.Lit{ExprBase: base(types.TBool), Kind: ast.BoolLit, Value: true},
			Then:     intLit(1),
			Else:     intLit(0),
		},
	}

	mb := NewBuilder(hir.NewCrate()).Lower(body)

	entry := mb.Block(mb.Entry)
	sw, ok := entry.Term.(SwitchInt)
	if !ok {
		t.Fatalf("expected SwitchInt terminator on entry, got %T", entry.Term)
	}
	if len(sw.Targets.Branches) != 1 {
		t.Errorf("expected 1 branch (true), got %d", len(sw.Targets.Branches))
	}
	if len(mb.Blocks) < 4 {
		t.Errorf("expected at least 4 blocks (entry, then, else, merge), got %d", len(mb.Blocks))
	}
}

func TestLowerMatchOnEnumUsesSwitchInt(t *testing.T) {
	enumDef := ids.DefId(7)
	scrut := hir.Var{ExprBase: base(types.AdtT{DefID: enumDef, Name: "Option"}), Local: 0}

	body := &hir.Body{
		ID:         3,
		ParamCount: 1,
		Locals:     []hir.Local{{ID: 0, Type: scrut.Ty}},
		Root: hir.Match{
			ExprBase:  base(types.TI64),
			Scrutinee: scrut,
			Arms: []hir.MatchArm{
				{Pattern: &hir.VariantPattern{EnumDef: enumDef, VariantIdx: 0}, Body: intLit(0)},
				{Pattern: &hir.VariantPattern{EnumDef: enumDef, VariantIdx: 1}, Body: intLit(1)},
			},
		},
	}

	mb := NewBuilder(hir.NewCrate()).Lower(body)

	foundSwitch := false
	for _, bb := range mb.Blocks {
		if sw, ok := bb.Term.(SwitchInt); ok {
			if len(sw.Targets.Branches) == 2 {
				foundSwitch = true
			}
		}
	}
	if !foundSwitch {
		t.Error("expected a SwitchInt terminator with 2 branches for the two variants")
	}
}

func TestLowerPerformEmitsPerformTerminator(t *testing.T) {
	effectID := ids.DefId(9)
	crate := hir.NewCrate()
	crate.Items[effectID] = &hir.Item{Effect: &hir.EffectItem{
		DefID: effectID,
		Info: effects.Info{
			DefID: effectID,
			Name:  "Logger",
			Ops:   []effects.OpSig{{Name: "log"}, {Name: "warn"}},
		},
	}}

	body := &hir.Body{
		ID: 4,
		Root: hir.Perform{
			ExprBase:  base(types.TUnit),
			EffectDef: effectID,
			Op:        "warn",
			Args:      []hir.Expr{intLit(1)},
		},
	}

	mb := NewBuilder(crate).Lower(body)

	found := false
	for _, bb := range mb.Blocks {
		if p, ok := bb.Term.(Perform); ok {
			if p.OpIndex != 1 {
				t.Errorf("expected OpIndex 1 for 'warn', got %d", p.OpIndex)
			}
			found = true
		}
	}
	if !found {
		t.Error("expected a Perform terminator")
	}
}
