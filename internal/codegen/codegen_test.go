package codegen

import (
	"strings"
	"testing"

	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/mir"
	"github.com/sunholo/bloodc/internal/types"
)

func newTestCrate() *hir.Crate {
	return hir.NewCrate()
}

func TestCompileFnArithmeticReturnsAddResult(t *testing.T) {
	crate := newTestCrate()
	defID := ids.DefId(1)
	fnItem := &hir.FnItem{
		DefID:      defID,
		ParamLocal: []ids.LocalId{1, 2},
		Sig:        types.FnT{Params: []types.Type{types.TI64, types.TI64}, Ret: types.TI64},
	}
	crate.Items[defID] = &hir.Item{Fn: fnItem}
	crate.DefInfo[defID] = &hir.DefInfo{Name: "add"}

	body := &mir.MirBody{
		Source:     1,
		ParamCount: 2,
		Entry:      0,
		Locals: []mir.MirLocal{
			{ID: 0, Type: types.TI64},
			{ID: 1, Type: types.TI64},
			{ID: 2, Type: types.TI64},
		},
		Blocks: []mir.BasicBlock{
			{
				ID: 0,
				Statements: []mir.Statement{
					mir.Assign{
						Place: mir.Place{Base: mir.LocalBase{Local: 0}},
						Value: mir.BinaryOp{
							Op:   "+",
							Left: mir.Move{Place: mir.Place{Base: mir.LocalBase{Local: 1}}},
							Right: mir.Move{
								Place: mir.Place{Base: mir.LocalBase{Local: 2}},
							},
						},
					},
				},
				Term: mir.Return{},
			},
		},
	}

	c := NewContext(crate, "test")
	defer c.Dispose()

	if err := c.CompileFn(fnItem, body); err != nil {
		t.Fatalf("CompileFn: %v", err)
	}

	ir := c.Module().String()
	if !strings.Contains(ir, "define") || !strings.Contains(ir, "add") {
		t.Errorf("expected a defined function named around %q, got:\n%s", "add", ir)
	}
	if !strings.Contains(ir, "ret i64") {
		t.Errorf("expected an i64 return, got:\n%s", ir)
	}
}

func TestCompileFnIfLowersToSwitch(t *testing.T) {
	crate := newTestCrate()
	defID := ids.DefId(2)
	fnItem := &hir.FnItem{
		DefID:      defID,
		ParamLocal: []ids.LocalId{1},
		Sig:        types.FnT{Params: []types.Type{types.TBool}, Ret: types.TI64},
	}
	crate.Items[defID] = &hir.Item{Fn: fnItem}

	body := &mir.MirBody{
		Source:     2,
		ParamCount: 1,
		Entry:      0,
		Locals: []mir.MirLocal{
			{ID: 0, Type: types.TI64},
			{ID: 1, Type: types.TBool},
		},
		Blocks: []mir.BasicBlock{
			{
				ID: 0,
				Term: mir.SwitchInt{
					Discriminant: mir.Move{Place: mir.Place{Base: mir.LocalBase{Local: 1}}},
					Targets: mir.SwitchTargets{
						Branches:  map[int64]ids.BasicBlockId{1: 1},
						Otherwise: 2,
					},
				},
			},
			{
				ID: 1,
				Statements: []mir.Statement{
					mir.Assign{
						Place: mir.Place{Base: mir.LocalBase{Local: 0}},
						Value: mir.Use{Operand: mir.OpConstant{Constant: mir.Constant{Kind: mir.IntConst{Value: 1}, Type: types.TI64}}},
					},
				},
				Term: mir.Goto{Target: 3},
			},
			{
				ID: 2,
				Statements: []mir.Statement{
					mir.Assign{
						Place: mir.Place{Base: mir.LocalBase{Local: 0}},
						Value: mir.Use{Operand: mir.OpConstant{Constant: mir.Constant{Kind: mir.IntConst{Value: 0}, Type: types.TI64}}},
					},
				},
				Term: mir.Goto{Target: 3},
			},
			{ID: 3, Term: mir.Return{}},
		},
	}

	c := NewContext(crate, "test")
	defer c.Dispose()

	if err := c.CompileFn(fnItem, body); err != nil {
		t.Fatalf("CompileFn: %v", err)
	}

	ir := c.Module().String()
	if !strings.Contains(ir, "switch") {
		t.Errorf("expected a switch instruction in IR, got:\n%s", ir)
	}
}

func TestLowerTypeEnumIsTagPlusPayload(t *testing.T) {
	crate := newTestCrate()
	enumID := ids.DefId(3)
	crate.Items[enumID] = &hir.Item{Enum: &hir.EnumItem{
		DefID: enumID,
		Variants: []hir.VariantDef{
			{DefID: ids.DefId(4), Name: "None"},
			{DefID: ids.DefId(5), Name: "Some", Fields: []types.Type{types.TI64}},
		},
	}}

	c := NewContext(crate, "test")
	defer c.Dispose()

	llty := c.LowerType(types.AdtT{DefID: enumID, Name: "Option"})
	if llty.IsNil() {
		t.Fatal("expected a non-nil LLVM type for the enum")
	}
	if llty.StructElementTypesCount() != 2 {
		t.Errorf("expected a 2-field {tag, payload} struct, got %d fields", llty.StructElementTypesCount())
	}
}

func TestLowerTypeStructNamesField(t *testing.T) {
	crate := newTestCrate()
	structID := ids.DefId(6)
	crate.Items[structID] = &hir.Item{Struct: &hir.StructItem{
		DefID: structID,
		Fields: []hir.FieldDef{
			{Name: 1, Type: types.TI64},
			{Name: 2, Type: types.TBool},
		},
	}}
	crate.DefInfo[structID] = &hir.DefInfo{Name: "Point"}

	c := NewContext(crate, "test")
	defer c.Dispose()

	llty := c.LowerType(types.AdtT{DefID: structID, Name: "Point"})
	if llty.StructElementTypesCount() != 2 {
		t.Errorf("expected 2 fields, got %d", llty.StructElementTypesCount())
	}

	// A second lowering of the same DefId must return the cached type,
	// not redeclare the named struct.
	again := c.LowerType(types.AdtT{DefID: structID, Name: "Point"})
	if llty != again {
		t.Error("expected lowerAdt to cache and reuse the same named struct type")
	}
}

func TestCompileFnPerformEmitsRuntimeCalls(t *testing.T) {
	crate := newTestCrate()
	defID := ids.DefId(7)
	effectID := ids.DefId(8)
	fnItem := &hir.FnItem{
		DefID: defID,
		Sig:   types.FnT{Ret: types.TUnit},
	}
	crate.Items[defID] = &hir.Item{Fn: fnItem}

	body := &mir.MirBody{
		Source: 3,
		Entry:  0,
		Locals: []mir.MirLocal{{ID: 0, Type: types.TUnit}},
		Blocks: []mir.BasicBlock{
			{
				ID: 0,
				Term: mir.Perform{
					EffectID:    effectID,
					OpIndex:     0,
					Destination: mir.Place{Base: mir.LocalBase{Local: 0}},
					Target:      bbPtr(1),
				},
			},
			{ID: 1, Term: mir.Return{}},
		},
	}

	c := NewContext(crate, "test")
	defer c.Dispose()

	if err := c.CompileFn(fnItem, body); err != nil {
		t.Fatalf("CompileFn: %v", err)
	}

	ir := c.Module().String()
	for _, want := range []string{"blood_snapshot_create", "blood_perform", "blood_snapshot_validate", "blood_snapshot_destroy"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected emitted IR to call %s, got:\n%s", want, ir)
		}
	}
}

func bbPtr(id ids.BasicBlockId) *ids.BasicBlockId { return &id }
