package check

import (
	"testing"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
)

func pos(line int) ast.Pos { return ast.Pos{Line: line, Column: 1, File: "test.blood"} }

func ident(name string, line int) *ast.Identifier { return &ast.Identifier{Name: name, Pos: pos(line)} }

func intLit(v int64, line int) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Value: v, Pos: pos(line)}
}

func boolLit(v bool, line int) *ast.Literal {
	return &ast.Literal{Kind: ast.BoolLit, Value: v, Pos: pos(line)}
}

// file wraps decls into a single-module *ast.File the way the driver would.
func file(decls ...ast.Decl) *ast.File {
	return &ast.File{Path: "test.blood", Decls: decls, Pos: pos(1)}
}

func TestCheckArithmeticFunction(t *testing.T) {
	// fn add(x: i64, y: i64) -> i64 = x + y
	decl := &ast.FuncDecl{
		Name: "add",
		Params: []*ast.Param{
			{Name: "x", Type: &ast.SimpleType{Name: "i64", Pos: pos(1)}, Pos: pos(1)},
			{Name: "y", Type: &ast.SimpleType{Name: "i64", Pos: pos(1)}, Pos: pos(1)},
		},
		ReturnType: &ast.SimpleType{Name: "i64", Pos: pos(1)},
		Body:       &ast.BinaryOp{Left: ident("x", 1), Op: "+", Right: ident("y", 1), Pos: pos(1)},
		Pos:        pos(1),
	}

	crate, errs := Check([]*ast.File{file(decl)})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Reports())
	}
	if len(crate.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(crate.Items))
	}
	for _, item := range crate.Items {
		if item.Fn == nil {
			t.Fatalf("expected a function item, got %+v", item)
		}
		body := crate.Bodies[item.Fn.Body]
		if body == nil {
			t.Fatalf("body %d not recorded", item.Fn.Body)
		}
		if _, ok := body.Root.(hir.BinOp); !ok {
			t.Fatalf("expected root to be BinOp, got %T", body.Root)
		}
	}
}

func TestCheckLetAndIf(t *testing.T) {
	// fn choose() -> i64 = let x = 1 in if true then x else x
	letExpr := &ast.Let{
		Name:  "x",
		Value: intLit(1, 1),
		Body: &ast.If{
			Condition: boolLit(true, 1),
			Then:      ident("x", 1),
			Else:      ident("x", 1),
			Pos:       pos(1),
		},
		Pos: pos(1),
	}
	decl := &ast.FuncDecl{
		Name:       "choose",
		ReturnType: &ast.SimpleType{Name: "i64", Pos: pos(1)},
		Body:       letExpr,
		Pos:        pos(1),
	}

	crate, errs := Check([]*ast.File{file(decl)})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Reports())
	}
	for _, item := range crate.Items {
		body := crate.Bodies[item.Fn.Body]
		letNode, ok := body.Root.(hir.Let)
		if !ok {
			t.Fatalf("expected root to be Let, got %T", body.Root)
		}
		if _, ok := letNode.Body.(hir.If); !ok {
			t.Fatalf("expected let body to be If, got %T", letNode.Body)
		}
	}
}

func TestCheckUnboundIdentifierReportsDiagnostic(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:       "broken",
		ReturnType: &ast.SimpleType{Name: "i64", Pos: pos(1)},
		Body:       ident("nope", 1),
		Pos:        pos(1),
	}

	_, errs := Check([]*ast.File{file(decl)})
	if !errs.HasErrors() {
		t.Fatal("expected an unbound-name diagnostic")
	}
	found := false
	for _, r := range errs.Reports() {
		if r.Code == "TYP003" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected TYP003, got %v", errs.Reports())
	}
}

func TestCheckStructConstructAndFieldAccess(t *testing.T) {
	// type Point = { x: i64, y: i64 }
	// fn getX(p: Point) -> i64 = p.x
	typeDecl := &ast.TypeDecl{
		Name: "Point",
		Definition: &ast.RecordType{
			Fields: []*ast.RecordField{
				{Name: "x", Type: &ast.SimpleType{Name: "i64", Pos: pos(1)}, Pos: pos(1)},
				{Name: "y", Type: &ast.SimpleType{Name: "i64", Pos: pos(1)}, Pos: pos(1)},
			},
			Pos: pos(1),
		},
		Pos: pos(1),
	}
	fnDecl := &ast.FuncDecl{
		Name: "getX",
		Params: []*ast.Param{
			{Name: "p", Type: &ast.SimpleType{Name: "Point", Pos: pos(2)}, Pos: pos(2)},
		},
		ReturnType: &ast.SimpleType{Name: "i64", Pos: pos(2)},
		Body:       &ast.RecordAccess{Record: ident("p", 2), Field: "x", Pos: pos(2)},
		Pos:        pos(2),
	}

	crate, errs := Check([]*ast.File{file(typeDecl, fnDecl)})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Reports())
	}
	sawStruct, sawFn := false, false
	for _, item := range crate.Items {
		if item.Struct != nil {
			sawStruct = true
			if len(item.Struct.Fields) != 2 {
				t.Fatalf("expected 2 fields, got %d", len(item.Struct.Fields))
			}
		}
		if item.Fn != nil {
			sawFn = true
			body := crate.Bodies[item.Fn.Body]
			if _, ok := body.Root.(hir.RecordAccess); !ok {
				t.Fatalf("expected root to be RecordAccess, got %T", body.Root)
			}
		}
	}
	if !sawStruct || !sawFn {
		t.Fatalf("expected both a struct and a function item, got struct=%v fn=%v", sawStruct, sawFn)
	}
}

func TestCheckEnumConstructAndMatch(t *testing.T) {
	// type Option = Some(i64) | None
	// fn unwrapOr(o: Option, d: i64) -> i64 = match o { Some(v) => v, None => d }
	typeDecl := &ast.TypeDecl{
		Name: "Option",
		Definition: &ast.AlgebraicType{
			Constructors: []*ast.Constructor{
				{Name: "Some", Fields: []ast.Type{&ast.SimpleType{Name: "i64", Pos: pos(1)}}, Pos: pos(1)},
				{Name: "None", Pos: pos(1)},
			},
			Pos: pos(1),
		},
		Pos: pos(1),
	}
	matchExpr := &ast.Match{
		Expr: ident("o", 2),
		Cases: []*ast.Case{
			{
				Pattern: &ast.ConstructorPattern{Name: "Some", Patterns: []ast.Pattern{&ast.Identifier{Name: "v", Pos: pos(2)}}, Pos: pos(2)},
				Body:    ident("v", 2),
				Pos:     pos(2),
			},
			{
				Pattern: &ast.ConstructorPattern{Name: "None", Pos: pos(2)},
				Body:    ident("d", 2),
				Pos:     pos(2),
			},
		},
		Pos: pos(2),
	}
	fnDecl := &ast.FuncDecl{
		Name: "unwrapOr",
		Params: []*ast.Param{
			{Name: "o", Type: &ast.SimpleType{Name: "Option", Pos: pos(2)}, Pos: pos(2)},
			{Name: "d", Type: &ast.SimpleType{Name: "i64", Pos: pos(2)}, Pos: pos(2)},
		},
		ReturnType: &ast.SimpleType{Name: "i64", Pos: pos(2)},
		Body:       matchExpr,
		Pos:        pos(2),
	}

	crate, errs := Check([]*ast.File{file(typeDecl, fnDecl)})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Reports())
	}
	for _, item := range crate.Items {
		if item.Fn == nil {
			continue
		}
		body := crate.Bodies[item.Fn.Body]
		m, ok := body.Root.(hir.Match)
		if !ok {
			t.Fatalf("expected root to be Match, got %T", body.Root)
		}
		if len(m.Arms) != 2 {
			t.Fatalf("expected 2 arms, got %d", len(m.Arms))
		}
		if _, ok := m.Arms[0].Pattern.(hir.VariantPattern); !ok {
			t.Fatalf("expected first arm pattern to be VariantPattern, got %T", m.Arms[0].Pattern)
		}
	}
}

func TestCheckEffectPerformRequiresHandling(t *testing.T) {
	// effect Console { print(str) -> unit }
	// fn shout(msg: str) -> unit = perform Console.print(msg)   (no handler -> EFF001)
	effectDecl := &ast.EffectDecl{
		Name: "Console",
		Ops: []*ast.EffectOp{
			{Name: "print", Params: []*ast.Param{{Name: "msg", Type: &ast.SimpleType{Name: "str", Pos: pos(1)}, Pos: pos(1)}}, Ret: &ast.SimpleType{Name: "unit", Pos: pos(1)}, Pos: pos(1)},
		},
		Pos: pos(1),
	}
	fnDecl := &ast.FuncDecl{
		Name: "shout",
		Params: []*ast.Param{
			{Name: "msg", Type: &ast.SimpleType{Name: "str", Pos: pos(2)}, Pos: pos(2)},
		},
		ReturnType: &ast.SimpleType{Name: "unit", Pos: pos(2)},
		Body:       &ast.Perform{Effect: "Console", Op: "print", Args: []ast.Expr{ident("msg", 2)}, Pos: pos(2)},
		Pos:        pos(2),
	}

	_, errs := Check([]*ast.File{file(effectDecl, fnDecl)})
	found := false
	for _, r := range errs.Reports() {
		if r.Code == "EFF001" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected EFF001 (unhandled effect), got %v", errs.Reports())
	}
}

func TestCheckWithHandleSuppressesEffectDiagnostic(t *testing.T) {
	effectDecl := &ast.EffectDecl{
		Name: "Console",
		Ops: []*ast.EffectOp{
			{Name: "print", Params: []*ast.Param{{Name: "msg", Type: &ast.SimpleType{Name: "str", Pos: pos(1)}, Pos: pos(1)}}, Ret: &ast.SimpleType{Name: "unit", Pos: pos(1)}, Pos: pos(1)},
		},
		Pos: pos(1),
	}
	handlerDecl := &ast.HandlerDecl{
		Name:       "LoudConsole",
		EffectName: "Console",
		Kind:       ast.Deep,
		Ops: []*ast.HandlerOp{
			{
				Name:   "print",
				Params: []*ast.Param{{Name: "msg", Pos: pos(2)}},
				Body:   &ast.Resume{Value: &ast.Literal{Kind: ast.UnitLit, Value: nil, Pos: pos(2)}, Pos: pos(2)},
				Pos:    pos(2),
			},
		},
		Pos: pos(2),
	}
	fnDecl := &ast.FuncDecl{
		Name:       "shout",
		ReturnType: &ast.SimpleType{Name: "unit", Pos: pos(3)},
		Body: &ast.WithHandle{
			Handler: ident("LoudConsole", 3),
			Body:    &ast.Perform{Effect: "Console", Op: "print", Args: []ast.Expr{&ast.Literal{Kind: ast.StringLit, Value: "hi", Pos: pos(3)}}, Pos: pos(3)},
			Pos:     pos(3),
		},
		Pos: pos(3),
	}

	_, errs := Check([]*ast.File{file(effectDecl, handlerDecl, fnDecl)})
	for _, r := range errs.Reports() {
		if r.Code == "EFF001" {
			t.Fatalf("did not expect an unhandled-effect diagnostic inside with...handle, got %v", errs.Reports())
		}
	}
}

func TestCheckEntryPointDetection(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:       "main",
		ReturnType: &ast.SimpleType{Name: "unit", Pos: pos(1)},
		Body:       &ast.Literal{Kind: ast.UnitLit, Value: nil, Pos: pos(1)},
		Pos:        pos(1),
	}
	crate, errs := Check([]*ast.File{file(decl)})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Reports())
	}
	if crate.Entry == ids.NoDefId {
		t.Fatal("expected main to be recorded as the entry def")
	}
	if _, ok := crate.Items[crate.Entry]; !ok {
		t.Fatalf("entry def %d has no matching item", crate.Entry)
	}
}
