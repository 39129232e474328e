package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/filecache"
	"github.com/sunholo/bloodc/internal/ids"
)

// mapParser resolves paths by basename, letting tests describe a small
// fixed project without needing real surface syntax.
func mapParser(byBase map[string]*ast.File) Parser {
	return ParserFunc(func(path string) (*ast.File, error) {
		file, ok := byBase[filepath.Base(path)]
		if !ok {
			return nil, os.ErrNotExist
		}
		return file, nil
	})
}

func writeEmpty(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildSingleFileDiscoversRootModule(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.blood")
	writeEmpty(t, entry)

	parser := mapParser(map[string]*ast.File{
		"main.blood": {Path: "main"},
	})
	d := New(parser, Options{})

	result, err := d.Build(entry)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Modules) != 1 || result.Modules[0].Path != "main" {
		t.Fatalf("expected single module %q, got %+v", "main", result.Modules)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected one synthetic file, got %d", len(result.Files))
	}
	if len(result.Order) != 1 {
		t.Fatalf("expected order of length 1, got %v", result.Order)
	}
	if result.Modules[0].SID == "" {
		t.Error("expected a non-empty module SID")
	}
}

func TestBuildAssignsStableSIDAcrossRebuilds(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.blood")
	writeEmpty(t, entry)
	writeEmpty(t, filepath.Join(dir, "helper.blood"))

	parser := mapParser(map[string]*ast.File{
		"main.blood": {
			Path:  "main",
			Decls: []ast.Decl{&ast.ModRef{Name: "helper"}},
		},
		"helper.blood": {Path: "main.helper"},
	})

	first, err := New(parser, Options{}).Build(entry)
	if err != nil {
		t.Fatalf("Build (first): %v", err)
	}
	second, err := New(parser, Options{}).Build(entry)
	if err != nil {
		t.Fatalf("Build (second): %v", err)
	}

	sidByPath := func(result *Result) map[string]string {
		out := make(map[string]string, len(result.Modules))
		for _, m := range result.Modules {
			out[m.Path] = string(m.SID)
		}
		return out
	}
	firstSIDs, secondSIDs := sidByPath(first), sidByPath(second)
	for path, s := range firstSIDs {
		if secondSIDs[path] != s {
			t.Errorf("expected stable SID for %q across rebuilds, got %q then %q", path, s, secondSIDs[path])
		}
	}
}

func TestBuildResolvesFileBackedChildModule(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.blood")
	writeEmpty(t, entry)
	writeEmpty(t, filepath.Join(dir, "helper.blood"))

	parser := mapParser(map[string]*ast.File{
		"main.blood": {
			Path:  "main",
			Decls: []ast.Decl{&ast.ModRef{Name: "helper"}},
		},
		"helper.blood": {Path: "main.helper"},
	})
	d := New(parser, Options{})

	result, err := d.Build(entry)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d: %+v", len(result.Modules), result.Modules)
	}
	var sawMain, sawHelper bool
	for _, m := range result.Modules {
		switch m.Path {
		case "main":
			sawMain = true
		case "main.helper":
			sawHelper = true
		}
	}
	if !sawMain || !sawHelper {
		t.Fatalf("expected main and main.helper modules, got %+v", result.Modules)
	}

	for _, f := range result.Files {
		if f.Path == "main" {
			for _, decl := range f.Decls {
				if _, ok := decl.(*ast.ModRef); ok {
					t.Fatalf("expected ModRef stripped from parent decls, still present")
				}
			}
		}
	}
}

func TestBuildResolvesInlineModule(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.blood")
	writeEmpty(t, entry)

	inner := []ast.Decl{}
	parser := mapParser(map[string]*ast.File{
		"main.blood": {
			Path:  "main",
			Decls: []ast.Decl{&ast.ModRef{Name: "inner", Inline: true, Decls: inner}},
		},
	})
	d := New(parser, Options{})

	result, err := d.Build(entry)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var sawInline bool
	for _, m := range result.Modules {
		if m.Path == "main.inner" {
			sawInline = true
			if m.AbsPath != "" {
				t.Fatalf("expected inline module to have no AbsPath, got %q", m.AbsPath)
			}
		}
	}
	if !sawInline {
		t.Fatalf("expected main.inner module, got %+v", result.Modules)
	}
}

func TestBuildMissingChildModuleFileErrors(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.blood")
	writeEmpty(t, entry)

	parser := mapParser(map[string]*ast.File{
		"main.blood": {
			Path:  "main",
			Decls: []ast.Decl{&ast.ModRef{Name: "missing"}},
		},
	})
	d := New(parser, Options{})

	if _, err := d.Build(entry); err == nil {
		t.Fatal("expected error for unresolvable mod reference, got nil")
	}
}

func TestApplyCacheClassifiesFilesAgainstPriorBuild(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.blood")
	writeEmpty(t, entry)

	parser := mapParser(map[string]*ast.File{
		"main.blood": {Path: "main"},
	})

	cache := filecache.NewCache()
	d := New(parser, Options{Cache: cache})

	result, err := d.Build(entry)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	status, ok := result.ChangedFiles["main.blood"]
	if !ok {
		t.Fatalf("expected main.blood to be classified, got %+v", result.ChangedFiles)
	}
	if status != filecache.New {
		t.Fatalf("expected main.blood New on a fresh cache, got %s", status)
	}
}

func TestTopoSortOrdersByReexportDependency(t *testing.T) {
	d := New(ParserFunc(func(string) (*ast.File, error) { return nil, os.ErrNotExist }), Options{})
	a := &moduleEntry{id: d.freshID(), path: "a"}
	b := &moduleEntry{id: d.freshID(), path: "b", imports: []*ast.ImportDecl{{Path: "a", Glob: true, Public: true}}}
	c := &moduleEntry{id: d.freshID(), path: "c", imports: []*ast.ImportDecl{{Path: "b", Glob: true, Public: true}}}
	d.register(a)
	d.register(b)
	d.register(c)

	order, err := d.topoSort()
	if err != nil {
		t.Fatalf("topoSort: %v", err)
	}
	pos := map[ids.ModuleId]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos[a.id] >= pos[b.id] || pos[b.id] >= pos[c.id] {
		t.Fatalf("expected order a, b, c; got %v", order)
	}
}

func TestTopoSortDetectsReexportCycle(t *testing.T) {
	d := New(ParserFunc(func(string) (*ast.File, error) { return nil, os.ErrNotExist }), Options{})
	a := &moduleEntry{id: d.freshID(), path: "a", imports: []*ast.ImportDecl{{Path: "b", Glob: true, Public: true}}}
	b := &moduleEntry{id: d.freshID(), path: "b", imports: []*ast.ImportDecl{{Path: "a", Glob: true, Public: true}}}
	d.register(a)
	d.register(b)

	_, err := d.topoSort()
	if err == nil {
		t.Fatal("expected a cyclic re-export error, got nil")
	}
	cycleErr, ok := err.(*CyclicReexportError)
	if !ok {
		t.Fatalf("expected *CyclicReexportError, got %T: %v", err, err)
	}
	if len(cycleErr.Cycle) != 2 {
		t.Fatalf("expected both modules named in the cycle, got %v", cycleErr.Cycle)
	}
}
