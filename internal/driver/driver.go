// Package driver implements component E: multi-file module discovery,
// the re-export dependency graph and its topological order, and unified
// orchestration of internal/check across every discovered module
// (§4.E). It is the only package that turns a project's files into the
// single ordered []*ast.File slice internal/check.Check expects.
package driver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/errors"
	"github.com/sunholo/bloodc/internal/filecache"
	"github.com/sunholo/bloodc/internal/ids"
	"github.com/sunholo/bloodc/internal/sid"
)

// Parser is the pluggable front end the driver resolves module files
// through. Surface syntax is out of scope here (spec.md's own Non-goals
// call the parser replaceable); the driver only needs something that
// turns a path into an *ast.File.
type Parser interface {
	ParseFile(path string) (*ast.File, error)
}

// ParserFunc adapts a plain function to Parser.
type ParserFunc func(path string) (*ast.File, error)

func (f ParserFunc) ParseFile(path string) (*ast.File, error) { return f(path) }

// ModuleInfo is the discovery-time metadata recorded for one module,
// independent of the synthetic *ast.File driver.Build hands to
// internal/check.
type ModuleInfo struct {
	ID      ids.ModuleId
	Path    string // dotted module path, e.g. "main", "helper", "std.compiler.lexer"
	AbsPath string // "" for an inline or virtual (empty directory) module
	RelPath string // project-root-relative; used as the file cache key; "" if AbsPath is ""

	// SID is a content-independent identity for this module, stable
	// across rebuilds even as ModuleId allocation order shifts (a new
	// sibling module earlier in discovery order bumps every ModuleId
	// after it). Keyed on AbsPath when file-backed, otherwise on the
	// dotted Path (inline and virtual stdlib-directory modules).
	SID sid.SID
}

// Result is the fully discovered, topologically ordered project ready
// for unified checking.
type Result struct {
	Files   []*ast.File    // one synthetic file per module, in topological order
	Modules []ModuleInfo   // parallel to the discovery set (not to Files)
	Order   []ids.ModuleId // topological order (dependencies first)

	// ChangedFiles/InvalidatedDefs are populated only when a *filecache.Cache
	// was supplied to Build; they are nil otherwise.
	ChangedFiles    map[string]filecache.Status
	InvalidatedDefs []ids.DefId
}

// Options configures one Driver.Build call.
type Options struct {
	// StdlibRoot mounts a standard library tree at module path "std",
	// batch-parsed in parallel. Empty disables the stdlib mount.
	StdlibRoot string

	// StdlibBatchSize bounds how many stdlib files are parsed
	// concurrently per errgroup.Group wave. Defaults to 10 (§4.E's
	// "batch size ~10 to bound peak memory").
	StdlibBatchSize int

	// ProjectRoot is used to compute the RelPath (file cache key) of
	// every file-backed module. Defaults to the entry file's directory.
	ProjectRoot string

	// Cache, if non-nil, is consulted after discovery to classify every
	// file-backed module and compute its invalidated definitions.
	Cache *filecache.Cache
}

type moduleEntry struct {
	id      ids.ModuleId
	path    string
	file    *ast.File // nil for a virtual (no mod.blood) stdlib directory module
	decls   []ast.Decl
	imports []*ast.ImportDecl
	absPath string
	relPath string
}

// Driver discovers a project's module graph and produces the ordered
// input internal/check.Check requires.
type Driver struct {
	parser Parser
	opts   Options

	nextID    uint32
	modules   []*moduleEntry
	byPath    map[string]*moduleEntry
	inProcess map[string]bool // load-stack membership, for cycle detection on mod resolution
}

// New creates a Driver backed by parser, the single seam through which
// source text becomes an *ast.File.
func New(parser Parser, opts Options) *Driver {
	if opts.StdlibBatchSize <= 0 {
		opts.StdlibBatchSize = 10
	}
	return &Driver{
		parser:    parser,
		opts:      opts,
		byPath:    make(map[string]*moduleEntry),
		inProcess: make(map[string]bool),
	}
}

// Build discovers every module reachable from entryPath (plus the
// optional stdlib mount), computes the re-export topological order, and
// returns the flattened per-module declaration list in that order.
func (d *Driver) Build(entryPath string) (*Result, error) {
	absEntry, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, errors.New(errors.LDR001, "driver", fmt.Sprintf("cannot resolve entry path %s: %v", entryPath, err), ast.Span{})
	}
	if d.opts.ProjectRoot == "" {
		d.opts.ProjectRoot = filepath.Dir(absEntry)
	}

	rootName := strings.TrimSuffix(filepath.Base(absEntry), filepath.Ext(absEntry))
	if _, err := d.loadFile(rootName, absEntry); err != nil {
		return nil, err
	}

	if d.opts.StdlibRoot != "" {
		if err := d.mountStdlib(); err != nil {
			return nil, err
		}
	}

	order, err := d.topoSort()
	if err != nil {
		return nil, err
	}

	result := &Result{Order: order}
	byID := make(map[ids.ModuleId]*moduleEntry, len(d.modules))
	for _, m := range d.modules {
		byID[m.id] = m
		result.Modules = append(result.Modules, ModuleInfo{
			ID: m.id, Path: m.path, AbsPath: m.absPath, RelPath: m.relPath, SID: m.sid(),
		})
	}
	for _, id := range order {
		m := byID[id]
		result.Files = append(result.Files, &ast.File{
			Path:    m.path,
			Decls:   m.decls,
			Imports: m.imports,
		})
	}

	if d.opts.Cache != nil {
		if err := d.applyCache(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// applyCache classifies every file-backed module against opts.Cache and
// records the union of invalidated definitions, per §8's cache
// properties. It does not itself decide what to recompile — that is the
// caller's call, per §4.E's "the cache itself is passive".
func (d *Driver) applyCache(result *Result) error {
	current := make(map[string]string)
	for _, m := range d.modules {
		if m.relPath != "" {
			current[m.relPath] = m.absPath
		}
	}
	statuses, err := d.opts.Cache.FindChangedFiles(current)
	if err != nil {
		return errors.New(errors.LDR001, "driver", fmt.Sprintf("cache check failed: %v", err), ast.Span{})
	}
	result.ChangedFiles = statuses
	result.InvalidatedDefs = d.opts.Cache.GetInvalidatedDefinitions(statuses)
	return nil
}

// loadFile parses absPath (if not already loaded), assigns it a
// ModuleId, and recursively resolves every `mod name;` / `mod name {}`
// item among its top-level declarations.
func (d *Driver) loadFile(modPath, absPath string) (*moduleEntry, error) {
	if existing, ok := d.byPath[modPath]; ok {
		return existing, nil
	}
	if d.inProcess[modPath] {
		return nil, errors.New(errors.LDR002, "driver", fmt.Sprintf("cyclic module resolution at %s", modPath), ast.Span{})
	}
	d.inProcess[modPath] = true
	defer delete(d.inProcess, modPath)

	file, err := d.parser.ParseFile(absPath)
	if err != nil {
		return nil, errors.New(errors.PAR001, "parser", fmt.Sprintf("%s: %v", absPath, err), ast.Span{})
	}
	if file.Module != nil && !file.Module.Inline && file.Module.Path != "" && file.Module.Path != modPath {
		return nil, errors.New(errors.MOD001, "driver",
			fmt.Sprintf("module %q declares path %q, expected %q", absPath, file.Module.Path, modPath), file.Module.Pos)
	}

	rel, relErr := filepath.Rel(d.opts.ProjectRoot, absPath)
	if relErr != nil {
		rel = absPath
	}

	entry := &moduleEntry{id: d.freshID(), path: modPath, file: file, imports: file.Imports, absPath: absPath, relPath: filepath.ToSlash(rel)}
	d.register(entry)

	leafDecls, err := d.resolveChildModules(modPath, filepath.Dir(absPath), file.Decls)
	if err != nil {
		return nil, err
	}
	entry.decls = leafDecls
	return entry, nil
}

// resolveChildModules walks decls, recursively resolving every ModRef
// (file-backed or inline) to its own module, and returns decls with the
// ModRef entries themselves removed (their contents now live in their
// own module's entry.decls, not the parent's).
func (d *Driver) resolveChildModules(parentPath, parentDir string, decls []ast.Decl) ([]ast.Decl, error) {
	out := make([]ast.Decl, 0, len(decls))
	for _, decl := range decls {
		ref, ok := decl.(*ast.ModRef)
		if !ok {
			out = append(out, decl)
			continue
		}

		childPath := parentPath + "." + ref.Name
		if ref.Inline {
			if err := d.registerInline(childPath, parentDir, ref.Decls, ref.Imports); err != nil {
				return nil, err
			}
			continue
		}

		childAbs, err := resolveModFile(parentDir, ref.Name)
		if err != nil {
			return nil, errors.New(errors.LDR001, "driver",
				fmt.Sprintf("module %q not found (looked for %s.blood and %s/mod.blood next to %s)", ref.Name, ref.Name, ref.Name, parentDir),
				ref.Pos)
		}
		if _, err := d.loadFile(childPath, childAbs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// registerInline records an inline `mod name { ... }` as its own module
// with no backing file, per §4.E's "inline mod name { ... } needs no
// file lookup". Nested mod items within it resolve file-backed children
// relative to dir, the enclosing file's directory.
func (d *Driver) registerInline(modPath, dir string, decls []ast.Decl, imports []*ast.ImportDecl) error {
	if _, ok := d.byPath[modPath]; ok {
		return nil
	}
	entry := &moduleEntry{id: d.freshID(), path: modPath, imports: imports}
	d.register(entry)

	leafDecls, err := d.resolveChildModules(modPath, dir, decls)
	if err != nil {
		return err
	}
	entry.decls = leafDecls
	return nil
}

func (d *Driver) register(entry *moduleEntry) {
	d.modules = append(d.modules, entry)
	d.byPath[entry.path] = entry
}

func (d *Driver) freshID() ids.ModuleId {
	id := ids.ModuleId(d.nextID)
	d.nextID++
	return id
}

// resolveModFile implements §6's file layout rule: `mod name;` resolves
// to <dir>/name.blood, or failing that <dir>/name/mod.blood.
func resolveModFile(dir, name string) (string, error) {
	direct := filepath.Join(dir, name+".blood")
	if fileExists(direct) {
		return direct, nil
	}
	nested := filepath.Join(dir, name, "mod.blood")
	if fileExists(nested) {
		return nested, nil
	}
	return "", fmt.Errorf("module file not found for %q", name)
}
