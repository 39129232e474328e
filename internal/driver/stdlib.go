package driver

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/errors"
)

// mountStdlib walks opts.StdlibRoot, turning every subdirectory into a
// module (a virtual empty one where no mod.blood exists) and every
// .blood file into a module whose dotted path mirrors its filesystem
// location — e.g. std/compiler/lexer.blood becomes std.compiler.lexer
// (§4.E, §6). Parsing is batched in waves of opts.StdlibBatchSize,
// parsed concurrently by an errgroup.Group per wave, bounding peak
// memory the way a single unbounded fan-out would not.
func (d *Driver) mountStdlib() error {
	var files []string
	dirSet := map[string]bool{d.opts.StdlibRoot: true}

	err := filepath.WalkDir(d.opts.StdlibRoot, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			dirSet[path] = true
			return nil
		}
		if strings.HasSuffix(path, ".blood") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.LDR001, "driver", fmt.Sprintf("walking stdlib root %s: %v", d.opts.StdlibRoot, err), ast.Span{})
	}

	type parsed struct {
		path    string
		modPath string
		entry   *moduleEntry
	}

	var mu sync.Mutex
	results := make([]parsed, 0, len(files))

	for start := 0; start < len(files); start += d.opts.StdlibBatchSize {
		end := start + d.opts.StdlibBatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		g := new(errgroup.Group)
		batchResults := make([]parsed, len(batch))
		for i, path := range batch {
			i, path := i, path
			g.Go(func() error {
				file, perr := d.parser.ParseFile(path)
				if perr != nil {
					return fmt.Errorf("%s: %w", path, perr)
				}
				modPath, isDirModule := d.stdlibModulePath(path)
				entry := &moduleEntry{
					path:    modPath,
					file:    file,
					decls:   file.Decls,
					imports: file.Imports,
					absPath: path,
				}
				if isDirModule {
					dirSet[filepath.Dir(path)] = false
				}
				batchResults[i] = parsed{path: path, modPath: modPath, entry: entry}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return errors.New(errors.PAR001, "parser", err.Error(), ast.Span{})
		}

		mu.Lock()
		results = append(results, batchResults...)
		mu.Unlock()
	}

	rel := d.opts.StdlibRoot
	for _, r := range results {
		if existing, ok := d.byPath[r.modPath]; ok {
			return errors.New(errors.LDR003, "driver",
				fmt.Sprintf("duplicate stdlib module %q (%s and %s)", r.modPath, existing.absPath, r.path), ast.Span{})
		}
		r.entry.id = d.freshID()
		relPath, relErr := filepath.Rel(rel, r.path)
		if relErr == nil {
			r.entry.relPath = filepath.ToSlash(relPath)
		}
		d.register(r.entry)
	}

	for dir, needsVirtual := range dirSet {
		if !needsVirtual {
			continue
		}
		modPath := d.stdlibDirModulePath(dir)
		if _, ok := d.byPath[modPath]; ok {
			continue
		}
		d.register(&moduleEntry{id: d.freshID(), path: modPath})
	}

	return nil
}

// stdlibModulePath derives a file's dotted module path from its position
// under the stdlib root. A file named mod.blood names its own directory
// (e.g. std/compiler/mod.blood -> std.compiler); any other file adds its
// own stem (std/compiler/lexer.blood -> std.compiler.lexer). The second
// return value reports whether this file is its directory's own module,
// so mountStdlib knows not to synthesize a virtual module for it too.
func (d *Driver) stdlibModulePath(path string) (string, bool) {
	rel, _ := filepath.Rel(d.opts.StdlibRoot, path)
	rel = strings.TrimSuffix(rel, ".blood")
	rel = filepath.ToSlash(rel)

	if base := filepath.Base(rel); base == "mod" {
		dir := strings.TrimSuffix(rel, "/mod")
		if dir == "mod" {
			dir = ""
		}
		return d.stdlibDottedPath(dir), true
	}
	return d.stdlibDottedPath(rel), false
}

func (d *Driver) stdlibDirModulePath(dir string) string {
	rel, _ := filepath.Rel(d.opts.StdlibRoot, dir)
	if rel == "." {
		rel = ""
	}
	return d.stdlibDottedPath(filepath.ToSlash(rel))
}

func (d *Driver) stdlibDottedPath(rel string) string {
	if rel == "" {
		return "std"
	}
	return "std." + strings.ReplaceAll(rel, "/", ".")
}
