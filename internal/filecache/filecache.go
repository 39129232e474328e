// Package filecache implements the driver's incremental build cache: a
// JSON manifest recording, per source file, the content hash, mtime and
// size observed the last time it was successfully compiled, plus which
// definitions and which module it produced. The cache is passive — it
// only classifies files as Unchanged/Modified/New/Deleted and reports
// which definitions a change invalidates; internal/driver decides what
// to do about that (§4.E, §6, §8 "Driver / cache properties").
package filecache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"lukechampine.com/blake3"

	"github.com/sunholo/bloodc/internal/ids"
)

// Version is the cache's own schema version. Bumping it invalidates
// every existing .blood/file_cache.json wholesale, per §6's "version
// mismatch invalidates cache wholesale".
const Version = 1

// Status classifies one source file against the previous build's cache
// entry.
type Status int

const (
	Unchanged Status = iota
	Modified
	New
	Deleted
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Modified:
		return "modified"
	case New:
		return "new"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Entry is one file's cached state.
type Entry struct {
	ContentHash string        `json:"content_hash"`
	ModTime     int64         `json:"mtime"`
	Size        int64         `json:"size"`
	Definitions []uint32      `json:"definitions"`
	ModuleID    *ids.ModuleId `json:"module_id,omitempty"`
}

// manifest is the on-disk shape of .blood/file_cache.json.
type manifest struct {
	Version uint32           `json:"version"`
	Files   map[string]Entry `json:"files"`
}

// Cache is a loaded (or fresh) file cache, keyed by path relative to the
// project root. It is safe for concurrent reads; Update/Save are
// serialized behind mu so the batched-parallel stdlib parser
// (internal/driver) can record results from multiple goroutines.
type Cache struct {
	mu      sync.Mutex
	version uint32
	files   map[string]Entry
}

// NewCache returns an empty cache, as used when no prior
// .blood/file_cache.json exists or its version doesn't match.
func NewCache() *Cache {
	return &Cache{version: Version, files: make(map[string]Entry)}
}

// Load reads a cache manifest from path. A missing file or a version
// mismatch yields a fresh empty Cache rather than an error, since both
// just mean "nothing is known yet" (§6).
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCache(), nil
		}
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Version != Version {
		return NewCache(), nil
	}
	if m.Files == nil {
		m.Files = make(map[string]Entry)
	}
	return &Cache{version: m.Version, files: m.Files}, nil
}

// Save writes the cache manifest to path, creating its parent directory
// if necessary. Per §5's "file cache only written on success", callers
// must only invoke Save after a build has completed without errors.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(manifest{Version: c.version, Files: c.files}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Check classifies one on-disk file against the cache's prior entry for
// relPath. It first compares mtime+size (cheap); only on a mismatch does
// it recompute the content hash, matching §4.E's "mtime+size fast path,
// content hash fallback".
func (c *Cache) Check(relPath, absPath string) (Status, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Deleted, nil
		}
		return 0, err
	}

	c.mu.Lock()
	prev, ok := c.files[relPath]
	c.mu.Unlock()
	if !ok {
		return New, nil
	}

	mtime := info.ModTime().UnixNano()
	size := info.Size()
	if prev.ModTime == mtime && prev.Size == size {
		return Unchanged, nil
	}

	hash, err := hashFile(absPath)
	if err != nil {
		return 0, err
	}
	if hash == prev.ContentHash {
		return Unchanged, nil
	}
	return Modified, nil
}

// Update records the freshly computed state of relPath after it was
// (re)compiled, associating it with the DefIds it produced and,
// optionally, the ModuleId it backs.
func (c *Cache) Update(relPath, absPath string, defs []ids.DefId, moduleID *ids.ModuleId) error {
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	hash, err := hashFile(absPath)
	if err != nil {
		return err
	}

	ids32 := make([]uint32, len(defs))
	for i, d := range defs {
		ids32[i] = uint32(d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[relPath] = Entry{
		ContentHash: hash,
		ModTime:     info.ModTime().UnixNano(),
		Size:        info.Size(),
		Definitions: ids32,
		ModuleID:    moduleID,
	}
	return nil
}

// Forget removes relPath's entry, used when a file is observed Deleted
// so a later re-creation of the same path is treated as New rather than
// Modified.
func (c *Cache) Forget(relPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, relPath)
}

// Definitions returns the DefIds previously recorded for relPath, or nil
// if the path has no entry.
func (c *Cache) Definitions(relPath string) []ids.DefId {
	c.mu.Lock()
	entry, ok := c.files[relPath]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	out := make([]ids.DefId, len(entry.Definitions))
	for i, d := range entry.Definitions {
		out[i] = ids.DefId(d)
	}
	return out
}

// KnownPaths returns every relative path the cache currently has an
// entry for, used by FindChangedFiles to detect deletions.
func (c *Cache) KnownPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.files))
	for p := range c.files {
		out = append(out, p)
	}
	return out
}

// ModuleID returns the ModuleId previously recorded for relPath, if any.
func (c *Cache) ModuleID(relPath string) (ids.ModuleId, bool) {
	c.mu.Lock()
	entry, ok := c.files[relPath]
	c.mu.Unlock()
	if !ok || entry.ModuleID == nil {
		return 0, false
	}
	return *entry.ModuleID, true
}

// FindChangedFiles classifies every file in the current project
// snapshot (relPath -> absPath) and additionally reports every
// previously-cached path absent from that snapshot as Deleted, per
// §8's "a file deletion surfaces as Deleted".
func (c *Cache) FindChangedFiles(current map[string]string) (map[string]Status, error) {
	result := make(map[string]Status, len(current))
	for rel, abs := range current {
		status, err := c.Check(rel, abs)
		if err != nil {
			return nil, err
		}
		result[rel] = status
	}
	for _, rel := range c.KnownPaths() {
		if _, ok := current[rel]; !ok {
			result[rel] = Deleted
		}
	}
	return result, nil
}

// GetInvalidatedDefinitions returns the union of DefIds previously
// associated with every Modified or Deleted file in statuses, per §8's
// "get_invalidated_definitions returns exactly the DefIds previously
// associated with that file".
func (c *Cache) GetInvalidatedDefinitions(statuses map[string]Status) []ids.DefId {
	seen := make(map[ids.DefId]bool)
	var out []ids.DefId
	for rel, status := range statuses {
		if status != Modified && status != Deleted {
			continue
		}
		for _, d := range c.Definitions(rel) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

func hashFile(absPath string) (string, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
