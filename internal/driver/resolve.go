package driver

import (
	"os"
	"strings"

	"github.com/sunholo/bloodc/internal/sid"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sid computes m's content-independent module identity: file-backed
// modules key on their canonical absolute path, inline and virtual
// (no mod.blood) stdlib-directory modules key on their dotted module
// path instead, since they have none.
func (m *moduleEntry) sid() sid.SID {
	key := m.absPath
	if key == "" {
		key = m.path
	}
	return sid.New(key, 0, 0, "module", nil)
}

// modulePathKey normalizes a `pub use` path's "::" separators to the
// driver's own "." dotted module-path convention, so re-export edges can
// be looked up in byPath.
func modulePathKey(path string) string {
	return strings.ReplaceAll(path, "::", ".")
}
