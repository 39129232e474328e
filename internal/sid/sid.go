// Package sid computes stable content identifiers for source locations.
package sid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// SID is a stable identifier derived from a canonical path and a node's
// position within it. It is used wherever a definition needs an identity
// that survives incidental re-parses of an unchanged file.
type SID string

// New computes a stable ID from a canonicalized path, a byte span, a node
// kind tag, and the index path taken to reach the node from its parent.
func New(path string, start, end int, kind string, childPath []int) SID {
	canonPath := canonicalizePath(path)

	parts := make([]string, 0, 4+len(childPath))
	parts = append(parts, canonPath, fmt.Sprintf("%d", start), fmt.Sprintf("%d", end), kind)
	for _, idx := range childPath {
		parts = append(parts, fmt.Sprintf("%d", idx))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return SID(hex.EncodeToString(hash[:])[:16])
}

func canonicalizePath(path string) string {
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	if isCaseInsensitive() {
		path = strings.ToLower(path)
	}
	return filepath.ToSlash(path)
}

func isCaseInsensitive() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}
