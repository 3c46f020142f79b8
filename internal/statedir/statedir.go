// Package statedir resolves writable per-resource directories under an
// explicitly supplied root. The root is configuration handed in by the
// caller, never ambient process-wide state; creation failures surface
// immediately so startup can fail fatally instead of deferring the
// problem.
package statedir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir joins name onto root and creates the directory if needed, returning
// the absolute-ish resolved path. name must be a single path element; an
// empty name, a separator, or a ".." component is rejected so callers
// cannot escape the root.
func Dir(root, name string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("state dir: empty root")
	}
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("state dir: invalid name %q", name)
	}

	path := filepath.Join(root, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create state dir %s: %w", path, err)
	}
	return path, nil
}
