package webctx

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// PathResolver maps a logical, slash-separated web path
// (e.g. "dist/extensions/My/myplugin.js") to an absolute filesystem path.
type PathResolver interface {
	ResolvePath(logical string) (string, error)
}

// ResolverFunc adapts a plain function to PathResolver
type ResolverFunc func(logical string) (string, error)

// ResolvePath calls f(logical)
func (f ResolverFunc) ResolvePath(logical string) (string, error) {
	return f(logical)
}

// DirResolver resolves logical paths against a web root directory
type DirResolver struct {
	Root string
}

// NewDirResolver creates a resolver rooted at root
func NewDirResolver(root string) *DirResolver {
	return &DirResolver{Root: root}
}

// ResolvePath joins logical onto the root. Paths that would leave the root are rejected.
func (d *DirResolver) ResolvePath(logical string) (string, error) {
	clean, err := CleanLogical(logical)
	if err != nil {
		return "", err
	}

	root := filepath.Clean(d.Root)
	if clean == "" {
		return root, nil
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// CleanLogical normalizes a logical path and rejects absolute or escaping paths.
// The empty string and "." both resolve to "".
func CleanLogical(logical string) (string, error) {
	slashed := strings.ReplaceAll(logical, "\\", "/")
	if strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("absolute logical path not allowed: %s", logical)
	}

	clean := path.Clean(slashed)
	if clean == "." {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("logical path escapes web root: %s", logical)
	}
	return clean, nil
}
