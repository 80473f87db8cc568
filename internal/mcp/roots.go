package mcp

import (
	"path/filepath"
	"strings"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// PathValidator confines write operations to the indexed root. Every
// create_doc/update_doc path passes through ValidateWritePath before
// anything touches disk.
type PathValidator struct {
	canonicalRoot string
}

// NewPathValidator canonicalizes root (resolving symlinks) and fails
// if it does not exist.
func NewPathValidator(root string) (*PathValidator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ragerr.New(ragerr.Config, "cannot resolve root: "+root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, ragerr.New(ragerr.Config, "cannot canonicalize root: "+root, err)
	}
	return &PathValidator{canonicalRoot: canonical}, nil
}

// ValidateWritePath rejects empty paths, paths containing ".."
// components, and paths starting with a separator, then joins the
// remainder with the canonical root and verifies the result still
// strips back to a path under the root. Returns the absolute target
// path on success.
func (v *PathValidator) ValidateWritePath(relativePath string) (string, error) {
	if strings.TrimSpace(relativePath) == "" {
		return "", ragerr.New(ragerr.InvalidInput, "path must not be empty", nil)
	}
	if strings.Contains(relativePath, "..") {
		return "", ragerr.New(ragerr.InvalidInput, "path traversal not allowed (.. components)", nil)
	}
	if strings.HasPrefix(relativePath, "/") || strings.HasPrefix(relativePath, `\`) {
		return "", ragerr.New(ragerr.InvalidInput, "path must be relative to the indexed root (no leading / or \\)", nil)
	}

	full := filepath.Join(v.canonicalRoot, filepath.FromSlash(relativePath))

	rel, err := filepath.Rel(v.canonicalRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ragerr.New(ragerr.InvalidInput, "path outside allowed directory: "+relativePath, nil)
	}
	return full, nil
}

// Root returns the canonicalized root the validator confines writes to.
func (v *PathValidator) Root() string {
	return v.canonicalRoot
}
