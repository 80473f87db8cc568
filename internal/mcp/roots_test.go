package mcp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) (*PathValidator, string) {
	t.Helper()
	root := t.TempDir()
	v, err := NewPathValidator(root)
	require.NoError(t, err)
	return v, root
}

func TestValidateWritePathSuccess(t *testing.T) {
	v, _ := newTestValidator(t)

	p, err := v.ValidateWritePath("Guides/api/endpoints.md")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(p))
	require.True(t, strings.HasSuffix(filepath.ToSlash(p), "Guides/api/endpoints.md"))
}

func TestValidateWritePathTraversalBlocked(t *testing.T) {
	v, _ := newTestValidator(t)

	for _, bad := range []string{"Guides/../etc/passwd", "..", "a/../b"} {
		_, err := v.ValidateWritePath(bad)
		require.Error(t, err, bad)
	}
}

func TestValidateWritePathLeadingSeparatorRejected(t *testing.T) {
	v, _ := newTestValidator(t)

	_, err := v.ValidateWritePath("/Guides/file.md")
	require.Error(t, err)
	_, err = v.ValidateWritePath(`\Guides\file.md`)
	require.Error(t, err)
}

func TestValidateWritePathEmptyRejected(t *testing.T) {
	v, _ := newTestValidator(t)

	_, err := v.ValidateWritePath("")
	require.Error(t, err)
	_, err = v.ValidateWritePath("   ")
	require.Error(t, err)
}

func TestValidateWritePathNonexistentTargetAllowed(t *testing.T) {
	v, _ := newTestValidator(t)

	p, err := v.ValidateWritePath("Docs/new-topic/overview.md")
	require.NoError(t, err)
	_, statErr := os.Stat(p)
	require.True(t, os.IsNotExist(statErr))
}

func TestValidateWritePathCreateDirAllUnderRoot(t *testing.T) {
	v, _ := newTestValidator(t)

	p, err := v.ValidateWritePath("Business/2026/Q1/report.md")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("content"), 0o644))
	require.FileExists(t, p)
}

func TestNewPathValidatorMissingRoot(t *testing.T) {
	_, err := NewPathValidator(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
