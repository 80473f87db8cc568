package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, ragFolder string) string {
	t.Helper()
	body := `
ragmcp:
  rag_folder: "` + ragFolder + `"
  db_path: "index.db"
embeddings:
  provider: openai
  model: text-embedding-3-small
  api_key_env: RAGMCP_TEST_KEY
  batch_size: 16
  dimensions: 1536
search:
  default_k: 5
  min_score: 0.5
  hybrid_bm25_weight: 1.0
  hybrid_vector_weight: 1.0
performance:
  max_latency_ms: 1000
  chunk_size_tokens: 512
  chunk_overlap_tokens: 64
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFileValid(t *testing.T) {
	t.Setenv("RAGMCP_TEST_KEY", "secret")
	ragFolder := t.TempDir()
	path := writeConfig(t, ragFolder)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Search.DefaultK)
	require.Equal(t, 1536, cfg.Embeddings.Dimensions)
}

func TestLoadFileMissingRagFolder(t *testing.T) {
	t.Setenv("RAGMCP_TEST_KEY", "secret")
	path := writeConfig(t, filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileMissingAPIKey(t *testing.T) {
	os.Unsetenv("RAGMCP_TEST_KEY")
	ragFolder := t.TempDir()
	path := writeConfig(t, ragFolder)

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileOverlapMustBeSmallerThanChunkSize(t *testing.T) {
	t.Setenv("RAGMCP_TEST_KEY", "secret")
	ragFolder := t.TempDir()
	path := writeConfig(t, ragFolder)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Raise the overlap above the 512-token chunk size; every other field
	// stays valid, so the error comes from the overlap check.
	bad := strings.Replace(string(data), "chunk_overlap_tokens: 64", "chunk_overlap_tokens: 600", 1)
	require.NotEqual(t, string(data), bad)
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err = LoadFile(path)
	require.Error(t, err)
}

func TestDefaultIsValidShape(t *testing.T) {
	d := Default()
	require.Equal(t, 5, d.Search.DefaultK)
	require.Less(t, d.Performance.ChunkOverlapTokens, d.Performance.ChunkSizeTokens)
}
