package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Guides", "api"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "Guides", "api", "endpoints.md"),
		[]byte("API endpoints for the payment service\n"), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := `ragmcp:
  rag_folder: ` + root + `
  db_path: ` + filepath.Join(dir, "index.db") + `
embeddings:
  provider: static
  batch_size: 32
  cache_capacity: 16
search:
  default_k: 5
  min_score: 0.0
  hybrid_bm25_weight: 1.0
  hybrid_vector_weight: 1.0
performance:
  chunk_size_tokens: 128
  chunk_overlap_tokens: 16
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	out := runCommand(t, "version")
	require.Contains(t, out, "ragmcp")
}

func TestIngestThenSearch(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := runCommand(t, "ingest", "--config", cfgPath)
	require.Contains(t, out, "Ingested: 1")
	require.Contains(t, out, "Failed:   0")

	out = runCommand(t, "search", "payment", "endpoints", "--config", cfgPath, "--plain", "--min-score", "0")
	require.Contains(t, out, "Guides/api/endpoints.md")
}

func TestIngestSecondPassIsNoOp(t *testing.T) {
	cfgPath := writeTestConfig(t)

	runCommand(t, "ingest", "--config", cfgPath)
	out := runCommand(t, "ingest", "--config", cfgPath)
	require.Contains(t, out, "Ingested: 0")
}
