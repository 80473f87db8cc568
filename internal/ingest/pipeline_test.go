package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/chunk"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/parse"
	"github.com/ragmcp/ragmcp/internal/store"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	db, err := store.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &Pipeline{
		DB:         db,
		Registry:   parse.NewRegistry(nil),
		Embedder:   embed.NewStaticEmbedder(store.EmbeddingDimensions),
		ChunkCache: cache.New(),
		ChunkCfg:   chunk.Config{SizeTokens: 128, OverlapTokens: 16},
	}
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestRunIngestsNewDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "teams/router/agent.md", "# Router\n\nAgent-A → Agent-B handles billing.\n")

	p := newTestPipeline(t)
	summary, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, []string{"teams/router/agent.md"}, summary.Ingested)
	require.Empty(t, summary.Failed)

	doc, err := p.DB.GetDocumentByPath(context.Background(), "teams/router/agent.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "teams", doc.Namespace)
	require.Equal(t, "router", doc.EntityName)

	chunks, err := p.DB.GetChunksForDoc(context.Background(), doc.DocID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	require.NotNil(t, chunks[0].Embedding)
	require.Equal(t, store.EmbeddingDimensions, len(chunks[0].Embedding))

	relations, err := p.DB.RelationsFrom(context.Background(), "entity:agent-a", nil)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	require.Equal(t, "entity:agent-b", relations[0].TargetEntity)

	require.Equal(t, 1, p.ChunkCache.Len())
}

func TestRunSkipsUnchangedOnSecondPass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "teams/router/agent.md", "stable content\n")

	p := newTestPipeline(t)
	ctx := context.Background()
	_, err := p.Run(ctx, root)
	require.NoError(t, err)

	summary, err := p.Run(ctx, root)
	require.NoError(t, err)
	require.Empty(t, summary.Ingested)
	require.Empty(t, summary.Deleted)
}

func TestRunReingestsModifiedAndDeletesRemoved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "teams/router/agent.md", "v1\n")

	p := newTestPipeline(t)
	p.Cleanup = true
	ctx := context.Background()
	_, err := p.Run(ctx, root)
	require.NoError(t, err)

	writeFile(t, root, "teams/router/agent.md", "v2, longer content now\n")
	summary, err := p.Run(ctx, root)
	require.NoError(t, err)
	require.Equal(t, []string{"teams/router/agent.md"}, summary.Ingested)

	require.NoError(t, os.Remove(filepath.Join(root, "teams/router/agent.md")))
	summary, err = p.Run(ctx, root)
	require.NoError(t, err)
	require.Equal(t, []string{"teams/router/agent.md"}, summary.Deleted)

	doc, err := p.DB.GetDocumentByPath(ctx, "teams/router/agent.md")
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, 0, p.ChunkCache.Len())
}

func TestIngestFileWithoutEntitySegmentSkipsRelations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md", "A → B\n")

	p := newTestPipeline(t)
	ctx := context.Background()
	files, err := DiscoverFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, p.IngestFile(ctx, files[0]))

	relations, err := p.DB.RelationsFrom(ctx, "entity:a", nil)
	require.NoError(t, err)
	require.Empty(t, relations)
}

func TestRunWithoutCleanupKeepsDeletedCandidates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "teams/router/agent.md", "v1\n")

	p := newTestPipeline(t)
	ctx := context.Background()
	_, err := p.Run(ctx, root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "teams/router/agent.md")))
	summary, err := p.Run(ctx, root)
	require.NoError(t, err)
	require.Empty(t, summary.Deleted)

	doc, err := p.DB.GetDocumentByPath(ctx, "teams/router/agent.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
}
