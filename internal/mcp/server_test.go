package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/chunk"
	"github.com/ragmcp/ragmcp/internal/config"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/ingest"
	"github.com/ragmcp/ragmcp/internal/parse"
	"github.com/ragmcp/ragmcp/internal/store"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	db, err := store.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Default()
	cfg.Ragmcp.RagFolder = root

	registry := parse.NewRegistry(nil)
	chunkCache := cache.New()
	embedder := embed.NewStaticEmbedder(store.EmbeddingDimensions)
	pipeline := &ingest.Pipeline{
		DB:         db,
		Registry:   registry,
		Embedder:   embedder,
		ChunkCache: chunkCache,
		ChunkCfg: chunk.Config{
			SizeTokens:    cfg.Performance.ChunkSizeTokens,
			OverlapTokens: cfg.Performance.ChunkOverlapTokens,
		},
	}

	s, err := NewServer(db, embedder, chunkCache, pipeline, registry, &cfg, nil)
	require.NoError(t, err)
	return s, root
}

func writeAndIngest(t *testing.T, s *Server, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))

	info, err := os.Stat(abs)
	require.NoError(t, err)
	require.NoError(t, s.pipeline.IngestFile(context.Background(), ingest.DiscoveredFile{
		AbsolutePath: abs,
		RelativePath: relPath,
		Extension:    "md",
		Size:         info.Size(),
		ModTime:      info.ModTime(),
	}))
}

func resultText(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*sdk.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestSearchReturnsIngestedDocument(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Guides/api/endpoints.md", "API endpoints for the payment service\n")

	minScore := 0.0
	res, _, err := s.handleSearch(context.Background(), nil, SearchInput{
		Query:    "payment endpoints",
		K:        5,
		MinScore: &minScore,
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	require.Contains(t, text, "Guides/api/endpoints.md")
	require.Contains(t, text, "1. ")
}

func TestSearchShortQueryRejected(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "ab"})
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestGetMetadataAndFullDoc(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Guides/api/endpoints.md", "# Endpoints\n\nPayment endpoints.\n")

	res, _, err := s.handleGet(context.Background(), nil, GetInput{DocPath: "Guides/api/endpoints.md"})
	require.NoError(t, err)
	text := resultText(t, res)
	require.Contains(t, text, "Document: Guides/api/endpoints.md")
	require.Contains(t, text, "Namespace: guides")
	require.Contains(t, text, "return_full_doc=true")
	require.NotContains(t, text, "Payment endpoints.")

	res, _, err = s.handleGet(context.Background(), nil, GetInput{DocPath: "Guides/api/endpoints.md", ReturnFullDoc: true})
	require.NoError(t, err)
	require.Contains(t, resultText(t, res), "Payment endpoints.")
}

func TestGetSeparatorInsensitive(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Guides/api/endpoints.md", "content\n")

	res, _, err := s.handleGet(context.Background(), nil, GetInput{DocPath: `Guides\api\endpoints.md`})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "Guides/api/endpoints.md")
}

func TestGetSectionsFilter(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Guides/manual.md", "# Setup\n\nInstall steps.\n\n# Usage\n\nRun it.\n")

	res, _, err := s.handleGet(context.Background(), nil, GetInput{
		DocPath:  "Guides/manual.md",
		Sections: []string{"Usage"},
	})
	require.NoError(t, err)
	text := resultText(t, res)
	require.Contains(t, text, "Run it.")
	require.NotContains(t, text, "Install steps.")
}

func TestGetMissingDocument(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleGet(context.Background(), nil, GetInput{DocPath: "nope.md"})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "not found")
}

func TestListModes(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "System/router/prompt.md", "routing rules\n")
	writeAndIngest(t, s, root, "Guides/api/endpoints.md", "api docs\n")

	res, _, err := s.handleList(context.Background(), nil, ListInput{ListType: "entities"})
	require.NoError(t, err)
	text := resultText(t, res)
	require.Contains(t, text, "router")
	require.Contains(t, text, "api")

	res, _, err = s.handleList(context.Background(), nil, ListInput{ListType: "namespaces"})
	require.NoError(t, err)
	text = resultText(t, res)
	require.Contains(t, text, "system")
	require.Contains(t, text, "guides")

	res, _, err = s.handleList(context.Background(), nil, ListInput{ListType: "doc_types"})
	require.NoError(t, err)
	require.Contains(t, resultText(t, res), "markdown")

	res, _, err = s.handleList(context.Background(), nil, ListInput{ListType: "system_docs"})
	require.NoError(t, err)
	text = resultText(t, res)
	require.Contains(t, text, "System/router/prompt.md")
	require.NotContains(t, text, "Guides/api/endpoints.md")

	res, _, err = s.handleList(context.Background(), nil, ListInput{ListType: "system_docs", AgentName: "other"})
	require.NoError(t, err)
	require.Contains(t, resultText(t, res), "Found 0 system documents")

	res, _, err = s.handleList(context.Background(), nil, ListInput{ListType: "bogus"})
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestRelatedTraversesExtractedGraph(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Agents/planner/routes.md", "Agent-A → Agent-B\n")

	res, _, err := s.handleRelated(context.Background(), nil, RelatedInput{Entity: "entity:agent-a", MaxDepth: 1})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out struct {
		Entity        string `json:"entity"`
		RelationCount int    `json:"relation_count"`
		Relations     []struct {
			Source string `json:"source"`
			Type   string `json:"type"`
			Target string `json:"target"`
		} `json:"relations"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Equal(t, 1, out.RelationCount)
	require.Equal(t, "entity:agent-b", out.Relations[0].Target)
	require.Equal(t, "routes_to", out.Relations[0].Type)
}

func TestRelatedDepthClampedToThree(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Agents/planner/routes.md", "a → b\nb → c\nc → a\n")

	res, _, err := s.handleRelated(context.Background(), nil, RelatedInput{Entity: "entity:a", MaxDepth: 9})
	require.NoError(t, err)

	var out struct {
		MaxDepth      int `json:"max_depth"`
		RelationCount int `json:"relation_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Equal(t, 3, out.MaxDepth)
	require.LessOrEqual(t, out.RelationCount, 3)
}

func TestExplainModes(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Guides/api/endpoints.md", "api docs\n")

	res, _, err := s.handleExplain(context.Background(), nil, ExplainInput{ExplainWhat: "index_stats"})
	require.NoError(t, err)
	text := resultText(t, res)
	require.Contains(t, text, "Total Documents: 1")
	require.Contains(t, text, "Embedding Coverage: 100.0%")

	res, _, err = s.handleExplain(context.Background(), nil, ExplainInput{ExplainWhat: "doc_info", DocPath: "Guides/api/endpoints.md"})
	require.NoError(t, err)
	text = resultText(t, res)
	require.Contains(t, text, "Path: Guides/api/endpoints.md")
	require.Contains(t, text, "Chunks: 1")

	res, _, err = s.handleExplain(context.Background(), nil, ExplainInput{ExplainWhat: "doc_info"})
	require.NoError(t, err)
	require.True(t, res.IsError)

	res, _, err = s.handleExplain(context.Background(), nil, ExplainInput{ExplainWhat: "freshness"})
	require.NoError(t, err)
	require.Contains(t, resultText(t, res), "No stale documents")

	res, _, err = s.handleExplain(context.Background(), nil, ExplainInput{ExplainWhat: "bogus"})
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestCreateDocWritesAndIngests(t *testing.T) {
	s, root := newTestServer(t)

	res, _, err := s.handleCreateDoc(context.Background(), nil, CreateDocInput{
		DocPath: "Notes/todo.md",
		Content: "# Todo\n\nShip the release.\n",
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out struct {
		Success       bool   `json:"success"`
		DocID         string `json:"doc_id"`
		ChunksCreated int    `json:"chunks_created"`
		OperationID   string `json:"operation_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.True(t, out.Success)
	require.Equal(t, ingest.DocID("Notes/todo.md"), out.DocID)
	require.Positive(t, out.ChunksCreated)
	require.NotEmpty(t, out.OperationID)

	require.FileExists(t, filepath.Join(root, "Notes", "todo.md"))

	doc, err := s.db.GetDocumentByPath(context.Background(), "Notes/todo.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "notes", doc.Namespace)
}

func TestCreateDocFailsIfExists(t *testing.T) {
	s, _ := newTestServer(t)

	in := CreateDocInput{DocPath: "Notes/todo.md", Content: "first\n"}
	res, _, err := s.handleCreateDoc(context.Background(), nil, in)
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, _, err = s.handleCreateDoc(context.Background(), nil, in)
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "already exists")
}

func TestCreateDocTypeOverride(t *testing.T) {
	s, _ := newTestServer(t)

	res, _, err := s.handleCreateDoc(context.Background(), nil, CreateDocInput{
		DocPath: "Notes/spec.md",
		Content: "body\n",
		DocType: "design",
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	doc, err := s.db.GetDocumentByPath(context.Background(), "Notes/spec.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "design", doc.DocType)
}

func TestWritePathValidationRejected(t *testing.T) {
	s, _ := newTestServer(t)

	for _, bad := range []string{"../escape.md", "/abs.md", `\abs.md`, ""} {
		res, _, err := s.handleCreateDoc(context.Background(), nil, CreateDocInput{DocPath: bad, Content: "x"})
		require.NoError(t, err, bad)
		require.True(t, res.IsError, bad)

		res, _, err = s.handleUpdateDoc(context.Background(), nil, UpdateDocInput{DocPath: bad, Content: "x"})
		require.NoError(t, err, bad)
		require.True(t, res.IsError, bad)
	}
}

func TestUpdateDocReplacesContent(t *testing.T) {
	s, root := newTestServer(t)
	writeAndIngest(t, s, root, "Notes/todo.md", "old content\n")

	res, _, err := s.handleUpdateDoc(context.Background(), nil, UpdateDocInput{
		DocPath: "Notes/todo.md",
		Content: "brand new content\n",
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	doc, err := s.db.GetDocumentByPath(context.Background(), "Notes/todo.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Contains(t, doc.ContentText, "brand new content")

	data, err := os.ReadFile(filepath.Join(root, "Notes", "todo.md"))
	require.NoError(t, err)
	require.Equal(t, "brand new content\n", string(data))
}
