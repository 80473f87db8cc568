// Package mcp exposes the retrieval engine as a set of callable tools
// over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/config"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/ingest"
	"github.com/ragmcp/ragmcp/internal/parse"
	"github.com/ragmcp/ragmcp/internal/store"
	"github.com/ragmcp/ragmcp/pkg/version"
)

// Server bridges an external agent with the retrieval engine: seven
// named tools dispatching into hybrid search, document access, the
// knowledge graph, index statistics, and the validated write paths.
type Server struct {
	mcp        *mcp.Server
	db         *store.DB
	embedder   embed.Embedder
	chunkCache *cache.ChunkEmbeddingCache
	pipeline   *ingest.Pipeline
	registry   *parse.Registry
	cfg        *config.Config
	validator  *PathValidator
	logger     *slog.Logger
}

// NewServer wires a Server over an open index. The embedder is the
// caching client used for query embeddings; pipeline drives the
// synchronous ingestion the write tools perform.
func NewServer(db *store.DB, embedder embed.Embedder, chunkCache *cache.ChunkEmbeddingCache, pipeline *ingest.Pipeline, registry *parse.Registry, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if db == nil {
		return nil, errors.New("store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	validator, err := NewPathValidator(cfg.Ragmcp.RagFolder)
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:         db,
		embedder:   embedder,
		chunkCache: chunkCache,
		pipeline:   pipeline,
		registry:   registry,
		cfg:        cfg,
		validator:  validator,
		logger:     logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "ragmcp",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying protocol server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_search",
		Description: "Hybrid search across indexed documents using BM25 and vector similarity",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_get",
		Description: "Retrieve a specific document by path",
	}, s.handleGet)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_list",
		Description: "List index structure: entities, system docs, namespaces, or document types",
	}, s.handleList)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_related",
		Description: "Find related entities via the knowledge graph extracted during ingestion",
	}, s.handleRelated)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_explain",
		Description: "Index meta-information: stats, single-document info, or a staleness report",
	}, s.handleExplain)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_create_doc",
		Description: "Create a new document under the indexed root and ingest it immediately",
	}, s.handleCreateDoc)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ragmcp_update_doc",
		Description: "Replace an existing document's content and re-ingest it",
	}, s.handleUpdateDoc)

	s.logger.Info("MCP tools registered", slog.Int("count", 7))
}

// Serve runs the protocol loop on the given transport until ctx is
// cancelled. Only stdio is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// textResult wraps text in the protocol's content framing.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult wraps a failure message in the protocol's content
// framing with the error flag set, so the agent sees the failure as a
// tool outcome rather than a transport fault.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// requestID creates a unique ID for log correlation across one tool
// call.
func requestID() string {
	return uuid.NewString()[:8]
}
