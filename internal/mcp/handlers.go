package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragmcp/ragmcp/internal/graph"
	"github.com/ragmcp/ragmcp/internal/ingest"
	"github.com/ragmcp/ragmcp/internal/search"
	"github.com/ragmcp/ragmcp/internal/store"
)

const (
	defaultMaxDepth   = 1
	maxTraversalDepth = 3

	stalenessWindow = 7 * 24 * time.Hour
	stalenessLimit  = 20

	previewRunes = 200
)

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	rid := requestID()

	query := strings.TrimSpace(in.Query)
	if len(query) < 3 {
		return errorResult("Error: Query must be at least 3 characters"), nil, nil
	}

	k := in.K
	if k <= 0 {
		k = s.cfg.Search.DefaultK
	}
	minScore := float64(s.cfg.Search.MinScore)
	if in.MinScore != nil {
		minScore = *in.MinScore
	}
	// Overfetch hands the caller the raw fused candidate set: it
	// replaces k and disables score filtering for this call.
	if in.Overfetch > 0 {
		k = in.Overfetch
		minScore = 0
	}

	filter := search.Filter{EntityName: in.AgentFilter}
	if in.Namespace != "" && in.Namespace != "all" {
		filter.Namespace = in.Namespace
	}

	s.logger.Info("search started",
		slog.String("request_id", rid),
		slog.String("query", query),
		slog.Int("k", k))

	results, err := search.HybridSearch(ctx, s.db, s.chunkCache, s.embedder, query, filter, k, minScore, search.Weights{
		BM25:   float64(s.cfg.Search.HybridBM25Weight),
		Vector: float64(s.cfg.Search.HybridVectorWeight),
	})
	latency := time.Since(start)
	if err != nil {
		s.logger.Error("search failed",
			slog.String("request_id", rid),
			slog.Duration("duration", latency),
			slog.String("error", err.Error()))
		return errorResult("Search failed: " + err.Error()), nil, nil
	}

	chunkIDs := make([]string, len(results))
	for i, r := range results {
		chunkIDs[i] = r.ChunkID
	}
	logErr := s.db.LogQuery(ctx, store.QueryLogEntry{
		QueryText:         query,
		RetrievalMethod:   "hybrid",
		RetrievedChunkIDs: chunkIDs,
		LatencyMS:         latency.Milliseconds(),
		ResultCount:       len(results),
	})
	if logErr != nil {
		s.logger.Warn("query log write failed", slog.String("request_id", rid), slog.Any("error", logErr))
	}

	s.logger.Info("search completed",
		slog.String("request_id", rid),
		slog.Duration("duration", latency),
		slog.Int("result_count", len(results)))

	return textResult(formatSearchResults(query, results, latency.Milliseconds())), nil, nil
}

func formatSearchResults(query string, results []search.Result, latencyMS int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for query: %q\n\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(&b, "%d. %s (score: %.3f)\n", r.Rank, r.DocPath, r.Score)
		if r.SectionHeader != "" {
			fmt.Fprintf(&b, "   Section: %s\n", r.SectionHeader)
		}
		if r.EntityName != "" {
			fmt.Fprintf(&b, "   Entity: %s\n", r.EntityName)
		}
		fmt.Fprintf(&b, "   Content: %s\n\n", preview(r.ChunkText, previewRunes))
	}
	fmt.Fprintf(&b, "Latency: %dms\n", latencyMS)
	return b.String()
}

// preview truncates text to at most n runes, never splitting a
// code point.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func (s *Server) handleGet(ctx context.Context, _ *mcp.CallToolRequest, in GetInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.DocPath) == "" {
		return errorResult("Error: doc_path is required"), nil, nil
	}

	doc, err := s.db.GetDocumentByPathNormalized(ctx, in.DocPath)
	if err != nil {
		return errorResult("Lookup failed: " + err.Error()), nil, nil
	}
	if doc == nil {
		return errorResult("Document not found: " + in.DocPath), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Document: %s\n", doc.DocPath)
	fmt.Fprintf(&b, "Type: %s\n", doc.DocType)
	fmt.Fprintf(&b, "Namespace: %s\n", doc.Namespace)
	if doc.EntityName != "" {
		fmt.Fprintf(&b, "Entity: %s\n", doc.EntityName)
	}
	fmt.Fprintf(&b, "Tokens: %d\n", doc.ContentTokens)
	fmt.Fprintf(&b, "Last Modified: %s\n", doc.LastModified)
	fmt.Fprintf(&b, "Hash: %s\n\n", doc.FileHash)

	switch {
	case len(in.Sections) > 0:
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.DocPath), "."))
		parsed := s.registry.Parse(doc.ContentText, doc.DocPath, ext)
		matched := 0
		for _, sec := range parsed.Sections {
			if !sectionRequested(sec.Header, in.Sections) {
				continue
			}
			matched++
			fmt.Fprintf(&b, "## %s\n%s\n\n", sec.Header, sec.Content)
		}
		if matched == 0 {
			b.WriteString("(No matching sections found)\n")
		}
	case in.ReturnFullDoc:
		b.WriteString("Full Content:\n")
		b.WriteString(doc.ContentText)
	default:
		b.WriteString("(Use return_full_doc=true to see full content)\n")
	}

	return textResult(b.String()), nil, nil
}

func sectionRequested(header string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(w), strings.TrimSpace(header)) {
			return true
		}
	}
	return false
}

func (s *Server) handleList(ctx context.Context, _ *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, any, error) {
	var b strings.Builder
	switch in.ListType {
	case "entities":
		entities, err := s.db.ListEntities(ctx)
		if err != nil {
			return errorResult("List failed: " + err.Error()), nil, nil
		}
		fmt.Fprintf(&b, "Found %d entities:\n\n", len(entities))
		for _, e := range entities {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	case "system_docs":
		docs, err := s.db.ListDocuments(ctx, "system", in.AgentName)
		if err != nil {
			return errorResult("List failed: " + err.Error()), nil, nil
		}
		fmt.Fprintf(&b, "Found %d system documents:\n\n", len(docs))
		for _, d := range docs {
			fmt.Fprintf(&b, "- %s (%s)", d.DocPath, d.DocType)
			if d.EntityName != "" {
				fmt.Fprintf(&b, " [Entity: %s]", d.EntityName)
			}
			b.WriteByte('\n')
		}
	case "namespaces":
		namespaces, err := s.db.ListNamespaces(ctx)
		if err != nil {
			return errorResult("List failed: " + err.Error()), nil, nil
		}
		fmt.Fprintf(&b, "Found %d namespaces:\n\n", len(namespaces))
		for _, ns := range namespaces {
			fmt.Fprintf(&b, "- %s\n", ns)
		}
	case "doc_types":
		docTypes, err := s.db.ListDocTypes(ctx)
		if err != nil {
			return errorResult("List failed: " + err.Error()), nil, nil
		}
		fmt.Fprintf(&b, "Found %d document types:\n\n", len(docTypes))
		for _, dt := range docTypes {
			fmt.Fprintf(&b, "- %s\n", dt)
		}
	default:
		return errorResult("Error: Unknown list_type: " + in.ListType), nil, nil
	}
	return textResult(b.String()), nil, nil
}

func (s *Server) handleRelated(ctx context.Context, _ *mcp.CallToolRequest, in RelatedInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.Entity) == "" {
		return errorResult("Error: entity is required"), nil, nil
	}

	maxDepth := in.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	if maxDepth > maxTraversalDepth {
		maxDepth = maxTraversalDepth
	}

	relations, err := graph.Traverse(ctx, s.db, in.Entity, in.RelationTypes, maxDepth)
	if err != nil {
		return errorResult("Traversal failed: " + err.Error()), nil, nil
	}

	type relationOut struct {
		RelationID string          `json:"relation_id"`
		Source     string          `json:"source"`
		Type       string          `json:"type"`
		Target     string          `json:"target"`
		Metadata   json.RawMessage `json:"metadata,omitempty"`
	}
	out := struct {
		Entity        string        `json:"entity"`
		MaxDepth      int           `json:"max_depth"`
		RelationCount int           `json:"relation_count"`
		Relations     []relationOut `json:"relations"`
	}{
		Entity:        in.Entity,
		MaxDepth:      maxDepth,
		RelationCount: len(relations),
		Relations:     make([]relationOut, 0, len(relations)),
	}
	for _, r := range relations {
		rel := relationOut{
			RelationID: r.RelationID,
			Source:     r.SourceEntity,
			Type:       r.RelationType,
			Target:     r.TargetEntity,
		}
		if json.Valid([]byte(r.MetadataJSON)) {
			rel.Metadata = json.RawMessage(r.MetadataJSON)
		}
		out.Relations = append(out.Relations, rel)
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult("JSON serialization failed: " + err.Error()), nil, nil
	}
	return textResult(string(text)), nil, nil
}

func (s *Server) handleExplain(ctx context.Context, _ *mcp.CallToolRequest, in ExplainInput) (*mcp.CallToolResult, any, error) {
	switch in.ExplainWhat {
	case "index_stats":
		stats, err := s.db.Stats(ctx)
		if err != nil {
			return errorResult("Stats failed: " + err.Error()), nil, nil
		}
		coverage := 0.0
		if stats.ChunkCount > 0 {
			coverage = float64(stats.EmbeddedChunkCount) / float64(stats.ChunkCount) * 100
		}
		lastUpdated := stats.LastUpdated
		if lastUpdated == "" {
			lastUpdated = "Unknown"
		}
		text := fmt.Sprintf(
			"Index Statistics:\n\n"+
				"Total Documents: %d\n"+
				"Total Chunks: %d\n"+
				"Chunks with Embeddings: %d\n"+
				"Embedding Coverage: %.1f%%\n"+
				"Last Update: %s\n",
			stats.DocumentCount, stats.ChunkCount, stats.EmbeddedChunkCount, coverage, lastUpdated)
		return textResult(text), nil, nil

	case "doc_info":
		if strings.TrimSpace(in.DocPath) == "" {
			return errorResult("Error: doc_path required for doc_info"), nil, nil
		}
		doc, err := s.db.GetDocumentByPathNormalized(ctx, in.DocPath)
		if err != nil {
			return errorResult("Lookup failed: " + err.Error()), nil, nil
		}
		if doc == nil {
			return errorResult("Document not found: " + in.DocPath), nil, nil
		}
		chunkCount, err := s.db.CountChunksForDoc(ctx, doc.DocID)
		if err != nil {
			return errorResult("Chunk count failed: " + err.Error()), nil, nil
		}

		var b strings.Builder
		b.WriteString("Document Information:\n\n")
		fmt.Fprintf(&b, "Path: %s\n", doc.DocPath)
		fmt.Fprintf(&b, "Type: %s\n", doc.DocType)
		fmt.Fprintf(&b, "Namespace: %s\n", doc.Namespace)
		if doc.EntityName != "" {
			fmt.Fprintf(&b, "Entity: %s\n", doc.EntityName)
		}
		fmt.Fprintf(&b, "Tokens: %d\n", doc.ContentTokens)
		fmt.Fprintf(&b, "Last Modified: %s\n", doc.LastModified)
		fmt.Fprintf(&b, "Hash: %s\n", doc.FileHash)
		fmt.Fprintf(&b, "Chunks: %d\n", chunkCount)
		return textResult(b.String()), nil, nil

	case "freshness":
		cutoff := time.Now().UTC().Add(-stalenessWindow).Format(time.RFC3339)
		stale, err := s.db.StaleDocuments(ctx, cutoff, stalenessLimit)
		if err != nil {
			return errorResult("Freshness report failed: " + err.Error()), nil, nil
		}
		var b strings.Builder
		b.WriteString("Stale Documents (>7 days old):\n\n")
		if len(stale) == 0 {
			b.WriteString("No stale documents found.\n")
		} else {
			fmt.Fprintf(&b, "Found %d stale documents:\n\n", len(stale))
			for _, d := range stale {
				fmt.Fprintf(&b, "- %s (last modified: %s)\n", d.DocPath, d.LastModified)
			}
		}
		return textResult(b.String()), nil, nil

	default:
		return errorResult("Error: Unknown explain_what: " + in.ExplainWhat), nil, nil
	}
}

func (s *Server) handleCreateDoc(ctx context.Context, _ *mcp.CallToolRequest, in CreateDocInput) (*mcp.CallToolResult, any, error) {
	if in.Content == "" {
		return errorResult("Error: content is required"), nil, nil
	}

	absPath, err := s.validator.ValidateWritePath(in.DocPath)
	if err != nil {
		return errorResult("Error: " + err.Error()), nil, nil
	}

	if _, statErr := os.Stat(absPath); statErr == nil {
		s.audit(ctx, "create", in.DocPath, "", false, "File already exists", "")
		return errorResult("Error: File already exists: " + in.DocPath), nil, nil
	}

	return s.writeAndIngest(ctx, "create", in.DocPath, absPath, in.Content, in.DocType)
}

func (s *Server) handleUpdateDoc(ctx context.Context, _ *mcp.CallToolRequest, in UpdateDocInput) (*mcp.CallToolResult, any, error) {
	if in.Content == "" {
		return errorResult("Error: content is required"), nil, nil
	}

	absPath, err := s.validator.ValidateWritePath(in.DocPath)
	if err != nil {
		return errorResult("Error: " + err.Error()), nil, nil
	}

	return s.writeAndIngest(ctx, "update", in.DocPath, absPath, in.Content, "")
}

// writeAndIngest is the shared write-tool body: write the file, run
// the ingestion pipeline synchronously for just that file, apply an
// optional doc_type override, and audit the operation.
func (s *Server) writeAndIngest(ctx context.Context, op, docPath, absPath, content, docTypeOverride string) (*mcp.CallToolResult, any, error) {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		s.audit(ctx, op, docPath, "", false, err.Error(), "")
		return errorResult("Write failed: " + err.Error()), nil, nil
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		s.audit(ctx, op, docPath, "", false, err.Error(), "")
		return errorResult("Write failed: " + err.Error()), nil, nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		s.audit(ctx, op, docPath, "", false, err.Error(), "")
		return errorResult("Write failed: " + err.Error()), nil, nil
	}

	relPath := filepath.ToSlash(docPath)
	file := ingest.DiscoveredFile{
		AbsolutePath: absPath,
		RelativePath: relPath,
		Extension:    strings.ToLower(strings.TrimPrefix(filepath.Ext(docPath), ".")),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
	}
	if err := s.pipeline.IngestFile(ctx, file); err != nil {
		s.audit(ctx, op, docPath, "", false, err.Error(), "")
		return errorResult("Ingestion failed: " + err.Error()), nil, nil
	}

	docID := ingest.DocID(relPath)
	if docTypeOverride != "" {
		if err := s.db.SetDocumentType(ctx, docID, docTypeOverride); err != nil {
			s.audit(ctx, op, docPath, docID, false, err.Error(), "")
			return errorResult("Doc type override failed: " + err.Error()), nil, nil
		}
	}

	chunkCount, err := s.db.CountChunksForDoc(ctx, docID)
	if err != nil {
		return errorResult("Chunk count failed: " + err.Error()), nil, nil
	}

	docType := docTypeOverride
	if docType == "" {
		if doc, docErr := s.db.GetDocumentByPath(ctx, relPath); docErr == nil && doc != nil {
			docType = doc.DocType
		}
	}
	metadata, _ := json.Marshal(map[string]any{
		"doc_type":    docType,
		"chunk_count": chunkCount,
		"file_hash":   ingest.FileHash([]byte(content)),
	})
	operationID := s.audit(ctx, op, docPath, docID, true, "", string(metadata))

	response, _ := json.Marshal(map[string]any{
		"success":        true,
		"doc_id":         docID,
		"doc_path":       relPath,
		"chunks_created": chunkCount,
		"operation_id":   operationID,
		"message":        "Document " + op + "d successfully",
	})
	return textResult(string(response)), nil, nil
}

// audit writes one operation record, logging (not propagating) audit
// failures so a broken audit table cannot mask the operation outcome.
func (s *Server) audit(ctx context.Context, op, docPath, docID string, success bool, errMsg, metadataJSON string) string {
	operationID, err := s.db.LogOperation(ctx, store.OperationRecord{
		OperationType: op,
		DocPath:       docPath,
		DocID:         docID,
		Success:       success,
		ErrorMessage:  errMsg,
		MetadataJSON:  metadataJSON,
	})
	if err != nil {
		s.logger.Warn("audit write failed", slog.String("doc_path", docPath), slog.Any("error", err))
	}
	return operationID
}
