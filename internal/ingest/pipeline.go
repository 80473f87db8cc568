package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/chunk"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/parse"
	"github.com/ragmcp/ragmcp/internal/ragerr"
	"github.com/ragmcp/ragmcp/internal/store"
)

// Pipeline owns the dependencies a single ingestion pass needs: where
// to read files from, how to parse/chunk/embed them, and where to
// write the result.
type Pipeline struct {
	DB         *store.DB
	Registry   *parse.Registry
	Embedder   embed.Embedder
	ChunkCache *cache.ChunkEmbeddingCache
	ChunkCfg   chunk.Config
	Logger     *slog.Logger

	// Cleanup enables deletion of documents whose source file is no
	// longer discovered. Off by default: a missing file makes its
	// document a deleted candidate, not a deletion.
	Cleanup bool
}

// Summary totals one Run's outcome.
type Summary struct {
	Ingested []string // relative paths successfully ingested (new or modified)
	Deleted  []string // relative paths removed from storage
	Failed   map[string]error
}

// Run performs a full incremental ingestion pass over root: discover
// files, classify against stored hashes, ingest every new or modified
// document one at a time, and, when Cleanup is set, delete documents
// whose file disappeared.
// A single document's failure is recorded in Summary.Failed and does
// not abort the run.
func (p *Pipeline) Run(ctx context.Context, root string) (Summary, error) {
	logger := p.logger()
	summary := Summary{Failed: make(map[string]error)}

	files, err := DiscoverFiles(root)
	if err != nil {
		return summary, ragerr.Wrap(ragerr.IO, err)
	}

	existingHashes, err := p.DB.ExistingHashes(ctx)
	if err != nil {
		return summary, err
	}

	classification, err := ClassifyFiles(files, existingHashes, func(f DiscoveredFile) (string, error) {
		content, err := os.ReadFile(f.AbsolutePath)
		if err != nil {
			return "", ragerr.Wrap(ragerr.IO, err)
		}
		return FileHash(content), nil
	})
	if err != nil {
		return summary, err
	}

	for _, f := range append(classification.New, classification.Modified...) {
		if err := p.IngestFile(ctx, f); err != nil {
			logger.Warn("ingest failed", slog.String("path", f.RelativePath), slog.Any("error", err))
			summary.Failed[f.RelativePath] = err
			continue
		}
		summary.Ingested = append(summary.Ingested, f.RelativePath)
	}

	if p.Cleanup {
		for _, path := range FindDeletedDocuments(files, existingHashes) {
			if err := p.deleteDocument(ctx, path); err != nil {
				logger.Warn("delete failed", slog.String("path", path), slog.Any("error", err))
				summary.Failed[path] = err
				continue
			}
			summary.Deleted = append(summary.Deleted, path)
		}
	}

	return summary, nil
}

// IngestFile reads, parses, chunks, embeds, and stores a single file,
// then replaces its extracted relations. Called directly by the watch
// loop for a single changed path, and by Run for every classified
// new/modified file.
func (p *Pipeline) IngestFile(ctx context.Context, f DiscoveredFile) error {
	content, err := os.ReadFile(f.AbsolutePath)
	if err != nil {
		return ragerr.Wrap(ragerr.IO, err)
	}

	parsed := p.Registry.Parse(string(content), f.AbsolutePath, f.Extension)

	docID := DocID(f.RelativePath)
	namespace := ExtractNamespace(f.RelativePath)
	entityName := ExtractEntityName(f.RelativePath)

	chunks := chunk.ChunkDocument(parsed.Content, parsed.Sections, p.ChunkCfg)
	storeChunks, err := p.embedChunks(ctx, docID, chunks)
	if err != nil {
		return err
	}

	doc := &store.Document{
		DocID:         docID,
		DocPath:       f.RelativePath,
		DocType:       parsed.DocType,
		Namespace:     namespace,
		EntityName:    entityName,
		ContentText:   parsed.Content,
		ContentTokens: chunk.EstimateTokens(parsed.Content),
		LastModified:  f.ModTime.UTC().Format(time.RFC3339),
		FileHash:      FileHash(content),
	}

	if err := p.DB.UpsertDocument(ctx, doc, storeChunks); err != nil {
		return err
	}

	p.ChunkCache.Delete(docID)
	for _, c := range storeChunks {
		if c.Embedding != nil {
			p.ChunkCache.Put(c.ChunkID, docID, c.Embedding)
		}
	}

	if entityName != "" {
		relations := ExtractRoutingRelations(entityName, parsed.Content)
		if err := p.DB.ReplaceRelationsForEntity(ctx, "entity:"+entityName, relations); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) embedChunks(ctx context.Context, docID string, chunks []chunk.Chunk) ([]*store.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, ragerr.New(ragerr.Embedding,
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)), nil)
	}

	storeChunks := make([]*store.Chunk, len(chunks))
	for i, c := range chunks {
		storeChunks[i] = &store.Chunk{
			ChunkID:       fmt.Sprintf("%s::%d", docID, i),
			DocID:         docID,
			ChunkIndex:    i,
			ChunkText:     c.Text,
			ChunkTokens:   c.Tokens,
			SectionHeader: c.SectionHeader,
			ChunkType:     c.SectionType,
			Embedding:     vectors[i],
		}
	}
	return storeChunks, nil
}

// BackfillEmbeddings embeds every chunk of docID whose embedding is
// still null and stores the result. The watch loop calls it for a
// changed-event file whose content hash is unchanged.
func (p *Pipeline) BackfillEmbeddings(ctx context.Context, docID string) error {
	chunks, err := p.DB.ChunksMissingEmbeddings(ctx, docID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.ChunkText
	}

	vectors, err := p.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return ragerr.New(ragerr.Embedding,
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)), nil)
	}

	for i, c := range chunks {
		if err := p.DB.SetChunkEmbedding(ctx, c.ChunkID, vectors[i]); err != nil {
			return err
		}
		p.ChunkCache.Put(c.ChunkID, docID, vectors[i])
	}
	return nil
}

func (p *Pipeline) deleteDocument(ctx context.Context, relativePath string) error {
	docID := DocID(relativePath)
	if _, err := p.DB.DeleteDocumentByPath(ctx, relativePath); err != nil {
		return err
	}
	p.ChunkCache.Delete(docID)
	return nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
