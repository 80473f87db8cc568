package search

import (
	"context"
	"fmt"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/ragerr"
	"github.com/ragmcp/ragmcp/internal/store"
)

// vectorCandidates embeds query and scores it against the index,
// preferring the in-memory chunk cache when loaded, falling back to a
// full scan of storage otherwise. Returns hits best-first with no
// threshold applied.
func vectorCandidates(ctx context.Context, db *store.DB, chunkCache *cache.ChunkEmbeddingCache, embedder embed.Embedder, query string, filter Filter, limit int) ([]candidate, error) {
	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vec) != store.EmbeddingDimensions {
		return nil, ragerr.New(ragerr.Embedding,
			fmt.Sprintf("query embedding has %d dimensions, want %d", len(vec), store.EmbeddingDimensions), nil)
	}

	if chunkCache != nil && chunkCache.Len() > 0 {
		return cachedVectorCandidates(ctx, db, chunkCache, vec, filter, limit)
	}
	return fullScanVectorCandidates(ctx, db, vec, filter, limit)
}

func cachedVectorCandidates(ctx context.Context, db *store.DB, chunkCache *cache.ChunkEmbeddingCache, vec []float32, filter Filter, limit int) ([]candidate, error) {
	scored := chunkCache.TopK(vec, chunkCache.Len())

	ordered := make([]string, len(scored))
	scoreByID := make(map[string]float64, len(scored))
	for i, s := range scored {
		ordered[i] = s.ChunkID
		scoreByID[s.ChunkID] = s.Score
	}

	hydrated, err := db.HydrateChunks(ctx, ordered, filter.vectorFilter())
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, limit)
	for _, chunkID := range ordered {
		r, ok := hydrated[chunkID]
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{
			ChunkID:       r.ChunkID,
			DocID:         r.DocID,
			DocPath:       r.DocPath,
			Namespace:     r.Namespace,
			EntityName:    r.EntityName,
			SectionHeader: r.SectionHeader,
			ChunkText:     r.ChunkText,
			Score:         scoreByID[chunkID],
		})
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

func fullScanVectorCandidates(ctx context.Context, db *store.DB, vec []float32, filter Filter, limit int) ([]candidate, error) {
	rows, err := db.SearchVectorFullScan(ctx, vec, filter.vectorFilter(), 0, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, len(rows))
	for i, r := range rows {
		candidates[i] = candidate{
			ChunkID:       r.ChunkID,
			DocID:         r.DocID,
			DocPath:       r.DocPath,
			Namespace:     r.Namespace,
			EntityName:    r.EntityName,
			SectionHeader: r.SectionHeader,
			ChunkText:     r.ChunkText,
			Score:         r.Score,
		}
	}
	return candidates, nil
}

// SearchVector runs semantic-only search: embed, score, drop below
// minScore, rank survivors.
func SearchVector(ctx context.Context, db *store.DB, chunkCache *cache.ChunkEmbeddingCache, embedder embed.Embedder, query string, filter Filter, minScore float64, limit int) ([]Result, error) {
	candidates, err := vectorCandidates(ctx, db, chunkCache, embedder, query, filter, limit)
	if err != nil {
		return nil, err
	}

	var kept []candidate
	for _, c := range candidates {
		if c.Score >= minScore {
			kept = append(kept, c)
		}
	}
	return assignRanks(kept), nil
}
