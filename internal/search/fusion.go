package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/store"
)

// rrfConstant is the RRF smoothing constant K.
const rrfConstant = 60

// minFetch is the floor on the over-fetch size per list, so fusion has
// enough candidates to work with even when k is tiny.
const minFetch = 20

// Weights are the per-method RRF contribution weights.
type Weights struct {
	BM25   float64
	Vector float64
}

// HybridSearch implements §4.8: over-fetch k*4 from BM25 and vector
// search concurrently (threshold 0, so fusion sees the full candidate
// set), fuse by Reciprocal Rank Fusion, min-max normalize the
// retained top k, apply an adaptive threshold, and rank survivors.
//
// Graceful degradation: if one of the two searches fails, the other's
// results (truncated to k) are returned instead of failing the whole
// call.
func HybridSearch(ctx context.Context, db *store.DB, chunkCache *cache.ChunkEmbeddingCache, embedder embed.Embedder, query string, filter Filter, k int, minScore float64, weights Weights) ([]Result, error) {
	fetch := k * 4
	if fetch < minFetch {
		fetch = minFetch
	}

	var bm25Hits, vectorHits []candidate
	var bm25Err, vectorErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bm25Hits, bm25Err = bm25Candidates(gctx, db, query, filter, fetch)
		return nil
	})
	g.Go(func() error {
		vectorHits, vectorErr = vectorCandidates(gctx, db, chunkCache, embedder, query, filter, fetch)
		return nil
	})
	_ = g.Wait()

	switch {
	case bm25Err != nil && vectorErr != nil:
		return nil, vectorErr
	case bm25Err != nil:
		return truncate(assignRanks(vectorHits), k), nil
	case vectorErr != nil:
		return truncate(assignRanks(bm25Hits), k), nil
	}

	fused := fuse(bm25Hits, vectorHits, weights)
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ChunkID < fused[j].ChunkID
	})
	if len(fused) > k {
		fused = fused[:k]
	}

	normalizeMinMax(fused)
	effectiveMin := adaptiveThreshold(fused, minScore)

	var kept []candidate
	for _, c := range fused {
		if c.Score >= effectiveMin {
			kept = append(kept, c)
		}
	}
	return assignRanks(kept), nil
}

func fuse(bm25Hits, vectorHits []candidate, weights Weights) []candidate {
	scores := make(map[string]*candidate)

	for rank, c := range bm25Hits {
		contribution := weights.BM25 / float64(rrfConstant+rank+1)
		entry := c
		entry.Score = contribution
		scores[c.ChunkID] = &entry
	}

	for rank, c := range vectorHits {
		contribution := weights.Vector / float64(rrfConstant+rank+1)
		if existing, ok := scores[c.ChunkID]; ok {
			existing.Score += contribution
		} else {
			entry := c
			entry.Score = contribution
			scores[c.ChunkID] = &entry
		}
	}

	fused := make([]candidate, 0, len(scores))
	for _, c := range scores {
		fused = append(fused, *c)
	}
	return fused
}

// normalizeMinMax maps the top score to 1 and the bottom to 0, in
// place. If every score is equal (range 0), scores are left untouched.
func normalizeMinMax(candidates []candidate) {
	if len(candidates) == 0 {
		return
	}

	min, max := candidates[0].Score, candidates[0].Score
	for _, c := range candidates {
		if c.Score < min {
			min = c.Score
		}
		if c.Score > max {
			max = c.Score
		}
	}

	rangeScore := max - min
	if rangeScore == 0 {
		return
	}
	for i := range candidates {
		candidates[i].Score = (candidates[i].Score - min) / rangeScore
	}
}

// adaptiveThreshold substitutes min(minScore, 0.2) when the retained
// set's min-max range was small (< 0.1), protecting recall on tight
// score distributions; otherwise it returns minScore unchanged. Range
// is re-derived from the now-normalized scores, so a range-0 set
// (left untouched by normalizeMinMax) always takes the substitute
// path.
func adaptiveThreshold(candidates []candidate, minScore float64) float64 {
	if len(candidates) == 0 {
		return minScore
	}

	min, max := candidates[0].Score, candidates[0].Score
	for _, c := range candidates {
		if c.Score < min {
			min = c.Score
		}
		if c.Score > max {
			max = c.Score
		}
	}

	if max-min < 0.1 {
		if minScore < 0.2 {
			return minScore
		}
		return 0.2
	}
	return minScore
}

func truncate(results []Result, k int) []Result {
	if len(results) > k {
		return results[:k]
	}
	return results
}
