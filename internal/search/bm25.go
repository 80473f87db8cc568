package search

import (
	"context"

	"github.com/ragmcp/ragmcp/internal/store"
)

// bm25Candidates runs a sanitized lexical search and returns every hit
// as a candidate, normalized-score descending, with no threshold
// applied — the shape both standalone BM25 search and hybrid fusion's
// over-fetch share.
func bm25Candidates(ctx context.Context, db *store.DB, query string, filter Filter, limit int) ([]candidate, error) {
	rows, err := db.SearchBM25(ctx, query, filter.bm25Filter(), limit)
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
			Score:         store.NormalizeBM25Score(r.RawScore),
		}
	}
	return candidates, nil
}

// SearchBM25 runs lexical-only search: sanitize, match, normalize,
// drop below minScore, rank survivors. The underlying query already
// returns rows best-first (ascending raw bm25 score == descending
// normalized score), so no extra sort is needed.
func SearchBM25(ctx context.Context, db *store.DB, query string, filter Filter, minScore float64, limit int) ([]Result, error) {
	candidates, err := bm25Candidates(ctx, db, query, filter, limit)
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
