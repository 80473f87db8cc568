package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// VectorFilter narrows a vector search to a namespace and/or entity,
// mirroring BM25Filter.
type VectorFilter struct {
	Namespace  string
	EntityName string
}

// SearchVectorFullScan streams every chunk with a non-null embedding
// that passes filter, scores it against query by cosine similarity,
// keeps scores >= minScore, and returns the top limit sorted
// descending. Used when the chunk embedding cache is unloaded.
func (d *DB) SearchVectorFullScan(ctx context.Context, query []float32, filter VectorFilter, minScore float64, limit int) ([]*VectorResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sqlQuery := `
		SELECT c.chunk_id, c.doc_id, d.doc_path, d.namespace, d.entity_name, c.section_header, c.chunk_text, c.embedding
		FROM chunks c
		JOIN documents d ON d.doc_id = c.doc_id
		WHERE c.embedding IS NOT NULL`
	var args []any
	if filter.Namespace != "" {
		sqlQuery += " AND d.namespace = ?"
		args = append(args, filter.Namespace)
	}
	if filter.EntityName != "" {
		sqlQuery += " AND d.entity_name = ?"
		args = append(args, filter.EntityName)
	}

	rows, err := d.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, ragerr.New(ragerr.Search, "full-scan vector search failed", err)
	}
	defer rows.Close()

	var results []*VectorResult
	for rows.Next() {
		var r VectorResult
		var entityName, sectionHeader sql.NullString
		var blob []byte
		if err := rows.Scan(&r.ChunkID, &r.DocID, &r.DocPath, &r.Namespace, &entityName, &sectionHeader, &r.ChunkText, &blob); err != nil {
			return nil, ragerr.New(ragerr.Search, "failed to scan vector scan row", err)
		}
		vec, ok := DecodeEmbedding(blob)
		if !ok {
			continue
		}
		score := CosineSimilarity(query, vec)
		if score < minScore {
			continue
		}
		r.EntityName = entityName.String
		r.SectionHeader = sectionHeader.String
		r.Score = score
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.New(ragerr.Search, "failed reading vector scan rows", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// HydrateChunks looks up metadata for a preordered list of chunk IDs
// (the cached-path vector search result) applying namespace/entity
// filters in the same SQL so filtered-out entries disappear. Entries
// not found in storage (stale cache) are silently dropped. The result
// is a map keyed by chunk ID and carries no order; callers iterate
// their own ID list to keep the cache ranking.
func (d *DB) HydrateChunks(ctx context.Context, chunkIDs []string, filter VectorFilter) (map[string]*VectorResult, error) {
	if len(chunkIDs) == 0 {
		return map[string]*VectorResult{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	placeholders := make([]string, len(chunkIDs))
	args := make([]any, 0, len(chunkIDs)+2)
	for i, id := range chunkIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	sqlQuery := `
		SELECT c.chunk_id, c.doc_id, d.doc_path, d.namespace, d.entity_name, c.section_header, c.chunk_text
		FROM chunks c
		JOIN documents d ON d.doc_id = c.doc_id
		WHERE c.chunk_id IN (` + strings.Join(placeholders, ",") + `)`

	if filter.Namespace != "" {
		sqlQuery += " AND d.namespace = ?"
		args = append(args, filter.Namespace)
	}
	if filter.EntityName != "" {
		sqlQuery += " AND d.entity_name = ?"
		args = append(args, filter.EntityName)
	}

	rows, err := d.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, ragerr.New(ragerr.Search, "failed to hydrate cached vector results", err)
	}
	defer rows.Close()

	out := make(map[string]*VectorResult)
	for rows.Next() {
		var r VectorResult
		var entityName, sectionHeader sql.NullString
		if err := rows.Scan(&r.ChunkID, &r.DocID, &r.DocPath, &r.Namespace, &entityName, &sectionHeader, &r.ChunkText); err != nil {
			return nil, ragerr.New(ragerr.Search, "failed to scan hydrate row", err)
		}
		r.EntityName = entityName.String
		r.SectionHeader = sectionHeader.String
		out[r.ChunkID] = &r
	}
	return out, rows.Err()
}
