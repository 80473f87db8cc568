package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// LogQuery appends one search call to the query log. Writes are
// unordered w.r.t. one another but each is atomic; this table is never
// read by the search path itself.
func (d *DB) LogQuery(ctx context.Context, entry QueryLogEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry.QueryID == "" {
		entry.QueryID = uuid.NewString()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	chunkIDs := entry.RetrievedChunkIDs
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	chunkIDsJSON, err := json.Marshal(chunkIDs)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to encode retrieved chunk ids", err)
	}

	_, err = d.conn.ExecContext(ctx, `
		INSERT INTO query_log(query_id, query_text, retrieval_method, retrieved_chunk_ids, latency_ms, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.QueryID, entry.QueryText, entry.RetrievalMethod, string(chunkIDsJSON),
		entry.LatencyMS, entry.ResultCount, entry.CreatedAt)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to write query log entry", err)
	}
	return nil
}
