package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// chunkInsertBatchSize batches chunk inserts to keep statement size and
// lock duration bounded on large documents.
const chunkInsertBatchSize = 100

func insertChunksTx(ctx context.Context, tx *sql.Tx, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	insertChunk, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks(chunk_id, doc_id, chunk_index, chunk_text, chunk_tokens,
			section_header, chunk_type, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to prepare chunk insert", err)
	}
	defer insertChunk.Close()

	insertFTS, err := tx.PrepareContext(ctx, `
		INSERT INTO fts_content(chunk_id, chunk_text, section_header) VALUES (?, ?, ?)`)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to prepare FTS insert", err)
	}
	defer insertFTS.Close()

	for start := 0; start < len(chunks); start += chunkInsertBatchSize {
		end := start + chunkInsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		for _, c := range chunks[start:end] {
			var embedding any
			if c.Embedding != nil {
				embedding = EncodeEmbedding(c.Embedding)
			}
			if _, err := insertChunk.ExecContext(ctx, c.ChunkID, c.DocID, c.ChunkIndex, c.ChunkText,
				c.ChunkTokens, nullableString(c.SectionHeader), nullableString(c.ChunkType), embedding); err != nil {
				return ragerr.New(ragerr.Storage, "failed to insert chunk "+c.ChunkID, err)
			}
			if _, err := insertFTS.ExecContext(ctx, c.ChunkID, c.ChunkText, c.SectionHeader); err != nil {
				return ragerr.New(ragerr.Storage, "failed to index chunk "+c.ChunkID, err)
			}
		}
	}
	return nil
}

func deleteChunksForDocTx(ctx context.Context, tx *sql.Tx, docID string) error {
	rows, err := tx.QueryContext(ctx, `SELECT chunk_id FROM chunks WHERE doc_id = ?`, docID)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to list chunks for delete", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return ragerr.New(ragerr.Storage, "failed to scan chunk id for delete", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_content WHERE chunk_id = ?`, id); err != nil {
			return ragerr.New(ragerr.Storage, "failed to remove FTS entry for "+id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, docID); err != nil {
		return ragerr.New(ragerr.Storage, "failed to delete chunks for document "+docID, err)
	}
	return nil
}

// GetChunksForDoc returns every chunk of docID, ordered by ChunkIndex.
func (d *DB) GetChunksForDoc(ctx context.Context, docID string) ([]*Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `
		SELECT chunk_id, doc_id, chunk_index, chunk_text, chunk_tokens, section_header, chunk_type, embedding
		FROM chunks WHERE doc_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read chunks for document "+docID, err)
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

// ChunksMissingEmbeddings returns chunks of docID whose embedding is
// still null, used by backfill.
func (d *DB) ChunksMissingEmbeddings(ctx context.Context, docID string) ([]*Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `
		SELECT chunk_id, doc_id, chunk_index, chunk_text, chunk_tokens, section_header, chunk_type, embedding
		FROM chunks WHERE doc_id = ? AND embedding IS NULL ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read unembedded chunks for document "+docID, err)
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

func scanChunkRows(rows *sql.Rows) ([]*Chunk, error) {
	var chunks []*Chunk
	for rows.Next() {
		var c Chunk
		var section, ctype sql.NullString
		var blob []byte
		if err := rows.Scan(&c.ChunkID, &c.DocID, &c.ChunkIndex, &c.ChunkText, &c.ChunkTokens, &section, &ctype, &blob); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan chunk row", err)
		}
		c.SectionHeader = section.String
		c.ChunkType = ctype.String
		if blob != nil {
			if v, ok := DecodeEmbedding(blob); ok {
				c.Embedding = v
			}
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// SetChunkEmbedding stores the vector for a single chunk.
func (d *DB) SetChunkEmbedding(ctx context.Context, chunkID string, v []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.conn.ExecContext(ctx, `UPDATE chunks SET embedding = ? WHERE chunk_id = ?`,
		EncodeEmbedding(v), chunkID)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to set embedding for chunk "+chunkID, err)
	}
	return nil
}

// AllEmbeddedChunkIDs returns chunk_id -> vector for every chunk with a
// non-null, well-formed embedding. Used to populate the chunk
// embedding cache.
func (d *DB) AllEmbeddedChunkIDs(ctx context.Context) (map[string][]float32, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `SELECT chunk_id, embedding FROM chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read embedded chunks", err)
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan embedded chunk row", err)
		}
		if v, ok := DecodeEmbedding(blob); ok {
			out[id] = v
		}
	}
	return out, rows.Err()
}

// GetChunkByID fetches a single chunk by its full identifier.
func (d *DB) GetChunkByID(ctx context.Context, chunkID string) (*Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.conn.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, chunk_index, chunk_text, chunk_tokens, section_header, chunk_type, embedding
		FROM chunks WHERE chunk_id = ?`, chunkID)

	var c Chunk
	var section, ctype sql.NullString
	var blob []byte
	err := row.Scan(&c.ChunkID, &c.DocID, &c.ChunkIndex, &c.ChunkText, &c.ChunkTokens, &section, &ctype, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to scan chunk "+chunkID, err)
	}
	c.SectionHeader = section.String
	c.ChunkType = ctype.String
	if blob != nil {
		if v, ok := DecodeEmbedding(blob); ok {
			c.Embedding = v
		}
	}
	return &c, nil
}
