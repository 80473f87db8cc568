package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// UpsertDocument writes doc and replaces chunks with newChunks in a
// single transaction. If a document already exists at doc.DocPath, its
// prior chunks (and their FTS entries) are deleted first — the
// replace-chunks semantics the ingestion pipeline relies on for
// idempotent re-ingestion. newChunks' ChunkID/DocID/ChunkIndex fields
// are set by the caller before this call.
func (d *DB) UpsertDocument(ctx context.Context, doc *Document, newChunks []*Chunk) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents(doc_id, doc_path, doc_type, namespace, entity_name,
				content_text, content_tokens, last_modified, file_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(doc_path) DO UPDATE SET
				doc_type=excluded.doc_type,
				namespace=excluded.namespace,
				entity_name=excluded.entity_name,
				content_text=excluded.content_text,
				content_tokens=excluded.content_tokens,
				last_modified=excluded.last_modified,
				file_hash=excluded.file_hash
		`, doc.DocID, doc.DocPath, doc.DocType, nullableString(doc.Namespace), nullableString(doc.EntityName),
			doc.ContentText, doc.ContentTokens, doc.LastModified, doc.FileHash)
		if err != nil {
			return ragerr.New(ragerr.Storage, "failed to upsert document "+doc.DocPath, err)
		}

		if err := deleteChunksForDocTx(ctx, tx, doc.DocID); err != nil {
			return err
		}
		return insertChunksTx(ctx, tx, newChunks)
	})
}

// GetDocumentByPath fetches a document by its stored relative path,
// exactly as stored (no normalization). Returns nil, nil if not found.
func (d *DB) GetDocumentByPath(ctx context.Context, docPath string) (*Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.conn.QueryRowContext(ctx, `
		SELECT doc_id, doc_path, doc_type, namespace, entity_name,
			content_text, content_tokens, last_modified, file_hash
		FROM documents WHERE doc_path = ?`, docPath)
	return scanDocument(row)
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	var entityName sql.NullString
	err := row.Scan(&doc.DocID, &doc.DocPath, &doc.DocType, &doc.Namespace, &entityName,
		&doc.ContentText, &doc.ContentTokens, &doc.LastModified, &doc.FileHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to scan document", err)
	}
	doc.EntityName = entityName.String
	return &doc, nil
}

// ExistingHashes returns doc_path -> file_hash for every stored
// document, used by incremental classification.
func (d *DB) ExistingHashes(ctx context.Context) (map[string]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `SELECT doc_path, file_hash FROM documents`)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read existing hashes", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan existing hash row", err)
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// DeleteDocumentByPath removes a document and its chunks (cascade) and
// FTS entries. Returns whether a row was deleted.
func (d *DB) DeleteDocumentByPath(ctx context.Context, docPath string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var deleted bool
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var docID string
		err := tx.QueryRowContext(ctx, `SELECT doc_id FROM documents WHERE doc_path = ?`, docPath).Scan(&docID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return ragerr.New(ragerr.Storage, "failed to look up document for delete", err)
		}
		if err := deleteChunksForDocTx(ctx, tx, docID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID); err != nil {
			return ragerr.New(ragerr.Storage, "failed to delete document "+docPath, err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// DocumentPaths returns every stored doc_path, used to find deleted
// candidates during incremental cleanup.
func (d *DB) DocumentPaths(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `SELECT doc_path FROM documents`)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read document paths", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan document path", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
