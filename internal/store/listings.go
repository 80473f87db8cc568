package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// DocumentSummary is the per-document row returned by ListDocuments,
// carrying just enough for the list tool's output.
type DocumentSummary struct {
	DocPath    string
	DocType    string
	EntityName string
}

// StaleDocument is one entry in the freshness report.
type StaleDocument struct {
	DocPath      string
	LastModified string
}

func (d *DB) distinctColumn(ctx context.Context, query string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to list distinct values", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan distinct value", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ListEntities returns every distinct entity name, sorted.
func (d *DB) ListEntities(ctx context.Context) ([]string, error) {
	return d.distinctColumn(ctx,
		`SELECT DISTINCT entity_name FROM documents WHERE entity_name IS NOT NULL ORDER BY entity_name`)
}

// ListNamespaces returns every distinct namespace, sorted.
func (d *DB) ListNamespaces(ctx context.Context) ([]string, error) {
	return d.distinctColumn(ctx,
		`SELECT DISTINCT namespace FROM documents ORDER BY namespace`)
}

// ListDocTypes returns every distinct document type, sorted.
func (d *DB) ListDocTypes(ctx context.Context) ([]string, error) {
	return d.distinctColumn(ctx,
		`SELECT DISTINCT doc_type FROM documents ORDER BY doc_type`)
}

// ListDocuments returns summaries of the documents in namespace,
// optionally restricted to one entity, ordered by path.
func (d *DB) ListDocuments(ctx context.Context, namespace, entityName string) ([]DocumentSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `SELECT doc_path, doc_type, entity_name FROM documents WHERE namespace = ?`
	args := []any{namespace}
	if entityName != "" {
		query += ` AND entity_name = ?`
		args = append(args, entityName)
	}
	query += ` ORDER BY doc_path`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to list documents in "+namespace, err)
	}
	defer rows.Close()

	var docs []DocumentSummary
	for rows.Next() {
		var doc DocumentSummary
		var entity sql.NullString
		if err := rows.Scan(&doc.DocPath, &doc.DocType, &entity); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan document summary", err)
		}
		doc.EntityName = entity.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// StaleDocuments returns up to limit documents whose last_modified is
// older than cutoff (RFC3339), oldest first, for the freshness report.
func (d *DB) StaleDocuments(ctx context.Context, cutoff string, limit int) ([]StaleDocument, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.conn.QueryContext(ctx, `
		SELECT doc_path, last_modified FROM documents
		WHERE datetime(last_modified) < datetime(?)
		ORDER BY last_modified ASC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to list stale documents", err)
	}
	defer rows.Close()

	var docs []StaleDocument
	for rows.Next() {
		var doc StaleDocument
		if err := rows.Scan(&doc.DocPath, &doc.LastModified); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan stale document", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetDocumentByPathNormalized fetches a document by relative path with
// separator-insensitive matching: both the stored and the queried path
// are normalized to forward slashes before comparison, so a caller can
// address a document indexed under the opposite separator convention.
// Returns nil, nil if not found.
func (d *DB) GetDocumentByPathNormalized(ctx context.Context, docPath string) (*Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	normalized := strings.Trim(strings.ReplaceAll(docPath, `\`, "/"), "/")
	row := d.conn.QueryRowContext(ctx, `
		SELECT doc_id, doc_path, doc_type, namespace, entity_name,
			content_text, content_tokens, last_modified, file_hash
		FROM documents WHERE REPLACE(doc_path, '\', '/') = ?`, normalized)
	return scanDocument(row)
}

// CountChunksForDoc reports how many chunks docID currently owns.
func (d *DB) CountChunksForDoc(ctx context.Context, docID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var n int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE doc_id = ?`, docID).Scan(&n); err != nil {
		return 0, ragerr.New(ragerr.Storage, "failed to count chunks for "+docID, err)
	}
	return n, nil
}

// SetDocumentType overrides a stored document's type, used when a
// create_doc caller supplies an explicit doc_type that should win over
// the parser's detection.
func (d *DB) SetDocumentType(ctx context.Context, docID, docType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.conn.ExecContext(ctx, `UPDATE documents SET doc_type = ? WHERE doc_id = ?`, docType, docID); err != nil {
		return ragerr.New(ragerr.Storage, "failed to set doc type for "+docID, err)
	}
	return nil
}
