package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// LogOperation appends one create_doc/update_doc attempt to the write
// audit log, success or failure, and returns the generated operation
// ID.
func (d *DB) LogOperation(ctx context.Context, rec OperationRecord) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rec.OperationID == "" {
		rec.OperationID = uuid.NewString()
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	var docID any
	if rec.DocID != "" {
		docID = rec.DocID
	}

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO document_operations(operation_id, timestamp, operation_type, doc_path, doc_id, success, error_message, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OperationID, rec.Timestamp, rec.OperationType, rec.DocPath, docID, rec.Success,
		nullableString(rec.ErrorMessage), nullableString(rec.MetadataJSON))
	if err != nil {
		return "", ragerr.New(ragerr.Storage, "failed to write audit record for "+rec.DocPath, err)
	}
	return rec.OperationID, nil
}
