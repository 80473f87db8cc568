package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// ReplaceRelationsForEntity atomically replaces every relation
// previously extracted from owningEntity (identified by the
// "extracted_from" tag in metadata_json) with newRelations. Called once
// per ingested document that has an entity name, even when
// newRelations is empty (that still clears stale edges).
func (d *DB) ReplaceRelationsForEntity(ctx context.Context, owningEntity string, newRelations []*Relation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.withTx(ctx, func(tx *sql.Tx) error {
		pattern := fmt.Sprintf(`%%"extracted_from":"%s"%%`, owningEntity)
		if _, err := tx.ExecContext(ctx, `DELETE FROM entity_relations WHERE metadata_json LIKE ?`, pattern); err != nil {
			return ragerr.New(ragerr.Storage, "failed to clear relations for "+owningEntity, err)
		}

		insert, err := tx.PrepareContext(ctx, `
			INSERT INTO entity_relations(relation_id, source_entity, relation_type, target_entity, metadata_json)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return ragerr.New(ragerr.Storage, "failed to prepare relation insert", err)
		}
		defer insert.Close()

		for _, r := range newRelations {
			if _, err := insert.ExecContext(ctx, r.RelationID, r.SourceEntity, r.RelationType, r.TargetEntity,
				nullableString(r.MetadataJSON)); err != nil {
				return ragerr.New(ragerr.Storage, "failed to insert relation "+r.RelationID, err)
			}
		}
		return nil
	})
}

// RelationsFrom returns every outgoing relation of sourceEntity,
// optionally filtered to a set of relation types. A nil/empty
// relationTypes means no filter.
func (d *DB) RelationsFrom(ctx context.Context, sourceEntity string, relationTypes []string) ([]*Relation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	query := `SELECT relation_id, source_entity, relation_type, target_entity, metadata_json
		FROM entity_relations WHERE source_entity = ?`
	args := []any{sourceEntity}

	if len(relationTypes) > 0 {
		placeholders := ""
		for i, t := range relationTypes {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args = append(args, t)
		}
		query += " AND relation_type IN (" + placeholders + ")"
	}

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read relations from "+sourceEntity, err)
	}
	defer rows.Close()

	var relations []*Relation
	for rows.Next() {
		var r Relation
		var metadata sql.NullString
		if err := rows.Scan(&r.RelationID, &r.SourceEntity, &r.RelationType, &r.TargetEntity, &metadata); err != nil {
			return nil, ragerr.New(ragerr.Storage, "failed to scan relation row", err)
		}
		r.MetadataJSON = metadata.String
		relations = append(relations, &r)
	}
	return relations, rows.Err()
}
