package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seedDocument(t *testing.T, db *DB, docID, docPath, docType, namespace, entity, lastModified string) {
	t.Helper()
	doc := &Document{
		DocID:         docID,
		DocPath:       docPath,
		DocType:       docType,
		Namespace:     namespace,
		EntityName:    entity,
		ContentText:   "content of " + docPath,
		ContentTokens: 4,
		LastModified:  lastModified,
		FileHash:      "hash-" + docID,
	}
	chunks := []*Chunk{{
		ChunkID:    docID + "::0",
		DocID:      docID,
		ChunkIndex: 0,
		ChunkText:  doc.ContentText,
	}}
	require.NoError(t, db.UpsertDocument(context.Background(), doc, chunks))
}

func TestListingsAcrossNamespaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedDocument(t, db, "d1", "System/router/prompt.md", "markdown", "system", "router", "2026-01-01T00:00:00Z")
	seedDocument(t, db, "d2", "System/planner/prompt.md", "markdown", "system", "planner", "2026-01-02T00:00:00Z")
	seedDocument(t, db, "d3", "Guides/api/endpoints.md", "markdown", "guides", "api", "2026-01-03T00:00:00Z")
	seedDocument(t, db, "d4", "readme.txt", "txt_plaintext", "all", "", "2026-01-04T00:00:00Z")

	entities, err := db.ListEntities(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"api", "planner", "router"}, entities)

	namespaces, err := db.ListNamespaces(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"all", "guides", "system"}, namespaces)

	docTypes, err := db.ListDocTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"markdown", "txt_plaintext"}, docTypes)

	docs, err := db.ListDocuments(ctx, "system", "")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "System/planner/prompt.md", docs[0].DocPath)

	docs, err = db.ListDocuments(ctx, "system", "router")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "router", docs[0].EntityName)
}

func TestStaleDocuments(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-30 * 24 * time.Hour).Format(time.RFC3339)
	fresh := time.Now().UTC().Format(time.RFC3339)
	seedDocument(t, db, "d1", "old.md", "markdown", "all", "", old)
	seedDocument(t, db, "d2", "fresh.md", "markdown", "all", "", fresh)

	cutoff := time.Now().UTC().Add(-7 * 24 * time.Hour).Format(time.RFC3339)
	stale, err := db.StaleDocuments(ctx, cutoff, 20)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "old.md", stale[0].DocPath)
}

func TestGetDocumentByPathNormalized(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedDocument(t, db, "d1", "Guides/api/endpoints.md", "markdown", "guides", "api", "2026-01-01T00:00:00Z")

	doc, err := db.GetDocumentByPathNormalized(ctx, `Guides\api\endpoints.md`)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "Guides/api/endpoints.md", doc.DocPath)

	doc, err = db.GetDocumentByPathNormalized(ctx, "/Guides/api/endpoints.md/")
	require.NoError(t, err)
	require.NotNil(t, doc)

	doc, err = db.GetDocumentByPathNormalized(ctx, "missing.md")
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestSetDocumentTypeAndChunkCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedDocument(t, db, "d1", "Notes/spec.md", "markdown", "notes", "spec", "2026-01-01T00:00:00Z")

	require.NoError(t, db.SetDocumentType(ctx, "d1", "design"))
	doc, err := db.GetDocumentByPath(ctx, "Notes/spec.md")
	require.NoError(t, err)
	require.Equal(t, "design", doc.DocType)

	n, err := db.CountChunksForDoc(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestLogQueryAppends(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.LogQuery(ctx, QueryLogEntry{
		QueryText:         "payment endpoints",
		RetrievalMethod:   "hybrid",
		RetrievedChunkIDs: []string{"d1::0", "d1::1"},
		LatencyMS:         12,
		ResultCount:       2,
	}))

	// No chunk IDs and no explicit timestamp still succeeds.
	require.NoError(t, db.LogQuery(ctx, QueryLogEntry{
		QueryText:       "empty",
		RetrievalMethod: "hybrid",
	}))
}
