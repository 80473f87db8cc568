// Package store implements the persistent document/chunk index: SQLite
// tables for documents and chunks, an FTS5 side index for BM25 lexical
// search, the entity-relation graph, and the query/audit logs.
package store

// Document is a single ingested file.
type Document struct {
	DocID         string
	DocPath       string
	DocType       string
	Namespace     string
	EntityName    string // empty if the path has no entity segment
	ContentText   string
	ContentTokens int
	LastModified  string // RFC3339
	FileHash      string
}

// Chunk is a bounded, ordinal-addressed slice of a Document's content.
type Chunk struct {
	ChunkID       string
	DocID         string
	ChunkIndex    int
	ChunkText     string
	ChunkTokens   int
	SectionHeader string // empty if none
	ChunkType     string // empty if none
	Embedding     []float32
}

// Relation is a directed edge in the entity knowledge graph.
type Relation struct {
	RelationID   string
	SourceEntity string
	RelationType string
	TargetEntity string
	MetadataJSON string
}

// QueryLogEntry records one search call.
type QueryLogEntry struct {
	QueryID           string
	QueryText         string
	RetrievalMethod   string
	RetrievedChunkIDs []string
	LatencyMS         int64
	ResultCount       int
	CreatedAt         string
}

// OperationRecord is one write-audit entry.
type OperationRecord struct {
	OperationID   string
	Timestamp     string
	OperationType string // "create" or "update"
	DocPath       string
	DocID         string // empty if unknown
	Success       bool
	ErrorMessage  string
	MetadataJSON  string
}

// BM25Result is one lexical-match candidate, scored before fusion.
type BM25Result struct {
	ChunkID       string
	DocID         string
	DocPath       string
	Namespace     string
	EntityName    string
	SectionHeader string
	ChunkText     string
	RawScore      float64 // raw FTS5 bm25(), lower is better
}

// VectorResult is one semantic-match candidate, scored before fusion.
type VectorResult struct {
	ChunkID       string
	DocID         string
	DocPath       string
	Namespace     string
	EntityName    string
	SectionHeader string
	ChunkText     string
	Score         float64 // cosine similarity, higher is better
}
