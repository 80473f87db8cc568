// Package search implements BM25 lexical search, vector semantic
// search, and their reciprocal-rank-fusion combination.
package search

import "github.com/ragmcp/ragmcp/internal/store"

// Filter narrows a search to a namespace and/or entity. Empty fields
// mean no filter on that dimension.
type Filter struct {
	Namespace  string
	EntityName string
}

func (f Filter) bm25Filter() store.BM25Filter {
	return store.BM25Filter{Namespace: f.Namespace, EntityName: f.EntityName}
}

func (f Filter) vectorFilter() store.VectorFilter {
	return store.VectorFilter{Namespace: f.Namespace, EntityName: f.EntityName}
}

// candidate is an internal, pre-threshold, pre-rank search hit shared
// by both retrieval methods so fusion can treat them uniformly.
type candidate struct {
	ChunkID       string
	DocID         string
	DocPath       string
	Namespace     string
	EntityName    string
	SectionHeader string
	ChunkText     string
	Score         float64
}

// Result is a ranked, threshold-filtered search hit returned to
// callers (the hybrid/bm25/vector search entry points and, from
// there, the tool surface).
type Result struct {
	ChunkID       string
	DocID         string
	DocPath       string
	Namespace     string
	EntityName    string
	SectionHeader string
	ChunkText     string
	Score         float64
	Rank          int
}

func assignRanks(candidates []candidate) []Result {
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{
			ChunkID:       c.ChunkID,
			DocID:         c.DocID,
			DocPath:       c.DocPath,
			Namespace:     c.Namespace,
			EntityName:    c.EntityName,
			SectionHeader: c.SectionHeader,
			ChunkText:     c.ChunkText,
			Score:         c.Score,
			Rank:          i + 1,
		}
	}
	return results
}
