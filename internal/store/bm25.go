package store

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// stopWords is the fixed English stop-word list dropped during BM25
// query sanitization: articles, prepositions, auxiliaries, and
// interrogatives.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {}, "from": {}, "up": {},
	"about": {}, "into": {}, "over": {}, "after": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "can": {}, "could": {},
	"what": {}, "when": {}, "where": {}, "who": {}, "why": {}, "how": {},
}

// ftsOperatorChars are characters stripped from the query before
// tokenization because FTS5 would otherwise interpret them as match
// operators.
const ftsOperatorChars = "?*(){}-'"

// SanitizeFTSQuery turns free-form user text into a safe FTS5 MATCH
// expression: strip operator characters, tokenize on whitespace, drop
// stop words and short tokens, escape quotes, and OR-join multi-term
// queries to favor recall. If sanitization would drop every token, it
// falls back to the cleaned (but untokenized) original so the query is
// never empty. Returns "" when nothing is left once whitespace and
// operator characters are stripped.
func SanitizeFTSQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(ftsOperatorChars, r) {
			return -1
		}
		return r
	}, trimmed)

	fields := strings.Fields(cleaned)
	kept := make([]string, 0, len(fields))
	for _, tok := range fields {
		lower := strings.ToLower(tok)
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopWords[lower]; stop {
			continue
		}
		kept = append(kept, escapeQuotes(tok))
	}

	if len(kept) == 0 {
		escaped := escapeQuotes(cleaned)
		if strings.TrimSpace(escaped) == "" {
			return ""
		}
		return escaped
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return strings.Join(kept, " OR ")
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// NormalizeBM25Score maps a raw FTS5 bm25() score (more negative is
// better) into [0, 1] via the sigmoid 1/(1+exp(raw)). NaN and
// infinities map to 0.
func NormalizeBM25Score(raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return 1 / (1 + math.Exp(raw))
}

// BM25Filter narrows a BM25 search to a namespace and/or entity.
type BM25Filter struct {
	Namespace  string // "" means no filter
	EntityName string // "" means no filter
}

// SearchBM25 runs a sanitized lexical match over chunk text and section
// headers, filtered by namespace/entity, and returns up to limit
// candidates scored by normalized BM25. An empty sanitized query
// yields an empty result set, not an error.
func (d *DB) SearchBM25(ctx context.Context, query string, filter BM25Filter, limit int) ([]*BM25Result, error) {
	sanitized := SanitizeFTSQuery(query)
	if sanitized == "" {
		return []*BM25Result{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	sqlQuery := `
		SELECT c.chunk_id, c.doc_id, d.doc_path, d.namespace, d.entity_name, c.section_header, c.chunk_text,
			bm25(fts_content) AS score
		FROM fts_content
		JOIN chunks c ON c.chunk_id = fts_content.chunk_id
		JOIN documents d ON d.doc_id = c.doc_id
		WHERE fts_content MATCH ?`
	args := []any{sanitized}

	if filter.Namespace != "" {
		sqlQuery += " AND d.namespace = ?"
		args = append(args, filter.Namespace)
	}
	if filter.EntityName != "" {
		sqlQuery += " AND d.entity_name = ?"
		args = append(args, filter.EntityName)
	}
	sqlQuery += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := d.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return []*BM25Result{}, nil
		}
		return nil, ragerr.New(ragerr.Search, "BM25 search failed for query: "+query, err)
	}
	defer rows.Close()

	var results []*BM25Result
	for rows.Next() {
		var r BM25Result
		var entityName, sectionHeader sql.NullString
		if err := rows.Scan(&r.ChunkID, &r.DocID, &r.DocPath, &r.Namespace, &entityName, &sectionHeader, &r.ChunkText, &r.RawScore); err != nil {
			return nil, ragerr.New(ragerr.Search, "failed to scan BM25 result row", err)
		}
		r.EntityName = entityName.String
		r.SectionHeader = sectionHeader.String
		results = append(results, &r)
	}
	return results, rows.Err()
}
