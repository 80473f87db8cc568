// Package chunk implements section-aware, overlap-respecting,
// UTF-8-safe text segmentation for ingested documents.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Section is a named span of a parsed document, independent of any
// particular parser implementation.
type Section struct {
	Header      string
	Content     string
	SectionType string
}

// Chunk is one segment produced by the chunker, prior to storage
// assignment of a ChunkID or ordinal.
type Chunk struct {
	Text          string
	Tokens        int
	SectionHeader string
	SectionType   string
}

// Config bounds chunk size and overlap in the abstract token unit the
// rest of the core uses: chars / 4.
type Config struct {
	SizeTokens    int
	OverlapTokens int
}

// EstimateTokens approximates token count as ceil(chars / 4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// ChunkDocument chunks a document per-section, then concatenates. If
// sections is empty, or chunking every section yields zero chunks (all
// sections were empty), it falls back to chunking the full content as
// a single unheaded section.
func ChunkDocument(content string, sections []Section, cfg Config) []Chunk {
	var chunks []Chunk
	for _, sec := range sections {
		for _, text := range chunkText(sec.Content, cfg) {
			chunks = append(chunks, Chunk{
				Text:          text,
				Tokens:        EstimateTokens(text),
				SectionHeader: sec.Header,
				SectionType:   sec.SectionType,
			})
		}
	}
	if len(chunks) == 0 {
		for _, text := range chunkText(content, cfg) {
			chunks = append(chunks, Chunk{Text: text, Tokens: EstimateTokens(text)})
		}
	}
	return chunks
}

// chunkText slides a rune-boundary-safe window of approximately
// cfg.SizeTokens*4 characters over text, overlapping consecutive
// chunks by cfg.OverlapTokens*4 characters, and prefers breaking at
// whitespace or sentence punctuation within the last 20% of the
// window. Returns nil for empty input; exactly one chunk for input
// shorter than the window.
func chunkText(text string, cfg Config) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	charSize := cfg.SizeTokens * 4
	if charSize <= 0 {
		charSize = 1
	}
	charOverlap := cfg.OverlapTokens * 4

	if len(runes) <= charSize {
		return []string{text}
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + charSize
		if end > len(runes) {
			end = len(runes)
		} else {
			end = findBreakPoint(runes, start, end)
		}

		out = append(out, string(runes[start:end]))
		if end >= len(runes) {
			break
		}

		newStart := end - charOverlap
		if newStart <= start {
			// The overlap would not advance the window; force progress.
			newStart = end
		}
		start = newStart
	}
	return out
}

// findBreakPoint looks backward from end, within the last 20% of the
// [start, end) window, for whitespace or sentence-terminating
// punctuation to break on. Falls back to end if none is found.
func findBreakPoint(runes []rune, start, end int) int {
	windowLen := end - start
	searchFrom := end - windowLen/5
	if searchFrom < start {
		searchFrom = start
	}

	for i := end - 1; i >= searchFrom; i-- {
		r := runes[i]
		if r == ' ' || r == '\n' || r == '\t' || r == '.' || r == '!' || r == '?' {
			return i + 1
		}
	}
	return end
}

// Coverage reconstructs the approximate source by trimming overlap
// from a chunk sequence; it is a test/debug helper, not part of the
// ingestion hot path.
func Coverage(chunks []string, overlapChars int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		runes := []rune(c)
		if overlapChars < len(runes) {
			b.WriteString(string(runes[overlapChars:]))
		}
	}
	return b.String()
}
