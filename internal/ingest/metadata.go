// Package ingest walks the configured root, classifies files as new,
// modified, unchanged, or deleted against the store, and drives each
// changed file through parse, chunk, and relation extraction into
// storage.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DocID derives a stable document identifier from a file's path
// relative to the ingestion root: the SHA-256 hex digest of the
// relative path itself, not its contents, so a document's identity
// survives content edits and only changes on a rename or move.
func DocID(relativePath string) string {
	sum := sha256.Sum256([]byte(relativePath))
	return hex.EncodeToString(sum[:])
}

// FileHash computes the SHA-256 hex digest of a file's contents, used
// to classify a path as new, modified, or unchanged against the
// previously recorded hash.
func FileHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ExtractNamespace derives the namespace from the first path segment:
// root-level files (no directory) get "all"; otherwise the first
// segment is lowercased with runs of whitespace collapsed to a single
// hyphen. Handles both forward- and back-slash separators.
func ExtractNamespace(relativePath string) string {
	normalized := strings.ReplaceAll(relativePath, "\\", "/")

	slash := strings.Index(normalized, "/")
	if slash < 0 {
		return "all"
	}

	first := strings.TrimSpace(normalized[:slash])
	if first == "" {
		return "all"
	}

	lowered := strings.ToLower(first)
	return strings.Join(strings.Fields(lowered), "-")
}

// ExtractEntityName returns the second path segment, case-preserving,
// for paths nested at least three segments deep ({namespace}/{entity}/
// {file...}). Returns "" for shallower paths, since there is no
// sub-namespace to report.
func ExtractEntityName(relativePath string) string {
	normalized := strings.ReplaceAll(relativePath, "\\", "/")

	var segments []string
	for _, s := range strings.Split(normalized, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) < 3 {
		return ""
	}

	entity := strings.TrimSpace(segments[1])
	return entity
}
