// Package ragerr implements the engine's closed error taxonomy.
package ragerr

// Kind classifies an Error into one of the ten closed categories the
// engine distinguishes. Callers that need to branch on failure type
// should switch on Kind, never on message text.
type Kind string

const (
	Storage          Kind = "storage"
	IO               Kind = "io"
	Config           Kind = "config"
	Embedding        Kind = "embedding"
	DocumentNotFound Kind = "document_not_found"
	ChunkNotFound    Kind = "chunk_not_found"
	Parse            Kind = "parse"
	Protocol         Kind = "protocol"
	Search           Kind = "search"
	InvalidInput     Kind = "invalid_input"
)

// retryable reports whether errors of this kind are, in general, worth
// retrying by the caller (transient I/O and embedding-provider failures),
// as opposed to kinds that represent a permanent condition.
func retryable(k Kind) bool {
	switch k {
	case IO, Embedding:
		return true
	default:
		return false
	}
}
