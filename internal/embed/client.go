// Package embed implements the embedding provider client: a generic
// HTTP JSON backend, retry-with-backoff around transient failures, and
// an LRU cache in front of it for repeated queries.
package embed

import "context"

// DefaultBatchSize bounds how many texts go into one provider request
// when the caller doesn't specify its own batching.
const DefaultBatchSize = 32

// MaxBatchSize is the provider-imposed cap on texts per request; a
// configured batch_size above this is clamped down to it.
const MaxBatchSize = 2048

// Embedder generates vector embeddings for text. The provider's own
// HTTP API shape is an implementation detail behind this interface;
// the rest of the engine only depends on this contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Available(ctx context.Context) bool
	Close() error
}
