package store

import (
	"encoding/binary"
	"math"
)

// EmbeddingDimensions is the fixed vector width the engine relies on
// throughout storage and search.
const EmbeddingDimensions = 1536

// EmbeddingBlobSize is the exact byte length of an encoded embedding:
// 1536 IEEE-754 single-precision floats, little-endian.
const EmbeddingBlobSize = EmbeddingDimensions * 4

// EncodeEmbedding packs a vector into its little-endian binary blob
// form for storage. The caller is responsible for len(v) ==
// EmbeddingDimensions; EncodeEmbedding does not validate it so that
// callers decoding arbitrary widths in tests aren't forced through
// this dimension.
func EncodeEmbedding(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeEmbedding unpacks a binary blob into a float32 vector. A blob
// whose length is not a multiple of 4 is treated as absent per the
// embedding blob format: it returns (nil, false).
func DecodeEmbedding(blob []byte) ([]float32, bool) {
	if len(blob)%4 != 0 {
		return nil, false
	}
	n := len(blob) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, true
}

// CosineSimilarity computes the standard cosine similarity of a and b.
// Zero when either vector has zero magnitude, or when the lengths
// differ (rather than panicking, since both caller sides treat a
// dimension mismatch as "doesn't match", not a fatal condition).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
