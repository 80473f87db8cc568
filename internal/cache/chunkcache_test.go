package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopKOrdersByDescendingScore(t *testing.T) {
	c := New()
	c.Load(map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	}, map[string]string{"a": "doc1", "b": "doc1", "c": "doc2"})

	top := c.TopK([]float32{1, 0}, 2)
	require.Len(t, top, 2)
	require.Equal(t, "a", top[0].ChunkID)
}

func TestDeleteRemovesByDoc(t *testing.T) {
	c := New()
	c.Load(map[string][]float32{"a": {1, 0}, "b": {0, 1}}, map[string]string{"a": "doc1", "b": "doc2"})
	c.Delete("doc1")
	require.Equal(t, 1, c.Len())
}

func TestPutAddsSingleEntry(t *testing.T) {
	c := New()
	c.Put("x", "doc1", []float32{1, 1})
	require.Equal(t, 1, c.Len())
	top := c.TopK([]float32{1, 1}, 1)
	require.Equal(t, "x", top[0].ChunkID)
}

func TestTopKCapsAtAvailable(t *testing.T) {
	c := New()
	c.Put("x", "doc1", []float32{1, 0})
	top := c.TopK([]float32{1, 0}, 5)
	require.Len(t, top, 1)
}
