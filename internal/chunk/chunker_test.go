package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 1, EstimateTokens("abc"))
	require.Equal(t, 2, EstimateTokens("abcde"))
}

func TestChunkTextEmpty(t *testing.T) {
	require.Nil(t, chunkText("", Config{SizeTokens: 10, OverlapTokens: 2}))
}

func TestChunkTextShorterThanWindow(t *testing.T) {
	out := chunkText("short text", Config{SizeTokens: 100, OverlapTokens: 10})
	require.Equal(t, []string{"short text"}, out)
}

func TestChunkTextSlidesWithOverlap(t *testing.T) {
	text := strings.Repeat("word ", 200) // 1000 chars
	out := chunkText(text, Config{SizeTokens: 20, OverlapTokens: 4}) // 80 char window, 16 char overlap
	require.Greater(t, len(out), 1)
	for _, c := range out {
		require.NotEmpty(t, c)
	}
}

func TestChunkTextUTF8Safe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 50)
	out := chunkText(text, Config{SizeTokens: 5, OverlapTokens: 1})
	for _, c := range out {
		require.True(t, len(c) > 0)
	}
	// Coverage: rejoining (trimming overlap) should reconstitute at least
	// as many runes as the original minus the final partial window.
	joined := Coverage(out, 4)
	require.NotEmpty(t, joined)
	require.GreaterOrEqual(t, len([]rune(joined)), len([]rune(text))-5*4)
}

func TestChunkTextTerminates(t *testing.T) {
	// Overlap equal to size would loop forever without the guard.
	text := strings.Repeat("x", 1000)
	out := chunkText(text, Config{SizeTokens: 10, OverlapTokens: 10})
	require.NotEmpty(t, out)
}

func TestChunkDocumentFallsBackToFullContent(t *testing.T) {
	chunks := ChunkDocument("hello world", nil, Config{SizeTokens: 100, OverlapTokens: 10})
	require.Len(t, chunks, 1)
	require.Equal(t, "hello world", chunks[0].Text)
}

func TestChunkDocumentPerSection(t *testing.T) {
	sections := []Section{
		{Header: "Intro", Content: "intro content"},
		{Header: "Body", Content: strings.Repeat("body ", 100)},
	}
	chunks := ChunkDocument("ignored", sections, Config{SizeTokens: 20, OverlapTokens: 2})
	require.NotEmpty(t, chunks)
	require.Equal(t, "Intro", chunks[0].SectionHeader)
}

func TestChunkDocumentSkipsEmptySections(t *testing.T) {
	sections := []Section{{Header: "Empty", Content: ""}}
	chunks := ChunkDocument("fallback content", sections, Config{SizeTokens: 100, OverlapTokens: 10})
	require.Len(t, chunks, 1)
	require.Equal(t, "fallback content", chunks[0].Text)
}
