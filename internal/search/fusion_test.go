package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuseRRFMathMatchesWorkedExample(t *testing.T) {
	bm25Hits := []candidate{{ChunkID: "x"}}
	vectorHits := []candidate{{ChunkID: "y"}}

	fused := fuse(bm25Hits, vectorHits, Weights{BM25: 0.5, Vector: 0.5})
	require.Len(t, fused, 2)

	byID := map[string]float64{}
	for _, c := range fused {
		byID[c.ChunkID] = c.Score
	}
	require.InDelta(t, 0.5/61, byID["x"], 1e-9)
	require.InDelta(t, 0.5/61, byID["y"], 1e-9)
}

func TestFuseChunkInBothListsOutranksSingleList(t *testing.T) {
	bm25Hits := []candidate{{ChunkID: "shared"}, {ChunkID: "x"}}
	vectorHits := []candidate{{ChunkID: "shared"}, {ChunkID: "y"}}

	fused := fuse(bm25Hits, vectorHits, Weights{BM25: 0.5, Vector: 0.5})

	byID := map[string]float64{}
	for _, c := range fused {
		byID[c.ChunkID] = c.Score
	}
	require.InDelta(t, 0.5/61+0.5/61, byID["shared"], 1e-9)
	require.Greater(t, byID["shared"], byID["x"])
	require.Greater(t, byID["shared"], byID["y"])
}

func TestNormalizeMinMaxMapsTopAndBottom(t *testing.T) {
	candidates := []candidate{{ChunkID: "a", Score: 1.0}, {ChunkID: "b", Score: 0.5}, {ChunkID: "c", Score: 0.0}}
	normalizeMinMax(candidates)
	require.Equal(t, 1.0, candidates[0].Score)
	require.Equal(t, 0.5, candidates[1].Score)
	require.Equal(t, 0.0, candidates[2].Score)
}

func TestNormalizeMinMaxLeavesEqualScoresUnchanged(t *testing.T) {
	candidates := []candidate{{ChunkID: "a", Score: 0.3}, {ChunkID: "b", Score: 0.3}}
	normalizeMinMax(candidates)
	require.Equal(t, 0.3, candidates[0].Score)
	require.Equal(t, 0.3, candidates[1].Score)
}

func TestAdaptiveThresholdSubstitutesOnTightRange(t *testing.T) {
	candidates := []candidate{{ChunkID: "a", Score: 0.95}, {ChunkID: "b", Score: 0.92}}
	require.Equal(t, 0.2, adaptiveThreshold(candidates, 0.65))
}

func TestAdaptiveThresholdSubstitutesCapAtPointTwo(t *testing.T) {
	candidates := []candidate{{ChunkID: "a", Score: 0.95}, {ChunkID: "b", Score: 0.92}}
	require.Equal(t, 0.2, adaptiveThreshold(candidates, 0.9))
}

func TestAdaptiveThresholdKeepsMinScoreOnWideRange(t *testing.T) {
	candidates := []candidate{{ChunkID: "a", Score: 1.0}, {ChunkID: "b", Score: 0.0}}
	require.Equal(t, 0.65, adaptiveThreshold(candidates, 0.65))
}
