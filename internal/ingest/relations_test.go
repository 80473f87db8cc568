package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRoutingRelationsBasic(t *testing.T) {
	relations := ExtractRoutingRelations("planner", "Agent-A → Agent-B")
	require.Len(t, relations, 1)
	require.Equal(t, "entity:agent-a", relations[0].SourceEntity)
	require.Equal(t, "entity:agent-b", relations[0].TargetEntity)
	require.Equal(t, "routes_to", relations[0].RelationType)
	require.Contains(t, relations[0].MetadataJSON, "entity:planner")
}

func TestExtractRoutingRelationsMultiple(t *testing.T) {
	relations := ExtractRoutingRelations("agent1", "A → B and C → D")
	require.Len(t, relations, 2)
	require.Equal(t, "entity:a", relations[0].SourceEntity)
	require.Equal(t, "entity:b", relations[0].TargetEntity)
	require.Equal(t, "entity:c", relations[1].SourceEntity)
	require.Equal(t, "entity:d", relations[1].TargetEntity)
}

func TestExtractRoutingRelationsChainYieldsOneEdge(t *testing.T) {
	relations := ExtractRoutingRelations("x", "Agent-A → Agent-B → Agent-C")
	require.Len(t, relations, 1)
	require.Equal(t, "entity:agent-a", relations[0].SourceEntity)
	require.Equal(t, "entity:agent-b", relations[0].TargetEntity)
}

func TestExtractRoutingRelationsNoMatches(t *testing.T) {
	require.Empty(t, ExtractRoutingRelations("agent", "No arrows here, just text."))
}

func TestExtractRoutingRelationsUUIDValid(t *testing.T) {
	relations := ExtractRoutingRelations("a", "Foo → Bar")
	require.Len(t, relations, 1)
	id := relations[0].RelationID
	require.Len(t, id, 36)
	require.Equal(t, 4, countRunes(id, '-'))
}

func countRunes(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}
