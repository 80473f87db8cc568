package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ragmcp/ragmcp/internal/store"
)

// arrowPattern matches "<token> → <token>" where a token is letters,
// digits, hyphens, or underscores. Go's regexp is already
// leftmost-non-overlapping, so "A → B → C" yields exactly one match
// (A→B): the second match attempt starts after B, and "→ C" alone has
// no token on its left.
var arrowPattern = regexp.MustCompile(`([\w-]+)\s*→\s*([\w-]+)`)

// ExtractRoutingRelations scans content for arrow-separated entity
// pairs and emits a routes_to relation for each, attributed to
// owningEntity (the entity_name of the document being ingested).
func ExtractRoutingRelations(owningEntity, content string) []*store.Relation {
	matches := arrowPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	relations := make([]*store.Relation, 0, len(matches))
	for _, m := range matches {
		from := strings.ToLower(m[1])
		to := strings.ToLower(m[2])

		relations = append(relations, &store.Relation{
			RelationID:   uuid.NewString(),
			SourceEntity: "entity:" + from,
			RelationType: "routes_to",
			TargetEntity: "entity:" + to,
			MetadataJSON: fmt.Sprintf(`{"extracted_from":"entity:%s"}`, owningEntity),
		})
	}
	return relations
}
