// Package graph traverses the entity relation graph produced by
// ingestion's arrow-notation extraction.
package graph

import (
	"context"

	"github.com/ragmcp/ragmcp/internal/store"
)

// Traverse runs a breadth-first walk of the entity relation graph
// starting at startEntity, following only outgoing edges, up to
// maxDepth hops. relationTypes, when non-empty, restricts which edge
// types are followed. The start entity itself is marked visited before
// any expansion, so a cycle back to it is skipped rather than
// re-emitted; maxDepth 0 returns no relations.
func Traverse(ctx context.Context, db *store.DB, startEntity string, relationTypes []string, maxDepth int) ([]*store.Relation, error) {
	type frontier struct {
		entity string
		depth  int
	}

	visited := map[string]bool{startEntity: true}
	queue := []frontier{{entity: startEntity, depth: 0}}
	var result []*store.Relation

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}

		relations, err := db.RelationsFrom(ctx, current.entity, relationTypes)
		if err != nil {
			return nil, err
		}

		for _, rel := range relations {
			if visited[rel.TargetEntity] {
				continue
			}
			visited[rel.TargetEntity] = true
			queue = append(queue, frontier{entity: rel.TargetEntity, depth: current.depth + 1})
			result = append(result, rel)
		}
	}

	return result, nil
}
