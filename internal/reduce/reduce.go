// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reduce cuts a ranked entity list at its natural confidence drop.
package reduce

import (
	"sort"

	"github.com/pdiddy/art-enricher/pkg/types"
)

// Reduce returns the prefix of entities that ends right before the largest
// score gap between neighbours, truncated to maxCount (maxCount <= 0 keeps
// everything). The scan stops at the first entity scoring below minScore.
//
// entities must already be sorted by descending score. Lists with fewer
// than two elements have no gap and are returned as-is.
func Reduce(entities []types.Entity, maxCount int, minScore float64) []types.Entity {
	if len(entities) < 2 {
		return truncate(entities, maxCount)
	}

	cut := -1
	bestGap := 0.0
	end := len(entities)
	for i := 0; i < len(entities)-1; i++ {
		if entities[i].Score < minScore {
			end = i
			break
		}
		gap := entities[i].Score - entities[i+1].Score
		if cut < 0 || gap > bestGap {
			bestGap = gap
			cut = i
		}
	}

	// Nothing scanned: the first entity is already below minScore.
	if cut < 0 {
		return truncate(entities[:end], maxCount)
	}
	return truncate(entities[:cut+1], maxCount)
}

// SortByScore returns a copy of entities sorted by descending score. Equal
// scores keep their input order.
func SortByScore(entities []types.Entity) []types.Entity {
	sorted := make([]types.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

func truncate(entities []types.Entity, maxCount int) []types.Entity {
	if maxCount > 0 && len(entities) > maxCount {
		return entities[:maxCount]
	}
	return entities
}
