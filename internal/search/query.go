// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pdiddy/art-enricher/pkg/types"
)

// BuildBasicQueries returns one query per entity, with no keywords. Entities
// with a blank description are skipped.
func BuildBasicQueries(entities []types.Entity, language string) []types.Query {
	queries := make([]types.Query, 0, len(entities))
	for _, e := range entities {
		terms := strings.TrimSpace(e.Description)
		if terms == "" {
			continue
		}
		queries = append(queries, types.Query{
			SearchTerms: terms,
			Score:       e.Score,
			Keywords:    []string{},
			Language:    language,
		})
	}
	return queries
}

// ExtendQuery returns the outer product of queries and expansion groups: for
// every query and every group a new query with the same terms, score and
// language whose keywords are that group. Groups are visited in key order.
// The input queries are not part of the output.
func ExtendQuery(queries []types.Query, expansion map[string][]string) []types.Query {
	keys := make([]string, 0, len(expansion))
	for k := range expansion {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Query, 0, len(queries)*len(keys))
	for _, q := range queries {
		for _, k := range keys {
			out = append(out, types.Query{
				SearchTerms: q.SearchTerms,
				Score:       q.Score,
				Keywords:    append([]string{}, expansion[k]...),
				Language:    q.Language,
			})
		}
	}
	return out
}

// TasteExpansion selects the keyword groups configured for the user's tastes.
// Taste names match case-insensitively; unknown tastes are ignored.
func TasteExpansion(tastes []string, table map[string][]string) map[string][]string {
	byKey := make(map[string]string, len(table))
	for k := range table {
		byKey[strings.ToLower(k)] = k
	}

	out := make(map[string][]string)
	for _, t := range tastes {
		k, ok := byKey[strings.ToLower(strings.TrimSpace(t))]
		if !ok || len(table[k]) == 0 {
			continue
		}
		out[k] = table[k]
	}
	return out
}
