// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"strings"

	"github.com/pdiddy/art-enricher/pkg/types"
)

// Batch pairs one web search response with the query that produced it.
// Query.Score is expected to already carry the source weight.
type Batch struct {
	Result *WebResult
	Query  types.Query
}

// Merged is one distinct page after merging.
type Merged struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Snippet  string   `json:"snippet"`
	Keywords []string `json:"keywords"`
	Score    float64  `json:"score"`
}

// MergeDuplicateURLs groups every item of every batch by canonical URL. A
// group's keywords are the ordered union of its queries' keywords and its
// score is the mean of its queries' scores, one term per occurrence. Groups
// appear in order of first appearance.
func MergeDuplicateURLs(batches []Batch) []Merged {
	type group struct {
		merged Merged
		seen   map[string]struct{}
		sum    float64
		n      int
	}

	index := make(map[string]int)
	var groups []*group

	for _, b := range batches {
		if b.Result == nil {
			continue
		}
		for _, item := range b.Result.Items {
			key := CanonicalURL(item.Link)
			if key == "" {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, &group{
					merged: Merged{URL: key, Title: item.Title, Snippet: item.Snippet, Keywords: []string{}},
					seen:   make(map[string]struct{}),
				})
			}
			g := groups[i]
			for _, kw := range b.Query.Keywords {
				if _, dup := g.seen[kw]; dup {
					continue
				}
				g.seen[kw] = struct{}{}
				g.merged.Keywords = append(g.merged.Keywords, kw)
			}
			g.sum += b.Query.Score
			g.n++
		}
	}

	out := make([]Merged, len(groups))
	for i, g := range groups {
		g.merged.Score = g.sum / float64(g.n)
		out[i] = g.merged
	}
	return out
}

// CanonicalURL normalizes a link for duplicate detection: surrounding space
// and the fragment are removed, scheme and host lower-cased, and a trailing
// slash dropped.
func CanonicalURL(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return strings.TrimSuffix(link, "/")
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}
