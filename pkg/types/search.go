// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the art-enricher pipeline:
// classifier entities, knowledge-graph enrichments, search queries, page
// results and configuration.
package types

import "strings"

// Query is a unit of search work. Keywords is empty for a basic query and
// holds one taste group for an expanded query.
type Query struct {
	// SearchTerms is the base text, usually an entity description.
	SearchTerms string `json:"searchTerms" yaml:"search_terms"`

	// Score is the confidence carried over from the entity the query was built from.
	Score float64 `json:"score" yaml:"score"`

	// Keywords are expansion keywords appended to SearchTerms when searching.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Language is the two-letter language code results should be in.
	Language string `json:"language" yaml:"language"`
}

// Terms returns the text sent to a search engine: the search terms followed
// by the expansion keywords.
func (q Query) Terms() string {
	parts := make([]string, 0, len(q.Keywords)+1)
	if t := strings.TrimSpace(q.SearchTerms); t != "" {
		parts = append(parts, t)
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}

// Source names the backend a PageResult came from.
type Source string

const (
	SourceWikipedia Source = "wikipedia"
	SourceWeb       Source = "web"
)

// Section is one titled block of page content. Items holds nested
// subsections, if any.
type Section struct {
	Title   string    `json:"title" yaml:"title"`
	Content string    `json:"content" yaml:"content"`
	Tags    []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Score   float64   `json:"score" yaml:"score"`
	Items   []Section `json:"items,omitempty" yaml:"items,omitempty"`
}

// PageResult is a ranked, structured page handed to the Adaptation service.
type PageResult struct {
	// URL is the canonical address of the page.
	URL string `json:"url" yaml:"url"`

	// Title is the page title.
	Title string `json:"title" yaml:"title"`

	// Sections is the page body split into titled sections.
	Sections []Section `json:"sections" yaml:"sections"`

	// Summary is a short lead text, when the source provides one.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Keywords are the expansion keywords of the queries that found the page.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Tags label the page (e.g. the identity property that led to it).
	Tags []string `json:"tags" yaml:"tags"`

	// Score is the weighted relevance used for ranking.
	Score float64 `json:"score" yaml:"score"`

	// Source identifies the backend that produced the page.
	Source Source `json:"source" yaml:"source"`
}
