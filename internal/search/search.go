// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search builds weighted queries, runs them against the encyclopedia
// (Wikipedia) and the web search engine, and merges web hits that point at
// the same page. Adapters memoize responses in a shared cache.Cache and never
// fail a batch: a failed query contributes nothing.
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/art-enricher/pkg/types"
)

// FormatTable writes ranked results as a human-readable table to w.
func FormatTable(results []types.PageResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-9s  %-6s  %s\n",
		"Rank", "Title", "Source", "Score", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-50s  %-9s  %-6.3f  %s\n",
			i+1, truncate(r.Title, 50), r.Source, r.Score, r.URL)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.PageResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
