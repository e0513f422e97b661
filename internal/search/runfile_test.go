// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/art-enricher/pkg/types"
)

func TestRunFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	classification := types.ClassificationResult{
		Entities: []types.Entity{{Description: "Eiffel Tower", Score: 0.93, EntityID: "/m/02j81"}},
	}
	profile := types.UserProfile{Language: "fr", ExpertiseLevel: types.ExpertiseChild, Tastes: []string{"history"}}
	results := []types.PageResult{
		{URL: "https://fr.wikipedia.org/wiki/Tour_Eiffel", Title: "Tour Eiffel", Score: 0.93, Source: types.SourceWikipedia,
			Sections: []types.Section{{Title: "Histoire", Content: "1889", Items: []types.Section{{Title: "Construction", Content: "Fer"}}}},
			Keywords: []string{}, Tags: []string{TagKnownInstance}},
		{URL: "https://example.org/eiffel", Title: "Visit", Score: 0.65, Source: types.SourceWeb, Keywords: []string{"history"}, Tags: []string{}},
	}

	run := NewRunFile("req-1", classification, profile, results, "Tour Eiffel")
	assert.Equal(t, 2, run.Summary.Total)
	assert.Equal(t, map[string]int{"wikipedia": 1, "web": 1}, run.Summary.BySource)

	require.NoError(t, WriteRunFile(fs, "/runs/eiffel.yaml", run))
	got, err := ReadRunFile(fs, "/runs/eiffel.yaml")
	require.NoError(t, err)

	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, profile, got.Profile)
	assert.Equal(t, classification.Entities, got.Classification.Entities)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "Construction", got.Results[0].Sections[0].Items[0].Title)
	assert.Equal(t, []string{"history"}, got.Results[1].Keywords)
	assert.Equal(t, "Tour Eiffel", got.Summary.KnownTitle)
	assert.True(t, run.Summary.Timestamp.Equal(got.Summary.Timestamp))
}

func TestReadRunFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ReadRunFile(fs, "/missing.yaml")
	require.ErrorContains(t, err, "reading run file")

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("results: [unclosed"), 0o644))
	_, err = ReadRunFile(fs, "/bad.yaml")
	require.ErrorContains(t, err, "parsing run file")
}
