// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/art-enricher/pkg/types"
)

// RunFile is the on-disk record of one enrichment run: the request and the
// ranked results. A saved run can be reloaded and re-delivered without
// querying any backend.
type RunFile struct {
	RequestID      string                     `yaml:"request_id"`
	Classification types.ClassificationResult `yaml:"classification"`
	Profile        types.UserProfile          `yaml:"profile"`
	Results        []types.PageResult         `yaml:"results"`
	Summary        RunSummary                 `yaml:"summary"`
}

// RunSummary stores result statistics and a timestamp.
type RunSummary struct {
	Total      int            `yaml:"total"`
	BySource   map[string]int `yaml:"by_source"`
	KnownTitle string         `yaml:"known_instance,omitempty"`
	Timestamp  time.Time      `yaml:"timestamp"`
}

// NewRunFile assembles a RunFile and computes its summary.
func NewRunFile(requestID string, classification types.ClassificationResult, profile types.UserProfile, results []types.PageResult, knownTitle string) RunFile {
	bySource := make(map[string]int)
	for _, r := range results {
		bySource[string(r.Source)]++
	}
	return RunFile{
		RequestID:      requestID,
		Classification: classification,
		Profile:        profile,
		Results:        results,
		Summary: RunSummary{
			Total:      len(results),
			BySource:   bySource,
			KnownTitle: knownTitle,
			Timestamp:  time.Now().UTC(),
		},
	}
}

// WriteRunFile saves a run to a YAML file.
func WriteRunFile(fs afero.Fs, path string, run RunFile) error {
	data, err := yaml.Marshal(&run)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// ReadRunFile loads a previously saved run.
func ReadRunFile(fs afero.Fs, path string) (*RunFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var run RunFile
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &run, nil
}
