// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/pdiddy/art-enricher/internal/adapt"
	"github.com/pdiddy/art-enricher/internal/cache"
	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/pipeline"
	"github.com/pdiddy/art-enricher/internal/scrape"
	"github.com/pdiddy/art-enricher/internal/search"
	"github.com/pdiddy/art-enricher/internal/wikidata"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// openCache returns the file cache when enabled, else an in-memory one.
func openCache(fs afero.Fs, cfg types.CacheConfig) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.NewMemory(), nil
	}
	return cache.Open(fs, cfg.File)
}

// buildPipeline wires every collaborator from cfg. All adapters share one
// HTTP client and one cache.
func buildPipeline(fs afero.Fs, cfg types.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	c, err := openCache(fs, cfg.Cache)
	if err != nil {
		return nil, err
	}
	client := httputil.NewClient(cfg.HTTP.Timeout)

	resolver, err := wikidata.New(fs, cfg.Wikidata, cfg.HTTP, client, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.New(cfg.Pipeline, pipeline.Deps{
		Resolver:      resolver,
		KnowledgeBase: search.NewWikipedia(cfg.Wikipedia, cfg.HTTP, client, c, logger),
		Web:           search.NewWebSearch(cfg.WebSearch, cfg.HTTP, client, c, logger),
		Parser:        scrape.New(cfg.HTTP, client, logger),
		Adapter:       adapt.New(cfg.Adaptation, cfg.HTTP, client, logger),
	}, logger)
}
