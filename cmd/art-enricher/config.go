// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/art-enricher/internal/secrets"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// setDefaults registers every config key so environment variables
// (ART_ENRICHER_<SECTION>_<KEY>) can override it.
func setDefaults(v *viper.Viper) {
	w := types.DefaultWeights()

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.user_agent", "art-enricher/"+version+" (https://github.com/pdiddy/art-enricher)")

	v.SetDefault("wikidata.sparql_endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("wikidata.api_endpoint", "https://www.wikidata.org/w/api.php")
	v.SetDefault("wikidata.filters_file", "")

	v.SetDefault("wikipedia.api_endpoint", "https://%s.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.page_url", "https://%s.wikipedia.org/wiki/%s")

	v.SetDefault("web_search.endpoint", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("web_search.api_key", "")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.file", ".cache/art-enricher.json")

	v.SetDefault("pipeline.reduce.max_count", 10)
	v.SetDefault("pipeline.reduce.min_score", 0.0)
	v.SetDefault("pipeline.weights.kb_known", w.KBKnown)
	v.SetDefault("pipeline.weights.kb_identity", w.KBIdentity)
	v.SetDefault("pipeline.weights.web_known", w.WebKnown)
	v.SetDefault("pipeline.weights.kb_unknown", w.KBUnknown)
	v.SetDefault("pipeline.weights.web_unknown", w.WebUnknown)
	v.SetDefault("pipeline.max_results", 0)

	v.SetDefault("adaptation.url", "")
	v.SetDefault("adaptation.api_key", "")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// loadConfig unmarshals v, fills missing API keys from secrets and
// validates the result.
func loadConfig(v *viper.Viper, s map[string]string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	secrets.Apply(&cfg, s)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
