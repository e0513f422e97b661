package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "art-enricher/0.1"). Wikimedia APIs reject anonymous agents.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
}

// WikidataConfig holds the knowledge-graph endpoints and property tables.
type WikidataConfig struct {
	// SPARQLEndpoint is the Wikidata Query Service URL.
	SPARQLEndpoint string `json:"sparql_endpoint" yaml:"sparql_endpoint" mapstructure:"sparql_endpoint" validate:"required,url"`

	// APIEndpoint is the Wikibase action API URL used for wbgetentities.
	APIEndpoint string `json:"api_endpoint" yaml:"api_endpoint" mapstructure:"api_endpoint" validate:"required,url"`

	// Properties is the claim-id table. Empty means DefaultPropertyTable.
	Properties []PropertyBinding `json:"properties" yaml:"properties" mapstructure:"properties" validate:"dive"`

	// IdentityProperties mark a known instance. Empty means DefaultIdentityProperties.
	IdentityProperties []Property `json:"identity_properties" yaml:"identity_properties" mapstructure:"identity_properties"`

	// FiltersFile is an optional YAML file overriding the embedded
	// include/exclude description lists.
	FiltersFile string `json:"filters_file" yaml:"filters_file" mapstructure:"filters_file"`
}

// WikipediaConfig holds the encyclopedia API location.
type WikipediaConfig struct {
	// APIEndpoint is a URL template with a %s placeholder for the language
	// subdomain (e.g. "https://%s.wikipedia.org/w/api.php").
	APIEndpoint string `json:"api_endpoint" yaml:"api_endpoint" mapstructure:"api_endpoint" validate:"required,contains=%s"`

	// PageURL is a URL template with placeholders for language and title.
	PageURL string `json:"page_url" yaml:"page_url" mapstructure:"page_url"`
}

// WebSearchConfig holds the web search engine settings.
type WebSearchConfig struct {
	// Endpoint is the Custom Search JSON API URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`

	// APIKey authenticates against the search API. Loaded from secrets when empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Engines maps "<lang>:child", "<lang>" or "default" to an engine id.
	Engines map[string]string `json:"engines" yaml:"engines" mapstructure:"engines"`
}

// CacheConfig controls the on-disk result cache.
type CacheConfig struct {
	// Enabled turns persistence on. When false an in-memory cache is used.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// File is the JSON cache file path.
	File string `json:"file" yaml:"file" mapstructure:"file" validate:"required_if=Enabled true"`
}

// ReduceConfig bounds the entity lists kept after score reduction.
type ReduceConfig struct {
	// MaxCount caps the number of entities kept (0 = unlimited).
	MaxCount int `json:"max_count" yaml:"max_count" mapstructure:"max_count" validate:"gte=0"`

	// MinScore stops the gap scan at the first entity below it.
	MinScore float64 `json:"min_score" yaml:"min_score" mapstructure:"min_score" validate:"gte=0"`
}

// Weights are the per-source score multipliers.
type Weights struct {
	KBKnown    float64 `json:"kb_known" yaml:"kb_known" mapstructure:"kb_known" validate:"gte=0"`
	KBIdentity float64 `json:"kb_identity" yaml:"kb_identity" mapstructure:"kb_identity" validate:"gte=0"`
	WebKnown   float64 `json:"web_known" yaml:"web_known" mapstructure:"web_known" validate:"gte=0"`
	KBUnknown  float64 `json:"kb_unknown" yaml:"kb_unknown" mapstructure:"kb_unknown" validate:"gte=0"`
	WebUnknown float64 `json:"web_unknown" yaml:"web_unknown" mapstructure:"web_unknown" validate:"gte=0"`
}

// DefaultWeights returns the multipliers used when configuration sets none.
func DefaultWeights() Weights {
	return Weights{
		KBKnown:    1.0,
		KBIdentity: 0.6,
		WebKnown:   0.7,
		KBUnknown:  0.8,
		WebUnknown: 0.5,
	}
}

// PipelineConfig holds the orchestrator settings.
type PipelineConfig struct {
	Reduce  ReduceConfig `json:"reduce" yaml:"reduce" mapstructure:"reduce"`
	Weights Weights      `json:"weights" yaml:"weights" mapstructure:"weights"`

	// TasteKeywords maps a user taste to its expansion keyword group.
	TasteKeywords map[string][]string `json:"taste_keywords" yaml:"taste_keywords" mapstructure:"taste_keywords"`

	// MaxResults truncates the ranked output (0 = unlimited).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=0"`
}

// AdaptationConfig locates the downstream Adaptation service.
type AdaptationConfig struct {
	// URL is the endpoint results are POSTed to. Empty disables delivery.
	URL string `json:"url" yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`

	// File receives JSON logs in addition to stderr when set.
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// Config groups every setting of the service.
type Config struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Wikidata   WikidataConfig   `json:"wikidata" yaml:"wikidata" mapstructure:"wikidata"`
	Wikipedia  WikipediaConfig  `json:"wikipedia" yaml:"wikipedia" mapstructure:"wikipedia"`
	WebSearch  WebSearchConfig  `json:"web_search" yaml:"web_search" mapstructure:"web_search"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Adaptation AdaptationConfig `json:"adaptation" yaml:"adaptation" mapstructure:"adaptation"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
