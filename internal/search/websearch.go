// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/art-enricher/internal/cache"
	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// WebResult is a Custom Search JSON API response. Raw holds the exact bytes
// that were fetched or read from the cache.
type WebResult struct {
	Items []WebItem       `json:"items"`
	Error *remoteError    `json:"error,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

// WebItem is one search hit.
type WebItem struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

type remoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// RemoteError reports an error payload returned by the search API.
type RemoteError struct {
	Terms   string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("web search %q: remote error %d: %s", e.Terms, e.Code, e.Message)
}

// WebSearch queries the web search engine. Engines maps "<lang>:child",
// "<lang>" and "default" to engine ids.
type WebSearch struct {
	Client    *http.Client
	Endpoint  string
	APIKey    string
	Engines   map[string]string
	UserAgent string
	Cache     cache.Cache
	Logger    *slog.Logger
}

// NewWebSearch builds the adapter from configuration.
func NewWebSearch(cfg types.WebSearchConfig, httpCfg types.HTTPConfig, client *http.Client, c cache.Cache, logger *slog.Logger) *WebSearch {
	if client == nil {
		client = httputil.NewClient(httpCfg.Timeout)
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &WebSearch{
		Client:    client,
		Endpoint:  cfg.Endpoint,
		APIKey:    cfg.APIKey,
		Engines:   cfg.Engines,
		UserAgent: httpCfg.UserAgent,
		Cache:     c,
		Logger:    logging.OrDefault(logger),
	}
}

// Name returns the adapter identifier, used to label its fan-out calls.
func (w *WebSearch) Name() string { return string(types.SourceWeb) }

// CacheKey returns the cache slot for a search. Keywords only matter when the
// caller folded them into searchTerms.
func CacheKey(searchTerms string, profile types.UserProfile) string {
	return fmt.Sprintf("[%s:%s]-%s", profile.ExpertiseLevel, profile.Language, strings.TrimSpace(searchTerms))
}

// Query searches the web for searchTerms. Blank terms return nil without
// touching the cache or the network. A cached response is returned as-is,
// with no staleness check. A fresh response is cached before it is returned;
// an error payload is reported as *RemoteError and never cached.
func (w *WebSearch) Query(ctx context.Context, searchTerms string, profile types.UserProfile) (*WebResult, error) {
	terms := strings.TrimSpace(searchTerms)
	if terms == "" {
		return nil, nil
	}

	key := CacheKey(terms, profile)
	if raw, ok := w.Cache.Get(key); ok {
		return decodeWebResult(raw)
	}

	engine, err := w.engineFor(profile)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"key": {w.APIKey},
		"cx":  {engine},
		"q":   {terms},
	}
	if lang := strings.ToLower(profile.Language); lang != "" {
		params.Set("lr", "lang_"+lang)
		params.Set("hl", lang)
	}
	if profile.ExpertiseLevel.IsChild() {
		params.Set("safe", "active")
	}

	body, err := httputil.Get(ctx, w.Client, w.Endpoint+"?"+params.Encode(), w.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("web search %q: %w", terms, err)
	}

	res, err := decodeWebResult(body)
	if err != nil {
		return nil, fmt.Errorf("web search %q: %w", terms, err)
	}
	if res.Error != nil {
		return nil, &RemoteError{Terms: terms, Code: res.Error.Code, Message: res.Error.Message}
	}

	if err := w.Cache.Set(key, body); err != nil {
		logging.OrDefault(w.Logger).WarnContext(ctx, "caching web search failed", "key", key, "error", err)
	}
	return res, nil
}

// SearchQueries runs every query concurrently and pairs each response with
// its query, score multiplied by weight. Failed and empty searches are left
// out.
func (w *WebSearch) SearchQueries(ctx context.Context, queries []types.Query, profile types.UserProfile, weight float64) []Batch {
	tasks := make([]fanout.Task[Batch], len(queries))
	for i, q := range queries {
		tasks[i] = func(ctx context.Context) (Batch, error) {
			res, err := w.Query(ctx, q.Terms(), profile)
			if err != nil {
				return Batch{}, err
			}
			if res == nil {
				return Batch{}, fmt.Errorf("web search %q: %w", q.Terms(), fanout.ErrAbsent)
			}
			weighted := q
			weighted.Score = q.Score * weight
			return Batch{Result: res, Query: weighted}, nil
		}
	}
	return fanout.Gather(ctx, w.Logger, w.Name()+".search", tasks)
}

// engineFor picks the engine id for the profile's language and audience.
func (w *WebSearch) engineFor(profile types.UserProfile) (string, error) {
	lang := strings.ToLower(profile.Language)
	var candidates []string
	if profile.ExpertiseLevel.IsChild() {
		candidates = append(candidates, lang+":child")
	}
	candidates = append(candidates, lang, "default")
	for _, c := range candidates {
		if id := w.Engines[c]; id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no web search engine configured for language %q", profile.Language)
}

func decodeWebResult(raw []byte) (*WebResult, error) {
	var res WebResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("parsing web search response: %w", err)
	}
	res.Raw = append(json.RawMessage(nil), raw...)
	return &res, nil
}
