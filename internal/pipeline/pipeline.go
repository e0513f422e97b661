// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline turns a classification result into ranked page results.
//
// A run moves through received, reduced, resolved, searched, merged, ranked
// and delivered. After resolution it takes one of two branches: a known
// instance (a specific artwork or monument) is searched by title, with extra
// encyclopedia pages for its identity properties; otherwise the art-related
// entities are searched generically, with taste-expanded web queries.
// Collaborator failures never reach this package: each adapter drops what
// failed and returns the rest.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/internal/reduce"
	"github.com/pdiddy/art-enricher/internal/search"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// ErrInvalidRequest reports a request without a language or without any
// entity or label.
var ErrInvalidRequest = errors.New("invalid enrichment request")

// Resolver resolves entities against the knowledge graph.
type Resolver interface {
	GetAllProperties(ctx context.Context, entities []types.Entity, language string) []types.MetaEntity
	TryGetKnownInstance(ctx context.Context, metas []types.MetaEntity, language string) *types.KnownInstance
	FilterNotArtRelatedResult(ctx context.Context, metas []types.MetaEntity) []types.MetaEntity
}

// KnowledgeBase searches the encyclopedia.
type KnowledgeBase interface {
	SearchKnownInstance(ctx context.Context, ki types.KnownInstance, language string, weights types.Weights) []types.PageResult
	SearchEntities(ctx context.Context, metas []types.MetaEntity, language string, weight float64) []types.PageResult
}

// WebSearcher runs weighted web queries.
type WebSearcher interface {
	SearchQueries(ctx context.Context, queries []types.Query, profile types.UserProfile, weight float64) []search.Batch
}

// PageParser fetches a web page into a structured result.
type PageParser interface {
	Parse(ctx context.Context, url string) (*types.PageResult, error)
}

// Deliverer hands ranked results to the Adaptation service.
type Deliverer interface {
	Enabled() bool
	Deliver(ctx context.Context, profile types.UserProfile, results []types.PageResult) (json.RawMessage, error)
}

// Deps are the collaborators of a Pipeline. Parser and Adapter are optional:
// without a parser, web hits are kept as snippet-only pages; without an
// adapter, delivery is a no-op.
type Deps struct {
	Resolver      Resolver
	KnowledgeBase KnowledgeBase
	Web           WebSearcher
	Parser        PageParser
	Adapter       Deliverer
}

// Request is one photograph's classification and the user it is for.
type Request struct {
	Classification types.ClassificationResult `json:"classification" yaml:"classification"`
	UserProfile    types.UserProfile          `json:"userProfile" yaml:"user_profile"`
}

// Result is the outcome of a run.
type Result struct {
	// Results are ranked by descending score.
	Results []types.PageResult `json:"results"`

	// KnownInstance is set when the known branch was taken.
	KnownInstance *types.KnownInstance `json:"knownInstance,omitempty"`

	// Adaptation is the Adaptation service response, when delivered.
	Adaptation json.RawMessage `json:"adaptation,omitempty"`

	// State is the last state reached.
	State State `json:"-"`
}

// Pipeline orchestrates one enrichment run per call. It is safe for
// concurrent use.
type Pipeline struct {
	cfg    types.PipelineConfig
	deps   Deps
	logger *slog.Logger
}

// New returns a Pipeline. Resolver, KnowledgeBase and Web are required.
func New(cfg types.PipelineConfig, deps Deps, logger *slog.Logger) (*Pipeline, error) {
	if deps.Resolver == nil || deps.KnowledgeBase == nil || deps.Web == nil {
		return nil, fmt.Errorf("pipeline: resolver, knowledge base and web searcher are required")
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logging.OrDefault(logger)}, nil
}

// Enrich runs the pipeline up to the ranked state.
func (p *Pipeline) Enrich(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	lang := strings.ToLower(strings.TrimSpace(req.UserProfile.Language))
	profile := req.UserProfile
	profile.Language = lang
	log := p.logger.With("language", lang, "expertise", string(profile.ExpertiseLevel))

	enter(ctx, log, StateReceived, "entities", len(req.Classification.Entities), "labels", len(req.Classification.Labels))

	entities := p.reduce(req.Classification)
	enter(ctx, log, StateReduced, "kept", len(entities))

	metas := p.deps.Resolver.GetAllProperties(ctx, entities, lang)
	known := p.deps.Resolver.TryGetKnownInstance(ctx, metas, lang)
	if known != nil {
		enter(ctx, log, StateResolved, "branch", "known", "instance", known.Title(), "wikidata_id", known.WikidataID)
	} else {
		enter(ctx, log, StateResolved, "branch", "unknown", "entities", len(metas))
	}

	var (
		kb      []types.PageResult
		batches []search.Batch
	)
	if known != nil {
		kb, batches = p.searchKnown(ctx, *known, profile)
	} else {
		kb, batches = p.searchUnknown(ctx, metas, profile)
	}
	enter(ctx, log, StateSearched, "kb_results", len(kb), "web_batches", len(batches))

	web := p.mergeWeb(ctx, batches)
	enter(ctx, log, StateMerged, "web_results", len(web))

	results := Rank(append(kb, web...), p.cfg.MaxResults)
	enter(ctx, log, StateRanked, "results", len(results))

	return &Result{Results: results, KnownInstance: known, State: StateRanked}, nil
}

// Run enriches the request and delivers the ranked results. When no adapter
// is configured delivery is skipped and the result has no Adaptation.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := p.Enrich(ctx, req)
	if err != nil {
		return nil, err
	}
	if p.deps.Adapter == nil || !p.deps.Adapter.Enabled() {
		res.State = StateDelivered
		return res, nil
	}

	resp, err := p.deps.Adapter.Deliver(ctx, req.UserProfile, res.Results)
	if err != nil {
		return res, fmt.Errorf("delivering results: %w", err)
	}
	res.Adaptation = resp
	res.State = StateDelivered
	enter(ctx, p.logger, StateDelivered, "results", len(res.Results))
	return res, nil
}

// enter logs a state transition.
func enter(ctx context.Context, log *slog.Logger, s State, args ...any) {
	log.InfoContext(ctx, "pipeline state", append([]any{"state", s.String()}, args...)...)
}

func validate(req Request) error {
	if strings.TrimSpace(req.UserProfile.Language) == "" {
		return fmt.Errorf("%w: user profile has no language", ErrInvalidRequest)
	}
	if req.Classification.IsEmpty() {
		return fmt.Errorf("%w: classification has no entities or labels", ErrInvalidRequest)
	}
	return nil
}

// reduce keeps the significant head of entities and labels independently,
// then combines them, entities first, dropping repeats, ordered by score.
func (p *Pipeline) reduce(c types.ClassificationResult) []types.Entity {
	rc := p.cfg.Reduce
	entities := reduce.Reduce(reduce.SortByScore(c.Entities), rc.MaxCount, rc.MinScore)
	labels := reduce.Reduce(reduce.SortByScore(c.Labels), rc.MaxCount, rc.MinScore)

	seen := make(map[string]struct{}, len(entities)+len(labels))
	combined := make([]types.Entity, 0, len(entities)+len(labels))
	for _, e := range append(entities, labels...) {
		if strings.TrimSpace(e.Description) == "" {
			continue
		}
		key := dedupKey(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		combined = append(combined, e)
	}
	return reduce.SortByScore(combined)
}

func dedupKey(e types.Entity) string {
	if e.EntityID != "" {
		return "id:" + e.EntityID
	}
	return "desc:" + strings.ToLower(strings.TrimSpace(e.Description))
}

func (p *Pipeline) searchKnown(ctx context.Context, ki types.KnownInstance, profile types.UserProfile) ([]types.PageResult, []search.Batch) {
	w := p.weights()
	queries := []types.Query{{
		SearchTerms: ki.Title(),
		Score:       ki.Score,
		Keywords:    []string{},
		Language:    profile.Language,
	}}

	var (
		kb      []types.PageResult
		batches []search.Batch
	)
	fanout.Join(
		func() { kb = p.deps.KnowledgeBase.SearchKnownInstance(ctx, ki, profile.Language, w) },
		func() { batches = p.deps.Web.SearchQueries(ctx, queries, profile, w.WebKnown) },
	)
	return kb, batches
}

func (p *Pipeline) searchUnknown(ctx context.Context, metas []types.MetaEntity, profile types.UserProfile) ([]types.PageResult, []search.Batch) {
	w := p.weights()
	art := p.deps.Resolver.FilterNotArtRelatedResult(ctx, metas)
	if len(art) == 0 {
		p.logger.InfoContext(ctx, "no art-related entity left")
		return nil, nil
	}

	entities := make([]types.Entity, len(art))
	for i, m := range art {
		entities[i] = m.Entity
	}
	base := search.BuildBasicQueries(entities, profile.Language)
	expanded := search.ExtendQuery(base, search.TasteExpansion(profile.Tastes, p.cfg.TasteKeywords))
	queries := append(base, expanded...)

	var (
		kb      []types.PageResult
		batches []search.Batch
	)
	fanout.Join(
		func() { kb = p.deps.KnowledgeBase.SearchEntities(ctx, art, profile.Language, w.KBUnknown) },
		func() { batches = p.deps.Web.SearchQueries(ctx, queries, profile, w.WebUnknown) },
	)
	return kb, batches
}

// mergeWeb merges duplicate web hits and scrapes each distinct page. Pages
// that cannot be scraped are dropped.
func (p *Pipeline) mergeWeb(ctx context.Context, batches []search.Batch) []types.PageResult {
	merged := search.MergeDuplicateURLs(batches)
	if len(merged) == 0 {
		return nil
	}

	tasks := make([]fanout.Task[types.PageResult], len(merged))
	for i, m := range merged {
		tasks[i] = func(ctx context.Context) (types.PageResult, error) {
			page, err := p.scrape(ctx, m)
			if err != nil {
				return types.PageResult{}, err
			}
			return *page, nil
		}
	}
	return fanout.Gather(ctx, p.logger, "web.scrape", tasks)
}

func (p *Pipeline) scrape(ctx context.Context, m search.Merged) (*types.PageResult, error) {
	var page *types.PageResult
	if p.deps.Parser == nil {
		page = &types.PageResult{Sections: []types.Section{{Title: m.Title, Content: m.Snippet}}}
	} else {
		parsed, err := p.deps.Parser.Parse(ctx, m.URL)
		if err != nil {
			return nil, err
		}
		page = parsed
	}

	page.URL = m.URL
	if page.Title == "" {
		page.Title = m.Title
	}
	if page.Summary == "" {
		page.Summary = m.Snippet
	}
	page.Keywords = append([]string{}, m.Keywords...)
	if page.Tags == nil {
		page.Tags = []string{}
	}
	page.Score = m.Score
	page.Source = types.SourceWeb
	return page, nil
}

func (p *Pipeline) weights() types.Weights {
	if p.cfg.Weights == (types.Weights{}) {
		return types.DefaultWeights()
	}
	return p.cfg.Weights
}

// Rank orders results by descending score, keeping input order on ties, and
// truncates to max when max > 0.
func Rank(results []types.PageResult, max int) []types.PageResult {
	out := make([]types.PageResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
