// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wikidata resolves classifier entities against the Wikidata
// knowledge graph: it maps classifier ids to Wikidata items, flattens their
// claims into a fixed property set, detects known instances and filters out
// concepts that are not art related.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/pkg/types"
)

var (
	// midPattern matches Freebase (/m/...) and Google Knowledge Graph (/g/...) ids.
	midPattern = regexp.MustCompile(`^/([mg])/[0-9a-z_]+$`)

	// itemPattern matches Wikidata item ids.
	itemPattern = regexp.MustCompile(`^Q[1-9][0-9]*$`)
)

// idTranslationQuery finds the item carrying a classifier id.
const idTranslationQuery = `SELECT ?item WHERE { ?item wdt:%s "%s" . } LIMIT 1`

// Resolver talks to the Wikidata Query Service and the Wikibase API.
type Resolver struct {
	client    *http.Client
	sparqlURL string
	apiURL    string
	userAgent string
	table     []types.PropertyBinding
	identity  []types.Property
	filters   Filters
	logger    *slog.Logger
}

// New builds a Resolver. Empty property and identity tables fall back to the
// package defaults; filters come from cfg.FiltersFile on fsys or the embedded
// lists.
func New(fsys afero.Fs, cfg types.WikidataConfig, httpCfg types.HTTPConfig, client *http.Client, logger *slog.Logger) (*Resolver, error) {
	filters, err := LoadFilters(fsys, cfg.FiltersFile)
	if err != nil {
		return nil, err
	}

	table := cfg.Properties
	if len(table) == 0 {
		table = types.DefaultPropertyTable
	}
	identity := cfg.IdentityProperties
	if len(identity) == 0 {
		identity = types.DefaultIdentityProperties
	}
	for _, p := range identity {
		if !tableHas(table, p) {
			return nil, fmt.Errorf("identity property %q is not in the property table", p)
		}
	}

	if client == nil {
		client = httputil.NewClient(httpCfg.Timeout)
	}

	return &Resolver{
		client:    client,
		sparqlURL: cfg.SPARQLEndpoint,
		apiURL:    cfg.APIEndpoint,
		userAgent: httpCfg.UserAgent,
		table:     table,
		identity:  identity,
		filters:   filters,
		logger:    logging.OrDefault(logger),
	}, nil
}

// GetProperties resolves entity to a MetaEntity. Any failure yields a
// MetaEntity with no Wikidata id and no claims, so one bad entity never
// aborts a batch.
func (r *Resolver) GetProperties(ctx context.Context, entity types.Entity, language string) types.MetaEntity {
	meta, ok := fanout.Soft(ctx, r.logger, "wikidata.properties", func(ctx context.Context) (types.MetaEntity, error) {
		return r.lookup(ctx, entity, language)
	})
	if !ok {
		return emptyMeta(entity)
	}
	return meta
}

// GetAllProperties resolves every entity concurrently. The output is aligned
// with the input.
func (r *Resolver) GetAllProperties(ctx context.Context, entities []types.Entity, language string) []types.MetaEntity {
	tasks := make([]fanout.Task[types.MetaEntity], len(entities))
	for i, e := range entities {
		tasks[i] = func(ctx context.Context) (types.MetaEntity, error) {
			return r.GetProperties(ctx, e, language), nil
		}
	}
	metas, _ := fanout.All(ctx, r.logger, "wikidata.properties", tasks)
	return metas
}

func (r *Resolver) lookup(ctx context.Context, entity types.Entity, language string) (types.MetaEntity, error) {
	qid, err := r.translateID(ctx, entity.EntityID)
	if err != nil {
		return types.MetaEntity{}, err
	}

	ent, err := r.fetchEntity(ctx, qid, url.Values{
		"props":      {"claims|sitelinks"},
		"sitefilter": {siteID(language)},
	})
	if err != nil {
		return types.MetaEntity{}, err
	}

	meta := types.MetaEntity{
		Entity:     entity,
		WikidataID: qid,
		Claims:     r.flatten(ent.Claims),
	}
	if link, ok := ent.Sitelinks[siteID(language)]; ok {
		meta.WikipediaPageTitle = link.Title
	}
	return meta, nil
}

// translateID maps a classifier id to a Wikidata item id with one SPARQL query.
func (r *Resolver) translateID(ctx context.Context, entityID string) (string, error) {
	m := midPattern.FindStringSubmatch(entityID)
	if m == nil {
		return "", fmt.Errorf("entity id %q: %w", entityID, fanout.ErrAbsent)
	}
	claim := "P646" // Freebase ID
	if m[1] == "g" {
		claim = "P2671" // Google Knowledge Graph ID
	}

	var resp sparqlResponse
	if err := r.sparql(ctx, fmt.Sprintf(idTranslationQuery, claim, entityID), &resp); err != nil {
		return "", fmt.Errorf("translating %s: %w", entityID, err)
	}
	for _, b := range resp.Results.Bindings {
		if qid := itemFromURI(b["item"].Value); qid != "" {
			return qid, nil
		}
	}
	return "", fmt.Errorf("no Wikidata item for %s: %w", entityID, fanout.ErrAbsent)
}

// flatten iterates the property table and collects each claim's values.
func (r *Resolver) flatten(claims map[string][]statement) types.Claims {
	out := make(types.Claims, len(r.table))
	for _, b := range r.table {
		var values []string
		for _, st := range claims[b.ClaimID] {
			if st.Rank == "deprecated" || st.Mainsnak.Snaktype != "value" {
				continue
			}
			if v := st.Mainsnak.Datavalue.String(); v != "" {
				values = append(values, v)
			}
		}
		out[b.Name] = append(out[b.Name], values...)
	}
	return out
}

func (r *Resolver) fetchEntity(ctx context.Context, qid string, params url.Values) (*wbEntity, error) {
	if !itemPattern.MatchString(qid) {
		return nil, fmt.Errorf("invalid item id %q", qid)
	}
	params.Set("action", "wbgetentities")
	params.Set("ids", qid)
	params.Set("format", "json")

	var resp wbResponse
	if err := httputil.GetJSON(ctx, r.client, r.apiURL+"?"+params.Encode(), r.userAgent, &resp); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", qid, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("fetching %s: %s: %s", qid, resp.Error.Code, resp.Error.Info)
	}
	ent, ok := resp.Entities[qid]
	if !ok || ent.Missing != nil {
		return nil, fmt.Errorf("item %s: %w", qid, fanout.ErrAbsent)
	}
	return &ent, nil
}

func (r *Resolver) sparql(ctx context.Context, query string, v any) error {
	params := url.Values{"query": {query}, "format": {"json"}}
	return httputil.GetJSON(ctx, r.client, r.sparqlURL+"?"+params.Encode(), r.userAgent, v)
}

func emptyMeta(entity types.Entity) types.MetaEntity {
	return types.MetaEntity{Entity: entity, Claims: types.Claims{}}
}

func siteID(language string) string {
	return strings.ToLower(language) + "wiki"
}

func tableHas(table []types.PropertyBinding, p types.Property) bool {
	for _, b := range table {
		if b.Name == p {
			return true
		}
	}
	return false
}

// itemFromURI returns "Q42" for "http://www.wikidata.org/entity/Q42".
func itemFromURI(uri string) string {
	id := uri[strings.LastIndex(uri, "/")+1:]
	if !itemPattern.MatchString(id) {
		return ""
	}
	return id
}

// SPARQL JSON results.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Wikibase wbgetentities JSON structures.
type wbResponse struct {
	Entities map[string]wbEntity `json:"entities"`
	Error    *wbError            `json:"error"`
}

type wbError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type wbEntity struct {
	ID        string                 `json:"id"`
	Missing   *string                `json:"missing"`
	Labels    map[string]wbText      `json:"labels"`
	Claims    map[string][]statement `json:"claims"`
	Sitelinks map[string]wbSitelink  `json:"sitelinks"`
}

type wbText struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type wbSitelink struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

type statement struct {
	Rank     string `json:"rank"`
	Mainsnak struct {
		Snaktype  string    `json:"snaktype"`
		Datavalue datavalue `json:"datavalue"`
	} `json:"mainsnak"`
}

type datavalue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// String renders a claim value: item ids as "Q…", coordinates as "lat,lon",
// text as-is. Unsupported types render empty.
func (d datavalue) String() string {
	switch d.Type {
	case "wikibase-entityid":
		var v struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(d.Value, &v) == nil {
			return v.ID
		}
	case "string":
		var s string
		if json.Unmarshal(d.Value, &s) == nil {
			return s
		}
	case "monolingualtext":
		var v struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(d.Value, &v) == nil {
			return v.Text
		}
	case "globecoordinate":
		var v struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if json.Unmarshal(d.Value, &v) == nil {
			return fmt.Sprintf("%g,%g", v.Latitude, v.Longitude)
		}
	}
	return ""
}
