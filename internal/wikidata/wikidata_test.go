// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wikidata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/art-enricher/pkg/types"
)

// --- fake Wikidata ---

// midToItem drives the id translation query.
var midToItem = map[string]string{
	"/m/02j81": "Q243",
	"/m/05qtj": "Q90",
	"/g/11b6":  "Q12418",
}

var sampleEntities = map[string]string{
	"Q243": `{"id":"Q243","claims":{
		"P31":[{"rank":"normal","mainsnak":{"snaktype":"value","datavalue":{"type":"wikibase-entityid","value":{"entity-type":"item","id":"Q1440476"}}}}],
		"P84":[{"rank":"normal","mainsnak":{"snaktype":"value","datavalue":{"type":"wikibase-entityid","value":{"entity-type":"item","id":"Q20882"}}}},
		       {"rank":"deprecated","mainsnak":{"snaktype":"value","datavalue":{"type":"wikibase-entityid","value":{"entity-type":"item","id":"Q1"}}}}],
		"P625":[{"rank":"normal","mainsnak":{"snaktype":"value","datavalue":{"type":"globecoordinate","value":{"latitude":48.8584,"longitude":2.2945}}}}],
		"P276":[{"rank":"normal","mainsnak":{"snaktype":"somevalue"}}]
	},"sitelinks":{"enwiki":{"site":"enwiki","title":"Eiffel Tower"}}}`,
	"Q90": `{"id":"Q90","claims":{
		"P31":[{"rank":"normal","mainsnak":{"snaktype":"value","datavalue":{"type":"wikibase-entityid","value":{"id":"Q515"}}}}],
		"P17":[{"rank":"normal","mainsnak":{"snaktype":"value","datavalue":{"type":"wikibase-entityid","value":{"id":"Q142"}}}}]
	},"sitelinks":{"enwiki":{"site":"enwiki","title":"Paris"}}}`,
	"Q12418": `{"id":"Q12418","claims":{
		"P170":[{"rank":"preferred","mainsnak":{"snaktype":"value","datavalue":{"type":"wikibase-entityid","value":{"id":"Q762"}}}}]
	},"sitelinks":{}}`,
}

var sampleLabels = map[string]string{
	"Q20882": `{"en":{"language":"en","value":"Gustave Eiffel"}}`,
	"Q762":   `{"fr":{"language":"fr","value":"Léonard de Vinci"},"en":{"language":"en","value":"Leonardo da Vinci"}}`,
}

var sampleHierarchy = map[string][]string{
	"Q243":   {"Eiffel Tower", "lattice tower", "Tower", "architectural structure"},
	"Q90":    {"Paris", "city", "human settlement"},
	"Q12418": {"Mona Lisa", "painting", "visual artwork", "work of art"},
	"Q5":     {"photograph", "painting"},
	"Q404":   {"Q404"},
}

type fakeWikidata struct {
	server  *httptest.Server
	sparql  int32
	api     int32
	failAPI bool
}

func newFakeWikidata(t *testing.T) *fakeWikidata {
	t.Helper()
	f := &fakeWikidata{}
	mux := http.NewServeMux()
	mux.HandleFunc("/sparql", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.sparql, 1)
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		q := r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		switch {
		case strings.Contains(q, "LIMIT 1"):
			var bindings []string
			for mid, qid := range midToItem {
				if strings.Contains(q, `"`+mid+`"`) {
					bindings = append(bindings, fmt.Sprintf(`{"item":{"type":"uri","value":"http://www.wikidata.org/entity/%s"}}`, qid))
				}
			}
			fmt.Fprintf(w, `{"results":{"bindings":[%s]}}`, strings.Join(bindings, ","))
		default:
			var bindings []string
			for qid, labels := range sampleHierarchy {
				if strings.Contains(q, "wd:"+qid+" ") {
					for i, l := range labels {
						bindings = append(bindings, fmt.Sprintf(`{"entity":{"type":"uri","value":"http://www.wikidata.org/entity/Q%d"},"entityLabel":{"type":"literal","value":%q}}`, i, l))
					}
				}
			}
			fmt.Fprintf(w, `{"results":{"bindings":[%s]}}`, strings.Join(bindings, ","))
		}
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.api, 1)
		if f.failAPI {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		id := q.Get("ids")
		if strings.Contains(q.Get("props"), "labels") {
			if labels, ok := sampleLabels[id]; ok {
				fmt.Fprintf(w, `{"entities":{%q:{"id":%q,"labels":%s}}}`, id, id, labels)
				return
			}
			fmt.Fprintf(w, `{"entities":{%q:{"id":%q,"missing":""}}}`, id, id)
			return
		}
		if body, ok := sampleEntities[id]; ok {
			fmt.Fprintf(w, `{"entities":{%q:%s}}`, id, body)
			return
		}
		fmt.Fprint(w, `{"error":{"code":"no-such-entity","info":"Could not find an entity"}}`)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeWikidata) resolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(afero.NewMemMapFs(), types.WikidataConfig{
		SPARQLEndpoint: f.server.URL + "/sparql",
		APIEndpoint:    f.server.URL + "/w/api.php",
	}, types.HTTPConfig{UserAgent: "test/0.1"}, f.server.Client(), nil)
	require.NoError(t, err)
	return r
}

// --- GetProperties ---

func TestGetPropertiesFlattensClaims(t *testing.T) {
	f := newFakeWikidata(t)
	r := f.resolver(t)

	entity := types.Entity{Description: "Eiffel Tower", Score: 0.93, EntityID: "/m/02j81"}
	meta := r.GetProperties(context.Background(), entity, "en")

	assert.Equal(t, entity, meta.Entity, "entity must not be mutated")
	assert.Equal(t, "Q243", meta.WikidataID)
	assert.Equal(t, "Eiffel Tower", meta.WikipediaPageTitle)
	assert.Equal(t, []string{"Q1440476"}, meta.Claims[types.PropInstanceOf])
	assert.Equal(t, []string{"Q20882"}, meta.Claims[types.PropArchitect], "deprecated claims are skipped")
	assert.Equal(t, []string{"48.8584,2.2945"}, meta.Claims[types.PropCoordinates])
	assert.Empty(t, meta.Claims[types.PropLocation], "somevalue snaks carry no value")
	assert.Empty(t, meta.Claims[types.PropCreator])
}

func TestGetPropertiesGoogleKGID(t *testing.T) {
	f := newFakeWikidata(t)
	meta := f.resolver(t).GetProperties(context.Background(), types.Entity{Description: "Mona Lisa", EntityID: "/g/11b6"}, "en")
	assert.Equal(t, "Q12418", meta.WikidataID)
	assert.Equal(t, []string{"Q762"}, meta.Claims[types.PropCreator])
	assert.Empty(t, meta.WikipediaPageTitle)
}

func TestGetPropertiesFailuresDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		failAPI bool
	}{
		{"malformed id", "not-an-id", false},
		{"unknown mid", "/m/0unknown", false},
		{"entity fetch fails", "/m/02j81", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeWikidata(t)
			f.failAPI = tt.failAPI
			entity := types.Entity{Description: "x", Score: 0.5, EntityID: tt.id}
			meta := f.resolver(t).GetProperties(context.Background(), entity, "en")
			assert.Equal(t, entity, meta.Entity)
			assert.False(t, meta.Resolved())
			assert.Empty(t, meta.Claims)
			assert.NotNil(t, meta.Claims)
		})
	}
}

func TestGetAllPropertiesKeepsOrder(t *testing.T) {
	f := newFakeWikidata(t)
	entities := []types.Entity{
		{Description: "Paris", EntityID: "/m/05qtj"},
		{Description: "bad", EntityID: "/m/0nothing"},
		{Description: "Eiffel Tower", EntityID: "/m/02j81"},
	}
	metas := f.resolver(t).GetAllProperties(context.Background(), entities, "en")
	require.Len(t, metas, 3)
	assert.Equal(t, "Q90", metas[0].WikidataID)
	assert.Equal(t, "", metas[1].WikidataID)
	assert.Equal(t, "Q243", metas[2].WikidataID)
}

func TestNewRejectsIdentityOutsideTable(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), types.WikidataConfig{
		Properties:         []types.PropertyBinding{{Name: types.PropCreator, ClaimID: "P170"}},
		IdentityProperties: []types.Property{types.PropArchitect},
	}, types.HTTPConfig{}, nil, nil)
	assert.ErrorContains(t, err, "architect")
}

// --- TryGetKnownInstance ---

func meta(desc string, score float64, claims types.Claims) types.MetaEntity {
	return types.MetaEntity{
		Entity: types.Entity{Description: desc, Score: score},
		Claims: claims,
	}
}

func TestTryGetKnownInstanceFirstMatch(t *testing.T) {
	f := newFakeWikidata(t)
	r := f.resolver(t)

	metas := []types.MetaEntity{
		meta("Paris", 0.95, types.Claims{types.PropCountry: {"Q142"}}),
		meta("Eiffel Tower", 0.90, types.Claims{types.PropArchitect: {"Q20882"}}),
		meta("Mona Lisa", 0.99, types.Claims{types.PropCreator: {"Q762"}}),
	}
	ki := r.TryGetKnownInstance(context.Background(), metas, "en")
	require.NotNil(t, ki)
	assert.Equal(t, "Eiffel Tower", ki.Description, "first match wins over a higher score later")
	assert.Equal(t, []string{"Gustave Eiffel"}, ki.Identity[types.PropArchitect])
}

func TestTryGetKnownInstanceNone(t *testing.T) {
	f := newFakeWikidata(t)
	metas := []types.MetaEntity{
		meta("Paris", 0.95, types.Claims{types.PropCountry: {"Q142"}}),
		meta("sky", 0.5, types.Claims{}),
	}
	assert.Nil(t, f.resolver(t).TryGetKnownInstance(context.Background(), metas, "en"))
	assert.Nil(t, f.resolver(t).TryGetKnownInstance(context.Background(), nil, "en"))
}

func TestTryGetKnownInstanceResolvesEveryIdentityValue(t *testing.T) {
	f := newFakeWikidata(t)
	metas := []types.MetaEntity{meta("Mona Lisa", 0.9, types.Claims{
		types.PropCreator:  {"Q762"},
		types.PropLocation: {"Q999", "48.86,2.33"},
	})}
	ki := f.resolver(t).TryGetKnownInstance(context.Background(), metas, "fr")
	require.NotNil(t, ki)
	assert.Equal(t, []string{"Léonard de Vinci"}, ki.Identity[types.PropCreator])
	assert.Equal(t, []string{"Q999", "48.86,2.33"}, ki.Identity[types.PropLocation],
		"missing labels keep the id, non-item values are kept verbatim")
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.api), "one lookup per item id")
}

// --- FilterNotArtRelatedResult ---

func TestFilterNotArtRelated(t *testing.T) {
	f := newFakeWikidata(t)
	r := f.resolver(t)

	metas := []types.MetaEntity{
		{Entity: types.Entity{Description: "Eiffel Tower"}, WikidataID: "Q243"},
		{Entity: types.Entity{Description: "Paris"}, WikidataID: "Q90"},
		{Entity: types.Entity{Description: "Sky"}, WikidataID: "Q527"},
		{Entity: types.Entity{Description: "Painting"}, WikidataID: "Q3305213"},
		{Entity: types.Entity{Description: "Mona Lisa"}, WikidataID: "Q12418"},
		{Entity: types.Entity{Description: "Snapshot"}, WikidataID: "Q5"},
		{Entity: types.Entity{Description: "Ghost"}, WikidataID: "Q404"},
		{Entity: types.Entity{Description: "Unresolved"}},
	}
	got := r.FilterNotArtRelatedResult(context.Background(), metas)

	var names []string
	for _, m := range got {
		names = append(names, m.Description)
	}
	assert.Equal(t, []string{"Eiffel Tower", "Painting", "Mona Lisa"}, names)
	// Sky and Painting short-circuit; Unresolved has no id to query.
	assert.Equal(t, int32(5), atomic.LoadInt32(&f.sparql))
}

func TestTypeHierarchyNormalizesUnknownItem(t *testing.T) {
	f := newFakeWikidata(t)
	labels, err := f.resolver(t).TypeHierarchy(context.Background(), "Q404")
	require.NoError(t, err)
	assert.Empty(t, labels)

	labels, err = f.resolver(t).TypeHierarchy(context.Background(), "Q243")
	require.NoError(t, err)
	assert.Contains(t, labels, "tower")
}

func TestDecidePolicy(t *testing.T) {
	filters, err := LoadFilters(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	set := func(labels ...string) map[string]struct{} {
		out := map[string]struct{}{}
		for _, l := range labels {
			out[l] = struct{}{}
		}
		return out
	}
	tests := []struct {
		name   string
		labels map[string]struct{}
		want   bool
	}{
		{"include only", set("painting"), true},
		{"exclude wins", set("painting", "photograph"), false},
		{"neither is dropped", set("city", "human settlement"), false},
		{"empty is dropped", set(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filters.Decide(tt.labels))
		})
	}
}

func TestLoadFiltersMissingFile(t *testing.T) {
	_, err := LoadFilters(afero.NewMemMapFs(), "/nonexistent/filters.yaml")
	assert.ErrorContains(t, err, "reading filters file")
}

func TestLoadFiltersOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/filters.yaml", []byte("exclude:\n  - Painting\ninclude:\n  - City\n"), 0o644))

	filters, err := LoadFilters(fs, "/etc/filters.yaml")
	require.NoError(t, err)
	assert.True(t, filters.Decide(map[string]struct{}{"city": {}}))
	assert.False(t, filters.Decide(map[string]struct{}{"painting": {}}))

	r, err := New(fs, types.WikidataConfig{FiltersFile: "/etc/filters.yaml"}, types.HTTPConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, filters.Exclude, r.filters.Exclude)

	require.NoError(t, afero.WriteFile(fs, "/etc/bad.yaml", []byte("exclude: [unclosed"), 0o644))
	_, err = LoadFilters(fs, "/etc/bad.yaml")
	assert.ErrorContains(t, err, "parsing filters file")
}
