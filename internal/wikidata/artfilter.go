// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wikidata

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/pkg/types"
)

//go:embed filters.yaml
var defaultFilters []byte

// typeHierarchyQuery returns every ancestor of an item along instance-of,
// subclass-of and occupation edges, with English labels.
const typeHierarchyQuery = `SELECT DISTINCT ?entity ?entityLabel WHERE {
  wd:%s (wdt:P31|wdt:P279|wdt:P106)* ?entity .
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`

// Filters holds the lower-cased description lists used by the art filter.
type Filters struct {
	Exclude []string `yaml:"exclude"`
	Include []string `yaml:"include"`

	exclude map[string]struct{}
	include map[string]struct{}
}

// LoadFilters parses the YAML file at path on fsys, or the embedded lists
// when path is empty.
func LoadFilters(fsys afero.Fs, path string) (Filters, error) {
	data := defaultFilters
	if path != "" {
		var err error
		if data, err = afero.ReadFile(fsys, path); err != nil {
			return Filters{}, fmt.Errorf("reading filters file: %w", err)
		}
	}
	var f Filters
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Filters{}, fmt.Errorf("parsing filters file: %w", err)
	}
	f.index()
	return f, nil
}

func (f *Filters) index() {
	f.exclude = toSet(f.Exclude)
	f.include = toSet(f.Include)
}

// verdict is the outcome of matching one text against the lists.
type verdict int

const (
	undecided verdict = iota
	excluded
	included
)

func (f Filters) match(text string) verdict {
	key := strings.ToLower(strings.TrimSpace(text))
	if _, ok := f.exclude[key]; ok {
		return excluded
	}
	if _, ok := f.include[key]; ok {
		return included
	}
	return undecided
}

// Decide applies the policy to a type-hierarchy label set: any excluded label
// drops the entity, otherwise any included label keeps it, otherwise it is
// dropped. Dropping the undecided case is a deliberate default-deny choice.
func (f Filters) Decide(labels map[string]struct{}) bool {
	for l := range labels {
		if f.match(l) == excluded {
			return false
		}
	}
	for l := range labels {
		if f.match(l) == included {
			return true
		}
	}
	return false
}

// FilterNotArtRelatedResult keeps the entities that are art related. The
// description lists decide without a request when they match; otherwise
// one type-hierarchy query per entity runs, all concurrently. Survivors keep
// their input order. A failed or empty hierarchy lookup drops the entity.
func (r *Resolver) FilterNotArtRelatedResult(ctx context.Context, metas []types.MetaEntity) []types.MetaEntity {
	tasks := make([]fanout.Task[bool], len(metas))
	for i, m := range metas {
		switch r.filters.match(m.Description) {
		case excluded:
			tasks[i] = func(context.Context) (bool, error) { return false, nil }
			continue
		case included:
			tasks[i] = func(context.Context) (bool, error) { return true, nil }
			continue
		}
		tasks[i] = func(ctx context.Context) (bool, error) {
			labels, err := r.TypeHierarchy(ctx, m.WikidataID)
			if err != nil {
				return false, err
			}
			return r.filters.Decide(labels), nil
		}
	}

	keep, ok := fanout.All(ctx, r.logger, "wikidata.type_hierarchy", tasks)
	out := make([]types.MetaEntity, 0, len(metas))
	for i, m := range metas {
		if ok[i] && keep[i] {
			out = append(out, m)
		}
	}
	return out
}

// TypeHierarchy returns the lower-cased labels of the item's type closure.
// A set holding nothing but the item's own id (how the service answers for
// unknown items) is returned empty.
func (r *Resolver) TypeHierarchy(ctx context.Context, qid string) (map[string]struct{}, error) {
	if !itemPattern.MatchString(qid) {
		return nil, fmt.Errorf("type hierarchy of %q: %w", qid, fanout.ErrAbsent)
	}

	var resp sparqlResponse
	if err := r.sparql(ctx, fmt.Sprintf(typeHierarchyQuery, qid), &resp); err != nil {
		return nil, fmt.Errorf("type hierarchy of %s: %w", qid, err)
	}

	labels := make(map[string]struct{})
	for _, b := range resp.Results.Bindings {
		if l := strings.ToLower(strings.TrimSpace(b["entityLabel"].Value)); l != "" {
			labels[l] = struct{}{}
		}
	}
	if _, self := labels[strings.ToLower(qid)]; self && len(labels) == 1 {
		return map[string]struct{}{}, nil
	}
	return labels, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}
