// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wikidata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// TryGetKnownInstance returns the first entity, in input order, with at
// least one identity property, its identity ids resolved to display names.
// It returns nil when no entity qualifies. Callers pass entities sorted by
// confidence; the first match wins even if a later one scores higher.
func (r *Resolver) TryGetKnownInstance(ctx context.Context, metas []types.MetaEntity, language string) *types.KnownInstance {
	for _, m := range metas {
		if !r.hasIdentity(m) {
			continue
		}
		return &types.KnownInstance{
			MetaEntity: m,
			Identity:   r.resolveIdentity(ctx, m, language),
		}
	}
	return nil
}

func (r *Resolver) hasIdentity(m types.MetaEntity) bool {
	for _, p := range r.identity {
		if m.Claims.Has(p) {
			return true
		}
	}
	return false
}

// resolveIdentity looks every identity value up concurrently, one request per
// id. A failed lookup keeps the raw value.
func (r *Resolver) resolveIdentity(ctx context.Context, m types.MetaEntity, language string) map[types.Property][]string {
	type slot struct {
		prop  types.Property
		value string
	}
	var slots []slot
	var tasks []fanout.Task[string]
	for _, p := range r.identity {
		for _, v := range m.Claims[p] {
			slots = append(slots, slot{prop: p, value: v})
			tasks = append(tasks, func(ctx context.Context) (string, error) {
				return r.Label(ctx, v, language)
			})
		}
	}

	names, ok := fanout.All(ctx, r.logger, "wikidata.label", tasks)

	identity := make(map[types.Property][]string)
	for i, s := range slots {
		name := s.value
		if ok[i] {
			name = names[i]
		}
		identity[s.prop] = append(identity[s.prop], name)
	}
	return identity
}

// Label returns the display name of an item in language, falling back to
// English. Values that are not item ids (coordinates, strings) are returned
// unchanged without a request.
func (r *Resolver) Label(ctx context.Context, value, language string) (string, error) {
	if !itemPattern.MatchString(value) {
		return value, nil
	}
	lang := strings.ToLower(language)
	ent, err := r.fetchEntity(ctx, value, url.Values{
		"props":     {"labels"},
		"languages": {lang + "|en"},
	})
	if err != nil {
		return "", err
	}
	for _, l := range []string{lang, "en"} {
		if t, ok := ent.Labels[l]; ok && t.Value != "" {
			return t.Value, nil
		}
	}
	return "", fmt.Errorf("label of %s: %w", value, fanout.ErrAbsent)
}
