// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/art-enricher/internal/cache"
	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// headingPattern matches plain-text extract headings such as "== History ==".
var headingPattern = regexp.MustCompile(`^(={2,6})\s*(.*?)\s*={2,6}$`)

// TagKnownInstance marks the page of the known instance itself.
const TagKnownInstance = "knownInstance"

// Wikipedia is the encyclopedia adapter. Endpoint and PageURL are templates
// whose first %s is the language subdomain.
type Wikipedia struct {
	Client    *http.Client
	Endpoint  string
	PageURL   string
	UserAgent string
	Cache     cache.Cache
	Logger    *slog.Logger
}

// NewWikipedia builds the adapter from configuration.
func NewWikipedia(cfg types.WikipediaConfig, httpCfg types.HTTPConfig, client *http.Client, c cache.Cache, logger *slog.Logger) *Wikipedia {
	if client == nil {
		client = httputil.NewClient(httpCfg.Timeout)
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Wikipedia{
		Client:    client,
		Endpoint:  cfg.APIEndpoint,
		PageURL:   cfg.PageURL,
		UserAgent: httpCfg.UserAgent,
		Cache:     c,
		Logger:    logging.OrDefault(logger),
	}
}

// Name returns the adapter identifier, used to label its fan-out calls.
func (w *Wikipedia) Name() string { return string(types.SourceWikipedia) }

// Search returns the titles matching term, best first.
func (w *Wikipedia) Search(ctx context.Context, term, language string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("wikipedia search: empty term: %w", fanout.ErrAbsent)
	}
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {term},
		"srlimit":  {"5"},
		"format":   {"json"},
	}

	var resp mwSearchResponse
	if err := httputil.GetJSON(ctx, w.Client, w.endpoint(language)+"?"+params.Encode(), w.UserAgent, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia search %q: %w", term, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("wikipedia search %q: %s: %s", term, resp.Error.Code, resp.Error.Info)
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

// Page fetches a page by title and splits its plain-text extract into
// sections. Pages are cached per language and title; the returned page has
// no score.
func (w *Wikipedia) Page(ctx context.Context, title, language string) (*types.PageResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("wikipedia page: empty title: %w", fanout.ErrAbsent)
	}

	key := fmt.Sprintf("[wikipedia:%s]-%s", strings.ToLower(language), title)
	if raw, ok := w.Cache.Get(key); ok {
		var page types.PageResult
		if err := json.Unmarshal(raw, &page); err == nil {
			return &page, nil
		}
	}

	params := url.Values{
		"action":        {"query"},
		"prop":          {"extracts|info"},
		"inprop":        {"url"},
		"explaintext":   {"1"},
		"redirects":     {"1"},
		"titles":        {title},
		"format":        {"json"},
		"formatversion": {"2"},
	}
	var resp mwPageResponse
	if err := httputil.GetJSON(ctx, w.Client, w.endpoint(language)+"?"+params.Encode(), w.UserAgent, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia page %q: %w", title, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("wikipedia page %q: %s: %s", title, resp.Error.Code, resp.Error.Info)
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing || resp.Query.Pages[0].Extract == "" {
		return nil, fmt.Errorf("wikipedia page %q: %w", title, fanout.ErrAbsent)
	}

	p := resp.Query.Pages[0]
	summary, sections := splitExtract(p.Title, p.Extract)
	page := &types.PageResult{
		URL:      p.FullURL,
		Title:    p.Title,
		Sections: sections,
		Summary:  summary,
		Keywords: []string{},
		Tags:     []string{},
		Source:   types.SourceWikipedia,
	}
	if page.URL == "" && w.PageURL != "" {
		page.URL = fmt.Sprintf(w.PageURL, strings.ToLower(language), url.PathEscape(strings.ReplaceAll(p.Title, " ", "_")))
	}

	if data, err := json.Marshal(page); err == nil {
		if err := w.Cache.Set(key, data); err != nil {
			logging.OrDefault(w.Logger).WarnContext(ctx, "caching wikipedia page failed", "key", key, "error", err)
		}
	}
	return page, nil
}

// SearchKnownInstance returns the instance's own page plus one page per
// identity value (e.g. the architect), fetched concurrently. The instance
// page scores ki.Score*weights.KBKnown, identity pages
// ki.Score*weights.KBIdentity. Pages that fail are left out.
func (w *Wikipedia) SearchKnownInstance(ctx context.Context, ki types.KnownInstance, language string, weights types.Weights) []types.PageResult {
	tasks := []fanout.Task[types.PageResult]{
		func(ctx context.Context) (types.PageResult, error) {
			page, err := w.pageFor(ctx, ki.WikipediaPageTitle, ki.Description, language)
			if err != nil {
				return types.PageResult{}, err
			}
			page.Score = ki.Score * weights.KBKnown
			page.Tags = append(page.Tags, TagKnownInstance)
			return *page, nil
		},
	}

	props := make([]types.Property, 0, len(ki.Identity))
	for p := range ki.Identity {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool { return props[i] < props[j] })

	for _, p := range props {
		for _, name := range ki.Identity[p] {
			tasks = append(tasks, func(ctx context.Context) (types.PageResult, error) {
				page, err := w.pageFor(ctx, "", name, language)
				if err != nil {
					return types.PageResult{}, err
				}
				page.Score = ki.Score * weights.KBIdentity
				page.Tags = append(page.Tags, string(p))
				page.Keywords = append(page.Keywords, name)
				return *page, nil
			})
		}
	}
	return fanout.Gather(ctx, w.Logger, w.Name()+".known_instance", tasks)
}

// SearchEntities returns one page per entity, concurrently, each scored
// entity.Score*weight. Pages that fail are left out.
func (w *Wikipedia) SearchEntities(ctx context.Context, metas []types.MetaEntity, language string, weight float64) []types.PageResult {
	tasks := make([]fanout.Task[types.PageResult], len(metas))
	for i, m := range metas {
		tasks[i] = func(ctx context.Context) (types.PageResult, error) {
			page, err := w.pageFor(ctx, m.WikipediaPageTitle, m.Description, language)
			if err != nil {
				return types.PageResult{}, err
			}
			page.Score = m.Score * weight
			return *page, nil
		}
	}
	return fanout.Gather(ctx, w.Logger, w.Name()+".entities", tasks)
}

// pageFor fetches title, or the best search hit for fallback when title is
// empty.
func (w *Wikipedia) pageFor(ctx context.Context, title, fallback, language string) (*types.PageResult, error) {
	if title == "" {
		titles, err := w.Search(ctx, fallback, language)
		if err != nil {
			return nil, err
		}
		if len(titles) == 0 {
			return nil, fmt.Errorf("wikipedia search %q: %w", fallback, fanout.ErrAbsent)
		}
		title = titles[0]
	}
	return w.Page(ctx, title, language)
}

func (w *Wikipedia) endpoint(language string) string {
	return fmt.Sprintf(w.Endpoint, strings.ToLower(language))
}

// splitExtract turns a plain-text extract into a summary (the lead) and a
// section tree. Level-2 headings open top-level sections; deeper headings
// nest under the closest shallower one.
func splitExtract(title, extract string) (string, []types.Section) {
	type node struct {
		level    int
		title    string
		content  strings.Builder
		children []*node
	}

	root := &node{level: 1}
	stack := []*node{root}
	current := root

	for _, line := range strings.Split(extract, "\n") {
		m := headingPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			current.content.WriteString(line)
			current.content.WriteString("\n")
			continue
		}
		n := &node{level: len(m[1]), title: m[2]}
		for len(stack) > 1 && stack[len(stack)-1].level >= n.level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, n)
		stack = append(stack, n)
		current = n
	}

	var build func(n *node) types.Section
	build = func(n *node) types.Section {
		s := types.Section{Title: n.title, Content: strings.TrimSpace(n.content.String())}
		for _, c := range n.children {
			s.Items = append(s.Items, build(c))
		}
		return s
	}

	lead := strings.TrimSpace(root.content.String())
	sections := make([]types.Section, 0, len(root.children)+1)
	if lead != "" {
		sections = append(sections, types.Section{Title: title, Content: lead})
	}
	for _, c := range root.children {
		sections = append(sections, build(c))
	}
	return lead, sections
}

type mwError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type mwSearchResponse struct {
	Error *mwError `json:"error"`
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type mwPageResponse struct {
	Error *mwError `json:"error"`
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
			Missing bool   `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}
