// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches a web page and turns its HTML into a section tree.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/art-enricher/internal/fanout"
	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// maxDepth bounds recursion on pathological documents.
const maxDepth = 64

// skipped elements never contribute text.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true, "svg": true,
	"nav": true, "footer": true, "header": true, "aside": true, "form": true,
	"template": true,
}

// headingLevel maps heading elements to their nesting level.
var headingLevel = map[string]int{"h1": 1, "h2": 2, "h3": 3}

// blocks are the elements whose text becomes section content.
var blocks = map[string]bool{
	"p": true, "li": true, "blockquote": true, "figcaption": true, "dd": true,
	"h4": true, "h5": true, "h6": true,
}

// Scraper downloads pages for the web branch.
type Scraper struct {
	Client    *http.Client
	UserAgent string
	Logger    *slog.Logger
}

// New returns a Scraper using client, or a client with httpCfg.Timeout when
// client is nil.
func New(httpCfg types.HTTPConfig, client *http.Client, logger *slog.Logger) *Scraper {
	if client == nil {
		client = httputil.NewClient(httpCfg.Timeout)
	}
	return &Scraper{Client: client, UserAgent: httpCfg.UserAgent, Logger: logging.OrDefault(logger)}
}

// Parse fetches url and extracts its title, summary and sections. The
// result carries no score, keywords or source; the caller fills them in. A
// page without any text is reported as fanout.ErrAbsent.
func (s *Scraper) Parse(ctx context.Context, url string) (*types.PageResult, error) {
	body, err := httputil.GetHTML(ctx, s.Client, url, s.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	page, err := ParseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	if len(page.Sections) == 0 {
		return nil, fmt.Errorf("parsing %s: no text: %w", url, fanout.ErrAbsent)
	}
	page.URL = url
	s.Logger.DebugContext(ctx, "page scraped", "url", url, "sections", len(page.Sections))
	return page, nil
}

// ParseHTML builds a PageResult from an HTML document. Headings h1 to h3
// open sections, nested by level; paragraph-like blocks append to the
// current section. Text before the first heading forms a lead section named
// after the page. Summary is the meta description, else the first block.
func ParseHTML(doc []byte) (*types.PageResult, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	w := &walker{lead: &node{level: 0}}
	w.stack = []*node{w.lead}
	w.walk(root, 0)

	title := w.title
	if title == "" && len(w.lead.children) > 0 {
		title = w.lead.children[0].title
	}

	summary := w.description
	if summary == "" {
		summary = w.firstBlock
	}

	sections := make([]types.Section, 0, len(w.lead.children)+1)
	if lead := w.lead.text(); lead != "" {
		sections = append(sections, types.Section{Title: title, Content: lead})
	}
	for _, c := range w.lead.children {
		if sec, ok := c.build(); ok {
			sections = append(sections, sec)
		}
	}

	return &types.PageResult{
		Title:    title,
		Sections: sections,
		Summary:  summary,
		Keywords: []string{},
		Tags:     []string{},
	}, nil
}

type node struct {
	level    int
	title    string
	content  []string
	children []*node
}

func (n *node) text() string { return strings.Join(n.content, "\n\n") }

// build drops sections with neither text nor non-empty children.
func (n *node) build() (types.Section, bool) {
	sec := types.Section{Title: n.title, Content: n.text()}
	for _, c := range n.children {
		if child, ok := c.build(); ok {
			sec.Items = append(sec.Items, child)
		}
	}
	return sec, sec.Content != "" || len(sec.Items) > 0
}

type walker struct {
	title       string
	description string
	firstBlock  string
	lead        *node
	stack       []*node
}

func (w *walker) current() *node { return w.stack[len(w.stack)-1] }

func (w *walker) walk(n *html.Node, depth int) {
	if depth > maxDepth {
		return
	}
	if n.Type == html.ElementNode {
		switch {
		case skipped[n.Data]:
			return
		case n.Data == "title":
			if w.title == "" {
				w.title = collapse(textOf(n))
			}
			return
		case n.Data == "meta":
			if strings.EqualFold(attr(n, "name"), "description") && w.description == "" {
				w.description = collapse(attr(n, "content"))
			}
			return
		case headingLevel[n.Data] > 0:
			w.open(headingLevel[n.Data], collapse(textOf(n)))
			return
		case blocks[n.Data]:
			if t := collapse(textOf(n)); t != "" {
				cur := w.current()
				cur.content = append(cur.content, t)
				if w.firstBlock == "" {
					w.firstBlock = t
				}
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, depth+1)
	}
}

func (w *walker) open(level int, title string) {
	if title == "" {
		return
	}
	for len(w.stack) > 1 && w.current().level >= level {
		w.stack = w.stack[:len(w.stack)-1]
	}
	n := &node{level: level, title: title}
	parent := w.current()
	parent.children = append(parent.children, n)
	w.stack = append(w.stack, n)
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node, int)
	rec = func(n *html.Node, depth int) {
		if depth > maxDepth {
			return
		}
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		case html.ElementNode:
			if skipped[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c, depth+1)
		}
	}
	rec(n, 0)
	return sb.String()
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
