// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapt delivers ranked results to the downstream Adaptation
// service, which turns them into text for the user.
package adapt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// ErrDisabled is returned by Deliver when no service URL is configured.
var ErrDisabled = errors.New("adaptation service not configured")

// Request is the body sent to the Adaptation service.
type Request struct {
	UserProfile types.UserProfile  `json:"userProfile"`
	Results     []types.PageResult `json:"results"`
}

// Client posts results to the Adaptation service.
type Client struct {
	HTTP      *http.Client
	URL       string
	APIKey    string
	UserAgent string
	Logger    *slog.Logger
}

// New builds a Client from configuration.
func New(cfg types.AdaptationConfig, httpCfg types.HTTPConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = httputil.NewClient(httpCfg.Timeout)
	}
	return &Client{
		HTTP:      client,
		URL:       cfg.URL,
		APIKey:    cfg.APIKey,
		UserAgent: httpCfg.UserAgent,
		Logger:    logging.OrDefault(logger),
	}
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool { return c != nil && c.URL != "" }

// Deliver posts {userProfile, results} and returns the service's JSON
// response as-is. A non-JSON response is an error.
func (c *Client) Deliver(ctx context.Context, profile types.UserProfile, results []types.PageResult) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if results == nil {
		results = []types.PageResult{}
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.APIKey)
	}

	body, err := httputil.PostJSON(ctx, c.HTTP, c.URL, header, Request{UserProfile: profile, Results: results})
	if err != nil {
		return nil, fmt.Errorf("delivering to adaptation service: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("delivering to adaptation service: response is not JSON")
	}

	logging.OrDefault(c.Logger).InfoContext(ctx, "results delivered", "results", len(results), "response_bytes", len(body))
	return json.RawMessage(body), nil
}
