// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP helpers shared by every external client.
// Requests are sent once: nothing here retries.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 8 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.URL, e.StatusCode)
}

// NewClient returns an HTTP client with the given timeout (zero = none).
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Do sends req and returns the response body. Non-2xx responses become a
// *StatusError; the body is drained and closed either way.
func Do(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, &StatusError{URL: endpoint(req), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// Accept header values.
const (
	AcceptJSON = "application/json"
	AcceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
)

// Get performs a JSON API GET with the given User-Agent and returns the raw body.
func Get(ctx context.Context, client *http.Client, reqURL, userAgent string) ([]byte, error) {
	return get(ctx, client, reqURL, userAgent, AcceptJSON)
}

// GetHTML performs a GET for a web page and returns the raw body.
func GetHTML(ctx context.Context, client *http.Client, reqURL, userAgent string) ([]byte, error) {
	return get(ctx, client, reqURL, userAgent, AcceptHTML)
}

func get(ctx context.Context, client *http.Client, reqURL, userAgent, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", accept)
	return Do(client, req)
}

// GetJSON performs a GET and decodes the JSON body into v.
func GetJSON(ctx context.Context, client *http.Client, reqURL, userAgent string, v any) error {
	body, err := Get(ctx, client, reqURL, userAgent)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// PostJSON encodes payload as JSON, POSTs it and returns the raw response body.
func PostJSON(ctx context.Context, client *http.Client, reqURL string, header http.Header, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	return Do(client, req)
}

// endpoint returns the request URL without its query so API keys never
// reach logs.
func endpoint(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
