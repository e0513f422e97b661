// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapt

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/art-enricher/pkg/types"
)

func TestDeliver(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(data, &got))
		_, _ = w.Write([]byte(`{"text":"Once upon a time"}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), URL: srv.URL, APIKey: "s3cret", Logger: slog.New(slog.DiscardHandler)}
	profile := types.UserProfile{Language: "en", ExpertiseLevel: types.ExpertiseChild}
	results := []types.PageResult{{URL: "https://example.org", Title: "Eiffel Tower", Score: 0.9, Source: types.SourceWikipedia}}

	resp, err := c.Deliver(context.Background(), profile, results)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Once upon a time"}`, string(resp))
	assert.Equal(t, profile, got.UserProfile)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Eiffel Tower", got.Results[0].Title)
}

func TestDeliverSendsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(data), `"results":[]`)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), URL: srv.URL}
	_, err := c.Deliver(context.Background(), types.UserProfile{Language: "en"}, nil)
	require.NoError(t, err)
}

func TestDeliverFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			_, _ = w.Write([]byte("plain text"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), URL: srv.URL + "/down"}
	_, err := c.Deliver(context.Background(), types.UserProfile{Language: "en"}, nil)
	require.ErrorContains(t, err, "502")

	c.URL = srv.URL + "/text"
	_, err = c.Deliver(context.Background(), types.UserProfile{Language: "en"}, nil)
	require.ErrorContains(t, err, "not JSON")
}

func TestDeliverDisabled(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	_, err := (&Client{}).Deliver(context.Background(), types.UserProfile{}, nil)
	require.ErrorIs(t, err, ErrDisabled)
}
