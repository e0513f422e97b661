// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/art-enricher/internal/pipeline"
	"github.com/pdiddy/art-enricher/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	got *pipeline.Request
	res *pipeline.Result
	err error
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.got = &req
	return f.res, f.err
}

func do(t *testing.T, s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

const validBody = `{
	"classification": {"entities": [{"description": "Eiffel Tower", "score": 0.93, "entityId": "/m/02j81"}]},
	"userProfile": {"language": "fr", "expertiseLevel": "child", "tastes": ["history"]}
}`

func TestHealth(t *testing.T) {
	s := New(&fakeRunner{}, slog.New(slog.DiscardHandler))
	w := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestEnrichSuccess(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{
		Results:    []types.PageResult{{URL: "https://fr.wikipedia.org/wiki/Tour_Eiffel", Title: "Tour Eiffel", Score: 0.93, Source: types.SourceWikipedia}},
		Adaptation: json.RawMessage(`{"text":"La tour"}`),
	}}
	s := New(runner, slog.New(slog.DiscardHandler))

	w := do(t, s, http.MethodPost, "/api/v1/enrich", validBody, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp EnrichResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.RequestID)
	require.NoError(t, err)
	assert.Equal(t, resp.RequestID, w.Header().Get(RequestIDHeader))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Tour Eiffel", resp.Results[0].Title)
	assert.JSONEq(t, `{"text":"La tour"}`, string(resp.Adaptation))

	require.NotNil(t, runner.got)
	assert.Equal(t, "fr", runner.got.UserProfile.Language)
	assert.Equal(t, types.ExpertiseChild, runner.got.UserProfile.ExpertiseLevel)
	assert.Equal(t, "/m/02j81", runner.got.Classification.Entities[0].EntityID)
}

func TestEnrichKeepsIncomingRequestID(t *testing.T) {
	id := uuid.NewString()
	s := New(&fakeRunner{res: &pipeline.Result{}}, slog.New(slog.DiscardHandler))

	w := do(t, s, http.MethodPost, "/api/v1/enrich", validBody, http.Header{RequestIDHeader: {id}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestEnrichBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"classification":`},
		{"missing language", `{"classification":{"entities":[{"description":"x","score":1}]},"userProfile":{}}`},
		{"bad expertise", `{"classification":{"entities":[{"description":"x","score":1}]},"userProfile":{"language":"en","expertiseLevel":"guru"}}`},
		{"entity without description", `{"classification":{"entities":[{"score":1}]},"userProfile":{"language":"en"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			s := New(runner, slog.New(slog.DiscardHandler))
			w := do(t, s, http.MethodPost, "/api/v1/enrich", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, runner.got)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.RequestID)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestEnrichInvalidRequestFromPipeline(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: classification has no entities or labels", pipeline.ErrInvalidRequest)}
	s := New(runner, slog.New(slog.DiscardHandler))

	w := do(t, s, http.MethodPost, "/api/v1/enrich", `{"classification":{},"userProfile":{"language":"en"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no entities or labels")
}

func TestEnrichFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("delivering results: HTTP 500")}
	s := New(runner, slog.New(slog.DiscardHandler))

	w := do(t, s, http.MethodPost, "/api/v1/enrich", validBody, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "HTTP 500")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New(&fakeRunner{}, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	require.NoError(t, <-done)
}
