// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/internal/pipeline"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// RequestIDHeader carries the request id on responses.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

// Runner runs one enrichment. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Server serves the enrichment API.
type Server struct {
	runner Runner
	logger *slog.Logger
}

// New returns a Server backed by runner.
func New(runner Runner, logger *slog.Logger) *Server {
	return &Server{runner: runner, logger: logging.OrDefault(logger)}
}

// EnrichRequest is the body of POST /api/v1/enrich.
type EnrichRequest struct {
	Classification types.ClassificationResult `json:"classification"`
	UserProfile    types.UserProfile          `json:"userProfile"`
}

// EnrichResponse is the body of a successful enrichment.
type EnrichResponse struct {
	RequestID     string               `json:"requestId"`
	Results       []types.PageResult   `json:"results"`
	KnownInstance *types.KnownInstance `json:"knownInstance,omitempty"`
	Adaptation    json.RawMessage      `json:"adaptation,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/healthz", s.Health)
	v1 := r.Group("/api/v1")
	v1.POST("/enrich", s.Enrich)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Enrich runs the pipeline for one classification.
func (s *Server) Enrich(c *gin.Context) {
	id := c.GetString("requestId")

	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{RequestID: id, Error: "invalid request: " + err.Error()})
		return
	}

	res, err := s.runner.Run(c.Request.Context(), pipeline.Request{
		Classification: req.Classification,
		UserProfile:    req.UserProfile,
	})
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{RequestID: id, Error: err.Error()})
		return
	case err != nil:
		s.logger.ErrorContext(c.Request.Context(), "enrichment failed", "request_id", id, "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{RequestID: id, Error: "enrichment failed"})
		return
	}

	results := res.Results
	if results == nil {
		results = []types.PageResult{}
	}
	c.JSON(http.StatusOK, EnrichResponse{
		RequestID:     id,
		Results:       results,
		KnownInstance: res.KnownInstance,
		Adaptation:    res.Adaptation,
	})
}

// requestID assigns each request an id, reusing a valid incoming one.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "request",
			"request_id", c.GetString("requestId"),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
