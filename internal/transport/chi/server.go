// Package chi exposes the retrieval service over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/docrank/internal/domain"
	healthuc "github.com/kailas-cloud/docrank/internal/usecase/health"
)

const (
	// maxBodyBytes caps the batch request body.
	maxBodyBytes = 1 << 20
	// DefaultMaxBatchSize caps the number of queries in one batch request.
	DefaultMaxBatchSize = 100
)

// Retrieval is the application service consumed by the HTTP handlers.
type Retrieval interface {
	DocIDs(ctx context.Context) ([]string, error)
	Document(ctx context.Context, id string) (domain.Document, error)
	Search(ctx context.Context, query string, k int) (domain.Ranking, error)
	Highlight(ctx context.Context, query string, k int, tag string) (domain.Answers, error)
	SearchBatch(ctx context.Context, queries []string, k, workers int) ([]domain.Ranking, error)
}

// HealthChecker aggregates backend health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	retrieval    Retrieval
	health       HealthChecker
	maxBatchSize int
}

// NewServer creates an HTTP API server.
func NewServer(retrieval Retrieval, health HealthChecker) *Server {
	return &Server{retrieval: retrieval, health: health, maxBatchSize: DefaultMaxBatchSize}
}

// WithMaxBatchSize sets the largest accepted batch request.
func (s *Server) WithMaxBatchSize(n int) *Server {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Get("/search", s.Search)
		r.Get("/search/highlight", s.Highlight)
		r.Post("/search/batch", s.SearchBatch)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// ListDocuments handles GET /v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.retrieval.DocIDs(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{IDs: ids, Count: len(ids)})
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		// chi routes on the raw path when the request carries escaped separators.
		unescaped, err := url.PathUnescape(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid document id")
			return
		}
		id = unescaped
	}

	doc, err := s.retrieval.Document(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles GET /v1/search?q=&k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k, err := parseK(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ranking, err := s.retrieval.Search(r.Context(), q, k)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Ranking: ranking})
}

// Highlight handles GET /v1/search/highlight?q=&k=&tag=.
func (s *Server) Highlight(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k, err := parseK(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	answers, err := s.retrieval.Highlight(r.Context(), q, k, r.URL.Query().Get("tag"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HighlightResponse{Query: q, Answers: answers})
}

// SearchBatch handles POST /v1/search/batch.
func (s *Server) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchSearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.K < 0 || req.Workers < 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "k and workers must not be negative")
		return
	}
	if len(req.Queries) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("batch of %d queries exceeds the limit of %d", len(req.Queries), s.maxBatchSize))
		return
	}

	results, err := s.retrieval.SearchBatch(r.Context(), req.Queries, req.K, req.Workers)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchSearchResponse{Results: results})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// parseK reads the optional k parameter; absent means 0 (service default).
func parseK(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return 0, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 0 {
		return 0, fmt.Errorf("k must be a non-negative integer, got %q", raw)
	}
	return k, nil
}
