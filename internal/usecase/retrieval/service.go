// Package retrieval is the application service behind the HTTP API and the CLI.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrank/internal/domain"
	"github.com/kailas-cloud/docrank/internal/logger"
	"github.com/kailas-cloud/docrank/internal/metrics"
)

// Operation labels for metrics and logs.
const (
	OpDocIDs          = "doc_ids"
	OpDocument        = "document"
	OpMetadata        = "metadata"
	OpClosestDocs     = "closest_docs"
	OpClosestDocsText = "closest_docs_text"
	OpBatch           = "batch"
)

// Backends names the engine behind the ranker and the store behind documents.
type Backends struct {
	Ranker    string
	Documents string
}

// Service composes a ranker, a batch dispatcher and a document source.
type Service struct {
	ranker   Ranker
	batch    BatchRanker
	docs     DocumentReader
	backends Backends
	defaultK int
	workers  int
}

// New creates a retrieval service.
func New(ranker Ranker, batch BatchRanker, docs DocumentReader, backends Backends) *Service {
	return &Service{
		ranker:   ranker,
		batch:    batch,
		docs:     docs,
		backends: backends,
		defaultK: domain.DefaultK,
	}
}

// WithDefaultK sets the result count used when a request omits k.
func (s *Service) WithDefaultK(k int) *Service {
	if k > 0 {
		s.defaultK = k
	}
	return s
}

// WithWorkers sets the default batch pool size; 0 leaves the dispatcher default.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// DocIDs lists every document identifier.
func (s *Service) DocIDs(ctx context.Context) (ids []string, err error) {
	defer s.observe(ctx, s.backends.Documents, OpDocIDs, time.Now(), &err)

	ids, err = s.docs.DocIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return ids, nil
}

// Document returns the text and metadata of one document.
// Returns domain.ErrNotFound when the text is absent.
func (s *Service) Document(ctx context.Context, id string) (doc domain.Document, err error) {
	defer s.observe(ctx, s.backends.Documents, OpDocument, time.Now(), &err)

	text, ok, err := s.docs.DocText(ctx, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get text %q: %w", id, err)
	}
	if !ok {
		return domain.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}

	meta, err := s.docs.DocMetadata(ctx, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get metadata %q: %w", id, err)
	}
	return domain.Document{ID: id, Text: text, Metadata: meta}, nil
}

// Metadata returns the metadata of one document, or an empty mapping when it is unknown.
func (s *Service) Metadata(ctx context.Context, id string) (meta domain.Metadata, err error) {
	defer s.observe(ctx, s.backends.Documents, OpMetadata, time.Now(), &err)

	meta, err = s.docs.DocMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get metadata %q: %w", id, err)
	}
	return meta, nil
}

// Search ranks documents against query. k == 0 selects the default count.
func (s *Service) Search(ctx context.Context, query string, k int) (r domain.Ranking, err error) {
	defer s.observe(ctx, s.backends.Ranker, OpClosestDocs, time.Now(), &err)

	r, err = s.ranker.ClosestDocs(ctx, query, s.k(k))
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("search: %w", err)
	}
	return r, nil
}

// Highlight ranks documents and returns raw hits with highlighted content.
func (s *Service) Highlight(ctx context.Context, query string, k int, tag string) (a domain.Answers, err error) {
	defer s.observe(ctx, s.backends.Ranker, OpClosestDocsText, time.Now(), &err)

	a, err = s.ranker.ClosestDocsText(ctx, query, s.k(k), tag)
	if err != nil {
		return domain.Answers{}, fmt.Errorf("highlight: %w", err)
	}
	return a, nil
}

// SearchBatch ranks every query and returns the rankings in request order.
// workers == 0 selects the configured pool size.
func (s *Service) SearchBatch(
	ctx context.Context, queries []string, k, workers int,
) (rs []domain.Ranking, err error) {
	defer s.observe(ctx, s.backends.Ranker, OpBatch, time.Now(), &err)
	metrics.BatchSize.Observe(float64(len(queries)))

	if workers <= 0 {
		workers = s.workers
	}
	rs, err = s.batch.ClosestDocs(ctx, queries, s.k(k), workers)
	if err != nil {
		return nil, fmt.Errorf("batch search: %w", err)
	}
	return rs, nil
}

func (s *Service) k(k int) int {
	if k == 0 {
		return s.defaultK
	}
	return k
}

func (s *Service) observe(ctx context.Context, backend, op string, start time.Time, errp *error) {
	err := *errp
	metrics.ObserveRanker(backend, op, start, err)

	log := logger.FromContext(ctx)
	if err != nil {
		log.Warn("Retrieval operation failed",
			zap.String("backend", backend),
			zap.String("op", op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	log.Debug("Retrieval operation completed",
		zap.String("backend", backend),
		zap.String("op", op),
		zap.Duration("duration", time.Since(start)),
	)
}
