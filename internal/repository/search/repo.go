// Package search implements domain.Ranker over a full-text search engine.
//
// Queries go through the engine facade, so the same repository serves every
// adapter in internal/engine. Relevance scoring is entirely the engine's.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrank/internal/domain"
	"github.com/kailas-cloud/docrank/internal/domain/repair"
	"github.com/kailas-cloud/docrank/internal/engine"
	"github.com/kailas-cloud/docrank/internal/logger"
)

// Compile-time check: Repo implements domain.Ranker.
var _ domain.Ranker = (*Repo)(nil)

// store is the consumer interface for the search engine (ISP).
type store interface {
	Search(ctx context.Context, q *engine.Query) (*engine.SearchResult, error)
	Get(ctx context.Context, index, id string) (map[string]any, error)
	Ping(ctx context.Context) error
	Close()
}

// Config maps the engine index layout onto documents.
type Config struct {
	Index  string
	Fields []string
	// IDField holds the parts of the identifier field; nested parts are joined with ".".
	IDField       []string
	ContentField  string
	MetadataField string
	// Strict rejects blank queries with domain.ErrInvalidQuery instead of returning no hits.
	Strict   bool
	FoldCase bool
}

// Validate checks the mandatory settings.
func (c Config) Validate() error {
	if c.Index == "" {
		return errors.New("index is required")
	}
	if len(c.Fields) == 0 {
		return errors.New("at least one search field is required")
	}
	if len(c.IDField) == 0 {
		return errors.New("id field is required")
	}
	if c.ContentField == "" {
		return errors.New("content field is required")
	}
	return nil
}

// Repo is a search-engine backed ranker. Safe for concurrent use.
type Repo struct {
	store  store
	cfg    Config
	idPath string
	norm   domain.IDNormalizer
	closed atomic.Bool
}

// New creates a search repository that owns s; Close releases it.
func New(s store, cfg Config) (*Repo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("search config: %w", err)
	}
	return &Repo{
		store:  s,
		cfg:    cfg,
		idPath: engine.JoinPath(cfg.IDField),
		norm:   domain.IDNormalizer{FoldCase: cfg.FoldCase},
	}, nil
}

// Ping checks engine connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return domain.ErrConnectionClosed
	}
	if err := r.store.Ping(ctx); err != nil {
		return mapErr("ping", err)
	}
	return nil
}

// ClosestDocs ranks documents against query with "most fields" scoring over the
// configured fields and returns at most k identifiers in engine order. Hits
// without an identifier are skipped.
func (r *Repo) ClosestDocs(ctx context.Context, query string, k int) (domain.Ranking, error) {
	if r.closed.Load() {
		return domain.Ranking{}, domain.ErrConnectionClosed
	}
	k = domain.NormalizeK(k)
	if domain.IsBlank(query) {
		if r.cfg.Strict {
			return domain.Ranking{}, fmt.Errorf("blank query: %w", domain.ErrInvalidQuery)
		}
		return emptyRanking(), nil
	}

	res, err := r.store.Search(ctx, r.rankQuery(query, k))
	if err != nil {
		return domain.Ranking{}, mapErr("closest docs", err)
	}

	hits := truncate(res.Hits, k)
	ranking := domain.Ranking{
		IDs:    make([]string, 0, len(hits)),
		Scores: make([]float64, 0, len(hits)),
	}
	for _, h := range hits {
		id, ok := r.hitDocID(ctx, h)
		if !ok {
			continue
		}
		ranking.IDs = append(ranking.IDs, id)
		ranking.Scores = append(ranking.Scores, h.Score)
	}
	return ranking, nil
}

// ClosestDocsText runs the ClosestDocs query with highlighting of the content
// field, marking matched spans with <tag>...</tag> (tag defaults to "em").
func (r *Repo) ClosestDocsText(ctx context.Context, query string, k int, tag string) (domain.Answers, error) {
	if r.closed.Load() {
		return domain.Answers{}, domain.ErrConnectionClosed
	}
	k = domain.NormalizeK(k)
	if domain.IsBlank(query) {
		if r.cfg.Strict {
			return domain.Answers{}, fmt.Errorf("blank query: %w", domain.ErrInvalidQuery)
		}
		return domain.Answers{Answers: []domain.Hit{}}, nil
	}

	q := r.rankQuery(query, k)
	q.Highlight = engine.NewHighlight(r.cfg.ContentField, tag)

	res, err := r.store.Search(ctx, q)
	if err != nil {
		return domain.Answers{}, mapErr("closest docs text", err)
	}

	hits := truncate(res.Hits, k)
	answers := domain.Answers{Answers: make([]domain.Hit, 0, len(hits))}
	for _, h := range hits {
		docID, ok := r.hitDocID(ctx, h)
		if !ok {
			continue
		}
		answers.Answers = append(answers.Answers, domain.Hit{
			Index:     h.ID,
			DocID:     docID,
			Score:     h.Score,
			Source:    h.Source,
			Highlight: h.Highlight,
		})
	}
	return answers, nil
}

// DocIndex resolves a document identifier to the engine's internal handle.
func (r *Repo) DocIndex(ctx context.Context, id string) (string, error) {
	if r.closed.Load() {
		return "", domain.ErrConnectionClosed
	}

	res, err := r.store.Search(ctx, &engine.Query{
		Index: r.cfg.Index,
		Kind:  engine.FieldMatch,
		Field: r.idPath,
		Text:  r.norm.Normalize(id),
		Size:  1,
	})
	if err != nil {
		return "", mapErr("doc index "+id, err)
	}
	if len(res.Hits) == 0 {
		return "", fmt.Errorf("doc index %q: %w", id, domain.ErrNotFound)
	}
	return res.Hits[0].ID, nil
}

// DocID resolves an engine handle back to the document identifier.
func (r *Repo) DocID(ctx context.Context, index string) (string, error) {
	source, err := r.source(ctx, index)
	if err != nil {
		return "", err
	}
	id, ok := engine.LookupString(source, r.idPath)
	if !ok {
		return "", fmt.Errorf("doc id of %s: field %q missing: %w", index, r.idPath, domain.ErrDataCorruption)
	}
	return id, nil
}

// DocText returns the repaired content of a document; ok is false for an unknown identifier.
func (r *Repo) DocText(ctx context.Context, id string) (string, bool, error) {
	source, err := r.sourceByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	text, ok := engine.LookupString(source, r.cfg.ContentField)
	if !ok {
		return "", false, nil
	}
	return repair.Text(text), true, nil
}

// DocMetadata returns the metadata field of a document, or an empty mapping when
// the document or the field is unknown. The field may hold an object or a JSON string.
func (r *Repo) DocMetadata(ctx context.Context, id string) (domain.Metadata, error) {
	source, err := r.sourceByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Metadata{}, nil
	}
	if err != nil {
		return nil, err
	}
	if r.cfg.MetadataField == "" {
		return domain.Metadata{}, nil
	}

	raw, _ := engine.Lookup(source, r.cfg.MetadataField)
	meta, err := decodeMetadata(raw)
	if err != nil {
		return nil, fmt.Errorf("metadata of %q: %w", id, err)
	}
	return meta, nil
}

// DocIDs lists identifiers with a match-all query. The engine's default page
// size applies, so large indexes are listed partially.
func (r *Repo) DocIDs(ctx context.Context) ([]string, error) {
	if r.closed.Load() {
		return nil, domain.ErrConnectionClosed
	}

	res, err := r.store.Search(ctx, &engine.Query{Index: r.cfg.Index, Kind: engine.MatchAll})
	if err != nil {
		return nil, mapErr("doc ids", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, ok := r.hitDocID(ctx, h)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close releases the engine client. Calling Close more than once is a no-op.
func (r *Repo) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.store.Close()
	}
	return nil
}

func (r *Repo) rankQuery(query string, k int) *engine.Query {
	return &engine.Query{
		Index:  r.cfg.Index,
		Kind:   engine.MultiMatch,
		Text:   query,
		Fields: r.cfg.Fields,
		Size:   k,
	}
}

func (r *Repo) sourceByID(ctx context.Context, id string) (map[string]any, error) {
	index, err := r.DocIndex(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.source(ctx, index)
}

func (r *Repo) source(ctx context.Context, index string) (map[string]any, error) {
	if r.closed.Load() {
		return nil, domain.ErrConnectionClosed
	}
	source, err := r.store.Get(ctx, r.cfg.Index, index)
	if err != nil {
		return nil, mapErr("get "+index, err)
	}
	return source, nil
}

// hitDocID reads the identifier of a hit. A hit without one is a corrupt record:
// it is logged and dropped so the remaining hits are still served.
func (r *Repo) hitDocID(ctx context.Context, h engine.Hit) (string, bool) {
	id, ok := engine.LookupString(h.Source, r.idPath)
	if !ok {
		logger.FromContext(ctx).Warn("Skipping hit without document id",
			zap.String("index", r.cfg.Index),
			zap.String("handle", h.ID),
			zap.String("id_field", r.idPath),
			zap.Error(domain.ErrDataCorruption),
		)
	}
	return id, ok
}

func truncate(hits []engine.Hit, k int) []engine.Hit {
	if len(hits) > k {
		return hits[:k]
	}
	return hits
}

func emptyRanking() domain.Ranking {
	return domain.Ranking{IDs: []string{}, Scores: []float64{}}
}
