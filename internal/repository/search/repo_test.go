package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/docrank/internal/domain"
	"github.com/kailas-cloud/docrank/internal/engine"
	"github.com/kailas-cloud/docrank/internal/logger"
)

var errUnavailable = &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("%w: dial tcp: refused", engine.ErrUnavailable)}

// --- New ---

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no index", func(c *Config) { c.Index = "" }},
		{"no fields", func(c *Config) { c.Fields = nil }},
		{"no id field", func(c *Config) { c.IDField = nil }},
		{"no content field", func(c *Config) { c.ContentField = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := New(&mockStore{}, cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// --- ClosestDocs ---

func TestClosestDocs_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchFn = func(_ context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Index != "wiki" {
			t.Errorf("unexpected index: %s", q.Index)
		}
		if q.Kind != engine.MultiMatch {
			t.Errorf("unexpected kind: %s", q.Kind)
		}
		if !reflect.DeepEqual(q.Fields, []string{"title", "text"}) {
			t.Errorf("unexpected fields: %v", q.Fields)
		}
		if q.Size != 2 {
			t.Errorf("unexpected size: %d", q.Size)
		}
		if q.Highlight != nil {
			t.Error("highlight must not be requested")
		}
		return hitsOf("h2", "h1"), nil
	}

	got, err := repo.ClosestDocs(ctx, "engine", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.Ranking{IDs: []string{"Ada", "Alan"}, Scores: []float64{10, 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestClosestDocs_TruncatesToK(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		return hitsOf("h1", "h2", "h3"), nil
	}

	got, err := repo.ClosestDocs(context.Background(), "engine", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 2 || len(got.Scores) != 2 {
		t.Fatalf("expected 2 results, got %+v", got)
	}
	if got.Aux != 0 {
		t.Errorf("expected aux 0, got %d", got.Aux)
	}
}

func TestClosestDocs_KeepsEngineOrder(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		return &engine.SearchResult{Hits: []engine.Hit{
			{ID: "h3", Score: 1, Source: corpus["h3"]},
			{ID: "h1", Score: 5, Source: corpus["h1"]},
		}}, nil
	}

	got, err := repo.ClosestDocs(context.Background(), "engine", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.IDs, []string{"Charles", "Alan"}) {
		t.Errorf("engine order must be preserved, got %v", got.IDs)
	}
	if !reflect.DeepEqual(got.Scores, []float64{1, 5}) {
		t.Errorf("scores must not be re-sorted, got %v", got.Scores)
	}
}

func TestClosestDocs_NonPositiveK(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Size != domain.DefaultK {
			t.Errorf("expected size %d, got %d", domain.DefaultK, q.Size)
		}
		return hitsOf("h1", "h2"), nil
	}

	got, err := repo.ClosestDocs(context.Background(), "engine", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("expected 1 result, got %d", got.Len())
	}
}

func TestClosestDocs_BlankQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		lenient, ms := newTestRepo(t)
		ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
			t.Fatal("engine must not be queried for a blank query")
			return nil, nil
		}
		got, err := lenient.ClosestDocs(context.Background(), q, 3)
		if err != nil {
			t.Fatalf("non-strict: unexpected error: %v", err)
		}
		if got.Len() != 0 || got.Scores == nil {
			t.Errorf("non-strict: expected empty ranking, got %+v", got)
		}

		strictRepo, _ := newTestRepo(t, strict)
		if _, err := strictRepo.ClosestDocs(context.Background(), q, 3); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("strict: expected ErrInvalidQuery, got %v", err)
		}
	}
}

func TestClosestDocs_Unavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		return nil, errUnavailable
	}

	_, err := repo.ClosestDocs(context.Background(), "engine", 1)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, engine.ErrUnavailable) {
		t.Error("expected engine cause to stay in the chain")
	}
}

func TestMissingIDField_SkipsOnlyThatHit(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		res := hitsOf("h1", "h2")
		orphan := engine.Hit{ID: "x", Score: 9.5, Source: map[string]any{"text": "orphan"}}
		res.Hits = []engine.Hit{res.Hits[0], orphan, res.Hits[1]}
		return res, nil
	}

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	ranking, err := repo.ClosestDocs(ctx, "orphan", 3)
	if err != nil {
		t.Fatalf("ClosestDocs: %v", err)
	}
	if !reflect.DeepEqual(ranking.IDs, []string{"Alan", "Ada"}) || !reflect.DeepEqual(ranking.Scores, []float64{10, 9}) {
		t.Errorf("unexpected ranking: %+v", ranking)
	}

	answers, err := repo.ClosestDocsText(ctx, "orphan", 3, "")
	if err != nil {
		t.Fatalf("ClosestDocsText: %v", err)
	}
	if len(answers.Answers) != 2 || answers.Answers[0].DocID != "Alan" || answers.Answers[1].DocID != "Ada" {
		t.Errorf("unexpected answers: %+v", answers.Answers)
	}

	ids, err := repo.DocIDs(ctx)
	if err != nil {
		t.Fatalf("DocIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"Alan", "Ada"}) {
		t.Errorf("unexpected ids: %v", ids)
	}

	skipped := logs.FilterMessage("Skipping hit without document id").All()
	if len(skipped) != 3 {
		t.Fatalf("expected one warning per call, got %d", len(skipped))
	}
	if got := skipped[0].ContextMap()["handle"]; got != "x" {
		t.Errorf("expected handle x in log, got %v", got)
	}
}

func TestClosestDocs_MalformedReplyIsCorruption(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		return nil, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("%w: parse score of doc:1", engine.ErrMalformed)}
	}

	_, err := repo.ClosestDocs(context.Background(), "turing", 1)
	if !errors.Is(err, domain.ErrDataCorruption) {
		t.Fatalf("expected ErrDataCorruption, got %v", err)
	}
}

// --- ClosestDocsText ---

func TestClosestDocsText_Highlight(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Highlight == nil {
			t.Fatal("expected highlight directive")
		}
		if q.Highlight.Field != "text" || q.Highlight.PreTag != "<b>" || q.Highlight.PostTag != "</b>" {
			t.Errorf("unexpected highlight: %+v", q.Highlight)
		}
		res := hitsOf("h1")
		res.Hits[0].Highlight = map[string][]string{"text": {"<b>Turing</b> machine"}}
		return res, nil
	}

	got, err := repo.ClosestDocsText(context.Background(), "Turing", 3, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(got.Answers))
	}
	a := got.Answers[0]
	if a.Index != "h1" || a.DocID != "Alan" || a.Score != 10 {
		t.Errorf("unexpected answer: %+v", a)
	}
	if a.Highlight["text"][0] != "<b>Turing</b> machine" {
		t.Errorf("unexpected highlight: %v", a.Highlight)
	}
}

func TestClosestDocsText_DefaultTag(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Highlight.PreTag != "<em>" || q.Highlight.PostTag != "</em>" {
			t.Errorf("expected em markers, got %+v", q.Highlight)
		}
		return &engine.SearchResult{}, nil
	}

	got, err := repo.ClosestDocsText(context.Background(), "nothing", 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Answers == nil || len(got.Answers) != 0 {
		t.Errorf("expected empty answers list, got %+v", got)
	}
}

func TestClosestDocsText_BlankQuery(t *testing.T) {
	repo, _ := newTestRepo(t, strict)
	if _, err := repo.ClosestDocsText(context.Background(), " ", 3, ""); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

// --- DocIndex / DocID ---

func TestDocIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)
	search := ms.searchFn
	ms.searchFn = func(ctx context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Field != "name.first" || q.Size != 1 {
			t.Errorf("unexpected field match: %+v", q)
		}
		return search(ctx, q)
	}

	got, err := repo.DocIndex(context.Background(), "  Ada ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "h2" {
		t.Errorf("expected h2, got %s", got)
	}
}

func TestDocIndex_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)

	if _, err := repo.DocIndex(context.Background(), "Grace"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocID(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)
	ctx := context.Background()

	for handle, want := range map[string]string{"h1": "Alan", "h3": "Charles"} {
		got, err := repo.DocID(ctx, handle)
		if err != nil {
			t.Fatalf("DocID(%s): %v", handle, err)
		}
		if got != want {
			t.Errorf("DocID(%s) = %s, want %s", handle, got, want)
		}
	}

	if _, err := repo.DocID(ctx, "h9"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- DocText ---

func TestDocText_Repaired(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)

	got, ok, err := repo.DocText(context.Background(), "Alan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected document to be present")
	}
	if got != "Turing machine.\nA model of computation" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestDocText_UnknownIsAbsent(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)

	got, ok, err := repo.DocText(context.Background(), "Grace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || got != "" {
		t.Errorf("expected absent text, got %q ok=%v", got, ok)
	}
}

func TestDocText_Unavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		return nil, errUnavailable
	}

	if _, _, err := repo.DocText(context.Background(), "Alan"); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

// --- DocMetadata ---

func TestDocMetadata(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)
	ctx := context.Background()

	tests := []struct {
		id   string
		want domain.Metadata
	}{
		{"Alan", domain.Metadata{"born": float64(1912)}},
		{"Ada", domain.Metadata{"born": float64(1815)}},
		{"Charles", domain.Metadata{}},
		{"Grace", domain.Metadata{}},
	}
	for _, tc := range tests {
		got, err := repo.DocMetadata(ctx, tc.id)
		if err != nil {
			t.Fatalf("DocMetadata(%s): %v", tc.id, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("DocMetadata(%s) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestDocMetadata_Corrupt(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *engine.Query) (*engine.SearchResult, error) {
		return &engine.SearchResult{Hits: []engine.Hit{{ID: "bad"}}}, nil
	}
	ms.getFn = func(context.Context, string, string) (map[string]any, error) {
		return map[string]any{"meta": "{not json"}, nil
	}

	if _, err := repo.DocMetadata(context.Background(), "x"); !errors.Is(err, domain.ErrDataCorruption) {
		t.Fatalf("expected ErrDataCorruption, got %v", err)
	}
}

// --- DocIDs ---

func TestDocIDs(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Kind != engine.MatchAll {
			t.Errorf("expected match_all, got %s", q.Kind)
		}
		if q.Size != 0 {
			t.Errorf("expected backend default size, got %d", q.Size)
		}
		return hitsOf("h1", "h2", "h3"), nil
	}

	got, err := repo.DocIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Alan", "Ada", "Charles"}) {
		t.Errorf("unexpected ids %v", got)
	}
}

// --- Close ---

func TestClose(t *testing.T) {
	repo, ms := newTestRepo(t)
	withCorpus(ms)
	ctx := context.Background()

	if err := repo.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if ms.closes != 1 {
		t.Errorf("expected engine closed once, got %d", ms.closes)
	}

	checks := map[string]error{}
	_, checks["ClosestDocs"] = repo.ClosestDocs(ctx, "engine", 1)
	_, checks["ClosestDocsText"] = repo.ClosestDocsText(ctx, "engine", 1, "")
	_, checks["DocIndex"] = repo.DocIndex(ctx, "Alan")
	_, checks["DocID"] = repo.DocID(ctx, "h1")
	_, _, checks["DocText"] = repo.DocText(ctx, "Alan")
	_, checks["DocMetadata"] = repo.DocMetadata(ctx, "Alan")
	_, checks["DocIDs"] = repo.DocIDs(ctx)
	checks["Ping"] = repo.Ping(ctx)

	for op, err := range checks {
		if !errors.Is(err, domain.ErrConnectionClosed) {
			t.Errorf("%s after Close: expected ErrConnectionClosed, got %v", op, err)
		}
	}
}
