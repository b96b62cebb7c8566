package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docrank/internal/engine"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *engine.Query) (*engine.SearchResult, error)
	getFn    func(ctx context.Context, index, id string) (map[string]any, error)
	pingFn   func(ctx context.Context) error
	closes   int
}

func (m *mockStore) Search(ctx context.Context, q *engine.Query) (*engine.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &engine.SearchResult{}, nil
}

func (m *mockStore) Get(ctx context.Context, index, id string) (map[string]any, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	return nil, engine.ErrNotFound
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) Close() { m.closes++ }

func testConfig() Config {
	return Config{
		Index:         "wiki",
		Fields:        []string{"title", "text"},
		IDField:       []string{"name", "first"},
		ContentField:  "text",
		MetadataField: "meta",
	}
}

func newTestRepo(t *testing.T, mutate ...func(*Config)) (*Repo, *mockStore) {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}
	ms := &mockStore{}
	repo, err := New(ms, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return repo, ms
}

func strict(c *Config) { c.Strict = true }

// corpus is a tiny engine index keyed by internal handle.
var corpus = map[string]map[string]any{
	"h1": {
		"name": map[string]any{"first": "Alan"},
		"text": "Turing machine\nA model of computation",
		"meta": map[string]any{"born": float64(1912)},
	},
	"h2": {
		"name": map[string]any{"first": "Ada"},
		"text": "Analytical engine.",
		"meta": `{"born":1815}`,
	},
	"h3": {
		"name.first": "Charles",
		"text":       "Difference engine",
	},
}

func hitsOf(handles ...string) *engine.SearchResult {
	res := &engine.SearchResult{Total: len(handles)}
	for i, h := range handles {
		res.Hits = append(res.Hits, engine.Hit{ID: h, Score: float64(10 - i), Source: corpus[h]})
	}
	return res
}

// withCorpus wires the mock to resolve identifiers and sources from corpus.
func withCorpus(ms *mockStore) {
	ms.searchFn = func(_ context.Context, q *engine.Query) (*engine.SearchResult, error) {
		if q.Kind != engine.FieldMatch {
			return hitsOf("h1", "h2", "h3"), nil
		}
		for handle, src := range corpus {
			if id, _ := engine.LookupString(src, q.Field); id == q.Text {
				return hitsOf(handle), nil
			}
		}
		return &engine.SearchResult{}, nil
	}
	ms.getFn = func(_ context.Context, _ string, id string) (map[string]any, error) {
		if src, ok := corpus[id]; ok {
			return src, nil
		}
		return nil, engine.ErrNotFound
	}
}
