package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/docrank/internal/engine"
)

// Search runs a ranked query via the _search API.
func (s *Store) Search(ctx context.Context, q *engine.Query) (*engine.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("%w: %w", engine.ErrInvalid, err)}
	}

	body, err := json.Marshal(buildBody(q))
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("encode query: %w", err)}
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(q.Index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, unavailable(engine.OpSearch, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseErr(engine.OpSearch, res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: fmt.Errorf("%w: decode response: %w", engine.ErrMalformed, err)}
	}

	return sr.toResult(), nil
}

// Get fetches a document source via the _doc API.
func (s *Store) Get(ctx context.Context, index, id string) (map[string]any, error) {
	if index == "" || id == "" {
		return nil, &engine.Error{Op: engine.OpGet, Err: fmt.Errorf("%w: index and id are required", engine.ErrInvalid)}
	}

	res, err := s.client.Get(index, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, unavailable(engine.OpGet, err)
	}
	defer closeBody(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, engine.ErrNotFound
	}
	if res.IsError() {
		return nil, responseErr(engine.OpGet, res)
	}

	var doc getResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, &engine.Error{Op: engine.OpGet, Err: fmt.Errorf("%w: decode response: %w", engine.ErrMalformed, err)}
	}
	if !doc.Found {
		return nil, engine.ErrNotFound
	}
	return doc.Source, nil
}

// buildBody translates an engine.Query into the Elasticsearch query DSL.
func buildBody(q *engine.Query) map[string]any {
	var query map[string]any
	switch q.Kind {
	case engine.MultiMatch:
		query = map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"type":   "most_fields",
				"fields": q.Fields,
			},
		}
	case engine.FieldMatch:
		query = map[string]any{
			"match": map[string]any{
				q.Field: map[string]any{"query": q.Text, "operator": "and"},
			},
		}
	default:
		query = map[string]any{"match_all": map[string]any{}}
	}

	body := map[string]any{"query": query}
	if q.Size > 0 {
		body["size"] = q.Size
	}
	if hl := q.Highlight; hl != nil {
		body["highlight"] = map[string]any{
			"fields":    map[string]any{hl.Field: map[string]any{}},
			"pre_tags":  []string{hl.PreTag},
			"post_tags": []string{hl.PostTag},
		}
	}
	return body
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    map[string]any      `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *searchResponse) toResult() *engine.SearchResult {
	hits := make([]engine.Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hit := engine.Hit{ID: h.ID, Source: h.Source, Highlight: h.Highlight}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		hits = append(hits, hit)
	}
	return &engine.SearchResult{Total: r.Hits.Total.Value, Hits: hits}
}

type getResponse struct {
	ID     string         `json:"_id"`
	Found  bool           `json:"found"`
	Source map[string]any `json:"_source"`
}
