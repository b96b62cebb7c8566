package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docrank/internal/engine"
)

// Get fetches the JSON document stored at key id. Redis keys are global,
// so index is only used for error context.
func (s *Store) Get(ctx context.Context, index, id string) (map[string]any, error) {
	if id == "" {
		return nil, &engine.Error{Op: engine.OpGet, Err: fmt.Errorf("%w: id is required", engine.ErrInvalid)}
	}

	cmd := s.b().Arbitrary("JSON.GET").Keys(id).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, engine.ErrNotFound
		}
		return nil, wrapErr(engine.OpGet, err)
	}
	if raw == "" {
		return nil, engine.ErrNotFound
	}

	source, err := decodeSource(raw)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpGet, Err: fmt.Errorf("decode %s/%s: %w", index, id, err)}
	}
	return source, nil
}

func decodeSource(raw string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		// JSONPath replies ("$") wrap the document in an array.
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("source is not a JSON object")
}
