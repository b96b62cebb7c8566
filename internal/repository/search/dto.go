package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docrank/internal/domain"
)

// decodeMetadata accepts an object, a JSON-encoded object or nothing.
func decodeMetadata(raw any) (domain.Metadata, error) {
	switch v := raw.(type) {
	case nil:
		return domain.Metadata{}, nil
	case map[string]any:
		return domain.Metadata(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return domain.Metadata{}, nil
		}
		var meta domain.Metadata
		if err := json.Unmarshal([]byte(v), &meta); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDataCorruption, err)
		}
		if meta == nil {
			return domain.Metadata{}, nil
		}
		return meta, nil
	default:
		return nil, fmt.Errorf("%w: unexpected metadata type %T", domain.ErrDataCorruption, raw)
	}
}
