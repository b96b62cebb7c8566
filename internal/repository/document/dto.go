package document

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docrank/internal/domain"
)

// decodeMetadata parses the metadata column. NULL, empty and JSON null values
// yield an empty mapping; anything that is not a JSON object is corrupt.
func decodeMetadata(raw sql.NullString) (domain.Metadata, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return domain.Metadata{}, nil
	}

	var meta domain.Metadata
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDataCorruption, err)
	}
	if meta == nil {
		return domain.Metadata{}, nil
	}
	return meta, nil
}
