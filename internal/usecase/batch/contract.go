package batch

import (
	"context"

	"github.com/kailas-cloud/docrank/internal/domain"
)

// Ranker answers a single ranked query. It must be safe for concurrent use.
type Ranker interface {
	ClosestDocs(ctx context.Context, query string, k int) (domain.Ranking, error)
}
