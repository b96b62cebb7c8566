package retrieval

import (
	"context"

	"github.com/kailas-cloud/docrank/internal/domain"
)

// Ranker ranks documents against free-text queries.
type Ranker interface {
	ClosestDocs(ctx context.Context, query string, k int) (domain.Ranking, error)
	ClosestDocsText(ctx context.Context, query string, k int, tag string) (domain.Answers, error)
}

// BatchRanker ranks many queries at once, preserving their order.
type BatchRanker interface {
	ClosestDocs(ctx context.Context, queries []string, k, workers int) ([]domain.Ranking, error)
}

// DocumentReader reads document text and metadata.
type DocumentReader interface {
	DocIDs(ctx context.Context) ([]string, error)
	DocText(ctx context.Context, id string) (string, bool, error)
	DocMetadata(ctx context.Context, id string) (domain.Metadata, error)
}
