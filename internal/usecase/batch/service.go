// Package batch fans ranked queries out over a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docrank/internal/domain"
)

// Dispatcher runs many queries against one ranker concurrently.
// Batches of any size are accepted; request-size limits belong to the transports.
type Dispatcher struct {
	ranker Ranker
}

// New creates a dispatcher over r.
func New(r Ranker) *Dispatcher {
	return &Dispatcher{ranker: r}
}

// ClosestDocs ranks every query with at most workers concurrent calls and returns
// the rankings in query order. workers <= 0 uses GOMAXPROCS. The first failure
// cancels the remaining queries and is returned with the index of its query.
func (d *Dispatcher) ClosestDocs(
	ctx context.Context, queries []string, k, workers int,
) ([]domain.Ranking, error) {
	if len(queries) == 0 {
		return []domain.Ranking{}, nil
	}

	results := make([]domain.Ranking, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers, len(queries)))

	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := d.ranker.ClosestDocs(gctx, q, k)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Workers resolves the pool size for n queries.
func Workers(requested, n int) int {
	w := requested
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}
