// Package engine defines the search-engine facade used by the search ranker.
//
// Adapters (elastic, redis) translate the engine-neutral Query into their native
// query language and decode hits into Hit values carrying the backend's internal
// document handle, relevance score, decoded source document and highlight fragments.
package engine

import (
	"context"
	"time"
)

// Engine is the full search-engine facade.
type Engine interface {
	Pinger
	Searcher
	Getter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs ranked queries against an index.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}

// Getter fetches a source document by its internal handle.
// Returns ErrNotFound if the handle does not exist.
type Getter interface {
	Get(ctx context.Context, index, id string) (map[string]any, error)
}
