package domain

import "context"

// DefaultK is the result count used when a caller asks for k <= 0.
const DefaultK = 1

// DocumentSource gives access to document text and metadata by identifier.
// Implementations must be safe for concurrent readers.
type DocumentSource interface {
	// DocIDs lists every known identifier.
	DocIDs(ctx context.Context) ([]string, error)
	// DocText returns the text of a document; ok is false when the identifier is unknown.
	DocText(ctx context.Context, id string) (text string, ok bool, err error)
	// DocMetadata returns the metadata of a document, or an empty mapping when unknown.
	DocMetadata(ctx context.Context, id string) (Metadata, error)
	// Close releases the backend connection. Later calls fail with ErrConnectionClosed.
	Close() error
}

// Ranker is a DocumentSource that can also rank documents against a free-text query.
type Ranker interface {
	DocumentSource
	// ClosestDocs returns up to k best matches in backend relevance order.
	ClosestDocs(ctx context.Context, query string, k int) (Ranking, error)
}

// NormalizeK maps non-positive result counts to DefaultK.
func NormalizeK(k int) int {
	if k <= 0 {
		return DefaultK
	}
	return k
}
