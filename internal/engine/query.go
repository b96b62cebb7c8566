package engine

import (
	"errors"
	"fmt"
)

// QueryKind selects the shape of a search query.
type QueryKind int

const (
	// MultiMatch scores Text against every field in Fields ("most fields" scoring).
	MultiMatch QueryKind = iota
	// FieldMatch matches documents whose Field equals Text.
	FieldMatch
	// MatchAll matches every document in the index.
	MatchAll
)

func (k QueryKind) String() string {
	switch k {
	case MultiMatch:
		return "multi_match"
	case FieldMatch:
		return "match"
	case MatchAll:
		return "match_all"
	default:
		return fmt.Sprintf("QueryKind(%d)", int(k))
	}
}

// DefaultHighlightTag wraps highlighted spans when no tag is given.
const DefaultHighlightTag = "em"

// Highlight asks the engine to return marked-up snippets of Field.
type Highlight struct {
	Field   string
	PreTag  string
	PostTag string
}

// NewHighlight builds a highlight directive with <tag>/</tag> markers.
func NewHighlight(field, tag string) *Highlight {
	if tag == "" {
		tag = DefaultHighlightTag
	}
	return &Highlight{Field: field, PreTag: "<" + tag + ">", PostTag: "</" + tag + ">"}
}

// Query is an engine-neutral search request.
type Query struct {
	Index     string
	Kind      QueryKind
	Text      string
	Fields    []string // MultiMatch
	Field     string   // FieldMatch
	Size      int      // 0 = backend default page size
	Highlight *Highlight
}

// Validate checks that the query is well-formed for its kind.
func (q *Query) Validate() error {
	if q.Index == "" {
		return errors.New("index name is required")
	}
	if q.Size < 0 {
		return errors.New("size must not be negative")
	}
	switch q.Kind {
	case MultiMatch:
		if len(q.Fields) == 0 {
			return errors.New("multi_match requires at least one field")
		}
	case FieldMatch:
		if q.Field == "" {
			return errors.New("match requires a field")
		}
	case MatchAll:
	default:
		return fmt.Errorf("unsupported query kind %s", q.Kind)
	}
	if q.Highlight != nil && q.Highlight.Field == "" {
		return errors.New("highlight requires a field")
	}
	return nil
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Hit is a single document match.
type Hit struct {
	ID        string
	Score     float64
	Source    map[string]any
	Highlight map[string][]string
}
