package domain

// Metadata is the open key-value mapping attached to a document.
type Metadata map[string]any

// Ranking is the result of a single ranked query.
// IDs and Scores have the same length and keep the backend's relevance order.
type Ranking struct {
	IDs    []string  `json:"ids"`
	Scores []float64 `json:"scores"`
	// Aux is reserved; it is always zero.
	Aux int `json:"aux"`
}

// Len returns the number of ranked documents.
func (r Ranking) Len() int { return len(r.IDs) }

// Hit is one raw search-engine match.
type Hit struct {
	Index     string              `json:"_id"`
	DocID     string              `json:"doc_id,omitempty"`
	Score     float64             `json:"_score"`
	Source    map[string]any      `json:"_source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// Answers bundles the raw hits of a highlighted search.
type Answers struct {
	Answers []Hit `json:"answers"`
}

// Document is a document as served to API consumers.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
