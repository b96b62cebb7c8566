package chi

import "github.com/kailas-cloud/docrank/internal/domain"

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInvalidQuery       ErrorCode = "invalid_query"
	CodeNotFound           ErrorCode = "not_found"
	CodeBackendUnavailable ErrorCode = "backend_unavailable"
	CodeConnectionClosed   ErrorCode = "connection_closed"
	CodeDataCorruption     ErrorCode = "data_corruption"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse reports backend availability.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// DocumentListResponse lists every document identifier.
type DocumentListResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// SearchResponse is a ranking for one query.
type SearchResponse struct {
	Query string `json:"query"`
	domain.Ranking
}

// HighlightResponse carries raw hits with highlighted content.
type HighlightResponse struct {
	Query string `json:"query"`
	domain.Answers
}

// BatchSearchRequest is the body of POST /v1/search/batch.
type BatchSearchRequest struct {
	Queries []string `json:"queries"`
	K       int      `json:"k"`
	Workers int      `json:"workers"`
}

// BatchSearchResponse holds one ranking per query, in request order.
type BatchSearchResponse struct {
	Results []domain.Ranking `json:"results"`
}
