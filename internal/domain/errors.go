package domain

import "errors"

var (
	// ErrInvalidQuery signals a blank query under strict mode or an out-of-range request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound signals that a document identifier or index handle did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConnectionClosed signals use of a ranker after Close.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrBackendUnavailable signals a connectivity failure to the search engine or the document store.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrDataCorruption signals stored metadata that cannot be decoded.
	ErrDataCorruption = errors.New("data corruption")
)
