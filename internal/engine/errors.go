package engine

import "errors"

// Sentinel errors for engine operations.
var (
	ErrNotFound    = errors.New("engine: document not found")
	ErrUnavailable = errors.New("engine: unavailable")
	ErrInvalid     = errors.New("engine: invalid query")
	ErrMalformed   = errors.New("engine: malformed reply")
)

// Op constants name engine operations for error context.
const (
	OpPing   = "PING"
	OpSearch = "SEARCH"
	OpGet    = "GET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
