package search

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/docrank/internal/domain"
	"github.com/kailas-cloud/docrank/internal/engine"
)

// mapErr translates engine failures into domain sentinels, keeping the cause in the chain.
func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, engine.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrBackendUnavailable, err)
	case errors.Is(err, engine.ErrMalformed):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrDataCorruption, err)
	case errors.Is(err, engine.ErrInvalid):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidQuery, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
