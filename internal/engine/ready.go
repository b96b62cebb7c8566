package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// readyInterval is the delay between readiness probes.
const readyInterval = 100 * time.Millisecond

// PollReady pings p until it answers or timeout expires. The first probe is sent
// immediately. The last ping error is reported together with ErrUnavailable.
func PollReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyInterval)
	defer ticker.Stop()

	var last error
	for {
		if last = p.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("not ready after %s: %w", timeout, errors.Join(ErrUnavailable, last))
		case <-ticker.C:
		}
	}
}
