package health

import "context"

// Pinger checks availability of one backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
