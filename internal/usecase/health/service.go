package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrank/internal/logger"
)

// Status is the aggregated health of all components.
type Status string

const (
	// Healthy means every component answered.
	Healthy Status = "ok"
	// Degraded means some components failed.
	Degraded Status = "degraded"
	// Unhealthy means every component failed.
	Unhealthy Status = "error"
)

// CheckResult is the outcome for one component.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// DefaultTimeout bounds each component ping.
const DefaultTimeout = 2 * time.Second

// Component names a backend to check. A nil Pinger is skipped.
type Component struct {
	Name   string
	Pinger Pinger
}

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service pings backends concurrently.
type Service struct {
	components []Component
	timeout    time.Duration
}

// New creates a Service over the given components, typically "documents" and "engine".
func New(components ...Component) *Service {
	active := make([]Component, 0, len(components))
	for _, c := range components {
		if c.Pinger != nil {
			active = append(active, c)
		}
	}
	return &Service{components: active, timeout: DefaultTimeout}
}

// WithTimeout overrides the per-component ping timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings every component and aggregates the results.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.components))

	var wg sync.WaitGroup
	for i, c := range s.components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.ping(ctx, c)
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.components))
	failed := 0
	for i, c := range s.components {
		checks[c.Name] = results[i]
		if results[i] != CheckOK {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.components):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) ping(ctx context.Context, c Component) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := c.Pinger.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health check failed",
			zap.String("component", c.Name),
			zap.Error(err),
		)
		return CheckError
	}
	return CheckOK
}
