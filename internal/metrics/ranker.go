package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ranker Prometheus metrics.
var (
	RankerQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrank",
			Name:      "ranker_queries_total",
			Help:      "Total number of ranker operations",
		},
		[]string{"backend", "op", "status"},
	)

	RankerQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrank",
			Name:      "ranker_query_duration_seconds",
			Help:      "Ranker operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend", "op"},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docrank",
			Name:      "batch_size",
			Help:      "Number of queries per batch request",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)

var registerRankerOnce sync.Once

// RegisterRankerMetrics registers the ranker collectors. Called from main; safe to call more than once.
func RegisterRankerMetrics() {
	registerRankerOnce.Do(func() {
		prometheus.MustRegister(RankerQueriesTotal, RankerQueryDuration, BatchSize)
	})
}

// ObserveRanker records one ranker operation.
func ObserveRanker(backend, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	RankerQueriesTotal.WithLabelValues(backend, op, status).Inc()
	RankerQueryDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
