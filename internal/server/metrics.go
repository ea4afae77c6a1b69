// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analyze outcome label values.
const (
	outcomeOK       = "ok"
	outcomeUnknown  = "unknown"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// analyzeRequestsTotal counts completed /api/analyze requests, partitioned
	// by outcome: "ok", "unknown", "rejected", or "error".
	analyzeRequestsTotal *prometheus.CounterVec

	// analyzeDurationSeconds records the wall-clock duration of answered
	// /api/analyze requests.
	analyzeDurationSeconds *prometheus.HistogramVec

	// queriesByCategory counts confident recommendations per disposal category.
	queriesByCategory *prometheus.CounterVec

	// ingestedDocumentsTotal counts documents stored via POST /api/ingest.
	ingestedDocumentsTotal prometheus.Counter
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) registers into the provided
// registry rather than the global default, keeping unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		analyzeRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recyclebot",
			Subsystem: "analyze",
			Name:      "requests_total",
			Help:      "Total number of /api/analyze requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		analyzeDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recyclebot",
			Subsystem: "analyze",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of answered /api/analyze requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),

		queriesByCategory: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recyclebot",
			Subsystem: "analyze",
			Name:      "queries_by_category_total",
			Help:      "Confident recommendations partitioned by disposal category.",
		}, []string{"category"}),

		ingestedDocumentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recyclebot",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of documents stored via POST /api/ingest.",
		}),
	}
}
