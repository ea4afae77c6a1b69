package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/b-franke/recyclebot/internal/advisor"
	"github.com/b-franke/recyclebot/internal/analytics"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs GET /metrics.
	// If nil, a fresh registry is created.
	Registry *prometheus.Registry
}

// adviser is the interface handleAnalyze calls to answer a query.
// *advisor.Advisor satisfies it; tests inject a fake.
type adviser interface {
	Advise(ctx context.Context, query string) (*advisor.Advice, error)
}

// ingester is the interface handleIngest calls to store a single item.
// *ingest.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	AddItem(ctx context.Context, example, category, instructions string) (string, error)
}

// Server is the HTTP server that exposes the disposal advice API.
type Server struct {
	// adviser answers analyze queries.
	adviser adviser
	// ingester stores single items submitted via the API.
	ingester ingester
	// counters accumulates usage statistics served by GET /api/stats.
	counters *analytics.Counters
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// analyzeRequest is the JSON body for POST /api/analyze.
type analyzeRequest struct {
	// ItemDescription is the waste item to classify.
	ItemDescription string `json:"item_description"`
	// UserLocation is an optional free-form location hint, accepted for
	// forward compatibility but currently unused.
	UserLocation string `json:"user_location,omitempty"`
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	// Item is the waste item label to add to the knowledge base.
	Item string `json:"item"`
	// Category is the disposal category for the item.
	Category string `json:"category"`
	// Instructions optionally overrides the canonical category instructions.
	Instructions string `json:"instructions,omitempty"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	// ID is the stable point ID assigned to the item.
	ID string `json:"id"`
	// Item is the stored item label.
	Item string `json:"item"`
	// Category is the stored disposal category.
	Category string `json:"category"`
}

// errorResponse is the JSON body for error statuses.
type errorResponse struct {
	// Error is the human-readable failure reason.
	Error string `json:"error"`
}
