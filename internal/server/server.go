// Package server implements the HTTP service that exposes the disposal
// advice engine via a JSON API: analyze queries, usage statistics, single-item
// ingestion, health and readiness probes, and Prometheus metrics.
// The server is started by the `recyclebot serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/b-franke/recyclebot/internal/advisor"
	"github.com/b-franke/recyclebot/internal/analytics"
	"github.com/b-franke/recyclebot/internal/logging"
)

// New constructs a Server from the provided advice engine, ingester,
// counters, and config.
func New(adv adviser, ing ingester, counters *analytics.Counters, cfg *Config) (*Server, error) {
	if adv == nil {
		return nil, fmt.Errorf("server: adviser must not be nil")
	}
	if counters == nil {
		return nil, fmt.Errorf("server: counters must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}

	s := &Server{
		adviser:  adv,
		ingester: ing,
		counters: counters,
		cfg:      cfg,
		log:      cfg.Logger,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(cfg.Registry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: API key not set, authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/analyze", protected(s.handleAnalyze))
	mux.Handle("GET /api/stats", protected(s.handleStats))
	mux.Handle("POST /api/ingest", protected(s.handleIngest))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler, middleware included.
// Used by tests to drive the server through httptest.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAnalyze handles POST /api/analyze. Short queries are rejected with
// 400, queries the knowledge base cannot answer confidently return 404 with
// the near-miss details, and upstream failures map to 503. Every decoded
// request counts toward the usage total; category buckets only track
// confident answers.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	started := time.Now()

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.analyzeRequestsTotal.WithLabelValues(outcomeRejected).Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	s.counters.RecordQuery()

	advice, err := s.adviser.Advise(r.Context(), req.ItemDescription)
	switch {
	case errors.Is(err, advisor.ErrQueryTooShort):
		s.metrics.analyzeRequestsTotal.WithLabelValues(outcomeRejected).Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		log.Error("analyze failed", slog.Any("error", err))
		s.metrics.analyzeRequestsTotal.WithLabelValues(outcomeError).Inc()
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "advice engine unavailable"})
		return
	}

	elapsed := time.Since(started)
	if !advice.Known {
		s.metrics.analyzeRequestsTotal.WithLabelValues(outcomeUnknown).Inc()
		s.metrics.analyzeDurationSeconds.WithLabelValues(outcomeUnknown).Observe(elapsed.Seconds())
		writeJSON(w, http.StatusNotFound, advice)
		return
	}

	s.counters.RecordCategory(advice.Category)
	s.metrics.analyzeRequestsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.analyzeDurationSeconds.WithLabelValues(outcomeOK).Observe(elapsed.Seconds())
	s.metrics.queriesByCategory.WithLabelValues(advice.Category).Inc()

	writeJSON(w, http.StatusOK, advice)
}

// handleStats handles GET /api/stats and returns the usage counters.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.counters.Snapshot())
}

// handleIngest handles POST /api/ingest and stores a single knowledge item.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.ingester == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ingestion not available"})
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Item == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "item and category are required"})
		return
	}

	id, err := s.ingester.AddItem(r.Context(), req.Item, req.Category, req.Instructions)
	if err != nil {
		log.Error("ingest failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ingestion failed"})
		return
	}

	s.metrics.ingestedDocumentsTotal.Inc()
	writeJSON(w, http.StatusOK, ingestResponse{ID: id, Item: req.Item, Category: req.Category})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
