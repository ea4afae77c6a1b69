package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPConfig holds connection parameters for the Qdrant REST transport.
type HTTPConfig struct {
	// BaseURL is the Qdrant REST base URL (default: http://localhost:6333).
	BaseURL string
	// Collection is the Qdrant collection name to use.
	Collection string
	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string
	// Timeout is the per-request timeout for search and upsert (default: 60s).
	Timeout time.Duration
	// ProbeTimeout is the shorter timeout for existence checks (default: 8s).
	ProbeTimeout time.Duration
	// ChunkSize is the number of points per upsert request (default: 64).
	ChunkSize int
	// MaxAttempts is the total number of attempts per request including
	// retries of transient failures (default: 4).
	MaxAttempts int
	// RetryInterval seeds the exponential backoff schedule (default: 500ms).
	RetryInterval time.Duration
	// Embedder measures the vector dimensionality before collection creation.
	Embedder Embedder
	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// HTTPStore implements Store against the Qdrant REST API.
type HTTPStore struct {
	// cfg holds the resolved configuration for this store.
	cfg *HTTPConfig
	// rc issues requests with transient-failure retry.
	rc *retryingClient
	// probeRC issues existence checks with the shorter timeout.
	probeRC *retryingClient
}

// NewHTTPStore constructs an HTTPStore from the given config.
func NewHTTPStore(cfg *HTTPConfig) (*HTTPStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("index: config must not be nil")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("index: collection name must not be empty")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("index: embedder must not be nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:6333"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 8 * time.Second
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &HTTPStore{
		cfg: cfg,
		rc: &retryingClient{
			client:          &http.Client{Timeout: cfg.Timeout},
			maxAttempts:     cfg.MaxAttempts,
			initialInterval: cfg.RetryInterval,
			log:             cfg.Logger,
		},
		probeRC: &retryingClient{
			client:          &http.Client{Timeout: cfg.ProbeTimeout},
			maxAttempts:     cfg.MaxAttempts,
			initialInterval: cfg.RetryInterval,
			log:             cfg.Logger,
		},
	}, nil
}

// headers returns the common request headers, including the API key when set.
func (s *HTTPStore) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if s.cfg.APIKey != "" {
		h["api-key"] = s.cfg.APIKey
	}
	return h
}

// collectionURL returns the REST URL for the configured collection plus suffix.
func (s *HTTPStore) collectionURL(suffix string) string {
	return s.cfg.BaseURL + "/collections/" + s.cfg.Collection + suffix
}

// EnsureCollection checks for the collection and creates it if missing,
// sized to the dimensionality measured from a live embedding call with
// cosine distance. Calling it when the collection exists performs no create.
func (s *HTTPStore) EnsureCollection(ctx context.Context) error {
	resp, err := s.probeRC.do(ctx, http.MethodGet, s.collectionURL(""), nil, s.headers())
	if err != nil {
		return fmt.Errorf("index: collection lookup: %w", err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		s.cfg.Logger.Debug("index: collection exists", slog.String("collection", s.cfg.Collection))
		return nil
	case resp.StatusCode != http.StatusNotFound:
		return fmt.Errorf("index: collection lookup: HTTP %d: %s", resp.StatusCode, body)
	}

	dim, err := probeDimension(ctx, s.cfg.Embedder)
	if err != nil {
		return fmt.Errorf("index: measuring embedding dimension: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Cosine"},
	})
	if err != nil {
		return fmt.Errorf("index: marshal create request: %w", err)
	}

	s.cfg.Logger.Info("index: creating collection",
		slog.String("collection", s.cfg.Collection),
		slog.Int("dimension", dim),
	)

	resp, err = s.rc.do(ctx, http.MethodPut, s.collectionURL(""), payload, s.headers())
	if err != nil {
		return fmt.Errorf("index: collection create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("index: collection create: HTTP %d: %s", resp.StatusCode, body)
	}
	return nil
}

// restPoint is the wire shape of one upserted point.
type restPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert stores the points in chunks, one waited request per chunk. A chunk
// failure aborts the remainder; applied chunks stay applied, and because
// point IDs are stable a full re-run simply overwrites them.
func (s *HTTPStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	url := s.collectionURL("/points?wait=true")
	for start := 0; start < len(points); start += s.cfg.ChunkSize {
		end := start + s.cfg.ChunkSize
		if end > len(points) {
			end = len(points)
		}

		chunk := make([]restPoint, 0, end-start)
		for _, p := range points[start:end] {
			chunk = append(chunk, restPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
		}

		payload, err := json.Marshal(map[string]any{"points": chunk})
		if err != nil {
			return fmt.Errorf("index: marshal upsert chunk: %w", err)
		}

		resp, err := s.rc.do(ctx, http.MethodPut, url, payload, s.headers())
		if err != nil {
			return fmt.Errorf("index: upsert chunk at offset %d: %w", start, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			_ = resp.Body.Close()
			return fmt.Errorf("index: upsert chunk at offset %d: HTTP %d: %s", start, resp.StatusCode, body)
		}
		_ = resp.Body.Close()

		s.cfg.Logger.Debug("index: upserted chunk",
			slog.Int("offset", start),
			slog.Int("size", end-start),
		)
	}
	return nil
}

// restSearchResponse is the wire shape of the search response.
type restSearchResponse struct {
	Result []restHit `json:"result"`
}

// Search returns the topK nearest neighbours of vector, payload included,
// vector data excluded, in the order Qdrant returned them.
func (s *HTTPStore) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	payload, err := json.Marshal(map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	})
	if err != nil {
		return nil, fmt.Errorf("index: marshal search request: %w", err)
	}

	resp, err := s.rc.do(ctx, http.MethodPost, s.collectionURL("/points/search"), payload, s.headers())
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("index: search: HTTP %d: %s", resp.StatusCode, body)
	}

	var decoded restSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("index: decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(decoded.Result))
	for _, r := range decoded.Result {
		hits = append(hits, Hit{
			Score:   normalizeScore(r.Score),
			Payload: r.Payload,
		})
	}
	return hits, nil
}

// Close is a no-op for the REST transport.
func (s *HTTPStore) Close() error { return nil }
