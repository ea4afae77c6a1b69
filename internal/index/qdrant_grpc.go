package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
)

// GRPCConfig holds connection parameters for the Qdrant gRPC transport.
type GRPCConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string
	// Port is the Qdrant gRPC port (default: 6334).
	Port int
	// Collection is the Qdrant collection name to use.
	Collection string
	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string
	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
	// ChunkSize is the number of points per upsert request (default: 64).
	ChunkSize int
	// Embedder measures the vector dimensionality before collection creation.
	Embedder Embedder
	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// GRPCStore implements Store backed by the Qdrant gRPC client.
type GRPCStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client
	// cfg holds the resolved configuration for this store.
	cfg *GRPCConfig
}

// NewGRPCStore creates a GRPCStore. The collection is not touched here —
// call EnsureCollection before the first upsert or search.
func NewGRPCStore(cfg *GRPCConfig) (*GRPCStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("index: config must not be nil")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("index: collection name must not be empty")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("index: embedder must not be nil")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("index: failed to create qdrant client: %w", err)
	}

	return &GRPCStore{client: client, cfg: cfg}, nil
}

// Client exposes the underlying gRPC client for health probes.
func (s *GRPCStore) Client() *qdrant.Client { return s.client }

// EnsureCollection creates the collection if it does not already exist,
// sized to the dimensionality measured from a live embedding call.
func (s *GRPCStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("index: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	dim, err := probeDimension(ctx, s.cfg.Embedder)
	if err != nil {
		return fmt.Errorf("index: measuring embedding dimension: %w", err)
	}

	s.cfg.Logger.Info("index: creating collection",
		slog.String("collection", s.cfg.Collection),
		slog.Int("dimension", dim),
	)

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim), //nolint:gosec // dimensions are small and positive
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("index: failed to create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// Upsert stores the points in chunks, waiting for each chunk to be applied
// before sending the next.
func (s *GRPCStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	wait := true
	for start := 0; start < len(points); start += s.cfg.ChunkSize {
		end := start + s.cfg.ChunkSize
		if end > len(points) {
			end = len(points)
		}

		chunk := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			chunk = append(chunk, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(p.Payload),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.cfg.Collection,
			Points:         chunk,
			Wait:           &wait,
		})
		if err != nil {
			return fmt.Errorf("index: upsert chunk at offset %d: %w", start, err)
		}

		s.cfg.Logger.Debug("index: upserted chunk",
			slog.Int("offset", start),
			slog.Int("size", end-start),
		)
	}
	return nil
}

// Search performs a cosine similarity search and returns the top-k results.
// The gRPC API reports similarity directly, so no score normalization is
// required on this transport.
func (s *GRPCStore) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	limit := uint64(topK) //nolint:gosec // topK is a small positive config value
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("index: search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		payload := make(map[string]any, len(r.Payload))
		for k, v := range r.Payload {
			payload[k] = valueToAny(v)
		}
		hits = append(hits, Hit{
			Score:   float64(r.Score),
			Payload: payload,
		})
	}
	return hits, nil
}

// valueToAny converts a qdrant payload value into a plain Go value.
func valueToAny(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	default:
		return v.String()
	}
}

// Close closes the underlying Qdrant gRPC connection.
func (s *GRPCStore) Close() error {
	return s.client.Close()
}
