// Package index manages the Qdrant vector index: collection lifecycle with
// dynamically measured dimensionality, chunked idempotent upsert, and
// similarity search. Two transports implement the same Store contract — a
// REST client with retrying HTTP (default) and a gRPC client — selected via
// the factory. Regardless of transport, search hits expose a plain
// similarity score in [0,1]; any provider-specific score shape is handled
// inside the adapter and never leaks to callers.
package index

import "context"

// Point is a vector plus payload stored in the index, keyed by ID.
// Upsert is insert-or-replace per ID, so re-ingesting the same points is safe.
type Point struct {
	// ID is the unique point identifier (a UUID string).
	ID string
	// Vector is the embedding. All vectors in a collection share one
	// dimensionality, established by probing the embedder before creation.
	Vector []float32
	// Payload is arbitrary metadata returned alongside search hits.
	Payload map[string]any
}

// Hit is one search result, ordered highest similarity first as returned by
// the index — the adapter does not re-sort.
type Hit struct {
	// Score is the normalized cosine similarity in [0,1].
	Score float64
	// Payload is the stored point payload.
	Payload map[string]any
}

// Store is the interface for the vector index. Implementations must be safe
// to call from multiple goroutines.
type Store interface {
	// EnsureCollection checks that the collection exists and creates it if
	// absent, measuring the vector dimensionality from a live embedding call.
	// Idempotent: safe to call at every startup.
	EnsureCollection(ctx context.Context) error

	// Upsert stores or replaces the given points in fixed-size chunks,
	// waiting for each chunk to be applied before sending the next. A chunk
	// failure aborts the operation; chunks already applied remain applied.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the topK nearest neighbours of vector with payloads
	// but without vector data.
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)

	// Close releases any resources held by the store.
	Close() error
}

// dimensionProbe is the fixed text embedded once to measure the vector
// dimensionality of the configured embedding model before creating a
// collection. Never hard-code a dimension — models differ.
const dimensionProbe = "test-embedding-vector-dimension"

// defaultChunkSize is the number of points per upsert request when no
// explicit chunk size is configured.
const defaultChunkSize = 64

// Embedder is the minimal embedding capability the index needs for the
// dimensionality probe. internal/embedding implementations satisfy it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// probeDimension measures the embedding dimensionality by embedding the
// fixed probe string.
func probeDimension(ctx context.Context, emb Embedder) (int, error) {
	vectors, err := emb.Embed(ctx, []string{dimensionProbe})
	if err != nil {
		return 0, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, errEmptyProbe
	}
	return len(vectors[0]), nil
}
