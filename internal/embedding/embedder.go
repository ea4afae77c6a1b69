// Package embedding converts text into dense vector embeddings.
// Backends (OpenAI, Ollama) are plain HTTP clients — no SDK dependencies —
// selected through a factory from the environment. CachedEmbedder wraps any
// backend with a persistent cache, request batching, and deduplication so
// repeated ingestion runs avoid redundant provider calls.
package embedding

import "context"

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice: same length, same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
