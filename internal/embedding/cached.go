package embedding

import (
	"context"
	"fmt"
	"strings"
)

// defaultBatchSize is the number of uncached texts submitted per provider
// request when no explicit batch size is configured.
const defaultBatchSize = 32

// CachedEmbedder wraps an Embedder with a persistent cache, fixed-size
// request batching, and in-flight deduplication. Texts already present in
// the cache never reach the provider; duplicate texts within one call are
// embedded once.
type CachedEmbedder struct {
	// inner is the provider-backed embedder for cache misses.
	inner Embedder
	// cache holds previously computed vectors keyed by trimmed text.
	cache *Cache
	// batchSize is the maximum number of texts per provider request.
	batchSize int
}

// NewCached constructs a CachedEmbedder. batchSize defaults to 32 when
// zero or negative.
func NewCached(inner Embedder, cache *Cache, batchSize int) (*CachedEmbedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("embedder: inner embedder must not be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("embedder: cache must not be nil")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &CachedEmbedder{inner: inner, cache: cache, batchSize: batchSize}, nil
}

// Embed returns one vector per input text, in input order. Cache misses are
// deduplicated, grouped into batches, and submitted to the provider; every
// returned (text, vector) pair is written through to the cache before the
// result is assembled. After all batches succeed the cache is flushed
// best-effort. Any batch failure fails the whole call.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Collect cache misses, deduplicating repeated texts within this call.
	var missing []string
	seen := make(map[string]bool)
	for _, t := range texts {
		key := strings.TrimSpace(t)
		if seen[key] {
			continue
		}
		if _, ok := e.cache.Get(key); !ok {
			seen[key] = true
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		if err := e.embedMissing(ctx, missing); err != nil {
			return nil, err
		}
		e.cache.Flush()
	}

	// Reassemble in original input order from the cache.
	result := make([][]float32, len(texts))
	for i, t := range texts {
		vec, ok := e.cache.Get(t)
		if !ok {
			return nil, fmt.Errorf("embedder: no vector for input %d after embedding", i)
		}
		result[i] = vec
	}
	return result, nil
}

// embedMissing submits the uncached texts to the provider in fixed-size
// batches, writing each returned pair through to the cache.
func (e *CachedEmbedder) embedMissing(ctx context.Context, missing []string) error {
	total := (len(missing) + e.batchSize - 1) / e.batchSize
	for i := 0; i < len(missing); i += e.batchSize {
		end := i + e.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[i:end]

		vectors, err := e.inner.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("embedder: batch %d/%d failed: %w", i/e.batchSize+1, total, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder: batch %d/%d returned %d vectors for %d texts",
				i/e.batchSize+1, total, len(vectors), len(batch))
		}

		for j, text := range batch {
			e.cache.Put(text, vectors[j])
		}
	}
	return nil
}
