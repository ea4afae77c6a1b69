package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/b-franke/recyclebot/internal/advisor"
	"github.com/b-franke/recyclebot/internal/embedding"
	"github.com/b-franke/recyclebot/internal/index"
)

// engine bundles the wired-up components shared by the query and ingest
// commands, plus a cleanup function that flushes the embedding cache and
// closes the index connection.
type engine struct {
	// embedder is the cache-wrapped embedding client.
	embedder *embedding.CachedEmbedder
	// store is the configured vector index transport.
	store index.Store
	// advisor answers disposal queries. Nil when built with buildIngestOnly.
	advisor *advisor.Advisor
	// close flushes and releases all held resources.
	close func()
}

// buildEngine wires embedder, cache, index, and advisor from the environment.
func buildEngine(log *slog.Logger) (*engine, error) {
	inner, err := embedding.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("initialising embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("provider", getEnvOrDefault("EMBEDDING_PROVIDER", "openai")),
	)

	cachePath := os.Getenv("EMBED_CACHE_PATH")
	if cachePath == "" {
		cachePath, err = embedding.DefaultCachePath()
		if err != nil {
			log.Warn("cache: could not resolve default path, using memory only", slog.Any("error", err))
		}
	}
	cache := embedding.OpenCache(cachePath, log)

	cached, err := embedding.NewCached(inner, cache, getEnvInt("EMBED_BATCH_SIZE", 0))
	if err != nil {
		return nil, fmt.Errorf("initialising embedding cache: %w", err)
	}

	store, err := index.NewFromEnv(cached, log)
	if err != nil {
		return nil, fmt.Errorf("initialising vector index: %w", err)
	}
	log.Info("vector index ready",
		slog.String("transport", getEnvOrDefault("QDRANT_TRANSPORT", "http")),
		slog.String("collection", getEnvOrDefault("QDRANT_COLLECTION", "recycle_docs")),
	)

	adv, err := advisor.New(&advisor.Config{
		Embedder: cached,
		Store:    store,
		TopK:     getEnvInt("TOP_K", 0),
		MinScore: getEnvFloat("MIN_SCORE", 0),
		Logger:   log,
	})
	if err != nil {
		_ = store.Close()
		_ = cache.Close()
		return nil, fmt.Errorf("initialising advisor: %w", err)
	}

	return &engine{
		embedder: cached,
		store:    store,
		advisor:  adv,
		close: func() {
			if err := store.Close(); err != nil {
				log.Warn("index close failed", slog.Any("error", err))
			}
			if err := cache.Close(); err != nil {
				log.Warn("cache close failed", slog.Any("error", err))
			}
		},
	}, nil
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat returns the float value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
