package index

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// defaultCollection is the collection name used when QDRANT_COLLECTION is
// unset.
const defaultCollection = "recycle_docs"

// NewFromEnv constructs a Store from environment variables.
//
// Resolution order:
//
//  1. QDRANT_TRANSPORT — http (default) or grpc
//  2. QDRANT_URL — REST base URL for the http transport
//  3. QDRANT_HOST / QDRANT_PORT / QDRANT_TLS — connection for the grpc transport
//  4. QDRANT_COLLECTION — collection name (default: recycle_docs)
//  5. QDRANT_API_KEY — optional API key, sent on both transports
//  6. UPSERT_CHUNK_SIZE — points per upsert request
//  7. REQUEST_TIMEOUT — per-request timeout in seconds (http transport)
func NewFromEnv(emb Embedder, log *slog.Logger) (Store, error) {
	transport := getEnvOrDefault("QDRANT_TRANSPORT", "http")
	collection := getEnvOrDefault("QDRANT_COLLECTION", defaultCollection)
	chunkSize := getEnvInt("UPSERT_CHUNK_SIZE", defaultChunkSize)

	switch transport {
	case "http":
		return NewHTTPStore(&HTTPConfig{
			BaseURL:    getEnvOrDefault("QDRANT_URL", "http://localhost:6333"),
			Collection: collection,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Timeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT", 60)) * time.Second,
			ChunkSize:  chunkSize,
			Embedder:   emb,
			Logger:     log,
		})

	case "grpc":
		return NewGRPCStore(&GRPCConfig{
			Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
			Port:       getEnvInt("QDRANT_PORT", 6334),
			Collection: collection,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     getEnvBool("QDRANT_TLS", false),
			ChunkSize:  chunkSize,
			Embedder:   emb,
			Logger:     log,
		})

	default:
		return nil, fmt.Errorf("index: unknown transport %q — valid values: http, grpc", transport)
	}
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

// getEnvBool returns the boolean value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
