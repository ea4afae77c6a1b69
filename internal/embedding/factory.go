package embedding

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default embedding models per backend.
const (
	defaultOpenAIModel = "text-embedding-3-small"
	defaultOllamaModel = "nomic-embed-text"
)

// NewFromEnv constructs an Embedder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER — openai (default) or ollama
//  2. EMBEDDING_MODEL — overrides the backend's default model
//  3. EMBEDDING_API_KEY — overrides OPENAI_API_KEY for the openai backend
//  4. EMBEDDING_ENDPOINT — overrides the backend's default endpoint
//  5. EMBEDDING_DIMENSIONS — requests a specific vector size (openai only)
//  6. REQUEST_TIMEOUT — per-request timeout in seconds
//
// Note that the vector index never relies on a configured dimension: the
// collection size is always measured by embedding a probe string.
func NewFromEnv() (Embedder, error) {
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "openai")
	timeout := time.Duration(getEnvInt("REQUEST_TIMEOUT", 60)) * time.Second

	switch backend {
	case "openai":
		apiKey := os.Getenv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    os.Getenv("EMBEDDING_ENDPOINT"),
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
			Timeout:    timeout,
		}), nil

	case "ollama":
		host := os.Getenv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:    host,
			Model:   getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel),
			Timeout: timeout,
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: openai, ollama", backend)
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
