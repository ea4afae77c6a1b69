// Package config provides YAML-based configuration for recyclebot.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing workflows are unaffected.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. RECYCLEBOT_CONFIG environment variable
//  3. ~/.recyclebot/config.yaml
//  4. ./recyclebot.yaml
//
// If no file is found the system runs entirely from env vars (backwards compatible).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Qdrant configures the Qdrant vector index connection.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Advisor configures the retrieval/advice engine.
	Advisor AdvisorConfig `yaml:"advisor"`

	// Pipeline configures batch sizes and timeouts for ingestion.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Cache configures the persistent embedding cache.
	Cache CacheConfig `yaml:"cache"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: openai, ollama.
	Provider string `yaml:"provider"`
	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string `yaml:"model"`
	// Dimensions requests a specific embedding vector size (0 = model default).
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// OpenAIAPIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	OpenAIAPIKey string `yaml:"openai_api_key"`
	// Endpoint is the embedding API base URL.
	Endpoint string `yaml:"endpoint"`
}

// QdrantConfig holds Qdrant vector index settings.
type QdrantConfig struct {
	// URL is the Qdrant REST base URL (http transport).
	URL string `yaml:"url"`
	// Host is the Qdrant server hostname (grpc transport).
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port (grpc transport).
	Port int `yaml:"port"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
	// Transport selects the wire protocol: http or grpc.
	Transport string `yaml:"transport"`
}

// AdvisorConfig holds retrieval/advice engine settings.
type AdvisorConfig struct {
	// TopK is the number of nearest neighbours to retrieve per query.
	TopK int `yaml:"top_k"`
	// MinScore is the minimum similarity for a confident recommendation.
	MinScore float64 `yaml:"min_score"`
}

// PipelineConfig holds ingestion pipeline settings.
type PipelineConfig struct {
	// BatchSize is the number of texts per embedding request.
	BatchSize int `yaml:"batch_size"`
	// ChunkSize is the number of points per upsert request.
	ChunkSize int `yaml:"chunk_size"`
	// RequestTimeout is the per-request timeout in seconds for search/upsert/embed.
	RequestTimeout int `yaml:"request_timeout"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	// Path is the SQLite database path for the embedding cache.
	// Set to "disabled" to run without a persistent cache.
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// APIKey is the Bearer token for API authentication. Prefer env var RECYCLEBOT_API_KEY.
	APIKey string `yaml:"api_key"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Embedding.OpenAIAPIKey }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"QDRANT_URL", func(c *Config) string { return c.Qdrant.URL }},
	{"QDRANT_HOST", func(c *Config) string { return c.Qdrant.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.Qdrant.Port) }},
	{"QDRANT_COLLECTION", func(c *Config) string { return c.Qdrant.Collection }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.Qdrant.TLS) }},
	{"QDRANT_TRANSPORT", func(c *Config) string { return c.Qdrant.Transport }},
	{"TOP_K", func(c *Config) string { return intStr(c.Advisor.TopK) }},
	{"MIN_SCORE", func(c *Config) string { return floatStr(c.Advisor.MinScore) }},
	{"EMBED_BATCH_SIZE", func(c *Config) string { return intStr(c.Pipeline.BatchSize) }},
	{"UPSERT_CHUNK_SIZE", func(c *Config) string { return intStr(c.Pipeline.ChunkSize) }},
	{"REQUEST_TIMEOUT", func(c *Config) string { return intStr(c.Pipeline.RequestTimeout) }},
	{"EMBED_CACHE_PATH", func(c *Config) string { return c.Cache.Path }},
	{"RECYCLEBOT_API_KEY", func(c *Config) string { return c.Server.APIKey }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" || yamlVal == "false" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("RECYCLEBOT_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".recyclebot", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("recyclebot.yaml"); err == nil {
		return "recyclebot.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// floatStr converts a float64 to string, returning "" for zero values.
func floatStr(v float64) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
