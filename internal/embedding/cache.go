package embedding

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Cache is a persistent mapping from trimmed input text to its embedding
// vector, backed by a local SQLite database. It is strictly an optimization:
// a missing or broken database never blocks operation, it only costs
// redundant provider calls. Entries are never evicted.
//
// Keys are normalized by trimming surrounding whitespace only — two texts
// differing in case are distinct entries.
//
// Cache is safe for concurrent use.
type Cache struct {
	// mu protects entries and dirty.
	mu sync.Mutex
	// entries is the in-memory text → vector map served by Get.
	entries map[string][]float32
	// dirty tracks keys written since the last successful Flush.
	dirty map[string]bool
	// db is the durable store. Nil when persistence is unavailable,
	// in which case the cache is memory-only for the process lifetime.
	db *sql.DB
	// log receives warnings for swallowed persistence errors.
	log *slog.Logger
}

// DefaultCachePath returns the default embedding cache location,
// ~/.recyclebot/embeddings.db, creating the directory if needed.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cache: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".recyclebot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cache: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "embeddings.db"), nil
}

// OpenCache opens (or creates) the cache database at path and loads all
// stored entries into memory. Open and load failures are non-fatal: the
// returned cache starts empty and memory-only, with a warning logged.
// An empty path or the literal path "disabled" skips persistence entirely.
// Use ":memory:" for an in-memory database in tests.
func OpenCache(path string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{
		entries: make(map[string][]float32),
		dirty:   make(map[string]bool),
		log:     log,
	}

	if path == "" || path == "disabled" {
		log.Info("cache: persistence disabled, running memory-only")
		return c
	}

	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Warn("cache: could not open database, running memory-only",
			slog.String("path", path), slog.Any("error", err))
		return c
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		log.Warn("cache: migration failed, running memory-only",
			slog.String("path", path), slog.Any("error", err))
		_ = db.Close()
		return c
	}

	c.db = db
	if err := c.load(); err != nil {
		// Corrupt rows lose the persisted entries but never block startup.
		log.Warn("cache: could not load stored entries, starting empty",
			slog.String("path", path), slog.Any("error", err))
	}
	return c
}

// migrate creates the schema if it does not already exist.
func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS embeddings (
    text       TEXT PRIMARY KEY,
    vector     TEXT    NOT NULL,  -- JSON-encoded []float32
    updated_at INTEGER NOT NULL   -- Unix timestamp (seconds)
);`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("cache: migrate: %w", err)
	}
	return nil
}

// load reads all persisted entries into the in-memory map.
func (c *Cache) load() error {
	rows, err := c.db.Query(`SELECT text, vector FROM embeddings`)
	if err != nil {
		return fmt.Errorf("cache: load: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var text, encoded string
		if err := rows.Scan(&text, &encoded); err != nil {
			return fmt.Errorf("cache: load scan: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
			return fmt.Errorf("cache: load decode %q: %w", text, err)
		}
		c.entries[text] = vec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("cache: load rows: %w", err)
	}
	return nil
}

// Get returns the cached vector for text (trimmed) and whether it was present.
func (c *Cache) Get(text string) ([]float32, bool) {
	key := strings.TrimSpace(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.entries[key]
	return vec, ok
}

// Put stores the vector for text (trimmed) in memory and marks it for the
// next Flush. Repeated puts for the same key overwrite the prior vector.
func (c *Cache) Put(text string, vec []float32) {
	key := strings.TrimSpace(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = vec
	c.dirty[key] = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush persists all entries written since the last flush. Failures are
// logged and swallowed — persistence is best-effort and never a correctness
// dependency.
func (c *Cache) Flush() {
	c.mu.Lock()
	if c.db == nil || len(c.dirty) == 0 {
		c.mu.Unlock()
		return
	}
	pending := make(map[string][]float32, len(c.dirty))
	for key := range c.dirty {
		pending[key] = c.entries[key]
	}
	c.mu.Unlock()

	if err := c.persist(pending); err != nil {
		c.log.Warn("cache: flush failed, entries remain memory-only", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	for key := range pending {
		delete(c.dirty, key)
	}
	c.mu.Unlock()
}

// persist writes the given entries in a single transaction.
func (c *Cache) persist(entries map[string][]float32) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const q = `
INSERT INTO embeddings (text, vector, updated_at) VALUES (?, ?, ?)
ON CONFLICT(text) DO UPDATE SET vector = excluded.vector, updated_at = excluded.updated_at`

	now := time.Now().Unix()
	for key, vec := range entries {
		encoded, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("cache: encode %q: %w", key, err)
		}
		if _, err := tx.Exec(q, key, string(encoded), now); err != nil {
			return fmt.Errorf("cache: upsert %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: commit: %w", err)
	}
	return nil
}

// Close flushes pending entries and releases the database handle.
func (c *Cache) Close() error {
	c.Flush()
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("cache: close: %w", err)
	}
	return nil
}
