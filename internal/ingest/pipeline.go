// Package ingest loads the recycling knowledge base into the vector index:
// expand the knowledge tables, embed the enriched documents, and upsert the
// resulting points. Point IDs are derived deterministically from the entry
// identity, so running the pipeline twice overwrites rather than duplicates.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/b-franke/recyclebot/internal/index"
	"github.com/b-franke/recyclebot/internal/knowledge"
)

// sourceName tags every ingested point's payload so other corpora can be
// added to the same collection later without mixing provenance.
const sourceName = "recycling_knowledge_base"

// Embedder is the embedding capability the pipeline needs. Wrap the provider
// in embedding.NewCached so re-runs skip already embedded documents.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Progress reports pipeline stages for CLI output. Any field may be nil.
type Progress struct {
	// OnBuild receives the number of generated knowledge documents.
	OnBuild func(count int)
	// OnEmbed receives the number of embedded documents.
	OnEmbed func(count int)
	// OnUpsert receives the number of stored points.
	OnUpsert func(count int)
}

// Pipeline ingests the knowledge base into a vector store.
type Pipeline struct {
	emb   Embedder
	store index.Store
	log   *slog.Logger
}

// New constructs a Pipeline.
func New(emb Embedder, store index.Store, log *slog.Logger) (*Pipeline, error) {
	if emb == nil {
		return nil, fmt.Errorf("ingest: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingest: store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{emb: emb, store: store, log: log}, nil
}

// Run executes the full pipeline and returns the number of stored points.
// The collection is created first if missing, sized to the embedder's
// measured dimensionality.
func (p *Pipeline) Run(ctx context.Context, progress *Progress) (int, error) {
	if progress == nil {
		progress = &Progress{}
	}

	items := knowledge.Build()
	p.log.Info("ingest: knowledge base built", slog.Int("documents", len(items)))
	if progress.OnBuild != nil {
		progress.OnBuild(len(items))
	}

	if err := p.store.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ingest: preparing collection: %w", err)
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Content
	}

	started := time.Now()
	vectors, err := p.emb.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("ingest: embedding documents: %w", err)
	}
	if len(vectors) != len(items) {
		return 0, fmt.Errorf("ingest: embedder returned %d vectors for %d documents", len(vectors), len(items))
	}
	p.log.Info("ingest: documents embedded",
		slog.Int("documents", len(items)),
		slog.Duration("elapsed", time.Since(started)),
	)
	if progress.OnEmbed != nil {
		progress.OnEmbed(len(items))
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	points := make([]index.Point, len(items))
	for i, item := range items {
		points[i] = index.Point{
			ID:     pointID(item),
			Vector: vectors[i],
			Payload: map[string]any{
				"title":        item.Title,
				"content":      item.Content,
				"category":     item.Category,
				"instructions": item.Instructions,
				"example":      item.Example,
				"created_at":   createdAt,
				"source":       sourceName,
			},
		}
	}

	if err := p.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("ingest: storing points: %w", err)
	}
	p.log.Info("ingest: points stored", slog.Int("points", len(points)))
	if progress.OnUpsert != nil {
		progress.OnUpsert(len(points))
	}

	return len(points), nil
}

// AddItem ingests a single knowledge entry, typically from the HTTP ingest
// endpoint. When instructions is empty the canonical instructions for the
// category are used; unknown categories without explicit instructions are
// rejected. Returns the stable point ID.
func (p *Pipeline) AddItem(ctx context.Context, example, category, instructions string) (string, error) {
	example = strings.TrimSpace(example)
	category = strings.TrimSpace(strings.ToLower(category))
	if example == "" {
		return "", fmt.Errorf("ingest: item must not be empty")
	}
	if category == "" {
		return "", fmt.Errorf("ingest: category must not be empty")
	}
	if instructions == "" {
		canonical, ok := knowledge.Instructions(category)
		if !ok {
			return "", fmt.Errorf("ingest: unknown category %q and no instructions given", category)
		}
		instructions = canonical
	}

	if err := p.store.EnsureCollection(ctx); err != nil {
		return "", fmt.Errorf("ingest: preparing collection: %w", err)
	}

	item := knowledge.Item{
		Category:     category,
		Instructions: instructions,
		Example:      example,
		Content:      knowledge.Enrich(example, category, instructions),
		Title:        fmt.Sprintf("%s - %s", example, category),
	}

	vectors, err := p.emb.Embed(ctx, []string{item.Content})
	if err != nil {
		return "", fmt.Errorf("ingest: embedding document: %w", err)
	}
	if len(vectors) == 0 {
		return "", fmt.Errorf("ingest: embedder returned no vector")
	}

	point := index.Point{
		ID:     pointID(item),
		Vector: vectors[0],
		Payload: map[string]any{
			"title":        item.Title,
			"content":      item.Content,
			"category":     item.Category,
			"instructions": item.Instructions,
			"example":      item.Example,
			"created_at":   time.Now().UTC().Format(time.RFC3339),
			"source":       sourceName,
		},
	}

	if err := p.store.Upsert(ctx, []index.Point{point}); err != nil {
		return "", fmt.Errorf("ingest: storing point: %w", err)
	}

	p.log.Info("ingest: single item stored",
		slog.String("item", example),
		slog.String("category", category),
	)
	return point.ID, nil
}

// pointID derives a stable UUID from the entry identity. The same entry
// always maps to the same point, making re-ingestion an overwrite.
func pointID(item knowledge.Item) string {
	name := sourceName + "/" + item.Category + "/" + item.Example
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
