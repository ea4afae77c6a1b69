// Package advisor answers disposal questions: it embeds the query text,
// searches the vector index for the nearest knowledge entries, and turns the
// best hit into a recommendation when its similarity clears the confidence
// threshold. The advisor itself holds no state beyond its dependencies and is
// safe for concurrent use.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/b-franke/recyclebot/internal/index"
	"github.com/b-franke/recyclebot/internal/knowledge"
)

// Defaults applied when the config leaves a field zero.
const (
	// DefaultTopK is the number of neighbours retrieved per query.
	DefaultTopK = 3
	// DefaultMinScore is the similarity below which a best hit is treated
	// as unknown. A best hit scoring exactly the threshold is accepted.
	DefaultMinScore = 0.55
	// minQueryRunes is the minimum query length; shorter queries are
	// rejected before any network call.
	minQueryRunes = 3
)

// ErrQueryTooShort is returned for queries under three characters.
var ErrQueryTooShort = errors.New("advisor: query must be at least 3 characters")

// Embedder is the embedding capability the advisor needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Advice is the result of one disposal query.
type Advice struct {
	// Query is the original query text, trimmed.
	Query string `json:"query"`
	// Known reports whether a confident recommendation was found.
	Known bool `json:"known"`
	// Category is the recommended disposal category, empty when unknown.
	Category string `json:"category,omitempty"`
	// Instructions is the disposal instruction text, empty when unknown.
	Instructions string `json:"instructions,omitempty"`
	// Example is the knowledge entry the recommendation came from.
	Example string `json:"matched_example,omitempty"`
	// Title is the matched entry's short label.
	Title string `json:"matched_title,omitempty"`
	// Confidence is the best hit's similarity score, also set when the
	// result is unknown so callers can show how close the miss was.
	Confidence float64 `json:"confidence"`
	// SimilarItems lists the retrieved neighbour titles in rank order.
	SimilarItems []string `json:"similar_items,omitempty"`
	// Impact is the environmental impact note for the category.
	Impact string `json:"environmental_impact,omitempty"`
}

// Config holds the advisor's dependencies and tuning.
type Config struct {
	// Embedder turns query text into a vector.
	Embedder Embedder
	// Store is the vector index to search.
	Store index.Store
	// TopK is the number of neighbours to retrieve (default: 3).
	TopK int
	// MinScore is the confidence threshold (default: 0.55).
	MinScore float64
	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// Advisor answers disposal queries against the vector index.
type Advisor struct {
	emb      Embedder
	store    index.Store
	topK     int
	minScore float64
	log      *slog.Logger
}

// New constructs an Advisor, applying defaults for zero fields.
func New(cfg *Config) (*Advisor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("advisor: config must not be nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("advisor: embedder must not be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("advisor: store must not be nil")
	}
	a := &Advisor{
		emb:      cfg.Embedder,
		store:    cfg.Store,
		topK:     cfg.TopK,
		minScore: cfg.MinScore,
		log:      cfg.Logger,
	}
	if a.topK <= 0 {
		a.topK = DefaultTopK
	}
	if a.minScore <= 0 {
		a.minScore = DefaultMinScore
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a, nil
}

// Advise answers one disposal query. Queries under three characters return
// ErrQueryTooShort without touching the embedder or the index. A query whose
// best hit scores below the threshold yields Known=false with the near-miss
// confidence filled in.
func (a *Advisor) Advise(ctx context.Context, query string) (*Advice, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryRunes {
		return nil, ErrQueryTooShort
	}

	vectors, err := a.emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("advisor: embedding query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("advisor: embedder returned no vector")
	}

	hits, err := a.store.Search(ctx, vectors[0], a.topK)
	if err != nil {
		return nil, fmt.Errorf("advisor: searching index: %w", err)
	}

	advice := &Advice{Query: query}
	if len(hits) == 0 {
		a.log.Info("advisor: no hits", slog.String("query", query))
		return advice, nil
	}

	best := hits[0]
	advice.Confidence = best.Score
	for _, h := range hits {
		if title := payloadString(h.Payload, "title"); title != "" {
			advice.SimilarItems = append(advice.SimilarItems, title)
		}
	}

	if best.Score < a.minScore {
		a.log.Info("advisor: best hit below threshold",
			slog.String("query", query),
			slog.Float64("score", best.Score),
			slog.Float64("threshold", a.minScore),
		)
		return advice, nil
	}

	category := payloadString(best.Payload, "category")
	instructions := payloadString(best.Payload, "instructions")
	if instructions == "" {
		if instr, ok := knowledge.Instructions(category); ok {
			instructions = instr
		}
	}

	advice.Known = true
	advice.Category = category
	advice.Instructions = instructions
	advice.Example = payloadString(best.Payload, "example")
	advice.Title = payloadString(best.Payload, "title")
	advice.Impact = knowledge.ImpactNote(category)

	a.log.Debug("advisor: answered",
		slog.String("query", query),
		slog.String("category", category),
		slog.Float64("score", best.Score),
	)
	return advice, nil
}

// payloadString fetches a string payload field, returning "" for missing or
// non-string values.
func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
