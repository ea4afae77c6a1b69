package advisor

import (
	"context"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/b-franke/recyclebot/internal/index"
	"github.com/b-franke/recyclebot/internal/ingest"
	"github.com/b-franke/recyclebot/internal/knowledge"
)

// categoryEmbedder embeds any text as a one-hot vector of the disposal
// category whose example labels appear in it. Texts matching no known
// example land on a dedicated trailing dimension, orthogonal to everything
// ingested. This keeps the ingest → search → advise flow deterministic
// without a live provider.
type categoryEmbedder struct {
	categories []string
}

func newCategoryEmbedder() *categoryEmbedder {
	return &categoryEmbedder{categories: knowledge.Categories()}
}

func (e *categoryEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	dim := len(e.categories) + 1
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dim)
		vec[e.slot(text)] = 1
		out[i] = vec
	}
	return out, nil
}

func (e *categoryEmbedder) slot(text string) int {
	items := knowledge.Build()
	for _, item := range items {
		if strings.Contains(text, item.Example) {
			for i, c := range e.categories {
				if c == item.Category {
					return i
				}
			}
		}
	}
	return len(e.categories)
}

// memoryStore is an in-memory Store computing real cosine similarities.
type memoryStore struct {
	points []index.Point
}

func (m *memoryStore) EnsureCollection(context.Context) error { return nil }

func (m *memoryStore) Upsert(_ context.Context, points []index.Point) error {
	for _, p := range points {
		replaced := false
		for i := range m.points {
			if m.points[i].ID == p.ID {
				m.points[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			m.points = append(m.points, p)
		}
	}
	return nil
}

func (m *memoryStore) Search(_ context.Context, vector []float32, topK int) ([]index.Hit, error) {
	hits := make([]index.Hit, 0, len(m.points))
	for _, p := range m.points {
		hits = append(hits, index.Hit{Score: cosine(vector, p.Vector), Payload: p.Payload})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *memoryStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func ingestKnowledgeBase(t *testing.T) (*Advisor, *memoryStore) {
	t.Helper()

	emb := newCategoryEmbedder()
	store := &memoryStore{}

	pipeline, err := ingest.New(emb, store, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	if _, err := pipeline.Run(t.Context(), nil); err != nil {
		t.Fatalf("pipeline.Run: %v", err)
	}

	adv, err := New(&Config{Embedder: emb, Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return adv, store
}

func TestEndToEnd_BananenschaleIsOrganic(t *testing.T) {
	t.Parallel()

	adv, _ := ingestKnowledgeBase(t)

	advice, err := adv.Advise(t.Context(), "Bananenschale")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if !advice.Known {
		t.Fatalf("expected a confident answer, got confidence %v", advice.Confidence)
	}
	if advice.Category != "organic" {
		t.Errorf("category = %q, want organic", advice.Category)
	}
	wantInstr, _ := knowledge.Instructions("organic")
	if advice.Instructions != wantInstr {
		t.Errorf("instructions = %q, want %q", advice.Instructions, wantInstr)
	}
}

func TestEndToEnd_NonsenseIsUnknown(t *testing.T) {
	t.Parallel()

	adv, _ := ingestKnowledgeBase(t)

	advice, err := adv.Advise(t.Context(), "xyzzy quux blorp")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if advice.Known {
		t.Errorf("nonsense query produced a confident %q recommendation", advice.Category)
	}
}

func TestEndToEnd_ReingestLeavesOnePointPerEntry(t *testing.T) {
	t.Parallel()

	emb := newCategoryEmbedder()
	store := &memoryStore{}
	pipeline, err := ingest.New(emb, store, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}

	if _, err := pipeline.Run(t.Context(), nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := len(store.points)

	if _, err := pipeline.Run(t.Context(), nil); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(store.points) != first {
		t.Errorf("point count after re-ingest = %d, want %d", len(store.points), first)
	}
}
