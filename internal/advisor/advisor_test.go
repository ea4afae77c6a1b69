package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/b-franke/recyclebot/internal/index"
)

// fakeEmbedder returns a fixed vector and records whether it was called.
type fakeEmbedder struct {
	called bool
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

// fakeStore serves canned hits and records whether it was searched.
type fakeStore struct {
	hits     []index.Hit
	err      error
	searched bool
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }
func (f *fakeStore) Upsert(context.Context, []index.Point) error {
	return nil
}
func (f *fakeStore) Search(context.Context, []float32, int) ([]index.Hit, error) {
	f.searched = true
	return f.hits, f.err
}
func (f *fakeStore) Close() error { return nil }

func newAdvisor(t *testing.T, store *fakeStore) (*Advisor, *fakeEmbedder) {
	t.Helper()
	emb := &fakeEmbedder{}
	a, err := New(&Config{Embedder: emb, Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, emb
}

func hit(score float64, category, title string) index.Hit {
	return index.Hit{
		Score: score,
		Payload: map[string]any{
			"category":     category,
			"title":        title,
			"example":      "Bananenschale",
			"instructions": "Biotonne",
		},
	}
}

func TestShortQueryRejectedBeforeNetwork(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	a, emb := newAdvisor(t, store)

	_, err := a.Advise(t.Context(), "ab")
	if !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("err = %v, want ErrQueryTooShort", err)
	}
	if emb.called {
		t.Error("embedder called for a short query")
	}
	if store.searched {
		t.Error("index searched for a short query")
	}
}

func TestShortQueryAfterTrimming(t *testing.T) {
	t.Parallel()

	a, _ := newAdvisor(t, &fakeStore{})
	if _, err := a.Advise(t.Context(), "  a  "); !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("err = %v, want ErrQueryTooShort", err)
	}
}

func TestConfidentRecommendation(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []index.Hit{
		hit(0.91, "organic", "Bananenschale - organic"),
		hit(0.85, "organic", "Obstreste - organic"),
	}}
	a, _ := newAdvisor(t, store)

	advice, err := a.Advise(t.Context(), "Bananenschale")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if !advice.Known {
		t.Fatal("expected a known recommendation")
	}
	if advice.Category != "organic" {
		t.Errorf("category = %q, want organic", advice.Category)
	}
	if advice.Confidence != 0.91 {
		t.Errorf("confidence = %v, want 0.91", advice.Confidence)
	}
	if advice.Instructions != "Biotonne" {
		t.Errorf("instructions = %q, want Biotonne", advice.Instructions)
	}
	if advice.Impact == "" {
		t.Error("expected an environmental impact note")
	}
	if len(advice.SimilarItems) != 2 {
		t.Errorf("similar items = %v, want 2 entries", advice.SimilarItems)
	}
}

func TestBelowThresholdIsUnknown(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []index.Hit{hit(0.41, "plastic", "Folie - plastic")}}
	a, _ := newAdvisor(t, store)

	advice, err := a.Advise(t.Context(), "Raumschiff")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if advice.Known {
		t.Fatal("expected unknown for a low-confidence hit")
	}
	if advice.Category != "" {
		t.Errorf("category = %q, want empty", advice.Category)
	}
	// The near-miss score is still reported.
	if advice.Confidence != 0.41 {
		t.Errorf("confidence = %v, want 0.41", advice.Confidence)
	}
}

func TestExactThresholdIsAccepted(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []index.Hit{hit(DefaultMinScore, "glass", "Weinflasche - glass")}}
	a, _ := newAdvisor(t, store)

	advice, err := a.Advise(t.Context(), "Weinflasche")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if !advice.Known {
		t.Error("a hit scoring exactly the threshold should be accepted")
	}
}

func TestNoHitsIsUnknown(t *testing.T) {
	t.Parallel()

	a, _ := newAdvisor(t, &fakeStore{})

	advice, err := a.Advise(t.Context(), "irgendwas")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if advice.Known {
		t.Error("expected unknown when the index returns no hits")
	}
	if advice.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", advice.Confidence)
	}
}

func TestEmbedderFailurePropagates(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{err: errors.New("upstream down")}
	a, err := New(&Config{Embedder: emb, Store: &fakeStore{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Advise(t.Context(), "Karton"); err == nil {
		t.Fatal("expected embedder failure to propagate")
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	t.Parallel()

	store := &fakeStore{err: errors.New("index unavailable")}
	a, _ := newAdvisor(t, store)
	if _, err := a.Advise(t.Context(), "Karton"); err == nil {
		t.Fatal("expected index failure to propagate")
	}
}

func TestCustomThreshold(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []index.Hit{hit(0.7, "paper", "Zeitung - paper")}}
	a, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store, MinScore: 0.8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	advice, err := a.Advise(t.Context(), "Zeitung")
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if advice.Known {
		t.Error("hit below a raised threshold should be unknown")
	}
}
