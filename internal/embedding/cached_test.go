package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
)

// fakeEmbedder implements Embedder for tests. It returns a deterministic
// vector per text and records every batch it receives.
type fakeEmbedder struct {
	// batches records the texts of each Embed call.
	batches [][]string
	// err, when set, is returned by every Embed call.
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(i)}
	}
	return out, nil
}

func (f *fakeEmbedder) calls() int { return len(f.batches) }

func newTestCached(t *testing.T, inner Embedder, batchSize int) *CachedEmbedder {
	t.Helper()
	cache := OpenCache(":memory:", slog.Default())
	t.Cleanup(func() { _ = cache.Close() })
	e, err := NewCached(inner, cache, batchSize)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	return e
}

func TestCachedEmbed_OrderAndLengthPreserved(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedder{}
	e := newTestCached(t, fake, 0)

	texts := []string{"Bananenschale", "Zeitung", "Batterie", "Handy"}
	vectors, err := e.Embed(t.Context(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	for i, text := range texts {
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vector %d does not correspond to input %q", i, text)
		}
	}
}

func TestCachedEmbed_SecondCallHitsCache(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedder{}
	e := newTestCached(t, fake, 0)

	if _, err := e.Embed(t.Context(), []string{"Teebeutel"}); err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	first, _ := e.Embed(t.Context(), []string{"Teebeutel"})
	if fake.calls() != 1 {
		t.Errorf("expected 1 provider call, got %d", fake.calls())
	}
	// Same text yields the same vector on the cached path.
	second, _ := e.Embed(t.Context(), []string{"Teebeutel"})
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}
}

func TestCachedEmbed_DeduplicatesWithinCall(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedder{}
	e := newTestCached(t, fake, 0)

	texts := []string{"Windel", "Windel", " Windel "}
	vectors, err := e.Embed(t.Context(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(fake.batches) != 1 || len(fake.batches[0]) != 1 {
		t.Errorf("expected a single deduplicated text, got batches %v", fake.batches)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 result slots, got %d", len(vectors))
	}
}

func TestCachedEmbed_BatchPartitioning(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedder{}
	e := newTestCached(t, fake, 2)

	texts := []string{"a1", "b22", "c333", "d4444", "e55555"}
	if _, err := e.Embed(t.Context(), texts); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if fake.calls() != 3 {
		t.Errorf("expected 3 batches of size <=2, got %d", fake.calls())
	}
	for i, batch := range fake.batches {
		if len(batch) > 2 {
			t.Errorf("batch %d exceeds batch size: %v", i, batch)
		}
	}
}

func TestCachedEmbed_ProviderFailurePropagates(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedder{err: fmt.Errorf("boom")}
	e := newTestCached(t, fake, 0)

	if _, err := e.Embed(t.Context(), []string{"Spraydose"}); err == nil {
		t.Fatal("expected error from failing provider")
	}
}

func TestCachedEmbed_EmptyInput(t *testing.T) {
	t.Parallel()

	fake := &fakeEmbedder{}
	e := newTestCached(t, fake, 0)

	vectors, err := e.Embed(t.Context(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected no vectors, got %d", len(vectors))
	}
	if fake.calls() != 0 {
		t.Errorf("expected no provider calls for empty input, got %d", fake.calls())
	}
}
