package index

import "testing"

func TestNewFromEnvDefaultsToHTTP(t *testing.T) {
	t.Setenv("QDRANT_TRANSPORT", "")

	store, err := NewFromEnv(&stubEmbedder{dim: 8}, nil)
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if _, ok := store.(*HTTPStore); !ok {
		t.Errorf("default store type = %T, want *HTTPStore", store)
	}
}

func TestNewFromEnvRejectsUnknownTransport(t *testing.T) {
	t.Setenv("QDRANT_TRANSPORT", "carrier-pigeon")

	if _, err := NewFromEnv(&stubEmbedder{dim: 8}, nil); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestNewFromEnvUsesConfiguredCollection(t *testing.T) {
	t.Setenv("QDRANT_TRANSPORT", "http")
	t.Setenv("QDRANT_COLLECTION", "custom_docs")

	store, err := NewFromEnv(&stubEmbedder{dim: 8}, nil)
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	hs, ok := store.(*HTTPStore)
	if !ok {
		t.Fatalf("store type = %T, want *HTTPStore", store)
	}
	if hs.cfg.Collection != "custom_docs" {
		t.Errorf("collection = %q, want custom_docs", hs.cfg.Collection)
	}
}
