package vectorindex

import (
	"context"
	"math"
	"strings"
	"testing"

	"docuchat/internal/loader"
)

// vocabEmbedding embeds text as normalized term counts over a tiny fixed
// vocabulary, enough for deterministic similarity ordering in tests.
func vocabEmbedding(vocab ...string) func(ctx context.Context, text string) ([]float32, error) {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, len(vocab)+1)
		words := strings.Fields(strings.ToLower(text))
		for _, w := range words {
			matched := false
			for i, v := range vocab {
				if w == v {
					vec[i]++
					matched = true
					break
				}
			}
			if !matched {
				vec[len(vocab)]++
			}
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			vec[len(vocab)] = 1
			return vec, nil
		}
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
		return vec, nil
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("", vocabEmbedding("revenue", "contract", "lease"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestIndexAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []loader.Document{
		{Text: "revenue revenue grew", Metadata: map[string]string{"line": "2"}},
		{Text: "contract contract signed", Metadata: map[string]string{"line": "3"}},
		{Text: "lease lease expired", Metadata: map[string]string{"line": "4"}},
	}
	if err := store.IndexDocuments(ctx, "file-1", docs); err != nil {
		t.Fatalf("index documents: %v", err)
	}

	passages, err := store.SimilaritySearch(ctx, "file-1", "revenue", 2)
	if err != nil {
		t.Fatalf("similarity search: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if !strings.Contains(passages[0].PageContent, "revenue") {
		t.Fatalf("expected revenue passage first, got %q", passages[0].PageContent)
	}
	if passages[0].Metadata["line"] != "2" {
		t.Fatalf("metadata lost: %#v", passages[0].Metadata)
	}
}

func TestSearchMissingNamespace(t *testing.T) {
	store := newTestStore(t)
	passages, err := store.SimilaritySearch(context.Background(), "no-such-file", "anything", 4)
	if err != nil {
		t.Fatalf("search missing namespace: %v", err)
	}
	if len(passages) != 0 {
		t.Fatalf("expected no passages, got %d", len(passages))
	}
}

func TestSearchClampsK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []loader.Document{{Text: "revenue up"}}
	if err := store.IndexDocuments(ctx, "file-2", docs); err != nil {
		t.Fatalf("index: %v", err)
	}
	passages, err := store.SimilaritySearch(ctx, "file-2", "revenue", 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
}

func TestReindexOverwritesNamespace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []loader.Document{
		{Text: "revenue one"},
		{Text: "revenue two"},
	}
	if err := store.IndexDocuments(ctx, "file-3", first); err != nil {
		t.Fatalf("first index: %v", err)
	}
	second := []loader.Document{{Text: "lease only"}}
	if err := store.IndexDocuments(ctx, "file-3", second); err != nil {
		t.Fatalf("second index: %v", err)
	}
	passages, err := store.SimilaritySearch(ctx, "file-3", "lease", 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(passages) != 1 || !strings.Contains(passages[0].PageContent, "lease") {
		t.Fatalf("namespace not overwritten: %#v", passages)
	}
}

func TestIndexRejectsEmptyInput(t *testing.T) {
	store := newTestStore(t)
	if err := store.IndexDocuments(context.Background(), "file-4", nil); err == nil {
		t.Fatalf("expected error for zero documents")
	}
	if err := store.IndexDocuments(context.Background(), "", []loader.Document{{Text: "x"}}); err == nil {
		t.Fatalf("expected error for empty namespace")
	}
}

func TestDropNamespace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.IndexDocuments(ctx, "file-5", []loader.Document{{Text: "revenue"}}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := store.DropNamespace(ctx, "file-5"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	passages, err := store.SimilaritySearch(ctx, "file-5", "revenue", 4)
	if err != nil {
		t.Fatalf("search after drop: %v", err)
	}
	if len(passages) != 0 {
		t.Fatalf("expected empty result after drop, got %d", len(passages))
	}
}
