package embedding

import (
	"context"
	"reflect"
	"testing"
)

func TestMockEmbedder(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	t.Run("Deterministic", func(t *testing.T) {
		first, err := embedder.EmbedQuery(ctx, "Hello world")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(first) != 4 {
			t.Fatalf("Expected dimension 4, got: %d", len(first))
		}

		second, _ := embedder.EmbedQuery(ctx, "Hello world")
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("Expected consistent embeddings for same text")
		}

		other, _ := embedder.EmbedQuery(ctx, "Different text")
		if reflect.DeepEqual(first, other) {
			t.Fatalf("Expected different embeddings for different text")
		}
	})

	t.Run("CountsCalls", func(t *testing.T) {
		before := embedder.Calls
		_, _ = embedder.EmbedQuery(ctx, "one more")
		if embedder.Calls != before+1 {
			t.Fatalf("Expected call counter to advance")
		}
	})
}
