package memory

import (
	"context"
	"testing"

	"unified-assistant/internal/models"

	"github.com/google/uuid"
)

func chunk(docID string, embedding []float32) models.Chunk {
	return models.Chunk{
		ID:         uuid.New(),
		Domain:     models.DomainSOP,
		DocumentID: docID,
		Text:       docID + " text",
		Embedding:  embedding,
	}
}

func TestSearchOrdersByScore(t *testing.T) {
	ctx := context.Background()
	index := NewIndex()

	err := index.Upsert(ctx, []models.Chunk{
		chunk("far", []float32{0, 1, 0}),
		chunk("near", []float32{1, 0, 0}),
		chunk("mid", []float32{1, 1, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := index.Search(ctx, []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].Chunk.DocumentID != "near" || matches[1].Chunk.DocumentID != "mid" || matches[2].Chunk.DocumentID != "far" {
		t.Errorf("wrong order: %s, %s, %s",
			matches[0].Chunk.DocumentID, matches[1].Chunk.DocumentID, matches[2].Chunk.DocumentID)
	}
	if matches[0].Score < matches[1].Score || matches[1].Score < matches[2].Score {
		t.Error("scores not descending")
	}
}

func TestSearchTieKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	index := NewIndex()

	err := index.Upsert(ctx, []models.Chunk{
		chunk("first", []float32{1, 0, 0}),
		chunk("second", []float32{1, 0, 0}),
		chunk("third", []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		matches, err := index.Search(ctx, []float32{1, 0, 0}, 3)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		got := []string{matches[0].Chunk.DocumentID, matches[1].Chunk.DocumentID, matches[2].Chunk.DocumentID}
		want := []string{"first", "second", "third"}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: expected %v, got %v", i, want, got)
			}
		}
	}
}

func TestSearchTopKLimit(t *testing.T) {
	ctx := context.Background()
	index := NewIndex()

	err := index.Upsert(ctx, []models.Chunk{
		chunk("a", []float32{1, 0, 0}),
		chunk("b", []float32{0.9, 0.1, 0}),
		chunk("c", []float32{0.8, 0.2, 0}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := index.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestClearAndCount(t *testing.T) {
	ctx := context.Background()
	index := NewIndex()

	if err := index.Upsert(ctx, []models.Chunk{chunk("a", []float32{1})}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	count, err := index.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (err %v)", count, err)
	}

	if err := index.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	count, err = index.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected count 0 after clear, got %d (err %v)", count, err)
	}

	matches, err := index.Search(ctx, []float32{1}, 4)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches after clear, got %d", len(matches))
	}
}
