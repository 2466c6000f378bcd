package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"unified-assistant/internal/models"
)

// Index is a brute-force cosine-similarity store. One instance holds one
// domain partition. Suitable for local runs and tests; production uses the
// pgvector-backed repository.
type Index struct {
	mu     sync.RWMutex
	chunks []models.Chunk
}

func NewIndex() *Index { return &Index{} }

func (s *Index) Upsert(_ context.Context, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Search returns the topK most similar chunks, score descending; equal
// scores keep insertion order so results are deterministic.
func (s *Index) Search(_ context.Context, vector []float32, topK int) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		topK = 4
	}

	matches := make([]models.Match, 0, len(s.chunks))
	for _, ch := range s.chunks {
		matches = append(matches, models.Match{Chunk: ch, Score: cosine(ch.Embedding, vector)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

func (s *Index) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

func (s *Index) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
