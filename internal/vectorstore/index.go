package vectorstore

import (
	"context"

	"unified-assistant/internal/models"
)

// Index is one domain's similarity index. Each domain gets its own Index
// handle, so a query can never see another domain's chunks by construction.
type Index interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, vector []float32, topK int) ([]models.Match, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
