package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is one ingested source file recorded in the upload registry.
type Document struct {
	ID         uuid.UUID `db:"id"`
	Domain     Domain    `db:"domain"`
	FileName   string    `db:"file_name"`
	FileSize   int64     `db:"file_size"`
	ChunkCount int       `db:"chunk_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
