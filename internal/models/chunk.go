package models

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one indexed unit of document text. Chunks are immutable once
// written; re-ingesting a domain drops its partition and writes new rows.
type Chunk struct {
	ID         uuid.UUID `db:"id"`
	Domain     Domain    `db:"domain"`
	DocumentID string    `db:"document_id"` // e.g. "SOP-HC-014"
	Title      string    `db:"title"`
	DocType    string    `db:"doc_type"` // Standard Operating Procedure, Work Instruction, ...
	SourceFile string    `db:"source_file"`
	Seq        int       `db:"seq"` // insertion order within the domain, tie-break key
	Text       string    `db:"text"`
	Embedding  []float32 `db:"embedding"`
	CreatedAt  time.Time `db:"created_at"`
}

// Match is a retrieved chunk with its similarity score.
type Match struct {
	Chunk Chunk
	Score float64
}
