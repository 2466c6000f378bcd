package repository

import (
	"context"

	"unified-assistant/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DocumentRepository records which source files have been ingested per domain.
type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns("id", "domain", "file_name", "file_size", "chunk_count", "created_at", "updated_at").
		Values(doc.ID, doc.Domain, doc.FileName, doc.FileSize, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) ListByDomain(ctx context.Context, domain models.Domain, limit, offset int) ([]*models.Document, error) {
	query := squirrel.Select("id", "domain", "file_name", "file_size", "chunk_count", "created_at", "updated_at").
		From("documents").
		Where(squirrel.Eq{"domain": domain}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.Domain, &doc.FileName, &doc.FileSize, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DeleteByDomain clears the registry before a domain partition is rebuilt.
func (r *DocumentRepository) DeleteByDomain(ctx context.Context, domain models.Domain) error {
	query := squirrel.Delete("documents").
		Where(squirrel.Eq{"domain": domain}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
