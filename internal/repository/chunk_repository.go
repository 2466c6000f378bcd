package repository

import (
	"context"
	"fmt"

	"unified-assistant/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ChunkRepository stores document chunks and their embeddings in Postgres
// with pgvector. All access goes through domain-scoped handles (ForDomain),
// which inject the partition filter so cross-domain reads cannot happen.
type ChunkRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChunkRepository(db *pgxpool.Pool, logger *zap.Logger) *ChunkRepository {
	return &ChunkRepository{
		db:     db,
		logger: logger,
	}
}

// ForDomain returns the index handle bound to one domain partition.
func (r *ChunkRepository) ForDomain(domain models.Domain) *DomainIndex {
	return &DomainIndex{repo: r, domain: domain}
}

// DomainIndex implements vectorstore.Index over one domain partition.
type DomainIndex struct {
	repo   *ChunkRepository
	domain models.Domain
}

func (d *DomainIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	return d.repo.insert(ctx, d.domain, chunks)
}

func (d *DomainIndex) Search(ctx context.Context, vector []float32, topK int) ([]models.Match, error) {
	return d.repo.searchSimilar(ctx, d.domain, vector, topK)
}

func (d *DomainIndex) Clear(ctx context.Context) error {
	return d.repo.deleteByDomain(ctx, d.domain)
}

func (d *DomainIndex) Count(ctx context.Context) (int, error) {
	return d.repo.countByDomain(ctx, d.domain)
}

func (r *ChunkRepository) insert(ctx context.Context, domain models.Domain, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	seq, err := r.nextSeq(ctx, domain)
	if err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].Domain = domain
		chunks[i].Seq = seq
		seq++

		embedding := pgtype.FlatArray[float32](chunks[i].Embedding)

		query := squirrel.Insert("chunks").
			Columns("id", "domain", "document_id", "title", "doc_type", "source_file", "seq", "text", "embedding", "created_at").
			Values(chunks[i].ID, chunks[i].Domain, chunks[i].DocumentID, chunks[i].Title, chunks[i].DocType,
				chunks[i].SourceFile, chunks[i].Seq, chunks[i].Text, embedding, chunks[i].CreatedAt).
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}

		if _, err := r.db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	r.logger.Info("Chunks indexed",
		zap.String("domain", string(domain)),
		zap.Int("count", len(chunks)),
	)
	return nil
}

// searchSimilar ranks by pgvector cosine distance; ties fall back to
// insertion order so repeated queries return identical citation order.
func (r *ChunkRepository) searchSimilar(ctx context.Context, domain models.Domain, vector []float32, topK int) ([]models.Match, error) {
	embedding := pgtype.FlatArray[float32](vector)

	query := squirrel.Select("id", "domain", "document_id", "title", "doc_type", "source_file", "seq", "text", "created_at").
		Column(squirrel.Expr("(embedding <=> ?) AS distance", embedding)).
		From("chunks").
		Where(squirrel.Eq{"domain": domain}).
		OrderBy("distance ASC", "seq ASC").
		Limit(uint64(topK)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var ch models.Chunk
		var distance float64
		if err := rows.Scan(
			&ch.ID, &ch.Domain, &ch.DocumentID, &ch.Title, &ch.DocType,
			&ch.SourceFile, &ch.Seq, &ch.Text, &ch.CreatedAt, &distance,
		); err != nil {
			return nil, err
		}
		// Cosine distance in [0,2]; report similarity to the caller.
		matches = append(matches, models.Match{Chunk: ch, Score: 1 - distance})
	}
	return matches, rows.Err()
}

func (r *ChunkRepository) deleteByDomain(ctx context.Context, domain models.Domain) error {
	query := squirrel.Delete("chunks").
		Where(squirrel.Eq{"domain": domain}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ChunkRepository) countByDomain(ctx context.Context, domain models.Domain) (int, error) {
	query := squirrel.Select("COUNT(*)").
		From("chunks").
		Where(squirrel.Eq{"domain": domain}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepository) nextSeq(ctx context.Context, domain models.Domain) (int, error) {
	query := squirrel.Select("COALESCE(MAX(seq), 0)").
		From("chunks").
		Where(squirrel.Eq{"domain": domain}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var max int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}
