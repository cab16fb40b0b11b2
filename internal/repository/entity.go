package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finatlas/finatlas/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const collectionName = "financial_entities"

// EntityRepository is the pgvector-backed vector store for indexed entity
// records. One row per record id; the embedding column is indexed for
// cosine distance.
type EntityRepository struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewEntityRepository(pool *pgxpool.Pool, dimensions int) *EntityRepository {
	return &EntityRepository{pool: pool, dimensions: dimensions}
}

// Upsert inserts the record or overwrites the existing row in place.
// ON CONFLICT makes the write atomic per id, so concurrent writers for the
// same id cannot produce duplicates or lost interleaved updates.
func (r *EntityRepository) Upsert(ctx context.Context, rec domain.Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO entities (id, name, type, country, api_available, url, document, embedding, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			country = EXCLUDED.country,
			api_available = EXCLUDED.api_available,
			url = EXCLUDED.url,
			document = EXCLUDED.document,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at`,
		rec.ID,
		rec.Metadata.Name,
		rec.Metadata.Type,
		rec.Metadata.Country,
		rec.Metadata.APIAvailable,
		rec.Metadata.URL,
		rec.Document,
		pgvector.NewVector(rec.Embedding),
		updatedAt,
	)
	return err
}

// Query returns at most limit records ordered by ascending cosine distance
// to the query vector. Filter fields restrict candidates in the WHERE
// clause, before ranking, so results already satisfy the filter.
func (r *EntityRepository) Query(ctx context.Context, embedding []float32, limit int, filter domain.SearchFilter) ([]domain.Match, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	query := `SELECT id, name, type, country, api_available, url, document, embedding <=> $1 AS distance
		 FROM entities`
	args := []interface{}{vec}

	where := ""
	if filter.Country != "" {
		args = append(args, filter.Country)
		where = fmt.Sprintf(" WHERE country = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		if where == "" {
			where = fmt.Sprintf(" WHERE type = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND type = $%d", len(args))
		}
	}

	args = append(args, limit)
	query += where + fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.Match, 0, limit)
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(
			&m.ID,
			&m.Metadata.Name,
			&m.Metadata.Type,
			&m.Metadata.Country,
			&m.Metadata.APIAvailable,
			&m.Metadata.URL,
			&m.Document,
			&m.Distance,
		); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Get returns the record under id, or domain.ErrEntityNotFound.
func (r *EntityRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	var rec domain.Record
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, type, country, api_available, url, document, embedding, updated_at
		 FROM entities WHERE id = $1`,
		id,
	).Scan(
		&rec.ID,
		&rec.Metadata.Name,
		&rec.Metadata.Type,
		&rec.Metadata.Country,
		&rec.Metadata.APIAvailable,
		&rec.Metadata.URL,
		&rec.Document,
		&vec,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, err
	}
	rec.Embedding = vec.Slice()
	return &rec, nil
}

// Delete removes the given record ids. Unknown ids are ignored.
func (r *EntityRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM entities WHERE id = ANY($1)`, ids)
	return err
}

// Reset drops every record and resets the store to empty.
func (r *EntityRepository) Reset(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE TABLE entities`)
	return err
}

// Stats returns the collection name, record count, and index metadata.
func (r *EntityRepository) Stats(ctx context.Context) (*domain.StoreStats, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM entities`).Scan(&count); err != nil {
		return nil, err
	}
	return &domain.StoreStats{
		Name:  collectionName,
		Count: count,
		Metadata: map[string]string{
			"description": "Financial institutions across the Americas",
			"dimension":   fmt.Sprintf("%d", r.dimensions),
			"metric":      "cosine",
		},
	}, nil
}
