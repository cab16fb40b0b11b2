package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/telemetry"
)

// VectorStore is the persistence interface for indexed records. It is the
// only component allowed to touch the backing vector index.
type VectorStore interface {
	// Upsert writes the record under its id, overwriting any existing
	// record in place. The operation is atomic per id.
	Upsert(ctx context.Context, rec domain.Record) error
	// Query returns at most limit candidates ordered by ascending distance.
	// The filter is applied before ranking.
	Query(ctx context.Context, embedding []float32, limit int, filter domain.SearchFilter) ([]domain.Match, error)
	// Get returns the record under id, or domain.ErrEntityNotFound.
	Get(ctx context.Context, id string) (*domain.Record, error)
	Delete(ctx context.Context, ids []string) error
	Reset(ctx context.Context) error
	Stats(ctx context.Context) (*domain.StoreStats, error)
}

// Indexer runs the ingestion tail of the pipeline: processed entries are
// upserted into the vector store.
type Indexer struct {
	processor *Processor
	store     VectorStore
}

func NewIndexer(processor *Processor, store VectorStore) *Indexer {
	return &Indexer{processor: processor, store: store}
}

// IndexEntities processes a batch of raw entities and upserts every
// resulting entry. Store failures on individual entries are logged and
// skipped so the rest of the batch still lands; a gateway failure aborts
// the batch before any write.
func (ix *Indexer) IndexEntities(ctx context.Context, entities []domain.Entity) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "Indexer.IndexEntities", telemetry.SpanAttributes{
		Operation: "index",
	})
	defer span.End()

	entries, err := ix.processor.ProcessBatch(ctx, entities)
	if err != nil {
		return 0, err
	}

	indexed := 0
	now := time.Now().UTC()
	for _, entry := range entries {
		rec := domain.Record{
			ID:        entry.ID,
			Document:  entry.Document,
			Metadata:  entry.Metadata,
			Embedding: entry.Embedding,
			UpdatedAt: now,
		}
		if err := ix.store.Upsert(ctx, rec); err != nil {
			log.Printf("failed to upsert record %s: %v", entry.ID, err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// IndexNew indexes only entities whose derived id is not already present in
// the store. Used by discovery runs to add new entities without touching
// existing ones.
func (ix *Indexer) IndexNew(ctx context.Context, entities []domain.Entity) (int, error) {
	fresh := make([]domain.Entity, 0, len(entities))
	for _, e := range Deduplicate(entities) {
		exists, err := ix.stored(ctx, e.ID())
		if err != nil {
			log.Printf("skipping %q, existence check failed: %v", e.Name, err)
			continue
		}
		if exists {
			continue
		}
		fresh = append(fresh, e)
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	return ix.IndexEntities(ctx, fresh)
}

// stored reports whether any record derived from the entity id exists.
// Multi-chunk entities are persisted only under "<id>#chunk_<i>" ids, so the
// bare id alone is not sufficient evidence of absence.
func (ix *Indexer) stored(ctx context.Context, id string) (bool, error) {
	_, err := ix.store.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, domain.ErrEntityNotFound) {
		return false, err
	}

	_, err = ix.store.Get(ctx, id+"#chunk_0")
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, domain.ErrEntityNotFound) {
		return false, err
	}
	return false, nil
}
