package service

import (
	"context"
	"fmt"
	"log"

	"github.com/finatlas/finatlas/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexEntry is a fully processed record ready to be written to the vector
// store. ID is the derived entity id, suffixed with "#chunk_<i>" when the
// document was split.
type IndexEntry struct {
	ID        string
	Document  string
	Metadata  domain.Metadata
	Embedding []float32
}

// Processor turns raw collected entities into index entries: validate,
// deduplicate, normalize, render, chunk, embed.
type Processor struct {
	normalizer *Normalizer
	embedder   EmbeddingClient
	chunkCfg   ChunkConfig
}

// NewProcessor creates a Processor.
func NewProcessor(normalizer *Normalizer, embedder EmbeddingClient, chunkCfg ChunkConfig) *Processor {
	if chunkCfg.Size <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &Processor{
		normalizer: normalizer,
		embedder:   embedder,
		chunkCfg:   chunkCfg,
	}
}

// Prepare validates, deduplicates, and renders a batch without generating
// embeddings. Invalid entities are dropped and logged; identity hashes are
// derived from the raw records before any cleaning.
func (p *Processor) Prepare(raw []domain.Entity) []IndexEntry {
	valid := make([]domain.Entity, 0, len(raw))
	for _, e := range raw {
		if err := p.normalizer.Validate(e); err != nil {
			log.Printf("dropping invalid entity %q: %v", e.Name, err)
			continue
		}
		valid = append(valid, e)
	}

	unique := Deduplicate(valid)
	if dropped := len(valid) - len(unique); dropped > 0 {
		log.Printf("removed %d duplicate entities", dropped)
	}

	entries := make([]IndexEntry, 0, len(unique))
	for _, e := range unique {
		id := e.ID()
		norm := p.normalizer.Normalize(e)
		meta := domain.Metadata{
			Name:         norm.Name,
			Type:         string(norm.Type),
			Country:      norm.Country,
			APIAvailable: norm.APIAvailable,
			URL:          norm.URL,
		}

		doc := BuildDocument(norm)
		chunks := ChunkText(doc, p.chunkCfg)
		if len(chunks) == 1 {
			entries = append(entries, IndexEntry{ID: id, Document: doc, Metadata: meta})
			continue
		}
		for i, chunk := range chunks {
			entries = append(entries, IndexEntry{
				ID:       fmt.Sprintf("%s#chunk_%d", id, i),
				Document: chunk,
				Metadata: meta,
			})
		}
	}
	return entries
}

// ProcessBatch prepares a batch and attaches embeddings. An embedding
// gateway failure fails the whole batch: a record indexed without its vector
// would corrupt the index.
func (p *Processor) ProcessBatch(ctx context.Context, raw []domain.Entity) ([]IndexEntry, error) {
	entries := p.Prepare(raw)
	if len(entries) == 0 {
		return nil, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Document
	}

	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGateway, "failed to generate embeddings", err)
	}
	if len(embeddings) != len(entries) {
		return nil, domain.NewDomainError(domain.ErrCodeGateway, "embedding count does not match document count")
	}

	for i := range entries {
		entries[i].Embedding = embeddings[i]
	}

	log.Printf("processed %d entities into %d index entries", len(raw), len(entries))
	return entries, nil
}
