package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/telemetry"
)

// CompletionClient defines the interface for language-model completions.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetrieverConfig controls retrieval behavior.
type RetrieverConfig struct {
	// MinSimilarityScore is a hard gate: candidates below it are dropped
	// even when that leaves fewer results than requested.
	MinSimilarityScore float64
	DefaultLimit       int
	MaxLimit           int
}

// DefaultRetrieverConfig mirrors the production defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		MinSimilarityScore: 0.7,
		DefaultLimit:       10,
		MaxLimit:           100,
	}
}

// SearchResult is a retrieval hit above the similarity gate.
type SearchResult struct {
	ID              string          `json:"id"`
	Document        string          `json:"document"`
	Metadata        domain.Metadata `json:"metadata"`
	SimilarityScore float64         `json:"similarity_score"`
}

// Source identifies a document that grounded an answer.
type Source struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Country    string  `json:"country"`
	Similarity float64 `json:"similarity"`
}

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// Comparison is the result of a remittance comparison between two countries.
type Comparison struct {
	Options    []SearchResult `json:"options"`
	Comparison string         `json:"comparison"`
	Sources    []Source       `json:"sources"`
	TotalFound int            `json:"total_found"`
}

const noInformationAnswer = "I couldn't find relevant information to answer your question."

const answerPrompt = `You are an expert assistant for financial institutions in the Americas.
Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
Always provide specific institution names, countries, and relevant details.

Context:
%s

Question: %s

Answer in a clear, professional manner with specific details:`

// Retriever executes similarity search and RAG answer synthesis over the
// vector store.
type Retriever struct {
	store    VectorStore
	embedder EmbeddingClient
	llm      CompletionClient
	cfg      RetrieverConfig
}

// NewRetriever creates a Retriever.
func NewRetriever(store VectorStore, embedder EmbeddingClient, llm CompletionClient, cfg RetrieverConfig) *Retriever {
	if cfg.DefaultLimit <= 0 {
		cfg = DefaultRetrieverConfig()
	}
	return &Retriever{store: store, embedder: embedder, llm: llm, cfg: cfg}
}

// Search embeds the query and returns store candidates above the similarity
// gate, nearest first, scores rounded to three decimals. A store failure
// degrades to an empty result with a logged error; an embedding gateway
// failure fails the call, since there is nothing meaningful to search with.
func (r *Retriever) Search(ctx context.Context, query string, limit int, filter domain.SearchFilter) ([]SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Search", telemetry.SpanAttributes{
		Country:   filter.Country,
		Operation: "search",
	})
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	limit = r.clampLimit(limit)

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGateway, "failed to embed query", err)
	}

	matches, err := r.store.Query(ctx, embedding, limit, filter)
	if err != nil {
		log.Printf("vector store query failed, returning empty result: %v", err)
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		// Cosine distance from pgvector lands in [0,2], so similarity
		// is 1-distance in [-1,1]. A different metric would need a
		// different conversion.
		similarity := 1 - m.Distance
		if similarity < r.cfg.MinSimilarityScore {
			continue
		}
		results = append(results, SearchResult{
			ID:              m.ID,
			Document:        m.Document,
			Metadata:        m.Metadata,
			SimilarityScore: round3(similarity),
		})
	}

	log.Printf("search for %q returned %d results", query, len(results))
	return results, nil
}

// Ask answers a natural-language question grounded in retrieved documents.
// No matching documents is a defined terminal state, not an error: the
// caller gets a canned answer with confidence 0.
func (r *Retriever) Ask(ctx context.Context, question string, contextLimit int) (*Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Ask", telemetry.SpanAttributes{
		Operation: "ask",
	})
	defer span.End()

	docs, err := r.Search(ctx, question, contextLimit, domain.SearchFilter{})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return &Answer{
			Answer:     noInformationAnswer,
			Sources:    []Source{},
			Confidence: 0.0,
		}, nil
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Source %d:\n%s", i+1, doc.Document)
	}

	prompt := fmt.Sprintf(answerPrompt, sb.String(), question)
	answer, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGateway, "failed to generate answer", err)
	}

	total := 0.0
	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		total += doc.SimilarityScore
		sources = append(sources, Source{
			Name:       doc.Metadata.Name,
			Type:       doc.Metadata.Type,
			Country:    doc.Metadata.Country,
			Similarity: doc.SimilarityScore,
		})
	}

	return &Answer{
		Answer:     answer,
		Sources:    sources,
		Confidence: round3(total / float64(len(docs))),
	}, nil
}

// Compare looks up remittance fintechs serving the given corridor and asks
// for a comparison over the strongest matches.
func (r *Retriever) Compare(ctx context.Context, fromCountry, toCountry string, amount float64) (*Comparison, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Compare", telemetry.SpanAttributes{
		Country:   toCountry,
		Operation: "compare",
	})
	defer span.End()

	filter, err := domain.NewSearchFilter("", string(domain.EntityTypeFintech))
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("remittance services from %s to %s", fromCountry, toCountry)
	services, err := r.Search(ctx, query, 10, filter)
	if err != nil {
		return nil, err
	}

	if len(services) == 0 {
		return &Comparison{
			Options:    []SearchResult{},
			Comparison: fmt.Sprintf("No remittance services found for %s to %s", fromCountry, toCountry),
			Sources:    []Source{},
			TotalFound: 0,
		}, nil
	}

	question := fmt.Sprintf(
		"Compare the best remittance options to send $%.2f from %s to %s. Consider fees, speed, reliability, and user ratings. Provide a clear recommendation.",
		amount, fromCountry, toCountry,
	)
	answer, err := r.Ask(ctx, question, 5)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Options:    services,
		Comparison: answer.Answer,
		Sources:    answer.Sources,
		TotalFound: len(services),
	}, nil
}

// GetEntityByID returns the indexed record under the given id.
func (r *Retriever) GetEntityByID(ctx context.Context, id string) (*domain.Record, error) {
	return r.store.Get(ctx, id)
}

// Country and type listings default to a larger page than free-text search.
const defaultListingLimit = 20

// GetEntitiesByCountry returns entities indexed for a country.
func (r *Retriever) GetEntitiesByCountry(ctx context.Context, countryCode string, limit int) ([]SearchResult, error) {
	filter, err := domain.NewSearchFilter(countryCode, "")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListingLimit
	}
	query := fmt.Sprintf("financial institutions in %s", filter.Country)
	return r.Search(ctx, query, limit, filter)
}

// GetEntitiesByType returns entities of a given type.
func (r *Retriever) GetEntitiesByType(ctx context.Context, entityType string, limit int) ([]SearchResult, error) {
	filter, err := domain.NewSearchFilter("", entityType)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListingLimit
	}
	query := fmt.Sprintf("%s institutions", filter.Type)
	return r.Search(ctx, query, limit, filter)
}

// SuggestSimilar finds entities similar to a reference entity, excluding the
// reference itself.
func (r *Retriever) SuggestSimilar(ctx context.Context, entityID string, limit int) ([]SearchResult, error) {
	rec, err := r.store.Get(ctx, entityID)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			return []SearchResult{}, nil
		}
		return nil, err
	}

	candidates, err := r.Search(ctx, rec.Document, limit+1, domain.SearchFilter{})
	if err != nil {
		return nil, err
	}

	similar := make([]SearchResult, 0, limit)
	for _, c := range candidates {
		if c.ID == entityID || strings.HasPrefix(c.ID, entityID+"#") {
			continue
		}
		similar = append(similar, c)
		if len(similar) == limit {
			break
		}
	}
	return similar, nil
}

func (r *Retriever) clampLimit(limit int) int {
	if limit <= 0 {
		return r.cfg.DefaultLimit
	}
	if r.cfg.MaxLimit > 0 && limit > r.cfg.MaxLimit {
		return r.cfg.MaxLimit
	}
	return limit
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
