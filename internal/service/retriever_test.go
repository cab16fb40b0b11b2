package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finatlas/finatlas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func match(id, name, country, entityType string, distance float64) domain.Match {
	return domain.Match{
		Record: domain.Record{
			ID:       id,
			Document: "Name: " + name,
			Metadata: domain.Metadata{Name: name, Type: entityType, Country: country},
		},
		Distance: distance,
	}
}

func newTestRetriever(store VectorStore, embedder EmbeddingClient, llm CompletionClient) *Retriever {
	return NewRetriever(store, embedder, llm, DefaultRetrieverConfig())
}

func stubEmbedder() *MockEmbeddingClient {
	embedder := new(MockEmbeddingClient)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return([]float32{0.5, 0.5}, nil)
	return embedder
}

func TestSearch(t *testing.T) {
	t.Run("empty query is rejected", func(t *testing.T) {
		r := newTestRetriever(new(MockVectorStore), new(MockEmbeddingClient), nil)
		_, err := r.Search(context.Background(), "   ", 10, domain.SearchFilter{})
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	})

	t.Run("filters candidates below the similarity gate", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 10, domain.SearchFilter{}).
			Return([]domain.Match{
				match("a", "Wise", "US", "fintech", 0.1),
				match("b", "Remitly", "US", "fintech", 0.25),
				match("c", "Unrelated Bank", "BR", "bank", 0.6),
			}, nil)

		r := newTestRetriever(store, stubEmbedder(), nil)
		results, err := r.Search(context.Background(), "money transfer", 10, domain.SearchFilter{})

		require.NoError(t, err)
		require.Len(t, results, 2, "0.4 similarity is below the 0.7 gate")
		assert.Equal(t, "a", results[0].ID)
		assert.Equal(t, 0.9, results[0].SimilarityScore)
		assert.Equal(t, 0.75, results[1].SimilarityScore)
	})

	t.Run("similarity is rounded to three decimals", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.Match{match("a", "Wise", "US", "fintech", 0.12345)}, nil)

		r := newTestRetriever(store, stubEmbedder(), nil)
		results, err := r.Search(context.Background(), "q", 10, domain.SearchFilter{})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 0.877, results[0].SimilarityScore)
	})

	t.Run("embedding failure propagates as gateway error", func(t *testing.T) {
		embedder := new(MockEmbeddingClient)
		embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
			Return(nil, errors.New("api down"))

		r := newTestRetriever(new(MockVectorStore), embedder, nil)
		_, err := r.Search(context.Background(), "q", 10, domain.SearchFilter{})

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeGateway, domainErr.Code)
	})

	t.Run("store failure degrades to empty result", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused"))

		r := newTestRetriever(store, stubEmbedder(), nil)
		results, err := r.Search(context.Background(), "q", 10, domain.SearchFilter{})

		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 10, mock.Anything).
			Return([]domain.Match{}, nil).Once()
		store.On("Query", mock.Anything, mock.Anything, 100, mock.Anything).
			Return([]domain.Match{}, nil).Once()

		r := newTestRetriever(store, stubEmbedder(), nil)

		_, err := r.Search(context.Background(), "q", 0, domain.SearchFilter{})
		require.NoError(t, err)
		_, err = r.Search(context.Background(), "q", 500, domain.SearchFilter{})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestAsk(t *testing.T) {
	t.Run("no matching documents yields the canned answer", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.Match{}, nil)
		llm := new(MockCompletionClient)

		r := newTestRetriever(store, stubEmbedder(), llm)
		answer, err := r.Ask(context.Background(), "what banks operate in Venezuela?", 5)

		require.NoError(t, err)
		assert.Equal(t, "I couldn't find relevant information to answer your question.", answer.Answer)
		assert.Empty(t, answer.Sources)
		assert.Zero(t, answer.Confidence)
		llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("grounds the answer in numbered source blocks", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.Match{
				match("a", "Banco de Venezuela", "VE", "bank", 0.1),
				match("b", "Bancolombia", "CO", "bank", 0.2),
			}, nil)
		llm := new(MockCompletionClient)
		llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return containsAll(prompt, "Source 1:", "Source 2:", "Banco de Venezuela", "Bancolombia")
		})).Return("Banco de Venezuela is the largest state bank.", nil)

		r := newTestRetriever(store, stubEmbedder(), llm)
		answer, err := r.Ask(context.Background(), "what banks operate in Venezuela?", 5)

		require.NoError(t, err)
		assert.Equal(t, "Banco de Venezuela is the largest state bank.", answer.Answer)
		require.Len(t, answer.Sources, 2)
		assert.Equal(t, "Banco de Venezuela", answer.Sources[0].Name)
		assert.Equal(t, "VE", answer.Sources[0].Country)
		// Mean of 0.9 and 0.8.
		assert.Equal(t, 0.85, answer.Confidence)
	})

	t.Run("completion failure propagates", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.Match{match("a", "Wise", "US", "fintech", 0.1)}, nil)
		llm := new(MockCompletionClient)
		llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

		r := newTestRetriever(store, stubEmbedder(), llm)
		_, err := r.Ask(context.Background(), "question", 5)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeGateway, domainErr.Code)
	})
}

func TestCompare(t *testing.T) {
	fintechFilter := domain.SearchFilter{Type: domain.EntityTypeFintech}

	t.Run("no services found", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 10, fintechFilter).
			Return([]domain.Match{}, nil)

		r := newTestRetriever(store, stubEmbedder(), new(MockCompletionClient))
		comparison, err := r.Compare(context.Background(), "US", "VE", 200)

		require.NoError(t, err)
		assert.Empty(t, comparison.Options)
		assert.Zero(t, comparison.TotalFound)
		assert.Equal(t, "No remittance services found for US to VE", comparison.Comparison)
	})

	t.Run("compares the matched services", func(t *testing.T) {
		remittanceMatches := []domain.Match{
			match("a", "Wise", "US", "fintech", 0.1),
			match("b", "Remitly", "US", "fintech", 0.15),
			match("c", "Western Union", "US", "fintech", 0.2),
		}
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 10, fintechFilter).
			Return(remittanceMatches, nil).Once()
		// The follow-up question runs unfiltered over the top context.
		store.On("Query", mock.Anything, mock.Anything, 5, domain.SearchFilter{}).
			Return(remittanceMatches, nil).Once()

		llm := new(MockCompletionClient)
		llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return containsAll(prompt, "$200.00", "from US to VE")
		})).Return("Wise offers the lowest fees for this corridor.", nil)

		r := newTestRetriever(store, stubEmbedder(), llm)
		comparison, err := r.Compare(context.Background(), "US", "VE", 200)

		require.NoError(t, err)
		assert.Equal(t, 3, comparison.TotalFound)
		assert.Len(t, comparison.Options, 3)
		assert.Equal(t, "Wise offers the lowest fees for this corridor.", comparison.Comparison)
		store.AssertExpectations(t)
	})
}

func TestSuggestSimilar(t *testing.T) {
	ref := &domain.Record{ID: "ref-id", Document: "Name: Wise"}

	t.Run("excludes the reference entity and its chunks", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Get", mock.Anything, "ref-id").Return(ref, nil)
		store.On("Query", mock.Anything, mock.Anything, 3, domain.SearchFilter{}).
			Return([]domain.Match{
				match("ref-id", "Wise", "US", "fintech", 0.0),
				match("ref-id#chunk_1", "Wise", "US", "fintech", 0.01),
				match("other", "Remitly", "US", "fintech", 0.1),
			}, nil)

		r := newTestRetriever(store, stubEmbedder(), nil)
		results, err := r.SuggestSimilar(context.Background(), "ref-id", 2)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "other", results[0].ID)
	})

	t.Run("unknown entity yields empty suggestions", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Get", mock.Anything, "missing").Return(nil, domain.ErrEntityNotFound)

		r := newTestRetriever(store, stubEmbedder(), nil)
		results, err := r.SuggestSimilar(context.Background(), "missing", 5)

		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestGetEntitiesByCountry(t *testing.T) {
	t.Run("normalizes the country code", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 10, domain.SearchFilter{Country: "VE"}).
			Return([]domain.Match{match("a", "Banco de Venezuela", "VE", "bank", 0.1)}, nil)

		r := newTestRetriever(store, stubEmbedder(), nil)
		results, err := r.GetEntitiesByCountry(context.Background(), "ve", 10)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "VE", results[0].Metadata.Country)
	})

	t.Run("zero limit defaults to 20", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 20, domain.SearchFilter{Country: "VE"}).
			Return([]domain.Match{}, nil).Once()

		r := newTestRetriever(store, stubEmbedder(), nil)
		_, err := r.GetEntitiesByCountry(context.Background(), "ve", 0)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestGetEntitiesByType(t *testing.T) {
	t.Run("invalid type is rejected", func(t *testing.T) {
		r := newTestRetriever(new(MockVectorStore), new(MockEmbeddingClient), nil)
		_, err := r.GetEntitiesByType(context.Background(), "hedge_fund", 10)
		assert.ErrorIs(t, err, domain.ErrInvalidEntityType)
	})

	t.Run("zero limit defaults to 20", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("Query", mock.Anything, mock.Anything, 20, domain.SearchFilter{Type: domain.EntityTypeBank}).
			Return([]domain.Match{}, nil).Once()

		r := newTestRetriever(store, stubEmbedder(), nil)
		_, err := r.GetEntitiesByType(context.Background(), "bank", 0)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
