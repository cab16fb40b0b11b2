package openai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockCompletionAPI struct {
	mock.Mock
}

func (m *MockCompletionAPI) CreateCompletion(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func embeddingsOfDim(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
	}
	return out
}

func TestGenerateEmbedding(t *testing.T) {
	t.Run("delegates to the batch path", func(t *testing.T) {
		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, []string{"hello"}).
			Return(embeddingsOfDim(1, 3), nil)

		c := &Client{embeddings: api, dimensions: 3}
		embedding, err := c.GenerateEmbedding(context.Background(), "hello")

		require.NoError(t, err)
		assert.Len(t, embedding, 3)
	})

	t.Run("empty text", func(t *testing.T) {
		c := &Client{embeddings: new(MockEmbeddingAPI), dimensions: 3}
		_, err := c.GenerateEmbedding(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestGenerateEmbeddings(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		c := &Client{embeddings: new(MockEmbeddingAPI), dimensions: 3}
		_, err := c.GenerateEmbeddings(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("splits oversized input into api-limit batches", func(t *testing.T) {
		texts := make([]string, MaxEmbeddingBatchSize+10)
		for i := range texts {
			texts[i] = fmt.Sprintf("text %d", i)
		}

		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, mock.MatchedBy(func(batch []string) bool {
			return len(batch) == MaxEmbeddingBatchSize
		})).Return(embeddingsOfDim(MaxEmbeddingBatchSize, 3), nil).Once()
		api.On("CreateEmbeddings", mock.Anything, mock.MatchedBy(func(batch []string) bool {
			return len(batch) == 10
		})).Return(embeddingsOfDim(10, 3), nil).Once()

		c := &Client{embeddings: api, dimensions: 3}
		embeddings, err := c.GenerateEmbeddings(context.Background(), texts)

		require.NoError(t, err)
		assert.Len(t, embeddings, MaxEmbeddingBatchSize+10)
		api.AssertExpectations(t)
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, mock.Anything).
			Return(embeddingsOfDim(1, 5), nil)

		c := &Client{embeddings: api, dimensions: 3}
		_, err := c.GenerateEmbeddings(context.Background(), []string{"x"})
		assert.ErrorIs(t, err, ErrWrongDimensions)
	})

	t.Run("api failure is wrapped", func(t *testing.T) {
		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, mock.Anything).
			Return(nil, errors.New("quota exceeded"))

		c := &Client{embeddings: api, dimensions: 3}
		_, err := c.GenerateEmbeddings(context.Background(), []string{"x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestComplete(t *testing.T) {
	t.Run("returns the completion", func(t *testing.T) {
		api := new(MockCompletionAPI)
		api.On("CreateCompletion", mock.Anything, "prompt").Return("answer", nil)

		c := &Client{completions: api}
		answer, err := c.Complete(context.Background(), "prompt")

		require.NoError(t, err)
		assert.Equal(t, "answer", answer)
	})

	t.Run("empty prompt", func(t *testing.T) {
		c := &Client{completions: new(MockCompletionAPI)}
		_, err := c.Complete(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	c, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewClientWithConfigDefaults(t *testing.T) {
	c := NewClientWithConfig(Config{APIKey: "test"})
	assert.Equal(t, DefaultEmbeddingDimensions, c.dimensions)
	assert.Nil(t, c.limiter)

	throttled := NewClientWithConfig(Config{APIKey: "test", RequestsPerSecond: 2})
	assert.NotNil(t, throttled.limiter)
}
