package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockChunkRepository mocks the chunk repository
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) Upsert(ctx context.Context, chunk *domain.Chunk) (int64, error) {
	args := m.Called(ctx, chunk)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, minSimilarity float64, filters SearchFilters, limit int) ([]*SearchResult, error) {
	args := m.Called(ctx, embedding, minSimilarity, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchResult), args.Error(1)
}

func (m *MockChunkRepository) DeleteChannel(ctx context.Context, channelID string) (int64, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(int64), args.Error(1)
}

func newTestStore(repo ChunkRepository, client EmbeddingClient) *ContentStore {
	embedder := NewEmbedderWithBudget(client, 8000, domain.DefaultEstimator())
	return NewContentStoreWithConfig(repo, embedder, ChunkConfig{MaxTokens: 10, Estimator: domain.CharEstimator{CharsPerToken: 1}})
}

func TestContentStore_UpsertChunk_RequiresKeys(t *testing.T) {
	store := newTestStore(new(MockChunkRepository), new(MockEmbeddingClient))
	ctx := context.Background()

	_, err := store.UpsertChunk(ctx, UpsertChunkInput{ThreadTS: "1.0", Content: "x"})
	assert.True(t, errors.Is(err, domain.ErrMissingChannel))

	_, err = store.UpsertChunk(ctx, UpsertChunkInput{ChannelID: "general", Content: "x"})
	assert.True(t, errors.Is(err, domain.ErrMissingThread))
}

func TestContentStore_UpsertChunk_EmbedsAndWrites(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	mockClient := new(MockEmbeddingClient)
	store := newTestStore(mockRepo, mockClient)

	ctx := context.Background()
	embedding := []float32{0.1, 0.2}
	origin := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)

	mockClient.On("GenerateEmbedding", ctx, "content").Return(embedding, nil)
	mockRepo.On("Upsert", ctx, mock.MatchedBy(func(c *domain.Chunk) bool {
		return c.ChannelID == "general" &&
			c.ThreadTS == "1700000000.000100" &&
			c.ChunkIndex == 2 &&
			c.Content == "content" &&
			c.SenderName == "Priya" &&
			c.CreatedAt.Equal(origin)
	})).Return(int64(42), nil)

	id, err := store.UpsertChunk(ctx, UpsertChunkInput{
		ChannelID:  "general",
		ThreadTS:   "1700000000.000100",
		ChunkIndex: 2,
		Content:    "content",
		SenderName: "Priya",
		OriginTime: origin,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
	mockRepo.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestContentStore_UpsertChunk_EmbeddingFailureAborts(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	mockClient := new(MockEmbeddingClient)
	store := newTestStore(mockRepo, mockClient)

	ctx := context.Background()
	mockClient.On("GenerateEmbedding", ctx, mock.Anything).Return(nil, errors.New("down"))

	_, err := store.UpsertChunk(ctx, UpsertChunkInput{ChannelID: "general", ThreadTS: "1.0", Content: "x"})

	assert.True(t, errors.Is(err, domain.ErrEmbeddingService))
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestContentStore_StoreDocument_EmptyTextNoWrites(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	store := newTestStore(mockRepo, new(MockEmbeddingClient))

	err := store.StoreDocument(context.Background(), StoreDocumentInput{
		ChannelID: "general",
		ThreadTS:  "1.0",
		FullText:  "   ",
	})

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestContentStore_StoreDocument_IndexesChunksContiguously(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	mockClient := new(MockEmbeddingClient)
	store := newTestStore(mockRepo, mockClient)

	ctx := context.Background()
	mockClient.On("GenerateEmbedding", ctx, mock.Anything).Return([]float32{0.1}, nil)

	var written []*domain.Chunk
	mockRepo.On("Upsert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		written = append(written, args.Get(1).(*domain.Chunk))
	}).Return(int64(1), nil)

	// Chunk budget is 10 chars, so three sentences land in 2+ chunks.
	err := store.StoreDocument(ctx, StoreDocumentInput{
		ChannelID: "general",
		ThreadTS:  "1700000000.000100",
		FullText:  "First one. Second one. Third one.",
	})

	assert.NoError(t, err)
	assert.Greater(t, len(written), 1)
	for i, c := range written {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "general", c.ChannelID)
		assert.Equal(t, "1700000000.000100", c.ThreadTS)
		assert.Equal(t, len(written), c.TotalChunks())
	}
}

func TestContentStore_StoreDocument_StopsOnWriteFailure(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	mockClient := new(MockEmbeddingClient)
	store := newTestStore(mockRepo, mockClient)

	ctx := context.Background()
	mockClient.On("GenerateEmbedding", ctx, mock.Anything).Return([]float32{0.1}, nil)
	mockRepo.On("Upsert", ctx, mock.Anything).Return(int64(0), domain.ErrStoreUnavailable)

	err := store.StoreDocument(ctx, StoreDocumentInput{
		ChannelID: "general",
		ThreadTS:  "1.0",
		FullText:  "First one. Second one. Third one.",
	})

	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	mockRepo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestContentStore_Search_EmptyQueryRejected(t *testing.T) {
	store := newTestStore(new(MockChunkRepository), new(MockEmbeddingClient))

	_, err := store.Search(context.Background(), "", 10, 0.7, SearchFilters{})

	assert.True(t, errors.Is(err, domain.ErrEmptyQuery))
}

func TestContentStore_Search_EmbedsQueryAndDelegates(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	mockClient := new(MockEmbeddingClient)
	store := newTestStore(mockRepo, mockClient)

	ctx := context.Background()
	queryVector := []float32{0.5, 0.5}
	results := []*SearchResult{{Content: "hit", Similarity: 0.9}}

	mockClient.On("GenerateEmbedding", ctx, "deploy process").Return(queryVector, nil)
	mockRepo.On("SearchSimilar", ctx, queryVector, 0.7, SearchFilters{Channel: "general"}, 5).Return(results, nil)

	got, err := store.Search(ctx, "deploy process", 5, 0.7, SearchFilters{Channel: "general"})

	assert.NoError(t, err)
	assert.Equal(t, results, got)
	mockRepo.AssertExpectations(t)
}

func TestContentStore_DeleteChannel(t *testing.T) {
	mockRepo := new(MockChunkRepository)
	store := newTestStore(mockRepo, new(MockEmbeddingClient))

	ctx := context.Background()
	mockRepo.On("DeleteChannel", ctx, "general").Return(int64(7), nil)

	count, err := store.DeleteChannel(ctx, "general")

	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)

	_, err = store.DeleteChannel(ctx, "")
	assert.True(t, errors.Is(err, domain.ErrMissingChannel))
}
