package service

import (
	"context"
	"time"

	"github.com/loreweave/loreweave/internal/domain"
)

// SearchFilters narrows a similarity search. Zero values mean "no filter";
// date bounds are inclusive.
type SearchFilters struct {
	Channel string
	User    string
	MinDate time.Time
	MaxDate time.Time
}

// SearchResult is one similarity-ranked chunk returned from the store.
type SearchResult struct {
	Content     string
	SenderName  string
	SenderTitle string
	ChannelID   string
	ThreadTS    string
	ChunkIndex  int
	Metadata    map[string]any
	Similarity  float64
	CreatedAt   time.Time
}

// ChunkRepository defines the persistence interface for the content store.
type ChunkRepository interface {
	Upsert(ctx context.Context, chunk *domain.Chunk) (int64, error)
	SearchSimilar(ctx context.Context, embedding []float32, minSimilarity float64, filters SearchFilters, limit int) ([]*SearchResult, error)
	DeleteChannel(ctx context.Context, channelID string) (int64, error)
}

// ContentStore persists chunked, embedded documents and serves similarity
// search over them.
type ContentStore struct {
	repo     ChunkRepository
	embedder *Embedder
	chunkCfg ChunkConfig
}

// NewContentStore creates a ContentStore with default chunking.
func NewContentStore(repo ChunkRepository, embedder *Embedder) *ContentStore {
	return NewContentStoreWithConfig(repo, embedder, DefaultChunkConfig())
}

// NewContentStoreWithConfig creates a ContentStore with explicit chunking
// configuration.
func NewContentStoreWithConfig(repo ChunkRepository, embedder *Embedder, chunkCfg ChunkConfig) *ContentStore {
	if chunkCfg.MaxTokens <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &ContentStore{repo: repo, embedder: embedder, chunkCfg: chunkCfg}
}

// UpsertChunkInput carries one chunk write.
type UpsertChunkInput struct {
	ChannelID   string
	ThreadTS    string
	ChunkIndex  int
	Content     string
	SenderName  string
	SenderTitle string
	Metadata    map[string]any
	// OriginTime is the true origin time of the source message; when zero
	// the write time is used instead.
	OriginTime time.Time
}

// UpsertChunk embeds the content and writes it keyed by
// (channel, thread, index). Re-running on unchanged input updates the
// existing row in place rather than appending a duplicate.
func (s *ContentStore) UpsertChunk(ctx context.Context, in UpsertChunkInput) (int64, error) {
	if in.ChannelID == "" {
		return 0, domain.ErrMissingChannel
	}
	if in.ThreadTS == "" {
		return 0, domain.ErrMissingThread
	}

	embedding, err := s.embedder.Embed(ctx, in.Content)
	if err != nil {
		return 0, err
	}

	createdAt := in.OriginTime
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	chunk := &domain.Chunk{
		ChannelID:   in.ChannelID,
		ThreadTS:    in.ThreadTS,
		ChunkIndex:  in.ChunkIndex,
		Content:     in.Content,
		SenderName:  in.SenderName,
		SenderTitle: in.SenderTitle,
		Metadata:    in.Metadata,
		Embedding:   embedding,
		CreatedAt:   createdAt,
	}

	return s.repo.Upsert(ctx, chunk)
}

// StoreDocumentInput carries one document write.
type StoreDocumentInput struct {
	ChannelID   string
	ThreadTS    string
	FullText    string
	SenderName  string
	SenderTitle string
	OriginTime  time.Time
}

// StoreDocument splits the document and upserts one chunk per segment, in
// index order, tagging each with its position and the document's total
// chunk count. Empty text performs no writes. Chunks are written
// sequentially; a concurrent reader may observe a partially-updated
// document, which resolves once the ingestion completes.
func (s *ContentStore) StoreDocument(ctx context.Context, in StoreDocumentInput) error {
	chunks := SplitIntoChunks(in.FullText, s.chunkCfg)
	if len(chunks) == 0 {
		return nil
	}

	for i, content := range chunks {
		_, err := s.UpsertChunk(ctx, UpsertChunkInput{
			ChannelID:   in.ChannelID,
			ThreadTS:    in.ThreadTS,
			ChunkIndex:  i,
			Content:     content,
			SenderName:  in.SenderName,
			SenderTitle: in.SenderTitle,
			Metadata:    map[string]any{domain.MetadataTotalChunks: len(chunks)},
			OriginTime:  in.OriginTime,
		})
		if err != nil {
			// Partial chunk writes up to this point remain; there is no
			// transactional rollback across a document's chunk set.
			return err
		}
	}

	return nil
}

// Search embeds the query and returns at most limit chunks with cosine
// similarity strictly greater than minSimilarity, ordered by similarity
// descending, with at most one chunk per thread.
func (s *ContentStore) Search(ctx context.Context, queryText string, limit int, minSimilarity float64, filters SearchFilters) ([]*SearchResult, error) {
	if queryText == "" {
		return nil, domain.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	queryVector, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	return s.repo.SearchSimilar(ctx, queryVector, minSimilarity, filters, limit)
}

// DeleteChannel removes every chunk stored for the channel and returns the
// number of deleted rows. Unconditional and irreversible.
func (s *ContentStore) DeleteChannel(ctx context.Context, channelID string) (int64, error) {
	if channelID == "" {
		return 0, domain.ErrMissingChannel
	}
	return s.repo.DeleteChannel(ctx, channelID)
}
