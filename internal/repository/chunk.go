package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/pagination"
	"github.com/loreweave/loreweave/internal/service"
)

// dbtx abstracts over a pool or transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository persists chunks in the chunks table. Rows are keyed by
// the unique (channel_name, thread_ts, chunk_index) triple. A shrinking
// re-ingest does not reap trailing rows beyond the new chunk count; they
// stay until channel deletion (the search-side per-thread collapse keeps
// them from dominating results).
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// Upsert inserts the chunk or, when its key triple exists, refreshes the
// existing row in place. Single-statement, so concurrent writers resolve
// at row-level atomicity with last write winning. Returns the row ID.
func (r *ChunkRepository) Upsert(ctx context.Context, c *domain.Chunk) (int64, error) {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err = r.db.QueryRow(ctx,
		`INSERT INTO chunks
			(channel_name, thread_ts, chunk_index, content, user_name, user_title, metadata, embedding, created_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (channel_name, thread_ts, chunk_index) DO UPDATE SET
			content = EXCLUDED.content,
			user_name = EXCLUDED.user_name,
			user_title = EXCLUDED.user_title,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at
		 RETURNING id`,
		c.ChannelID,
		c.ThreadTS,
		c.ChunkIndex,
		c.Content,
		nullableString(c.SenderName),
		nullableString(c.SenderTitle),
		metadata,
		pgvector.NewVector(c.Embedding),
		createdAt,
	).Scan(&id)
	if err != nil {
		return 0, storeError(err)
	}

	return id, nil
}

// SearchSimilar returns at most limit chunks with cosine similarity
// strictly greater than minSimilarity, ordered by similarity descending.
// Among a thread's eligible chunks only the highest-similarity one is
// returned, so one relevant thread cannot monopolize the result set.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, minSimilarity float64, filters service.SearchFilters, limit int) ([]*service.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT content, user_name, user_title, channel_name, thread_ts, chunk_index, metadata, created_at, similarity
		FROM (
			SELECT DISTINCT ON (thread_ts)
				content, user_name, user_title, channel_name, thread_ts, chunk_index, metadata, created_at,
				1 - (embedding <=> $1) AS similarity
			FROM chunks
			WHERE embedding IS NOT NULL`
	args := []any{pgvector.NewVector(embedding)}

	if filters.Channel != "" {
		args = append(args, filters.Channel)
		query += fmt.Sprintf(" AND channel_name = $%d", len(args))
	}
	if filters.User != "" {
		args = append(args, filters.User)
		query += fmt.Sprintf(" AND user_name = $%d", len(args))
	}
	if !filters.MinDate.IsZero() {
		args = append(args, filters.MinDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filters.MaxDate.IsZero() {
		args = append(args, filters.MaxDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, minSimilarity)
	minSimArg := len(args)
	args = append(args, limit)

	query += fmt.Sprintf(`
			ORDER BY thread_ts, embedding <=> $1
		) best
		WHERE similarity > $%d
		ORDER BY similarity DESC
		LIMIT $%d`, minSimArg, minSimArg+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	results := make([]*service.SearchResult, 0)
	for rows.Next() {
		var res service.SearchResult
		var userName, userTitle *string
		var metadata []byte
		if err := rows.Scan(&res.Content, &userName, &userTitle, &res.ChannelID, &res.ThreadTS, &res.ChunkIndex, &metadata, &res.CreatedAt, &res.Similarity); err != nil {
			return nil, err
		}
		if userName != nil {
			res.SenderName = *userName
		}
		if userTitle != nil {
			res.SenderTitle = *userTitle
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &res.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
			}
		}
		results = append(results, &res)
	}

	return results, rows.Err()
}

// DeleteChannel removes every chunk for the channel and returns the count.
func (r *ChunkRepository) DeleteChannel(ctx context.Context, channelID string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE channel_name = $1`, channelID)
	if err != nil {
		return 0, storeError(err)
	}
	return cmdTag.RowsAffected(), nil
}

// ListByChannel returns a page of the channel's chunks, newest first,
// using a (created_at, id) keyset cursor.
func (r *ChunkRepository) ListByChannel(ctx context.Context, channelID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Chunk], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, channel_name, thread_ts, chunk_index, content, user_name, user_title, metadata, created_at
			 FROM chunks
			 WHERE channel_name = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			channelID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, channel_name, thread_ts, chunk_index, content, user_name, user_title, metadata, created_at
			 FROM chunks
			 WHERE channel_name = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			channelID, limit+1,
		)
	}
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	items, err := scanChunkRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &pagination.PageResult[*domain.Chunk]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

func scanChunkRows(rows pgx.Rows) ([]*domain.Chunk, error) {
	var results []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var userName, userTitle *string
		var metadata []byte
		if err := rows.Scan(&c.ID, &c.ChannelID, &c.ThreadTS, &c.ChunkIndex, &c.Content, &userName, &userTitle, &metadata, &c.CreatedAt); err != nil {
			return nil, err
		}
		if userName != nil {
			c.SenderName = *userName
		}
		if userTitle != nil {
			c.SenderTitle = *userTitle
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
			}
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

// storeError classifies connectivity failures as the store-unavailable
// domain error so callers can degrade gracefully.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "content store operation failed", err)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
