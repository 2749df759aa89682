package service

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/loreweave/loreweave/internal/domain"
)

// HistoryClient pages through a channel's past messages via an opaque
// cursor.
type HistoryClient interface {
	FetchChannelHistory(ctx context.Context, channelID, cursor string, limit int) ([]domain.Message, string, error)
}

// Ingester is the pipeline operation backfill feeds.
type Ingester interface {
	Ingest(ctx context.Context, ev *domain.Event) error
}

// BackfillConfig bounds a historical backfill run.
type BackfillConfig struct {
	PageSize    int
	MaxMessages int
	// PageRate throttles page fetches to respect platform rate limits.
	PageRate rate.Limit
}

// DefaultBackfillConfig returns the default backfill bounds.
func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{
		PageSize:    100,
		MaxMessages: 500,
		PageRate:    rate.Every(2 * time.Second),
	}
}

// Backfiller ingests a channel's message history when the bot joins.
// Each page is fully ingested before the next is fetched, with a cooldown
// between pages; a hard cap bounds worst-case duration.
type Backfiller struct {
	history  HistoryClient
	ingester Ingester
	cfg      BackfillConfig
	limiter  *rate.Limiter
}

// NewBackfiller creates a Backfiller with default bounds.
func NewBackfiller(history HistoryClient, ingester Ingester) *Backfiller {
	return NewBackfillerWithConfig(history, ingester, DefaultBackfillConfig())
}

// NewBackfillerWithConfig creates a Backfiller with explicit bounds.
func NewBackfillerWithConfig(history HistoryClient, ingester Ingester, cfg BackfillConfig) *Backfiller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultBackfillConfig().PageSize
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultBackfillConfig().MaxMessages
	}
	if cfg.PageRate <= 0 {
		cfg.PageRate = DefaultBackfillConfig().PageRate
	}
	return &Backfiller{
		history:  history,
		ingester: ingester,
		cfg:      cfg,
		limiter:  rate.NewLimiter(cfg.PageRate, 1),
	}
}

// BackfillChannel ingests up to MaxMessages of the channel's history.
// Per-message ingest failures are logged and skipped so one bad message
// does not abandon the rest of the backfill.
func (b *Backfiller) BackfillChannel(ctx context.Context, channelID string) error {
	processed := 0
	cursor := ""

	for processed < b.cfg.MaxMessages {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}

		pageSize := b.cfg.PageSize
		if remaining := b.cfg.MaxMessages - processed; remaining < pageSize {
			pageSize = remaining
		}

		messages, next, err := b.history.FetchChannelHistory(ctx, channelID, cursor, pageSize)
		if err != nil {
			return err
		}

		for _, m := range messages {
			ev := &domain.Event{
				Type:      domain.EventMessage,
				ChannelID: channelID,
				Text:      m.Text,
				UserID:    m.UserID,
				Timestamp: m.Timestamp,
				Files:     m.Files,
			}
			if err := b.ingester.Ingest(ctx, ev); err != nil {
				log.Printf("backfill: ingest failed for %s@%s: %v", channelID, m.Timestamp, err)
			}
			processed++
			if processed >= b.cfg.MaxMessages {
				break
			}
		}

		if next == "" || len(messages) == 0 {
			break
		}
		cursor = next
	}

	log.Printf("backfill: processed %d messages for channel %s", processed, channelID)
	return nil
}
