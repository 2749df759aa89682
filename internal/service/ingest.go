package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/telemetry"
)

// ExtractedContent is the result of a link or file extraction.
type ExtractedContent struct {
	Content string
	Summary string
}

// ChatClient defines the chat-platform operations the pipeline needs.
type ChatClient interface {
	BotUserID() string
	UserInfo(ctx context.Context, userID string) (*domain.UserProfile, error)
	FetchThreadReplies(ctx context.Context, channelID, threadTS string) ([]domain.Message, error)
}

// LinkExtractor turns a URL into extracted content.
type LinkExtractor interface {
	Extract(ctx context.Context, url string) (*ExtractedContent, error)
}

// FileExtractor turns an attached file into extracted content.
type FileExtractor interface {
	Supports(mimeType string) bool
	Extract(ctx context.Context, file domain.File) (*ExtractedContent, error)
}

// DocumentStore is the write-side store interface the pipeline needs.
type DocumentStore interface {
	StoreDocument(ctx context.Context, in StoreDocumentInput) error
}

// IngestionPipeline assembles an inbound event, its thread, and any
// linked or attached content into a single document and stores it.
type IngestionPipeline struct {
	chat  ChatClient
	links LinkExtractor
	files []FileExtractor
	store DocumentStore
}

// NewIngestionPipeline creates a pipeline. links may be nil to skip link
// extraction; files may be empty.
func NewIngestionPipeline(chat ChatClient, links LinkExtractor, files []FileExtractor, store DocumentStore) *IngestionPipeline {
	return &IngestionPipeline{chat: chat, links: links, files: files, store: store}
}

// Ingest processes one inbound message event. Bot-authored events are
// discarded. Link and file failures are isolated per item and rendered as
// placeholders; embedding or store failures abort the document (partial
// chunk writes remain) and propagate to the caller, who logs and drops.
func (p *IngestionPipeline) Ingest(ctx context.Context, ev *domain.Event) error {
	if ev.UserID == "" || ev.UserID == p.chat.BotUserID() {
		return nil
	}

	segments, files := p.collectThread(ctx, ev)

	text := domain.RenderSegments(segments)
	for _, url := range domain.ExtractURLs(text) {
		segments = append(segments, p.extractLink(ctx, url))
	}
	for _, f := range files {
		if seg, ok := p.extractFile(ctx, f); ok {
			segments = append(segments, seg)
		}
	}

	doc := domain.RenderSegments(segments)
	if strings.TrimSpace(doc) == "" {
		return nil
	}

	senderName, senderTitle := p.resolveSender(ctx, ev.UserID)

	return p.store.StoreDocument(ctx, StoreDocumentInput{
		ChannelID:   ev.ChannelID,
		ThreadTS:    ev.ThreadKey(),
		FullText:    doc,
		SenderName:  senderName,
		SenderTitle: senderTitle,
		OriginTime:  domain.ParseTimestamp(ev.Timestamp),
	})
}

// collectThread gathers message segments and attachments: every reply of
// the event's thread in chronological order, or the event itself when
// unthreaded. Bot-authored replies are dropped.
func (p *IngestionPipeline) collectThread(ctx context.Context, ev *domain.Event) ([]domain.Segment, []domain.File) {
	if ev.ThreadTS == "" {
		return []domain.Segment{domain.MessageSegment(ev.Text)}, ev.Files
	}

	replies, err := p.chat.FetchThreadReplies(ctx, ev.ChannelID, ev.ThreadTS)
	if err != nil {
		log.Printf("fetching thread %s/%s failed, ingesting message alone: %v", ev.ChannelID, ev.ThreadTS, err)
		telemetry.CaptureError(ctx, err)
		return []domain.Segment{domain.MessageSegment(ev.Text)}, ev.Files
	}

	botID := p.chat.BotUserID()
	var segments []domain.Segment
	var files []domain.File
	for _, m := range replies {
		if m.UserID == botID {
			continue
		}
		segments = append(segments, domain.MessageSegment(m.Text))
		files = append(files, m.Files...)
	}
	return segments, files
}

func (p *IngestionPipeline) extractLink(ctx context.Context, url string) domain.Segment {
	if p.links == nil {
		return domain.FailedSegment(domain.SegmentLink, url, "no link extractor configured")
	}
	content, err := p.links.Extract(ctx, url)
	if err != nil {
		// A single broken link never aborts the rest of ingestion.
		log.Printf("link extraction failed for %s: %v", url, err)
		if !errors.Is(err, domain.ErrExtraction) {
			telemetry.CaptureError(ctx, err)
		}
		return domain.FailedSegment(domain.SegmentLink, url, err.Error())
	}
	return domain.LinkSegment(url, content.Content, content.Summary)
}

func (p *IngestionPipeline) extractFile(ctx context.Context, f domain.File) (domain.Segment, bool) {
	for _, ex := range p.files {
		if !ex.Supports(f.MimeType) {
			continue
		}
		content, err := ex.Extract(ctx, f)
		if err != nil {
			log.Printf("file extraction failed for %s (%s): %v", f.Name, f.MimeType, err)
			if !errors.Is(err, domain.ErrExtraction) {
				telemetry.CaptureError(ctx, err)
			}
			return domain.FailedSegment(domain.SegmentFile, f.Name, err.Error()), true
		}
		return domain.FileSegment(f.Name, content.Content, content.Summary), true
	}
	// Unsupported MIME types are skipped silently.
	return domain.Segment{}, false
}

func (p *IngestionPipeline) resolveSender(ctx context.Context, userID string) (string, string) {
	profile, err := p.chat.UserInfo(ctx, userID)
	if err != nil || profile == nil {
		log.Printf("user lookup failed for %s: %v", userID, err)
		return "", ""
	}
	return profile.Name, profile.Title
}
