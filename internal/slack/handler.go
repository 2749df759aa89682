package slack

import (
	"context"
	"log"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/telemetry"
)

// Ingester stores an event's content in the knowledge base.
type Ingester interface {
	Ingest(ctx context.Context, ev *domain.Event) error
}

// Responder answers a mention.
type Responder interface {
	Respond(ctx context.Context, ev *domain.Event) error
}

// Retainer deletes a channel's stored knowledge.
type Retainer interface {
	HandleChannelLeft(ctx context.Context, channelID string) error
}

// BackfillQueue schedules a channel history backfill.
type BackfillQueue interface {
	Enqueue(channelID string)
}

// EventHandler dispatches platform-neutral events to the ingestion,
// answer, backfill, and retention paths. Every branch catches its own
// failure: one malformed event never takes down subsequent processing.
type EventHandler struct {
	botUserID string
	ingester  Ingester
	responder Responder
	retainer  Retainer
	backfill  BackfillQueue
}

func NewEventHandler(botUserID string, ingester Ingester, responder Responder, retainer Retainer, backfill BackfillQueue) *EventHandler {
	return &EventHandler{
		botUserID: botUserID,
		ingester:  ingester,
		responder: responder,
		retainer:  retainer,
		backfill:  backfill,
	}
}

// Handle processes one event. Errors are logged and captured, never
// propagated: the webhook has already been acknowledged.
func (h *EventHandler) Handle(ctx context.Context, ev *domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling %s event in %s: %v", ev.Type, ev.ChannelID, r)
		}
	}()

	switch ev.Type {
	case domain.EventMention:
		if err := h.responder.Respond(ctx, ev); err != nil {
			log.Printf("responding to mention in %s failed: %v", ev.ChannelID, err)
			telemetry.CaptureError(ctx, err)
		}
		// Mentions are conversation too; capture them like any message.
		if err := h.ingester.Ingest(ctx, ev); err != nil {
			log.Printf("ingesting mention in %s failed, dropping: %v", ev.ChannelID, err)
			telemetry.CaptureError(ctx, err)
		}

	case domain.EventMessage:
		if err := h.ingester.Ingest(ctx, ev); err != nil {
			log.Printf("ingesting message in %s failed, dropping: %v", ev.ChannelID, err)
			telemetry.CaptureError(ctx, err)
		}

	case domain.EventMemberJoined:
		// Only our own join triggers a history backfill.
		if ev.UserID == h.botUserID {
			h.backfill.Enqueue(ev.ChannelID)
		}

	case domain.EventMemberLeft:
		if ev.UserID == h.botUserID {
			if err := h.retainer.HandleChannelLeft(ctx, ev.ChannelID); err != nil {
				log.Printf("channel retention for %s failed: %v", ev.ChannelID, err)
				telemetry.CaptureError(ctx, err)
			}
		}

	default:
		log.Printf("ignoring unhandled event type %q", ev.Type)
	}
}
