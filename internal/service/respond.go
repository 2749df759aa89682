package service

import (
	"context"
	"errors"
	"log"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/telemetry"
)

// apologyMessage is sent when the generative call fails. A reply is always
// attempted; generation failures never crash the event handler.
const apologyMessage = "Sorry, I couldn't come up with an answer right now. Please try again in a bit."

// permissionMessage tells the requester how to unblock an access-gated
// document source.
const permissionMessage = "I don't have access to one of the linked documents. Please share it with the bot's account and ask again."

// Generator is the generative capability the responder forwards to.
type Generator interface {
	Answer(ctx context.Context, systemContext, userMessage string) (string, error)
}

// MessagePoster posts replies back to the chat platform.
type MessagePoster interface {
	PostMessage(ctx context.Context, channelID, threadTS, text string) error
	AddReaction(ctx context.Context, channelID, timestamp, emoji string) error
}

// Responder answers mentions: it assembles retrieval context for the
// question and forwards both to the generator, degrading to an apology on
// failure.
type Responder struct {
	assembler *ContextAssembler
	generator Generator
	poster    MessagePoster
	maxTokens int
}

// NewResponder creates a Responder. maxTokens bounds the assembled context.
func NewResponder(assembler *ContextAssembler, generator Generator, poster MessagePoster, maxTokens int) *Responder {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Responder{assembler: assembler, generator: generator, poster: poster, maxTokens: maxTokens}
}

// Respond handles one mention event end-to-end: acknowledge, retrieve,
// generate, reply in thread. A reply is always attempted even when
// retrieval context is empty or partial.
func (r *Responder) Respond(ctx context.Context, ev *domain.Event) error {
	if err := r.poster.AddReaction(ctx, ev.ChannelID, ev.Timestamp, "eyes"); err != nil {
		// Acknowledgement is cosmetic; keep going.
		log.Printf("adding reaction failed: %v", err)
	}

	contextBlock := r.assembler.GetRelevantContext(ctx, ev.Text, r.maxTokens)

	reply, err := r.generator.Answer(ctx, contextBlock, ev.Text)
	if err != nil {
		log.Printf("answer generation failed: %v", err)
		telemetry.CaptureError(ctx, err)
		reply = apologyMessage
		if errors.Is(err, domain.ErrPermissionDenied) {
			reply = permissionMessage
		}
	}

	return r.poster.PostMessage(ctx, ev.ChannelID, ev.ThreadKey(), reply)
}
