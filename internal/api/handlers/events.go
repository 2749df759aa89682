package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/loreweave/loreweave/internal/api"
	"github.com/loreweave/loreweave/internal/domain"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// EventDispatcher processes a workspace event after the HTTP request has
// been acknowledged.
type EventDispatcher interface {
	Handle(ctx context.Context, ev *domain.Event)
}

type EventHandler struct {
	dispatcher EventDispatcher
}

func NewEventHandler(dispatcher EventDispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// Receive handles the Slack Events API callback. Slack expects a response
// within 3 seconds, so events are acknowledged immediately and processed in
// the background. Request signatures are verified by middleware before this
// handler runs.
func (h *EventHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid challenge payload")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge.Challenge))
		return

	case slackevents.CallbackEvent:
		ev := toDomainEvent(event.InnerEvent)
		if ev != nil {
			go h.dispatcher.Handle(context.WithoutCancel(r.Context()), ev)
		}
		w.WriteHeader(http.StatusOK)
		return

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// toDomainEvent maps a Slack inner event to the platform-neutral event
// shape. Returns nil for event types the bot does not act on.
func toDomainEvent(inner slackevents.EventsAPIInnerEvent) *domain.Event {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		return &domain.Event{
			Type:      domain.EventMention,
			ChannelID: ev.Channel,
			ThreadTS:  ev.ThreadTimeStamp,
			Text:      ev.Text,
			UserID:    ev.User,
			Timestamp: ev.TimeStamp,
		}

	case *slackevents.MessageEvent:
		// Edits, deletions and other subtyped messages are not new
		// content; file_share is the exception.
		if ev.SubType != "" && ev.SubType != "file_share" {
			return nil
		}
		var files []slack.File
		if ev.Message != nil {
			files = ev.Message.Files
		}
		return &domain.Event{
			Type:      domain.EventMessage,
			ChannelID: ev.Channel,
			ThreadTS:  ev.ThreadTimeStamp,
			Text:      ev.Text,
			UserID:    ev.User,
			Timestamp: ev.TimeStamp,
			Files:     toDomainFiles(files),
		}

	case *slackevents.MemberJoinedChannelEvent:
		return &domain.Event{
			Type:      domain.EventMemberJoined,
			ChannelID: ev.Channel,
			UserID:    ev.User,
		}

	case *slackevents.MemberLeftChannelEvent:
		return &domain.Event{
			Type:      domain.EventMemberLeft,
			ChannelID: ev.Channel,
			UserID:    ev.User,
		}
	}

	return nil
}

func toDomainFiles(files []slack.File) []domain.File {
	if len(files) == 0 {
		return nil
	}
	out := make([]domain.File, 0, len(files))
	for _, f := range files {
		url := f.URLPrivateDownload
		if url == "" {
			url = f.URLPrivate
		}
		out = append(out, domain.File{
			ID:       f.ID,
			Name:     f.Name,
			MimeType: f.Mimetype,
			URL:      url,
		})
	}
	return out
}
