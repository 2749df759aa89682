package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// channelDispatcher collects dispatched events on a channel, since the
// handler dispatches asynchronously after acknowledging.
type channelDispatcher struct {
	events chan *domain.Event
}

func newChannelDispatcher() *channelDispatcher {
	return &channelDispatcher{events: make(chan *domain.Event, 8)}
}

func (d *channelDispatcher) Handle(ctx context.Context, ev *domain.Event) {
	d.events <- ev
}

func (d *channelDispatcher) next(t *testing.T) *domain.Event {
	t.Helper()
	select {
	case ev := <-d.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event dispatched")
		return nil
	}
}

func postEvent(handler *EventHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Receive(w, req)
	return w
}

func TestEventHandler_URLVerificationEchoesChallenge(t *testing.T) {
	handler := NewEventHandler(newChannelDispatcher())

	w := postEvent(handler, `{"type":"url_verification","challenge":"test-challenge-token"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-challenge-token", w.Body.String())
}

func TestEventHandler_InvalidPayloadRejected(t *testing.T) {
	handler := NewEventHandler(newChannelDispatcher())

	w := postEvent(handler, `not json at all`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandler_AppMentionDispatched(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "app_mention",
			"user": "U1",
			"text": "<@UBOT> what did we decide?",
			"ts": "1700000010.000100",
			"thread_ts": "1700000000.000100",
			"channel": "C123"
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	ev := dispatcher.next(t)
	assert.Equal(t, domain.EventMention, ev.Type)
	assert.Equal(t, "C123", ev.ChannelID)
	assert.Equal(t, "1700000000.000100", ev.ThreadTS)
	assert.Equal(t, "1700000010.000100", ev.Timestamp)
	assert.Equal(t, "U1", ev.UserID)
	assert.Contains(t, ev.Text, "what did we decide?")
}

func TestEventHandler_ChannelMessageDispatched(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"user": "U2",
			"text": "we shipped the migration",
			"ts": "1700000020.000100",
			"channel": "C123",
			"channel_type": "channel"
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	ev := dispatcher.next(t)
	assert.Equal(t, domain.EventMessage, ev.Type)
	assert.Equal(t, "we shipped the migration", ev.Text)
}

func TestEventHandler_EditedMessageIgnored(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"subtype": "message_changed",
			"ts": "1700000020.000100",
			"channel": "C123"
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case ev := <-dispatcher.events:
		t.Fatalf("unexpected dispatch of %s event", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventHandler_FileShareCarriesFiles(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "message",
			"subtype": "file_share",
			"user": "U2",
			"text": "uploaded the report",
			"ts": "1700000030.000100",
			"channel": "C123",
			"files": [
				{"id": "F1", "name": "report.pdf", "mimetype": "application/pdf", "url_private_download": "https://files.example.com/F1"}
			]
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	ev := dispatcher.next(t)
	require.Len(t, ev.Files, 1)
	assert.Equal(t, "F1", ev.Files[0].ID)
	assert.Equal(t, "report.pdf", ev.Files[0].Name)
	assert.Equal(t, "application/pdf", ev.Files[0].MimeType)
	assert.Equal(t, "https://files.example.com/F1", ev.Files[0].URL)
}

func TestEventHandler_MemberJoinedDispatched(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "member_joined_channel",
			"user": "UBOT",
			"channel": "C123"
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	ev := dispatcher.next(t)
	assert.Equal(t, domain.EventMemberJoined, ev.Type)
	assert.Equal(t, "C123", ev.ChannelID)
	assert.Equal(t, "UBOT", ev.UserID)
}

func TestEventHandler_MemberLeftDispatched(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "member_left_channel",
			"user": "UBOT",
			"channel": "C123"
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	ev := dispatcher.next(t)
	assert.Equal(t, domain.EventMemberLeft, ev.Type)
}

func TestEventHandler_UnhandledInnerEventAcknowledged(t *testing.T) {
	dispatcher := newChannelDispatcher()
	handler := NewEventHandler(dispatcher)

	w := postEvent(handler, `{
		"type": "event_callback",
		"event": {
			"type": "reaction_added",
			"user": "U1",
			"item": {"type": "message", "channel": "C123", "ts": "1.0"}
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-dispatcher.events:
		t.Fatal("unexpected dispatch for unhandled event type")
	case <-time.After(50 * time.Millisecond):
	}
}
