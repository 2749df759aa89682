package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EventType identifies an inbound workspace event.
type EventType string

const (
	EventMemberJoined EventType = "member_joined"
	EventMemberLeft   EventType = "member_left"
	EventMention      EventType = "mention"
	EventMessage      EventType = "message"
)

// File describes an attachment on an inbound message.
type File struct {
	ID       string
	Name     string
	MimeType string
	URL      string
}

// Event is the platform-neutral shape of an inbound chat event.
type Event struct {
	Type      EventType
	ChannelID string
	ThreadTS  string
	Text      string
	UserID    string
	Timestamp string
	Files     []File
}

// ThreadKey returns the identifier the event's content is stored under:
// the thread root if the message is threaded, otherwise its own timestamp.
func (e *Event) ThreadKey() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.Timestamp
}

// Message is a single message inside a thread.
type Message struct {
	UserID    string
	Text      string
	Timestamp string
	Files     []File
}

// UserProfile carries the provenance fields stored alongside chunks.
type UserProfile struct {
	ID    string
	Name  string
	Title string
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>|]+`)

// ExtractURLs returns every http(s) URL found in text, in order of
// appearance, deduplicated. This is a pattern match only; reachability is
// not validated.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?)>")
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// ParseTimestamp converts a Slack-style "seconds.fraction" timestamp into a
// time.Time. Returns the zero time when ts is empty or malformed.
func ParseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
