// Package slack adapts the Slack web API to the collaborator interfaces
// the pipeline, responder, and backfiller consume.
package slack

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/loreweave/loreweave/internal/domain"
)

// Client wraps the Slack web API client. Constructed once and passed in
// explicitly; no package-level singleton.
type Client struct {
	api          *slackapi.Client
	botUserID    string
	workspaceURL string
}

// New creates a Client and resolves the bot's own user ID, which the
// pipeline needs to avoid self-ingestion.
func New(ctx context.Context, token, workspaceURL string) (*Client, error) {
	api := slackapi.New(token)

	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack auth test failed: %w", err)
	}

	return &Client{
		api:          api,
		botUserID:    auth.UserID,
		workspaceURL: strings.TrimRight(workspaceURL, "/"),
	}, nil
}

// BotUserID returns the bot's own user ID.
func (c *Client) BotUserID() string {
	return c.botUserID
}

// UserInfo fetches a user's display name and title.
func (c *Client) UserInfo(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}

	name := user.Profile.DisplayName
	if name == "" {
		name = user.RealName
	}

	return &domain.UserProfile{
		ID:    user.ID,
		Name:  name,
		Title: user.Profile.Title,
	}, nil
}

// FetchThreadReplies returns every message of a thread in chronological
// order, paging through the API's cursor.
func (c *Client) FetchThreadReplies(ctx context.Context, channelID, threadTS string) ([]domain.Message, error) {
	var messages []domain.Message
	cursor := ""

	for {
		replies, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, &slackapi.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching thread %s/%s: %w", channelID, threadTS, err)
		}

		for _, m := range replies {
			messages = append(messages, toDomainMessage(m))
		}

		if !hasMore || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return messages, nil
}

// FetchChannelHistory returns one page of a channel's history plus the
// cursor for the next page; an empty cursor means the history is exhausted.
func (c *Client) FetchChannelHistory(ctx context.Context, channelID, cursor string, limit int) ([]domain.Message, string, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slackapi.GetConversationHistoryParameters{
		ChannelID: channelID,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetching history for %s: %w", channelID, err)
	}

	messages := make([]domain.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, toDomainMessage(m))
	}

	return messages, resp.ResponseMetaData.NextCursor, nil
}

// PostMessage posts text to a channel, threaded when threadTS is set.
func (c *Client) PostMessage(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slackapi.MsgOption{slackapi.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slackapi.MsgOptionTS(threadTS))
	}
	_, _, err := c.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return fmt.Errorf("posting message to %s: %w", channelID, err)
	}
	return nil
}

// AddReaction adds an emoji reaction to a message.
func (c *Client) AddReaction(ctx context.Context, channelID, timestamp, emoji string) error {
	err := c.api.AddReactionContext(ctx, emoji, slackapi.ItemRef{Channel: channelID, Timestamp: timestamp})
	if err != nil {
		return fmt.Errorf("adding reaction in %s: %w", channelID, err)
	}
	return nil
}

// DownloadFile fetches an access-gated attachment using the bot token.
func (c *Client) DownloadFile(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.api.GetFileContext(ctx, url, &buf); err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	return buf.Bytes(), nil
}

// Permalink reconstructs a link back to the thread's root message. Returns
// an empty string when no workspace URL is configured.
func (c *Client) Permalink(channelID, threadTS string) string {
	if c.workspaceURL == "" || channelID == "" || threadTS == "" {
		return ""
	}
	return fmt.Sprintf("%s/archives/%s/p%s", c.workspaceURL, channelID, strings.ReplaceAll(threadTS, ".", ""))
}

func toDomainMessage(m slackapi.Message) domain.Message {
	msg := domain.Message{
		UserID:    m.User,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
	for _, f := range m.Files {
		msg.Files = append(msg.Files, domain.File{
			ID:       f.ID,
			Name:     f.Name,
			MimeType: f.Mimetype,
			URL:      f.URLPrivateDownload,
		})
	}
	return msg
}
