package service

import (
	"context"
	"log"
)

// ChannelDeleter is the store operation retention needs.
type ChannelDeleter interface {
	DeleteChannel(ctx context.Context, channelID string) (int64, error)
}

// RetentionController removes stored knowledge when the bot loses access
// to a channel. No confirmation, no soft-delete, no undo.
type RetentionController struct {
	store ChannelDeleter
}

func NewRetentionController(store ChannelDeleter) *RetentionController {
	return &RetentionController{store: store}
}

// HandleChannelLeft deletes every chunk stored for the channel.
func (r *RetentionController) HandleChannelLeft(ctx context.Context, channelID string) error {
	count, err := r.store.DeleteChannel(ctx, channelID)
	if err != nil {
		return err
	}
	log.Printf("retention: deleted %d chunks for channel %s", count, channelID)
	return nil
}
