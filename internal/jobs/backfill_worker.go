package jobs

import (
	"context"
	"log"
)

// ChannelBackfiller runs a full history backfill for one channel.
type ChannelBackfiller interface {
	BackfillChannel(ctx context.Context, channelID string) error
}

// BackfillWorker drains queued channel backfills one at a time in the
// background, so a join event's webhook can be acknowledged immediately
// while the rate-limited history walk runs behind it.
type BackfillWorker struct {
	backfiller ChannelBackfiller
	queue      chan string
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewBackfillWorker creates a worker with a bounded queue.
func NewBackfillWorker(backfiller ChannelBackfiller, queueSize int) *BackfillWorker {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &BackfillWorker{
		backfiller: backfiller,
		queue:      make(chan string, queueSize),
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Enqueue schedules a channel for backfill. Drops the request when the
// queue is full; a dropped backfill only means older history stays
// unindexed until the channel is re-joined.
func (w *BackfillWorker) Enqueue(channelID string) {
	select {
	case w.queue <- channelID:
	default:
		log.Printf("backfill queue full, dropping channel %s", channelID)
	}
}

// Start begins draining the queue. Blocks until Stop is called or the
// context is cancelled; run it on its own goroutine.
func (w *BackfillWorker) Start(ctx context.Context) {
	defer close(w.doneChan)

	log.Printf("backfill worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("backfill worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("backfill worker stopped: stop signal received")
			return
		case channelID := <-w.queue:
			if err := w.backfiller.BackfillChannel(ctx, channelID); err != nil {
				log.Printf("backfill of channel %s failed: %v", channelID, err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *BackfillWorker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("backfill worker shutdown complete")
}
