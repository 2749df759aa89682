package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingBackfiller records backfilled channels in order.
type recordingBackfiller struct {
	mu       sync.Mutex
	channels []string
	err      error
}

func (r *recordingBackfiller) BackfillChannel(ctx context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channelID)
	return r.err
}

func (r *recordingBackfiller) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.channels))
	copy(out, r.channels)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBackfillWorker_DrainsQueueInOrder(t *testing.T) {
	backfiller := &recordingBackfiller{}
	worker := NewBackfillWorker(backfiller, 8)

	go worker.Start(context.Background())
	worker.Enqueue("channel-a")
	worker.Enqueue("channel-b")

	waitFor(t, func() bool { return len(backfiller.seen()) == 2 })
	worker.Stop()

	assert.Equal(t, []string{"channel-a", "channel-b"}, backfiller.seen())
}

func TestBackfillWorker_StopWaitsForShutdown(t *testing.T) {
	backfiller := &recordingBackfiller{}
	worker := NewBackfillWorker(backfiller, 8)

	go worker.Start(context.Background())
	worker.Stop()

	// Stop returned, so the worker goroutine has exited; further enqueues
	// are dropped without processing.
	worker.Enqueue("late-channel")
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, backfiller.seen())
}

func TestBackfillWorker_BackfillErrorDoesNotStopWorker(t *testing.T) {
	backfiller := &recordingBackfiller{err: errors.New("history fetch failed")}
	worker := NewBackfillWorker(backfiller, 8)

	go worker.Start(context.Background())
	worker.Enqueue("channel-a")
	worker.Enqueue("channel-b")

	waitFor(t, func() bool { return len(backfiller.seen()) == 2 })
	worker.Stop()
}

func TestBackfillWorker_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	backfiller := &recordingBackfiller{}
	worker := NewBackfillWorker(backfiller, 1)

	// Worker not started: the queue holds one entry, the rest are dropped.
	worker.Enqueue("first")
	done := make(chan struct{})
	go func() {
		worker.Enqueue("second")
		worker.Enqueue("third")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestBackfillWorker_ContextCancelStopsWorker(t *testing.T) {
	backfiller := &recordingBackfiller{}
	worker := NewBackfillWorker(backfiller, 8)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
