package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/kvstore"
)

func TestRetryPolicy_NextDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	// Clamped to MaxDelay.
	assert.Equal(t, 10*time.Second, policy.NextDelay(10))
	// Out-of-range attempts behave like the first one.
	assert.Equal(t, time.Second, policy.NextDelay(0))
}

func TestRetryPolicy_Defaults(t *testing.T) {
	policy := RetryPolicy{}
	assert.Equal(t, time.Second, policy.NextDelay(1))
}

type flakyStore struct {
	mu       sync.Mutex
	failures int
	saved    []*kvstore.Snapshot
}

func (f *flakyStore) Load(ctx context.Context) (*kvstore.Snapshot, error) {
	return nil, kvstore.ErrNotFound
}

func (f *flakyStore) Save(ctx context.Context, snap *kvstore.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("store unavailable")
	}
	f.saved = append(f.saved, snap)
	return nil
}

func (f *flakyStore) Close() error { return nil }

func (f *flakyStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func TestFlushWorker_RetriesUntilSuccess(t *testing.T) {
	kv := &flakyStore{failures: 2}
	logger := zerolog.Nop()
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewFlushWorker(kv, policy, &logger)
	w.Start(ctx)

	w.EnqueueFlush(&kvstore.Snapshot{Revision: 1})

	require.Eventually(t, func() bool { return kv.savedCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	w.Stop()
	assert.Equal(t, int64(1), kv.saved[0].Revision)
}

func TestFlushWorker_KeepsNewestQueuedSnapshot(t *testing.T) {
	kv := &flakyStore{}
	logger := zerolog.Nop()
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewFlushWorker(kv, policy, &logger)
	// Queue before starting so the drain sees both.
	w.EnqueueFlush(&kvstore.Snapshot{Revision: 1})
	w.EnqueueFlush(&kvstore.Snapshot{Revision: 2})
	w.Start(ctx)

	require.Eventually(t, func() bool { return kv.savedCount() >= 1 }, time.Second, 5*time.Millisecond)

	cancel()
	w.Stop()
	assert.Equal(t, int64(2), kv.saved[0].Revision)
}

func TestFlushWorker_GivesUpAfterMaxRetries(t *testing.T) {
	kv := &flakyStore{failures: 100}
	logger := zerolog.Nop()
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())

	w := NewFlushWorker(kv, policy, &logger)
	w.Start(ctx)
	w.EnqueueFlush(&kvstore.Snapshot{Revision: 1})

	time.Sleep(50 * time.Millisecond)
	cancel()
	w.Stop()

	assert.Equal(t, 0, kv.savedCount())
}
