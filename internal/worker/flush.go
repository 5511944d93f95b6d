// Package worker runs background jobs. FlushWorker retries snapshot saves
// that failed inline, so a temporarily unavailable store only diverges until
// the next successful write instead of silently forever.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studiobook/internal/kvstore"
	"studiobook/internal/models"
)

type FlushWorker struct {
	kv     kvstore.Store
	policy RetryPolicy
	logger *zerolog.Logger

	queue chan *kvstore.Snapshot
	wg    sync.WaitGroup
}

func NewFlushWorker(kv kvstore.Store, policy RetryPolicy, logger *zerolog.Logger) *FlushWorker {
	return &FlushWorker{
		kv:     kv,
		policy: policy,
		logger: logger,
		queue:  make(chan *kvstore.Snapshot, models.FlushQueueSize),
	}
}

// EnqueueFlush schedules a snapshot for retried persistence. A full queue
// drops the snapshot; a newer one will supersede it anyway.
func (w *FlushWorker) EnqueueFlush(snap *kvstore.Snapshot) {
	select {
	case w.queue <- snap:
	default:
		w.logger.Warn().Int64("revision", snap.Revision).Msg("flush queue full, snapshot dropped")
	}
}

// Start runs the worker until the context is cancelled.
func (w *FlushWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop waits for the worker goroutine to exit.
func (w *FlushWorker) Stop() {
	w.wg.Wait()
}

func (w *FlushWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-w.queue:
			// Only the newest queued snapshot matters; drain stale ones.
			snap = w.drain(snap)
			w.flush(ctx, snap)
		}
	}
}

func (w *FlushWorker) drain(latest *kvstore.Snapshot) *kvstore.Snapshot {
	for {
		select {
		case next := <-w.queue:
			if next.Revision > latest.Revision {
				latest = next
			}
		default:
			return latest
		}
	}
}

func (w *FlushWorker) flush(ctx context.Context, snap *kvstore.Snapshot) {
	for attempt := 1; attempt <= w.policy.MaxRetries; attempt++ {
		if err := w.kv.Save(ctx, snap); err == nil {
			w.logger.Info().Int64("revision", snap.Revision).Int("attempt", attempt).
				Msg("deferred snapshot save succeeded")
			return
		} else if attempt == w.policy.MaxRetries {
			w.logger.Error().Err(err).Int64("revision", snap.Revision).
				Msg("deferred snapshot save gave up")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.policy.NextDelay(attempt)):
		}
	}
}
