package kvstore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const recoveryProbeInterval = time.Minute

// FailoverStore writes through a primary store and falls back to a secondary
// when the primary errors. After a cooldown it probes the primary again.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	downSince atomic.Int64
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverStore) primaryUsable() bool {
	if !s.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(s.downSince.Load(), 0)) > recoveryProbeInterval
}

func (s *FailoverStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("primary store failed, falling back")
	s.isDown.Store(true)
	s.downSince.Store(time.Now().Unix())
}

func (s *FailoverStore) markUp() {
	if s.isDown.Load() {
		s.logger.Info().Msg("primary store recovered")
		s.isDown.Store(false)
	}
}

func (s *FailoverStore) Load(ctx context.Context) (*Snapshot, error) {
	if s.primaryUsable() {
		snap, err := s.primary.Load(ctx)
		if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupted) {
			s.markUp()
			return snap, err
		}
		s.markDown(err)
	}
	return s.fallback.Load(ctx)
}

func (s *FailoverStore) Save(ctx context.Context, snap *Snapshot) error {
	// Fallback always gets the snapshot so recovery starts from fresh data.
	if err := s.fallback.Save(ctx, snap); err != nil {
		s.logger.Error().Err(err).Msg("fallback store save failed")
	}

	if s.primaryUsable() {
		err := s.primary.Save(ctx, snap)
		if err == nil {
			s.markUp()
			return nil
		}
		s.markDown(err)
		return err
	}
	return nil
}

func (s *FailoverStore) Close() error {
	errFallback := s.fallback.Close()
	if err := s.primary.Close(); err != nil {
		return err
	}
	return errFallback
}
