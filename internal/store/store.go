// Package store owns the authoritative in-memory booking collection. Every
// mutation is validated by the rules engine, applied as a functional update
// and followed by a save of the full collection to the key-value store.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studiobook/internal/events"
	"studiobook/internal/kvstore"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
	"studiobook/internal/rules"
)

// EventPublisher publishes domain events after successful mutations.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Flusher retries snapshot saves that failed inline.
type Flusher interface {
	EnqueueFlush(snap *kvstore.Snapshot)
}

type BookingStore struct {
	mu       sync.Mutex
	kv       kvstore.Store
	eventBus EventPublisher
	flusher  Flusher
	logger   *zerolog.Logger

	bookings []models.Booking
	revision int64
}

// New hydrates the collection from the key-value store. A missing snapshot
// starts an empty collection; a corrupted one does the same but is logged.
func New(ctx context.Context, kv kvstore.Store, eventBus EventPublisher, logger *zerolog.Logger) (*BookingStore, error) {
	s := &BookingStore{
		kv:       kv,
		eventBus: eventBus,
		logger:   logger,
	}

	snap, err := kv.Load(ctx)
	switch {
	case err == nil:
		s.bookings = snap.Bookings
		s.revision = snap.Revision
	case errors.Is(err, kvstore.ErrNotFound):
		logger.Info().Msg("no persisted bookings, starting empty")
	case errors.Is(err, kvstore.ErrCorrupted):
		logger.Error().Err(err).Msg("persisted bookings corrupted, starting empty")
	default:
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	logger.Info().Int("bookings", len(s.bookings)).Int64("revision", s.revision).Msg("booking store ready")
	return s, nil
}

// SetFlusher wires the background persistence retry worker.
func (s *BookingStore) SetFlusher(f Flusher) {
	s.flusher = f
}

// Create validates and appends a new booking. The booking starts confirmed;
// id and creation time are assigned here and the caller's input is otherwise
// preserved.
func (s *BookingStore) Create(ctx context.Context, b models.Booking) (models.Booking, error) {
	if b.ClientName == "" || b.Date == "" || b.StartTime == "" {
		metrics.IncMutation("create", "rejected")
		return models.Booking{}, ErrMissingField
	}
	if b.DurationHours <= 0 {
		metrics.IncMutation("create", "rejected")
		return models.Booking{}, fmt.Errorf("%w: duration must be positive", ErrMissingField)
	}
	if _, err := rules.ParseMinutes(b.StartTime); err != nil {
		metrics.IncMutation("create", "rejected")
		return models.Booking{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	if _, err := time.Parse(models.DateLayout, b.Date); err != nil {
		metrics.IncMutation("create", "rejected")
		return models.Booking{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rules.HasOverlap(b.Date, b.StartTime, b.DurationHours, s.bookings) {
		metrics.IncMutation("create", "rejected")
		return models.Booking{}, ErrOverlap
	}

	b.ID = uuid.NewString()
	b.Status = models.StatusConfirmed
	b.CreatedAt = time.Now().UTC()
	b.ActualEndTime = ""
	b.InvoiceDetails = nil

	s.bookings = append(s.bookings, b)
	s.persist(ctx)

	metrics.IncMutation("create", "ok")
	s.publishEvent(events.EventBookingCreated, b)
	return b, nil
}

// Cancel moves a confirmed booking to cancelled. The record stays in the
// collection; cancellation is a status value, not a removal.
func (s *BookingStore) Cancel(ctx context.Context, id string) (models.Booking, error) {
	updated, err := s.transition(ctx, id, models.StatusCancelled, func(b *models.Booking) {})
	if err != nil {
		metrics.IncMutation("cancel", "rejected")
		return models.Booking{}, err
	}
	metrics.IncMutation("cancel", "ok")
	s.publishEvent(events.EventBookingCancelled, updated)
	return updated, nil
}

// Complete moves a confirmed booking to completed, stamping the end time the
// caller confirmed. All other fields are preserved.
func (s *BookingStore) Complete(ctx context.Context, id, actualEndTime string) (models.Booking, error) {
	if actualEndTime == "" {
		metrics.IncMutation("complete", "rejected")
		return models.Booking{}, fmt.Errorf("%w: actual end time is required", ErrMissingField)
	}
	if _, err := rules.ParseMinutes(actualEndTime); err != nil {
		metrics.IncMutation("complete", "rejected")
		return models.Booking{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}

	updated, err := s.transition(ctx, id, models.StatusCompleted, func(b *models.Booking) {
		b.ActualEndTime = actualEndTime
	})
	if err != nil {
		metrics.IncMutation("complete", "rejected")
		return models.Booking{}, err
	}
	metrics.IncMutation("complete", "ok")
	s.publishEvent(events.EventBookingCompleted, updated)
	return updated, nil
}

// UpdateInvoice attaches or overwrites the billing snapshot on a booking.
func (s *BookingStore) UpdateInvoice(ctx context.Context, id string, details models.InvoiceDetails) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		metrics.IncMutation("invoice", "rejected")
		return models.Booking{}, ErrNotFound
	}

	updated := s.bookings[idx]
	updated.InvoiceDetails = &details
	s.bookings[idx] = updated
	s.persist(ctx)

	metrics.IncMutation("invoice", "ok")
	s.publishEvent(events.EventBookingInvoiced, updated)
	return updated, nil
}

// Get returns a booking by id.
func (s *BookingStore) Get(ctx context.Context, id string) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Booking{}, ErrNotFound
	}
	return s.bookings[idx], nil
}

// List returns a copy of the whole collection in insertion order.
func (s *BookingStore) List(ctx context.Context) []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.bookings...)
}

// Stats aggregates over [from, to] inclusive.
func (s *BookingStore) Stats(ctx context.Context, from, to string) models.BookingStats {
	return rules.AggregateStats(s.List(ctx), from, to)
}

// Today lists the given date's bookings ordered by start time.
func (s *BookingStore) Today(ctx context.Context, today string) []models.Booking {
	return rules.TodaysBookings(s.List(ctx), today)
}

// Upcoming lists bookings from today onward ordered by date and start time.
func (s *BookingStore) Upcoming(ctx context.Context, today string) []models.Booking {
	return rules.UpcomingBookings(s.List(ctx), today)
}

// Daily groups a range by date for the calendar view.
func (s *BookingStore) Daily(ctx context.Context, from, to string) map[string][]models.Booking {
	return rules.DailyBookings(s.List(ctx), from, to)
}

// Snapshot returns the current collection as a persistable snapshot.
func (s *BookingStore) Snapshot(ctx context.Context) *kvstore.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *BookingStore) transition(ctx context.Context, id, newStatus string, apply func(*models.Booking)) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Booking{}, ErrNotFound
	}

	current := s.bookings[idx]
	if !rules.CanTransition(current.Status, newStatus) {
		return models.Booking{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	updated := current
	updated.Status = newStatus
	apply(&updated)
	s.bookings[idx] = updated
	s.persist(ctx)
	return updated, nil
}

func (s *BookingStore) indexOf(id string) int {
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *BookingStore) snapshotLocked() *kvstore.Snapshot {
	return &kvstore.Snapshot{
		Revision: s.revision,
		SavedAt:  time.Now().UTC(),
		Bookings: append([]models.Booking(nil), s.bookings...),
	}
}

// persist writes the full collection after a mutation. On failure the
// in-memory state stands and diverges from storage until a later save
// succeeds; the flush worker retries in the background.
func (s *BookingStore) persist(ctx context.Context) {
	s.revision++
	snap := s.snapshotLocked()

	if err := s.kv.Save(ctx, snap); err != nil {
		metrics.IncPersistFailure()
		s.logger.Error().Err(err).Int64("revision", snap.Revision).
			Msg("snapshot save failed, in-memory state diverged")
		if s.flusher != nil {
			s.flusher.EnqueueFlush(snap)
		}
	}
}

func (s *BookingStore) publishEvent(eventType string, b models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:     b.ID,
		ClientName:    b.ClientName,
		Date:          b.Date,
		StartTime:     b.StartTime,
		DurationHours: b.DurationHours,
		Status:        b.Status,
		ChangedAt:     time.Now().UTC(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}
