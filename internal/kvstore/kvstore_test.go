package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/models"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Revision: 7,
		SavedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Bookings: []models.Booking{
			{
				ID:            "a",
				ClientName:    "Ada",
				Date:          "2024-06-01",
				StartTime:     "10:00",
				DurationHours: 2,
				Status:        models.StatusConfirmed,
				CreatedAt:     time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC),
			},
			{
				ID:            "b",
				ClientName:    "Grace",
				Date:          "2024-06-02",
				StartTime:     "14:00",
				DurationHours: 1.5,
				Status:        models.StatusCompleted,
				ActualEndTime: "15:30",
				CreatedAt:     time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC),
				InvoiceDetails: &models.InvoiceDetails{
					RatePerHour: 50,
					TotalAmount: 75,
					GeneratedAt: time.Date(2024, 6, 2, 16, 0, 0, 0, time.UTC),
				},
			},
		},
	}
}

func TestEncodeDeterministic(t *testing.T) {
	snap := sampleSnapshot()

	first, err := Encode(snap)
	require.NoError(t, err)
	second, err := Encode(snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRoundTripByteIdentical(t *testing.T) {
	original, err := Encode(sampleSnapshot())
	require.NoError(t, err)

	decoded, err := Decode(original)
	require.NoError(t, err)

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, original, reencoded)
}

func TestDecode_Corrupted(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.Revision)
	require.Len(t, snap.Bookings, 2)
	assert.Equal(t, "Grace", snap.Bookings[1].ClientName)
}

// Save(Load()) of an already-persisted collection leaves the stored bytes
// unchanged.
func TestSaveLoadStable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	for i := 0; i < 3; i++ {
		snap, err := s.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, snap))
	}

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	want, err := Encode(sampleSnapshot())
	require.NoError(t, err)
	got, err := Encode(snap)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
