package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/models"
)

func booking(date, start string, hours float64, status string) models.Booking {
	return models.Booking{
		ID:            "b-" + date + "-" + start,
		ClientName:    "client",
		Date:          date,
		StartTime:     start,
		DurationHours: hours,
		Status:        status,
	}
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"10:30", 630, false},
		{"23:59", 1439, false},
		{" 09:15 ", 555, false},
		{"24:00", 0, true},
		{"10:60", 0, true},
		{"10", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMinutes(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "10:30", FormatMinutes(630))
	assert.Equal(t, "00:00", FormatMinutes(0))
	// Past-midnight values wrap.
	assert.Equal(t, "01:30", FormatMinutes(25*60+30))
}

func TestHasOverlap_Rejected(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 2, models.StatusConfirmed)}

	// 11:00-12:00 intersects 10:00-12:00.
	assert.True(t, HasOverlap("2024-06-01", "11:00", 1, existing))
	// Full containment.
	assert.True(t, HasOverlap("2024-06-01", "09:00", 5, existing))
	// Partial head overlap.
	assert.True(t, HasOverlap("2024-06-01", "09:30", 1, existing))
}

func TestHasOverlap_TouchingEndpointsAllowed(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 2, models.StatusConfirmed)}

	assert.False(t, HasOverlap("2024-06-01", "12:00", 1, existing))
	assert.False(t, HasOverlap("2024-06-01", "09:00", 1, existing))
}

func TestHasOverlap_OtherDateIgnored(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 2, models.StatusConfirmed)}
	assert.False(t, HasOverlap("2024-06-02", "10:00", 2, existing))
}

func TestHasOverlap_CancelledNeverBlocks(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 2, models.StatusCancelled)}
	assert.False(t, HasOverlap("2024-06-01", "10:00", 2, existing))
}

func TestHasOverlap_CompletedStillBlocks(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 2, models.StatusCompleted)}
	assert.True(t, HasOverlap("2024-06-01", "11:00", 1, existing))
}

func TestHasOverlap_MissingFields(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 2, models.StatusConfirmed)}

	assert.False(t, HasOverlap("", "10:00", 2, existing))
	assert.False(t, HasOverlap("2024-06-01", "", 2, existing))
	assert.False(t, HasOverlap("2024-06-01", "10:00", 0, existing))
	assert.False(t, HasOverlap("2024-06-01", "bad", 2, existing))
}

func TestHasOverlap_FractionalHours(t *testing.T) {
	existing := []models.Booking{booking("2024-06-01", "10:00", 1.5, models.StatusConfirmed)}

	assert.True(t, HasOverlap("2024-06-01", "11:00", 1, existing))
	assert.False(t, HasOverlap("2024-06-01", "11:30", 1, existing))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCompleted))
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCancelled))

	// Terminal states stay terminal.
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusConfirmed))
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusConfirmed))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusCompleted))
	assert.False(t, CanTransition(models.StatusConfirmed, models.StatusConfirmed))
}

func TestDefaultEndTime(t *testing.T) {
	end, err := DefaultEndTime("10:00", 2)
	require.NoError(t, err)
	assert.Equal(t, "12:00", end)

	end, err = DefaultEndTime("10:00", 1.5)
	require.NoError(t, err)
	assert.Equal(t, "11:30", end)

	_, err = DefaultEndTime("bad", 1)
	assert.Error(t, err)
}

func TestAggregateStats(t *testing.T) {
	bookings := []models.Booking{
		booking("2024-06-01", "10:00", 3, models.StatusCompleted),
		booking("2024-06-02", "10:00", 2, models.StatusCancelled),
		booking("2024-06-03", "10:00", 1, models.StatusConfirmed),
	}

	stats := AggregateStats(bookings, "2024-06-01", "2024-06-30")
	assert.Equal(t, 3, stats.TotalBookings)
	assert.Equal(t, 1, stats.CompletedBookings)
	assert.Equal(t, 1, stats.CancelledBookings)
	assert.InDelta(t, 4.0, stats.TotalHours, 1e-9)
}

func TestAggregateStats_RangeInclusive(t *testing.T) {
	bookings := []models.Booking{
		booking("2024-06-01", "10:00", 1, models.StatusConfirmed),
		booking("2024-06-15", "10:00", 1, models.StatusConfirmed),
		booking("2024-07-01", "10:00", 1, models.StatusConfirmed),
	}

	stats := AggregateStats(bookings, "2024-06-01", "2024-06-15")
	assert.Equal(t, 2, stats.TotalBookings)
}

func TestAggregateStats_Idempotent(t *testing.T) {
	bookings := []models.Booking{
		booking("2024-06-01", "10:00", 3, models.StatusCompleted),
		booking("2024-06-02", "10:00", 2, models.StatusCancelled),
	}

	first := AggregateStats(bookings, "2024-06-01", "2024-06-30")
	second := AggregateStats(bookings, "2024-06-01", "2024-06-30")
	assert.Equal(t, first, second)
}

func TestTodaysBookings_Ordering(t *testing.T) {
	bookings := []models.Booking{
		booking("2024-06-01", "15:00", 1, models.StatusConfirmed),
		booking("2024-06-02", "09:00", 1, models.StatusConfirmed),
		booking("2024-06-01", "09:00", 1, models.StatusConfirmed),
	}

	today := TodaysBookings(bookings, "2024-06-01")
	require.Len(t, today, 2)
	assert.Equal(t, "09:00", today[0].StartTime)
	assert.Equal(t, "15:00", today[1].StartTime)
}

func TestUpcomingBookings_Ordering(t *testing.T) {
	bookings := []models.Booking{
		booking("2024-06-03", "09:00", 1, models.StatusConfirmed),
		booking("2024-06-01", "15:00", 1, models.StatusConfirmed),
		booking("2024-06-01", "09:00", 1, models.StatusConfirmed),
		booking("2024-05-01", "09:00", 1, models.StatusConfirmed),
	}

	upcoming := UpcomingBookings(bookings, "2024-06-01")
	require.Len(t, upcoming, 3)
	assert.Equal(t, "2024-06-01", upcoming[0].Date)
	assert.Equal(t, "09:00", upcoming[0].StartTime)
	assert.Equal(t, "15:00", upcoming[1].StartTime)
	assert.Equal(t, "2024-06-03", upcoming[2].Date)
}

func TestDailyBookings(t *testing.T) {
	bookings := []models.Booking{
		booking("2024-06-01", "15:00", 1, models.StatusConfirmed),
		booking("2024-06-01", "09:00", 1, models.StatusConfirmed),
		booking("2024-06-02", "10:00", 1, models.StatusConfirmed),
		booking("2024-07-01", "10:00", 1, models.StatusConfirmed),
	}

	daily := DailyBookings(bookings, "2024-06-01", "2024-06-30")
	require.Len(t, daily, 2)
	require.Len(t, daily["2024-06-01"], 2)
	assert.Equal(t, "09:00", daily["2024-06-01"][0].StartTime)
	assert.Len(t, daily["2024-06-02"], 1)
}
