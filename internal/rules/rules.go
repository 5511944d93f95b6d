// Package rules holds the pure booking rules engine: overlap detection,
// status transitions and derived statistics. Nothing here mutates its inputs
// or touches storage.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"studiobook/internal/models"
)

// ParseMinutes converts an HH:MM string to minutes since midnight.
func ParseMinutes(t string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(t), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", t)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", t, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", t, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", t)
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes since midnight back to HH:MM, wrapping past
// midnight so 25:30 becomes 01:30.
func FormatMinutes(m int) string {
	m %= 24 * 60
	if m < 0 {
		m += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// HasOverlap reports whether the candidate interval collides with any
// non-cancelled booking on the same date. Intervals are open: a shared
// endpoint does not count. When the candidate is missing its date, start time
// or duration no overlap can be asserted and the result is false.
//
// A session whose end runs past 24:00 is still evaluated only against its own
// date; cross-midnight spill into the next day is not reconciled.
func HasOverlap(date, startTime string, durationHours float64, existing []models.Booking) bool {
	if date == "" || startTime == "" || durationHours <= 0 {
		return false
	}
	start, err := ParseMinutes(startTime)
	if err != nil {
		return false
	}
	end := start + int(durationHours*60)

	for _, b := range existing {
		if b.Status == models.StatusCancelled || b.Date != date {
			continue
		}
		bStart, err := ParseMinutes(b.StartTime)
		if err != nil {
			continue
		}
		bEnd := bStart + int(b.DurationHours*60)
		if start < bEnd && end > bStart {
			return true
		}
	}
	return false
}

// CanTransition reports whether a booking in the given status may move to
// newStatus. Completed and cancelled are terminal.
func CanTransition(status, newStatus string) bool {
	if status != models.StatusConfirmed {
		return false
	}
	return newStatus == models.StatusCompleted || newStatus == models.StatusCancelled
}

// DefaultEndTime is the completion end time proposed to the caller:
// start plus the booked duration. The caller may confirm any other value.
func DefaultEndTime(startTime string, durationHours float64) (string, error) {
	start, err := ParseMinutes(startTime)
	if err != nil {
		return "", err
	}
	return FormatMinutes(start + int(durationHours*60)), nil
}

// AggregateStats filters bookings to date within [from, to] inclusive and
// computes counts plus total non-cancelled hours. Pure and deterministic.
func AggregateStats(bookings []models.Booking, from, to string) models.BookingStats {
	var stats models.BookingStats
	for _, b := range bookings {
		if b.Date < from || b.Date > to {
			continue
		}
		stats.TotalBookings++
		switch b.Status {
		case models.StatusCompleted:
			stats.CompletedBookings++
		case models.StatusCancelled:
			stats.CancelledBookings++
		}
		if b.Status != models.StatusCancelled {
			stats.TotalHours += b.DurationHours
		}
	}
	return stats
}

// TodaysBookings returns bookings on the given date ordered by start time.
func TodaysBookings(bookings []models.Booking, today string) []models.Booking {
	var out []models.Booking
	for _, b := range bookings {
		if b.Date == today {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// UpcomingBookings returns bookings with date >= today ordered by date then
// start time. Capping the result is a presentation concern.
func UpcomingBookings(bookings []models.Booking, today string) []models.Booking {
	var out []models.Booking
	for _, b := range bookings {
		if b.Date >= today {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// DailyBookings groups a date range by date for the calendar view.
func DailyBookings(bookings []models.Booking, from, to string) map[string][]models.Booking {
	daily := make(map[string][]models.Booking)
	for _, b := range bookings {
		if b.Date < from || b.Date > to {
			continue
		}
		daily[b.Date] = append(daily[b.Date], b)
	}
	for date := range daily {
		day := daily[date]
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].StartTime < day[j].StartTime
		})
	}
	return daily
}
