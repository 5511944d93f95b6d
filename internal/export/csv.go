// Package export produces downloadable artifacts: CSV dumps, XLSX schedule
// grids and invoice documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"studiobook/internal/models"
)

var csvHeader = []string{
	"id", "client_name", "phone_number", "date", "start_time",
	"duration_hours", "actual_end_time", "type", "status", "notes", "created_at",
}

// WriteCSV streams the bookings as CSV in the order given.
func WriteCSV(w io.Writer, bookings []models.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, b := range bookings {
		record := []string{
			b.ID,
			b.ClientName,
			b.PhoneNumber,
			b.Date,
			b.StartTime,
			strconv.FormatFloat(b.DurationHours, 'f', -1, 64),
			b.ActualEndTime,
			b.Type,
			b.Status,
			b.Notes,
			b.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
