package models

import "time"

// Booking is a scheduled studio session. Dates are YYYY-MM-DD and times of
// day HH:MM, both fixed-width so lexicographic comparison matches
// chronological order.
type Booking struct {
	ID             string          `json:"id"`
	ClientName     string          `json:"client_name"`
	PhoneNumber    string          `json:"phone_number,omitempty"`
	Date           string          `json:"date"`
	StartTime      string          `json:"start_time"`
	DurationHours  float64         `json:"duration_hours"`
	ActualEndTime  string          `json:"actual_end_time,omitempty"`
	Type           string          `json:"type,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	Notes          string          `json:"notes,omitempty"`
	InvoiceDetails *InvoiceDetails `json:"invoice_details,omitempty"`
}

// InvoiceDetails is the billing snapshot attached after invoice generation.
// Re-invoicing overwrites it.
type InvoiceDetails struct {
	RatePerHour float64   `json:"rate_per_hour"`
	TotalAmount float64   `json:"total_amount"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ProposedBooking is a partial record extracted by the AI collaborator from
// free text or audio. Every field is optional; it goes through the same
// validation as manual input before it can become a Booking.
type ProposedBooking struct {
	ClientName    string  `json:"client_name,omitempty"`
	PhoneNumber   string  `json:"phone_number,omitempty"`
	Date          string  `json:"date,omitempty"`
	StartTime     string  `json:"start_time,omitempty"`
	DurationHours float64 `json:"duration_hours,omitempty"`
	Type          string  `json:"type,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// BookingStats aggregates a date range of the collection.
type BookingStats struct {
	TotalBookings     int     `json:"total_bookings"`
	CompletedBookings int     `json:"completed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	TotalHours        float64 `json:"total_hours"`
}
