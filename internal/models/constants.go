package models

const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	// DateLayout and TimeLayout are fixed-width; lexicographic order of the
	// rendered strings equals chronological order.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	// StorageKey is the fixed key the whole serialized collection lives under
	// in the key-value store.
	StorageKey = "studiobook:bookings"

	// DefaultUpcomingLimit caps the upcoming list in presentation surfaces.
	DefaultUpcomingLimit = 10

	// FlushQueueSize is the buffer of the persistence retry worker.
	FlushQueueSize = 64

	// RateLimitRPS and RateLimitBurst are the API defaults.
	RateLimitRPS   = 10.0
	RateLimitBurst = 20
)
