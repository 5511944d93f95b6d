package store

import "errors"

var (
	ErrMissingField      = errors.New("required booking field is missing")
	ErrOverlap           = errors.New("booking overlaps an existing session")
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidTime       = errors.New("invalid time value")
)
