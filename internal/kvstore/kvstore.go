// Package kvstore persists the whole booking collection as one serialized
// snapshot under a fixed key, the way the original kept it in local storage.
// There are no per-record writes and no transactional semantics: every save
// overwrites the previous value (last write wins).
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studiobook/internal/models"
)

var (
	// ErrNotFound means no snapshot has ever been saved under the key.
	ErrNotFound = errors.New("kvstore: snapshot not found")
	// ErrCorrupted means the stored value did not decode; callers fall back
	// to an empty collection.
	ErrCorrupted = errors.New("kvstore: snapshot corrupted")
)

// Snapshot is the persisted representation of the collection. Revision is
// bumped by the owner on every mutation so concurrent clobbering is at least
// observable in logs.
type Snapshot struct {
	Revision int64            `json:"revision"`
	SavedAt  time.Time        `json:"saved_at"`
	Bookings []models.Booking `json:"bookings"`
}

// Store is the persistence collaborator contract.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Encode serializes a snapshot. Struct field order is fixed and the booking
// slice keeps insertion order, so encoding the same snapshot always yields
// identical bytes.
func Encode(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a stored value. A malformed value is reported as
// ErrCorrupted rather than a bare unmarshal error.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return &snap, nil
}
