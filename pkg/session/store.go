package session

import (
	"context"
	"time"
)

// Store persists client storage blobs, keyed by client ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists data for id until expiresAt, overwriting any previous
	// value.
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error

	// Load retrieves data by id.
	// Returns (nil, nil) if it doesn't exist or has expired.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes data for id. Missing ids are not an error.
	Delete(ctx context.Context, id string) error

	// Touch extends the expiration without rewriting the data.
	// Missing ids are not an error.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
type ErrStoreClosed struct{}

func (e ErrStoreClosed) Error() string {
	return "session store is closed"
}
