package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or order.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord ties a client-supplied key to the order it created.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency keys so retried creates can be replayed.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record. A key already stored with the same hash and
	// order returns the stored record; any other reuse returns it together
	// with ErrIdempotencyConflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
