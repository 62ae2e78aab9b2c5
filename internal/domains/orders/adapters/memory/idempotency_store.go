package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps order idempotency keys in process memory.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]ports.IdempotencyRecord
	now     func() time.Time
}

// NewIdempotencyStore constructs an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[string]ports.IdempotencyRecord{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (s *IdempotencyStore) WithClock(now func() time.Time) *IdempotencyStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.Key]; ok {
		if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
			return &existing, ports.ErrIdempotencyConflict
		}
		return &existing, nil
	}
	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[record.Key] = record
	return &record, nil
}
