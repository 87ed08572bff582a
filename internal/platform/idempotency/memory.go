package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Suitable for tests and
// single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	clock   func() time.Time
}

// MemoryOption customises MemoryStore behaviour.
type MemoryOption func(*MemoryStore)

// WithMemoryClock injects a time source for tests.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		records: make(map[string]Record),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Get returns the record for key when present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return Record{}, false, nil
	}
	if record.Expired(s.clock()) {
		delete(s.records, key)
		return Record{}, false, nil
	}
	return record, true, nil
}

// Put stores the record.
func (s *MemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	s.records[record.Key] = record
	s.mu.Unlock()
	return nil
}

// Delete removes the record for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}
