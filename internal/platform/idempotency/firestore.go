package idempotency

import (
	"context"
	"errors"
	"time"

	platformfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
)

const idempotencyCollection = "idempotency_keys"

// FirestoreStore persists idempotency records in Firestore so replays work
// across instances.
type FirestoreStore struct {
	repo  *platformfirestore.BaseRepository[Record]
	clock func() time.Time
}

// NewFirestoreStore constructs a FirestoreStore on the shared provider.
func NewFirestoreStore(provider *platformfirestore.Provider, clock func() time.Time) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("idempotency: firestore provider is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &FirestoreStore{
		repo:  platformfirestore.NewBaseRepository[Record](provider, idempotencyCollection, nil, nil),
		clock: clock,
	}, nil
}

// Get returns the record for key when present and unexpired.
func (s *FirestoreStore) Get(ctx context.Context, key string) (Record, bool, error) {
	doc, err := s.repo.Get(ctx, key)
	if err != nil {
		var repoErr *platformfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	if doc.Data.Expired(s.clock()) {
		// Lazy cleanup; the record is already useless.
		_ = s.repo.Delete(ctx, key)
		return Record{}, false, nil
	}
	return doc.Data, true, nil
}

// Put stores the record keyed by its idempotency key.
func (s *FirestoreStore) Put(ctx context.Context, record Record) error {
	_, err := s.repo.Set(ctx, record.Key, record)
	return err
}

// Delete removes the record for key.
func (s *FirestoreStore) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}
