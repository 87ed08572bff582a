package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrFingerprintMismatch signals that an idempotency key was reused with a
// different request payload.
var ErrFingerprintMismatch = errors.New("idempotency: key reused with different payload")

// Record captures a completed response so duplicate submissions can be replayed.
type Record struct {
	Key         string            `firestore:"key"`
	Fingerprint string            `firestore:"fingerprint"`
	Status      int               `firestore:"status"`
	Headers     map[string]string `firestore:"headers"`
	Body        []byte            `firestore:"body"`
	CreatedAt   time.Time         `firestore:"createdAt"`
	ExpiresAt   time.Time         `firestore:"expiresAt"`
}

// Expired reports whether the record is past its TTL at the given time.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists idempotency records.
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, record Record) error
	Delete(ctx context.Context, key string) error
}
