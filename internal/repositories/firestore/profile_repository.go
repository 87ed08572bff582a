package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const userCollection = "users"

// ProfileRepository persists user profiles in Firestore, keyed by Firebase UID.
type ProfileRepository struct {
	base *pfirestore.BaseRepository[profileDocument]
}

// NewProfileRepository constructs a Firestore-backed profile repository.
func NewProfileRepository(provider *pfirestore.Provider) (*ProfileRepository, error) {
	if provider == nil {
		return nil, errors.New("profile repository requires firestore provider")
	}
	return &ProfileRepository{
		base: pfirestore.NewBaseRepository[profileDocument](provider, userCollection, nil, nil),
	}, nil
}

// FindByID fetches the profile for the given user.
func (r *ProfileRepository) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Upsert stores the profile under its user ID.
func (r *ProfileRepository) Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	id := strings.TrimSpace(profile.ID)
	if id == "" {
		return domain.UserProfile{}, errors.New("profile repository: user id is required")
	}
	doc := encodeProfile(profile)
	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.UserProfile{}, err
	}
	return doc.toDomain(id), nil
}

type profileDocument struct {
	DisplayName  string    `firestore:"displayName,omitempty"`
	Email        string    `firestore:"email,omitempty"`
	PhoneNumber  string    `firestore:"phoneNumber,omitempty"`
	Gender       string    `firestore:"gender,omitempty"`
	HeightCM     float64   `firestore:"heightCm,omitempty"`
	Locale       string    `firestore:"locale,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
	LastSyncTime time.Time `firestore:"lastSyncTime,omitempty"`
}

func encodeProfile(profile domain.UserProfile) profileDocument {
	return profileDocument{
		DisplayName:  strings.TrimSpace(profile.DisplayName),
		Email:        strings.TrimSpace(profile.Email),
		PhoneNumber:  strings.TrimSpace(profile.PhoneNumber),
		Gender:       strings.TrimSpace(profile.Gender),
		HeightCM:     profile.HeightCM,
		Locale:       strings.TrimSpace(profile.Locale),
		CreatedAt:    profile.CreatedAt.UTC(),
		UpdatedAt:    profile.UpdatedAt.UTC(),
		LastSyncTime: profile.LastSyncTime.UTC(),
	}
}

func (d profileDocument) toDomain(id string) domain.UserProfile {
	return domain.UserProfile{
		ID:           id,
		DisplayName:  d.DisplayName,
		Email:        d.Email,
		PhoneNumber:  d.PhoneNumber,
		Gender:       d.Gender,
		HeightCM:     d.HeightCM,
		Locale:       d.Locale,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		LastSyncTime: d.LastSyncTime,
	}
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)
