package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const (
	minHeightCM = 100
	maxHeightCM = 230
)

var (
	// ErrUserInvalidInput signals the caller provided invalid data.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates the profile or address could not be located.
	ErrUserNotFound = errors.New("user: not found")
)

// UserServiceDeps bundles collaborators required to construct the user service.
type UserServiceDeps struct {
	Profiles  repositories.ProfileRepository
	Addresses repositories.AddressRepository
	Clock     func() time.Time
}

type userService struct {
	profiles  repositories.ProfileRepository
	addresses repositories.AddressRepository
	clock     func() time.Time
}

var _ UserService = (*userService)(nil)

// NewUserService assembles the profile and address book service.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Profiles == nil {
		return nil, errors.New("user service: profile repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("user service: address repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &userService{
		profiles:  deps.Profiles,
		addresses: deps.Addresses,
		clock:     func() time.Time { return clock().UTC() },
	}, nil
}

// GetProfile returns the stored profile, provisioning one from the
// authenticated identity on first access.
func (s *userService) GetProfile(ctx context.Context, cmd GetProfileCommand) (domain.UserProfile, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.UserProfile{}, ErrUserInvalidInput
	}

	profile, err := s.profiles.FindByID(ctx, uid)
	if err == nil {
		return profile, nil
	}
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		return domain.UserProfile{}, err
	}

	now := s.clock()
	fresh := domain.UserProfile{
		ID:           uid,
		DisplayName:  strings.TrimSpace(cmd.DisplayName),
		Email:        strings.TrimSpace(cmd.Email),
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSyncTime: now,
	}
	return s.profiles.Upsert(ctx, fresh)
}

// UpdateProfile applies the provided edits; nil fields stay unchanged.
func (s *userService) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (domain.UserProfile, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.UserProfile{}, ErrUserInvalidInput
	}

	profile, err := s.profiles.FindByID(ctx, uid)
	if err != nil {
		return domain.UserProfile{}, mapUserRepoError(err)
	}

	if cmd.DisplayName != nil {
		name := strings.TrimSpace(*cmd.DisplayName)
		if name == "" {
			return domain.UserProfile{}, ErrUserInvalidInput
		}
		profile.DisplayName = name
	}
	if cmd.PhoneNumber != nil {
		profile.PhoneNumber = strings.TrimSpace(*cmd.PhoneNumber)
	}
	if cmd.Gender != nil {
		profile.Gender = string(domain.NormalizeGender(*cmd.Gender))
	}
	if cmd.HeightCM != nil {
		height := *cmd.HeightCM
		if height < minHeightCM || height > maxHeightCM {
			return domain.UserProfile{}, ErrUserInvalidInput
		}
		profile.HeightCM = height
	}
	if cmd.Locale != nil {
		tag, err := language.Parse(strings.TrimSpace(*cmd.Locale))
		if err != nil {
			return domain.UserProfile{}, ErrUserInvalidInput
		}
		profile.Locale = tag.String()
	}

	profile.UpdatedAt = s.clock()
	return s.profiles.Upsert(ctx, profile)
}

// ListAddresses returns the user's address book, default entry first.
func (s *userService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrUserInvalidInput
	}
	addresses, err := s.addresses.List(ctx, uid)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	return addresses, nil
}

// UpsertAddress creates or updates an address book entry.
func (s *userService) UpsertAddress(ctx context.Context, cmd UpsertAddressCommand) (domain.Address, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.Address{}, ErrUserInvalidInput
	}
	addr := cmd.Address
	if strings.TrimSpace(addr.Recipient) == "" ||
		strings.TrimSpace(addr.Line1) == "" ||
		strings.TrimSpace(addr.PostalCode) == "" {
		return domain.Address{}, ErrUserInvalidInput
	}
	saved, err := s.addresses.Upsert(ctx, uid, cmd.AddressID, addr)
	if err != nil {
		return domain.Address{}, mapUserRepoError(err)
	}
	return saved, nil
}

// DeleteAddress removes an address book entry.
func (s *userService) DeleteAddress(ctx context.Context, userID string, addressID string) error {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(addressID)
	if uid == "" || id == "" {
		return ErrUserInvalidInput
	}
	if err := s.addresses.Delete(ctx, uid, id); err != nil {
		return mapUserRepoError(err)
	}
	return nil
}

// SetDefaultAddress marks one entry as the delivery default.
func (s *userService) SetDefaultAddress(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(addressID)
	if uid == "" || id == "" {
		return domain.Address{}, ErrUserInvalidInput
	}
	addr, err := s.addresses.SetDefault(ctx, uid, id)
	if err != nil {
		return domain.Address{}, mapUserRepoError(err)
	}
	return addr, nil
}

func mapUserRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrUserNotFound
	}
	return err
}
