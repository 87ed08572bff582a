package repositories

import (
	"context"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Drafts() DraftRepository
	Profiles() ProfileRepository
	Addresses() AddressRepository
	GeneratedImages() GeneratedImageRepository
	SystemPrompts() SystemPromptRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists customization orders and provides query helpers
// for users and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	// UpdateStatus transitions the order status and records review metadata
	// in the same write.
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, review ReviewUpdate) (domain.Order, error)
}

// ReviewUpdate carries admin review metadata applied during a status transition.
type ReviewUpdate struct {
	ReviewedBy   string
	ReviewedAt   time.Time
	AdminComment string
}

// OrderListFilter narrows and pages order listings. An empty UserID lists
// across all users (admin views).
type OrderListFilter struct {
	UserID     string
	Status     []domain.OrderStatus
	Pagination domain.Pagination
}

// DraftRepository stores wizard snapshots so interrupted sessions can resume.
type DraftRepository interface {
	Save(ctx context.Context, draft domain.Draft) (domain.Draft, error)
	FindLatest(ctx context.Context, userID string) (domain.Draft, error)
	Delete(ctx context.Context, userID string, draftID string) error
}

// ProfileRepository stores user profiles keyed by the Firebase UID.
type ProfileRepository interface {
	FindByID(ctx context.Context, userID string) (domain.UserProfile, error)
	Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
}

// AddressRepository stores delivery addresses per user.
type AddressRepository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID string, addressID string) (domain.Address, error)
	Upsert(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error)
	Delete(ctx context.Context, userID string, addressID string) error
	SetDefault(ctx context.Context, userID string, addressID string) (domain.Address, error)
}

// GeneratedImageRepository records image generation calls and their stored outputs.
type GeneratedImageRepository interface {
	Insert(ctx context.Context, image domain.GeneratedImage) (domain.GeneratedImage, error)
	ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.GeneratedImage], error)
	// CountSince reports how many generations the user requested at or after
	// the cutoff, for per-user quota enforcement.
	CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error)
}

// SystemPromptRepository stores admin-editable prompt templates for image generation.
type SystemPromptRepository interface {
	FindActive(ctx context.Context) (domain.SystemPrompt, error)
	List(ctx context.Context) ([]domain.SystemPrompt, error)
	Upsert(ctx context.Context, prompt domain.SystemPrompt) (domain.SystemPrompt, error)
	// Activate marks the prompt active and deactivates every other prompt.
	Activate(ctx context.Context, promptID string, updatedBy string, now time.Time) (domain.SystemPrompt, error)
	Delete(ctx context.Context, promptID string) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
