package services

import (
	"context"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

// OrderService coordinates submission of completed customizations and the
// admin review workflow.
type OrderService interface {
	Submit(ctx context.Context, cmd SubmitOrderCommand) (domain.Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	GetOrder(ctx context.Context, cmd GetOrderCommand) (domain.Order, error)
	DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) (domain.Order, error)
	Review(ctx context.Context, cmd ReviewOrderCommand) (domain.Order, error)
}

// SubmitOrderCommand carries the finished wizard snapshot for submission.
type SubmitOrderCommand struct {
	UserID   string
	Snapshot domain.CustomizationSnapshot
	// DraftID, when set, removes the saved draft after a successful submit.
	DraftID string
}

// OrderListFilter narrows order listings. Admin listings leave UserID empty.
type OrderListFilter struct {
	UserID     string
	Status     []domain.OrderStatus
	Pagination domain.Pagination
}

// GetOrderCommand fetches one order. Non-admin callers only see their own.
type GetOrderCommand struct {
	OrderID string
	UserID  string
	IsAdmin bool
}

// DeleteOrderCommand soft-deletes an order on behalf of its owner.
type DeleteOrderCommand struct {
	OrderID string
	UserID  string
}

// ReviewOrderCommand records an admin decision on a pending order.
type ReviewOrderCommand struct {
	OrderID  string
	Approve  bool
	Comment  string
	AdminUID string
}

// DraftService persists in-progress wizard sessions for recovery.
type DraftService interface {
	SaveDraft(ctx context.Context, cmd SaveDraftCommand) (domain.Draft, error)
	LatestDraft(ctx context.Context, userID string) (domain.Draft, error)
	DiscardDraft(ctx context.Context, userID string, draftID string) error
}

// SaveDraftCommand upserts a wizard snapshot. An empty DraftID creates a new draft.
type SaveDraftCommand struct {
	UserID   string
	DraftID  string
	Snapshot domain.CustomizationSnapshot
}

// ImageGenService renders garment previews, persists the outputs, and manages
// the prompt templates behind them.
type ImageGenService interface {
	GeneratePreviews(ctx context.Context, cmd GeneratePreviewsCommand) (GenerationResult, error)
	StoreSelectedImage(ctx context.Context, cmd StoreImageCommand) (StoredImage, error)
	ListHistory(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.GeneratedImage], error)

	ListPrompts(ctx context.Context) ([]domain.SystemPrompt, error)
	SavePrompt(ctx context.Context, cmd SavePromptCommand) (domain.SystemPrompt, error)
	ActivatePrompt(ctx context.Context, promptID string, adminUID string) (domain.SystemPrompt, error)
	DeletePrompt(ctx context.Context, promptID string) error
}

// GeneratePreviewsCommand carries the wizard selections folded into the prompt.
type GeneratePreviewsCommand struct {
	UserID     string
	ClothType  domain.GarmentType
	Material   string
	Style      string
	Fit        string
	Pocket     string
	DetailText string
}

// GenerationResult is the outcome of one generation call.
type GenerationResult struct {
	RequestID string
	Prompt    string
	ImageURLs []string
}

// StoreImageCommand persists the preview the user picked to durable storage.
type StoreImageCommand struct {
	UserID    string
	RequestID string
	Index     int
}

// StoredImage points at the durable copy of a selected preview.
type StoredImage struct {
	URL  string
	Path string
}

// SavePromptCommand upserts a prompt template. An empty PromptID creates one.
type SavePromptCommand struct {
	PromptID string
	Name     string
	Content  string
	AdminUID string
}

// RecommendationService suggests a size from profile measurements.
type RecommendationService interface {
	RecommendSize(ctx context.Context, cmd RecommendSizeCommand) (SizeRecommendation, error)
}

// RecommendSizeCommand asks for a size suggestion. Height and gender fall
// back to the stored profile when omitted.
type RecommendSizeCommand struct {
	UserID    string
	ClothType domain.GarmentType
	HeightCM  float64
	Gender    string
}

// SizeRecommendation is the suggested size with its measurement table.
type SizeRecommendation struct {
	Size         string
	Gender       domain.Gender
	HeightCM     float64
	Measurements map[string]float64
	MeasureKeys  []string
	// Fallback is set when the chart had no row for the garment and the
	// default size was used instead.
	Fallback bool
}

// UserService manages profile and address book surfaces.
type UserService interface {
	GetProfile(ctx context.Context, cmd GetProfileCommand) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (domain.UserProfile, error)

	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	UpsertAddress(ctx context.Context, cmd UpsertAddressCommand) (domain.Address, error)
	DeleteAddress(ctx context.Context, userID string, addressID string) error
	SetDefaultAddress(ctx context.Context, userID string, addressID string) (domain.Address, error)
}

// GetProfileCommand fetches a profile, provisioning it on first sight from
// the authenticated identity.
type GetProfileCommand struct {
	UserID      string
	Email       string
	DisplayName string
}

// UpdateProfileCommand applies profile edits. Nil fields are left unchanged.
type UpdateProfileCommand struct {
	UserID      string
	DisplayName *string
	PhoneNumber *string
	Gender      *string
	HeightCM    *float64
	Locale      *string
}

// UpsertAddressCommand creates or updates an address book entry.
type UpsertAddressCommand struct {
	UserID    string
	AddressID *string
	Address   domain.Address
}

// NotificationService enqueues transactional email jobs.
type NotificationService interface {
	NotifyOrderSubmitted(ctx context.Context, order domain.Order, userEmail string) error
	NotifyOrderReviewed(ctx context.Context, order domain.Order, userEmail string) error
}

// SystemService exposes operational health and build metadata.
type SystemService interface {
	Health(ctx context.Context) (HealthReport, error)
	Build() BuildInfo
}

// HealthReport is the service-level projection of dependency health.
type HealthReport struct {
	Status      domain.HealthStatus
	Checks      map[string]domain.SystemHealthCheck
	GeneratedAt time.Time
	Uptime      time.Duration
}
