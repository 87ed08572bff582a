package domain

import "time"

// OrderStatus enumerates lifecycle states for customization orders.
type OrderStatus string

const (
	// OrderStatusDraft marks an in-progress customization saved for recovery.
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusPending marks a submitted order awaiting admin review.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusApproved marks an order accepted by the review workflow.
	OrderStatusApproved OrderStatus = "approved"
	// OrderStatusRejected marks an order declined by the review workflow.
	OrderStatusRejected OrderStatus = "rejected"
	// OrderStatusDeleted marks a soft-deleted order hidden from history.
	OrderStatusDeleted OrderStatus = "deleted"
)

// Known reports whether the status is one of the enumerated states.
func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPending, OrderStatusApproved, OrderStatusRejected, OrderStatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the review workflow may move an order from
// the current status to next. Review decisions only apply to pending orders;
// users may soft-delete drafts and pending orders.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return next == OrderStatusPending || next == OrderStatusDeleted
	case OrderStatusPending:
		return next == OrderStatusApproved || next == OrderStatusRejected || next == OrderStatusDeleted
	}
	return false
}

// Order is the submitted form of a customization session. Option fields hold
// display labels (not catalog values) so the record reads naturally in the
// admin review screens.
type Order struct {
	ID                string
	UserID            string
	ClothType         string
	Material          string
	Style             string
	PocketType        string
	Color             string
	DetailDescription string
	Size              string
	Measurements      map[string]float64
	ImageURL          string
	ImagePath         string
	Status            OrderStatus
	AdminComment      string
	ReviewedBy        string
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GeneratedImage records one image-generation call and where its outputs
// were persisted.
type GeneratedImage struct {
	ID              string
	UserID          string
	Prompt          string
	OptimizedPrompt string
	StoragePath     string
	StorageURL      string
	ImageURLs       []string
	CreatedAt       time.Time
}

// SystemPrompt is an admin-editable template consumed by the image
// generation service.
type SystemPrompt struct {
	ID        string
	Name      string
	Content   string
	IsActive  bool
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
