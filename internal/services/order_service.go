package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/brand-er1/clothology-express-sub000/internal/customize"
	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/textutil"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const orderIDPrefix = "ord_"

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the caller does not own the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderIncomplete wraps a wizard step validation failure at submission.
	ErrOrderIncomplete = errors.New("order: customization incomplete")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	Drafts        repositories.DraftRepository
	Profiles      repositories.ProfileRepository
	Notifications NotificationService
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders        repositories.OrderRepository
	drafts        repositories.DraftRepository
	profiles      repositories.ProfileRepository
	notifications NotificationService
	clock         func() time.Time
	newID         func() string
	log           func(ctx context.Context, event string, fields map[string]any)
	sanitize      *bluemonday.Policy
}

var _ OrderService = (*orderService)(nil)

// NewOrderService assembles the order submission and review workflow.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string {
			return orderIDPrefix + strings.ToLower(ulid.Make().String())
		}
	}
	log := deps.Logger
	if log == nil {
		log = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:        deps.Orders,
		drafts:        deps.Drafts,
		profiles:      deps.Profiles,
		notifications: deps.Notifications,
		clock:         func() time.Time { return clock().UTC() },
		newID:         newID,
		log:           log,
		sanitize:      bluemonday.StrictPolicy(),
	}, nil
}

// Submit validates the snapshot by replaying it through the wizard, persists
// the resulting order as pending, and fires the submission notifications.
func (s *orderService) Submit(ctx context.Context, cmd SubmitOrderCommand) (domain.Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}

	payload, err := replaySnapshot(cmd.Snapshot)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	order := domain.Order{
		ID:                s.newID(),
		UserID:            userID,
		ClothType:         payload.ClothType,
		Material:          payload.Material,
		Style:             payload.Style,
		PocketType:        payload.PocketType,
		Color:             payload.Color,
		DetailDescription: s.sanitize.Sanitize(payload.DetailDescription),
		Size:              payload.Size,
		Measurements:      textutil.NormalizeMeasurements(payload.Measurements),
		ImageURL:          payload.ImageURL,
		ImagePath:         payload.ImagePath,
		Status:            domain.OrderStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	saved, err := s.orders.Insert(ctx, order)
	if err != nil {
		return domain.Order{}, mapOrderRepoError(err)
	}

	if draftID := strings.TrimSpace(cmd.DraftID); draftID != "" && s.drafts != nil {
		if err := s.drafts.Delete(ctx, userID, draftID); err != nil {
			s.log(ctx, "order.draft_cleanup_failed", map[string]any{
				"orderId": saved.ID,
				"draftId": draftID,
				"error":   err.Error(),
			})
		}
	}

	s.notifySubmitted(ctx, saved)
	return saved, nil
}

// ListOrders returns orders for the filter. Owner listings hide soft-deleted
// orders unless the filter asks for a status explicitly.
func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error) {
	repoFilter := repositories.OrderListFilter{
		UserID:     strings.TrimSpace(filter.UserID),
		Status:     filter.Status,
		Pagination: filter.Pagination,
	}
	if len(repoFilter.Status) == 0 && repoFilter.UserID != "" {
		repoFilter.Status = []domain.OrderStatus{
			domain.OrderStatusPending,
			domain.OrderStatusApproved,
			domain.OrderStatusRejected,
		}
	}
	page, err := s.orders.List(ctx, repoFilter)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, mapOrderRepoError(err)
	}
	return page, nil
}

// GetOrder fetches one order, enforcing ownership for non-admin callers.
func (s *orderService) GetOrder(ctx context.Context, cmd GetOrderCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapOrderRepoError(err)
	}
	if !cmd.IsAdmin {
		if order.UserID != strings.TrimSpace(cmd.UserID) {
			return domain.Order{}, ErrOrderForbidden
		}
		if order.Status == domain.OrderStatusDeleted {
			return domain.Order{}, ErrOrderNotFound
		}
	}
	return order, nil
}

// DeleteOrder soft-deletes an order owned by the caller. Only drafts and
// pending orders can be removed.
func (s *orderService) DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) (domain.Order, error) {
	order, err := s.GetOrder(ctx, GetOrderCommand{OrderID: cmd.OrderID, UserID: cmd.UserID})
	if err != nil {
		return domain.Order{}, err
	}
	deleted, err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusDeleted, repositories.ReviewUpdate{
		ReviewedAt: s.clock(),
	})
	if err != nil {
		return domain.Order{}, mapOrderRepoError(err)
	}
	return deleted, nil
}

// Review approves or rejects a pending order and notifies the owner.
func (s *orderService) Review(ctx context.Context, cmd ReviewOrderCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	adminUID := strings.TrimSpace(cmd.AdminUID)
	if orderID == "" || adminUID == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}

	next := domain.OrderStatusRejected
	if cmd.Approve {
		next = domain.OrderStatusApproved
	}
	reviewed, err := s.orders.UpdateStatus(ctx, orderID, next, repositories.ReviewUpdate{
		ReviewedBy:   adminUID,
		ReviewedAt:   s.clock(),
		AdminComment: s.sanitize.Sanitize(strings.TrimSpace(cmd.Comment)),
	})
	if err != nil {
		return domain.Order{}, mapOrderRepoError(err)
	}

	s.notifyReviewed(ctx, reviewed)
	return reviewed, nil
}

func (s *orderService) notifySubmitted(ctx context.Context, order domain.Order) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.NotifyOrderSubmitted(ctx, order, s.ownerEmail(ctx, order.UserID)); err != nil {
		s.log(ctx, "order.notify_submitted_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) notifyReviewed(ctx context.Context, order domain.Order) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.NotifyOrderReviewed(ctx, order, s.ownerEmail(ctx, order.UserID)); err != nil {
		s.log(ctx, "order.notify_reviewed_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) ownerEmail(ctx context.Context, userID string) string {
	if s.profiles == nil {
		return ""
	}
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return ""
	}
	return profile.Email
}

// replaySnapshot rehydrates a wizard from the snapshot and walks every step
// so submission hits the same validations as the interactive flow.
func replaySnapshot(snap domain.CustomizationSnapshot) (customize.OrderPayload, error) {
	replay := snap
	replay.Step = 1

	wizard := customize.NewWizard()
	wizard.RestoreSnapshot(replay)
	for {
		completed, err := wizard.Advance()
		if err != nil {
			var stepErr *customize.StepValidationError
			if errors.As(err, &stepErr) {
				return customize.OrderPayload{}, errors.Join(ErrOrderIncomplete, stepErr)
			}
			return customize.OrderPayload{}, err
		}
		if completed {
			return wizard.Payload(), nil
		}
	}
}

func mapOrderRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrOrderNotFound
		case repoErr.IsConflict():
			return ErrOrderInvalidState
		}
	}
	return err
}
