package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/jobs"
)

const emailJobIDPrefix = "ej_"

// NotificationServiceDeps bundles collaborators for the notification service.
type NotificationServiceDeps struct {
	Publisher jobs.EmailPublisher
	// AdminEmails receive a copy of every new-order notification.
	AdminEmails []string
	FromAddress string
	Clock       func() time.Time
	IDGenerator func() string
}

type notificationService struct {
	publisher   jobs.EmailPublisher
	adminEmails []string
	from        string
	clock       func() time.Time
	newID       func() string
}

var _ NotificationService = (*notificationService)(nil)

// NewNotificationService assembles the email job enqueueing service.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Publisher == nil {
		return nil, errors.New("notification service: publisher is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string {
			return emailJobIDPrefix + strings.ToLower(ulid.Make().String())
		}
	}
	admins := make([]string, 0, len(deps.AdminEmails))
	for _, email := range deps.AdminEmails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			admins = append(admins, trimmed)
		}
	}
	return &notificationService{
		publisher:   deps.Publisher,
		adminEmails: admins,
		from:        strings.TrimSpace(deps.FromAddress),
		clock:       func() time.Time { return clock().UTC() },
		newID:       newID,
	}, nil
}

// NotifyOrderSubmitted enqueues the confirmation for the user and the
// new-order alert for the admins.
func (s *notificationService) NotifyOrderSubmitted(ctx context.Context, order domain.Order, userEmail string) error {
	var firstErr error
	if email := strings.TrimSpace(userEmail); email != "" {
		_, err := s.publisher.PublishEmailJob(ctx, jobs.EmailJobMessage{
			JobID:      s.newID(),
			OrderID:    order.ID,
			UserID:     order.UserID,
			Template:   jobs.TemplateOrderSubmitted,
			Recipients: []string{email},
			Subject:    "주문이 접수되었습니다",
			Variables:  orderVariables(order),
			EnqueuedAt: s.clock(),
		})
		if err != nil {
			firstErr = err
		}
	}
	if len(s.adminEmails) > 0 {
		_, err := s.publisher.PublishEmailJob(ctx, jobs.EmailJobMessage{
			JobID:      s.newID(),
			OrderID:    order.ID,
			UserID:     order.UserID,
			Template:   jobs.TemplateAdminNewOrder,
			Recipients: s.adminEmails,
			Subject:    "새 주문이 접수되었습니다",
			Variables:  orderVariables(order),
			EnqueuedAt: s.clock(),
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotifyOrderReviewed enqueues the review outcome email for the user.
func (s *notificationService) NotifyOrderReviewed(ctx context.Context, order domain.Order, userEmail string) error {
	email := strings.TrimSpace(userEmail)
	if email == "" {
		return nil
	}
	subject := "주문이 반려되었습니다"
	if order.Status == domain.OrderStatusApproved {
		subject = "주문이 승인되었습니다"
	}
	variables := orderVariables(order)
	variables["status"] = string(order.Status)
	if order.AdminComment != "" {
		variables["adminComment"] = order.AdminComment
	}
	_, err := s.publisher.PublishEmailJob(ctx, jobs.EmailJobMessage{
		JobID:      s.newID(),
		OrderID:    order.ID,
		UserID:     order.UserID,
		Template:   jobs.TemplateOrderReviewed,
		Recipients: []string{email},
		Subject:    subject,
		Variables:  variables,
		EnqueuedAt: s.clock(),
	})
	return err
}

func orderVariables(order domain.Order) map[string]string {
	vars := map[string]string{
		"orderId":   order.ID,
		"clothType": order.ClothType,
		"material":  order.Material,
		"size":      order.Size,
	}
	if order.ImageURL != "" {
		vars["imageUrl"] = order.ImageURL
	}
	return vars
}
