package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

type stubRepoErr struct {
	notFound bool
	conflict bool
}

func (e *stubRepoErr) Error() string       { return "stub repo error" }
func (e *stubRepoErr) IsNotFound() bool    { return e.notFound }
func (e *stubRepoErr) IsConflict() bool    { return e.conflict }
func (e *stubRepoErr) IsUnavailable() bool { return false }

type stubOrderRepo struct {
	inserted     []domain.Order
	insertErr    error
	findResult   domain.Order
	findErr      error
	listResult   domain.CursorPage[domain.Order]
	listFilter   repositories.OrderListFilter
	statusResult domain.Order
	statusErr    error
	statusCalls  []repositories.ReviewUpdate
}

func (s *stubOrderRepo) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	if s.insertErr != nil {
		return domain.Order{}, s.insertErr
	}
	s.inserted = append(s.inserted, order)
	return order, nil
}

func (s *stubOrderRepo) Update(context.Context, domain.Order) error { return nil }

func (s *stubOrderRepo) FindByID(context.Context, string) (domain.Order, error) {
	return s.findResult, s.findErr
}

func (s *stubOrderRepo) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	s.listFilter = filter
	return s.listResult, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, _ string, status domain.OrderStatus, review repositories.ReviewUpdate) (domain.Order, error) {
	if s.statusErr != nil {
		return domain.Order{}, s.statusErr
	}
	s.statusCalls = append(s.statusCalls, review)
	result := s.statusResult
	result.Status = status
	return result, nil
}

type stubDraftRepo struct {
	saved      []domain.Draft
	deleted    []string
	latest     domain.Draft
	latestErr  error
	deleteErr  error
	saveResult func(domain.Draft) domain.Draft
}

func (s *stubDraftRepo) Save(_ context.Context, draft domain.Draft) (domain.Draft, error) {
	s.saved = append(s.saved, draft)
	if s.saveResult != nil {
		return s.saveResult(draft), nil
	}
	return draft, nil
}

func (s *stubDraftRepo) FindLatest(context.Context, string) (domain.Draft, error) {
	return s.latest, s.latestErr
}

func (s *stubDraftRepo) Delete(_ context.Context, _ string, draftID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, draftID)
	return nil
}

type stubProfileRepo struct {
	profile domain.UserProfile
	err     error
	upserts []domain.UserProfile
}

func (s *stubProfileRepo) FindByID(context.Context, string) (domain.UserProfile, error) {
	return s.profile, s.err
}

func (s *stubProfileRepo) Upsert(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	s.upserts = append(s.upserts, profile)
	return profile, nil
}

type stubNotifier struct {
	submitted []domain.Order
	reviewed  []domain.Order
	emails    []string
}

func (s *stubNotifier) NotifyOrderSubmitted(_ context.Context, order domain.Order, email string) error {
	s.submitted = append(s.submitted, order)
	s.emails = append(s.emails, email)
	return nil
}

func (s *stubNotifier) NotifyOrderReviewed(_ context.Context, order domain.Order, email string) error {
	s.reviewed = append(s.reviewed, order)
	s.emails = append(s.emails, email)
	return nil
}

func completeSnapshot() domain.CustomizationSnapshot {
	return domain.CustomizationSnapshot{
		Step:               5,
		ClothType:          domain.GarmentHoodie,
		Material:           domain.Material{ID: "cotton", Name: "면"},
		DetailText:         "스타일: 스트릿\n등판에 큰 로고 프린트",
		Selections:         map[domain.OptionType]string{domain.OptionStyle: "street"},
		ImageURLs:          []string{"https://img.test/0.png", "https://img.test/1.png"},
		SelectedImageIndex: 1,
		StoredImageURL:     "https://storage.test/orders/u1/img.png",
		StoredImagePath:    "orders/u1/img.png",
		Size:               "L",
	}
}

func newTestOrderService(t *testing.T, orders *stubOrderRepo, drafts *stubDraftRepo, notifier *stubNotifier) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:        orders,
		Drafts:        drafts,
		Profiles:      &stubProfileRepo{profile: domain.UserProfile{ID: "u1", Email: "user@example.com"}},
		Notifications: notifier,
		Clock:         func() time.Time { return time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC) },
		IDGenerator:   func() string { return "ord_test" },
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestOrderServiceSubmit(t *testing.T) {
	t.Run("persists pending order and cleans up draft", func(t *testing.T) {
		orders := &stubOrderRepo{}
		drafts := &stubDraftRepo{}
		notifier := &stubNotifier{}
		svc := newTestOrderService(t, orders, drafts, notifier)

		order, err := svc.Submit(context.Background(), SubmitOrderCommand{
			UserID:   "u1",
			Snapshot: completeSnapshot(),
			DraftID:  "draft-1",
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("expected pending, got %s", order.Status)
		}
		if order.ID != "ord_test" || order.ClothType != "후드티" || order.Material != "면" {
			t.Fatalf("unexpected order %#v", order)
		}
		if order.ImageURL != "https://storage.test/orders/u1/img.png" {
			t.Fatalf("expected stored image URL to win, got %q", order.ImageURL)
		}
		if len(drafts.deleted) != 1 || drafts.deleted[0] != "draft-1" {
			t.Fatalf("expected draft cleanup, got %#v", drafts.deleted)
		}
		if len(notifier.submitted) != 1 || notifier.emails[0] != "user@example.com" {
			t.Fatalf("expected submission notification, got %#v", notifier)
		}
	})

	t.Run("sanitizes markup in detail text", func(t *testing.T) {
		orders := &stubOrderRepo{}
		svc := newTestOrderService(t, orders, &stubDraftRepo{}, &stubNotifier{})

		snap := completeSnapshot()
		snap.DetailText = "<script>alert(1)</script>큰 로고 프린트"
		order, err := svc.Submit(context.Background(), SubmitOrderCommand{UserID: "u1", Snapshot: snap})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if strings.Contains(order.DetailDescription, "<script>") {
			t.Fatalf("expected markup stripped, got %q", order.DetailDescription)
		}
		if !strings.Contains(order.DetailDescription, "큰 로고 프린트") {
			t.Fatalf("expected text preserved, got %q", order.DetailDescription)
		}
	})

	t.Run("rejects incomplete snapshot", func(t *testing.T) {
		svc := newTestOrderService(t, &stubOrderRepo{}, &stubDraftRepo{}, &stubNotifier{})

		snap := completeSnapshot()
		snap.SelectedImageIndex = -1
		snap.ImageURLs = nil
		_, err := svc.Submit(context.Background(), SubmitOrderCommand{UserID: "u1", Snapshot: snap})
		if !errors.Is(err, ErrOrderIncomplete) {
			t.Fatalf("expected ErrOrderIncomplete, got %v", err)
		}
	})

	t.Run("rejects missing user", func(t *testing.T) {
		svc := newTestOrderService(t, &stubOrderRepo{}, &stubDraftRepo{}, &stubNotifier{})
		if _, err := svc.Submit(context.Background(), SubmitOrderCommand{Snapshot: completeSnapshot()}); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
		}
	})
}

func TestOrderServiceGetOrder(t *testing.T) {
	orders := &stubOrderRepo{findResult: domain.Order{ID: "ord_1", UserID: "u1", Status: domain.OrderStatusPending}}
	svc := newTestOrderService(t, orders, &stubDraftRepo{}, &stubNotifier{})

	t.Run("owner can read", func(t *testing.T) {
		order, err := svc.GetOrder(context.Background(), GetOrderCommand{OrderID: "ord_1", UserID: "u1"})
		if err != nil {
			t.Fatalf("GetOrder: %v", err)
		}
		if order.ID != "ord_1" {
			t.Fatalf("unexpected order %#v", order)
		}
	})

	t.Run("other user is rejected", func(t *testing.T) {
		if _, err := svc.GetOrder(context.Background(), GetOrderCommand{OrderID: "ord_1", UserID: "u2"}); !errors.Is(err, ErrOrderForbidden) {
			t.Fatalf("expected ErrOrderForbidden, got %v", err)
		}
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		if _, err := svc.GetOrder(context.Background(), GetOrderCommand{OrderID: "ord_1", IsAdmin: true}); err != nil {
			t.Fatalf("GetOrder admin: %v", err)
		}
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		missing := &stubOrderRepo{findErr: &stubRepoErr{notFound: true}}
		svc := newTestOrderService(t, missing, &stubDraftRepo{}, &stubNotifier{})
		if _, err := svc.GetOrder(context.Background(), GetOrderCommand{OrderID: "nope", UserID: "u1"}); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestOrderServiceListOrders(t *testing.T) {
	orders := &stubOrderRepo{}
	svc := newTestOrderService(t, orders, &stubDraftRepo{}, &stubNotifier{})

	if _, err := svc.ListOrders(context.Background(), OrderListFilter{UserID: "u1"}); err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders.listFilter.Status) != 3 {
		t.Fatalf("expected deleted orders excluded by default, got %#v", orders.listFilter.Status)
	}
	for _, status := range orders.listFilter.Status {
		if status == domain.OrderStatusDeleted {
			t.Fatalf("deleted status should not be listed for owners")
		}
	}
}

func TestOrderServiceReview(t *testing.T) {
	t.Run("approve notifies owner", func(t *testing.T) {
		orders := &stubOrderRepo{statusResult: domain.Order{ID: "ord_1", UserID: "u1"}}
		notifier := &stubNotifier{}
		svc := newTestOrderService(t, orders, &stubDraftRepo{}, notifier)

		order, err := svc.Review(context.Background(), ReviewOrderCommand{
			OrderID:  "ord_1",
			Approve:  true,
			Comment:  "좋습니다",
			AdminUID: "admin-1",
		})
		if err != nil {
			t.Fatalf("Review: %v", err)
		}
		if order.Status != domain.OrderStatusApproved {
			t.Fatalf("expected approved, got %s", order.Status)
		}
		if len(orders.statusCalls) != 1 || orders.statusCalls[0].ReviewedBy != "admin-1" {
			t.Fatalf("unexpected review update %#v", orders.statusCalls)
		}
		if len(notifier.reviewed) != 1 {
			t.Fatalf("expected review notification")
		}
	})

	t.Run("invalid transition maps to sentinel", func(t *testing.T) {
		orders := &stubOrderRepo{statusErr: &stubRepoErr{conflict: true}}
		svc := newTestOrderService(t, orders, &stubDraftRepo{}, &stubNotifier{})
		if _, err := svc.Review(context.Background(), ReviewOrderCommand{OrderID: "ord_1", AdminUID: "admin-1"}); !errors.Is(err, ErrOrderInvalidState) {
			t.Fatalf("expected ErrOrderInvalidState, got %v", err)
		}
	})
}
