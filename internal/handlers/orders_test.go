package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brand-er1/clothology-express-sub000/internal/customize"
	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

type stubOrderService struct {
	submitted  []services.SubmitOrderCommand
	submitErr  error
	listFilter services.OrderListFilter
	listPage   domain.CursorPage[domain.Order]
	getCmd     services.GetOrderCommand
	getOrder   domain.Order
	getErr     error
	deleteCmd  services.DeleteOrderCommand
	reviewCmd  services.ReviewOrderCommand
	reviewErr  error
}

func (s *stubOrderService) Submit(_ context.Context, cmd services.SubmitOrderCommand) (domain.Order, error) {
	s.submitted = append(s.submitted, cmd)
	if s.submitErr != nil {
		return domain.Order{}, s.submitErr
	}
	return domain.Order{ID: "ord_1", UserID: cmd.UserID, ClothType: "후드티", Status: domain.OrderStatusPending}, nil
}

func (s *stubOrderService) ListOrders(_ context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	s.listFilter = filter
	return s.listPage, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, cmd services.GetOrderCommand) (domain.Order, error) {
	s.getCmd = cmd
	return s.getOrder, s.getErr
}

func (s *stubOrderService) DeleteOrder(_ context.Context, cmd services.DeleteOrderCommand) (domain.Order, error) {
	s.deleteCmd = cmd
	return domain.Order{ID: cmd.OrderID, Status: domain.OrderStatusDeleted}, nil
}

func (s *stubOrderService) Review(_ context.Context, cmd services.ReviewOrderCommand) (domain.Order, error) {
	s.reviewCmd = cmd
	if s.reviewErr != nil {
		return domain.Order{}, s.reviewErr
	}
	status := domain.OrderStatusRejected
	if cmd.Approve {
		status = domain.OrderStatusApproved
	}
	return domain.Order{ID: cmd.OrderID, Status: status, AdminComment: cmd.Comment}, nil
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	identity := &auth.Identity{UID: "u1", Email: "user@example.com", Roles: []string{auth.RoleUser}}
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}

func orderRouter(svc services.OrderService) chi.Router {
	r := chi.NewRouter()
	NewOrderHandlers(nil, svc).Routes(r)
	return r
}

func TestOrderHandlersSubmit(t *testing.T) {
	t.Run("creates a pending order", func(t *testing.T) {
		svc := &stubOrderService{}
		body := `{"draft_id":"draft-1","snapshot":{"cloth_type":"hoodie","material_id":"cotton","material_name":"면","selections":{"style":"street"},"image_urls":["https://img/0.png"],"selected_image_index":0,"size":"L"}}`
		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/", body))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Location"); !strings.HasSuffix(got, "/ord_1") {
			t.Fatalf("unexpected location %q", got)
		}
		if len(svc.submitted) != 1 {
			t.Fatalf("expected one submission")
		}
		cmd := svc.submitted[0]
		if cmd.UserID != "u1" || cmd.DraftID != "draft-1" {
			t.Fatalf("unexpected command %#v", cmd)
		}
		if cmd.Snapshot.ClothType != domain.GarmentHoodie || cmd.Snapshot.SelectedImageIndex != 0 {
			t.Fatalf("unexpected snapshot %#v", cmd.Snapshot)
		}
		if cmd.Snapshot.Selections[domain.OptionStyle] != "street" {
			t.Fatalf("selections not mapped: %#v", cmd.Snapshot.Selections)
		}
	})

	t.Run("missing image selection defaults to none", func(t *testing.T) {
		svc := &stubOrderService{}
		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/", `{"snapshot":{"cloth_type":"hoodie"}}`))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if got := svc.submitted[0].Snapshot.SelectedImageIndex; got != -1 {
			t.Fatalf("expected -1, got %d", got)
		}
	})

	t.Run("incomplete wizard reports the blocking step", func(t *testing.T) {
		stepErr := &customize.StepValidationError{Step: customize.StepImage, Message: customize.MsgImageRequired}
		svc := &stubOrderService{submitErr: errors.Join(services.ErrOrderIncomplete, stepErr)}
		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/", `{"snapshot":{"cloth_type":"hoodie"}}`))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		var payload map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if payload["error"] != "order_incomplete" {
			t.Fatalf("unexpected error code %v", payload["error"])
		}
		if payload["message"] == nil || payload["step"] == nil {
			t.Fatalf("expected step details, got %v", payload)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := httptest.NewRecorder()
		orderRouter(&stubOrderService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestOrderHandlersList(t *testing.T) {
	svc := &stubOrderService{listPage: domain.CursorPage[domain.Order]{
		Items:         []domain.Order{{ID: "ord_1", Status: domain.OrderStatusPending}},
		NextPageToken: "tok",
	}}
	rec := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/?status=pending,approved", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.listFilter.UserID != "u1" {
		t.Fatalf("expected owner scoping, got %#v", svc.listFilter)
	}
	if len(svc.listFilter.Status) != 2 || svc.listFilter.Status[0] != domain.OrderStatusPending {
		t.Fatalf("unexpected status filter %#v", svc.listFilter.Status)
	}
	if !strings.Contains(rec.Body.String(), `"next_page_token":"tok"`) {
		t.Fatalf("expected next token in body: %s", rec.Body.String())
	}

	t.Run("rejects unknown status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/?status=shipped", ""))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestOrderHandlersGetAndDelete(t *testing.T) {
	t.Run("get maps not found", func(t *testing.T) {
		svc := &stubOrderService{getErr: services.ErrOrderNotFound}
		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/ord_missing", ""))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete responds no content", func(t *testing.T) {
		svc := &stubOrderService{}
		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/ord_1", ""))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.deleteCmd.OrderID != "ord_1" || svc.deleteCmd.UserID != "u1" {
			t.Fatalf("unexpected delete command %#v", svc.deleteCmd)
		}
	})
}
