package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brand-er1/clothology-express-sub000/internal/customize"
	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/idempotency"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

// OrderHandlers exposes order submission and history for the storefront user.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
	idem   *idempotency.Middleware
}

// OrderOption customises the order handlers.
type OrderOption func(*OrderHandlers)

// WithIdempotency protects order submission against duplicate requests.
func WithIdempotency(m *idempotency.Middleware) OrderOption {
	return func(h *OrderHandlers) {
		h.idem = m
	}
}

// NewOrderHandlers constructs the authenticated order endpoints.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, opts ...OrderOption) *OrderHandlers {
	h := &OrderHandlers{
		authn:  authn,
		orders: orders,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	if h.idem != nil {
		r.With(h.idem.Handle).Post("/", h.submit)
	} else {
		r.Post("/", h.submit)
	}
	r.Get("/", h.list)
	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
	})
}

func (h *OrderHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		DraftID  string          `json:"draft_id"`
		Snapshot snapshotPayload `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order, err := h.orders.Submit(ctx, services.SubmitOrderCommand{
		UserID:   identity.UID,
		Snapshot: req.Snapshot.toDomain(),
		DraftID:  strings.TrimSpace(req.DraftID),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+order.ID)
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	filter := services.OrderListFilter{
		UserID:     identity.UID,
		Pagination: paginationFromQuery(r),
	}
	if statuses, err := statusesFromQuery(r); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	} else {
		filter.Status = statuses
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderListPayload(page))
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, services.GetOrderCommand{
		OrderID: strings.TrimSpace(chi.URLParam(r, "orderID")),
		UserID:  identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	_, err := h.orders.DeleteOrder(ctx, services.DeleteOrderCommand{
		OrderID: strings.TrimSpace(chi.URLParam(r, "orderID")),
		UserID:  identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	httpx.NoContent(w)
}

func statusesFromQuery(r *http.Request) ([]domain.OrderStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.OrderStatus, 0, len(parts))
	for _, part := range parts {
		status := domain.OrderStatus(strings.TrimSpace(part))
		if !status.Known() {
			return nil, errors.New("unknown order status " + string(status))
		}
		out = append(out, status)
	}
	return out, nil
}

type orderPayload struct {
	ID                string             `json:"id"`
	ClothType         string             `json:"cloth_type"`
	Material          string             `json:"material"`
	Style             string             `json:"style,omitempty"`
	PocketType        string             `json:"pocket_type,omitempty"`
	Color             string             `json:"color,omitempty"`
	DetailDescription string             `json:"detail_description,omitempty"`
	Size              string             `json:"size,omitempty"`
	Measurements      map[string]float64 `json:"measurements,omitempty"`
	ImageURL          string             `json:"image_url,omitempty"`
	Status            string             `json:"status"`
	AdminComment      string             `json:"admin_comment,omitempty"`
	ReviewedAt        string             `json:"reviewed_at,omitempty"`
	CreatedAt         string             `json:"created_at,omitempty"`
	UpdatedAt         string             `json:"updated_at,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	return orderPayload{
		ID:                order.ID,
		ClothType:         order.ClothType,
		Material:          order.Material,
		Style:             order.Style,
		PocketType:        order.PocketType,
		Color:             order.Color,
		DetailDescription: order.DetailDescription,
		Size:              order.Size,
		Measurements:      order.Measurements,
		ImageURL:          order.ImageURL,
		Status:            string(order.Status),
		AdminComment:      order.AdminComment,
		ReviewedAt:        formatTimePtr(order.ReviewedAt),
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
}

func buildOrderListPayload(page domain.CursorPage[domain.Order]) map[string]any {
	items := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderPayload(order))
	}
	return map[string]any{
		"orders":          items,
		"next_page_token": page.NextPageToken,
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderIncomplete):
		e := httpx.NewError("order_incomplete", "customization is not complete", http.StatusUnprocessableEntity)
		var blocked *customize.StepValidationError
		if errors.As(err, &blocked) {
			e = e.WithDetails(map[string]any{
				"step":    int(blocked.Step),
				"message": blocked.Message,
			})
		}
		httpx.WriteError(ctx, w, e)
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order belongs to another user", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", err.Error(), http.StatusInternalServerError))
	}
}
