package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

// AdminHandlers exposes the review workflow and prompt template management.
// All routes require the admin or staff role.
type AdminHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
	images services.ImageGenService
}

// NewAdminHandlers constructs the admin endpoints.
func NewAdminHandlers(authn *auth.Authenticator, orders services.OrderService, images services.ImageGenService) *AdminHandlers {
	return &AdminHandlers{
		authn:  authn,
		orders: orders,
		images: images,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin, auth.RoleStaff))
	}
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Post("/{orderID}/review", h.reviewOrder)
	})
	r.Route("/prompts", func(r chi.Router) {
		r.Get("/", h.listPrompts)
		r.Post("/", h.savePrompt)
		r.Put("/{promptID}", h.savePrompt)
		r.Post("/{promptID}/activate", h.activatePrompt)
		r.Delete("/{promptID}", h.deletePrompt)
	})
}

// listOrders returns orders across all users. Without a status filter it
// shows the review queue, i.e. pending submissions.
func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identityOrReject(w, r); !ok {
		return
	}

	statuses, err := statusesFromQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if len(statuses) == 0 {
		statuses = []domain.OrderStatus{domain.OrderStatusPending}
	}

	page, err := h.orders.ListOrders(ctx, services.OrderListFilter{
		Status:     statuses,
		Pagination: paginationFromQuery(r),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderListPayload(page))
}

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, services.GetOrderCommand{
		OrderID: strings.TrimSpace(chi.URLParam(r, "orderID")),
		UserID:  identity.UID,
		IsAdmin: true,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(order))
}

func (h *AdminHandlers) reviewOrder(w http.ResponseWriter, r *http.Request) {
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
		Approve *bool  `json:"approve"`
		Comment string `json:"comment"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if req.Approve == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "approve is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.Review(ctx, services.ReviewOrderCommand{
		OrderID:  strings.TrimSpace(chi.URLParam(r, "orderID")),
		Approve:  *req.Approve,
		Comment:  req.Comment,
		AdminUID: identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildOrderPayload(order))
}

func (h *AdminHandlers) listPrompts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identityOrReject(w, r); !ok {
		return
	}

	prompts, err := h.images.ListPrompts(ctx)
	if err != nil {
		writePromptError(ctx, w, err)
		return
	}

	payload := make([]promptPayload, 0, len(prompts))
	for _, prompt := range prompts {
		payload = append(payload, buildPromptPayload(prompt))
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{"prompts": payload})
}

func (h *AdminHandlers) savePrompt(w http.ResponseWriter, r *http.Request) {
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
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	prompt, err := h.images.SavePrompt(ctx, services.SavePromptCommand{
		PromptID: strings.TrimSpace(chi.URLParam(r, "promptID")),
		Name:     strings.TrimSpace(req.Name),
		Content:  req.Content,
		AdminUID: identity.UID,
	})
	if err != nil {
		writePromptError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	httpx.WriteJSON(ctx, w, status, buildPromptPayload(prompt))
}

func (h *AdminHandlers) activatePrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	prompt, err := h.images.ActivatePrompt(ctx, strings.TrimSpace(chi.URLParam(r, "promptID")), identity.UID)
	if err != nil {
		writePromptError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildPromptPayload(prompt))
}

func (h *AdminHandlers) deletePrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identityOrReject(w, r); !ok {
		return
	}

	if err := h.images.DeletePrompt(ctx, strings.TrimSpace(chi.URLParam(r, "promptID"))); err != nil {
		writePromptError(ctx, w, err)
		return
	}
	httpx.NoContent(w)
}

type promptPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	IsActive  bool   `json:"is_active"`
	UpdatedBy string `json:"updated_by,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func buildPromptPayload(prompt domain.SystemPrompt) promptPayload {
	return promptPayload{
		ID:        prompt.ID,
		Name:      prompt.Name,
		Content:   prompt.Content,
		IsActive:  prompt.IsActive,
		UpdatedBy: prompt.UpdatedBy,
		CreatedAt: formatTime(prompt.CreatedAt),
		UpdatedAt: formatTime(prompt.UpdatedAt),
	}
}

func writePromptError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrGenerationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPromptNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("prompt_not_found", "prompt not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("prompt_error", err.Error(), http.StatusInternalServerError))
	}
}
