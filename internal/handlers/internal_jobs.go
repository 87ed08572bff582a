package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/jobs"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/requestctx"
)

// EmailJobDispatcher hands a decoded email job to the delivery integration.
type EmailJobDispatcher func(ctx context.Context, job jobs.EmailJobMessage) error

// InternalJobHandlers receives Pub/Sub push deliveries for background jobs.
// The route group is expected to be wrapped in OIDC validation upstream.
type InternalJobHandlers struct {
	dispatch EmailJobDispatcher
}

// NewInternalJobHandlers constructs the push endpoints.
func NewInternalJobHandlers(dispatch EmailJobDispatcher) *InternalJobHandlers {
	return &InternalJobHandlers{dispatch: dispatch}
}

// Routes wires the /internal endpoints onto the provided router.
func (h *InternalJobHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/jobs/email", h.emailJob)
}

// pushEnvelope is the Pub/Sub push delivery wrapper.
type pushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func (h *InternalJobHandlers) emailJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed push envelope", http.StatusBadRequest))
		return
	}
	if len(envelope.Message.Data) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "push message has no data", http.StatusBadRequest))
		return
	}

	var job jobs.EmailJobMessage
	if err := json.Unmarshal(envelope.Message.Data, &job); err != nil {
		// Acknowledge undecodable payloads: retrying cannot fix them.
		requestctx.Logger(ctx).Warn("dropping undecodable email job",
			zap.String("message_id", envelope.Message.MessageID),
			zap.Error(err))
		httpx.NoContent(w)
		return
	}

	if h.dispatch != nil {
		if err := h.dispatch(ctx, job); err != nil {
			requestctx.Logger(ctx).Error("email job dispatch failed",
				zap.String("job_id", job.JobID),
				zap.String("order_id", job.OrderID),
				zap.Error(err))
			httpx.WriteError(ctx, w, httpx.NewError("dispatch_failed", "email job dispatch failed", http.StatusInternalServerError))
			return
		}
	}

	requestctx.Logger(ctx).Info("email job acknowledged",
		zap.String("job_id", job.JobID),
		zap.String("template", job.Template))
	httpx.NoContent(w)
}
