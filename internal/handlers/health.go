package handlers

import (
	"net/http"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

// HealthHandlers serves liveness and readiness probes. Readiness consults the
// system service when one is configured; liveness never does.
type HealthHandlers struct {
	system services.SystemService
	clock  func() time.Time
	start  time.Time
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithSystemService wires dependency probing into the readiness endpoint.
func WithSystemService(system services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = system
	}
}

// WithHealthClock overrides the time source, chiefly for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.start = h.clock()
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	httpx.WriteJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.start).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz reports whether backing dependencies answer their probes.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.system == nil {
		httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	report, err := h.system.Health(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("health_check_failed", "dependency health collection failed", http.StatusServiceUnavailable))
		return
	}

	checks := make(map[string]any, len(report.Checks))
	for name, check := range report.Checks {
		entry := map[string]any{"status": string(check.Status)}
		if check.Detail != "" {
			entry["detail"] = check.Detail
		}
		if check.Error != "" {
			entry["error"] = check.Error
		}
		if check.Latency > 0 {
			entry["latency_ms"] = check.Latency.Milliseconds()
		}
		checks[name] = entry
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(ctx, w, status, map[string]any{
		"status":       string(report.Status),
		"checks":       checks,
		"uptime":       report.Uptime.String(),
		"generated_at": formatTime(report.GeneratedAt),
	})
}
