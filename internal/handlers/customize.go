package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

// CustomizeHandlers exposes the wizard support surface: draft persistence,
// preview generation and size recommendation.
type CustomizeHandlers struct {
	authn   *auth.Authenticator
	drafts  services.DraftService
	images  services.ImageGenService
	sizes   services.RecommendationService
	limiter *keyedRateLimiter
}

// CustomizeOption customises the customize handlers.
type CustomizeOption func(*CustomizeHandlers)

// WithGenerationRateLimiter throttles preview generation per user.
func WithGenerationRateLimiter(limiter *keyedRateLimiter) CustomizeOption {
	return func(h *CustomizeHandlers) {
		h.limiter = limiter
	}
}

// WithGenerationLimit throttles preview generation to perMinute calls per
// user, allowing short bursts up to burst.
func WithGenerationLimit(perMinute, burst int) CustomizeOption {
	return func(h *CustomizeHandlers) {
		if perMinute <= 0 {
			return
		}
		if burst <= 0 {
			burst = perMinute
		}
		h.limiter = newKeyedRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst, nil)
	}
}

// NewCustomizeHandlers constructs the authenticated wizard endpoints.
func NewCustomizeHandlers(authn *auth.Authenticator, drafts services.DraftService, images services.ImageGenService, sizes services.RecommendationService, opts ...CustomizeOption) *CustomizeHandlers {
	h := &CustomizeHandlers{
		authn:  authn,
		drafts: drafts,
		images: images,
		sizes:  sizes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /customize endpoints onto the provided router.
func (h *CustomizeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.saveDraft)
		r.Get("/latest", h.latestDraft)
		r.Delete("/{draftID}", h.discardDraft)
	})
	r.Route("/images", func(r chi.Router) {
		r.Post("/", h.generatePreviews)
		r.Post("/{requestID}/select", h.storeSelectedImage)
		r.Get("/history", h.imageHistory)
	})
	r.Post("/size-recommendation", h.recommendSize)
}

func (h *CustomizeHandlers) saveDraft(w http.ResponseWriter, r *http.Request) {
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

	var req draftSaveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	draft, err := h.drafts.SaveDraft(ctx, services.SaveDraftCommand{
		UserID:   identity.UID,
		DraftID:  strings.TrimSpace(req.DraftID),
		Snapshot: req.Snapshot.toDomain(),
	})
	if err != nil {
		writeDraftError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildDraftPayload(draft))
}

func (h *CustomizeHandlers) latestDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	draft, err := h.drafts.LatestDraft(ctx, identity.UID)
	if err != nil {
		writeDraftError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildDraftPayload(draft))
}

func (h *CustomizeHandlers) discardDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	draftID := strings.TrimSpace(chi.URLParam(r, "draftID"))
	if err := h.drafts.DiscardDraft(ctx, identity.UID, draftID); err != nil {
		writeDraftError(ctx, w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *CustomizeHandlers) generatePreviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	if !h.limiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many generation requests", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.images.GeneratePreviews(ctx, services.GeneratePreviewsCommand{
		UserID:     identity.UID,
		ClothType:  domain.GarmentType(strings.TrimSpace(req.ClothType)),
		Material:   strings.TrimSpace(req.Material),
		Style:      strings.TrimSpace(req.Style),
		Fit:        strings.TrimSpace(req.Fit),
		Pocket:     strings.TrimSpace(req.Pocket),
		DetailText: req.DetailText,
	})
	if err != nil {
		writeGenerationError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{
		"request_id": result.RequestID,
		"prompt":     result.Prompt,
		"image_urls": result.ImageURLs,
	})
}

func (h *CustomizeHandlers) storeSelectedImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	requestID := strings.TrimSpace(chi.URLParam(r, "requestID"))

	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	stored, err := h.images.StoreSelectedImage(ctx, services.StoreImageCommand{
		UserID:    identity.UID,
		RequestID: requestID,
		Index:     req.Index,
	})
	if err != nil {
		writeGenerationError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{
		"image_url":  stored.URL,
		"image_path": stored.Path,
	})
}

func (h *CustomizeHandlers) imageHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	page, err := h.images.ListHistory(ctx, identity.UID, paginationFromQuery(r))
	if err != nil {
		writeGenerationError(ctx, w, err)
		return
	}

	items := make([]map[string]any, 0, len(page.Items))
	for _, image := range page.Items {
		items = append(items, map[string]any{
			"id":               image.ID,
			"prompt":           image.Prompt,
			"optimized_prompt": image.OptimizedPrompt,
			"image_urls":       image.ImageURLs,
			"storage_url":      image.StorageURL,
			"created_at":       formatTime(image.CreatedAt),
		})
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{
		"items":           items,
		"next_page_token": page.NextPageToken,
	})
}

// recommendSize answers with a payload in both directions: resolution
// problems ride back as success=false rather than an error status, so the
// wizard can fall back to manual size entry without special casing.
func (h *CustomizeHandlers) recommendSize(w http.ResponseWriter, r *http.Request) {
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
		ClothType string  `json:"cloth_type"`
		HeightCM  float64 `json:"height_cm"`
		Gender    string  `json:"gender"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	rec, err := h.sizes.RecommendSize(ctx, services.RecommendSizeCommand{
		UserID:    identity.UID,
		ClothType: domain.GarmentType(strings.TrimSpace(req.ClothType)),
		HeightCM:  req.HeightCM,
		Gender:    req.Gender,
	})
	switch {
	case errors.Is(err, services.ErrRecommendationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	case err != nil:
		httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{
		"success":      true,
		"size":         rec.Size,
		"gender":       string(rec.Gender),
		"height_cm":    rec.HeightCM,
		"measurements": rec.Measurements,
		"measure_keys": rec.MeasureKeys,
		"fallback":     rec.Fallback,
	})
}

type draftSaveRequest struct {
	DraftID  string          `json:"draft_id"`
	Snapshot snapshotPayload `json:"snapshot"`
}

type generateRequest struct {
	ClothType  string `json:"cloth_type"`
	Material   string `json:"material"`
	Style      string `json:"style"`
	Fit        string `json:"fit"`
	Pocket     string `json:"pocket"`
	DetailText string `json:"detail_text"`
}

// snapshotPayload is the wire form of a wizard snapshot, shared by draft
// persistence and order submission.
type snapshotPayload struct {
	Step               int                `json:"step"`
	ClothType          string             `json:"cloth_type"`
	MaterialID         string             `json:"material_id"`
	MaterialName       string             `json:"material_name"`
	MaterialCustom     bool               `json:"material_custom"`
	DetailText         string             `json:"detail_text"`
	Selections         map[string]string  `json:"selections"`
	ImageURLs          []string           `json:"image_urls"`
	SelectedImageIndex *int               `json:"selected_image_index"`
	StoredImageURL     string             `json:"stored_image_url"`
	StoredImagePath    string             `json:"stored_image_path"`
	Size               string             `json:"size"`
	SizeTableEdits     map[string]float64 `json:"size_table_edits"`
	CustomMeasurements map[string]float64 `json:"custom_measurements"`
}

func (p snapshotPayload) toDomain() domain.CustomizationSnapshot {
	selections := make(map[domain.OptionType]string, len(p.Selections))
	for key, value := range p.Selections {
		selections[domain.OptionType(key)] = value
	}
	selectedIndex := -1
	if p.SelectedImageIndex != nil {
		selectedIndex = *p.SelectedImageIndex
	}
	return domain.CustomizationSnapshot{
		Step:      p.Step,
		ClothType: domain.GarmentType(strings.TrimSpace(p.ClothType)),
		Material: domain.Material{
			ID:       strings.TrimSpace(p.MaterialID),
			Name:     strings.TrimSpace(p.MaterialName),
			IsCustom: p.MaterialCustom,
		},
		DetailText:         p.DetailText,
		Selections:         selections,
		ImageURLs:          p.ImageURLs,
		SelectedImageIndex: selectedIndex,
		StoredImageURL:     strings.TrimSpace(p.StoredImageURL),
		StoredImagePath:    strings.TrimSpace(p.StoredImagePath),
		Size:               strings.TrimSpace(p.Size),
		SizeTableEdits:     p.SizeTableEdits,
		CustomMeasurements: p.CustomMeasurements,
	}
}

func snapshotToPayload(snap domain.CustomizationSnapshot) snapshotPayload {
	selections := make(map[string]string, len(snap.Selections))
	for key, value := range snap.Selections {
		selections[string(key)] = value
	}
	index := snap.SelectedImageIndex
	return snapshotPayload{
		Step:               snap.Step,
		ClothType:          string(snap.ClothType),
		MaterialID:         snap.Material.ID,
		MaterialName:       snap.Material.Name,
		MaterialCustom:     snap.Material.IsCustom,
		DetailText:         snap.DetailText,
		Selections:         selections,
		ImageURLs:          snap.ImageURLs,
		SelectedImageIndex: &index,
		StoredImageURL:     snap.StoredImageURL,
		StoredImagePath:    snap.StoredImagePath,
		Size:               snap.Size,
		SizeTableEdits:     snap.SizeTableEdits,
		CustomMeasurements: snap.CustomMeasurements,
	}
}

type draftPayload struct {
	ID        string          `json:"id"`
	Snapshot  snapshotPayload `json:"snapshot"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

func buildDraftPayload(draft domain.Draft) draftPayload {
	return draftPayload{
		ID:        draft.ID,
		Snapshot:  snapshotToPayload(draft.Snapshot),
		CreatedAt: formatTime(draft.CreatedAt),
		UpdatedAt: formatTime(draft.UpdatedAt),
	}
}

func writeDraftError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrDraftInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrDraftNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("draft_not_found", "draft not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("draft_error", err.Error(), http.StatusInternalServerError))
	}
}

func writeGenerationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrGenerationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrGenerationQuotaExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("generation_quota_exceeded", "daily generation limit reached", http.StatusTooManyRequests))
	case errors.Is(err, services.ErrGenerationNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("generation_not_found", "generated image not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("generation_error", err.Error(), http.StatusInternalServerError))
	}
}
