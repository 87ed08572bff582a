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

// MeHandlers exposes the authenticated profile and address book endpoints.
type MeHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

// NewMeHandlers constructs handlers enforcing Firebase authentication before
// invoking the user service.
func NewMeHandlers(authn *auth.Authenticator, users services.UserService) *MeHandlers {
	return &MeHandlers{
		authn: authn,
		users: users,
	}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.getProfile)
	r.Put("/", h.updateProfile)
	r.Route("/addresses", func(r chi.Router) {
		r.Get("/", h.listAddresses)
		r.Post("/", h.createAddress)
		r.Route("/{addressID}", func(r chi.Router) {
			r.Put("/", h.updateAddress)
			r.Delete("/", h.deleteAddress)
			r.Post("/default", h.setDefaultAddress)
		})
	})
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(ctx, services.GetProfileCommand{
		UserID: identity.UID,
		Email:  identity.Email,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildProfilePayload(profile))
}

func (h *MeHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
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

	var req profileUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if req.empty() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no editable fields provided", http.StatusBadRequest))
		return
	}

	updated, err := h.users.UpdateProfile(ctx, services.UpdateProfileCommand{
		UserID:      identity.UID,
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		HeightCM:    req.HeightCM,
		Locale:      req.Locale,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildProfilePayload(updated))
}

func (h *MeHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	addresses, err := h.users.ListAddresses(ctx, identity.UID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	payload := make([]addressPayload, 0, len(addresses))
	for _, addr := range addresses {
		payload = append(payload, buildAddressPayload(addr))
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]any{"addresses": payload})
}

func (h *MeHandlers) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	req, err := decodeAddressRequest(r)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	saved, err := h.users.UpsertAddress(ctx, services.UpsertAddressCommand{
		UserID:  identity.UID,
		Address: req.toDomain(),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+saved.ID)
	httpx.WriteJSON(ctx, w, http.StatusCreated, buildAddressPayload(saved))
}

func (h *MeHandlers) updateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	req, err := decodeAddressRequest(r)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	saved, err := h.users.UpsertAddress(ctx, services.UpsertAddressCommand{
		UserID:    identity.UID,
		AddressID: &addressID,
		Address:   req.toDomain(),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, buildAddressPayload(saved))
}

func (h *MeHandlers) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.DeleteAddress(ctx, identity.UID, addressID); err != nil {
		writeUserError(ctx, w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *MeHandlers) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrReject(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	addr, err := h.users.SetDefaultAddress(ctx, identity.UID, addressID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, buildAddressPayload(addr))
}

type profileUpdateRequest struct {
	DisplayName *string  `json:"display_name"`
	PhoneNumber *string  `json:"phone_number"`
	Gender      *string  `json:"gender"`
	HeightCM    *float64 `json:"height_cm"`
	Locale      *string  `json:"locale"`
}

func (r profileUpdateRequest) empty() bool {
	return r.DisplayName == nil && r.PhoneNumber == nil && r.Gender == nil && r.HeightCM == nil && r.Locale == nil
}

type profilePayload struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name,omitempty"`
	Email       string  `json:"email,omitempty"`
	PhoneNumber string  `json:"phone_number,omitempty"`
	Gender      string  `json:"gender,omitempty"`
	HeightCM    float64 `json:"height_cm,omitempty"`
	Locale      string  `json:"locale,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

func buildProfilePayload(profile domain.UserProfile) profilePayload {
	return profilePayload{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		PhoneNumber: profile.PhoneNumber,
		Gender:      profile.Gender,
		HeightCM:    profile.HeightCM,
		Locale:      profile.Locale,
		CreatedAt:   formatTime(profile.CreatedAt),
		UpdatedAt:   formatTime(profile.UpdatedAt),
	}
}

type addressRequest struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	IsDefault  bool   `json:"is_default"`
}

func decodeAddressRequest(r *http.Request) (addressRequest, error) {
	body, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		return addressRequest{}, err
	}
	var req addressRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return addressRequest{}, err
	}
	if strings.TrimSpace(req.Recipient) == "" {
		return addressRequest{}, errors.New("recipient is required")
	}
	if strings.TrimSpace(req.Line1) == "" {
		return addressRequest{}, errors.New("line1 is required")
	}
	if strings.TrimSpace(req.PostalCode) == "" {
		return addressRequest{}, errors.New("postal_code is required")
	}
	return req, nil
}

func (req addressRequest) toDomain() domain.Address {
	return domain.Address{
		Recipient:  strings.TrimSpace(req.Recipient),
		Phone:      strings.TrimSpace(req.Phone),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      strings.TrimSpace(req.Line2),
		IsDefault:  req.IsDefault,
	}
}

type addressPayload struct {
	ID         string `json:"id"`
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone,omitempty"`
	PostalCode string `json:"postal_code"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	IsDefault  bool   `json:"is_default"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func buildAddressPayload(addr domain.Address) addressPayload {
	return addressPayload{
		ID:         addr.ID,
		Recipient:  addr.Recipient,
		Phone:      addr.Phone,
		PostalCode: addr.PostalCode,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		IsDefault:  addr.IsDefault,
		CreatedAt:  formatTime(addr.CreatedAt),
		UpdatedAt:  formatTime(addr.UpdatedAt),
	}
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("profile_error", err.Error(), http.StatusInternalServerError))
	}
}
