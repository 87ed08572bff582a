package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

type stubUserService struct {
	profile    domain.UserProfile
	profileErr error
	getCmd     services.GetProfileCommand
	updateCmd  services.UpdateProfileCommand
	updateErr  error

	addresses  []domain.Address
	upsertCmd  services.UpsertAddressCommand
	upsertErr  error
	deleted    []string
	deleteErr  error
	defaulted  []string
	defaultErr error
}

func (s *stubUserService) GetProfile(_ context.Context, cmd services.GetProfileCommand) (domain.UserProfile, error) {
	s.getCmd = cmd
	return s.profile, s.profileErr
}

func (s *stubUserService) UpdateProfile(_ context.Context, cmd services.UpdateProfileCommand) (domain.UserProfile, error) {
	s.updateCmd = cmd
	if s.updateErr != nil {
		return domain.UserProfile{}, s.updateErr
	}
	return s.profile, nil
}

func (s *stubUserService) ListAddresses(context.Context, string) ([]domain.Address, error) {
	return s.addresses, nil
}

func (s *stubUserService) UpsertAddress(_ context.Context, cmd services.UpsertAddressCommand) (domain.Address, error) {
	s.upsertCmd = cmd
	if s.upsertErr != nil {
		return domain.Address{}, s.upsertErr
	}
	addr := cmd.Address
	if cmd.AddressID != nil {
		addr.ID = *cmd.AddressID
	} else {
		addr.ID = "addr-1"
	}
	return addr, nil
}

func (s *stubUserService) DeleteAddress(_ context.Context, _ string, addressID string) error {
	s.deleted = append(s.deleted, addressID)
	return s.deleteErr
}

func (s *stubUserService) SetDefaultAddress(_ context.Context, _ string, addressID string) (domain.Address, error) {
	s.defaulted = append(s.defaulted, addressID)
	if s.defaultErr != nil {
		return domain.Address{}, s.defaultErr
	}
	return domain.Address{ID: addressID, IsDefault: true}, nil
}

func meRouter(users services.UserService) chi.Router {
	r := chi.NewRouter()
	NewMeHandlers(nil, users).Routes(r)
	return r
}

func TestMeHandlersProfile(t *testing.T) {
	t.Run("returns the profile with identity email for provisioning", func(t *testing.T) {
		users := &stubUserService{profile: domain.UserProfile{ID: "u1", DisplayName: "홍길동", HeightCM: 176}}
		rec := httptest.NewRecorder()
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/", ""))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if users.getCmd.UserID != "u1" || users.getCmd.Email != "user@example.com" {
			t.Fatalf("unexpected command %#v", users.getCmd)
		}
		var payload profilePayload
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if payload.DisplayName != "홍길동" || payload.HeightCM != 176 {
			t.Fatalf("unexpected payload %#v", payload)
		}
	})

	t.Run("update forwards only provided fields", func(t *testing.T) {
		users := &stubUserService{profile: domain.UserProfile{ID: "u1"}}
		rec := httptest.NewRecorder()
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodPut, "/", `{"height_cm":176.5,"gender":"male"}`))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		cmd := users.updateCmd
		if cmd.HeightCM == nil || *cmd.HeightCM != 176.5 {
			t.Fatalf("expected height forwarded, got %#v", cmd)
		}
		if cmd.Gender == nil || *cmd.Gender != "male" {
			t.Fatalf("expected gender forwarded, got %#v", cmd)
		}
		if cmd.DisplayName != nil || cmd.Locale != nil || cmd.PhoneNumber != nil {
			t.Fatalf("untouched fields must stay nil: %#v", cmd)
		}
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		rec := httptest.NewRecorder()
		meRouter(&stubUserService{}).ServeHTTP(rec, authedRequest(t, http.MethodPut, "/", `{}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps service validation errors", func(t *testing.T) {
		users := &stubUserService{updateErr: services.ErrUserInvalidInput}
		rec := httptest.NewRecorder()
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodPut, "/", `{"height_cm":40}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := httptest.NewRecorder()
		meRouter(&stubUserService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestMeHandlersAddresses(t *testing.T) {
	t.Run("create validates required fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		meRouter(&stubUserService{}).ServeHTTP(rec,
			authedRequest(t, http.MethodPost, "/addresses/", `{"recipient":"홍길동"}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("create responds with location", func(t *testing.T) {
		users := &stubUserService{}
		rec := httptest.NewRecorder()
		body := `{"recipient":"홍길동","line1":"서울시 강남구 테헤란로 1","postal_code":"06000","is_default":true}`
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/addresses/", body))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Location"); got != "/addresses/addr-1" {
			t.Fatalf("unexpected location %q", got)
		}
		if !users.upsertCmd.Address.IsDefault || users.upsertCmd.AddressID != nil {
			t.Fatalf("unexpected upsert %#v", users.upsertCmd)
		}
	})

	t.Run("update carries the address id", func(t *testing.T) {
		users := &stubUserService{}
		rec := httptest.NewRecorder()
		body := `{"recipient":"홍길동","line1":"부산시 해운대구 1","postal_code":"48000"}`
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodPut, "/addresses/addr-9/", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if users.upsertCmd.AddressID == nil || *users.upsertCmd.AddressID != "addr-9" {
			t.Fatalf("expected address id forwarded, got %#v", users.upsertCmd)
		}
	})

	t.Run("set default", func(t *testing.T) {
		users := &stubUserService{}
		rec := httptest.NewRecorder()
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/addresses/addr-1/default", ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(users.defaulted) != 1 || users.defaulted[0] != "addr-1" {
			t.Fatalf("unexpected defaults %#v", users.defaulted)
		}
	})

	t.Run("delete maps not found", func(t *testing.T) {
		users := &stubUserService{deleteErr: services.ErrUserNotFound}
		rec := httptest.NewRecorder()
		meRouter(users).ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/addresses/addr-9/", ""))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
