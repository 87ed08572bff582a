package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brand-er1/clothology-express-sub000/internal/platform/jobs"
)

func pushBody(t *testing.T, job jobs.EmailJobMessage) string {
	t.Helper()
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	return fmt.Sprintf(`{"message":{"data":%q,"messageId":"m1"},"subscription":"sub"}`,
		base64.StdEncoding.EncodeToString(data))
}

func internalRouter(dispatch EmailJobDispatcher) chi.Router {
	r := chi.NewRouter()
	NewInternalJobHandlers(dispatch).Routes(r)
	return r
}

func TestInternalJobHandlersEmail(t *testing.T) {
	t.Run("dispatches the decoded job", func(t *testing.T) {
		var got jobs.EmailJobMessage
		router := internalRouter(func(_ context.Context, job jobs.EmailJobMessage) error {
			got = job
			return nil
		})

		body := pushBody(t, jobs.EmailJobMessage{
			JobID:      "ej_1",
			OrderID:    "ord_1",
			Template:   jobs.TemplateOrderSubmitted,
			Recipients: []string{"user@example.com"},
			Subject:    "주문이 접수되었습니다",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/email", strings.NewReader(body)))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.JobID != "ej_1" || got.Template != jobs.TemplateOrderSubmitted {
			t.Fatalf("unexpected job %#v", got)
		}
	})

	t.Run("acknowledges undecodable payloads", func(t *testing.T) {
		called := false
		router := internalRouter(func(context.Context, jobs.EmailJobMessage) error {
			called = true
			return nil
		})

		body := fmt.Sprintf(`{"message":{"data":%q,"messageId":"m2"}}`,
			base64.StdEncoding.EncodeToString([]byte("not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/email", strings.NewReader(body)))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 ack, got %d", rec.Code)
		}
		if called {
			t.Fatalf("undecodable payload must not be dispatched")
		}
	})

	t.Run("dispatch failures surface for redelivery", func(t *testing.T) {
		router := internalRouter(func(context.Context, jobs.EmailJobMessage) error {
			return errors.New("smtp unavailable")
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/email",
			strings.NewReader(pushBody(t, jobs.EmailJobMessage{JobID: "ej_2"}))))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("empty envelopes are rejected", func(t *testing.T) {
		router := internalRouter(nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/email", strings.NewReader(`{"message":{}}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
