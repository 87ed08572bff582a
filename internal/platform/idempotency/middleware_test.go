package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMiddlewareReplaysDuplicateSubmissions(t *testing.T) {
	store := NewMemoryStore()
	mw := NewMiddleware(store, "Idempotency-Key", time.Hour)

	var handlerCalls int
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"order-1"}`))
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{"clothType":"hoodie"}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if first.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first response must not be marked replayed")
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay marker")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical bodies, got %q and %q", first.Body.String(), second.Body.String())
	}
	if handlerCalls != 1 {
		t.Fatalf("expected handler called once, got %d", handlerCalls)
	}
}

func TestMiddlewareRejectsKeyReuseWithDifferentPayload(t *testing.T) {
	mw := NewMiddleware(NewMemoryStore(), "Idempotency-Key", time.Hour)
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-2")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(`{"clothType":"hoodie"}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	rr := send(`{"clothType":"jacket"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for payload mismatch, got %d", rr.Code)
	}
}

func TestMiddlewareIgnoresRequestsWithoutKey(t *testing.T) {
	mw := NewMiddleware(NewMemoryStore(), "Idempotency-Key", time.Hour)

	var handlerCalls int
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
	if handlerCalls != 2 {
		t.Fatalf("expected handler called twice without keys, got %d", handlerCalls)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := NewMemoryStore(WithMemoryClock(func() time.Time { return now }))

	record := Record{Key: "k", Status: 200, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	if err := store.Put(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, found, _ := store.Get(context.Background(), "k"); !found {
		t.Fatalf("expected record present")
	}
	now = now.Add(2 * time.Minute)
	if _, found, _ := store.Get(context.Background(), "k"); found {
		t.Fatalf("expected record expired")
	}
}
