package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/requestctx"
)

const replayedHeader = "Idempotency-Replayed"

// Middleware replays responses for duplicate mutating requests that carry the
// same idempotency key. Keys are scoped per authenticated user and route.
type Middleware struct {
	store  Store
	header string
	ttl    time.Duration
	clock  func() time.Time
}

// NewMiddleware constructs the idempotency middleware.
func NewMiddleware(store Store, header string, ttl time.Duration) *Middleware {
	header = strings.TrimSpace(header)
	if header == "" {
		header = "Idempotency-Key"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Middleware{
		store:  store,
		header: header,
		ttl:    ttl,
		clock:  time.Now,
	}
}

// WithClock overrides the middleware time source, chiefly for tests.
func (m *Middleware) WithClock(clock func() time.Time) *Middleware {
	if clock != nil {
		m.clock = clock
	}
	return m
}

// Handle wraps next with duplicate submission protection.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.store == nil || !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		key := strings.TrimSpace(r.Header.Get(m.header))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		scopedKey := scopeKey(r, key)
		fingerprint := fingerprintRequest(r, body)

		record, found, err := m.store.Get(ctx, scopedKey)
		if err != nil {
			requestctx.Logger(ctx).Warn("idempotency lookup failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if found {
			if record.Fingerprint != fingerprint {
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_reuse", "idempotency key was used with a different request", http.StatusConflict))
				return
			}
			replay(w, record)
			return
		}

		capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(capture, r)

		// Only successful responses are worth replaying.
		if capture.status >= http.StatusOK && capture.status < http.StatusMultipleChoices {
			now := m.clock()
			err := m.store.Put(ctx, Record{
				Key:         scopedKey,
				Fingerprint: fingerprint,
				Status:      capture.status,
				Headers:     captureHeaders(capture.Header()),
				Body:        capture.body.Bytes(),
				CreatedAt:   now,
				ExpiresAt:   now.Add(m.ttl),
			})
			if err != nil {
				requestctx.Logger(ctx).Warn("idempotency record store failed", zap.Error(err))
			}
		}
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func scopeKey(r *http.Request, key string) string {
	uid := "anonymous"
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		uid = identity.UID
	}
	sum := sha256.Sum256([]byte(uid + "\x00" + r.Method + "\x00" + r.URL.Path + "\x00" + key))
	return hex.EncodeToString(sum[:])
}

func fingerprintRequest(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func replay(w http.ResponseWriter, record Record) {
	for name, value := range record.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func captureHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name := range h {
		if strings.EqualFold(name, replayedHeader) {
			continue
		}
		out[name] = h.Get(name)
	}
	return out
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
