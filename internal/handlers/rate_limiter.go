package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/httpx"
)

// keyedRateLimiter hands out one token-bucket limiter per caller key. Idle
// entries are pruned so the map stays bounded by the active caller set.
type keyedRateLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedRateLimiter(limit rate.Limit, burst int, clock func() time.Time) *keyedRateLimiter {
	if limit <= 0 || burst <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &keyedRateLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     10 * time.Minute,
		clock:   clock,
		entries: make(map[string]*limiterEntry),
	}
}

// Allow reports whether the caller identified by key may proceed. A nil
// limiter allows everything.
func (l *keyedRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	l.pruneLocked(now)
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

func (l *keyedRateLimiter) pruneLocked(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.entries, key)
		}
	}
}

// RateLimitMiddleware throttles requests per caller. Authenticated callers
// are keyed by their user id against the authenticated limit; everyone else
// is keyed by client address against the default limit.
func RateLimitMiddleware(defaultPerMinute, authenticatedPerMinute int) func(http.Handler) http.Handler {
	perMinuteLimiter := func(perMinute int) *keyedRateLimiter {
		if perMinute <= 0 {
			return nil
		}
		return newKeyedRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute, nil)
	}
	anonymous := perMinuteLimiter(defaultPerMinute)
	authenticated := perMinuteLimiter(authenticatedPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := anonymous
			key := ""
			if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity != nil && strings.TrimSpace(identity.UID) != "" {
				limiter = authenticated
				key = identity.UID
			} else {
				key = clientAddress(r)
			}
			if !limiter.Allow(key) {
				httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
