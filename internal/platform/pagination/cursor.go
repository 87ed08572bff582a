package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPageSize applies when the client omits the page size.
	DefaultPageSize = 20
	// MaxPageSize caps page sizes to keep Firestore queries bounded.
	MaxPageSize = 100
)

// ErrInvalidToken is returned for malformed or truncated page tokens.
var ErrInvalidToken = errors.New("pagination: invalid page token")

// Cursor identifies the last document of the previous page.
type Cursor struct {
	LastID      string    `json:"id"`
	LastCreated time.Time `json:"ts"`
}

// Encode serialises the cursor into an opaque URL-safe token.
func (c Cursor) Encode() string {
	if c.LastID == "" {
		return ""
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode. An empty token yields a zero cursor.
func Decode(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if cursor.LastID == "" {
		return Cursor{}, ErrInvalidToken
	}
	return cursor, nil
}

// ClampPageSize normalises the requested page size into the allowed range.
func ClampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// FromQuery extracts page size and token from URL query parameters.
func FromQuery(values url.Values) (pageSize int, token string) {
	pageSize = DefaultPageSize
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			pageSize = ClampPageSize(parsed)
		}
	}
	return pageSize, strings.TrimSpace(values.Get("pageToken"))
}
