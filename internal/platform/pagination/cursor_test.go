package pagination

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{LastID: "order-42", LastCreated: time.Unix(1_700_000_000, 0).UTC()}
	token := cursor.Encode()
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	decoded, err := Decode(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.LastID != cursor.LastID || !decoded.LastCreated.Equal(cursor.LastCreated) {
		t.Fatalf("unexpected cursor %#v", decoded)
	}
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	if cursor, err := Decode(""); err != nil || cursor.LastID != "" {
		t.Fatalf("empty token must decode to zero cursor, got %#v err=%v", cursor, err)
	}
	if _, err := Decode("!!not-base64!!"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := Decode("e30"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty id, got %v", err)
	}
}

func TestClampPageSize(t *testing.T) {
	cases := map[int]int{-1: DefaultPageSize, 0: DefaultPageSize, 5: 5, 100: 100, 500: MaxPageSize}
	for in, want := range cases {
		if got := ClampPageSize(in); got != want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFromQuery(t *testing.T) {
	values := url.Values{"pageSize": {"250"}, "pageToken": {" abc "}}
	size, token := FromQuery(values)
	if size != MaxPageSize || token != "abc" {
		t.Fatalf("unexpected result size=%d token=%q", size, token)
	}
}
