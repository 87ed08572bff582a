package storage

import (
	"fmt"
	"strings"
	"unicode"
)

// PreviewObjectPath builds the canonical object path for a generated preview
// image, e.g. previews/{userID}/{imageID}/{index}.png.
func PreviewObjectPath(userID, imageID string, index int) string {
	if index < 0 {
		index = 0
	}
	return fmt.Sprintf("previews/%s/%s/%d.png", sanitizeSegment(userID), sanitizeSegment(imageID), index)
}

// OrderImagePath builds the object path for the preview attached to a
// submitted order.
func OrderImagePath(userID, orderID string) string {
	return fmt.Sprintf("orders/%s/%s.png", sanitizeSegment(userID), sanitizeSegment(orderID))
}

// sanitizeSegment strips path separators and control characters so user
// supplied identifiers cannot escape their prefix.
func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "unknown"
	}
	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		switch {
		case r == '/' || r == '\\' || r == '.':
			b.WriteRune('-')
		case unicode.IsControl(r) || unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}
