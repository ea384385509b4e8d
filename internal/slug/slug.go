// Package slug extracts guest identifiers from decoded scan payloads.
package slug

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rayarayu/checkin/internal/kiosk"
)

// Extract turns raw decoded text into a guest identifier. Invitation codes
// carry either a bare slug or a link whose last path segment is the slug.
//
// Extract is total: any input that does not yield a non-empty identifier
// returns an error wrapping kiosk.ErrInvalidInput.
func Extract(raw string) (kiosk.Identifier, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty payload", kiosk.ErrInvalidInput)
	}

	var seg string
	if path, ok := urlPath(text); ok {
		seg = lastSegment(path)
	} else {
		seg = lastSegment(text)
		if seg == "" {
			seg = text
		}
	}

	id := strings.TrimSpace(unescape(seg))
	if id == "" {
		return "", fmt.Errorf("%w: no identifier in %q", kiosk.ErrInvalidInput, raw)
	}
	return kiosk.Identifier(id), nil
}

// urlPath returns the escaped path of s when s is an absolute URL.
func urlPath(s string) (string, bool) {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	if u.Opaque != "" {
		return u.Opaque, true
	}
	return u.EscapedPath(), true
}

func lastSegment(s string) string {
	parts := strings.Split(s, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if strings.TrimSpace(parts[i]) != "" {
			return parts[i]
		}
	}
	return ""
}

// unescape percent-decodes s, keeping it as-is when the encoding is broken.
func unescape(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}
