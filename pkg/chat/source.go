package chat

import (
	"net"
	"net/http"
	"strings"
)

// UnknownSource is the limiter key used when no address can be determined.
const UnknownSource = "unknown"

// SourceKey derives the limiter key for r.
//
// With trustForwarded set, the key is the first X-Forwarded-For entry, then
// X-Real-IP, then UnknownSource. Those headers are client-controlled, so this
// is only sound behind a proxy that overwrites them. Without trustForwarded
// the key is the host part of the peer address.
func SourceKey(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
		return UnknownSource
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return UnknownSource
}
