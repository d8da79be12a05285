package relay

import (
	"errors"
	"fmt"
	"strings"
)

// TimeoutBody is the UpstreamError body reported when the upstream call
// exceeds the configured timeout.
const TimeoutBody = "upstream request timed out"

// ConfigError reports that the relay cannot run because the upstream
// endpoint or key is not configured.
type ConfigError struct {
	// Missing names the unset settings, e.g. "url" or "api_key".
	Missing []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("upstream not configured: missing %s", strings.Join(e.Missing, ", "))
}

// UpstreamError reports that the upstream API did not return a usable
// response.
type UpstreamError struct {
	// StatusCode is the HTTP status returned by the upstream (0 on timeout).
	StatusCode int

	// Body is the raw response body, kept for operator diagnostics.
	Body string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return "upstream error: " + e.Body
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Body)
}

// Timeout reports whether the error came from the relay timeout.
func (e *UpstreamError) Timeout() bool {
	return e.StatusCode == 0
}

// TransportError wraps a network-level failure talking to the upstream.
type TransportError struct {
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream transport error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Kind classifies err for metrics labels: "config", "timeout", "upstream",
// "transport" or "" for nil and unknown errors.
func Kind(err error) string {
	var (
		cfgErr       *ConfigError
		upstreamErr  *UpstreamError
		transportErr *TransportError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &upstreamErr):
		if upstreamErr.Timeout() {
			return "timeout"
		}
		return "upstream"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return ""
	}
}
