package chat

import (
	"errors"
	"net/http"

	"surgerydesk/relay/pkg/relay"
)

// Pipeline rejections.
var (
	// ErrEmptyMessage is returned when the message is missing or whitespace only.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrIdentifiableData is returned when screening flags the message.
	ErrIdentifiableData = errors.New("message flagged as patient-identifiable")

	// ErrRateLimited is returned when the limiter rejects the source.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidBody is returned when the request body is not a JSON object
	// or exceeds the size limit.
	ErrInvalidBody = errors.New("invalid request body")
)

// Client-facing error messages.
const (
	MsgEmptyMessage     = "Missing 'message'."
	MsgIdentifiableData = "Message appears to include patient-identifiable information. Remove NHS numbers, DOB, names, addresses, postcodes, screenshots, and try again with a general description."
	MsgRateLimited      = "Rate limit exceeded. Try again shortly."
	MsgNotConfigured    = "AI service not configured."
	MsgUpstream         = "AI upstream error"
	MsgProxy            = "Proxy error"
	MsgInvalidBody      = "Invalid request body."
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// StatusFor maps a pipeline error to its HTTP status.
func StatusFor(err error) int {
	var (
		cfgErr       *relay.ConfigError
		upstreamErr  *relay.UpstreamError
		transportErr *relay.TransportError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrIdentifiableData),
		errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &transportErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the client-facing envelope for err. Only upstream errors
// carry a detail. Configuration errors never say which setting is missing.
func ErrorBody(err error) ErrorResponse {
	var upstreamErr *relay.UpstreamError

	switch {
	case errors.Is(err, ErrEmptyMessage):
		return ErrorResponse{Error: MsgEmptyMessage}
	case errors.Is(err, ErrIdentifiableData):
		return ErrorResponse{Error: MsgIdentifiableData}
	case errors.Is(err, ErrInvalidBody):
		return ErrorResponse{Error: MsgInvalidBody}
	case errors.Is(err, ErrRateLimited):
		return ErrorResponse{Error: MsgRateLimited}
	case errors.As(err, new(*relay.ConfigError)):
		return ErrorResponse{Error: MsgNotConfigured}
	case errors.As(err, &upstreamErr):
		return ErrorResponse{Error: MsgUpstream, Detail: upstreamErr.Body}
	default:
		return ErrorResponse{Error: MsgProxy}
	}
}

// outcome returns the metrics label for a pipeline result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyMessage):
		return "empty"
	case errors.Is(err, ErrInvalidBody):
		return "invalid"
	case errors.Is(err, ErrIdentifiableData):
		return "flagged"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	}
	if kind := relay.Kind(err); kind != "" {
		return kind + "_error"
	}
	return "error"
}
