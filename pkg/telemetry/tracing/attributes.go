package tracing

// Span attribute keys. Values never include message text or source
// addresses.
const (
	AttrChatOutcome    = "relay.chat.outcome"
	AttrLimiterAllowed = "relay.limiter.allowed"
	AttrLimiterCount   = "relay.limiter.count"
	AttrScreeningRules = "relay.screening.rules"

	AttrUpstreamModel      = "relay.upstream.model"
	AttrUpstreamReplyShape = "relay.upstream.reply_shape"

	AttrHTTPStatusCode = "http.status_code"
	AttrErrorMessage   = "error.message"
)
