// Package relay forwards a screened support question to an upstream
// completion API and normalizes the reply.
//
// Each call sends exactly one request: a fixed system instruction followed
// by the user's message, with temperature 0.2 and bearer authentication.
// There is no retry. The call is bounded by the configured timeout and by
// the caller's context.
//
// # Errors
//
// Send returns one of three error types:
//
//   - *ConfigError: the endpoint or key is missing. No network I/O happens.
//   - *UpstreamError: the upstream answered with a non-2xx status, or the
//     request timed out (StatusCode 0).
//   - *TransportError: the request could not be completed at the network level.
//
// # Reply Extraction
//
// Providers disagree on where the reply text lives. ExtractReply tries one
// decoder per known response shape, in order:
//
//  1. {"reply": "..."}
//  2. {"output": "..."}
//  3. {"choices": [{"message": {"content": "..."}}]}         (OpenAI chat)
//  4. {"content": [{"type": "text", "text": "..."}]}         (Anthropic messages)
//
// The first decoder producing a non-empty string wins. When none matches,
// including when the body is not JSON, the reply is NoReply.
package relay
