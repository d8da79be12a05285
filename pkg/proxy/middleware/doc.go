// Package middleware provides the relay's HTTP middleware.
//
// The server chains them outermost first:
//
//	Recovery -> RequestID -> tracing -> Logging -> Metrics -> CORS -> router
//
//   - RecoveryMiddleware turns a panic into a 500 with {"error":"Internal error."}
//   - RequestIDMiddleware assigns X-Request-ID (UUID v4 unless the client sent one)
//   - LoggingMiddleware writes one line per request, labelled by route pattern
//   - MetricsMiddleware reports route, method, status and latency to an HTTPRecorder
//   - CORSMiddleware adds CORS headers and answers preflight requests with 204
//
// The request ID lives in the logging package's context key, so any slog
// call made with the request context carries it.
package middleware
