// Package tracing sets up OpenTelemetry tracing for the relay.
//
// Spans:
//
//   - "HTTP <method> <route>": one server span per request (HTTPMiddleware)
//   - "chat.handle": one message through the pipeline
//   - "relay.upstream": the completion API call, a client span
//
// The W3C traceparent header is read on the way in and written on the
// upstream call. Export is OTLP over gRPC; when tracing is disabled the
// global provider stays a noop and only propagation is active.
package tracing
