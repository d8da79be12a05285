// Package telemetry groups the relay's observability packages.
//
//   - logging: log/slog setup with identifier redaction
//   - metrics: Prometheus collectors for the chat pipeline
//   - tracing: OpenTelemetry spans exported over OTLP
//   - health: liveness and readiness probes
//
// None of them record message text. Screening results are reported by rule
// name and limiter results by decision, never by source address.
package telemetry
