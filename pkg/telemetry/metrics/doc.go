// Package metrics exports relay metrics in Prometheus format.
//
// # Metrics
//
//   - relay_chat_requests_total{outcome}
//   - relay_screening_flags_total{rule}
//   - relay_limiter_decisions_total{decision}
//   - relay_limiter_tracked_sources
//   - relay_upstream_request_duration_seconds{result}
//   - relay_upstream_errors_total{kind}
//   - relay_http_requests_total{route,method,code}
//   - relay_http_request_duration_seconds{route,method}
//   - relay_build_info{version,commit}
//
// No label ever carries message text or a source address.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//	handler := chat.NewHandler(lim, client, chatCfg, chat.WithRecorder(collector))
//	router.Handle(cfg.Metrics.Path, collector.Handler())
package metrics
