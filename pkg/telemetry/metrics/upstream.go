package metrics

import (
	"time"

	"surgerydesk/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls to the completion API.
//
// Metrics:
//   - relay_upstream_request_duration_seconds: latency by result
//   - relay_upstream_errors_total: failures by kind (timeout, upstream, transport, config)
type UpstreamMetrics struct {
	duration    *prometheus.HistogramVec
	errorsTotal *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Duration of completion API calls in seconds",
				Buckets:   cfg.UpstreamDurationBuckets,
			},
			[]string{"result"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Failed completion API calls by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(um.duration, um.errorsTotal)

	return um
}

// Observe records one call. An empty kind is a success.
func (um *UpstreamMetrics) Observe(d time.Duration, kind string) {
	result := "success"
	if kind != "" {
		result = "error"
		um.errorsTotal.WithLabelValues(kind).Inc()
	}
	um.duration.WithLabelValues(result).Observe(d.Seconds())
}
