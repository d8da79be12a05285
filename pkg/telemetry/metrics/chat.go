package metrics

import (
	"surgerydesk/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics tracks the chat pipeline.
//
// Metrics:
//   - relay_chat_requests_total: finished requests by outcome
//   - relay_screening_flags_total: matched screening rules by rule name
//   - relay_limiter_decisions_total: limiter decisions by decision
type ChatMetrics struct {
	requestsTotal    *prometheus.CounterVec
	flagsTotal       *prometheus.CounterVec
	limiterDecisions *prometheus.CounterVec
}

// NewChatMetrics creates and registers chat metrics with the provided registry.
func NewChatMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ChatMetrics {
	cm := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Total number of chat requests by outcome",
			},
			[]string{"outcome"},
		),

		flagsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "screening",
				Name:      "flags_total",
				Help:      "Screening rule matches on rejected messages",
			},
			[]string{"rule"},
		),

		limiterDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "limiter",
				Name:      "decisions_total",
				Help:      "Limiter decisions by result",
			},
			[]string{"decision"},
		),
	}

	registry.MustRegister(
		cm.requestsTotal,
		cm.flagsTotal,
		cm.limiterDecisions,
	)

	return cm
}

// RecordRequest counts one finished chat request.
func (cm *ChatMetrics) RecordRequest(outcome string) {
	cm.requestsTotal.WithLabelValues(outcome).Inc()
}

// RecordFlags counts each matched rule once.
func (cm *ChatMetrics) RecordFlags(rules []string) {
	for _, rule := range rules {
		cm.flagsTotal.WithLabelValues(rule).Inc()
	}
}

// RecordLimiterDecision counts one limiter decision.
func (cm *ChatMetrics) RecordLimiterDecision(decision string) {
	cm.limiterDecisions.WithLabelValues(decision).Inc()
}
