package metrics

import (
	"time"

	"surgerydesk/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns every Prometheus metric the relay exports.
//
// It satisfies chat.Recorder and relay.Observer, so the chat pipeline and
// the upstream client report into it without importing this package.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	chatMetrics     *ChatMetrics
	upstreamMetrics *UpstreamMetrics
	httpMetrics     *HTTPMetrics

	buildInfo     *prometheus.GaugeVec
	trackedSource prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics. If registry
// is nil a fresh registry is created; the Go runtime and process
// collectors are added to it.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.UpstreamDurationBuckets) == 0 {
		cfg.UpstreamDurationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.chatMetrics = NewChatMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	c.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "build_info",
			Help:      "Build information; always 1",
		},
		[]string{"version", "commit"},
	)
	c.trackedSource = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "limiter",
			Name:      "tracked_sources",
			Help:      "Number of source keys held by the in-memory limiter store",
		},
	)
	registry.MustRegister(c.buildInfo, c.trackedSource)

	return c
}

// RecordChat counts one finished chat request by outcome
// ("ok", "empty", "flagged", "rate_limited", ...).
func (c *Collector) RecordChat(outcome string) {
	if !c.config.Enabled {
		return
	}
	c.chatMetrics.RecordRequest(outcome)
}

// RecordScreeningFlags counts each rule that matched a flagged message.
func (c *Collector) RecordScreeningFlags(rules []string) {
	if !c.config.Enabled {
		return
	}
	c.chatMetrics.RecordFlags(rules)
}

// RecordLimiterDecision counts one limiter decision.
func (c *Collector) RecordLimiterDecision(decision string) {
	if !c.config.Enabled {
		return
	}
	c.chatMetrics.RecordLimiterDecision(decision)
}

// ObserveUpstream records the latency of one upstream call. kind is empty
// on success and otherwise names the failure class.
func (c *Collector) ObserveUpstream(duration time.Duration, kind string) {
	if !c.config.Enabled {
		return
	}
	c.upstreamMetrics.Observe(duration, kind)
}

// RecordHTTP records one served HTTP request.
func (c *Collector) RecordHTTP(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.Record(route, method, status, duration)
}

// SetTrackedSources reports the size of the in-memory limiter store.
func (c *Collector) SetTrackedSources(n int) {
	if !c.config.Enabled {
		return
	}
	c.trackedSource.Set(float64(n))
}

// SetBuildInfo publishes the running version.
func (c *Collector) SetBuildInfo(version, commit string) {
	c.buildInfo.Reset()
	c.buildInfo.WithLabelValues(version, commit).Set(1)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
