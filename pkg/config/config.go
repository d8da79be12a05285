package config

import "time"

// Config is the root configuration structure for the relay.
type Config struct {
	// Server contains HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Upstream contains the completion API connection settings.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Limiter contains per-source abuse limiting configuration.
	Limiter LimiterConfig `yaml:"limiter"`

	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed upstream.timeout.
	// Default: 45s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the POST /chat body and WebSocket frames.
	// Default: 65536
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TrustForwardedHeaders derives the limiter key from X-Forwarded-For and
	// X-Real-IP. Only safe when a proxy you control overwrites those headers.
	// Default: true
	TrustForwardedHeaders bool `yaml:"trust_forwarded_headers"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. ["*"] allows any origin.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists methods allowed in preflight responses.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists headers allowed in preflight responses.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders lists response headers readable by the browser.
	// Default: ["X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// UpstreamConfig contains the completion API settings.
// URL and APIKey are usually supplied through AI_API_URL and AI_API_KEY.
type UpstreamConfig struct {
	// URL is the completion endpoint.
	URL string `yaml:"url"`

	// APIKey is sent as a bearer token.
	APIKey string `yaml:"api_key"`

	// Model is the provider-specific model name.
	// Default: "default"
	Model string `yaml:"model"`

	// Timeout bounds one upstream call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// LimiterConfig contains abuse limiter configuration.
type LimiterConfig struct {
	// Limit is the number of requests admitted per window and source.
	// Default: 30
	Limit int `yaml:"limit"`

	// Window is the fixed window length.
	// Default: 60s
	Window time.Duration `yaml:"window"`

	// Backend selects the counter store.
	// Options: "memory", "redis"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// FailOpen admits requests when the store is unreachable.
	// Default: false
	FailOpen bool `yaml:"fail_open"`

	// SweepSchedule is a cron expression for removing expired memory
	// entries. Empty disables sweeping.
	// Default: ""
	SweepSchedule string `yaml:"sweep_schedule"`

	// Redis contains settings for the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Addr is the Redis host:port.
	Addr string `yaml:"addr"`

	// Password is the Redis AUTH password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix namespaces limiter keys.
	// Default: "relay:ratelimit:"
	KeyPrefix string `yaml:"key_prefix"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks credentials and identifiable data in logged values.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "relay"
	Namespace string `yaml:"namespace"`

	// UpstreamDurationBuckets defines histogram buckets for upstream latency (seconds).
	// Default: [0.25, 0.5, 1, 2, 5, 10, 20, 30]
	UpstreamDurationBuckets []float64 `yaml:"upstream_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds span exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service.name resource attribute.
	// Default: "support-chat-relay"
	ServiceName string `yaml:"service_name"`
}
