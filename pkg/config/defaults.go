package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress         = "127.0.0.1:8080"
	DefaultReadTimeout           = 15 * time.Second
	DefaultWriteTimeout          = 45 * time.Second
	DefaultIdleTimeout           = 120 * time.Second
	DefaultShutdownTimeout       = 30 * time.Second
	DefaultMaxHeaderBytes        = 1048576 // 1MB
	DefaultMaxBodyBytes          = int64(64 << 10)
	DefaultTrustForwardedHeaders = true

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Upstream defaults
	DefaultUpstreamModel   = "default"
	DefaultUpstreamTimeout = 30 * time.Second

	// Limiter defaults
	DefaultLimiterLimit    = 30
	DefaultLimiterWindow   = 60 * time.Second
	DefaultLimiterBackend  = BackendMemory
	DefaultLimiterFailOpen = false
	DefaultRedisKeyPrefix  = "relay:ratelimit:"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultLoggingRedact      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "relay"
	DefaultTracingEnabled     = false
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingServiceName = "support-chat-relay"
)

// Limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Default returns a configuration with every field set to its default,
// including the boolean fields whose default is true. Files are decoded
// on top of it so omitted keys keep their defaults.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			TrustForwardedHeaders: DefaultTrustForwardedHeaders,
			CORS: CORSConfig{
				Enabled: DefaultCORSEnabled,
			},
		},
		Limiter: LimiterConfig{
			FailOpen: DefaultLimiterFailOpen,
		},
		Logging: LoggingConfig{
			Redact: DefaultLoggingRedact,
		},
		Metrics: MetricsConfig{
			Enabled: DefaultMetricsEnabled,
		},
		Tracing: TracingConfig{
			Enabled:  DefaultTracingEnabled,
			Insecure: DefaultTracingInsecure,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any fields that have zero values.
// Boolean fields are left alone; see Default.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(&cfg.Server.CORS)

	// Upstream defaults
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = DefaultUpstreamModel
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}

	// Limiter defaults
	if cfg.Limiter.Limit == 0 {
		cfg.Limiter.Limit = DefaultLimiterLimit
	}
	if cfg.Limiter.Window == 0 {
		cfg.Limiter.Window = DefaultLimiterWindow
	}
	if cfg.Limiter.Backend == "" {
		cfg.Limiter.Backend = DefaultLimiterBackend
	}
	if cfg.Limiter.Redis.KeyPrefix == "" {
		cfg.Limiter.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	// Metrics defaults
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.UpstreamDurationBuckets) == 0 {
		cfg.Metrics.UpstreamDurationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30}
	}

	// Tracing defaults
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{
			"X-Request-ID",
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
