package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is the dotenv file read by Load before environment overrides.
// Variables already set in the process environment win over the file.
var DotEnvFile = ".env"

// Upstream credentials keep the names used by existing deployments.
const (
	EnvAPIKey = "AI_API_KEY"
	EnvAPIURL = "AI_API_URL"
	EnvModel  = "AI_MODEL"
)

// LoadConfig loads configuration from a YAML file at path without
// consulting the environment. Keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// Load builds the effective configuration.
//
// The loading sequence is:
//  1. Start from defaults
//  2. Decode the YAML file at path, if path is not empty
//  3. Load DotEnvFile into the process environment, if it exists
//  4. Apply environment variable overrides
//  5. Validate
//
// Missing upstream credentials are not an error: requests fail with a
// configuration error instead, and Warnings reports them.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	if errs := applyEnvOverrides(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment override: %w", ValidationError{Errors: errs})
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// envReader collects parse failures while reading overrides.
type envReader struct {
	errs []FieldError
}

func (r *envReader) string(name string, dst *string) {
	if val, ok := os.LookupEnv(name); ok && val != "" {
		*dst = val
	}
}

func (r *envReader) duration(name string, dst *time.Duration) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		r.fail(name, "must be a duration such as 30s")
		return
	}
	*dst = d
}

func (r *envReader) int(name string, dst *int) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		r.fail(name, "must be an integer")
		return
	}
	*dst = i
}

func (r *envReader) int64(name string, dst *int64) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		r.fail(name, "must be an integer")
		return
	}
	*dst = i
}

func (r *envReader) bool(name string, dst *bool) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		r.fail(name, "must be true or false")
		return
	}
	*dst = b
}

func (r *envReader) float(name string, dst *float64) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		r.fail(name, "must be a number")
		return
	}
	*dst = f
}

func (r *envReader) fail(name, msg string) {
	r.errs = append(r.errs, FieldError{Field: name, Message: msg})
}

// applyEnvOverrides applies environment variable overrides to cfg.
// Apart from the upstream credentials, variables use the format
// RELAY_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) []FieldError {
	var r envReader

	// Upstream
	r.string(EnvAPIURL, &cfg.Upstream.URL)
	r.string(EnvAPIKey, &cfg.Upstream.APIKey)
	r.string(EnvModel, &cfg.Upstream.Model)
	r.duration("RELAY_UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)

	// Server
	r.string("RELAY_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	r.duration("RELAY_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	r.duration("RELAY_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	r.duration("RELAY_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	r.duration("RELAY_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	r.int64("RELAY_SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)
	r.bool("RELAY_SERVER_TRUST_FORWARDED_HEADERS", &cfg.Server.TrustForwardedHeaders)
	r.bool("RELAY_SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)

	// Limiter
	r.int("RELAY_LIMITER_LIMIT", &cfg.Limiter.Limit)
	r.duration("RELAY_LIMITER_WINDOW", &cfg.Limiter.Window)
	r.string("RELAY_LIMITER_BACKEND", &cfg.Limiter.Backend)
	r.bool("RELAY_LIMITER_FAIL_OPEN", &cfg.Limiter.FailOpen)
	r.string("RELAY_LIMITER_SWEEP_SCHEDULE", &cfg.Limiter.SweepSchedule)
	r.string("RELAY_LIMITER_REDIS_ADDR", &cfg.Limiter.Redis.Addr)
	r.string("RELAY_LIMITER_REDIS_PASSWORD", &cfg.Limiter.Redis.Password)
	r.int("RELAY_LIMITER_REDIS_DB", &cfg.Limiter.Redis.DB)
	r.string("RELAY_LIMITER_REDIS_KEY_PREFIX", &cfg.Limiter.Redis.KeyPrefix)

	// Logging
	r.string("RELAY_LOGGING_LEVEL", &cfg.Logging.Level)
	r.string("RELAY_LOGGING_FORMAT", &cfg.Logging.Format)
	r.bool("RELAY_LOGGING_REDACT", &cfg.Logging.Redact)

	// Metrics
	r.bool("RELAY_METRICS_ENABLED", &cfg.Metrics.Enabled)
	r.string("RELAY_METRICS_PATH", &cfg.Metrics.Path)

	// Tracing
	r.bool("RELAY_TRACING_ENABLED", &cfg.Tracing.Enabled)
	r.string("RELAY_TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
	r.bool("RELAY_TRACING_INSECURE", &cfg.Tracing.Insecure)
	r.string("RELAY_TRACING_SAMPLER", &cfg.Tracing.Sampler)
	r.float("RELAY_TRACING_SAMPLE_RATIO", &cfg.Tracing.SampleRatio)
	r.string("RELAY_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)

	return r.errs
}

// Warnings returns non-fatal configuration problems worth logging at
// startup.
func (c *Config) Warnings() []string {
	var warnings []string

	if c.Upstream.URL == "" || c.Upstream.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf(
			"upstream is not configured (set %s and %s); chat requests will fail with 500",
			EnvAPIURL, EnvAPIKey))
	}
	if c.Limiter.Backend == BackendMemory {
		warnings = append(warnings,
			"limiter counters are process-local; each instance enforces its own limit")
	}
	if c.Limiter.Backend == BackendRedis && c.Limiter.SweepSchedule != "" {
		warnings = append(warnings,
			"limiter.sweep_schedule is ignored with the redis backend")
	}

	return warnings
}
