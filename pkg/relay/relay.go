package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"surgerydesk/relay/pkg/telemetry/tracing"
)

const (
	// DefaultModel is sent when no model is configured.
	DefaultModel = "default"

	// DefaultTimeout bounds one upstream call.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of an upstream body is read.
	maxResponseBytes = 1 << 20
)

// Config holds the upstream connection settings.
type Config struct {
	// URL is the completion endpoint.
	URL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the provider-specific model name.
	// Default: "default"
	Model string

	// Timeout bounds one upstream call.
	// Default: 30s
	Timeout time.Duration
}

// Missing returns the names of required settings that are empty.
func (c Config) Missing() []string {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	return missing
}

// Observer receives one observation per upstream call. kind is "" on
// success, otherwise the value of Kind(err).
type Observer interface {
	ObserveUpstream(duration time.Duration, kind string)
}

// Client sends messages to the upstream completion API.
// It is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is ignored in favour
// of Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers an observer for upstream latency and failures.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a relay client. A client with missing credentials is valid;
// every Send on it returns a *ConfigError.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		logger: slog.Default().With("component", "relay"),
		tracer: otel.Tracer("surgerydesk/relay/pkg/relay"),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether both endpoint and key are set.
func (c *Client) Configured() bool {
	return len(c.cfg.Missing()) == 0
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Send relays message upstream and returns the extracted reply.
// The message must already be non-empty, admitted and screened.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		err := &ConfigError{Missing: missing}
		c.observe(0, err)
		return "", err
	}

	ctx, span := c.tracer.Start(ctx, "relay.upstream",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(tracing.AttrUpstreamModel, c.cfg.Model)),
	)
	defer span.End()

	start := time.Now()
	reply, shape, err := c.do(ctx, message)
	elapsed := time.Since(start)

	c.observe(elapsed, err)
	tracing.SetStatus(span, err)
	if err != nil {
		tracing.SetError(span, err)
		c.logger.Warn("upstream request failed",
			"kind", Kind(err),
			"duration", elapsed,
			"error", err,
		)
		return "", err
	}

	span.SetAttributes(attribute.String(tracing.AttrUpstreamReplyShape, shape))
	c.logger.Debug("upstream request completed",
		"duration", elapsed,
		"reply_shape", shape,
	)
	return reply, nil
}

func (c *Client) do(ctx context.Context, message string) (string, string, error) {
	body, err := json.Marshal(NewCompletionRequest(c.cfg.Model, message))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", "", &TransportError{Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	tracing.Inject(callCtx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", c.classify(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", "", c.classify(ctx, callCtx, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	reply, shape := ExtractReply(data)
	return reply, shape, nil
}

// classify maps a failed round trip to an error type. Expiry of the relay
// timeout is an upstream failure; cancellation by the caller or any other
// network error is a transport failure.
func (c *Client) classify(parent, call context.Context, err error) error {
	if parent.Err() == nil && errors.Is(call.Err(), context.DeadlineExceeded) {
		return &UpstreamError{StatusCode: 0, Body: TimeoutBody}
	}
	return &TransportError{Cause: err}
}

func (c *Client) observe(d time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveUpstream(d, Kind(err))
	}
}
