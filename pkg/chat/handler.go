package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"surgerydesk/relay/pkg/limiter"
	"surgerydesk/relay/pkg/screening"
	"surgerydesk/relay/pkg/telemetry/tracing"
)

// DefaultMaxBodyBytes bounds the POST /chat body.
const DefaultMaxBodyBytes = 64 << 10

// Limiter admits or rejects requests per source.
type Limiter interface {
	Check(ctx context.Context, key string) limiter.Decision
}

// Relay sends a screened message upstream.
type Relay interface {
	Send(ctx context.Context, message string) (string, error)
}

// Recorder receives pipeline metrics.
type Recorder interface {
	RecordChat(outcome string)
	RecordScreeningFlags(rules []string)
	RecordLimiterDecision(decision string)
}

// Request is the body of POST /chat and of each WebSocket frame.
type Request struct {
	Message string          `json:"message"`
	Context *RequestContext `json:"context,omitempty"`
}

// RequestContext describes where the widget is embedded. It is logged for
// diagnostics and not forwarded upstream.
type RequestContext struct {
	Audience string `json:"audience"`
	Scope    string `json:"scope"`
}

// Response is the success body of POST /chat.
type Response struct {
	Reply string `json:"reply"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Reply is the upstream reply on success.
	Reply string

	// Decision is the limiter decision. It is the zero value when the
	// request was rejected before reaching the limiter.
	Decision limiter.Decision
}

// Config holds handler settings.
type Config struct {
	// MaxBodyBytes bounds the request body.
	// Default: 64 KiB
	MaxBodyBytes int64

	// TrustForwardedHeaders derives the source key from X-Forwarded-For and
	// X-Real-IP instead of the peer address.
	TrustForwardedHeaders bool
}

// Handler runs chat messages through the empty check, limiter, screening
// and relay, in that order.
type Handler struct {
	limiter  Limiter
	relay    Relay
	recorder Recorder
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(h *Handler) {
		h.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a chat handler.
func NewHandler(l Limiter, r Relay, cfg Config, opts ...Option) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	h := &Handler{
		limiter:  l,
		relay:    r,
		recorder: nopRecorder{},
		cfg:      cfg,
		logger:   slog.Default().With("component", "chat"),
		tracer:   otel.Tracer("surgerydesk/relay/pkg/chat"),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Process runs one message from source through the pipeline.
func (h *Handler) Process(ctx context.Context, source string, req Request) (Result, error) {
	ctx, span := h.tracer.Start(ctx, "chat.handle")
	defer span.End()

	res, err := h.process(ctx, source, req)

	h.recorder.RecordChat(outcome(err))
	span.SetAttributes(attribute.String(tracing.AttrChatOutcome, outcome(err)))
	tracing.SetStatus(span, err)
	return res, err
}

func (h *Handler) process(ctx context.Context, source string, req Request) (Result, error) {
	var res Result

	if strings.TrimSpace(req.Message) == "" {
		return res, ErrEmptyMessage
	}

	if req.Context != nil {
		h.logger.DebugContext(ctx, "chat request context",
			"audience", req.Context.Audience,
			"scope", req.Context.Scope,
		)
	}

	span := trace.SpanFromContext(ctx)

	res.Decision = h.limiter.Check(ctx, source)
	h.recorder.RecordLimiterDecision(decisionLabel(res.Decision))
	span.SetAttributes(
		attribute.Bool(tracing.AttrLimiterAllowed, res.Decision.Allowed),
		attribute.Int64(tracing.AttrLimiterCount, res.Decision.Count),
	)
	if !res.Decision.Allowed {
		h.logger.InfoContext(ctx, "chat request rate limited",
			"source", source,
			"count", res.Decision.Count,
			"limit", res.Decision.Limit,
		)
		return res, ErrRateLimited
	}

	if screen := screening.Screen(req.Message); screen.Flagged {
		h.recorder.RecordScreeningFlags(screen.Rules)
		span.SetAttributes(attribute.StringSlice(tracing.AttrScreeningRules, screen.Rules))
		h.logger.InfoContext(ctx, "chat request flagged by screening",
			"rules", screen.Rules,
		)
		return res, ErrIdentifiableData
	}

	reply, err := h.relay.Send(ctx, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "chat relay failed",
			"error", err,
		)
		return res, err
	}

	res.Reply = reply
	return res, nil
}

// ServeHTTP handles POST /chat.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		h.writeJSON(ctx, w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed."})
		return
	}

	req, err := h.decode(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to decode chat request",
			"error", err,
		)
		h.recorder.RecordChat(outcome(err))
		h.writeError(ctx, w, Result{}, err)
		return
	}

	res, err := h.Process(ctx, SourceKey(r, h.cfg.TrustForwardedHeaders), req)
	if err != nil {
		h.writeError(ctx, w, res, err)
		return
	}

	h.setRateLimitHeaders(w, res.Decision)
	h.writeJSON(ctx, w, http.StatusOK, Response{Reply: res.Reply})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request

	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			// No body at all is reported as a missing message.
			return req, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, maxErr.Limit)
		}
		return req, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return req, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, res Result, err error) {
	h.setRateLimitHeaders(w, res.Decision)
	if errors.Is(err, ErrRateLimited) {
		if wait := res.Decision.RetryAfter(h.now()); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)))
		}
	}
	h.writeJSON(ctx, w, StatusFor(err), ErrorBody(err))
}

// setRateLimitHeaders omits the headers when the store failed, since the
// decision then carries no count.
func (h *Handler) setRateLimitHeaders(w http.ResponseWriter, d limiter.Decision) {
	if d.Limit == 0 || d.StoreError != nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining(), 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func decisionLabel(d limiter.Decision) string {
	switch {
	case d.StoreError != nil && d.Allowed:
		return "store_error_admitted"
	case d.StoreError != nil:
		return "store_error_rejected"
	case d.Allowed:
		return "admitted"
	default:
		return "rejected"
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordChat(string)             {}
func (nopRecorder) RecordScreeningFlags([]string) {}
func (nopRecorder) RecordLimiterDecision(string)  {}
