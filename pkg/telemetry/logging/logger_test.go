package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "json", config: Config{Level: "info", Format: "json", Redact: true}},
		{name: "text", config: Config{Level: "debug", Format: "text"}},
		{name: "defaults", config: Config{}},
		{name: "uppercase", config: Config{Level: "WARN", Format: "JSON"}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("chat request handled", "outcome", "ok", "status", 200)

	m := decodeLine(t, &buf)
	if m["msg"] != "chat request handled" {
		t.Errorf("msg = %v", m["msg"])
	}
	if m["outcome"] != "ok" {
		t.Errorf("outcome = %v", m["outcome"])
	}
	if m["status"] != float64(200) {
		t.Errorf("status = %v", m["status"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %s", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not logged: %s", buf.String())
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	derived := logger.With("component", "limiter")

	derived.Debug("before")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %s", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", logger.Level())
	}

	derived.Debug("after")
	if !strings.Contains(buf.String(), "after") {
		t.Errorf("derived logger did not follow level change: %s", buf.String())
	}

	if err := logger.SetLevel("nope"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Redact: true, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("upstream failed",
		"body", "patient 9434765919 at SW1A 1AA",
		"api_key", "sk-live-1234567890",
	)

	out := buf.String()
	for _, leaked := range []string{"9434765919", "SW1A 1AA", "sk-live-1234567890"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log line leaked %q: %s", leaked, out)
		}
	}
	if !strings.Contains(out, "[nhs_number]") {
		t.Errorf("expected nhs_number marker: %s", out)
	}
}

func TestLogger_RedactionDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if logger.Redactor() != nil {
		t.Error("expected nil redactor when redaction is off")
	}

	logger.Info("raw", "body", "9434765919")
	if !strings.Contains(buf.String(), "9434765919") {
		t.Errorf("value altered with redaction off: %s", buf.String())
	}
}

func TestHandler_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(WithRequestID(context.Background(), "req-42"), "op")
	defer span.End()

	logger.InfoContext(ctx, "with context")

	m := decodeLine(t, &buf)
	if m["request_id"] != "req-42" {
		t.Errorf("request_id = %v", m["request_id"])
	}
	if m["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", m["trace_id"], span.SpanContext().TraceID())
	}
	if _, ok := m["span_id"]; !ok {
		t.Error("span_id missing")
	}
}

func TestHandler_WithAttrsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Redact: true, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.With("authorization", "Bearer abcdef123456").Info("x")

	if strings.Contains(buf.String(), "abcdef123456") {
		t.Errorf("With attribute not redacted: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
