package tracing

import (
	"context"
	"errors"
	"testing"

	"surgerydesk/relay/pkg/config"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.TracingConfig
		wantErr bool
		enabled bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "disabled", cfg: &config.TracingConfig{Enabled: false}},
		{
			name:    "enabled always",
			cfg:     &config.TracingConfig{Enabled: true, Sampler: SamplerAlways, ServiceName: "test"},
			enabled: true,
		},
		{
			name:    "bad sampler",
			cfg:     &config.TracingConfig{Enabled: true, Sampler: "sometimes"},
			wantErr: true,
		},
		{
			name:    "bad ratio",
			cfg:     &config.TracingConfig{Enabled: true, Sampler: SamplerRatio, SampleRatio: 1.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.cfg, WithExporter(tracetest.NewInMemoryExporter()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer tr.Shutdown(context.Background())

			if tr.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", tr.Enabled(), tt.enabled)
			}
		})
	}
}

func TestTracer_DisabledIsNoop(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}

	ctx, span := tr.Start(context.Background(), "op")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("expected invalid span context from noop tracer")
	}
	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty", TraceID(ctx))
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tr, err := New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		ServiceName: "relay-test",
	}, WithExporter(exp), WithServiceVersion("v9.9.9"))
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Shutdown(context.Background())

	ctx, parent := tr.Start(context.Background(), "chat.handle")
	_, child := tr.Start(ctx, "relay.upstream")
	child.End()
	parent.End()

	if TraceID(ctx) == "" {
		t.Error("expected a trace ID in context")
	}

	if err := tr.provider.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "relay.upstream" || spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Errorf("unexpected span tree: %+v", spans)
	}

	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if string(kv.Key) == "service.version" && kv.Value.AsString() == "v9.9.9" {
			found = true
		}
	}
	if !found {
		t.Error("service.version resource attribute missing")
	}
}

func TestSetError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	SetError(span, nil)
	SetError(span, errors.New("upstream 502"))
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("expected 1 recorded error event, got %d", len(ended[0].Events()))
	}

	var msg string
	for _, kv := range ended[0].Attributes() {
		if string(kv.Key) == AttrErrorMessage {
			msg = kv.Value.AsString()
		}
	}
	if msg != "upstream 502" {
		t.Errorf("error.message = %q", msg)
	}
}

func TestSetStatus(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	_, ok := tp.Tracer("test").Start(context.Background(), "ok")
	SetStatus(ok, nil)
	ok.End()

	_, failed := tp.Tracer("test").Start(context.Background(), "failed")
	SetStatus(failed, errors.New("boom"))
	failed.End()

	ended := sr.Ended()
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("ok span status = %v", ended[0].Status().Code)
	}
	if ended[1].Status().Code != codes.Error || ended[1].Status().Description != "boom" {
		t.Errorf("failed span status = %+v", ended[1].Status())
	}
}
