package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

const testTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func installPropagator(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestExtractInject_RoundTrip(t *testing.T) {
	installPropagator(t)

	in := http.Header{}
	in.Set("traceparent", testTraceParent)

	ctx := Extract(context.Background(), in)
	sc := trace.SpanContextFromContext(ctx)
	if sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("extracted trace ID = %s", sc.TraceID())
	}

	out := http.Header{}
	Inject(ctx, out)
	if out.Get("traceparent") != testTraceParent {
		t.Errorf("injected traceparent = %q, want %q", out.Get("traceparent"), testTraceParent)
	}
}

func TestExtract_NoHeader(t *testing.T) {
	installPropagator(t)

	ctx := Extract(context.Background(), http.Header{})
	if trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("expected no span context without traceparent")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	installPropagator(t)
	sr := installRecorder(t)

	var innerTrace string
	handler := HTTPMiddleware(func(*http.Request) string { return "/chat" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			innerTrace = TraceID(r.Context())
			w.WriteHeader(http.StatusTooManyRequests)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("traceparent", testTraceParent)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if innerTrace != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("handler saw trace %q, want the incoming trace", innerTrace)
	}
	if w.Header().Get("X-Trace-ID") != innerTrace {
		t.Errorf("X-Trace-ID = %q", w.Header().Get("X-Trace-ID"))
	}

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	span := ended[0]
	if span.Name() != "HTTP POST /chat" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", span.SpanKind())
	}

	var status int64
	for _, kv := range span.Attributes() {
		if string(kv.Key) == AttrHTTPStatusCode {
			status = kv.Value.AsInt64()
		}
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("status attribute = %d", status)
	}
}
