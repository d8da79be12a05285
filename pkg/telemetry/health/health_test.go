package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestNew(t *testing.T) {
	if got := New(0).checkTimeout; got != 5*time.Second {
		t.Errorf("default timeout = %v, want 5s", got)
	}
	if got := New(time.Second).checkTimeout; got != time.Second {
		t.Errorf("timeout = %v, want 1s", got)
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("upstream", func(context.Context) error { return nil })
	checker.RegisterCheck("limiter_store", func(context.Context) error { return nil }, NonCritical())

	if got := checker.ListChecks(); !reflect.DeepEqual(got, []string{"limiter_store", "upstream"}) {
		t.Errorf("ListChecks() = %v", got)
	}

	checker.UnregisterCheck("upstream")
	if got := checker.ListChecks(); len(got) != 1 {
		t.Errorf("expected 1 check after unregister, got %v", got)
	}
}

func TestCheckReadiness(t *testing.T) {
	fail := func(context.Context) error { return errors.New("down") }
	ok := func(context.Context) error { return nil }

	tests := []struct {
		name     string
		register func(*Checker)
		want     string
	}{
		{
			name:     "no checks",
			register: func(*Checker) {},
			want:     StatusReady,
		},
		{
			name: "all ok",
			register: func(c *Checker) {
				c.RegisterCheck("a", ok)
				c.RegisterCheck("b", ok)
			},
			want: StatusReady,
		},
		{
			name: "non-critical failure",
			register: func(c *Checker) {
				c.RegisterCheck("a", ok)
				c.RegisterCheck("b", fail, NonCritical())
			},
			want: StatusDegraded,
		},
		{
			name: "critical failure",
			register: func(c *Checker) {
				c.RegisterCheck("a", fail)
				c.RegisterCheck("b", fail, NonCritical())
			},
			want: StatusUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			tt.register(checker)

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("status = %q, want %q", status.Status, tt.want)
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("expected timeout result, got %+v", result)
	}
	if status.Status != StatusUnavailable {
		t.Errorf("status = %q, want unavailable", status.Status)
	}
}

func TestPingCheck(t *testing.T) {
	if err := PingCheck(fakePinger{})(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := PingCheck(fakePinger{err: errors.New("connection refused")})(context.Background())
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected wrapped ping error, got %v", err)
	}
}

func TestConfiguredCheck(t *testing.T) {
	missing := []string{"AI_API_URL", "AI_API_KEY"}
	check := ConfiguredCheck(func() []string { return missing })

	err := check(context.Background())
	if err == nil || err.Error() != "not configured: missing AI_API_URL, AI_API_KEY" {
		t.Errorf("unexpected error: %v", err)
	}

	missing = nil
	if err := check(context.Background()); err != nil {
		t.Errorf("expected nil once configured, got %v", err)
	}
}

func TestLivenessHandler(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("upstream", func(context.Context) error { return errors.New("down") })

	w := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200 regardless of checks", w.Code)
	}

	var body HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != StatusOK {
		t.Errorf("body status = %q", body.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		check    CheckFunc
		opts     []CheckOption
		wantCode int
	}{
		{name: "ready", check: func(context.Context) error { return nil }, wantCode: http.StatusOK},
		{name: "degraded", check: func(context.Context) error { return errors.New("x") }, opts: []CheckOption{NonCritical()}, wantCode: http.StatusOK},
		{name: "unavailable", check: func(context.Context) error { return errors.New("x") }, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			checker.RegisterCheck("limiter_store", tt.check, tt.opts...)

			w := httptest.NewRecorder()
			checker.ReadinessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if w.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	checker := New(time.Second)

	for name, h := range map[string]http.HandlerFunc{
		"health":  checker.LivenessHandler(),
		"ready":   checker.ReadinessHandler(),
		"version": VersionHandler("v1", "abc", "now"),
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want 405", name, w.Code)
		}
	}
}

func TestHandlers_Head(t *testing.T) {
	w := httptest.NewRecorder()
	New(time.Second).LivenessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/health", nil))

	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD: status %d, body %q", w.Code, w.Body.String())
	}
}

func TestVersionHandler(t *testing.T) {
	w := httptest.NewRecorder()
	VersionHandler("v1.2.3", "abc123", "2026-01-01").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "v1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
