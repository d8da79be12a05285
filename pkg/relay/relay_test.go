package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingTransport struct {
	calls atomic.Int32
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return nil, errors.New("unexpected network call")
}

type recordingObserver struct {
	mu    sync.Mutex
	kinds []string
}

func (o *recordingObserver) ObserveUpstream(_ time.Duration, kind string) {
	o.mu.Lock()
	o.kinds = append(o.kinds, kind)
	o.mu.Unlock()
}

func newUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSend_MissingConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		missing []string
	}{
		{name: "nothing", cfg: Config{}, missing: []string{"url", "api_key"}},
		{name: "no url", cfg: Config{APIKey: "k"}, missing: []string{"url"}},
		{name: "no key", cfg: Config{URL: "http://upstream.invalid"}, missing: []string{"api_key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &countingTransport{}
			c := New(tt.cfg, WithHTTPClient(&http.Client{Transport: transport}))

			_, err := c.Send(context.Background(), "how do I enable proxy access")

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if len(cfgErr.Missing) != len(tt.missing) {
				t.Errorf("Missing = %v, want %v", cfgErr.Missing, tt.missing)
			}
			if n := transport.calls.Load(); n != 0 {
				t.Errorf("expected no network calls, got %d", n)
			}
			if c.Configured() {
				t.Error("Configured() should be false")
			}
		})
	}
}

func TestSend_ExtractsReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "openai choices", body: `{"choices":[{"message":{"content":"X"}}]}`, want: "X"},
		{name: "reply field", body: `{"reply":"Y"}`, want: "Y"},
		{name: "empty body", body: ``, want: NoReply},
		{name: "empty object", body: `{}`, want: NoReply},
		{name: "unrecognized", body: `{"result":{"text":"Z"}}`, want: NoReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, http.StatusOK, tt.body)
			c := New(Config{URL: srv.URL, APIKey: "test-key"})

			got, err := c.Send(context.Background(), "why can a patient not see their record")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSend_RequestShape(t *testing.T) {
	var (
		gotAuth string
		gotType string
		gotBody CompletionRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"reply":"ok"}`)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, APIKey: "secret-key"})
	if _, err := c.Send(context.Background(), "repeat prescriptions missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if gotBody.Model != DefaultModel {
		t.Errorf("model = %q, want %q", gotBody.Model, DefaultModel)
	}
	if gotBody.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", gotBody.Temperature)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != RoleSystem || gotBody.Messages[0].Content != SystemPrompt {
		t.Errorf("unexpected system message: %+v", gotBody.Messages[0])
	}
	if gotBody.Messages[1].Role != RoleUser || gotBody.Messages[1].Content != "repeat prescriptions missing" {
		t.Errorf("unexpected user message: %+v", gotBody.Messages[1])
	}
}

func TestSend_UpstreamStatus(t *testing.T) {
	srv := newUpstream(t, http.StatusServiceUnavailable, `{"error":"overloaded"}`)
	obs := &recordingObserver{}
	c := New(Config{URL: srv.URL, APIKey: "k"}, WithObserver(obs))

	_, err := c.Send(context.Background(), "question")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if upErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", upErr.StatusCode)
	}
	if upErr.Body != `{"error":"overloaded"}` {
		t.Errorf("Body = %q", upErr.Body)
	}
	if len(obs.kinds) != 1 || obs.kinds[0] != "upstream" {
		t.Errorf("observed kinds = %v", obs.kinds)
	}
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})

	_, err := c.Send(context.Background(), "question")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if !upErr.Timeout() || upErr.Body != TimeoutBody {
		t.Errorf("expected timeout error, got %+v", upErr)
	}
	if Kind(err) != "timeout" {
		t.Errorf("Kind = %q, want timeout", Kind(err))
	}
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{URL: url, APIKey: "k"})
	_, err := c.Send(context.Background(), "question")

	var trErr *TransportError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if trErr.Unwrap() == nil {
		t.Error("expected wrapped cause")
	}
}

func TestSend_CallerCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	c := New(Config{URL: srv.URL, APIKey: "k", Timeout: 5 * time.Second})
	_, err := c.Send(ctx, "question")

	if Kind(err) != "transport" {
		t.Errorf("expected transport error when the caller gives up, got %T: %v", err, err)
	}
}
