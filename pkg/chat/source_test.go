package chat

import (
	"net/http/httptest"
	"testing"
)

func TestSourceKey(t *testing.T) {
	tests := []struct {
		name       string
		trust      bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:    "first forwarded entry",
			trust:   true,
			headers: map[string]string{"X-Forwarded-For": " 198.51.100.2 , 10.0.0.1"},
			want:    "198.51.100.2",
		},
		{
			name:    "real ip fallback",
			trust:   true,
			headers: map[string]string{"X-Real-IP": "198.51.100.3"},
			want:    "198.51.100.3",
		},
		{
			name:    "empty forwarded falls through",
			trust:   true,
			headers: map[string]string{"X-Forwarded-For": " ,10.0.0.1", "X-Real-IP": "198.51.100.4"},
			want:    "198.51.100.4",
		},
		{
			name:  "unknown",
			trust: true,
			want:  UnknownSource,
		},
		{
			name:       "untrusted ignores headers",
			trust:      false,
			remoteAddr: "192.0.2.10:53211",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.2"},
			want:       "192.0.2.10",
		},
		{
			name:       "untrusted ipv6",
			trust:      false,
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/chat", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := SourceKey(req, tt.trust); got != tt.want {
				t.Errorf("SourceKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
