package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPRecorder receives one observation per served request.
type HTTPRecorder interface {
	RecordHTTP(route, method string, status int, duration time.Duration)
}

// MetricsMiddleware reports every request to rec, labelled by router
// pattern rather than raw path.
func MetricsMiddleware(rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			rec.RecordHTTP(RoutePattern(r), r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// RoutePattern returns the chi route pattern matched for r, or "" when
// the request did not reach a chi router or matched no route.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
