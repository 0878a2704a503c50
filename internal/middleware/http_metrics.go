package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// routeLabels bounds the path label to the routes this service serves.
var routeLabels = map[string]bool{
	"/feed/mentors":     true,
	"/feed/users":       true,
	"/metrics":          true,
	"/metrics/business": true,
}

// normalizePath maps unknown paths to "other" so scanners cannot grow the
// label set.
func normalizePath(path string) string {
	if routeLabels[path] {
		return path
	}
	return "other"
}

// HTTPMetrics records duration, count and response size per request.
// /health and /ready are not recorded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(rw.statusCode),
				time.Since(start).Seconds(),
				int64(rw.size),
			)
		})
	}
}
