// Package middleware provides HTTP middleware components for the feed API.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// annotations carries per-request fields that inner handlers report back to
// the logging middleware through the request context.
type annotations struct {
	mu        sync.Mutex
	errorCode string
	requester string
}

type annotationsKey struct{}

func annotationsFrom(ctx context.Context) *annotations {
	a, _ := ctx.Value(annotationsKey{}).(*annotations)
	return a
}

// SetErrorCode records the API error code for the current request's log line.
// It is a no-op outside the Logging middleware.
func SetErrorCode(ctx context.Context, code string) {
	if a := annotationsFrom(ctx); a != nil {
		a.mu.Lock()
		a.errorCode = code
		a.mu.Unlock()
	}
}

// SetRequester records who made the request, e.g. "user:10".
func SetRequester(ctx context.Context, requester string) {
	if a := annotationsFrom(ctx); a != nil {
		a.mu.Lock()
		a.requester = requester
		a.mu.Unlock()
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

// WriteHeader records only the first status, as net/http does.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// NewLogger creates an slog.Logger based on the environment.
// Production logs JSON at info level; everything else logs text at debug.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

// Logging logs one structured line per request with method, path, status,
// latency, size, request and trace IDs, the requester and the error code.
// 5xx responses log at error level and 4xx at warn.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ann := &annotations{}
			r = r.WithContext(context.WithValue(r.Context(), annotationsKey{}, ann))
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.Int("size", rw.size),
			}
			if id := GetRequestID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if traceID := GetTraceID(r); traceID != "" {
				attrs = append(attrs, slog.String("trace_id", traceID))
			}

			ann.mu.Lock()
			if ann.requester != "" {
				attrs = append(attrs, slog.String("requester", ann.requester))
			}
			if rw.statusCode >= 400 && ann.errorCode != "" {
				attrs = append(attrs, slog.String("error_code", ann.errorCode))
			}
			ann.mu.Unlock()

			level := slog.LevelInfo
			switch {
			case rw.statusCode >= 500:
				level = slog.LevelError
			case rw.statusCode >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}
