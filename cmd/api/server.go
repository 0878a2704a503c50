package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/mentorfeed/internal/api"
	"github.com/onnwee/mentorfeed/internal/auth"
	"github.com/onnwee/mentorfeed/internal/middleware"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

// server holds everything the HTTP handler tree needs.
type server struct {
	Feed   *api.FeedHandlers
	Health *api.HealthHandlers
	JWT    *auth.JWTService

	// RateLimitStore may be nil to disable feed rate limiting.
	RateLimitStore middleware.RateLimitStore
	RateLimit      middleware.RateLimitConfig

	Metrics          *middleware.Metrics
	Registry         *prometheus.Registry
	BusinessRegistry *prometheus.Registry

	Logger *slog.Logger
}

// newHandler builds the route table and wraps it as
// RequestID -> Tracing -> Logging -> HTTPMetrics -> mux.
// Feed routes additionally run OptionalIdentity -> RateLimiter so limits
// key on the authenticated profile when there is one.
func newHandler(s server) http.Handler {
	mux := http.NewServeMux()

	feedRoute := func(endpoint string, h http.HandlerFunc) http.Handler {
		limited := middleware.RateLimiter(s.RateLimitStore, s.RateLimit, middleware.IdentityKeyFunc, s.Metrics, endpoint)(h)
		return auth.OptionalIdentity(s.JWT, s.Logger)(limited)
	}
	mux.Handle("/feed/mentors", feedRoute("/feed/mentors", s.Feed.MentorsFeed))
	mux.Handle("/feed/users", feedRoute("/feed/users", s.Feed.UsersFeed))

	mux.HandleFunc("/health", s.Health.Health)
	mux.HandleFunc("/ready", s.Health.Ready)

	mux.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/metrics/business", promhttp.HandlerFor(s.BusinessRegistry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
	})

	var handler http.Handler = mux
	handler = middleware.HTTPMetrics(s.Metrics)(handler)
	handler = middleware.Logging(s.Logger)(handler)
	handler = middleware.Tracing(tracing.ServiceName)(handler)
	return middleware.RequestID(handler)
}
