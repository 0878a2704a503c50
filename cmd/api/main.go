// Package main is the entry point for the feed API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/mentorfeed/internal/api"
	"github.com/onnwee/mentorfeed/internal/auth"
	"github.com/onnwee/mentorfeed/internal/config"
	"github.com/onnwee/mentorfeed/internal/db"
	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/health"
	"github.com/onnwee/mentorfeed/internal/middleware"
	"github.com/onnwee/mentorfeed/internal/oracle"
	"github.com/onnwee/mentorfeed/internal/profile"
	"github.com/onnwee/mentorfeed/internal/rankcache"
	"github.com/onnwee/mentorfeed/internal/stats"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "optional YAML config file; environment variables take precedence")
	flag.Parse()

	if *help {
		fmt.Println("Mentor Feed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := make([]any, 0, 2*len(cfg.LogSummary()))
	for k, v := range cfg.LogSummary() {
		summary = append(summary, k, v)
	}
	logger.Info("configuration loaded", summary...)

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  tracing.ServiceName,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		Insecure:     cfg.TracingInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	database, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer database.Close()
	repo := profile.NewPostgresRepository(database, logger)

	checkers := map[string]health.Checker{"database": health.NewDBChecker(database)}

	httpMetrics := middleware.NewMetrics()
	feedMetrics := feed.NewMetrics()

	var (
		store     rankcache.Store
		rateStore middleware.RateLimitStore
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		store = rankcache.NewRedisStore(client)
		rateStore = middleware.NewRedisRateLimitStore(client, httpMetrics, logger)
		checkers["redis"] = health.NewRedisChecker(client)
	} else {
		logger.Warn("REDIS_URL not set, using in-process feed cache and rate limiter")
		store = rankcache.NewMemoryStore(cfg.FeedCacheMemorySize, cfg.FeedCacheTTL)
		mem := middleware.NewInMemoryRateLimitStore()
		go mem.RunCleanup(ctx, time.Minute)
		rateStore = mem
	}
	cache := rankcache.New(store, logger, feedMetrics)

	ranker, err := newRanker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if ranker != nil {
		logger.Info("relevance oracle configured", "provider", ranker.Name())
	} else {
		logger.Info("relevance oracle disabled, feeds use source order")
	}

	newComposer := func(prefix string) *feed.Composer {
		return feed.NewComposer(ranker, cache,
			feed.WithTTL(cfg.FeedCacheTTL),
			feed.WithOracleTimeout(cfg.OracleTimeout),
			feed.WithKeyPrefix(prefix),
			feed.WithLogger(logger),
			feed.WithObserver(feedMetrics),
		)
	}

	avatars, err := newAvatarResolver(cfg)
	if err != nil {
		return err
	}
	hydrator := profile.NewHydrator(repo, avatars, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := httpMetrics.Register(registry); err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}
	if err := feedMetrics.Register(registry); err != nil {
		return fmt.Errorf("register feed metrics: %w", err)
	}
	business := stats.NewCollector(repo, logger)
	registry.MustRegister(business)
	businessRegistry := prometheus.NewRegistry()
	businessRegistry.MustRegister(business)

	handler := newHandler(server{
		Feed:             api.NewFeedHandlers(newComposer("mentors"), newComposer("users"), repo, hydrator, logger),
		Health:           api.NewHealthHandlers(checkers, logger),
		JWT:              auth.NewJWTService(cfg.JWTSecret, cfg.JWTSecretPrevious),
		RateLimitStore:   rateStore,
		RateLimit:        middleware.FeedLimit(cfg.RateLimitFeedPerMinute),
		Metrics:          httpMetrics,
		Registry:         registry,
		BusinessRegistry: businessRegistry,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newRanker builds the configured oracle client. Concurrent identical
// requests share one oracle call. It returns a nil Ranker for the none
// provider, which leaves the composers unranked and uncached.
func newRanker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (oracle.Ranker, error) {
	var r oracle.Ranker
	switch cfg.OracleProvider {
	case config.OracleHTTP:
		r = oracle.NewHTTPRanker(cfg.OracleURL, cfg.OracleTimeout, logger, nil)
	case config.OracleBedrock:
		b, err := oracle.NewBedrockRanker(ctx, cfg.BedrockRegion, cfg.BedrockModelID, logger)
		if err != nil {
			return nil, err
		}
		r = b
	default:
		return nil, nil
	}
	return oracle.NewCoalescing(r), nil
}

func newAvatarResolver(cfg *config.Config) (profile.AvatarResolver, error) {
	if !cfg.R2Enabled() {
		return profile.BaseURLResolver{Base: cfg.AvatarBaseURL}, nil
	}
	r, err := profile.NewR2AvatarResolver(profile.R2Config{
		BucketName:      cfg.R2BucketName,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Endpoint:        cfg.R2Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}
	return r, nil
}
