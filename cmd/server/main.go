package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"orderanalytics/internal/aggregator"
	"orderanalytics/internal/config"
	"orderanalytics/internal/consumer"
	"orderanalytics/internal/dedup"
	"orderanalytics/internal/handlers"
	"orderanalytics/internal/instrumentation"
	"orderanalytics/internal/persistence"
	"orderanalytics/internal/push"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("analytics_service_starting",
		"redis_url", cfg.RedisURL,
		"stream_key", cfg.StreamKey,
		"consumer_group", cfg.ConsumerGroup,
		"http_port", cfg.HTTPPort,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis client shared by the consumer, the dedup gate, and persistence.
	client, err := newRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("redis_connected")

	metrics := instrumentation.NewMetrics()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics_server_starting", "port", cfg.PrometheusPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	store := persistence.New(client, logger)
	gate := dedup.NewRedisGate(client, cfg.DedupTTL, logger)
	engine := aggregator.New(gate, store, logger, metrics)

	// Reload persisted state; a missing or partial snapshot is not fatal.
	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
	snap, err := store.LoadSnapshot(loadCtx)
	loadCancel()
	if err != nil {
		logger.Warn("snapshot_load_failed", "error", err)
	} else if snap != nil {
		engine.Restore(snap)
	}

	hub := push.NewHub(logger, metrics)
	provider := handlers.NewRealtimeProvider(engine, store, logger)

	// Push refresh loop: broadcast current stats to every subscriber on the
	// configured interval, matching the original service's cadence.
	go func() {
		ticker := time.NewTicker(cfg.PushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hub.Broadcast(provider.Stats(ctx))
			}
		}
	}()

	cons, err := consumer.New(client, consumer.Config{
		StreamKey:     cfg.StreamKey,
		ConsumerGroup: cfg.ConsumerGroup,
		ConsumerName:  fmt.Sprintf("analytics-%s", hostname()),
	}, engine.ProcessEvent, logger)
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := cons.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handlers.LoggingMiddleware(logger))

	r.Get("/health", handlers.HealthHandler(store))
	r.Get("/events/stream", handlers.NewStreamHandler(hub, provider, logger).ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(handlers.TimeoutMiddleware(cfg.RequestTimeout, logger))
		r.Get("/metrics/orders", handlers.NewOrderMetricsHandler(engine, logger).ServeHTTP)
		r.Get("/metrics/realtime", handlers.NewRealtimeHandler(provider, logger).ServeHTTP)
		r.Get("/metrics/trends", handlers.NewTrendsHandler(engine, logger).ServeHTTP)
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http_server_listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server_error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("analytics_service_running", "status", "healthy")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown_signal_received", "signal", sig.String())
	case err := <-errChan:
		logger.Error("consumer_error", "error", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	logger.Info("analytics_service_stopped")
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func hostname() string {
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}
