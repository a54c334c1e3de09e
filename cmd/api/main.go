// Package main is the entrypoint for the Costboard API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/penshort/costboard/internal/analytics"
	"github.com/penshort/costboard/internal/cache"
	"github.com/penshort/costboard/internal/config"
	"github.com/penshort/costboard/internal/costmodel"
	"github.com/penshort/costboard/internal/handler"
	"github.com/penshort/costboard/internal/metrics"
	"github.com/penshort/costboard/internal/server"
	"github.com/penshort/costboard/internal/tracking"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	defaults, err := cfg.DefaultInputs()
	if err != nil {
		logger.Error("invalid default controls", "error", err)
		os.Exit(1)
	}
	agg := costmodel.NewAggregator(costmodel.DefaultCatalog(), costmodel.DefaultProration())
	recorder := metrics.NewInMemory()

	trackingOpts := []tracking.Option{
		tracking.WithMetrics(recorder),
		tracking.WithLogger(logger),
	}

	// Redis is optional. Without it each instance keeps only its memo.
	var readiness handler.HealthChecker
	var redisCache *cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		readiness = redisCache
		trackingOpts = append(trackingOpts, tracking.WithSnapshotStore(redisCache))
		logger.Info("connected to Redis")
	}

	client, err := tracking.NewClient(tracking.Config{
		BaseURL:        cfg.TrackingURL,
		HealthTimeout:  cfg.TrackingHealthTimeout,
		RequestTimeout: cfg.TrackingRequestTimeout,
		HealthTTL:      cfg.HealthTTL,
		PublicURLTTL:   cfg.PublicURLTTL,
		SnapshotTTL:    cfg.SnapshotTTL,
	}, trackingOpts...)
	if err != nil {
		logger.Error("invalid tracking service configuration", "error", err)
		os.Exit(1)
	}

	svc := analytics.NewService(client, logger, recorder)

	router := server.NewRouter(server.Handlers{
		Root:      handler.New(),
		Health:    handler.NewHealthHandler(readiness, client),
		Metrics:   handler.NewMetricsHandler(recorder),
		Costs:     handler.NewCostHandler(agg, defaults, logger),
		Analytics: handler.NewAnalyticsHandler(svc, logger),
	}, server.RouterOptions{
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		IsDevelopment:      cfg.IsDevelopment(),
	}, logger)

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if redisCache != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return redisCache.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"tracking_url", redactURL(cfg.TrackingURL),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			username = "redacted"
		}
		parsed.User = url.User(username)
	}

	return parsed.String()
}

// sanitizeError replaces every secret URL in the error text with its
// redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}
	return msg
}
