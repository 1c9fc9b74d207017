package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relaykit/core/config"
	"github.com/dmitrymomot/relaykit/core/delivery"
	"github.com/dmitrymomot/relaykit/core/logger"
	"github.com/dmitrymomot/relaykit/core/server"
	"github.com/dmitrymomot/relaykit/core/template"
	"github.com/dmitrymomot/relaykit/httpapi"
	"github.com/dmitrymomot/relaykit/integration/database/pg"
	"github.com/dmitrymomot/relaykit/integration/database/redis"
	"github.com/dmitrymomot/relaykit/pkg/breaker"
	"github.com/dmitrymomot/relaykit/pkg/ratelimiter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With(slog.String("app", cfg.AppName))

	// Init postgres connection, it handles auto-retry and ping inside function
	db, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error("Failed to connect to database", logger.Component("database"), logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	// Run migrations automatically on app start
	if err := pg.Migrate(ctx, db, cfg.DB, log.With("component", "migration")); err != nil {
		log.Error("Failed to migrate database", logger.Component("database.migration"), logger.Error(err))
		os.Exit(1)
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("Failed to connect to redis", logger.Component("redis"), logger.Error(err))
		os.Exit(1)
	}
	defer rdb.Close()

	// SMTP credentials: environment wins, database settings are the fallback
	// so the relay can be reconfigured without a restart.
	source := delivery.Chain(
		delivery.EnvSource(),
		pg.NewSettingsStore(db),
	)

	orch := delivery.New(
		delivery.WithRetryPolicy(cfg.Retry),
		delivery.WithBreaker(breaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown)),
		delivery.WithAttemptLogger(pg.NewDeliveryLogStore(db)),
		delivery.WithLogger(log.With(logger.Component("delivery"))),
	)

	resolver := template.NewResolver(
		pg.NewTemplateStore(db),
		template.WithStrictMode(cfg.StrictTemplates),
		template.WithLogger(log.With(logger.Component("template"))),
	)

	api := httpapi.NewHandler(orch, source, cfg.DefaultFrom,
		httpapi.WithTemplates(resolver),
		httpapi.WithSuppression(redis.NewSuppressionStore(rdb)),
		httpapi.WithRateLimiter(ratelimiter.New()),
		httpapi.WithHealthcheck("postgres", pg.Healthcheck(db)),
		httpapi.WithHealthcheck("redis", redis.Healthcheck(rdb)),
		httpapi.WithLogger(log.With(logger.Component("httpapi"))),
	)

	eg, ctx := errgroup.WithContext(ctx)

	s, err := server.NewFromConfig(cfg.Server, server.WithLogger(log.With(logger.Component("server"))))
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}
	eg.Go(s.Run(ctx, api.Router()))

	if err := eg.Wait(); err != nil {
		log.Error("Failed to run server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Relay stopped")
}
