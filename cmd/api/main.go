package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/smsoffice-gateway/internal/cache/redis"
	"github.com/oggyb/smsoffice-gateway/internal/config"
	"github.com/oggyb/smsoffice-gateway/internal/db/gormdb"
	"github.com/oggyb/smsoffice-gateway/internal/handler"
	"github.com/oggyb/smsoffice-gateway/internal/logger"
	dispatchRepo "github.com/oggyb/smsoffice-gateway/internal/repository/gorm/dispatch"
	routes "github.com/oggyb/smsoffice-gateway/internal/router"
	"github.com/oggyb/smsoffice-gateway/internal/scheduler"
	"github.com/oggyb/smsoffice-gateway/internal/server"
	"github.com/oggyb/smsoffice-gateway/internal/service"
	"github.com/oggyb/smsoffice-gateway/smsoffice"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Base context for the whole application lifetime.
	rootCtx := context.Background()

	// Load configuration from environment/.env.
	cfg := config.New()

	log, err := logger.New(cfg.IsDevelopment(), cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q: %v\n", cfg.Log.Level, err)
		os.Exit(1)
	}
	log = log.With().Str("app", cfg.App.Name).Logger()

	// Init cache.
	cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cache.Close()
	if err := cache.Ping(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Init DB.
	db, err := gormdb.New(cfg.PostgresDSN(), gormdb.NewLogger(logger.Component(log, "db")))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect db")
	}

	// Init SMSOffice sender. One pooled client is shared by all requests.
	if cfg.SMSOffice.APIKey == "" || cfg.SMSOffice.MessageTitle == "" {
		log.Warn().Msg("SMSOFFICE_API_KEY or SMSOFFICE_SENDER is empty; the provider will reject sends")
	}
	sender := smsoffice.NewSender(
		cfg.SMSOffice.APIKey,
		cfg.SMSOffice.MessageTitle,
		senderOptions(cfg.SMSOffice)...,
	)

	// Init repository and services.
	repo := dispatchRepo.NewRepository(db)
	smsSvc := service.NewSMSService(
		sender,
		cfg.SMSOffice.MessageTitle,
		repo,
		cache,
		logger.Component(log, "service"),
		cfg.Retention.MaxAge,
		cfg.Idempotency.TTL,
	)

	// Retention
	retention := scheduler.NewSchedulerService(
		smsSvc,
		cfg.Retention.Interval,
		cfg.Retention.Timeout,
		logger.Component(log, "scheduler"),
	)

	// HTTP dependencies & server wiring.
	deps := routes.AppDeps{
		Home: handler.NewHomeHandler(),
		SMS:  handler.NewSMSHandler(smsSvc, retention),
	}

	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)
	srv := server.New(addr, deps, logger.Component(log, "http"))

	// Cancelled on SIGINT/SIGTERM (Ctrl+C, docker stop etc.).
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := retention.Start(); err != nil {
			return fmt.Errorf("start retention: %w", err)
		}

		// Block until we receive a shutdown signal or the server fails.
		<-gctx.Done()
		log.Info().Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := retention.Stop(); err != nil {
			log.Error().Err(err).Msg("retention scheduler did not stop cleanly")
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		log.Info().Msg("HTTP server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("exited with error")
		os.Exit(1)
	}

	log.Info().Msg("shutdown complete")
}

// senderOptions builds the Sender options from config. A non-positive timeout
// keeps the Sender's default client rather than one that never times out.
func senderOptions(cfg config.SMSOfficeConfig) []smsoffice.Option {
	opts := []smsoffice.Option{smsoffice.WithEndpoint(cfg.Endpoint)}
	if cfg.Timeout > 0 {
		opts = append(opts, smsoffice.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return opts
}
