package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/exposure-analytics-service/internal/adapter/boundaries"
	"github.com/couchcryptid/exposure-analytics-service/internal/adapter/feed"
	"github.com/couchcryptid/exposure-analytics-service/internal/adapter/httpapi"
	"github.com/couchcryptid/exposure-analytics-service/internal/adapter/hurdat2"
	"github.com/couchcryptid/exposure-analytics-service/internal/config"
	"github.com/couchcryptid/exposure-analytics-service/internal/observability"
	"github.com/couchcryptid/exposure-analytics-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	sessionStore := store.New(logger, metrics)

	boundaryClient := boundaries.NewClient(cfg.CountriesURL, cfg.USStatesURL, cfg.BoundaryTimeout, metrics, logger)
	boundaryProvider := boundaries.NewCachedProvider(boundaryClient, metrics)

	catalog := hurdat2.NewClient(cfg.HurdatAtlanticURL, cfg.HurdatPacificURL, cfg.HurdatTimeout, logger)

	handler := httpapi.NewHandler(sessionStore, boundaryProvider, catalog, logger)
	router := httpapi.NewRouter(handler, cfg.RateLimitRPS)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live hazard feed (feature-flagged via FEED_ENABLED).
	var consumer *feed.Consumer
	if cfg.FeedEnabled {
		consumer = feed.NewConsumer(cfg, sessionStore, metrics, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("feed consumer error", "error", err)
			}
		}()
		logger.Info("hazard feed enabled", "topic", cfg.FeedTopic, "brokers", cfg.FeedBrokers)
	} else {
		logger.Info("hazard feed disabled")
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("feed consumer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
