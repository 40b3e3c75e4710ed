package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jc9677/budget-app-2/internal/adapters"
	"github.com/jc9677/budget-app-2/internal/backend"
	"github.com/jc9677/budget-app-2/internal/cli"
	"github.com/jc9677/budget-app-2/internal/events"
	apphttp "github.com/jc9677/budget-app-2/internal/http"
	applog "github.com/jc9677/budget-app-2/internal/log"
	"github.com/jc9677/budget-app-2/internal/services"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	ctx := context.Background()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	storeRes, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	eventsRes, err := factory.CreateEvents(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize events", "error", err, "events", cfg.EventsBackend)
		_ = storeRes.Cleanup()
		os.Exit(1)
	}

	forecastSvc := services.NewForecastService(storeRes.Store, cfg.MaxOccurrencesPerRule, cfg.ForecastCacheTTL)
	hub := apphttp.NewHub()

	// Cache invalidation runs first so a client reacting to a websocket
	// event never reads a stale forecast.
	publisher := events.Fanout{forecastSvc.Publisher(), hub, eventsRes.Publisher}
	gw := adapters.NewEventedGateway(storeRes.Store, publisher)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Budget:   services.NewBudgetService(gw, cfg.MaxOccurrencesPerRule),
		Forecast: forecastSvc,
		Transfer: services.NewTransferService(gw, publisher),
		Store:    gw,
		Hub:      hub,
	}, apphttp.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
		HorizonDays:    cfg.ForecastHorizonDays,
		Logger:         logger.WithComponent(applog.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger.Slog(), 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := eventsRes.Cleanup(); err != nil {
			logger.Warn("Failed to close events transport", "error", err)
		}
		if err := storeRes.Cleanup(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	})

	go func() {
		logger.Info("Starting budget server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", cfg.EventsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
