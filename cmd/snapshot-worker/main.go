package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jc9677/budget-app-2/internal/backend"
	"github.com/jc9677/budget-app-2/internal/backup"
	"github.com/jc9677/budget-app-2/internal/cli"
	applog "github.com/jc9677/budget-app-2/internal/log"
	"github.com/jc9677/budget-app-2/internal/services"
	gsheet "github.com/jc9677/budget-app-2/internal/sheets/google"
	"github.com/jc9677/budget-app-2/internal/worker"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	ctx := context.Background()

	logger.Info("Starting snapshot worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	bcfg.WithConsumer = bcfg.Events != backend.NoEvents

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

	var (
		sinks   backup.Multi
		closers []func() error
		sink    backup.Sink
		sheet   worker.SheetWriter
	)
	if cfg.BackupDir != "" {
		sinks = append(sinks, backup.DirSink{Dir: cfg.BackupDir})
	}
	if cfg.BackupGCSBucket != "" {
		gcs, err := backup.NewGCSSink(ctx, cfg.BackupGCSBucket, cfg.BackupGCSPrefix)
		if err != nil {
			logger.Error("Failed to initialize GCS backup sink", "error", err, "bucket", cfg.BackupGCSBucket)
			os.Exit(1)
		}
		sinks = append(sinks, gcs)
		closers = append(closers, gcs.Close)
	}
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = sinks
	}

	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleForecastSheet)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sheet = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if sink == nil && sheet == nil {
		logger.Error("Nothing to do: set BACKUP_DIR, BACKUP_GCS_BUCKET or GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	forecastSvc := services.NewForecastService(storeRes.Store, cfg.MaxOccurrencesPerRule, cfg.ForecastCacheTTL)
	snapshots := worker.NewSnapshotWorker(services.NewTransferService(storeRes.Store, nil), forecastSvc, sink, sheet)

	scheduler := worker.NewScheduler(func(ctx context.Context) error {
		// Another process owns the writes, so every run starts from a fresh read.
		forecastSvc.Invalidate()
		return snapshots.Run(ctx)
	}, worker.SchedulerConfig{
		Interval: cfg.SnapshotInterval,
		Debounce: 2 * time.Second,
	})

	runCtx, done := cli.GracefulShutdown(logger.Slog(), 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduler stop error", "error", err)
		}
		if err := eventsRes.Cleanup(); err != nil {
			logger.Warn("Failed to close events transport", "error", err)
		}
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Warn("Failed to close backup sink", "error", err)
			}
		}
		if err := storeRes.Cleanup(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	})

	if err := scheduler.Start(runCtx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	if eventsRes.Consumer != nil {
		go func() {
			if err := eventsRes.Consumer.Consume(runCtx, scheduler.Handler()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed, relying on the periodic schedule", "error", err)
			}
		}()
	} else {
		logger.Info("No events backend configured, running on the periodic schedule only")
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Snapshot worker stopped")
}
