// Command forecast prints a forecast for the configured store, or for an
// export file given with -snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/jc9677/budget-app-2/internal/backend"
	"github.com/jc9677/budget-app-2/internal/cli"
	"github.com/jc9677/budget-app-2/internal/config"
	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
	apphttp "github.com/jc9677/budget-app-2/internal/http"
	applog "github.com/jc9677/budget-app-2/internal/log"
	"github.com/jc9677/budget-app-2/internal/services"
	"github.com/jc9677/budget-app-2/internal/storage"
	"github.com/jc9677/budget-app-2/internal/storage/memory"
)

func main() {
	var (
		from     = flag.String("from", "", "first day of the window (YYYY-MM-DD), default today")
		to       = flag.String("to", "", "last day of the window (YYYY-MM-DD)")
		mode     = flag.String("mode", string(core.Detailed), "detailed, monthly or annual")
		format   = flag.String("format", "table", "table or json")
		snapshot = flag.String("snapshot", "", "forecast an export file instead of the configured store")
	)
	flag.Parse()

	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentForecast)
	ctx := context.Background()

	query := url.Values{}
	for k, v := range map[string]string{"from": *from, "to": *to, "mode": *mode} {
		if v != "" {
			query.Set(k, v)
		}
	}
	window, err := apphttp.ParseWindow(query, core.Today(), cfg.ForecastHorizonDays)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid window:", err)
		os.Exit(2)
	}
	m, err := apphttp.ParseMode(query)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid mode:", err)
		os.Exit(2)
	}
	if *format != "table" && *format != "json" {
		fmt.Fprintf(os.Stderr, "invalid format %q\n", *format)
		os.Exit(2)
	}

	store, cleanup, err := openStore(ctx, cfg, *snapshot, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}()

	svc := services.NewForecastService(store, cfg.MaxOccurrencesPerRule, 0)
	f, err := svc.ComputeForecast(ctx, window.From, window.To, m)
	if err != nil {
		logger.Error("Failed to compute forecast", "error", err)
		os.Exit(1)
	}

	if *format == "json" {
		err = renderJSON(os.Stdout, f)
	} else {
		err = renderTable(os.Stdout, f)
	}
	if err != nil {
		logger.Error("Failed to write output", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, snapshotPath string, logger *applog.Logger) (storage.Gateway, backend.CleanupFunc, error) {
	if snapshotPath != "" {
		store, err := loadSnapshot(ctx, snapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s store: %w", cfg.DataBackend, err)
	}
	return res.Store, res.Cleanup, nil
}

// loadSnapshot imports an export file into a fresh in-memory store.
func loadSnapshot(ctx context.Context, path string) (*memory.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := exchange.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	store := memory.New()
	report, err := exchange.Import(ctx, store, snap)
	if err != nil {
		return nil, fmt.Errorf("import snapshot %s: %w", path, err)
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Name, s.Reason)
	}
	return store, nil
}
