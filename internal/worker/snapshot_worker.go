package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jc9677/budget-app-2/internal/backup"
	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
)

// SheetMonths is how many calendar months the forecast sheet covers,
// starting with the current one.
const SheetMonths = 12

type (
	Exporter interface {
		Export(ctx context.Context) (exchange.Snapshot, error)
	}

	Forecaster interface {
		ComputeForecast(ctx context.Context, from, to core.Date, mode core.Mode) (core.Forecast, error)
	}

	SheetWriter interface {
		WriteForecast(ctx context.Context, groups []core.PeriodGroup) error
	}
)

// SnapshotWorker writes an export snapshot to the backup sink and refreshes
// the forecast sheet. Either target may be nil.
type SnapshotWorker struct {
	exporter   Exporter
	forecaster Forecaster
	sink       backup.Sink
	sheet      SheetWriter
	now        func() time.Time
}

func NewSnapshotWorker(exporter Exporter, forecaster Forecaster, sink backup.Sink, sheet SheetWriter) *SnapshotWorker {
	return &SnapshotWorker{
		exporter:   exporter,
		forecaster: forecaster,
		sink:       sink,
		sheet:      sheet,
		now:        time.Now,
	}
}

// Run performs one backup and one sheet refresh. A failure in one does not
// prevent the other; both errors are returned.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	var errs []error
	if w.sink != nil {
		if err := w.backup(ctx); err != nil {
			errs = append(errs, fmt.Errorf("backup: %w", err))
		}
	}
	if w.sheet != nil {
		if err := w.refreshSheet(ctx); err != nil {
			errs = append(errs, fmt.Errorf("forecast sheet: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (w *SnapshotWorker) backup(ctx context.Context) error {
	snap, err := w.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	var buf bytes.Buffer
	if err := exchange.Encode(&buf, snap); err != nil {
		return err
	}
	name := backup.ObjectName(snap.ExportDate)
	if err := w.sink.Write(ctx, name, buf.Bytes()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Snapshot written",
		"name", name,
		"sink", w.sink.String(),
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions))
	return nil
}

func (w *SnapshotWorker) refreshSheet(ctx context.Context) error {
	from, to := SheetWindow(core.DateOf(w.now()))
	f, err := w.forecaster.ComputeForecast(ctx, from, to, core.MonthlyMode)
	if err != nil {
		return fmt.Errorf("compute forecast: %w", err)
	}
	return w.sheet.WriteForecast(ctx, f.Groups)
}

// SheetWindow spans SheetMonths whole calendar months starting with today's month.
func SheetWindow(today core.Date) (core.Date, core.Date) {
	from := core.NewDate(today.Year(), today.Month(), 1)
	to := core.Date{Time: from.Time.AddDate(0, SheetMonths, -1)}
	return from, to
}
