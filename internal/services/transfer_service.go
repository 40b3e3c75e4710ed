package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/events"
	"github.com/jc9677/budget-app-2/internal/exchange"
	"github.com/jc9677/budget-app-2/internal/storage"
)

// TransferService exports, imports and resets the stored data. Bulk writes go
// to the unwrapped gateway and announce themselves with a single event.
type TransferService struct {
	store     storage.Gateway
	publisher events.Publisher
	now       func() time.Time
}

func NewTransferService(store storage.Gateway, publisher events.Publisher) *TransferService {
	if u, ok := store.(interface{ Unwrap() storage.Gateway }); ok {
		store = u.Unwrap()
	}
	if publisher == nil {
		publisher = events.Nop
	}
	return &TransferService{store: store, publisher: publisher, now: time.Now}
}

func (s *TransferService) Export(ctx context.Context) (exchange.Snapshot, error) {
	return exchange.Export(ctx, s.store, s.now())
}

// Import replaces all accounts and rules with the snapshot contents.
func (s *TransferService) Import(ctx context.Context, snap exchange.Snapshot) (exchange.Report, error) {
	report, err := exchange.Import(ctx, s.store, snap)
	if err != nil {
		if reachedStore(err) {
			// A failed commit leaves the outcome unknown.
			s.announce(ctx, events.DataImported)
		}
		return report, fmt.Errorf("import snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Snapshot imported",
		"accounts", report.AccountsImported,
		"transactions", report.TransactionsImported,
		"skipped", len(report.Skipped))
	s.announce(ctx, events.DataImported)
	return report, nil
}

// Reset deletes every account and rule. Settings are kept.
func (s *TransferService) Reset(ctx context.Context) error {
	if err := s.store.DeleteAllData(ctx); err != nil {
		return fmt.Errorf("delete all data: %w", err)
	}
	slog.InfoContext(ctx, "All data deleted")
	s.announce(ctx, events.DataReset)
	return nil
}

// reachedStore reports whether an import error came from the store rather
// than from rejecting the snapshot up front.
func reachedStore(err error) bool {
	return !errors.Is(err, exchange.ErrUnsupportedVersion) &&
		!errors.Is(err, exchange.ErrMalformedSnapshot) &&
		!core.IsValidationError(err)
}

func (s *TransferService) announce(ctx context.Context, kind events.Kind) {
	if err := s.publisher.Publish(ctx, events.New(kind, "")); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event", "kind", kind, "error", err)
	}
}
