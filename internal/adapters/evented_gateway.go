package adapters

import (
	"context"
	"log/slog"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/events"
	"github.com/jc9677/budget-app-2/internal/storage"
)

// EventedGateway adapts a storage.Gateway so that every successful mutation
// publishes a change event. Reads pass through unchanged. A failed publish is
// logged and never fails the write that caused it.
type EventedGateway struct {
	storage.Gateway
	publisher events.Publisher
}

var (
	_ storage.Gateway        = (*EventedGateway)(nil)
	_ storage.CascadeDeleter = (*EventedGateway)(nil)
)

func NewEventedGateway(gw storage.Gateway, p events.Publisher) *EventedGateway {
	if p == nil {
		p = events.Nop
	}
	return &EventedGateway{Gateway: gw, publisher: p}
}

func (g *EventedGateway) publish(ctx context.Context, kind events.Kind, id string) {
	if err := g.publisher.Publish(ctx, events.New(kind, id)); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			"kind", kind,
			"entity_id", id,
			"error", err)
	}
}

// AddAccount implements storage.AccountStore
func (g *EventedGateway) AddAccount(ctx context.Context, a core.Account) (string, error) {
	id, err := g.Gateway.AddAccount(ctx, a)
	if err == nil {
		g.publish(ctx, events.AccountCreated, id)
	}
	return id, err
}

// UpdateAccount implements storage.AccountStore
func (g *EventedGateway) UpdateAccount(ctx context.Context, a core.Account) error {
	err := g.Gateway.UpdateAccount(ctx, a)
	if err == nil {
		g.publish(ctx, events.AccountUpdated, a.ID)
	}
	return err
}

// DeleteAccount implements storage.AccountStore
func (g *EventedGateway) DeleteAccount(ctx context.Context, id string) error {
	err := g.Gateway.DeleteAccount(ctx, id)
	if err == nil {
		g.publish(ctx, events.AccountDeleted, id)
	}
	return err
}

// DeleteAccountCascade implements storage.CascadeDeleter, delegating to the
// wrapped gateway so atomic implementations stay atomic.
func (g *EventedGateway) DeleteAccountCascade(ctx context.Context, id string) (int, error) {
	n, err := storage.DeleteAccountCascade(ctx, g.Gateway, id)
	if err == nil {
		g.publish(ctx, events.AccountDeleted, id)
	}
	return n, err
}

// AddTransaction implements storage.TransactionStore
func (g *EventedGateway) AddTransaction(ctx context.Context, t core.Transaction) (string, error) {
	id, err := g.Gateway.AddTransaction(ctx, t)
	if err == nil {
		g.publish(ctx, events.TransactionCreated, id)
	}
	return id, err
}

// UpdateTransaction implements storage.TransactionStore
func (g *EventedGateway) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	err := g.Gateway.UpdateTransaction(ctx, t)
	if err == nil {
		g.publish(ctx, events.TransactionUpdated, t.ID)
	}
	return err
}

// DeleteTransaction implements storage.TransactionStore
func (g *EventedGateway) DeleteTransaction(ctx context.Context, id string) error {
	err := g.Gateway.DeleteTransaction(ctx, id)
	if err == nil {
		g.publish(ctx, events.TransactionDeleted, id)
	}
	return err
}

// DeleteTransactionsByAccount implements storage.TransactionStore
func (g *EventedGateway) DeleteTransactionsByAccount(ctx context.Context, accountID string) (int, error) {
	n, err := g.Gateway.DeleteTransactionsByAccount(ctx, accountID)
	if err == nil && n > 0 {
		g.publish(ctx, events.TransactionDeleted, "")
	}
	return n, err
}

// PutSetting implements storage.SettingsStore
func (g *EventedGateway) PutSetting(ctx context.Context, key, value string) error {
	err := g.Gateway.PutSetting(ctx, key, value)
	if err == nil && key == storage.SettingCategories {
		g.publish(ctx, events.CategoryAdded, "")
	}
	return err
}

func (g *EventedGateway) DeleteAllData(ctx context.Context) error {
	err := g.Gateway.DeleteAllData(ctx)
	if err == nil {
		g.publish(ctx, events.DataReset, "")
	}
	return err
}

func (g *EventedGateway) ReplaceAll(ctx context.Context, accounts []core.Account, txs []core.Transaction) error {
	err := g.Gateway.ReplaceAll(ctx, accounts, txs)
	if err == nil {
		g.publish(ctx, events.DataImported, "")
	}
	return err
}

// Unwrap returns the wrapped gateway, for bulk operations that publish a
// single summary event themselves.
func (g *EventedGateway) Unwrap() storage.Gateway {
	return g.Gateway
}
