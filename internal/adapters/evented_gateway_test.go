package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/events"
	"github.com/jc9677/budget-app-2/internal/storage"
	"github.com/jc9677/budget-app-2/internal/storage/memory"
)

type recorder struct {
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) kinds() []events.Kind {
	out := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func TestEventedGatewayPublishesAfterMutations(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	gw := NewEventedGateway(memory.New(), rec)

	accID, _ := gw.AddAccount(ctx, core.Account{Name: "A"})
	_ = gw.UpdateAccount(ctx, core.Account{ID: accID, Name: "B"})
	txID, _ := gw.AddTransaction(ctx, core.Transaction{AccountID: accID})
	_ = gw.UpdateTransaction(ctx, core.Transaction{ID: txID, AccountID: accID})
	_ = gw.PutSetting(ctx, storage.SettingCategories, `["Pets"]`)
	_ = gw.PutSetting(ctx, "other", "x")
	if _, err := gw.ListAccounts(ctx); err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	n, err := storage.DeleteAccountCascade(ctx, gw, accID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteAccountCascade = %d, %v", n, err)
	}
	_ = gw.DeleteAllData(ctx)
	_ = gw.ReplaceAll(ctx, []core.Account{{ID: "a", Name: "A"}}, nil)

	want := []events.Kind{
		events.AccountCreated, events.AccountUpdated,
		events.TransactionCreated, events.TransactionUpdated,
		events.CategoryAdded, events.AccountDeleted, events.DataReset, events.DataImported,
	}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if rec.events[0].EntityID != accID {
		t.Errorf("created event entity = %q, want %q", rec.events[0].EntityID, accID)
	}
}

func TestEventedGatewaySkipsFailedWrites(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	gw := NewEventedGateway(memory.New(), rec)

	if err := gw.DeleteTransaction(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("DeleteTransaction = %v, want ErrNotFound", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("no event expected for failed write, got %v", rec.kinds())
	}
}

func TestEventedGatewayIgnoresPublishErrors(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{err: errors.New("broker down")}
	gw := NewEventedGateway(memory.New(), rec)

	if _, err := gw.AddAccount(ctx, core.Account{Name: "A"}); err != nil {
		t.Fatalf("AddAccount should succeed despite publish failure: %v", err)
	}
}
