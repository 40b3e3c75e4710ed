package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/storage"
)

func TestStoreAccountsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"C", "A", "B"} {
		if _, err := s.AddAccount(ctx, core.Account{ID: name, Name: name}); err != nil {
			t.Fatalf("AddAccount: %v", err)
		}
	}
	if _, err := s.AddAccount(ctx, core.Account{ID: "A", Name: "dup"}); err == nil {
		t.Error("expected duplicate id error")
	}
	if err := s.DeleteAccount(ctx, "A"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	accounts, _ := s.ListAccounts(ctx)
	if len(accounts) != 2 || accounts[0].ID != "C" || accounts[1].ID != "B" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}
	if _, err := s.GetAccount(ctx, "A"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetAccount deleted: got %v, want ErrNotFound", err)
	}
}

func TestStoreCascadeDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.AddAccount(ctx, core.Account{ID: "A", Name: "A"})
	_, _ = s.AddAccount(ctx, core.Account{ID: "B", Name: "B"})
	for i, acc := range []string{"A", "B", "A"} {
		_, _ = s.AddTransaction(ctx, core.Transaction{ID: string(rune('1' + i)), AccountID: acc})
	}

	n, err := storage.DeleteAccountCascade(ctx, s, "A")
	if err != nil || n != 2 {
		t.Fatalf("DeleteAccountCascade = %d, %v; want 2, nil", n, err)
	}
	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].AccountID != "B" {
		t.Fatalf("unexpected remaining transactions: %+v", txs)
	}
	if byB, _ := s.ListTransactionsByAccount(ctx, "B"); len(byB) != 1 {
		t.Errorf("ListTransactionsByAccount(B) = %d, want 1", len(byB))
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	checks := map[string]error{
		"update account":     s.UpdateAccount(ctx, core.Account{ID: "x"}),
		"delete transaction": s.DeleteTransaction(ctx, "x"),
		"update transaction": s.UpdateTransaction(ctx, core.Transaction{ID: "x"}),
	}
	for name, err := range checks {
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("%s: got %v, want ErrNotFound", name, err)
		}
	}
	if _, err := s.DeleteAccountCascade(ctx, "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cascade: got %v, want ErrNotFound", err)
	}
}

func TestNewFromFilesSeedsCategories(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := NewFromFiles(dir)
	if _, ok, _ := s.GetSetting(ctx, storage.SettingCategories); ok {
		t.Fatal("expected no categories setting when seed file is missing")
	}

	content := "# header\nPets\nHobbies\nPets\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	v, ok, _ := s.GetSetting(ctx, storage.SettingCategories)
	if !ok || v != `["Pets","Hobbies"]` {
		t.Errorf("categories setting = %q, %v", v, ok)
	}
}

func TestDeleteAllDataKeepsSettings(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.AddAccount(ctx, core.Account{Name: "A"})
	_ = s.PutSetting(ctx, "k", "v")
	_ = s.DeleteAllData(ctx)

	accounts, _ := s.ListAccounts(ctx)
	if len(accounts) != 0 {
		t.Errorf("accounts not cleared: %+v", accounts)
	}
	if v, ok, _ := s.GetSetting(ctx, "k"); !ok || v != "v" {
		t.Errorf("setting lost: %q %v", v, ok)
	}
}

func TestReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.AddAccount(ctx, core.Account{ID: "old", Name: "Old"}); err != nil {
		t.Fatal(err)
	}

	err := s.ReplaceAll(ctx,
		[]core.Account{{ID: "a1", Name: "Checking"}, {ID: "a1", Name: "Again"}},
		nil)
	if err == nil {
		t.Fatal("ReplaceAll() with duplicate account ids error = nil")
	}
	if _, err := s.GetAccount(ctx, "old"); err != nil {
		t.Errorf("GetAccount(old) after failed ReplaceAll: %v", err)
	}

	rules := []core.Transaction{{ID: "t1", Name: "Rent", AccountID: "a1"}}
	if err := s.ReplaceAll(ctx, []core.Account{{ID: "a1", Name: "Checking"}}, rules); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if _, err := s.GetAccount(ctx, "old"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetAccount(old) error = %v, want ErrNotFound", err)
	}
	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].ID != "t1" {
		t.Errorf("ListTransactions() = %+v, want [t1]", txs)
	}
}
