// Package storage defines the gateway the rest of the application persists
// accounts, recurring transactions and settings through, and provides its SQL
// implementation.
package storage

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jc9677/budget-app-2/internal/core"
)

// ErrNotFound is returned when an id does not match any stored record.
var ErrNotFound = errors.New("not found")

// SettingCategories is the settings key holding user-added categories as a JSON array.
const SettingCategories = "categories"

// Ports for persistence adapters.
type (
	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		GetAccount(ctx context.Context, id string) (core.Account, error)
		// AddAccount stores a new account and returns its id. An empty ID is assigned.
		AddAccount(ctx context.Context, a core.Account) (string, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, id string) error
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		AddTransaction(ctx context.Context, t core.Transaction) (string, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error)
		// DeleteTransactionsByAccount removes every rule of an account and returns how many were removed.
		DeleteTransactionsByAccount(ctx context.Context, accountID string) (int, error)
	}

	SettingsStore interface {
		// GetSetting returns the value for key and whether it exists.
		GetSetting(ctx context.Context, key string) (string, bool, error)
		PutSetting(ctx context.Context, key, value string) error
	}

	// Gateway is the full persistence surface.
	Gateway interface {
		AccountStore
		TransactionStore
		SettingsStore
		// DeleteAllData clears accounts and transactions. Settings survive.
		DeleteAllData(ctx context.Context) error
		// ReplaceAll atomically swaps every account and transaction for the
		// given ones, keeping their ids. On error nothing has changed.
		ReplaceAll(ctx context.Context, accounts []core.Account, txs []core.Transaction) error
		Ping(ctx context.Context) error
		Close() error
	}

	// CascadeDeleter is implemented by gateways that can delete an account
	// together with its rules atomically.
	CascadeDeleter interface {
		DeleteAccountCascade(ctx context.Context, id string) (int, error)
	}
)

// DeleteAccountCascade deletes an account and every rule referencing it,
// returning the number of rules removed. Gateways implementing CascadeDeleter
// do it atomically; otherwise rules are removed first, then the account.
func DeleteAccountCascade(ctx context.Context, gw Gateway, id string) (int, error) {
	if cd, ok := gw.(CascadeDeleter); ok {
		return cd.DeleteAccountCascade(ctx, id)
	}
	if _, err := gw.GetAccount(ctx, id); err != nil {
		return 0, err
	}
	n, err := gw.DeleteTransactionsByAccount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete account transactions: %w", err)
	}
	if err := gw.DeleteAccount(ctx, id); err != nil {
		return n, fmt.Errorf("delete account: %w", err)
	}
	return n, nil
}

// LoadSnapshot reads accounts and rules concurrently. There is no cross-call
// consistency: an edit landing between the two reads is seen by one list only.
func LoadSnapshot(ctx context.Context, gw Gateway) (*core.Snapshot, error) {
	var snap core.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := gw.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		snap.Accounts = accounts
		return nil
	})
	g.Go(func() error {
		txs, err := gw.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if snap.Accounts == nil {
		snap.Accounts = []core.Account{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	return &snap, nil
}
