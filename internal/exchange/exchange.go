// Package exchange reads and writes the portable snapshot format
//
//	{ "version": "1.0", "exportDate": "...", "accounts": [...], "transactions": [...] }
//
// and imports it into a storage gateway, remapping account ids.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/storage"
)

// FormatVersion is the only snapshot version this package reads and writes.
const FormatVersion = "1.0"

var (
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrMalformedSnapshot  = errors.New("malformed snapshot")
)

type Snapshot struct {
	Version      string              `json:"version"`
	ExportDate   time.Time           `json:"exportDate"`
	Accounts     []AccountRecord     `json:"accounts"`
	Transactions []TransactionRecord `json:"transactions"`
}

// Skip describes a transaction left out of an import.
type Skip struct {
	TransactionID ID     `json:"transactionId"`
	Name          string `json:"name"`
	Reason        string `json:"reason"`
}

// Report summarizes an import.
type Report struct {
	AccountsImported     int    `json:"accountsImported"`
	TransactionsImported int    `json:"transactionsImported"`
	Skipped              []Skip `json:"skipped"`
}

// Export reads the full state of gw into a snapshot stamped with now.
func Export(ctx context.Context, gw storage.Gateway, now time.Time) (Snapshot, error) {
	snap, err := storage.LoadSnapshot(ctx, gw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return FromCore(snap, now), nil
}

// FromCore converts a resolved snapshot to its wire form.
func FromCore(snap *core.Snapshot, now time.Time) Snapshot {
	out := Snapshot{
		Version:      FormatVersion,
		ExportDate:   now.UTC(),
		Accounts:     make([]AccountRecord, 0, len(snap.Accounts)),
		Transactions: make([]TransactionRecord, 0, len(snap.Transactions)),
	}
	for _, a := range snap.Accounts {
		out.Accounts = append(out.Accounts, AccountToRecord(a))
	}
	for _, t := range snap.Transactions {
		out.Transactions = append(out.Transactions, TransactionToRecord(t))
	}
	return out
}

// Encode writes snap as indented JSON.
func Encode(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode parses and structurally checks a snapshot. Version must be
// FormatVersion and both collections must be present.
func Decode(r io.Reader) (Snapshot, error) {
	var raw struct {
		Version      string               `json:"version"`
		ExportDate   time.Time            `json:"exportDate"`
		Accounts     *[]AccountRecord     `json:"accounts"`
		Transactions *[]TransactionRecord `json:"transactions"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if raw.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw.Version)
	}
	if raw.Accounts == nil || raw.Transactions == nil {
		return Snapshot{}, fmt.Errorf("%w: accounts and transactions are required", ErrMalformedSnapshot)
	}
	return Snapshot{
		Version:      raw.Version,
		ExportDate:   raw.ExportDate,
		Accounts:     *raw.Accounts,
		Transactions: *raw.Transactions,
	}, nil
}

// Import replaces the contents of gw with snap in one ReplaceAll call, so a
// failed import leaves gw unchanged. Accounts get fresh ids and transactions
// are rewritten to them; a transaction whose account is not in the snapshot,
// or which fails validation, is skipped and reported. Two accounts sharing an
// id make the snapshot malformed.
func Import(ctx context.Context, gw storage.Gateway, snap Snapshot) (Report, error) {
	if snap.Version != FormatVersion {
		return Report{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, snap.Version)
	}

	report := Report{Skipped: []Skip{}}
	accounts := make([]core.Account, 0, len(snap.Accounts))
	idMap := make(map[ID]string, len(snap.Accounts))
	for i, r := range snap.Accounts {
		a := r.ToAccount()
		if err := a.Validate(); err != nil {
			return Report{}, fmt.Errorf("account %d (%s): %w", i, r.ID, err)
		}
		if _, dup := idMap[r.ID]; dup {
			return Report{}, fmt.Errorf("%w: duplicate account id %q", ErrMalformedSnapshot, string(r.ID))
		}
		a.ID = uuid.NewString()
		idMap[r.ID] = a.ID
		accounts = append(accounts, a)
	}

	txs := make([]core.Transaction, 0, len(snap.Transactions))
	for _, r := range snap.Transactions {
		newAccountID, ok := idMap[r.AccountID]
		if !ok {
			report.Skipped = append(report.Skipped, Skip{
				TransactionID: r.ID, Name: r.Name,
				Reason: fmt.Sprintf("account %q not in snapshot", string(r.AccountID)),
			})
			continue
		}
		t, err := r.ToTransaction()
		if err == nil {
			t.ID = uuid.NewString()
			t.AccountID = newAccountID
			err = t.Validate()
		}
		if err != nil {
			report.Skipped = append(report.Skipped, Skip{TransactionID: r.ID, Name: r.Name, Reason: err.Error()})
			continue
		}
		txs = append(txs, t)
	}

	if err := gw.ReplaceAll(ctx, accounts, txs); err != nil {
		return Report{Skipped: []Skip{}}, fmt.Errorf("replace data: %w", err)
	}
	report.AccountsImported = len(accounts)
	report.TransactionsImported = len(txs)

	if len(report.Skipped) > 0 {
		slog.Warn("Import skipped transactions", "count", len(report.Skipped))
	}
	return report, nil
}
