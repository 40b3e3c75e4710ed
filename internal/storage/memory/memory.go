// Package memory is an in-process storage.Gateway used for development and tests.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[string]core.Account
	accOrder []string
	txs      map[string]core.Transaction
	txOrder  []string
	settings map[string]string
}

var (
	_ storage.Gateway        = (*Store)(nil)
	_ storage.CascadeDeleter = (*Store)(nil)
)

func New() *Store {
	return &Store{
		accounts: map[string]core.Account{},
		txs:      map[string]core.Transaction{},
		settings: map[string]string{},
	}
}

// NewFromFiles creates a store whose custom categories are seeded from
// base/seed_categories.txt, one per line. Blank lines and # comments are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) > 0 {
		raw, _ := json.Marshal(cats)
		s.settings[storage.SettingCategories] = string(raw)
	}
	return s
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.accOrder))
	for _, id := range s.accOrder {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) AddAccount(_ context.Context, a core.Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := s.accounts[a.ID]; exists {
		return "", fmt.Errorf("account %s already exists", a.ID)
	}
	s.accounts[a.ID] = a
	s.accOrder = append(s.accOrder, a.ID)
	return a.ID, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, storage.ErrNotFound)
	}
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteAccountLocked(id)
}

func (s *Store) deleteAccountLocked(id string) error {
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	delete(s.accounts, id)
	s.accOrder = without(s.accOrder, id)
	return nil
}

func (s *Store) DeleteAccountCascade(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return 0, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	n := s.deleteTransactionsByAccountLocked(id)
	return n, s.deleteAccountLocked(id)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.txOrder))
	for _, id := range s.txOrder {
		out = append(out, s.txs[id])
	}
	return out, nil
}

func (s *Store) ListTransactionsByAccount(_ context.Context, accountID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Transaction{}
	for _, id := range s.txOrder {
		if t := s.txs[id]; t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	return t, nil
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.txs[t.ID]; exists {
		return "", fmt.Errorf("transaction %s already exists", t.ID)
	}
	s.txs[t.ID] = t
	s.txOrder = append(s.txOrder, t.ID)
	return t.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[t.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", t.ID, storage.ErrNotFound)
	}
	s.txs[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	delete(s.txs, id)
	s.txOrder = without(s.txOrder, id)
	return nil
}

func (s *Store) DeleteTransactionsByAccount(_ context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTransactionsByAccountLocked(accountID), nil
}

func (s *Store) deleteTransactionsByAccountLocked(accountID string) int {
	kept := s.txOrder[:0]
	n := 0
	for _, id := range s.txOrder {
		if s.txs[id].AccountID == accountID {
			delete(s.txs, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.txOrder = kept
	return n
}

func (s *Store) DeleteAllData(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = map[string]core.Account{}
	s.accOrder = nil
	s.txs = map[string]core.Transaction{}
	s.txOrder = nil
	return nil
}

// ReplaceAll builds the new contents aside and swaps them in under the lock,
// so a duplicate id leaves the store untouched.
func (s *Store) ReplaceAll(_ context.Context, accounts []core.Account, txs []core.Transaction) error {
	accMap := make(map[string]core.Account, len(accounts))
	accOrder := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.ID == "" {
			return fmt.Errorf("account %q has no id", a.Name)
		}
		if _, exists := accMap[a.ID]; exists {
			return fmt.Errorf("account %s already exists", a.ID)
		}
		accMap[a.ID] = a
		accOrder = append(accOrder, a.ID)
	}
	txMap := make(map[string]core.Transaction, len(txs))
	txOrder := make([]string, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			return fmt.Errorf("transaction %q has no id", t.Name)
		}
		if _, exists := txMap[t.ID]; exists {
			return fmt.Errorf("transaction %s already exists", t.ID)
		}
		txMap[t.ID] = t
		txOrder = append(txOrder, t.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts, s.accOrder = accMap, accOrder
	s.txs, s.txOrder = txMap, txOrder
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *Store) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
