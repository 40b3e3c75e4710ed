package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/forecast"
	"github.com/jc9677/budget-app-2/internal/storage"
)

var (
	// ErrOverrideUnsupported is returned for edits scoped to a single occurrence:
	// only rule-level edits are persisted.
	ErrOverrideUnsupported = errors.New("editing a single occurrence is not supported")
	ErrInvalidScope        = errors.New("invalid edit scope")
	ErrNoOccurrence        = errors.New("rule has no occurrence on that date")
)

// EditScope selects what an occurrence edit applies to.
type EditScope string

const (
	ScopeSingle EditScope = "single"
	ScopeFuture EditScope = "future"
)

func ParseScope(s string) (EditScope, error) {
	switch EditScope(s) {
	case "", ScopeSingle:
		return ScopeSingle, nil
	case ScopeFuture:
		return ScopeFuture, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// OccurrencePatch holds the fields an occurrence edit may change. Nil fields are kept.
type OccurrencePatch struct {
	Amount   *decimal.Decimal
	Type     *core.TxType
	Category *string
}

// OccurrenceView is an occurrence resolved to its account's display name.
type OccurrenceView struct {
	core.Occurrence
	AccountName string
}

// BudgetService validates and persists accounts, rules and categories.
type BudgetService struct {
	store storage.Gateway
	limit int
}

func NewBudgetService(store storage.Gateway, maxOccurrencesPerRule int) *BudgetService {
	return &BudgetService{store: store, limit: maxOccurrencesPerRule}
}

func (s *BudgetService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *BudgetService) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// CreateAccount validates a and stores it under a new id.
func (s *BudgetService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = ""
	a.Name = sanitizeText(a.Name)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	id, err := s.store.AddAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("add account: %w", err)
	}
	a.ID = id
	slog.InfoContext(ctx, "Account created", "id", id)
	return a, nil
}

func (s *BudgetService) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = sanitizeText(a.Name)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

// DeleteAccount removes the account together with its rules and returns how
// many rules were removed.
func (s *BudgetService) DeleteAccount(ctx context.Context, id string) (int, error) {
	n, err := storage.DeleteAccountCascade(ctx, s.store, id)
	if err != nil {
		return 0, fmt.Errorf("delete account: %w", err)
	}
	slog.InfoContext(ctx, "Account deleted", "id", id, "rules_removed", n)
	return n, nil
}

func (s *BudgetService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *BudgetService) ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByAccount(ctx, accountID)
}

func (s *BudgetService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// CreateTransaction validates t and stores it. The account must exist.
func (s *BudgetService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = ""
	if err := s.prepare(ctx, &t); err != nil {
		return core.Transaction{}, err
	}
	id, err := s.store.AddTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	t.ID = id
	slog.InfoContext(ctx, "Transaction created", "id", id, "account_id", t.AccountID, "frequency", t.Frequency)
	return t, nil
}

func (s *BudgetService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := s.prepare(ctx, &t); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

func (s *BudgetService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *BudgetService) prepare(ctx context.Context, t *core.Transaction) error {
	t.Name = sanitizeText(t.Name)
	t.Category = sanitizeText(t.Category)
	t.Amount = t.Amount.Round(2)
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetAccount(ctx, t.AccountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", core.ErrMissingAccount, t.AccountID)
		}
		return err
	}
	return nil
}

// ListCategories returns the default categories followed by user-added ones.
func (s *BudgetService) ListCategories(ctx context.Context) ([]string, error) {
	set, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}
	return set.Names(), nil
}

// AddCategory adds a custom category and returns the full list. Adding an
// existing category is a no-op.
func (s *BudgetService) AddCategory(ctx context.Context, name string) ([]string, error) {
	name = sanitizeText(name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	custom, err := s.customCategories(ctx)
	if err != nil {
		return nil, err
	}
	set := core.NewCategorySet(core.DefaultCategories, custom)
	if !set.Add(name) {
		return set.Names(), nil
	}

	raw, err := json.Marshal(append(custom, name))
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}
	if err := s.store.PutSetting(ctx, storage.SettingCategories, string(raw)); err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	return set.Names(), nil
}

func (s *BudgetService) categories(ctx context.Context) (*core.CategorySet, error) {
	custom, err := s.customCategories(ctx)
	if err != nil {
		return nil, err
	}
	return core.NewCategorySet(core.DefaultCategories, custom), nil
}

func (s *BudgetService) customCategories(ctx context.Context) ([]string, error) {
	raw, ok, err := s.store.GetSetting(ctx, storage.SettingCategories)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var custom []string
	if err := json.Unmarshal([]byte(raw), &custom); err != nil {
		slog.WarnContext(ctx, "Ignoring malformed categories setting", "error", err)
		return nil, nil
	}
	return custom, nil
}

// ListOccurrences expands every rule inside [from, to]. Only the window is
// expanded; no balances are computed.
func (s *BudgetService) ListOccurrences(ctx context.Context, from, to core.Date) ([]OccurrenceView, error) {
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	snap, err := storage.LoadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(snap.Accounts))
	for _, a := range snap.Accounts {
		names[a.ID] = a.Name
	}

	out := []OccurrenceView{}
	for _, rule := range snap.Transactions {
		if !forecast.IsExpandable(rule) {
			slog.WarnContext(ctx, "Skipping rule with unknown frequency", "id", rule.ID, "frequency", rule.Frequency)
			continue
		}
		occs, truncated := forecast.ExpandLimit(rule, from, to, s.limit)
		if truncated {
			slog.WarnContext(ctx, "Occurrence cap reached", "id", rule.ID, "limit", s.limit)
		}
		for _, o := range occs {
			name, ok := names[o.AccountID]
			if !ok {
				name = forecast.UnknownAccountName(o.AccountID)
			}
			out = append(out, OccurrenceView{Occurrence: o, AccountName: name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// EditOccurrence applies patch to the occurrence of rule baseID on date.
// ScopeFuture rewrites the rule itself, so every occurrence changes.
// ScopeSingle returns ErrOverrideUnsupported.
func (s *BudgetService) EditOccurrence(ctx context.Context, baseID string, date core.Date, patch OccurrencePatch, scope EditScope) (core.Transaction, error) {
	rule, err := s.store.GetTransaction(ctx, baseID)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(forecast.Expand(rule, date, date)) == 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s on %s", ErrNoOccurrence, baseID, date)
	}

	switch scope {
	case ScopeFuture:
	case ScopeSingle:
		return core.Transaction{}, ErrOverrideUnsupported
	default:
		return core.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	if patch.Amount != nil {
		rule.Amount = *patch.Amount
	}
	if patch.Type != nil {
		rule.Type = *patch.Type
	}
	if patch.Category != nil {
		rule.Category = *patch.Category
	}
	return s.UpdateTransaction(ctx, rule)
}
