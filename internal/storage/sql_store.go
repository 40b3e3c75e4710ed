package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jc9677/budget-app-2/internal/core"
)

// SQLStore implements Gateway on database/sql for sqlite and postgres.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var (
	_ Gateway        = (*SQLStore)(nil)
	_ CascadeDeleter = (*SQLStore)(nil)
)

// OpenSQLite opens (creating if needed) the sqlite database at dbPath and migrates it.
func OpenSQLite(dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	s, err := open(DialectSQLite, dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// OpenPostgres connects to the postgres database at dsn and migrates it.
func OpenPostgres(dsn string) (*SQLStore, error) {
	s, err := open(DialectPostgres, dsn)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(25)
	s.db.SetMaxIdleConns(5)
	return s, nil
}

func open(d Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQL store ready", "dialect", d.Name)
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) exec(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const accountColumns = "id, name, balance"

func (s *SQLStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (s *SQLStore) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind("SELECT "+accountColumns+" FROM accounts WHERE id = ?"), id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *SQLStore) AddAccount(ctx context.Context, a core.Account) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := s.insertAccount(ctx, s.db, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *SQLStore) insertAccount(ctx context.Context, q querier, a core.Account) error {
	_, err := s.exec(ctx, q, "INSERT INTO accounts (id, name, balance) VALUES (?, ?, ?)",
		a.ID, a.Name, a.Balance.String())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateAccount(ctx context.Context, a core.Account) error {
	n, err := s.exec(ctx, s.db, "UPDATE accounts SET name = ?, balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		a.Name, a.Balance.String(), a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteAccount(ctx context.Context, id string) error {
	return s.deleteAccount(ctx, s.db, id)
}

func (s *SQLStore) deleteAccount(ctx context.Context, q querier, id string) error {
	n, err := s.exec(ctx, q, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAccountCascade removes the account and its rules in one transaction.
func (s *SQLStore) DeleteAccountCascade(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.exec(ctx, tx, "DELETE FROM transactions WHERE account_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete account transactions: %w", err)
	}
	if err := s.deleteAccount(ctx, tx, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return int(removed), nil
}

const transactionColumns = "id, name, amount, type, frequency, account_id, category, start_date, end_date"

func (s *SQLStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY seq")
}

func (s *SQLStore) ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE account_id = ? ORDER BY seq", accountID)
}

func (s *SQLStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (s *SQLStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind("SELECT "+transactionColumns+" FROM transactions WHERE id = ?"), id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return t, err
}

func (s *SQLStore) AddTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := s.insertTransaction(ctx, s.db, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *SQLStore) insertTransaction(ctx context.Context, q querier, t core.Transaction) error {
	_, err := s.exec(ctx, q,
		"INSERT INTO transactions (id, name, amount, type, frequency, account_id, category, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Name, t.Amount.String(), string(t.Type), string(t.Frequency), t.AccountID, t.Category,
		t.StartDate.String(), nullableDate(t.EndDate))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := s.exec(ctx, s.db,
		"UPDATE transactions SET name = ?, amount = ?, type = ?, frequency = ?, account_id = ?, category = ?, start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		t.Name, t.Amount.String(), string(t.Type), string(t.Frequency), t.AccountID, t.Category,
		t.StartDate.String(), nullableDate(t.EndDate), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteTransaction(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.db, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteTransactionsByAccount(ctx context.Context, accountID string) (int, error) {
	n, err := s.exec(ctx, s.db, "DELETE FROM transactions WHERE account_id = ?", accountID)
	if err != nil {
		return 0, fmt.Errorf("delete account transactions: %w", err)
	}
	return int(n), nil
}

func (s *SQLStore) DeleteAllData(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := clearData(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll clears accounts and transactions and inserts the given ones in
// one transaction.
func (s *SQLStore) ReplaceAll(ctx context.Context, accounts []core.Account, txs []core.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := clearData(ctx, tx); err != nil {
		return err
	}
	for _, a := range accounts {
		if err := s.insertAccount(ctx, tx, a); err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}
	for _, t := range txs {
		if err := s.insertTransaction(ctx, tx, t); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func clearData(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"transactions", "accounts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind("SELECT value FROM settings WHERE key = ?"), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, s.db,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (core.Account, error) {
	var a core.Account
	var balance string
	if err := sc.Scan(&a.ID, &a.Name, &balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("scan account: %w", err)
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return a, fmt.Errorf("parse balance of account %s: %w", a.ID, err)
	}
	a.Balance = d
	return a, nil
}

func scanTransaction(sc scanner) (core.Transaction, error) {
	var t core.Transaction
	var amount, typ, freq, start string
	var end sql.NullString
	if err := sc.Scan(&t.ID, &t.Name, &amount, &typ, &freq, &t.AccountID, &t.Category, &start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return t, fmt.Errorf("parse amount of transaction %s: %w", t.ID, err)
	}
	t.Amount = d
	t.Type = core.TxType(typ)
	t.Frequency = core.Frequency(freq)
	if t.StartDate, err = core.ParseDate(start); err != nil {
		return t, fmt.Errorf("parse start date of transaction %s: %w", t.ID, err)
	}
	if end.Valid && end.String != "" {
		if t.EndDate, err = core.ParseDate(end.String); err != nil {
			return t, fmt.Errorf("parse end date of transaction %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func nullableDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
