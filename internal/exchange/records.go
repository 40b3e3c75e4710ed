package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jc9677/budget-app-2/internal/core"
)

// ID is an identifier that decodes from either a JSON string or a JSON number,
// since older exports carried numeric auto-increment keys.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Amount is a decimal encoded as a bare JSON number. It also accepts numeric
// strings; null decodes as zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		a.Decimal = decimal.Zero
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(b), err)
	}
	a.Decimal = d
	return nil
}

// AccountRecord is the wire form of core.Account.
type AccountRecord struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Balance Amount `json:"balance"`
}

// TransactionRecord is the wire form of core.Transaction.
type TransactionRecord struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Amount    Amount `json:"amount"`
	Type      string `json:"type"`
	Frequency string `json:"frequency"`
	AccountID ID     `json:"accountId"`
	Category  string `json:"category"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
}

func AccountToRecord(a core.Account) AccountRecord {
	return AccountRecord{ID: ID(a.ID), Name: a.Name, Balance: NewAmount(a.Balance)}
}

func (r AccountRecord) ToAccount() core.Account {
	return core.Account{ID: string(r.ID), Name: r.Name, Balance: r.Balance.Decimal}
}

func TransactionToRecord(t core.Transaction) TransactionRecord {
	return TransactionRecord{
		ID:        ID(t.ID),
		Name:      t.Name,
		Amount:    NewAmount(t.Amount),
		Type:      string(t.Type),
		Frequency: string(t.Frequency),
		AccountID: ID(t.AccountID),
		Category:  t.Category,
		StartDate: t.StartDate.String(),
		EndDate:   t.EndDate.String(),
	}
}

// ToTransaction converts the record, failing only on unparseable dates.
// Type is lower-cased so "Income"/"Expense" from hand-edited files are accepted.
func (r TransactionRecord) ToTransaction() (core.Transaction, error) {
	t := core.Transaction{
		ID:        string(r.ID),
		Name:      r.Name,
		Amount:    r.Amount.Decimal,
		Type:      core.TxType(strings.ToLower(strings.TrimSpace(r.Type))),
		Frequency: core.Frequency(strings.TrimSpace(r.Frequency)),
		AccountID: string(r.AccountID),
		Category:  r.Category,
	}
	if strings.TrimSpace(r.StartDate) != "" {
		d, err := core.ParseDate(r.StartDate)
		if err != nil {
			return t, fmt.Errorf("start date: %w", err)
		}
		t.StartDate = d
	}
	if strings.TrimSpace(r.EndDate) != "" {
		d, err := core.ParseDate(r.EndDate)
		if err != nil {
			return t, fmt.Errorf("end date: %w", err)
		}
		t.EndDate = d
	}
	return t, nil
}
