package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Once      Frequency = "Once"
	Daily     Frequency = "Daily"
	Weekly    Frequency = "Weekly"
	Biweekly  Frequency = "Biweekly"
	Monthly   Frequency = "Monthly"
	Bimonthly Frequency = "Bimonthly"
	Annually  Frequency = "Annually"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const dateLayout = "2006-01-02"

type (
	Frequency string

	TxType string

	// Date is a calendar date at UTC midnight.
	Date struct {
		time.Time
	}

	Account struct {
		ID      string
		Name    string
		Balance decimal.Decimal // balance as of now, the seed for every projection
	}

	// Transaction is a recurring income or expense rule.
	Transaction struct {
		ID        string
		Name      string
		Amount    decimal.Decimal
		Type      TxType
		Frequency Frequency
		AccountID string
		Category  string
		StartDate Date
		EndDate   Date // zero means open-ended
	}

	// Snapshot is the resolved state a forecast is computed from.
	Snapshot struct {
		Accounts     []Account
		Transactions []Transaction
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrMissingAccount   = errors.New("missing account")
	ErrMissingStartDate = errors.New("missing start date")
	ErrEndBeforeStart   = errors.New("end date must not be before start date")
	ErrInvalidDate      = errors.New("invalid date")
)

// Frequencies lists every supported frequency in menu order.
func Frequencies() []Frequency {
	return []Frequency{Once, Daily, Weekly, Biweekly, Monthly, Bimonthly, Annually}
}

func (f Frequency) IsValid() bool {
	for _, v := range Frequencies() {
		if f == v {
			return true
		}
	}
	return false
}

func (t TxType) IsValid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping only the date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// String formats the date as YYYY-MM-DD; the zero date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (a Account) Validate() error {
	if err := validateName(a.Name); err != nil {
		return err
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateName(t.Name); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if !t.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	if t.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// IsValidationError reports whether err is one of the domain validation errors.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyName, ErrNameTooLong, ErrInvalidAmount, ErrInvalidType, ErrInvalidFrequency,
		ErrMissingAccount, ErrMissingStartDate, ErrEndBeforeStart, ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	return nil
}
