package core

import "github.com/shopspring/decimal"

const (
	Detailed    Mode = "detailed"
	MonthlyMode Mode = "monthly"
	AnnualMode  Mode = "annual"
)

const (
	ByMonth Granularity = "month"
	ByYear  Granularity = "year"
)

type (
	// Mode selects the shape of a forecast.
	Mode string

	Granularity string

	// Occurrence is one dated instance of a rule. It is derived and never stored.
	Occurrence struct {
		Date      Date
		Name      string
		Amount    decimal.Decimal
		Type      TxType
		AccountID string
		Category  string
		BaseID    string // id of the generating rule
	}

	// ForecastRow is an occurrence with the running balance of its account
	// immediately after the occurrence is applied.
	ForecastRow struct {
		Occurrence
		AccountName string
		Balance     decimal.Decimal
	}

	AccountBalance struct {
		AccountID   string
		AccountName string
		Balance     decimal.Decimal
	}

	SummaryEntry struct {
		AccountID   string
		AccountName string
		Name        string
		Category    string
		Type        TxType
		BaseID      string
		Total       decimal.Decimal
		Count       int
		BaseAmount  decimal.Decimal
	}

	PeriodGroup struct {
		Label       string
		Start       Date
		End         Date
		Entries     []SummaryEntry
		EndBalances []AccountBalance
	}

	ChartPoint struct {
		Label    string
		Balances []AccountBalance
	}

	// Forecast is the result of one forecast request. Rows is set in detailed
	// mode, Groups in the grouped modes; Chart is always set.
	Forecast struct {
		Mode   Mode
		From   Date
		To     Date
		Rows   []ForecastRow
		Groups []PeriodGroup
		Chart  []ChartPoint
	}
)

func (m Mode) IsValid() bool {
	return m == Detailed || m == MonthlyMode || m == AnnualMode
}

// Granularity returns the period size of a grouped mode.
func (m Mode) Granularity() (Granularity, bool) {
	switch m {
	case MonthlyMode:
		return ByMonth, true
	case AnnualMode:
		return ByYear, true
	default:
		return "", false
	}
}

// ByName indexes the point's balances by account name.
func (p ChartPoint) ByName() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.Balances))
	for _, b := range p.Balances {
		out[b.AccountName] = b.Balance
	}
	return out
}
