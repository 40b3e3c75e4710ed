package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/jc9677/budget-app-2/internal/core"
)

// ProjectRows reduces a detailed ledger to one chart point per distinct date.
// Each point carries every account's last known balance as of that date,
// starting from the account's current balance.
func ProjectRows(rows []core.ForecastRow, accounts []core.Account) []core.ChartPoint {
	s := newSeries(accounts)
	points := []core.ChartPoint{}
	for i := 0; i < len(rows); {
		date := rows[i].Date
		for ; i < len(rows) && rows[i].Date.Equal(date); i++ {
			s.set(rows[i].AccountID, rows[i].Balance)
		}
		points = append(points, s.point(date.String()))
	}
	return points
}

// ProjectGroups reduces a grouped ledger to one chart point per period.
// Accounts absent from a period's end balances keep their previous value.
func ProjectGroups(groups []core.PeriodGroup, accounts []core.Account) []core.ChartPoint {
	s := newSeries(accounts)
	points := make([]core.ChartPoint, 0, len(groups))
	for _, g := range groups {
		for _, b := range g.EndBalances {
			s.set(b.AccountID, b.Balance)
		}
		points = append(points, s.point(g.Label))
	}
	return points
}

type series struct {
	accounts []core.Account
	current  map[string]decimal.Decimal
}

func newSeries(accounts []core.Account) *series {
	s := &series{current: make(map[string]decimal.Decimal, len(accounts))}
	for _, a := range accounts {
		if _, dup := s.current[a.ID]; dup {
			continue
		}
		s.accounts = append(s.accounts, a)
		s.current[a.ID] = a.Balance
	}
	return s
}

// set ignores accounts that are not part of the chart.
func (s *series) set(id string, bal decimal.Decimal) {
	if _, ok := s.current[id]; ok {
		s.current[id] = bal
	}
}

func (s *series) point(label string) core.ChartPoint {
	p := core.ChartPoint{Label: label, Balances: make([]core.AccountBalance, 0, len(s.accounts))}
	for _, a := range s.accounts {
		p.Balances = append(p.Balances, core.AccountBalance{AccountID: a.ID, AccountName: a.Name, Balance: s.current[a.ID]})
	}
	return p
}
