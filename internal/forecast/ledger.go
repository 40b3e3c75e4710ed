package forecast

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jc9677/budget-app-2/internal/core"
)

// ErrNilSnapshot is returned when a ledger is requested without a snapshot.
var ErrNilSnapshot = errors.New("nil snapshot")

// Engine builds ledgers with a per-rule occurrence cap.
type Engine struct {
	// Limit caps the occurrences of each rule; <= 0 means unlimited.
	Limit int
	// OnTruncate, when set, is called for every rule whose expansion hit Limit.
	OnTruncate func(rule core.Transaction)
}

// NewEngine returns an engine capped at limit occurrences per rule.
func NewEngine(limit int) Engine {
	return Engine{Limit: limit}
}

var defaultEngine = Engine{Limit: DefaultLimit}

// BuildLedger runs the default engine. See Engine.BuildLedger.
func BuildLedger(snap *core.Snapshot, from, to core.Date) ([]core.ForecastRow, error) {
	return defaultEngine.BuildLedger(snap, from, to)
}

// BuildGroupedLedger runs the default engine. See Engine.BuildGroupedLedger.
func BuildGroupedLedger(snap *core.Snapshot, from, to core.Date, g core.Granularity) ([]core.PeriodGroup, error) {
	return defaultEngine.BuildGroupedLedger(snap, from, to, g)
}

// BuildLedger returns one row per occurrence dated within [from, to], in
// chronological order, carrying the account's balance after the occurrence.
//
// Balances are seeded from each account's current balance and then advanced
// by every occurrence since Epoch that falls before from, so the first row
// already reflects the correct opening balance.
func (e Engine) BuildLedger(snap *core.Snapshot, from, to core.Date) ([]core.ForecastRow, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	rows := []core.ForecastRow{}
	if to.Before(from) {
		return rows, nil
	}

	b := newBook(snap.Accounts)
	for _, o := range e.occurrences(snap.Transactions, to) {
		bal := b.apply(o)
		if o.Date.Before(from) {
			continue
		}
		rows = append(rows, core.ForecastRow{
			Occurrence:  o,
			AccountName: b.name(o.AccountID),
			Balance:     bal,
		})
	}
	return rows, nil
}

// BuildGroupedLedger partitions [from, to] into calendar periods and returns,
// for each, the occurrences summarised by (account, category, type, rule)
// and every account's balance at the end of the period.
func (e Engine) BuildGroupedLedger(snap *core.Snapshot, from, to core.Date, g core.Granularity) ([]core.PeriodGroup, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	groups := []core.PeriodGroup{}
	periods := Partition(from, to, g)
	if len(periods) == 0 {
		return groups, nil
	}

	b := newBook(snap.Accounts)
	occs := e.occurrences(snap.Transactions, to)
	i := 0
	for ; i < len(occs) && occs[i].Date.Before(from); i++ {
		b.apply(occs[i])
	}

	for _, p := range periods {
		group := core.PeriodGroup{Label: p.Label, Start: p.Start, End: p.End, Entries: []core.SummaryEntry{}}
		index := map[summaryKey]int{}
		for ; i < len(occs) && !occs[i].Date.After(p.End); i++ {
			o := occs[i]
			b.apply(o)
			k := summaryKey{o.AccountID, o.Category, o.Type, o.BaseID}
			pos, ok := index[k]
			if !ok {
				pos = len(group.Entries)
				index[k] = pos
				group.Entries = append(group.Entries, core.SummaryEntry{
					AccountID:   o.AccountID,
					AccountName: b.name(o.AccountID),
					Name:        o.Name,
					Category:    o.Category,
					Type:        o.Type,
					BaseID:      o.BaseID,
					Total:       decimal.Zero,
					BaseAmount:  o.Amount,
				})
			}
			entry := &group.Entries[pos]
			entry.Total = entry.Total.Add(o.Amount)
			entry.Count++
		}
		group.EndBalances = b.snapshot()
		groups = append(groups, group)
	}
	return groups, nil
}

type summaryKey struct {
	accountID string
	category  string
	typ       core.TxType
	baseID    string
}

// occurrences expands every rule from Epoch to to and orders the result by
// date. Ties keep generation order: rule order, then calendar order.
func (e Engine) occurrences(rules []core.Transaction, to core.Date) []core.Occurrence {
	var all []core.Occurrence
	for _, r := range rules {
		occ, truncated := ExpandLimit(r, Epoch, to, e.Limit)
		if truncated && e.OnTruncate != nil {
			e.OnTruncate(r)
		}
		all = append(all, occ...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.Before(all[j].Date)
	})
	return all
}

// book tracks running balances per account. Accounts missing from the
// snapshot start at zero and are labelled with their id.
type book struct {
	order    []string
	names    map[string]string
	balances map[string]decimal.Decimal
}

func newBook(accounts []core.Account) *book {
	b := &book{
		names:    make(map[string]string, len(accounts)),
		balances: make(map[string]decimal.Decimal, len(accounts)),
	}
	for _, a := range accounts {
		if _, dup := b.balances[a.ID]; dup {
			continue
		}
		b.order = append(b.order, a.ID)
		b.names[a.ID] = a.Name
		b.balances[a.ID] = a.Balance
	}
	return b
}

func (b *book) apply(o core.Occurrence) decimal.Decimal {
	bal, ok := b.balances[o.AccountID]
	if !ok {
		b.order = append(b.order, o.AccountID)
		b.names[o.AccountID] = UnknownAccountName(o.AccountID)
	}
	if o.Type == core.Income {
		bal = bal.Add(o.Amount)
	} else {
		bal = bal.Sub(o.Amount)
	}
	b.balances[o.AccountID] = bal
	return bal
}

func (b *book) name(id string) string {
	if n, ok := b.names[id]; ok {
		return n
	}
	return UnknownAccountName(id)
}

func (b *book) snapshot() []core.AccountBalance {
	out := make([]core.AccountBalance, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, core.AccountBalance{AccountID: id, AccountName: b.names[id], Balance: b.balances[id]})
	}
	return out
}

// UnknownAccountName is the label shown for occurrences whose account no longer exists.
func UnknownAccountName(id string) string {
	return "Unknown Account (" + id + ")"
}
