package forecast

import (
	"testing"

	"github.com/jc9677/budget-app-2/internal/core"
)

func chartFixture() *core.Snapshot {
	bonus := rule("bonus", core.Once, core.NewDate(2025, 2, 1))
	bonus.AccountID = "B"
	bonus.Type = core.Income
	bonus.Amount = dec("50")
	return &core.Snapshot{
		Accounts: []core.Account{
			accountA(),
			{ID: "B", Name: "Savings", Balance: dec("500")},
		},
		Transactions: []core.Transaction{monthlyRent(), bonus},
	}
}

func TestProjectRows(t *testing.T) {
	snap := chartFixture()
	rows, _ := BuildLedger(snap, core.NewDate(2025, 1, 1), core.NewDate(2025, 3, 31))
	points := ProjectRows(rows, snap.Accounts)

	want := []struct {
		label string
		a, b  string
	}{
		{"2025-01-15", "900", "500"},
		{"2025-02-01", "900", "550"},
		{"2025-02-15", "800", "550"},
		{"2025-03-15", "700", "550"},
	}
	if len(points) != len(want) {
		t.Fatalf("len(points) = %d, want %d", len(points), len(want))
	}
	for i, w := range want {
		p := points[i]
		byName := p.ByName()
		if p.Label != w.label || byName["Checking"].String() != w.a || byName["Savings"].String() != w.b {
			t.Errorf("points[%d] = %s %v, want %s A=%s B=%s", i, p.Label, byName, w.label, w.a, w.b)
		}
	}
}

func TestProjectRows_LastBalanceOfDateWins(t *testing.T) {
	snap := &core.Snapshot{Accounts: []core.Account{accountA()}}
	first := rule("x", core.Once, core.NewDate(2025, 1, 10))
	second := rule("y", core.Once, core.NewDate(2025, 1, 10))
	snap.Transactions = []core.Transaction{first, second}

	rows, _ := BuildLedger(snap, core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	points := ProjectRows(rows, snap.Accounts)
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if got := points[0].Balances[0].Balance.String(); got != "800" {
		t.Errorf("balance = %s, want 800", got)
	}
}

func TestProjectRows_Empty(t *testing.T) {
	points := ProjectRows(nil, []core.Account{accountA()})
	if len(points) != 0 {
		t.Errorf("len(points) = %d, want 0", len(points))
	}
}

func TestProjectGroups(t *testing.T) {
	snap := chartFixture()
	groups, _ := BuildGroupedLedger(snap, core.NewDate(2025, 1, 1), core.NewDate(2025, 3, 31), core.ByMonth)
	points := ProjectGroups(groups, snap.Accounts)

	want := [][2]string{{"900", "500"}, {"800", "550"}, {"700", "550"}}
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	for i, w := range want {
		byName := points[i].ByName()
		if byName["Checking"].String() != w[0] || byName["Savings"].String() != w[1] {
			t.Errorf("points[%d] = %v, want %v", i, byName, w)
		}
		if points[i].Label != groups[i].Label {
			t.Errorf("points[%d].Label = %q, want %q", i, points[i].Label, groups[i].Label)
		}
	}
}

func TestProjectGroups_CarriesAbsentAccounts(t *testing.T) {
	accounts := chartFixture().Accounts
	groups := []core.PeriodGroup{
		{Label: "p1", EndBalances: []core.AccountBalance{{AccountID: "A", Balance: dec("10")}, {AccountID: "B", Balance: dec("20")}}},
		{Label: "p2", EndBalances: []core.AccountBalance{{AccountID: "A", Balance: dec("30")}}},
		{Label: "p3", EndBalances: []core.AccountBalance{{AccountID: "ghost", Balance: dec("99")}}},
	}
	points := ProjectGroups(groups, accounts)
	want := [][2]string{{"10", "20"}, {"30", "20"}, {"30", "20"}}
	for i, w := range want {
		if len(points[i].Balances) != 2 {
			t.Fatalf("points[%d] has %d balances, want 2", i, len(points[i].Balances))
		}
		byName := points[i].ByName()
		if byName["Checking"].String() != w[0] || byName["Savings"].String() != w[1] {
			t.Errorf("points[%d] = %v, want %v", i, byName, w)
		}
	}
}
