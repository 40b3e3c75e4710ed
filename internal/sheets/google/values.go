package google

import (
	"strings"

	"github.com/jc9677/budget-app-2/internal/core"
)

var header = []any{"Period", "Account", "Category", "Type", "Count", "Total", "End balance"}

// forecastValues lays out grouped forecast entries as sheet rows. Each
// period lists its summary entries, then one row per account carrying the
// end-of-period balance.
func forecastValues(groups []core.PeriodGroup) [][]any {
	values := [][]any{header}
	for _, g := range groups {
		for _, e := range g.Entries {
			values = append(values, []any{
				g.Label,
				sanitizeCell(e.AccountName),
				sanitizeCell(e.Category),
				string(e.Type),
				e.Count,
				e.Total.InexactFloat64(),
				"",
			})
		}
		for _, b := range g.EndBalances {
			values = append(values, []any{
				g.Label,
				sanitizeCell(b.AccountName),
				"",
				"",
				"",
				"",
				b.Balance.InexactFloat64(),
			})
		}
	}
	return values
}

// sanitizeCell prefixes a quote to text that a spreadsheet would evaluate as a formula.
func sanitizeCell(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// a1Range quotes the sheet name so names with spaces or punctuation form a
// valid A1 range. Embedded quotes are doubled.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
