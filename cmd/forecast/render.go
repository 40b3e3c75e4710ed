package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/jc9677/budget-app-2/internal/core"
	apphttp "github.com/jc9677/budget-app-2/internal/http"
)

func renderJSON(w io.Writer, f core.Forecast) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(apphttp.NewForecastResponse(f))
}

func renderTable(w io.Writer, f core.Forecast) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Forecast %s to %s (%s)\n\n", f.From, f.To, f.Mode)

	if f.Mode == core.Detailed {
		fmt.Fprintln(tw, "DATE\tNAME\tACCOUNT\tCATEGORY\tAMOUNT\tBALANCE")
		for _, r := range f.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Date, r.Name, r.AccountName, r.Category,
				signed(r.Amount, r.Type).StringFixed(2), r.Balance.StringFixed(2))
		}
		return tw.Flush()
	}

	for _, g := range f.Groups {
		fmt.Fprintf(tw, "%s\t(%s to %s)\n", g.Label, g.Start, g.End)
		fmt.Fprintln(tw, "ACCOUNT\tNAME\tCATEGORY\tCOUNT\tTOTAL")
		for _, e := range g.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				e.AccountName, e.Name, e.Category, e.Count, signed(e.Total, e.Type).StringFixed(2))
		}
		for _, b := range g.EndBalances {
			fmt.Fprintf(tw, "%s\tend balance\t\t\t%s\n", b.AccountName, b.Balance.StringFixed(2))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func signed(amount decimal.Decimal, t core.TxType) decimal.Decimal {
	if t == core.Expense {
		return amount.Neg()
	}
	return amount
}
