package http

import (
	"strings"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
	"github.com/jc9677/budget-app-2/internal/services"
)

// Accounts and rules share the export record shapes, so a client can post
// back anything it reads from /api/export.
type (
	accountBody     = exchange.AccountRecord
	transactionBody = exchange.TransactionRecord
)

type categoryBody struct {
	Name string `json:"name"`
}

type occurrencePatchBody struct {
	Amount   *exchange.Amount `json:"amount"`
	Type     *string          `json:"type"`
	Category *string          `json:"category"`
}

func (b occurrencePatchBody) toPatch() services.OccurrencePatch {
	var p services.OccurrencePatch
	if b.Amount != nil {
		amount := b.Amount.Decimal
		p.Amount = &amount
	}
	if b.Type != nil {
		t := core.TxType(strings.ToLower(strings.TrimSpace(*b.Type)))
		p.Type = &t
	}
	if b.Category != nil {
		p.Category = b.Category
	}
	return p
}

type occurrenceDTO struct {
	Date        string          `json:"date"`
	Name        string          `json:"name"`
	Amount      exchange.Amount `json:"amount"`
	Type        core.TxType     `json:"type"`
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName"`
	Category    string          `json:"category"`
	BaseID      string          `json:"baseId"`
}

type forecastRowDTO struct {
	occurrenceDTO
	Balance exchange.Amount `json:"balance"`
}

type balanceDTO struct {
	AccountID string          `json:"accountId"`
	Account   string          `json:"account"`
	Balance   exchange.Amount `json:"balance"`
}

type summaryEntryDTO struct {
	AccountID       string          `json:"accountId"`
	Account         string          `json:"account"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Type            core.TxType     `json:"type"`
	BaseID          string          `json:"baseId"`
	Total           exchange.Amount `json:"total"`
	OccurrenceCount int             `json:"occurrenceCount"`
	BaseAmount      exchange.Amount `json:"baseAmount"`
}

type periodGroupDTO struct {
	Label               string            `json:"label"`
	Start               string            `json:"start"`
	End                 string            `json:"end"`
	SummaryEntries      []summaryEntryDTO `json:"summaryEntries"`
	EndOfPeriodBalances []balanceDTO      `json:"endOfPeriodBalances"`
}

type chartPointDTO struct {
	Label    string       `json:"label"`
	Balances []balanceDTO `json:"balances"`
}

// ForecastResponse is the JSON shape of a forecast. It carries rows in
// detailed mode and groups otherwise; the unused one is omitted.
type ForecastResponse struct {
	Mode   core.Mode         `json:"mode"`
	From   string            `json:"from"`
	To     string            `json:"to"`
	Rows   *[]forecastRowDTO `json:"rows,omitempty"`
	Groups *[]periodGroupDTO `json:"groups,omitempty"`
	Chart  []chartPointDTO   `json:"chart"`
}

func toOccurrenceDTO(o core.Occurrence, accountName string) occurrenceDTO {
	return occurrenceDTO{
		Date:        o.Date.String(),
		Name:        o.Name,
		Amount:      exchange.NewAmount(o.Amount),
		Type:        o.Type,
		AccountID:   o.AccountID,
		AccountName: accountName,
		Category:    o.Category,
		BaseID:      o.BaseID,
	}
}

func toBalanceDTOs(balances []core.AccountBalance) []balanceDTO {
	out := make([]balanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, balanceDTO{
			AccountID: b.AccountID,
			Account:   b.AccountName,
			Balance:   exchange.NewAmount(b.Balance),
		})
	}
	return out
}

func NewForecastResponse(f core.Forecast) ForecastResponse {
	resp := ForecastResponse{
		Mode:  f.Mode,
		From:  f.From.String(),
		To:    f.To.String(),
		Chart: make([]chartPointDTO, 0, len(f.Chart)),
	}

	if f.Mode == core.Detailed {
		rows := make([]forecastRowDTO, 0, len(f.Rows))
		for _, r := range f.Rows {
			rows = append(rows, forecastRowDTO{
				occurrenceDTO: toOccurrenceDTO(r.Occurrence, r.AccountName),
				Balance:       exchange.NewAmount(r.Balance),
			})
		}
		resp.Rows = &rows
	} else {
		groups := make([]periodGroupDTO, 0, len(f.Groups))
		for _, g := range f.Groups {
			entries := make([]summaryEntryDTO, 0, len(g.Entries))
			for _, e := range g.Entries {
				entries = append(entries, summaryEntryDTO{
					AccountID:       e.AccountID,
					Account:         e.AccountName,
					Name:            e.Name,
					Category:        e.Category,
					Type:            e.Type,
					BaseID:          e.BaseID,
					Total:           exchange.NewAmount(e.Total),
					OccurrenceCount: e.Count,
					BaseAmount:      exchange.NewAmount(e.BaseAmount),
				})
			}
			groups = append(groups, periodGroupDTO{
				Label:               g.Label,
				Start:               g.Start.String(),
				End:                 g.End.String(),
				SummaryEntries:      entries,
				EndOfPeriodBalances: toBalanceDTOs(g.EndBalances),
			})
		}
		resp.Groups = &groups
	}

	for _, p := range f.Chart {
		resp.Chart = append(resp.Chart, chartPointDTO{Label: p.Label, Balances: toBalanceDTOs(p.Balances)})
	}
	return resp
}
