package forecast

import (
	"github.com/jc9677/budget-app-2/internal/core"
)

// DefaultLimit caps the occurrences emitted for a single rule.
const DefaultLimit = 100000

// Epoch is the lower bound used when replaying history to compute opening balances.
var Epoch = core.NewDate(1900, 1, 1)

// Expand returns the occurrences of rule dated within [from, to], in date order.
//
// A rule without a start date or with an unknown frequency yields nothing.
// Steps before from are skipped but still advance the calendar.
func Expand(rule core.Transaction, from, to core.Date) []core.Occurrence {
	out, _ := ExpandLimit(rule, from, to, DefaultLimit)
	return out
}

// ExpandLimit is Expand with an explicit cap on emitted occurrences; limit <= 0
// means unlimited. truncated reports whether the cap cut the sequence short.
func ExpandLimit(rule core.Transaction, from, to core.Date, limit int) (out []core.Occurrence, truncated bool) {
	if rule.StartDate.IsZero() || to.Before(from) {
		return nil, false
	}
	stepper, err := GetStepper(rule.Frequency)
	if err != nil {
		return nil, false
	}

	end := to
	if !rule.EndDate.IsZero() && rule.EndDate.Before(end) {
		end = rule.EndDate
	}

	for n := 0; ; n++ {
		d, ok := stepper.At(rule.StartDate, n)
		if !ok || d.After(end) {
			break
		}
		if d.Before(from) {
			continue
		}
		if limit > 0 && len(out) >= limit {
			return out, true
		}
		out = append(out, occurrenceOf(rule, d))
	}
	return out, false
}

// IsExpandable reports whether rule's frequency has a registered stepper.
func IsExpandable(rule core.Transaction) bool {
	_, err := GetStepper(rule.Frequency)
	return err == nil
}

func occurrenceOf(rule core.Transaction, d core.Date) core.Occurrence {
	return core.Occurrence{
		Date:      d,
		Name:      rule.Name,
		Amount:    rule.Amount,
		Type:      rule.Type,
		AccountID: rule.AccountID,
		Category:  rule.Category,
		BaseID:    rule.ID,
	}
}
