package forecast

import (
	"strconv"

	"github.com/jc9677/budget-app-2/internal/core"
)

// Period is one calendar month or year of a window, clipped to the window bounds.
type Period struct {
	Label string
	Start core.Date
	End   core.Date
}

// Partition splits [from, to] into contiguous calendar periods.
func Partition(from, to core.Date, g core.Granularity) []Period {
	if to.Before(from) {
		return nil
	}
	var out []Period
	for start := from; !start.After(to); {
		var next core.Date
		var label string
		switch g {
		case core.ByYear:
			next = core.NewDate(start.Year()+1, 1, 1)
			label = strconv.Itoa(start.Year())
		default:
			next = addMonthsClamped(core.NewDate(start.Year(), start.Month(), 1), 1)
			label = start.Time.Month().String() + " " + strconv.Itoa(start.Year())
		}
		end := next.AddDays(-1)
		if end.After(to) {
			end = to
		}
		out = append(out, Period{Label: label, Start: start, End: end})
		start = next
	}
	return out
}
