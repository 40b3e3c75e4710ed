// Package forecast expands recurring rules into dated occurrences and folds
// them into running account balances.
//
// Every function in this package is pure: it reads the snapshot it is given,
// performs no I/O and keeps no state between calls.
//
// This file implements the Strategy Pattern for calendar stepping. Each
// frequency has its own stepper that computes the n-th occurrence date
// counted from the rule's start date.
package forecast

import (
	"fmt"
	"time"

	"github.com/jc9677/budget-app-2/internal/core"
)

// Stepper is the strategy interface for walking a rule's calendar.
type Stepper interface {
	// At returns the n-th occurrence date of a rule starting at start, where
	// n = 0 is the start date itself. ok is false when the rule has no n-th
	// occurrence.
	At(start core.Date, n int) (d core.Date, ok bool)
}

// OnceStepper yields the start date only.
type OnceStepper struct{}

func (OnceStepper) At(start core.Date, n int) (core.Date, bool) {
	return start, n == 0
}

// DayStepper advances by a fixed number of days.
type DayStepper struct {
	Days int
}

func (s DayStepper) At(start core.Date, n int) (core.Date, bool) {
	return start.AddDays(n * s.Days), true
}

// MonthStepper advances by a fixed number of calendar months.
//
// Occurrence n is always computed from the start date, never from the
// previous occurrence, and a day that does not exist in the target month is
// clamped to the month's last day. A rule starting on Jan 31 therefore lands
// on Feb 28 (or 29), Mar 31, Apr 30. Yearly stepping is 12 months, so Feb 29
// becomes Feb 28 in common years and returns to Feb 29 in leap years.
type MonthStepper struct {
	Months int
}

func (s MonthStepper) At(start core.Date, n int) (core.Date, bool) {
	return addMonthsClamped(start, n*s.Months), true
}

func addMonthsClamped(d core.Date, months int) core.Date {
	y, m, day := d.Time.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := total%12 + 1
	if total < 0 && total%12 != 0 {
		year--
		month += 12
	}
	if last := daysIn(year, time.Month(month)); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// steppers maps frequencies to their calendar strategy.
var steppers = map[core.Frequency]Stepper{
	core.Once:      OnceStepper{},
	core.Daily:     DayStepper{Days: 1},
	core.Weekly:    DayStepper{Days: 7},
	core.Biweekly:  DayStepper{Days: 14},
	core.Monthly:   MonthStepper{Months: 1},
	core.Bimonthly: MonthStepper{Months: 2},
	core.Annually:  MonthStepper{Months: 12},
}

// GetStepper returns the stepper for a frequency.
// Returns an error if the frequency is not supported.
func GetStepper(frequency core.Frequency) (Stepper, error) {
	s, ok := steppers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return s, nil
}

// RegisterStepper adds or replaces the stepper for a frequency.
// It is not safe to call concurrently with expansion; register at init time.
func RegisterStepper(frequency core.Frequency, s Stepper) {
	steppers[frequency] = s
}
