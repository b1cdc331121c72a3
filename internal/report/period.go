// Package report computes totals, balances, and category breakdowns over a
// user's ledger, optionally filtered to a reporting period.
package report

import (
	"errors"
	"time"

	"gitlab.com/thiha/finance-bot/internal/models"
)

// Period is a relative reporting window.
type Period string

// Supported reporting periods.
const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ErrInvalidPeriod is returned when a period other than weekly or monthly is
// requested.
var ErrInvalidPeriod = errors.New("invalid period: must be weekly or monthly")

// ParsePeriod validates a raw period argument.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodWeekly, PeriodMonthly:
		return Period(raw), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Start returns the inclusive lower bound of the period relative to now: a
// rolling 7 days for weekly, the first calendar day of now's month (UTC) for
// monthly.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonthly:
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// FilterExpenses keeps the expenses dated within the period ending at now.
// The lower bound is inclusive.
func FilterExpenses(records []models.ExpenseRecord, p Period, now time.Time) []models.ExpenseRecord {
	start := p.Start(now)
	var out []models.ExpenseRecord
	for _, r := range records {
		if !r.Date.Before(start) {
			out = append(out, r)
		}
	}
	return out
}

// FilterIncomes keeps the incomes dated within the period ending at now.
func FilterIncomes(records []models.IncomeRecord, p Period, now time.Time) []models.IncomeRecord {
	start := p.Start(now)
	var out []models.IncomeRecord
	for _, r := range records {
		if !r.Date.Before(start) {
			out = append(out, r)
		}
	}
	return out
}
