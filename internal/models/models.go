// Package models defines the domain entities for the finance tracker.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRecord is a single recorded expense. Immutable once appended.
type ExpenseRecord struct {
	Name     string
	Amount   decimal.Decimal
	Category string
	Date     time.Time
}

// IncomeRecord is a single recorded income. Immutable once appended.
type IncomeRecord struct {
	Source string
	Amount decimal.Decimal
	Date   time.Time
}

// UserLedger holds everything persisted for one user: the ordered expense
// and income sequences plus the spending limit. A zero limit means no limit
// is set. LimitNotified tracks whether the breach warning for the current
// limit has already been sent.
type UserLedger struct {
	UserID        int64
	Expenses      []ExpenseRecord
	Incomes       []IncomeRecord
	Limit         decimal.Decimal
	LimitNotified bool
}

// NewUserLedger returns an empty ledger for a first-contact user.
func NewUserLedger(userID int64) *UserLedger {
	return &UserLedger{
		UserID:   userID,
		Expenses: []ExpenseRecord{},
		Incomes:  []IncomeRecord{},
		Limit:    decimal.Zero,
	}
}

// TotalExpense sums all expense amounts over the entire history.
func (l *UserLedger) TotalExpense() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// DateOnly truncates t to day granularity in UTC. Record dates are assigned
// from the processing clock at append time, never user-supplied.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
