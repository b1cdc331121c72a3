package report

import (
	"github.com/shopspring/decimal"
	"gitlab.com/thiha/finance-bot/internal/models"
)

// Summary is the aggregate view over a set of expense and income records.
// CategoryTotals contains an entry only for categories with at least one
// matching expense.
type Summary struct {
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	Balance        decimal.Decimal
	CategoryTotals map[string]decimal.Decimal
}

// Summarize computes totals and the per-category breakdown. It is pure: the
// inputs are not modified and the result depends only on them.
func Summarize(expenses []models.ExpenseRecord, incomes []models.IncomeRecord) Summary {
	s := Summary{
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
		CategoryTotals: make(map[string]decimal.Decimal),
	}

	for _, inc := range incomes {
		s.TotalIncome = s.TotalIncome.Add(inc.Amount)
	}

	for _, exp := range expenses {
		s.TotalExpense = s.TotalExpense.Add(exp.Amount)
		if existing, ok := s.CategoryTotals[exp.Category]; ok {
			s.CategoryTotals[exp.Category] = existing.Add(exp.Amount)
		} else {
			s.CategoryTotals[exp.Category] = exp.Amount
		}
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
