package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/thiha/finance-bot/internal/models"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)

	assert.True(t, s.TotalIncome.IsZero())
	assert.True(t, s.TotalExpense.IsZero())
	assert.True(t, s.Balance.IsZero())
	assert.Empty(t, s.CategoryTotals)
}

func TestSummarize(t *testing.T) {
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	expenses := []models.ExpenseRecord{
		{Name: "Coffee", Amount: decimal.NewFromInt(15000), Category: "food", Date: date},
		{Name: "Lunch", Amount: decimal.NewFromInt(40000), Category: "food", Date: date},
		{Name: "Taxi", Amount: decimal.NewFromInt(25000), Category: "transport", Date: date},
	}
	incomes := []models.IncomeRecord{
		{Source: "salary", Amount: decimal.NewFromInt(2000000), Date: date},
	}

	s := Summarize(expenses, incomes)

	assert.True(t, s.TotalIncome.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, s.TotalExpense.Equal(decimal.NewFromInt(80000)))
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(1920000)))

	require.Len(t, s.CategoryTotals, 2)
	assert.True(t, s.CategoryTotals["food"].Equal(decimal.NewFromInt(55000)))
	assert.True(t, s.CategoryTotals["transport"].Equal(decimal.NewFromInt(25000)))
}

func TestSummarizeNoZeroValuedCategories(t *testing.T) {
	s := Summarize([]models.ExpenseRecord{
		{Name: "Coffee", Amount: decimal.NewFromInt(1), Category: "food"},
	}, nil)

	_, ok := s.CategoryTotals["transport"]
	assert.False(t, ok, "categories without expenses must be absent, not zero")
}

func TestSummarizeExactDecimals(t *testing.T) {
	// Amounts that lose precision as float64 must survive summation intact.
	a := decimal.RequireFromString("0.1")
	b := decimal.RequireFromString("0.2")

	s := Summarize([]models.ExpenseRecord{
		{Name: "a", Amount: a, Category: "misc"},
		{Name: "b", Amount: b, Category: "misc"},
	}, nil)

	assert.True(t, s.TotalExpense.Equal(decimal.RequireFromString("0.3")))
}

func TestSummarizeProperties(t *testing.T) {
	amountGen := rapid.Custom(func(t *rapid.T) decimal.Decimal {
		cents := rapid.Int64Range(1, 1_000_000_00).Draw(t, "cents")
		return decimal.New(cents, -2)
	})

	rapid.Check(t, func(rt *rapid.T) {
		categories := []string{"food", "transport", "rent", "fun"}

		var expenses []models.ExpenseRecord
		n := rapid.IntRange(0, 20).Draw(rt, "numExpenses")
		for i := 0; i < n; i++ {
			expenses = append(expenses, models.ExpenseRecord{
				Name:     "e",
				Amount:   amountGen.Draw(rt, "expenseAmount"),
				Category: rapid.SampledFrom(categories).Draw(rt, "category"),
			})
		}

		var incomes []models.IncomeRecord
		m := rapid.IntRange(0, 20).Draw(rt, "numIncomes")
		for i := 0; i < m; i++ {
			incomes = append(incomes, models.IncomeRecord{
				Source: "s",
				Amount: amountGen.Draw(rt, "incomeAmount"),
			})
		}

		s := Summarize(expenses, incomes)

		// Balance is always income minus expense.
		require.True(rt, s.Balance.Equal(s.TotalIncome.Sub(s.TotalExpense)))

		// Category totals partition the total expense.
		catSum := decimal.Zero
		for _, v := range s.CategoryTotals {
			require.True(rt, v.IsPositive())
			catSum = catSum.Add(v)
		}
		require.True(rt, catSum.Equal(s.TotalExpense))
	})
}
