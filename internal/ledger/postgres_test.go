package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/thiha/finance-bot/internal/database"
	"gitlab.com/thiha/finance-bot/internal/models"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool := database.TestDB(t)
	if err := database.RunMigrations(context.Background(), pool); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		database.CleanupTables(t, pool)
	})
	return pool
}

func TestPostgresStoreGetOrCreateIdempotent(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()

	l1, err := store.GetOrCreate(ctx, 100001)
	require.NoError(t, err)
	assert.Equal(t, int64(100001), l1.UserID)
	assert.Empty(t, l1.Expenses)
	assert.True(t, l1.Limit.IsZero())

	l2, err := store.GetOrCreate(ctx, 100001)
	require.NoError(t, err)
	assert.Equal(t, l1.UserID, l2.UserID)

	var count int
	err = store.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledgers WHERE user_id = $1`, int64(100001)).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgresStoreConcurrentFirstContact(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.GetOrCreate(ctx, 100002)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int
	err := store.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledgers WHERE user_id = $1`, int64(100002)).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgresStoreSaveRoundtrip(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	l, err := store.GetOrCreate(ctx, 100003)
	require.NoError(t, err)

	l.Expenses = append(l.Expenses,
		models.ExpenseRecord{Name: "Coffee", Amount: decimal.RequireFromString("15000.00"), Category: "food", Date: date},
		models.ExpenseRecord{Name: "Taxi", Amount: decimal.RequireFromString("25000.50"), Category: "transport", Date: date},
	)
	l.Incomes = append(l.Incomes,
		models.IncomeRecord{Source: "salary", Amount: decimal.RequireFromString("2000000.00"), Date: date},
	)
	l.Limit = decimal.RequireFromString("500000.00")
	l.LimitNotified = true
	require.NoError(t, store.Save(ctx, 100003, l))

	got, err := store.GetOrCreate(ctx, 100003)
	require.NoError(t, err)

	require.Len(t, got.Expenses, 2)
	assert.Equal(t, "Coffee", got.Expenses[0].Name)
	assert.True(t, got.Expenses[0].Amount.Equal(decimal.RequireFromString("15000.00")))
	assert.Equal(t, "food", got.Expenses[0].Category)
	assert.Equal(t, date, got.Expenses[0].Date)
	assert.Equal(t, "Taxi", got.Expenses[1].Name)

	require.Len(t, got.Incomes, 1)
	assert.Equal(t, "salary", got.Incomes[0].Source)

	assert.True(t, got.Limit.Equal(decimal.RequireFromString("500000.00")))
	assert.True(t, got.LimitNotified)
}

func TestPostgresStoreSaveIsFullReplace(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	l, err := store.GetOrCreate(ctx, 100004)
	require.NoError(t, err)
	l.Expenses = append(l.Expenses,
		models.ExpenseRecord{Name: "Coffee", Amount: decimal.NewFromInt(100), Category: "food", Date: date},
	)
	require.NoError(t, store.Save(ctx, 100004, l))

	// Saving again with the same content must not duplicate rows.
	require.NoError(t, store.Save(ctx, 100004, l))

	got, err := store.GetOrCreate(ctx, 100004)
	require.NoError(t, err)
	assert.Len(t, got.Expenses, 1)
}
