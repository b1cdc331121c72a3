package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"gitlab.com/thiha/finance-bot/internal/database"
	"gitlab.com/thiha/finance-bot/internal/models"
)

// PostgresStore persists ledgers in PostgreSQL.
type PostgresStore struct {
	db database.TxBeginner

	// creates deduplicates concurrent first-contact GetOrCreate calls for
	// the same user so only one INSERT races the database.
	creates singleflight.Group
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgresStore on top of a connection pool.
func NewPostgresStore(db database.TxBeginner) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetOrCreate loads the full ledger for userID, creating an empty one if
// absent. Creation is atomic: the insert uses ON CONFLICT DO NOTHING and
// concurrent callers for the same user share a single flight.
func (s *PostgresStore) GetOrCreate(ctx context.Context, userID int64) (*models.UserLedger, error) {
	v, err, _ := s.creates.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return s.getOrCreate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.UserLedger), nil
}

func (s *PostgresStore) getOrCreate(ctx context.Context, userID int64) (*models.UserLedger, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ledgers (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ledger: %w", err)
	}

	l := models.NewUserLedger(userID)
	err = s.db.QueryRow(ctx, `
		SELECT spend_limit, limit_notified FROM ledgers WHERE user_id = $1
	`, userID).Scan(&l.Limit, &l.LimitNotified)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	if l.Expenses, err = s.loadExpenses(ctx, userID); err != nil {
		return nil, err
	}
	if l.Incomes, err = s.loadIncomes(ctx, userID); err != nil {
		return nil, err
	}

	return l, nil
}

func (s *PostgresStore) loadExpenses(ctx context.Context, userID int64) ([]models.ExpenseRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, amount, category, spent_on
		FROM expenses WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.ExpenseRecord{}
	for rows.Next() {
		var e models.ExpenseRecord
		if err := rows.Scan(&e.Name, &e.Amount, &e.Category, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Date = models.DateOnly(e.Date)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses: %w", err)
	}
	return expenses, nil
}

func (s *PostgresStore) loadIncomes(ctx context.Context, userID int64) ([]models.IncomeRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT source, amount, received_on
		FROM incomes WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomes: %w", err)
	}
	defer rows.Close()

	incomes := []models.IncomeRecord{}
	for rows.Next() {
		var in models.IncomeRecord
		if err := rows.Scan(&in.Source, &in.Amount, &in.Date); err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		in.Date = models.DateOnly(in.Date)
		incomes = append(incomes, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incomes: %w", err)
	}
	return incomes, nil
}

// Save replaces the stored ledger for userID in one transaction: the limit
// row is upserted and the record rows are rewritten. Records are immutable
// and per-user work is serialized by the caller, so a full rewrite is safe
// and keeps Save idempotent.
func (s *PostgresStore) Save(ctx context.Context, userID int64, l *models.UserLedger) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO ledgers (user_id, spend_limit, limit_notified)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			spend_limit = EXCLUDED.spend_limit,
			limit_notified = EXCLUDED.limit_notified,
			updated_at = NOW()
	`, userID, l.Limit, l.LimitNotified)
	if err != nil {
		return fmt.Errorf("failed to upsert ledger: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM expenses WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear expenses: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM incomes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear incomes: %w", err)
	}

	if len(l.Expenses) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"expenses"},
			[]string{"user_id", "name", "amount", "category", "spent_on"},
			pgx.CopyFromSlice(len(l.Expenses), func(i int) ([]any, error) {
				e := l.Expenses[i]
				return []any{userID, e.Name, e.Amount, e.Category, e.Date}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to write expenses: %w", err)
		}
	}

	if len(l.Incomes) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"incomes"},
			[]string{"user_id", "source", "amount", "received_on"},
			pgx.CopyFromSlice(len(l.Incomes), func(i int) ([]any, error) {
				in := l.Incomes[i]
				return []any{userID, in.Source, in.Amount, in.Date}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to write incomes: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}
