package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ledgers (
			user_id BIGINT PRIMARY KEY,
			spend_limit DECIMAL(14, 2) NOT NULL DEFAULT 0,
			limit_notified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES ledgers(user_id),
			name TEXT NOT NULL,
			amount DECIMAL(14, 2) NOT NULL,
			category TEXT NOT NULL,
			spent_on DATE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS incomes (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES ledgers(user_id),
			source TEXT NOT NULL,
			amount DECIMAL(14, 2) NOT NULL,
			received_on DATE NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_spent_on ON expenses(spent_on)`,
		`CREATE INDEX IF NOT EXISTS idx_incomes_user_id ON incomes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_incomes_received_on ON incomes(received_on)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
