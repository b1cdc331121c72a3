// Package ledger persists one record per user containing expense entries,
// income entries, and a spending limit.
package ledger

import (
	"context"

	"gitlab.com/thiha/finance-bot/internal/models"
)

// Store is the persistence contract consumed by the command dispatcher.
//
// GetOrCreate must be atomic with respect to creation: two concurrent first
// contacts for the same user must not produce two ledgers. Save is an
// idempotent full-replace upsert keyed by userID; no partial-field update
// semantics are offered.
type Store interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.UserLedger, error)
	Save(ctx context.Context, userID int64, l *models.UserLedger) error
}
