package ledger

import (
	"context"
	"sync"

	"gitlab.com/thiha/finance-bot/internal/models"
)

// MemoryStore is an in-process Store implementation. It backs handler tests
// and makes the bot runnable without a database.
type MemoryStore struct {
	mu      sync.Mutex
	ledgers map[int64]*models.UserLedger

	// SaveErr, when set, makes Save fail. Used to exercise persistence
	// failure paths in tests.
	SaveErr error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[int64]*models.UserLedger)}
}

// GetOrCreate returns a copy of the stored ledger, creating an empty one on
// first contact. Returning a copy keeps callers from mutating stored state
// before Save commits it.
func (m *MemoryStore) GetOrCreate(_ context.Context, userID int64) (*models.UserLedger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.ledgers[userID]
	if l == nil {
		l = models.NewUserLedger(userID)
		m.ledgers[userID] = l
	}
	return copyLedger(l), nil
}

// Save replaces the stored ledger for userID.
func (m *MemoryStore) Save(_ context.Context, userID int64, l *models.UserLedger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.ledgers[userID] = copyLedger(l)
	return nil
}

func copyLedger(l *models.UserLedger) *models.UserLedger {
	cp := &models.UserLedger{
		UserID:        l.UserID,
		Expenses:      make([]models.ExpenseRecord, len(l.Expenses)),
		Incomes:       make([]models.IncomeRecord, len(l.Incomes)),
		Limit:         l.Limit,
		LimitNotified: l.LimitNotified,
	}
	copy(cp.Expenses, l.Expenses)
	copy(cp.Incomes, l.Incomes)
	return cp
}
