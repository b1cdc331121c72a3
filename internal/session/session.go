// Package session tracks per-user conversational state for multi-step input
// flows, separate from the durable ledger.
package session

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// State identifies which multi-step flow (if any) is in progress and which
// field it is waiting for.
type State int

// Flow states. Every non-idle state returns to StateIdle when its flow
// completes or is cancelled by a new command.
const (
	StateIdle State = iota
	StateAwaitingLimit
	StateAwaitingExpenseName
	StateAwaitingExpenseAmount
	StateAwaitingExpenseCategory
	StateAwaitingIncomeSource
	StateAwaitingIncomeAmount
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingLimit:
		return "awaiting_limit"
	case StateAwaitingExpenseName:
		return "awaiting_expense_name"
	case StateAwaitingExpenseAmount:
		return "awaiting_expense_amount"
	case StateAwaitingExpenseCategory:
		return "awaiting_expense_category"
	case StateAwaitingIncomeSource:
		return "awaiting_income_source"
	case StateAwaitingIncomeAmount:
		return "awaiting_income_amount"
	default:
		return "unknown"
	}
}

// StaleAfter is how long an untouched flow survives before the next message
// treats it as abandoned and resets it.
const StaleAfter = 24 * time.Hour

// Session is the transient per-user conversational state. PendingName and
// PendingAmount hold the fields confirmed so far for an expense flow;
// PendingSource the source for an income flow. They are cleared on flow
// completion or reset.
type Session struct {
	State         State
	PendingName   string
	PendingAmount decimal.Decimal
	PendingSource string
	UpdatedAt     time.Time
}

// Stale reports whether an in-progress flow has been abandoned for longer
// than StaleAfter.
func (s *Session) Stale(now time.Time) bool {
	return s.State != StateIdle && now.Sub(s.UpdatedAt) > StaleAfter
}

// Reset returns the session to idle and clears all pending fields.
func (s *Session) Reset(now time.Time) {
	*s = Session{State: StateIdle, UpdatedAt: now}
}

// Store is an in-process keyed session store: user identifier to Session.
// It is owned by the command dispatcher and injected so it could be swapped
// for a distributed store without touching the state-machine logic.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for userID, creating an idle one on first contact.
// Stale flows are reset before the session is returned.
func (st *Store) Get(userID int64, now time.Time) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.sessions[userID]
	if s == nil {
		s = &Session{State: StateIdle, UpdatedAt: now}
		st.sessions[userID] = s
	}
	if s.Stale(now) {
		s.Reset(now)
	}
	return s
}

// Reset forces the session for userID back to idle, discarding pending
// fields from any abandoned flow.
func (st *Store) Reset(userID int64, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s := st.sessions[userID]; s != nil {
		s.Reset(now)
	}
}
