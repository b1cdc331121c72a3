package ledger

import "sync"

// UserLocker serializes all work for a single user identifier. A
// read-modify-write cycle on one user's ledger must not interleave with
// another cycle for the same user, or a concurrent flow completion can
// silently drop a record. Different users proceed independently.
type UserLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewUserLocker creates an empty per-user lock table.
func NewUserLocker() *UserLocker {
	return &UserLocker{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the lock for userID, creating it on first use. The returned
// function releases it.
func (ul *UserLocker) Lock(userID int64) (unlock func()) {
	ul.mu.Lock()
	l := ul.locks[userID]
	if l == nil {
		l = &sync.Mutex{}
		ul.locks[userID] = l
	}
	ul.mu.Unlock()

	l.Lock()
	return l.Unlock
}
