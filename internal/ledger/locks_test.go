package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/thiha/finance-bot/internal/models"
)

func TestUserLockerSerializesReadModifyWrite(t *testing.T) {
	store := NewMemoryStore()
	locks := NewUserLocker()
	ctx := context.Background()

	// Each goroutine runs a full read-modify-write cycle under the user
	// lock. Without serialization some appended records would be lost.
	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := locks.Lock(42)
			defer unlock()

			l, err := store.GetOrCreate(ctx, 42)
			require.NoError(t, err)
			l.Expenses = append(l.Expenses, models.ExpenseRecord{
				Name:   "e",
				Amount: decimal.NewFromInt(1),
			})
			require.NoError(t, store.Save(ctx, 42, l))
		}()
	}
	wg.Wait()

	l, err := store.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, l.Expenses, writers, "no record may be lost to interleaved cycles")
}

func TestUserLockerIndependentUsers(t *testing.T) {
	locks := NewUserLocker()

	unlockA := locks.Lock(1)
	defer unlockA()

	// A different user's lock must not block.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(2)
		unlockB()
		close(done)
	}()
	<-done
}

func TestUserLockerReusesLockPerUser(t *testing.T) {
	locks := NewUserLocker()

	unlock := locks.Lock(1)
	unlock()
	unlock = locks.Lock(1)
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Len(t, locks.locks, 1)
}
