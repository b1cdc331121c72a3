package bot

import (
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"gitlab.com/thiha/finance-bot/internal/config"
	"gitlab.com/thiha/finance-bot/internal/ledger"
	"gitlab.com/thiha/finance-bot/internal/session"
)

// testNow is the fixed clock for handler tests.
var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

// newTestBot creates a Bot backed by an in-memory store and a fixed clock,
// without connecting to Telegram.
func newTestBot(t *testing.T) (*Bot, *ledger.MemoryStore) {
	t.Helper()

	store := ledger.NewMemoryStore()
	b := &Bot{
		cfg: &config.Config{
			TelegramBotToken: "test-token",
			DatabaseURL:      "test-url",
		},
		store:    store,
		sessions: session.NewStore(),
		locks:    ledger.NewUserLocker(),
		now:      func() time.Time { return testNow },
		tracer:   otel.Tracer("finance-bot/test"),
	}

	counter, err := otel.Meter("finance-bot/test").Int64Counter("test.messages")
	if err != nil {
		t.Fatalf("failed to create test counter: %v", err)
	}
	b.msgCounter = counter

	return b, store
}
