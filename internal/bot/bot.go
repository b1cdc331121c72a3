// Package bot dispatches incoming chat messages: stateless commands are
// handled directly, everything else advances the per-user conversation flow.
package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/thiha/finance-bot/internal/config"
	"gitlab.com/thiha/finance-bot/internal/gemini"
	"gitlab.com/thiha/finance-bot/internal/ledger"
	"gitlab.com/thiha/finance-bot/internal/logger"
	"gitlab.com/thiha/finance-bot/internal/session"
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot       *tgbot.Bot
	cfg       *config.Config
	store     ledger.Store
	sessions  *session.Store
	locks     *ledger.UserLocker
	suggester *gemini.Client
	now       func() time.Time

	tracer     trace.Tracer
	msgCounter metric.Int64Counter
}

// New creates a new Bot instance. suggester may be nil when no Gemini API
// key is configured.
func New(cfg *config.Config, store ledger.Store, suggester *gemini.Client) (*Bot, error) {
	b := &Bot{
		cfg:       cfg,
		store:     store,
		sessions:  session.NewStore(),
		locks:     ledger.NewUserLocker(),
		suggester: suggester,
		now:       time.Now,
		tracer:    otel.Tracer("finance-bot/bot"),
	}

	meter := otel.Meter("finance-bot/bot")
	counter, err := meter.Int64Counter("bot.messages.processed",
		metric.WithDescription("Number of inbound messages processed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create message counter: %w", err)
	}
	b.msgCounter = counter

	opts := []tgbot.Option{
		tgbot.WithMiddlewares(b.serializeMiddleware),
		tgbot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := tgbot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start receives updates until ctx is cancelled: over the webhook when
// PUBLIC_URL is configured, by long polling otherwise.
func (b *Bot) Start(ctx context.Context) error {
	if b.cfg.WebhookEnabled() {
		url := b.cfg.PublicURL + b.WebhookPath()
		if _, err := b.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: url}); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		logger.Log.Info().Msg("Bot started in webhook mode")
		b.bot.StartWebhook(ctx)
		return nil
	}

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
	return nil
}

// WebhookHandler returns the HTTP handler that accepts Telegram updates.
func (b *Bot) WebhookHandler() http.Handler {
	return b.bot.WebhookHandler()
}

// WebhookPath derives the webhook path from a hash of the bot token so the
// raw token never appears in URLs or logs.
func (b *Bot) WebhookPath() string {
	sum := sha256.Sum256([]byte(b.cfg.TelegramBotToken))
	return "/webhook/" + hex.EncodeToString(sum[:])[:16]
}

// registerHandlers sets up command handlers. Commands are matched before the
// default handler, so a command arriving mid-flow always wins and the flow is
// cancelled (see the flow entry handlers).
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/set_limit", tgbot.MatchTypePrefix, b.handleSetLimit)
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/add_expense", tgbot.MatchTypePrefix, b.handleAddExpense)
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/add_income", tgbot.MatchTypePrefix, b.handleAddIncome)
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/balance", tgbot.MatchTypePrefix, b.handleBalance)
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/report", tgbot.MatchTypePrefix, b.handleReport)
	b.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/chart", tgbot.MatchTypePrefix, b.handleChart)
}

// serializeMiddleware serializes the whole unit of work per user: the session
// read, the ledger read-modify-write, and the reply. Two flows completing
// concurrently for the same user must not interleave, or one record is lost.
func (b *Bot) serializeMiddleware(next tgbot.HandlerFunc) tgbot.HandlerFunc {
	return func(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		ctx, span := b.tracer.Start(ctx, "handle_update")
		defer span.End()

		b.msgCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("update.kind", updateKind(update)),
		))

		if update.Message != nil {
			logger.Log.Info().
				Str("user", logger.HashUserID(userID)).
				Str("text", update.Message.Text).
				Msg("User input")
		}

		unlock := b.locks.Lock(userID)
		defer unlock()

		next(ctx, tg, update)
	}
}

// extractUserID gets the user ID from the update.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

func updateKind(update *tgmodels.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.EditedMessage != nil:
		return "edited_message"
	default:
		return "other"
	}
}

// defaultHandler receives every non-command message and advances the user's
// flow, if one is active.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	b.advanceFlow(ctx, tg, update.Message.From.ID, update.Message.Chat.ID, update.Message.Text)
}
