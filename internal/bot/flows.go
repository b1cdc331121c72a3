package bot

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/shopspring/decimal"

	"gitlab.com/thiha/finance-bot/internal/logger"
	"gitlab.com/thiha/finance-bot/internal/models"
	"gitlab.com/thiha/finance-bot/internal/session"
)

const (
	msgUnknown         = "I didn't understand that. Use /start to see available commands."
	msgInvalidAmount   = "Please enter a positive number (e.g. 50000)."
	msgPersistenceFail = "❌ Something went wrong saving your data. Please try again."
)

// parsePositiveAmount parses text as a strictly positive decimal amount.
func parsePositiveAmount(text string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// advanceFlow applies one inbound text message to the user's conversation
// state machine. Invalid input at a numeric state never advances the state
// and never touches the pending fields; it only re-prompts.
func (b *Bot) advanceFlow(ctx context.Context, tg TelegramAPI, userID, chatID int64, text string) {
	now := b.now()
	sess := b.sessions.Get(userID, now)
	text = strings.TrimSpace(text)

	switch sess.State {
	case session.StateIdle:
		b.reply(ctx, tg, chatID, msgUnknown)

	case session.StateAwaitingLimit:
		b.completeLimit(ctx, tg, sess, userID, chatID, text)

	case session.StateAwaitingExpenseName:
		if text == "" {
			b.reply(ctx, tg, chatID, "Please enter a name for the expense.")
			return
		}
		sess.PendingName = text
		sess.State = session.StateAwaitingExpenseAmount
		sess.UpdatedAt = now
		b.reply(ctx, tg, chatID, "Enter the expense amount:")

	case session.StateAwaitingExpenseAmount:
		amount, ok := parsePositiveAmount(text)
		if !ok {
			b.reply(ctx, tg, chatID, msgInvalidAmount)
			return
		}
		sess.PendingAmount = amount
		sess.State = session.StateAwaitingExpenseCategory
		sess.UpdatedAt = now
		b.reply(ctx, tg, chatID, b.categoryPrompt(ctx, userID, sess.PendingName))

	case session.StateAwaitingExpenseCategory:
		if text == "" {
			b.reply(ctx, tg, chatID, "Please enter a category for the expense.")
			return
		}
		b.completeExpense(ctx, tg, sess, userID, chatID, text)

	case session.StateAwaitingIncomeSource:
		if text == "" {
			b.reply(ctx, tg, chatID, "Please enter a source for the income.")
			return
		}
		sess.PendingSource = text
		sess.State = session.StateAwaitingIncomeAmount
		sess.UpdatedAt = now
		b.reply(ctx, tg, chatID, "Enter the income amount:")

	case session.StateAwaitingIncomeAmount:
		b.completeIncome(ctx, tg, sess, userID, chatID, text)
	}
}

// completeLimit finishes the set-limit flow: the new limit is persisted and
// the breach flag cleared, so a later crossing of the new limit warns again.
func (b *Bot) completeLimit(ctx context.Context, tg TelegramAPI, sess *session.Session, userID, chatID int64, text string) {
	limit, ok := parsePositiveAmount(text)
	if !ok {
		b.reply(ctx, tg, chatID, msgInvalidAmount)
		return
	}

	l, err := b.store.GetOrCreate(ctx, userID)
	if err != nil {
		b.failUnit(ctx, tg, userID, chatID, "load ledger", err)
		return
	}

	l.Limit = limit
	l.LimitNotified = false
	if err := b.store.Save(ctx, userID, l); err != nil {
		b.failUnit(ctx, tg, userID, chatID, "save limit", err)
		return
	}

	sess.Reset(b.now())
	b.reply(ctx, tg, chatID, "✅ Spending limit set to "+limit.String()+".")
}

// completeExpense finishes the expense flow: the record is appended with
// today's date, the limit breach is evaluated over the entire history, and
// everything is persisted in one save.
func (b *Bot) completeExpense(ctx context.Context, tg TelegramAPI, sess *session.Session, userID, chatID int64, category string) {
	now := b.now()

	l, err := b.store.GetOrCreate(ctx, userID)
	if err != nil {
		b.failUnit(ctx, tg, userID, chatID, "load ledger", err)
		return
	}

	rec := models.ExpenseRecord{
		Name:     sess.PendingName,
		Amount:   sess.PendingAmount,
		Category: category,
		Date:     models.DateOnly(now),
	}
	l.Expenses = append(l.Expenses, rec)

	total := l.TotalExpense()
	breached := l.Limit.IsPositive() && total.GreaterThan(l.Limit) && !l.LimitNotified
	if breached {
		l.LimitNotified = true
	}

	if err := b.store.Save(ctx, userID, l); err != nil {
		// Session stays in awaiting_expense_category; the user can resend
		// the category to retry.
		b.failUnit(ctx, tg, userID, chatID, "save expense", err)
		return
	}

	sess.Reset(now)

	if breached {
		b.reply(ctx, tg, chatID,
			"⚠️ Warning: your total expenses ("+total.String()+") exceed your limit ("+l.Limit.String()+")!")
	}
	b.reply(ctx, tg, chatID,
		"✅ Expense added: "+rec.Name+" - "+rec.Amount.String()+" ("+rec.Category+")")
}

// completeIncome finishes the income flow.
func (b *Bot) completeIncome(ctx context.Context, tg TelegramAPI, sess *session.Session, userID, chatID int64, text string) {
	amount, ok := parsePositiveAmount(text)
	if !ok {
		b.reply(ctx, tg, chatID, msgInvalidAmount)
		return
	}

	now := b.now()

	l, err := b.store.GetOrCreate(ctx, userID)
	if err != nil {
		b.failUnit(ctx, tg, userID, chatID, "load ledger", err)
		return
	}

	rec := models.IncomeRecord{
		Source: sess.PendingSource,
		Amount: amount,
		Date:   models.DateOnly(now),
	}
	l.Incomes = append(l.Incomes, rec)

	if err := b.store.Save(ctx, userID, l); err != nil {
		b.failUnit(ctx, tg, userID, chatID, "save income", err)
		return
	}

	sess.Reset(now)
	b.reply(ctx, tg, chatID, "✅ Income added: "+rec.Source+" - "+rec.Amount.String())
}

// categoryPrompt builds the category prompt, optionally enriched with a
// Gemini suggestion based on the expense name and the categories the user
// has used before. Suggestion failures never block the flow.
func (b *Bot) categoryPrompt(ctx context.Context, userID int64, name string) string {
	prompt := "Enter the expense category (e.g. food, transport):"
	if b.suggester == nil {
		return prompt
	}

	l, err := b.store.GetOrCreate(ctx, userID)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Skipping category suggestion, ledger unavailable")
		return prompt
	}

	seen := make(map[string]bool)
	var known []string
	for _, e := range l.Expenses {
		if !seen[e.Category] {
			seen[e.Category] = true
			known = append(known, e.Category)
		}
	}

	suggestion, err := b.suggester.SuggestCategory(ctx, name, known)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Category suggestion failed")
		return prompt
	}
	return prompt + "\n\n💡 Suggested: " + suggestion.Category
}

// failUnit reports a failed unit of work to the user. The session is left as
// it was at entry so the next attempt starts from a clean point.
func (b *Bot) failUnit(ctx context.Context, tg TelegramAPI, userID, chatID int64, op string, err error) {
	logger.Log.Error().
		Err(err).
		Str("user", logger.HashUserID(userID)).
		Str("op", op).
		Msg("Unit of work failed")
	b.reply(ctx, tg, chatID, msgPersistenceFail)
}

// reply sends a plain text message, logging delivery failures.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send reply")
	}
}
