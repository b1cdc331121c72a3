package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/thiha/finance-bot/internal/report"
	"gitlab.com/thiha/finance-bot/internal/session"
)

// extractCommandArgs strips the /command prefix (and optional @botname
// suffix) from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	text := `👋 Hi! I'm your personal finance tracker bot. Use these commands:

/add_expense - Record an expense
/add_income - Record an income
/balance - Show your overall balance
/report weekly - Weekly report
/report monthly - Monthly report
/chart weekly - Weekly expense chart
/set_limit - Set a spending limit`

	b.reply(ctx, tg, update.Message.Chat.ID, text)
}

// startFlow resets any in-progress flow and enters the given state. A command
// arriving mid-flow cancels the old flow and discards its pending fields.
func (b *Bot) startFlow(userID int64, state session.State) {
	now := b.now()
	sess := b.sessions.Get(userID, now)
	sess.Reset(now)
	sess.State = state
}

// handleSetLimit handles the /set_limit command.
func (b *Bot) handleSetLimit(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleSetLimitCore(ctx, tgBot, update)
}

// handleSetLimitCore is the testable implementation of handleSetLimit.
func (b *Bot) handleSetLimitCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	b.startFlow(update.Message.From.ID, session.StateAwaitingLimit)
	b.reply(ctx, tg, update.Message.Chat.ID, "Enter the spending limit amount (e.g. 1000000):")
}

// handleAddExpense handles the /add_expense command.
func (b *Bot) handleAddExpense(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleAddExpenseCore(ctx, tgBot, update)
}

// handleAddExpenseCore is the testable implementation of handleAddExpense.
func (b *Bot) handleAddExpenseCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	b.startFlow(update.Message.From.ID, session.StateAwaitingExpenseName)
	b.reply(ctx, tg, update.Message.Chat.ID, "Enter the expense name:")
}

// handleAddIncome handles the /add_income command.
func (b *Bot) handleAddIncome(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleAddIncomeCore(ctx, tgBot, update)
}

// handleAddIncomeCore is the testable implementation of handleAddIncome.
func (b *Bot) handleAddIncomeCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	b.startFlow(update.Message.From.ID, session.StateAwaitingIncomeSource)
	b.reply(ctx, tg, update.Message.Chat.ID, "Enter the income source (e.g. salary):")
}

// handleBalance handles the /balance command. Stateless: it reads the ledger
// fresh and never touches session state.
func (b *Bot) handleBalance(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleBalanceCore(ctx, tgBot, update)
}

// handleBalanceCore is the testable implementation of handleBalance.
func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	l, err := b.store.GetOrCreate(ctx, update.Message.From.ID)
	if err != nil {
		b.failUnit(ctx, tg, update.Message.From.ID, chatID, "load ledger", err)
		return
	}

	s := report.Summarize(l.Expenses, l.Incomes)
	b.reply(ctx, tg, chatID, fmt.Sprintf("💰 Balance: %s\nIncome: %s\nExpense: %s",
		s.Balance, s.TotalIncome, s.TotalExpense))
}

// handleReport handles the /report command. Stateless, like /balance.
func (b *Bot) handleReport(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleReportCore(ctx, tgBot, update)
}

// handleReportCore is the testable implementation of handleReport.
func (b *Bot) handleReportCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	period, err := report.ParsePeriod(extractCommandArgs(update.Message.Text, "/report"))
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ Usage: /report weekly or /report monthly.")
		return
	}

	l, err := b.store.GetOrCreate(ctx, update.Message.From.ID)
	if err != nil {
		b.failUnit(ctx, tg, update.Message.From.ID, chatID, "load ledger", err)
		return
	}

	now := b.now()
	expenses := report.FilterExpenses(l.Expenses, period, now)
	incomes := report.FilterIncomes(l.Incomes, period, now)
	s := report.Summarize(expenses, incomes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s report:\n\n", periodTitle(period))
	fmt.Fprintf(&sb, "Total income: %s\n", s.TotalIncome)
	fmt.Fprintf(&sb, "Total expense: %s\n", s.TotalExpense)
	fmt.Fprintf(&sb, "Net balance: %s\n\n", s.Balance)
	sb.WriteString("Expenses by category:\n")
	sb.WriteString(formatCategoryTotals(s))

	b.reply(ctx, tg, chatID, sb.String())
}

// formatCategoryTotals renders the category breakdown in a stable order, or
// an explicit "no expenses" line when the period has none.
func formatCategoryTotals(s report.Summary) string {
	if len(s.CategoryTotals) == 0 {
		return "No expenses"
	}

	categories := make([]string, 0, len(s.CategoryTotals))
	for cat := range s.CategoryTotals {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&sb, "%s: %s\n", cat, s.CategoryTotals[cat])
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func periodTitle(p report.Period) string {
	if p == report.PeriodWeekly {
		return "Weekly"
	}
	return "Monthly"
}
