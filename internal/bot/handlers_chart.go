package bot

import (
	"bytes"
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/thiha/finance-bot/internal/logger"
	"gitlab.com/thiha/finance-bot/internal/report"
)

// handleChart handles the /chart command: the period's category breakdown as
// a pie chart image.
func (b *Bot) handleChart(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	period, err := report.ParsePeriod(extractCommandArgs(update.Message.Text, "/chart"))
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ Usage: /chart weekly or /chart monthly.")
		return
	}

	l, err := b.store.GetOrCreate(ctx, update.Message.From.ID)
	if err != nil {
		b.failUnit(ctx, tg, update.Message.From.ID, chatID, "load ledger", err)
		return
	}

	now := b.now()
	expenses := report.FilterExpenses(l.Expenses, period, now)
	s := report.Summarize(expenses, nil)

	if len(s.CategoryTotals) == 0 {
		b.reply(ctx, tg, chatID, "No expenses in this period.")
		return
	}

	title := fmt.Sprintf("Expense breakdown - %s", periodTitle(period))
	png, err := GenerateCategoryChart(s.CategoryTotals, title)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		b.reply(ctx, tg, chatID, "❌ Failed to generate the chart. Please try again.")
		return
	}

	filename := fmt.Sprintf("chart_%s_%s.png", period, now.UTC().Format("2006-01-02"))
	_, err = tg.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID: chatID,
		Photo: &tgmodels.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(png),
		},
		Caption: title,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
	}
}
