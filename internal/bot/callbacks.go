package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdLogin    = "login"
	cmdDates    = "dates"
	cmdNews     = "news"
	cmdArticles = "articles"

	cbDelete = "delete"
	cbCancel = "cancel"
)

// maxDateButtons bounds the inline keyboard under /dates.
const maxDateButtons = 10

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, arg, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}

	var userID int64
	var username string
	if cb.From != nil {
		userID, username = cb.From.ID, cb.From.UserName
	}
	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", userID,
		"username", username,
	)

	switch action {
	case cmdNews:
		b.handleNews(ctx, chatID, arg)
	case cmdArticles:
		b.handleArticles(ctx, chatID, arg)
	case cbDelete:
		if b.requireAdmin(chatID) {
			b.handleDelete(ctx, chatID, arg)
		}
	case cbCancel:
		b.reply(chatID, "Deletion cancelled.")
	}
}

// datesKeyboard offers one button per recent date, two per row.
func datesKeyboard(dates []string) tgbotapi.InlineKeyboardMarkup {
	if len(dates) > maxDateButtons {
		dates = dates[:maxDateButtons]
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(dates); i += 2 {
		row := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(dates[i], cmdNews+":"+dates[i]))
		if i+1 < len(dates) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(dates[i+1], cmdNews+":"+dates[i+1]))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
