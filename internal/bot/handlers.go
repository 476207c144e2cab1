package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the Newsroom bot!

Daily news briefings, summarized from a set of RSS feeds.

Quick start:
1. /news — read the latest briefing
2. /dates — browse the archive
3. /articles <date> — see the original articles of a day

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Reading:
/news [date] — latest briefing, or the one for YYYY-MM-DD
/dates — archived dates
/articles <date> — original articles of a briefing

Administration:
/login <password> — unlock admin commands in this chat
/logout — lock them again
/feeds — list RSS feeds
/addfeed <url> — add an RSS feed
/rmfeed <n> — remove feed number n
/generate — collect feeds and write today's briefing
/delete <date> — delete an archived briefing
/stats — visitor statistics
/models — available generation models`)
}

func (b *Bot) handleLogin(chatID int64, messageID int, args string) {
	// The message carries the password; drop it from the chat history.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Debug("delete login message", "chat_id", chatID, "error", err)
	}
	if args == "" {
		b.reply(chatID, "Usage: /login <password>")
		return
	}
	if err := b.svc.Authorize(args); err != nil {
		b.log.Warn("failed admin login", "chat_id", chatID)
		b.reply(chatID, "Wrong password.")
		return
	}
	b.setAdmin(chatID, true)
	b.log.Info("admin login", "chat_id", chatID)
	b.reply(chatID, "Logged in. Admin commands are unlocked for this chat.")
}

func (b *Bot) handleLogout(chatID int64) {
	b.setAdmin(chatID, false)
	b.reply(chatID, "Logged out.")
}

func (b *Bot) handleDates(ctx context.Context, chatID int64) {
	dates, err := b.svc.ListDates(ctx)
	if err != nil {
		b.log.Warn("list dates", "error", err)
		b.reply(chatID, "Could not load the archive: "+describeError(err))
		return
	}
	if len(dates) == 0 {
		b.reply(chatID, "No briefings archived yet.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatDates(dates))
	msg.ReplyMarkup = datesKeyboard(dates)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send dates", "error", err)
	}
}

func (b *Bot) handleNews(ctx context.Context, chatID int64, args string) {
	brief, err := b.briefingFor(ctx, args)
	if err != nil {
		b.reply(chatID, describeError(err))
		return
	}
	if _, err := b.svc.RecordVisit(ctx); err != nil {
		b.log.Warn("record visit", "error", err)
	}
	b.reply(chatID, FormatBriefing(brief))
}

func (b *Bot) handleArticles(ctx context.Context, chatID int64, args string) {
	date, err := ParseDateArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /articles <YYYY-MM-DD>")
		return
	}
	brief, err := b.svc.ViewBriefing(ctx, date)
	if err != nil {
		b.reply(chatID, describeError(err))
		return
	}
	b.reply(chatID, FormatArticles(date, brief.RawData))
}

func (b *Bot) handleFeeds(ctx context.Context, chatID int64) {
	feeds, err := b.svc.ListFeeds(ctx)
	if err != nil {
		b.log.Warn("list feeds", "error", err)
		b.reply(chatID, "Warning: could not load the feed list: "+describeError(err))
		return
	}
	b.reply(chatID, FormatFeedList(feeds.URLs))
}

func (b *Bot) handleAddFeed(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /addfeed <url>")
		return
	}
	feeds, err := b.svc.AddFeed(ctx, args)
	if err != nil {
		b.reply(chatID, describeError(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Feed added: %s\nYou now have %d feed(s).", args, len(feeds.URLs)))
}

func (b *Bot) handleRemoveFeed(ctx context.Context, chatID int64, args string) {
	pos, err := ParsePosition(args)
	if err != nil {
		b.reply(chatID, "Usage: /rmfeed <n> (see /feeds for numbers)")
		return
	}
	url, err := b.svc.RemoveFeed(ctx, pos)
	if err != nil {
		b.reply(chatID, describeError(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Feed #%d removed: %s", pos, url))
}

func (b *Bot) handleGenerate(ctx context.Context, chatID int64) {
	b.reply(chatID, "Collecting feeds and writing the briefing. This can take a minute...")

	report, err := b.svc.Generate(ctx)
	if err != nil {
		b.reply(chatID, describeError(err))
		return
	}
	b.reply(chatID, FormatReport(report))
	b.reply(chatID, FormatBriefing(report.Briefing))
}

func (b *Bot) handleDeleteConfirm(ctx context.Context, chatID int64, args string) {
	date, err := ParseDateArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /delete <YYYY-MM-DD>")
		return
	}
	if _, err := b.svc.ViewBriefing(ctx, date); err != nil {
		b.reply(chatID, describeError(err))
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Delete the briefing for %s? This cannot be undone.", date))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, delete", cbDelete+":"+date),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel+":"+date),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send delete confirmation", "error", err)
	}
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, date string) {
	if err := b.svc.DeleteBriefing(ctx, date); err != nil {
		b.reply(chatID, "Delete failed: "+describeError(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Briefing for %s deleted.", date))
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	stats, err := b.svc.Stats(ctx)
	if err != nil {
		b.log.Warn("load stats", "error", err)
		b.reply(chatID, "Warning: could not load statistics: "+describeError(err))
		return
	}
	b.reply(chatID, FormatStats(stats, recentVisits))
}

func (b *Bot) handleModels(ctx context.Context, chatID int64) {
	models, err := b.svc.Models(ctx)
	if err != nil {
		b.reply(chatID, "Could not list models: "+describeError(err))
		return
	}
	b.reply(chatID, FormatModels(models))
}
