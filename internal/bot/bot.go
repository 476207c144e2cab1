package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newsroom/internal/config"
	"newsroom/internal/newsroom"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front end of the newsroom.
type Bot struct {
	api telegramAPI
	svc *newsroom.Service
	cfg *config.Config
	log *slog.Logger

	mu sync.Mutex
	// admins holds the chats that passed /login.
	admins map[int64]bool
}

// New creates a Bot with the given Telegram token and service.
func New(token string, svc *newsroom.Service, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, svc, cfg, log), nil
}

func newBot(api telegramAPI, svc *newsroom.Service, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:    api,
		svc:    svc,
		cfg:    cfg,
		log:    log,
		admins: make(map[int64]bool),
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				b.log.Info("updates channel closed")
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if update.CallbackQuery.From == nil || !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
		b.reply(update.Message.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, update.Message)
}

// SendMessage sends text to the given chat, split into as many messages as
// the Telegram length limit requires.
func (b *Bot) SendMessage(chatID int64, text string) {
	for _, chunk := range SplitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.DisableWebPagePreview = true
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) isAdmin(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.admins[chatID]
}

func (b *Bot) setAdmin(chatID int64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		b.admins[chatID] = true
	} else {
		delete(b.admins, chatID)
	}
}

// requireAdmin replies with a login hint and returns false for chats that
// are not logged in.
func (b *Bot) requireAdmin(chatID int64) bool {
	if b.isAdmin(chatID) {
		return true
	}
	b.reply(chatID, "Admin login required. Use /login <password>.")
	return false
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	if cmd == cmdLogin {
		b.log.Debug("command", "cmd", cmd, "chat_id", chatID)
		b.handleLogin(chatID, msg.MessageID, args)
		return
	}
	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdDates:
		b.handleDates(ctx, chatID)
	case cmdNews:
		b.handleNews(ctx, chatID, args)
	case cmdArticles:
		b.handleArticles(ctx, chatID, args)
	case "logout":
		b.handleLogout(chatID)
	case "feeds":
		if b.requireAdmin(chatID) {
			b.handleFeeds(ctx, chatID)
		}
	case "addfeed":
		if b.requireAdmin(chatID) {
			b.handleAddFeed(ctx, chatID, args)
		}
	case "rmfeed":
		if b.requireAdmin(chatID) {
			b.handleRemoveFeed(ctx, chatID, args)
		}
	case "generate":
		if b.requireAdmin(chatID) {
			b.handleGenerate(ctx, chatID)
		}
	case "delete":
		if b.requireAdmin(chatID) {
			b.handleDeleteConfirm(ctx, chatID, args)
		}
	case "stats":
		if b.requireAdmin(chatID) {
			b.handleStats(ctx, chatID)
		}
	case "models":
		if b.requireAdmin(chatID) {
			b.handleModels(ctx, chatID)
		}
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
