package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"newsroom/internal/app"
	"newsroom/internal/bot"
	"newsroom/internal/config"
	"newsroom/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireTelegram()
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open newsroom", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, a.Service, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	if cfg.HTTPAddr != "" {
		srv := web.NewServer(a.Service, log.With("component", "web"))
		go func() {
			if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
				log.Error("http viewer stopped", "error", err)
			}
		}()
	}

	log.Info("starting bot")

	b.Run(ctx)

	log.Info("bot stopped")
}
