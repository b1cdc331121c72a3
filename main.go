// Package main is the entry point for the finance tracker Telegram bot.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"gitlab.com/thiha/finance-bot/internal/bot"
	"gitlab.com/thiha/finance-bot/internal/config"
	"gitlab.com/thiha/finance-bot/internal/database"
	"gitlab.com/thiha/finance-bot/internal/gemini"
	"gitlab.com/thiha/finance-bot/internal/ledger"
	"gitlab.com/thiha/finance-bot/internal/logger"
	"gitlab.com/thiha/finance-bot/internal/server"
	"gitlab.com/thiha/finance-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("finance-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Log.Error().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	var suggester *gemini.Client
	if cfg.GeminiAPIKey != "" {
		suggester, err = gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		logger.Log.Info().Msg("Category suggestions enabled")
	}

	financeBot, err := bot.New(cfg, ledger.NewPostgresStore(pool), suggester)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	var webhook http.Handler
	webhookPath := ""
	if cfg.WebhookEnabled() {
		webhook = financeBot.WebhookHandler()
		webhookPath = financeBot.WebhookPath()
	}
	httpServer := server.New(cfg.Port, pool, webhookPath, webhook)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(ctx) })
	g.Go(func() error { return financeBot.Start(ctx) })

	if err := g.Wait(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Service exited with error")
	}
}
