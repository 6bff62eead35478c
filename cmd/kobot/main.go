// Package main is the entry point for kobot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/kobot/internal/bot"
	"github.com/edgard/kobot/internal/config"
	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/internal/gateway/discord"
	"github.com/edgard/kobot/internal/gateway/telegram"
	"github.com/edgard/kobot/internal/logger"
	"github.com/edgard/kobot/internal/metrics"
	"github.com/edgard/kobot/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("kobot "+version, "platform", cfg.Platform, "level", cfg.Logger.Level)

	st, err := store.Open(ctx, cfg.StoreURL, log)
	if err != nil {
		log.Error("Failed to open listen store", "error", err)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close listen store", "error", err)
		}
	}()

	gw, err := newGateway(cfg, log)
	if err != nil {
		log.Error("Failed to create gateway client", "error", err)
		return 1
	}

	app, err := bot.Initialize(ctx, log, cfg, gw, st, metrics.New())
	if err != nil {
		log.Error("Failed to initialize bot", "error", err)
		return 1
	}

	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("kobot stopped")
	return 0
}

func newGateway(cfg *config.Config, log *slog.Logger) (gateway.Client, error) {
	switch cfg.Platform {
	case config.PlatformDiscord:
		return discord.New(cfg.Token, cfg.OwnerID, log)
	case config.PlatformTelegram:
		return telegram.New(cfg.Token, cfg.OwnerID, log)
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", config.ErrConfiguration, cfg.Platform)
	}
}
