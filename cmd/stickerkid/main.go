package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/stickerkid/internal/bot"
	"github.com/m3rciful/stickerkid/internal/config"
	"github.com/m3rciful/stickerkid/internal/database"
	"github.com/m3rciful/stickerkid/internal/logger"
	"github.com/m3rciful/stickerkid/internal/sticker"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("stickerkid: %v", err)
	}
}

func run() error {
	startedAt := time.Now()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		DebugSample: cfg.Logging.DebugSample,
		Dir:         cfg.Logging.Dir,
		File:        cfg.Logging.File,
		Profile:     cfg.Logging.Profile,
	}); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	app := bot.New(cfg, sticker.NewPostgresStore(db))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Startup covers config, logger, DB connect and migrations.
	logger.L.With("component", "app").Info("starting",
		slog.String("event", "start"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return nil
}
