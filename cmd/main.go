package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/app"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/bot"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/config"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/scheduler"
)

var errTokenRequired = errors.New("TOKEN is required")

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return err
	}

	if cfg.Token == "" {
		err = errTokenRequired
		log.ErrorContext(ctx, "TOKEN is required",
			"envVar", "TOKEN")

		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize app",
			"error", err,
			"dbPath", cfg.DBPath)

		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close app",
				"error", closeErr,
				"dbPath", cfg.DBPath)
		}
	}()

	botInst, err := bot.New(cfg.Token, a.Controller, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return err
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, a.Sessions, cfg.SessionSweepSpec, cfg.SessionIdleTTL, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", sched.Spec())

		return err
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec(),
		"idleTTL", cfg.SessionIdleTTL.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	<-done
	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}
