package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/app"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/config"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/tui"
)

type options struct {
	session int64
	logPath string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "chatbot-tui",
		Short: "Terminal chat with the multimodal assistant",
		Long: `Start an interactive chat in the terminal. Configuration is read from the
environment, the same way the Telegram bot reads it.`,
		Example: `  # Resume the default local session
  $ chatbot-tui

  # Use a separate session and log file
  $ chatbot-tui --session 2 --log /tmp/chat.log`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Flags().Int64Var(&opts.session, "session", 0, "local session ID, sessions persist in DB_PATH")
	cmd.Flags().StringVar(&opts.logPath, "log", "chatbot-tui.log", "log file, the terminal belongs to the UI")

	return cmd
}

func run(ctx context.Context, opts options) error {
	logFile, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	log := slog.New(slog.NewJSONHandler(logFile, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize app",
			"error", err,
			"dbPath", cfg.DBPath)

		return fmt.Errorf("initialize app: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			log.ErrorContext(ctx, "Failed to close app",
				"error", closeErr)
		}
	}()

	log.InfoContext(ctx, "Terminal chat is started",
		"chatID", opts.session)

	if err = tui.NewProgram(a.Controller, opts.session).Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	return nil
}
