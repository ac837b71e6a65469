package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/ratelimiter"
)

const (
	// Translation retries alone may take close to two minutes.
	updateProcessingTimeout = 5 * time.Minute
	downloadTimeout         = 30 * time.Second
)

type Bot struct {
	api          *tgbot.Bot
	rateLimiter  *ratelimiter.RateLimiter
	ctrl         *chat.Controller
	allowedUsers []int64
	client       *http.Client
	log          *slog.Logger
}

func New(
	token string,
	ctrl *chat.Controller,
	allowedUsers []int64,
	log *slog.Logger,
	opts ...tgbot.Option,
) (*Bot, error) {
	b := &Bot{
		rateLimiter:  ratelimiter.New(log),
		ctrl:         ctrl,
		allowedUsers: allowedUsers,
		client:       &http.Client{Timeout: downloadTimeout},
		log:          log,
	}

	opts = append([]tgbot.Option{
		tgbot.WithDefaultHandler(b.handleUpdate),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Failed to get updates",
				"error", err)
		}),
	}, opts...)

	api, err := tgbot.New(strings.TrimSpace(token), opts...)
	if err != nil {
		b.rateLimiter.Stop()
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b.api = api

	return b, nil
}

// Start registers the command list and polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	if _, err := b.api.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
		Commands: botCommands(),
	}); err != nil {
		b.log.ErrorContext(ctx, "Failed to set bot commands",
			"error", err)
	}

	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		chatID := message.Chat.ID

		if message.From == nil || !b.userAllowed(message.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"chatID", chatID,
				"chatType", message.Chat.Type)

			return
		}

		if err := b.handleMessage(updateCtx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", message.From.ID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery
		chatID, messageID := callbackMessage(callback)

		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"chatID", chatID,
				"username", callback.From.Username,
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", callback.From.ID,
				"data", callback.Data,
				"messageID", messageID)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func callbackMessage(callback *models.CallbackQuery) (int64, int) {
	switch {
	case callback.Message.Message != nil:
		return callback.Message.Message.Chat.ID, callback.Message.Message.ID
	case callback.Message.InaccessibleMessage != nil:
		return callback.Message.InaccessibleMessage.Chat.ID, callback.Message.InaccessibleMessage.MessageID
	default:
		return callback.From.ID, 0
	}
}

func botCommands() []models.BotCommand {
	return []models.BotCommand{
		{Command: "menu", Description: "Choose a mode"},
		{Command: "history", Description: "Show the conversation"},
		{Command: "reset", Description: "Start a new conversation"},
		{Command: "ingest", Description: "Index documents from https links"},
		{Command: "docs", Description: "List indexed documents"},
		{Command: "forget", Description: "Remove indexed documents"},
		{Command: "help", Description: "How to use the bot"},
	}
}
