package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/markdown"
)

const (
	sendSpinnerInterval = 3 * time.Second
	failedText          = "❌ Failed\\."
)

// sendMessageWithKeyboard sends MarkdownV2 text, split to Telegram's length
// limit. The keyboard goes with the last part.
func (b *Bot) sendMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard models.ReplyMarkup,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	parts := markdown.Split(normalizedText, markdown.MaxMessageLength)

	for i, part := range parts {
		params := &tgbot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
			// See https://core.telegram.org/bots/api#markdownv2-style.
			ParseMode:          models.ParseModeMarkdown,
			LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: tgbot.True()},
		}
		if i == len(parts)-1 {
			params.ReplyMarkup = keyboard
		}

		if err := b.rateLimiter.Send(ctx, chatID, func(ctx context.Context) error {
			_, err := b.api.SendMessage(ctx, params)
			return err
		}); err != nil {
			return fmt.Errorf("send message part %d/%d: %w", i+1, len(parts), err)
		}
	}

	return nil
}

// editMessageWithKeyboard replaces a menu message in place and falls back to
// a new message when there is nothing to edit.
func (b *Bot) editMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	messageID int,
	text string,
	keyboard models.InlineKeyboardMarkup,
) error {
	if messageID == 0 {
		return b.sendMessageWithKeyboard(ctx, chatID, text, keyboard)
	}

	err := b.rateLimiter.Send(ctx, chatID, func(ctx context.Context) error {
		_, err := b.api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdown,
			ReplyMarkup: keyboard,
		})
		return err
	})
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("edit message text: %w", err)
	}

	return nil
}

func (b *Bot) answerCallback(ctx context.Context, callbackID string, text string) error {
	return b.rateLimiter.Request(ctx, func(ctx context.Context) error {
		_, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
			ShowAlert:       text != "",
		})
		return err
	})
}

func (b *Bot) errorCallbackAnswer(ctx context.Context, callbackID string, err error) error {
	if sendErr := b.answerCallback(ctx, callbackID, "❌ Failed."); sendErr != nil {
		return errors.Join(err, fmt.Errorf("answer callback query: %w", sendErr))
	}
	return err
}

// sendFailure tells the user something went wrong and returns err joined
// with any send failure.
func (b *Bot) sendFailure(ctx context.Context, chatID int64, err error) error {
	if sendErr := b.sendMessageWithKeyboard(ctx, chatID, failedText, getReturnKeyboard()); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send message with keyboard: %w", sendErr))
	}
	return err
}

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	err := b.rateLimiter.Request(ctx, func(ctx context.Context) error {
		_, err := b.api.SendChatAction(ctx, &tgbot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		return err
	})
	if err != nil && ctx.Err() == nil {
		b.log.ErrorContext(ctx, "Failed to send chat action",
			"error", err,
			"chatID", chatID)
	}
}

func (b *Bot) withSpinner(ctx context.Context, chatID int64, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		b.sendTyping(ctx, chatID)

		t := time.NewTicker(sendSpinnerInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.sendTyping(ctx, chatID)
			}
		}
	}()

	return fn()
}
