package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	chatID, messageID := callbackMessage(callback)
	action, arg := parseCallback(callback.Data)

	var (
		status    chat.Status
		err       error
		languages bool
	)

	switch action {
	case actionMenu:
		status, err = b.ctrl.Status(ctx, chatID)
	case actionMode:
		status, err = b.ctrl.Select(ctx, chatID, domain.Mode(arg))
	case actionImageToggle:
		status, err = b.ctrl.ToggleImagePanel(ctx, chatID)
	case actionLanguages:
		languages = true
		status, err = b.ctrl.Status(ctx, chatID)
	case actionSource:
		languages = true
		status, err = b.ctrl.SetSourceLanguage(ctx, chatID, arg)
	case actionTarget:
		languages = true
		status, err = b.ctrl.SetTargetLanguage(ctx, chatID, arg)
	default:
		b.log.WarnContext(ctx, "Unknown callback data",
			"chatID", chatID,
			"data", callback.Data)

		return b.answerCallback(ctx, callback.ID, "")
	}

	if err != nil {
		return b.errorCallbackAnswer(ctx, callback.ID, fmt.Errorf("update session: %w", err))
	}

	var errs []error

	if err = b.answerCallback(ctx, callback.ID, status.Warning()); err != nil {
		errs = append(errs, fmt.Errorf("answer callback query: %w", err))
	}

	keyboard := getMenuKeyboard(status.Session)
	if languages {
		keyboard = getLanguagesKeyboard(status.Session)
	}

	if err = b.editMessageWithKeyboard(ctx, chatID, messageID, renderStatus(status), keyboard); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
