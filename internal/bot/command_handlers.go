package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/docqa"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/markdown"
)

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	if err := b.sendMessageWithKeyboard(ctx, chatID, welcomeText, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return b.handleMenuCommand(ctx, chatID)
}

func (b *Bot) handleMenuCommand(ctx context.Context, chatID int64) error {
	status, err := b.ctrl.Status(ctx, chatID)
	if err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("get status: %w", err))
	}

	return b.sendMessageWithKeyboard(ctx, chatID, renderStatus(status), getMenuKeyboard(status.Session))
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64) error {
	conversation, err := b.ctrl.History(ctx, chatID)
	if err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("get history: %w", err))
	}

	return b.sendMessageWithKeyboard(ctx, chatID, renderHistory(conversation), getReturnKeyboard())
}

func (b *Bot) handleResetCommand(ctx context.Context, chatID int64) error {
	if err := b.ctrl.Reset(ctx, chatID); err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("reset session: %w", err))
	}

	return b.sendMessageWithKeyboard(ctx, chatID, "✅ Conversation is reset\\.", getReturnKeyboard())
}

func (b *Bot) handleIngestCommand(ctx context.Context, chatID int64, text string) error {
	report, err := b.ctrl.IngestURLs(ctx, chatID, text)

	return b.sendIngestReport(ctx, chatID, report, err)
}

func (b *Bot) handleDocsCommand(ctx context.Context, chatID int64) error {
	docs, err := b.ctrl.Documents(ctx, chatID)
	if err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("list documents: %w", err))
	}

	return b.sendMessageWithKeyboard(ctx, chatID, renderDocuments(docs), getReturnKeyboard())
}

func (b *Bot) handleForgetCommand(ctx context.Context, chatID int64) error {
	removed, err := b.ctrl.ForgetDocuments(ctx, chatID)
	if err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("forget documents: %w", err))
	}

	return b.sendMessageWithKeyboard(
		ctx,
		chatID,
		fmt.Sprintf("✅ %d documents are removed\\.", removed),
		getReturnKeyboard(),
	)
}

// sendIngestReport reports what was indexed. Partial failures are shown
// to the user and still returned for logging.
func (b *Bot) sendIngestReport(ctx context.Context, chatID int64, report docqa.IngestReport, err error) error {
	var errs []error

	text := renderReport(report)
	if err != nil {
		errs = append(errs, err)
		text += "\n\n⚠️ " + markdown.EscapeV2(err.Error())
	}

	if sendErr := b.sendMessageWithKeyboard(ctx, chatID, text, getReturnKeyboard()); sendErr != nil {
		errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return errors.Join(errs...)
}
