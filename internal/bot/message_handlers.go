package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/markdown"
)

// Bot API getFile limit.
const maxDownloadBytes = 20 << 20

const defaultPhotoMIMEType = "image/jpeg"

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		chatID := message.Chat.ID
		command, args := parseCommand(message.Text)

		switch command {
		case "start", "help":
			return b.handleStartCommand(ctx, chatID)
		case "menu":
			return b.handleMenuCommand(ctx, chatID)
		case "history":
			return b.handleHistoryCommand(ctx, chatID)
		case "reset":
			return b.handleResetCommand(ctx, chatID)
		case "ingest":
			return b.handleIngestCommand(ctx, chatID, args)
		case "docs":
			return b.handleDocsCommand(ctx, chatID)
		case "forget":
			return b.handleForgetCommand(ctx, chatID)
		}

		switch {
		case message.Document != nil && !isImageDocument(message.Document):
			return b.handleDocument(ctx, chatID, message.Document)
		case message.Document != nil:
			return b.handleImage(ctx, chatID, message.Document.FileID, message.Document.MimeType, message.Caption)
		case len(message.Photo) > 0:
			// Sizes are ordered from smallest to largest.
			photo := message.Photo[len(message.Photo)-1]
			return b.handleImage(ctx, chatID, photo.FileID, defaultPhotoMIMEType, message.Caption)
		default:
			return b.handleInput(ctx, chatID, chat.Input{Text: message.Text})
		}
	})
}

func (b *Bot) handleImage(ctx context.Context, chatID int64, fileID string, mimeType string, caption string) error {
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("download image: %w", err))
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return b.handleInput(ctx, chatID, chat.Input{
		Text: caption,
		Image: &domain.Image{
			Ref:      fileID,
			MIMEType: mimeType,
			Data:     data,
		},
	})
}

func (b *Bot) handleDocument(ctx context.Context, chatID int64, document *models.Document) error {
	if document.FileSize > maxDownloadBytes {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ File is too large \\(20 MB max\\)\\.", getReturnKeyboard())
	}

	data, err := b.downloadFile(ctx, document.FileID)
	if err != nil {
		return b.sendFailure(ctx, chatID, fmt.Errorf("download document: %w", err))
	}

	report, err := b.ctrl.IngestDocuments(ctx, chatID, []domain.Upload{{
		Name:     document.FileName,
		MIMEType: document.MimeType,
		Data:     data,
	}})

	return b.sendIngestReport(ctx, chatID, report, err)
}

// handleInput submits the input and sends the assistant text. Validation
// problems are shown to the user and are not errors of the bot.
func (b *Bot) handleInput(ctx context.Context, chatID int64, in chat.Input) error {
	reply, err := b.ctrl.Submit(ctx, chatID, in)
	if err != nil {
		if chat.IsValidation(err) {
			return b.sendMessageWithKeyboard(
				ctx,
				chatID,
				"⚠️ "+markdown.EscapeV2(chat.UserMessage(err)),
				getReturnKeyboard(),
			)
		}

		return b.sendFailure(ctx, chatID, fmt.Errorf("submit input: %w", err))
	}

	for _, warning := range reply.Warnings {
		if err = b.sendMessageWithKeyboard(ctx, chatID, "⚠️ "+markdown.EscapeV2(warning), nil); err != nil {
			return fmt.Errorf("send warning: %w", err)
		}
	}

	return b.sendMessageWithKeyboard(ctx, chatID, markdown.EscapeV2(reply.Entry.Assistant), getReturnKeyboard())
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.api.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.client.Do(req) //nolint:gosec // Telegram file URL.
	if err != nil {
		// The URL carries the bot token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			b.log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"fileID", fileID)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDownloadBytes)
	}

	return data, nil
}

// parseCommand splits "/cmd@bot args" into "cmd" and "args". Text that is not
// a command yields an empty command.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	head, args, _ := strings.Cut(text, " ")
	command, _, _ := strings.Cut(strings.TrimPrefix(head, "/"), "@")

	return strings.ToLower(command), strings.TrimSpace(args)
}

func isImageDocument(document *models.Document) bool {
	return strings.HasPrefix(document.MimeType, "image/")
}
