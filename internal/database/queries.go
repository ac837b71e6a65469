package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

func (d *Database) GetSessionWithDefault(ctx context.Context, chatID int64) (*domain.Session, error) {
	query := `select chat_id, mode, image_panel_open, source_language, target_language, last_active
	from sessions
	where chat_id = ?`

	rows, err := d.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"chatID", chatID,
				"operation", "GetSessionWithDefault")
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate rows: %w", err)
		}
		return &domain.Session{ChatID: chatID}, nil
	}

	var (
		s    domain.Session
		mode string
	)
	if err = rows.Scan(&s.ChatID, &mode, &s.ImagePanelOpen, &s.SourceLanguage, &s.TargetLanguage, &s.LastActive); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	if s.Mode, err = domain.ParseMode(mode); err != nil {
		d.log.WarnContext(ctx, "Stored session has unknown mode, resetting",
			"error", err,
			"chatID", chatID)
		s.Mode = domain.ModeNone
	}

	return &s, nil
}

func (d *Database) UpsertSession(ctx context.Context, s *domain.Session) error {
	query := `insert into sessions (chat_id, mode, image_panel_open, source_language, target_language, last_active)
	values (?, ?, ?, ?, ?, ?)
	on conflict (chat_id) do update
	set mode = excluded.mode,
	image_panel_open = excluded.image_panel_open,
	source_language = excluded.source_language,
	target_language = excluded.target_language,
	last_active = excluded.last_active`

	_, err := d.db.ExecContext(ctx, query,
		s.ChatID,
		string(s.Mode),
		s.ImagePanelOpen,
		s.SourceLanguage,
		s.TargetLanguage,
		s.LastActive.UTC())

	return err
}

func (d *Database) AppendEntry(ctx context.Context, chatID int64, entry domain.ConversationEntry) error {
	var imageRef, imageMIMEType string
	if entry.Image != nil {
		imageRef = entry.Image.Ref
		imageMIMEType = entry.Image.MIMEType
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `insert into conversation_entries
	(chat_id, user_text, assistant_text, image_ref, image_mime_type, created_at)
	values (?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		chatID,
		entry.User,
		entry.Assistant,
		imageRef,
		imageMIMEType,
		createdAt.UTC())

	return err
}

// ListEntries returns the conversation in insertion order. Stored images
// carry only their reference, not their bytes.
func (d *Database) ListEntries(ctx context.Context, chatID int64) ([]domain.ConversationEntry, error) {
	query := `select user_text, assistant_text, image_ref, image_mime_type, created_at
	from conversation_entries
	where chat_id = ?
	order by id`

	rows, err := d.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"chatID", chatID,
				"operation", "ListEntries")
		}
	}()

	var entries []domain.ConversationEntry
	for rows.Next() {
		var (
			e                       domain.ConversationEntry
			imageRef, imageMIMEType string
		)
		if err = rows.Scan(&e.User, &e.Assistant, &imageRef, &imageMIMEType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if strings.TrimSpace(imageRef) != "" {
			e.Image = &domain.Image{Ref: imageRef, MIMEType: imageMIMEType}
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return entries, nil
}

// ResetSession drops the conversation and selection state of a chat.
// Ingested documents are kept.
func (d *Database) ResetSession(ctx context.Context, chatID int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer d.rollback(ctx, tx, "ResetSession")

	if _, err = tx.ExecContext(ctx, "delete from conversation_entries where chat_id = ?", chatID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "delete from sessions where chat_id = ?", chatID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
