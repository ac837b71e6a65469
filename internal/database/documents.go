package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

func (d *Database) FindDocumentByHash(ctx context.Context, chatID int64, hash string) (*domain.Document, error) {
	query := `select id, chat_id, name, hash, created_at
	from documents
	where chat_id = ? and hash = ?`

	var doc domain.Document
	err := d.db.QueryRowContext(ctx, query, chatID, hash).
		Scan(&doc.ID, &doc.ChatID, &doc.Name, &doc.Hash, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Not found is not an error here.
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &doc, nil
}

// InsertDocument stores a document and its chunks atomically.
func (d *Database) InsertDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer d.rollback(ctx, tx, "InsertDocument")

	_, err = tx.ExecContext(ctx,
		"insert into documents (id, chat_id, name, hash, created_at) values (?, ?, ?, ?, ?)",
		doc.ID, doc.ChatID, doc.Name, doc.Hash, doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `insert into document_chunks
	(id, document_id, chat_id, chunk_index, content, embedding)
	values (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err = stmt.ExecContext(ctx, c.ID, doc.ID, doc.ChatID, c.Index, c.Content, pgvector.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (d *Database) ListDocuments(ctx context.Context, chatID int64) ([]domain.Document, error) {
	query := `select id, chat_id, name, hash, created_at
	from documents
	where chat_id = ?
	order by created_at, name`

	rows, err := d.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"chatID", chatID,
				"operation", "ListDocuments")
		}
	}()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err = rows.Scan(&doc.ID, &doc.ChatID, &doc.Name, &doc.Hash, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return docs, nil
}

// ListChunks returns every chunk of a chat with its embedding.
func (d *Database) ListChunks(ctx context.Context, chatID int64) ([]domain.Chunk, error) {
	query := `select id, document_id, chat_id, chunk_index, content, embedding
	from document_chunks
	where chat_id = ?
	order by document_id, chunk_index`

	rows, err := d.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"chatID", chatID,
				"operation", "ListChunks")
		}
	}()

	var chunks []domain.Chunk
	for rows.Next() {
		var (
			c         domain.Chunk
			embedding pgvector.Vector
		)
		if err = rows.Scan(&c.ID, &c.DocumentID, &c.ChatID, &c.Index, &c.Content, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		c.Embedding = embedding.Slice()
		chunks = append(chunks, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return chunks, nil
}

// DeleteDocuments removes every document of a chat; chunks cascade.
func (d *Database) DeleteDocuments(ctx context.Context, chatID int64) (int64, error) {
	res, err := d.db.ExecContext(ctx, "delete from documents where chat_id = ?", chatID)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get affected rows: %w", err)
	}

	return n, nil
}

func (d *Database) rollback(ctx context.Context, tx *sql.Tx, operation string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		d.log.ErrorContext(ctx, "Failed to rollback transaction",
			"error", err,
			"operation", operation)
	}
}
