package docqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const (
	pgMaxConns        = 10
	pgMaxConnLifetime = time.Hour
	pgMaxConnIdleTime = 30 * time.Minute
	pgPingTimeout     = 5 * time.Second
)

const pgSchema = `create extension if not exists vector;

create table if not exists documents (
    id uuid primary key,
    chat_id bigint not null,
    name text not null,
    hash text not null,
    created_at timestamptz not null,
    unique (chat_id, hash)
);

create table if not exists document_chunks (
    id uuid primary key,
    document_id uuid not null references documents (id) on delete cascade,
    chat_id bigint not null,
    chunk_index integer not null,
    content text not null,
    embedding vector not null
);

create index if not exists document_chunks_chat_id_idx on document_chunks (chat_id);`

// PgvectorStore ranks chunks inside Postgres with the pgvector cosine
// distance operator.
type PgvectorStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPgvectorStore(ctx context.Context, connString string, log *slog.Logger) (*PgvectorStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = pgMaxConns
	config.MaxConnLifetime = pgMaxConnLifetime
	config.MaxConnIdleTime = pgMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pgPingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.InfoContext(ctx, "pgvector store is ready")

	return &PgvectorStore{pool: pool, log: log}, nil
}

func (s *PgvectorStore) Close() {
	s.pool.Close()
}

func (s *PgvectorStore) FindDocumentByHash(ctx context.Context, chatID int64, hash string) (*domain.Document, error) {
	var doc domain.Document
	err := s.pool.QueryRow(ctx,
		`select id::text, chat_id, name, hash, created_at
		from documents
		where chat_id = $1 and hash = $2`,
		chatID, hash,
	).Scan(&doc.ID, &doc.ChatID, &doc.Name, &doc.Hash, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // Not found is not an error here.
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	return &doc, nil
}

func (s *PgvectorStore) InsertDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.log.ErrorContext(ctx, "Failed to rollback transaction",
				"error", err,
				"operation", "InsertDocument")
		}
	}()

	_, err = tx.Exec(ctx,
		"insert into documents (id, chat_id, name, hash, created_at) values ($1, $2, $3, $4, $5)",
		doc.ID, doc.ChatID, doc.Name, doc.Hash, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`insert into document_chunks (id, document_id, chat_id, chunk_index, content, embedding)
			values ($1, $2, $3, $4, $5, $6)`,
			c.ID, doc.ID, doc.ChatID, c.Index, c.Content, pgvector.NewVector(c.Embedding))
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (s *PgvectorStore) ListDocuments(ctx context.Context, chatID int64) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx,
		`select id::text, chat_id, name, hash, created_at
		from documents
		where chat_id = $1
		order by created_at, name`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.ChatID, &doc.Name, &doc.Hash, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *PgvectorStore) Search(
	ctx context.Context,
	chatID int64,
	embedding []float32,
	limit int,
) ([]domain.ScoredChunk, error) {
	query := pgvector.NewVector(embedding)

	rows, err := s.pool.Query(ctx,
		`select id::text, document_id::text, chat_id, chunk_index, content, 1 - (embedding <=> $2)
		from document_chunks
		where chat_id = $1 and vector_dims(embedding) = $3
		order by embedding <=> $2
		limit $4`,
		chatID, query, len(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		var c domain.ScoredChunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChatID, &c.Index, &c.Content, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		scored = append(scored, c)
	}

	return scored, rows.Err()
}

func (s *PgvectorStore) DeleteDocuments(ctx context.Context, chatID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, "delete from documents where chat_id = $1", chatID)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}

	return tag.RowsAffected(), nil
}
