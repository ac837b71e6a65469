package database_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/database"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "db.sqlite"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	log := slog.New(slog.DiscardHandler)

	for range 2 {
		db, err := database.New(context.Background(), path, log)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		_ = db.Close()
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	s, err := db.GetSessionWithDefault(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ChatID != 42 || s.Mode != domain.ModeNone || s.ImagePanelOpen {
		t.Fatalf("unexpected default session: %+v", s)
	}

	lastActive := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	want := &domain.Session{
		ChatID:         42,
		Mode:           domain.ModeTranslate,
		ImagePanelOpen: true,
		SourceLanguage: "English",
		TargetLanguage: "Hindi",
		LastActive:     lastActive,
	}

	if err = db.UpsertSession(ctx, want); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	want.Mode = domain.ModeSummarize
	if err = db.UpsertSession(ctx, want); err != nil {
		t.Fatalf("failed to upsert twice: %v", err)
	}

	got, err := db.GetSessionWithDefault(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Mode != domain.ModeSummarize || !got.ImagePanelOpen ||
		got.SourceLanguage != "English" || got.TargetLanguage != "Hindi" ||
		!got.LastActive.Equal(lastActive) {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestEntriesKeepOrderAndReset(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	entries := []domain.ConversationEntry{
		{User: "first", Assistant: "one"},
		{User: domain.ImageUploadedPlaceholder, Assistant: "a cat", Image: &domain.Image{Ref: "file-1", MIMEType: "image/png", Data: []byte{1}}},
		{User: "third", Assistant: "three"},
	}

	for _, e := range entries {
		if err := db.AppendEntry(ctx, 7, e); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	if err := db.AppendEntry(ctx, 8, domain.ConversationEntry{User: "other", Assistant: "chat"}); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	got, err := db.ListEntries(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}

	for i := range entries {
		if got[i].User != entries[i].User || got[i].Assistant != entries[i].Assistant {
			t.Errorf("entry %d: got %+v", i, got[i])
		}
	}

	if got[0].Image != nil || got[1].Image == nil || got[1].Image.Ref != "file-1" || got[1].Image.Data != nil {
		t.Fatalf("unexpected images: %+v %+v", got[0].Image, got[1].Image)
	}

	if err = db.ResetSession(ctx, 7); err != nil {
		t.Fatalf("failed to reset: %v", err)
	}

	if got, _ = db.ListEntries(ctx, 7); len(got) != 0 {
		t.Fatalf("expected empty conversation after reset, got %d", len(got))
	}

	if got, _ = db.ListEntries(ctx, 8); len(got) != 1 {
		t.Fatalf("reset must not touch other chats, got %d entries", len(got))
	}
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	doc := domain.Document{
		ID:        "doc-1",
		ChatID:    5,
		Name:      "report.pdf",
		Hash:      "abc",
		CreatedAt: time.Now(),
	}
	chunks := []domain.Chunk{
		{ID: "c-1", Index: 0, Content: "first chunk", Embedding: []float32{1, 0, 0.5}},
		{ID: "c-2", Index: 1, Content: "second chunk", Embedding: []float32{0, 1, -0.25}},
	}

	if err := db.InsertDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("failed to insert document: %v", err)
	}

	found, err := db.FindDocumentByHash(ctx, 5, "abc")
	if err != nil || found == nil || found.ID != "doc-1" {
		t.Fatalf("expected to find document, got %+v, %v", found, err)
	}

	if found, _ = db.FindDocumentByHash(ctx, 6, "abc"); found != nil {
		t.Fatalf("documents must be scoped per chat")
	}

	got, err := db.ListChunks(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 || got[1].Content != "second chunk" || got[1].DocumentID != "doc-1" {
		t.Fatalf("unexpected chunks: %+v", got)
	}

	if e := got[1].Embedding; len(e) != 3 || e[0] != 0 || e[1] != 1 || e[2] != -0.25 {
		t.Fatalf("unexpected embedding: %v", e)
	}

	if err = db.InsertDocument(ctx, doc, nil); err == nil {
		t.Fatalf("expected duplicate document to fail")
	}

	n, err := db.DeleteDocuments(ctx, 5)
	if err != nil || n != 1 {
		t.Fatalf("expected one deleted document, got %d, %v", n, err)
	}

	if got, _ = db.ListChunks(ctx, 5); len(got) != 0 {
		t.Fatalf("expected chunks to cascade, got %d", len(got))
	}
}
