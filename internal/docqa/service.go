package docqa

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/completion"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const (
	DefaultTopK = 5

	NoDocumentsMessage = "No documents have been processed yet. Upload PDF files first."
	NotInContextAnswer = "answer is not available in the context"
)

var ErrNoText = errors.New("document has no extractable text")

// Completer runs a prompt through the retrying completion client.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) completion.Result
}

type IngestReport struct {
	Added   []string
	Skipped []string
	Chunks  int
}

type Service struct {
	store    Store
	embedder Embedder
	llm      Completer
	fetcher  *Fetcher
	chunker  Chunker
	topK     int
	now      func() time.Time
	log      *slog.Logger
}

type Option func(s *Service)

func WithChunker(c Chunker) Option {
	return func(s *Service) {
		s.chunker = c
	}
}

func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

func WithFetcher(f *Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

func NewService(store Store, embedder Embedder, llm Completer, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		embedder: embedder,
		llm:      llm,
		fetcher:  NewFetcher(log),
		chunker:  NewChunker(DefaultChunkSize, DefaultChunkOverlap),
		topK:     DefaultTopK,
		now:      time.Now,
		log:      log,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest indexes every upload. A failing upload does not stop the others;
// all failures are joined into the returned error.
func (s *Service) Ingest(ctx context.Context, chatID int64, uploads []domain.Upload) (IngestReport, error) {
	var (
		report IngestReport
		errs   []error
	)

	for _, upload := range uploads {
		added, chunks, err := s.ingestOne(ctx, chatID, upload)
		if err != nil {
			errs = append(errs, fmt.Errorf("ingest %s: %w", upload.Name, err))
			continue
		}

		if !added {
			report.Skipped = append(report.Skipped, upload.Name)
			continue
		}

		report.Added = append(report.Added, upload.Name)
		report.Chunks += chunks
	}

	s.log.InfoContext(ctx, "Documents are ingested",
		"chatID", chatID,
		"added", len(report.Added),
		"skipped", len(report.Skipped),
		"chunks", report.Chunks,
		"failed", len(errs))

	return report, errors.Join(errs...)
}

// IngestURLs fetches and indexes every https link found in text.
func (s *Service) IngestURLs(ctx context.Context, chatID int64, text string) (IngestReport, error) {
	urls, err := FindURLs(text)
	if err != nil {
		return IngestReport{}, err
	}

	if len(urls) == 0 {
		return IngestReport{}, errors.New("no https links found")
	}

	var (
		uploads []domain.Upload
		errs    []error
	)

	for _, u := range urls {
		upload, fetchErr := s.fetcher.Fetch(ctx, u)
		if fetchErr != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", u, fetchErr))
			continue
		}
		uploads = append(uploads, upload)
	}

	report, err := s.Ingest(ctx, chatID, uploads)

	return report, errors.Join(append(errs, err)...)
}

func (s *Service) ingestOne(ctx context.Context, chatID int64, upload domain.Upload) (bool, int, error) {
	sum := sha256.Sum256(upload.Data)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.store.FindDocumentByHash(ctx, chatID, hash)
	if err != nil {
		return false, 0, fmt.Errorf("find document: %w", err)
	}
	if existing != nil {
		return false, 0, nil
	}

	text, err := ExtractText(upload)
	if err != nil {
		return false, 0, fmt.Errorf("extract text: %w", err)
	}

	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return false, 0, ErrNoText
	}

	doc := domain.Document{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Name:      upload.Name,
		Hash:      hash,
		CreatedAt: s.now(),
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			return false, 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			ChatID:     chatID,
			Index:      i,
			Content:    piece,
			Embedding:  embedding,
		})
	}

	if err := s.store.InsertDocument(ctx, doc, chunks); err != nil {
		return false, 0, fmt.Errorf("insert document: %w", err)
	}

	return true, len(chunks), nil
}

// Answer replies to question from the chat's documents. Service failures of
// the completion call are already user-facing text.
func (s *Service) Answer(ctx context.Context, chatID int64, question string) (string, error) {
	docs, err := s.store.ListDocuments(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		return NoDocumentsMessage, nil
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	chunks, err := s.store.Search(ctx, chatID, embedding, s.topK)
	if err != nil {
		return "", fmt.Errorf("search chunks: %w", err)
	}

	res := s.llm.Complete(ctx, completion.Request{Prompt: BuildPrompt(chunks, question)})

	return res.Text, nil
}

func (s *Service) Documents(ctx context.Context, chatID int64) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx, chatID)
}

func (s *Service) Forget(ctx context.Context, chatID int64) (int64, error) {
	return s.store.DeleteDocuments(ctx, chatID)
}

// BuildPrompt asks for an answer grounded only in the retrieved chunks.
func BuildPrompt(chunks []domain.ScoredChunk, question string) string {
	var sb strings.Builder

	sb.WriteString("Answer the question as detailed as possible from the provided context, ")
	sb.WriteString("make sure to provide all the details. If the answer is not in the provided context, ")
	sb.WriteString(`just say "` + NotInContextAnswer + `", don't provide the wrong answer.`)
	sb.WriteString("\n\nContext:\n")

	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(c.Content)
	}

	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\nAnswer:")

	return sb.String()
}
