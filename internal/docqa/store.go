package docqa

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

// Store is a per-chat document and chunk index.
type Store interface {
	FindDocumentByHash(ctx context.Context, chatID int64, hash string) (*domain.Document, error)
	InsertDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error
	ListDocuments(ctx context.Context, chatID int64) ([]domain.Document, error)
	Search(ctx context.Context, chatID int64, embedding []float32, limit int) ([]domain.ScoredChunk, error)
	DeleteDocuments(ctx context.Context, chatID int64) (int64, error)
}

type chunkDatabase interface {
	FindDocumentByHash(ctx context.Context, chatID int64, hash string) (*domain.Document, error)
	InsertDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error
	ListDocuments(ctx context.Context, chatID int64) ([]domain.Document, error)
	ListChunks(ctx context.Context, chatID int64) ([]domain.Chunk, error)
	DeleteDocuments(ctx context.Context, chatID int64) (int64, error)
}

// SQLiteStore keeps chunks in the application database and ranks them in
// process.
type SQLiteStore struct {
	chunkDatabase
}

func NewSQLiteStore(db chunkDatabase) *SQLiteStore {
	return &SQLiteStore{chunkDatabase: db}
}

func (s *SQLiteStore) Search(
	ctx context.Context,
	chatID int64,
	embedding []float32,
	limit int,
) ([]domain.ScoredChunk, error) {
	chunks, err := s.ListChunks(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	return rankChunks(chunks, embedding, limit), nil
}

// rankChunks orders chunks by cosine similarity, highest first. Chunks whose
// dimension differs from the query are skipped.
func rankChunks(chunks []domain.Chunk, query []float32, limit int) []domain.ScoredChunk {
	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != len(query) {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Similarity: cosineSimilarity(c.Embedding, query)})
	}

	slices.SortStableFunc(scored, func(a, b domain.ScoredChunk) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored
}

func cosineSimilarity(a []float32, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
