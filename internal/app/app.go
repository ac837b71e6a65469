package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/completion"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/config"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/database"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/docqa"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/nlp"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/sentiment"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/session"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/summarizer"
)

// App holds the wired components shared by the front-ends.
type App struct {
	Controller *chat.Controller
	Sessions   *session.Store

	closers []func() error
}

// New builds every component from cfg. Startup fails on the first component
// that cannot be created; components created so far are closed.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{}

	artifacts, err := sentiment.LoadArtifacts(
		cfg.SentimentModelPath,
		cfg.SentimentVectorizerPath,
		cfg.SentimentEncoderPath,
	)
	if err != nil {
		return nil, fmt.Errorf("load sentiment artifacts: %w", err)
	}
	log.InfoContext(ctx, "Sentiment artifacts are loaded",
		"labels", artifacts.Labels())

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create completion provider: %w", err), a.Close())
	}

	llm := completion.NewRetryingClient(
		provider,
		log,
		completion.WithMaxRetries(cfg.TranslateMaxRetries),
		completion.WithBackoff(cfg.TranslateBackoff),
		completion.WithTranslationCache(cfg.TranslateCacheSize, cfg.TranslateCacheTTL),
	)
	log.InfoContext(ctx, "Completion client is initialized",
		"provider", cfg.CompletionProvider,
		"maxRetries", cfg.TranslateMaxRetries,
		"backoff", cfg.TranslateBackoff.String())

	store, err := a.newDocumentStore(ctx, cfg, db, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("initialize document store: %w", err), a.Close())
	}
	log.InfoContext(ctx, "Document store is initialized",
		"store", cfg.DocQAStore,
		"embedder", cfg.EmbeddingProvider)

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create embedder: %w", err), a.Close())
	}

	docs := docqa.NewService(
		store,
		embedder,
		llm,
		log,
		docqa.WithChunker(docqa.NewChunker(cfg.DocQAChunkSize, cfg.DocQAChunkOverlap)),
		docqa.WithTopK(cfg.DocQATopK),
	)

	summ, err := summarizer.New(nlp.DefaultLexicon(), summarizer.WithTopK(cfg.SummaryTopK))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create summarizer: %w", err), a.Close())
	}

	a.Sessions = session.NewStore(db, log)
	a.Controller = chat.NewController(a.Sessions, summ, artifacts, llm, docs, log)

	return a, nil
}

// Close releases resources in reverse creation order.
func (a *App) Close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}

func newProvider(ctx context.Context, cfg config.Config) (completion.Provider, error) {
	if cfg.CompletionProvider == config.ProviderOpenAI {
		return completion.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	}

	provider, err := completion.NewGeminiProvider(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}

	return provider, nil
}

func newEmbedder(cfg config.Config) (docqa.Embedder, error) {
	if cfg.EmbeddingProvider == config.EmbedderOpenAI {
		return docqa.NewOpenAIEmbedder(cfg.OpenAIAPIKey), nil
	}

	embedder, err := docqa.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbedModel)
	if err != nil {
		return nil, err
	}

	return embedder, nil
}

func (a *App) newDocumentStore(
	ctx context.Context,
	cfg config.Config,
	db *database.Database,
	log *slog.Logger,
) (docqa.Store, error) {
	if cfg.DocQAStore != config.StorePgvector {
		return docqa.NewSQLiteStore(db), nil
	}

	store, err := docqa.NewPgvectorStore(ctx, cfg.PgvectorURL, log)
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})

	return store, nil
}
