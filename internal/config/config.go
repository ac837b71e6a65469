package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	EmbedderOpenAI = "openai"
	EmbedderOllama = "ollama"

	StoreSQLite   = "sqlite"
	StorePgvector = "pgvector"
)

type Config struct {
	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"       envDefault:"db.sqlite"`

	CompletionProvider string `env:"COMPLETION_PROVIDER" envDefault:"gemini"`
	GoogleAPIKey       string `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	GeminiModel        string `env:"GEMINI_MODEL"        envDefault:"gemini-1.5-flash"`
	OpenAIModel        string `env:"OPENAI_MODEL"        envDefault:"gpt-4o-mini"`

	SentimentModelPath      string `env:"SENTIMENT_MODEL_PATH,required,notEmpty"`
	SentimentVectorizerPath string `env:"SENTIMENT_VECTORIZER_PATH,required,notEmpty"`
	SentimentEncoderPath    string `env:"SENTIMENT_ENCODER_PATH,required,notEmpty"`

	TranslateMaxRetries int           `env:"TRANSLATE_MAX_RETRIES" envDefault:"10"`
	TranslateBackoff    time.Duration `env:"TRANSLATE_BACKOFF"     envDefault:"2s"`
	TranslateCacheSize  int           `env:"TRANSLATE_CACHE_SIZE"  envDefault:"1024"`
	TranslateCacheTTL   time.Duration `env:"TRANSLATE_CACHE_TTL"   envDefault:"6h"`

	SummaryTopK int `env:"SUMMARY_TOP_K" envDefault:"3"`

	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"ollama"`
	OllamaBaseURL     string `env:"OLLAMA_BASE_URL"    envDefault:"http://localhost:11434"`
	OllamaEmbedModel  string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`

	DocQAStore        string `env:"DOCQA_STORE"         envDefault:"sqlite"`
	PgvectorURL       string `env:"PGVECTOR_URL"`
	DocQAChunkSize    int    `env:"DOCQA_CHUNK_SIZE"    envDefault:"1000"`
	DocQAChunkOverlap int    `env:"DOCQA_CHUNK_OVERLAP" envDefault:"20"`
	DocQATopK         int    `env:"DOCQA_TOP_K"         envDefault:"5"`

	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL"   envDefault:"24h"`
	SessionSweepSpec string        `env:"SESSION_SWEEP_SPEC" envDefault:"*/15 * * * *"`
}

// Load reads the environment and validates the combination of settings.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate: %w", err)
	}

	return cfg, nil
}

// Validate reports every setting that depends on another one and is missing
// or out of range.
func (c Config) Validate() error {
	var errs []error

	switch c.CompletionProvider {
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for the gemini provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown COMPLETION_PROVIDER %q", c.CompletionProvider))
	}

	switch c.EmbeddingProvider {
	case EmbedderOllama:
	case EmbedderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai embedder"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider))
	}

	switch c.DocQAStore {
	case StoreSQLite:
	case StorePgvector:
		if c.PgvectorURL == "" {
			errs = append(errs, errors.New("PGVECTOR_URL is required for the pgvector store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DOCQA_STORE %q", c.DocQAStore))
	}

	if c.TranslateMaxRetries < 1 {
		errs = append(errs, errors.New("TRANSLATE_MAX_RETRIES must be positive"))
	}

	if c.TranslateBackoff < 0 {
		errs = append(errs, errors.New("TRANSLATE_BACKOFF must not be negative"))
	}

	if c.SummaryTopK < 1 {
		errs = append(errs, errors.New("SUMMARY_TOP_K must be positive"))
	}

	if c.DocQAChunkSize < 1 || c.DocQAChunkOverlap < 0 || c.DocQAChunkOverlap >= 100 {
		errs = append(errs, errors.New("DOCQA_CHUNK_SIZE must be positive and DOCQA_CHUNK_OVERLAP a percentage below 100"))
	}

	if c.DocQATopK < 1 {
		errs = append(errs, errors.New("DOCQA_TOP_K must be positive"))
	}

	return errors.Join(errs...)
}

// IsAllowed reports whether userID may use the bot. An empty list allows everyone.
func (c Config) IsAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}

	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}

	return false
}
