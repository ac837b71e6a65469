package config

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("SENTIMENT_MODEL_PATH", "model.json")
	t.Setenv("SENTIMENT_VECTORIZER_PATH", "vectorizer.json")
	t.Setenv("SENTIMENT_ENCODER_PATH", "encoder.json")
	t.Setenv("GOOGLE_API_KEY", "key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.CompletionProvider != ProviderGemini || cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("unexpected provider defaults: %q %q", cfg.CompletionProvider, cfg.GeminiModel)
	}

	if cfg.TranslateMaxRetries != 10 || cfg.TranslateBackoff != 2*time.Second {
		t.Errorf("unexpected retry defaults: %d %v", cfg.TranslateMaxRetries, cfg.TranslateBackoff)
	}

	if cfg.SummaryTopK != 3 || cfg.DBPath != "db.sqlite" {
		t.Errorf("unexpected defaults: %d %q", cfg.SummaryTopK, cfg.DBPath)
	}

	if cfg.SessionIdleTTL != 24*time.Hour || cfg.SessionSweepSpec != "*/15 * * * *" {
		t.Errorf("unexpected session defaults: %v %q", cfg.SessionIdleTTL, cfg.SessionSweepSpec)
	}
}

func TestLoadParsesValues(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_USERS", "1,42")
	t.Setenv("TRANSLATE_BACKOFF", "500ms")
	t.Setenv("DOCQA_STORE", StorePgvector)
	t.Setenv("PGVECTOR_URL", "postgres://localhost/chat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(cfg.AllowedUsers, []int64{1, 42}) {
		t.Errorf("unexpected allowed users: %v", cfg.AllowedUsers)
	}

	if cfg.TranslateBackoff != 500*time.Millisecond {
		t.Errorf("unexpected backoff: %v", cfg.TranslateBackoff)
	}

	if !cfg.IsAllowed(42) || cfg.IsAllowed(7) {
		t.Errorf("unexpected allowed user check")
	}
}

func TestLoadRequiresArtifacts(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("SENTIMENT_MODEL_PATH", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing artifact paths")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		CompletionProvider:  ProviderGemini,
		GoogleAPIKey:        "key",
		EmbeddingProvider:   EmbedderOllama,
		DocQAStore:          StoreSQLite,
		TranslateMaxRetries: 10,
		TranslateBackoff:    2 * time.Second,
		SummaryTopK:         3,
		DocQAChunkSize:      1000,
		DocQAChunkOverlap:   20,
		DocQATopK:           5,
	}

	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"Valid", func(*Config) {}, ""},
		{"Missing Gemini key", func(c *Config) { c.GoogleAPIKey = "" }, "GOOGLE_API_KEY"},
		{
			"Missing OpenAI key",
			func(c *Config) { c.CompletionProvider = ProviderOpenAI },
			"OPENAI_API_KEY is required for the openai provider",
		},
		{"Unknown provider", func(c *Config) { c.CompletionProvider = "claude" }, "COMPLETION_PROVIDER"},
		{
			"OpenAI embedder without key",
			func(c *Config) { c.EmbeddingProvider = EmbedderOpenAI },
			"openai embedder",
		},
		{"Pgvector without URL", func(c *Config) { c.DocQAStore = StorePgvector }, "PGVECTOR_URL"},
		{"Zero retries", func(c *Config) { c.TranslateMaxRetries = 0 }, "TRANSLATE_MAX_RETRIES"},
		{"Bad overlap", func(c *Config) { c.DocQAChunkOverlap = 100 }, "DOCQA_CHUNK_OVERLAP"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid
			test.modify(&cfg)

			err := cfg.Validate()
			if test.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("expected error containing %q, got %v", test.want, err)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	err := Config{CompletionProvider: "x", EmbeddingProvider: "y", DocQAStore: "z"}.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}

	for _, want := range []string{"COMPLETION_PROVIDER", "EMBEDDING_PROVIDER", "DOCQA_STORE", "SUMMARY_TOP_K"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}
