package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxRetries = 10
	DefaultBackoff    = 2 * time.Second

	AnalyzeImagePrompt = "Analyze this image"

	translateExhaustedText = "Error: Failed to translate text after multiple attempts. Please try again later."
	completeExhaustedText  = "Error: Failed to generate a response after multiple attempts. Please try again later."
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePermanentFailure
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result always carries user-facing Text, including for failures.
type Result struct {
	Outcome  Outcome
	Text     string
	Attempts int
	Err      error
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryingClient wraps a Provider with linear backoff on rate limits.
type RetryingClient struct {
	provider   Provider
	maxRetries int
	backoff    time.Duration
	sleep      SleepFunc
	now        func() time.Time
	cache      *translationCache
	log        *slog.Logger
}

type Option func(c *RetryingClient)

func WithMaxRetries(n int) Option {
	return func(c *RetryingClient) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(c *RetryingClient) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(c *RetryingClient) {
		c.sleep = sleep
	}
}

// WithTranslationCache keeps up to maxEntries successful translations for
// ttl. A zero size or ttl disables caching.
func WithTranslationCache(maxEntries int, ttl time.Duration) Option {
	return func(c *RetryingClient) {
		c.cache = newTranslationCache(maxEntries, ttl)
	}
}

func NewRetryingClient(provider Provider, log *slog.Logger, opts ...Option) *RetryingClient {
	c := &RetryingClient{
		provider:   provider,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		sleep:      sleepContext,
		now:        time.Now,
		log:        log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func TranslationPrompt(text string, source string, target string) string {
	return fmt.Sprintf("Translate the following text from %s to %s: \"%s\"", source, target, text)
}

func (c *RetryingClient) Translate(ctx context.Context, text string, source string, target string) Result {
	pair := newLanguagePair(source, target)
	if cached, ok := c.cache.lookup(pair, text, c.now()); ok {
		return Result{Outcome: OutcomeSuccess, Text: cached}
	}

	res := c.run(ctx, Request{Prompt: TranslationPrompt(text, source, target)}, translateExhaustedText)
	if res.OK() {
		c.cache.store(pair, text, res.Text, c.now())
	}

	return res
}

// Complete runs the generic multimodal path. An image without a prompt is
// sent with AnalyzeImagePrompt.
func (c *RetryingClient) Complete(ctx context.Context, req Request) Result {
	if req.Prompt == "" && req.Image != nil {
		req.Prompt = AnalyzeImagePrompt
	}

	if err := req.validate(); err != nil {
		return permanentFailure(err, 0)
	}

	return c.run(ctx, req, completeExhaustedText)
}

func (c *RetryingClient) run(ctx context.Context, req Request, exhaustedText string) Result {
	var lastErr error

	for attempt := range c.maxRetries {
		text, err := c.provider.Complete(ctx, req)
		if err == nil {
			return Result{Outcome: OutcomeSuccess, Text: text, Attempts: attempt + 1}
		}

		if Classify(err) != KindRateLimited {
			c.log.ErrorContext(ctx, "Failed to complete request",
				"error", err,
				"attempt", attempt+1)

			return permanentFailure(err, attempt+1)
		}

		lastErr = err
		wait := time.Duration(attempt+1) * c.backoff

		c.log.WarnContext(ctx, "Rate limit exceeded, retrying",
			"attempt", attempt+1,
			"maxRetries", c.maxRetries,
			"wait", wait.String())

		if err := c.sleep(ctx, wait); err != nil {
			return permanentFailure(err, attempt+1)
		}
	}

	c.log.ErrorContext(ctx, "Rate limit retries exhausted",
		"error", lastErr,
		"attempts", c.maxRetries)

	return Result{
		Outcome:  OutcomeExhausted,
		Text:     exhaustedText,
		Attempts: c.maxRetries,
		Err:      lastErr,
	}
}

func permanentFailure(err error, attempts int) Result {
	return Result{
		Outcome:  OutcomePermanentFailure,
		Text:     "Error: " + err.Error(),
		Attempts: attempts,
		Err:      err,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait for retry: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
