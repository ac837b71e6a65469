package completion

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

type scriptedProvider struct {
	errs     []error
	text     string
	calls    int
	requests []Request
}

func (p *scriptedProvider) Complete(_ context.Context, req Request) (string, error) {
	p.calls++
	p.requests = append(p.requests, req)

	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return "", err
		}
	}

	return p.text, nil
}

type recordedSleep struct {
	waits []time.Duration
}

func (s *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func (s *recordedSleep) total() time.Duration {
	var total time.Duration
	for _, w := range s.waits {
		total += w
	}
	return total
}

func rateLimited() error {
	return &Error{Kind: KindRateLimited, StatusCode: 429, Message: "429 Resource has been exhausted"}
}

func repeat(err error, n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}

func newTestClient(p Provider, s *recordedSleep, opts ...Option) *RetryingClient {
	opts = append([]Option{WithSleep(s.sleep)}, opts...)
	return NewRetryingClient(p, slog.New(slog.DiscardHandler), opts...)
}

func TestTranslateSuccess(t *testing.T) {
	p := &scriptedProvider{text: "Bonjour"}
	s := &recordedSleep{}
	c := newTestClient(p, s)

	res := c.Translate(context.Background(), "Hello", "English", "French")

	if res.Outcome != OutcomeSuccess || res.Text != "Bonjour" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(s.waits) != 0 {
		t.Fatalf("expected no sleeps, got %v", s.waits)
	}

	want := `Translate the following text from English to French: "Hello"`
	if p.requests[0].Prompt != want {
		t.Fatalf("unexpected prompt: %q", p.requests[0].Prompt)
	}
}

func TestTranslateRecoversAfterRateLimit(t *testing.T) {
	p := &scriptedProvider{errs: repeat(rateLimited(), 2), text: "Hola"}
	s := &recordedSleep{}
	c := newTestClient(p, s)

	res := c.Translate(context.Background(), "Hello", "English", "Spanish")

	if res.Outcome != OutcomeSuccess || res.Text != "Hola" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if res.Attempts != 3 || p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d (calls %d)", res.Attempts, p.calls)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(s.waits) != len(want) || s.waits[0] != want[0] || s.waits[1] != want[1] {
		t.Fatalf("unexpected waits: %v", s.waits)
	}
}

func TestTranslateExhaustsRetries(t *testing.T) {
	p := &scriptedProvider{errs: repeat(rateLimited(), 100)}
	s := &recordedSleep{}
	c := newTestClient(p, s)

	res := c.Translate(context.Background(), "Hello", "English", "German")

	if res.Outcome != OutcomeExhausted {
		t.Fatalf("expected exhausted outcome, got %v", res.Outcome)
	}

	if res.Text != "Error: Failed to translate text after multiple attempts. Please try again later." {
		t.Fatalf("unexpected text: %q", res.Text)
	}

	if p.calls != DefaultMaxRetries {
		t.Fatalf("expected %d calls, got %d", DefaultMaxRetries, p.calls)
	}

	if got, want := s.total(), 110*time.Second; got != want {
		t.Fatalf("total sleep %v, want %v", got, want)
	}

	if Classify(res.Err) != KindRateLimited {
		t.Fatalf("expected last rate limit error to be kept, got %v", res.Err)
	}
}

func TestTranslateRetryBound(t *testing.T) {
	for _, retries := range []int{1, 3, 5} {
		p := &scriptedProvider{errs: repeat(rateLimited(), 100)}
		s := &recordedSleep{}
		c := newTestClient(p, s, WithMaxRetries(retries), WithBackoff(time.Second))

		c.Translate(context.Background(), "x", "English", "Hindi")

		if p.calls != retries {
			t.Errorf("retries=%d: expected %d calls, got %d", retries, retries, p.calls)
		}

		want := time.Duration(retries*(retries+1)/2) * time.Second
		if got := s.total(); got != want {
			t.Errorf("retries=%d: total sleep %v, want %v", retries, got, want)
		}
	}
}

func TestTranslatePermanentErrorDoesNotRetry(t *testing.T) {
	p := &scriptedProvider{errs: []error{&Error{Kind: KindPermanent, StatusCode: 400, Message: "API key not valid"}}}
	s := &recordedSleep{}
	c := newTestClient(p, s)

	res := c.Translate(context.Background(), "Hello", "English", "Bengali")

	if res.Outcome != OutcomePermanentFailure {
		t.Fatalf("expected permanent failure, got %v", res.Outcome)
	}

	if res.Text != "Error: API key not valid" {
		t.Fatalf("unexpected text: %q", res.Text)
	}

	if p.calls != 1 || len(s.waits) != 0 {
		t.Fatalf("expected a single attempt without sleeping, got %d calls and %v", p.calls, s.waits)
	}
}

func TestUntypedErrorsArePermanent(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("boom")}}
	s := &recordedSleep{}
	c := newTestClient(p, s)

	res := c.Complete(context.Background(), Request{Prompt: "hi"})

	if res.Outcome != OutcomePermanentFailure || res.Text != "Error: boom" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCompleteExhaustedText(t *testing.T) {
	p := &scriptedProvider{errs: repeat(rateLimited(), 10)}
	s := &recordedSleep{}
	c := newTestClient(p, s, WithMaxRetries(2))

	res := c.Complete(context.Background(), Request{Prompt: "hi"})

	if res.Text != "Error: Failed to generate a response after multiple attempts. Please try again later." {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestCompleteImageOnlyUsesAnalyzePrompt(t *testing.T) {
	p := &scriptedProvider{text: "A cat"}
	c := newTestClient(p, &recordedSleep{})
	img := &domain.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}}

	res := c.Complete(context.Background(), Request{Image: img})

	if !res.OK() || res.Text != "A cat" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if p.requests[0].Prompt != AnalyzeImagePrompt || p.requests[0].Image != img {
		t.Fatalf("unexpected request: %+v", p.requests[0])
	}
}

func TestCompleteRejectsEmptyRequest(t *testing.T) {
	p := &scriptedProvider{text: "unused"}
	c := newTestClient(p, &recordedSleep{})

	res := c.Complete(context.Background(), Request{})

	if res.Outcome != OutcomePermanentFailure || p.calls != 0 {
		t.Fatalf("expected rejection without provider call, got %+v (calls %d)", res, p.calls)
	}
}

func TestSleepCancellationStopsRetrying(t *testing.T) {
	p := &scriptedProvider{errs: repeat(rateLimited(), 10)}
	c := NewRetryingClient(p, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Translate(ctx, "Hello", "English", "French")

	if res.Outcome != OutcomePermanentFailure || p.calls != 1 {
		t.Fatalf("expected cancellation after first attempt, got %+v (calls %d)", res, p.calls)
	}

	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}
}

func TestTranslationCache(t *testing.T) {
	p := &scriptedProvider{text: "Hallo"}
	c := newTestClient(p, &recordedSleep{}, WithTranslationCache(4, time.Hour))

	first := c.Translate(context.Background(), "Hello", "English", "German")
	second := c.Translate(context.Background(), "Hello", "English", "German")
	other := c.Translate(context.Background(), "Hello", "English", "French")

	if first.Text != "Hallo" || second.Text != "Hallo" || other.Text != "Hallo" {
		t.Fatalf("unexpected results: %+v %+v %+v", first, second, other)
	}

	if p.calls != 2 {
		t.Fatalf("expected cached translation to skip the provider, got %d calls", p.calls)
	}
}

func TestTranslationCacheSkipsFailures(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("boom")}, text: "Hallo"}
	c := newTestClient(p, &recordedSleep{}, WithTranslationCache(4, time.Hour))

	c.Translate(context.Background(), "Hello", "English", "German")
	res := c.Translate(context.Background(), "Hello", "English", "German")

	if !res.OK() || p.calls != 2 {
		t.Fatalf("expected failure not to be cached, got %+v (calls %d)", res, p.calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Rate limited", rateLimited(), KindRateLimited},
		{"Wrapped rate limited", errors.Join(errors.New("context"), rateLimited()), KindRateLimited},
		{"Permanent", &Error{Kind: KindPermanent, Message: "bad request"}, KindPermanent},
		{"Plain error", errors.New("429 but untyped"), KindPermanent},
		{"Nil", nil, KindPermanent},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.want {
				t.Errorf("Classify() = %v, want %v", got, test.want)
			}
		})
	}
}
