package chat_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/completion"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/docqa"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/session"
)

type calls struct {
	log []string
}

func (c *calls) add(s string) {
	c.log = append(c.log, s)
}

type fakeSummarizer struct{ c *calls }

func (f fakeSummarizer) Summarize(p string) string {
	f.c.add("summarize")
	return "summary of " + p
}

type fakeClassifier struct {
	c   *calls
	err error
}

func (f fakeClassifier) Classify(string) (string, error) {
	f.c.add("sentiment")
	return "positive", f.err
}

type fakeCompleter struct {
	c        *calls
	requests []completion.Request
}

func (f *fakeCompleter) Translate(_ context.Context, text, source, target string) completion.Result {
	f.c.add("translate")
	return completion.Result{Outcome: completion.OutcomeSuccess, Text: source + "->" + target + ": " + text}
}

func (f *fakeCompleter) Complete(_ context.Context, req completion.Request) completion.Result {
	f.c.add("complete")
	f.requests = append(f.requests, req)
	return completion.Result{Outcome: completion.OutcomeSuccess, Text: "generic answer"}
}

type fakeDocs struct {
	c   *calls
	err error
}

func (f fakeDocs) Ingest(context.Context, int64, []domain.Upload) (docqa.IngestReport, error) {
	f.c.add("ingest")
	return docqa.IngestReport{Added: []string{"a.pdf"}}, nil
}

func (f fakeDocs) IngestURLs(context.Context, int64, string) (docqa.IngestReport, error) {
	f.c.add("ingestURLs")
	return docqa.IngestReport{}, f.err
}

func (f fakeDocs) Answer(context.Context, int64, string) (string, error) {
	f.c.add("pdf_chat")
	return "from documents", f.err
}

func (f fakeDocs) Documents(context.Context, int64) ([]domain.Document, error) {
	return nil, nil
}

func (f fakeDocs) Forget(context.Context, int64) (int64, error) {
	return 0, nil
}

type fixture struct {
	calls     *calls
	completer *fakeCompleter
	ctrl      *chat.Controller
}

func newFixture(classifyErr error, docsErr error) *fixture {
	c := &calls{}
	completer := &fakeCompleter{c: c}
	log := slog.New(slog.DiscardHandler)

	ctrl := chat.NewController(
		session.NewStore(nil, log),
		fakeSummarizer{c: c},
		fakeClassifier{c: c, err: classifyErr},
		completer,
		fakeDocs{c: c, err: docsErr},
		log,
	)

	return &fixture{calls: c, completer: completer, ctrl: ctrl}
}

func TestSubmitDispatchesByMode(t *testing.T) {
	tests := []struct {
		name      string
		mode      domain.Mode
		languages bool
		wantCall  string
		wantText  string
		warnings  []string
	}{
		{"No mode", domain.ModeNone, false, "complete", "generic answer", nil},
		{"Summarize", domain.ModeSummarize, false, "summarize", "summary of hello", nil},
		{"Sentiment", domain.ModeSentiment, false, "sentiment", "positive", nil},
		{"Translate", domain.ModeTranslate, true, "translate", "English->French: hello", nil},
		{
			"Translate without languages falls back",
			domain.ModeTranslate,
			false,
			"complete",
			"generic answer",
			[]string{chat.MissingLanguagesWarning},
		},
		{"PDF chat", domain.ModePDFChat, false, "pdf_chat", "from documents", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(nil, nil)
			ctx := context.Background()

			if test.mode != domain.ModeNone {
				if _, err := f.ctrl.Select(ctx, 1, test.mode); err != nil {
					t.Fatalf("failed to select: %v", err)
				}
			}

			if test.languages {
				if _, err := f.ctrl.SetLanguages(ctx, 1, "English", "French"); err != nil {
					t.Fatalf("failed to set languages: %v", err)
				}
			}

			reply, err := f.ctrl.Submit(ctx, 1, chat.Input{Text: "  hello  "})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !slices.Equal(f.calls.log, []string{test.wantCall}) {
				t.Fatalf("expected exactly one %q call, got %v", test.wantCall, f.calls.log)
			}

			if reply.Entry.User != "hello" || reply.Entry.Assistant != test.wantText {
				t.Fatalf("unexpected entry: %+v", reply.Entry)
			}

			if !slices.Equal(reply.Warnings, test.warnings) {
				t.Fatalf("unexpected warnings: %v", reply.Warnings)
			}

			if len(reply.Conversation) != 1 || reply.Conversation[0] != reply.Entry {
				t.Fatalf("expected the entry in the transcript, got %+v", reply.Conversation)
			}
		})
	}
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.ctrl.Submit(context.Background(), 1, chat.Input{Text: " \n "})
	if !errors.Is(err, chat.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	if !chat.IsValidation(err) || chat.UserMessage(err) != chat.EmptyInputMessage {
		t.Fatalf("unexpected user message: %q", chat.UserMessage(err))
	}

	history, _ := f.ctrl.History(context.Background(), 1)
	if len(history) != 0 || len(f.calls.log) != 0 {
		t.Fatalf("nothing must happen on empty input, got %v and %v", history, f.calls.log)
	}
}

func TestSubmitBlockedByConflict(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()

	_, _ = f.ctrl.ToggleImagePanel(ctx, 1)
	status, _ := f.ctrl.Select(ctx, 1, domain.ModeSummarize)

	if !status.Conflict || status.Warning() != session.ConflictWarning {
		t.Fatalf("expected conflict status, got %+v", status)
	}

	_, err := f.ctrl.Submit(ctx, 1, chat.Input{Text: "hello"})
	if !errors.Is(err, session.ErrModeConflict) {
		t.Fatalf("expected ErrModeConflict, got %v", err)
	}

	if chat.UserMessage(err) != session.ConflictWarning {
		t.Fatalf("unexpected user message: %q", chat.UserMessage(err))
	}

	if len(f.calls.log) != 0 {
		t.Fatalf("no backend may run during a conflict, got %v", f.calls.log)
	}
}

func TestSubmitImage(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()
	img := &domain.Image{Ref: "photo", MIMEType: "image/jpeg", Data: []byte{1}}

	if _, err := f.ctrl.Submit(ctx, 1, chat.Input{Image: img}); !errors.Is(err, chat.ErrImagePanelClosed) {
		t.Fatalf("expected ErrImagePanelClosed, got %v", err)
	}

	_, _ = f.ctrl.ToggleImagePanel(ctx, 1)

	reply, err := f.ctrl.Submit(ctx, 1, chat.Input{Image: img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Entry.User != domain.ImageUploadedPlaceholder || reply.Entry.Image != img {
		t.Fatalf("unexpected image entry: %+v", reply.Entry)
	}

	req := f.completer.requests[0]
	if req.Prompt != "" || req.Image != img {
		t.Fatalf("expected image-only request, got %+v", req)
	}

	reply, err = f.ctrl.Submit(ctx, 1, chat.Input{Text: "What is this?", Image: img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Entry.User != "What is this?" || len(reply.Conversation) != 2 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestBackendErrorsBecomeAssistantText(t *testing.T) {
	f := newFixture(errors.New("model not loaded"), errors.New("index offline"))
	ctx := context.Background()

	_, _ = f.ctrl.Select(ctx, 1, domain.ModeSentiment)
	reply, err := f.ctrl.Submit(ctx, 1, chat.Input{Text: "great"})
	if err != nil || reply.Entry.Assistant != "Error: model not loaded" {
		t.Fatalf("unexpected sentiment failure handling: %+v, %v", reply.Entry, err)
	}

	_, _ = f.ctrl.Select(ctx, 1, domain.ModePDFChat)
	reply, err = f.ctrl.Submit(ctx, 1, chat.Input{Text: "question"})
	if err != nil || reply.Entry.Assistant != "Error: index offline" {
		t.Fatalf("unexpected document failure handling: %+v, %v", reply.Entry, err)
	}

	if len(reply.Conversation) != 2 {
		t.Fatalf("failed backends still append entries, got %d", len(reply.Conversation))
	}
}

func TestHistoryKeepsInsertionOrderAndReset(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if _, err := f.ctrl.Submit(ctx, 5, chat.Input{Text: text}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history, err := f.ctrl.History(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var users []string
	for _, e := range history {
		users = append(users, e.User)
	}

	if !slices.Equal(users, []string{"one", "two", "three"}) {
		t.Fatalf("unexpected order: %v", users)
	}

	if err = f.ctrl.Reset(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if history, _ = f.ctrl.History(ctx, 5); len(history) != 0 {
		t.Fatalf("expected empty history after reset, got %d", len(history))
	}
}

func TestSetLanguagesRejectsUnknown(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.ctrl.SetSourceLanguage(context.Background(), 1, "Latin")
	if !errors.Is(err, session.ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestIngestURLsWrapsErrors(t *testing.T) {
	f := newFixture(nil, errors.New("no https links found"))

	_, err := f.ctrl.IngestURLs(context.Background(), 1, "nothing")
	if err == nil || chat.IsValidation(err) {
		t.Fatalf("expected backend error, got %v", err)
	}

	if chat.UserMessage(err) != "Error: ingest URLs: no https links found" {
		t.Fatalf("unexpected user message: %q", chat.UserMessage(err))
	}
}
