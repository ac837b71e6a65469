package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/completion"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/docqa"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/session"
)

const (
	EmptyInputMessage       = "Please provide either a text input or an image."
	MissingLanguagesWarning = "Please select both source and target languages."
	ImagePanelClosedMessage = "Open the image panel before sending an image."
	ModeSelectedInfo        = "You have selected an option. Proceed with your input for the corresponding action."
)

var (
	ErrEmptyInput       = errors.New("neither text nor image provided")
	ErrImagePanelClosed = errors.New("image sent while the image panel is closed")
)

type Summarizer interface {
	Summarize(paragraph string) string
}

type Classifier interface {
	Classify(text string) (string, error)
}

type Completer interface {
	Translate(ctx context.Context, text string, source string, target string) completion.Result
	Complete(ctx context.Context, req completion.Request) completion.Result
}

type DocumentQA interface {
	Ingest(ctx context.Context, chatID int64, uploads []domain.Upload) (docqa.IngestReport, error)
	IngestURLs(ctx context.Context, chatID int64, text string) (docqa.IngestReport, error)
	Answer(ctx context.Context, chatID int64, question string) (string, error)
	Documents(ctx context.Context, chatID int64) ([]domain.Document, error)
	Forget(ctx context.Context, chatID int64) (int64, error)
}

type Input struct {
	Text  string
	Image *domain.Image
}

// Reply is the outcome of a successful Submit: the new entry and the full
// transcript to re-render.
type Reply struct {
	Entry        domain.ConversationEntry
	Conversation []domain.ConversationEntry
	Warnings     []string
}

// Status is the selection state shown next to the transcript.
type Status struct {
	Session  domain.Session
	Conflict bool
}

func (s Status) Warning() string {
	if s.Conflict {
		return session.ConflictWarning
	}
	return ""
}

// Controller routes user input to the backend of the selected mode.
type Controller struct {
	store      *session.Store
	summarizer Summarizer
	classifier Classifier
	llm        Completer
	docs       DocumentQA
	now        func() time.Time
	log        *slog.Logger
}

func NewController(
	store *session.Store,
	summarizer Summarizer,
	classifier Classifier,
	llm Completer,
	docs DocumentQA,
	log *slog.Logger,
) *Controller {
	return &Controller{
		store:      store,
		summarizer: summarizer,
		classifier: classifier,
		llm:        llm,
		docs:       docs,
		now:        time.Now,
		log:        log,
	}
}

func (c *Controller) Status(ctx context.Context, chatID int64) (Status, error) {
	var status Status

	err := c.store.View(ctx, chatID, func(st *session.State) error {
		status = statusOf(st)
		return nil
	})

	return status, err
}

func (c *Controller) Select(ctx context.Context, chatID int64, mode domain.Mode) (Status, error) {
	return c.update(ctx, chatID, func(st *session.State) error {
		st.Select(mode)
		return nil
	})
}

func (c *Controller) ToggleImagePanel(ctx context.Context, chatID int64) (Status, error) {
	return c.update(ctx, chatID, func(st *session.State) error {
		st.ToggleImagePanel()
		return nil
	})
}

func (c *Controller) SetLanguages(ctx context.Context, chatID int64, source string, target string) (Status, error) {
	return c.update(ctx, chatID, func(st *session.State) error {
		return st.SetLanguages(source, target)
	})
}

func (c *Controller) SetSourceLanguage(ctx context.Context, chatID int64, lang string) (Status, error) {
	return c.update(ctx, chatID, func(st *session.State) error {
		return st.SetSourceLanguage(lang)
	})
}

func (c *Controller) SetTargetLanguage(ctx context.Context, chatID int64, lang string) (Status, error) {
	return c.update(ctx, chatID, func(st *session.State) error {
		return st.SetTargetLanguage(lang)
	})
}

func (c *Controller) update(ctx context.Context, chatID int64, fn func(st *session.State) error) (Status, error) {
	var status Status

	err := c.store.Update(ctx, chatID, func(st *session.State) error {
		if err := fn(st); err != nil {
			return err
		}
		status = statusOf(st)
		return nil
	})

	return status, err
}

func statusOf(st *session.State) Status {
	return Status{Session: st.Session(), Conflict: st.Conflict()}
}

// Submit handles one user input. Validation failures return an error and
// leave the conversation untouched; backend failures become the assistant
// text of the appended entry.
func (c *Controller) Submit(ctx context.Context, chatID int64, in Input) (Reply, error) {
	text := strings.TrimSpace(in.Text)

	var reply Reply

	err := c.store.Update(ctx, chatID, func(st *session.State) error {
		if st.Conflict() {
			return session.ErrModeConflict
		}

		if text == "" && in.Image == nil {
			return ErrEmptyInput
		}

		if in.Image != nil && !st.ImagePanelOpen() {
			return ErrImagePanelClosed
		}

		mode := st.Mode()

		var (
			assistant string
			handled   bool
		)

		if mode != domain.ModeNone && text != "" {
			assistant, handled, reply.Warnings = c.dispatch(ctx, st, text)
		}

		entry := domain.ConversationEntry{
			User:      text,
			CreatedAt: c.now(),
		}

		if !handled {
			mode = domain.ModeNone
			res := c.llm.Complete(ctx, completion.Request{Prompt: text, Image: in.Image})
			assistant = res.Text
			entry.Image = in.Image

			if entry.User == "" {
				entry.User = domain.ImageUploadedPlaceholder
			}
		}

		entry.Assistant = assistant
		st.Append(entry)

		reply.Entry = entry
		reply.Conversation = st.Conversation()

		c.log.InfoContext(ctx, "Input is handled",
			"chatID", chatID,
			"mode", mode.String(),
			"withImage", entry.Image != nil,
			"entries", st.Len())

		return nil
	})

	return reply, err
}

func (c *Controller) dispatch(ctx context.Context, st *session.State, text string) (string, bool, []string) {
	switch st.Mode() {
	case domain.ModeSummarize:
		return c.summarizer.Summarize(text), true, nil

	case domain.ModeSentiment:
		label, err := c.classifier.Classify(text)
		if err != nil {
			c.log.ErrorContext(ctx, "Failed to classify sentiment",
				"error", err,
				"chatID", st.ChatID())

			return errorText(err), true, nil
		}
		return label, true, nil

	case domain.ModeTranslate:
		if !st.HasLanguages() {
			return "", false, []string{MissingLanguagesWarning}
		}
		source, target := st.Languages()
		return c.llm.Translate(ctx, text, source, target).Text, true, nil

	case domain.ModePDFChat:
		answer, err := c.docs.Answer(ctx, st.ChatID(), text)
		if err != nil {
			c.log.ErrorContext(ctx, "Failed to answer from documents",
				"error", err,
				"chatID", st.ChatID())

			return errorText(err), true, nil
		}
		return answer, true, nil

	default:
		return "", false, nil
	}
}

func (c *Controller) IngestDocuments(ctx context.Context, chatID int64, uploads []domain.Upload) (docqa.IngestReport, error) {
	report, err := c.docs.Ingest(ctx, chatID, uploads)
	if err != nil {
		return report, fmt.Errorf("ingest documents: %w", err)
	}
	return report, nil
}

func (c *Controller) IngestURLs(ctx context.Context, chatID int64, text string) (docqa.IngestReport, error) {
	report, err := c.docs.IngestURLs(ctx, chatID, text)
	if err != nil {
		return report, fmt.Errorf("ingest URLs: %w", err)
	}
	return report, nil
}

func (c *Controller) Documents(ctx context.Context, chatID int64) ([]domain.Document, error) {
	return c.docs.Documents(ctx, chatID)
}

func (c *Controller) ForgetDocuments(ctx context.Context, chatID int64) (int64, error) {
	return c.docs.Forget(ctx, chatID)
}

func (c *Controller) History(ctx context.Context, chatID int64) ([]domain.ConversationEntry, error) {
	var conversation []domain.ConversationEntry

	err := c.store.View(ctx, chatID, func(st *session.State) error {
		conversation = st.Conversation()
		return nil
	})

	return conversation, err
}

func (c *Controller) Reset(ctx context.Context, chatID int64) error {
	return c.store.Reset(ctx, chatID)
}

// IsValidation reports errors caused by the input or the selection state
// rather than by a backend.
func IsValidation(err error) bool {
	return errors.Is(err, session.ErrModeConflict) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrImagePanelClosed) ||
		errors.Is(err, session.ErrUnknownLanguage)
}

// UserMessage maps validation errors to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrModeConflict):
		return session.ConflictWarning
	case errors.Is(err, ErrEmptyInput):
		return EmptyInputMessage
	case errors.Is(err, ErrImagePanelClosed):
		return ImagePanelClosedMessage
	case errors.Is(err, session.ErrUnknownLanguage):
		return "Please choose one of: " + strings.Join(domain.Languages(), ", ") + "."
	default:
		return errorText(err)
	}
}

func errorText(err error) string {
	return "Error: " + err.Error()
}
