package tui

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/docqa"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const helpText = `/mode <summarize|sentiment|translate|pdf_chat>  toggle a mode
/image                 toggle the image panel
/attach <path> [text]  send an image, optionally with a question
/lang <source> <target>  choose translation languages
/ingest <paths or https links>  index documents for pdf_chat
/docs  /forget  /history  /reset  /help  /quit`

// resultMsg carries the outcome of a controller call back to Update.
type resultMsg struct {
	status       *chat.Status
	conversation []domain.ConversationEntry
	notice       string
	err          error
}

// parseLine splits "/cmd args" into its parts. Plain text has an empty command.
func parseLine(line string) (string, string) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "/") {
		return "", line
	}

	head, args, _ := strings.Cut(line, " ")

	return strings.ToLower(strings.TrimPrefix(head, "/")), strings.TrimSpace(args)
}

// execute maps an input line to a controller call run off the UI goroutine.
func (m *chatModel) execute(line string) tea.Cmd {
	command, args := parseLine(line)
	ctrl, chatID := m.ctrl, m.chatID

	switch command {
	case "":
		return m.submit(chat.Input{Text: args})

	case "quit", "exit":
		return tea.Quit

	case "help":
		return func() tea.Msg { return resultMsg{notice: helpText} }

	case "mode":
		mode, err := domain.ParseMode(args)
		if err != nil || mode == domain.ModeNone {
			return failed(fmt.Errorf("unknown mode %q", args))
		}
		return statusCmd(func(ctx context.Context) (chat.Status, error) {
			return ctrl.Select(ctx, chatID, mode)
		})

	case "image":
		return statusCmd(func(ctx context.Context) (chat.Status, error) {
			return ctrl.ToggleImagePanel(ctx, chatID)
		})

	case "lang":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return failed(errors.New("usage: /lang <source> <target>"))
		}
		source, target := titleCase(fields[0]), titleCase(fields[1])
		return statusCmd(func(ctx context.Context) (chat.Status, error) {
			return ctrl.SetLanguages(ctx, chatID, source, target)
		})

	case "attach":
		path, text, _ := strings.Cut(args, " ")
		if path == "" {
			return failed(errors.New("usage: /attach <path> [text]"))
		}
		img, err := readImage(path)
		if err != nil {
			return failed(err)
		}
		return m.submit(chat.Input{Text: text, Image: img})

	case "ingest":
		return m.ingest(args)

	case "docs":
		return func() tea.Msg {
			docs, err := ctrl.Documents(context.Background(), chatID)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{notice: documentsNotice(docs)}
		}

	case "forget":
		return func() tea.Msg {
			removed, err := ctrl.ForgetDocuments(context.Background(), chatID)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{notice: fmt.Sprintf("%d documents are removed.", removed)}
		}

	case "history":
		return func() tea.Msg {
			conversation, err := ctrl.History(context.Background(), chatID)
			return resultMsg{conversation: conversation, notice: fmt.Sprintf("%d entries.", len(conversation)), err: err}
		}

	case "reset":
		return func() tea.Msg {
			if err := ctrl.Reset(context.Background(), chatID); err != nil {
				return resultMsg{err: err}
			}
			status, err := ctrl.Status(context.Background(), chatID)
			return resultMsg{status: &status, conversation: []domain.ConversationEntry{}, notice: "Conversation is reset.", err: err}
		}

	default:
		return failed(fmt.Errorf("unknown command /%s, see /help", command))
	}
}

func (m *chatModel) submit(in chat.Input) tea.Cmd {
	ctrl, chatID := m.ctrl, m.chatID

	return func() tea.Msg {
		reply, err := ctrl.Submit(context.Background(), chatID, in)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{conversation: reply.Conversation, notice: strings.Join(reply.Warnings, "\n")}
	}
}

func (m *chatModel) ingest(args string) tea.Cmd {
	ctrl, chatID := m.ctrl, m.chatID

	if args == "" {
		return failed(errors.New("usage: /ingest <paths or https links>"))
	}

	if strings.Contains(args, "https://") {
		return func() tea.Msg {
			report, err := ctrl.IngestURLs(context.Background(), chatID, args)
			return resultMsg{notice: reportNotice(report), err: err}
		}
	}

	var (
		uploads []domain.Upload
		errs    []error
	)

	for _, path := range strings.Fields(args) {
		upload, err := readUpload(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		uploads = append(uploads, upload)
	}

	return func() tea.Msg {
		report, err := ctrl.IngestDocuments(context.Background(), chatID, uploads)
		return resultMsg{notice: reportNotice(report), err: errors.Join(append(errs, err)...)}
	}
}

func statusCmd(fn func(ctx context.Context) (chat.Status, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(context.Background())
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: &status, notice: status.Warning()}
	}
}

func failed(err error) tea.Cmd {
	return func() tea.Msg { return resultMsg{err: err} }
}

func readImage(path string) (*domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, mimeType)
	}

	return &domain.Image{Ref: path, MIMEType: mimeType, Data: data}, nil
}

func readUpload(path string) (domain.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read document: %w", err)
	}

	return domain.Upload{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Data:     data,
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func reportNotice(report docqa.IngestReport) string {
	var parts []string

	if len(report.Added) > 0 {
		parts = append(parts, fmt.Sprintf("Indexed %s (%d chunks).", strings.Join(report.Added, ", "), report.Chunks))
	}
	if len(report.Skipped) > 0 {
		parts = append(parts, fmt.Sprintf("Already indexed: %s.", strings.Join(report.Skipped, ", ")))
	}
	if len(parts) == 0 {
		return "No documents were indexed."
	}

	return strings.Join(parts, " ")
}

func documentsNotice(docs []domain.Document) string {
	if len(docs) == 0 {
		return docqa.NoDocumentsMessage
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)
	}

	return fmt.Sprintf("%d documents: %s", len(docs), strings.Join(names, ", "))
}
