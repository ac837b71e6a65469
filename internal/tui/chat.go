package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const (
	defaultWidth         = 100
	defaultHeight        = 40
	inputCharLimit       = 8000
	inputHeightReserved  = 2
	statusHeightReserved = 3
	minContentHeight     = 10
	minContentWidth      = 20
)

//nolint:gochecknoglobals // Styles are immutable after init.
var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// Program runs the terminal chat for one local session.
type Program struct {
	model chatModel
}

func NewProgram(ctrl *chat.Controller, chatID int64) *Program {
	return &Program{model: newChatModel(ctrl, chatID)}
}

func (p *Program) Run() error {
	program := tea.NewProgram(p.model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type chatModel struct {
	ctrl   *chat.Controller
	chatID int64

	input   textinput.Model
	content viewport.Model
	spinner spinner.Model

	busy         bool
	status       chat.Status
	conversation []domain.ConversationEntry
	notice       string
	err          error

	width  int
	height int
}

func newChatModel(ctrl *chat.Controller, chatID int64) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message or /help"
	input.Focus()
	input.CharLimit = inputCharLimit
	input.Width = defaultWidth - 3
	input.Prompt = promptStyle.Render("> ")

	return chatModel{
		ctrl:    ctrl,
		chatID:  chatID,
		input:   input,
		content: viewport.New(defaultWidth, defaultHeight-inputHeightReserved-statusHeightReserved),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load())
}

// load restores the selection state and transcript of a persisted session.
func (m chatModel) load() tea.Cmd {
	ctrl, chatID := m.ctrl, m.chatID

	return func() tea.Msg {
		status, err := ctrl.Status(context.Background(), chatID)
		if err != nil {
			return resultMsg{err: err}
		}

		conversation, err := ctrl.History(context.Background(), chatID)

		return resultMsg{status: &status, conversation: conversation, notice: status.Warning(), err: err}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if !m.busy && line != "" {
				m.input.Reset()
				m.busy = true
				m.notice, m.err = "", nil
				cmds = append(cmds, m.execute(line), m.spinner.Tick)
			}

		case tea.KeyPgUp:
			m.content.ViewUp()

		case tea.KeyPgDown:
			m.content.ViewDown()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.content.Width = msg.Width
		m.content.Height = max(msg.Height-inputHeightReserved-statusHeightReserved, minContentHeight)
		m.input.Width = msg.Width - 3

	case resultMsg:
		m.busy = false
		if msg.status != nil {
			m.status = *msg.status
		}
		if msg.conversation != nil {
			m.conversation = msg.conversation
		}
		m.notice = msg.notice
		m.err = msg.err
		if m.err != nil && chat.IsValidation(m.err) {
			m.notice, m.err = chat.UserMessage(m.err), nil
		}

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.busy {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refreshContent()

	return m, tea.Batch(cmds...)
}

func (m chatModel) View() string {
	var b strings.Builder

	b.WriteString(m.content.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(statusLine(m.status)))
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " Working...")
	case m.err != nil:
		b.WriteString(errorStyle.Render(chat.UserMessage(m.err)))
	case m.notice != "":
		b.WriteString(warnStyle.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())

	return b.String()
}

func (m *chatModel) refreshContent() {
	width := max(m.width, minContentWidth)

	m.content.SetContent(renderConversation(m.conversation, width))
	m.content.GotoBottom()
}

func renderConversation(conversation []domain.ConversationEntry, width int) string {
	if len(conversation) == 0 {
		return dimStyle.Render("No messages yet. Type /help for commands.")
	}

	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, entry := range conversation {
		if i > 0 {
			b.WriteString("\n\n")
		}

		b.WriteString(boldStyle.Render("You"))
		if entry.Image != nil {
			b.WriteString(dimStyle.Render(" [" + entry.Image.Ref + "]"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(entry.User))
		b.WriteString("\n")
		b.WriteString(accentStyle.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(entry.Assistant))
	}

	return b.String()
}

func statusLine(status chat.Status) string {
	panel := "closed"
	if status.Session.ImagePanelOpen {
		panel = "open"
	}

	line := fmt.Sprintf("mode: %s | image: %s", status.Session.Mode, panel)

	if source, target := status.Session.SourceLanguage, status.Session.TargetLanguage; source != "" || target != "" {
		line += fmt.Sprintf(" | %s -> %s", orUnset(source), orUnset(target))
	}

	if status.Conflict {
		line += " | conflict"
	}

	return line
}

func orUnset(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
