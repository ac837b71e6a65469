package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const ConflictWarning = "You cannot use image upload while an option is selected. " +
	"Please deselect the current option."

var (
	ErrModeConflict    = errors.New("image upload is open while an option is selected")
	ErrUnknownLanguage = errors.New("unknown language")
)

// State is one chat's selection state and conversation. It is not safe for
// concurrent use; Store serializes access.
type State struct {
	session      domain.Session
	conversation []domain.ConversationEntry
	pending      []domain.ConversationEntry
}

func NewState(chatID int64) *State {
	return &State{session: domain.Session{ChatID: chatID}}
}

func (s *State) ChatID() int64 {
	return s.session.ChatID
}

func (s *State) Mode() domain.Mode {
	return s.session.Mode
}

func (s *State) ImagePanelOpen() bool {
	return s.session.ImagePanelOpen
}

func (s *State) Languages() (string, string) {
	return s.session.SourceLanguage, s.session.TargetLanguage
}

// Session returns a copy of the selection state.
func (s *State) Session() domain.Session {
	return s.session
}

// Select toggles mode: selecting the active mode clears it, any other mode
// replaces it. The image panel is left as is.
func (s *State) Select(mode domain.Mode) {
	if s.session.Mode == mode {
		s.session.Mode = domain.ModeNone
	} else {
		s.session.Mode = mode
	}
}

// ToggleImagePanel flips the image panel and clears the selected mode.
func (s *State) ToggleImagePanel() {
	s.session.ImagePanelOpen = !s.session.ImagePanelOpen
	s.session.Mode = domain.ModeNone
}

// SetLanguages sets the translation pair. An empty value clears that side.
func (s *State) SetLanguages(source string, target string) error {
	for _, lang := range []string{source, target} {
		if lang != "" && !domain.IsLanguage(lang) {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
		}
	}

	s.session.SourceLanguage = source
	s.session.TargetLanguage = target

	return nil
}

func (s *State) SetSourceLanguage(lang string) error {
	return s.SetLanguages(lang, s.session.TargetLanguage)
}

func (s *State) SetTargetLanguage(lang string) error {
	return s.SetLanguages(s.session.SourceLanguage, lang)
}

// HasLanguages reports whether both translation languages are chosen.
func (s *State) HasLanguages() bool {
	return s.session.SourceLanguage != "" && s.session.TargetLanguage != ""
}

// Conflict reports an open image panel together with a selected mode.
func (s *State) Conflict() bool {
	return s.session.ImagePanelOpen && s.session.Mode != domain.ModeNone
}

// Append adds an entry to the end of the conversation.
func (s *State) Append(entry domain.ConversationEntry) {
	s.conversation = append(s.conversation, entry)
	s.pending = append(s.pending, entry)
}

// Conversation returns the entries in insertion order.
func (s *State) Conversation() []domain.ConversationEntry {
	return slices.Clone(s.conversation)
}

func (s *State) Len() int {
	return len(s.conversation)
}

func (s *State) takePending() []domain.ConversationEntry {
	pending := s.pending
	s.pending = nil
	return pending
}
