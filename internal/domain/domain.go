package domain

import (
	"fmt"
	"slices"
	"time"
)

type Mode string

const (
	ModeNone      Mode = ""
	ModeSummarize Mode = "summarize"
	ModeSentiment Mode = "sentiment"
	ModeTranslate Mode = "translate"
	ModePDFChat   Mode = "pdf_chat"
)

//nolint:gochecknoglobals // Fixed selector order.
var selectableModes = []Mode{ModeSummarize, ModeSentiment, ModeTranslate, ModePDFChat}

// Modes returns the selectable modes in display order.
func Modes() []Mode {
	return slices.Clone(selectableModes)
}

func ParseMode(s string) (Mode, error) {
	if s == "" || s == "none" {
		return ModeNone, nil
	}

	m := Mode(s)
	if !slices.Contains(selectableModes, m) {
		return ModeNone, fmt.Errorf("unknown mode %q", s)
	}

	return m, nil
}

func (m Mode) String() string {
	if m == ModeNone {
		return "none"
	}
	return string(m)
}

func (m Mode) Title() string {
	switch m {
	case ModeSummarize:
		return "Summarize Text 📝"
	case ModeSentiment:
		return "Analyze Sentiment 🕊"
	case ModeTranslate:
		return "Translate Text 🔄"
	case ModePDFChat:
		return "PDF Chat 📕"
	default:
		return "None"
	}
}

//nolint:gochecknoglobals // Fixed language list.
var languages = []string{"English", "French", "German", "Spanish", "Hindi", "Bengali"}

func Languages() []string {
	return slices.Clone(languages)
}

func IsLanguage(s string) bool {
	return slices.Contains(languages, s)
}

// ImageUploadedPlaceholder stands in for the user side of an image-only exchange.
const ImageUploadedPlaceholder = "[Image Uploaded]"

type Image struct {
	// Ref is a front-end handle, e.g. a Telegram file ID or a local path.
	Ref      string
	MIMEType string
	Data     []byte
}

type ConversationEntry struct {
	User      string
	Assistant string
	Image     *Image
	CreatedAt time.Time
}

type Session struct {
	ChatID         int64
	Mode           Mode
	ImagePanelOpen bool
	SourceLanguage string
	TargetLanguage string
	LastActive     time.Time
}

type Document struct {
	ID        string
	ChatID    int64
	Name      string
	Hash      string
	CreatedAt time.Time
}

type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

type Chunk struct {
	ID         string
	DocumentID string
	ChatID     int64
	Index      int
	Content    string
	Embedding  []float32
}

// ScoredChunk is a chunk with its cosine similarity to a query.
type ScoredChunk struct {
	Chunk
	Similarity float64
}
