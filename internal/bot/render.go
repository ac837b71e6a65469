package bot

import (
	"fmt"
	"strings"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/chat"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/docqa"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/markdown"
)

const welcomeText = `🤖 *Welcome to the Multimodal Chatbot\!*

Send me text or images and I will answer with a generative model\. Pick a mode to route your text instead:

– *Summarize Text* returns the three key sentences of a paragraph
– *Analyze Sentiment* labels the text
– *Translate Text* translates between the chosen languages
– *PDF Chat* answers questions from your uploaded documents

Upload PDF, HTML or text files as documents, or use /ingest with https links\.
Open the image panel before sending a photo\. See /history, /reset, /docs and /forget\.`

func renderStatus(status chat.Status) string {
	var b strings.Builder

	b.WriteString("❔ *Choose an option:*\n\n")
	b.WriteString(fmt.Sprintf("Mode: %s\n", markdown.EscapeV2(status.Session.Mode.Title())))

	panel := "closed"
	if status.Session.ImagePanelOpen {
		panel = "open"
	}
	b.WriteString(fmt.Sprintf("Image upload: %s\n", panel))

	source, target := status.Session.SourceLanguage, status.Session.TargetLanguage
	if source == "" {
		source = "?"
	}
	if target == "" {
		target = "?"
	}
	b.WriteString(fmt.Sprintf("Languages: %s → %s", markdown.EscapeV2(source), markdown.EscapeV2(target)))

	switch {
	case status.Conflict:
		b.WriteString("\n\n⚠️ " + markdown.EscapeV2(status.Warning()))
	case status.Session.Mode != domain.ModeNone:
		b.WriteString("\n\nℹ️ " + markdown.EscapeV2(chat.ModeSelectedInfo))
	}

	return b.String()
}

func renderHistory(conversation []domain.ConversationEntry) string {
	if len(conversation) == 0 {
		return "✖️ History is empty\\."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 *Conversation \\(%d\\):*", len(conversation)))

	for _, entry := range conversation {
		b.WriteString("\n\n👤 *You:* ")
		b.WriteString(markdown.EscapeV2(entry.User))
		b.WriteString("\n🤖 *Assistant:* ")
		b.WriteString(markdown.EscapeV2(entry.Assistant))
	}

	return b.String()
}

func renderReport(report docqa.IngestReport) string {
	if len(report.Added) == 0 && len(report.Skipped) == 0 {
		return "✖️ No documents were indexed\\."
	}

	var b strings.Builder

	if len(report.Added) > 0 {
		b.WriteString(fmt.Sprintf("✅ Indexed %d documents \\(%d chunks\\):", len(report.Added), report.Chunks))
		for _, name := range report.Added {
			b.WriteString("\n– " + markdown.EscapeV2(name))
		}
	}

	if len(report.Skipped) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("ℹ️ Already indexed:")
		for _, name := range report.Skipped {
			b.WriteString("\n– " + markdown.EscapeV2(name))
		}
	}

	return b.String()
}

func renderDocuments(docs []domain.Document) string {
	if len(docs) == 0 {
		return markdown.EscapeV2(docqa.NoDocumentsMessage)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📚 *Found %d documents:*\n", len(docs)))

	for i, doc := range docs {
		b.WriteString(fmt.Sprintf("\n%d\\. %s", i+1, markdown.EscapeV2(doc.Name)))
	}

	return b.String()
}
