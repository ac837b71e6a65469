package nlp

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

//nolint:gochecknoglobals // Compiled once.
var paragraphBreakRe = regexp.MustCompile(`\n[ \t\r]*\n`)

// SentenceSplitter segments text with prose's punkt segmenter. A blank line
// always ends a sentence.
type SentenceSplitter struct{}

func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{}
}

// Split returns the trimmed sentences of text in order.
func (s *SentenceSplitter) Split(text string) []string {
	var sentences []string

	for _, block := range paragraphBreakRe.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		doc, err := prose.NewDocument(
			block,
			prose.WithTokenization(false),
			prose.WithTagging(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			sentences = append(sentences, block)
			continue
		}

		for _, sent := range doc.Sentences() {
			if text := strings.TrimSpace(sent.Text); text != "" {
				sentences = append(sentences, text)
			}
		}
	}

	return sentences
}
