package summarizer

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/nlp"
)

const (
	DefaultTopK = 3
	entityBonus = 1.0
)

//nolint:gochecknoglobals // Compiled once.
var (
	sentenceWordRe = regexp.MustCompile(`\w+(?:[-'’]\w+)*`)
	cliticSuffixes = []string{"n't", "'s", "'re", "'ll", "'ve", "'d", "'m"}
)

// Summarizer picks the most informative sentences of a paragraph.
type Summarizer interface {
	Summarize(paragraph string) string
}

// ScoredSentence is a sentence of the input with its relevance score.
type ScoredSentence struct {
	Index int
	Text  string
	Score float64
}

// Extractive scores sentences by the inverse document frequency of their
// words across the paragraph, plus a bonus per named entity they mention.
type Extractive struct {
	normalizer *nlp.Normalizer
	splitter   *nlp.SentenceSplitter
	entities   nlp.EntityExtractor
	topK       int
}

type Option func(*Extractive)

func WithTopK(k int) Option {
	return func(e *Extractive) {
		if k > 0 {
			e.topK = k
		}
	}
}

func WithEntityExtractor(extractor nlp.EntityExtractor) Option {
	return func(e *Extractive) {
		if extractor != nil {
			e.entities = extractor
		}
	}
}

// New loads the tagging and entity models on first use. The entity model is
// skipped when WithEntityExtractor supplies another extractor.
func New(lex *nlp.Lexicon, opts ...Option) (*Extractive, error) {
	e := &Extractive{
		splitter: nlp.NewSentenceSplitter(),
		topK:     DefaultTopK,
	}

	for _, opt := range opts {
		opt(e)
	}

	tagger, err := nlp.NewPerceptronTagger()
	if err != nil {
		return nil, fmt.Errorf("create tagger: %w", err)
	}
	e.normalizer = nlp.NewNormalizer(lex, tagger)

	if e.entities == nil {
		extractor, err := nlp.NewNamedEntityExtractor()
		if err != nil {
			return nil, fmt.Errorf("create entity extractor: %w", err)
		}
		e.entities = extractor
	}

	return e, nil
}

// Summarize returns the top sentences joined by a space, highest score first.
func (e *Extractive) Summarize(paragraph string) string {
	scored := e.Score(paragraph)
	if len(scored) == 0 {
		return ""
	}

	slices.SortStableFunc(scored, func(a, b ScoredSentence) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	top := scored[:min(e.topK, len(scored))]

	texts := make([]string, 0, len(top))
	for _, s := range top {
		texts = append(texts, s.Text)
	}

	return strings.Join(texts, " ")
}

// Score returns the distinct sentences of paragraph in input order with their
// scores. A repeated sentence is reported once, at its first index.
func (e *Extractive) Score(paragraph string) []ScoredSentence {
	if strings.TrimSpace(paragraph) == "" {
		return nil
	}

	sentences := e.splitter.Split(paragraph)

	corpus := make([]string, 0, len(sentences))
	for _, s := range sentences {
		corpus = append(corpus, e.normalizer.Normalize(s))
	}

	idf := inverseDocumentFrequencies(corpus)
	entities := e.entities.Extract(paragraph)

	scored := make([]ScoredSentence, 0, len(sentences))
	seen := make(map[string]struct{}, len(sentences))

	for i, s := range sentences {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}

		scored = append(scored, ScoredSentence{
			Index: i,
			Text:  s,
			Score: scoreSentence(s, idf, entities),
		})
	}

	return scored
}

func scoreSentence(sentence string, idf map[string]float64, entities []string) float64 {
	lower := strings.ToLower(sentence)

	var score float64
	for _, word := range wordTokens(lower) {
		score += idf[word]
	}

	for _, entity := range entities {
		if strings.Contains(lower, strings.ToLower(entity)) {
			score += entityBonus
		}
	}

	return score
}

// wordTokens splits text into words and separates clitics the way the Penn
// Treebank tokenizer does: "rocket's" gives "rocket" and "'s", "don't" gives
// "do" and "n't".
func wordTokens(text string) []string {
	var tokens []string

	for _, word := range sentenceWordRe.FindAllString(text, -1) {
		word = strings.ReplaceAll(word, "’", "'")

		stem, clitic := splitClitic(word)
		tokens = append(tokens, stem)
		if clitic != "" {
			tokens = append(tokens, clitic)
		}
	}

	return tokens
}

func splitClitic(word string) (string, string) {
	lower := strings.ToLower(word)

	for _, suffix := range cliticSuffixes {
		if strings.HasSuffix(lower, suffix) && len(word) > len(suffix) {
			cut := len(word) - len(suffix)
			return word[:cut], word[cut:]
		}
	}

	return word, ""
}
