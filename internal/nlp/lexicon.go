package nlp

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

//nolint:gochecknoglobals // Parsed once from the embedded resource.
var defaultLexicon = mustParseLexicon(lexiconYAML)

// Lexicon holds the stop words and irregular forms used by the normalizer.
// It is read-only after parsing.
type Lexicon struct {
	Stopwords  []string `yaml:"stopwords"`
	Exceptions struct {
		Noun      map[string]string `yaml:"noun"`
		Verb      map[string]string `yaml:"verb"`
		Adjective map[string]string `yaml:"adjective"`
		Adverb    map[string]string `yaml:"adverb"`
	} `yaml:"exceptions"`

	stopwords  map[string]struct{}
	invariants map[string]struct{}
}

// DefaultLexicon returns the lexicon embedded in the binary.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("unmarshal lexicon: %w", err)
	}

	if len(lex.Stopwords) == 0 {
		return nil, fmt.Errorf("lexicon has no stopwords")
	}

	lex.stopwords = toSet(lex.Stopwords)
	lex.invariants = make(map[string]struct{})
	for _, cat := range categories {
		for word, lemma := range lex.exceptions(cat) {
			if word == lemma {
				lex.invariants[word] = struct{}{}
			}
		}
	}

	return &lex, nil
}

func mustParseLexicon(data []byte) *Lexicon {
	lex, err := ParseLexicon(data)
	if err != nil {
		panic(err)
	}
	return lex
}

func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.stopwords[word]
	return ok
}

// isInvariant reports words listed as their own lemma, such as "news". They
// are not reduced under any category.
func (l *Lexicon) isInvariant(word string) bool {
	_, ok := l.invariants[word]
	return ok
}

func (l *Lexicon) exceptions(cat Category) map[string]string {
	switch cat {
	case Verb:
		return l.Exceptions.Verb
	case Adjective:
		return l.Exceptions.Adjective
	case Adverb:
		return l.Exceptions.Adverb
	default:
		return l.Exceptions.Noun
	}
}

func (l *Lexicon) exception(cat Category, word string) (string, bool) {
	lemma, ok := l.exceptions(cat)[word]
	return lemma, ok
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}
