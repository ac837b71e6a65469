package nlp

import (
	"regexp"
	"strings"
)

// Category is the lemmatization class derived from a part-of-speech tag.
type Category int

const (
	Noun Category = iota
	Verb
	Adjective
	Adverb
)

// CategoryOf maps a Penn Treebank tag onto a lemmatization category.
func CategoryOf(tag string) Category {
	switch {
	case strings.HasPrefix(tag, "J"):
		return Adjective
	case strings.HasPrefix(tag, "V"):
		return Verb
	case strings.HasPrefix(tag, "N"):
		return Noun
	case strings.HasPrefix(tag, "R"):
		return Adverb
	default:
		return Noun
	}
}

//nolint:gochecknoglobals // Compiled once.
var nonAlphaRe = regexp.MustCompile(`[^a-zA-Z]+`)

//nolint:gochecknoglobals // Fixed order.
var categories = []Category{Noun, Verb, Adjective, Adverb}

const maxLemmaSteps = 8

// Normalizer turns a sentence into space-separated lemmas with stop words
// removed. Tags come from the sentence context, but every lemma it emits is
// a base form under all categories, so a normalized sentence is a fixed point
// of Normalize whatever tags the second pass assigns.
type Normalizer struct {
	lex    *Lexicon
	tagger Tagger
}

func NewNormalizer(lex *Lexicon, tagger Tagger) *Normalizer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Normalizer{lex: lex, tagger: tagger}
}

func (n *Normalizer) Normalize(sentence string) string {
	tokens := strings.Fields(nonAlphaRe.ReplaceAllString(strings.ToLower(sentence), " "))

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !n.lex.IsStopword(tok) {
			kept = append(kept, tok)
		}
	}

	if len(kept) == 0 {
		return ""
	}

	tags := n.tagger.Tag(kept)

	lemmas := make([]string, len(kept))
	for i, tok := range kept {
		lemmas[i] = n.Lemmatize(tok, CategoryOf(tags[i]))
	}

	return strings.Join(lemmas, " ")
}

// Lemmatize returns the base form of word under cat. A form that still
// reduces under another category is reduced further.
func (n *Normalizer) Lemmatize(word string, cat Category) string {
	lemma := n.lemmatizeAs(word, cat)

	for range maxLemmaSteps {
		if n.IsStable(lemma) {
			return lemma
		}

		for _, c := range categories {
			if next := n.lemmatizeAs(lemma, c); next != lemma {
				lemma = next
				break
			}
		}
	}

	return lemma
}

// IsStable reports whether word is its own lemma under every category.
func (n *Normalizer) IsStable(word string) bool {
	for _, c := range categories {
		if !n.isBase(word, c) {
			return false
		}
	}
	return true
}

func (n *Normalizer) lemmatizeAs(word string, cat Category) string {
	for _, c := range n.candidates(word, cat) {
		if c != word && n.valid(c) {
			return c
		}
	}
	return word
}

func (n *Normalizer) isBase(word string, cat Category) bool {
	return n.lemmatizeAs(word, cat) == word
}

func (n *Normalizer) valid(word string) bool {
	if len(word) < 2 || n.lex.IsStopword(word) {
		return false
	}
	for i := range len(word) {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

func (n *Normalizer) candidates(word string, cat Category) []string {
	if n.lex.isInvariant(word) {
		return nil
	}

	var out []string

	if lemma, ok := n.lex.exception(cat, word); ok {
		if lemma == word {
			return nil
		}
		out = append(out, lemma)
	}

	switch cat {
	case Noun:
		out = append(out, nounCandidates(word)...)
	case Verb:
		out = append(out, verbCandidates(word)...)
	case Adjective, Adverb:
	}

	return out
}

func nounCandidates(w string) []string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return []string{w[:len(w)-3] + "y"}
	case hasAnySuffix(w, "ches", "shes", "sses", "xes", "zzes"):
		return []string{w[:len(w)-2], w[:len(w)-1]}
	case isPluralForm(w):
		return []string{w[:len(w)-1]}
	}
	return nil
}

func verbCandidates(w string) []string {
	switch {
	case len(w) > 4 && hasAnySuffix(w, "ies", "ied"):
		return []string{w[:len(w)-3] + "y"}
	case len(w) >= 5 && strings.HasSuffix(w, "ing"):
		return stemVariants(w[:len(w)-3])
	case len(w) >= 5 && strings.HasSuffix(w, "ed") && !strings.HasSuffix(w, "eed"):
		return stemVariants(w[:len(w)-2])
	case hasAnySuffix(w, "ches", "shes", "sses", "xes", "zzes"):
		return []string{w[:len(w)-2]}
	case isPluralForm(w):
		return []string{w[:len(w)-1]}
	}
	return nil
}

// stemVariants orders the likely base forms of a stem left after removing
// -ing or -ed.
func stemVariants(stem string) []string {
	if !hasVowel(stem) {
		return nil
	}

	n := len(stem)
	last := stem[n-1]

	if n >= 4 && last == stem[n-2] && isConsonant(last) && !strings.ContainsRune("lsfz", rune(last)) {
		return []string{stem[:n-1], stem}
	}

	if needsE(stem) {
		return []string{stem + "e", stem}
	}

	return []string{stem, stem + "e"}
}

func needsE(stem string) bool {
	n := len(stem)
	last := stem[n-1]

	switch {
	case strings.ContainsRune("cvzu", rune(last)):
		return true
	case n == 3 && isConsonant(stem[0]) && !isConsonant(stem[1]) && isConsonant(last) &&
		!strings.ContainsRune("wxy", rune(last)):
		return true
	case n >= 4 && strings.HasSuffix(stem, "at") && isConsonant(stem[n-3]):
		return true
	}

	return false
}

func isPluralForm(w string) bool {
	return len(w) > 3 && strings.HasSuffix(w, "s") && !hasAnySuffix(w, "ss", "us", "is")
}

func hasAnySuffix(w string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) {
			return true
		}
	}
	return false
}

func hasVowel(s string) bool {
	return strings.ContainsAny(s, "aeiouy")
}

func isConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && !strings.ContainsRune("aeiou", rune(c))
}
