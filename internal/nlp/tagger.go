package nlp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

const defaultTag = "NN"

// Tagger assigns a Penn Treebank tag to every token of a sequence.
type Tagger interface {
	Tag(tokens []string) []string
}

//nolint:gochecknoglobals // Models are loaded once per process.
var (
	loadTaggerModel = sync.OnceValues(func() (*prose.Model, error) {
		return loadModel(prose.WithExtraction(false))
	})
	loadEntityModel = sync.OnceValues(func() (*prose.Model, error) {
		return loadModel()
	})
)

func loadModel(opts ...prose.DocOpt) (*prose.Model, error) {
	opts = append([]prose.DocOpt{prose.WithSegmentation(false)}, opts...)

	doc, err := prose.NewDocument("load", opts...)
	if err != nil {
		return nil, fmt.Errorf("load prose model: %w", err)
	}

	return doc.Model, nil
}

// PerceptronTagger tags with prose's averaged perceptron, a port of the NLTK
// English tagger.
type PerceptronTagger struct {
	mu    sync.Mutex
	model *prose.Model
}

func NewPerceptronTagger() (*PerceptronTagger, error) {
	model, err := loadTaggerModel()
	if err != nil {
		return nil, err
	}
	return &PerceptronTagger{model: model}, nil
}

// Tag tags tokens in context. Every token gets NN when prose splits the
// sequence differently from tokens.
func (t *PerceptronTagger) Tag(tokens []string) []string {
	tags := make([]string, len(tokens))
	for i := range tags {
		tags[i] = defaultTag
	}

	if len(tokens) == 0 {
		return tags
	}

	t.mu.Lock()
	doc, err := prose.NewDocument(
		strings.Join(tokens, " "),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
		prose.UsingModel(t.model),
	)
	t.mu.Unlock()
	if err != nil {
		return tags
	}

	docTokens := doc.Tokens()
	if len(docTokens) != len(tokens) {
		return tags
	}

	for i, tok := range docTokens {
		tags[i] = tok.Tag
	}

	return tags
}
