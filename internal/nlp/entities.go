package nlp

import (
	"regexp"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// EntityExtractor finds named entities in a paragraph. Implementations return
// each entity once, compared case-insensitively.
type EntityExtractor interface {
	Extract(paragraph string) []string
}

//nolint:gochecknoglobals // Compiled once.
var yearRe = regexp.MustCompile(`\b(?:1[0-9]{3}|20[0-9]{2})\b`)

// NamedEntityExtractor reports the entities labeled by prose's model. The
// model has no date label, so four-digit years are matched separately.
type NamedEntityExtractor struct {
	mu    sync.Mutex
	model *prose.Model
}

func NewNamedEntityExtractor() (*NamedEntityExtractor, error) {
	model, err := loadEntityModel()
	if err != nil {
		return nil, err
	}
	return &NamedEntityExtractor{model: model}, nil
}

func (e *NamedEntityExtractor) Extract(paragraph string) []string {
	if strings.TrimSpace(paragraph) == "" {
		return nil
	}

	var set entitySet

	e.mu.Lock()
	doc, err := prose.NewDocument(paragraph, prose.WithSegmentation(false), prose.UsingModel(e.model))
	e.mu.Unlock()
	if err == nil {
		for _, ent := range doc.Entities() {
			set.add(ent.Text)
		}
	}

	for _, year := range yearRe.FindAllString(paragraph, -1) {
		set.add(year)
	}

	return set.items
}

type entitySet struct {
	seen  map[string]struct{}
	items []string
}

func (s *entitySet) add(entity string) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return
	}

	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}

	key := strings.ToLower(entity)
	if _, ok := s.seen[key]; ok {
		return
	}

	s.seen[key] = struct{}{}
	s.items = append(s.items, entity)
}
