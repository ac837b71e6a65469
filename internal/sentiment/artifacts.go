package sentiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// Classifier assigns a sentiment label to free text.
type Classifier interface {
	Classify(text string) (string, error)
}

//nolint:gochecknoglobals // Exported model kinds.
var supportedKinds = []string{
	"logistic_regression",
	"linear_svc",
	"multinomial_nb",
	"sgd",
}

// Artifacts is the loaded vectorizer, model and label encoder. It is
// read-only after loading and safe for concurrent use.
type Artifacts struct {
	vectorizer *Vectorizer
	model      *LinearModel
	encoder    *LabelEncoder
}

// LinearModel is a decision function exported from a fitted linear
// classifier. Classes holds encoded label indexes.
type LinearModel struct {
	Kind      string      `json:"kind"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// LoadArtifacts reads the three JSON artifacts. All files are read before
// returning so that every problem is reported at once.
func LoadArtifacts(modelPath string, vectorizerPath string, encoderPath string) (*Artifacts, error) {
	var (
		vectorizer Vectorizer
		model      LinearModel
		encoder    LabelEncoder
		errs       []error
	)

	if err := readJSON(vectorizerPath, &vectorizer); err != nil {
		errs = append(errs, fmt.Errorf("load vectorizer: %w", err))
	}

	if err := readJSON(modelPath, &model); err != nil {
		errs = append(errs, fmt.Errorf("load model: %w", err))
	}

	if err := readJSON(encoderPath, &encoder); err != nil {
		errs = append(errs, fmt.Errorf("load label encoder: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return NewArtifacts(&vectorizer, &model, &encoder)
}

// NewArtifacts validates that the three parts fit together.
func NewArtifacts(vectorizer *Vectorizer, model *LinearModel, encoder *LabelEncoder) (*Artifacts, error) {
	if err := vectorizer.init(); err != nil {
		return nil, fmt.Errorf("validate vectorizer: %w", err)
	}

	if err := model.validate(vectorizer.Features()); err != nil {
		return nil, fmt.Errorf("validate model: %w", err)
	}

	if len(encoder.Classes) == 0 {
		return nil, errors.New("validate label encoder: no classes")
	}

	for _, class := range model.Classes {
		if class < 0 || class >= len(encoder.Classes) {
			return nil, fmt.Errorf("model class %d is not known to the label encoder", class)
		}
	}

	return &Artifacts{
		vectorizer: vectorizer,
		model:      model,
		encoder:    encoder,
	}, nil
}

func (a *Artifacts) Classify(text string) (string, error) {
	class := a.model.Predict(a.vectorizer.Transform(text))

	return a.encoder.Decode(class)
}

// Labels returns the label vocabulary in encoder order.
func (a *Artifacts) Labels() []string {
	return slices.Clone(a.encoder.Classes)
}

func (m *LinearModel) validate(features int) error {
	if !slices.Contains(supportedKinds, m.Kind) {
		return fmt.Errorf("unsupported kind %q", m.Kind)
	}

	switch {
	case len(m.Classes) < 2:
		return fmt.Errorf("need at least 2 classes, got %d", len(m.Classes))
	case len(m.Coef) == 1 && len(m.Classes) != 2:
		return fmt.Errorf("single coefficient row needs 2 classes, got %d", len(m.Classes))
	case len(m.Coef) != 1 && len(m.Coef) != len(m.Classes):
		return fmt.Errorf("got %d coefficient rows for %d classes", len(m.Coef), len(m.Classes))
	case len(m.Intercept) != len(m.Coef):
		return fmt.Errorf("got %d intercepts for %d coefficient rows", len(m.Intercept), len(m.Coef))
	}

	for i, row := range m.Coef {
		if len(row) != features {
			return fmt.Errorf("coefficient row %d has %d weights, want %d", i, len(row), features)
		}
	}

	return nil
}

// Predict returns the encoded class for a sparse feature vector.
func (m *LinearModel) Predict(features map[int]float64) int {
	if len(m.Coef) == 1 {
		if m.decision(0, features) > 0 {
			return m.Classes[1]
		}
		return m.Classes[0]
	}

	best := 0
	bestScore := m.decision(0, features)
	for row := 1; row < len(m.Coef); row++ {
		if score := m.decision(row, features); score > bestScore {
			best, bestScore = row, score
		}
	}

	return m.Classes[best]
}

func (m *LinearModel) decision(row int, features map[int]float64) float64 {
	score := m.Intercept[row]
	for index, value := range features {
		score += m.Coef[row][index] * value
	}
	return score
}

func (e *LabelEncoder) Decode(class int) (string, error) {
	if class < 0 || class >= len(e.Classes) {
		return "", fmt.Errorf("decode label: class %d out of range", class)
	}
	return e.Classes[class], nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}

	return nil
}
