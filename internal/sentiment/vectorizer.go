package sentiment

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // Compiled once.
var tokenRe = regexp.MustCompile(`\b\w\w+\b`)

// Vectorizer is a bag-of-ngrams count vectorizer. When IDF is set the counts
// are reweighted and L2-normalized.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Lowercase  *bool          `json:"lowercase"`
	NgramRange [2]int         `json:"ngram_range"`
	Binary     bool           `json:"binary"`
	IDF        []float64      `json:"idf,omitempty"`

	features int
}

func (v *Vectorizer) init() error {
	if len(v.Vocabulary) == 0 {
		return errors.New("empty vocabulary")
	}

	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}

	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram range %v", v.NgramRange)
	}

	v.features = 0
	for term, index := range v.Vocabulary {
		if index < 0 {
			return fmt.Errorf("term %q has negative index %d", term, index)
		}
		v.features = max(v.features, index+1)
	}

	if v.IDF != nil && len(v.IDF) != v.features {
		return fmt.Errorf("got %d idf weights for %d features", len(v.IDF), v.features)
	}

	return nil
}

// Features is the width of the feature space.
func (v *Vectorizer) Features() int {
	return v.features
}

func (v *Vectorizer) lowercase() bool {
	return v.Lowercase == nil || *v.Lowercase
}

// Transform returns the sparse feature vector of text. Terms missing from
// the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) map[int]float64 {
	if v.lowercase() {
		text = strings.ToLower(text)
	}

	tokens := tokenRe.FindAllString(text, -1)
	features := make(map[int]float64)

	for n := v.NgramRange[0]; n <= v.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			index, ok := v.Vocabulary[strings.Join(tokens[i:i+n], " ")]
			if !ok {
				continue
			}

			if v.Binary {
				features[index] = 1
			} else {
				features[index]++
			}
		}
	}

	if v.IDF != nil {
		v.reweight(features)
	}

	return features
}

func (v *Vectorizer) reweight(features map[int]float64) {
	var norm float64
	for index, value := range features {
		features[index] = value * v.IDF[index]
		norm += features[index] * features[index]
	}

	if norm == 0 {
		return
	}

	norm = math.Sqrt(norm)
	for index := range features {
		features[index] /= norm
	}
}
