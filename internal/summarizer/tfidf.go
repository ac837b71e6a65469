package summarizer

import (
	"math"
	"regexp"
)

//nolint:gochecknoglobals // Compiled once.
var vocabularyTokenRe = regexp.MustCompile(`\b\w\w+\b`)

// inverseDocumentFrequencies fits smoothed idf weights over corpus:
// idf(t) = ln((1+n)/(1+df(t))) + 1. A corpus with fewer than two non-empty
// documents yields no weights.
func inverseDocumentFrequencies(corpus []string) map[string]float64 {
	nonEmpty := 0
	df := make(map[string]int)

	for _, doc := range corpus {
		terms := vocabularyTokenRe.FindAllString(doc, -1)
		if len(terms) == 0 {
			continue
		}
		nonEmpty++

		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	idf := make(map[string]float64, len(df))
	if nonEmpty < 2 {
		return idf
	}

	n := float64(len(corpus))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	return idf
}
