package summarizer

import (
	"math"
	"slices"
	"strings"
	"testing"
)

const spaceXParagraph = "Elon Musk founded SpaceX in 2002 to reduce space transportation costs. " +
	"The company is headquartered in California. " +
	"SpaceX has launched several reusable rockets. " +
	"It plans missions to Mars in the coming decade."

//nolint:gochecknoglobals // Test fixture.
var spaceXEntities = fixedEntities{"Elon Musk", "SpaceX", "2002", "California", "Mars"}

type fixedEntities []string

func (f fixedEntities) Extract(string) []string {
	return f
}

func newTestSummarizer(t *testing.T, opts ...Option) *Extractive {
	t.Helper()

	s, err := New(nil, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

func TestSummarizeSpaceXParagraph(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(spaceXEntities))

	got := s.Summarize(spaceXParagraph)
	want := "Elon Musk founded SpaceX in 2002 to reduce space transportation costs. " +
		"SpaceX has launched several reusable rockets. " +
		"The company is headquartered in California."

	if got != want {
		t.Fatalf("unexpected summary:\n got: %q\nwant: %q", got, want)
	}
}

func TestScoreSpaceXParagraph(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(spaceXEntities))
	scored := s.Score(spaceXParagraph)

	if len(scored) != 4 {
		t.Fatalf("expected 4 sentences, got %d", len(scored))
	}

	rare := math.Log(5.0/2.0) + 1
	shared := math.Log(5.0/3.0) + 1

	want := []float64{
		5*rare + shared + 3,
		2*rare + 1,
		2*rare + shared + 1,
		rare + 1,
	}

	for i, s := range scored {
		if math.Abs(s.Score-want[i]) > 1e-9 {
			t.Errorf("sentence %d: score %v, want %v", i, s.Score, want[i])
		}
	}

	if scored[0].Score <= scored[1].Score {
		t.Errorf("entity sentence should outscore the sentence without one")
	}
}

func TestSummarizeSingleSentenceIsUnchanged(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(fixedEntities{"Elon Musk", "SpaceX", "2002"}))
	sentence := "Elon Musk founded SpaceX in 2002."

	if got := s.Summarize(sentence); got != sentence {
		t.Fatalf("expected %q, got %q", sentence, got)
	}

	for _, sc := range s.Score(sentence) {
		if sc.Score != 3 {
			t.Fatalf("expected only entity bonuses in a one-sentence paragraph, got %v", sc.Score)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(fixedEntities(nil)))

	for _, input := range []string{"", "   \n\t "} {
		if got := s.Summarize(input); got != "" {
			t.Errorf("Summarize(%q) = %q, want empty", input, got)
		}
	}
}

func TestSummarizeSelectsExactlyTopK(t *testing.T) {
	s := newTestSummarizer(t)
	paragraph := "Cats sleep a lot. Dogs bark at strangers. Birds sing in the morning. " +
		"Fish swim in cold water. Horses run across open fields."

	got := s.Summarize(paragraph)
	sentences := s.splitter.Split(paragraph)

	count := 0
	rest := got
	for _, sentence := range sentences {
		if strings.Contains(got, sentence) {
			count++
			rest = strings.Replace(rest, sentence, "", 1)
		}
	}

	if count != DefaultTopK {
		t.Fatalf("expected %d sentences in summary, got %d: %q", DefaultTopK, count, got)
	}

	if strings.TrimSpace(rest) != "" {
		t.Fatalf("summary contains text that is not an input sentence: %q", rest)
	}
}

func TestSummarizeTiesKeepInputOrder(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(fixedEntities(nil)))
	paragraph := "Alpha beta. Gamma delta. Epsilon zeta. Theta iota."

	got := s.Summarize(paragraph)
	want := "Alpha beta. Gamma delta. Epsilon zeta."

	if got != want {
		t.Fatalf("expected ties broken by position, got %q", got)
	}
}

func TestEntityBonusMonotonicity(t *testing.T) {
	plain := "The rocket reached orbit today. The rocket reached orbit today with Falcon."
	s := newTestSummarizer(t, WithEntityExtractor(fixedEntities{"Falcon"}))
	scored := s.Score(plain)

	if len(scored) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(scored))
	}

	if scored[1].Score < scored[0].Score+1-1e-9 {
		t.Fatalf("entity sentence score %v should be at least %v", scored[1].Score, scored[0].Score+1)
	}
}

func TestWithTopK(t *testing.T) {
	s := newTestSummarizer(t, WithTopK(1), WithEntityExtractor(fixedEntities{"Mars"}))

	got := s.Summarize("We like rockets. We plan trips to Mars.")
	if got != "We plan trips to Mars." {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestScorePossessiveCountsItsNoun(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(fixedEntities(nil)))
	paragraph := "The rocket flew high. The rocket's engine failed. Engines are hard."

	scored := s.Score(paragraph)
	if len(scored) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(scored))
	}

	shared := math.Log(4.0/3.0) + 1
	if got, want := scored[1].Score, 2*shared; math.Abs(got-want) > 1e-9 {
		t.Fatalf("possessive sentence score = %v, want %v", got, want)
	}

	want := "The rocket flew high. The rocket's engine failed. Engines are hard."
	if got := s.Summarize(paragraph); got != want {
		t.Fatalf("unexpected summary:\n got: %q\nwant: %q", got, want)
	}
}

func TestScoreReportsRepeatedSentenceOnce(t *testing.T) {
	s := newTestSummarizer(t, WithEntityExtractor(fixedEntities(nil)))
	paragraph := "We go to Mars. We go to Mars. Cats sleep."

	scored := s.Score(paragraph)
	if len(scored) != 2 {
		t.Fatalf("expected 2 distinct sentences, got %d: %+v", len(scored), scored)
	}

	if scored[0].Index != 0 || scored[1].Index != 2 {
		t.Fatalf("expected first-occurrence indices 0 and 2, got %d and %d", scored[0].Index, scored[1].Index)
	}

	if got, want := s.Summarize(paragraph), "Cats sleep. We go to Mars."; got != want {
		t.Fatalf("unexpected summary:\n got: %q\nwant: %q", got, want)
	}
}

func TestWordTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "possessive", input: "the rocket's engine", want: []string{"the", "rocket", "'s", "engine"}},
		{name: "negation", input: "don't", want: []string{"do", "n't"}},
		{name: "future", input: "we'll", want: []string{"we", "'ll"}},
		{name: "curly apostrophe", input: "spacex’s", want: []string{"spacex", "'s"}},
		{name: "hyphen and inner apostrophe", input: "well-known o'clock", want: []string{"well-known", "o'clock"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wordTokens(tt.input); !slices.Equal(got, tt.want) {
				t.Fatalf("wordTokens(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInverseDocumentFrequencies(t *testing.T) {
	if idf := inverseDocumentFrequencies([]string{"only one"}); len(idf) != 0 {
		t.Fatalf("single document must not produce weights, got %v", idf)
	}

	if idf := inverseDocumentFrequencies([]string{"", "", "word"}); len(idf) != 0 {
		t.Fatalf("one non-empty document must not produce weights, got %v", idf)
	}

	idf := inverseDocumentFrequencies([]string{"rocket launch", "rocket", ""})
	if got, want := idf["rocket"], math.Log(4.0/3.0)+1; math.Abs(got-want) > 1e-12 {
		t.Fatalf("idf(rocket) = %v, want %v", got, want)
	}
	if got, want := idf["launch"], math.Log(4.0/2.0)+1; math.Abs(got-want) > 1e-12 {
		t.Fatalf("idf(launch) = %v, want %v", got, want)
	}
}
