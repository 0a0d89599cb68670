package validate

import (
	"unicode"
)

// Bigrams returns the set of adjacent rune pairs of text with whitespace removed.
// A single remaining rune is its own gram, so any non-empty text is fully
// similar to itself.
func Bigrams(text string) map[string]struct{} {
	runes := make([]rune, 0, len(text))
	for _, r := range text {
		if !unicode.IsSpace(r) {
			runes = append(runes, r)
		}
	}

	set := make(map[string]struct{}, len(runes))
	if len(runes) == 1 {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|, and 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity is the bigram Jaccard similarity of two texts, in [0,1].
func Similarity(a, b string) float64 {
	return Jaccard(Bigrams(a), Bigrams(b))
}

// SimilarityReport is the closest match of a candidate against history.
type SimilarityReport struct {
	Max         float64
	MostSimilar string // empty when history is empty
}

// MostSimilar compares text against each prior text and reports the maximum.
func MostSimilar(text string, history []string) SimilarityReport {
	var report SimilarityReport
	grams := Bigrams(text)
	for _, prior := range history {
		sim := Jaccard(grams, Bigrams(prior))
		if report.MostSimilar == "" || sim > report.Max {
			report.Max = sim
			report.MostSimilar = prior
		}
	}
	return report
}

// PassesSimilarity reports whether text stays at or under threshold against history.
func PassesSimilarity(text string, history []string, threshold float64) bool {
	return MostSimilar(text, history).Max <= threshold
}
