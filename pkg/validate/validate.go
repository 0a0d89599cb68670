// Package validate checks candidate post text against length, emoji,
// vocabulary, and recent-post similarity rules. All checks are pure.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"poster/pkg/config"
)

// Rules are the validation limits and vocabularies.
type Rules struct {
	MaxLength           int
	MaxEmoji            int
	Forbidden           []string
	Required            []string
	SimilarityThreshold float64
}

// RulesFromConfig builds the generation-time rules.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		MaxLength:           cfg.Tuning.MaxTextLength,
		MaxEmoji:            cfg.Tuning.MaxEmoji,
		Forbidden:           cfg.Vocabulary.Forbidden,
		Required:            cfg.Vocabulary.Required,
		SimilarityThreshold: cfg.Tuning.SimilarityThreshold,
	}
}

// Result aggregates every failing check.
type Result struct {
	Valid         bool
	Errors        []string
	Length        int
	EmojiCount    int
	ForbiddenHits []string
	MaxSimilarity float64
	MostSimilar   string
}

// Validator applies Rules.
type Validator struct {
	rules Rules
}

// New creates a validator.
func New(rules Rules) *Validator {
	return &Validator{rules: rules}
}

// Validate runs all checks. requireVocabulary enables the domain-term check.
func (v *Validator) Validate(text string, requireVocabulary bool, recent []string) Result {
	r := v.rules
	var res Result

	res.Length = Length(text)
	if res.Length > r.MaxLength {
		res.Errors = append(res.Errors, fmt.Sprintf("too long: %d characters (max %d)", res.Length, r.MaxLength))
	}

	res.EmojiCount = CountEmoji(text)
	if res.EmojiCount > r.MaxEmoji {
		res.Errors = append(res.Errors, fmt.Sprintf("too many emoji: %d (max %d)", res.EmojiCount, r.MaxEmoji))
	}

	res.ForbiddenHits = ForbiddenTerms(text, r.Forbidden)
	if len(res.ForbiddenHits) > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("forbidden terms: %s", strings.Join(res.ForbiddenHits, ", ")))
	}

	if requireVocabulary && len(r.Required) > 0 && !HasRequiredTerm(text, r.Required) {
		res.Errors = append(res.Errors, "no required domain term present")
	}

	sim := MostSimilar(text, recent)
	res.MaxSimilarity = sim.Max
	res.MostSimilar = sim.MostSimilar
	if sim.Max > r.SimilarityThreshold {
		res.Errors = append(res.Errors, fmt.Sprintf("too similar (%.2f) to recent post %q", sim.Max, sim.MostSimilar))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Length counts Unicode code points as given. Decomposed sequences count
// every code point.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// ForbiddenTerms returns each forbidden term found in text. Matching folds case
// and compatibility forms, so full-width "ＡＩ" matches "AI".
func ForbiddenTerms(text string, forbidden []string) []string {
	folded := fold(text)
	var hits []string
	for _, term := range forbidden {
		if term != "" && strings.Contains(folded, fold(term)) {
			hits = append(hits, term)
		}
	}
	return hits
}

func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// HasRequiredTerm reports whether any required term appears (case-sensitive).
func HasRequiredTerm(text string, required []string) bool {
	for _, term := range required {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}
