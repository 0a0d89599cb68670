// Package fallback selects a pre-approved text when generation is unavailable
// or keeps failing validation.
package fallback

import (
	"strings"

	"poster/pkg/config"
	"poster/pkg/logx"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/validate"
)

// Selection is a chosen fallback text.
type Selection struct {
	Text string
	// Degraded is set when no candidate passed the similarity screen and the
	// first shuffled candidate was returned anyway.
	Degraded bool
	// Filtered is set when slot keywords narrowed the pool.
	Filtered bool
}

// Selector picks fallback texts from a static pool.
type Selector struct {
	pool      []string
	slots     map[proto.SlotID][]string
	threshold float64
	rng       randx.Source
	logger    *logx.Logger
}

// NewSelector builds a selector from the configured pool and slot keywords.
func NewSelector(cfg *config.Config, rng randx.Source) *Selector {
	keywords := make(map[proto.SlotID][]string, len(cfg.Slots))
	for i := range cfg.Slots {
		keywords[cfg.Slots[i].ID] = cfg.Slots[i].FallbackKeywords
	}
	return &Selector{
		pool:      cfg.FallbackPool,
		slots:     keywords,
		threshold: cfg.Tuning.FallbackSimilarityThreshold,
		rng:       rng,
		logger:    logx.NewLogger("fallback"),
	}
}

// Select returns a text for slot. ok is false only when the pool is empty.
func (s *Selector) Select(slot proto.SlotID, recent []string) (Selection, bool) {
	if len(s.pool) == 0 {
		s.logger.Warn("Fallback pool is empty")
		return Selection{}, false
	}

	candidates := s.pool
	filtered := matching(s.pool, s.slots[slot])
	if len(filtered) > 0 {
		candidates = filtered
	}
	shuffled := randx.Shuffled(s.rng, candidates)

	for _, text := range shuffled {
		if validate.PassesSimilarity(text, recent, s.threshold) {
			return Selection{Text: text, Filtered: len(filtered) > 0}, true
		}
	}

	s.logger.Warn("No fallback for %s passed similarity %.2f, using %q", slot, s.threshold, shuffled[0])
	return Selection{Text: shuffled[0], Degraded: true, Filtered: len(filtered) > 0}, true
}

// matching keeps the texts containing at least one keyword.
func matching(pool, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	var out []string
	for _, text := range pool {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(text, kw) {
				out = append(out, text)
				break
			}
		}
	}
	return out
}
