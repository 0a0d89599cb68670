package config

import (
	"fmt"
)

// Tuning holds every numeric product value used by the decision engine.
// The defaults are the production values; they are configuration rather than
// constants because they are tuned over time.
type Tuning struct {
	// Generation loop.
	MaxRetries int `yaml:"max_retries"` // retries after the first attempt

	// Validation.
	MaxTextLength               int     `yaml:"max_text_length"`
	MaxEmoji                    int     `yaml:"max_emoji"`
	SimilarityThreshold         float64 `yaml:"similarity_threshold"`
	FallbackSimilarityThreshold float64 `yaml:"fallback_similarity_threshold"`
	ShortFormMaxChars           int     `yaml:"short_form_max_chars"`
	MaxPublishChars             int     `yaml:"max_publish_chars"`

	// State.
	RecentPostLimit       int `yaml:"recent_post_limit"`
	EnergyMorning         int `yaml:"energy_morning"`
	EnergyStep            int `yaml:"energy_step"`
	EnergyFloor           int `yaml:"energy_floor"`
	TiredEnergyBelow      int `yaml:"tired_energy_below"`
	LowEnergyBelow        int `yaml:"low_energy_below"`
	NarrativePreviewRunes int `yaml:"narrative_preview_runes"`
	NarrativeTokenBudget  int `yaml:"narrative_token_budget"`

	// Daily max roll: with DailyMaxLowChance a uniform integer in
	// [DailyMaxLowMin, DailyMaxLowMax], else in [DailyMaxHighMin, DailyMaxHighMax].
	DailyMaxLowChance float64 `yaml:"daily_max_low_chance"`
	DailyMaxLowMin    int     `yaml:"daily_max_low_min"`
	DailyMaxLowMax    int     `yaml:"daily_max_low_max"`
	DailyMaxHighMin   int     `yaml:"daily_max_high_min"`
	DailyMaxHighMax   int     `yaml:"daily_max_high_max"`

	// Image ratio controller.
	ImageTargetRatio    float64 `yaml:"image_target_ratio"`
	ImageBoostMargin    float64 `yaml:"image_boost_margin"`
	ImageWarmupPosts    int     `yaml:"image_warmup_posts"`
	ImageWarmupChance   float64 `yaml:"image_warmup_chance"`
	ImageBoostChance    float64 `yaml:"image_boost_chance"`
	ImageAtTargetChance float64 `yaml:"image_at_target_chance"`
	ImageDefaultChance  float64 `yaml:"image_default_chance"`

	// Skip pacing.
	SkipFirstPostChance float64 `yaml:"skip_first_post_chance"`
	SkipUnder60Chance   float64 `yaml:"skip_under_60_chance"`
	SkipUnder120Chance  float64 `yaml:"skip_under_120_chance"`
	SkipLongGapChance   float64 `yaml:"skip_long_gap_chance"`
	SkipCappedChance    float64 `yaml:"skip_capped_chance"`
	SkipCountCap        int     `yaml:"skip_count_cap"`

	// Slot selection.
	NightShortChance float64 `yaml:"night_short_chance"`

	// Prompt composition.
	SelfReplyChance   float64 `yaml:"self_reply_chance"`
	MicroEventChance  float64 `yaml:"micro_event_chance"`
	QuirkChance       float64 `yaml:"quirk_chance"`
	TypoChance        float64 `yaml:"typo_chance"`
	CasualEnergyBelow int     `yaml:"casual_energy_below"`
	HashtagPoolChance float64 `yaml:"hashtag_pool_chance"`
}

// DefaultTuning returns the production tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		MaxRetries: 2,

		MaxTextLength:               140,
		MaxEmoji:                    2,
		SimilarityThreshold:         0.6,
		FallbackSimilarityThreshold: 0.5,
		ShortFormMaxChars:           15,
		MaxPublishChars:             280,

		RecentPostLimit:       7,
		EnergyMorning:         100,
		EnergyStep:            10,
		EnergyFloor:           10,
		TiredEnergyBelow:      20,
		LowEnergyBelow:        40,
		NarrativePreviewRunes: 20,
		NarrativeTokenBudget:  200,

		DailyMaxLowChance: 0.3,
		DailyMaxLowMin:    8,
		DailyMaxLowMax:    12,
		DailyMaxHighMin:   13,
		DailyMaxHighMax:   15,

		ImageTargetRatio:    0.10,
		ImageBoostMargin:    0.02,
		ImageWarmupPosts:    10,
		ImageWarmupChance:   0.10,
		ImageBoostChance:    0.30,
		ImageAtTargetChance: 0.02,
		ImageDefaultChance:  0.10,

		SkipFirstPostChance: 0.05,
		SkipUnder60Chance:   0.03,
		SkipUnder120Chance:  0.08,
		SkipLongGapChance:   0.20,
		SkipCappedChance:    0.05,
		SkipCountCap:        2,

		NightShortChance: 0.5,

		SelfReplyChance:   0.15,
		MicroEventChance:  0.40,
		QuirkChance:       0.30,
		TypoChance:        0.03,
		CasualEnergyBelow: 30,
		HashtagPoolChance: 0.5,
	}
}

// Validate checks ranges of every tuning value.
func (t *Tuning) Validate() error {
	probabilities := map[string]float64{
		"daily_max_low_chance":   t.DailyMaxLowChance,
		"image_target_ratio":     t.ImageTargetRatio,
		"image_warmup_chance":    t.ImageWarmupChance,
		"image_boost_chance":     t.ImageBoostChance,
		"image_at_target_chance": t.ImageAtTargetChance,
		"image_default_chance":   t.ImageDefaultChance,
		"skip_first_post_chance": t.SkipFirstPostChance,
		"skip_under_60_chance":   t.SkipUnder60Chance,
		"skip_under_120_chance":  t.SkipUnder120Chance,
		"skip_long_gap_chance":   t.SkipLongGapChance,
		"skip_capped_chance":     t.SkipCappedChance,
		"night_short_chance":     t.NightShortChance,
		"self_reply_chance":      t.SelfReplyChance,
		"micro_event_chance":     t.MicroEventChance,
		"quirk_chance":           t.QuirkChance,
		"typo_chance":            t.TypoChance,
		"hashtag_pool_chance":    t.HashtagPoolChance,
		"similarity_threshold":   t.SimilarityThreshold,
		"fallback_similarity":    t.FallbackSimilarityThreshold,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("tuning.%s must be within [0,1], got %v", name, p)
		}
	}

	switch {
	case t.MaxRetries < 0:
		return fmt.Errorf("tuning.max_retries must not be negative")
	case t.MaxTextLength <= 0:
		return fmt.Errorf("tuning.max_text_length must be positive")
	case t.MaxEmoji < 0:
		return fmt.Errorf("tuning.max_emoji must not be negative")
	case t.RecentPostLimit <= 0:
		return fmt.Errorf("tuning.recent_post_limit must be positive")
	case t.EnergyFloor < 0 || t.EnergyMorning > 100 || t.EnergyFloor > t.EnergyMorning:
		return fmt.Errorf("tuning energy bounds invalid: floor=%d morning=%d", t.EnergyFloor, t.EnergyMorning)
	case t.DailyMaxLowMin <= 0 || t.DailyMaxLowMin > t.DailyMaxLowMax:
		return fmt.Errorf("tuning daily max low range invalid: [%d,%d]", t.DailyMaxLowMin, t.DailyMaxLowMax)
	case t.DailyMaxHighMin <= 0 || t.DailyMaxHighMin > t.DailyMaxHighMax:
		return fmt.Errorf("tuning daily max high range invalid: [%d,%d]", t.DailyMaxHighMin, t.DailyMaxHighMax)
	case t.NarrativePreviewRunes <= 0:
		return fmt.Errorf("tuning.narrative_preview_runes must be positive")
	case t.MaxPublishChars < t.MaxTextLength:
		return fmt.Errorf("tuning.max_publish_chars must be at least max_text_length")
	}
	return nil
}
