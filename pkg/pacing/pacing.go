// Package pacing decides whether a run skips and whether a post carries an image.
package pacing

import (
	"time"

	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/state"
)

// Pacer holds the tuning and randomness used by pacing decisions.
type Pacer struct {
	tuning *config.Tuning
	rng    randx.Source
}

// New creates a pacer.
func New(tuning *config.Tuning, rng randx.Source) *Pacer {
	return &Pacer{tuning: tuning, rng: rng}
}

// SkipProbability returns the chance that this run skips, from minutes since
// the last post: none yet, under 60, under 120, or a long gap. A long gap is
// damped once today's skips reach the cap.
func (p *Pacer) SkipProbability(st *state.AgentState, now time.Time) float64 {
	t := p.tuning
	minutes := state.MinutesSinceLastPost(st, now)
	switch {
	case minutes == nil:
		return t.SkipFirstPostChance
	case *minutes < 60:
		return t.SkipUnder60Chance
	case *minutes < 120:
		return t.SkipUnder120Chance
	case st.TodaySkipCount >= t.SkipCountCap:
		return t.SkipCappedChance
	default:
		return t.SkipLongGapChance
	}
}

// ShouldSkip draws against SkipProbability. Exempt slots never skip and consume no draw.
func (p *Pacer) ShouldSkip(st *state.AgentState, slot proto.SlotID, now time.Time) bool {
	if slot.SkipExempt() {
		return false
	}
	return randx.Chance(p.rng, p.SkipProbability(st, now))
}

// ImageProbability returns the image chance from the month-to-date ratio
// against the target: flat during warm-up, boosted when well below target,
// throttled at or above it.
func (p *Pacer) ImageProbability(st *state.AgentState) float64 {
	t := p.tuning
	if st.MonthTotalPosts < t.ImageWarmupPosts {
		return t.ImageWarmupChance
	}
	ratio := state.ImageRatio(st)
	switch {
	case ratio < t.ImageTargetRatio-t.ImageBoostMargin:
		return t.ImageBoostChance
	case ratio >= t.ImageTargetRatio:
		return t.ImageAtTargetChance
	default:
		return t.ImageDefaultChance
	}
}

// ShouldPostImage draws against ImageProbability. No-image slots never post
// images and consume no draw.
func (p *Pacer) ShouldPostImage(st *state.AgentState, slot proto.SlotID) bool {
	if slot.NoImage() {
		return false
	}
	return randx.Chance(p.rng, p.ImageProbability(st))
}
