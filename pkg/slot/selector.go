// Package slot maps the current hour and state to a content slot.
package slot

import (
	"poster/pkg/config"
	"poster/pkg/logx"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/state"
)

// Hours that force the exclusive slots.
var (
	morningHours = []int{6, 7}
	nightHours   = []int{23, 0}
)

// Selector chooses a slot. Rules are evaluated in strict priority order.
type Selector struct {
	slots            []config.Slot
	nightShortChance float64
	rng              randx.Source
	logger           *logx.Logger
}

// NewSelector builds a selector over the configured slots.
func NewSelector(cfg *config.Config, rng randx.Source) *Selector {
	return &Selector{
		slots:            cfg.Slots,
		nightShortChance: cfg.Tuning.NightShortChance,
		rng:              rng,
		logger:           logx.NewLogger("slot"),
	}
}

// Determine returns the slot for hour given today's state.
func (s *Selector) Determine(hour int, st *state.AgentState) proto.SlotID {
	if !st.MorningPosted && contains(morningHours, hour) {
		return proto.SlotMorning
	}

	if contains(nightHours, hour) && !st.AnyNightPosted() {
		if randx.Chance(s.rng, s.nightShortChance) {
			return proto.SlotNightShort
		}
		return proto.SlotNight
	}

	candidates := s.candidates(hour, st)
	if len(candidates) == 0 {
		s.logger.Debug("No slot configured for hour %d, defaulting to %s", hour, proto.SlotDelivery)
		return proto.SlotDelivery
	}
	return s.weightedPick(candidates)
}

// candidates are configured slots allowed at hour that are not exhausted today.
func (s *Selector) candidates(hour int, st *state.AgentState) []config.Slot {
	var out []config.Slot
	for i := range s.slots {
		c := &s.slots[i]
		if !c.AllowsHour(hour) {
			continue
		}
		if st.SlotPostedToday(c.ID) {
			continue
		}
		if c.MaxPerDay > 0 && st.SlotCountToday(c.ID) >= c.MaxPerDay {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// weightedPick draws u in [0, Σw) and subtracts weights in declared order
// until u is no longer positive.
func (s *Selector) weightedPick(candidates []config.Slot) proto.SlotID {
	total := 0.0
	for i := range candidates {
		total += candidates[i].Weight
	}
	u := s.rng.Float64() * total
	for i := range candidates {
		u -= candidates[i].Weight
		if u <= 0 {
			return candidates[i].ID
		}
	}
	return candidates[len(candidates)-1].ID
}

func contains(hours []int, hour int) bool {
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}
