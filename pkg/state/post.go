package state

import (
	"strings"

	"poster/pkg/clock"
	"poster/pkg/proto"
	"poster/pkg/randx"
)

// NarrativeSeparator joins the entries of the narrative trail.
const NarrativeSeparator = " → "

const ellipsis = "…"

// ApplyPostResult records a successful post: history, counters, exclusivity
// flags, narrative trail, energy, and the default mood. The caller overrides
// the mood afterwards when the generator reported one.
func (s *Store) ApplyPostResult(st *AgentState, text string, slot proto.SlotID, hadImage bool, now clock.Snapshot) {
	t := s.tuning

	record := proto.PostRecord{Text: text, Slot: slot, Timestamp: now.Time, HadImage: hadImage}
	st.RecentPosts = append([]proto.PostRecord{record}, st.RecentPosts...)
	if len(st.RecentPosts) > t.RecentPostLimit {
		st.RecentPosts = st.RecentPosts[:t.RecentPostLimit]
	}

	st.TodayPostCount++
	st.TodaySlotsUsed = append(st.TodaySlotsUsed, slot)
	st.MonthTotalPosts++
	if hadImage {
		st.MonthImagePosts++
	}

	switch slot {
	case proto.SlotMorning:
		st.MorningPosted = true
	case proto.SlotNight:
		st.NightPosted = true
	case proto.SlotNightShort:
		st.NightShortPosted = true
	case proto.SlotDelivery, proto.SlotDaily, proto.SlotEmotional, proto.SlotIntimate:
	}

	st.TodayNarrative = s.appendNarrative(st.TodayNarrative, text)

	at := now.Time
	st.LastPostDate = now.DateKey
	st.LastPostTime = now.TimeOfDay
	st.LastPostAt = &at

	st.Energy = max(st.Energy-t.EnergyStep, t.EnergyFloor)
	st.Mood = DefaultMood(st.Mood, st.Energy, slot, s.rng, t.TiredEnergyBelow, t.LowEnergyBelow)
}

// DefaultMood derives the mood from energy and slot. It only applies when the
// generator did not report one.
func DefaultMood(current proto.Mood, energy int, slot proto.SlotID, rng randx.Source, tiredBelow, lowBelow int) proto.Mood {
	switch {
	case energy < tiredBelow:
		return proto.MoodTired
	case energy < lowBelow:
		return randx.Pick(rng, []proto.Mood{proto.MoodTired, proto.MoodFrustrated, proto.MoodMelancholy})
	}

	switch slot {
	case proto.SlotIntimate:
		return proto.MoodLonely
	case proto.SlotMorning, proto.SlotDelivery, proto.SlotDaily, proto.SlotEmotional, proto.SlotNightShort, proto.SlotNight:
		return current
	default:
		return current
	}
}

// RecordSkip marks a pacing skip.
func RecordSkip(st *AgentState) {
	st.TodaySkipped = true
	st.TodaySkipCount++
}

// Preview truncates text to n runes, adding an ellipsis when cut.
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + ellipsis
}

func (s *Store) appendNarrative(trail, text string) string {
	entry := Preview(text, s.tuning.NarrativePreviewRunes)
	if trail == "" {
		trail = entry
	} else {
		trail = trail + NarrativeSeparator + entry
	}
	if s.counter != nil && s.tuning.NarrativeTokenBudget > 0 {
		trail = s.counter.TrimLeadingSegments(trail, NarrativeSeparator, s.tuning.NarrativeTokenBudget)
	}
	return trail
}
