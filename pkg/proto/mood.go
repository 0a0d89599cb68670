package proto

import (
	"fmt"
	"strings"
)

// Mood is the agent's emotional label. The set is closed.
type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodNeutral    Mood = "neutral"
	MoodTired      Mood = "tired"
	MoodLonely     Mood = "lonely"
	MoodExcited    Mood = "excited"
	MoodAngry      Mood = "angry"
	MoodFrustrated Mood = "frustrated"
	MoodProud      Mood = "proud"
	MoodMelancholy Mood = "melancholy"
	MoodPlayful    Mood = "playful"
	MoodRelieved   Mood = "relieved"
	MoodAnxious    Mood = "anxious"
)

// AllMoods returns every mood in declaration order.
func AllMoods() []Mood {
	return []Mood{
		MoodHappy,
		MoodNeutral,
		MoodTired,
		MoodLonely,
		MoodExcited,
		MoodAngry,
		MoodFrustrated,
		MoodProud,
		MoodMelancholy,
		MoodPlayful,
		MoodRelieved,
		MoodAnxious,
	}
}

// Valid reports whether m is one of the enumerated moods.
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodTired, MoodLonely, MoodExcited, MoodAngry,
		MoodFrustrated, MoodProud, MoodMelancholy, MoodPlayful, MoodRelieved, MoodAnxious:
		return true
	default:
		return false
	}
}

func (m Mood) String() string {
	return string(m)
}

// ParseMood parses a mood label case-insensitively.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mood %q", s)
	}
	return m, nil
}

// MoodLabels returns the mood labels as plain strings, for prompts.
func MoodLabels() []string {
	moods := AllMoods()
	labels := make([]string, len(moods))
	for i, m := range moods {
		labels[i] = string(m)
	}
	return labels
}
