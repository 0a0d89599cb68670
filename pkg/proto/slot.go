package proto

import (
	"fmt"
)

// SlotID identifies a content category. The set is closed; per-slot
// behavior is decided with exhaustive switches below.
type SlotID string

const (
	SlotMorning    SlotID = "morning"
	SlotDelivery   SlotID = "delivery"
	SlotDaily      SlotID = "daily"
	SlotEmotional  SlotID = "emotional"
	SlotIntimate   SlotID = "intimate"
	SlotNightShort SlotID = "night_short"
	SlotNight      SlotID = "night"
)

// AllSlots returns every slot in declaration order.
func AllSlots() []SlotID {
	return []SlotID{
		SlotMorning,
		SlotDelivery,
		SlotDaily,
		SlotEmotional,
		SlotIntimate,
		SlotNightShort,
		SlotNight,
	}
}

// ParseSlot validates a slot identifier.
func ParseSlot(s string) (SlotID, error) {
	id := SlotID(s)
	for _, known := range AllSlots() {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown slot %q", s)
}

func (s SlotID) String() string {
	return string(s)
}

// SkipExempt reports whether pacing may never skip this slot.
func (s SlotID) SkipExempt() bool {
	switch s {
	case SlotMorning, SlotNightShort, SlotNight:
		return true
	case SlotDelivery, SlotDaily, SlotEmotional, SlotIntimate:
		return false
	default:
		return false
	}
}

// NoImage reports whether images are always suppressed for this slot.
func (s SlotID) NoImage() bool {
	switch s {
	case SlotMorning, SlotNightShort:
		return true
	case SlotDelivery, SlotDaily, SlotEmotional, SlotIntimate, SlotNight:
		return false
	default:
		return false
	}
}

// ShortForm reports whether the slot uses the short greeting template
// (at most 15 characters, no domain vocabulary).
func (s SlotID) ShortForm() bool {
	switch s {
	case SlotMorning, SlotNightShort:
		return true
	case SlotDelivery, SlotDaily, SlotEmotional, SlotIntimate, SlotNight:
		return false
	default:
		return false
	}
}

// NightClosing reports whether the slot is one of the night-closing variants.
func (s SlotID) NightClosing() bool {
	switch s {
	case SlotNightShort, SlotNight:
		return true
	case SlotMorning, SlotDelivery, SlotDaily, SlotEmotional, SlotIntimate:
		return false
	default:
		return false
	}
}

// ThemeCategory names the theme word list drawn for the slot.
type ThemeCategory string

const (
	ThemeNone      ThemeCategory = ""
	ThemeLogistics ThemeCategory = "logistics"
	ThemeDaily     ThemeCategory = "daily"
	ThemeEmotion   ThemeCategory = "emotion"
	ThemeRomance   ThemeCategory = "romance"
)

// Theme returns the theme category used when composing prompts for the slot.
func (s SlotID) Theme() ThemeCategory {
	switch s {
	case SlotDelivery:
		return ThemeLogistics
	case SlotDaily:
		return ThemeDaily
	case SlotEmotional, SlotNight:
		return ThemeEmotion
	case SlotIntimate:
		return ThemeRomance
	case SlotMorning, SlotNightShort:
		return ThemeNone
	default:
		return ThemeNone
	}
}
