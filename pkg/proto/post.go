package proto

import (
	"time"
)

// PostRecord is one published post kept in the recent history.
type PostRecord struct {
	Text      string    `json:"text"`
	Slot      SlotID    `json:"slot"`
	Timestamp time.Time `json:"timestamp"`
	HadImage  bool      `json:"had_image"`
}

// TextSource says where a post's text came from.
type TextSource string

const (
	SourceGenerated TextSource = "generated"
	SourceFallback  TextSource = "fallback"
)

// Texts returns the text of each record, preserving order.
func Texts(records []PostRecord) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].Text
	}
	return out
}
