package engine

import (
	"errors"

	"poster/pkg/proto"
)

// ErrPublishFailed wraps any error from the publisher. The run's counters are
// persisted before it is returned.
var ErrPublishFailed = errors.New("publish failed")

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeQuotaReached  Outcome = "quota_reached"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeNoContent     Outcome = "no_content"
	OutcomeWouldPost     Outcome = "would_post"
	OutcomePosted        Outcome = "posted"
	OutcomePublishFailed Outcome = "publish_failed"
)

// Result summarizes a run.
type Result struct {
	Outcome  Outcome
	Slot     proto.SlotID
	Text     string // as published, including hashtags
	Source   proto.TextSource
	PostID   string
	Attempts int // generator calls made
	HadImage bool
	Mood     proto.Mood
	Energy   int
	Model    string
}

