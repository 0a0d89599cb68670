package persistence

import (
	"time"

	"github.com/google/uuid"
)

// Run is one invocation of the posting engine.
//
//nolint:govet // field order follows the runs table
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"`
	Slot       string    `json:"slot"`
	Attempts   int       `json:"attempts"`
	Source     string    `json:"source"`
	Energy     int       `json:"energy"`
	DryRun     bool      `json:"dry_run"`
	Error      string    `json:"error,omitempty"`
	Model      string    `json:"model,omitempty"`

	// Post is set when the run published (or would have published) text.
	Post *Post `json:"post,omitempty"`
}

// Post is a published post tied to the run that produced it.
type Post struct {
	PostedAt time.Time `json:"posted_at"`
	PostID   string    `json:"post_id"`
	Text     string    `json:"text"`
	Slot     string    `json:"slot"`
	Mood     string    `json:"mood"`
	HadImage bool      `json:"had_image"`
}

// NewRunID generates a unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}
