// Package state owns the persisted agent aggregate: its file store, day and
// month rollovers, post bookkeeping, and the derived pacing values.
package state

import (
	"time"

	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
)

// CurrentSchemaVersion is stamped on every save. Older documents are backfilled on load.
const CurrentSchemaVersion = 2

// AgentState is the single persisted aggregate, read-modify-written once per run.
type AgentState struct {
	SchemaVersion int `json:"schema_version"`

	Mood   proto.Mood `json:"mood"`
	Energy int        `json:"energy"`

	RecentPosts []proto.PostRecord `json:"recent_posts"`

	TodaySlotsUsed   []proto.SlotID `json:"today_slots_used"`
	TodayPostCount   int            `json:"today_post_count"`
	TodayMaxPosts    int            `json:"today_max_posts"`
	MorningPosted    bool           `json:"morning_posted"`
	NightPosted      bool           `json:"night_posted"`
	NightShortPosted bool           `json:"night_short_posted"`
	TodayNarrative   string         `json:"today_narrative"`
	TodaySkipped     bool           `json:"today_skipped"`
	TodaySkipCount   int            `json:"today_skip_count"`

	// RolloverDate is the civil date of the last day rollover. It keeps a
	// second load on a day without posts from rolling again.
	RolloverDate string `json:"rollover_date,omitempty"`

	MonthTotalPosts int    `json:"month_total_posts"`
	MonthImagePosts int    `json:"month_image_posts"`
	MonthKey        string `json:"month_key"`

	LastPostDate string     `json:"last_post_date,omitempty"`
	LastPostTime string     `json:"last_post_time,omitempty"`
	LastPostAt   *time.Time `json:"last_post_at,omitempty"`

	NGRetryCount      int `json:"ng_retry_count"`
	FallbackUsedCount int `json:"fallback_used_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnyNightPosted reports whether either night-closing variant was posted today.
func (s *AgentState) AnyNightPosted() bool {
	return s.NightPosted || s.NightShortPosted
}

// SlotPostedToday reports whether the slot's per-day exclusivity flag is set.
func (s *AgentState) SlotPostedToday(slot proto.SlotID) bool {
	switch {
	case slot.NightClosing():
		return s.AnyNightPosted()
	case slot == proto.SlotMorning:
		return s.MorningPosted
	default:
		return false
	}
}

// SlotCountToday counts how many posts today used slot.
func (s *AgentState) SlotCountToday(slot proto.SlotID) int {
	n := 0
	for _, used := range s.TodaySlotsUsed {
		if used == slot {
			n++
		}
	}
	return n
}

// QuotaReached reports whether today's post budget is spent.
func (s *AgentState) QuotaReached() bool {
	return s.TodayPostCount >= s.TodayMaxPosts
}

// LatestPost returns the newest recent post, or nil.
func (s *AgentState) LatestPost() *proto.PostRecord {
	if len(s.RecentPosts) == 0 {
		return nil
	}
	return &s.RecentPosts[0]
}

// MinutesSinceLastPost returns the minutes elapsed since the last post, or
// nil when no post instant was ever recorded.
func MinutesSinceLastPost(s *AgentState, now time.Time) *float64 {
	if s.LastPostAt == nil {
		return nil
	}
	m := now.Sub(*s.LastPostAt).Minutes()
	return &m
}

// ImageRatio is month image posts over month total posts, 0 before the first post.
func ImageRatio(s *AgentState) float64 {
	if s.MonthTotalPosts <= 0 {
		return 0
	}
	return float64(s.MonthImagePosts) / float64(s.MonthTotalPosts)
}

// RollDailyMax draws today's post budget: with DailyMaxLowChance a uniform
// integer from the low range, otherwise from the high range.
func RollDailyMax(rng randx.Source, t *config.Tuning) int {
	if randx.Chance(rng, t.DailyMaxLowChance) {
		return randx.IntRange(rng, t.DailyMaxLowMin, t.DailyMaxLowMax)
	}
	return randx.IntRange(rng, t.DailyMaxHighMin, t.DailyMaxHighMax)
}
