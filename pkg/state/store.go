package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/logx"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/utils"
)

// DefaultFileName is the state document name inside the state directory.
const DefaultFileName = "state.json"

// LoadInfo describes what Load had to do to produce a current state.
type LoadInfo struct {
	Created     bool // no state file existed
	Recovered   bool // the file was unreadable and defaults were substituted
	Backfilled  bool // fields missing from an older schema were filled
	DayRolled   bool
	MonthRolled bool
}

// Changed reports whether the loaded state differs from what is on disk.
func (i LoadInfo) Changed() bool {
	return i.Created || i.Recovered || i.Backfilled || i.DayRolled || i.MonthRolled
}

// Store manages the persisted agent state file.
type Store struct {
	path    string
	tuning  *config.Tuning
	rng     randx.Source
	counter *utils.TokenCounter
	logger  *logx.Logger
}

// NewStore creates a store for the state file in dir.
// The counter bounds the narrative trail and may be nil.
func NewStore(dir string, tuning *config.Tuning, rng randx.Source, counter *utils.TokenCounter) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &Store{
		path:    filepath.Join(dir, DefaultFileName),
		tuning:  tuning,
		rng:     rng,
		counter: counter,
		logger:  logx.NewLogger("state"),
	}, nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state or creates defaults, then applies backfill
// and day/month rollover for now. It never fails: an unreadable document is
// replaced by defaults and reported through LoadInfo.
func (s *Store) Load(now clock.Snapshot) (*AgentState, LoadInfo) {
	var info LoadInfo

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		info.Created = true
		s.logger.Info("No state at %s, creating defaults", s.path)
		return s.newState(now), info
	}
	if err != nil {
		info.Recovered = true
		s.logger.Warn("State file %s unreadable, substituting defaults: %v", s.path, err)
		return s.newState(now), info
	}

	st := s.skeleton(now)
	if err := json.Unmarshal(data, st); err != nil {
		info.Recovered = true
		s.logger.Warn("State file %s corrupt, substituting defaults: %v", s.path, err)
		return s.newState(now), info
	}

	info.Backfilled = s.backfill(st, now)
	info.DayRolled = s.rolloverDay(st, now)
	info.MonthRolled = s.rolloverMonth(st, now)

	if info.DayRolled || info.MonthRolled {
		s.logger.Info("Rollover on %s (day=%v month=%v, today_max_posts=%d)",
			now.DateKey, info.DayRolled, info.MonthRolled, st.TodayMaxPosts)
	}
	return st, info
}

// Save stamps UpdatedAt and atomically replaces the state document.
func (s *Store) Save(st *AgentState, now clock.Snapshot) error {
	st.UpdatedAt = now.Time
	st.SchemaVersion = CurrentSchemaVersion

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	s.logger.Debug("State saved: posts=%d/%d energy=%d mood=%s", st.TodayPostCount, st.TodayMaxPosts, st.Energy, st.Mood)
	return nil
}

// skeleton is the document an older file is decoded over. Every field the
// file omits keeps this value. The daily max is left zero so it is rolled
// only when actually missing.
func (s *Store) skeleton(now clock.Snapshot) *AgentState {
	return &AgentState{
		Mood:           proto.MoodNeutral,
		Energy:         s.tuning.EnergyMorning,
		RecentPosts:    []proto.PostRecord{},
		TodaySlotsUsed: []proto.SlotID{},
		MonthKey:       now.MonthKey,
		CreatedAt:      now.Time,
		UpdatedAt:      now.Time,
	}
}

func (s *Store) newState(now clock.Snapshot) *AgentState {
	st := s.skeleton(now)
	st.SchemaVersion = CurrentSchemaVersion
	st.TodayMaxPosts = RollDailyMax(s.rng, s.tuning)
	st.RolloverDate = now.DateKey
	return st
}

// backfill repairs fields that an older or hand-edited document left out of
// range. Legacy date and time strings are read in now's civil zone.
func (s *Store) backfill(st *AgentState, now clock.Snapshot) bool {
	changed := st.SchemaVersion != CurrentSchemaVersion

	if !st.Mood.Valid() {
		s.logger.Warn("Unknown mood %q in state, using %s", st.Mood, proto.MoodNeutral)
		st.Mood = proto.MoodNeutral
		changed = true
	}
	if st.Energy < 0 || st.Energy > 100 {
		st.Energy = min(max(st.Energy, 0), 100)
		changed = true
	}
	if st.RecentPosts == nil {
		st.RecentPosts = []proto.PostRecord{}
		changed = true
	}
	if len(st.RecentPosts) > s.tuning.RecentPostLimit {
		st.RecentPosts = st.RecentPosts[:s.tuning.RecentPostLimit]
		changed = true
	}
	if st.TodaySlotsUsed == nil {
		st.TodaySlotsUsed = []proto.SlotID{}
		changed = true
	}
	if st.TodayMaxPosts <= 0 {
		st.TodayMaxPosts = RollDailyMax(s.rng, s.tuning)
		changed = true
	}
	// Documents that predate last_post_at only carry date and time strings.
	if st.LastPostAt == nil && st.LastPostDate != "" && st.LastPostTime != "" {
		stamp := st.LastPostDate + " " + st.LastPostTime
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, now.Time.Location()); err == nil {
			st.LastPostAt = &t
			changed = true
		}
	}
	return changed
}

// rolloverDay resets per-day fields when neither the last post nor the last
// rollover happened today.
func (s *Store) rolloverDay(st *AgentState, now clock.Snapshot) bool {
	if now.IsSameDay(&st.LastPostDate) || now.IsSameDay(&st.RolloverDate) {
		return false
	}

	st.TodaySlotsUsed = []proto.SlotID{}
	st.TodayPostCount = 0
	st.MorningPosted = false
	st.NightPosted = false
	st.NightShortPosted = false
	st.TodayNarrative = ""
	st.TodaySkipped = false
	st.TodaySkipCount = 0
	st.Energy = s.tuning.EnergyMorning
	st.TodayMaxPosts = RollDailyMax(s.rng, s.tuning)
	st.RolloverDate = now.DateKey
	return true
}

func (s *Store) rolloverMonth(st *AgentState, now clock.Snapshot) bool {
	if now.IsSameMonth(&st.MonthKey) {
		return false
	}
	st.MonthTotalPosts = 0
	st.MonthImagePosts = 0
	st.MonthKey = now.MonthKey
	return true
}
