package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/utils"
)

var jst = clock.Zone(clock.DefaultOffsetHours)

func at(y int, m time.Month, d, hh, mm int) clock.Snapshot {
	return clock.At(time.Date(y, m, d, hh, mm, 0, 0, jst), jst)
}

func newTestStore(t *testing.T) (*Store, *config.Tuning) {
	t.Helper()
	tuning := config.DefaultTuning()
	store, err := NewStore(t.TempDir(), &tuning, randx.New(42), nil)
	require.NoError(t, err)
	return store, &tuning
}

// perDay extracts the fields a day rollover is responsible for.
type perDay struct {
	SlotsUsed    []proto.SlotID
	PostCount    int
	MaxPosts     int
	Morning      bool
	Night        bool
	NightShort   bool
	Narrative    string
	Skipped      bool
	SkipCount    int
	Energy       int
	RolloverDate string
}

func perDayOf(st *AgentState) perDay {
	return perDay{
		SlotsUsed:    st.TodaySlotsUsed,
		PostCount:    st.TodayPostCount,
		MaxPosts:     st.TodayMaxPosts,
		Morning:      st.MorningPosted,
		Night:        st.NightPosted,
		NightShort:   st.NightShortPosted,
		Narrative:    st.TodayNarrative,
		Skipped:      st.TodaySkipped,
		SkipCount:    st.TodaySkipCount,
		Energy:       st.Energy,
		RolloverDate: st.RolloverDate,
	}
}

func writeState(t *testing.T, store *Store, st *AgentState) {
	t.Helper()
	data, err := json.Marshal(st)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), data, 0644))
}

func TestLoadCreatesDefaults(t *testing.T) {
	store, tuning := newTestStore(t)
	now := at(2025, 3, 10, 9, 0)

	st, info := store.Load(now)

	assert.True(t, info.Created)
	assert.True(t, info.Changed())
	assert.Equal(t, proto.MoodNeutral, st.Mood)
	assert.Equal(t, tuning.EnergyMorning, st.Energy)
	assert.Equal(t, "2025-03", st.MonthKey)
	assert.Equal(t, "2025-03-10", st.RolloverDate)
	assert.GreaterOrEqual(t, st.TodayMaxPosts, tuning.DailyMaxLowMin)
	assert.LessOrEqual(t, st.TodayMaxPosts, tuning.DailyMaxHighMax)
	assert.Empty(t, st.RecentPosts)
	assert.Nil(t, st.LastPostAt)
	assert.Equal(t, now.Time, st.CreatedAt)
}

func TestLoadIsIdempotentWithinADay(t *testing.T) {
	store, _ := newTestStore(t)
	yesterday := at(2025, 3, 9, 22, 0)
	morning := at(2025, 3, 10, 8, 0)
	noon := at(2025, 3, 10, 12, 0)

	st, _ := store.Load(yesterday)
	store.ApplyPostResult(st, "昨日の荷物", proto.SlotDelivery, false, yesterday)
	require.NoError(t, store.Save(st, yesterday))

	first, info := store.Load(morning)
	require.True(t, info.DayRolled)
	require.NoError(t, store.Save(first, morning))

	second, info := store.Load(noon)
	assert.False(t, info.DayRolled)
	assert.False(t, info.Changed())

	if diff := cmp.Diff(perDayOf(first), perDayOf(second)); diff != "" {
		t.Errorf("per-day fields changed between loads (-first +second):\n%s", diff)
	}
}

func TestDayRolloverResetsPerDayFields(t *testing.T) {
	store, tuning := newTestStore(t)
	yesterday := "2025-03-09"
	prev := &AgentState{
		SchemaVersion:    CurrentSchemaVersion,
		Mood:             proto.MoodTired,
		Energy:           10,
		RecentPosts:      []proto.PostRecord{{Text: "x", Slot: proto.SlotNight}},
		TodaySlotsUsed:   []proto.SlotID{proto.SlotMorning, proto.SlotNight},
		TodayPostCount:   12,
		TodayMaxPosts:    12,
		MorningPosted:    true,
		NightPosted:      true,
		NightShortPosted: true,
		TodayNarrative:   "a → b",
		TodaySkipped:     true,
		TodaySkipCount:   2,
		RolloverDate:     yesterday,
		MonthKey:         "2025-03",
		MonthTotalPosts:  40,
		LastPostDate:     yesterday,
		LastPostTime:     "23:30:00",
		NGRetryCount:     3,
	}
	writeState(t, store, prev)

	st, info := store.Load(at(2025, 3, 10, 7, 0))

	assert.True(t, info.DayRolled)
	assert.False(t, info.MonthRolled)
	assert.Empty(t, st.TodaySlotsUsed)
	assert.Zero(t, st.TodayPostCount)
	assert.False(t, st.MorningPosted)
	assert.False(t, st.NightPosted)
	assert.False(t, st.NightShortPosted)
	assert.Empty(t, st.TodayNarrative)
	assert.False(t, st.TodaySkipped)
	assert.Zero(t, st.TodaySkipCount)
	assert.Equal(t, tuning.EnergyMorning, st.Energy)
	assert.Equal(t, "2025-03-10", st.RolloverDate)

	// Not per-day.
	assert.Equal(t, 40, st.MonthTotalPosts)
	assert.Equal(t, 3, st.NGRetryCount)
	assert.Len(t, st.RecentPosts, 1)
	assert.Equal(t, proto.MoodTired, st.Mood)
}

func TestMonthRollover(t *testing.T) {
	store, _ := newTestStore(t)
	writeState(t, store, &AgentState{
		SchemaVersion:   CurrentSchemaVersion,
		Mood:            proto.MoodHappy,
		Energy:          50,
		TodayMaxPosts:   10,
		MonthKey:        "2025-02",
		MonthTotalPosts: 90,
		MonthImagePosts: 9,
		LastPostDate:    "2025-02-28",
		RolloverDate:    "2025-02-28",
	})

	st, info := store.Load(at(2025, 3, 1, 8, 0))

	assert.True(t, info.MonthRolled)
	assert.True(t, info.DayRolled)
	assert.Zero(t, st.MonthTotalPosts)
	assert.Zero(t, st.MonthImagePosts)
	assert.Equal(t, "2025-03", st.MonthKey)
}

func TestLoadRecoversFromCorruption(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))
	now := at(2025, 3, 10, 9, 0)

	st, info := store.Load(now)

	assert.True(t, info.Recovered)
	assert.Equal(t, proto.MoodNeutral, st.Mood)
	assert.Equal(t, now.Time, st.CreatedAt)
}

func TestLoadBackfillsOlderDocuments(t *testing.T) {
	store, tuning := newTestStore(t)
	doc := `{"mood":"sleepy","energy":140,"today_post_count":1,"last_post_date":"2025-03-10","last_post_time":"08:15:00","month_key":"2025-03"}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(doc), 0644))

	st, info := store.Load(at(2025, 3, 10, 9, 0))

	assert.True(t, info.Backfilled)
	assert.False(t, info.DayRolled)
	assert.Equal(t, proto.MoodNeutral, st.Mood)
	assert.Equal(t, 100, st.Energy)
	assert.NotNil(t, st.RecentPosts)
	assert.NotNil(t, st.TodaySlotsUsed)
	assert.GreaterOrEqual(t, st.TodayMaxPosts, tuning.DailyMaxLowMin)
	require.NotNil(t, st.LastPostAt)
	assert.Equal(t, at(2025, 3, 10, 8, 15).Time.Unix(), st.LastPostAt.Unix())
}

func TestLoadBackfillUsesConfiguredZone(t *testing.T) {
	store, _ := newTestStore(t)
	doc := `{"mood":"happy","energy":50,"last_post_date":"2025-03-10","last_post_time":"08:15:00","month_key":"2025-03"}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(doc), 0644))

	cet := clock.Zone(1)
	st, _ := store.Load(clock.At(time.Date(2025, 3, 10, 9, 0, 0, 0, cet), cet))

	require.NotNil(t, st.LastPostAt)
	want := time.Date(2025, 3, 10, 8, 15, 0, 0, cet)
	assert.True(t, want.Equal(*st.LastPostAt), "got %s", st.LastPostAt)
}

func TestSaveIsAtomicAndStamped(t *testing.T) {
	store, _ := newTestStore(t)
	now := at(2025, 3, 10, 9, 0)
	st, _ := store.Load(now)

	later := at(2025, 3, 10, 10, 0)
	require.NoError(t, store.Save(st, later))
	assert.Equal(t, later.Time, st.UpdatedAt)

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"today_max_posts"`)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestApplyPostResult(t *testing.T) {
	store, tuning := newTestStore(t)
	now := at(2025, 3, 10, 12, 0)
	st, _ := store.Load(now)
	st.Energy = 100
	st.Mood = proto.MoodHappy

	store.ApplyPostResult(st, "午前の配達が全部終わった、えらいぞわたし今日も", proto.SlotDelivery, true, now)

	assert.Equal(t, 1, st.TodayPostCount)
	assert.Equal(t, []proto.SlotID{proto.SlotDelivery}, st.TodaySlotsUsed)
	assert.Equal(t, 1, st.MonthTotalPosts)
	assert.Equal(t, 1, st.MonthImagePosts)
	assert.Equal(t, 90, st.Energy)
	assert.Equal(t, proto.MoodHappy, st.Mood)
	assert.Equal(t, "2025-03-10", st.LastPostDate)
	assert.Equal(t, "12:00:00", st.LastPostTime)
	require.NotNil(t, st.LastPostAt)
	assert.True(t, st.RecentPosts[0].HadImage)
	assert.Equal(t, "午前の配達が全部終わった、えらいぞわたし…", st.TodayNarrative)
	assert.Equal(t, tuning.NarrativePreviewRunes, len([]rune(strings.TrimSuffix(st.TodayNarrative, "…"))))

	store.ApplyPostResult(st, "おやすみ", proto.SlotNight, false, now)
	assert.True(t, st.NightPosted)
	assert.False(t, st.NightShortPosted)
	assert.True(t, st.SlotPostedToday(proto.SlotNightShort))
	assert.Equal(t, "午前の配達が全部終わった、えらいぞわたし… → おやすみ", st.TodayNarrative)
	assert.Equal(t, "おやすみ", st.LatestPost().Text)
}

func TestApplyPostResultKeepsSevenNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	now := at(2025, 3, 10, 12, 0)
	st, _ := store.Load(now)

	for i := 0; i < 10; i++ {
		store.ApplyPostResult(st, string(rune('a'+i)), proto.SlotDaily, false, now)
	}

	require.Len(t, st.RecentPosts, 7)
	assert.Equal(t, "j", st.RecentPosts[0].Text)
	assert.Equal(t, "d", st.RecentPosts[6].Text)
}

func TestApplyPostResultEnergyFloorAndMood(t *testing.T) {
	store, _ := newTestStore(t)
	now := at(2025, 3, 10, 12, 0)
	st, _ := store.Load(now)

	st.Energy = 15
	store.ApplyPostResult(st, "x", proto.SlotDaily, false, now)
	assert.Equal(t, 10, st.Energy, "floored")
	assert.Equal(t, proto.MoodTired, st.Mood)

	st.Energy = 45
	store.ApplyPostResult(st, "y", proto.SlotDaily, false, now)
	assert.Equal(t, 35, st.Energy)
	assert.Contains(t, []proto.Mood{proto.MoodTired, proto.MoodFrustrated, proto.MoodMelancholy}, st.Mood)

	st.Energy = 90
	st.Mood = proto.MoodHappy
	store.ApplyPostResult(st, "z", proto.SlotIntimate, false, now)
	assert.Equal(t, proto.MoodLonely, st.Mood)
}

func TestNarrativeTokenBudget(t *testing.T) {
	tuning := config.DefaultTuning()
	tuning.NarrativeTokenBudget = 30
	counter, err := utils.NewTokenCounter("gpt-4")
	require.NoError(t, err)
	store, err := NewStore(t.TempDir(), &tuning, randx.New(1), counter)
	require.NoError(t, err)

	now := at(2025, 3, 10, 12, 0)
	st, _ := store.Load(now)
	for i := 0; i < 20; i++ {
		store.ApplyPostResult(st, strings.Repeat("word ", 10)+string(rune('A'+i)), proto.SlotDaily, false, now)
	}

	assert.LessOrEqual(t, counter.CountTokens(st.TodayNarrative), 30)
	assert.NotEmpty(t, st.TodayNarrative)
}

func TestPacingValues(t *testing.T) {
	now := at(2025, 3, 10, 12, 0)
	st := &AgentState{}
	assert.Nil(t, MinutesSinceLastPost(st, now.Time))
	assert.Zero(t, ImageRatio(st))

	last := now.Time.Add(-150 * time.Minute)
	st.LastPostAt = &last
	m := MinutesSinceLastPost(st, now.Time)
	require.NotNil(t, m)
	assert.InDelta(t, 150.0, *m, 1e-9)

	st.MonthTotalPosts, st.MonthImagePosts = 50, 2
	assert.InDelta(t, 0.04, ImageRatio(st), 1e-9)
}

func TestRollDailyMaxDistribution(t *testing.T) {
	tuning := config.DefaultTuning()
	rng := randx.New(7)
	low := 0
	const n = 10000
	for i := 0; i < n; i++ {
		v := RollDailyMax(rng, &tuning)
		require.GreaterOrEqual(t, v, 8)
		require.LessOrEqual(t, v, 15)
		if v <= 12 {
			low++
		}
	}
	assert.InDelta(t, 0.3, float64(low)/n, 0.03)
}

func TestLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir, time.Minute)
	require.NoError(t, err)

	_, err = AcquireLock(dir, time.Minute)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, lock.Release())
	again, err := AcquireLock(dir, time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestStaleLockIsTakenOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockFileName)
	require.NoError(t, os.WriteFile(path, []byte("1"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	lock, err := AcquireLock(dir, DefaultStaleLockAge)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestSlotPostedToday(t *testing.T) {
	fresh := &AgentState{}
	for _, s := range proto.AllSlots() {
		assert.False(t, fresh.SlotPostedToday(s), s)
	}

	morning := &AgentState{MorningPosted: true}
	assert.True(t, morning.SlotPostedToday(proto.SlotMorning))
	assert.False(t, morning.SlotPostedToday(proto.SlotNight))

	short := &AgentState{NightShortPosted: true}
	assert.True(t, short.SlotPostedToday(proto.SlotNight))
	assert.True(t, short.SlotPostedToday(proto.SlotNightShort))
	assert.False(t, short.SlotPostedToday(proto.SlotMorning))
	assert.False(t, short.SlotPostedToday(proto.SlotEmotional))
}
