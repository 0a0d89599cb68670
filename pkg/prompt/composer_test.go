package prompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/clock"
	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
	"poster/pkg/state"
)

func snapshot(hour int) clock.Snapshot {
	loc := clock.Zone(clock.DefaultOffsetHours)
	return clock.At(time.Date(2025, 7, 14, hour, 30, 0, 0, loc), loc) // a Monday in summer
}

func newComposer(t *testing.T, mutate func(*config.Config)) *Composer {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	c, err := NewComposer(cfg, randx.New(5))
	require.NoError(t, err)
	return c
}

func TestComposeFullPost(t *testing.T) {
	c := newComposer(t, func(cfg *config.Config) {
		cfg.Tuning.MicroEventChance = 1
		cfg.Tuning.QuirkChance = 1
		cfg.Tuning.TypoChance = 1
	})
	st := &state.AgentState{
		Mood:           proto.MoodProud,
		Energy:         90,
		TodayPostCount: 2,
		TodayNarrative: "朝の荷物 → 昼ごはん",
		RecentPosts:    []proto.PostRecord{{Text: "さっきの投稿"}},
	}

	p, err := c.Compose(Input{Slot: proto.SlotDelivery, State: st, Now: snapshot(10), Weather: "晴れ 28℃", WeatherHint: "寒くて手がかじかむ", HasImage: true})
	require.NoError(t, err)

	assert.Equal(t, PostTemplate, p.Template)
	assert.False(t, p.SelfReply)
	assert.Contains(t, p.System, "ミナ")
	assert.Contains(t, p.System, `"mood"`)
	assert.Contains(t, p.User, TimeOfDayTone(10))
	assert.Contains(t, p.User, Season(time.July))
	assert.Contains(t, p.User, WeekdayMood(time.Monday))
	assert.Contains(t, p.User, EnergyInstruction(90))
	assert.Contains(t, p.User, MoodColor(proto.MoodProud))
	assert.Contains(t, p.User, "さっきの出来事")
	assert.Contains(t, p.User, "くせ")
	assert.Contains(t, p.User, "誤字")
	assert.Contains(t, p.User, "晴れ 28℃")
	assert.Contains(t, p.User, "天気の影響: 寒くて手がかじかむ")
	assert.Contains(t, p.User, "朝の荷物 → 昼ごはん")
	assert.Contains(t, p.User, "写真")
	assert.Contains(t, p.User, "仕事の言葉")
	assert.Contains(t, p.User, "さっきの投稿")
}

func TestNarrativeOnlyAfterTwoPosts(t *testing.T) {
	c := newComposer(t, nil)
	st := &state.AgentState{Mood: proto.MoodNeutral, Energy: 60, TodayPostCount: 1, TodayNarrative: "ひとつめ"}

	p, err := c.Compose(Input{Slot: proto.SlotDaily, State: st, Now: snapshot(13)})
	require.NoError(t, err)
	assert.NotContains(t, p.User, "ひとつめ")
	assert.NotContains(t, p.User, "仕事の言葉", "daily does not require vocabulary")
}

func TestCasualWhenLowEnergy(t *testing.T) {
	c := newComposer(t, nil)
	st := &state.AgentState{Mood: proto.MoodTired, Energy: 20}

	p, err := c.Compose(Input{Slot: proto.SlotDaily, State: st, Now: snapshot(16)})
	require.NoError(t, err)
	assert.Contains(t, p.User, "くだけた口調")
}

func TestShortFormTemplates(t *testing.T) {
	c := newComposer(t, nil)
	st := &state.AgentState{Mood: proto.MoodNeutral, Energy: 100}

	morning, err := c.Compose(Input{Slot: proto.SlotMorning, State: st, Now: snapshot(6)})
	require.NoError(t, err)
	assert.Equal(t, MorningTemplate, morning.Template)
	assert.Contains(t, morning.User, "15文字以内")
	assert.False(t, c.RequiresVocabulary(proto.SlotMorning))

	night, err := c.Compose(Input{Slot: proto.SlotNightShort, State: st, Now: snapshot(23)})
	require.NoError(t, err)
	assert.Equal(t, NightShortTemplate, night.Template)
}

func TestSelfReply(t *testing.T) {
	c := newComposer(t, nil)
	st := &state.AgentState{
		Mood:        proto.MoodHappy,
		Energy:      70,
		RecentPosts: []proto.PostRecord{{Text: "再配達3件目、同じお宅"}},
	}

	p, err := c.Compose(Input{Slot: proto.SlotDelivery, State: st, Now: snapshot(15), SelfReply: true})
	require.NoError(t, err)
	assert.True(t, p.SelfReply)
	assert.Equal(t, SelfReplyTemplate, p.Template)
	assert.Contains(t, p.User, "再配達3件目、同じお宅")

	empty := &state.AgentState{Mood: proto.MoodHappy, Energy: 70}
	p, err = c.Compose(Input{Slot: proto.SlotDelivery, State: empty, Now: snapshot(15), SelfReply: true})
	require.NoError(t, err)
	assert.False(t, p.SelfReply, "no previous post to reply to")

	for slot, want := range map[proto.SlotID]Template{
		proto.SlotMorning:    MorningTemplate,
		proto.SlotNightShort: NightShortTemplate,
	} {
		p, err = c.Compose(Input{Slot: slot, State: st, Now: snapshot(7), SelfReply: true})
		require.NoError(t, err)
		assert.False(t, p.SelfReply, slot)
		assert.Equal(t, want, p.Template, slot)
	}
}

func TestDescriptors(t *testing.T) {
	bands := map[string]bool{}
	for h := 0; h < 24; h++ {
		bands[TimeOfDayTone(h)] = true
	}
	assert.Len(t, bands, 6)

	seasons := map[string]bool{}
	for m := time.January; m <= time.December; m++ {
		seasons[Season(m)] = true
	}
	assert.Len(t, seasons, 4)

	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.NotEmpty(t, WeekdayMood(d))
	}
	for _, m := range proto.AllMoods() {
		assert.NotEmpty(t, MoodColor(m), m)
	}

	assert.NotEmpty(t, EnergyInstruction(10))
	assert.NotEmpty(t, EnergyInstruction(30))
	assert.Empty(t, EnergyInstruction(60))
	assert.NotEmpty(t, EnergyInstruction(90))

	rng := randx.New(3)
	for i := 0; i < 50; i++ {
		n := ConcreteNumbers(rng)
		assert.GreaterOrEqual(t, len(n), 1)
		assert.LessOrEqual(t, len(n), 2)
	}
}
