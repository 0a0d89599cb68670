package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
)

func testConfig(pool []string) *config.Config {
	cfg := config.Default()
	cfg.FallbackPool = pool
	cfg.Slots = []config.Slot{
		{ID: proto.SlotDelivery, Hours: []int{9}, Weight: 1, FallbackKeywords: []string{"荷物"}},
		{ID: proto.SlotDaily, Hours: []int{12}, Weight: 1, FallbackKeywords: []string{"存在しない語"}},
		{ID: proto.SlotEmotional, Hours: []int{20}, Weight: 1},
	}
	return cfg
}

func TestEmptyPool(t *testing.T) {
	s := NewSelector(testConfig(nil), randx.New(1))
	_, ok := s.Select(proto.SlotDelivery, nil)
	assert.False(t, ok)
}

func TestFiltersBySlotKeywords(t *testing.T) {
	pool := []string{"荷物が重い", "空がきれい", "荷物を運んだ", "ご飯おいしい"}
	s := NewSelector(testConfig(pool), randx.New(1))

	for i := 0; i < 20; i++ {
		sel, ok := s.Select(proto.SlotDelivery, nil)
		require.True(t, ok)
		assert.Contains(t, sel.Text, "荷物")
		assert.True(t, sel.Filtered)
		assert.False(t, sel.Degraded)
	}
}

func TestNoKeywordMatchUsesWholePool(t *testing.T) {
	pool := []string{"空がきれい", "ご飯おいしい"}
	s := NewSelector(testConfig(pool), randx.New(2))

	for _, slot := range []proto.SlotID{proto.SlotDaily, proto.SlotEmotional, proto.SlotNight} {
		sel, ok := s.Select(slot, nil)
		require.True(t, ok, slot)
		assert.Contains(t, pool, sel.Text)
		assert.False(t, sel.Filtered)
	}
}

func TestSkipsTextsTooSimilarToRecent(t *testing.T) {
	pool := []string{"空がきれい", "ご飯おいしい"}
	s := NewSelector(testConfig(pool), randx.New(3))

	for i := 0; i < 20; i++ {
		sel, ok := s.Select(proto.SlotEmotional, []string{"空がきれい"})
		require.True(t, ok)
		assert.Equal(t, "ご飯おいしい", sel.Text)
	}
}

func TestDegradedWhenEverythingIsSimilar(t *testing.T) {
	pool := []string{"空がきれい", "ご飯おいしい"}
	s := NewSelector(testConfig(pool), randx.New(4))

	sel, ok := s.Select(proto.SlotEmotional, pool)
	require.True(t, ok)
	assert.True(t, sel.Degraded)
	assert.Contains(t, pool, sel.Text)
}
