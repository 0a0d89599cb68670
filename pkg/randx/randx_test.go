package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededSourceIsDeterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
}

func TestChanceBounds(t *testing.T) {
	src := New(1)
	for i := 0; i < 100; i++ {
		assert.False(t, Chance(src, 0))
		assert.True(t, Chance(src, 1))
	}
}

func TestChanceUsesDraw(t *testing.T) {
	src := NewScripted(0.29, 0.31)
	assert.True(t, Chance(src, 0.3))
	assert.False(t, Chance(src, 0.3))
	assert.Equal(t, 2, src.Consumed())
}

func TestIntRangeInclusive(t *testing.T) {
	src := New(3)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := IntRange(src, 13, 15)
		assert.GreaterOrEqual(t, v, 13)
		assert.LessOrEqual(t, v, 15)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 4, IntRange(src, 4, 2))
}

func TestPickAndShuffled(t *testing.T) {
	src := New(9)
	assert.Equal(t, "", Pick[string](src, nil))

	items := []int{1, 2, 3, 4, 5}
	shuffled := Shuffled(src, items)
	assert.ElementsMatch(t, items, shuffled)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items, "input must not be mutated")
}
