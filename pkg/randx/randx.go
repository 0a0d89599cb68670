// Package randx provides the single randomness source injected into every
// probabilistic decision, so runs can be replayed from a seed.
package randx

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness capability used across the engine.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n). n must be positive.
	IntN(n int) int
	// Shuffle permutes n elements using swap.
	Shuffle(n int, swap func(i, j int))
}

// New returns a PCG-backed source seeded with seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewFromTime returns a source seeded from the current time.
func NewFromTime() Source {
	return New(uint64(time.Now().UnixNano())) //nolint:gosec // seed, not a secret
}

// Chance draws once and reports whether the draw fell under p.
// p <= 0 never fires; p >= 1 always fires.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Pick returns a uniformly chosen element, or the zero value for an empty slice.
func Pick[T any](src Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[src.IntN(len(items))]
}

// IntRange returns a uniform integer in [lo, hi]. If hi < lo it returns lo.
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Shuffled returns a shuffled copy of items.
func Shuffled[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
