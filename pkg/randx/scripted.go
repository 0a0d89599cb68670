package randx

// Scripted replays fixed Float64 values, then delegates to a fallback source.
// IntN and Shuffle always use the fallback. Intended for tests that need to
// force specific probability outcomes.
type Scripted struct {
	Floats   []float64
	Fallback Source
	pos      int
}

// NewScripted returns a scripted source with a seeded fallback.
func NewScripted(floats ...float64) *Scripted {
	return &Scripted{Floats: floats, Fallback: New(1)}
}

// Float64 returns the next scripted value, or a fallback draw.
func (s *Scripted) Float64() float64 {
	if s.pos < len(s.Floats) {
		v := s.Floats[s.pos]
		s.pos++
		return v
	}
	return s.Fallback.Float64()
}

// IntN delegates to the fallback source.
func (s *Scripted) IntN(n int) int {
	return s.Fallback.IntN(n)
}

// Shuffle delegates to the fallback source.
func (s *Scripted) Shuffle(n int, swap func(i, j int)) {
	s.Fallback.Shuffle(n, swap)
}

// Consumed returns how many scripted values have been used.
func (s *Scripted) Consumed() int {
	return s.pos
}
