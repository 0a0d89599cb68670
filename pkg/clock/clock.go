// Package clock normalizes "now" to a fixed civil timezone.
package clock

import (
	"fmt"
	"time"
)

// DefaultOffsetHours is the civil timezone used when none is configured (UTC+9).
const DefaultOffsetHours = 9

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	timeLayout  = "15:04:05"
)

// Snapshot is a single reading of the clock in the civil zone.
type Snapshot struct {
	Time      time.Time
	Hour      int
	DateKey   string // YYYY-MM-DD
	MonthKey  string // YYYY-MM
	TimeOfDay string // HH:MM:SS
	Timestamp string // "<DateKey> <TimeOfDay>"
}

// Weekday returns the civil weekday.
func (s Snapshot) Weekday() time.Weekday {
	return s.Time.Weekday()
}

// Month returns the civil month.
func (s Snapshot) Month() time.Month {
	return s.Time.Month()
}

// IsSameDay reports whether dateKey names the snapshot's civil day.
// A nil or empty key is never the same day.
func (s Snapshot) IsSameDay(dateKey *string) bool {
	if dateKey == nil || *dateKey == "" {
		return false
	}
	return len(*dateKey) >= len(s.DateKey) && (*dateKey)[:len(s.DateKey)] == s.DateKey
}

// IsSameMonth reports whether monthKey names the snapshot's civil month.
func (s Snapshot) IsSameMonth(monthKey *string) bool {
	if monthKey == nil || *monthKey == "" {
		return false
	}
	return *monthKey == s.MonthKey
}

// Clock produces snapshots in a fixed civil zone.
type Clock interface {
	Now() Snapshot
}

// Civil is a wall clock pinned to a fixed UTC offset regardless of host timezone.
type Civil struct {
	loc *time.Location
	now func() time.Time
}

// Zone returns the fixed location for an offset in hours.
func Zone(offsetHours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	if offsetHours == DefaultOffsetHours {
		name = "JST"
	}
	return time.FixedZone(name, offsetHours*3600)
}

// New returns a wall clock for the given UTC offset.
func New(offsetHours int) *Civil {
	return &Civil{loc: Zone(offsetHours), now: time.Now}
}

// Now reads the wall clock.
func (c *Civil) Now() Snapshot {
	return At(c.now(), c.loc)
}

// Location returns the civil zone.
func (c *Civil) Location() *time.Location {
	return c.loc
}

// At builds a snapshot of t in loc.
func At(t time.Time, loc *time.Location) Snapshot {
	local := t.In(loc)
	date := local.Format(dateLayout)
	tod := local.Format(timeLayout)
	return Snapshot{
		Time:      local,
		Hour:      local.Hour(),
		DateKey:   date,
		MonthKey:  local.Format(monthLayout),
		TimeOfDay: tod,
		Timestamp: date + " " + tod,
	}
}

// Fixed is a clock that always returns the same instant. Set T to move it.
type Fixed struct {
	T   time.Time
	Loc *time.Location
}

// NewFixed returns a fixed clock at t in the default civil zone.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{T: t, Loc: Zone(DefaultOffsetHours)}
}

// Now returns the fixed snapshot.
func (f *Fixed) Now() Snapshot {
	return At(f.T, f.Loc)
}

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
