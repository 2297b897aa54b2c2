package world

import (
	"fmt"
	"time"
)

// Datetime is a calendar date as seen by the document.
type Datetime struct {
	Year  int
	Month time.Month
	Day   int
}

// DatetimeOf truncates t to its calendar date.
func DatetimeOf(t time.Time) Datetime {
	y, m, d := t.Date()
	return Datetime{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Datetime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC of the date.
func (d Datetime) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseDatetime parses a YYYY-MM-DD date.
func ParseDatetime(s string) (Datetime, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Datetime{}, fmt.Errorf("无法解析日期 %q: %w", s, err)
	}
	return DatetimeOf(t), nil
}

// Clock answers the document's "today" queries. The core never reads the
// wall clock except through a Clock.
type Clock interface {
	Today(offset *int) (Datetime, bool)
}

// FixedClock always reports the same date, whatever the offset. It is the
// default: compiled output stays reproducible across runs, at the cost of
// documents seeing a placeholder date.
type FixedClock struct {
	Date Datetime
}

// Epoch is the placeholder date used when no clock is configured.
var Epoch = Datetime{Year: 1970, Month: time.January, Day: 1}

// NewFixedClock returns a clock frozen at d.
func NewFixedClock(d Datetime) FixedClock { return FixedClock{Date: d} }

// Today implements Clock.
func (c FixedClock) Today(offset *int) (Datetime, bool) {
	if c.Date == (Datetime{}) {
		return Epoch, true
	}
	return c.Date, true
}

// SystemClock reads the wall clock. With a nil offset the local zone is
// used; otherwise UTC shifted by offset hours.
type SystemClock struct {
	// Now overrides time.Now in tests.
	Now func() time.Time
}

// Today implements Clock.
func (c SystemClock) Today(offset *int) (Datetime, bool) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	if offset == nil {
		return DatetimeOf(t.Local()), true
	}
	if *offset < -24 || *offset > 24 {
		return Datetime{}, false
	}
	return DatetimeOf(t.UTC().Add(time.Duration(*offset) * time.Hour)), true
}
