package booking

import (
	"fmt"
	"time"
)

// Layouts for the civil date and time-of-day values carried by windows.
// Both orders lexicographically, so (date, time) pairs compare as plain
// string pairs without zone conversion.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Window is the half-open [start, end) interval a reservation occupies,
// expressed as civil values in the caller's time zone. A multi-day window
// runs continuously from its start instant to its end instant, fully
// occupying all intermediate days.
type Window struct {
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
}

// Instant is a civil timestamp in the caller's time zone, used as the
// reference "now" for availability and elapsed checks.
type Instant struct {
	Date string
	Time string
}

// At converts a wall-clock time into an Instant in that time's location.
func At(t time.Time) Instant {
	return Instant{Date: t.Format(DateLayout), Time: t.Format(TimeLayout)}
}

// before compares two (date, time) pairs lexicographically.
func before(d1, t1, d2, t2 string) bool {
	if d1 != d2 {
		return d1 < d2
	}
	return t1 < t2
}

// Validate checks field formats and that the window is non-empty.
func (w Window) Validate() error {
	if _, err := time.Parse(DateLayout, w.StartDate); err != nil {
		return fmt.Errorf("start date %q: %w", w.StartDate, err)
	}
	if _, err := time.Parse(DateLayout, w.EndDate); err != nil {
		return fmt.Errorf("end date %q: %w", w.EndDate, err)
	}
	if _, err := time.Parse(TimeLayout, w.StartTime); err != nil {
		return fmt.Errorf("start time %q: %w", w.StartTime, err)
	}
	if _, err := time.Parse(TimeLayout, w.EndTime); err != nil {
		return fmt.Errorf("end time %q: %w", w.EndTime, err)
	}
	if !before(w.StartDate, w.StartTime, w.EndDate, w.EndTime) {
		return fmt.Errorf("window start %s %s must precede end %s %s", w.StartDate, w.StartTime, w.EndDate, w.EndTime)
	}
	return nil
}

// Overlaps reports whether two half-open windows intersect:
// w.start < o.end AND w.end > o.start.
func (w Window) Overlaps(o Window) bool {
	return before(w.StartDate, w.StartTime, o.EndDate, o.EndTime) &&
		before(o.StartDate, o.StartTime, w.EndDate, w.EndTime)
}

// Covers reports whether the instant falls inside the window: start <= at < end.
func (w Window) Covers(at Instant) bool {
	return !before(at.Date, at.Time, w.StartDate, w.StartTime) &&
		before(at.Date, at.Time, w.EndDate, w.EndTime)
}

// ElapsedBy reports whether the window has fully passed relative to the
// instant: end date before today, or ending today at or before the current
// time of day.
func (w Window) ElapsedBy(at Instant) bool {
	return !before(at.Date, at.Time, w.EndDate, w.EndTime)
}

func (w Window) String() string {
	return fmt.Sprintf("%s %s - %s %s", w.StartDate, w.StartTime, w.EndDate, w.EndTime)
}
