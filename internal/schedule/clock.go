package schedule

import "time"

// Clock supplies the current instant. Injected so next-run computation and
// the sweep are testable against fixed times.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// SystemClock returns a Clock reading the wall clock in loc. All schedule
// time-of-day comparisons happen in this single location.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

// FixedClock always returns t. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
