package schedule

import (
	"fmt"
	"time"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

// ValidationError reports a malformed or internally inconsistent schedule
// configuration. Nothing is persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule: %s %s", e.Field, e.Reason)
}

// TimeOfDay is a schedule's firing time, minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	var rest string
	// a third scanned item means trailing garbage after the minutes
	if n, _ := fmt.Sscanf(s, "%d:%d%s", &t.Hour, &t.Minute, &rest); n != 2 {
		return TimeOfDay{}, &ValidationError{Field: "scheduled_time", Reason: "must be HH:MM"}
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return t, &ValidationError{Field: "scheduled_time", Reason: "out of range"}
	}
	return t, nil
}

// On anchors the time of day to d's calendar date in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// Rule is the frequency variant of a schedule. Exactly one of day-of-week or
// day-of-month is meaningful per frequency; building a Rule makes the invalid
// combinations unrepresentable.
type Rule interface {
	// next returns the first instant strictly after ref whose date satisfies
	// the rule, at the given time of day.
	next(ref time.Time, at TimeOfDay) time.Time
}

type dailyRule struct{}

func (dailyRule) next(ref time.Time, at TimeOfDay) time.Time {
	t := at.On(ref)
	if !t.After(ref) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

type weeklyRule struct {
	day time.Weekday
}

func (r weeklyRule) next(ref time.Time, at TimeOfDay) time.Time {
	offset := (int(r.day) - int(ref.Weekday()) + 7) % 7
	t := at.On(ref.AddDate(0, 0, offset))
	if !t.After(ref) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// monthCycleRule fires on a fixed day of month every stepMonths months,
// in months aligned with anchor. stepMonths 1 = monthly, 3 = quarterly,
// 12 = annually. day is capped at 28 upstream so every month qualifies.
type monthCycleRule struct {
	day        int
	anchor     time.Month
	stepMonths int
}

func (r monthCycleRule) next(ref time.Time, at TimeOfDay) time.Time {
	offset := (int(r.anchor) - int(ref.Month())) % r.stepMonths
	if offset < 0 {
		offset += r.stepMonths
	}
	t := time.Date(ref.Year(), ref.Month()+time.Month(offset), r.day,
		at.Hour, at.Minute, 0, 0, ref.Location())
	if !t.After(ref) {
		t = time.Date(ref.Year(), ref.Month()+time.Month(offset+r.stepMonths), r.day,
			at.Hour, at.Minute, 0, 0, ref.Location())
	}
	return t
}

// RuleFor builds the frequency rule for a schedule, validating that the
// day field required by the frequency is present and in range. The
// quarterly/annual cycle is anchored to the month of start_date.
func RuleFor(s model.SurveySchedule) (Rule, error) {
	switch s.Frequency {
	case model.FreqDaily:
		return dailyRule{}, nil
	case model.FreqWeekly:
		if s.DayOfWeek == nil {
			return nil, &ValidationError{Field: "day_of_week", Reason: "required for weekly frequency"}
		}
		if *s.DayOfWeek < 0 || *s.DayOfWeek > 6 {
			return nil, &ValidationError{Field: "day_of_week", Reason: "must be 0-6"}
		}
		return weeklyRule{day: time.Weekday(*s.DayOfWeek)}, nil
	case model.FreqMonthly, model.FreqQuarterly, model.FreqAnnually:
		if s.DayOfMonth == nil {
			return nil, &ValidationError{Field: "day_of_month", Reason: "required for " + string(s.Frequency) + " frequency"}
		}
		if *s.DayOfMonth < 1 || *s.DayOfMonth > 28 {
			return nil, &ValidationError{Field: "day_of_month", Reason: "must be 1-28"}
		}
		step := 1
		switch s.Frequency {
		case model.FreqQuarterly:
			step = 3
		case model.FreqAnnually:
			step = 12
		}
		return monthCycleRule{day: *s.DayOfMonth, anchor: s.StartDate.Month(), stepMonths: step}, nil
	default:
		return nil, &ValidationError{Field: "frequency", Reason: "unknown value " + string(s.Frequency)}
	}
}
