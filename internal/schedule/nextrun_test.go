package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

func intp(v int) *int { return &v }

func baseSchedule(freq model.Frequency) model.SurveySchedule {
	return model.SurveySchedule{
		Name:               "test",
		SurveyType:         model.SurveyQuick,
		NotificationMethod: model.NotifyEmail,
		Frequency:          freq,
		TargetHouseholds:   model.TargetAll,
		IsActive:           true,
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ScheduledTime:      "09:00",
	}
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextRunDaily(t *testing.T) {
	s := baseSchedule(model.FreqDaily)

	// before today's scheduled time: fires today
	next, err := NextRun(s, at(2024, 3, 5, 8, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 3, 5, 9, 0), next)

	// exactly at the scheduled time: fires tomorrow
	next, err = NextRun(s, at(2024, 3, 5, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 3, 6, 9, 0), next)

	// past the scheduled time: fires tomorrow
	next, err = NextRun(s, at(2024, 3, 5, 15, 30))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 3, 6, 9, 0), next)
}

func TestNextRunWeekly(t *testing.T) {
	s := baseSchedule(model.FreqWeekly)
	s.DayOfWeek = intp(1) // Monday

	// Wednesday 2024-01-03 10:00 -> following Monday 2024-01-08 09:00
	next, err := NextRun(s, at(2024, 1, 3, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 1, 8, 9, 0), next)

	// Monday morning before 09:00 fires the same day
	next, err = NextRun(s, at(2024, 1, 8, 7, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 1, 8, 9, 0), next)

	// Wednesday after the scheduled time advances a full week, not today
	s.DayOfWeek = intp(3)
	next, err = NextRun(s, at(2024, 1, 3, 10, 0)) // Wednesday
	require.NoError(t, err)
	assert.Equal(t, at(2024, 1, 10, 9, 0), next)
	assert.Equal(t, time.Wednesday, next.Weekday())
}

func TestNextRunMonthly(t *testing.T) {
	s := baseSchedule(model.FreqMonthly)
	s.DayOfMonth = intp(15)

	// current month's 15th still ahead
	next, err := NextRun(s, at(2024, 4, 10, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 4, 15, 9, 0), next)

	// 15th already passed: next month
	next, err = NextRun(s, at(2024, 4, 15, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 5, 15, 9, 0), next)

	// chaining recomputations never skips a month and stays on the 15th
	prev, err := NextRun(s, at(2024, 1, 1, 0, 0))
	require.NoError(t, err)
	for i := 0; i < 24; i++ {
		next, err = NextRun(s, prev)
		require.NoError(t, err)
		assert.Equal(t, 15, next.Day())
		assert.Equal(t, prev.AddDate(0, 1, 0), next)
		prev = next
	}
}

func TestNextRunQuarterly(t *testing.T) {
	s := baseSchedule(model.FreqQuarterly)
	s.DayOfMonth = intp(10)
	s.StartDate = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) // anchor February

	// cycle months are Feb, May, Aug, Nov
	next, err := NextRun(s, at(2024, 3, 1, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 5, 10, 9, 0), next)

	// inside an anchor month before the fire date
	next, err = NextRun(s, at(2024, 5, 2, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 5, 10, 9, 0), next)

	// past the November run the cycle wraps into next year's February
	next, err = NextRun(s, at(2024, 11, 10, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2025, 2, 10, 9, 0), next)
}

func TestNextRunAnnually(t *testing.T) {
	s := baseSchedule(model.FreqAnnually)
	s.DayOfMonth = intp(20)
	s.StartDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) // anchor June

	next, err := NextRun(s, at(2024, 3, 1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 6, 20, 9, 0), next)

	next, err = NextRun(s, at(2024, 6, 20, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2025, 6, 20, 9, 0), next)
}

func TestNextRunStartDateFloor(t *testing.T) {
	s := baseSchedule(model.FreqDaily)
	s.StartDate = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	// reference long before the start date: first run is on the start date
	next, err := NextRun(s, at(2024, 6, 1, 23, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 7, 1, 9, 0), next)

	// weekly schedule starting mid-week lands on the first qualifying
	// weekday on or after start_date
	w := baseSchedule(model.FreqWeekly)
	w.DayOfWeek = intp(1) // Monday
	w.StartDate = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) // Wednesday
	next, err = NextRun(w, at(2023, 12, 1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 1, 8, 9, 0), next)
}

func TestNextRunStartDateFloorWestOfUTC(t *testing.T) {
	// start_date is stored as UTC midnight; in a location west of UTC that
	// instant falls on the previous local day. The floor must hold to the
	// start date's calendar date, never fire a day early.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := baseSchedule(model.FreqDaily)
	s.StartDate = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextRun(s, time.Date(2024, 6, 25, 12, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, loc), next)
}

func TestNextRunRecomputeStable(t *testing.T) {
	// recomputing from an instant just before the stored next run returns
	// the same instant; toggling active twice costs nothing
	s := baseSchedule(model.FreqWeekly)
	s.DayOfWeek = intp(5)

	first, err := NextRun(s, at(2024, 2, 1, 12, 0))
	require.NoError(t, err)
	again, err := NextRun(s, at(2024, 2, 1, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestRuleForValidation(t *testing.T) {
	s := baseSchedule(model.FreqWeekly)
	_, err := RuleFor(s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "day_of_week", verr.Field)

	s = baseSchedule(model.FreqMonthly)
	_, err = RuleFor(s)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "day_of_month", verr.Field)

	s.DayOfMonth = intp(31)
	_, err = RuleFor(s)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "day_of_month", verr.Field)

	s.DayOfMonth = intp(28)
	_, err = RuleFor(s)
	assert.NoError(t, err)
}

func TestValidateTargeting(t *testing.T) {
	s := baseSchedule(model.FreqDaily)
	s.TargetHouseholds = model.TargetSpecific
	s.SpecificHouseholdIDs = nil

	err := Validate(s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "specific_household_ids", verr.Field)

	s.SpecificHouseholdIDs = []int64{4, 9}
	assert.NoError(t, Validate(s))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30}, tod)

	for _, bad := range []string{"25:00", "09:60", "morning", "", "09:00:30", "09:00abc", "09:00 pm"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}
