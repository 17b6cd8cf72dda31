package schedule

import (
	"time"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

// NextRun computes the next instant the schedule should fire, strictly after
// ref. Pure function: the result depends only on the schedule's timing fields
// and ref. Instants are compared at second precision in ref's location.
//
// A schedule never fires before its start_date: when ref precedes the start
// date the computation runs from just before midnight of that date, so the
// start date itself is the earliest candidate.
func NextRun(s model.SurveySchedule, ref time.Time) (time.Time, error) {
	rule, err := RuleFor(s)
	if err != nil {
		return time.Time{}, err
	}
	at, err := ParseTimeOfDay(s.ScheduledTime)
	if err != nil {
		return time.Time{}, err
	}

	ref = ref.Truncate(time.Second)
	// start_date is stored as a calendar date; rebuild its midnight in ref's
	// location rather than converting the stored instant, which would shift
	// the date across the day boundary west of UTC.
	start := time.Date(s.StartDate.Year(), s.StartDate.Month(), s.StartDate.Day(), 0, 0, 0, 0, ref.Location())
	if ref.Before(start) {
		ref = start.Add(-time.Second)
	}
	return rule.next(ref, at), nil
}

// Validate checks a schedule's timing and targeting configuration without
// computing anything. Used on create/update before touching the store.
func Validate(s model.SurveySchedule) error {
	if !s.SurveyType.Valid() {
		return &ValidationError{Field: "survey_type", Reason: "unknown value " + string(s.SurveyType)}
	}
	if !s.NotificationMethod.Valid() {
		return &ValidationError{Field: "notification_method", Reason: "unknown value " + string(s.NotificationMethod)}
	}
	if !s.TargetHouseholds.Valid() {
		return &ValidationError{Field: "target_households", Reason: "unknown value " + string(s.TargetHouseholds)}
	}
	if s.TargetHouseholds == model.TargetSpecific && len(s.SpecificHouseholdIDs) == 0 {
		return &ValidationError{Field: "specific_household_ids", Reason: "must be non-empty when targeting specific households"}
	}
	if _, err := ParseTimeOfDay(s.ScheduledTime); err != nil {
		return err
	}
	_, err := RuleFor(s)
	return err
}
