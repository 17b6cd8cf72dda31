package model

import (
	"time"

	"github.com/lib/pq"
)

// SurveyType identifies which resident survey a schedule sends.
type SurveyType string

const (
	SurveyComprehensive SurveyType = "comprehensive"
	SurveyRelocation    SurveyType = "relocation"
	SurveyDeceased      SurveyType = "deceased"
	SurveyContact       SurveyType = "contact"
	SurveyQuick         SurveyType = "quick"
)

func (t SurveyType) Valid() bool {
	switch t {
	case SurveyComprehensive, SurveyRelocation, SurveyDeceased, SurveyContact, SurveyQuick:
		return true
	}
	return false
}

// NotificationMethod selects the delivery channel(s) for a schedule.
type NotificationMethod string

const (
	NotifyEmail NotificationMethod = "email"
	NotifySMS   NotificationMethod = "sms"
	NotifyBoth  NotificationMethod = "both"
)

func (m NotificationMethod) Valid() bool {
	switch m {
	case NotifyEmail, NotifySMS, NotifyBoth:
		return true
	}
	return false
}

// Frequency is the recurrence unit of a schedule.
type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqAnnually  Frequency = "annually"
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqQuarterly, FreqAnnually:
		return true
	}
	return false
}

// TargetMode selects which households a schedule addresses.
type TargetMode string

const (
	TargetAll      TargetMode = "all"
	TargetSpecific TargetMode = "specific"
)

func (t TargetMode) Valid() bool {
	return t == TargetAll || t == TargetSpecific
}

// SurveySchedule is one recurring survey configuration.
// DayOfWeek only means something for weekly schedules, DayOfMonth for
// monthly/quarterly/annual ones; the db keeps both columns and the
// schedule package decides which one applies.
type SurveySchedule struct {
	ID                   int                `db:"id" json:"id"`
	Name                 string             `db:"name" json:"name"`
	SurveyType           SurveyType         `db:"survey_type" json:"survey_type"`
	NotificationMethod   NotificationMethod `db:"notification_method" json:"notification_method"`
	Frequency            Frequency          `db:"frequency" json:"frequency"`
	TargetHouseholds     TargetMode         `db:"target_households" json:"target_households"`
	SpecificHouseholdIDs pq.Int64Array      `db:"specific_household_ids" json:"specific_household_ids"`
	CustomMessage        *string            `db:"custom_message" json:"custom_message"`
	IsActive             bool               `db:"is_active" json:"is_active"`
	StartDate            time.Time          `db:"start_date" json:"start_date"`
	ScheduledTime        string             `db:"scheduled_time" json:"scheduled_time"` // "HH:MM"
	DayOfWeek            *int               `db:"day_of_week" json:"day_of_week"`       // 0=Sunday .. 6=Saturday
	DayOfMonth           *int               `db:"day_of_month" json:"day_of_month"`     // 1..28
	NextRunDate          *time.Time         `db:"next_run_date" json:"next_run_date"`
	TotalRuns            int                `db:"total_runs" json:"total_runs"`
	SurveysSent          int                `db:"surveys_sent" json:"surveys_sent"`
	CreatedBy            int                `db:"created_by" json:"created_by"`
	CreatedAt            time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}

// ExecutionTrigger distinguishes sweep-driven runs from operator "run now".
type ExecutionTrigger string

const (
	TriggerAutomatic ExecutionTrigger = "automatic"
	TriggerManual    ExecutionTrigger = "manual"
)

// ExecutionResult aggregates one execution's per-recipient outcomes.
type ExecutionResult struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// ExecutionRecord is one row of a schedule's execution history.
type ExecutionRecord struct {
	ID         int              `db:"id" json:"id"`
	ScheduleID int              `db:"schedule_id" json:"schedule_id"`
	Trigger    ExecutionTrigger `db:"run_trigger" json:"trigger"`
	Attempted  int              `db:"attempted" json:"attempted"`
	Sent       int              `db:"sent" json:"sent"`
	Failed     int              `db:"failed" json:"failed"`
	StartedAt  time.Time        `db:"started_at" json:"started_at"`
	FinishedAt time.Time        `db:"finished_at" json:"finished_at"`
}

// ScheduleStats is the aggregate view behind the statistics endpoint.
type ScheduleStats struct {
	TotalSchedules   int `db:"total_schedules" json:"total_schedules"`
	ActiveSchedules  int `db:"active_schedules" json:"active_schedules"`
	TotalRuns        int `db:"total_runs" json:"total_runs"`
	TotalSurveysSent int `db:"total_surveys_sent" json:"total_surveys_sent"`
	DueWithin24h     int `db:"due_within_24h" json:"due_within_24h"`
}
