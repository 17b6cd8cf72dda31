package packets

import (
	"time"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

type ProfileResponse struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// ScheduleResponse mirrors model.SurveySchedule but flattens times to RFC3339.
type ScheduleResponse struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	SurveyType           string  `json:"survey_type"`
	NotificationMethod   string  `json:"notification_method"`
	Frequency            string  `json:"frequency"`
	TargetHouseholds     string  `json:"target_households"`
	SpecificHouseholdIDs []int64 `json:"specific_household_ids"`
	CustomMessage        *string `json:"custom_message"`
	IsActive             bool    `json:"is_active"`
	StartDate            string  `json:"start_date"`
	ScheduledTime        string  `json:"scheduled_time"`
	DayOfWeek            *int    `json:"day_of_week"`
	DayOfMonth           *int    `json:"day_of_month"`
	NextRunDate          *string `json:"next_run_date"`
	TotalRuns            int     `json:"total_runs"`
	SurveysSent          int     `json:"surveys_sent"`
	CreatedBy            int     `json:"created_by"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

func NewScheduleResponse(s model.SurveySchedule) ScheduleResponse {
	var nextRun *string
	if s.NextRunDate != nil {
		v := s.NextRunDate.Format(time.RFC3339)
		nextRun = &v
	}
	return ScheduleResponse{
		ID:                   s.ID,
		Name:                 s.Name,
		SurveyType:           string(s.SurveyType),
		NotificationMethod:   string(s.NotificationMethod),
		Frequency:            string(s.Frequency),
		TargetHouseholds:     string(s.TargetHouseholds),
		SpecificHouseholdIDs: s.SpecificHouseholdIDs,
		CustomMessage:        s.CustomMessage,
		IsActive:             s.IsActive,
		StartDate:            s.StartDate.Format("2006-01-02"),
		ScheduledTime:        s.ScheduledTime,
		DayOfWeek:            s.DayOfWeek,
		DayOfMonth:           s.DayOfMonth,
		NextRunDate:          nextRun,
		TotalRuns:            s.TotalRuns,
		SurveysSent:          s.SurveysSent,
		CreatedBy:            s.CreatedBy,
		CreatedAt:            s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            s.UpdatedAt.Format(time.RFC3339),
	}
}

type RunNowResponse struct {
	SurveysSent int              `json:"surveys_sent"`
	Attempted   int              `json:"attempted"`
	Failed      int              `json:"failed"`
	Schedule    ScheduleResponse `json:"schedule"`
}

type ExecutionResponse struct {
	ID         int    `json:"id"`
	ScheduleID int    `json:"schedule_id"`
	Trigger    string `json:"trigger"`
	Attempted  int    `json:"attempted"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

func NewExecutionResponse(r model.ExecutionRecord) ExecutionResponse {
	return ExecutionResponse{
		ID:         r.ID,
		ScheduleID: r.ScheduleID,
		Trigger:    string(r.Trigger),
		Attempted:  r.Attempted,
		Sent:       r.Sent,
		Failed:     r.Failed,
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		FinishedAt: r.FinishedAt.Format(time.RFC3339),
	}
}
