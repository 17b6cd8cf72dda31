package packets

// auth

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateCurrentProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

// households

type CreateHouseholdRequest struct {
	HeadName     string  `json:"head_name" binding:"required"`
	Address      string  `json:"address" binding:"required"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
}

// survey schedules

type CreateScheduleRequest struct {
	Name                 string  `json:"name" binding:"required"`
	SurveyType           string  `json:"survey_type" binding:"required"`
	NotificationMethod   string  `json:"notification_method" binding:"required"`
	Frequency            string  `json:"frequency" binding:"required"`
	TargetHouseholds     string  `json:"target_households" binding:"required"`
	SpecificHouseholdIDs []int64 `json:"specific_household_ids"`
	CustomMessage        *string `json:"custom_message"`
	IsActive             *bool   `json:"is_active"` // default true
	StartDate            string  `json:"start_date" binding:"required"` // YYYY-MM-DD
	ScheduledTime        string  `json:"scheduled_time" binding:"required"`
	DayOfWeek            *int    `json:"day_of_week"`
	DayOfMonth           *int    `json:"day_of_month"`
}

type UpdateScheduleRequest struct {
	Name                 *string  `json:"name"`
	SurveyType           *string  `json:"survey_type"`
	NotificationMethod   *string  `json:"notification_method"`
	Frequency            *string  `json:"frequency"`
	TargetHouseholds     *string  `json:"target_households"`
	SpecificHouseholdIDs *[]int64 `json:"specific_household_ids"`
	CustomMessage        *string  `json:"custom_message"`
	StartDate            *string  `json:"start_date"` // YYYY-MM-DD
	ScheduledTime        *string  `json:"scheduled_time"`
	DayOfWeek            *int     `json:"day_of_week"`
	DayOfMonth           *int     `json:"day_of_month"`
}

// TimingChanged reports whether any field feeding next-run computation is
// part of this update.
func (r UpdateScheduleRequest) TimingChanged() bool {
	return r.Frequency != nil || r.StartDate != nil || r.ScheduledTime != nil ||
		r.DayOfWeek != nil || r.DayOfMonth != nil
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
