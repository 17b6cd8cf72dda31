package notify

import "github.com/Cedarline-Labs/civichub/internal/model"

var defaultSubjects = map[model.SurveyType]string{
	model.SurveyComprehensive: "Annual comprehensive resident survey",
	model.SurveyRelocation:    "Relocation status survey",
	model.SurveyDeceased:      "Household registry update survey",
	model.SurveyContact:       "Contact information survey",
	model.SurveyQuick:         "Quick resident survey",
}

var defaultPrompts = map[model.SurveyType]string{
	model.SurveyComprehensive: "The municipality is conducting its comprehensive resident survey. Please take a few minutes to respond so we can keep our services aligned with your household's needs.",
	model.SurveyRelocation:    "Our records may be out of date. If anyone in your household has moved or is planning to, please let us know through this short survey.",
	model.SurveyDeceased:      "We are updating the household registry. Please confirm the current members of your household through this survey.",
	model.SurveyContact:       "Please confirm or update your household's contact information so we can reach you about municipal services.",
	model.SurveyQuick:         "A quick question from your municipality: please respond to this short survey at your convenience.",
}

// Compose builds the message for one household: the schedule's custom text
// when present, otherwise the default prompt for the survey type.
func Compose(s model.SurveySchedule, h model.Household) Message {
	body := defaultPrompts[s.SurveyType]
	if s.CustomMessage != nil && *s.CustomMessage != "" {
		body = *s.CustomMessage
	}
	subject := defaultSubjects[s.SurveyType]
	if subject == "" {
		subject = "Resident survey"
	}
	return Message{
		Household:  h,
		SurveyType: s.SurveyType,
		Subject:    subject,
		Body:       body,
	}
}
