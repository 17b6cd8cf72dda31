package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

// Message is one survey notification addressed to one household.
type Message struct {
	Household  model.Household
	SurveyType model.SurveyType
	Subject    string
	Body       string
}

// EmailSender delivers one message to one household over email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// SMSSender delivers one message to one household over SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, msg Message) error
}

// Notifier fans a message out over the channels a schedule asks for.
type Notifier interface {
	Send(ctx context.Context, method model.NotificationMethod, msg Message) error
}

// Router routes by notification method. With method "both" a delivery counts
// as successful when at least one channel got the survey to the household;
// the failed channel is logged.
type Router struct {
	Email EmailSender
	SMS   SMSSender
}

func (r *Router) Send(ctx context.Context, method model.NotificationMethod, msg Message) error {
	switch method {
	case model.NotifyEmail:
		return r.Email.SendEmail(ctx, msg)
	case model.NotifySMS:
		return r.SMS.SendSMS(ctx, msg)
	case model.NotifyBoth:
		emailErr := r.Email.SendEmail(ctx, msg)
		smsErr := r.SMS.SendSMS(ctx, msg)
		if emailErr != nil && smsErr != nil {
			return fmt.Errorf("email: %v; sms: %v", emailErr, smsErr)
		}
		if emailErr != nil {
			log.Warn().Err(emailErr).Int("household_id", msg.Household.ID).Msg("email leg failed, sms delivered")
		}
		if smsErr != nil {
			log.Warn().Err(smsErr).Int("household_id", msg.Household.ID).Msg("sms leg failed, email delivered")
		}
		return nil
	default:
		return fmt.Errorf("unknown notification method %q", method)
	}
}
