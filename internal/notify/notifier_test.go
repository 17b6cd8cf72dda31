package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) SendEmail(ctx context.Context, msg Message) error {
	s.calls++
	return s.err
}

func (s *stubSender) SendSMS(ctx context.Context, msg Message) error {
	s.calls++
	return s.err
}

func TestComposeDefaultPrompt(t *testing.T) {
	s := model.SurveySchedule{SurveyType: model.SurveyRelocation}
	h := model.Household{ID: 4, HeadName: "Ward"}

	msg := Compose(s, h)

	assert.Equal(t, "Relocation status survey", msg.Subject)
	assert.Equal(t, defaultPrompts[model.SurveyRelocation], msg.Body)
	assert.Equal(t, 4, msg.Household.ID)
}

func TestComposeCustomMessageWins(t *testing.T) {
	custom := "Please respond by Friday."
	s := model.SurveySchedule{SurveyType: model.SurveyQuick, CustomMessage: &custom}

	msg := Compose(s, model.Household{})

	assert.Equal(t, custom, msg.Body)
	assert.Equal(t, "Quick resident survey", msg.Subject)
}

func TestComposeEmptyCustomMessageFallsBack(t *testing.T) {
	empty := ""
	s := model.SurveySchedule{SurveyType: model.SurveyContact, CustomMessage: &empty}

	msg := Compose(s, model.Household{})

	assert.Equal(t, defaultPrompts[model.SurveyContact], msg.Body)
}

func TestRouterSingleChannel(t *testing.T) {
	email := &stubSender{}
	sms := &stubSender{}
	r := &Router{Email: email, SMS: sms}

	require.NoError(t, r.Send(context.Background(), model.NotifyEmail, Message{}))
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 0, sms.calls)

	require.NoError(t, r.Send(context.Background(), model.NotifySMS, Message{}))
	assert.Equal(t, 1, sms.calls)
}

func TestRouterBothSucceedsWhenOneLegDelivers(t *testing.T) {
	email := &stubSender{err: errors.New("mailbox unavailable")}
	sms := &stubSender{}
	r := &Router{Email: email, SMS: sms}

	err := r.Send(context.Background(), model.NotifyBoth, Message{})

	require.NoError(t, err)
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, sms.calls)
}

func TestRouterBothFailsWhenBothLegsFail(t *testing.T) {
	email := &stubSender{err: errors.New("mailbox unavailable")}
	sms := &stubSender{err: errors.New("gateway down")}
	r := &Router{Email: email, SMS: sms}

	err := r.Send(context.Background(), model.NotifyBoth, Message{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox unavailable")
	assert.Contains(t, err.Error(), "gateway down")
}

func TestRouterUnknownMethod(t *testing.T) {
	r := &Router{Email: &stubSender{}, SMS: &stubSender{}}
	err := r.Send(context.Background(), model.NotificationMethod("fax"), Message{})
	require.Error(t, err)
}
