package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// GatewaySMS posts survey texts to the municipality's SMS gateway. The
// gateway owns carrier handling; from here it is one HTTP call per message.
type GatewaySMS struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGatewaySMS(url, apiKey string) *GatewaySMS {
	return &GatewaySMS{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GatewaySMS) SendSMS(ctx context.Context, msg Message) error {
	if msg.Household.ContactPhone == nil || *msg.Household.ContactPhone == "" {
		return fmt.Errorf("household %d has no contact phone", msg.Household.ID)
	}

	payload, err := json.Marshal(map[string]string{
		"to":   *msg.Household.ContactPhone,
		"text": msg.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	log.Debug().Int("household_id", msg.Household.ID).Msg("survey sms sent")
	return nil
}

// LogSender is the development fallback when no transport is configured; it
// logs instead of delivering. Implements both sender interfaces.
type LogSender struct{}

func (LogSender) SendEmail(ctx context.Context, msg Message) error {
	log.Info().Int("household_id", msg.Household.ID).Str("subject", msg.Subject).Msg("email transport not configured, logging only")
	return nil
}

func (LogSender) SendSMS(ctx context.Context, msg Message) error {
	log.Info().Int("household_id", msg.Household.ID).Msg("sms transport not configured, logging only")
	return nil
}
