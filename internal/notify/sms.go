package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// SMSConfig holds Twilio-compatible REST API credentials.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	// BaseURL defaults to the Twilio API; override it in tests or for a
	// compatible gateway.
	BaseURL string
}

const defaultSMSBaseURL = "https://api.twilio.com"

var _ SMSSender = (*TwilioSender)(nil)

// TwilioSender sends SMS through the Twilio Messages REST endpoint.
type TwilioSender struct {
	cfg    SMSConfig
	client *http.Client
}

// NewTwilioSender creates a TwilioSender from config.
func NewTwilioSender(cfg SMSConfig) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSMSBaseURL
	}
	return &TwilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS sends one message to the given phone number.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.From)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "build sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "send sms to %s", to)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("sms gateway returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
