package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapos/dukapos/internal/domain/customer"
)

type recordingEmail struct {
	to, subject, body string
	err               error
}

func (r *recordingEmail) SendEmail(_ context.Context, to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return r.err
}

type recordingSMS struct {
	to, body string
	err      error
}

func (r *recordingSMS) SendSMS(_ context.Context, to, body string) error {
	r.to, r.body = to, body
	return r.err
}

func TestOverpaymentCredited_BothChannels(t *testing.T) {
	email := &recordingEmail{}
	sms := &recordingSMS{}
	n := NewCustomerNotifier(email, sms)

	c := &customer.Customer{Name: "Jane", Email: "jane@example.com", Phone: "+254700000001"}
	err := n.OverpaymentCredited(context.Background(), c, decimal.RequireFromString("50"))

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", email.to)
	assert.Equal(t, "Overpayment Notice", email.subject)
	assert.Contains(t, email.body, "overpaid by 50")
	assert.Equal(t, "+254700000001", sms.to)
	assert.Contains(t, sms.body, "Overpayment of 50")
}

func TestBalanceOwed_SkipsMissingContacts(t *testing.T) {
	email := &recordingEmail{}
	sms := &recordingSMS{}
	n := NewCustomerNotifier(email, sms)

	c := &customer.Customer{Name: "Walk-in", Phone: "+254700000002"}
	err := n.BalanceOwed(context.Background(), c, decimal.RequireFromString("30"))

	require.NoError(t, err)
	assert.Empty(t, email.to, "no email address, no email sent")
	assert.Contains(t, sms.body, "You owe 30")
}

func TestSend_ReportsChannelFailure(t *testing.T) {
	email := &recordingEmail{err: errors.New("smtp refused")}
	n := NewCustomerNotifier(email, nil)

	c := &customer.Customer{Name: "Jane", Email: "jane@example.com"}
	err := n.OverpaymentCredited(context.Background(), c, decimal.RequireFromString("10"))

	assert.ErrorContains(t, err, "smtp refused")
}

func TestTwilioSender_SendSMS(t *testing.T) {
	var gotPath, gotTo, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewTwilioSender(SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "+15550001111",
		BaseURL:    srv.URL,
	})

	err := s.SendSMS(context.Background(), "+254700000001", "You owe 30.")
	require.NoError(t, err)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "+254700000001", gotTo)
	assert.Equal(t, "You owe 30.", gotBody)
}

func TestTwilioSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewTwilioSender(SMSConfig{AccountSID: "AC123", BaseURL: srv.URL})

	err := s.SendSMS(context.Background(), "bogus", "hi")
	assert.ErrorContains(t, err, "400")
}
