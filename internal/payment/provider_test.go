package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_Validation(t *testing.T) {
	g := NewGateway()
	g.Register(MethodBank, NewBankProvider(BankConfig{}))

	tests := []struct {
		name   string
		method string
		req    InitiateRequest
		want   error
	}{
		{"no method", "", InitiateRequest{Amount: decimal.NewFromInt(10), Phone: "x"}, ErrMissingFields},
		{"zero amount", MethodBank, InitiateRequest{Phone: "x"}, ErrMissingFields},
		{"no destination", MethodBank, InitiateRequest{Amount: decimal.NewFromInt(10)}, ErrMissingFields},
		{"unknown method", "crypto", InitiateRequest{Amount: decimal.NewFromInt(10), Phone: "x"}, ErrUnsupportedMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Initiate(context.Background(), tt.method, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAirtelProvider_Initiate(t *testing.T) {
	var sawToken, sawPayment bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/oauth2/token":
			sawToken = true
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "client_credentials", body["grant_type"])
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
		case "/v1/payments":
			sawPayment = true
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			var body struct {
				Subscriber struct {
					MSISDN string `json:"msisdn"`
				} `json:"subscriber"`
				Reference string `json:"reference"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "254700000001", body.Subscriber.MSISDN)
			assert.Equal(t, "POS-9", body.Reference)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "initiated"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewAirtelProvider(AirtelConfig{ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL})

	receipt, err := p.Initiate(context.Background(), InitiateRequest{
		Amount:    decimal.RequireFromString("250.00"),
		Phone:     "254700000001",
		Reference: "POS-9",
	})

	require.NoError(t, err)
	assert.True(t, sawToken)
	assert.True(t, sawPayment)
	assert.Equal(t, "POS-9", receipt.Reference)
	assert.Contains(t, string(receipt.Raw), "initiated")
}

func TestAirtelProvider_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	p := NewAirtelProvider(AirtelConfig{BaseURL: srv.URL})

	_, err := p.Initiate(context.Background(), InitiateRequest{
		Amount: decimal.NewFromInt(10),
		Phone:  "254700000001",
	})
	assert.ErrorContains(t, err, "empty access token")
}

func TestBankProvider_InitiateAndConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/payments/initiate":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "initiated"})
		case r.Method == http.MethodGet && r.URL.Path == "/payments/status/REF-1":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "settled"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewBankProvider(BankConfig{BaseURL: srv.URL, APIKey: "key-1"})

	_, err := p.Initiate(context.Background(), InitiateRequest{
		Amount:        decimal.NewFromInt(100),
		AccountNumber: "0011223344",
		Reference:     "REF-1",
	})
	require.NoError(t, err)

	receipt, err := p.Confirm(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.Contains(t, string(receipt.Raw), "settled")
}

func TestBankProvider_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	p := NewBankProvider(BankConfig{BaseURL: srv.URL})

	_, err := p.Initiate(context.Background(), InitiateRequest{
		Amount:        decimal.NewFromInt(100),
		AccountNumber: "0011223344",
	})
	assert.ErrorContains(t, err, "402")
}
