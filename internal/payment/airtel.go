package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// AirtelConfig holds merchant API credentials for Airtel Money.
type AirtelConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL defaults to the production merchant API.
	BaseURL string
	// Currency and Country identify the subscriber market.
	Currency string
	Country  string
}

const defaultAirtelBaseURL = "https://openapi.airtel.africa/merchant"

var _ Provider = (*AirtelProvider)(nil)

// AirtelProvider debits subscribers through the Airtel Money merchant API.
// Every call fetches a fresh OAuth client-credentials token; merchant
// volume at a till does not justify token caching.
type AirtelProvider struct {
	cfg    AirtelConfig
	client *http.Client
}

// NewAirtelProvider creates an AirtelProvider from config.
func NewAirtelProvider(cfg AirtelConfig) *AirtelProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAirtelBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "KES"
	}
	if cfg.Country == "" {
		cfg.Country = "KE"
	}
	return &AirtelProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Initiate requests a debit from the subscriber's wallet.
func (p *AirtelProvider) Initiate(ctx context.Context, req InitiateRequest) (*Receipt, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "airtel token")
	}

	payload := map[string]any{
		"amount": map[string]any{
			"currency": p.cfg.Currency,
			"value":    req.Amount,
		},
		"reference": req.Reference,
		"subscriber": map[string]any{
			"country":  p.cfg.Country,
			"currency": p.cfg.Currency,
			"msisdn":   req.Phone,
		},
		"transaction": map[string]any{
			"type": "debit",
		},
	}

	raw, err := p.post(ctx, p.cfg.BaseURL+"/v1/payments", token, payload)
	if err != nil {
		return nil, errors.Wrap(err, "airtel initiate")
	}
	return &Receipt{Reference: req.Reference, Raw: raw}, nil
}

// Confirm fetches the status of an earlier debit.
func (p *AirtelProvider) Confirm(ctx context.Context, reference string) (*Receipt, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "airtel token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/payments/%s", p.cfg.BaseURL, reference), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build status request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	raw, err := doJSON(p.client, req)
	if err != nil {
		return nil, errors.Wrap(err, "airtel status")
	}
	return &Receipt{Reference: reference, Raw: raw}, nil
}

func (p *AirtelProvider) accessToken(ctx context.Context) (string, error) {
	raw, err := p.post(ctx, p.cfg.BaseURL+"/auth/oauth2/token", "", map[string]any{
		"client_id":     p.cfg.ClientID,
		"client_secret": p.cfg.ClientSecret,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return "", err
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", errors.Wrap(err, "parse token response")
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return tok.AccessToken, nil
}

func (p *AirtelProvider) post(ctx context.Context, url, token string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doJSON(p.client, req)
}
