package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// BankConfig holds credentials for the partner bank's transfer API.
type BankConfig struct {
	BaseURL string
	APIKey  string
}

var _ Provider = (*BankProvider)(nil)

// BankProvider initiates account-to-account transfers through the partner
// bank's REST API with static API-key auth.
type BankProvider struct {
	cfg    BankConfig
	client *http.Client
}

// NewBankProvider creates a BankProvider from config.
func NewBankProvider(cfg BankConfig) *BankProvider {
	return &BankProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Initiate requests a transfer from the customer's account.
func (p *BankProvider) Initiate(ctx context.Context, req InitiateRequest) (*Receipt, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":         req.Amount,
		"account_number": req.AccountNumber,
		"reference":      req.Reference,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/payments/initiate", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	raw, err := doJSON(p.client, httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "bank initiate")
	}
	return &Receipt{Reference: req.Reference, Raw: raw}, nil
}

// Confirm fetches the status of an earlier transfer.
func (p *BankProvider) Confirm(ctx context.Context, reference string) (*Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.cfg.BaseURL+"/payments/status/"+reference, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build status request")
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	raw, err := doJSON(p.client, req)
	if err != nil {
		return nil, errors.Wrap(err, "bank status")
	}
	return &Receipt{Reference: reference, Raw: raw}, nil
}
