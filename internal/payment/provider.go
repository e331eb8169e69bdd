// Package payment initiates and confirms third-party payments over the
// mobile money and bank rails. The sale workflow never depends on these
// calls; they are a separate till-side concern.
package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for gateway routing and validation.
var (
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrMissingFields     = errors.New("missing required payment fields")
)

// Known provider method names.
const (
	MethodAirtelMoney = "airtel_money"
	MethodBank        = "bank"
)

// InitiateRequest asks a provider to debit the payer.
type InitiateRequest struct {
	Amount        decimal.Decimal
	Phone         string // mobile money rail
	AccountNumber string // bank rail
	Reference     string
}

// Receipt is a provider's acknowledgement. Raw preserves the provider's
// full response body for the caller to relay.
type Receipt struct {
	Reference string
	Raw       json.RawMessage
}

// Provider is one payment rail.
type Provider interface {
	Initiate(ctx context.Context, req InitiateRequest) (*Receipt, error)
	Confirm(ctx context.Context, reference string) (*Receipt, error)
}

// Gateway routes requests to the provider registered for a method name.
type Gateway struct {
	providers map[string]Provider
}

// NewGateway creates an empty Gateway.
func NewGateway() *Gateway {
	return &Gateway{providers: make(map[string]Provider)}
}

// Register binds a provider to a method name.
func (g *Gateway) Register(method string, p Provider) {
	g.providers[method] = p
}

// Initiate validates the request and forwards it to the matching provider.
func (g *Gateway) Initiate(ctx context.Context, method string, req InitiateRequest) (*Receipt, error) {
	if method == "" || req.Amount.Sign() <= 0 || (req.Phone == "" && req.AccountNumber == "") {
		return nil, ErrMissingFields
	}
	p, ok := g.providers[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return p.Initiate(ctx, req)
}

// Confirm queries the matching provider for the status of an earlier
// initiation.
func (g *Gateway) Confirm(ctx context.Context, method, reference string) (*Receipt, error) {
	p, ok := g.providers[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return p.Confirm(ctx, reference)
}

// doJSON issues a request and returns the response body, treating any
// non-2xx status as an error.
func doJSON(client *http.Client, req *http.Request) (json.RawMessage, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= 300 {
		return nil, errors.Errorf("provider returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
