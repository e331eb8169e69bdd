package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/payment"
)

type initiatePaymentRequest struct {
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Phone         string          `json:"phone,omitempty"`
	AccountNumber string          `json:"account_number,omitempty"`
	Reference     string          `json:"reference"`
}

type paymentResponse struct {
	Reference string          `json:"reference"`
	Provider  json.RawMessage `json:"provider"`
}

// initiatePayment handles POST /api/payments/initiate. This is the
// till-side debit request; recording the sale itself is a separate call.
func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body initiatePaymentRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	if body.Reference == "" {
		body.Reference = "POS-" + uuid.NewString()
	}

	receipt, err := s.payments.Initiate(ctx, body.Method, payment.InitiateRequest{
		Amount:        body.Amount,
		Phone:         body.Phone,
		AccountNumber: body.AccountNumber,
		Reference:     body.Reference,
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{Reference: receipt.Reference, Provider: receipt.Raw})
}

type confirmPaymentRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// confirmPayment handles POST /api/payments/confirm.
func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body confirmPaymentRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	if body.Reference == "" {
		writeError(ctx, w, http.StatusBadRequest, "validation_failed", "reference is required")
		return
	}

	receipt, err := s.payments.Confirm(ctx, body.Method, body.Reference)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{Reference: receipt.Reference, Provider: receipt.Raw})
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrMissingFields):
		writeError(ctx, w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, payment.ErrUnsupportedMethod):
		writeError(ctx, w, http.StatusUnprocessableEntity, "unsupported_method", err.Error())
	default:
		writeError(ctx, w, http.StatusBadGateway, "provider_error", "payment provider request failed")
	}
}
