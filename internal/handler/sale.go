package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/domain/sale"
)

type saleItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createSaleRequest struct {
	Items         []saleItemRequest `json:"items"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
	AmountPaid    decimal.Decimal   `json:"amount_paid"`
	CustomerID    int64             `json:"customer_id"`
	Reference     string            `json:"reference,omitempty"`
}

type createSaleResponse struct {
	TransactionID int64           `json:"transaction_id"`
	PaymentStatus string          `json:"payment_status"`
	Overpaid      decimal.Decimal `json:"overpaid"`
	Remaining     decimal.Decimal `json:"remaining"`
	PointsEarned  int64           `json:"points_earned"`
}

// createSale handles POST /api/sales. The cashier is the authenticated
// caller; it is never taken from the body.
func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := claimsFrom(ctx)
	if !ok {
		writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var body createSaleRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}

	req := sale.CreateSaleRequest{
		TotalAmount:   body.TotalAmount,
		PaymentMethod: sale.Method(body.PaymentMethod),
		AmountPaid:    body.AmountPaid,
		CashierID:     claims.UserID,
		CustomerID:    body.CustomerID,
		Reference:     body.Reference,
	}
	for _, it := range body.Items {
		req.Items = append(req.Items, sale.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	result, err := s.sales.CreateSale(ctx, req)
	if err != nil {
		s.writeSaleError(w, r, err)
		return
	}

	s.metrics.recordSale(ctx, "committed", body.TotalAmount.InexactFloat64())

	if s.cache != nil {
		ids := make([]int64, 0, len(req.Items))
		for _, it := range req.Items {
			ids = append(ids, it.ProductID)
		}
		s.cache.Invalidate(ctx, ids...)
	}

	writeJSON(w, http.StatusCreated, createSaleResponse{
		TransactionID: result.TransactionID,
		PaymentStatus: string(result.PaymentStatus),
		Overpaid:      result.Overpaid,
		Remaining:     result.Remaining,
		PointsEarned:  result.PointsEarned,
	})
}

// writeSaleError maps workflow errors onto the API contract. Product and
// stock problems are 422: the request was well-formed but the cart cannot
// be fulfilled as priced.
func (s *Server) writeSaleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		validationErr *sale.ValidationError
		customerErr   *sale.CustomerNotFoundError
		productErr    *sale.ProductNotFoundError
		stockErr      *sale.InsufficientStockError
		txErr         *sale.TransactionFailedError
	)

	switch {
	case errors.As(err, &validationErr):
		s.metrics.recordSale(ctx, "rejected", 0)
		writeError(ctx, w, http.StatusBadRequest, "validation_failed", validationErr.Reason)
	case errors.As(err, &customerErr):
		s.metrics.recordSale(ctx, "rejected", 0)
		writeError(ctx, w, http.StatusNotFound, "customer_not_found", customerErr.Error())
	case errors.As(err, &productErr):
		s.metrics.recordSale(ctx, "rejected", 0)
		writeError(ctx, w, http.StatusUnprocessableEntity, "product_not_found", productErr.Error())
	case errors.As(err, &stockErr):
		s.metrics.recordSale(ctx, "rejected", 0)
		writeError(ctx, w, http.StatusUnprocessableEntity, "insufficient_stock", stockErr.Error())
	case errors.As(err, &txErr):
		s.metrics.recordSale(ctx, "failed", 0)
		writeError(ctx, w, http.StatusInternalServerError, "transaction_failed", "sale could not be recorded")
	default:
		s.metrics.recordSale(ctx, "failed", 0)
		writeError(ctx, w, http.StatusInternalServerError, "internal", "internal error")
	}
}
