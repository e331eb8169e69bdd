package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/domain/customer"
)

type customerPayload struct {
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Credit         decimal.Decimal `json:"credit"`
	Points         int64           `json:"points"`
	ShopCardNumber string          `json:"shop_card_number,omitempty"`
}

func toCustomerPayload(c *customer.Customer) customerPayload {
	return customerPayload{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Credit:         c.Credit,
		Points:         c.Points,
		ShopCardNumber: c.ShopCardNumber,
	}
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := s.customers.List(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not list customers")
		return
	}

	out := make([]customerPayload, 0, len(customers))
	for i := range customers {
		out = append(out, toCustomerPayload(&customers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_id", "customer id must be an integer")
		return
	}

	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "customer_not_found", err.Error())
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not load customer")
		return
	}

	writeJSON(w, http.StatusOK, toCustomerPayload(c))
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body customerPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	if body.Name == "" {
		writeError(ctx, w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}

	c := customer.Customer{
		Name:           body.Name,
		Email:          body.Email,
		Phone:          body.Phone,
		Credit:         decimal.Zero,
		ShopCardNumber: body.ShopCardNumber,
	}
	if err := s.customers.Create(ctx, &c); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not create customer")
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerPayload(&c))
}
