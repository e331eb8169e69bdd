// Package handler exposes the HTTP API. Routing is chi; request and
// response bodies are JSON. Errors use a flat {"code","message"} body so
// till clients can branch on the code without parsing the message.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dukapos/dukapos/internal/auth"
	"github.com/dukapos/dukapos/internal/domain/customer"
	"github.com/dukapos/dukapos/internal/domain/product"
	"github.com/dukapos/dukapos/internal/domain/sale"
	"github.com/dukapos/dukapos/internal/domain/user"
	"github.com/dukapos/dukapos/internal/payment"
	"github.com/dukapos/dukapos/internal/report"
)

// Invalidator drops cached catalog entries after stock changes.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...int64)
}

// Server holds the handler dependencies and builds the API router.
type Server struct {
	sales     *sale.Service
	products  product.Repository
	customers customer.Repository
	users     user.Repository
	tokens    *auth.TokenManager
	payments  *payment.Gateway
	reports   *report.Exporter
	cache     Invalidator
	metrics   *Metrics
}

// Config carries the collaborators for NewServer. Payments, Reports and
// Cache are optional; routes for absent ones respond 404.
type Config struct {
	Sales     *sale.Service
	Products  product.Repository
	Customers customer.Repository
	Users     user.Repository
	Tokens    *auth.TokenManager
	Payments  *payment.Gateway
	Reports   *report.Exporter
	Cache     Invalidator
}

// NewServer builds a Server from its dependencies.
func NewServer(cfg Config, metrics *Metrics) *Server {
	return &Server{
		sales:     cfg.Sales,
		products:  cfg.Products,
		customers: cfg.Customers,
		users:     cfg.Users,
		tokens:    cfg.Tokens,
		payments:  cfg.Payments,
		reports:   cfg.Reports,
		cache:     cfg.Cache,
		metrics:   metrics,
	}
}

// Routes builds the full API router. Everything under /api except
// register and login requires a valid bearer token; write access to the
// catalog and the report download are additionally role-gated.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", s.registerUser)
		r.Post("/users/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/users/me", s.me)
			r.Put("/users/change-password", s.changePassword)

			r.Get("/products", s.listProducts)
			r.Get("/products/{id}", s.getProduct)

			r.Get("/customers", s.listCustomers)
			r.Get("/customers/{id}", s.getCustomer)

			r.Post("/sales", s.createSale)

			if s.payments != nil {
				r.Post("/payments/initiate", s.initiatePayment)
				r.Post("/payments/confirm", s.confirmPayment)
			}

			r.Group(func(r chi.Router) {
				r.Use(requireRoles(user.RoleAdmin, user.RoleManager))

				r.Post("/products", s.createProduct)
				r.Put("/products/{id}", s.updateProduct)
				r.Delete("/products/{id}", s.deleteProduct)

				r.Post("/customers", s.createCustomer)

				if s.reports != nil {
					r.Get("/reports/sales.xlsx", s.salesReport)
				}
			})
		})
	})

	return r
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("request failed", zap.String("code", code), zap.String("message", message))
	}
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
