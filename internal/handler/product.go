package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/domain/product"
)

type productPayload struct {
	ID         int64           `json:"id,omitempty"`
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID int64           `json:"category_id"`
	Image      string          `json:"image,omitempty"`
}

func toProductPayload(p *product.Product) productPayload {
	return productPayload{
		ID:         p.ID,
		Name:       p.Name,
		Barcode:    p.Barcode,
		Price:      p.Price,
		Stock:      p.Stock,
		CategoryID: p.CategoryID,
		Image:      p.Image,
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// listProducts handles GET /api/products. Filters are exact matches, the
// way a barcode scanner queries the catalog.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := product.Filter{
		Name:       q.Get("name"),
		Barcode:    q.Get("barcode"),
		SortBy:     q.Get("sort_by"),
		Descending: q.Get("order") == "desc",
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid_query", "category_id must be an integer")
			return
		}
		f.CategoryID = id
	}

	products, err := s.products.List(ctx, f)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not list products")
		return
	}

	out := make([]productPayload, 0, len(products))
	for i := range products {
		out = append(out, toProductPayload(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_id", "product id must be an integer")
		return
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "product_not_found", err.Error())
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not load product")
		return
	}

	writeJSON(w, http.StatusOK, toProductPayload(p))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body productPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	if body.Name == "" || body.Price.Sign() < 0 || body.Stock < 0 {
		writeError(ctx, w, http.StatusBadRequest, "validation_failed", "name is required; price and stock must not be negative")
		return
	}

	p := product.Product{
		Name:       body.Name,
		Barcode:    body.Barcode,
		Price:      body.Price,
		Stock:      body.Stock,
		CategoryID: body.CategoryID,
		Image:      body.Image,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		if errors.Is(err, product.ErrInvalidCategory) {
			writeError(ctx, w, http.StatusUnprocessableEntity, "invalid_category", err.Error())
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not create product")
		return
	}

	writeJSON(w, http.StatusCreated, toProductPayload(&p))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_id", "product id must be an integer")
		return
	}

	var body productPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}

	p := product.Product{
		ID:         id,
		Name:       body.Name,
		Barcode:    body.Barcode,
		Price:      body.Price,
		Stock:      body.Stock,
		CategoryID: body.CategoryID,
		Image:      body.Image,
	}
	if err := s.products.Update(ctx, &p); err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			writeError(ctx, w, http.StatusNotFound, "product_not_found", err.Error())
		case errors.Is(err, product.ErrInvalidCategory):
			writeError(ctx, w, http.StatusUnprocessableEntity, "invalid_category", err.Error())
		default:
			writeError(ctx, w, http.StatusInternalServerError, "internal", "could not update product")
		}
		return
	}

	writeJSON(w, http.StatusOK, toProductPayload(&p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_id", "product id must be an integer")
		return
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "product_not_found", err.Error())
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
