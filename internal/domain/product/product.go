package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalidCategory is returned when a product references a missing category.
var ErrInvalidCategory = errors.New("invalid category")

// Product is a catalog item. Stock is decremented by sales and replenished
// by restocking; it never goes negative.
type Product struct {
	ID         int64
	Name       string
	Barcode    string
	Price      decimal.Decimal
	Stock      int
	CategoryID int64
	Image      string
	CreatedAt  time.Time
}

// Filter narrows List results. Zero values mean "no constraint".
// Matching is exact, mirroring barcode-scanner lookups at the till.
type Filter struct {
	Name       string
	Barcode    string
	CategoryID int64
	SortBy     string // "price" or "stock"
	Descending bool
}

// Repository defines catalog persistence. Stock mutations during a sale do
// not go through here; they happen inside the sale's atomic unit.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
