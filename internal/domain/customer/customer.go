package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a shop customer. Credit accrues from overpayments and points
// accrue per completed sale when a shop card is enrolled. Both are
// non-decreasing through the sale workflow.
type Customer struct {
	ID             int64
	Name           string
	Email          string
	Phone          string
	Credit         decimal.Decimal
	Points         int64
	ShopCardNumber string
	CreatedAt      time.Time
}

// HasShopCard reports whether the customer is enrolled for loyalty points.
func (c *Customer) HasShopCard() bool {
	return c.ShopCardNumber != ""
}

// Repository defines customer persistence. AddPoints runs outside the sale's
// atomic unit (post-commit, best-effort); credit accrual happens inside the
// unit via the sale transaction.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c *Customer) error
	AddPoints(ctx context.Context, id int64, points int64) error
}
