// Package sale implements the checkout workflow: cart validation, atomic
// recording of a transaction with stock decrements and a payment snapshot,
// reconciliation of the tendered amount, and post-commit loyalty and
// notification effects.
package sale

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/domain/customer"
)

// Method identifies how the customer paid.
type Method string

const (
	MethodMobileMoney Method = "mobile_money"
	MethodBank        Method = "bank"
	MethodCash        Method = "cash"
	MethodOther       Method = "other"
)

// Valid reports whether m is a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodMobileMoney, MethodBank, MethodCash, MethodOther:
		return true
	}
	return false
}

// Status is the payment status decided once at sale time. There are no
// later transitions; an underpaid sale stays pending in the payment row.
type Status string

const (
	StatusSuccessful Status = "successful"
	StatusPending    Status = "pending"
)

// LineItem is one cart line. UnitPrice is the price charged per unit,
// captured on the transaction item row.
type LineItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateSaleRequest is the full input for one checkout. TotalAmount is
// caller-supplied and trusted as-is; it is not recomputed from the lines.
type CreateSaleRequest struct {
	Items         []LineItem
	TotalAmount   decimal.Decimal
	PaymentMethod Method
	AmountPaid    decimal.Decimal
	CashierID     int64
	CustomerID    int64
	Reference     string
}

// Result describes a committed sale.
type Result struct {
	TransactionID int64
	PaymentStatus Status
	Overpaid      decimal.Decimal
	Remaining     decimal.Decimal
	PointsEarned  int64
}

// Store opens the atomic unit for one sale. Every write inside fn either
// persists together on commit or is discarded on error.
type Store interface {
	ExecTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes available inside the atomic unit. ProductStock
// must lock the product row so concurrent sales against the same product
// serialize on the sufficiency check.
type Tx interface {
	InsertTransaction(ctx context.Context, cashierID int64, total decimal.Decimal, method Method) (int64, error)
	InsertItem(ctx context.Context, transactionID int64, item LineItem) error
	ProductStock(ctx context.Context, productID int64) (int, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	InsertPayment(ctx context.Context, transactionID int64, method Method, status Status, reference string) error
	AddCustomerCredit(ctx context.Context, customerID int64, amount decimal.Decimal) error
}

// Notifier delivers customer-facing notices after a sale commits. Delivery
// is best-effort; the sale never rolls back on a notification failure.
type Notifier interface {
	OverpaymentCredited(ctx context.Context, c *customer.Customer, amount decimal.Decimal) error
	BalanceOwed(ctx context.Context, c *customer.Customer, amount decimal.Decimal) error
}

// ValidationError indicates a malformed request field. No side effects have
// occurred; the caller should fix the request and resubmit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// CustomerNotFoundError indicates the referenced customer does not exist.
// It is raised before the atomic unit opens, so nothing needs undoing.
type CustomerNotFoundError struct {
	CustomerID int64
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer with ID %d not found", e.CustomerID)
}

// ProductNotFoundError indicates a cart line references an unknown product.
// Raised mid-unit; the whole sale rolls back.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("invalid product ID %d", e.ProductID)
}

// InsufficientStockError indicates a cart line exceeds available stock.
// Raised mid-unit; the whole sale rolls back, including decrements already
// applied for earlier lines in the same request.
type InsufficientStockError struct {
	ProductID int64
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product ID %d: have %d, need %d", e.ProductID, e.Stock, e.Requested)
}

// TransactionFailedError wraps any failure inside the atomic unit. When it
// is returned, no partial state is visible to later reads.
type TransactionFailedError struct {
	Err error
}

func (e *TransactionFailedError) Error() string {
	return "transaction failed: " + e.Err.Error()
}

func (e *TransactionFailedError) Unwrap() error {
	return e.Err
}
