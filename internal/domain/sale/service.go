package sale

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dukapos/dukapos/internal/domain/customer"
	"github.com/dukapos/dukapos/internal/domain/product"
)

// Service orchestrates the checkout workflow. The notifier and reference
// log are optional; a nil value disables that effect.
type Service struct {
	customers customer.Repository
	store     Store
	notifier  Notifier
	refs      *ReferenceLog
}

// NewService creates a sale Service with the required collaborators.
func NewService(customers customer.Repository, store Store, notifier Notifier, refs *ReferenceLog) *Service {
	return &Service{
		customers: customers,
		store:     store,
		notifier:  notifier,
		refs:      refs,
	}
}

// CreateSale runs one checkout end to end. Steps up to and including the
// commit are all-or-nothing; notification and loyalty effects run after the
// commit and their failures are logged, never surfaced.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Customer lookup happens before the unit opens, so a miss here leaves
	// nothing to undo.
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, &CustomerNotFoundError{CustomerID: req.CustomerID}
		}
		return nil, errors.Wrap(err, "look up customer")
	}

	out := Classify(req.TotalAmount, req.AmountPaid)

	if s.refs != nil && req.Reference != "" && s.refs.Observe(req.Reference) {
		zctx.From(ctx).Warn("sale reference seen before; recording a new independent transaction",
			zap.String("reference", req.Reference))
	}

	transactionID, err := s.commitSale(ctx, req, out)
	if err != nil {
		return nil, err
	}

	points := s.postSaleEffects(ctx, cust, req, out)

	return &Result{
		TransactionID: transactionID,
		PaymentStatus: out.Status,
		Overpaid:      out.Overpaid,
		Remaining:     out.Remaining,
		PointsEarned:  points,
	}, nil
}

// commitSale performs every durable write of the sale inside one atomic
// unit. Any error rolls the whole unit back and is wrapped in
// TransactionFailedError; the specific cause stays reachable via errors.As.
func (s *Service) commitSale(ctx context.Context, req CreateSaleRequest, out Outcome) (int64, error) {
	var transactionID int64

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		id, err := tx.InsertTransaction(ctx, req.CashierID, req.TotalAmount, req.PaymentMethod)
		if err != nil {
			return errors.Wrap(err, "insert transaction")
		}

		for _, item := range req.Items {
			stock, err := tx.ProductStock(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return &ProductNotFoundError{ProductID: item.ProductID}
				}
				return errors.Wrapf(err, "get stock for product %d", item.ProductID)
			}
			if stock < item.Quantity {
				return &InsufficientStockError{
					ProductID: item.ProductID,
					Stock:     stock,
					Requested: item.Quantity,
				}
			}

			if err := tx.InsertItem(ctx, id, item); err != nil {
				return errors.Wrapf(err, "insert item for product %d", item.ProductID)
			}
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return errors.Wrapf(err, "decrement stock for product %d", item.ProductID)
			}
		}

		if err := tx.InsertPayment(ctx, id, req.PaymentMethod, out.Status, req.Reference); err != nil {
			return errors.Wrap(err, "insert payment")
		}

		if out.Overpaid.IsPositive() {
			if err := tx.AddCustomerCredit(ctx, req.CustomerID, out.Overpaid); err != nil {
				return errors.Wrap(err, "add customer credit")
			}
		}

		transactionID = id
		return nil
	})
	if err != nil {
		return 0, &TransactionFailedError{Err: err}
	}

	return transactionID, nil
}

// postSaleEffects runs after the commit. Each effect fails independently:
// a dropped notification or a failed points write is logged and the
// already-committed sale stands. Returns the points actually persisted.
func (s *Service) postSaleEffects(ctx context.Context, cust *customer.Customer, req CreateSaleRequest, out Outcome) int64 {
	lg := zctx.From(ctx).With(
		zap.Int64("customer_id", cust.ID),
	)

	if s.notifier != nil {
		if out.Overpaid.IsPositive() {
			if err := s.notifier.OverpaymentCredited(ctx, cust, out.Overpaid); err != nil {
				lg.Warn("overpayment notice failed", zap.Error(err))
			}
		}
		if out.Remaining.IsPositive() {
			if err := s.notifier.BalanceOwed(ctx, cust, out.Remaining); err != nil {
				lg.Warn("balance owed notice failed", zap.Error(err))
			}
		}
	}

	if !cust.HasShopCard() {
		return 0
	}

	points := PointsEarned(req.TotalAmount)
	if points == 0 {
		return 0
	}

	if err := s.customers.AddPoints(ctx, cust.ID, points); err != nil {
		lg.Error("award loyalty points failed", zap.Int64("points", points), zap.Error(err))
		return 0
	}

	lg.Info("awarded loyalty points", zap.Int64("points", points))
	return points
}

func validate(req CreateSaleRequest) error {
	switch {
	case len(req.Items) == 0:
		return &ValidationError{Reason: "items are required"}
	case req.CashierID <= 0:
		return &ValidationError{Reason: "cashier_id is required"}
	case req.CustomerID <= 0:
		return &ValidationError{Reason: "customer_id is required"}
	case !req.PaymentMethod.Valid():
		return &ValidationError{Reason: "payment_method must be one of mobile_money, bank, cash, other"}
	case req.TotalAmount.Sign() <= 0:
		return &ValidationError{Reason: "total_amount is required"}
	case req.AmountPaid.IsNegative():
		return &ValidationError{Reason: "amount_paid must not be negative"}
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return &ValidationError{Reason: "item quantity must be greater than 0"}
		}
		if item.UnitPrice.IsNegative() {
			return &ValidationError{Reason: "item price must not be negative"}
		}
	}

	return nil
}
