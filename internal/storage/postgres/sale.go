package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/domain/product"
	"github.com/dukapos/dukapos/internal/domain/sale"
)

const (
	insertTransactionSQL = `INSERT INTO transactions (user_id, total_amount, payment_method)
		VALUES ($1, $2, $3) RETURNING id`

	insertItemSQL = `INSERT INTO transaction_items (transaction_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)`

	// FOR UPDATE serializes concurrent sales on the same product row, so two
	// carts cannot both pass the sufficiency check and overdraw stock.
	productStockSQL = `SELECT stock FROM products WHERE id = $1 FOR UPDATE`

	decrementStockSQL = `UPDATE products SET stock = stock - $1 WHERE id = $2`

	insertPaymentSQL = `INSERT INTO payments (transaction_id, method, status, reference)
		VALUES ($1, $2, $3, $4)`

	addCreditSQL = `UPDATE customers SET credit = credit + $1 WHERE id = $2`
)

var _ sale.Store = (*SaleStore)(nil)

// SaleStore implements sale.Store backed by PostgreSQL. Each ExecTx call
// runs inside one database transaction with rollback on any error path.
type SaleStore struct {
	pool *pgxpool.Pool
}

// NewSaleStore returns a SaleStore that uses the given pool.
func NewSaleStore(pool *pgxpool.Pool) *SaleStore {
	return &SaleStore{pool: pool}
}

// ExecTx opens a transaction, runs fn with a sale.Tx bound to it, and
// commits only if fn returns nil.
func (s *SaleStore) ExecTx(ctx context.Context, fn func(tx sale.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&saleTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

type saleTx struct {
	tx pgx.Tx
}

func (t *saleTx) InsertTransaction(ctx context.Context, cashierID int64, total decimal.Decimal, method sale.Method) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, insertTransactionSQL, cashierID, total, string(method)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *saleTx) InsertItem(ctx context.Context, transactionID int64, item sale.LineItem) error {
	_, err := t.tx.Exec(ctx, insertItemSQL, transactionID, item.ProductID, item.Quantity, item.UnitPrice)
	return err
}

func (t *saleTx) ProductStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := t.tx.QueryRow(ctx, productStockSQL, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

func (t *saleTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	_, err := t.tx.Exec(ctx, decrementStockSQL, quantity, productID)
	return err
}

func (t *saleTx) InsertPayment(ctx context.Context, transactionID int64, method sale.Method, status sale.Status, reference string) error {
	_, err := t.tx.Exec(ctx, insertPaymentSQL, transactionID, string(method), string(status), nullString(reference))
	return err
}

func (t *saleTx) AddCustomerCredit(ctx context.Context, customerID int64, amount decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, addCreditSQL, amount, customerID)
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
