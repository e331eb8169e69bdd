package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukapos/dukapos/internal/domain/customer"
)

const (
	getCustomerSQL = `SELECT id, name, email, phone, credit, points, shop_card_number, created_at
		FROM customers WHERE id = $1`

	listCustomersSQL = `SELECT id, name, email, phone, credit, points, shop_card_number, created_at
		FROM customers ORDER BY id`

	insertCustomerSQL = `INSERT INTO customers (name, email, phone, shop_card_number)
		VALUES ($1, $2, $3, $4) RETURNING id, credit, points, created_at`

	addPointsSQL = `UPDATE customers SET points = points + $1 WHERE id = $2`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns a customer, or customer.ErrNotFound.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting customer %d", id)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, customer.ErrNotFound
	}

	c, err := scanCustomer(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all customers ordered by id.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing customers")
	}
	defer rows.Close()

	var customers []customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Create inserts a new customer with zero credit and points.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := r.pool.QueryRow(ctx, insertCustomerSQL,
		c.Name, nullString(c.Email), nullString(c.Phone), nullString(c.ShopCardNumber),
	).Scan(&c.ID, &c.Credit, &c.Points, &c.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "creating customer")
	}
	return nil
}

// AddPoints adds a non-negative points delta. Runs outside any sale unit.
func (r *CustomerRepository) AddPoints(ctx context.Context, id int64, points int64) error {
	tag, err := r.pool.Exec(ctx, addPointsSQL, points, id)
	if err != nil {
		return errors.Wrapf(err, "adding points to customer %d", id)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(rows pgx.Rows) (customer.Customer, error) {
	var (
		c                 customer.Customer
		email, phone, crd pgtype.Text
	)
	if err := rows.Scan(&c.ID, &c.Name, &email, &phone, &c.Credit, &c.Points, &crd, &c.CreatedAt); err != nil {
		return customer.Customer{}, errors.Wrap(err, "scanning customer")
	}
	c.Email = email.String
	c.Phone = phone.String
	c.ShopCardNumber = crd.String
	return c, nil
}
