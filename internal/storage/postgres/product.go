package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukapos/dukapos/internal/domain/product"
)

const (
	getProductSQL = `SELECT id, name, barcode, price, stock, category_id, image, created_at
		FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (name, barcode, price, stock, category_id, image)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

	updateProductSQL = `UPDATE products
		SET name = $1, barcode = $2, price = $3, stock = $4, category_id = $5, image = $6
		WHERE id = $7`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	categoryExistsSQL = `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog items matching the filter. Name and barcode match
// exactly; sorting is restricted to the price and stock columns.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, name, barcode, price, stock, category_id, image, created_at FROM products`)

	var conds []string
	if f.Name != "" {
		args = append(args, f.Name)
		conds = append(conds, fmt.Sprintf("name = $%d", len(args)))
	}
	if f.Barcode != "" {
		args = append(args, f.Barcode)
		conds = append(conds, fmt.Sprintf("barcode = $%d", len(args)))
	}
	if f.CategoryID > 0 {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	// Sort column is allow-listed, never interpolated from raw input.
	switch f.SortBy {
	case "price", "stock":
		sb.WriteString(" ORDER BY " + f.SortBy)
		if f.Descending {
			sb.WriteString(" DESC")
		}
	default:
		sb.WriteString(" ORDER BY id")
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetByID returns a single product, or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %d", id)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, product.ErrNotFound
	}

	p, err := scanProduct(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product after verifying its category exists.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	ok, err := r.categoryExists(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return product.ErrInvalidCategory
	}

	err = r.pool.QueryRow(ctx, insertProductSQL,
		p.Name, nullString(p.Barcode), p.Price, p.Stock, p.CategoryID, nullString(p.Image),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "creating product")
	}
	return nil
}

// Update rewrites a product row. Returns product.ErrNotFound when the id
// does not exist and product.ErrInvalidCategory for an unknown category.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	ok, err := r.categoryExists(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return product.ErrInvalidCategory
	}

	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.Name, nullString(p.Barcode), p.Price, p.Stock, p.CategoryID, nullString(p.Image), p.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "updating product %d", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product row, or returns product.ErrNotFound.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "deleting product %d", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) categoryExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, categoryExistsSQL, id).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "checking category %d", id)
	}
	return ok, nil
}

func scanProduct(rows pgx.Rows) (product.Product, error) {
	var (
		p              product.Product
		barcode, image pgtype.Text
	)
	if err := rows.Scan(&p.ID, &p.Name, &barcode, &p.Price, &p.Stock, &p.CategoryID, &image, &p.CreatedAt); err != nil {
		return product.Product{}, errors.Wrap(err, "scanning product")
	}
	p.Barcode = barcode.String
	p.Image = image.String
	return p, nil
}
