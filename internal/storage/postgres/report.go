package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukapos/dukapos/internal/report"
)

const salesBetweenSQL = `SELECT t.id, u.name, t.total_amount, t.payment_method,
		COALESCE(p.status, ''), t.transaction_time, COUNT(ti.id)
	FROM transactions t
	JOIN users u ON u.id = t.user_id
	LEFT JOIN payments p ON p.transaction_id = t.id
	LEFT JOIN transaction_items ti ON ti.transaction_id = t.id
	WHERE t.transaction_time >= $1 AND t.transaction_time < $2
	GROUP BY t.id, u.name, t.total_amount, t.payment_method, p.status, t.transaction_time
	ORDER BY t.id`

var _ report.Source = (*ReportRepository)(nil)

// ReportRepository implements report.Source backed by PostgreSQL.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// SalesBetween returns one summarized row per transaction in [from, to).
func (r *ReportRepository) SalesBetween(ctx context.Context, from, to time.Time) ([]report.SaleRow, error) {
	rows, err := r.pool.Query(ctx, salesBetweenSQL, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying sales")
	}
	defer rows.Close()

	var out []report.SaleRow
	for rows.Next() {
		var (
			row   report.SaleRow
			count pgtype.Int8
		)
		if err := rows.Scan(&row.TransactionID, &row.CashierName, &row.TotalAmount,
			&row.PaymentMethod, &row.PaymentStatus, &row.Time, &count); err != nil {
			return nil, errors.Wrap(err, "scanning sale row")
		}
		row.ItemCount = int(count.Int64)
		out = append(out, row)
	}
	return out, rows.Err()
}
