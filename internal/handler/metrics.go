package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts checkouts and records their value. A nil *Metrics is
// valid and records nothing, which keeps tests free of meter setup.
type Metrics struct {
	sales  metric.Int64Counter
	amount metric.Float64Histogram
}

// NewMetrics registers the sale instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sales, err := meter.Int64Counter("pos.sales",
		metric.WithDescription("Completed checkout attempts by result."),
	)
	if err != nil {
		return nil, errors.Wrap(err, "sales counter")
	}

	amount, err := meter.Float64Histogram("pos.sale.amount",
		metric.WithDescription("Total amount of committed sales."),
	)
	if err != nil {
		return nil, errors.Wrap(err, "amount histogram")
	}

	return &Metrics{sales: sales, amount: amount}, nil
}

func (m *Metrics) recordSale(ctx context.Context, result string, amount float64) {
	if m == nil {
		return
	}
	m.sales.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if result == "committed" {
		m.amount.Record(ctx, amount)
	}
}
