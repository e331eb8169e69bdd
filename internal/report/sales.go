// Package report builds downloadable sales reports for the back office.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SaleRow is one transaction summarized for reporting.
type SaleRow struct {
	TransactionID int64
	CashierName   string
	TotalAmount   decimal.Decimal
	PaymentMethod string
	PaymentStatus string
	Time          time.Time
	ItemCount     int
}

// Source provides report rows for a half-open time range [from, to).
type Source interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]SaleRow, error)
}

// Exporter renders sales reports as .xlsx workbooks.
type Exporter struct {
	source   Source
	currency string
}

// NewExporter creates an Exporter. The currency code appears in the amount
// column header.
func NewExporter(source Source, currency string) *Exporter {
	return &Exporter{source: source, currency: currency}
}

const sheetName = "Sales"

// SalesXLSX builds a workbook of all sales in [from, to), one row per
// transaction plus a totals row.
func (e *Exporter) SalesXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	rows, err := e.source.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "load sales")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	headers := []string{"Transaction", "Date", "Cashier", "Items", "Method", "Status", "Amount (" + e.currency + ")"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, errors.Wrap(err, "write header")
		}
	}

	total := decimal.Zero
	for i, r := range rows {
		values := []any{
			r.TransactionID,
			r.Time.Format("2006-01-02 15:04"),
			r.CashierName,
			r.ItemCount,
			r.PaymentMethod,
			r.PaymentStatus,
			r.TotalAmount.InexactFloat64(),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, errors.Wrapf(err, "write row %d", i+1)
			}
		}
		total = total.Add(r.TotalAmount)
	}

	totalRow := len(rows) + 2
	if err := f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), "Total"); err != nil {
		return nil, errors.Wrap(err, "write total label")
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("G%d", totalRow), total.InexactFloat64()); err != nil {
		return nil, errors.Wrap(err, "write total")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}
