package sale

import "github.com/shopspring/decimal"

// Outcome is the reconciliation of tendered amount against amount due.
// Exactly one of Overpaid/Remaining can be positive.
type Outcome struct {
	Status    Status
	Overpaid  decimal.Decimal
	Remaining decimal.Decimal
}

// Classify partitions a payment three ways: under, over, or exact. It is
// pure and performs no I/O.
//
//	paid <  total: pending, remaining = total - paid
//	paid >  total: successful, overpaid = paid - total
//	paid == total: successful, both deltas zero
func Classify(total, paid decimal.Decimal) Outcome {
	out := Outcome{
		Status:    StatusSuccessful,
		Overpaid:  decimal.Zero,
		Remaining: decimal.Zero,
	}

	switch paid.Cmp(total) {
	case -1:
		out.Status = StatusPending
		out.Remaining = total.Sub(paid)
	case 1:
		out.Overpaid = paid.Sub(total)
	}

	return out
}
