package sale

import "github.com/shopspring/decimal"

// One point per 10 spent, truncated.
var pointsPer = decimal.NewFromInt(10)

// PointsEarned returns the loyalty points for a completed sale:
// floor(total / 10). Card enrollment gating happens at the call site.
// Negative totals never award points.
func PointsEarned(total decimal.Decimal) int64 {
	if total.Sign() <= 0 {
		return 0
	}
	return total.Div(pointsPer).Floor().IntPart()
}
