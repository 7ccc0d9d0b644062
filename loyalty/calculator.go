package loyalty

import "github.com/shopspring/decimal"

// ComputeDiscountAmount returns price × quantity × percent / 100 in minor
// units, rounded half away from zero (5000.5 → 5001). Arithmetic is exact
// decimal; a negative product is reported as zero.
func ComputeDiscountAmount(price, quantity, percent decimal.Decimal) int64 {
	amount := price.Mul(quantity).Mul(percent).Shift(-2).Round(0)
	if amount.IsNegative() {
		return 0
	}
	return amount.IntPart()
}
