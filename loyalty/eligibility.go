package loyalty

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// IsWholesaler reports whether the counterparty carries the wholesaler tag.
// Upstream lowercases tags, so the match ignores case.
func IsWholesaler(cp Counterparty, s Settings) bool {
	if s.WholesalerTag == "" {
		return false
	}
	for _, tag := range cp.Tags {
		if strings.EqualFold(tag, s.WholesalerTag) {
			return true
		}
	}
	return false
}

// DiscountPercent returns the loyalty discount for a counterparty, clamped to
// [0, 100]. Zero means not eligible.
//
// An explicitly false checkbox, or a missing wholesaler tag when the tag is
// required, disables the discount. A missing or unreadable checkbox does not:
// a positive percent on its own is enough.
func DiscountPercent(cp Counterparty, s Settings) decimal.Decimal {
	enabled := CoerceBool(cp.Attributes.Lookup(s.LoyaltyEnabledAttr))
	if enabled == False {
		return decimal.Zero
	}
	if s.RequireWholesalerTag && !IsWholesaler(cp, s) {
		return decimal.Zero
	}

	percent := DecimalOrZero(cp.Attributes.Lookup(s.LoyaltyDiscountAttr))
	if enabled == Unknown && !percent.IsPositive() {
		return decimal.Zero
	}
	return ClampPercent(percent)
}

// IsEligible reports whether the counterparty gets any loyalty discount.
func IsEligible(cp Counterparty, s Settings) bool {
	return DiscountPercent(cp, s).IsPositive()
}

// ClampPercent limits d to [0, 100].
func ClampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
