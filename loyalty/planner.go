package loyalty

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MetaRef wraps an upstream reference. Write-back accepts references only,
// never the full nested entity.
type MetaRef struct {
	Meta json.RawMessage `json:"meta"`
}

// PositionUpdate is the minimal position payload for a document PUT. ID lets
// the upstream match it to the existing position.
type PositionUpdate struct {
	ID         string          `json:"id,omitempty"`
	Quantity   *json.Number    `json:"quantity,omitempty"`
	Price      *json.Number    `json:"price,omitempty"`
	Discount   float64         `json:"discount"`
	Assortment *MetaRef        `json:"assortment,omitempty"`
	Vat        *int            `json:"vat,omitempty"`
	VatEnabled *bool           `json:"vatEnabled,omitempty"`
	Pack       json.RawMessage `json:"pack,omitempty"`
	Reserve    *json.Number    `json:"reserve,omitempty"`
}

// LineDecision records how the planner treated one line item.
type LineDecision struct {
	ID          string          `json:"id"`
	Promotional bool            `json:"promotional"`
	Current     decimal.Decimal `json:"current"`
	Target      decimal.Decimal `json:"target"`
	Amount      int64           `json:"amount"`
	Changed     bool            `json:"changed"`
}

// Plan is the outcome of PlanUpdate.
type Plan struct {
	Mode            WriteMode
	Disabled        bool
	DiscountPercent decimal.Decimal

	// Positions holds every line item in input order. It is only filled in
	// WriteModeFull.
	Positions []PositionUpdate
	// Changed holds the line items whose discount differs from the target.
	Changed []PositionUpdate
	Lines   []LineDecision

	// DiscountSum is the total loyalty discount in minor units.
	DiscountSum int64
}

// ChangedCount is the number of positions whose discount changes.
func (p Plan) ChangedCount() int { return len(p.Changed) }

// HasChanges reports whether a write-back is needed.
func (p Plan) HasChanges() bool { return len(p.Changed) > 0 }

// Payload returns the positions to send upstream for the plan's write mode.
func (p Plan) Payload() []PositionUpdate {
	if p.Mode == WriteModeChanged {
		return p.Changed
	}
	return p.Positions
}

// IsDocumentDisabled reports whether the document opts out of loyalty
// discounts, either explicitly or through its DisableLoyaltyAttr attribute.
func IsDocumentDisabled(doc Document, s Settings) bool {
	if doc.DisableLoyalty {
		return true
	}
	if s.DisableLoyaltyAttr == "" {
		return false
	}
	return CoerceBool(doc.Attributes.Lookup(s.DisableLoyaltyAttr)) == True
}

// PlanUpdate decides the target discount of every line item of doc and
// assembles the write-back payload. It performs no I/O and never mutates doc.
func PlanUpdate(doc Document, s Settings) Plan {
	plan := Plan{Mode: s.WriteMode, DiscountPercent: decimal.Zero}
	if plan.Mode == "" {
		plan.Mode = WriteModeFull
	}
	if IsDocumentDisabled(doc, s) {
		plan.Disabled = true
		return plan
	}

	percent := DiscountPercent(doc.Counterparty, s)
	plan.DiscountPercent = percent

	for _, item := range doc.LineItems {
		promo := IsPromotional(item.Classification, s)
		target := targetDiscount(percent, promo, item.Discount, s)

		var amount int64
		if target.IsPositive() {
			amount = ComputeDiscountAmount(item.Price.Decimal, item.Quantity.Decimal, target)
			plan.DiscountSum += amount
		}

		update := BuildPositionUpdate(item, target)
		changed := !item.Discount.Equal(target)
		if changed {
			plan.Changed = append(plan.Changed, update)
		}
		if plan.Mode == WriteModeFull {
			plan.Positions = append(plan.Positions, update)
		}
		plan.Lines = append(plan.Lines, LineDecision{
			ID:          item.ID,
			Promotional: promo,
			Current:     item.Discount,
			Target:      target,
			Amount:      amount,
			Changed:     changed,
		})
	}
	return plan
}

func targetDiscount(percent decimal.Decimal, promo bool, current decimal.Decimal, s Settings) decimal.Decimal {
	if !percent.IsPositive() || promo {
		return decimal.Zero
	}
	if s.RespectManualDiscount && current.IsPositive() {
		return ClampPercent(current)
	}
	return percent
}

// BuildPositionUpdate builds the payload for one line item with the given
// discount. Optional fields are carried only when present on the item.
// Price and quantity that could not be parsed are omitted rather than sent
// as null, which leaves the upstream values untouched.
func BuildPositionUpdate(item LineItem, discount decimal.Decimal) PositionUpdate {
	update := PositionUpdate{
		ID:         item.ID,
		Quantity:   number(item.Quantity),
		Price:      number(item.Price),
		Discount:   discount.InexactFloat64(),
		Vat:        item.Vat,
		VatEnabled: item.VatEnabled,
		Reserve:    number(item.Reserve),
	}
	if len(item.Classification.Meta) > 0 {
		update.Assortment = &MetaRef{Meta: item.Classification.Meta}
	}
	if len(item.Pack) > 0 {
		update.Pack = item.Pack
	}
	return update
}

func number(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := json.Number(d.Decimal.String())
	return &n
}
