package models

import (
	"github.com/shopspring/decimal"

	"ms-loyalty/loyalty"
)

// Snapshot maps the fetched document and its positions onto the read-only
// view the loyalty planner works on. positions must already carry expanded
// assortments.
func (d *Document) Snapshot(positions []Position) loyalty.Document {
	snapshot := loyalty.Document{
		Attributes: attributes(d.Attributes),
		LineItems:  make([]loyalty.LineItem, 0, len(positions)),
	}
	if d.Agent != nil {
		snapshot.Counterparty = loyalty.Counterparty{
			Tags:       d.Agent.Tags,
			Attributes: attributes(d.Agent.Attributes),
		}
	}
	for _, pos := range positions {
		snapshot.LineItems = append(snapshot.LineItems, pos.LineItem())
	}
	return snapshot
}

// LineItem converts one position. Unparseable numbers become absent (price,
// quantity, reserve) or zero (discount).
func (p Position) LineItem() loyalty.LineItem {
	item := loyalty.LineItem{
		ID:         p.ID,
		Price:      nullDecimal(p.Price),
		Quantity:   nullDecimal(p.Quantity),
		Discount:   loyalty.DecimalOrZero(p.Discount),
		Vat:        p.Vat,
		VatEnabled: p.VatEnabled,
		Pack:       p.Pack,
		Reserve:    nullDecimal(p.Reserve),
	}
	if a := p.Assortment; a != nil {
		item.Classification = loyalty.Classification{
			Meta:       a.Meta,
			Tags:       a.Tags,
			Attributes: attributes(a.Attributes),
		}
		if a.PathName != nil {
			item.Classification.PathName = *a.PathName
		}
	}
	return item
}

func attributes(attrs []Attribute) loyalty.Attributes {
	if len(attrs) == 0 {
		return nil
	}
	out := make(loyalty.Attributes, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, loyalty.Attribute{Name: attr.Name, Value: attr.Value})
	}
	return out
}

func nullDecimal(v loyalty.Value) decimal.NullDecimal {
	d, ok := loyalty.CoerceDecimal(v)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}
