package loyalty

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Attribute is a named custom field on a counterparty, document or product.
type Attribute struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Attributes is an ordered, sparse attribute bag. Names are run-time settings,
// so the bag is searched rather than mapped onto struct fields.
type Attributes []Attribute

// Lookup returns the value of the first attribute called name, or Absent.
func (a Attributes) Lookup(name string) Value {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value
		}
	}
	return Absent()
}

// Counterparty is the customer a sales document is issued to.
type Counterparty struct {
	Tags       []string   `json:"tags,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Classification is the product or variant ("assortment") behind a line item.
// Meta is the opaque upstream reference echoed back on write.
type Classification struct {
	Meta       json.RawMessage `json:"meta,omitempty"`
	PathName   string          `json:"pathName,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Attributes Attributes      `json:"attributes,omitempty"`
}

// LineItem is one position of a sales document. Price is in minor currency
// units (kopecks) and Discount is a percentage.
type LineItem struct {
	ID             string
	Price          decimal.NullDecimal
	Quantity       decimal.NullDecimal
	Discount       decimal.Decimal
	Classification Classification

	// Optional fields echoed back only when present upstream.
	Vat        *int
	VatEnabled *bool
	Pack       json.RawMessage
	Reserve    decimal.NullDecimal
}

// Document is a read-only snapshot of a sales document with every line item
// already resolved to its classification.
type Document struct {
	Counterparty   Counterparty
	LineItems      []LineItem
	Attributes     Attributes
	DisableLoyalty bool
}
