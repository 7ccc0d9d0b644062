package models

import (
	"encoding/json"
	"fmt"

	"ms-loyalty/loyalty"
)

// Meta is the reference block every MoySklad entity carries
// Example:
//
//	{
//	  "href": "https://api.moysklad.ru/api/remap/1.2/entity/product/7944ef04-...",
//	  "type": "product",
//	  "mediaType": "application/json"
//	}
type Meta struct {
	ID           string `json:"id,omitempty"`
	Href         string `json:"href,omitempty"`
	MetadataHref string `json:"metadataHref,omitempty"`
	Type         string `json:"type,omitempty"`
	MediaType    string `json:"mediaType,omitempty"`
	Size         int    `json:"size,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// EntityRef is any nested entity of which only the meta matters
type EntityRef struct {
	Meta json.RawMessage `json:"meta,omitempty"`
}

// ParseMeta decodes a raw meta block. A nil or malformed block yields an empty Meta.
func ParseMeta(raw json.RawMessage) Meta {
	var meta Meta
	if len(raw) == 0 {
		return meta
	}
	// malformed meta is treated as absent
	_ = json.Unmarshal(raw, &meta)
	return meta
}

// Attribute is a custom field value on a counterparty, document or product
type Attribute struct {
	Meta  json.RawMessage `json:"meta,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Type  string          `json:"type,omitempty"`
	Value loyalty.Value   `json:"value"`
}

// AttributeUpdate is an attribute entry for a document PUT
// Example: {"meta": {"href": ".../metadata/attributes/...", "type": "attributemetadata"}, "value": 123.45}
type AttributeUpdate struct {
	Meta  json.RawMessage `json:"meta"`
	Value any             `json:"value"`
}

// AttributeMetadata describes a custom field in /entity/{type}/metadata
type AttributeMetadata struct {
	Meta     json.RawMessage `json:"meta"`
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Required bool            `json:"required"`
}

// Counterparty is the document agent (expand=agent)
type Counterparty struct {
	Meta       json.RawMessage `json:"meta,omitempty"`
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Attributes []Attribute     `json:"attributes,omitempty"`
}

// Assortment is a product, variant, service or bundle referenced by a position.
// PathName is nil when the response did not include it at all.
type Assortment struct {
	Meta       json.RawMessage `json:"meta,omitempty"`
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	PathName   *string         `json:"pathName,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Attributes []Attribute     `json:"attributes,omitempty"`
	Product    *EntityRef      `json:"product,omitempty"`
}

// Position is a document line as returned by /positions?expand=assortment
type Position struct {
	Meta       json.RawMessage `json:"meta,omitempty"`
	ID         string          `json:"id"`
	Quantity   loyalty.Value   `json:"quantity"`
	Price      loyalty.Value   `json:"price"`
	Discount   loyalty.Value   `json:"discount"`
	Vat        *int            `json:"vat,omitempty"`
	VatEnabled *bool           `json:"vatEnabled,omitempty"`
	Pack       json.RawMessage `json:"pack,omitempty"`
	Reserve    loyalty.Value   `json:"reserve"`
	Assortment *Assortment     `json:"assortment,omitempty"`
}

// PositionsPage is one page of /entity/{type}/{id}/positions
type PositionsPage struct {
	Meta Meta       `json:"meta"`
	Rows []Position `json:"rows"`
}

// Document is a sales document (customerorder, demand, ...) with expand=agent
type Document struct {
	Meta       json.RawMessage `json:"meta,omitempty"`
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	Moment     string          `json:"moment,omitempty"`
	Sum        int64           `json:"sum,omitempty"`
	Agent      *Counterparty   `json:"agent,omitempty"`
	Attributes []Attribute     `json:"attributes,omitempty"`
	// Positions is either a collection reference ({"meta": ..., "rows": [...]})
	// or, in offline files, a plain list.
	Positions json.RawMessage `json:"positions,omitempty"`
}

// PositionRows returns the positions embedded in the document, if any
func (d *Document) PositionRows() ([]Position, error) {
	if len(d.Positions) == 0 {
		return nil, nil
	}

	var list []Position
	if err := json.Unmarshal(d.Positions, &list); err == nil {
		return list, nil
	}

	var page PositionsPage
	if err := json.Unmarshal(d.Positions, &page); err != nil {
		return nil, fmt.Errorf("failed to decode document positions: %w", err)
	}
	return page.Rows, nil
}

// DocumentUpdate is the body of a document PUT
// Example:
//
//	{
//	  "positions": [
//	    {"id": "...", "quantity": 2, "price": 10000, "discount": 10, "assortment": {"meta": {...}}}
//	  ],
//	  "attributes": [{"meta": {...}, "value": 20}]
//	}
type DocumentUpdate struct {
	Positions  []loyalty.PositionUpdate `json:"positions"`
	Attributes []AttributeUpdate        `json:"attributes,omitempty"`
}

// EntityMetadata is the body of /entity/{type}/metadata. Attributes is either
// a list or a collection reference.
type EntityMetadata struct {
	Attributes json.RawMessage `json:"attributes"`
}
