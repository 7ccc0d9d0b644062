package models

import (
	"encoding/json"
	"strings"
)

// WebhookEvent is one event of a MoySklad webhook delivery
// Example:
//
//	{
//	  "meta": {"type": "customerorder", "href": "https://api.moysklad.ru/api/remap/1.2/entity/customerorder/5f0a..."},
//	  "action": "UPDATE",
//	  "accountId": "84e60e93-..."
//	}
type WebhookEvent struct {
	Meta       *Meta  `json:"meta,omitempty"`
	Action     string `json:"action,omitempty"`
	AccountID  string `json:"accountId,omitempty"`
	EntityType string `json:"entityType,omitempty"`
	ID         string `json:"id,omitempty"`
}

// DocRef extracts (docType, docID) from the event. The href path
// ".../entity/<type>/<id>?..." wins; meta.type/entityType and meta id/id are
// the fallback. Either result may be empty.
func (e WebhookEvent) DocRef() (string, string) {
	if e.Meta != nil && strings.Contains(e.Meta.Href, "/entity/") {
		tail := strings.SplitN(e.Meta.Href, "/entity/", 2)[1]
		parts := strings.Split(tail, "/")
		if len(parts) >= 2 {
			id, _, _ := strings.Cut(parts[1], "?")
			return parts[0], id
		}
	}

	var docType, docID string
	if e.Meta != nil {
		docType, docID = e.Meta.Type, e.Meta.ID
	}
	if docType == "" {
		docType = e.EntityType
	}
	if docID == "" {
		docID = e.ID
	}
	return docType, docID
}

// ActionOrUnknown returns the event action, "UNKNOWN" when missing
func (e WebhookEvent) ActionOrUnknown() string {
	if e.Action == "" {
		return "UNKNOWN"
	}
	return e.Action
}

// WebhookPayload is the body MoySklad posts: {"events": [...]}
type WebhookPayload struct {
	Events []json.RawMessage `json:"events"`
}

// ProcessResult is the outcome of processing one document
// Example:
//
//	{
//	  "doc_type": "customerorder",
//	  "doc_id": "5f0a...",
//	  "action": "UPDATE",
//	  "updated": true,
//	  "reason": "updated",
//	  "positions": 2,
//	  "loyalty_discount_sum": 2000
//	}
type ProcessResult struct {
	DocType            string `json:"doc_type"`
	DocID              string `json:"doc_id"`
	Action             string `json:"action,omitempty"`
	Updated            bool   `json:"updated"`
	Reason             string `json:"reason"`
	Positions          int    `json:"positions"`
	LoyaltyDiscountSum int64  `json:"loyalty_discount_sum"`
	Error              string `json:"error,omitempty"`
}

// Process result reasons
const (
	ReasonUpdated   = "updated"
	ReasonNoChanges = "no_changes"
	ReasonDryRun    = "dry_run"
	ReasonDisabled  = "disabled"
	ReasonError     = "error"
)

// WebhookResponse is returned by POST /webhook
type WebhookResponse struct {
	DeliveryID string          `json:"delivery_id"`
	Results    []ProcessResult `json:"results"`
}
