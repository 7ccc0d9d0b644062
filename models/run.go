package models

// Run is a row of the loyalty_runs journal
// Example:
//
//	{
//	  "id": "3f1c2b9e-...",
//	  "docType": "demand",
//	  "docId": "5f0a...",
//	  "reason": "updated",
//	  "updated": true,
//	  "changedPositions": 2,
//	  "discountSum": 2000,
//	  "dryRun": false,
//	  "createdAt": "2026-01-04T10:30:00Z"
//	}
type Run struct {
	ID               string `json:"id"`
	DocType          string `json:"docType"`
	DocID            string `json:"docId"`
	Reason           string `json:"reason"`
	Updated          bool   `json:"updated"`
	ChangedPositions int    `json:"changedPositions"`
	DiscountSum      int64  `json:"discountSum"`
	DryRun           bool   `json:"dryRun"`
	Error            string `json:"error,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// RunFilter holds optional filters for listing runs
type RunFilter struct {
	DocID   *string
	DocType *string
	Limit   int
}

// RunListResponse is returned by GET /admin/runs
type RunListResponse struct {
	Runs []Run `json:"runs"`
}
