package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ms-loyalty/models"
	"ms-loyalty/repository"
)

// RunController exposes the processing journal
type RunController struct {
	repository repository.RunRepositoryInterface
	logger     *zap.Logger
}

// NewRunController creates a new RunController
func NewRunController(repo repository.RunRepositoryInterface, logger *zap.Logger) *RunController {
	return &RunController{
		repository: repo,
		logger:     logger,
	}
}

// ListRuns handles GET /admin/runs
// Example request:
// GET /admin/runs?docId=5f0a...&docType=demand&limit=20
// Example response:
//
//	{
//	  "runs": [
//	    {"id": "3f1c...", "docType": "demand", "docId": "5f0a...", "reason": "updated", "updated": true,
//	     "changedPositions": 2, "discountSum": 2000, "dryRun": false, "createdAt": "2026-01-04T10:30:00Z"}
//	  ]
//	}
func (c *RunController) ListRuns(w http.ResponseWriter, r *http.Request) {
	c.logger.Info("📥 ListRuns: Received request", zap.String("method", r.Method), zap.String("path", r.URL.Path))

	if r.Method != http.MethodGet {
		c.logger.Warn("❌ ListRuns: Method not allowed", zap.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	var filter models.RunFilter
	if docID := query.Get("docId"); docID != "" {
		filter.DocID = &docID
	}
	if docType := query.Get("docType"); docType != "" {
		filter.DocType = &docType
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.logger.Warn("❌ ListRuns: Invalid limit", zap.String("limit", limitStr))
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	runs, err := c.repository.List(r.Context(), filter)
	if err != nil {
		c.logger.Error("❌ ListRuns: Error fetching runs", zap.Error(err))
		http.Error(w, fmt.Sprintf("Failed to fetch runs: %v", err), http.StatusInternalServerError)
		return
	}

	c.logger.Info("✅ ListRuns: Successfully fetched runs", zap.Int("count", len(runs)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(models.RunListResponse{Runs: runs}); err != nil {
		c.logger.Error("❌ ListRuns: Error encoding response", zap.Error(err))
	}
}
