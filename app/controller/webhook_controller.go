package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ms-loyalty/config"
	"ms-loyalty/models"
	"ms-loyalty/service"
)

// WebhookController handles MoySklad webhook deliveries
type WebhookController struct {
	processor   service.DocumentProcessorInterface
	token       string
	concurrency int
	handles     func(docType string) bool
	logger      *zap.Logger
}

// NewWebhookController creates a new WebhookController
func NewWebhookController(processor service.DocumentProcessorInterface, cfg *config.Config, logger *zap.Logger) *WebhookController {
	concurrency := cfg.Server.WebhookConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &WebhookController{
		processor:   processor,
		token:       cfg.Server.WebhookBearerToken,
		concurrency: concurrency,
		handles:     cfg.HandlesDocumentType,
		logger:      logger,
	}
}

type webhookJob struct {
	docType string
	docID   string
	action  string
}

// HandleWebhook handles POST /webhook
// Example request:
// POST /webhook
//
//	{
//	  "events": [
//	    {
//	      "meta": {"type": "demand", "href": "https://api.moysklad.ru/api/remap/1.2/entity/demand/5f0a..."},
//	      "action": "UPDATE",
//	      "accountId": "84e60e93-..."
//	    }
//	  ]
//	}
//
// Example response:
//
//	{
//	  "delivery_id": "0b6f...",
//	  "results": [
//	    {"doc_type": "demand", "doc_id": "5f0a...", "action": "UPDATE", "updated": true,
//	     "reason": "updated", "positions": 2, "loyalty_discount_sum": 2000}
//	  ]
//	}
func (c *WebhookController) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	deliveryID := uuid.NewString()
	log := c.logger.With(zap.String("deliveryId", deliveryID))
	log.Info("📥 HandleWebhook: Received request", zap.String("method", r.Method), zap.String("path", r.URL.Path))

	if r.Method != http.MethodPost {
		log.Warn("❌ HandleWebhook: Method not allowed", zap.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c.token != "" && r.Header.Get("Authorization") != "Bearer "+c.token {
		log.Warn("❌ HandleWebhook: Unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("❌ HandleWebhook: Failed to read request body", zap.Error(err))
		http.Error(w, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	events, err := parseEvents(body)
	if err != nil {
		log.Warn("❌ HandleWebhook: Invalid request body", zap.Error(err))
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	jobs := c.collectJobs(log, events)
	results := c.process(context.WithoutCancel(r.Context()), log, jobs)

	log.Info("✅ HandleWebhook: Processed delivery", zap.Int("events", len(events)), zap.Int("documents", len(results)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	response := models.WebhookResponse{DeliveryID: deliveryID, Results: results}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("❌ HandleWebhook: Error encoding response", zap.Error(err))
	}
}

// collectJobs filters the events down to one job per handled document, in
// delivery order
func (c *WebhookController) collectJobs(log *zap.Logger, events []models.WebhookEvent) []webhookJob {
	seen := make(map[string]bool, len(events))
	jobs := make([]webhookJob, 0, len(events))

	for _, event := range events {
		docType, docID := event.DocRef()
		if docType == "" || docID == "" {
			log.Warn("⚠️ Skipping event without document ref", zap.String("action", event.Action))
			continue
		}
		if !c.handles(docType) {
			log.Info("Skipping document type", zap.String("docType", docType))
			continue
		}

		key := docType + "/" + docID
		if seen[key] {
			continue
		}
		seen[key] = true

		action := event.ActionOrUnknown()
		log.Info("Webhook event", zap.String("action", action), zap.String("docType", docType), zap.String("docId", docID))
		jobs = append(jobs, webhookJob{docType: docType, docID: docID, action: action})
	}
	return jobs
}

// process runs the jobs with at most c.concurrency documents in flight.
// A failed document becomes an error row; it never aborts the others.
func (c *WebhookController) process(ctx context.Context, log *zap.Logger, jobs []webhookJob) []models.ProcessResult {
	results := make([]models.ProcessResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			result, err := c.processor.ProcessDocument(ctx, job.docType, job.docID)
			if err != nil {
				log.Error("❌ Failed to process document",
					zap.String("docType", job.docType), zap.String("docId", job.docID), zap.Error(err))
				results[i] = models.ProcessResult{
					DocType: job.docType,
					DocID:   job.docID,
					Reason:  models.ReasonError,
					Error:   err.Error(),
				}
			} else {
				results[i] = *result
			}
			results[i].Action = job.action
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// parseEvents accepts {"events": [...]} or a single bare event. Entries that
// are not JSON objects are dropped.
func parseEvents(body []byte) ([]models.WebhookEvent, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("body is not valid JSON")
	}

	raws := []json.RawMessage{body}
	if isObject(body) {
		var payload models.WebhookPayload
		if err := json.Unmarshal(body, &payload); err == nil && len(payload.Events) > 0 {
			raws = payload.Events
		}
	}

	events := make([]models.WebhookEvent, 0, len(raws))
	for _, raw := range raws {
		if !isObject(raw) {
			continue
		}
		var event models.WebhookEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
