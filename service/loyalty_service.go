package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ms-loyalty/config"
	"ms-loyalty/loyalty"
	"ms-loyalty/models"
	"ms-loyalty/repository"
)

// LoyaltyService fetches a document, plans its loyalty discounts and writes
// them back
type LoyaltyService struct {
	client          MoySkladServiceInterface
	runs            repository.RunRepositoryInterface
	settings        loyalty.Settings
	discountSumAttr string
	dryRun          bool
	logger          *zap.Logger
	locks           *documentLocks
}

// Ensure LoyaltyService implements DocumentProcessorInterface
var _ DocumentProcessorInterface = (*LoyaltyService)(nil)

// NewLoyaltyService creates a new LoyaltyService. runs may be nil when no
// journal is kept.
func NewLoyaltyService(client MoySkladServiceInterface, runs repository.RunRepositoryInterface, cfg *config.Config, logger *zap.Logger) *LoyaltyService {
	if runs == nil {
		runs = repository.NopRunRepository{}
	}
	return &LoyaltyService{
		client:          client,
		runs:            runs,
		settings:        cfg.Loyalty,
		discountSumAttr: cfg.DiscountSumAttr,
		dryRun:          cfg.DryRun,
		logger:          logger,
		locks:           newDocumentLocks(),
	}
}

// ProcessDocument applies loyalty discounts to one document. Concurrent calls
// for the same document run one after another.
func (s *LoyaltyService) ProcessDocument(ctx context.Context, docType, docID string) (*models.ProcessResult, error) {
	unlock := s.locks.lock(docType + "/" + docID)
	defer unlock()

	log := s.logger.With(zap.String("docType", docType), zap.String("docId", docID))
	log.Info("📦 ProcessDocument: Processing document")

	result, err := s.process(ctx, log, docType, docID)
	if err != nil {
		log.Error("❌ ProcessDocument: Failed", zap.Error(err))
		s.record(ctx, log, &models.Run{
			DocType: docType,
			DocID:   docID,
			Reason:  models.ReasonError,
			DryRun:  s.dryRun,
			Error:   err.Error(),
		})
		return nil, err
	}

	s.record(ctx, log, &models.Run{
		DocType:          docType,
		DocID:            docID,
		Reason:           result.Reason,
		Updated:          result.Updated,
		ChangedPositions: result.Positions,
		DiscountSum:      result.LoyaltyDiscountSum,
		DryRun:           s.dryRun,
	})
	return result, nil
}

func (s *LoyaltyService) process(ctx context.Context, log *zap.Logger, docType, docID string) (*models.ProcessResult, error) {
	doc, err := s.client.GetDocument(ctx, docType, docID, "agent")
	if err != nil {
		return nil, err
	}

	positions, err := s.client.GetAllPositions(ctx, docType, docID, "assortment")
	if err != nil {
		return nil, err
	}
	s.enrichAssortments(ctx, log, positions)

	plan := loyalty.PlanUpdate(doc.Snapshot(positions), s.settings)
	result := &models.ProcessResult{
		DocType:            docType,
		DocID:              docID,
		Positions:          plan.ChangedCount(),
		LoyaltyDiscountSum: plan.DiscountSum,
	}

	switch {
	case plan.Disabled:
		log.Info("✅ ProcessDocument: Loyalty disabled for document")
		result.Reason = models.ReasonDisabled
		return result, nil
	case !plan.HasChanges():
		log.Info("✅ ProcessDocument: No discount changes needed",
			zap.Int64("discountSum", plan.DiscountSum))
		result.Reason = models.ReasonNoChanges
		return result, nil
	case s.dryRun:
		log.Info("✅ ProcessDocument: Dry run, document left untouched",
			zap.Int("positions", plan.ChangedCount()),
			zap.Int64("discountSum", plan.DiscountSum))
		result.Reason = models.ReasonDryRun
		return result, nil
	}

	update := &models.DocumentUpdate{Positions: plan.Payload()}
	if attr := s.discountSumAttribute(ctx, log, docType, plan.DiscountSum); attr != nil {
		update.Attributes = []models.AttributeUpdate{*attr}
	}
	if err := s.client.UpdateDocument(ctx, docType, docID, update); err != nil {
		return nil, err
	}

	log.Info("✅ ProcessDocument: Updated document",
		zap.Int("positions", plan.ChangedCount()),
		zap.Int64("discountSum", plan.DiscountSum))
	result.Updated = true
	result.Reason = models.ReasonUpdated
	return result, nil
}

// discountSumAttribute builds the attribute carrying the discount total in
// roubles, or nil when none is configured or it cannot be resolved
func (s *LoyaltyService) discountSumAttribute(ctx context.Context, log *zap.Logger, docType string, sum int64) *models.AttributeUpdate {
	if s.discountSumAttr == "" {
		return nil
	}
	attr, err := s.client.MakeAttribute(ctx, docType, s.discountSumAttr, float64(sum)/100)
	if err != nil {
		if errors.Is(err, ErrAttributeNotFound) {
			log.Warn("⚠️ Discount sum attribute not found", zap.String("attribute", s.discountSumAttr))
		} else {
			log.Warn("⚠️ Failed to resolve discount sum attribute", zap.Error(err))
		}
		return nil
	}
	return attr
}

// enrichAssortments makes sure every expanded assortment carries pathName.
// Variants take the pathName of their product. Failures are logged and the
// position is left as it is.
func (s *LoyaltyService) enrichAssortments(ctx context.Context, log *zap.Logger, positions []models.Position) {
	cache := make(map[string]*models.Assortment)

	for i := range positions {
		assortment := positions[i].Assortment
		if assortment == nil || assortment.PathName != nil {
			continue
		}
		meta := models.ParseMeta(assortment.Meta)
		if meta.Href == "" {
			continue
		}

		if full, ok := cache[meta.Href]; ok {
			positions[i].Assortment = full
			continue
		}

		full, err := s.client.GetAssortment(ctx, meta.Href)
		if err != nil {
			log.Warn("⚠️ Failed to enrich assortment", zap.String("href", meta.Href), zap.Error(err))
			continue
		}

		if strings.EqualFold(meta.Type, "variant") && (full.PathName == nil || *full.PathName == "") {
			pathName := ""
			if full.Product != nil {
				if productHref := models.ParseMeta(full.Product.Meta).Href; productHref != "" {
					product, err := s.client.GetAssortment(ctx, productHref)
					if err != nil {
						log.Warn("⚠️ Failed to enrich assortment", zap.String("href", meta.Href), zap.Error(err))
						continue
					}
					if product.PathName != nil {
						pathName = *product.PathName
					}
				}
			}
			full.PathName = &pathName
		}

		if len(full.Meta) == 0 {
			full.Meta = assortment.Meta
		}
		cache[meta.Href] = full
		positions[i].Assortment = full
	}
}

func (s *LoyaltyService) record(ctx context.Context, log *zap.Logger, run *models.Run) {
	if err := s.runs.Insert(ctx, run); err != nil {
		log.Warn("⚠️ Failed to record run", zap.Error(err))
	}
}
