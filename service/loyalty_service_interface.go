package service

import (
	"context"

	"ms-loyalty/models"
)

// DocumentProcessorInterface defines the contract for applying loyalty
// discounts to one document
type DocumentProcessorInterface interface {
	ProcessDocument(ctx context.Context, docType, docID string) (*models.ProcessResult, error)
}
