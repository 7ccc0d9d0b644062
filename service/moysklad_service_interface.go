package service

import (
	"context"

	"ms-loyalty/models"
)

// MoySkladServiceInterface defines the contract for MoySklad API operations
type MoySkladServiceInterface interface {
	GetDocument(ctx context.Context, docType, docID, expand string) (*models.Document, error)
	// GetAllPositions fetches every position of a document, following pagination
	GetAllPositions(ctx context.Context, docType, docID, expand string) ([]models.Position, error)
	GetAssortment(ctx context.Context, href string) (*models.Assortment, error)
	// MakeAttribute builds an attribute update for entity using its cached metadata
	MakeAttribute(ctx context.Context, entity, name string, value any) (*models.AttributeUpdate, error)
	UpdateDocument(ctx context.Context, docType, docID string, update *models.DocumentUpdate) error
}
