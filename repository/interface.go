package repository

import (
	"context"

	"ms-loyalty/models"
)

// RunRepositoryInterface defines the contract for the processing journal
type RunRepositoryInterface interface {
	Insert(ctx context.Context, run *models.Run) error
	List(ctx context.Context, filter models.RunFilter) ([]models.Run, error)
}
