package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ms-loyalty/db"
	"ms-loyalty/models"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunRepository stores processing outcomes in the loyalty_runs table
type RunRepository struct {
	logger *zap.Logger
}

// NewRunRepository creates a new RunRepository over db.DB
func NewRunRepository(logger *zap.Logger) *RunRepository {
	return &RunRepository{logger: logger}
}

// Ensure RunRepository implements RunRepositoryInterface
var _ RunRepositoryInterface = (*RunRepository)(nil)

// Insert stores one run. An empty ID is replaced by a fresh UUID and
// CreatedAt is filled from the database clock.
func (r *RunRepository) Insert(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	query := `
		INSERT INTO loyalty_runs (id, doc_type, doc_id, reason, updated, changed_positions, discount_sum, dry_run, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}

	var createdAt time.Time
	err := db.DB.QueryRowContext(ctx, query,
		run.ID,
		run.DocType,
		run.DocID,
		run.Reason,
		run.Updated,
		run.ChangedPositions,
		run.DiscountSum,
		run.DryRun,
		errText,
	).Scan(&createdAt)
	if err != nil {
		r.logger.Error("❌ Insert: Error inserting run", zap.String("docId", run.DocID), zap.Error(err))
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	r.logger.Debug("✅ Insert: Stored run", zap.String("id", run.ID), zap.String("reason", run.Reason))
	return nil
}

// List returns the most recent runs, newest first
func (r *RunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.Run, error) {
	query, args := buildListQuery(filter)

	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("❌ List: Error fetching runs", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	defer rows.Close()

	runs := []models.Run{}
	for rows.Next() {
		var run models.Run
		var errText sql.NullString
		var createdAt time.Time

		err := rows.Scan(
			&run.ID,
			&run.DocType,
			&run.DocID,
			&run.Reason,
			&run.Updated,
			&run.ChangedPositions,
			&run.DiscountSum,
			&run.DryRun,
			&errText,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if errText.Valid {
			run.Error = errText.String
		}
		run.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// buildListQuery builds the SELECT for List with numbered placeholders for
// every filter that is set
func buildListQuery(filter models.RunFilter) (string, []any) {
	query := `
		SELECT id, doc_type, doc_id, reason, updated, changed_positions, discount_sum, dry_run, error, created_at
		FROM loyalty_runs
	`
	var args []any
	argIndex := 1

	if filter.DocID != nil && *filter.DocID != "" {
		query += fmt.Sprintf(" WHERE doc_id = $%d", argIndex)
		args = append(args, *filter.DocID)
		argIndex++
	}

	if filter.DocType != nil && *filter.DocType != "" {
		if argIndex == 1 {
			query += " WHERE"
		} else {
			query += " AND"
		}
		query += fmt.Sprintf(" doc_type = $%d", argIndex)
		args = append(args, *filter.DocType)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	return query, args
}

// NopRunRepository is used when no database is configured
type NopRunRepository struct{}

var _ RunRepositoryInterface = NopRunRepository{}

// Insert discards the run
func (NopRunRepository) Insert(context.Context, *models.Run) error { return nil }

// List always returns an empty list
func (NopRunRepository) List(context.Context, models.RunFilter) ([]models.Run, error) {
	return []models.Run{}, nil
}
