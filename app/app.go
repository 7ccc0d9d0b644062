package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ms-loyalty/app/controller"
	"ms-loyalty/app/router"
	"ms-loyalty/config"
	"ms-loyalty/db"
	"ms-loyalty/repository"
	"ms-loyalty/service"
)

// Initialize wires the application and returns its HTTP handler together
// with a cleanup function for the resources it opened
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	runs, cleanup, err := InitJournal(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize MoySklad client and document processor
	client := service.NewMoySkladService(cfg, logger)
	processor := service.NewLoyaltyService(client, runs, cfg, logger)

	// Create controllers
	controllers := &router.Controllers{
		Webhook: controller.NewWebhookController(processor, cfg, logger),
	}
	if cfg.Database.Configured() {
		controllers.Run = controller.NewRunController(runs, logger)
	}

	mux := http.NewServeMux()
	router.SetupRoutes(mux, controllers)

	return mux, cleanup, nil
}

// InitJournal opens the run journal. Without a configured database the
// journal is a no-op.
func InitJournal(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.RunRepositoryInterface, func(), error) {
	if !cfg.Database.Configured() {
		logger.Info("No database configured, run journal disabled")
		return repository.NopRunRepository{}, func() {}, nil
	}

	dsn, err := cfg.Database.DSN()
	if err != nil {
		return nil, nil, err
	}
	if err := db.InitDB(ctx, dsn); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.CloseDB()
		return nil, nil, err
	}
	logger.Info("✓ Database connection established successfully")

	cleanup := func() {
		if err := db.CloseDB(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	return repository.NewRunRepository(logger), cleanup, nil
}
