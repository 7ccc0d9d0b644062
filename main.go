package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ms-loyalty/app"
	"ms-loyalty/config"
	"ms-loyalty/logging"
)

func main() {
	// Load .env file in development (ignores error if file doesn't exist)
	// In production, variables should be set directly
	if os.Getenv("ENV") != "production" {
		envPath := ".env"
		if err := godotenv.Overload(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, using system environment variables", envPath)
		} else {
			log.Printf("Successfully loaded environment variables from %s (overriding system variables)", envPath)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize application
	handler, cleanup, err := app.Initialize(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	// Listen on 0.0.0.0 to accept connections from all interfaces (required for Docker/Render)
	port := strings.TrimPrefix(cfg.Server.Port, ":")
	addr := "0.0.0.0:" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("addr", addr),
		zap.Strings("documentTypes", cfg.DocumentTypes),
		zap.Bool("dryRun", cfg.DryRun))
	logger.Info("Webhook endpoint: POST http://localhost:" + port + "/webhook")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
	<-shutdownDone
	logger.Info("Server stopped")
}
