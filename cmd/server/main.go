// Package main is the entry point for the underwriter simulation service.
// The application imports subscription P&L and cohort datasets, projects
// Monte Carlo revenue trajectories over them, amortizes revenue-based loans
// against each trajectory and serves the results over a REST + WebSocket API.
//
// The application follows clean architecture principles:
// - Domain packages are pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fathomcap/underwriter/internal/config"
	"github.com/fathomcap/underwriter/internal/di"
	"github.com/fathomcap/underwriter/internal/server"
	"github.com/fathomcap/underwriter/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env file supported)
// 2. Initializes the logging system
// 3. Wires all dependencies via the DI container (databases, repositories, services)
// 4. Starts the HTTP server
// 5. Waits for a shutdown signal and performs graceful shutdown
//
// The application uses a 2-database architecture:
// - datasets.db: Imported P&L and cohort tables (replaceable reference data)
// - results.db: Append-only simulation runs and trajectory records
func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		// This ensures we can log the configuration error even if config loading fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Msg("Starting underwriter")

	// Wire all dependencies using DI container
	// This initializes databases, repositories and services in order, with
	// all dependencies injected via constructor injection.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Cleanup databases on exit
	// Both databases are checkpointed and closed so the main files are
	// complete on disk and integrity is maintained.
	defer container.CloseDatabases()

	// Initialize HTTP server
	// The server provides REST API endpoints for dataset imports, retention
	// diagnostics, simulation runs, lender analytics and system monitoring,
	// plus a WebSocket stream of run progress.
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	// Start server in goroutine so the shutdown handling below is reachable.
	// ErrServerClosed is the normal return after a graceful shutdown.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	// The application blocks here until it receives SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	// In-flight requests get up to 10 seconds to complete. An active
	// simulation run keeps executing on its own goroutine and persists its
	// result; only the HTTP surface goes away.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
