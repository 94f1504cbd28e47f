// Package di provides dependency injection type definitions.
//
// This package defines the Container type which holds all application
// dependencies. The Container is the single source of truth for all service
// instances and is passed to the HTTP server for access to services.
package di

import (
	"github.com/fathomcap/underwriter/internal/database"
	"github.com/fathomcap/underwriter/internal/events"
	"github.com/fathomcap/underwriter/internal/modules/datasets"
	"github.com/fathomcap/underwriter/internal/modules/simulation"
)

// Container holds all dependencies for the application.
//
// This is the single source of truth for all service instances.
// The container is created by Wire() and passed to the HTTP server.
//
// Architecture:
// - Databases: 2-database architecture (datasets, results)
// - Repositories: Data access layer (imported datasets, run results)
// - Services: Business logic layer (dataset imports, run lifecycle)
//
// All dependencies are injected via constructor injection.
type Container struct {
	// Databases
	// Each database uses SQLite with WAL mode and profile-specific PRAGMAs
	DatasetsDB *database.DB // Imported P&L and cohort tables (standard profile)
	ResultsDB  *database.DB // Append-only simulation runs and trajectories (ledger profile)

	// Repositories - Data access layer
	DatasetsRepo *datasets.Repository   // P&L months and cohort rows
	ResultsRepo  *simulation.Repository // Runs and per-trajectory records

	// Services - Business logic layer
	EventManager    *events.Manager        // Pub/sub hub for run lifecycle and import events
	DatasetsService *datasets.Service      // Imports, historical series, gross margin
	RunManager      *simulation.RunManager // Single-flight run execution
}

// CloseDatabases checkpoints and closes both database connections. Safe to
// call on a partially initialized container.
func (c *Container) CloseDatabases() {
	for _, db := range []*database.DB{c.DatasetsDB, c.ResultsDB} {
		if db == nil {
			continue
		}
		// Truncate the WAL so the main database file is complete on disk
		// before the connection goes away.
		_ = db.WALCheckpoint("TRUNCATE")
		db.Close()
	}
}
