// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/fathomcap/underwriter/internal/config"
	"github.com/fathomcap/underwriter/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases initializes both databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. datasets.db - Imported P&L and cohort tables
	datasetsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/datasets.db",
		Profile: database.ProfileStandard,
		Name:    "datasets",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize datasets database: %w", err)
	}
	container.DatasetsDB = datasetsDB

	// 2. results.db - Simulation runs and trajectory records
	resultsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/results.db",
		Profile: database.ProfileLedger, // Maximum safety, results back real lending decisions
		Name:    "results",
	})
	if err != nil {
		datasetsDB.Close()
		return nil, fmt.Errorf("failed to initialize results database: %w", err)
	}
	container.ResultsDB = resultsDB

	// Apply schemas to both databases (single source of truth)
	for _, db := range []*database.DB{datasetsDB, resultsDB} {
		if err := db.Migrate(); err != nil {
			datasetsDB.Close()
			resultsDB.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Msg("All databases initialized and schemas applied")

	return container, nil
}
