// Package di provides dependency injection for service implementations.
package di

import (
	"fmt"

	"github.com/fathomcap/underwriter/internal/config"
	"github.com/fathomcap/underwriter/internal/events"
	"github.com/fathomcap/underwriter/internal/modules/datasets"
	"github.com/fathomcap/underwriter/internal/modules/simulation"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services and stores them in the container.
// Repositories must be initialized first.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Event manager (pub/sub hub, no dependencies)
	// Created first so every service can emit lifecycle events
	container.EventManager = events.NewManager(log)

	// Datasets service (needs DatasetsRepo and EventManager)
	container.DatasetsService = datasets.NewService(
		container.DatasetsRepo,
		container.EventManager,
		log,
	)

	// Run manager (needs ResultsRepo, DatasetsService, EventManager and config defaults)
	container.RunManager = simulation.NewRunManager(
		container.ResultsRepo,
		container.DatasetsService,
		container.EventManager,
		cfg,
		log,
	)

	log.Info().Msg("All services initialized")

	return nil
}
