// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
	"github.com/fathomcap/underwriter/internal/modules/simulation"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Datasets repository (needs datasetsDB)
	container.DatasetsRepo = datasets.NewRepository(
		container.DatasetsDB.Conn(),
		log,
	)

	// Results repository (needs resultsDB)
	container.ResultsRepo = simulation.NewRepository(
		container.ResultsDB.Conn(),
		log,
	)

	log.Info().Msg("All repositories initialized")

	return nil
}
