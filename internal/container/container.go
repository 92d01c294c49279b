// Package container provides dependency injection container setup
package container

import (
	"github.com/vzwork/locus/internal/app"
	"github.com/vzwork/locus/internal/config"
	"github.com/vzwork/locus/internal/db"
	"github.com/vzwork/locus/internal/handler"
	"github.com/vzwork/locus/internal/router"
	"github.com/vzwork/locus/internal/services"
	"github.com/vzwork/locus/internal/store"
	"github.com/vzwork/locus/internal/types"

	"go.uber.org/dig"
)

// BuildContainer creates and configures the dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		// Configuration
		func() (types.ConfigManager, error) { return config.NewManager() },

		// Infrastructure
		db.NewDB,
		store.NewStore,

		// Services
		services.NewStatisticsProcessor,
		services.NewTreeRebalancer,
		services.NewInteractionService,
		services.NewContentService,
		services.NewSeederService,
		services.NewJobScheduler,

		// HTTP layer
		handler.NewServer,
		router.NewRouter,

		// Application
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
