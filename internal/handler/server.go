// Package handler provides HTTP handlers for the application
package handler

import (
	"github.com/vzwork/locus/internal/services"
	"github.com/vzwork/locus/internal/types"

	"go.uber.org/dig"
	"gorm.io/gorm"
)

// Server contains dependencies for HTTP handlers
type Server struct {
	DB           *gorm.DB
	config       types.ConfigManager
	Content      *services.ContentService
	Interactions *services.InteractionService
	Scheduler    *services.JobScheduler
}

// NewServerParams defines the dependencies for creating a Server
type NewServerParams struct {
	dig.In

	DB           *gorm.DB
	Config       types.ConfigManager
	Content      *services.ContentService
	Interactions *services.InteractionService
	Scheduler    *services.JobScheduler
}

// NewServer creates a new Server instance
func NewServer(params NewServerParams) *Server {
	return &Server{
		DB:           params.DB,
		config:       params.Config,
		Content:      params.Content,
		Interactions: params.Interactions,
		Scheduler:    params.Scheduler,
	}
}
