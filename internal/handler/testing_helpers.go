package handler

import (
	"testing"

	"github.com/vzwork/locus/internal/config"
	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/services"
	"github.com/vzwork/locus/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing (pure Go, no CGO)
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Channel{}, &models.Post{}))
	return db
}

// setupTestServer creates a test server with minimal dependencies
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)
	mockConfig := config.NewMockConfig()

	processor := services.NewStatisticsProcessor(db, mockConfig)
	rebalancer := services.NewTreeRebalancer(db, mockConfig)
	storage := store.NewMemoryStore()
	t.Cleanup(func() { storage.Close() })

	return &Server{
		DB:           db,
		config:       mockConfig,
		Content:      services.NewContentService(db, mockConfig),
		Interactions: services.NewInteractionService(db),
		Scheduler:    services.NewJobScheduler(processor, rebalancer, storage, mockConfig),
	}
}
