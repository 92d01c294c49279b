// Package app provides the main application logic and lifecycle management.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/services"
	"github.com/vzwork/locus/internal/store"
	"github.com/vzwork/locus/internal/types"
	"github.com/vzwork/locus/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// App holds all services and manages the application lifecycle.
type App struct {
	engine        *gin.Engine
	configManager types.ConfigManager
	scheduler     *services.JobScheduler
	seeder        *services.SeederService
	storage       store.Store
	db            *gorm.DB
	httpServer    *http.Server
}

// AppParams defines the dependencies for the App.
type AppParams struct {
	dig.In
	Engine        *gin.Engine
	ConfigManager types.ConfigManager
	Scheduler     *services.JobScheduler
	Seeder        *services.SeederService
	Storage       store.Store
	DB            *gorm.DB
}

// NewApp is the constructor for App, with dependencies injected by dig.
func NewApp(params AppParams) *App {
	return &App{
		engine:        params.Engine,
		configManager: params.ConfigManager,
		scheduler:     params.Scheduler,
		seeder:        params.Seeder,
		storage:       params.Storage,
		db:            params.DB,
	}
}

// Start runs the application, it is a non-blocking call.
func (a *App) Start() error {
	// Master node performs initialization
	if a.configManager.IsMaster() {
		logrus.Info("Starting as Master Node.")

		if err := a.db.AutoMigrate(
			&models.Channel{},
			&models.Post{},
		); err != nil {
			return fmt.Errorf("database auto-migration failed: %w", err)
		}
		logrus.Info("Database auto-migration completed.")

		if seedFile := os.Getenv("SEED_FILE"); seedFile != "" {
			if err := a.seeder.SeedFromFile(seedFile); err != nil {
				return fmt.Errorf("seeding channel tree failed: %w", err)
			}
		}

		// Background jobs only run on the master node
		a.scheduler.Start()
	} else {
		logrus.Info("Starting as Slave Node.")
	}

	a.configManager.DisplayServerConfig()

	serverConfig := a.configManager.GetEffectiveServerConfig()
	a.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:        a.engine,
		ReadTimeout:    time.Duration(serverConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(serverConfig.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(serverConfig.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("Locus ranking engine started successfully on Version: %s", version.Version)
		logrus.Infof("Server address: http://%s:%d", serverConfig.Host, serverConfig.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application.
func (a *App) Stop(ctx context.Context) {
	logrus.Info("Shutting down server...")

	serverConfig := a.configManager.GetEffectiveServerConfig()
	totalTimeout := time.Duration(serverConfig.GracefulShutdownTimeout) * time.Second

	// Reserve time for background services after the HTTP server drains
	httpShutdownTimeout := totalTimeout - 5*time.Second
	httpShutdownCtx, cancelHTTPShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancelHTTPShutdown()

	httpShutdownStart := time.Now()
	if err := a.httpServer.Shutdown(httpShutdownCtx); err != nil {
		logrus.Debug("HTTP server graceful shutdown timed out, forcing remaining connections to close.")
		if closeErr := a.httpServer.Close(); closeErr != nil {
			logrus.Errorf("Error forcing HTTP server to close: %v", closeErr)
		}
	}
	logrus.Infof("HTTP server has been shut down. (took %v)", time.Since(httpShutdownStart))

	if serverConfig.IsMaster {
		a.scheduler.Stop(ctx)
	}

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			logrus.Errorf("Error closing storage: %v", err)
		}
	}

	if a.db != nil {
		closeDBConnection(a.db, "Main database")
	}

	logrus.Info("Server exited gracefully")
}

// closeDBConnection gracefully closes a GORM database connection. Idle
// connections are dropped first so the pool can close quickly, and the final
// close is bounded to keep Ctrl+C exits fast.
func closeDBConnection(gormDB *gorm.DB, name string) {
	if gormDB == nil {
		return
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logrus.Errorf("Error getting sql.DB for %s: %v", name, err)
		return
	}

	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	done := make(chan error, 1)
	go func() {
		done <- sqlDB.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			logrus.Errorf("[%s] Error closing connection: %v", name, err)
		} else {
			logrus.Debugf("[%s] Connection closed successfully.", name)
		}
	case <-time.After(1 * time.Second):
		logrus.Warnf("[%s] Connection close timed out after 1s, proceeding anyway", name)
	}
}
