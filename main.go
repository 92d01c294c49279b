// Package main provides the entry point for the Locus ranking engine
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vzwork/locus/internal/app"
	"github.com/vzwork/locus/internal/container"
	"github.com/vzwork/locus/internal/types"
	"github.com/vzwork/locus/internal/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	// Build the dependency injection container
	container, err := container.BuildContainer()
	if err != nil {
		logrus.Fatalf("Failed to build container: %v", err)
	}

	// Initialize global logger
	if err := container.Invoke(func(configManager types.ConfigManager) {
		utils.SetupLogger(configManager)
	}); err != nil {
		logrus.Fatalf("Failed to setup logger: %v", err)
	}
	defer utils.CloseLogger()

	// Create and run the application
	if err := container.Invoke(func(application *app.App, configManager types.ConfigManager) {
		if err := application.Start(); err != nil {
			logrus.Fatalf("Failed to start application: %v", err)
		}

		// Setup signal handling for graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		sig := <-quit
		logrus.Infof("Received signal: %v, initiating graceful shutdown...", sig)

		serverConfig := configManager.GetEffectiveServerConfig()
		shutdownTimeout := time.Duration(serverConfig.GracefulShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			application.Stop(shutdownCtx)
			close(done)
		}()

		// Wait for shutdown to complete or second signal for force exit
		select {
		case <-done:
			logrus.Info("Graceful shutdown completed successfully")
		case <-quit:
			logrus.Warn("Second interrupt signal received, forcing immediate exit")
			os.Exit(1)
		case <-shutdownCtx.Done():
			logrus.Warn("Shutdown timeout exceeded, forcing exit")
			os.Exit(1)
		}
	}); err != nil {
		logrus.Fatalf("Failed to run application: %v", err)
	}
}
