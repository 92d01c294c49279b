// Package config provides configuration management for the application
package config

import (
	"fmt"
	"strings"

	"github.com/vzwork/locus/internal/types"
	"github.com/vzwork/locus/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Constants holds configuration boundary values
type Constants struct {
	MinPort        int
	MaxPort        int
	MinTimeout     int
	DefaultTimeout int
}

// DefaultConstants provides default configuration constants
var DefaultConstants = Constants{
	MinPort:        1,
	MaxPort:        65535,
	MinTimeout:     1,
	DefaultTimeout: 30,
}

// Config holds the complete application configuration loaded from environment
type Config struct {
	Server    types.ServerConfig    `json:"server"`
	Auth      types.AuthConfig      `json:"auth"`
	CORS      types.CORSConfig      `json:"cors"`
	Log       types.LogConfig       `json:"log"`
	Database  types.DatabaseConfig  `json:"database"`
	Scheduler types.SchedulerConfig `json:"scheduler"`
	RedisDSN  string                `json:"redis_dsn"`
}

// Manager implements types.ConfigManager over environment variables
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager from the environment
func NewManager() (*Manager, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}

	manager := &Manager{}
	if err := manager.ReloadConfig(); err != nil {
		return nil, err
	}
	return manager, nil
}

// ReloadConfig re-reads configuration from the environment and validates it
func (m *Manager) ReloadConfig() error {
	config := &Config{
		Server: types.ServerConfig{
			Port:                    utils.ParseInteger("PORT", 3001),
			Host:                    utils.ParseString("HOST", "0.0.0.0"),
			IsMaster:                !utils.ParseBoolean("IS_SLAVE", false),
			ReadTimeout:             utils.ParseInteger("SERVER_READ_TIMEOUT", 60),
			WriteTimeout:            utils.ParseInteger("SERVER_WRITE_TIMEOUT", 600),
			IdleTimeout:             utils.ParseInteger("SERVER_IDLE_TIMEOUT", 120),
			GracefulShutdownTimeout: utils.ParseInteger("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 10),
		},
		Auth: types.AuthConfig{
			Key: utils.ParseString("AUTH_KEY", ""),
		},
		CORS: types.CORSConfig{
			Enabled:          utils.ParseBoolean("ENABLE_CORS", false),
			AllowedOrigins:   utils.ParseArray("ALLOWED_ORIGINS", []string{}),
			AllowedMethods:   utils.ParseArray("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   utils.ParseArray("ALLOWED_HEADERS", []string{"*"}),
			AllowCredentials: utils.ParseBoolean("ALLOW_CREDENTIALS", false),
		},
		Log: types.LogConfig{
			Level:      utils.ParseString("LOG_LEVEL", "info"),
			Format:     utils.ParseString("LOG_FORMAT", "text"),
			EnableFile: utils.ParseBoolean("LOG_ENABLE_FILE", false),
			FilePath:   utils.ParseString("LOG_FILE_PATH", "./data/logs/app.log"),
		},
		Database: types.DatabaseConfig{
			DSN: utils.ParseString("DATABASE_DSN", "./data/locus.db"),
		},
		Scheduler: types.SchedulerConfig{
			StatisticsHour:              utils.ParseInteger("STATISTICS_HOUR", 4),
			RebalanceDayIntervalMinutes: utils.ParseInteger("REBALANCE_DAY_INTERVAL_MINUTES", 15),
			RebalanceWeekIntervalHours:  utils.ParseInteger("REBALANCE_WEEK_INTERVAL_HOURS", 4),
			DisableJobs:                 utils.ParseBoolean("DISABLE_BACKGROUND_JOBS", false),
		},
		RedisDSN: utils.ParseString("REDIS_DSN", ""),
	}

	m.config = config
	return m.Validate()
}

// Validate checks the loaded configuration for errors
func (m *Manager) Validate() error {
	var validationErrors []string

	if m.config.Server.Port < DefaultConstants.MinPort || m.config.Server.Port > DefaultConstants.MaxPort {
		validationErrors = append(validationErrors,
			fmt.Sprintf("port must be between %d and %d", DefaultConstants.MinPort, DefaultConstants.MaxPort))
	}

	if m.config.Auth.Key == "" {
		validationErrors = append(validationErrors, "AUTH_KEY is required")
	}

	if m.config.CORS.Enabled && len(m.config.CORS.AllowedOrigins) == 0 {
		validationErrors = append(validationErrors, "ALLOWED_ORIGINS is required when CORS is enabled")
	}

	if m.config.Scheduler.StatisticsHour < 0 || m.config.Scheduler.StatisticsHour > 23 {
		validationErrors = append(validationErrors, "statistics hour must be between 0 and 23")
	}

	if m.config.Scheduler.RebalanceDayIntervalMinutes < 1 {
		validationErrors = append(validationErrors, "rebalance day interval cannot be less than 1 minute")
	}

	if m.config.Server.GracefulShutdownTimeout < 10 {
		m.config.Server.GracefulShutdownTimeout = 10
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(validationErrors, "; "))
	}

	if m.config.CORS.Enabled {
		for _, origin := range m.config.CORS.AllowedOrigins {
			if origin == "*" {
				logrus.Warn("CORS is enabled with wildcard origin; restrict ALLOWED_ORIGINS in production")
			}
		}
	}

	return nil
}

// IsMaster returns whether this instance runs the background jobs
func (m *Manager) IsMaster() bool {
	return m.config.Server.IsMaster
}

// GetAuthConfig returns authentication configuration
func (m *Manager) GetAuthConfig() types.AuthConfig {
	return m.config.Auth
}

// GetCORSConfig returns CORS configuration
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.config.CORS
}

// GetLogConfig returns logging configuration
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.config.Log
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.config.Database
}

// GetSchedulerConfig returns background job scheduling configuration
func (m *Manager) GetSchedulerConfig() types.SchedulerConfig {
	return m.config.Scheduler
}

// GetEffectiveServerConfig returns the server configuration in effect
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.config.Server
}

// GetRedisDSN returns the Redis DSN, empty when running on memory store
func (m *Manager) GetRedisDSN() string {
	return m.config.RedisDSN
}

// DisplayServerConfig logs the current server configuration
func (m *Manager) DisplayServerConfig() {
	server := m.config.Server

	storageType := "memory"
	if m.config.RedisDSN != "" {
		storageType = "redis"
	}

	role := "master"
	if !server.IsMaster {
		role = "slave"
	}

	logrus.Info("Server configuration:")
	logrus.Infof("  Listen: %s:%d (%s)", server.Host, server.Port, role)
	logrus.Infof("  Timeouts: read=%ds write=%ds idle=%ds shutdown=%ds",
		server.ReadTimeout, server.WriteTimeout, server.IdleTimeout, server.GracefulShutdownTimeout)
	logrus.Infof("  Database: %s", m.config.Database.DSN)
	logrus.Infof("  Store: %s", storageType)
	logrus.Infof("  Statistics anchor hour: %02d:00", m.config.Scheduler.StatisticsHour)
	if m.config.Scheduler.DisableJobs {
		logrus.Info("  Background jobs: disabled")
	}
	if m.config.CORS.Enabled {
		logrus.Infof("  CORS: enabled for %s", strings.Join(m.config.CORS.AllowedOrigins, ", "))
	}
}
