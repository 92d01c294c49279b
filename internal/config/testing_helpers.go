package config

import (
	"github.com/vzwork/locus/internal/types"
)

// MockConfig implements types.ConfigManager for testing
type MockConfig struct {
	AuthKeyValue string
	RedisDSN     string
	Master       bool
	JobsDisabled bool
}

// NewMockConfig returns a mock configured the way service tests expect
func NewMockConfig() *MockConfig {
	return &MockConfig{
		AuthKeyValue: "test-auth-key-minimum-16-chars",
		Master:       true,
		JobsDisabled: true,
	}
}

// GetEffectiveServerConfig returns mock server configuration
func (m *MockConfig) GetEffectiveServerConfig() types.ServerConfig {
	return types.ServerConfig{
		IsMaster:                m.Master,
		Port:                    3001,
		Host:                    "0.0.0.0",
		ReadTimeout:             60,
		WriteTimeout:            600,
		IdleTimeout:             120,
		GracefulShutdownTimeout: 10,
	}
}

// GetAuthConfig returns mock auth configuration
func (m *MockConfig) GetAuthConfig() types.AuthConfig {
	return types.AuthConfig{
		Key: m.AuthKeyValue,
	}
}

// GetCORSConfig returns mock CORS configuration
func (m *MockConfig) GetCORSConfig() types.CORSConfig {
	return types.CORSConfig{
		Enabled:          false,
		AllowedOrigins:   []string{},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}
}

// GetLogConfig returns mock log configuration
func (m *MockConfig) GetLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:      "info",
		Format:     "text",
		EnableFile: false,
		FilePath:   "./data/logs/app.log",
	}
}

// GetDatabaseConfig returns mock database configuration
func (m *MockConfig) GetDatabaseConfig() types.DatabaseConfig {
	return types.DatabaseConfig{
		DSN: ":memory:",
	}
}

// GetSchedulerConfig returns mock scheduler configuration
func (m *MockConfig) GetSchedulerConfig() types.SchedulerConfig {
	return types.SchedulerConfig{
		StatisticsHour:              4,
		RebalanceDayIntervalMinutes: 15,
		RebalanceWeekIntervalHours:  4,
		DisableJobs:                 m.JobsDisabled,
	}
}

// GetRedisDSN returns mock Redis DSN
func (m *MockConfig) GetRedisDSN() string {
	return m.RedisDSN
}

// ReloadConfig reloads configuration (no-op for mock)
func (m *MockConfig) ReloadConfig() error {
	return nil
}

// IsMaster returns whether this is a master instance
func (m *MockConfig) IsMaster() bool {
	return m.Master
}

// Validate validates the configuration
func (m *MockConfig) Validate() error {
	return nil
}

// DisplayServerConfig displays server configuration (no-op for mock)
func (m *MockConfig) DisplayServerConfig() {
	// No-op for testing
}
