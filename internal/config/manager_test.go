package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewManager tests the creation of a new configuration manager
func TestNewManager(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	manager, err := NewManager()

	require.NoError(t, err)
	require.NotNil(t, manager)

	assert.Equal(t, 3001, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "0.0.0.0", manager.GetEffectiveServerConfig().Host)
	assert.True(t, manager.IsMaster())
}

// TestManagerReloadConfig tests configuration reloading
func TestManagerReloadConfig(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	manager := &Manager{}

	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("STATISTICS_HOUR", "6")

	err := manager.ReloadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "127.0.0.1", manager.GetEffectiveServerConfig().Host)
	assert.Equal(t, 6, manager.GetSchedulerConfig().StatisticsHour)
}

// TestManagerValidation tests configuration validation
func TestManagerValidation(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid configuration",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
			},
			expectError: false,
		},
		{
			name: "invalid port - too low",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("PORT", "0")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "invalid port - too high",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("PORT", "70000")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "missing auth key",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				os.Unsetenv("AUTH_KEY")
			},
			expectError: true,
			errorMsg:    "AUTH_KEY is required",
		},
		{
			name: "invalid statistics hour",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("STATISTICS_HOUR", "24")
			},
			expectError: true,
			errorMsg:    "statistics hour must be between",
		},
		{
			name: "invalid rebalance interval",
			setupEnv: func(t *testing.T) {
				setupTestEnv(t)
				t.Setenv("REBALANCE_DAY_INTERVAL_MINUTES", "0")
			},
			expectError: true,
			errorMsg:    "rebalance day interval cannot be less than 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)
			defer cleanupTestEnv(t)

			manager := &Manager{}
			err := manager.ReloadConfig()

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestManagerGetters tests all getter methods
func TestManagerGetters(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Setenv("REDIS_DSN", "redis://localhost:6379")
	os.Setenv("ENABLE_CORS", "true")
	os.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	manager, err := NewManager()
	require.NoError(t, err)

	assert.True(t, manager.IsMaster())

	authConfig := manager.GetAuthConfig()
	assert.NotEmpty(t, authConfig.Key)

	corsConfig := manager.GetCORSConfig()
	assert.True(t, corsConfig.Enabled)
	assert.Len(t, corsConfig.AllowedOrigins, 2)

	logConfig := manager.GetLogConfig()
	assert.NotEmpty(t, logConfig.Level)

	assert.Equal(t, "redis://localhost:6379", manager.GetRedisDSN())

	dbConfig := manager.GetDatabaseConfig()
	assert.NotEmpty(t, dbConfig.DSN)

	schedConfig := manager.GetSchedulerConfig()
	assert.Equal(t, 4, schedConfig.StatisticsHour)
	assert.Equal(t, 15, schedConfig.RebalanceDayIntervalMinutes)
}

// TestManagerCORSValidation tests CORS configuration validation
func TestManagerCORSValidation(t *testing.T) {
	tests := []struct {
		name        string
		enableCORS  string
		origins     string
		expectError bool
	}{
		{
			name:        "CORS disabled",
			enableCORS:  "false",
			origins:     "",
			expectError: false,
		},
		{
			name:        "CORS enabled with valid origins",
			enableCORS:  "true",
			origins:     "http://localhost:3000",
			expectError: false,
		},
		{
			name:        "CORS enabled without origins",
			enableCORS:  "true",
			origins:     "",
			expectError: true,
		},
		{
			name:        "CORS enabled with wildcard",
			enableCORS:  "true",
			origins:     "*",
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestEnv(t)
			defer cleanupTestEnv(t)

			os.Setenv("ENABLE_CORS", tt.enableCORS)
			if tt.origins != "" {
				os.Setenv("ALLOWED_ORIGINS", tt.origins)
			} else {
				os.Unsetenv("ALLOWED_ORIGINS")
			}

			manager, err := NewManager()

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, manager)
			}
		})
	}
}

// TestManagerTimeoutValidation tests timeout configuration validation
func TestManagerTimeoutValidation(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Setenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", "5")

	manager, err := NewManager()
	require.NoError(t, err)

	// Reset to minimum 10 seconds
	assert.Equal(t, 10, manager.GetEffectiveServerConfig().GracefulShutdownTimeout)
}

// TestManagerSlaveMode tests slave mode configuration
func TestManagerSlaveMode(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Setenv("IS_SLAVE", "true")

	manager, err := NewManager()
	require.NoError(t, err)

	assert.False(t, manager.IsMaster())
}

// TestManagerLogConfig tests log configuration
func TestManagerLogConfig(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		logFormat string
	}{
		{
			name:      "default log config",
			logLevel:  "",
			logFormat: "",
		},
		{
			name:      "custom log config",
			logLevel:  "debug",
			logFormat: "json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestEnv(t)
			defer cleanupTestEnv(t)

			if tt.logLevel != "" {
				os.Setenv("LOG_LEVEL", tt.logLevel)
			}
			if tt.logFormat != "" {
				os.Setenv("LOG_FORMAT", tt.logFormat)
			}

			manager, err := NewManager()
			require.NoError(t, err)

			logConfig := manager.GetLogConfig()
			if tt.logLevel != "" {
				assert.Equal(t, tt.logLevel, logConfig.Level)
			} else {
				assert.Equal(t, "info", logConfig.Level)
			}
			if tt.logFormat != "" {
				assert.Equal(t, tt.logFormat, logConfig.Format)
			} else {
				assert.Equal(t, "text", logConfig.Format)
			}
		})
	}
}

// TestManagerDefaultValues tests default configuration values
func TestManagerDefaultValues(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Unsetenv("HOST")
	os.Unsetenv("PORT")
	os.Unsetenv("SERVER_READ_TIMEOUT")
	os.Unsetenv("SERVER_WRITE_TIMEOUT")
	os.Unsetenv("SERVER_IDLE_TIMEOUT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("LOG_FORMAT")

	manager, err := NewManager()
	require.NoError(t, err)

	serverConfig := manager.GetEffectiveServerConfig()
	assert.Equal(t, "0.0.0.0", serverConfig.Host)
	assert.Equal(t, 3001, serverConfig.Port)
	assert.Equal(t, 60, serverConfig.ReadTimeout)
	assert.Equal(t, 600, serverConfig.WriteTimeout)
	assert.Equal(t, 120, serverConfig.IdleTimeout)

	schedConfig := manager.GetSchedulerConfig()
	assert.Equal(t, 4, schedConfig.StatisticsHour)
	assert.Equal(t, 15, schedConfig.RebalanceDayIntervalMinutes)
	assert.Equal(t, 4, schedConfig.RebalanceWeekIntervalHours)
	assert.False(t, schedConfig.DisableJobs)
}

// TestManagerValidationMultipleErrors tests validation with multiple errors
func TestManagerValidationMultipleErrors(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Setenv("PORT", "0")
	os.Setenv("STATISTICS_HOUR", "30")
	os.Unsetenv("AUTH_KEY")

	manager := &Manager{}
	err := manager.ReloadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between")
	assert.Contains(t, err.Error(), "statistics hour")
	assert.Contains(t, err.Error(), "AUTH_KEY is required")
}

// TestManagerDatabaseDefaultPath tests default database path
func TestManagerDatabaseDefaultPath(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Unsetenv("DATABASE_DSN")

	manager, err := NewManager()
	require.NoError(t, err)

	dbConfig := manager.GetDatabaseConfig()
	assert.Equal(t, "./data/locus.db", dbConfig.DSN)
}

// TestManagerConstants tests configuration constants
func TestManagerConstants(t *testing.T) {
	assert.Equal(t, 1, DefaultConstants.MinPort)
	assert.Equal(t, 65535, DefaultConstants.MaxPort)
	assert.Equal(t, 1, DefaultConstants.MinTimeout)
	assert.Equal(t, 30, DefaultConstants.DefaultTimeout)
}

// TestDisplayServerConfig tests the display of server configuration
func TestDisplayServerConfig(t *testing.T) {
	setupTestEnv(t)
	defer cleanupTestEnv(t)

	os.Setenv("REDIS_DSN", "redis://localhost:6379")

	manager, err := NewManager()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		manager.DisplayServerConfig()
	})
}

// setupTestEnv sets up a test environment with required variables
func setupTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_KEY", "test-auth-key-minimum-16-chars")
	t.Setenv("PORT", "3001")
	t.Setenv("DATABASE_DSN", ":memory:")
}

// cleanupTestEnv cleans up test environment variables
func cleanupTestEnv(t *testing.T) {
	os.Unsetenv("AUTH_KEY")
	os.Unsetenv("PORT")
	os.Unsetenv("HOST")
	os.Unsetenv("DATABASE_DSN")
	os.Unsetenv("REDIS_DSN")
	os.Unsetenv("ENABLE_CORS")
	os.Unsetenv("ALLOWED_ORIGINS")
	os.Unsetenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT")
	os.Unsetenv("SERVER_READ_TIMEOUT")
	os.Unsetenv("SERVER_WRITE_TIMEOUT")
	os.Unsetenv("SERVER_IDLE_TIMEOUT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("LOG_FORMAT")
	os.Unsetenv("IS_SLAVE")
	os.Unsetenv("STATISTICS_HOUR")
	os.Unsetenv("REBALANCE_DAY_INTERVAL_MINUTES")
	os.Unsetenv("REBALANCE_WEEK_INTERVAL_HOURS")
	os.Unsetenv("DISABLE_BACKGROUND_JOBS")
}
