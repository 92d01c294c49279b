package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	IsMaster() bool
	GetAuthConfig() AuthConfig
	GetCORSConfig() CORSConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetSchedulerConfig() SchedulerConfig
	GetEffectiveServerConfig() ServerConfig
	GetRedisDSN() string
	Validate() error
	DisplayServerConfig()
	ReloadConfig() error
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	IsMaster                bool   `json:"is_master"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Key string `json:"key"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// SchedulerConfig represents background job scheduling configuration
type SchedulerConfig struct {
	// Hour of day (local time) at which daily statistics runs and to which
	// per-entity workloads are anchored.
	StatisticsHour int `json:"statistics_hour"`
	// Interval between day-timeframe rebalance runs, in minutes.
	RebalanceDayIntervalMinutes int `json:"rebalance_day_interval_minutes"`
	// Interval between week-timeframe rebalance runs, in hours.
	RebalanceWeekIntervalHours int `json:"rebalance_week_interval_hours"`
	// Disables all background runners (manual triggers only).
	DisableJobs bool `json:"disable_jobs"`
}
