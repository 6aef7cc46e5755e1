package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	LogLevel string         `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Database DatabaseConfig `mapstructure:"database"`
	Events   EventsConfig   `mapstructure:"events"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Ops      OpsConfig      `mapstructure:"ops"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// URL is required only when the worker is enabled.
	URL          string `mapstructure:"url"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// EventsConfig locates the pub/sub gateway and bounds delivery.
type EventsConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	DaprHost       string  `mapstructure:"dapr_host" validate:"required"`
	DaprHTTPPort   int     `mapstructure:"dapr_http_port" validate:"gte=1,lte=65535"`
	PubsubName     string  `mapstructure:"pubsub_name" validate:"required"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=1"`
	TimeoutSeconds float64 `mapstructure:"timeout" validate:"gt=0"`
}

// Timeout returns the per-attempt publish timeout.
func (c EventsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// WorkerConfig contains the reminder polling settings.
type WorkerConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	PollIntervalSeconds int  `mapstructure:"poll_interval" validate:"gte=1"`
	BatchSize           int  `mapstructure:"batch_size" validate:"gte=1,lte=10000"`
}

// PollInterval returns the pause between polling cycles.
func (c WorkerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// OpsConfig configures the health and metrics listener. Port 0 disables it.
type OpsConfig struct {
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}
