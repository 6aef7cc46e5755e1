package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces every setting, e.g. REMINDER_OPS_PORT.
const envPrefix = "REMINDER"

// legacyEnv maps configuration keys to the environment variables the worker
// has always been deployed with. The prefixed form takes precedence.
var legacyEnv = map[string]string{
	"log_level":             "LOG_LEVEL",
	"database.url":          "DATABASE_URL",
	"database.auto_migrate": "DATABASE_AUTO_MIGRATE",
	"events.enabled":        "EVENT_PUBLISHING_ENABLED",
	"events.dapr_host":      "DAPR_HOST",
	"events.dapr_http_port": "DAPR_HTTP_PORT",
	"events.pubsub_name":    "DAPR_PUBSUB_NAME",
	"events.max_retries":    "EVENT_PUBLISHER_MAX_RETRIES",
	"events.timeout":        "EVENT_PUBLISHER_TIMEOUT",
	"worker.enabled":        "REMINDER_WORKER_ENABLED",
	"worker.poll_interval":  "REMINDER_WORKER_POLL_INTERVAL",
	"worker.batch_size":     "REMINDER_WORKER_BATCH_SIZE",
	"ops.port":              "OPS_PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.dapr_host", "localhost")
	v.SetDefault("events.dapr_http_port", 3500)
	v.SetDefault("events.pubsub_name", "todo-pubsub")
	v.SetDefault("events.max_retries", 3)
	v.SetDefault("events.timeout", 5.0)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.poll_interval", 30)
	v.SetDefault("worker.batch_size", 100)

	v.SetDefault("ops.port", 9090)
}

// Option customizes Load.
type Option func(*viper.Viper)

// WithConfigFile reads settings from path instead of searching for reminder-worker.yaml.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		v.SetConfigFile(path)
	}
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or a *ConfigurationError if loading or
// validation fails.
func Load(opts ...Option) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("reminder-worker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/reminder-worker")
	for _, opt := range opts {
		opt(v)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigurationError{Reason: "file could not be read", Err: err}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, &ConfigurationError{Field: key, Reason: "could not bind environment", Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigurationError{Reason: "could not be decoded", Err: err}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigurationError{
				Field:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q validation", fe.Tag()),
				Err:    err,
			}
		}
		return &ConfigurationError{Reason: "validation failed", Err: err}
	}

	if cfg.Worker.Enabled && strings.TrimSpace(cfg.Database.URL) == "" {
		return &ConfigurationError{
			Field:  "database.url",
			Reason: "is required when the worker is enabled (set DATABASE_URL)",
		}
	}
	return nil
}
