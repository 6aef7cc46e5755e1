package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every *ConfigurationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	msg := "configuration"
	if e.Field != "" {
		msg = fmt.Sprintf("configuration field %q", e.Field)
	}
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}
