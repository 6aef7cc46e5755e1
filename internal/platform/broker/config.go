package broker

import (
	"fmt"
	"time"
)

// Config holds the gateway location and delivery limits.
type Config struct {
	// Enabled switches between real delivery and no-op mode.
	Enabled bool

	Host      string
	Port      int
	Component string

	// MaxAttempts is the total number of delivery attempts per envelope.
	MaxAttempts int

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultConfig returns the gateway settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Host:        "localhost",
		Port:        3500,
		Component:   "todo-pubsub",
		MaxAttempts: DefaultRetryPolicy.MaxAttempts,
		Timeout:     5 * time.Second,
		BaseDelay:   DefaultRetryPolicy.BaseDelay,
		MaxDelay:    DefaultRetryPolicy.MaxDelay,
	}
}

// BaseURL returns the publish endpoint of the pub/sub component without the topic.
func (c Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d/v1.0/publish/%s", c.Host, c.Port, c.Component)
}

// RetryPolicy derives the delivery retry policy from the config. Unset
// fields fall back to DefaultRetryPolicy.
func (c Config) RetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.BaseDelay > 0 {
		p.BaseDelay = c.BaseDelay
	}
	if c.MaxDelay > 0 {
		p.MaxDelay = c.MaxDelay
	}
	return p
}
