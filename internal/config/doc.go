// Package config handles configuration loading, parsing, and validation
// from defaults, an optional reminder-worker.yaml file and environment
// variables. The environment names used by existing deployments
// (DATABASE_URL, DAPR_HOST, REMINDER_WORKER_POLL_INTERVAL, ...) are honored
// alongside REMINDER_-prefixed forms of every key.
package config
