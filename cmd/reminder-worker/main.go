// Package main implements the entry point for the reminder worker, which
// fires due task reminders and publishes reminder.fired events to the
// pub/sub gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
)

// Process exit codes.
const (
	exitOK    = 0
	exitError = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run wires the worker and blocks until it stops. It returns the process exit code.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("reminder-worker", flag.ContinueOnError)
	flags.SetOutput(stderr)
	once := flags.Bool("once", false, "run a single polling cycle and exit")
	configFile := flags.String("config", "", "path to a reminder-worker.yaml file")
	if err := flags.Parse(args); err != nil {
		return exitError
	}

	cfg, err := loadAppConfig(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return exitError
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.LogLevel, Output: stderr})
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		return exitError
	}

	if !cfg.Worker.Enabled {
		log.Info("reminder worker is disabled, exiting")
		return exitOK
	}

	log.Info("reminder worker configuration loaded",
		"poll_interval", cfg.Worker.PollInterval(),
		"batch_size", cfg.Worker.BatchSize,
		"event_publishing", cfg.Events.Enabled,
		"dapr_host", cfg.Events.DaprHost,
		"dapr_http_port", cfg.Events.DaprHTTPPort,
		"pubsub_name", cfg.Events.PubsubName,
		"ops_port", cfg.Ops.Port)

	db, err := setupAppDatabase(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return exitError
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(db, log); err != nil {
			log.Error("failed to migrate database", "error", err)
			_ = db.Close()
			return exitError
		}
	}

	app := newApplication(cfg, log, db)
	defer app.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		err = app.RunOnce(ctx)
	} else {
		err = app.Run(ctx)
	}
	if err != nil {
		log.Error("reminder worker failed", "error", err)
		return exitError
	}
	return exitOK
}

// loadAppConfig loads configuration, optionally from an explicit file.
func loadAppConfig(path string) (*config.Config, error) {
	var opts []config.Option
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
