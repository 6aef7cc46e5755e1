package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/todo-reminders/internal/config"
	"github.com/phrazzld/todo-reminders/internal/platform/broker"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/platform/metrics"
	"github.com/phrazzld/todo-reminders/internal/platform/postgres"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/phrazzld/todo-reminders/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const opsShutdownTimeout = 5 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry  *prometheus.Registry
	publisher broker.Publisher
	worker    *reminder.Worker
	ops       *http.Server
}

// newApplication creates the publisher and worker over an established database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) *application {
	return newApplicationWithSessions(cfg, logger, db, postgres.NewSessionFactory(db))
}

func newApplicationWithSessions(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	sessions store.ReminderSessionFactory,
) *application {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	publisher := broker.NewHTTPPublisher(brokerConfig(cfg.Events), logger, broker.WithMetrics(recorder))

	worker := reminder.NewWorker(sessions, publisher, reminder.Config{
		PollInterval: cfg.Worker.PollInterval(),
		BatchSize:    cfg.Worker.BatchSize,
	}, logger, reminder.WithMetrics(recorder))

	return &application{
		config:    cfg,
		logger:    logger,
		db:        db,
		registry:  registry,
		publisher: publisher,
		worker:    worker,
	}
}

// brokerConfig maps the events settings onto the publisher's config.
func brokerConfig(cfg config.EventsConfig) broker.Config {
	return broker.Config{
		Enabled:     cfg.Enabled,
		Host:        cfg.DaprHost,
		Port:        cfg.DaprHTTPPort,
		Component:   cfg.PubsubName,
		MaxAttempts: cfg.MaxRetries,
		Timeout:     cfg.Timeout(),
		BaseDelay:   broker.DefaultRetryPolicy.BaseDelay,
		MaxDelay:    broker.DefaultRetryPolicy.MaxDelay,
	}
}

// Run serves the ops endpoints and polls until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	app.startOpsServer()

	if err := app.worker.Run(ctx); err != nil {
		return fmt.Errorf("reminder worker: %w", err)
	}
	return nil
}

// RunOnce processes a single batch of due reminders.
func (app *application) RunOnce(ctx context.Context) error {
	result, err := app.worker.ProcessDueReminders(logger.WithLogger(ctx, app.logger))
	if err != nil {
		return fmt.Errorf("reminder cycle: %w", err)
	}
	app.logger.Info("single reminder cycle finished",
		"found", result.Found,
		"fired", result.Fired,
		"failed", result.Failed,
		"publish_failed", result.PublishFailed)
	return nil
}

// startOpsServer starts the health and metrics listener unless it is disabled.
func (app *application) startOpsServer() {
	if app.config.Ops.Port == 0 {
		app.logger.Info("ops server disabled")
		return
	}

	app.ops = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Ops.Port),
		Handler:           newOpsRouter(app.worker, app.registry, app.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		app.logger.Info("starting ops server", "port", app.config.Ops.Port)
		if err := app.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("ops server failed", "error", err)
		}
	}()
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing event publisher", "error", err)
		}
	}

	if app.ops != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := app.ops.Shutdown(ctx); err != nil {
			app.logger.Error("ops server shutdown failed", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("reminder worker shutdown completed")
}
