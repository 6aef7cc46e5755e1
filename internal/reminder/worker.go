package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/events"
	"github.com/phrazzld/todo-reminders/internal/platform/broker"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/platform/metrics"
	"github.com/phrazzld/todo-reminders/internal/store"
)

// ErrAlreadyRunning is returned by Run when the worker is not stopped.
var ErrAlreadyRunning = errors.New("reminder worker is already running")

// State is the lifecycle state of a Worker.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds configuration for the reminder worker
type Config struct {
	// PollInterval is the pause between the end of one cycle and the start of the next.
	PollInterval time.Duration

	// BatchSize caps how many due reminders a single cycle handles.
	BatchSize int

	// Source is the event source recorded on published envelopes.
	Source string
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		PollInterval: 30 * time.Second,
		BatchSize:    100,
		Source:       events.SourceReminderWorker,
	}
}

// CycleResult reports what one polling cycle did.
type CycleResult struct {
	Found         int
	Fired         int
	Failed        int
	PublishFailed int
	Duration      time.Duration
}

// Worker polls for due reminders and fires them.
type Worker struct {
	sessions  store.ReminderSessionFactory
	publisher broker.Publisher
	config    Config
	logger    *slog.Logger
	metrics   *metrics.Recorder
	now       func() time.Time

	state atomic.Int32

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
}

// Option configures a Worker.
type Option func(*Worker)

// WithClock replaces the time source used for due checks and fired-at stamps.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// WithMetrics records cycle outcomes on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(w *Worker) {
		w.metrics = r
	}
}

// NewWorker creates a stopped Worker. Zero config fields take their defaults.
func NewWorker(
	sessions store.ReminderSessionFactory,
	publisher broker.Publisher,
	config Config,
	logger *slog.Logger,
	opts ...Option,
) *Worker {
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Source == "" {
		config.Source = defaults.Source
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		sessions:  sessions,
		publisher: publisher,
		config:    config,
		logger:    logger.With(slog.String("component", "reminder_worker")),
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run polls until ctx is cancelled or Stop is called. A cycle that is in
// progress when the stop arrives runs to completion first. Run returns nil
// after a requested stop.
func (w *Worker) Run(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return ErrAlreadyRunning
	}
	defer w.reset()

	stopOnCancel := context.AfterFunc(ctx, w.Stop)
	defer stopOnCancel()

	stop := w.stopChan()
	// Cycles never see the cancellation; only the wait between them does.
	cycleCtx := logger.WithLogger(context.WithoutCancel(ctx), w.logger)

	w.logger.Info("reminder worker started",
		slog.Duration("poll_interval", w.config.PollInterval),
		slog.Int("batch_size", w.config.BatchSize))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return w.shutdown()
		case <-timer.C:
		}
		if w.stopRequested() {
			return w.shutdown()
		}

		if _, err := w.ProcessDueReminders(cycleCtx); err != nil {
			w.logger.Error("reminder cycle failed", slog.String("error", err.Error()))
		}

		timer.Reset(w.config.PollInterval)
	}
}

// Stop requests shutdown. It is safe to call from any goroutine and more
// than once. A Stop before Run makes that Run return without polling.
func (w *Worker) Stop() {
	w.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.stopped = true
		close(w.stopCh)
	}
}

func (w *Worker) stopRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *Worker) shutdown() error {
	w.state.Store(int32(StateShuttingDown))
	w.logger.Info("reminder worker stopping")
	return nil
}

func (w *Worker) stopChan() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopCh
}

// reset returns the worker to Stopped with a fresh stop channel so it can be run again.
func (w *Worker) reset() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	w.stopped = false
	w.mu.Unlock()

	w.state.Store(int32(StateStopped))
	w.logger.Info("reminder worker stopped")
}

// ProcessDueReminders runs one polling cycle. Each due reminder is published
// best-effort and then committed as fired on its own, so a failure on one
// reminder never affects the others. An error is returned only when the
// cycle could not read from the store at all.
func (w *Worker) ProcessDueReminders(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	var result CycleResult

	session, err := w.sessions.OpenSession(ctx)
	if err != nil {
		w.observe(metrics.CycleFailed, result, start)
		return CycleResult{}, fmt.Errorf("open reminder session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			w.logger.Warn("failed to close reminder session", slog.String("error", err.Error()))
		}
	}()

	due, err := session.ListDue(ctx, w.now(), w.config.BatchSize)
	if err != nil {
		w.observe(metrics.CycleFailed, result, start)
		return CycleResult{}, fmt.Errorf("list due reminders: %w", err)
	}

	result.Found = len(due)
	for _, r := range due {
		firedAt := w.now().UTC()
		log := w.logger.With(slog.String("reminder_id", r.ID.String()))

		if !w.publish(ctx, log, r, firedAt) {
			result.PublishFailed++
		}

		if err := session.MarkFired(ctx, r.ID, firedAt); err != nil {
			result.Failed++
			log.Error("failed to mark reminder fired", slog.String("error", err.Error()))
			continue
		}
		result.Fired++
	}

	result.Duration = time.Since(start)
	w.observe(metrics.CycleCompleted, result, start)

	if result.Found == 0 {
		w.logger.Debug("no due reminders")
	} else {
		w.logger.Info("reminder cycle completed",
			slog.Int("found", result.Found),
			slog.Int("fired", result.Fired),
			slog.Int("failed", result.Failed),
			slog.Int("publish_failed", result.PublishFailed),
			slog.Int64("duration_ms", result.Duration.Milliseconds()))
	}
	return result, nil
}

// publish builds and sends the fired envelope for r, reporting whether it was accepted.
func (w *Worker) publish(ctx context.Context, log *slog.Logger, r *domain.Reminder, firedAt time.Time) bool {
	env, err := events.NewReminderFired(w.config.Source, r, firedAt)
	if err != nil {
		log.Error("failed to build reminder.fired event", slog.String("error", err.Error()))
		return false
	}

	if err := w.publisher.Publish(ctx, env, events.TopicReminderEvents); err != nil {
		log.Warn("reminder.fired event not delivered, marking fired anyway",
			slog.String("event_id", env.ID),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

func (w *Worker) observe(outcome string, r CycleResult, start time.Time) {
	w.metrics.ObserveCycle(outcome, r.Found, r.Fired, r.Failed, r.PublishFailed, time.Since(start))
}
