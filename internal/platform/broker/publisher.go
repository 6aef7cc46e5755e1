package broker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/todo-reminders/internal/events"
	"github.com/phrazzld/todo-reminders/internal/platform/metrics"
	"github.com/phrazzld/todo-reminders/internal/redact"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ContentTypeCloudEvents is the media type of a structured-mode CloudEvent.
const ContentTypeCloudEvents = "application/cloudevents+json"

// Publisher delivers event envelopes to a topic.
type Publisher interface {
	// Publish delivers env to topic. An empty topic is resolved from the
	// envelope type.
	Publish(ctx context.Context, env *events.Envelope, topic string) error

	// Close releases the publisher's connections.
	Close() error
}

// HTTPPublisher publishes envelopes through the gateway's HTTP API.
type HTTPPublisher struct {
	cfg     Config
	policy  RetryPolicy
	logger  *slog.Logger
	metrics *metrics.Recorder
	sleep   SleepFunc

	mu     sync.Mutex
	client *http.Client
	closed bool
}

var _ Publisher = (*HTTPPublisher)(nil)

// Option configures an HTTPPublisher.
type Option func(*HTTPPublisher)

// WithHTTPClient supplies the client used for delivery instead of the lazily
// built default.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPPublisher) {
		p.client = c
	}
}

// WithSleep replaces the wait used between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(p *HTTPPublisher) {
		p.sleep = sleep
	}
}

// WithMetrics records delivery attempts on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *HTTPPublisher) {
		p.metrics = r
	}
}

// NewHTTPPublisher creates a publisher for cfg. No connection is made until
// the first envelope is published.
func NewHTTPPublisher(cfg Config, logger *slog.Logger, opts ...Option) *HTTPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.RetryPolicy()
	policy.Retryable = IsRetryable

	p := &HTTPPublisher{
		cfg:    cfg,
		policy: policy,
		logger: logger.With(slog.String("component", "event_publisher")),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether envelopes are actually delivered.
func (p *HTTPPublisher) Enabled() bool {
	return p.cfg.Enabled
}

// Publish delivers env to topic, retrying transport failures under the
// configured policy. The envelope is encoded once, so every attempt carries
// the same id and time. In no-op mode it returns nil without any I/O.
func (p *HTTPPublisher) Publish(ctx context.Context, env *events.Envelope, topic string) error {
	if env == nil {
		return fmt.Errorf("%w: nil envelope", ErrSerialization)
	}

	if topic == "" {
		var known bool
		topic, known = events.TopicFor(env.Type)
		if !known {
			p.logger.Warn("no topic for event type, using default",
				slog.String("event_type", env.Type.String()),
				slog.String("topic", topic))
		}
	}

	log := p.logger.With(
		slog.String("event_id", env.ID),
		slog.String("event_type", env.Type.String()),
		slog.String("topic", topic),
	)

	if !p.cfg.Enabled {
		log.Debug("event publishing disabled, skipping")
		p.metrics.ObservePublishAttempt(topic, metrics.PublishSkipped)
		return nil
	}

	body, err := env.Marshal()
	if err != nil {
		log.Error("failed to serialize envelope", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	client, err := p.httpClient()
	if err != nil {
		return err
	}

	url := p.cfg.BaseURL() + "/" + topic
	start := time.Now()

	attempts, err := p.policy.Do(ctx, p.sleep, func(ctx context.Context, attempt int) error {
		sendErr := p.send(ctx, client, url, topic, env, body)
		if sendErr == nil {
			p.metrics.ObservePublishAttempt(topic, metrics.PublishSuccess)
			return nil
		}
		p.metrics.ObservePublishAttempt(topic, metrics.PublishFailure)
		log.Warn("publish attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.policy.MaxAttempts),
			slog.String("error", sendErr.Error()))
		return sendErr
	})
	p.metrics.ObservePublishDuration(topic, time.Since(start))

	if err != nil {
		log.Error("failed to publish event",
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()))
		return &PublishError{
			EventID:   env.ID,
			EventType: env.Type.String(),
			Topic:     topic,
			Attempts:  attempts,
			Err:       err,
		}
	}

	log.Info("event published", slog.Int("attempts", attempts))
	return nil
}

// send makes a single delivery attempt bounded by the per-attempt timeout.
func (p *HTTPPublisher) send(
	ctx context.Context,
	client *http.Client,
	url, topic string,
	env *events.Envelope,
	body []byte,
) error {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Topic: topic, Err: err}
	}
	req.Header.Set("Content-Type", ContentTypeCloudEvents)
	req.Header.Set("Ce-Id", env.ID)
	req.Header.Set("Ce-Source", env.Source)
	req.Header.Set("Ce-Type", env.Type.String())
	req.Header.Set("Ce-Specversion", env.SpecVersion)

	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Topic: topic, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	return &TransportError{
		Topic:      topic,
		StatusCode: resp.StatusCode,
		Body:       redact.String(string(snippet)),
	}
}

// httpClient returns the delivery client, building it on first use.
func (p *HTTPPublisher) httpClient() (*http.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		p.client = &http.Client{Transport: otelhttp.NewTransport(transport)}
		p.logger.Debug("created gateway client", slog.String("base_url", p.cfg.BaseURL()))
	}
	return p.client, nil
}

// Close releases idle connections. It is safe to call more than once.
func (p *HTTPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.client != nil {
		p.client.CloseIdleConnections()
	}
	return nil
}

// IsRetryable reports whether err is a delivery failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) && !errors.Is(err, context.Canceled)
}
