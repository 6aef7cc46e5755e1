// Package metrics exposes Prometheus collectors for the reminder pipeline.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reminder_worker"

// Cycle outcomes.
const (
	CycleCompleted = "completed"
	CycleFailed    = "failed"
)

// Publish attempt outcomes.
const (
	PublishSuccess = "success"
	PublishFailure = "failure"
	PublishSkipped = "skipped"
)

// Recorder holds the pipeline's collectors.
type Recorder struct {
	cycles          *prometheus.CounterVec
	remindersFound  prometheus.Counter
	remindersFired  prometheus.Counter
	remindersFailed prometheus.Counter
	publishFailed   prometheus.Counter
	cycleDuration   prometheus.Histogram
	publishAttempts *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total number of polling cycles by outcome.",
			},
			[]string{"outcome"},
		),
		remindersFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_found_total",
			Help:      "Total due reminders returned by the store.",
		}),
		remindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Total reminders committed as fired.",
		}),
		remindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Total reminders whose status commit failed.",
		}),
		publishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_publish_failures_total",
			Help:      "Total reminder.fired envelopes that could not be delivered.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Polling cycle duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		publishAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_attempts_total",
				Help:      "Total broker publish attempts by topic and outcome.",
			},
			[]string{"topic", "outcome"},
		),
		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "publish_duration_seconds",
				Help:      "Time spent publishing one envelope, retries included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
	}

	reg.MustRegister(
		r.cycles,
		r.remindersFound,
		r.remindersFired,
		r.remindersFailed,
		r.publishFailed,
		r.cycleDuration,
		r.publishAttempts,
		r.publishDuration,
	)
	return r
}

// ObserveCycle records the outcome and counts of one polling cycle.
func (r *Recorder) ObserveCycle(outcome string, found, fired, failed, publishFailed int, d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(outcome).Inc()
	r.remindersFound.Add(float64(found))
	r.remindersFired.Add(float64(fired))
	r.remindersFailed.Add(float64(failed))
	r.publishFailed.Add(float64(publishFailed))
	r.cycleDuration.Observe(d.Seconds())
}

// ObservePublishAttempt counts a single delivery attempt.
func (r *Recorder) ObservePublishAttempt(topic, outcome string) {
	if r == nil {
		return
	}
	r.publishAttempts.WithLabelValues(topic, outcome).Inc()
}

// ObservePublishDuration records the total time spent on one publish call.
func (r *Recorder) ObservePublishDuration(topic string, d time.Duration) {
	if r == nil {
		return
	}
	r.publishDuration.WithLabelValues(topic).Observe(d.Seconds())
}
