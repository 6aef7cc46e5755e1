package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReminderStatus represents the lifecycle state of a reminder
type ReminderStatus string

// Possible reminder status values
const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusFired     ReminderStatus = "fired"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

// DefaultChannel is used when a reminder carries no usable channel list.
const DefaultChannel = "email"

// Common validation errors for Reminder
var (
	ErrEmptyReminderID           = errors.New("reminder ID cannot be empty")
	ErrEmptyReminderTaskID       = errors.New("reminder task ID cannot be empty")
	ErrEmptyReminderUserID       = errors.New("reminder user ID cannot be empty")
	ErrEmptyScheduledTime        = errors.New("reminder scheduled time cannot be empty")
	ErrInvalidReminderStatus     = errors.New("invalid reminder status")
	ErrFiredAtMismatch           = errors.New("fired_at must be set exactly when status is fired")
	ErrInvalidReminderTransition = errors.New("invalid reminder status transition")
)

// Reminder is a time-based notification attached to a task. Reminders are
// created as pending and move at most once, to either fired or cancelled.
type Reminder struct {
	ID                   uuid.UUID       `json:"id"`
	TaskID               uuid.UUID       `json:"task_id"`
	UserID               uuid.UUID       `json:"user_id"`
	ScheduledTime        time.Time       `json:"scheduled_time"`
	Status               ReminderStatus  `json:"status"`
	NotificationChannels json.RawMessage `json:"notification_channels,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	FiredAt              *time.Time      `json:"fired_at,omitempty"`
}

// Validate checks if the Reminder has valid data.
func (r *Reminder) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReminderID
	}
	if r.TaskID == uuid.Nil {
		return ErrEmptyReminderTaskID
	}
	if r.UserID == uuid.Nil {
		return ErrEmptyReminderUserID
	}
	if r.ScheduledTime.IsZero() {
		return ErrEmptyScheduledTime
	}
	if !isValidReminderStatus(r.Status) {
		return ErrInvalidReminderStatus
	}
	if (r.Status == ReminderStatusFired) != (r.FiredAt != nil) {
		return ErrFiredAtMismatch
	}
	return nil
}

// IsDue reports whether the reminder is pending and its scheduled time has passed.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.Status == ReminderStatusPending && !r.ScheduledTime.After(now)
}

// CanTransitionTo returns nil if the reminder may move to the given status.
// Only pending reminders can change; fired and cancelled are terminal.
func (r *Reminder) CanTransitionTo(status ReminderStatus) error {
	if !isValidReminderStatus(status) {
		return ErrInvalidReminderStatus
	}
	if r.Status != ReminderStatusPending || status == ReminderStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidReminderTransition, r.Status, status)
	}
	return nil
}

// MarkFired moves a pending reminder to fired at the given instant.
func (r *Reminder) MarkFired(at time.Time) error {
	if err := r.CanTransitionTo(ReminderStatusFired); err != nil {
		return err
	}
	firedAt := at.UTC()
	r.Status = ReminderStatusFired
	r.FiredAt = &firedAt
	return nil
}

// Channels decodes the stored channel list. Both a bare JSON list and an
// object of the form {"channels": [...]} are accepted. Anything else, or an
// empty result, yields a single DefaultChannel.
func (r *Reminder) Channels() []string {
	channels := parseChannels(r.NotificationChannels)
	if len(channels) == 0 {
		return []string{DefaultChannel}
	}
	return channels
}

func parseChannels(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanChannels(list)
	}

	var wrapped struct {
		Channels []string `json:"channels"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return cleanChannels(wrapped.Channels)
	}

	return nil
}

func cleanChannels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// isValidReminderStatus checks if the given status is a valid ReminderStatus.
func isValidReminderStatus(status ReminderStatus) bool {
	switch status {
	case ReminderStatusPending, ReminderStatusFired, ReminderStatusCancelled:
		return true
	default:
		return false
	}
}
