package events

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Payload is the typed data section of an envelope. The interface is sealed:
// only the payload structs in this package implement it.
type Payload interface {
	// EventType returns the envelope type this payload belongs to.
	EventType() Type

	// Validate checks the payload's required fields.
	Validate() error

	isPayload()
}

// TaskCreated is emitted when a user creates a task.
type TaskCreated struct {
	TaskID      uuid.UUID `json:"task_id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
}

// TaskUpdated is emitted when a task's fields change.
type TaskUpdated struct {
	TaskID         uuid.UUID      `json:"task_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Changes        map[string]any `json:"changes"`
	PreviousValues map[string]any `json:"previous_values"`
}

// TaskDeleted is emitted when a task is permanently removed.
type TaskDeleted struct {
	TaskID      uuid.UUID `json:"task_id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	WasComplete bool      `json:"was_complete"`
}

// ReminderScheduled is emitted when a reminder is created for a task.
type ReminderScheduled struct {
	ReminderID           uuid.UUID `json:"reminder_id"`
	TaskID               uuid.UUID `json:"task_id"`
	UserID               uuid.UUID `json:"user_id"`
	ScheduledTime        time.Time `json:"scheduled_time"`
	NotificationChannels []string  `json:"notification_channels"`
}

// ReminderFired is emitted by the reminder worker when a due reminder fires.
type ReminderFired struct {
	ReminderID           uuid.UUID `json:"reminder_id"`
	TaskID               uuid.UUID `json:"task_id"`
	UserID               uuid.UUID `json:"user_id"`
	FiredAt              time.Time `json:"fired_at"`
	ScheduledTime        time.Time `json:"scheduled_time"`
	NotificationChannels []string  `json:"notification_channels"`
}

// ReminderCancelled is emitted when a task loses its reminder.
type ReminderCancelled struct {
	TaskID      uuid.UUID `json:"task_id"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// NotificationSent records one delivery attempt through one channel.
type NotificationSent struct {
	NotificationID uuid.UUID `json:"notification_id"`
	ReminderID     uuid.UUID `json:"reminder_id"`
	UserID         uuid.UUID `json:"user_id"`
	Channel        string    `json:"channel"`
	Status         string    `json:"status"`
	SentAt         time.Time `json:"sent_at"`
	Attempt        int       `json:"attempt"`
	Error          *string   `json:"error"`
}

// Allowed enumerations for payload fields.
var (
	taskPriorities       = []string{"high", "medium", "low"}
	cancellationReasons  = []string{"task_deleted", "reminder_removed"}
	notificationChannels = []string{"email", "push", "sms"}
	notificationStatuses = []string{"sent", "failed"}
)

func (TaskCreated) EventType() Type       { return TypeTaskCreated }
func (TaskUpdated) EventType() Type       { return TypeTaskUpdated }
func (TaskDeleted) EventType() Type       { return TypeTaskDeleted }
func (ReminderScheduled) EventType() Type { return TypeReminderScheduled }
func (ReminderFired) EventType() Type     { return TypeReminderFired }
func (ReminderCancelled) EventType() Type { return TypeReminderCancelled }
func (NotificationSent) EventType() Type  { return TypeNotificationSent }

func (TaskCreated) isPayload()       {}
func (TaskUpdated) isPayload()       {}
func (TaskDeleted) isPayload()       {}
func (ReminderScheduled) isPayload() {}
func (ReminderFired) isPayload()     {}
func (ReminderCancelled) isPayload() {}
func (NotificationSent) isPayload()  {}

// Validate implements Payload.
func (p TaskCreated) Validate() error {
	if err := requireIDs(p.TaskID, p.UserID); err != nil {
		return err
	}
	if p.Title == "" {
		return invalid("title", "is required")
	}
	if !slices.Contains(taskPriorities, p.Priority) {
		return invalid("priority", "must be one of high, medium, low")
	}
	return nil
}

// Validate implements Payload.
func (p TaskUpdated) Validate() error {
	if err := requireIDs(p.TaskID, p.UserID); err != nil {
		return err
	}
	if p.Changes == nil {
		return invalid("changes", "is required")
	}
	if p.PreviousValues == nil {
		return invalid("previous_values", "is required")
	}
	return nil
}

// Validate implements Payload.
func (p TaskDeleted) Validate() error {
	if err := requireIDs(p.TaskID, p.UserID); err != nil {
		return err
	}
	if p.Title == "" {
		return invalid("title", "is required")
	}
	return nil
}

// Validate implements Payload.
func (p ReminderScheduled) Validate() error {
	if p.ReminderID == uuid.Nil {
		return invalid("reminder_id", "is required")
	}
	if err := requireIDs(p.TaskID, p.UserID); err != nil {
		return err
	}
	if p.ScheduledTime.IsZero() {
		return invalid("scheduled_time", "is required")
	}
	return requireChannels(p.NotificationChannels)
}

// Validate implements Payload.
func (p ReminderFired) Validate() error {
	if p.ReminderID == uuid.Nil {
		return invalid("reminder_id", "is required")
	}
	if err := requireIDs(p.TaskID, p.UserID); err != nil {
		return err
	}
	if p.FiredAt.IsZero() {
		return invalid("fired_at", "is required")
	}
	if p.ScheduledTime.IsZero() {
		return invalid("scheduled_time", "is required")
	}
	return requireChannels(p.NotificationChannels)
}

// Validate implements Payload.
func (p ReminderCancelled) Validate() error {
	if err := requireIDs(p.TaskID, p.UserID); err != nil {
		return err
	}
	if !slices.Contains(cancellationReasons, p.Reason) {
		return invalid("reason", "must be one of task_deleted, reminder_removed")
	}
	if p.CancelledAt.IsZero() {
		return invalid("cancelled_at", "is required")
	}
	return nil
}

// Validate implements Payload.
func (p NotificationSent) Validate() error {
	if p.NotificationID == uuid.Nil {
		return invalid("notification_id", "is required")
	}
	if p.ReminderID == uuid.Nil {
		return invalid("reminder_id", "is required")
	}
	if p.UserID == uuid.Nil {
		return invalid("user_id", "is required")
	}
	if !slices.Contains(notificationChannels, p.Channel) {
		return invalid("channel", "must be one of email, push, sms")
	}
	if !slices.Contains(notificationStatuses, p.Status) {
		return invalid("status", "must be one of sent, failed")
	}
	if p.SentAt.IsZero() {
		return invalid("sent_at", "is required")
	}
	if p.Attempt < 1 {
		return invalid("attempt", "must be at least 1")
	}
	return nil
}

func requireIDs(taskID, userID uuid.UUID) error {
	if taskID == uuid.Nil {
		return invalid("task_id", "is required")
	}
	if userID == uuid.Nil {
		return invalid("user_id", "is required")
	}
	return nil
}

func requireChannels(channels []string) error {
	if len(channels) == 0 {
		return invalid("notification_channels", "must not be empty")
	}
	for _, c := range channels {
		if c == "" {
			return invalid("notification_channels", "must not contain blank entries")
		}
	}
	return nil
}
