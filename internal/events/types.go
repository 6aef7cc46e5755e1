package events

import "strings"

// Type is the dotted event type identifier carried in an envelope.
type Type string

// The closed set of event types in the shared taxonomy.
const (
	TypeTaskCreated       Type = "task.created"
	TypeTaskUpdated       Type = "task.updated"
	TypeTaskDeleted       Type = "task.deleted"
	TypeReminderScheduled Type = "reminder.scheduled"
	TypeReminderFired     Type = "reminder.fired"
	TypeReminderCancelled Type = "reminder.cancelled"
	TypeNotificationSent  Type = "notification.sent"
)

// Envelope constants fixed by the envelope format.
const (
	SpecVersion     = "1.0"
	DataContentType = "application/json"
)

// SourceReminderWorker identifies envelopes produced by the reminder worker.
const SourceReminderWorker = "/workers/reminder-worker"

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case TypeTaskCreated, TypeTaskUpdated, TypeTaskDeleted,
		TypeReminderScheduled, TypeReminderFired, TypeReminderCancelled,
		TypeNotificationSent:
		return true
	default:
		return false
	}
}

// Prefix returns the part of the type before the first dot.
func (t Type) Prefix() string {
	s := string(t)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

func (t Type) String() string {
	return string(t)
}
