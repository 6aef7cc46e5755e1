package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
)

// ReminderStore defines the reminder operations the firing pipeline needs.
// Creation, snoozing and cancellation belong to the CRUD surface and are not
// part of this interface.
type ReminderStore interface {
	// ListDue returns pending reminders whose scheduled time is at or before
	// now, ordered by scheduled time ascending and capped at limit rows.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error)

	// GetReminder retrieves a single reminder.
	// Returns ErrReminderNotFound if it does not exist.
	GetReminder(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)

	// MarkFired moves a pending reminder to fired and commits the change.
	// Returns ErrReminderNotFound if the row is gone and ErrInvalidTransition
	// if the reminder is no longer pending.
	MarkFired(ctx context.Context, id uuid.UUID, firedAt time.Time) error
}

// ReminderSession is a ReminderStore bound to one acquired connection.
// It must be closed to hand the connection back.
type ReminderSession interface {
	ReminderStore
	Close() error
}

// ReminderSessionFactory opens store sessions. The worker opens one session
// per polling cycle and closes it before waiting for the next cycle.
type ReminderSessionFactory interface {
	OpenSession(ctx context.Context) (ReminderSession, error)
}
