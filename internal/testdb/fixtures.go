package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/stretchr/testify/require"
)

// ReminderOption customizes a reminder built by NewReminder.
type ReminderOption func(*domain.Reminder)

// WithScheduledTime sets when the reminder becomes due.
func WithScheduledTime(at time.Time) ReminderOption {
	return func(r *domain.Reminder) { r.ScheduledTime = at.UTC().Truncate(time.Microsecond) }
}

// WithStatus sets the reminder status. A fired reminder gets a fired_at
// matching its scheduled time.
func WithStatus(status domain.ReminderStatus) ReminderOption {
	return func(r *domain.Reminder) {
		r.Status = status
		r.FiredAt = nil
		if status == domain.ReminderStatusFired {
			firedAt := r.ScheduledTime
			r.FiredAt = &firedAt
		}
	}
}

// WithChannels sets the raw notification_channels column value.
func WithChannels(raw string) ReminderOption {
	return func(r *domain.Reminder) { r.NotificationChannels = []byte(raw) }
}

// NewReminder builds a valid pending reminder that fell due a minute ago.
func NewReminder(opts ...ReminderOption) *domain.Reminder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	r := &domain.Reminder{
		ID:            uuid.New(),
		TaskID:        uuid.New(),
		UserID:        uuid.New(),
		ScheduledTime: now.Add(-time.Minute),
		Status:        domain.ReminderStatusPending,
		CreatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InsertReminder writes r and deletes it again when the test finishes.
func InsertReminder(t *testing.T, db *sql.DB, r *domain.Reminder) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	var channels any
	if len(r.NotificationChannels) > 0 {
		channels = string(r.NotificationChannels)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO reminders (id, task_id, user_id, scheduled_time, status, notification_channels, created_at, fired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.TaskID, r.UserID, r.ScheduledTime, string(r.Status), channels, r.CreatedAt, r.FiredAt)
	require.NoError(t, err, "Failed to insert reminder fixture")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		if _, err := db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, r.ID); err != nil {
			t.Logf("Warning: failed to delete reminder %s: %v", r.ID, err)
		}
	})
}

// ReminderStatus reads the stored status and fired_at of a reminder.
func ReminderStatus(t *testing.T, db *sql.DB, id uuid.UUID) (domain.ReminderStatus, *time.Time) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	var (
		status  string
		firedAt sql.NullTime
	)
	err := db.QueryRowContext(ctx, `SELECT status, fired_at FROM reminders WHERE id = $1`, id).
		Scan(&status, &firedAt)
	require.NoError(t, err, "Failed to read reminder %s", id)

	if !firedAt.Valid {
		return domain.ReminderStatus(status), nil
	}
	at := firedAt.Time
	return domain.ReminderStatus(status), &at
}
