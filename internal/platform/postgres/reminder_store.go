package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/store"
)

const reminderColumns = `id, task_id, user_id, scheduled_time, status, notification_channels, created_at, fired_at`

// PostgresReminderStore implements the store.ReminderStore interface using PostgreSQL.
type PostgresReminderStore struct {
	db store.TxDB
}

// NewPostgresReminderStore creates a new PostgresReminderStore. The db may be
// the pool or a single connection checked out of it.
func NewPostgresReminderStore(db store.TxDB) *PostgresReminderStore {
	return &PostgresReminderStore{
		db: db,
	}
}

// Ensure PostgresReminderStore implements store.ReminderStore
var _ store.ReminderStore = (*PostgresReminderStore)(nil)

// ListDue returns pending reminders scheduled at or before now, oldest first.
func (s *PostgresReminderStore) ListDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Reminder, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE status = 'pending' AND scheduled_time <= $1
		ORDER BY scheduled_time ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		log.Error("failed to query due reminders",
			slog.Int("limit", limit),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("reminder", "list_due", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	reminders := make([]*domain.Reminder, 0, limit)
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			log.Error("failed to scan reminder row",
				slog.String("error", err.Error()))
			return nil, store.NewStoreError("reminder", "list_due", "scan failed", err)
		}
		reminders = append(reminders, r)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating reminder rows",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("reminder", "list_due", "row iteration failed", MapError(err))
	}

	return reminders, nil
}

// GetReminder retrieves a reminder by its ID.
func (s *PostgresReminderStore) GetReminder(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	r, err := scanReminder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReminderNotFound
		}
		logger.FromContext(ctx).Error("failed to get reminder",
			slog.String("reminder_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("reminder", "get", "query failed", MapError(err))
	}

	return r, nil
}

// MarkFired locks the reminder row, checks that it is still pending and
// records the fired status. The change is committed before returning.
func (s *PostgresReminderStore) MarkFired(ctx context.Context, id uuid.UUID, firedAt time.Time) error {
	log := logger.FromContext(ctx).With(slog.String("reminder_id", id.String()))

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		lockQuery := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1 FOR UPDATE`

		r, err := scanReminder(tx.QueryRowContext(ctx, lockQuery, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrReminderNotFound
			}
			return MapError(err)
		}

		if err := r.MarkFired(firedAt); err != nil {
			if errors.Is(err, domain.ErrInvalidReminderTransition) {
				return fmt.Errorf("%w: %w", store.ErrInvalidTransition, err)
			}
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE reminders SET status = $1, fired_at = $2 WHERE id = $3`,
			r.Status, *r.FiredAt, r.ID,
		)
		if err != nil {
			return MapError(err)
		}
		return CheckRowsAffected(result, "reminder")
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrReminderNotFound):
			log.Debug("reminder disappeared before it could be fired")
			return store.NewStoreError("reminder", "mark_fired", "reminder not found", err)
		case errors.Is(err, store.ErrInvalidTransition):
			log.Debug("reminder is no longer pending", slog.String("error", err.Error()))
		default:
			log.Error("failed to mark reminder fired", slog.String("error", err.Error()))
		}
		return store.NewStoreError("reminder", "mark_fired", "update failed", err)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var (
		r        domain.Reminder
		status   string
		channels []byte
		firedAt  sql.NullTime
	)

	if err := row.Scan(
		&r.ID,
		&r.TaskID,
		&r.UserID,
		&r.ScheduledTime,
		&status,
		&channels,
		&r.CreatedAt,
		&firedAt,
	); err != nil {
		return nil, err
	}

	r.Status = domain.ReminderStatus(status)
	r.ScheduledTime = r.ScheduledTime.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	if len(channels) > 0 {
		r.NotificationChannels = channels
	}
	if firedAt.Valid {
		t := firedAt.Time.UTC()
		r.FiredAt = &t
	}

	return &r, nil
}
