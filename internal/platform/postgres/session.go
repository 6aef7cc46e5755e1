package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/todo-reminders/internal/store"
)

// SessionFactory hands out reminder sessions, each pinned to one connection
// checked out of the pool.
type SessionFactory struct {
	db *sql.DB
}

// NewSessionFactory creates a SessionFactory over the given pool.
func NewSessionFactory(db *sql.DB) *SessionFactory {
	return &SessionFactory{db: db}
}

var _ store.ReminderSessionFactory = (*SessionFactory)(nil)

// OpenSession acquires a connection and returns a store bound to it.
func (f *SessionFactory) OpenSession(ctx context.Context) (store.ReminderSession, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, store.NewStoreError("reminder", "open_session", "acquire connection", MapError(err))
	}
	return &reminderSession{
		PostgresReminderStore: NewPostgresReminderStore(conn),
		conn:                  conn,
	}, nil
}

type reminderSession struct {
	*PostgresReminderStore
	conn *sql.Conn
}

// Close returns the connection to the pool.
func (s *reminderSession) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("release reminder session: %w", err)
	}
	return nil
}
