package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// txTargets returns the two kinds of TxBeginner the reminder store is built
// over: the pool itself and one connection checked out of it.
func txTargets(t *testing.T) map[string]func(t *testing.T) (TxBeginner, sqlmock.Sqlmock) {
	t.Helper()
	return map[string]func(t *testing.T) (TxBeginner, sqlmock.Sqlmock){
		"pool": func(t *testing.T) (TxBeginner, sqlmock.Sqlmock) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			return db, mock
		},
		"dedicated connection": func(t *testing.T) (TxBeginner, sqlmock.Sqlmock) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			conn, err := db.Conn(context.Background())
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = conn.Close()
				_ = db.Close()
			})
			return conn, mock
		},
	}
}

func TestRunInTransaction(t *testing.T) {
	fnErr := errors.New("reminder row locked")
	beginErr := errors.New("connection reset")
	commitErr := errors.New("serialization failure")
	rollbackErr := errors.New("connection lost")

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		fn     TxFn
		check  func(t *testing.T, err error)
	}{
		{
			name: "commits when fn succeeds",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE reminders").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "UPDATE reminders SET status = 'fired'")
				return err
			},
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name: "rolls back and returns fn error unchanged",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn: func(context.Context, *sql.Tx) error { return fnErr },
			check: func(t *testing.T, err error) {
				assert.Equal(t, fnErr, err)
				assert.NotErrorIs(t, err, ErrTransactionFailed)
			},
		},
		{
			name: "begin failure is a transaction failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(beginErr)
			},
			fn: func(context.Context, *sql.Tx) error { return fnErr },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTransactionFailed)
				assert.ErrorIs(t, err, beginErr)
				assert.NotErrorIs(t, err, fnErr)
				assert.Contains(t, err.Error(), "begin")
			},
		},
		{
			name: "commit failure is a transaction failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(commitErr)
			},
			fn: func(context.Context, *sql.Tx) error { return nil },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTransactionFailed)
				assert.ErrorIs(t, err, commitErr)
				assert.Contains(t, err.Error(), "commit")
			},
		},
		{
			name: "rollback failure keeps the original error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(rollbackErr)
			},
			fn: func(context.Context, *sql.Tx) error { return fnErr },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, fnErr)
				assert.Contains(t, err.Error(), rollbackErr.Error())
			},
		},
	}

	for targetName, newTarget := range txTargets(t) {
		for _, tt := range tests {
			t.Run(targetName+"/"+tt.name, func(t *testing.T) {
				db, mock := newTarget(t)
				tt.expect(mock)

				err := RunInTransaction(context.Background(), db, tt.fn)
				tt.check(t, err)
				assert.NoError(t, mock.ExpectationsWereMet())
			})
		}
	}
}

func TestRunInTransactionPanic(t *testing.T) {
	tests := []struct {
		name        string
		rollbackErr error
	}{
		{name: "rolls back and re-panics"},
		{name: "re-panics when rollback fails", rollbackErr: errors.New("connection lost")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectBegin()
			rollback := mock.ExpectRollback()
			if tt.rollbackErr != nil {
				rollback.WillReturnError(tt.rollbackErr)
			}

			assert.PanicsWithValue(t, "scan exploded", func() {
				_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
					panic("scan exploded")
				})
			})
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
