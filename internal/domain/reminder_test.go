package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingReminder(scheduled time.Time) *Reminder {
	return &Reminder{
		ID:            uuid.New(),
		TaskID:        uuid.New(),
		UserID:        uuid.New(),
		ScheduledTime: scheduled,
		Status:        ReminderStatusPending,
		CreatedAt:     scheduled.Add(-time.Hour),
	}
}

func TestReminderValidate(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	firedAt := now

	tests := []struct {
		name    string
		mutate  func(r *Reminder)
		wantErr error
	}{
		{name: "valid pending", mutate: func(r *Reminder) {}},
		{name: "missing id", mutate: func(r *Reminder) { r.ID = uuid.Nil }, wantErr: ErrEmptyReminderID},
		{name: "missing task", mutate: func(r *Reminder) { r.TaskID = uuid.Nil }, wantErr: ErrEmptyReminderTaskID},
		{name: "missing user", mutate: func(r *Reminder) { r.UserID = uuid.Nil }, wantErr: ErrEmptyReminderUserID},
		{name: "zero schedule", mutate: func(r *Reminder) { r.ScheduledTime = time.Time{} }, wantErr: ErrEmptyScheduledTime},
		{name: "unknown status", mutate: func(r *Reminder) { r.Status = "snoozed" }, wantErr: ErrInvalidReminderStatus},
		{name: "fired without fired_at", mutate: func(r *Reminder) { r.Status = ReminderStatusFired }, wantErr: ErrFiredAtMismatch},
		{name: "pending with fired_at", mutate: func(r *Reminder) { r.FiredAt = &firedAt }, wantErr: ErrFiredAtMismatch},
		{
			name: "valid fired",
			mutate: func(r *Reminder) {
				r.Status = ReminderStatusFired
				r.FiredAt = &firedAt
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPendingReminder(now)
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReminderIsDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, newPendingReminder(now).IsDue(now), "scheduled exactly now is due")
	assert.True(t, newPendingReminder(now.Add(-time.Minute)).IsDue(now))
	assert.False(t, newPendingReminder(now.Add(time.Second)).IsDue(now))

	cancelled := newPendingReminder(now.Add(-time.Minute))
	cancelled.Status = ReminderStatusCancelled
	assert.False(t, cancelled.IsDue(now))
}

func TestReminderTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    ReminderStatus
		to      ReminderStatus
		allowed bool
	}{
		{ReminderStatusPending, ReminderStatusFired, true},
		{ReminderStatusPending, ReminderStatusCancelled, true},
		{ReminderStatusPending, ReminderStatusPending, false},
		{ReminderStatusFired, ReminderStatusPending, false},
		{ReminderStatusFired, ReminderStatusCancelled, false},
		{ReminderStatusCancelled, ReminderStatusFired, false},
		{ReminderStatusCancelled, ReminderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			r := newPendingReminder(time.Now())
			r.Status = tt.from
			err := r.CanTransitionTo(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidReminderTransition))
			}
		})
	}
}

func TestReminderMarkFired(t *testing.T) {
	t.Parallel()
	scheduled := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	at := time.Date(2026, 1, 10, 10, 0, 15, 0, time.FixedZone("CET", 3600))

	r := newPendingReminder(scheduled)
	require.NoError(t, r.MarkFired(at))
	assert.Equal(t, ReminderStatusFired, r.Status)
	require.NotNil(t, r.FiredAt)
	assert.True(t, r.FiredAt.Equal(at))
	assert.Equal(t, time.UTC, r.FiredAt.Location())
	assert.Equal(t, scheduled, r.ScheduledTime, "scheduled time is untouched")
	assert.NoError(t, r.Validate())

	err := r.MarkFired(at.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidReminderTransition)
	assert.True(t, r.FiredAt.Equal(at), "second fire must not move fired_at")
}

func TestReminderChannels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "absent", raw: "", want: []string{DefaultChannel}},
		{name: "json null", raw: "null", want: []string{DefaultChannel}},
		{name: "bare list", raw: `["push","sms"]`, want: []string{"push", "sms"}},
		{name: "wrapped list", raw: `{"channels":["sms","email"]}`, want: []string{"sms", "email"}},
		{name: "empty list", raw: `[]`, want: []string{DefaultChannel}},
		{name: "wrapped without channels", raw: `{"other":true}`, want: []string{DefaultChannel}},
		{name: "blank entries dropped", raw: `["", " push "]`, want: []string{"push"}},
		{name: "malformed", raw: `{"channels":`, want: []string{DefaultChannel}},
		{name: "wrong element type", raw: `[1,2]`, want: []string{DefaultChannel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPendingReminder(time.Now())
			if tt.raw != "" {
				r.NotificationChannels = json.RawMessage(tt.raw)
			}
			assert.Equal(t, tt.want, r.Channels())
		})
	}
}
