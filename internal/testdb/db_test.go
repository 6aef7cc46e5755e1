package testdb

import (
	"testing"

	"github.com/phrazzld/todo-reminders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		databaseURL string
		fallbackURL string
		want        string
	}{
		{name: "none set", want: ""},
		{name: "database url wins", databaseURL: "postgres://a", fallbackURL: "postgres://b", want: "postgres://a"},
		{name: "fallback", fallbackURL: "postgres://b", want: "postgres://b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tt.databaseURL)
			t.Setenv("REMINDER_TEST_DB_URL", tt.fallbackURL)

			assert.Equal(t, tt.want, GetTestDatabaseURL())
			assert.Equal(t, tt.want != "", IsIntegrationTestEnvironment())
		})
	}
}

func TestNewReminder(t *testing.T) {
	r := NewReminder()
	require.NoError(t, r.Validate())
	assert.Equal(t, domain.ReminderStatusPending, r.Status)

	fired := NewReminder(WithStatus(domain.ReminderStatusFired))
	require.NoError(t, fired.Validate())
	require.NotNil(t, fired.FiredAt)

	withChannels := NewReminder(WithChannels(`["push","email"]`))
	assert.Equal(t, []string{"push", "email"}, withChannels.Channels())
}

func TestGetTestDBWithTSkipsWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REMINDER_TEST_DB_URL", "")

	skipped := t.Run("inner", func(t *testing.T) {
		GetTestDBWithT(t)
		t.Error("expected skip")
	})
	assert.True(t, skipped, "a skipped subtest reports success")
}
