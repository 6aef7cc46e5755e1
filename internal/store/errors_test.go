package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("failed to do something: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "ErrReminderNotFound",
			err:      ErrReminderNotFound,
			expected: true,
		},
		{
			name:     "reminder not found inside StoreError",
			err:      NewStoreError("reminder", "mark_fired", "row missing", ErrReminderNotFound),
			expected: true,
		},
		{
			name:     "ErrInvalidTransition",
			err:      ErrInvalidTransition,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := NewStoreError("reminder", "list_due", "query failed", ErrTransactionFailed)

		assert.Equal(t,
			"list_due operation on reminder failed: query failed: transaction failed",
			err.Error())
		assert.ErrorIs(t, err, ErrTransactionFailed)

		var storeErr *StoreError
		wrapped := fmt.Errorf("cycle: %w", err)
		assert.True(t, errors.As(wrapped, &storeErr))
		assert.Equal(t, "list_due", storeErr.Operation)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := NewStoreError("reminder", "get", "bad id", nil)

		assert.Equal(t, "get operation on reminder failed: bad id", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}
