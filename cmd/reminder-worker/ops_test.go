package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/todo-reminders/internal/platform/metrics"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedState reminder.State

func (s fixedState) State() reminder.State { return reminder.State(s) }

func TestOpsRouterHealthz(t *testing.T) {
	tests := []struct {
		state      reminder.State
		wantStatus int
	}{
		{state: reminder.StateRunning, wantStatus: http.StatusOK},
		{state: reminder.StateShuttingDown, wantStatus: http.StatusOK},
		{state: reminder.StateStopped, wantStatus: http.StatusServiceUnavailable},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			router := newOpsRouter(fixedState(tt.state), prometheus.NewRegistry(), logger)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body healthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.state.String(), body.WorkerState)
		})
	}
}

func TestOpsRouterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	recorder.ObservePublishAttempt("reminder-events", metrics.PublishSuccess)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := newOpsRouter(fixedState(reminder.StateRunning), reg, logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`reminder_worker_publish_attempts_total{outcome="success",topic="reminder-events"} 1`)
}

func TestOpsRouterUnknownRoute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := newOpsRouter(fixedState(reminder.StateRunning), prometheus.NewRegistry(), logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reminders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLoggerAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := newOpsRouter(fixedState(reminder.StateRunning), prometheus.NewRegistry(), base)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "ops-check-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0], &entry))
	assert.Equal(t, "ops request", entry["msg"])
	assert.Equal(t, "ops-check-1", entry["request_id"])
	assert.Equal(t, "/healthz", entry["path"])
}
