package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/todo-reminders/internal/platform/logger"
	"github.com/phrazzld/todo-reminders/internal/reminder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// stateReporter exposes the worker lifecycle state.
type stateReporter interface {
	State() reminder.State
}

type healthResponse struct {
	Status      string `json:"status"`
	WorkerState string `json:"worker_state"`
}

// newOpsRouter builds the health and metrics routes.
func newOpsRouter(worker stateReporter, gatherer prometheus.Gatherer, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := worker.State()
		resp := healthResponse{Status: "ok", WorkerState: state.String()}
		status := http.StatusOK
		if state == reminder.StateStopped {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.FromContext(r.Context()).Error("failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// requestLogger attaches a request-scoped logger carrying the chi request ID
// to the context and logs each request at debug level.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := base.With(slog.String("request_id", middleware.GetReqID(r.Context())))
			log.Debug("ops request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), log)))
		})
	}
}
