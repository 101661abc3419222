// Package api serves the JSON status and event routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// EventReader is the read side of the event log.
type EventReader interface {
	Get(ctx context.Context, eventID string) (model.EventRecord, error)
	Recent(ctx context.Context, limit int) ([]model.EventRecord, error)
	DailyCounts(ctx context.Context, from, to time.Time) ([]model.DailyCount, error)
}

// Server wires HTTP routes for the status API.
type Server struct {
	health    *HealthHandler
	snapshots *SnapshotHandler
	events    *EventsHandler
}

// NewServer creates a new API server with all handlers. events may be nil
// when no event log is configured.
func NewServer(status StatusProvider, events EventReader, statsProvider StatsProvider) *Server {
	return &Server{
		health:    NewHealthHandler(),
		snapshots: NewSnapshotHandler(status, statsProvider),
		events:    NewEventsHandler(events, time.Now),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("api: nil mux")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.snapshots.HandleStats, "stats"))
	mux.HandleFunc("/status", MetricsMiddleware(s.snapshots.HandleStatus, "status"))
	mux.HandleFunc("/events", MetricsMiddleware(s.events.HandleRecent, "events"))
	mux.HandleFunc("/events/daily", MetricsMiddleware(s.events.HandleDaily, "events_daily"))
	mux.HandleFunc("/events/{id}", MetricsMiddleware(s.events.HandleGet, "event"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
