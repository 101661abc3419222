package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/spraycam/internal/adapters/repository"
	"github.com/okian/spraycam/internal/domain/types"
)

// Query parameter bounds.
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 1000
	defaultDailyDays   = 7
	maxDailyDays       = 366
)

// EventsHandler serves the event log.
type EventsHandler struct {
	events EventReader
	now    func() time.Time
}

// NewEventsHandler creates a new events handler. events may be nil.
func NewEventsHandler(events EventReader, now func() time.Time) *EventsHandler {
	return &EventsHandler{events: events, now: now}
}

// HandleRecent handles GET /events?limit=N.
func (h *EventsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent_events"
	if !h.ready(w, r) {
		return
	}
	limit, err := intParam(r, "limit", defaultRecentLimit, 1, maxRecentLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}
	recs, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}
	out := make([]types.EventEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, types.NewEventEntry(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDaily handles GET /events/daily?days=N: one entry per day ending today,
// oldest first, days without events included.
func (h *EventsHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	const op = "api.daily_events"
	if !h.ready(w, r) {
		return
	}
	days, err := intParam(r, "days", defaultDailyDays, 1, maxDailyDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}
	from, to := repository.DayRange(h.now(), days)
	counts, err := h.events.DailyCounts(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewDailyEntries(counts))
}

// HandleGet handles GET /events/{id}.
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	if !h.ready(w, r) {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing id", op, ErrBadRequest))
		return
	}
	rec, err := h.events.Get(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: %w", op, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
	default:
		writeJSON(w, http.StatusOK, types.NewEventEntry(rec))
	}
}

func (h *EventsHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if !allowGet(w, r) {
		return false
	}
	if h.events == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrNoEventLog)
		return false
	}
	return true
}

func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be an integer in [%d, %d]", ErrBadRequest, name, lo, hi)
	}
	return n, nil
}
