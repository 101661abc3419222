package api

import (
	"net/http"

	"github.com/okian/spraycam/internal/domain/types"
)

// StatusProvider exposes the latest control loop snapshot.
type StatusProvider interface {
	Status() types.Status
}

// StatsProvider exposes service counters for monitoring.
type StatsProvider interface {
	GetStats() map[string]any
}

// SnapshotHandler serves point-in-time views of the running service.
type SnapshotHandler struct {
	status StatusProvider
	stats  StatsProvider
}

// NewSnapshotHandler creates a snapshot handler.
func NewSnapshotHandler(status StatusProvider, stats StatsProvider) *SnapshotHandler {
	return &SnapshotHandler{status: status, stats: stats}
}

// HandleStatus handles GET /status: lifecycle state, rates, window fill and
// countdown as the control loop last published them.
func (h *SnapshotHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.status.Status())
}

// HandleStats handles GET /stats.
func (h *SnapshotHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}
