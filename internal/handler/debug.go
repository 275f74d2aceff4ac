package handler

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/authsvc/pkg/session"
)

// DebugHandler exposes operational endpoints for session bookkeeping. Wire it
// behind an internal listener or an ops-only route group; it is not part of
// the public surface.
type DebugHandler struct {
	sessions *session.Manager
	reaper   *session.Reaper
	metrics  sessionMetrics
}

type sessionMetrics interface {
	RecordSessionsReaped(n int64)
}

// NewDebugHandler creates the debug endpoint handler.
func NewDebugHandler(sessions *session.Manager, reaper *session.Reaper, metrics sessionMetrics) *DebugHandler {
	return &DebugHandler{sessions: sessions, reaper: reaper, metrics: metrics}
}

func (h *DebugHandler) sessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC(),
		"total":     stats.Total,
		"active":    stats.Active,
		"expired":   stats.Expired,
	})
}

// cleanupSessions triggers an immediate sweep of expired sessions. A sweep
// already in flight on the reaper's schedule makes this a no-op rather than
// a second concurrent delete.
func (h *DebugHandler) cleanupSessions(w http.ResponseWriter, r *http.Request) {
	result, err := h.reaper.Sweep(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}
	if h.metrics != nil && result.Deleted > 0 {
		h.metrics.RecordSessionsReaped(result.Deleted)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC(),
		"deleted":   result.Deleted,
		"sweptAt":   result.SweptAt,
	})
}
