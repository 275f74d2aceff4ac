package handler

import (
	"net/http"

	"github.com/dmitrymomot/authsvc/pkg/logger"
)

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized)
		return
	}
	current, _ := SessionFromContext(r.Context())

	sessions, err := h.sessions.List(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list sessions",
			logger.Component("handler"), logger.UserID(user.ID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s, current.ID))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

// revokeOtherSessions implements "log out other devices": every session of
// the user except the one presented on this request is deleted.
func (h *Handler) revokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	current, okSess := SessionFromContext(r.Context())
	if !ok || !okSess {
		respondError(w, http.StatusUnauthorized, codeUnauthorized)
		return
	}

	revoked, err := h.sessions.RevokeOthers(r.Context(), user.ID, current.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "revoke other sessions",
			logger.Component("handler"), logger.UserID(user.ID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSessionRevoked(revoked)
	}
	h.log.InfoContext(r.Context(), "revoked other sessions",
		logger.Component("handler"),
		logger.UserID(user.ID),
		logger.SessionID(current.ID),
		"revoked", revoked)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "other sessions revoked",
		"revoked": revoked,
	})
}
